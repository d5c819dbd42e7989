package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/leadgridhq/leadgrid/config"
	"github.com/leadgridhq/leadgrid/pkg/cache"
	"github.com/leadgridhq/leadgrid/pkg/database"
)

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	config  *config.Config
	db      *database.Client
	cache   *cache.Client
	started time.Time
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(cfg *config.Config, db *database.Client, cacheClient *cache.Client) *HealthHandler {
	return &HealthHandler{
		config:  cfg,
		db:      db,
		cache:   cacheClient,
		started: time.Now(),
	}
}

// Live reports process liveness only.
func (h *HealthHandler) Live(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":      "healthy",
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
		"uptime":      time.Since(h.started).Seconds(),
		"environment": h.config.APIEnvironment,
	})
}

// Detailed reports readiness including dependency status. Degraded
// dependencies return 503 so the load balancer drains the instance.
func (h *HealthHandler) Detailed(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	checks := map[string]string{
		"database": "ok",
		"redis":    "ok",
	}
	status := http.StatusOK

	if err := h.db.Ping(ctx); err != nil {
		checks["database"] = "unreachable"
		status = http.StatusServiceUnavailable
	}
	if err := h.cache.Ping(ctx); err != nil {
		checks["redis"] = "unreachable"
		status = http.StatusServiceUnavailable
	}

	body := map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    checks,
	}
	if status != http.StatusOK {
		body["status"] = "degraded"
	}
	return c.JSON(status, body)
}
