package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/leadgridhq/leadgrid/config"
	apierrors "github.com/leadgridhq/leadgrid/pkg/api/errors"
	"github.com/leadgridhq/leadgrid/pkg/api/middleware"
	"github.com/leadgridhq/leadgrid/pkg/auth"
	"github.com/leadgridhq/leadgrid/pkg/metrics"
	"github.com/leadgridhq/leadgrid/pkg/models"
	"github.com/leadgridhq/leadgrid/pkg/users"
)

// AuthHandler handles registration, login and session endpoints.
type AuthHandler struct {
	users     *users.Service
	config    *config.Config
	blacklist *auth.TokenBlacklist
	metrics   *metrics.Metrics
	validator *validator.Validate
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(userService *users.Service, cfg *config.Config, blacklist *auth.TokenBlacklist, m *metrics.Metrics) *AuthHandler {
	return &AuthHandler{
		users:     userService,
		config:    cfg,
		blacklist: blacklist,
		metrics:   m,
		validator: newValidator(),
	}
}

// Register creates an account and signs the caller in.
func (h *AuthHandler) Register(c echo.Context) error {
	var req models.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Invalid request body"})
	}
	if err := h.validator.Struct(req); err != nil {
		return apierrors.Validation(c, validationFields(err))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	user, err := h.users.Register(ctx, &req)
	if err != nil {
		return apierrors.Respond(c, err)
	}
	h.metrics.UsersRegistered.Inc()

	token, err := auth.GenerateJWT(user.ID.Hex(), user.Email, h.config.JWTSecret, h.config.JWTExpirationHours)
	if err != nil {
		return apierrors.Respond(c, err)
	}
	c.SetCookie(h.sessionCookie(token))

	return c.JSON(http.StatusCreated, models.AuthResponse{
		Message: "User registered successfully",
		User:    user.Info(),
	})
}

// Login verifies credentials and issues a session cookie.
func (h *AuthHandler) Login(c echo.Context) error {
	var req models.LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Invalid request body"})
	}
	if err := h.validator.Struct(req); err != nil {
		return apierrors.Validation(c, validationFields(err))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	user, err := h.users.Authenticate(ctx, req.Email, req.Password)
	h.metrics.RecordLoginAttempt(err == nil)
	if err != nil {
		return apierrors.Respond(c, err)
	}

	token, err := auth.GenerateJWT(user.ID.Hex(), user.Email, h.config.JWTSecret, h.config.JWTExpirationHours)
	if err != nil {
		return apierrors.Respond(c, err)
	}
	c.SetCookie(h.sessionCookie(token))

	return c.JSON(http.StatusOK, models.AuthResponse{
		Message: "Login successful",
		User:    user.Info(),
	})
}

// Logout revokes the current token and clears the cookie. Always succeeds so
// a client with an already-expired session still lands signed out.
func (h *AuthHandler) Logout(c echo.Context) error {
	if token := middleware.ExtractToken(c); token != "" {
		if claims, err := auth.ValidateJWT(token, h.config.JWTSecret); err == nil {
			if ttl := time.Until(claims.ExpiresAt.Time); ttl > 0 {
				ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
				defer cancel()
				_ = h.blacklist.Add(ctx, token, ttl)
			}
		}
	}

	cookie := h.sessionCookie("")
	cookie.MaxAge = -1
	c.SetCookie(cookie)

	return c.JSON(http.StatusOK, models.MessageResponse{Message: "Logout successful"})
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(c echo.Context) error {
	owner, ok := middleware.OwnerID(c)
	if !ok {
		return apierrors.Unauthorized(c, "Not authorized, token failed")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	user, err := h.users.GetByID(ctx, owner)
	if err != nil {
		return apierrors.Respond(c, err)
	}
	return c.JSON(http.StatusOK, map[string]models.UserInfo{"user": user.Info()})
}

// sessionCookie builds the httpOnly session cookie. Cross-site deployments
// require Secure and SameSite=None to survive modern browser policy.
func (h *AuthHandler) sessionCookie(token string) *http.Cookie {
	cookie := &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		MaxAge:   h.config.JWTExpirationHours * 3600,
	}
	if h.config.CrossSiteCookies {
		cookie.Secure = true
		cookie.SameSite = http.SameSiteNoneMode
		cookie.Domain = h.config.CookieDomain
	} else {
		cookie.SameSite = http.SameSiteLaxMode
	}
	return cookie
}
