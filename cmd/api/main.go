package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/leadgridhq/leadgrid/config"
	"github.com/leadgridhq/leadgrid/pkg/api/handlers"
	apimw "github.com/leadgridhq/leadgrid/pkg/api/middleware"
	"github.com/leadgridhq/leadgrid/pkg/auth"
	"github.com/leadgridhq/leadgrid/pkg/cache"
	"github.com/leadgridhq/leadgrid/pkg/database"
	"github.com/leadgridhq/leadgrid/pkg/leads"
	"github.com/leadgridhq/leadgrid/pkg/logger"
	"github.com/leadgridhq/leadgrid/pkg/metrics"
	custommw "github.com/leadgridhq/leadgrid/pkg/middleware"
	"github.com/leadgridhq/leadgrid/pkg/users"
)

func main() {
	// Load .env if present; real environments set variables directly
	_ = godotenv.Load()

	cfg := config.Load()
	log.Printf("🔧 Configuration loaded (environment: %s)", cfg.APIEnvironment)

	appLogger := logger.New(cfg.LogLevel)

	// Sentry error tracking
	if cfg.SentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.SentryEnvironment,
			AttachStacktrace: true,
		})
		if err != nil {
			log.Printf("⚠️  Failed to initialize Sentry: %v", err)
		} else {
			log.Printf("✅ Sentry initialized (environment: %s)", cfg.SentryEnvironment)
			defer sentry.Flush(2 * time.Second)
		}
	} else {
		log.Printf("ℹ️  Sentry disabled (no DSN configured)")
	}

	// Document store
	db, err := database.NewClient(cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = db.Close(ctx)
	}()

	{
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := db.EnsureIndexes(ctx); err != nil {
			cancel()
			log.Fatalf("❌ Failed to create indexes: %v", err)
		}
		cancel()
	}

	// Redis cache
	redisClient, err := cache.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatalf("❌ Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	prometheusMetrics := metrics.New()
	log.Printf("✅ Prometheus metrics initialized")

	// Services
	blacklist := auth.NewTokenBlacklist(redisClient)
	userService := users.NewService(users.NewMongoStore(db))
	leadService := leads.NewService(leads.NewMongoStore(db))

	// Handlers
	authHandler := handlers.NewAuthHandler(userService, cfg, blacklist, prometheusMetrics)
	leadHandler := handlers.NewLeadHandler(leadService, cfg, prometheusMetrics)
	phoneHandler := handlers.NewPhoneHandler()
	healthHandler := handlers.NewHealthHandler(cfg, db, redisClient)

	// Echo
	e := echo.New()
	e.HideBanner = true

	// Rate limiters
	globalRateLimiter := custommw.NewRateLimiter(cfg.RateLimitRequestsPerMinute, cfg.RateLimitBurst)
	loginRateLimiter := custommw.NewRateLimiter(5, 2)
	registerRateLimiter := custommw.NewRateLimiter(3, 1)

	// Global middleware
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogError:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			appLogger.Info("request",
				"method", c.Request().Method,
				"uri", v.URI,
				"status", v.Status,
			)
			return nil
		},
	}))
	e.Use(echomw.Recover())

	if cfg.SentryDSN != "" {
		e.Use(sentryecho.New(sentryecho.Options{Repanic: true}))
	}

	e.Use(prometheusMetrics.Middleware())

	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSAllowedOrigins,
		AllowMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
		},
		AllowCredentials: true,
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Accept",
			"Authorization",
		},
	}))

	e.Use(echomw.Gzip())
	e.Use(echomw.Secure())
	e.Use(globalRateLimiter.Middleware())

	// Public endpoints
	e.GET("/health", healthHandler.Live)
	e.GET("/api/health", healthHandler.Live)
	e.GET("/api/health/detailed", healthHandler.Detailed)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api")

	// Auth
	authGroup := api.Group("/auth")
	authGroup.POST("/register", authHandler.Register, registerRateLimiter.Middleware())
	authGroup.POST("/login", authHandler.Login, loginRateLimiter.Middleware())
	authGroup.POST("/logout", authHandler.Logout)
	authGroup.GET("/me", authHandler.Me, apimw.JWTMiddleware(cfg.JWTSecret, blacklist))

	// Leads
	requireAuth := apimw.JWTMiddleware(cfg.JWTSecret, blacklist)
	leadGroup := api.Group("/leads", requireAuth)
	leadGroup.GET("", leadHandler.List)
	leadGroup.POST("", leadHandler.Create)
	leadGroup.POST("/query", leadHandler.Query)
	leadGroup.GET("/export", leadHandler.Export)
	leadGroup.GET("/:id", leadHandler.Get)
	leadGroup.PUT("/:id", leadHandler.Update)
	leadGroup.PATCH("/:id", leadHandler.Patch)
	leadGroup.DELETE("/:id", leadHandler.Delete)

	// Phone tools
	phoneGroup := api.Group("/phone", requireAuth)
	phoneGroup.POST("/validate", phoneHandler.Validate)
	phoneGroup.POST("/normalize", phoneHandler.Normalize)

	// Start server
	address := fmt.Sprintf("%s:%s", cfg.APIHost, cfg.APIPort)
	log.Printf("🚀 LeadGrid API starting on %s", address)
	log.Printf("🔐 JWT expiration: %d hours", cfg.JWTExpirationHours)
	log.Printf("🛡️  Rate limiting: %d req/min (burst: %d)", cfg.RateLimitRequestsPerMinute, cfg.RateLimitBurst)
	log.Printf("🔒 Auth endpoints: login (5/min), register (3/min)")

	go func() {
		if err := e.Start(address); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Fatalf("❌ Server forced to shutdown: %v", err)
	}

	log.Println("✅ Server gracefully stopped")
}
