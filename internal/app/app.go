// Package app is the application bootstrap and dependency injection root.
// It creates and holds all shared infrastructure (DB pool, Redis client,
// Echo instance, token manager, hash pool) and wires together the feature
// packages.
package app

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/magictales/backend/internal/apperror"
	"github.com/magictales/backend/internal/config"
	"github.com/magictales/backend/internal/database"
	"github.com/magictales/backend/internal/mail"
	"github.com/magictales/backend/internal/middleware"
	"github.com/magictales/backend/internal/password"
	"github.com/magictales/backend/internal/storage"
	"github.com/magictales/backend/internal/token"
)

// App holds all shared dependencies and the Echo HTTP server instance.
// Created once at startup in main.go and used to register all routes.
type App struct {
	// Config holds the loaded application configuration.
	Config *config.Config

	// DB wraps the MySQL pool with unit-of-work support, shared by all
	// repositories.
	DB *database.DB

	// Redis is the Redis client used for per-IP rate limiting.
	Redis *redis.Client

	// Echo is the HTTP server instance.
	Echo *echo.Echo

	// Tokens signs, verifies and refreshes access tokens.
	Tokens *token.Manager

	// Hasher is the bounded bcrypt worker pool.
	Hasher *password.Hasher

	// Mail delivers verification-code emails.
	Mail mail.Sender

	// Files manages profile images, plan images and story documents.
	Files storage.Store
}

// New creates a new App instance with the given dependencies and configures
// the Echo server with global middleware and error handling.
func New(
	cfg *config.Config,
	db *database.DB,
	rdb *redis.Client,
	tokens *token.Manager,
	hasher *password.Hasher,
	sender mail.Sender,
) *App {
	e := echo.New()

	// Disable Echo's default banner and startup message -- we log our own.
	e.HideBanner = true
	e.HidePort = true

	// Configure trusted reverse proxy IPs so c.RealIP() returns the actual
	// client IP instead of the proxy's IP. The rate limiter keys on it.
	middleware.TrustedProxies(e, []string{
		"127.0.0.0/8",    // Localhost
		"10.0.0.0/8",     // Docker default bridge
		"172.16.0.0/12",  // Docker bridge (alternate range)
		"192.168.0.0/16", // Common LAN
		"fd00::/8",       // IPv6 private
	})

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
		Echo:   e,
		Tokens: tokens,
		Hasher: hasher,
		Mail:   sender,
		Files:  storage.NewStore(cfg.Static.Folder, cfg.Static.MaxUploadSize),
	}

	// Register global middleware in order of execution.
	app.setupMiddleware()

	// Register the custom error handler that maps AppErrors to HTTP responses.
	e.HTTPErrorHandler = app.errorHandler

	// Serve the static file tree (plan images, profile images, story files).
	e.Static("/static", cfg.Static.Folder)

	return app
}

// setupMiddleware registers global middleware on the Echo instance.
// Order matters: outermost (recovery) runs first.
func (a *App) setupMiddleware() {
	// Panic recovery -- must be outermost to catch panics from all other middleware.
	a.Echo.Use(middleware.Recovery())

	// Request logging -- log every request with method, path, status, latency.
	a.Echo.Use(middleware.RequestLogger())

	// Security headers -- X-Frame-Options, X-Content-Type-Options, etc.
	a.Echo.Use(middleware.SecurityHeaders())

	// CORS -- the web and mobile clients are served from other origins.
	a.Echo.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins:   []string{a.Config.BaseURL},
		AllowCredentials: true,
	}))

	// Sliding sessions -- every authenticated response carries a
	// re-stamped token in its Authorization header. Login and register
	// issue their own tokens, static files carry none.
	a.Echo.Use(middleware.RefreshToken(a.Tokens, []string{
		"/session/login",
		"/session/register",
		"/static",
	}))
}

// errorHandler is the custom Echo error handler. It maps domain errors
// (AppError) to JSON responses with the right status code, and logs the
// underlying cause of internal errors without leaking it to the client.
func (a *App) errorHandler(err error, c echo.Context) {
	// Don't double-write if response is already committed.
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := "An unexpected error occurred"

	// Check if it's our domain error type.
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		code = appErr.Code
		message = appErr.Message

		// Log internal errors with the underlying cause.
		if appErr.Internal != nil {
			slog.Error("internal error",
				slog.String("type", appErr.Type),
				slog.String("message", appErr.Message),
				slog.Any("internal", appErr.Internal),
				slog.String("path", c.Request().URL.Path),
			)
		}
	} else {
		// Check for Echo's built-in HTTP errors (e.g., 404 from router).
		var echoErr *echo.HTTPError
		if errors.As(err, &echoErr) {
			code = echoErr.Code
			if msg, ok := echoErr.Message.(string); ok {
				message = msg
			} else {
				message = http.StatusText(code)
			}
		} else {
			// Truly unexpected error -- log it.
			slog.Error("unhandled error",
				slog.Any("error", err),
				slog.String("path", c.Request().URL.Path),
			)
		}
	}

	if err := c.JSON(code, map[string]string{
		"error":   http.StatusText(code),
		"message": message,
	}); err != nil {
		slog.Error("writing error response", slog.Any("error", err))
	}
}

// Start begins listening for HTTP requests on the configured port.
func (a *App) Start() error {
	addr := fmt.Sprintf(":%d", a.Config.Port)
	slog.Info("starting Magic Tales server",
		slog.String("addr", addr),
		slog.String("env", a.Config.Env),
	)
	return a.Echo.Start(addr)
}
