// Package main is the entry point for the Magic Tales backend. It loads
// configuration, establishes database connections, runs migrations, wires
// together the feature packages, and starts the HTTP server.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/magictales/backend/internal/app"
	"github.com/magictales/backend/internal/config"
	"github.com/magictales/backend/internal/database"
	"github.com/magictales/backend/internal/mail"
	"github.com/magictales/backend/internal/password"
	"github.com/magictales/backend/internal/token"
)

func main() {
	// --- Load Configuration ---
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	// Configure structured logging based on environment.
	setupLogging(cfg)

	slog.Info("starting Magic Tales backend",
		slog.String("env", cfg.Env),
		slog.Int("port", cfg.Port),
	)

	// --- Connect to MySQL ---
	pool, err := database.NewMySQL(cfg.Database)
	if err != nil {
		slog.Error("failed to connect to MySQL", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()
	slog.Info("connected to MySQL")

	// --- Run Migrations ---
	if err := database.RunMigrations(pool, "db/migrations"); err != nil {
		slog.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}

	// --- Connect to Redis ---
	rdb, err := database.NewRedis(cfg.Redis)
	if err != nil {
		slog.Error("failed to connect to Redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer rdb.Close()
	slog.Info("connected to Redis")

	// --- Auth Infrastructure ---
	tokens, err := token.New(cfg.Auth.SecretKey, cfg.Auth.Algorithm, cfg.Auth.TokenTTL)
	if err != nil {
		slog.Error("failed to create token manager", slog.Any("error", err))
		os.Exit(1)
	}

	hasher := password.NewHasher(cfg.Auth.HashWorkers)
	defer hasher.Close()

	sender := mail.NewSender(cfg.Mail)
	if !sender.Configured() {
		slog.Warn("smtp not configured, verification codes will be logged")
	}

	// --- Create Application ---
	application := app.New(cfg, database.New(pool), rdb, tokens, hasher, sender)
	application.RegisterRoutes()

	// --- Graceful Shutdown ---
	// Listen for interrupt/term signals to drain connections cleanly.
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		slog.Info("shutting down server...")

		// Give in-flight requests 10 seconds to complete.
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := application.Echo.Shutdown(ctx); err != nil {
			slog.Error("server forced shutdown", slog.Any("error", err))
		}
	}()

	// --- Start Server ---
	if err := application.Start(); err != nil {
		// Echo returns http.ErrServerClosed on graceful shutdown, which is expected.
		slog.Info("server stopped", slog.Any("reason", err))
	}
}

// setupLogging configures the global slog logger. Development uses text
// format for readability. Production uses JSON for structured log
// aggregation.
func setupLogging(cfg *config.Config) {
	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	var handler slog.Handler
	if cfg.IsDevelopment() {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}

	slog.SetDefault(slog.New(handler))
}
