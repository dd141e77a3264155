package app

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/magictales/backend/internal/middleware"
	"github.com/magictales/backend/internal/plan"
	"github.com/magictales/backend/internal/profile"
	"github.com/magictales/backend/internal/session"
	"github.com/magictales/backend/internal/story"
	"github.com/magictales/backend/internal/system"
	"github.com/magictales/backend/internal/user"
)

// RegisterRoutes builds every feature package's repository, service and
// handler, and mounts its routes. This is the single place where all
// routes are aggregated.
func (a *App) RegisterRoutes() {
	e := a.Echo

	// Bearer auth for the owner-scoped resources; Redis-backed per-IP
	// throttling for the public session endpoints.
	requireAuth := middleware.RequireAuth(a.Tokens)
	rateLimit := middleware.RateLimit(a.Redis, a.Config.RateLimit.PerMinute, time.Minute)

	// --- Public Routes ---

	// Health check endpoint for container orchestration.
	e.GET("/healthz", a.healthz)

	planRepo := plan.NewPlanRepository(a.DB)
	planHandler := plan.NewHandler(plan.NewPlanService(planRepo, a.Files))
	plan.RegisterRoutes(e, planHandler)

	systemHandler := system.NewHandler(system.NewSystemService(system.NewSystemRepository(a.DB)))
	system.RegisterRoutes(e, systemHandler)

	// --- Session Routes (public, rate limited) ---

	userRepo := user.NewUserRepository(a.DB)
	sessionService := session.NewSessionService(userRepo, planRepo, a.Hasher, a.Tokens, a.Mail, a.DB)
	session.RegisterRoutes(e, session.NewHandler(sessionService), rateLimit)

	// --- Authenticated Routes ---

	userService := user.NewUserService(userRepo, planRepo, a.Mail, a.DB)
	user.RegisterRoutes(e, user.NewHandler(userService), requireAuth)

	profileRepo := profile.NewProfileRepository(a.DB)
	profileService := profile.NewProfileService(profileRepo, a.Files, a.DB)
	profile.RegisterRoutes(e, profile.NewHandler(profileService), requireAuth)

	storyService := story.NewStoryService(story.NewStoryRepository(a.DB), profileRepo, a.Files, a.DB)
	story.RegisterRoutes(e, story.NewHandler(storyService), requireAuth)
}

// healthz reports whether the backing stores are reachable. Container
// orchestration restarts the service on repeated failures.
func (a *App) healthz(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	components := map[string]string{"mysql": "ok", "redis": "ok"}

	if err := a.DB.Pool().PingContext(ctx); err != nil {
		status = http.StatusServiceUnavailable
		components["mysql"] = err.Error()
	}
	if err := a.Redis.Ping(ctx).Err(); err != nil {
		status = http.StatusServiceUnavailable
		components["redis"] = err.Error()
	}

	return c.JSON(status, components)
}
