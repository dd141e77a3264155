package story

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes sets up the story routes on the given Echo instance.
// Every route requires a bearer token; ownership always flows through
// the profile join.
func RegisterRoutes(e *echo.Echo, h *Handler, requireAuth echo.MiddlewareFunc) {
	g := e.Group("/story", requireAuth)
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.DELETE("/:id", h.Delete)
	g.GET("/:id/download", h.Download)
}
