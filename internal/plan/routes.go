package plan

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes sets up the plan routes on the given Echo instance.
// The catalogue is public so the marketing site can render pricing
// without a session.
func RegisterRoutes(e *echo.Echo, h *Handler) {
	e.GET("/plan", h.List)
	e.GET("/plan/:id/image", h.Image)
}
