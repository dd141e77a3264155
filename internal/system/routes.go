package system

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes sets up the public system routes on the given Echo instance.
func RegisterRoutes(e *echo.Echo, h *Handler) {
	g := e.Group("/system")
	g.GET("/languages", h.Languages)
}
