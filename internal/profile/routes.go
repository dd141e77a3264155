package profile

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes sets up the profile routes on the given Echo instance.
// Every route requires a bearer token and only ever touches the token
// owner's profiles.
func RegisterRoutes(e *echo.Echo, h *Handler, requireAuth echo.MiddlewareFunc) {
	g := e.Group("/profile", requireAuth)
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.POST("/:id/upload-image", h.UploadImage)
	g.GET("/:id/image", h.Image)
}
