package session

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes sets up the session routes on the given Echo instance.
// All session routes are public; rateLimit caps attempts per IP to slow
// credential stuffing and code guessing.
func RegisterRoutes(e *echo.Echo, h *Handler, rateLimit echo.MiddlewareFunc) {
	g := e.Group("/session", rateLimit)
	g.POST("/login", h.Login)
	g.POST("/login-swagger", h.LoginSwagger)
	g.POST("/register", h.Register)
	g.POST("/activate", h.Activate)
	g.POST("/recover-password", h.RecoverPassword)
	g.POST("/reset-password", h.ResetPassword)
}
