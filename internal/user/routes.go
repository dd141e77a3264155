package user

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes sets up the account routes on the given Echo instance.
// Every route requires a bearer token; the identity always comes from
// the token, never from the request body.
func RegisterRoutes(e *echo.Echo, h *Handler, requireAuth echo.MiddlewareFunc) {
	g := e.Group("/user", requireAuth)
	g.GET("", h.Get)
	g.PUT("", h.Update)
	g.POST("/confirm-email-change", h.ConfirmEmailChange)
	g.GET("/month-stories-count", h.MonthStories)
	g.POST("/change-plan/:plan_id", h.ChangePlan)
}
