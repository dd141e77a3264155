package system

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Handler handles HTTP requests for system reference data.
type Handler struct {
	service SystemService
}

// NewHandler creates a system handler with the given service.
func NewHandler(service SystemService) *Handler {
	return &Handler{service: service}
}

// Languages returns the supported story languages (GET /system/languages).
func (h *Handler) Languages(c echo.Context) error {
	languages, err := h.service.ListLanguages(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, languages)
}
