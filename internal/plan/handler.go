package plan

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/magictales/backend/internal/apperror"
)

// Handler handles HTTP requests for the plan catalogue. Handlers are
// thin: they parse the request, call the service, and render JSON.
type Handler struct {
	service PlanService
}

// NewHandler creates a plan handler with the given service.
func NewHandler(service PlanService) *Handler {
	return &Handler{service: service}
}

// List returns every plan (GET /plan).
func (h *Handler) List(c echo.Context) error {
	plans, err := h.service.ListPlans(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, plans)
}

// Image serves a plan's marketing image (GET /plan/:id/image).
func (h *Handler) Image(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return apperror.NewBadRequest("Invalid plan id")
	}

	path, err := h.service.PlanImagePath(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.File(path)
}
