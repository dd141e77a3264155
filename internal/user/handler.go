package user

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/magictales/backend/internal/apperror"
	"github.com/magictales/backend/internal/middleware"
)

// Handler handles HTTP requests for the account resource. Handlers are
// thin: they bind the request, call the service, and render JSON.
type Handler struct {
	service UserService
}

// NewHandler creates a user handler with the given service.
func NewHandler(service UserService) *Handler {
	return &Handler{service: service}
}

// Get returns the authenticated user (GET /user).
func (h *Handler) Get(c echo.Context) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}

	u, err := h.service.GetUser(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, u)
}

// Update applies account changes (PUT /user).
func (h *Handler) Update(c echo.Context) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}

	var req UpdateRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("Invalid request")
	}

	u, err := h.service.UpdateUser(c.Request().Context(), userID, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, u)
}

// ConfirmEmailChange consumes the emailed code and applies the pending
// address (POST /user/confirm-email-change).
func (h *Handler) ConfirmEmailChange(c echo.Context) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}

	var req ConfirmEmailChangeRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("Invalid request")
	}

	u, err := h.service.ConfirmEmailChange(c.Request().Context(), userID, req.ValidationCode)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, u)
}

// MonthStories returns how many stories the user created this month
// (GET /user/month-stories-count).
func (h *Handler) MonthStories(c echo.Context) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}

	count, err := h.service.MonthStoriesCount(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, count)
}

// ChangePlan moves the user to another plan (POST /user/change-plan/:plan_id).
func (h *Handler) ChangePlan(c echo.Context) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}

	planID, err := strconv.ParseInt(c.Param("plan_id"), 10, 64)
	if err != nil {
		return apperror.NewBadRequest("Invalid plan id")
	}

	if err := h.service.ChangePlan(c.Request().Context(), userID, planID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, true)
}
