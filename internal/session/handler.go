package session

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/magictales/backend/internal/apperror"
)

// Handler handles HTTP requests for authentication. Handlers are thin:
// they bind the request, call the service, and render JSON.
type Handler struct {
	service SessionService
}

// NewHandler creates a session handler with the given service.
func NewHandler(service SessionService) *Handler {
	return &Handler{service: service}
}

// Login authenticates by email or username (POST /session/login).
func (h *Handler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("Invalid request")
	}

	resp, err := h.service.Login(c.Request().Context(), req.User, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

// LoginSwagger authenticates the OAuth2 password form
// (POST /session/login-swagger).
func (h *Handler) LoginSwagger(c echo.Context) error {
	var req LoginSwaggerRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("Invalid request")
	}

	resp, err := h.service.LoginSwagger(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

// Register creates a new account (POST /session/register).
func (h *Handler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("Invalid request")
	}

	resp, err := h.service.Register(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

// Activate consumes the activation code (POST /session/activate).
func (h *Handler) Activate(c echo.Context) error {
	var req ActivateRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("Invalid request")
	}

	if err := h.service.Activate(c.Request().Context(), req.Email, req.ValidationCode); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, StatusAPI{Status: "success", Message: "Account activated."})
}

// RecoverPassword starts the password reset flow
// (POST /session/recover-password).
func (h *Handler) RecoverPassword(c echo.Context) error {
	var req RecoverPasswordRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("Invalid request")
	}

	if err := h.service.RecoverPassword(c.Request().Context(), req.Email); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, StatusAPI{Status: "success", Message: "Recovery email sent."})
}

// ResetPassword completes the password reset flow
// (POST /session/reset-password).
func (h *Handler) ResetPassword(c echo.Context) error {
	var req ResetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("Invalid request")
	}

	if err := h.service.ResetPassword(c.Request().Context(), req); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, StatusAPI{Status: "success", Message: "Password updated."})
}
