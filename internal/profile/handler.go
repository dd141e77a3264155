package profile

import (
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/magictales/backend/internal/apperror"
	"github.com/magictales/backend/internal/middleware"
)

// Handler handles HTTP requests for the profile resource.
type Handler struct {
	service ProfileService
}

// NewHandler creates a profile handler with the given service.
func NewHandler(service ProfileService) *Handler {
	return &Handler{service: service}
}

// List returns the authenticated user's profiles (GET /profile).
func (h *Handler) List(c echo.Context) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}

	profiles, err := h.service.ListProfiles(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, profiles)
}

// Get returns one profile (GET /profile/:id).
func (h *Handler) Get(c echo.Context) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return apperror.NewBadRequest("Invalid profile id")
	}

	p, err := h.service.GetProfile(c.Request().Context(), id, userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

// Create stores a new profile (POST /profile).
func (h *Handler) Create(c echo.Context) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}

	var req CreateRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("Invalid request")
	}

	p, err := h.service.CreateProfile(c.Request().Context(), userID, req.Details)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, p)
}

// UploadImage stores a profile picture (POST /profile/:id/upload-image).
// Replaces any previously uploaded image.
func (h *Handler) UploadImage(c echo.Context) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return apperror.NewBadRequest("Invalid profile id")
	}

	file, err := c.FormFile("image")
	if err != nil {
		return apperror.NewBadRequest("No image provided")
	}

	src, err := file.Open()
	if err != nil {
		return apperror.NewInternal(err)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return apperror.NewInternal(err)
	}

	if err := h.service.SaveImage(c.Request().Context(), id, userID, data); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Image uploaded successfully"})
}

// Image serves the stored profile picture (GET /profile/:id/image).
func (h *Handler) Image(c echo.Context) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return apperror.NewBadRequest("Invalid profile id")
	}

	path, err := h.service.ImagePath(c.Request().Context(), id, userID)
	if err != nil {
		return err
	}
	return c.File(path)
}
