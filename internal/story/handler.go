package story

import (
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/magictales/backend/internal/apperror"
	"github.com/magictales/backend/internal/middleware"
)

// Handler handles HTTP requests for the story resource.
type Handler struct {
	service StoryService
}

// NewHandler creates a story handler with the given service.
func NewHandler(service StoryService) *Handler {
	return &Handler{service: service}
}

// List returns the authenticated user's stories (GET /story).
func (h *Handler) List(c echo.Context) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}

	stories, err := h.service.ListStories(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stories)
}

// Get returns one story (GET /story/:id).
func (h *Handler) Get(c echo.Context) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return apperror.NewBadRequest("Invalid story id")
	}

	st, err := h.service.GetStory(c.Request().Context(), id, userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, st)
}

// Create records a new story (POST /story).
func (h *Handler) Create(c echo.Context) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}

	var req CreateRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("Invalid request")
	}

	st, err := h.service.CreateStory(c.Request().Context(), userID, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, st)
}

// Delete removes a story (DELETE /story/:id).
func (h *Handler) Delete(c echo.Context) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return apperror.NewBadRequest("Invalid story id")
	}

	if err := h.service.DeleteStory(c.Request().Context(), id, userID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, StatusAPI{Message: "Story deleted successfully"})
}

// Download streams the story's rendered document (GET /story/:id/download).
func (h *Handler) Download(c echo.Context) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return apperror.NewBadRequest("Invalid story id")
	}

	path, err := h.service.DownloadPath(c.Request().Context(), id, userID)
	if err != nil {
		return err
	}
	return c.Attachment(path, filepath.Base(path))
}
