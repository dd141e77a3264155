package story

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/magictales/backend/internal/apperror"
	"github.com/magictales/backend/internal/database"
	"github.com/magictales/backend/internal/profile"
	"github.com/magictales/backend/internal/storage"
)

// profileFinder is the slice of the profile repository this service
// needs to resolve ownership.
type profileFinder interface {
	FindByIDForUser(ctx context.Context, id, userID int64) (*profile.Profile, error)
}

// StoryService defines the business logic contract for stories. Every
// method takes the owner's id from the bearer token.
type StoryService interface {
	ListStories(ctx context.Context, userID int64) ([]Story, error)
	GetStory(ctx context.Context, id, userID int64) (*Story, error)
	CreateStory(ctx context.Context, userID int64, req CreateRequest) (*Story, error)
	DeleteStory(ctx context.Context, id, userID int64) error
	DownloadPath(ctx context.Context, id, userID int64) (string, error)
}

// storyService implements StoryService.
type storyService struct {
	repo     StoryRepository
	profiles profileFinder
	files    storage.Store
	tx       database.TxRunner
}

// NewStoryService creates a story service with the given dependencies.
func NewStoryService(repo StoryRepository, profiles profileFinder, files storage.Store, tx database.TxRunner) StoryService {
	return &storyService{repo: repo, profiles: profiles, files: files, tx: tx}
}

// ListStories returns every story across the user's profiles, each with
// its profile and the profile's thumbnail embedded.
func (s *storyService) ListStories(ctx context.Context, userID int64) ([]Story, error) {
	stories, err := s.repo.FindAllByUser(ctx, userID)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("listing stories: %w", err))
	}

	for i := range stories {
		s.attachProfileImage(&stories[i])
	}
	return stories, nil
}

// GetStory returns one of the user's stories with its profile embedded.
func (s *storyService) GetStory(ctx context.Context, id, userID int64) (*Story, error) {
	st, err := s.repo.FindByIDForUser(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	s.attachProfileImage(st)
	return st, nil
}

// CreateStory records a new story under one of the user's profiles. The
// server assigns the generation session id and the folder the engine
// will render into.
func (s *storyService) CreateStory(ctx context.Context, userID int64, req CreateRequest) (*Story, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, apperror.NewBadRequest("Title is required")
	}

	p, err := s.profiles.FindByIDForUser(ctx, req.ProfileID, userID)
	if err != nil {
		return nil, err
	}

	sessionID := uuid.NewString()
	features := req.Features
	synopsis := req.Synopsis
	step := req.LastSuccessfulStep
	st := &Story{
		ProfileID:          p.ID,
		SessionID:          sessionID,
		Title:              req.Title,
		Features:           &features,
		Synopsis:           &synopsis,
		LastSuccessfulStep: &step,
		StoryFolder:        storage.StoryFolder + "/" + sessionID,
	}

	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, st)
	})
	if err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, apperror.NewInternal(fmt.Errorf("creating story: %w", err))
	}

	slog.Info("story created",
		slog.Int64("story_id", st.ID),
		slog.Int64("profile_id", p.ID),
		slog.String("session_id", sessionID),
	)

	st.Profile = p
	s.attachProfileImage(st)
	return st, nil
}

// DeleteStory removes one of the user's stories. The ownership check and
// the delete share one unit of work.
func (s *storyService) DeleteStory(ctx context.Context, id, userID int64) error {
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		st, err := s.repo.FindByIDForUser(ctx, id, userID)
		if err != nil {
			return err
		}
		return s.repo.Delete(ctx, st.ID)
	})
	if err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			return err
		}
		return apperror.NewInternal(fmt.Errorf("deleting story: %w", err))
	}

	slog.Info("story deleted",
		slog.Int64("story_id", id),
		slog.Int64("user_id", userID),
	)
	return nil
}

// DownloadPath returns the on-disk path of the story's rendered document.
func (s *storyService) DownloadPath(ctx context.Context, id, userID int64) (string, error) {
	st, err := s.repo.FindByIDForUser(ctx, id, userID)
	if err != nil {
		return "", err
	}
	return s.files.StoryFile(st.StoryFolder)
}

// attachProfileImage fills the embedded profile's thumbnail for list and
// detail responses.
func (s *storyService) attachProfileImage(st *Story) {
	if st.Profile == nil {
		return
	}
	st.Profile.Image = s.files.ImageBase64(storage.ProfileFolder, st.Profile.ID)
}
