package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/magictales/backend/internal/apperror"
	"github.com/magictales/backend/internal/database"
	"github.com/magictales/backend/internal/storage"
)

// ProfileService defines the business logic contract for profiles. Every
// method takes the owner's id from the bearer token.
type ProfileService interface {
	ListProfiles(ctx context.Context, userID int64) ([]Profile, error)
	GetProfile(ctx context.Context, id, userID int64) (*Profile, error)
	CreateProfile(ctx context.Context, userID int64, details string) (*Profile, error)
	SaveImage(ctx context.Context, id, userID int64, data []byte) error
	ImagePath(ctx context.Context, id, userID int64) (string, error)
}

// profileService implements ProfileService.
type profileService struct {
	repo  ProfileRepository
	files storage.Store
	tx    database.TxRunner
}

// NewProfileService creates a profile service with the given dependencies.
func NewProfileService(repo ProfileRepository, files storage.Store, tx database.TxRunner) ProfileService {
	return &profileService{repo: repo, files: files, tx: tx}
}

// ListProfiles returns the user's profiles.
func (s *profileService) ListProfiles(ctx context.Context, userID int64) ([]Profile, error) {
	profiles, err := s.repo.FindAllByUser(ctx, userID)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("listing profiles: %w", err))
	}
	return profiles, nil
}

// GetProfile returns one of the user's profiles.
func (s *profileService) GetProfile(ctx context.Context, id, userID int64) (*Profile, error) {
	return s.repo.FindByIDForUser(ctx, id, userID)
}

// CreateProfile stores a new profile owned by the authenticated user.
func (s *profileService) CreateProfile(ctx context.Context, userID int64, details string) (*Profile, error) {
	p := &Profile{UserID: userID, Details: details}

	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, p)
	})
	if err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, apperror.NewInternal(fmt.Errorf("creating profile: %w", err))
	}

	slog.Info("profile created",
		slog.Int64("profile_id", p.ID),
		slog.Int64("user_id", userID),
	)
	return p, nil
}

// SaveImage stores an uploaded image for one of the user's profiles.
// Ownership is checked before anything touches the disk.
func (s *profileService) SaveImage(ctx context.Context, id, userID int64, data []byte) error {
	if _, err := s.repo.FindByIDForUser(ctx, id, userID); err != nil {
		return err
	}
	if err := s.files.SaveImage(storage.ProfileFolder, id, data); err != nil {
		return err
	}

	slog.Info("profile image saved",
		slog.Int64("profile_id", id),
		slog.Int64("user_id", userID),
	)
	return nil
}

// ImagePath returns the stored image path for one of the user's profiles.
func (s *profileService) ImagePath(ctx context.Context, id, userID int64) (string, error) {
	if _, err := s.repo.FindByIDForUser(ctx, id, userID); err != nil {
		return "", err
	}
	return s.files.ImagePath(storage.ProfileFolder, id)
}
