package plan

import (
	"context"
	"errors"
	"fmt"

	"github.com/magictales/backend/internal/apperror"
	"github.com/magictales/backend/internal/storage"
)

// PlanService defines the business logic contract for the plan catalogue.
// Handlers call these methods and never touch the repository directly.
type PlanService interface {
	ListPlans(ctx context.Context) ([]Plan, error)
	PlanImagePath(ctx context.Context, id int64) (string, error)
}

// planService implements PlanService.
type planService struct {
	repo  PlanRepository
	files storage.Store
}

// NewPlanService creates a plan service with the given dependencies.
func NewPlanService(repo PlanRepository, files storage.Store) PlanService {
	return &planService{repo: repo, files: files}
}

// ListPlans returns the full catalogue. An empty catalogue is a 404, the
// client treats it the same as a missing resource.
func (s *planService) ListPlans(ctx context.Context) ([]Plan, error) {
	plans, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("listing plans: %w", err))
	}
	if len(plans) == 0 {
		return nil, apperror.NewNotFound("No plans found")
	}
	return plans, nil
}

// PlanImagePath resolves the on-disk marketing image for a plan. The plan
// must exist before the file is looked up so an unknown id and a missing
// file report different messages.
func (s *planService) PlanImagePath(ctx context.Context, id int64) (string, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			return "", err
		}
		return "", apperror.NewInternal(fmt.Errorf("finding plan %d: %w", id, err))
	}

	return s.files.ImagePath(storage.PlanFolder, id)
}
