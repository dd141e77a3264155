package system

import (
	"context"
	"fmt"

	"github.com/magictales/backend/internal/apperror"
)

// SystemService defines the business logic contract for reference data.
type SystemService interface {
	ListLanguages(ctx context.Context) ([]Language, error)
}

// systemService implements SystemService.
type systemService struct {
	repo SystemRepository
}

// NewSystemService creates a system service with the given repository.
func NewSystemService(repo SystemRepository) SystemService {
	return &systemService{repo: repo}
}

// ListLanguages returns every supported language. An unseeded table is a
// deployment fault and reported as not found.
func (s *systemService) ListLanguages(ctx context.Context) ([]Language, error) {
	languages, err := s.repo.FindAllLanguages(ctx)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("listing languages: %w", err))
	}
	if len(languages) == 0 {
		return nil, apperror.NewNotFound("No languages found")
	}
	return languages, nil
}
