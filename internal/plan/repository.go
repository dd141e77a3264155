package plan

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magictales/backend/internal/apperror"
	"github.com/magictales/backend/internal/database"
)

// PlanRepository defines the data access contract for subscription plans.
// All SQL lives in the concrete implementation.
type PlanRepository interface {
	FindAll(ctx context.Context) ([]Plan, error)
	FindByID(ctx context.Context, id int64) (*Plan, error)
	FindByName(ctx context.Context, name string) (*Plan, error)
}

// planRepository implements PlanRepository with hand-written MySQL queries.
type planRepository struct {
	db *database.DB
}

// NewPlanRepository creates a plan repository backed by the given DB.
func NewPlanRepository(db *database.DB) PlanRepository {
	return &planRepository{db: db}
}

const planColumns = `id, name, image, is_popular, price, discount_per_year,
	save_up_message, stories_per_month, customization_options,
	voice_synthesis, custommer_support, description, created_at`

// scanPlan reads one plans row from a row scanner.
func scanPlan(row interface{ Scan(dest ...any) error }) (*Plan, error) {
	p := &Plan{}
	var description []byte
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Image,
		&p.IsPopular,
		&p.Price,
		&p.DiscountPerYear,
		&p.SaveUpMessage,
		&p.StoriesPerMonth,
		&p.CustomizationOptions,
		&p.VoiceSynthesis,
		&p.CustommerSupport,
		&description,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Description = description
	return p, nil
}

// FindAll returns every plan ordered by price ascending.
func (r *planRepository) FindAll(ctx context.Context) ([]Plan, error) {
	query := `SELECT ` + planColumns + ` FROM plans ORDER BY price ASC, id ASC`

	rows, err := r.db.Q(ctx).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing plans: %w", err)
	}
	defer rows.Close()

	var plans []Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning plan row: %w", err)
		}
		plans = append(plans, *p)
	}

	return plans, rows.Err()
}

// FindByID retrieves a plan by its id.
// Returns apperror.NotFound if no plan exists with this id.
func (r *planRepository) FindByID(ctx context.Context, id int64) (*Plan, error) {
	query := `SELECT ` + planColumns + ` FROM plans WHERE id = ?`

	p, err := scanPlan(r.db.Q(ctx).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("Plan not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying plan by id: %w", err)
	}

	return p, nil
}

// FindByName retrieves a plan by its unique name.
// Returns apperror.NotFound if no plan exists with this name.
func (r *planRepository) FindByName(ctx context.Context, name string) (*Plan, error) {
	query := `SELECT ` + planColumns + ` FROM plans WHERE name = ?`

	p, err := scanPlan(r.db.Q(ctx).QueryRowContext(ctx, query, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("Plan not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying plan by name: %w", err)
	}

	return p, nil
}
