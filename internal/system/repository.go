package system

import (
	"context"
	"fmt"

	"github.com/magictales/backend/internal/database"
)

// SystemRepository defines the data access contract for reference data.
type SystemRepository interface {
	FindAllLanguages(ctx context.Context) ([]Language, error)
}

// systemRepository implements SystemRepository with hand-written MySQL queries.
type systemRepository struct {
	db *database.DB
}

// NewSystemRepository creates a system repository backed by the given DB.
func NewSystemRepository(db *database.DB) SystemRepository {
	return &systemRepository{db: db}
}

// FindAllLanguages returns every language ordered by name.
func (r *systemRepository) FindAllLanguages(ctx context.Context) ([]Language, error) {
	query := `SELECT id, code, name FROM languages ORDER BY name ASC`

	rows, err := r.db.Q(ctx).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing languages: %w", err)
	}
	defer rows.Close()

	var languages []Language
	for rows.Next() {
		var l Language
		if err := rows.Scan(&l.ID, &l.Code, &l.Name); err != nil {
			return nil, fmt.Errorf("scanning language row: %w", err)
		}
		languages = append(languages, l)
	}

	return languages, rows.Err()
}
