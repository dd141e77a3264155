package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magictales/backend/internal/apperror"
	"github.com/magictales/backend/internal/database"
)

// ProfileRepository defines the data access contract for profiles. Reads
// that take a userID filter ownership in SQL, so a foreign profile
// surfaces as not found rather than forbidden.
type ProfileRepository interface {
	Create(ctx context.Context, p *Profile) error
	FindAllByUser(ctx context.Context, userID int64) ([]Profile, error)
	FindByIDForUser(ctx context.Context, id, userID int64) (*Profile, error)
}

// profileRepository implements ProfileRepository with hand-written MySQL queries.
type profileRepository struct {
	db *database.DB
}

// NewProfileRepository creates a profile repository backed by the given DB.
func NewProfileRepository(db *database.DB) ProfileRepository {
	return &profileRepository{db: db}
}

const profileColumns = `id, user_id, details, created_at`

// scanProfile reads one profiles row from a row scanner.
func scanProfile(row interface{ Scan(dest ...any) error }) (*Profile, error) {
	p := &Profile{}
	var details sql.NullString
	err := row.Scan(
		&p.ID,
		&p.UserID,
		&details,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Details = details.String
	return p, nil
}

// Create inserts a profile and fills in its generated id.
func (r *profileRepository) Create(ctx context.Context, p *Profile) error {
	query := `INSERT INTO profiles (user_id, details) VALUES (?, ?)`

	res, err := r.db.Q(ctx).ExecContext(ctx, query, p.UserID, p.Details)
	if err != nil {
		return fmt.Errorf("inserting profile: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading profile insert id: %w", err)
	}
	p.ID = id
	return nil
}

// FindAllByUser returns the user's profiles, oldest first. An owner with
// no profiles gets an empty list, not an error.
func (r *profileRepository) FindAllByUser(ctx context.Context, userID int64) ([]Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE user_id = ? ORDER BY id ASC`

	rows, err := r.db.Q(ctx).QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("listing profiles: %w", err)
	}
	defer rows.Close()

	profiles := []Profile{}
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning profile row: %w", err)
		}
		profiles = append(profiles, *p)
	}

	return profiles, rows.Err()
}

// FindByIDForUser retrieves a profile owned by the given user.
// Returns apperror.NotFound when the profile is missing or owned by
// someone else.
func (r *profileRepository) FindByIDForUser(ctx context.Context, id, userID int64) (*Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = ? AND user_id = ?`

	p, err := scanProfile(r.db.Q(ctx).QueryRowContext(ctx, query, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("Profile not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying profile by id: %w", err)
	}

	return p, nil
}
