package story

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magictales/backend/internal/apperror"
	"github.com/magictales/backend/internal/database"
	"github.com/magictales/backend/internal/profile"
)

// StoryRepository defines the data access contract for stories. Reads
// join the owning profile both to enforce ownership in SQL and to embed
// it in the result.
type StoryRepository interface {
	Create(ctx context.Context, s *Story) error
	FindAllByUser(ctx context.Context, userID int64) ([]Story, error)
	FindByIDForUser(ctx context.Context, id, userID int64) (*Story, error)
	Delete(ctx context.Context, id int64) error
}

// storyRepository implements StoryRepository with hand-written MySQL queries.
type storyRepository struct {
	db *database.DB
}

// NewStoryRepository creates a story repository backed by the given DB.
func NewStoryRepository(db *database.DB) StoryRepository {
	return &storyRepository{db: db}
}

const storyJoinColumns = `s.id, s.profile_id, s.session_id, s.title, s.features,
	s.synopsis, s.last_successful_step, s.story_folder, s.created_at,
	p.id, p.user_id, p.details, p.created_at`

// scanStory reads one joined stories+profiles row from a row scanner.
func scanStory(row interface{ Scan(dest ...any) error }) (*Story, error) {
	st := &Story{Profile: &profile.Profile{}}
	var storyFolder sql.NullString
	var details sql.NullString
	err := row.Scan(
		&st.ID,
		&st.ProfileID,
		&st.SessionID,
		&st.Title,
		&st.Features,
		&st.Synopsis,
		&st.LastSuccessfulStep,
		&storyFolder,
		&st.CreatedAt,
		&st.Profile.ID,
		&st.Profile.UserID,
		&details,
		&st.Profile.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	st.StoryFolder = storyFolder.String
	st.Profile.Details = details.String
	return st, nil
}

// Create inserts a story and fills in its generated id.
func (r *storyRepository) Create(ctx context.Context, s *Story) error {
	query := `INSERT INTO stories
		(profile_id, session_id, title, features, synopsis, last_successful_step, story_folder)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	res, err := r.db.Q(ctx).ExecContext(ctx, query,
		s.ProfileID, s.SessionID, s.Title, s.Features, s.Synopsis, s.LastSuccessfulStep, s.StoryFolder)
	if err != nil {
		return fmt.Errorf("inserting story: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading story insert id: %w", err)
	}
	s.ID = id
	return nil
}

// FindAllByUser returns every story across the user's profiles, newest
// first, each with its profile embedded.
func (r *storyRepository) FindAllByUser(ctx context.Context, userID int64) ([]Story, error) {
	query := `SELECT ` + storyJoinColumns + `
		FROM stories s
		JOIN profiles p ON p.id = s.profile_id
		WHERE p.user_id = ?
		ORDER BY s.created_at DESC, s.id DESC`

	rows, err := r.db.Q(ctx).QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("listing stories: %w", err)
	}
	defer rows.Close()

	stories := []Story{}
	for rows.Next() {
		st, err := scanStory(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning story row: %w", err)
		}
		stories = append(stories, *st)
	}

	return stories, rows.Err()
}

// FindByIDForUser retrieves a story reachable through one of the user's
// profiles. Returns apperror.NotFound when the story is missing or owned
// by someone else.
func (r *storyRepository) FindByIDForUser(ctx context.Context, id, userID int64) (*Story, error) {
	query := `SELECT ` + storyJoinColumns + `
		FROM stories s
		JOIN profiles p ON p.id = s.profile_id
		WHERE s.id = ? AND p.user_id = ?`

	st, err := scanStory(r.db.Q(ctx).QueryRowContext(ctx, query, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("Story not found or access denied")
	}
	if err != nil {
		return nil, fmt.Errorf("querying story by id: %w", err)
	}

	return st, nil
}

// Delete removes a story by id. Ownership is resolved by the caller
// inside the same unit of work.
func (r *storyRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.Q(ctx).ExecContext(ctx, `DELETE FROM stories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting story: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading delete result: %w", err)
	}
	if affected == 0 {
		return apperror.NewNotFound("Story not found or access denied")
	}
	return nil
}
