package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/magictales/backend/internal/apperror"
	"github.com/magictales/backend/internal/database"
	"github.com/magictales/backend/internal/plan"
	"github.com/magictales/backend/internal/vercode"
)

// UserRepository defines the data access contract for accounts. All SQL
// lives in the concrete implementation. Methods run inside the caller's
// unit of work when the context carries one.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	FindByID(ctx context.Context, id int64) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	UsernameExists(ctx context.Context, username string) (bool, error)

	// Verification code lifecycle.
	SetValidationCode(ctx context.Context, id int64, code int, purpose vercode.Purpose) error
	SetPendingEmail(ctx context.Context, id int64, newEmail string, code int) error
	Activate(ctx context.Context, id int64) error
	ApplyPendingEmail(ctx context.Context, id int64) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error

	// Account fields.
	UpdateProfile(ctx context.Context, id int64, name, lastName, username string) error
	UpdatePlan(ctx context.Context, id, planID int64) error
	MonthStoriesCount(ctx context.Context, userID int64, from, to time.Time) (int, error)
}

// userRepository implements UserRepository with hand-written MySQL queries.
type userRepository struct {
	db *database.DB
}

// NewUserRepository creates a user repository backed by the given DB.
func NewUserRepository(db *database.DB) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, name, last_name, username, email, password,
	new_email, validation_code, code_purpose, active,
	plan_id, assistant_id, created_at`

// scanUser reads one users row from a row scanner.
func scanUser(row interface{ Scan(dest ...any) error }) (*User, error) {
	u := &User{}
	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.LastName,
		&u.Username,
		&u.Email,
		&u.Password,
		&u.NewEmail,
		&u.ValidationCode,
		&u.CodePurpose,
		&u.Active,
		&u.PlanID,
		&u.AssistantID,
		&u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// Create inserts a new user row. Duplicate username or email surfaces as
// a 409 conflict; the unique indexes arbitrate concurrent registrations.
func (r *userRepository) Create(ctx context.Context, user *User) error {
	query := `INSERT INTO users (name, last_name, username, email, password,
	              validation_code, code_purpose, active, plan_id)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	res, err := r.db.Q(ctx).ExecContext(ctx, query,
		user.Name,
		user.LastName,
		user.Username,
		user.Email,
		user.Password,
		user.ValidationCode,
		user.CodePurpose,
		user.Active,
		user.PlanID,
	)
	if database.IsDuplicateEntry(err) {
		return apperror.NewConflict("Username or email already in use")
	}
	if err != nil {
		return fmt.Errorf("inserting user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading new user id: %w", err)
	}
	user.ID = id

	return nil
}

// FindByID retrieves a user with their plan joined in.
// Returns apperror.NotFound if no user exists with this id.
func (r *userRepository) FindByID(ctx context.Context, id int64) (*User, error) {
	query := `SELECT u.id, u.name, u.last_name, u.username, u.email, u.password,
	                 u.new_email, u.validation_code, u.code_purpose, u.active,
	                 u.plan_id, u.assistant_id, u.created_at,
	                 p.id, p.name, p.image, p.is_popular, p.price,
	                 p.discount_per_year, p.save_up_message, p.stories_per_month,
	                 p.customization_options, p.voice_synthesis, p.custommer_support,
	                 p.description, p.created_at
	          FROM users u
	          JOIN plans p ON p.id = u.plan_id
	          WHERE u.id = ?`

	u := &User{Plan: &plan.Plan{}}
	var description []byte
	err := r.db.Q(ctx).QueryRowContext(ctx, query, id).Scan(
		&u.ID,
		&u.Name,
		&u.LastName,
		&u.Username,
		&u.Email,
		&u.Password,
		&u.NewEmail,
		&u.ValidationCode,
		&u.CodePurpose,
		&u.Active,
		&u.PlanID,
		&u.AssistantID,
		&u.CreatedAt,
		&u.Plan.ID,
		&u.Plan.Name,
		&u.Plan.Image,
		&u.Plan.IsPopular,
		&u.Plan.Price,
		&u.Plan.DiscountPerYear,
		&u.Plan.SaveUpMessage,
		&u.Plan.StoriesPerMonth,
		&u.Plan.CustomizationOptions,
		&u.Plan.VoiceSynthesis,
		&u.Plan.CustommerSupport,
		&description,
		&u.Plan.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("User not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying user by id: %w", err)
	}
	u.Plan.Description = description

	return u, nil
}

// FindByEmail retrieves a user by their email address.
// Returns apperror.NotFound if no user exists with this email.
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ?`

	u, err := scanUser(r.db.Q(ctx).QueryRowContext(ctx, query, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("User not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying user by email: %w", err)
	}

	return u, nil
}

// FindByUsername retrieves a user by their username.
// Returns apperror.NotFound if no user exists with this username.
func (r *userRepository) FindByUsername(ctx context.Context, username string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = ?`

	u, err := scanUser(r.db.Q(ctx).QueryRowContext(ctx, query, username))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("User not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying user by username: %w", err)
	}

	return u, nil
}

// EmailExists returns true if a user with the given email already exists.
// A fast path only; Create still maps the duplicate-key error.
func (r *userRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.Q(ctx).QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE email = ?)`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking email existence: %w", err)
	}
	return exists, nil
}

// UsernameExists returns true if a user with the given username already exists.
func (r *userRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.db.Q(ctx).QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE username = ?)`, username).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking username existence: %w", err)
	}
	return exists, nil
}

// --- Verification Code Lifecycle ---

// SetValidationCode stores a fresh code and its purpose, replacing any
// outstanding one.
func (r *userRepository) SetValidationCode(ctx context.Context, id int64, code int, purpose vercode.Purpose) error {
	query := `UPDATE users SET validation_code = ?, code_purpose = ? WHERE id = ?`

	res, err := r.db.Q(ctx).ExecContext(ctx, query, code, purpose, id)
	if err != nil {
		return fmt.Errorf("setting validation code: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.NewNotFound("User not found")
	}
	return nil
}

// SetPendingEmail parks a new address and mints its confirmation code in
// one statement.
func (r *userRepository) SetPendingEmail(ctx context.Context, id int64, newEmail string, code int) error {
	query := `UPDATE users SET new_email = ?, validation_code = ?, code_purpose = ? WHERE id = ?`

	res, err := r.db.Q(ctx).ExecContext(ctx, query, newEmail, code, vercode.PurposeEmailChange, id)
	if err != nil {
		return fmt.Errorf("setting pending email: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.NewNotFound("User not found")
	}
	return nil
}

// Activate marks the account active and consumes the code in the same
// statement, so a repeated activation finds no code to match.
func (r *userRepository) Activate(ctx context.Context, id int64) error {
	query := `UPDATE users SET active = 1, validation_code = NULL, code_purpose = NULL WHERE id = ?`

	res, err := r.db.Q(ctx).ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("activating user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.NewNotFound("User not found")
	}
	return nil
}

// ApplyPendingEmail promotes new_email to email and clears the pending
// state plus the consumed code. Maps a duplicate email to a 409.
func (r *userRepository) ApplyPendingEmail(ctx context.Context, id int64) error {
	query := `UPDATE users
	          SET email = new_email, new_email = NULL,
	              validation_code = NULL, code_purpose = NULL
	          WHERE id = ? AND new_email IS NOT NULL`

	res, err := r.db.Q(ctx).ExecContext(ctx, query, id)
	if database.IsDuplicateEntry(err) {
		return apperror.NewConflict("Email already in use")
	}
	if err != nil {
		return fmt.Errorf("applying pending email: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.NewValidation("No pending email change")
	}
	return nil
}

// UpdatePassword replaces the stored hash and consumes any outstanding
// validation code.
func (r *userRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	query := `UPDATE users
	          SET password = ?, validation_code = NULL, code_purpose = NULL
	          WHERE id = ?`

	res, err := r.db.Q(ctx).ExecContext(ctx, query, passwordHash, id)
	if err != nil {
		return fmt.Errorf("updating password: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.NewNotFound("User not found")
	}
	return nil
}

// --- Account Fields ---

// UpdateProfile sets the editable account fields. A duplicate username
// surfaces as a 409 conflict.
func (r *userRepository) UpdateProfile(ctx context.Context, id int64, name, lastName, username string) error {
	query := `UPDATE users SET name = ?, last_name = ?, username = ? WHERE id = ?`

	res, err := r.db.Q(ctx).ExecContext(ctx, query, name, lastName, username, id)
	if database.IsDuplicateEntry(err) {
		return apperror.NewConflict("Username already in use")
	}
	if err != nil {
		return fmt.Errorf("updating user profile: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.NewNotFound("User not found")
	}
	return nil
}

// UpdatePlan assigns the user to a different plan.
func (r *userRepository) UpdatePlan(ctx context.Context, id, planID int64) error {
	query := `UPDATE users SET plan_id = ? WHERE id = ?`

	res, err := r.db.Q(ctx).ExecContext(ctx, query, planID, id)
	if err != nil {
		return fmt.Errorf("updating user plan: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.NewNotFound("User not found")
	}
	return nil
}

// MonthStoriesCount counts the stories created across all of the user's
// profiles inside [from, to).
func (r *userRepository) MonthStoriesCount(ctx context.Context, userID int64, from, to time.Time) (int, error) {
	query := `SELECT COUNT(s.id)
	          FROM stories s
	          JOIN profiles p ON p.id = s.profile_id
	          WHERE p.user_id = ? AND s.created_at >= ? AND s.created_at < ?`

	var count int
	err := r.db.Q(ctx).QueryRowContext(ctx, query, userID, from, to).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting monthly stories: %w", err)
	}
	return count, nil
}
