// Package user implements the account resource: reading the current
// user, profile updates with the pending email-change flow, the monthly
// story counter and plan changes. Registration and login live in the
// session package; this package owns the users table.
package user

import (
	"time"

	"github.com/magictales/backend/internal/plan"
	"github.com/magictales/backend/internal/vercode"
)

// User represents a registered account. Database scanning and JSON
// marshaling use this struct directly. Credential and verification
// columns never serialize.
type User struct {
	ID             int64            `json:"id"`
	Name           string           `json:"name"`
	LastName       string           `json:"last_name"`
	Username       string           `json:"username"`
	Email          string           `json:"email"`
	Password       string           `json:"-"` // bcrypt hash, never expose.
	NewEmail       *string          `json:"new_email,omitempty"`
	ValidationCode *int             `json:"-"` // Never expose.
	CodePurpose    *vercode.Purpose `json:"-"` // Never expose.
	Active         bool             `json:"active"`
	PlanID         int64            `json:"plan_id"`
	Plan           *plan.Plan       `json:"plan,omitempty"`
	AssistantID    *string          `json:"assistant_id"`
	CreatedAt      time.Time        `json:"created_at"`
}

// --- Request DTOs (bound from HTTP requests) ---

// UpdateRequest holds the account fields a user may change (PUT /user).
// Submitting a new email does not change it directly; it parks the
// address as pending until the emailed code confirms it.
type UpdateRequest struct {
	Name     string `json:"name" form:"name"`
	LastName string `json:"last_name" form:"last_name"`
	Username string `json:"username" form:"username"`
	Email    string `json:"email" form:"email"`
}

// ConfirmEmailChangeRequest carries the emailed verification code
// (POST /user/confirm-email-change).
type ConfirmEmailChangeRequest struct {
	ValidationCode int `json:"validation_code" form:"validation_code"`
}

// MonthStoriesCount is the response body of GET /user/month-stories-count.
type MonthStoriesCount struct {
	UserID           int64 `json:"user_id"`
	StoriesThisMonth int   `json:"stories_this_month"`
}
