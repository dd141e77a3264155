// Package profile manages the child reader profiles stories are
// generated for. Every profile belongs to one account, and all access is
// scoped to the token's user: a profile owned by someone else is
// indistinguishable from one that does not exist.
package profile

import "time"

// Profile is a child reader profile.
type Profile struct {
	ID      int64  `json:"id"`
	UserID  int64  `json:"user_id"`
	Details string `json:"details"`

	// Image carries the base64 thumbnail when the profile is embedded
	// in a story response. It is never stored in the database.
	Image string `json:"image,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// CreateRequest is the payload for creating a profile. The owner comes
// from the bearer token, not the body.
type CreateRequest struct {
	Details string `json:"details" form:"details"`
}
