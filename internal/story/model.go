// Package story manages generated stories. A story hangs off a profile,
// and every read and write is scoped to the token's user through the
// profile join, so a story the user does not own is reported as missing.
package story

import (
	"time"

	"github.com/magictales/backend/internal/profile"
)

// Story is one generated story. The generation engine writes the
// rendered document into StoryFolder; this service only records where.
type Story struct {
	ID                 int64   `json:"id"`
	ProfileID          int64   `json:"profile_id"`
	SessionID          string  `json:"session_id"`
	Title              string  `json:"title"`
	Features           *string `json:"features"`
	Synopsis           *string `json:"synopsis"`
	LastSuccessfulStep *int    `json:"last_successful_step"`

	// StoryFolder is the path fragment under the static root where the
	// rendered document lives. Internal only.
	StoryFolder string `json:"-"`

	// Profile is the owning profile, embedded in responses with its
	// base64 thumbnail.
	Profile *profile.Profile `json:"profile,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// CreateRequest is the payload for creating a story. The session id and
// story folder are assigned by the server, never by the client.
type CreateRequest struct {
	ProfileID          int64  `json:"profile_id" form:"profile_id"`
	Title              string `json:"title" form:"title"`
	Features           string `json:"features" form:"features"`
	Synopsis           string `json:"synopsis" form:"synopsis"`
	LastSuccessfulStep int    `json:"last_successful_step" form:"last_successful_step"`
}

// StatusAPI is a simple status response for delete operations.
type StatusAPI struct {
	Message string `json:"message"`
}
