// Package plan exposes the subscription plan catalogue. Plans are
// read-only through the API; rows are managed by migrations and back
// office tooling. Pricing display fields are nullable because the
// marketing site only fills them for paid tiers.
package plan

import (
	"encoding/json"
	"time"
)

// Plan represents a subscription tier. The struct is scanned straight
// from the plans table and marshaled as-is in API responses.
type Plan struct {
	ID                   int64           `json:"id"`
	Name                 string          `json:"name"`
	Image                string          `json:"image"`
	IsPopular            bool            `json:"is_popular"`
	Price                float64         `json:"price"`
	DiscountPerYear      *float64        `json:"discount_per_year"`
	SaveUpMessage        *string         `json:"save_up_message"`
	StoriesPerMonth      *int            `json:"stories_per_month"`
	CustomizationOptions *string         `json:"customization_options"`
	VoiceSynthesis       *string         `json:"voice_synthesis"`
	CustommerSupport     *string         `json:"custommer_support"`
	Description          json.RawMessage `json:"description"`
	CreatedAt            time.Time       `json:"created_at"`
}

// FreePlanName is the catalogue entry every new account starts on.
// Seeded by the migrations; registration fails if it is missing.
const FreePlanName = "Free Plan"
