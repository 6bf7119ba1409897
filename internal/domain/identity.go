package domain

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Identity is the authenticated principal derived from a sealed token whose
// referenced user has been confirmed to exist. It is attached to the request
// context by the authorization middleware and never persisted by this
// service.
type Identity struct {
	// ID is the unique identifier of the acting user, compared against a
	// task's UserID for every ownership check.
	ID uuid.UUID `json:"id"`

	// Claims carries the remaining claim payload exactly as it was sealed.
	Claims json.RawMessage `json:"claims,omitempty"`
}
