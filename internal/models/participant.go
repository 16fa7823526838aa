package models

import (
	"time"

	"github.com/google/uuid"
)

// Participant represents one currently-present chat identity, keyed by
// unique display name.
type Participant struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	LastActivity time.Time `json:"last_activity"`
}
