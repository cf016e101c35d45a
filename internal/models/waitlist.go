package models

import (
	"time"

	"github.com/google/uuid"
)

// WaitlistEntry is one public signup against an experiment's slug. Duplicate
// (slug, email) pairs are allowed; entries are only removed when the owning
// experiment is deleted.
type WaitlistEntry struct {
	ID        uuid.UUID `json:"id"`
	Slug      string    `json:"slug"`
	Name      *string   `json:"name,omitempty"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}
