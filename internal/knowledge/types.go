// Package knowledge provides read access to the curated FAQ knowledge base
// that grounds generated replies, plus the seeding path used to load the
// initial entries.
//
// Entries are versioned and activatable; only active entries are visible to
// context assembly. Lifecycle transitions are recorded in a change log that
// shares the store (no read path for it exists in the chat pipeline).
package knowledge

import (
	"time"

	"github.com/google/uuid"
)

// Change log action kinds.
const (
	ActionCreate   = "create"
	ActionUpdate   = "update"
	ActionDelete   = "delete"
	ActionRollback = "rollback"
)

// DefaultActor is the change-log actor label used when none is supplied.
const DefaultActor = "admin"

// Entry is a versioned question/answer record.
type Entry struct {
	ID        uuid.UUID `json:"id"`
	Category  string    `json:"category"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Version   int       `json:"version"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
}

// ChangeRecord tracks one lifecycle transition of an Entry.
type ChangeRecord struct {
	ID         uuid.UUID `json:"id"`
	EntryID    uuid.UUID `json:"entryId"`
	Action     string    `json:"action"`
	OldVersion *int      `json:"oldVersion,omitempty"`
	NewVersion *int      `json:"newVersion,omitempty"`
	ChangedAt  time.Time `json:"changedAt"`
	ChangedBy  string    `json:"changedBy"`
}
