package model

import "time"

// Note is a single text note owned by exactly one user.  The owner is set
// at creation and never changes; only Text and UpdatedAt are mutable.
// The JSON tags define the wire shape returned by the notes endpoints.
type Note struct {
	ID        string    `json:"id"`        // notes.id
	Text      string    `json:"text"`      // notes.text, trimmed and non-empty
	OwnerID   string    `json:"ownerId"`   // notes.owner_id, references users.id
	CreatedAt time.Time `json:"createdAt"` // notes.created_at
	UpdatedAt time.Time `json:"updatedAt"` // notes.updated_at
}
