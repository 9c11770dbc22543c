// Package queue defines the domain events exchanged over the message broker
// and the background consumer that writes them to the audit log.
package queue

import "time"

// Event types.
const (
	UserRegistered = "user.registered"
	NoteCreated    = "note.created"
	NoteUpdated    = "note.updated"
	NoteDeleted    = "note.deleted"
)

// Event is published after a state change has been committed.  It carries
// identifiers only; note text and credentials never leave the service.
type Event struct {
	Type       string    `json:"type"`
	UserID     string    `json:"user_id"`
	Email      string    `json:"email,omitempty"`
	NoteID     string    `json:"note_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewEvent stamps an event with the current UTC time.
func NewEvent(typ, userID string) Event {
	return Event{Type: typ, UserID: userID, OccurredAt: time.Now().UTC()}
}
