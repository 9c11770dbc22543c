package repository

import (
	"context"

	"github.com/iliyamo/notes-service/internal/model"
)

// UserStore persists user identities.
type UserStore interface {
	// GetByEmail returns the user with the given normalized email or
	// ErrUserNotFound.
	GetByEmail(ctx context.Context, email string) (model.User, error)
	// Create stores a new user.  It fails with ErrEmailExists when the
	// email is taken; uniqueness is enforced by the store itself.
	Create(ctx context.Context, email, passwordHash string) (model.User, error)
}

// NoteStore persists notes.  Every method is scoped to an owner: rows that
// belong to somebody else are never read, changed or removed.
type NoteStore interface {
	// ListByOwner returns the owner's notes, newest first.  The result is
	// never nil.
	ListByOwner(ctx context.Context, ownerID string) ([]model.Note, error)
	// Create stores a note owned by ownerID.
	Create(ctx context.Context, ownerID, text string) (model.Note, error)
	// UpdateByIDAndOwner replaces the text of a note and returns the
	// updated row, or ErrNoteNotFound.
	UpdateByIDAndOwner(ctx context.Context, id, ownerID, text string) (model.Note, error)
	// DeleteByIDAndOwner removes a note.  Deleting a missing or foreign
	// note is not an error; the boolean reports whether a row was removed.
	DeleteByIDAndOwner(ctx context.Context, id, ownerID string) (bool, error)
}
