// Package repository defines the persistence layer: the store interfaces
// handlers depend on, their MySQL and in-memory implementations, and the
// sentinel errors that let handlers distinguish expected failures from
// storage faults.
package repository

import "errors"

// ErrEmailExists is returned by UserStore.Create when the normalized email
// is already registered.  Handlers translate it into HTTP 409.
var ErrEmailExists = errors.New("email already exists")

// ErrUserNotFound is returned when no user matches a lookup.
var ErrUserNotFound = errors.New("user not found")

// ErrNoteNotFound is returned when no note matches both the id and the
// owner.  A note owned by someone else is indistinguishable from a note
// that does not exist.  Handlers translate it into HTTP 404.
var ErrNoteNotFound = errors.New("note not found")
