package model

import "time"

// User represents an application user record as stored in the `users`
// table.  Users are created on registration and never updated afterwards.
//
// Fields:
//
//	ID           – opaque identifier (UUID string).
//	Email        – unique, trimmed and lower-cased address.
//	PasswordHash – bcrypt digest; never serialized.
//	CreatedAt    – timestamp of creation (UTC).
type User struct {
	ID           string    `json:"id"`    // users.id
	Email        string    `json:"email"` // users.email
	PasswordHash string    `json:"-"`     // users.password_hash
	CreatedAt    time.Time `json:"-"`     // users.created_at
}
