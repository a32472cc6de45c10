// Package domain contains the core business entities for the archive.
// These are pure Go structs with no external dependencies, representing
// the fundamental concepts of the editorial document archive.
package domain

import "strings"

// Role represents a user's role in the archive.
type Role string

const (
	// RoleAdmin can do everything, including deleting documents.
	RoleAdmin Role = "ADMIN"

	// RoleEditor can create and edit documents.
	RoleEditor Role = "EDITOR"

	// RoleReader has read-only access.
	RoleReader Role = "READER"

	// RoleUnknown is used when the stored role cannot be interpreted.
	RoleUnknown Role = "UNKNOWN"
)

// ParseRole interprets a stored role value. Unrecognized values map to
// RoleUnknown rather than failing, so a record with a bad role still loads.
func ParseRole(s string) Role {
	switch Role(strings.ToUpper(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin
	case RoleEditor:
		return RoleEditor
	case RoleReader:
		return RoleReader
	default:
		return RoleUnknown
	}
}

// User represents an authenticated user of the archive.
// Users are created by the identity store and are read-only to the core:
// nothing in this module ever mutates a User record.
type User struct {
	// ID is the unique, stable identifier for the user.
	ID string `json:"id"`

	// Email is the unique login key. Lookups are case-insensitive.
	Email string `json:"email"`

	// Name is the optional display name.
	Name string `json:"name,omitempty"`

	// Role determines what the user may do.
	Role Role `json:"role"`

	// PasswordHash is the bcrypt hash of the user's password.
	// This should never be exposed in API responses.
	PasswordHash string `json:"-"`
}

// IsAdmin returns true if the user has administrative privileges.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
