// Package repository defines data access interfaces for the archive.
// These interfaces abstract storage operations, allowing for different
// implementations (in-memory, SQLite, PostgreSQL) while keeping the
// business layer clean.
package repository

import (
	"context"

	"github.com/pryanikov/archiveapp/internal/domain"
)

// =============================================================================
// Document Repository
// =============================================================================

// DocumentRepository is the keyed document collection the business layer
// works against. It carries no business rules: no validation, no
// authorization, last write wins per id.
type DocumentRepository interface {
	// GetAll returns every document in the store, in a stable
	// enumeration order. The archive is small enough to enumerate in
	// full on every query.
	GetAll(ctx context.Context) ([]*domain.Document, error)

	// GetByID retrieves a document by id.
	// Returns domain.ErrDocumentNotFound if the id is unknown.
	GetByID(ctx context.Context, id string) (*domain.Document, error)

	// GetByOwner returns the documents added by the given user.
	GetByOwner(ctx context.Context, userID string) ([]*domain.Document, error)

	// Upsert inserts the document if its id is unseen, otherwise fully
	// replaces the stored record.
	Upsert(ctx context.Context, doc *domain.Document) error

	// Delete removes a document by id. Deleting an absent id is a no-op.
	Delete(ctx context.Context, id string) error
}

// =============================================================================
// User Repository (identity store)
// =============================================================================

// UserRepository is the read-mostly identity store. The core only ever
// looks users up; creation happens through the admin CLI.
type UserRepository interface {
	// GetByEmail retrieves a user by email, compared case-insensitively.
	// Returns domain.ErrUserNotFound if no user matches.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// Create creates a new user.
	// Returns domain.ErrUserAlreadyExists on an email collision.
	Create(ctx context.Context, user *domain.User) error

	// List returns all users.
	List(ctx context.Context) ([]*domain.User, error)
}
