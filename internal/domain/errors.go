// Package domain contains the core business entities for the archive.
package domain

import "errors"

// Domain errors - these represent business rule violations.
// They are distinct from infrastructure errors (database, network, etc.).

var (
	// ===========================================
	// Validation Errors
	// ===========================================

	// ErrTitleRequired indicates the document title is blank.
	ErrTitleRequired = errors.New("document title must not be blank")

	// ErrAuthorRequired indicates the document has no non-blank author.
	ErrAuthorRequired = errors.New("document requires at least one author")

	// ===========================================
	// Conflict Errors
	// ===========================================

	// ErrDuplicateTitle indicates another document already uses the title
	// (titles are compared case-insensitively).
	ErrDuplicateTitle = errors.New("a document with this title already exists")

	// ===========================================
	// Not Found Errors
	// ===========================================

	// ErrDocumentNotFound indicates the requested document does not exist.
	ErrDocumentNotFound = errors.New("document not found")

	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrUserAlreadyExists indicates a user with the same email exists.
	ErrUserAlreadyExists = errors.New("user already exists")

	// ===========================================
	// Authentication/Authorization Errors
	// ===========================================

	// ErrInvalidCredentials indicates authentication failed. The same
	// error covers an unknown email and a wrong password so callers
	// cannot probe which emails are registered.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrDeleteForbidden indicates a non-administrator attempted to
	// delete a document.
	ErrDeleteForbidden = errors.New("only administrators can delete documents")

	// ErrNoActiveSession indicates the operation requires an
	// authenticated session and none exists.
	ErrNoActiveSession = errors.New("no active session")
)
