// Package service provides the business rule layer of the archive.
package service

import "errors"

// Common service errors.
var (
	// Credential validation errors
	ErrEmailRequired    = errors.New("email must not be blank")
	ErrPasswordRequired = errors.New("password must not be blank")

	// General errors
	ErrInternalError = errors.New("operation failed")
)
