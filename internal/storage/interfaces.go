// Package storage defines the attachment storage abstraction.
package storage

import "context"

// Backend stores document attachments and serves them by URL.
type Backend interface {
	// Store uploads data under the given key and returns a public URL.
	Store(ctx context.Context, key, contentType string, data []byte) (string, error)

	// Delete removes the object with the given key. Deleting a missing
	// object is not an error.
	Delete(ctx context.Context, key string) error
}
