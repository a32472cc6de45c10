// Package memory implements an in-process attachment store for
// development and tests.
package memory

import (
	"context"
	"fmt"
	"sync"
)

type object struct {
	contentType string
	data        []byte
}

// Store implements storage.Backend in memory.
type Store struct {
	mu      sync.RWMutex
	objects map[string]object
}

// NewStore creates an empty in-memory attachment store.
func NewStore() *Store {
	return &Store{
		objects: make(map[string]object),
	}
}

// Store keeps the attachment in memory and returns a synthetic URL.
func (s *Store) Store(_ context.Context, key, contentType string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	buf := make([]byte, len(data))
	copy(buf, data)
	s.objects[key] = object{contentType: contentType, data: buf}

	return fmt.Sprintf("memory://%s", key), nil
}

// Delete removes the attachment if present.
func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.objects, key)
	return nil
}

// Get returns a stored attachment, for tests.
func (s *Store) Get(key string) ([]byte, string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.objects[key]
	if !ok {
		return nil, "", false
	}
	buf := make([]byte, len(obj.data))
	copy(buf, obj.data)
	return buf, obj.contentType, true
}
