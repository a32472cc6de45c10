// Package memory provides in-memory repository implementations.
// These are suitable for development, tests, and single-node deployments
// that don't need persistence across restarts.
package memory

import (
	"context"
	"sync"

	"github.com/pryanikov/archiveapp/internal/domain"
	"github.com/pryanikov/archiveapp/internal/repository"
)

// DocumentRepository implements repository.DocumentRepository with an
// in-memory slice. Insertion order is preserved so enumeration is stable,
// which is what search result ordering relies on.
type DocumentRepository struct {
	mu   sync.RWMutex
	docs []*domain.Document
}

// NewDocumentRepository creates an empty in-memory document repository.
func NewDocumentRepository() *DocumentRepository {
	return &DocumentRepository{}
}

// GetAll returns every document in insertion order.
func (r *DocumentRepository) GetAll(ctx context.Context) ([]*domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Document, 0, len(r.docs))
	for _, d := range r.docs {
		out = append(out, d.Clone())
	}
	return out, nil
}

// GetByID retrieves a document by id.
func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, d := range r.docs {
		if d.ID == id {
			return d.Clone(), nil
		}
	}
	return nil, domain.ErrDocumentNotFound
}

// GetByOwner returns the documents added by the given user.
func (r *DocumentRepository) GetByOwner(ctx context.Context, userID string) ([]*domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Document, 0)
	for _, d := range r.docs {
		if d.AddedByUserID == userID {
			out = append(out, d.Clone())
		}
	}
	return out, nil
}

// Upsert inserts the document if its id is unseen, else replaces it in place.
func (r *DocumentRepository) Upsert(ctx context.Context, doc *domain.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored := doc.Clone()
	for i, d := range r.docs {
		if d.ID == doc.ID {
			r.docs[i] = stored
			return nil
		}
	}
	r.docs = append(r.docs, stored)
	return nil
}

// Delete removes a document by id. Absent ids are a no-op.
func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for i, d := range r.docs {
		if d.ID == id {
			r.docs = append(r.docs[:i], r.docs[i+1:]...)
			return nil
		}
	}
	return nil
}

// Ensure DocumentRepository implements repository.DocumentRepository.
var _ repository.DocumentRepository = (*DocumentRepository)(nil)
