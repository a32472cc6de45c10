// Package repository defines data access interfaces for the archive.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/pryanikov/archiveapp/internal/domain"
)

// Cache defines the interface for caching operations.
// Implemented in-memory for single-node deployments and with Redis when
// the archive is served by more than one process.
type Cache interface {
	// Get retrieves a value by key.
	// Returns ErrCacheMiss if the key doesn't exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value with an optional TTL.
	// If ttl is 0, the value doesn't expire.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes one or more keys.
	Delete(ctx context.Context, keys ...string) error
}

// Cache keys for the document repository.
const (
	cacheKeyAllDocuments = "documents:all"
	cacheKeyDocumentByID = "documents:id:"
)

// CachedDocumentRepository decorates a DocumentRepository with read-through
// caching for GetAll and GetByID. Every write invalidates the affected
// entries. Cache failures are never surfaced to callers; the decorator
// falls back to the inner repository and logs at debug level.
type CachedDocumentRepository struct {
	inner  DocumentRepository
	cache  Cache
	ttl    time.Duration
	logger zerolog.Logger
}

// NewCachedDocumentRepository creates a caching decorator around repo.
func NewCachedDocumentRepository(repo DocumentRepository, cache Cache, ttl time.Duration, logger zerolog.Logger) *CachedDocumentRepository {
	return &CachedDocumentRepository{
		inner:  repo,
		cache:  cache,
		ttl:    ttl,
		logger: logger.With().Str("component", "document_cache").Logger(),
	}
}

// GetAll returns all documents, served from cache when possible.
func (r *CachedDocumentRepository) GetAll(ctx context.Context) ([]*domain.Document, error) {
	if data, err := r.cache.Get(ctx, cacheKeyAllDocuments); err == nil {
		var docs []*domain.Document
		if err := json.Unmarshal(data, &docs); err == nil {
			return docs, nil
		}
		// Corrupt entry: drop it and fall through to the store.
		_ = r.cache.Delete(ctx, cacheKeyAllDocuments)
	} else if !errors.Is(err, ErrCacheMiss) {
		r.logger.Debug().Err(err).Msg("cache read failed, falling back to store")
	}

	docs, err := r.inner.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(docs); err == nil {
		if err := r.cache.Set(ctx, cacheKeyAllDocuments, data, r.ttl); err != nil {
			r.logger.Debug().Err(err).Msg("cache write failed")
		}
	}

	return docs, nil
}

// GetByID retrieves a document by id, served from cache when possible.
func (r *CachedDocumentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	key := cacheKeyDocumentByID + id

	if data, err := r.cache.Get(ctx, key); err == nil {
		doc := &domain.Document{}
		if err := json.Unmarshal(data, doc); err == nil {
			return doc, nil
		}
		_ = r.cache.Delete(ctx, key)
	} else if !errors.Is(err, ErrCacheMiss) {
		r.logger.Debug().Err(err).Msg("cache read failed, falling back to store")
	}

	doc, err := r.inner.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(doc); err == nil {
		if err := r.cache.Set(ctx, key, data, r.ttl); err != nil {
			r.logger.Debug().Err(err).Msg("cache write failed")
		}
	}

	return doc, nil
}

// GetByOwner passes through to the store. Owner lists are only requested
// from the "my documents" view and are not worth a separate cache key.
func (r *CachedDocumentRepository) GetByOwner(ctx context.Context, userID string) ([]*domain.Document, error) {
	return r.inner.GetByOwner(ctx, userID)
}

// Upsert writes through to the store and invalidates the affected entries.
func (r *CachedDocumentRepository) Upsert(ctx context.Context, doc *domain.Document) error {
	if err := r.inner.Upsert(ctx, doc); err != nil {
		return err
	}
	r.invalidate(ctx, doc.ID)
	return nil
}

// Delete writes through to the store and invalidates the affected entries.
func (r *CachedDocumentRepository) Delete(ctx context.Context, id string) error {
	if err := r.inner.Delete(ctx, id); err != nil {
		return err
	}
	r.invalidate(ctx, id)
	return nil
}

func (r *CachedDocumentRepository) invalidate(ctx context.Context, id string) {
	if err := r.cache.Delete(ctx, cacheKeyAllDocuments, cacheKeyDocumentByID+id); err != nil {
		r.logger.Debug().Err(err).Str("document_id", id).Msg("cache invalidation failed")
	}
}

// Ensure CachedDocumentRepository implements DocumentRepository.
var _ DocumentRepository = (*CachedDocumentRepository)(nil)
