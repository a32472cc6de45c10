// Package service provides the business rule layer of the archive.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pryanikov/archiveapp/internal/domain"
	"github.com/pryanikov/archiveapp/internal/repository"
	"github.com/pryanikov/archiveapp/internal/session"
)

// minSearchQueryLen is the minimum trimmed query length (in runes) for a
// search to hit the store at all. Shorter queries return an empty result.
const minSearchQueryLen = 2

// DocumentService implements the document operations of the archive:
// queries, token search, validated saves, and admin-only deletes.
//
// Save and Delete run their read-check-write sequences under a single
// mutex, so two concurrent saves cannot both pass the duplicate-title
// check before either writes. The store itself stays lock-free.
type DocumentService struct {
	docs     repository.DocumentRepository
	sessions *session.Manager
	logger   zerolog.Logger

	mu sync.Mutex

	// Overridable for tests.
	now   func() time.Time
	newID func() string
}

// NewDocumentService creates a new DocumentService.
func NewDocumentService(docs repository.DocumentRepository, sessions *session.Manager, logger zerolog.Logger) *DocumentService {
	return &DocumentService{
		docs:     docs,
		sessions: sessions,
		logger:   logger.With().Str("service", "document").Logger(),
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}
}

// GetAll returns every document in the store, unfiltered.
func (s *DocumentService) GetAll(ctx context.Context) ([]*domain.Document, error) {
	docs, err := s.docs.GetAll(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load documents")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return docs, nil
}

// GetByID returns the document with the given id, or nil when the id is
// blank or unknown. A blank id never reaches the store.
func (s *DocumentService) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	if strings.TrimSpace(id) == "" {
		return nil, nil
	}

	doc, err := s.docs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrDocumentNotFound) {
			return nil, nil
		}
		s.logger.Error().Err(err).Str("document_id", id).Msg("failed to get document")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return doc, nil
}

// Search returns the documents whose metadata contains every token of
// the query as a substring, case-insensitively. Queries shorter than two
// characters after trimming return an empty list without touching the
// store. Results keep the store's enumeration order; there is no ranking.
func (s *DocumentService) Search(ctx context.Context, query string) ([]*domain.Document, error) {
	trimmed := strings.TrimSpace(query)
	if utf8.RuneCountInString(trimmed) < minSearchQueryLen {
		return []*domain.Document{}, nil
	}

	tokens := strings.Fields(strings.ToLower(trimmed))

	docs, err := s.docs.GetAll(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load documents for search")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	matches := make([]*domain.Document, 0)
	for _, doc := range docs {
		metadata := doc.MetadataString()
		all := true
		for _, token := range tokens {
			if !strings.Contains(metadata, token) {
				all = false
				break
			}
		}
		if all {
			matches = append(matches, doc)
		}
	}

	return matches, nil
}

// Save validates and persists a document. A blank id means creation: the
// service assigns a fresh id, stamps the current user as owner, and sets
// both audit timestamps. A non-blank id means update: all fields are
// overwritten from doc except AddedByUserID and CreatedAt, which are
// forced back to the stored record's values; UpdatedAt is refreshed.
//
// Validation order: blank title, then missing author, then duplicate
// title (case-insensitive, excluding the record's own id). Nothing is
// written if any check fails.
func (s *DocumentService) Save(ctx context.Context, doc *domain.Document) (*domain.Document, error) {
	if err := doc.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.docs.GetAll(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load documents for duplicate check")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	for _, other := range all {
		if other.ID != doc.ID && strings.EqualFold(strings.TrimSpace(other.Title), strings.TrimSpace(doc.Title)) {
			return nil, domain.ErrDuplicateTitle
		}
	}

	now := s.now()
	saved := doc.Clone()

	if doc.IsNew() {
		current := s.sessions.Current()
		if current == nil {
			return nil, domain.ErrNoActiveSession
		}

		saved.ID = s.newID()
		saved.AddedByUserID = current.ID
		saved.CreatedAt = now
		saved.UpdatedAt = now
	} else {
		existing, err := s.docs.GetByID(ctx, doc.ID)
		if err != nil {
			if errors.Is(err, domain.ErrDocumentNotFound) {
				return nil, domain.ErrDocumentNotFound
			}
			s.logger.Error().Err(err).Str("document_id", doc.ID).Msg("failed to load document for update")
			return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
		}

		saved.AddedByUserID = existing.AddedByUserID
		saved.CreatedAt = existing.CreatedAt
		saved.UpdatedAt = now
	}

	if err := s.docs.Upsert(ctx, saved); err != nil {
		s.logger.Error().Err(err).Str("document_id", saved.ID).Msg("failed to persist document")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().
		Str("document_id", saved.ID).
		Str("title", saved.Title).
		Bool("created", doc.IsNew()).
		Msg("document saved")

	return saved, nil
}

// Delete removes a document. Only an ADMIN session may delete, and the
// admin must re-confirm their own password. The role check runs strictly
// before re-authentication, so a non-admin is never prompted to spend a
// password attempt. On any failure the document is left untouched.
func (s *DocumentService) Delete(ctx context.Context, id, password string) error {
	current := s.sessions.Current()
	if current == nil {
		return domain.ErrNoActiveSession
	}

	if !current.IsAdmin() {
		s.logger.Warn().
			Str("user_id", current.ID).
			Str("document_id", id).
			Msg("non-admin attempted delete")
		return domain.ErrDeleteForbidden
	}

	if err := s.sessions.ReAuthenticate(ctx, current.Email, password); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.docs.Delete(ctx, id); err != nil {
		s.logger.Error().Err(err).Str("document_id", id).Msg("failed to delete document")
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().
		Str("user_id", current.ID).
		Str("document_id", id).
		Msg("document deleted")

	return nil
}

// GetMy returns the documents added by the current user. Without a
// session this is an empty list, not an error.
func (s *DocumentService) GetMy(ctx context.Context) ([]*domain.Document, error) {
	current := s.sessions.Current()
	if current == nil {
		return []*domain.Document{}, nil
	}

	docs, err := s.docs.GetByOwner(ctx, current.ID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", current.ID).Msg("failed to load own documents")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return docs, nil
}
