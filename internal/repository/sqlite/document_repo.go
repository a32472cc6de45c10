package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pryanikov/archiveapp/internal/domain"
)

// listSep joins multi-valued columns (authors, tags, source ids) into a
// single text column. Commas appear in author names, so the separator
// must be something that never occurs in the values themselves.
const listSep = "||"

// DocumentRepository implements repository.DocumentRepository using SQLite.
type DocumentRepository struct {
	db     *DB
	logger zerolog.Logger
}

// NewDocumentRepository creates a new SQLite-backed document repository.
func NewDocumentRepository(db *DB, logger zerolog.Logger) *DocumentRepository {
	return &DocumentRepository{
		db:     db,
		logger: logger.With().Str("repository", "sqlite_document").Logger(),
	}
}

const documentColumns = `id, title, author, type, status, added_by_user_id,
	created_at, updated_at, document_date, source_ids, description, tags, file_url`

// GetAll returns all documents in insertion order.
func (r *DocumentRepository) GetAll(ctx context.Context) ([]*domain.Document, error) {
	query := fmt.Sprintf(`SELECT %s FROM documents ORDER BY rowid_order`, documentColumns)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	return scanDocuments(rows)
}

// GetByID returns a single document or domain.ErrDocumentNotFound.
func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	query := fmt.Sprintf(`SELECT %s FROM documents WHERE id = ?`, documentColumns)

	doc, err := scanDocument(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return doc, nil
}

// GetByOwner returns all documents added by the given user, in insertion
// order.
func (r *DocumentRepository) GetByOwner(ctx context.Context, userID string) ([]*domain.Document, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM documents WHERE added_by_user_id = ? ORDER BY rowid_order`,
		documentColumns,
	)

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents by owner: %w", err)
	}
	defer rows.Close()

	return scanDocuments(rows)
}

// Upsert inserts the document or replaces the existing row with the same id.
func (r *DocumentRepository) Upsert(ctx context.Context, doc *domain.Document) error {
	query := `
		INSERT INTO documents (
			id, title, author, type, status, added_by_user_id,
			created_at, updated_at, document_date, source_ids,
			description, tags, file_url
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			author = excluded.author,
			type = excluded.type,
			status = excluded.status,
			added_by_user_id = excluded.added_by_user_id,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at,
			document_date = excluded.document_date,
			source_ids = excluded.source_ids,
			description = excluded.description,
			tags = excluded.tags,
			file_url = excluded.file_url`

	var docDate sql.NullString
	if doc.DocumentDate != nil {
		docDate = sql.NullString{String: doc.DocumentDate.UTC().Format(time.RFC3339), Valid: true}
	}

	_, err := r.db.ExecContext(ctx, query,
		doc.ID,
		doc.Title,
		strings.Join(doc.Author, listSep),
		doc.Type,
		string(doc.Status),
		doc.AddedByUserID,
		doc.CreatedAt.UTC().Format(time.RFC3339),
		doc.UpdatedAt.UTC().Format(time.RFC3339),
		docDate,
		strings.Join(doc.SourceIDs, listSep),
		doc.Description,
		strings.Join(doc.Tags, listSep),
		doc.FileURL,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert document: %w", err)
	}

	r.logger.Debug().Str("document_id", doc.ID).Msg("document upserted")
	return nil
}

// Delete removes the document. Deleting a missing document is not an
// error.
func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	r.logger.Debug().Str("document_id", id).Msg("document deleted")
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*domain.Document, error) {
	var (
		doc                      domain.Document
		status                   string
		authors, sourceIDs, tags string
		createdAt, updatedAt     string
		docDate                  sql.NullString
	)

	err := row.Scan(
		&doc.ID,
		&doc.Title,
		&authors,
		&doc.Type,
		&status,
		&doc.AddedByUserID,
		&createdAt,
		&updatedAt,
		&docDate,
		&sourceIDs,
		&doc.Description,
		&tags,
		&doc.FileURL,
	)
	if err != nil {
		return nil, err
	}

	doc.Status = domain.Status(status)
	doc.Author = splitList(authors)
	doc.SourceIDs = splitList(sourceIDs)
	doc.Tags = splitList(tags)

	if doc.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if doc.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return nil, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	if docDate.Valid {
		t, err := time.Parse(time.RFC3339, docDate.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse document_date: %w", err)
		}
		doc.DocumentDate = &t
	}

	return &doc, nil
}

func scanDocuments(rows *sql.Rows) ([]*domain.Document, error) {
	docs := make([]*domain.Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate documents: %w", err)
	}
	return docs, nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, listSep)
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
