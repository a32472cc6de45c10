package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/pryanikov/archiveapp/internal/domain"
)

// DocumentRepository implements repository.DocumentRepository using
// PostgreSQL.
type DocumentRepository struct {
	db     *DB
	logger zerolog.Logger
}

// NewDocumentRepository creates a new PostgreSQL document repository.
func NewDocumentRepository(db *DB, logger zerolog.Logger) *DocumentRepository {
	return &DocumentRepository{
		db:     db,
		logger: logger.With().Str("repository", "postgres_document").Logger(),
	}
}

const documentColumns = `id, title, author, type, status, added_by_user_id,
	created_at, updated_at, document_date, source_ids, description, tags, file_url`

// GetAll returns all documents in insertion order.
func (r *DocumentRepository) GetAll(ctx context.Context) ([]*domain.Document, error) {
	query := fmt.Sprintf(`SELECT %s FROM documents ORDER BY seq`, documentColumns)

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	return scanDocuments(rows)
}

// GetByID retrieves a document by its id.
func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	query := fmt.Sprintf(`SELECT %s FROM documents WHERE id = $1`, documentColumns)

	doc, err := scanDocument(r.db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return doc, nil
}

// GetByOwner returns all documents added by the given user.
func (r *DocumentRepository) GetByOwner(ctx context.Context, userID string) ([]*domain.Document, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM documents WHERE added_by_user_id = $1 ORDER BY seq`,
		documentColumns,
	)

	rows, err := r.db.Pool.Query(ctx, query, userID)
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
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			author = EXCLUDED.author,
			type = EXCLUDED.type,
			status = EXCLUDED.status,
			added_by_user_id = EXCLUDED.added_by_user_id,
			created_at = EXCLUDED.created_at,
			updated_at = EXCLUDED.updated_at,
			document_date = EXCLUDED.document_date,
			source_ids = EXCLUDED.source_ids,
			description = EXCLUDED.description,
			tags = EXCLUDED.tags,
			file_url = EXCLUDED.file_url`

	_, err := r.db.Pool.Exec(ctx, query,
		doc.ID,
		doc.Title,
		doc.Author,
		doc.Type,
		string(doc.Status),
		doc.AddedByUserID,
		doc.CreatedAt,
		doc.UpdatedAt,
		doc.DocumentDate,
		doc.SourceIDs,
		doc.Description,
		doc.Tags,
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
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	r.logger.Debug().Str("document_id", id).Msg("document deleted")
	return nil
}

func scanDocument(row pgx.Row) (*domain.Document, error) {
	var (
		doc    domain.Document
		status string
	)

	err := row.Scan(
		&doc.ID,
		&doc.Title,
		&doc.Author,
		&doc.Type,
		&status,
		&doc.AddedByUserID,
		&doc.CreatedAt,
		&doc.UpdatedAt,
		&doc.DocumentDate,
		&doc.SourceIDs,
		&doc.Description,
		&doc.Tags,
		&doc.FileURL,
	)
	if err != nil {
		return nil, err
	}

	doc.Status = domain.Status(status)
	return &doc, nil
}

func scanDocuments(rows pgx.Rows) ([]*domain.Document, error) {
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
