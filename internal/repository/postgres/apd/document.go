package apd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"apdvault/internal/domain"
	models "apdvault/internal/domain/models/apd"
	apdRepo "apdvault/internal/domain/repositories/apd"
	"apdvault/internal/repository/postgres"
)

// PostgresDocumentRepository implements the DocumentRepository interface
type PostgresDocumentRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(config *postgres.RepositoryConfig) apdRepo.DocumentRepository {
	return &PostgresDocumentRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Create creates a new document
func (r *PostgresDocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, document_type, metadata, sections, current_version_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, r.tables.Documents)

	metadata, sections, err := encodeDocumentPayload(doc)
	if err != nil {
		return err
	}

	executor := postgres.GetExecutor(ctx, r.pool)
	_, err = executor.Exec(ctx, query,
		doc.ID,
		doc.DocumentType,
		metadata,
		sections,
		doc.CurrentVersionID,
		doc.CreatedAt,
		doc.UpdatedAt,
	)
	if err != nil {
		if postgres.IsPgDuplicateError(err) {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("document %s already exists", doc.ID),
				ResourceType: "document",
				ResourceID:   doc.ID,
			}
		}
		return fmt.Errorf("create document: %w", err)
	}

	return nil
}

// GetByID retrieves a document by ID
func (r *PostgresDocumentRepository) GetByID(ctx context.Context, id string) (*models.Document, error) {
	query := fmt.Sprintf(`
		SELECT id, document_type, metadata, sections, current_version_id, created_at, updated_at
		FROM %s
		WHERE id = $1
	`, r.tables.Documents)

	executor := postgres.GetExecutor(ctx, r.pool)
	doc, err := scanDocument(executor.QueryRow(ctx, query, id))
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get document: %w", err)
	}

	return doc, nil
}

// List lists all documents
func (r *PostgresDocumentRepository) List(ctx context.Context) ([]models.Document, error) {
	query := fmt.Sprintf(`
		SELECT id, document_type, metadata, sections, current_version_id, created_at, updated_at
		FROM %s
		ORDER BY updated_at DESC
	`, r.tables.Documents)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []models.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	return docs, nil
}

// Update updates an existing document
func (r *PostgresDocumentRepository) Update(ctx context.Context, doc *models.Document) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET document_type = $1, metadata = $2, sections = $3, current_version_id = $4, updated_at = $5
		WHERE id = $6
	`, r.tables.Documents)

	metadata, sections, err := encodeDocumentPayload(doc)
	if err != nil {
		return err
	}

	executor := postgres.GetExecutor(ctx, r.pool)
	tag, err := executor.Exec(ctx, query,
		doc.DocumentType,
		metadata,
		sections,
		doc.CurrentVersionID,
		doc.UpdatedAt,
		doc.ID,
	)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("document %s: %w", doc.ID, domain.ErrNotFound)
	}

	return nil
}

// Delete deletes a document together with its versions, working copy, and
// pending changes.
func (r *PostgresDocumentRepository) Delete(ctx context.Context, id string) error {
	executor := postgres.GetExecutor(ctx, r.pool)

	for _, table := range []string{r.tables.FieldChanges, r.tables.WorkingCopies, r.tables.Versions} {
		query := fmt.Sprintf(`DELETE FROM %s WHERE document_id = $1`, table)
		if _, err := executor.Exec(ctx, query, id); err != nil {
			return fmt.Errorf("delete document dependents: %w", err)
		}
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.Documents)
	tag, err := executor.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// rowScanner is satisfied by both pgx.Row and pgx.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDocument(row rowScanner) (*models.Document, error) {
	var (
		doc      models.Document
		metadata []byte
		sections []byte
	)
	err := row.Scan(
		&doc.ID,
		&doc.DocumentType,
		&metadata,
		&sections,
		&doc.CurrentVersionID,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(metadata, &doc.Metadata); err != nil {
		return nil, fmt.Errorf("decode document metadata: %w", err)
	}
	if err := json.Unmarshal(sections, &doc.Sections); err != nil {
		return nil, fmt.Errorf("decode document sections: %w", err)
	}

	return &doc, nil
}

func encodeDocumentPayload(doc *models.Document) (metadata, sections []byte, err error) {
	metadata, err = json.Marshal(emptyIfNilMetadata(doc.Metadata))
	if err != nil {
		return nil, nil, fmt.Errorf("encode document metadata: %w", err)
	}
	sections, err = json.Marshal(emptyIfNilSections(doc.Sections))
	if err != nil {
		return nil, nil, fmt.Errorf("encode document sections: %w", err)
	}
	return metadata, sections, nil
}

func emptyIfNilMetadata(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}

func emptyIfNilSections(s map[string]models.Section) map[string]models.Section {
	if s == nil {
		return map[string]models.Section{}
	}
	return s
}
