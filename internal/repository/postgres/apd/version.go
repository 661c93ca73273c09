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

// PostgresVersionRepository implements the VersionRepository interface.
// Versions are append-only: there is no update or delete path here.
type PostgresVersionRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewVersionRepository creates a new version repository
func NewVersionRepository(config *postgres.RepositoryConfig) apdRepo.VersionRepository {
	return &PostgresVersionRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Store persists a new version
func (r *PostgresVersionRepository) Store(ctx context.Context, v *models.Version) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, document_id, version_number, commit_message, author, created_at, sections, changes, parent_version_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, r.tables.Versions)

	sections, err := json.Marshal(emptyIfNilSections(v.Sections))
	if err != nil {
		return fmt.Errorf("encode version sections: %w", err)
	}
	changes, err := json.Marshal(emptyIfNilChanges(v.Changes))
	if err != nil {
		return fmt.Errorf("encode version changes: %w", err)
	}

	executor := postgres.GetExecutor(ctx, r.pool)
	_, err = executor.Exec(ctx, query,
		v.ID,
		v.DocumentID,
		v.VersionNumber,
		v.CommitMessage,
		v.Author,
		v.CreatedAt,
		sections,
		changes,
		v.ParentVersionID,
	)
	if err != nil {
		if postgres.IsPgDuplicateError(err) {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("version %s already exists", v.ID),
				ResourceType: "version",
				ResourceID:   v.ID,
			}
		}
		return fmt.Errorf("store version: %w", err)
	}

	return nil
}

// GetByID retrieves a version by ID
func (r *PostgresVersionRepository) GetByID(ctx context.Context, id string) (*models.Version, error) {
	query := fmt.Sprintf(`
		SELECT id, document_id, version_number, commit_message, author, created_at, sections, changes, parent_version_id
		FROM %s
		WHERE id = $1
	`, r.tables.Versions)

	executor := postgres.GetExecutor(ctx, r.pool)
	v, err := scanVersion(executor.QueryRow(ctx, query, id))
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, fmt.Errorf("version %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get version: %w", err)
	}

	return v, nil
}

// ListByDocument returns all versions for a document
func (r *PostgresVersionRepository) ListByDocument(ctx context.Context, documentID string) ([]models.Version, error) {
	query := fmt.Sprintf(`
		SELECT id, document_id, version_number, commit_message, author, created_at, sections, changes, parent_version_id
		FROM %s
		WHERE document_id = $1
	`, r.tables.Versions)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, documentID)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	defer rows.Close()

	var versions []models.Version
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan version: %w", err)
		}
		versions = append(versions, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}

	return versions, nil
}

func scanVersion(row rowScanner) (*models.Version, error) {
	var (
		v        models.Version
		sections []byte
		changes  []byte
	)
	err := row.Scan(
		&v.ID,
		&v.DocumentID,
		&v.VersionNumber,
		&v.CommitMessage,
		&v.Author,
		&v.CreatedAt,
		&sections,
		&changes,
		&v.ParentVersionID,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(sections, &v.Sections); err != nil {
		return nil, fmt.Errorf("decode version sections: %w", err)
	}
	if err := json.Unmarshal(changes, &v.Changes); err != nil {
		return nil, fmt.Errorf("decode version changes: %w", err)
	}

	return &v, nil
}

func emptyIfNilChanges(changes []models.FieldChange) []models.FieldChange {
	if changes == nil {
		return []models.FieldChange{}
	}
	return changes
}
