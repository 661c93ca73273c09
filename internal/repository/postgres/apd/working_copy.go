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

// PostgresWorkingCopyRepository implements the WorkingCopyRepository
// interface. A unique constraint on document_id backs the one-working-copy-
// per-document invariant; Store upserts on that key so a revert replaces the
// existing row wholesale.
type PostgresWorkingCopyRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewWorkingCopyRepository creates a new working copy repository
func NewWorkingCopyRepository(config *postgres.RepositoryConfig) apdRepo.WorkingCopyRepository {
	return &PostgresWorkingCopyRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// GetByDocument returns the document's working copy, or nil if none exists
func (r *PostgresWorkingCopyRepository) GetByDocument(ctx context.Context, documentID string) (*models.WorkingCopy, error) {
	query := fmt.Sprintf(`
		SELECT id, document_id, base_version_id, sections, changes, last_modified, has_uncommitted_changes
		FROM %s
		WHERE document_id = $1
	`, r.tables.WorkingCopies)

	var (
		wc       models.WorkingCopy
		sections []byte
		changes  []byte
	)
	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, documentID).Scan(
		&wc.ID,
		&wc.DocumentID,
		&wc.BaseVersionID,
		&sections,
		&changes,
		&wc.LastModified,
		&wc.HasUncommittedChanges,
	)
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get working copy: %w", err)
	}

	if err := json.Unmarshal(sections, &wc.Sections); err != nil {
		return nil, fmt.Errorf("decode working copy sections: %w", err)
	}
	if err := json.Unmarshal(changes, &wc.Changes); err != nil {
		return nil, fmt.Errorf("decode working copy changes: %w", err)
	}

	return &wc, nil
}

// Store upserts the working copy keyed on document id
func (r *PostgresWorkingCopyRepository) Store(ctx context.Context, wc *models.WorkingCopy) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, document_id, base_version_id, sections, changes, last_modified, has_uncommitted_changes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (document_id) DO UPDATE SET
			id = EXCLUDED.id,
			base_version_id = EXCLUDED.base_version_id,
			sections = EXCLUDED.sections,
			changes = EXCLUDED.changes,
			last_modified = EXCLUDED.last_modified,
			has_uncommitted_changes = EXCLUDED.has_uncommitted_changes
	`, r.tables.WorkingCopies)

	sections, changes, err := encodeWorkingCopyPayload(wc)
	if err != nil {
		return err
	}

	executor := postgres.GetExecutor(ctx, r.pool)
	_, err = executor.Exec(ctx, query,
		wc.ID,
		wc.DocumentID,
		wc.BaseVersionID,
		sections,
		changes,
		wc.LastModified,
		wc.HasUncommittedChanges,
	)
	if err != nil {
		return fmt.Errorf("store working copy: %w", err)
	}

	return nil
}

// Update updates an existing working copy
func (r *PostgresWorkingCopyRepository) Update(ctx context.Context, wc *models.WorkingCopy) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET base_version_id = $1, sections = $2, changes = $3, last_modified = $4, has_uncommitted_changes = $5
		WHERE document_id = $6
	`, r.tables.WorkingCopies)

	sections, changes, err := encodeWorkingCopyPayload(wc)
	if err != nil {
		return err
	}

	executor := postgres.GetExecutor(ctx, r.pool)
	tag, err := executor.Exec(ctx, query,
		wc.BaseVersionID,
		sections,
		changes,
		wc.LastModified,
		wc.HasUncommittedChanges,
		wc.DocumentID,
	)
	if err != nil {
		return fmt.Errorf("update working copy: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("working copy for document %s: %w", wc.DocumentID, domain.ErrNotFound)
	}

	return nil
}

func encodeWorkingCopyPayload(wc *models.WorkingCopy) (sections, changes []byte, err error) {
	sections, err = json.Marshal(emptyIfNilSections(wc.Sections))
	if err != nil {
		return nil, nil, fmt.Errorf("encode working copy sections: %w", err)
	}
	changes, err = json.Marshal(emptyIfNilChanges(wc.Changes))
	if err != nil {
		return nil, nil, fmt.Errorf("encode working copy changes: %w", err)
	}
	return sections, changes, nil
}
