package apd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	models "apdvault/internal/domain/models/apd"
	apdRepo "apdvault/internal/domain/repositories/apd"
	"apdvault/internal/repository/postgres"
)

// PostgresFieldChangeRepository implements the FieldChangeRepository
// interface for the working copy's pending changes.
type PostgresFieldChangeRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewFieldChangeRepository creates a new field change repository
func NewFieldChangeRepository(config *postgres.RepositoryConfig) apdRepo.FieldChangeRepository {
	return &PostgresFieldChangeRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Append records new pending changes for a document
func (r *PostgresFieldChangeRepository) Append(ctx context.Context, documentID string, changes []models.FieldChange) error {
	if len(changes) == 0 {
		return nil
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, document_id, field_path, field_label, old_value, new_value, change_type, section_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, r.tables.FieldChanges)

	executor := postgres.GetExecutor(ctx, r.pool)
	for _, c := range changes {
		oldValue, err := encodeNullableValue(c.OldValue)
		if err != nil {
			return fmt.Errorf("encode old value: %w", err)
		}
		newValue, err := encodeNullableValue(c.NewValue)
		if err != nil {
			return fmt.Errorf("encode new value: %w", err)
		}

		_, err = executor.Exec(ctx, query,
			c.ID,
			documentID,
			c.FieldPath,
			c.FieldLabel,
			oldValue,
			newValue,
			string(c.ChangeType),
			c.SectionID,
			c.Timestamp,
		)
		if err != nil {
			return fmt.Errorf("append field change: %w", err)
		}
	}

	return nil
}

// ListByDocument returns the pending changes for a document in insertion order
func (r *PostgresFieldChangeRepository) ListByDocument(ctx context.Context, documentID string) ([]models.FieldChange, error) {
	query := fmt.Sprintf(`
		SELECT id, field_path, field_label, old_value, new_value, change_type, section_id, created_at
		FROM %s
		WHERE document_id = $1
		ORDER BY created_at, id
	`, r.tables.FieldChanges)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, documentID)
	if err != nil {
		return nil, fmt.Errorf("list field changes: %w", err)
	}
	defer rows.Close()

	var changes []models.FieldChange
	for rows.Next() {
		var (
			c          models.FieldChange
			oldValue   []byte
			newValue   []byte
			changeType string
		)
		err := rows.Scan(
			&c.ID,
			&c.FieldPath,
			&c.FieldLabel,
			&oldValue,
			&newValue,
			&changeType,
			&c.SectionID,
			&c.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("scan field change: %w", err)
		}

		c.ChangeType = models.ChangeType(changeType)
		if c.OldValue, err = decodeNullableValue(oldValue); err != nil {
			return nil, fmt.Errorf("decode old value: %w", err)
		}
		if c.NewValue, err = decodeNullableValue(newValue); err != nil {
			return nil, fmt.Errorf("decode new value: %w", err)
		}

		changes = append(changes, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list field changes: %w", err)
	}

	return changes, nil
}

// DeleteByDocument clears pending changes after a commit or revert
func (r *PostgresFieldChangeRepository) DeleteByDocument(ctx context.Context, documentID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE document_id = $1`, r.tables.FieldChanges)

	executor := postgres.GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, documentID); err != nil {
		return fmt.Errorf("delete field changes: %w", err)
	}

	return nil
}

// encodeNullableValue distinguishes an absent value (SQL NULL) from a field
// whose value is JSON null.
func encodeNullableValue(v *models.Value) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

func decodeNullableValue(data []byte) (*models.Value, error) {
	if data == nil {
		return nil, nil
	}
	var v models.Value
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return &v, nil
}
