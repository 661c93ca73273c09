package apd

import (
	"context"

	"apdvault/internal/domain/models/apd"
)

// VersionRepository stores immutable document snapshots. There is no update
// or delete: versions are append-only.
type VersionRepository interface {
	// Store persists a new version
	Store(ctx context.Context, v *apd.Version) error

	// GetByID retrieves a version by ID
	GetByID(ctx context.Context, id string) (*apd.Version, error)

	// ListByDocument returns all versions for a document. No ordering is
	// guaranteed; callers sort by CreatedAt when they need to.
	ListByDocument(ctx context.Context, documentID string) ([]apd.Version, error)
}

// WorkingCopyRepository stores the single mutable draft per document.
type WorkingCopyRepository interface {
	// GetByDocument returns the document's working copy, or nil if none exists yet
	GetByDocument(ctx context.Context, documentID string) (*apd.WorkingCopy, error)

	// Store persists a working copy, replacing any existing one for the
	// same document (upsert keyed on document id)
	Store(ctx context.Context, wc *apd.WorkingCopy) error

	// Update updates an existing working copy in place
	Update(ctx context.Context, wc *apd.WorkingCopy) error
}

// FieldChangeRepository persists the pending field changes of the current
// working copy, standalone from the copy itself so clients can stream them
// for highlight rendering.
type FieldChangeRepository interface {
	// Append records new pending changes for a document
	Append(ctx context.Context, documentID string, changes []apd.FieldChange) error

	// ListByDocument returns the pending changes for a document
	ListByDocument(ctx context.Context, documentID string) ([]apd.FieldChange, error)

	// DeleteByDocument clears pending changes (after commit or revert)
	DeleteByDocument(ctx context.Context, documentID string) error
}
