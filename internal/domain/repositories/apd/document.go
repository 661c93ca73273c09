package apd

import (
	"context"

	"apdvault/internal/domain/models/apd"
)

// DocumentRepository defines data access operations for documents.
type DocumentRepository interface {
	// Create creates a new document
	Create(ctx context.Context, doc *apd.Document) error

	// GetByID retrieves a document by ID
	GetByID(ctx context.Context, id string) (*apd.Document, error)

	// List lists all documents (metadata and sections included)
	List(ctx context.Context) ([]apd.Document, error)

	// Update updates an existing document
	Update(ctx context.Context, doc *apd.Document) error

	// Delete deletes a document and its versions, working copy, and pending changes
	Delete(ctx context.Context, id string) error
}
