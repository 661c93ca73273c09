// Package apd implements the document-facing application services: CRUD for
// documents and the edit-tracking path that feeds the version-control
// engine's working copies.
package apd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"apdvault/internal/config"
	"apdvault/internal/domain"
	models "apdvault/internal/domain/models/apd"
	apdRepo "apdvault/internal/domain/repositories/apd"
	"apdvault/internal/service/versioncontrol"
	"apdvault/internal/template"
)

// CreateDocumentRequest carries the inputs for creating a document.
type CreateDocumentRequest struct {
	DocumentType string            `json:"document_type"`
	Metadata     map[string]string `json:"metadata"`
}

// Validate checks the request shape; type membership is checked against the
// template registry by the service.
func (r CreateDocumentRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.DocumentType,
			validation.Required,
			validation.Length(1, config.MaxDocumentTypeLength),
		),
	)
}

// UpdateMetadataRequest carries a metadata patch for a document.
type UpdateMetadataRequest struct {
	Metadata map[string]string `json:"metadata"`
}

// Validate checks the request shape.
func (r UpdateMetadataRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Metadata, validation.Required),
	)
}

// UpdateSectionsRequest carries a partial section payload for the working copy.
type UpdateSectionsRequest struct {
	Sections map[string]models.Section `json:"sections"`
}

// Validate checks the request shape.
func (r UpdateSectionsRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Sections, validation.Required, validation.Length(1, 0)),
	)
}

// DocumentService owns document lifecycle outside of version control. The
// version-control engine is the only component that moves a document's
// sections and current-version pointer; this service routes edits into it.
type DocumentService struct {
	docs      apdRepo.DocumentRepository
	engine    *versioncontrol.Service
	templates *template.Registry
	logger    *slog.Logger
}

// NewDocumentService creates a new document service
func NewDocumentService(
	docs apdRepo.DocumentRepository,
	engine *versioncontrol.Service,
	templates *template.Registry,
	logger *slog.Logger,
) *DocumentService {
	return &DocumentService{
		docs:      docs,
		engine:    engine,
		templates: templates,
		logger:    logger,
	}
}

// CreateDocument scaffolds a new document from its type's template. The
// document starts unversioned: the first commit creates v1.0.
func (s *DocumentService) CreateDocument(ctx context.Context, req *CreateDocumentRequest) (*models.Document, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	sections, err := s.templates.Scaffold(req.DocumentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	now := time.Now()
	doc := &models.Document{
		ID:           uuid.NewString(),
		DocumentType: req.DocumentType,
		Metadata:     req.Metadata,
		Sections:     sections,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if doc.Metadata == nil {
		doc.Metadata = map[string]string{}
	}

	if err := s.docs.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}

	s.logger.Info("document created",
		"document_id", doc.ID,
		"document_type", doc.DocumentType,
		"sections", len(doc.Sections),
	)

	return doc, nil
}

// GetDocument retrieves a document by ID.
func (s *DocumentService) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	doc, err := s.docs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// ListDocuments lists all documents.
func (s *DocumentService) ListDocuments(ctx context.Context) ([]models.Document, error) {
	return s.docs.List(ctx)
}

// UpdateMetadata replaces a document's free-form metadata. Metadata sits
// outside version control, so this writes the document directly.
func (s *DocumentService) UpdateMetadata(ctx context.Context, id string, req *UpdateMetadataRequest) (*models.Document, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	doc, err := s.docs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	doc.Metadata = req.Metadata
	doc.UpdatedAt = time.Now()
	if err := s.docs.Update(ctx, doc); err != nil {
		return nil, fmt.Errorf("update document: %w", err)
	}

	return doc, nil
}

// DeleteDocument removes a document with its versions and working copy.
func (s *DocumentService) DeleteDocument(ctx context.Context, id string) error {
	return s.docs.Delete(ctx, id)
}

// UpdateSections applies a partial section edit to the document's working
// copy and records the resulting field changes. This is the tracker role the
// engine's ApplyEdit deliberately leaves to callers: the diff runs only over
// the sections the edit touches.
func (s *DocumentService) UpdateSections(ctx context.Context, documentID string, req *UpdateSectionsRequest) (*models.WorkingCopy, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	wc, err := s.engine.GetOrCreateWorkingCopy(ctx, documentID)
	if err != nil {
		return nil, err
	}

	// Diff the edited sections against their current working-copy state.
	touched := make(map[string]models.Section, len(req.Sections))
	for id := range req.Sections {
		if current, ok := wc.Sections[id]; ok {
			touched[id] = current
		}
	}
	changes := versioncontrol.Diff(touched, req.Sections)

	wc, err = s.engine.ApplyEdit(ctx, documentID, req.Sections)
	if err != nil {
		return nil, err
	}

	if len(changes) > 0 {
		wc, err = s.engine.TrackChanges(ctx, documentID, changes)
		if err != nil {
			return nil, err
		}
	}

	return wc, nil
}
