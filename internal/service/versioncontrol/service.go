package versioncontrol

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"apdvault/internal/domain/models/apd"
	"apdvault/internal/domain/repositories"
	apdRepo "apdvault/internal/domain/repositories/apd"
)

// Service is the document version-control engine: it owns the working-copy
// lifecycle, the commit protocol, history and compare, and revert/branch.
// All mutation of a document's sections and current-version pointer flows
// through it.
//
// Every operation that touches a document's working copy or history runs
// under that document's lock, giving the per-document serialization the
// commit protocol requires.
type Service struct {
	docs          apdRepo.DocumentRepository
	versions      apdRepo.VersionRepository
	workingCopies apdRepo.WorkingCopyRepository
	changes       apdRepo.FieldChangeRepository
	txManager     repositories.TransactionManager
	wordDiffer    WordDiffer
	locks         *documentLocks
	logger        *slog.Logger
}

// NewService creates the version-control engine.
func NewService(
	docs apdRepo.DocumentRepository,
	versions apdRepo.VersionRepository,
	workingCopies apdRepo.WorkingCopyRepository,
	changes apdRepo.FieldChangeRepository,
	txManager repositories.TransactionManager,
	wordDiffer WordDiffer,
	logger *slog.Logger,
) *Service {
	return &Service{
		docs:          docs,
		versions:      versions,
		workingCopies: workingCopies,
		changes:       changes,
		txManager:     txManager,
		wordDiffer:    wordDiffer,
		locks:         newDocumentLocks(),
		logger:        logger,
	}
}

// GetOrCreateWorkingCopy returns the document's working copy, creating it
// lazily from the document's current state on first access. At most one
// working copy exists per document.
func (s *Service) GetOrCreateWorkingCopy(ctx context.Context, documentID string) (*apd.WorkingCopy, error) {
	unlock := s.locks.acquire(documentID)
	defer unlock()

	return s.getOrCreateWorkingCopyLocked(ctx, documentID)
}

func (s *Service) getOrCreateWorkingCopyLocked(ctx context.Context, documentID string) (*apd.WorkingCopy, error) {
	wc, err := s.workingCopies.GetByDocument(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("get working copy: %w", err)
	}
	if wc != nil {
		return wc, nil
	}

	doc, err := s.docs.GetByID(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("get document %s: %w", documentID, err)
	}

	wc = &apd.WorkingCopy{
		ID:                    uuid.NewString(),
		DocumentID:            documentID,
		BaseVersionID:         doc.CurrentVersionID,
		Sections:              apd.CloneSections(doc.Sections),
		Changes:               []apd.FieldChange{},
		LastModified:          time.Now(),
		HasUncommittedChanges: false,
	}

	if err := s.workingCopies.Store(ctx, wc); err != nil {
		return nil, fmt.Errorf("store working copy: %w", err)
	}

	s.logger.Debug("working copy created",
		"document_id", documentID,
		"working_copy_id", wc.ID,
	)

	return wc, nil
}

// ApplyEdit merge-replaces the given sections into the document's working
// copy and marks it dirty. It deliberately does not compute field changes:
// edit application stays O(edited sections) regardless of document size, and
// change tracking is the caller's job via TrackChanges.
func (s *Service) ApplyEdit(ctx context.Context, documentID string, sections map[string]apd.Section) (*apd.WorkingCopy, error) {
	unlock := s.locks.acquire(documentID)
	defer unlock()

	wc, err := s.getOrCreateWorkingCopyLocked(ctx, documentID)
	if err != nil {
		return nil, err
	}

	if wc.Sections == nil {
		wc.Sections = make(map[string]apd.Section, len(sections))
	}
	for id, section := range sections {
		wc.Sections[id] = section.Clone()
	}
	wc.LastModified = time.Now()
	wc.HasUncommittedChanges = true

	if err := s.workingCopies.Update(ctx, wc); err != nil {
		return nil, fmt.Errorf("update working copy: %w", err)
	}

	return wc, nil
}

// TrackChanges appends field changes to the working copy's accumulated list
// and persists them standalone so pending edits can be rendered before they
// are committed.
func (s *Service) TrackChanges(ctx context.Context, documentID string, changes []apd.FieldChange) (*apd.WorkingCopy, error) {
	if len(changes) == 0 {
		return s.GetOrCreateWorkingCopy(ctx, documentID)
	}

	unlock := s.locks.acquire(documentID)
	defer unlock()

	wc, err := s.getOrCreateWorkingCopyLocked(ctx, documentID)
	if err != nil {
		return nil, err
	}

	wc.Changes = append(wc.Changes, changes...)

	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.workingCopies.Update(txCtx, wc); err != nil {
			return fmt.Errorf("update working copy: %w", err)
		}
		if err := s.changes.Append(txCtx, documentID, changes); err != nil {
			return fmt.Errorf("append field changes: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return wc, nil
}

// PendingChanges returns the working copy's uncommitted field changes.
func (s *Service) PendingChanges(ctx context.Context, documentID string) ([]apd.FieldChange, error) {
	changes, err := s.changes.ListByDocument(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("list field changes: %w", err)
	}
	return changes, nil
}

// PendingHighlights maps the working copy's uncommitted changes to highlight
// metadata for the editor.
func (s *Service) PendingHighlights(ctx context.Context, documentID string) ([]apd.ChangeHighlight, error) {
	changes, err := s.PendingChanges(ctx, documentID)
	if err != nil {
		return nil, err
	}
	return Highlights(changes), nil
}

// InlineDiffFor renders one pending or historical change as a word diff
// using the configured strategy.
func (s *Service) InlineDiffFor(change apd.FieldChange) apd.InlineDiff {
	return InlineDiff(change, s.wordDiffer)
}
