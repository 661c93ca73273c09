package versioncontrol

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"apdvault/internal/domain"
	"apdvault/internal/domain/models/apd"
)

// Commit freezes the document's dirty working copy into a new immutable
// version, advances the document's current-version pointer, and resets the
// working copy onto the new base. This is the only place versions are
// created.
//
// Fails with domain.ErrNoUncommittedChanges when the working copy is clean
// or absent, and domain.ErrNotFound when the document does not exist.
func (s *Service) Commit(ctx context.Context, documentID, message, author string) (*apd.Version, error) {
	unlock := s.locks.acquire(documentID)
	defer unlock()

	return s.commitLocked(ctx, documentID, message, author)
}

// commitLocked assumes the caller holds the document lock; revert reuses it
// for backup commits without re-acquiring.
func (s *Service) commitLocked(ctx context.Context, documentID, message, author string) (*apd.Version, error) {
	wc, err := s.workingCopies.GetByDocument(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("get working copy: %w", err)
	}
	if wc == nil || !wc.HasUncommittedChanges {
		return nil, fmt.Errorf("commit document %s: %w", documentID, domain.ErrNoUncommittedChanges)
	}

	doc, err := s.docs.GetByID(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("get document %s: %w", documentID, err)
	}

	history, err := s.versions.ListByDocument(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("list version history: %w", err)
	}

	now := time.Now()
	version := &apd.Version{
		ID:              uuid.NewString(),
		DocumentID:      documentID,
		VersionNumber:   NextVersionNumber(history),
		CommitMessage:   message,
		Author:          author,
		CreatedAt:       now,
		Sections:        apd.CloneSections(wc.Sections),
		Changes:         append([]apd.FieldChange(nil), wc.Changes...),
		ParentVersionID: doc.CurrentVersionID,
	}

	// The version insert, document pointer advance, and working copy reset
	// must land together; a crash in between would let the document's state
	// and its history diverge.
	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.versions.Store(txCtx, version); err != nil {
			return fmt.Errorf("store version: %w", err)
		}

		doc.Sections = apd.CloneSections(version.Sections)
		doc.CurrentVersionID = &version.ID
		doc.UpdatedAt = now
		if err := s.docs.Update(txCtx, doc); err != nil {
			return fmt.Errorf("update document: %w", err)
		}

		wc.BaseVersionID = &version.ID
		wc.Changes = []apd.FieldChange{}
		wc.HasUncommittedChanges = false
		wc.LastModified = now
		if err := s.workingCopies.Update(txCtx, wc); err != nil {
			return fmt.Errorf("reset working copy: %w", err)
		}

		if err := s.changes.DeleteByDocument(txCtx, documentID); err != nil {
			return fmt.Errorf("clear pending changes: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("commit document %s: %w", documentID, err)
	}

	s.logger.Info("version committed",
		"document_id", documentID,
		"version_id", version.ID,
		"version_number", version.VersionNumber,
		"author", author,
		"changes", len(version.Changes),
	)

	return version, nil
}
