package versioncontrol

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"apdvault/internal/domain"
	"apdvault/internal/domain/models/apd"
)

// BackupAuthor attributes automatic pre-revert snapshots.
const BackupAuthor = "system"

// RevertOptions controls how a revert stages the rollback.
type RevertOptions struct {
	// PreserveWorkingCopy leaves the document's sections untouched and the
	// new working copy clean; the caller is only inspecting the old state.
	PreserveWorkingCopy bool

	// CreateBackup commits the current working copy first so the pre-revert
	// state is kept in history.
	CreateBackup bool
}

// Revert materializes a new working copy from a historical version. It
// stages a rollback rather than rewriting history: the document's
// current-version pointer is left alone, and the revert only becomes a
// recorded version when the resulting working copy is committed.
//
// Unless PreserveWorkingCopy is set, the new working copy is marked dirty
// even though its sections equal the target version's, forcing an explicit
// confirmation commit before the rollback lands in history.
func (s *Service) Revert(ctx context.Context, documentID, targetVersionID string, opts RevertOptions) (*apd.WorkingCopy, error) {
	unlock := s.locks.acquire(documentID)
	defer unlock()

	target, err := s.versions.GetByID(ctx, targetVersionID)
	if err != nil {
		return nil, fmt.Errorf("get target version %s: %w", targetVersionID, err)
	}

	if opts.CreateBackup {
		wc, err := s.workingCopies.GetByDocument(ctx, documentID)
		if err != nil {
			return nil, fmt.Errorf("get working copy: %w", err)
		}
		if wc != nil && wc.HasUncommittedChanges {
			message := fmt.Sprintf("Backup before reverting to %s", target.VersionNumber)
			if _, err := s.commitLocked(ctx, documentID, message, BackupAuthor); err != nil {
				return nil, fmt.Errorf("backup commit: %w", err)
			}
		}
	}

	doc, err := s.docs.GetByID(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("get document %s: %w", documentID, err)
	}

	wc := &apd.WorkingCopy{
		ID:                    uuid.NewString(),
		DocumentID:            documentID,
		BaseVersionID:         &target.ID,
		Sections:              apd.CloneSections(target.Sections),
		Changes:               []apd.FieldChange{},
		LastModified:          time.Now(),
		HasUncommittedChanges: !opts.PreserveWorkingCopy,
	}

	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.workingCopies.Store(txCtx, wc); err != nil {
			return fmt.Errorf("replace working copy: %w", err)
		}

		if err := s.changes.DeleteByDocument(txCtx, documentID); err != nil {
			return fmt.Errorf("clear pending changes: %w", err)
		}

		if !opts.PreserveWorkingCopy {
			// The document's sections roll back, but CurrentVersionID still
			// references the version it was on until the revert is committed.
			doc.Sections = apd.CloneSections(target.Sections)
			doc.UpdatedAt = time.Now()
			if err := s.docs.Update(txCtx, doc); err != nil {
				return fmt.Errorf("update document: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("revert document %s: %w", documentID, err)
	}

	s.logger.Info("revert staged",
		"document_id", documentID,
		"target_version_id", targetVersionID,
		"target_version_number", target.VersionNumber,
		"preserve_working_copy", opts.PreserveWorkingCopy,
	)

	return wc, nil
}

// CreateWorkingCopyFromVersion branches a working copy off an arbitrary
// version without touching the document at all. The copy starts clean.
func (s *Service) CreateWorkingCopyFromVersion(ctx context.Context, documentID, versionID string) (*apd.WorkingCopy, error) {
	unlock := s.locks.acquire(documentID)
	defer unlock()

	version, err := s.versions.GetByID(ctx, versionID)
	if err != nil {
		return nil, fmt.Errorf("get version %s: %w", versionID, err)
	}
	if version.DocumentID != documentID {
		return nil, &domain.NotFoundError{
			Message: fmt.Sprintf("version %s does not belong to document %s", versionID, documentID),
		}
	}

	wc := &apd.WorkingCopy{
		ID:                    uuid.NewString(),
		DocumentID:            documentID,
		BaseVersionID:         &version.ID,
		Sections:              apd.CloneSections(version.Sections),
		Changes:               []apd.FieldChange{},
		LastModified:          time.Now(),
		HasUncommittedChanges: false,
	}

	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.workingCopies.Store(txCtx, wc); err != nil {
			return fmt.Errorf("replace working copy: %w", err)
		}
		return s.changes.DeleteByDocument(txCtx, documentID)
	})
	if err != nil {
		return nil, fmt.Errorf("branch document %s: %w", documentID, err)
	}

	return wc, nil
}
