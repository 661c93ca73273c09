package versioncontrol

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"testing"
	"time"

	"apdvault/internal/domain"
	"apdvault/internal/domain/models/apd"
	"apdvault/internal/repository/memory"
)

func newTestEngine(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := NewService(
		store.Documents(),
		store.Versions(),
		store.WorkingCopies(),
		store.FieldChanges(),
		store.TxManager(),
		NewPositionalWordDiffer(),
		logger,
	)
	return engine, store
}

func seedDocument(t *testing.T, store *memory.Store, id string) *apd.Document {
	t.Helper()
	doc := &apd.Document{
		ID:           id,
		DocumentType: "hitech",
		Metadata:     map[string]string{"state": "Example State"},
		Sections: map[string]apd.Section{
			"exec-summary": {
				SectionID: "exec-summary",
				Title:     "Executive Summary",
				Content: map[string]apd.Value{
					"overview": apd.String("Original overview text"),
				},
				LastModified: time.Now(),
			},
		},
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := store.Documents().Create(context.Background(), doc); err != nil {
		t.Fatalf("seed document: %v", err)
	}
	return doc
}

// editOverview applies a one-field edit to the working copy and records the
// resulting change, the way the document service routes edits in.
func editOverview(t *testing.T, engine *Service, docID, text string) {
	t.Helper()
	ctx := context.Background()

	wc, err := engine.GetOrCreateWorkingCopy(ctx, docID)
	if err != nil {
		t.Fatalf("get working copy: %v", err)
	}

	edited := map[string]apd.Section{
		"exec-summary": {
			SectionID: "exec-summary",
			Title:     "Executive Summary",
			Content: map[string]apd.Value{
				"overview": apd.String(text),
			},
			LastModified: time.Now(),
		},
	}

	current := map[string]apd.Section{"exec-summary": wc.Sections["exec-summary"]}
	changes := Diff(current, edited)

	if _, err := engine.ApplyEdit(ctx, docID, edited); err != nil {
		t.Fatalf("apply edit: %v", err)
	}
	if _, err := engine.TrackChanges(ctx, docID, changes); err != nil {
		t.Fatalf("track changes: %v", err)
	}
}

func TestGetOrCreateWorkingCopy(t *testing.T) {
	engine, store := newTestEngine(t)
	doc := seedDocument(t, store, "doc-1")
	ctx := context.Background()

	wc, err := engine.GetOrCreateWorkingCopy(ctx, doc.ID)
	if err != nil {
		t.Fatalf("GetOrCreateWorkingCopy: %v", err)
	}
	if wc.DocumentID != doc.ID {
		t.Errorf("DocumentID = %q", wc.DocumentID)
	}
	if wc.HasUncommittedChanges {
		t.Error("fresh working copy should be clean")
	}
	if wc.BaseVersionID != nil {
		t.Error("unversioned document's working copy should have nil base")
	}
	if len(wc.Sections) != 1 {
		t.Errorf("sections = %d, want 1", len(wc.Sections))
	}

	// Second call returns the same copy, not a new one.
	again, err := engine.GetOrCreateWorkingCopy(ctx, doc.ID)
	if err != nil {
		t.Fatalf("second GetOrCreateWorkingCopy: %v", err)
	}
	if again.ID != wc.ID {
		t.Errorf("working copy recreated: %q vs %q", again.ID, wc.ID)
	}
}

func TestGetOrCreateWorkingCopyMissingDocument(t *testing.T) {
	engine, _ := newTestEngine(t)

	_, err := engine.GetOrCreateWorkingCopy(context.Background(), "nope")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestApplyEditMarksDirty(t *testing.T) {
	engine, store := newTestEngine(t)
	doc := seedDocument(t, store, "doc-1")
	ctx := context.Background()

	wc, err := engine.ApplyEdit(ctx, doc.ID, map[string]apd.Section{
		"exec-summary": {
			SectionID: "exec-summary",
			Content:   map[string]apd.Value{"overview": apd.String("Edited")},
		},
	})
	if err != nil {
		t.Fatalf("ApplyEdit: %v", err)
	}
	if !wc.HasUncommittedChanges {
		t.Error("working copy should be dirty after edit")
	}
	if got, _ := wc.Sections["exec-summary"].Content["overview"].AsString(); got != "Edited" {
		t.Errorf("overview = %q", got)
	}

	// The document itself is untouched until commit.
	stored, err := store.Documents().GetByID(ctx, doc.ID)
	if err != nil {
		t.Fatalf("get document: %v", err)
	}
	if got, _ := stored.Sections["exec-summary"].Content["overview"].AsString(); got != "Original overview text" {
		t.Errorf("document mutated before commit: %q", got)
	}
}

func TestCommitLifecycle(t *testing.T) {
	engine, store := newTestEngine(t)
	doc := seedDocument(t, store, "doc-1")
	ctx := context.Background()

	editOverview(t, engine, doc.ID, "Updated overview text")

	version, err := engine.Commit(ctx, doc.ID, "Fix typo in summary", "Jane")
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}

	if version.VersionNumber != "v1.0" {
		t.Errorf("first version number = %q, want v1.0", version.VersionNumber)
	}
	if version.CommitMessage != "Fix typo in summary" || version.Author != "Jane" {
		t.Errorf("version metadata = %q by %q", version.CommitMessage, version.Author)
	}
	if version.ParentVersionID != nil {
		t.Error("first version should have no parent")
	}
	if len(version.Changes) != 1 {
		t.Fatalf("version changes = %d, want 1", len(version.Changes))
	}
	if version.Changes[0].FieldPath != "sections.exec-summary.content.overview" {
		t.Errorf("change path = %q", version.Changes[0].FieldPath)
	}

	// Document advanced to the new version.
	stored, err := store.Documents().GetByID(ctx, doc.ID)
	if err != nil {
		t.Fatalf("get document: %v", err)
	}
	if stored.CurrentVersionID == nil || *stored.CurrentVersionID != version.ID {
		t.Error("document CurrentVersionID not advanced")
	}
	if got, _ := stored.Sections["exec-summary"].Content["overview"].AsString(); got != "Updated overview text" {
		t.Errorf("document sections = %q", got)
	}

	// Working copy reset onto the new base.
	wc, err := engine.GetOrCreateWorkingCopy(ctx, doc.ID)
	if err != nil {
		t.Fatalf("get working copy: %v", err)
	}
	if wc.HasUncommittedChanges {
		t.Error("working copy should be clean after commit")
	}
	if wc.BaseVersionID == nil || *wc.BaseVersionID != version.ID {
		t.Error("working copy base not moved to new version")
	}
	if len(wc.Changes) != 0 {
		t.Errorf("working copy changes not cleared: %d", len(wc.Changes))
	}

	pending, err := engine.PendingChanges(ctx, doc.ID)
	if err != nil {
		t.Fatalf("PendingChanges: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("pending changes not cleared: %d", len(pending))
	}

	// Second commit bumps the minor version and links the parent.
	editOverview(t, engine, doc.ID, "Third revision of the text")
	second, err := engine.Commit(ctx, doc.ID, "Expand overview", "Jane")
	if err != nil {
		t.Fatalf("second Commit: %v", err)
	}
	if second.VersionNumber != "v1.1" {
		t.Errorf("second version number = %q, want v1.1", second.VersionNumber)
	}
	if second.ParentVersionID == nil || *second.ParentVersionID != version.ID {
		t.Error("second version parent should be the first version")
	}
}

func TestCommitWithoutChangesFails(t *testing.T) {
	engine, store := newTestEngine(t)
	doc := seedDocument(t, store, "doc-1")
	ctx := context.Background()

	// No working copy at all.
	if _, err := engine.Commit(ctx, doc.ID, "nothing", "Jane"); !errors.Is(err, domain.ErrNoUncommittedChanges) {
		t.Errorf("expected ErrNoUncommittedChanges, got %v", err)
	}

	// Clean working copy.
	if _, err := engine.GetOrCreateWorkingCopy(ctx, doc.ID); err != nil {
		t.Fatalf("get working copy: %v", err)
	}
	if _, err := engine.Commit(ctx, doc.ID, "still nothing", "Jane"); !errors.Is(err, domain.ErrNoUncommittedChanges) {
		t.Errorf("expected ErrNoUncommittedChanges, got %v", err)
	}
}

func TestPendingHighlights(t *testing.T) {
	engine, store := newTestEngine(t)
	doc := seedDocument(t, store, "doc-1")

	editOverview(t, engine, doc.ID, "Changed text")

	highlights, err := engine.PendingHighlights(context.Background(), doc.ID)
	if err != nil {
		t.Fatalf("PendingHighlights: %v", err)
	}
	if len(highlights) != 1 {
		t.Fatalf("highlights = %d, want 1", len(highlights))
	}
	if highlights[0].Style != apd.HighlightInline {
		t.Errorf("modified field style = %s, want inline", highlights[0].Style)
	}
	if highlights[0].SectionID != "exec-summary" {
		t.Errorf("SectionID = %q", highlights[0].SectionID)
	}
}

func TestCompare(t *testing.T) {
	engine, store := newTestEngine(t)
	doc := seedDocument(t, store, "doc-1")
	ctx := context.Background()

	editOverview(t, engine, doc.ID, "Version one text")
	v1, err := engine.Commit(ctx, doc.ID, "first", "Jane")
	if err != nil {
		t.Fatalf("commit v1: %v", err)
	}

	editOverview(t, engine, doc.ID, "Version two text")
	v2, err := engine.Commit(ctx, doc.ID, "second", "Jane")
	if err != nil {
		t.Fatalf("commit v2: %v", err)
	}

	diff, err := engine.Compare(ctx, v1.ID, v2.ID)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if diff.FromVersion.ID != v1.ID || diff.ToVersion.ID != v2.ID {
		t.Error("diff endpoints wrong")
	}
	if len(diff.Changes) != 1 {
		t.Fatalf("diff changes = %d, want 1", len(diff.Changes))
	}
	c := diff.Changes[0]
	if c.ChangeType != apd.ChangeModified {
		t.Errorf("change type = %s", c.ChangeType)
	}
	if c.OldValue == nil || !c.OldValue.Equal(apd.String("Version one text")) {
		t.Errorf("old value = %v", c.OldValue)
	}
	if c.NewValue == nil || !c.NewValue.Equal(apd.String("Version two text")) {
		t.Errorf("new value = %v", c.NewValue)
	}
	if !reflect.DeepEqual(diff.Summary.SectionsModified, []string{"exec-summary"}) {
		t.Errorf("summary sections = %v", diff.Summary.SectionsModified)
	}
	if diff.Summary.FieldsModified != 1 {
		t.Errorf("summary modified = %d", diff.Summary.FieldsModified)
	}

	// A version compared against itself is an empty diff.
	same, err := engine.Compare(ctx, v2.ID, v2.ID)
	if err != nil {
		t.Fatalf("self Compare: %v", err)
	}
	if len(same.Changes) != 0 {
		t.Errorf("self diff changes = %d", len(same.Changes))
	}
}

func TestRevert(t *testing.T) {
	engine, store := newTestEngine(t)
	doc := seedDocument(t, store, "doc-1")
	ctx := context.Background()

	editOverview(t, engine, doc.ID, "Version one text")
	v1, err := engine.Commit(ctx, doc.ID, "first", "Jane")
	if err != nil {
		t.Fatalf("commit v1: %v", err)
	}

	editOverview(t, engine, doc.ID, "Version two text")
	v2, err := engine.Commit(ctx, doc.ID, "second", "Jane")
	if err != nil {
		t.Fatalf("commit v2: %v", err)
	}

	wc, err := engine.Revert(ctx, doc.ID, v1.ID, RevertOptions{})
	if err != nil {
		t.Fatalf("Revert: %v", err)
	}

	if wc.BaseVersionID == nil || *wc.BaseVersionID != v1.ID {
		t.Error("reverted working copy base should be the target version")
	}
	if !wc.HasUncommittedChanges {
		t.Error("staged revert should leave the working copy dirty")
	}
	if got, _ := wc.Sections["exec-summary"].Content["overview"].AsString(); got != "Version one text" {
		t.Errorf("working copy sections = %q", got)
	}

	// The document's sections roll back but its pointer does not move; the
	// rollback only lands in history when the working copy is committed.
	stored, err := store.Documents().GetByID(ctx, doc.ID)
	if err != nil {
		t.Fatalf("get document: %v", err)
	}
	if got, _ := stored.Sections["exec-summary"].Content["overview"].AsString(); got != "Version one text" {
		t.Errorf("document sections = %q", got)
	}
	if stored.CurrentVersionID == nil || *stored.CurrentVersionID != v2.ID {
		t.Error("revert must not move CurrentVersionID")
	}

	// Committing the staged revert records it as a new version.
	v3, err := engine.Commit(ctx, doc.ID, "Revert to v1.0", "Jane")
	if err != nil {
		t.Fatalf("commit revert: %v", err)
	}
	if v3.VersionNumber != "v1.2" {
		t.Errorf("revert commit number = %q, want v1.2", v3.VersionNumber)
	}

	// Round trip: the reverted version's content matches the target's.
	diff, err := engine.Compare(ctx, v1.ID, v3.ID)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if len(diff.Changes) != 0 {
		t.Errorf("revert round trip should be an empty diff, got %d changes", len(diff.Changes))
	}
}

func TestRevertPreserveWorkingCopy(t *testing.T) {
	engine, store := newTestEngine(t)
	doc := seedDocument(t, store, "doc-1")
	ctx := context.Background()

	editOverview(t, engine, doc.ID, "Version one text")
	v1, err := engine.Commit(ctx, doc.ID, "first", "Jane")
	if err != nil {
		t.Fatalf("commit v1: %v", err)
	}
	editOverview(t, engine, doc.ID, "Version two text")
	v2, err := engine.Commit(ctx, doc.ID, "second", "Jane")
	if err != nil {
		t.Fatalf("commit v2: %v", err)
	}

	wc, err := engine.Revert(ctx, doc.ID, v1.ID, RevertOptions{PreserveWorkingCopy: true})
	if err != nil {
		t.Fatalf("Revert: %v", err)
	}
	if wc.HasUncommittedChanges {
		t.Error("preserving revert should leave the working copy clean")
	}

	// Document untouched entirely.
	stored, err := store.Documents().GetByID(ctx, doc.ID)
	if err != nil {
		t.Fatalf("get document: %v", err)
	}
	if got, _ := stored.Sections["exec-summary"].Content["overview"].AsString(); got != "Version two text" {
		t.Errorf("document sections changed: %q", got)
	}
	if stored.CurrentVersionID == nil || *stored.CurrentVersionID != v2.ID {
		t.Error("CurrentVersionID changed")
	}
}

func TestRevertWithBackup(t *testing.T) {
	engine, store := newTestEngine(t)
	doc := seedDocument(t, store, "doc-1")
	ctx := context.Background()

	editOverview(t, engine, doc.ID, "Version one text")
	v1, err := engine.Commit(ctx, doc.ID, "first", "Jane")
	if err != nil {
		t.Fatalf("commit v1: %v", err)
	}

	// Leave uncommitted work in the copy, then revert with backup.
	editOverview(t, engine, doc.ID, "Unsaved experiment")

	if _, err := engine.Revert(ctx, doc.ID, v1.ID, RevertOptions{CreateBackup: true}); err != nil {
		t.Fatalf("Revert: %v", err)
	}

	history, err := engine.History(ctx, doc.ID)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history = %d versions, want 2 (original + backup)", len(history))
	}

	var backup *apd.Version
	for i := range history {
		if history[i].Author == BackupAuthor {
			backup = &history[i]
		}
	}
	if backup == nil {
		t.Fatal("no backup version in history")
	}
	if backup.CommitMessage != "Backup before reverting to v1.0" {
		t.Errorf("backup message = %q", backup.CommitMessage)
	}
	if got, _ := backup.Sections["exec-summary"].Content["overview"].AsString(); got != "Unsaved experiment" {
		t.Errorf("backup sections = %q", got)
	}
}

func TestRevertWithBackupCleanCopySkipsBackup(t *testing.T) {
	engine, store := newTestEngine(t)
	doc := seedDocument(t, store, "doc-1")
	ctx := context.Background()

	editOverview(t, engine, doc.ID, "Version one text")
	v1, err := engine.Commit(ctx, doc.ID, "first", "Jane")
	if err != nil {
		t.Fatalf("commit v1: %v", err)
	}

	// Working copy is clean; CreateBackup must not mint an empty version.
	if _, err := engine.Revert(ctx, doc.ID, v1.ID, RevertOptions{CreateBackup: true}); err != nil {
		t.Fatalf("Revert: %v", err)
	}

	history, err := engine.History(ctx, doc.ID)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 1 {
		t.Errorf("history = %d versions, want 1", len(history))
	}
}

func TestRevertUnknownVersion(t *testing.T) {
	engine, store := newTestEngine(t)
	doc := seedDocument(t, store, "doc-1")

	_, err := engine.Revert(context.Background(), doc.ID, "missing", RevertOptions{})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateWorkingCopyFromVersion(t *testing.T) {
	engine, store := newTestEngine(t)
	doc := seedDocument(t, store, "doc-1")
	ctx := context.Background()

	editOverview(t, engine, doc.ID, "Version one text")
	v1, err := engine.Commit(ctx, doc.ID, "first", "Jane")
	if err != nil {
		t.Fatalf("commit v1: %v", err)
	}
	editOverview(t, engine, doc.ID, "Version two text")
	if _, err := engine.Commit(ctx, doc.ID, "second", "Jane"); err != nil {
		t.Fatalf("commit v2: %v", err)
	}

	wc, err := engine.CreateWorkingCopyFromVersion(ctx, doc.ID, v1.ID)
	if err != nil {
		t.Fatalf("CreateWorkingCopyFromVersion: %v", err)
	}
	if wc.HasUncommittedChanges {
		t.Error("branched working copy should start clean")
	}
	if wc.BaseVersionID == nil || *wc.BaseVersionID != v1.ID {
		t.Error("branched working copy base should be the source version")
	}
	if got, _ := wc.Sections["exec-summary"].Content["overview"].AsString(); got != "Version one text" {
		t.Errorf("branched sections = %q", got)
	}
}

func TestCreateWorkingCopyFromForeignVersion(t *testing.T) {
	engine, store := newTestEngine(t)
	docA := seedDocument(t, store, "doc-a")
	docB := seedDocument(t, store, "doc-b")
	ctx := context.Background()

	editOverview(t, engine, docA.ID, "A's text")
	vA, err := engine.Commit(ctx, docA.ID, "first", "Jane")
	if err != nil {
		t.Fatalf("commit: %v", err)
	}

	// A version belonging to another document must be rejected.
	_, err = engine.CreateWorkingCopyFromVersion(ctx, docB.ID, vA.ID)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
