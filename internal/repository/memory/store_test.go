package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"apdvault/internal/domain"
	"apdvault/internal/domain/models/apd"
)

func testDocument(id string) *apd.Document {
	return &apd.Document{
		ID:           id,
		DocumentType: "hitech",
		Metadata:     map[string]string{"state": "Example State"},
		Sections: map[string]apd.Section{
			"exec-summary": {
				SectionID: "exec-summary",
				Content:   map[string]apd.Value{"overview": apd.String("text")},
			},
		},
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

func TestDocumentRepository(t *testing.T) {
	store := NewStore()
	repo := store.Documents()
	ctx := context.Background()

	doc := testDocument("doc-1")
	if err := repo.Create(ctx, doc); err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Duplicate create conflicts.
	err := repo.Create(ctx, testDocument("doc-1"))
	if !errors.Is(err, domain.ErrConflict) {
		t.Errorf("duplicate create: expected ErrConflict, got %v", err)
	}

	got, err := repo.GetByID(ctx, "doc-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.DocumentType != "hitech" {
		t.Errorf("DocumentType = %q", got.DocumentType)
	}

	// Returned values are copies; mutating them must not touch the store.
	got.Metadata["state"] = "Mutated"
	again, _ := repo.GetByID(ctx, "doc-1")
	if again.Metadata["state"] != "Example State" {
		t.Error("stored document aliased by returned copy")
	}

	if _, err := repo.GetByID(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	docs, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(docs) != 1 {
		t.Errorf("List = %d documents", len(docs))
	}

	got.Metadata["state"] = "Updated State"
	if err := repo.Update(ctx, got); err != nil {
		t.Fatalf("Update: %v", err)
	}
	updated, _ := repo.GetByID(ctx, "doc-1")
	if updated.Metadata["state"] != "Updated State" {
		t.Errorf("update not applied: %q", updated.Metadata["state"])
	}

	if err := repo.Update(ctx, testDocument("missing")); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("update missing: expected ErrNotFound, got %v", err)
	}

	if err := repo.Delete(ctx, "doc-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.GetByID(ctx, "doc-1"); !errors.Is(err, domain.ErrNotFound) {
		t.Error("document still present after delete")
	}
	if err := repo.Delete(ctx, "doc-1"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("double delete: expected ErrNotFound, got %v", err)
	}
}

func TestDocumentDeleteCascades(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	if err := store.Documents().Create(ctx, testDocument("doc-1")); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := store.Versions().Store(ctx, &apd.Version{ID: "v-1", DocumentID: "doc-1", VersionNumber: "v1.0"}); err != nil {
		t.Fatalf("Store version: %v", err)
	}
	if err := store.WorkingCopies().Store(ctx, &apd.WorkingCopy{ID: "wc-1", DocumentID: "doc-1"}); err != nil {
		t.Fatalf("Store working copy: %v", err)
	}
	if err := store.FieldChanges().Append(ctx, "doc-1", []apd.FieldChange{{ID: "c-1", FieldPath: "sections.s.content.f"}}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	if err := store.Documents().Delete(ctx, "doc-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, err := store.Versions().GetByID(ctx, "v-1"); !errors.Is(err, domain.ErrNotFound) {
		t.Error("version survived document delete")
	}
	wc, err := store.WorkingCopies().GetByDocument(ctx, "doc-1")
	if err != nil || wc != nil {
		t.Errorf("working copy survived document delete: %v, %v", wc, err)
	}
	changes, _ := store.FieldChanges().ListByDocument(ctx, "doc-1")
	if len(changes) != 0 {
		t.Error("field changes survived document delete")
	}
}

func TestVersionRepository(t *testing.T) {
	store := NewStore()
	repo := store.Versions()
	ctx := context.Background()

	v := &apd.Version{
		ID:            "v-1",
		DocumentID:    "doc-1",
		VersionNumber: "v1.0",
		CommitMessage: "first",
		Author:        "Jane",
		CreatedAt:     time.Now(),
	}
	if err := repo.Store(ctx, v); err != nil {
		t.Fatalf("Store: %v", err)
	}
	if err := repo.Store(ctx, v); !errors.Is(err, domain.ErrConflict) {
		t.Errorf("duplicate store: expected ErrConflict, got %v", err)
	}

	got, err := repo.GetByID(ctx, "v-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.VersionNumber != "v1.0" {
		t.Errorf("VersionNumber = %q", got.VersionNumber)
	}

	if err := repo.Store(ctx, &apd.Version{ID: "v-2", DocumentID: "doc-1", VersionNumber: "v1.1"}); err != nil {
		t.Fatalf("Store: %v", err)
	}
	if err := repo.Store(ctx, &apd.Version{ID: "v-other", DocumentID: "doc-2", VersionNumber: "v1.0"}); err != nil {
		t.Fatalf("Store: %v", err)
	}

	versions, err := repo.ListByDocument(ctx, "doc-1")
	if err != nil {
		t.Fatalf("ListByDocument: %v", err)
	}
	if len(versions) != 2 {
		t.Errorf("ListByDocument = %d versions, want 2", len(versions))
	}
}

func TestWorkingCopyRepository(t *testing.T) {
	store := NewStore()
	repo := store.WorkingCopies()
	ctx := context.Background()

	// Absent working copy is nil, nil rather than an error.
	wc, err := repo.GetByDocument(ctx, "doc-1")
	if err != nil {
		t.Fatalf("GetByDocument: %v", err)
	}
	if wc != nil {
		t.Fatal("expected nil working copy")
	}

	first := &apd.WorkingCopy{ID: "wc-1", DocumentID: "doc-1", HasUncommittedChanges: true}
	if err := repo.Store(ctx, first); err != nil {
		t.Fatalf("Store: %v", err)
	}

	// Store is an upsert keyed on document: a second copy replaces the first.
	second := &apd.WorkingCopy{ID: "wc-2", DocumentID: "doc-1"}
	if err := repo.Store(ctx, second); err != nil {
		t.Fatalf("second Store: %v", err)
	}
	got, _ := repo.GetByDocument(ctx, "doc-1")
	if got.ID != "wc-2" {
		t.Errorf("working copy id = %q, want wc-2", got.ID)
	}

	got.HasUncommittedChanges = true
	if err := repo.Update(ctx, got); err != nil {
		t.Fatalf("Update: %v", err)
	}
	updated, _ := repo.GetByDocument(ctx, "doc-1")
	if !updated.HasUncommittedChanges {
		t.Error("update not applied")
	}

	missing := &apd.WorkingCopy{ID: "wc-3", DocumentID: "doc-other"}
	if err := repo.Update(ctx, missing); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("update missing: expected ErrNotFound, got %v", err)
	}
}

func TestFieldChangeRepository(t *testing.T) {
	store := NewStore()
	repo := store.FieldChanges()
	ctx := context.Background()

	oldVal := apd.String("old")
	changes := []apd.FieldChange{
		{ID: "c-1", FieldPath: "sections.s.content.a", OldValue: &oldVal, ChangeType: apd.ChangeModified},
		{ID: "c-2", FieldPath: "sections.s.content.b", ChangeType: apd.ChangeAdded},
	}
	if err := repo.Append(ctx, "doc-1", changes); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := repo.Append(ctx, "doc-1", []apd.FieldChange{{ID: "c-3", ChangeType: apd.ChangeDeleted}}); err != nil {
		t.Fatalf("second Append: %v", err)
	}

	got, err := repo.ListByDocument(ctx, "doc-1")
	if err != nil {
		t.Fatalf("ListByDocument: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("changes = %d, want 3", len(got))
	}
	if got[0].ID != "c-1" || got[2].ID != "c-3" {
		t.Error("append order not preserved")
	}

	if err := repo.DeleteByDocument(ctx, "doc-1"); err != nil {
		t.Fatalf("DeleteByDocument: %v", err)
	}
	got, _ = repo.ListByDocument(ctx, "doc-1")
	if len(got) != 0 {
		t.Errorf("changes after delete = %d", len(got))
	}
}
