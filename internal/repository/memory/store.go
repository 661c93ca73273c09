// Package memory provides an in-process implementation of the persistence
// port, backing engine tests and database-less dev runs. Semantics mirror
// the postgres implementation, including error mapping.
package memory

import (
	"context"
	"fmt"
	"sync"

	"apdvault/internal/domain"
	"apdvault/internal/domain/models/apd"
	"apdvault/internal/domain/repositories"
)

// Store holds every entity behind one RWMutex. All values are deep-copied on
// the way in and out so callers never alias stored state.
type Store struct {
	mu            sync.RWMutex
	documents     map[string]*apd.Document
	versions      map[string]*apd.Version
	workingCopies map[string]*apd.WorkingCopy // keyed by document id
	fieldChanges  map[string][]apd.FieldChange
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		documents:     make(map[string]*apd.Document),
		versions:      make(map[string]*apd.Version),
		workingCopies: make(map[string]*apd.WorkingCopy),
		fieldChanges:  make(map[string][]apd.FieldChange),
	}
}

// Documents returns the document repository view of the store.
func (s *Store) Documents() *DocumentRepository { return &DocumentRepository{store: s} }

// Versions returns the version repository view of the store.
func (s *Store) Versions() *VersionRepository { return &VersionRepository{store: s} }

// WorkingCopies returns the working copy repository view of the store.
func (s *Store) WorkingCopies() *WorkingCopyRepository { return &WorkingCopyRepository{store: s} }

// FieldChanges returns the field change repository view of the store.
func (s *Store) FieldChanges() *FieldChangeRepository { return &FieldChangeRepository{store: s} }

// TxManager returns a pass-through transaction manager. Writes under the
// store's mutex are already atomic per call; grouped writes rely on the
// engine's per-document serialization.
func (s *Store) TxManager() repositories.TransactionManager { return passthroughTx{} }

type passthroughTx struct{}

func (passthroughTx) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	return fn(ctx)
}

// DocumentRepository implements apd.DocumentRepository over the store.
type DocumentRepository struct {
	store *Store
}

func (r *DocumentRepository) Create(ctx context.Context, doc *apd.Document) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, exists := r.store.documents[doc.ID]; exists {
		return &domain.ConflictError{
			Message:      fmt.Sprintf("document %s already exists", doc.ID),
			ResourceType: "document",
			ResourceID:   doc.ID,
		}
	}
	r.store.documents[doc.ID] = cloneDocument(doc)
	return nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*apd.Document, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	doc, ok := r.store.documents[id]
	if !ok {
		return nil, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	return cloneDocument(doc), nil
}

func (r *DocumentRepository) List(ctx context.Context) ([]apd.Document, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	docs := make([]apd.Document, 0, len(r.store.documents))
	for _, doc := range r.store.documents {
		docs = append(docs, *cloneDocument(doc))
	}
	return docs, nil
}

func (r *DocumentRepository) Update(ctx context.Context, doc *apd.Document) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.documents[doc.ID]; !ok {
		return fmt.Errorf("document %s: %w", doc.ID, domain.ErrNotFound)
	}
	r.store.documents[doc.ID] = cloneDocument(doc)
	return nil
}

func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.documents[id]; !ok {
		return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	delete(r.store.documents, id)
	delete(r.store.workingCopies, id)
	delete(r.store.fieldChanges, id)
	for vid, v := range r.store.versions {
		if v.DocumentID == id {
			delete(r.store.versions, vid)
		}
	}
	return nil
}

// VersionRepository implements apd.VersionRepository over the store.
type VersionRepository struct {
	store *Store
}

func (r *VersionRepository) Store(ctx context.Context, v *apd.Version) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, exists := r.store.versions[v.ID]; exists {
		return &domain.ConflictError{
			Message:      fmt.Sprintf("version %s already exists", v.ID),
			ResourceType: "version",
			ResourceID:   v.ID,
		}
	}
	r.store.versions[v.ID] = cloneVersion(v)
	return nil
}

func (r *VersionRepository) GetByID(ctx context.Context, id string) (*apd.Version, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	v, ok := r.store.versions[id]
	if !ok {
		return nil, fmt.Errorf("version %s: %w", id, domain.ErrNotFound)
	}
	return cloneVersion(v), nil
}

func (r *VersionRepository) ListByDocument(ctx context.Context, documentID string) ([]apd.Version, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var versions []apd.Version
	for _, v := range r.store.versions {
		if v.DocumentID == documentID {
			versions = append(versions, *cloneVersion(v))
		}
	}
	return versions, nil
}

// WorkingCopyRepository implements apd.WorkingCopyRepository over the store.
type WorkingCopyRepository struct {
	store *Store
}

func (r *WorkingCopyRepository) GetByDocument(ctx context.Context, documentID string) (*apd.WorkingCopy, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	wc, ok := r.store.workingCopies[documentID]
	if !ok {
		return nil, nil
	}
	return cloneWorkingCopy(wc), nil
}

func (r *WorkingCopyRepository) Store(ctx context.Context, wc *apd.WorkingCopy) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	r.store.workingCopies[wc.DocumentID] = cloneWorkingCopy(wc)
	return nil
}

func (r *WorkingCopyRepository) Update(ctx context.Context, wc *apd.WorkingCopy) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.workingCopies[wc.DocumentID]; !ok {
		return fmt.Errorf("working copy for document %s: %w", wc.DocumentID, domain.ErrNotFound)
	}
	r.store.workingCopies[wc.DocumentID] = cloneWorkingCopy(wc)
	return nil
}

// FieldChangeRepository implements apd.FieldChangeRepository over the store.
type FieldChangeRepository struct {
	store *Store
}

func (r *FieldChangeRepository) Append(ctx context.Context, documentID string, changes []apd.FieldChange) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	r.store.fieldChanges[documentID] = append(r.store.fieldChanges[documentID], cloneChanges(changes)...)
	return nil
}

func (r *FieldChangeRepository) ListByDocument(ctx context.Context, documentID string) ([]apd.FieldChange, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	return cloneChanges(r.store.fieldChanges[documentID]), nil
}

func (r *FieldChangeRepository) DeleteByDocument(ctx context.Context, documentID string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	delete(r.store.fieldChanges, documentID)
	return nil
}

// Deep-copy helpers

func cloneDocument(doc *apd.Document) *apd.Document {
	c := *doc
	if doc.Metadata != nil {
		c.Metadata = make(map[string]string, len(doc.Metadata))
		for k, v := range doc.Metadata {
			c.Metadata[k] = v
		}
	}
	c.Sections = apd.CloneSections(doc.Sections)
	c.CurrentVersionID = cloneStringPtr(doc.CurrentVersionID)
	return &c
}

func cloneVersion(v *apd.Version) *apd.Version {
	c := *v
	c.Sections = apd.CloneSections(v.Sections)
	c.Changes = cloneChanges(v.Changes)
	c.ParentVersionID = cloneStringPtr(v.ParentVersionID)
	return &c
}

func cloneWorkingCopy(wc *apd.WorkingCopy) *apd.WorkingCopy {
	c := *wc
	c.Sections = apd.CloneSections(wc.Sections)
	c.Changes = cloneChanges(wc.Changes)
	c.BaseVersionID = cloneStringPtr(wc.BaseVersionID)
	return &c
}

func cloneChanges(changes []apd.FieldChange) []apd.FieldChange {
	if changes == nil {
		return nil
	}
	out := make([]apd.FieldChange, len(changes))
	for i, ch := range changes {
		out[i] = ch
		out[i].OldValue = cloneValuePtr(ch.OldValue)
		out[i].NewValue = cloneValuePtr(ch.NewValue)
	}
	return out
}

func cloneValuePtr(v *apd.Value) *apd.Value {
	if v == nil {
		return nil
	}
	c := v.Clone()
	return &c
}

func cloneStringPtr(s *string) *string {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}
