package versioncontrol

import "sync"

// documentLocks hands out one mutex per document id. Commit and revert must
// be serialized per document: version numbering re-derives from a read of
// history, and the single working copy per document must never be
// read-modified-written concurrently.
type documentLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newDocumentLocks() *documentLocks {
	return &documentLocks{locks: make(map[string]*sync.Mutex)}
}

// acquire locks the document's mutex and returns the unlock function.
// Lock entries are kept for the process lifetime; the per-document footprint
// is one mutex, which is acceptable for the document counts this serves.
func (l *documentLocks) acquire(documentID string) func() {
	l.mu.Lock()
	m, ok := l.locks[documentID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[documentID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
