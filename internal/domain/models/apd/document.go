package apd

import (
	"time"
)

// Document is an authored planning document (APD) under version control.
// Sections always mirror the version referenced by CurrentVersionID right
// after a commit or revert; they diverge only while a working copy is being
// edited.
type Document struct {
	ID               string             `json:"id" db:"id"`
	DocumentType     string             `json:"document_type" db:"document_type"`
	Metadata         map[string]string  `json:"metadata" db:"metadata"`
	Sections         map[string]Section `json:"sections" db:"sections"`
	CurrentVersionID *string            `json:"current_version_id" db:"current_version_id"` // NULL until first commit
	CreatedAt        time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at" db:"updated_at"`
}

// Section is a named subtree of a document's content. Fields live in Content;
// nested subsections are addressed by dotted paths when diffing.
type Section struct {
	SectionID    string             `json:"section_id"`
	Title        string             `json:"title"`
	Content      map[string]Value   `json:"content"`
	IsComplete   bool               `json:"is_complete"`
	LastModified time.Time          `json:"last_modified"`
	Subsections  map[string]Section `json:"subsections,omitempty"`
}

// CloneSections deep-copies a section tree so snapshots never alias the
// mutable working copy.
func CloneSections(sections map[string]Section) map[string]Section {
	if sections == nil {
		return nil
	}
	out := make(map[string]Section, len(sections))
	for id, s := range sections {
		out[id] = s.Clone()
	}
	return out
}

// Clone deep-copies a section including its content values and subsections.
func (s Section) Clone() Section {
	c := s
	if s.Content != nil {
		c.Content = make(map[string]Value, len(s.Content))
		for k, v := range s.Content {
			c.Content[k] = v.Clone()
		}
	}
	c.Subsections = CloneSections(s.Subsections)
	return c
}
