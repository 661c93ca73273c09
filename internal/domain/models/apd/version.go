package apd

import (
	"time"
)

// ChangeType classifies a field-level difference between two section trees.
type ChangeType string

const (
	ChangeAdded    ChangeType = "added"
	ChangeModified ChangeType = "modified"
	ChangeDeleted  ChangeType = "deleted"
)

// FieldChange is a single added/modified/deleted leaf difference. OldValue is
// nil for added fields and NewValue is nil for deleted fields. Immutable once
// created; embedded in versions and persisted standalone for the working
// copy's pending edits.
type FieldChange struct {
	ID         string     `json:"id"`
	FieldPath  string     `json:"field_path"` // dotted path, e.g. "sections.exec-summary.content.overview"
	FieldLabel string     `json:"field_label"`
	OldValue   *Value     `json:"old_value,omitempty"`
	NewValue   *Value     `json:"new_value,omitempty"`
	ChangeType ChangeType `json:"change_type"`
	Timestamp  time.Time  `json:"timestamp"`
	SectionID  string     `json:"section_id"` // owning top-level section
}

// Version is an immutable, author-attributed snapshot of a document's
// sections. Created only by the commit engine and never mutated afterward.
type Version struct {
	ID              string        `json:"id" db:"id"`
	DocumentID      string        `json:"document_id" db:"document_id"`
	VersionNumber   string        `json:"version_number" db:"version_number"` // "vMAJOR.MINOR"
	CommitMessage   string        `json:"commit_message" db:"commit_message"`
	Author          string        `json:"author" db:"author"`
	CreatedAt       time.Time     `json:"created_at" db:"created_at"`
	Sections        map[string]Section `json:"sections"`
	Changes         []FieldChange `json:"changes_since_last_version"` // relative to ParentVersionID
	ParentVersionID *string       `json:"parent_version_id" db:"parent_version_id"` // nil only for the first version
}

// WorkingCopy is the single mutable draft of a document. At most one exists
// per document; it is created lazily on first access and replaced (never
// deleted) by commit or revert.
type WorkingCopy struct {
	ID                    string             `json:"id" db:"id"`
	DocumentID            string             `json:"document_id" db:"document_id"`
	BaseVersionID         *string            `json:"base_version_id" db:"base_version_id"` // version this draft branched from
	Sections              map[string]Section `json:"sections"`
	Changes               []FieldChange      `json:"changes"` // accumulated since BaseVersionID
	LastModified          time.Time          `json:"last_modified" db:"last_modified"`
	HasUncommittedChanges bool               `json:"has_uncommitted_changes" db:"has_uncommitted_changes"`
}

// Diff is the result of comparing two versions. Old/new values in each change
// are directional, taken from -> to.
type Diff struct {
	FromVersion *Version      `json:"from_version"`
	ToVersion   *Version      `json:"to_version"`
	Changes     []FieldChange `json:"changes"`
	Summary     DiffSummary   `json:"summary"`
}

// DiffSummary aggregates a change list for review screens.
type DiffSummary struct {
	SectionsModified []string `json:"sections_modified"` // distinct section ids touched
	FieldsAdded      int      `json:"fields_added"`
	FieldsModified   int      `json:"fields_modified"`
	FieldsDeleted    int      `json:"fields_deleted"`
}
