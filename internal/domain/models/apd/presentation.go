package apd

// HighlightStyle is a UI-agnostic display hint for a changed field.
type HighlightStyle string

const (
	HighlightBackground HighlightStyle = "background" // added fields
	HighlightBorder     HighlightStyle = "border"     // deleted fields
	HighlightInline     HighlightStyle = "inline"     // modified fields
)

// ChangeHighlight carries the metadata a client needs to decorate a changed
// field, without prescribing any rendering.
type ChangeHighlight struct {
	FieldPath  string         `json:"field_path"`
	SectionID  string         `json:"section_id"`
	ChangeType ChangeType     `json:"change_type"`
	Style      HighlightStyle `json:"style"`
	Tooltip    string         `json:"tooltip"`
}

// SegmentOp classifies a span of an inline word diff.
type SegmentOp string

const (
	SegmentEqual   SegmentOp = "equal"
	SegmentAdded   SegmentOp = "added"
	SegmentDeleted SegmentOp = "deleted"
)

// DiffSegment is one run of tokens in an inline diff.
type DiffSegment struct {
	Text string    `json:"text"`
	Op   SegmentOp `json:"op"`
}

// InlineDiff is a word-level rendering of a single field change.
type InlineDiff struct {
	FieldPath string        `json:"field_path"`
	Segments  []DiffSegment `json:"segments"`
}
