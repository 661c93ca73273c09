package versioncontrol

import (
	"fmt"

	"apdvault/internal/domain/models/apd"
)

// tooltipTimeFormat keeps tooltips short and human ("Jan 2, 2006 3:04 PM").
const tooltipTimeFormat = "Jan 2, 2006 3:04 PM"

// Highlights maps raw field changes to UI-agnostic decoration metadata:
// added fields highlight by background, deleted by border, modified inline.
func Highlights(changes []apd.FieldChange) []apd.ChangeHighlight {
	highlights := make([]apd.ChangeHighlight, 0, len(changes))
	for _, c := range changes {
		highlights = append(highlights, apd.ChangeHighlight{
			FieldPath:  c.FieldPath,
			SectionID:  c.SectionID,
			ChangeType: c.ChangeType,
			Style:      styleFor(c.ChangeType),
			Tooltip: fmt.Sprintf("%s %q on %s",
				verbFor(c.ChangeType), c.FieldLabel, c.Timestamp.Format(tooltipTimeFormat)),
		})
	}
	return highlights
}

// InlineDiff renders a single change as a word-level diff using the given
// strategy. Values are coerced to text; structured values diff over their
// canonical encoding.
func InlineDiff(change apd.FieldChange, differ WordDiffer) apd.InlineDiff {
	var oldText, newText string
	if change.OldValue != nil {
		oldText = change.OldValue.Text()
	}
	if change.NewValue != nil {
		newText = change.NewValue.Text()
	}

	return apd.InlineDiff{
		FieldPath: change.FieldPath,
		Segments:  differ.DiffWords(oldText, newText),
	}
}

func styleFor(ct apd.ChangeType) apd.HighlightStyle {
	switch ct {
	case apd.ChangeAdded:
		return apd.HighlightBackground
	case apd.ChangeDeleted:
		return apd.HighlightBorder
	default:
		return apd.HighlightInline
	}
}

func verbFor(ct apd.ChangeType) string {
	switch ct {
	case apd.ChangeAdded:
		return "Added"
	case apd.ChangeDeleted:
		return "Deleted"
	default:
		return "Modified"
	}
}
