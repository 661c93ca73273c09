package versioncontrol

import (
	"strings"

	"apdvault/internal/domain/models/apd"
)

// WordDiffer produces a word-level inline diff of two text values. It is an
// interface so the naive positional strategy can be swapped for an LCS/Myers
// implementation without touching the commit/revert protocol.
type WordDiffer interface {
	DiffWords(oldText, newText string) []apd.DiffSegment
}

// PositionalWordDiffer walks both token streams in lock-step, emitting
// matched tokens verbatim and mismatched tokens as deleted/added pairs.
// Cheap and adequate for short form fields, but it over-reports when tokens
// are inserted or reordered: everything after the first insertion shows as
// changed.
type PositionalWordDiffer struct{}

// NewPositionalWordDiffer returns the default word diff strategy.
func NewPositionalWordDiffer() *PositionalWordDiffer {
	return &PositionalWordDiffer{}
}

// DiffWords tokenizes on whitespace and compares position by position.
func (PositionalWordDiffer) DiffWords(oldText, newText string) []apd.DiffSegment {
	oldTokens := strings.Fields(oldText)
	newTokens := strings.Fields(newText)

	var segments []apd.DiffSegment
	appendSegment := func(text string, op apd.SegmentOp) {
		// Merge runs of the same op so clients get spans, not single words.
		if n := len(segments); n > 0 && segments[n-1].Op == op {
			segments[n-1].Text += " " + text
			return
		}
		segments = append(segments, apd.DiffSegment{Text: text, Op: op})
	}

	longest := len(oldTokens)
	if len(newTokens) > longest {
		longest = len(newTokens)
	}

	for i := 0; i < longest; i++ {
		switch {
		case i < len(oldTokens) && i < len(newTokens) && oldTokens[i] == newTokens[i]:
			appendSegment(oldTokens[i], apd.SegmentEqual)
		case i < len(oldTokens) && i < len(newTokens):
			appendSegment(oldTokens[i], apd.SegmentDeleted)
			appendSegment(newTokens[i], apd.SegmentAdded)
		case i < len(oldTokens):
			appendSegment(oldTokens[i], apd.SegmentDeleted)
		default:
			appendSegment(newTokens[i], apd.SegmentAdded)
		}
	}

	return segments
}
