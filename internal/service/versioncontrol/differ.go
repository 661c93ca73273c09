package versioncontrol

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"apdvault/internal/domain/models/apd"
)

// Diff compares two section trees and returns the field-level changes from
// old to new. It has no side effects and imposes a deterministic order:
// sections and fields are visited in sorted-id order, so the same pair of
// inputs always yields the same output sequence.
//
// Scalar values compare by strict equality; structured values (lists,
// objects) are opaque atoms — a changed nested array is one modified change
// on its field path, not a recursive expansion.
func Diff(oldSections, newSections map[string]apd.Section) []apd.FieldChange {
	d := differ{now: time.Now()}
	return d.diffSections(oldSections, newSections, "sections", "")
}

type differ struct {
	now time.Time
}

// diffSections walks the symmetric difference of section ids under the given
// dotted path prefix. ownerID is the top-level section owning this subtree;
// empty at the root, where each section owns itself.
func (d differ) diffSections(oldSections, newSections map[string]apd.Section, prefix, ownerID string) []apd.FieldChange {
	var changes []apd.FieldChange

	for _, id := range unionKeys(sectionKeys(oldSections), sectionKeys(newSections)) {
		sectionPath := prefix + "." + id
		owner := ownerID
		if owner == "" {
			owner = id
		}

		oldSec, inOld := oldSections[id]
		newSec, inNew := newSections[id]

		switch {
		case inNew && !inOld:
			changes = append(changes, d.diffContent(nil, newSec.Content, sectionPath, owner)...)
			changes = append(changes, d.diffSections(nil, newSec.Subsections, sectionPath, owner)...)
		case inOld && !inNew:
			changes = append(changes, d.diffContent(oldSec.Content, nil, sectionPath, owner)...)
			changes = append(changes, d.diffSections(oldSec.Subsections, nil, sectionPath, owner)...)
		default:
			changes = append(changes, d.diffContent(oldSec.Content, newSec.Content, sectionPath, owner)...)
			changes = append(changes, d.diffSections(oldSec.Subsections, newSec.Subsections, sectionPath, owner)...)
		}
	}

	return changes
}

// diffContent compares two content maps field by field.
func (d differ) diffContent(oldContent, newContent map[string]apd.Value, sectionPath, ownerID string) []apd.FieldChange {
	var changes []apd.FieldChange

	for _, field := range unionKeys(valueKeys(oldContent), valueKeys(newContent)) {
		oldVal, inOld := oldContent[field]
		newVal, inNew := newContent[field]

		fieldPath := sectionPath + ".content." + field

		switch {
		case inNew && !inOld:
			changes = append(changes, d.change(fieldPath, field, ownerID, apd.ChangeAdded, nil, &newVal))
		case inOld && !inNew:
			changes = append(changes, d.change(fieldPath, field, ownerID, apd.ChangeDeleted, &oldVal, nil))
		case !oldVal.Equal(newVal):
			changes = append(changes, d.change(fieldPath, field, ownerID, apd.ChangeModified, &oldVal, &newVal))
		}
	}

	return changes
}

func (d differ) change(path, field, ownerID string, ct apd.ChangeType, oldVal, newVal *apd.Value) apd.FieldChange {
	return apd.FieldChange{
		ID:         uuid.NewString(),
		FieldPath:  path,
		FieldLabel: FieldLabel(field),
		OldValue:   oldVal,
		NewValue:   newVal,
		ChangeType: ct,
		Timestamp:  d.now,
		SectionID:  ownerID,
	}
}

// FieldLabel derives a human-readable label from a field name:
// "executive_summary" and "executive-summary" both become "Executive Summary".
func FieldLabel(field string) string {
	words := strings.FieldsFunc(field, func(r rune) bool {
		return r == '_' || r == '-' || r == ' '
	})
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// Summarize aggregates a change list, preserving first-touched order of
// section ids.
func Summarize(changes []apd.FieldChange) apd.DiffSummary {
	summary := apd.DiffSummary{SectionsModified: []string{}}
	seen := make(map[string]bool)

	for _, c := range changes {
		if !seen[c.SectionID] {
			seen[c.SectionID] = true
			summary.SectionsModified = append(summary.SectionsModified, c.SectionID)
		}
		switch c.ChangeType {
		case apd.ChangeAdded:
			summary.FieldsAdded++
		case apd.ChangeModified:
			summary.FieldsModified++
		case apd.ChangeDeleted:
			summary.FieldsDeleted++
		}
	}

	return summary
}

func sectionKeys(m map[string]apd.Section) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

func valueKeys(m map[string]apd.Value) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

// unionKeys merges two key sets into a sorted, de-duplicated slice.
func unionKeys(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	merged := make([]string, 0, len(a)+len(b))
	for _, k := range a {
		if !seen[k] {
			seen[k] = true
			merged = append(merged, k)
		}
	}
	for _, k := range b {
		if !seen[k] {
			seen[k] = true
			merged = append(merged, k)
		}
	}
	sort.Strings(merged)
	return merged
}
