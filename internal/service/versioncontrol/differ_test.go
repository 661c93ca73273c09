package versioncontrol

import (
	"reflect"
	"testing"
	"time"

	"apdvault/internal/domain/models/apd"
)

func section(id string, content map[string]apd.Value) apd.Section {
	return apd.Section{
		SectionID:    id,
		Title:        id,
		Content:      content,
		LastModified: time.Now(),
	}
}

func TestDiffDetectsChangeTypes(t *testing.T) {
	oldSections := map[string]apd.Section{
		"exec-summary": section("exec-summary", map[string]apd.Value{
			"overview": apd.String("Original text"),
			"dropped":  apd.String("going away"),
		}),
	}
	newSections := map[string]apd.Section{
		"exec-summary": section("exec-summary", map[string]apd.Value{
			"overview": apd.String("Updated text"),
			"budget":   apd.Number(50000),
		}),
	}

	changes := Diff(oldSections, newSections)
	if len(changes) != 3 {
		t.Fatalf("expected 3 changes, got %d: %+v", len(changes), changes)
	}

	byPath := make(map[string]apd.FieldChange)
	for _, c := range changes {
		byPath[c.FieldPath] = c
	}

	added, ok := byPath["sections.exec-summary.content.budget"]
	if !ok {
		t.Fatal("missing added change for budget")
	}
	if added.ChangeType != apd.ChangeAdded {
		t.Errorf("budget change type = %s, want added", added.ChangeType)
	}
	if added.OldValue != nil {
		t.Error("added change should have nil OldValue")
	}
	if added.NewValue == nil || !added.NewValue.Equal(apd.Number(50000)) {
		t.Errorf("added change NewValue = %v", added.NewValue)
	}

	deleted, ok := byPath["sections.exec-summary.content.dropped"]
	if !ok {
		t.Fatal("missing deleted change for dropped")
	}
	if deleted.ChangeType != apd.ChangeDeleted {
		t.Errorf("dropped change type = %s, want deleted", deleted.ChangeType)
	}
	if deleted.NewValue != nil {
		t.Error("deleted change should have nil NewValue")
	}

	modified, ok := byPath["sections.exec-summary.content.overview"]
	if !ok {
		t.Fatal("missing modified change for overview")
	}
	if modified.ChangeType != apd.ChangeModified {
		t.Errorf("overview change type = %s, want modified", modified.ChangeType)
	}
	if modified.OldValue == nil || !modified.OldValue.Equal(apd.String("Original text")) {
		t.Errorf("modified OldValue = %v", modified.OldValue)
	}
	if modified.SectionID != "exec-summary" {
		t.Errorf("SectionID = %q, want exec-summary", modified.SectionID)
	}
}

func TestDiffUnchangedFieldsProduceNothing(t *testing.T) {
	sections := map[string]apd.Section{
		"needs": section("needs", map[string]apd.Value{
			"description": apd.String("same"),
			"priority":    apd.Number(1),
		}),
	}

	changes := Diff(sections, sections)
	if len(changes) != 0 {
		t.Errorf("expected no changes for identical trees, got %d", len(changes))
	}
}

func TestDiffStructuredValuesAreOpaque(t *testing.T) {
	oldSections := map[string]apd.Section{
		"budget": section("budget", map[string]apd.Value{
			"rows": apd.List(
				apd.Object(map[string]apd.Value{"item": apd.String("HW"), "cost": apd.Number(100)}),
				apd.Object(map[string]apd.Value{"item": apd.String("SW"), "cost": apd.Number(200)}),
			),
		}),
	}
	newSections := map[string]apd.Section{
		"budget": section("budget", map[string]apd.Value{
			"rows": apd.List(
				apd.Object(map[string]apd.Value{"item": apd.String("HW"), "cost": apd.Number(150)}),
				apd.Object(map[string]apd.Value{"item": apd.String("SW"), "cost": apd.Number(200)}),
			),
		}),
	}

	changes := Diff(oldSections, newSections)
	if len(changes) != 1 {
		t.Fatalf("structured change should surface as one modified field, got %d changes", len(changes))
	}
	if changes[0].ChangeType != apd.ChangeModified {
		t.Errorf("change type = %s, want modified", changes[0].ChangeType)
	}
	if changes[0].FieldPath != "sections.budget.content.rows" {
		t.Errorf("field path = %q", changes[0].FieldPath)
	}
}

func TestDiffSubsections(t *testing.T) {
	oldSections := map[string]apd.Section{
		"activities": {
			SectionID: "activities",
			Content:   map[string]apd.Value{"summary": apd.String("one activity")},
			Subsections: map[string]apd.Section{
				"schedule": section("schedule", map[string]apd.Value{
					"start_date": apd.String("2026-01-01"),
				}),
			},
		},
	}
	newSections := map[string]apd.Section{
		"activities": {
			SectionID: "activities",
			Content:   map[string]apd.Value{"summary": apd.String("one activity")},
			Subsections: map[string]apd.Section{
				"schedule": section("schedule", map[string]apd.Value{
					"start_date": apd.String("2026-03-01"),
				}),
			},
		},
	}

	changes := Diff(oldSections, newSections)
	if len(changes) != 1 {
		t.Fatalf("expected 1 change, got %d", len(changes))
	}
	if changes[0].FieldPath != "sections.activities.schedule.content.start_date" {
		t.Errorf("subsection path = %q", changes[0].FieldPath)
	}
	// The owning top-level section is reported, not the subsection.
	if changes[0].SectionID != "activities" {
		t.Errorf("SectionID = %q, want activities", changes[0].SectionID)
	}
}

func TestDiffSectionAddedAndRemoved(t *testing.T) {
	oldSections := map[string]apd.Section{
		"old-section": section("old-section", map[string]apd.Value{"a": apd.String("x")}),
	}
	newSections := map[string]apd.Section{
		"new-section": section("new-section", map[string]apd.Value{"b": apd.String("y")}),
	}

	changes := Diff(oldSections, newSections)
	if len(changes) != 2 {
		t.Fatalf("expected 2 changes, got %d", len(changes))
	}

	// Sorted section order: new-section before old-section.
	if changes[0].ChangeType != apd.ChangeAdded || changes[0].FieldPath != "sections.new-section.content.b" {
		t.Errorf("first change = %+v", changes[0])
	}
	if changes[1].ChangeType != apd.ChangeDeleted || changes[1].FieldPath != "sections.old-section.content.a" {
		t.Errorf("second change = %+v", changes[1])
	}
}

func TestDiffSymmetry(t *testing.T) {
	oldSections := map[string]apd.Section{
		"exec-summary": section("exec-summary", map[string]apd.Value{
			"overview": apd.String("old text"),
			"dropped":  apd.Bool(true),
		}),
	}
	newSections := map[string]apd.Section{
		"exec-summary": section("exec-summary", map[string]apd.Value{
			"overview": apd.String("new text"),
			"budget":   apd.Number(1),
		}),
	}

	forward := Diff(oldSections, newSections)
	backward := Diff(newSections, oldSections)
	if len(forward) != len(backward) {
		t.Fatalf("asymmetric diff: %d vs %d changes", len(forward), len(backward))
	}

	backByPath := make(map[string]apd.FieldChange, len(backward))
	for _, c := range backward {
		backByPath[c.FieldPath] = c
	}

	for _, fwd := range forward {
		back, ok := backByPath[fwd.FieldPath]
		if !ok {
			t.Fatalf("path %s missing from reverse diff", fwd.FieldPath)
		}
		switch fwd.ChangeType {
		case apd.ChangeAdded:
			if back.ChangeType != apd.ChangeDeleted {
				t.Errorf("%s: added should reverse to deleted, got %s", fwd.FieldPath, back.ChangeType)
			}
		case apd.ChangeDeleted:
			if back.ChangeType != apd.ChangeAdded {
				t.Errorf("%s: deleted should reverse to added, got %s", fwd.FieldPath, back.ChangeType)
			}
		case apd.ChangeModified:
			if back.ChangeType != apd.ChangeModified {
				t.Errorf("%s: modified should reverse to modified, got %s", fwd.FieldPath, back.ChangeType)
				continue
			}
			if !back.OldValue.Equal(*fwd.NewValue) || !back.NewValue.Equal(*fwd.OldValue) {
				t.Errorf("%s: reverse diff should swap old/new values", fwd.FieldPath)
			}
		}
	}
}

func TestDiffDeterministicOrder(t *testing.T) {
	oldSections := map[string]apd.Section{
		"alpha": section("alpha", map[string]apd.Value{"f1": apd.String("a"), "f2": apd.String("b")}),
		"beta":  section("beta", map[string]apd.Value{"f3": apd.String("c")}),
	}
	newSections := map[string]apd.Section{
		"alpha": section("alpha", map[string]apd.Value{"f1": apd.String("A"), "f2": apd.String("B")}),
		"beta":  section("beta", map[string]apd.Value{"f3": apd.String("C")}),
	}

	var previous []string
	for i := 0; i < 10; i++ {
		var paths []string
		for _, c := range Diff(oldSections, newSections) {
			paths = append(paths, c.FieldPath)
		}
		if previous != nil && !reflect.DeepEqual(previous, paths) {
			t.Fatalf("diff ordering not deterministic: %v vs %v", previous, paths)
		}
		previous = paths
	}

	want := []string{
		"sections.alpha.content.f1",
		"sections.alpha.content.f2",
		"sections.beta.content.f3",
	}
	if !reflect.DeepEqual(previous, want) {
		t.Errorf("diff order = %v, want %v", previous, want)
	}
}

func TestFieldLabel(t *testing.T) {
	tests := []struct {
		field string
		want  string
	}{
		{"executive_summary", "Executive Summary"},
		{"executive-summary", "Executive Summary"},
		{"overview", "Overview"},
		{"start_date", "Start Date"},
		{"cost allocation plan", "Cost Allocation Plan"},
	}

	for _, tt := range tests {
		if got := FieldLabel(tt.field); got != tt.want {
			t.Errorf("FieldLabel(%q) = %q, want %q", tt.field, got, tt.want)
		}
	}
}

func TestSummarize(t *testing.T) {
	changes := []apd.FieldChange{
		{SectionID: "exec-summary", ChangeType: apd.ChangeModified},
		{SectionID: "exec-summary", ChangeType: apd.ChangeAdded},
		{SectionID: "budget", ChangeType: apd.ChangeDeleted},
		{SectionID: "budget", ChangeType: apd.ChangeModified},
	}

	summary := Summarize(changes)
	if !reflect.DeepEqual(summary.SectionsModified, []string{"exec-summary", "budget"}) {
		t.Errorf("SectionsModified = %v", summary.SectionsModified)
	}
	if summary.FieldsAdded != 1 || summary.FieldsModified != 2 || summary.FieldsDeleted != 1 {
		t.Errorf("counts = %d/%d/%d, want 1/2/1",
			summary.FieldsAdded, summary.FieldsModified, summary.FieldsDeleted)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	summary := Summarize(nil)
	if summary.SectionsModified == nil {
		t.Error("SectionsModified should be an empty slice, not nil")
	}
	if len(summary.SectionsModified) != 0 {
		t.Errorf("SectionsModified = %v, want empty", summary.SectionsModified)
	}
}
