package versioncontrol

import (
	"testing"
	"time"

	"apdvault/internal/domain/models/apd"
)

func TestNextVersionNumber(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		history []apd.Version
		want    string
	}{
		{
			name:    "empty history starts at v1.0",
			history: nil,
			want:    "v1.0",
		},
		{
			name: "bumps minor of only version",
			history: []apd.Version{
				{VersionNumber: "v1.0", CreatedAt: base},
			},
			want: "v1.1",
		},
		{
			name: "picks most recently created, not slice order",
			history: []apd.Version{
				{VersionNumber: "v1.3", CreatedAt: base.Add(3 * time.Hour)},
				{VersionNumber: "v1.0", CreatedAt: base},
				{VersionNumber: "v1.2", CreatedAt: base.Add(2 * time.Hour)},
			},
			want: "v1.4",
		},
		{
			name: "minor rolls past single digit",
			history: []apd.Version{
				{VersionNumber: "v2.9", CreatedAt: base},
			},
			want: "v2.10",
		},
		{
			name: "major is preserved",
			history: []apd.Version{
				{VersionNumber: "v3.5", CreatedAt: base},
			},
			want: "v3.6",
		},
		{
			name: "malformed label falls back to v1.0",
			history: []apd.Version{
				{VersionNumber: "release-candidate", CreatedAt: base},
			},
			want: "v1.0",
		},
		{
			name: "missing v prefix falls back",
			history: []apd.Version{
				{VersionNumber: "1.2", CreatedAt: base},
			},
			want: "v1.0",
		},
		{
			name: "only the latest label matters",
			history: []apd.Version{
				{VersionNumber: "garbage", CreatedAt: base},
				{VersionNumber: "v1.1", CreatedAt: base.Add(time.Hour)},
			},
			want: "v1.2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NextVersionNumber(tt.history); got != tt.want {
				t.Errorf("NextVersionNumber() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNextVersionNumberMonotonic(t *testing.T) {
	// Repeated commits produce a strictly increasing minor sequence.
	var history []apd.Version
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	want := []string{"v1.0", "v1.1", "v1.2", "v1.3", "v1.4"}
	for i, expected := range want {
		got := NextVersionNumber(history)
		if got != expected {
			t.Fatalf("commit %d: got %q, want %q", i, got, expected)
		}
		history = append(history, apd.Version{
			VersionNumber: got,
			CreatedAt:     now.Add(time.Duration(i) * time.Minute),
		})
	}
}
