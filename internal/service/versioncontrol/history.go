package versioncontrol

import (
	"context"
	"fmt"

	"apdvault/internal/domain/models/apd"
)

// History returns all versions of a document. No ordering is imposed here;
// callers sort by CreatedAt when they need a timeline.
func (s *Service) History(ctx context.Context, documentID string) ([]apd.Version, error) {
	history, err := s.versions.ListByDocument(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("list version history: %w", err)
	}
	return history, nil
}

// GetVersion fetches a single version by id.
func (s *Service) GetVersion(ctx context.Context, versionID string) (*apd.Version, error) {
	v, err := s.versions.GetByID(ctx, versionID)
	if err != nil {
		return nil, fmt.Errorf("get version %s: %w", versionID, err)
	}
	return v, nil
}

// Compare diffs two versions' section trees. The comparison is directional:
// old/new values in each change are taken from -> to.
func (s *Service) Compare(ctx context.Context, fromVersionID, toVersionID string) (*apd.Diff, error) {
	from, err := s.versions.GetByID(ctx, fromVersionID)
	if err != nil {
		return nil, fmt.Errorf("get version %s: %w", fromVersionID, err)
	}
	to, err := s.versions.GetByID(ctx, toVersionID)
	if err != nil {
		return nil, fmt.Errorf("get version %s: %w", toVersionID, err)
	}

	changes := Diff(from.Sections, to.Sections)

	return &apd.Diff{
		FromVersion: from,
		ToVersion:   to,
		Changes:     changes,
		Summary:     Summarize(changes),
	}, nil
}
