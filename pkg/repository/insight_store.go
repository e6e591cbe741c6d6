package repository

import (
	"context"

	"github.com/flowscribe/workflow-core/pkg/model"
)

// InsightStore adapts a Repository to playback.InsightStore, so the
// playback runner's learning loop reads and writes through the same
// backend as everything else (spec §4.7 "External dependencies
// (injected)").
type InsightStore struct {
	repo Repository
}

// NewInsightStore wraps repo as a playback.InsightStore.
func NewInsightStore(repo Repository) *InsightStore {
	return &InsightStore{repo: repo}
}

func (s *InsightStore) Load(ctx context.Context, sitePattern string, top int) ([]string, error) {
	return s.repo.ListInsightsBySitePattern(ctx, sitePattern, top)
}

func (s *InsightStore) Append(ctx context.Context, entry model.PlaybackLogEntry) error {
	return s.repo.AppendPlaybackLog(ctx, entry)
}
