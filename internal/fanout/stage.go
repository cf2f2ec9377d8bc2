// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fanout

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pdiddy/clue-search/internal/search"
	"github.com/pdiddy/clue-search/pkg/types"
)

// InstancesRequired is the number of generators the host should allow to
// be live at once for a worker pool of the given size.
func InstancesRequired(workers int) int {
	if workers < 1 {
		workers = 1
	}
	return 2 * workers
}

// Stage is the primary web search stage: it builds the query from a
// question's clues, fetches results through the cache and hands back a
// generator over them. One Stage serves many questions concurrently.
type Stage struct {
	cfg      types.StageConfig
	fetcher  *search.Fetcher
	recorder Recorder
	logger   *slog.Logger
}

// NewStage returns a stage over fetcher. rec may be nil.
func NewStage(cfg types.StageConfig, fetcher *search.Fetcher, rec Recorder, logger *slog.Logger) *Stage {
	if logger == nil {
		logger = slog.Default()
	}
	return &Stage{cfg: cfg, fetcher: fetcher, recorder: rec, logger: logger}
}

// Process runs the fetch for q and returns a generator positioned at the
// first unit. Remote and cache failures never surface here; they only
// shorten the result list.
func (s *Stage) Process(ctx context.Context, q *types.Question) (*Generator, error) {
	if q == nil {
		return nil, fmt.Errorf("processing question: %w", types.ErrNilQuestion)
	}

	query := search.BuildQuery(q.Clues)
	s.logger.Info("search query", "question", q.ID, "query", query, "clues", q.ClueLabels())

	results := s.fetcher.Fetch(ctx, query, s.cfg.HitListSize)

	b := Builder{Source: s.source(), Origin: s.cfg.ResultInfoOrigin}
	gen := newGenerator(q, results, b, s.recorder, s.logger)
	s.logger.Debug("search results ready", "question", q.ID, "results", gen.Len(), "remote", s.fetcher.Enabled())
	return gen, nil
}

func (s *Stage) source() string {
	if s.fetcher.Enabled() {
		return s.fetcher.Provider.Name()
	}
	return search.BingSource
}
