// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fanout turns one incoming question into a finite sequence of
// result units, one per fetched search result, pulled one at a time by the
// host pipeline.
//
// The sequence always holds at least one unit, and exactly one unit in it
// carries a non-zero IsLast marker: the last result unit, or a single empty
// sentinel when the query produced no results.
package fanout

import (
	"errors"
	"iter"
	"log/slog"

	"github.com/pdiddy/clue-search/internal/metrics"
	"github.com/pdiddy/clue-search/pkg/types"
)

var (
	// ErrCloneFailed means the question context could not be copied. The
	// host aborts this question only.
	ErrCloneFailed = errors.New("cloning question context failed")

	// ErrExhausted is returned by Next once the sequence has ended.
	ErrExhausted = errors.New("generator exhausted")
)

// Recorder receives per-result source state, keyed by question, stage and
// result document.
type Recorder interface {
	Record(questionID, stage, resultID string, value int)
}

// Generator holds the fetched results and a cursor. It is not safe for
// concurrent use: the host pulls sequentially, HasMore then Next.
type Generator struct {
	question *types.Question
	results  []types.SearchResult
	builder  Builder
	recorder Recorder
	logger   *slog.Logger

	i      int
	failed bool
}

func newGenerator(q *types.Question, results []types.SearchResult, b Builder, rec Recorder, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{question: q, results: results, builder: b, recorder: rec, logger: logger}
}

// Len returns the number of fetched results.
func (g *Generator) Len() int { return len(g.results) }

// HasMore reports whether Next will produce another unit. It is true while
// results remain, and once more for an empty result list so the sentinel
// is always emitted.
func (g *Generator) HasMore() bool {
	if g.failed {
		return false
	}
	return g.i < len(g.results) || g.i == 0
}

// Next returns the next unit. The caller owns it; the generator keeps no
// reference to it. After the unit with a non-zero IsLast, HasMore is false
// and Next returns ErrExhausted.
func (g *Generator) Next() (*types.ResultUnit, error) {
	if !g.HasMore() {
		return nil, ErrExhausted
	}

	n := len(g.results)
	if g.i < n {
		r := g.results[g.i]
		seq := g.i
		g.i++
		isLast := 0
		if g.i == n {
			isLast = g.i
		}
		u, err := g.builder.Build(g.question, &r, seq, isLast)
		if err != nil {
			g.fail()
			return nil, err
		}
		g.logger.Debug("emitted result unit",
			"document_id", u.Result.DocumentID, "title", u.Result.DocumentTitle, "seq", seq, "is_last", isLast)
		if g.recorder != nil {
			g.recorder.Record(g.question.ID, g.builder.Origin, u.Result.DocumentID, 1)
		}
		metrics.UnitsEmitted.WithLabelValues(g.builder.Origin, "result").Inc()
		g.release()
		return u, nil
	}

	// No results: one placeholder keeps downstream joins from stalling.
	g.i++
	u, err := g.builder.Build(g.question, nil, 0, g.i)
	if err != nil {
		g.fail()
		return nil, err
	}
	g.logger.Debug("emitted sentinel unit", "question", g.question.ID)
	metrics.UnitsEmitted.WithLabelValues(g.builder.Origin, "sentinel").Inc()
	g.release()
	return u, nil
}

// All ranges over the remaining units. Iteration stops after the first
// error, which is yielded with a nil unit.
func (g *Generator) All() iter.Seq2[*types.ResultUnit, error] {
	return func(yield func(*types.ResultUnit, error) bool) {
		for g.HasMore() {
			u, err := g.Next()
			if !yield(u, err) || err != nil {
				return
			}
		}
	}
}

// release drops the question and results once the sequence has ended.
func (g *Generator) release() {
	if g.HasMore() {
		return
	}
	g.question = nil
	g.results = nil
}

func (g *Generator) fail() {
	g.failed = true
	g.question = nil
	g.results = nil
}
