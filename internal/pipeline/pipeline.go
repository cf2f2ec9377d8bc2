// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline drives the search stage the way a host scheduler does:
// a bounded worker pool runs the fetches, at most InFlight generators are
// live at once, and each generator is drained sequentially into a Sink.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/pdiddy/clue-search/internal/fanout"
	"github.com/pdiddy/clue-search/pkg/types"
)

// Sink consumes emitted units. Consume may be called from several
// goroutines, but units of one question arrive in sequence order.
type Sink interface {
	Consume(ctx context.Context, u *types.ResultUnit) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, u *types.ResultUnit) error

func (f SinkFunc) Consume(ctx context.Context, u *types.ResultUnit) error { return f(ctx, u) }

// Report summarizes a run.
type Report struct {
	// Completed counts questions whose sequence ended with a last unit.
	Completed int

	// Units counts every unit handed to the sink.
	Units int

	// Aborted maps question IDs to the error that stopped them. A question
	// without an ID is keyed by its position in the input, as "#<index>".
	Aborted map[string]error
}

// Runner processes questions through a Stage.
type Runner struct {
	Stage    *fanout.Stage
	Workers  int
	InFlight int
	Logger   *slog.Logger
}

// NewRunner returns a runner using cfg for pool sizing.
func NewRunner(st *fanout.Stage, cfg types.PipelineConfig, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{Stage: st, Workers: cfg.Workers, InFlight: cfg.InFlight, Logger: logger}
}

type job struct {
	index    int
	question *types.Question
	gen      *fanout.Generator
}

// Run processes every question and returns when all sequences have been
// drained. A clone failure aborts only its question; a sink error or
// context cancellation stops the whole run.
func (r *Runner) Run(ctx context.Context, questions []*types.Question, sink Sink) (Report, error) {
	workers := max(r.Workers, 1)
	inFlight := r.InFlight
	if inFlight <= 0 {
		inFlight = fanout.InstancesRequired(workers)
	}
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var (
		mu  sync.Mutex
		rep = Report{Aborted: make(map[string]error)}
	)
	abort := func(i int, q *types.Question, err error) {
		id := AbortKey(i, q)
		logger.Error("question aborted", "question", id, "error", err)
		mu.Lock()
		rep.Aborted[id] = err
		mu.Unlock()
	}

	sem := semaphore.NewWeighted(int64(inFlight))
	jobs := make(chan job, inFlight)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(jobs)
		var fetchers errgroup.Group
		fetchers.SetLimit(workers)
		for i, q := range questions {
			if err := sem.Acquire(gctx, 1); err != nil {
				fetchers.Wait()
				return err
			}
			fetchers.Go(func() error {
				gen, err := r.Stage.Process(gctx, q)
				if err != nil {
					sem.Release(1)
					abort(i, q, err)
					return nil
				}
				select {
				case jobs <- job{index: i, question: q, gen: gen}:
					return nil
				case <-gctx.Done():
					sem.Release(1)
					return gctx.Err()
				}
			})
		}
		return fetchers.Wait()
	})

	for range workers {
		g.Go(func() error {
			for j := range jobs {
				units, last, err := drain(gctx, j.gen, sink)
				sem.Release(1)

				mu.Lock()
				rep.Units += units
				if last {
					rep.Completed++
				}
				mu.Unlock()

				if errors.Is(err, fanout.ErrCloneFailed) {
					abort(j.index, j.question, err)
					continue
				}
				if err != nil {
					return err
				}
			}
			return nil
		})
	}

	err := g.Wait()
	return rep, err
}

// AbortKey returns the Report.Aborted key for the question at index i.
func AbortKey(i int, q *types.Question) string {
	if q != nil && q.ID != "" {
		return q.ID
	}
	return fmt.Sprintf("#%d", i)
}

// drain pulls every unit of gen into sink and reports how many were
// delivered and whether the last one was seen.
func drain(ctx context.Context, gen *fanout.Generator, sink Sink) (int, bool, error) {
	n := 0
	for gen.HasMore() {
		if err := ctx.Err(); err != nil {
			return n, false, err
		}
		u, err := gen.Next()
		if err != nil {
			return n, false, err
		}
		if err := sink.Consume(ctx, u); err != nil {
			return n, false, fmt.Errorf("consuming unit %d: %w", u.Seq, err)
		}
		n++
		if u.Last() {
			return n, true, nil
		}
	}
	return n, false, nil
}
