// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/clue-search/internal/cache"
	"github.com/pdiddy/clue-search/internal/fanout"
	"github.com/pdiddy/clue-search/internal/search"
	"github.com/pdiddy/clue-search/pkg/types"
)

// countingProvider returns one result per clue word and tracks how many
// fetches run at once.
type countingProvider struct {
	delay   time.Duration
	active  atomic.Int32
	maxSeen atomic.Int32
	calls   atomic.Int32
}

func (p *countingProvider) Name() string { return "counting" }

func (p *countingProvider) Fetch(_ context.Context, query string, _ int) ([]types.SearchResult, error) {
	p.calls.Add(1)
	n := p.active.Add(1)
	defer p.active.Add(-1)
	for {
		m := p.maxSeen.Load()
		if n <= m || p.maxSeen.CompareAndSwap(m, n) {
			break
		}
	}
	time.Sleep(p.delay)

	if strings.HasPrefix(query, "empty") {
		return []types.SearchResult{}, nil
	}
	var out []types.SearchResult
	for _, w := range strings.Fields(query) {
		out = append(out, types.SearchResult{Title: w, Description: "about " + w})
	}
	return types.RankResults(out), nil
}

func newRunner(p search.Provider, workers int) *Runner {
	st := fanout.NewStage(types.DefaultConfig().Stage, search.NewFetcher(cache.NewMemory(), p, nil), nil, nil)
	return NewRunner(st, types.PipelineConfig{Workers: workers}, nil)
}

func question(id string, labels ...string) *types.Question {
	q := &types.Question{ID: id, Language: "en"}
	for _, l := range labels {
		q.Clues = append(q.Clues, types.Clue{Label: l})
	}
	return q
}

func TestRunnerProcessesEveryQuestion(t *testing.T) {
	p := &countingProvider{}
	r := newRunner(p, 3)

	var questions []*types.Question
	for i := range 10 {
		labels := make([]string, i%4)
		for j := range labels {
			labels[j] = fmt.Sprintf("w%d", j)
		}
		if len(labels) == 0 {
			labels = []string{"empty"}
		}
		questions = append(questions, question(fmt.Sprintf("q%d", i), labels...))
	}

	sink := NewCollector()
	rep, err := r.Run(context.Background(), questions, sink)
	require.NoError(t, err)

	assert.Equal(t, 10, rep.Completed)
	assert.Empty(t, rep.Aborted)

	total := 0
	for i, q := range questions {
		units := sink.Units(q.ID)
		want := i % 4
		if want == 0 {
			want = 1
		}
		require.Len(t, units, want, "question %s", q.ID)
		for k, u := range units {
			assert.Equal(t, k, u.Seq)
			assert.Equal(t, k == len(units)-1, u.Last())
		}
		total += len(units)
	}
	assert.Equal(t, total, rep.Units)
}

func TestRunnerBoundsConcurrentFetches(t *testing.T) {
	p := &countingProvider{delay: 20 * time.Millisecond}
	r := newRunner(p, 2)

	var questions []*types.Question
	for i := range 12 {
		questions = append(questions, question(fmt.Sprintf("q%d", i), fmt.Sprintf("distinct%d", i)))
	}
	_, err := r.Run(context.Background(), questions, NewCollector())
	require.NoError(t, err)

	assert.Equal(t, int32(12), p.calls.Load())
	assert.LessOrEqual(t, p.maxSeen.Load(), int32(2))
}

func TestRunnerAbortsOnlyFailingQuestion(t *testing.T) {
	r := newRunner(&countingProvider{}, 2)
	questions := []*types.Question{
		question("ok-1", "a", "b"),
		nil,
		question("ok-2", "c"),
	}

	sink := NewCollector()
	rep, err := r.Run(context.Background(), questions, sink)
	require.NoError(t, err)

	assert.Equal(t, 2, rep.Completed)
	require.Contains(t, rep.Aborted, "#1")
	assert.ErrorIs(t, rep.Aborted["#1"], types.ErrNilQuestion)
	assert.Len(t, sink.Units("ok-1"), 2)
	assert.Len(t, sink.Units("ok-2"), 1)
}

func TestRunnerKeepsEveryAbortWithoutID(t *testing.T) {
	r := newRunner(&countingProvider{}, 2)
	questions := []*types.Question{nil, question("ok", "a"), nil, nil}

	rep, err := r.Run(context.Background(), questions, NewCollector())
	require.NoError(t, err)

	assert.Equal(t, 1, rep.Completed)
	require.Len(t, rep.Aborted, 3)
	for _, key := range []string{"#0", "#2", "#3"} {
		assert.ErrorIs(t, rep.Aborted[key], types.ErrNilQuestion, key)
	}
}

func TestAbortKey(t *testing.T) {
	assert.Equal(t, "q-7", AbortKey(3, &types.Question{ID: "q-7"}))
	assert.Equal(t, "#3", AbortKey(3, &types.Question{}))
	assert.Equal(t, "#0", AbortKey(0, nil))
}

func TestRunnerSinkErrorStopsRun(t *testing.T) {
	r := newRunner(&countingProvider{}, 2)
	boom := errors.New("downstream closed")

	var questions []*types.Question
	for i := range 20 {
		questions = append(questions, question(fmt.Sprintf("q%d", i), "x", "y"))
	}

	_, err := r.Run(context.Background(), questions, SinkFunc(func(context.Context, *types.ResultUnit) error {
		return boom
	}))
	assert.ErrorIs(t, err, boom)
}

func TestRunnerCancelledContext(t *testing.T) {
	r := newRunner(&countingProvider{delay: 10 * time.Millisecond}, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Run(ctx, []*types.Question{question("q", "a")}, NewCollector())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestJSONLinesSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONLines(&buf)
	r := newRunner(&countingProvider{}, 2)

	_, err := r.Run(context.Background(), []*types.Question{question("q", "Paris", "France")}, sink)
	require.NoError(t, err)

	var units []types.ResultUnit
	sc := bufio.NewScanner(&buf)
	for sc.Scan() {
		var u types.ResultUnit
		require.NoError(t, json.Unmarshal(sc.Bytes(), &u))
		units = append(units, u)
	}
	require.Len(t, units, 2)
	assert.Equal(t, "Paris", units[0].Result.DocumentTitle)
	assert.Equal(t, 2, units[1].Result.IsLast)
}

func TestCollectorConcurrentConsume(t *testing.T) {
	c := NewCollector()
	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = c.Consume(context.Background(), &types.ResultUnit{Question: &types.Question{ID: "q"}, Seq: i})
		}()
	}
	wg.Wait()
	assert.Len(t, c.Units("q"), 10)
}
