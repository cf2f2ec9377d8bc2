// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"encoding/json"
	"io"
	"sync"

	"github.com/pdiddy/clue-search/pkg/types"
)

// JSONLines writes each unit as one JSON object per line.
type JSONLines struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewJSONLines returns a sink writing to w.
func NewJSONLines(w io.Writer) *JSONLines {
	return &JSONLines{enc: json.NewEncoder(w)}
}

func (j *JSONLines) Consume(_ context.Context, u *types.ResultUnit) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.enc.Encode(u)
}

// Collector keeps every unit in memory, grouped by question ID.
type Collector struct {
	mu    sync.Mutex
	units map[string][]*types.ResultUnit
}

// NewCollector returns an empty collector.
func NewCollector() *Collector {
	return &Collector{units: make(map[string][]*types.ResultUnit)}
}

func (c *Collector) Consume(_ context.Context, u *types.ResultUnit) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.units[u.Question.ID] = append(c.units[u.Question.ID], u)
	return nil
}

// Units returns the units collected for questionID in arrival order.
func (c *Collector) Units(questionID string) []*types.ResultUnit {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*types.ResultUnit(nil), c.units[questionID]...)
}
