// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"context"
	"sync"

	"github.com/pdiddy/clue-search/pkg/types"
)

var _ Cache = (*Memory)(nil)

// Memory is a process-local cache. It is used in tests and when no durable
// backend is configured.
type Memory struct {
	mu      sync.RWMutex
	entries map[string][]types.SearchResult
}

// NewMemory returns an empty in-memory cache.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string][]types.SearchResult)}
}

func (m *Memory) Load(_ context.Context, query string) ([]types.SearchResult, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res, ok := m.entries[query]
	if !ok {
		return nil, false, nil
	}
	return cloneResults(res), true, nil
}

func (m *Memory) Save(_ context.Context, query string, results []types.SearchResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[query] = cloneResults(results)
	return nil
}

// Dump returns a copy of every entry.
func (m *Memory) Dump(_ context.Context) (map[string][]types.SearchResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string][]types.SearchResult, len(m.entries))
	for q, res := range m.entries {
		out[q] = cloneResults(res)
	}
	return out, nil
}

func (m *Memory) Close() error { return nil }
