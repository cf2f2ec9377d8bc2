// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cache persists provider results keyed by the raw query string so
// that a distinct query reaches the remote provider at most once.
//
// Entries are only ever replaced whole, never merged, so concurrent writers
// for the same key resolve as last-writer-wins.
package cache

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/pdiddy/clue-search/pkg/types"
)

// ErrUnavailable wraps every storage-engine failure. Callers treat a failed
// load as a miss and a failed save as a logged no-op.
var ErrUnavailable = errors.New("result cache unavailable")

// Cache is a durable map from query string to an ordered result list.
type Cache interface {
	// Load returns the stored list for an exact key match. ok is false when
	// the key was never stored; a stored empty list returns ok == true.
	Load(ctx context.Context, query string) (results []types.SearchResult, ok bool, err error)

	// Save stores or overwrites the list for query.
	Save(ctx context.Context, query string, results []types.SearchResult) error

	Close() error
}

// Dumper is implemented by caches that can enumerate every entry.
type Dumper interface {
	Dump(ctx context.Context) (map[string][]types.SearchResult, error)
}

// Open creates the cache backend selected by cfg.
func Open(ctx context.Context, cfg types.CacheConfig) (Cache, error) {
	switch cfg.Backend {
	case types.CacheSQLite, "":
		return NewSQLite(cfg.Path)
	case types.CachePostgres:
		return NewPostgres(ctx, cfg.DSN)
	case types.CacheYAML:
		return NewYAMLFile(cfg.Path)
	case types.CacheMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

func unavailable(op, query string, err error) error {
	return fmt.Errorf("%w: %s %q: %w", ErrUnavailable, op, query, err)
}

// cloneResults copies a result list so the caller never shares backing
// storage with the cache. A nil list becomes an empty one.
func cloneResults(results []types.SearchResult) []types.SearchResult {
	if results == nil {
		return []types.SearchResult{}
	}
	return slices.Clone(results)
}
