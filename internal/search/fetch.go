// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"log/slog"
	"time"

	"github.com/pdiddy/clue-search/internal/cache"
	"github.com/pdiddy/clue-search/internal/metrics"
	"github.com/pdiddy/clue-search/pkg/types"
)

// Fetcher checks the result cache before calling the provider. A nil
// Provider means no credential was configured: only cached results are
// ever returned. A nil Cache behaves as a cache that always misses.
//
// Concurrent callers with the same unseen query may both reach the
// provider; the resulting cache writes are idempotent.
type Fetcher struct {
	Cache    cache.Cache
	Provider Provider
	Logger   *slog.Logger
}

// NewFetcher returns a Fetcher over c and p.
func NewFetcher(c cache.Cache, p Provider, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{Cache: c, Provider: p, Logger: logger}
}

// Enabled reports whether remote fetching is possible.
func (f *Fetcher) Enabled() bool { return f.Provider != nil }

// Fetch returns the results for query. It never fails: remote and cache
// errors are logged and degrade to fewer (possibly zero) results.
//
// A cached non-empty list suppresses the remote call; a cached empty list
// does not. Failed fetches are never written to the cache.
func (f *Fetcher) Fetch(ctx context.Context, query string, desired int) []types.SearchResult {
	logger := f.Logger
	if logger == nil {
		logger = slog.Default()
	}

	cached := f.load(ctx, query, logger)

	if !f.Enabled() {
		metrics.ObserveRemote("none", metrics.FetchDisabled, 0)
		return cached
	}
	if len(cached) > 0 {
		return cached
	}

	start := time.Now()
	results, err := f.Provider.Fetch(ctx, query, desired)
	if err != nil {
		metrics.ObserveRemote(f.Provider.Name(), metrics.FetchFailure, time.Since(start))
		logger.Error("unable to obtain search results", "provider", f.Provider.Name(), "query", query, "error", err)
		return []types.SearchResult{}
	}
	metrics.ObserveRemote(f.Provider.Name(), metrics.FetchOK, time.Since(start))
	if results == nil {
		results = []types.SearchResult{}
	}

	if f.Cache != nil {
		if err := f.Cache.Save(ctx, query, results); err != nil {
			metrics.CacheWriteFailures.Inc()
			logger.Warn("result cache write failed", "query", query, "error", err)
		}
	}
	if len(results) == 0 {
		logger.Info("no search results", "provider", f.Provider.Name(), "query", query)
	}
	return results
}

// load returns the cached list, or an empty list on a miss or a cache error.
func (f *Fetcher) load(ctx context.Context, query string, logger *slog.Logger) []types.SearchResult {
	if f.Cache == nil {
		metrics.CacheLookups.WithLabelValues(metrics.LookupMiss).Inc()
		return []types.SearchResult{}
	}
	cached, ok, err := f.Cache.Load(ctx, query)
	switch {
	case err != nil:
		metrics.CacheLookups.WithLabelValues(metrics.LookupError).Inc()
		logger.Warn("result cache lookup failed, treating as miss", "query", query, "error", err)
		return []types.SearchResult{}
	case !ok:
		metrics.CacheLookups.WithLabelValues(metrics.LookupMiss).Inc()
		logger.Debug("result cache miss", "query", query)
		return []types.SearchResult{}
	case len(cached) == 0:
		metrics.CacheLookups.WithLabelValues(metrics.LookupEmpty).Inc()
		logger.Debug("result cache holds empty entry", "query", query)
		return cached
	default:
		metrics.CacheLookups.WithLabelValues(metrics.LookupHit).Inc()
		logger.Debug("result cache hit", "query", query, "results", len(cached))
		return cached
	}
}
