// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics exposes Prometheus counters for the search stage and a
// dashboard recorder for per-question source state.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Cache lookup outcomes.
const (
	LookupHit   = "hit"
	LookupMiss  = "miss"
	LookupEmpty = "empty"
	LookupError = "error"
)

// Remote fetch outcomes.
const (
	FetchOK       = "ok"
	FetchFailure  = "failure"
	FetchDisabled = "disabled"
)

var (
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clue_search_cache_lookups_total",
			Help: "Result cache lookups by outcome",
		},
		[]string{"result"},
	)

	CacheWriteFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "clue_search_cache_write_failures_total",
			Help: "Result cache writes that failed and were dropped",
		},
	)

	RemoteFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clue_search_remote_fetches_total",
			Help: "Remote provider fetches by provider and outcome",
		},
		[]string{"provider", "outcome"},
	)

	RemoteDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "clue_search_remote_duration_seconds",
			Help:    "Duration of remote provider fetches in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"provider"},
	)

	UnitsEmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clue_search_units_emitted_total",
			Help: "Result units emitted by origin and kind",
		},
		[]string{"origin", "kind"},
	)
)

// ObserveRemote records one remote fetch.
func ObserveRemote(provider, outcome string, d time.Duration) {
	RemoteFetches.WithLabelValues(provider, outcome).Inc()
	if outcome != FetchDisabled {
		RemoteDuration.WithLabelValues(provider).Observe(d.Seconds())
	}
}

// Server serves /metrics over HTTP.
type Server struct {
	srv *http.Server
}

// Start listens on addr (e.g. ":9108") and serves /metrics in the background.
func Start(addr string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "addr", addr, "error", err)
		}
	}()
	return &Server{srv: srv}
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) error {
	if s == nil || s.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}
