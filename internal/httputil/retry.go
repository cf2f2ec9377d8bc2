// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides the throttled, retrying HTTP client used to call
// the search provider.
package httputil

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/pdiddy/clue-search/pkg/types"
)

// RetryBaseDelay controls the base duration for exponential backoff on
// HTTP 429 responses. Tests override this to avoid real sleeps.
var RetryBaseDelay = 10 * time.Second

const (
	defaultMaxRetries = 5

	// maxBackoffShift keeps RetryBaseDelay << n from overflowing.
	maxBackoffShift = 16
)

// Client issues provider requests through an optional token-bucket limiter
// and retries on HTTP 429. It is safe for concurrent use.
type Client struct {
	HTTP       *http.Client
	Limiter    *rate.Limiter
	MaxRetries int
	Logger     *slog.Logger
}

// NewClient builds a Client from the provider settings. A zero RateLimit
// disables throttling; a zero Timeout leaves the http.Client default.
func NewClient(cfg types.ProviderConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		HTTP:       &http.Client{Timeout: cfg.Timeout},
		MaxRetries: cfg.MaxRetries,
		Logger:     logger,
	}
	if cfg.RateLimit > 0 {
		c.Limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}
	return c
}

// Do waits for the limiter, executes req and retries on 429 using
// DoWithRetry's backoff schedule.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return doWithRetry(ctx, c.HTTP, req, c.MaxRetries, c.Limiter, logger)
}

// DoWithRetry executes an HTTP request and retries on HTTP 429 (Too Many
// Requests) with exponential backoff. The delay starts at RetryBaseDelay
// (10 s) and doubles each attempt: 10 s, 20 s, 40 s, 80 s, 160 s. A
// Retry-After header given in seconds overrides the computed delay, but no
// single wait exceeds RetryBaseDelay << maxRetries.
//
// When maxRetries is 0 the default (5) is used. On each 429 the response
// body is drained and closed before sleeping. If the context is cancelled
// during a backoff wait the function returns ctx.Err(). After exhausting
// retries the last 429 response is returned so the caller can inspect it.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, maxRetries int) (*http.Response, error) {
	return doWithRetry(ctx, client, req, maxRetries, nil, slog.Default())
}

func doWithRetry(ctx context.Context, client *http.Client, req *http.Request, maxRetries int, limiter *rate.Limiter, logger *slog.Logger) (*http.Response, error) {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	maxBackoff := RetryBaseDelay << min(maxRetries, maxBackoffShift)

	for attempt := 0; ; attempt++ {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		resp, err := client.Do(req.Clone(ctx))
		if err != nil {
			return nil, err
		}

		if resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}

		// Exhausted retries: hand back the 429 as-is.
		if attempt >= maxRetries {
			return resp, nil
		}

		backoff := RetryBaseDelay << min(attempt, maxBackoffShift)
		if s, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && s >= 0 {
			backoff = time.Duration(s) * time.Second
		}
		backoff = min(backoff, maxBackoff)

		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		logger.Warn("rate limited by provider",
			"host", req.URL.Host, "backoff", backoff, "attempt", attempt+1, "max_retries", maxRetries)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
}
