// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/pdiddy/clue-search/internal/httputil"
	"github.com/pdiddy/clue-search/internal/secrets"
	"github.com/pdiddy/clue-search/pkg/types"
)

// bingAPIBase is the Bing web search endpoint. Declared as a var so tests
// can substitute an httptest server.
var bingAPIBase = "https://api.datamarket.azure.com/Bing/Search/Web"

// BingSource is the symbolic name of the Bing provider.
const BingSource = "bing"

const (
	defaultBingTop    = 30
	defaultBingMarket = "en-US"
)

// BingProvider queries the Bing web search API with the account key sent
// as HTTP basic auth.
type BingProvider struct {
	Client    *httputil.Client
	APIKey    string
	Endpoint  string
	Market    string
	Top       int
	UserAgent string
	Logger    *slog.Logger

	// Timeout bounds a whole Fetch, including rate-limit waits and 429
	// backoff. Zero means no overall bound.
	Timeout time.Duration
}

// NewBingProvider builds a provider from cfg and an account key.
func NewBingProvider(cfg types.ProviderConfig, apiKey string, logger *slog.Logger) *BingProvider {
	if logger == nil {
		logger = slog.Default()
	}
	return &BingProvider{
		Client:    httputil.NewClient(cfg, logger),
		APIKey:    apiKey,
		Endpoint:  cfg.Endpoint,
		Market:    cfg.Market,
		Top:       cfg.Top,
		UserAgent: cfg.UserAgent,
		Logger:    logger,
		Timeout:   cfg.Timeout,
	}
}

// OpenProvider loads the account key from cfg.SecretsDir. Without a key it
// logs once and returns a nil Provider, which disables remote fetching for
// the life of the process.
func OpenProvider(cfg types.ProviderConfig, logger *slog.Logger) (Provider, error) {
	if logger == nil {
		logger = slog.Default()
	}
	key, err := secrets.Credential(cfg.SecretsDir, secrets.BingAPIKey, logger)
	if errors.Is(err, secrets.ErrNotFound) {
		logger.Info("no api key for bing, remote search disabled", "secrets_dir", cfg.SecretsDir)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return NewBingProvider(cfg, key, logger), nil
}

// Name returns the provider identifier.
func (b *BingProvider) Name() string { return BingSource }

// Fetch requests Top results for query regardless of desired; the caller's
// hit-list size bounds consumption downstream, not the upstream request.
func (b *BingProvider) Fetch(ctx context.Context, query string, desired int) ([]types.SearchResult, error) {
	if b.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.Timeout)
		defer cancel()
	}
	reqURL := b.requestURL(query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %w", ErrRemote, err)
	}
	key := base64.StdEncoding.EncodeToString([]byte(b.APIKey + ":" + b.APIKey))
	req.Header.Set("Authorization", "Basic "+key)
	if b.UserAgent != "" {
		req.Header.Set("User-Agent", b.UserAgent)
	}

	b.logger().Debug("bing request", "url", reqURL, "desired", desired)

	client := b.Client
	if client == nil {
		client = &httputil.Client{HTTP: http.DefaultClient}
	}
	resp, err := client.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: bing request %s: %w", ErrRemote, reqURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: bing returned HTTP %d for %s", ErrRemote, resp.StatusCode, reqURL)
	}

	var br bingResponse
	if err := json.NewDecoder(resp.Body).Decode(&br); err != nil {
		return nil, fmt.Errorf("%w: parsing bing response: %w", ErrRemote, err)
	}
	if br.D == nil || br.D.Results == nil {
		return nil, fmt.Errorf("%w: bing response has no d.results", ErrRemote)
	}

	results := make([]types.SearchResult, 0, len(br.D.Results))
	for _, r := range br.D.Results {
		results = append(results, types.SearchResult{
			Title:       r.Title,
			Description: r.Description,
		})
	}
	return types.RankResults(results), nil
}

// requestURL builds the query URL. The query and market are quoted with
// %27 as the API expects.
func (b *BingProvider) requestURL(query string) string {
	endpoint := b.Endpoint
	if endpoint == "" {
		endpoint = bingAPIBase
	}
	top := b.Top
	if top <= 0 {
		top = defaultBingTop
	}
	market := b.Market
	if market == "" {
		market = defaultBingMarket
	}
	return fmt.Sprintf("%s?Query=%%27%s%%27&$top=%d&$format=JSON&Market=%%27%s%%27",
		endpoint, url.QueryEscape(query), top, url.QueryEscape(market))
}

func (b *BingProvider) logger() *slog.Logger {
	if b.Logger == nil {
		return slog.Default()
	}
	return b.Logger
}

// Bing API JSON structures.
type bingResponse struct {
	D *bingData `json:"d"`
}

type bingData struct {
	Results []bingResult `json:"results"`
}

type bingResult struct {
	Title       string `json:"Title"`
	Description string `json:"Description"`
	URL         string `json:"Url"`
}
