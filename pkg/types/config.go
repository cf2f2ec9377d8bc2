package types

import "time"

// HTTPConfig holds shared HTTP settings for the provider client.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout. Expiry counts as a remote failure.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "clue-search/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// StageConfig holds the options recognized by the search stage.
type StageConfig struct {
	// HitListSize is how many units the caller wants (default 6). It does
	// not change the provider request count; see ProviderConfig.Top.
	HitListSize int `json:"hitlist_size" yaml:"hitlist_size"`

	// SearchFullText asks for full-text search. Advisory; not part of the query.
	SearchFullText bool `json:"search_full_text" yaml:"search_full_text"`

	// CluesAllRequired asks for every clue to be present. Advisory.
	CluesAllRequired bool `json:"clues_all_required" yaml:"clues_all_required"`

	// ResultInfoOrigin tags every emitted unit so downstream merges can tell
	// parallel search stages apart.
	ResultInfoOrigin string `json:"result_info_origin" yaml:"result_info_origin"`
}

// ProviderConfig holds settings for the remote search provider.
type ProviderConfig struct {
	HTTPConfig `yaml:",inline"`

	// Endpoint is the provider search URL.
	Endpoint string `json:"endpoint" yaml:"endpoint"`

	// Market is the provider market code (default "en-US").
	Market string `json:"market" yaml:"market"`

	// Top is the number of results requested upstream (default 30),
	// independent of StageConfig.HitListSize.
	Top int `json:"top" yaml:"top"`

	// RateLimit caps provider requests per second. Zero disables throttling.
	RateLimit float64 `json:"rate_limit" yaml:"rate_limit"`

	// MaxRetries is the number of retries on HTTP 429 (default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// SecretsDir is the directory holding the credential file.
	SecretsDir string `json:"secrets_dir" yaml:"secrets_dir"`
}

// CacheBackend selects the result cache storage engine.
type CacheBackend string

const (
	CacheSQLite   CacheBackend = "sqlite"
	CachePostgres CacheBackend = "postgres"
	CacheYAML     CacheBackend = "yaml"
	CacheMemory   CacheBackend = "memory"
)

// CacheConfig holds settings for the result cache.
type CacheConfig struct {
	// Backend selects sqlite, postgres, yaml or memory.
	Backend CacheBackend `json:"backend" yaml:"backend"`

	// Path is the database or snapshot file for sqlite and yaml.
	Path string `json:"path" yaml:"path"`

	// DSN is the connection string for postgres.
	DSN string `json:"dsn,omitempty" yaml:"dsn,omitempty"`
}

// PipelineConfig holds host-side scheduling settings.
type PipelineConfig struct {
	// Workers is the host worker pool size.
	Workers int `json:"workers" yaml:"workers"`

	// InFlight caps live generators; zero means twice Workers.
	InFlight int `json:"in_flight" yaml:"in_flight"`
}

// Config groups every configuration section.
type Config struct {
	Stage    StageConfig    `json:"stage" yaml:"stage"`
	Provider ProviderConfig `json:"provider" yaml:"provider"`
	Cache    CacheConfig    `json:"cache" yaml:"cache"`
	Pipeline PipelineConfig `json:"pipeline" yaml:"pipeline"`
}

// DefaultConfig returns the configuration used when no file or flag
// overrides a value.
func DefaultConfig() Config {
	return Config{
		Stage: StageConfig{
			HitListSize:      6,
			SearchFullText:   true,
			CluesAllRequired: true,
			ResultInfoOrigin: "clue-search.PrimarySearch",
		},
		Provider: ProviderConfig{
			HTTPConfig: HTTPConfig{
				Timeout:   30 * time.Second,
				UserAgent: "clue-search/0.1",
			},
			Market:     "en-US",
			Top:        30,
			MaxRetries: 5,
			SecretsDir: ".secrets/",
		},
		Cache: CacheConfig{
			Backend: CacheSQLite,
			Path:    "cache/results.db",
		},
		Pipeline: PipelineConfig{
			Workers: 4,
		},
	}
}
