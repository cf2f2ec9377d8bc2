// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the clue-search CLI, a thin host
// harness that runs questions through the primary web search stage.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/clue-search/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// cfg is the effective configuration, resolved in PersistentPreRunE.
var cfg types.Config

// logger is the process logger, resolved in PersistentPreRunE.
var logger *slog.Logger

var rootCmd = &cobra.Command{
	Use:   "clue-search",
	Short: "Fan questions out into ranked web search results",
	Long: `clue-search builds a web query from a question's clues, fetches ranked
results from the search provider through a durable cache, and emits one
result unit per hit as JSON lines.

Provider credentials are read from the secrets directory (default .secrets/,
file bing-api-key). Without a credential the stage serves cached results only.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelInfo
		if viper.GetBool("verbose") {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)

		c, err := loadConfig()
		if err != nil {
			return err
		}
		cfg = c
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./clue-search.yaml or ~/.config/clue-search/clue-search.yaml)")
	pf.BoolP("verbose", "v", false, "enable debug logging")
	pf.String("cache-backend", "", "result cache backend: sqlite, postgres, yaml, memory")
	pf.String("cache-path", "", "cache database or snapshot file")
	pf.String("cache-dsn", "", "postgres connection string")
	pf.String("secrets-dir", "", "directory holding the provider credential")

	_ = viper.BindPFlag("verbose", pf.Lookup("verbose"))
	_ = viper.BindPFlag("cache.backend", pf.Lookup("cache-backend"))
	_ = viper.BindPFlag("cache.path", pf.Lookup("cache-path"))
	_ = viper.BindPFlag("cache.dsn", pf.Lookup("cache-dsn"))
	_ = viper.BindPFlag("provider.secrets_dir", pf.Lookup("secrets-dir"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("clue-search")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "clue-search"))
		}
	}

	viper.SetEnvPrefix("CLUE_SEARCH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig layers the config file over DefaultConfig, then applies any
// key set by flag or environment.
func loadConfig() (types.Config, error) {
	c := types.DefaultConfig()
	if path := viper.ConfigFileUsed(); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return c, fmt.Errorf("reading config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &c); err != nil {
			return c, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	setString := func(key string, dst *string) {
		if viper.IsSet(key) && viper.GetString(key) != "" {
			*dst = viper.GetString(key)
		}
	}
	setInt := func(key string, dst *int) {
		if viper.IsSet(key) && viper.GetInt(key) > 0 {
			*dst = viper.GetInt(key)
		}
	}

	var backend string
	setString("cache.backend", &backend)
	if backend != "" {
		c.Cache.Backend = types.CacheBackend(backend)
	}
	setString("cache.path", &c.Cache.Path)
	setString("cache.dsn", &c.Cache.DSN)
	setString("provider.endpoint", &c.Provider.Endpoint)
	setString("provider.market", &c.Provider.Market)
	setString("provider.secrets_dir", &c.Provider.SecretsDir)
	setString("stage.result_info_origin", &c.Stage.ResultInfoOrigin)
	setInt("stage.hitlist_size", &c.Stage.HitListSize)
	setInt("pipeline.workers", &c.Pipeline.Workers)
	setInt("pipeline.in_flight", &c.Pipeline.InFlight)
	if viper.IsSet("provider.rate_limit") {
		c.Provider.RateLimit = viper.GetFloat64("provider.rate_limit")
	}
	return c, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
