package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/clue-search/internal/cache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and export the result cache",
}

var cacheShowCmd = &cobra.Command{
	Use:   "show <query>",
	Short: "Print the cached results for an exact query string",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := cache.Open(cmd.Context(), cfg.Cache)
		if err != nil {
			return fmt.Errorf("opening cache: %w", err)
		}
		defer c.Close()

		results, ok, err := c.Load(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("query %q is not cached", args[0])
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	},
}

var cacheExportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Write every cache entry to a YAML snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := cache.Open(cmd.Context(), cfg.Cache)
		if err != nil {
			return fmt.Errorf("opening cache: %w", err)
		}
		defer c.Close()

		d, ok := c.(cache.Dumper)
		if !ok {
			return fmt.Errorf("cache backend %q cannot be exported", cfg.Cache.Backend)
		}
		entries, err := d.Dump(cmd.Context())
		if err != nil {
			return err
		}
		if err := cache.WriteSnapshot(args[0], entries); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Exported %d queries to %s\n", len(entries), args[0])
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheShowCmd, cacheExportCmd)
	rootCmd.AddCommand(cacheCmd)
}
