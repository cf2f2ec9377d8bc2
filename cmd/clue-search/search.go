package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/clue-search/internal/cache"
	"github.com/pdiddy/clue-search/internal/fanout"
	"github.com/pdiddy/clue-search/internal/metrics"
	"github.com/pdiddy/clue-search/internal/pipeline"
	"github.com/pdiddy/clue-search/internal/search"
	"github.com/pdiddy/clue-search/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search [clues...]",
	Short: "Run one question through the web search stage",
	Long: `Search joins the clues into a query, fetches ranked results through the
result cache and prints one result unit per line as JSON. A question with no
results prints a single sentinel unit.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		if addr := viper.GetString("metrics_addr"); addr != "" {
			srv := metrics.Start(addr, logger)
			defer srv.Stop(context.Background())
		}

		c, err := cache.Open(ctx, cfg.Cache)
		if err != nil {
			return fmt.Errorf("opening cache: %w", err)
		}
		defer c.Close()

		provider, err := search.OpenProvider(cfg.Provider, logger)
		if err != nil {
			return err
		}

		st := fanout.NewStage(cfg.Stage, search.NewFetcher(c, provider, logger), metrics.NewDashboard(), logger)
		runner := pipeline.NewRunner(st, cfg.Pipeline, logger)

		q := questionFromFlags(cmd, args)
		rep, err := runner.Run(ctx, []*types.Question{q}, pipeline.NewJSONLines(os.Stdout))
		if err != nil {
			return err
		}
		if err := rep.Aborted[pipeline.AbortKey(0, q)]; err != nil {
			return fmt.Errorf("question %s: %w", q.ID, err)
		}
		logger.Debug("search complete", "question", q.ID, "units", rep.Units)
		return nil
	},
}

func questionFromFlags(cmd *cobra.Command, args []string) *types.Question {
	id, _ := cmd.Flags().GetString("id")
	if id == "" {
		id = uuid.NewString()
	}
	text, _ := cmd.Flags().GetString("text")
	lang, _ := cmd.Flags().GetString("language")

	q := &types.Question{ID: id, Text: text, Language: lang}
	for _, a := range args {
		q.Clues = append(q.Clues, types.Clue{Label: a, Weight: 1})
	}
	return q
}

func init() {
	searchCmd.Flags().String("id", "", "question ID (default: random UUID)")
	searchCmd.Flags().String("text", "", "question text carried on every unit")
	searchCmd.Flags().String("language", "en", "question language")
	searchCmd.Flags().Int("hitlist-size", 0, "desired result count (default from config)")
	searchCmd.Flags().String("metrics-addr", "", "serve Prometheus metrics on this address while running")

	_ = viper.BindPFlag("stage.hitlist_size", searchCmd.Flags().Lookup("hitlist-size"))
	_ = viper.BindPFlag("metrics_addr", searchCmd.Flags().Lookup("metrics-addr"))

	rootCmd.AddCommand(searchCmd)
}
