package main

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nsedata/shp-cli/internal/pipeline"
)

var (
	discoverInput       string
	discoverOutput      string
	discoverConcurrency int
	discoverLimit       int
	discoverNoDelay     bool
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Collect distinct context refs across filings",
	Long: `Scans every filing in the input table for the distinct context references
on shareholding-percentage elements and writes their union, sorted, one per
line. Run this each filing season to spot new taxonomy aliases before they
go missing from the category table.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		rows, err := pipeline.ParseInput(discoverInput)
		if err != nil {
			return eris.Wrap(err, "discover: parse input")
		}
		if discoverLimit > 0 && discoverLimit < len(rows) {
			rows = rows[:discoverLimit]
		}

		concurrency := discoverConcurrency
		if concurrency <= 0 {
			concurrency = cfg.Run.Concurrency
		}

		runner := &pipeline.Runner{
			Fetcher:     newFetcher(concurrency),
			Concurrency: concurrency,
		}
		if !discoverNoDelay {
			runner.DelayMin = time.Duration(cfg.Run.DelayMinMs) * time.Millisecond
			runner.DelayMax = time.Duration(cfg.Run.DelayMaxMs) * time.Millisecond
		}

		result := runner.DiscoverRefs(ctx, rows)

		if err := pipeline.WriteRefs(discoverOutput, result.Refs); err != nil {
			return eris.Wrap(err, "discover: write refs")
		}

		zap.L().Info("refs written",
			zap.String("path", discoverOutput),
			zap.Int("unique_refs", len(result.Refs)),
			zap.Int("failed_rows", result.Failed),
		)
		return nil
	},
}

func init() {
	discoverCmd.Flags().StringVar(&discoverInput, "input", "", "path to input table, .csv or .xlsx (required)")
	discoverCmd.Flags().StringVar(&discoverOutput, "output", "unique_context_refs.txt", "output path for sorted refs")
	discoverCmd.Flags().IntVar(&discoverConcurrency, "concurrency", 0, "max in-flight pipelines (default from config)")
	discoverCmd.Flags().IntVar(&discoverLimit, "limit", 0, "max rows to process (0 = all)")
	discoverCmd.Flags().BoolVar(&discoverNoDelay, "no-delay", false, "skip the politeness delay before each request")
	_ = discoverCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(discoverCmd)
}
