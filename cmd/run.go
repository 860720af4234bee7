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
	runInput       string
	runOutput      string
	runFormat      string
	runConcurrency int
	runLimit       int
	runNoDelay     bool
	runCategories  string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fetch and aggregate shareholding filings from an input table",
	Long: `Reads an input table (CSV or XLSX) of (symbol, xbrl URL) rows, fetches each
filing concurrently, aggregates percentage-of-shares facts into investor
categories, and writes one output row (or row group) per input row.

Examples:
  # Wide output, default concurrency
  shp-cli run --input nse_xbr.csv --output shareholding.csv

  # Long/normalized output, 10 workers, first 100 rows
  shp-cli run --input nse_xbr.csv --output shp_long.csv --format long --concurrency 10 --limit 100`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if runFormat != "wide" && runFormat != "long" {
			return eris.Errorf("run: unknown format %q (want wide or long)", runFormat)
		}

		table, err := loadTable(runCategories)
		if err != nil {
			return eris.Wrap(err, "run: load category table")
		}

		rows, err := pipeline.ParseInput(runInput)
		if err != nil {
			return eris.Wrap(err, "run: parse input")
		}
		if runLimit > 0 && runLimit < len(rows) {
			rows = rows[:runLimit]
		}

		concurrency := runConcurrency
		if concurrency <= 0 {
			concurrency = cfg.Run.Concurrency
		}

		runner := &pipeline.Runner{
			Fetcher:     newFetcher(concurrency),
			Table:       table,
			Concurrency: concurrency,
		}
		if !runNoDelay {
			runner.DelayMin = time.Duration(cfg.Run.DelayMinMs) * time.Millisecond
			runner.DelayMax = time.Duration(cfg.Run.DelayMaxMs) * time.Millisecond
		}

		outcomes := runner.Run(ctx, rows)

		if runFormat == "long" {
			err = pipeline.WriteLong(runOutput, outcomes, table)
		} else {
			err = pipeline.WriteWide(runOutput, outcomes, table)
		}
		if err != nil {
			return eris.Wrap(err, "run: write output")
		}

		zap.L().Info("output written",
			zap.String("path", runOutput),
			zap.String("format", runFormat),
			zap.Int("rows", len(outcomes)),
		)
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&runInput, "input", "", "path to input table, .csv or .xlsx (required)")
	runCmd.Flags().StringVar(&runOutput, "output", "shareholding.csv", "output CSV path")
	runCmd.Flags().StringVar(&runFormat, "format", "wide", "output shape: wide or long")
	runCmd.Flags().IntVar(&runConcurrency, "concurrency", 0, "max in-flight pipelines (default from config)")
	runCmd.Flags().IntVar(&runLimit, "limit", 0, "max rows to process (0 = all)")
	runCmd.Flags().BoolVar(&runNoDelay, "no-delay", false, "skip the politeness delay before each request")
	runCmd.Flags().StringVar(&runCategories, "categories", "", "path to category membership YAML (default: embedded table)")
	_ = runCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(runCmd)
}
