package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nsedata/shp-cli/internal/category"
	"github.com/nsedata/shp-cli/internal/config"
	"github.com/nsedata/shp-cli/internal/fetcher"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "shp-cli",
	Short: "Shareholding disclosure scraper",
	Long:  "Fetches corporate shareholding XBRL filings from the exchange, aggregates percentage-of-shares facts into investor categories, and writes tabular output.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newFetcher builds the shared document fetcher, sizing the connection pool
// to the orchestration concurrency.
func newFetcher(concurrency int) *fetcher.HTTPFetcher {
	return fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent:          cfg.HTTP.UserAgent,
		Timeout:            time.Duration(cfg.HTTP.TimeoutSecs) * time.Second,
		MaxRetries:         cfg.HTTP.MaxRetries,
		BackoffBase:        time.Duration(cfg.HTTP.BackoffSecs) * time.Second,
		RateLimit:          cfg.HTTP.RateLimit,
		InsecureSkipVerify: cfg.HTTP.InsecureSkipVerify,
		MaxConns:           concurrency,
	})
}

// loadTable resolves the membership table: an explicit flag path wins, then
// the configured path, then the embedded default.
func loadTable(flagPath string) (*category.Table, error) {
	opts := category.Options{RequireDisjoint: cfg.Categories.RequireDisjoint}

	path := flagPath
	if path == "" {
		path = cfg.Categories.Path
	}
	if path == "" {
		return category.Default(opts)
	}
	return category.LoadFile(path, opts)
}
