package main

import (
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nsedata/shp-cli/internal/fetcher"
	"github.com/nsedata/shp-cli/internal/masterlist"
)

var (
	masterlistFrom   string
	masterlistTo     string
	masterlistOutput string
)

var masterlistCmd = &cobra.Command{
	Use:   "masterlist",
	Short: "Pull the disclosure master list into an input CSV",
	Long: `Queries the exchange's shareholding master-list API for a date range and
writes the input table consumed by run and discover.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
			UserAgent:          cfg.HTTP.UserAgent,
			Accept:             "application/json",
			Timeout:            time.Duration(cfg.HTTP.TimeoutSecs) * time.Second,
			MaxRetries:         cfg.HTTP.MaxRetries,
			BackoffBase:        time.Duration(cfg.HTTP.BackoffSecs) * time.Second,
			InsecureSkipVerify: cfg.HTTP.InsecureSkipVerify,
			Headers: map[string]string{
				"Accept-Language": "en-US,en;q=0.9",
				"Referer":         cfg.Masterlist.BaseURL + "/",
			},
		})

		client := masterlist.New(f, cfg.Masterlist.BaseURL)
		rows, err := client.Holdings(ctx, masterlistFrom, masterlistTo)
		if err != nil {
			return eris.Wrap(err, "masterlist: fetch holdings")
		}
		if len(rows) == 0 {
			return eris.New("masterlist: no usable entries in range")
		}

		if err := masterlist.WriteInputCSV(masterlistOutput, rows); err != nil {
			return eris.Wrap(err, "masterlist: write csv")
		}

		zap.L().Info("master list written",
			zap.String("path", masterlistOutput),
			zap.Int("rows", len(rows)),
		)
		return nil
	},
}

func init() {
	masterlistCmd.Flags().StringVar(&masterlistFrom, "from", "01-01-2018", "start date, DD-MM-YYYY")
	masterlistCmd.Flags().StringVar(&masterlistTo, "to", "01-01-2026", "end date, DD-MM-YYYY")
	masterlistCmd.Flags().StringVar(&masterlistOutput, "output", "nse_xbr.csv", "output CSV path")
	rootCmd.AddCommand(masterlistCmd)
}
