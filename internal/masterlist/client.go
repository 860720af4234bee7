// Package masterlist pulls the exchange's shareholding disclosure master
// list, the JSON index of filings that seeds the scraper's input table.
package masterlist

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"net/url"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/nsedata/shp-cli/internal/fetcher"
	"github.com/nsedata/shp-cli/internal/model"
)

// DefaultBaseURL is the exchange website root.
const DefaultBaseURL = "https://www.nseindia.com"

// Client queries the disclosure master-list API over the shared fetcher.
type Client struct {
	fetcher fetcher.Fetcher
	baseURL string
}

// New creates a master-list client. An empty baseURL selects the live site.
func New(f fetcher.Fetcher, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{fetcher: f, baseURL: baseURL}
}

// entry mirrors one element of the master-list JSON response.
type entry struct {
	Symbol         string      `json:"symbol"`
	Name           string      `json:"name"`
	Date           string      `json:"date"`
	XBRL           string      `json:"xbrl"`
	PromoterPct    json.Number `json:"pr_and_prgrp"`
	PublicPct      json.Number `json:"public_val"`
	SubmissionDate string      `json:"submissionDate"`
	BroadcastDate  string      `json:"broadcastDate"`
}

// Holdings fetches the master list for a date range (DD-MM-YYYY, inclusive)
// and maps it to disclosure rows. Entries without a symbol or document URL
// are dropped.
func (c *Client) Holdings(ctx context.Context, fromDate, toDate string) ([]model.DisclosureRow, error) {
	q := url.Values{}
	q.Set("index", "equities")
	q.Set("from_date", fromDate)
	q.Set("to_date", toDate)
	reqURL := c.baseURL + "/api/corporate-share-holdings-master?" + q.Encode()

	body, err := c.fetcher.Fetch(ctx, reqURL)
	if err != nil {
		return nil, eris.Wrap(err, "masterlist: fetch")
	}

	var entries []entry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, eris.Wrap(err, "masterlist: decode response")
	}

	rows := make([]model.DisclosureRow, 0, len(entries))
	for _, e := range entries {
		if e.Symbol == "" || e.XBRL == "" {
			continue
		}
		rows = append(rows, model.DisclosureRow{
			Symbol:        e.Symbol,
			Name:          e.Name,
			XBRLURL:       e.XBRL,
			Date:          e.Date,
			BroadcastDate: e.BroadcastDate,
			PromoterPct:   e.PromoterPct.String(),
			PublicPct:     e.PublicPct.String(),
		})
	}

	zap.L().Info("fetched master list",
		zap.Int("entries", len(entries)),
		zap.Int("usable", len(rows)),
	)

	return rows, nil
}

// WriteInputCSV writes rows in the input-table schema consumed by run and
// discover.
func WriteInputCSV(path string, rows []model.DisclosureRow) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "masterlist: create csv")
	}
	defer f.Close() //nolint:errcheck

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{"symbol", "name", "date", "xbrl", "pr_and_prgrp", "public_val", "broadcastDate"}
	if err := w.Write(header); err != nil {
		return eris.Wrap(err, "masterlist: write header")
	}

	for _, r := range rows {
		rec := []string{r.Symbol, r.Name, r.Date, r.XBRLURL, r.PromoterPct, r.PublicPct, r.BroadcastDate}
		if err := w.Write(rec); err != nil {
			return eris.Wrap(err, "masterlist: write row")
		}
	}

	w.Flush()
	return eris.Wrap(w.Error(), "masterlist: flush")
}
