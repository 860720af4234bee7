package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nsedata/shp-cli/internal/category"
	"github.com/nsedata/shp-cli/internal/model"
)

// fakeFetcher serves canned documents keyed by URL and records concurrency.
type fakeFetcher struct {
	mu   sync.Mutex
	docs map[string][]byte
	errs map[string]error

	// latency simulates the in-flight network phase.
	latency time.Duration

	inFlight    atomic.Int64
	maxInFlight atomic.Int64
	calls       atomic.Int64

	// onFetch, when set, runs at the start of every call.
	onFetch func()
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	f.calls.Add(1)
	if f.onFetch != nil {
		f.onFetch()
	}

	cur := f.inFlight.Add(1)
	for {
		prev := f.maxInFlight.Load()
		if cur <= prev || f.maxInFlight.CompareAndSwap(prev, cur) {
			break
		}
	}
	defer f.inFlight.Add(-1)

	if f.latency > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.latency):
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.errs[url]; ok {
		return nil, err
	}
	if doc, ok := f.docs[url]; ok {
		return doc, nil
	}
	return nil, fmt.Errorf("no document for %s", url)
}

// docWithFacts builds a minimal filing with one shareholding element per
// (ref, value) pair.
func docWithFacts(pairs ...any) []byte {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0"?><xbrl xmlns:shp="urn:shp">`)
	for i := 0; i < len(pairs); i += 2 {
		fmt.Fprintf(&b,
			`<shp:ShareholdingAsAPercentageOfTotalNumberOfShares contextRef="%v">%v</shp:ShareholdingAsAPercentageOfTotalNumberOfShares>`,
			pairs[i], pairs[i+1])
	}
	b.WriteString(`</xbrl>`)
	return []byte(b.String())
}

// testRows builds n input rows with synthetic URLs.
func testRows(n int) []model.DisclosureRow {
	rows := make([]model.DisclosureRow, n)
	for i := range rows {
		rows[i] = model.DisclosureRow{
			Symbol:  fmt.Sprintf("SYM%02d", i),
			XBRLURL: fmt.Sprintf("https://exchange.test/doc%02d.xml", i),
			Date:    "30-Jun-2025",
		}
	}
	return rows
}

func smallTable(t *testing.T) *category.Table {
	t.Helper()
	table, err := category.Parse([]byte(`version: "1"
categories:
  bank: [BanksI]
  public: [PublicShareholdingI]
`), category.Options{})
	require.NoError(t, err)
	return table
}

// outcomeBySymbol indexes outcomes for reconciliation against input rows.
func outcomeBySymbol(outcomes []model.RowOutcome) map[string]model.RowOutcome {
	m := make(map[string]model.RowOutcome, len(outcomes))
	for _, o := range outcomes {
		m[o.Row.Symbol] = o
	}
	return m
}
