package pipeline

import (
	"bytes"
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nsedata/shp-cli/internal/model"
	"github.com/nsedata/shp-cli/internal/xbrl"
)

// DiscoverResult is the outcome of a context-ref discovery run.
type DiscoverResult struct {
	// Refs is the union of distinct context refs seen across all documents.
	Refs map[string]struct{}
	// Failed counts rows whose document could not be fetched or parsed.
	Failed int
}

// DiscoverRefs scans every row's document for the distinct context refs on
// shareholding-percentage elements. Each worker accumulates into its own
// local set; the union happens in a single-threaded reduction after all
// workers finish, so no shared set is mutated concurrently.
func (r *Runner) DiscoverRefs(ctx context.Context, rows []model.DisclosureRow) DiscoverResult {
	log := zap.L()
	log.Info("starting discovery",
		zap.Int("rows", len(rows)),
		zap.Int("concurrency", r.concurrency()),
	)

	var g errgroup.Group
	g.SetLimit(r.concurrency())

	var mu sync.Mutex
	locals := make([]map[string]struct{}, 0, len(rows))
	var failed atomic.Int64

	for _, row := range rows {
		row := row
		g.Go(func() error {
			if ctx.Err() != nil {
				failed.Add(1)
				return nil
			}
			if err := r.politenessDelay(ctx); err != nil {
				failed.Add(1)
				return nil
			}

			body, err := r.Fetcher.Fetch(ctx, row.XBRLURL)
			if err != nil {
				failed.Add(1)
				log.Warn("discovery fetch failed", zap.String("symbol", row.Symbol), zap.Error(err))
				return nil
			}

			refs, err := xbrl.ContextRefs(bytes.NewReader(body))
			if err != nil {
				failed.Add(1)
				log.Warn("discovery parse failed", zap.String("symbol", row.Symbol), zap.Error(err))
				return nil
			}

			log.Info("discovered refs", zap.String("symbol", row.Symbol), zap.Int("count", len(refs)))

			mu.Lock()
			locals = append(locals, refs)
			mu.Unlock()
			return nil
		})
	}

	_ = g.Wait()

	union := MergeRefSets(locals)

	log.Info("discovery complete",
		zap.Int("unique_refs", len(union)),
		zap.Int64("failed", failed.Load()),
	)

	return DiscoverResult{Refs: union, Failed: int(failed.Load())}
}

// MergeRefSets unions per-worker ref sets into one.
func MergeRefSets(sets []map[string]struct{}) map[string]struct{} {
	union := make(map[string]struct{})
	for _, set := range sets {
		for ref := range set {
			union[ref] = struct{}{}
		}
	}
	return union
}
