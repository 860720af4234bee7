package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nsedata/shp-cli/internal/category"
	"github.com/nsedata/shp-cli/internal/fetcher"
	"github.com/nsedata/shp-cli/internal/model"
	"github.com/nsedata/shp-cli/internal/xbrl"
)

// progressEvery controls how often a progress line is logged during a run.
const progressEvery = 50

// Runner executes the fetch-extract-aggregate pipeline for each input row
// with bounded concurrency. The concurrency limit is the only backpressure:
// no queue of in-flight requests builds up beyond it.
type Runner struct {
	Fetcher     fetcher.Fetcher
	Table       *category.Table
	Concurrency int

	// DelayMin/DelayMax bound the randomized politeness pause before each
	// row's request. Zero values disable the pause (tests, local mirrors).
	DelayMin time.Duration
	DelayMax time.Duration
}

// Run processes every row and returns exactly one outcome per row. A row's
// fetch or parse failure is recorded in its outcome and never affects the
// other rows. When ctx is cancelled mid-run, rows whose pipeline has not
// started are reported with status cancelled rather than dropped.
// Completion order is arbitrary; each outcome carries its originating row.
func (r *Runner) Run(ctx context.Context, rows []model.DisclosureRow) []model.RowOutcome {
	runID := uuid.NewString()[:8]
	log := zap.L().With(zap.String("run_id", runID))

	log.Info("starting run",
		zap.Int("rows", len(rows)),
		zap.Int("concurrency", r.Concurrency),
	)

	var g errgroup.Group
	g.SetLimit(r.concurrency())

	var mu sync.Mutex
	outcomes := make([]model.RowOutcome, 0, len(rows))
	var succeeded, failed, cancelled, completed atomic.Int64

	for _, row := range rows {
		row := row
		g.Go(func() error {
			outcome := r.processRow(ctx, row, log)

			switch outcome.Status {
			case model.StatusSuccess:
				succeeded.Add(1)
				log.Info("row complete", zap.String("symbol", row.Symbol))
			case model.StatusCancelled:
				cancelled.Add(1)
			default:
				failed.Add(1)
				log.Warn("row failed",
					zap.String("symbol", row.Symbol),
					zap.String("error", outcome.Err),
				)
			}

			mu.Lock()
			outcomes = append(outcomes, outcome)
			mu.Unlock()

			if n := completed.Add(1); n%progressEvery == 0 {
				log.Info("progress", zap.Int64("completed", n), zap.Int("total", len(rows)))
			}
			return nil
		})
	}

	_ = g.Wait()

	log.Info("run complete",
		zap.Int64("succeeded", succeeded.Load()),
		zap.Int64("failed", failed.Load()),
		zap.Int64("cancelled", cancelled.Load()),
	)

	return outcomes
}

// processRow runs one row's pipeline end to end, converting every failure
// into that row's outcome.
func (r *Runner) processRow(ctx context.Context, row model.DisclosureRow, log *zap.Logger) model.RowOutcome {
	if ctx.Err() != nil {
		return model.RowOutcome{Row: row, Status: model.StatusCancelled, Err: "cancelled"}
	}

	if err := r.politenessDelay(ctx); err != nil {
		return model.RowOutcome{Row: row, Status: model.StatusCancelled, Err: "cancelled"}
	}

	body, err := r.Fetcher.Fetch(ctx, row.XBRLURL)
	if err != nil {
		if ctx.Err() != nil {
			return model.RowOutcome{Row: row, Status: model.StatusCancelled, Err: "cancelled"}
		}
		return model.RowOutcome{Row: row, Status: model.StatusError, Err: errorDetail(err)}
	}

	facts, err := xbrl.Extract(bytes.NewReader(body))
	if err != nil {
		return model.RowOutcome{Row: row, Status: model.StatusError, Err: errorDetail(err)}
	}

	totals := category.Aggregate(facts, r.Table)

	log.Debug("row aggregated",
		zap.String("symbol", row.Symbol),
		zap.Int("facts", len(facts)),
	)

	return model.RowOutcome{Row: row, Status: model.StatusSuccess, Totals: totals}
}

// politenessDelay sleeps a randomized interval before the row's request, a
// rate-limiting courtesy toward the exchange. Returns an error only when
// the context dies during the sleep.
func (r *Runner) politenessDelay(ctx context.Context) error {
	if r.DelayMax <= 0 {
		return nil
	}
	d := r.DelayMin
	if r.DelayMax > r.DelayMin {
		d += time.Duration(rand.Int63n(int64(r.DelayMax - r.DelayMin)))
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (r *Runner) concurrency() int {
	if r.Concurrency <= 0 {
		return 5
	}
	return r.Concurrency
}

// errorDetail renders an error as "<kind>: <detail>" so the output table
// carries a machine-readable kind alongside the human-readable message.
func errorDetail(err error) string {
	var fe *fetcher.FetchError
	if errors.As(err, &fe) {
		return fmt.Sprintf("%s: %s", fe.Kind, fe.Error())
	}
	var pe *xbrl.ParseError
	if errors.As(err, &pe) {
		return fmt.Sprintf("parse: %s", pe.Error())
	}
	return fmt.Sprintf("other: %s", err.Error())
}
