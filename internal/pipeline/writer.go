package pipeline

import (
	"encoding/csv"
	"os"
	"sort"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/nsedata/shp-cli/internal/category"
	"github.com/nsedata/shp-cli/internal/model"
)

// WriteWide writes one row per symbol with one column per category. Error
// and cancelled outcomes keep their row, with empty category cells and the
// detail in the error column, so the output stays complete over the input.
func WriteWide(path string, outcomes []model.RowOutcome, table *category.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "writer: create output file")
	}
	defer f.Close() //nolint:errcheck

	w := csv.NewWriter(f)
	defer w.Flush()

	cats := table.Names()

	header := append([]string{"symbol", "date", "status"}, cats...)
	header = append(header, "error")
	if err := w.Write(header); err != nil {
		return eris.Wrap(err, "writer: write header")
	}

	for _, o := range outcomes {
		row := []string{o.Row.Symbol, o.Row.Date, string(o.Status)}
		for _, cat := range cats {
			if o.Status == model.StatusSuccess {
				row = append(row, formatPct(o.Totals[cat]))
			} else {
				row = append(row, "")
			}
		}
		row = append(row, o.Err)
		if err := w.Write(row); err != nil {
			return eris.Wrap(err, "writer: write row")
		}
	}

	w.Flush()
	return eris.Wrap(w.Error(), "writer: flush")
}

// longColumns is the normalized output schema: one row per symbol×category.
// The carried-through reference percentages appear only on the first row of
// each symbol's group; repeating them per category would bloat the file
// while the group stays joinable by symbol+period.
var longColumns = []string{
	"period", "symbol", "field", "value", "unit",
	"pr_and_prgrp", "public_val", "error",
}

// WriteLong writes the normalized table: N rows per successful outcome
// (N = category count) and a single row per failed outcome.
func WriteLong(path string, outcomes []model.RowOutcome, table *category.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "writer: create output file")
	}
	defer f.Close() //nolint:errcheck

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write(longColumns); err != nil {
		return eris.Wrap(err, "writer: write header")
	}

	// Group rows by symbol for readability; outcomes arrive in completion
	// order.
	sorted := make([]model.RowOutcome, len(outcomes))
	copy(sorted, outcomes)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Row.Symbol < sorted[j].Row.Symbol
	})

	for _, o := range sorted {
		if o.Status != model.StatusSuccess {
			row := []string{o.Row.Date, o.Row.Symbol, "", "", "", o.Row.PromoterPct, o.Row.PublicPct, o.Err}
			if err := w.Write(row); err != nil {
				return eris.Wrap(err, "writer: write row")
			}
			continue
		}

		for i, cat := range table.Names() {
			row := []string{o.Row.Date, o.Row.Symbol, cat, formatPct(o.Totals[cat]), "pct", "", "", ""}
			if i == 0 {
				row[5] = o.Row.PromoterPct
				row[6] = o.Row.PublicPct
			}
			if err := w.Write(row); err != nil {
				return eris.Wrap(err, "writer: write row")
			}
		}
	}

	w.Flush()
	return eris.Wrap(w.Error(), "writer: flush")
}

// WriteRefs writes discovered context refs sorted, one per line.
func WriteRefs(path string, refs map[string]struct{}) error {
	sorted := make([]string, 0, len(refs))
	for ref := range refs {
		sorted = append(sorted, ref)
	}
	sort.Strings(sorted)

	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "writer: create refs file")
	}
	defer f.Close() //nolint:errcheck

	for _, ref := range sorted {
		if _, err := f.WriteString(ref + "\n"); err != nil {
			return eris.Wrap(err, "writer: write ref")
		}
	}
	return nil
}

func formatPct(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
