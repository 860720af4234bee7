// Package pipeline orchestrates the fetch-extract-aggregate pass over an
// input table of disclosure rows and writes the tabular results.
package pipeline

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/nsedata/shp-cli/internal/model"
)

// ParseInput reads the input table into disclosure rows. The format is
// chosen by extension: .xlsx for analyst-maintained workbooks, anything
// else is treated as CSV.
func ParseInput(path string) ([]model.DisclosureRow, error) {
	var (
		records [][]string
		err     error
	)
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		records, err = readXLSX(path)
	} else {
		records, err = readCSV(path)
	}
	if err != nil {
		return nil, err
	}

	if len(records) < 2 {
		return nil, eris.New("input: table has no data rows")
	}

	header := records[0]
	colIdx := make(map[string]int, len(header))
	for i, col := range header {
		colIdx[strings.TrimSpace(col)] = i
	}

	for _, col := range []string{"symbol", "xbrl"} {
		if _, ok := colIdx[col]; !ok {
			return nil, eris.Errorf("input: missing required column %q", col)
		}
	}

	var rows []model.DisclosureRow
	for _, rec := range records[1:] {
		symbol := getCol(rec, colIdx, "symbol")
		url := getCol(rec, colIdx, "xbrl")
		if symbol == "" || url == "" {
			continue
		}

		rows = append(rows, model.DisclosureRow{
			Symbol:        symbol,
			Name:          getCol(rec, colIdx, "name"),
			XBRLURL:       url,
			Date:          getCol(rec, colIdx, "date"),
			BroadcastDate: getCol(rec, colIdx, "broadcastDate"),
			PromoterPct:   getCol(rec, colIdx, "pr_and_prgrp"),
			PublicPct:     getCol(rec, colIdx, "public_val"),
		})
	}

	if len(rows) == 0 {
		return nil, eris.New("input: no valid rows found")
	}

	return rows, nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "input: open csv")
	}
	defer f.Close() //nolint:errcheck

	reader := csv.NewReader(f)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1 // allow variable fields

	records, err := reader.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "input: read csv")
	}
	return records, nil
}

func readXLSX(path string) ([][]string, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "input: open xlsx")
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("input: xlsx has no sheets")
	}

	var records [][]string
	for _, row := range f.Sheets[0].Rows {
		cells := make([]string, len(row.Cells))
		for i, cell := range row.Cells {
			cells[i] = cell.String()
		}
		records = append(records, cells)
	}
	return records, nil
}

// getCol safely retrieves a column value from a table row.
func getCol(row []string, colIdx map[string]int, col string) string {
	idx, ok := colIdx[col]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
