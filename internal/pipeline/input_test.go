package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseInput_CSV(t *testing.T) {
	path := writeTempCSV(t, `symbol,name,date,xbrl,pr_and_prgrp,public_val,broadcastDate
RELIANCE,Reliance Industries,30-Jun-2025,https://x/rel.xml,50.3,49.7,15-Jul-2025 18:02:11
TCS,Tata Consultancy,30-Jun-2025,https://x/tcs.xml,71.8,28.2,
`)

	rows, err := ParseInput(path)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "RELIANCE", rows[0].Symbol)
	assert.Equal(t, "Reliance Industries", rows[0].Name)
	assert.Equal(t, "https://x/rel.xml", rows[0].XBRLURL)
	assert.Equal(t, "30-Jun-2025", rows[0].Date)
	assert.Equal(t, "15-Jul-2025 18:02:11", rows[0].BroadcastDate)
	assert.Equal(t, "50.3", rows[0].PromoterPct)
	assert.Equal(t, "49.7", rows[0].PublicPct)

	assert.Equal(t, "TCS", rows[1].Symbol)
	assert.Empty(t, rows[1].BroadcastDate)
}

func TestParseInput_MinimalColumns(t *testing.T) {
	path := writeTempCSV(t, "symbol,xbrl\nABC,https://x/abc.xml\n")

	rows, err := ParseInput(path)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "ABC", rows[0].Symbol)
	assert.Empty(t, rows[0].Name)
}

func TestParseInput_SkipsIncompleteRows(t *testing.T) {
	path := writeTempCSV(t, `symbol,xbrl
GOOD,https://x/good.xml
,https://x/nosymbol.xml
NOURL,
`)

	rows, err := ParseInput(path)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "GOOD", rows[0].Symbol)
}

func TestParseInput_MissingRequiredColumn(t *testing.T) {
	path := writeTempCSV(t, "symbol,name\nABC,Some Name\n")

	_, err := ParseInput(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "xbrl")
}

func TestParseInput_Empty(t *testing.T) {
	_, err := ParseInput(writeTempCSV(t, "symbol,xbrl\n"))
	assert.Error(t, err)

	_, err = ParseInput(writeTempCSV(t, ""))
	assert.Error(t, err)
}

func TestParseInput_NoValidRows(t *testing.T) {
	_, err := ParseInput(writeTempCSV(t, "symbol,xbrl\n,\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no valid rows")
}

func TestParseInput_MissingFile(t *testing.T) {
	_, err := ParseInput(filepath.Join(t.TempDir(), "absent.csv"))
	assert.Error(t, err)
}

func TestParseInput_XLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.xlsx")

	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Sheet1")
	require.NoError(t, err)

	for _, rec := range [][]string{
		{"symbol", "xbrl", "date"},
		{"INFY", "https://x/infy.xml", "30-Jun-2025"},
	} {
		row := sheet.AddRow()
		for _, cell := range rec {
			row.AddCell().SetString(cell)
		}
	}
	require.NoError(t, f.Save(path))

	rows, err := ParseInput(path)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "INFY", rows[0].Symbol)
	assert.Equal(t, "https://x/infy.xml", rows[0].XBRLURL)
	assert.Equal(t, "30-Jun-2025", rows[0].Date)
}
