package testutil

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// ExpenditureSheet returns a raw sheet laid out like the published tables:
// a title, a blank line, the header row starting at "States", numbered state
// rows, an unnumbered total and a footnote.
func ExpenditureSheet() [][]string {
	return [][]string{
		{"Table 12: Revenue expenditure"},
		{},
		{"", "States", "2019-20", "2020-21 (RE)", "2021-22 (BE)"},
		{"", "1. Bihar", "10", "0", ""},
		{"", "2. Goa", "4", "8", "–"},
		{"", "Total", "14", "8", ""},
		{"", "Source: State budget documents"},
	}
}

// SheetWithoutAnchor returns a sheet that has no "States" marker
func SheetWithoutAnchor() [][]string {
	return [][]string{
		{"Region", "2019-20"},
		{"1. North", "5"},
	}
}

// WriteCSV writes rows to dir/name and returns the path
func WriteCSV(t *testing.T, dir, name string, rows [][]string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := csv.NewWriter(f)
	require.NoError(t, w.WriteAll(rows))
	return path
}

// WriteWorkbook writes rows to the first sheet of dir/name and returns the path
func WriteWorkbook(t *testing.T, dir, name string, rows [][]string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		for j, value := range row {
			if value == "" {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(sheet, cell, value))
		}
	}
	require.NoError(t, f.SaveAs(path))
	return path
}
