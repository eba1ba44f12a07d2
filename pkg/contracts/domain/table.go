package domain

import (
	"strconv"
	"strings"
)

// Column names of the long-format output
const (
	ColumnState    = "State"
	ColumnYear     = "Year"
	ColumnValue    = "Value"
	ColumnCategory = "Exp_Category"
)

// StateRow is one retained data row of a StructuredTable
type StateRow struct {
	State  string `json:"state"`
	Values []Cell `json:"values"`
}

// StructuredTable is the anchored, filtered block of a sheet.
// Headers holds one raw year label per value column; every row has len(Headers) values.
type StructuredTable struct {
	Category string     `json:"category"`
	Source   string     `json:"source"`
	Headers  []Cell     `json:"headers"`
	Rows     []StateRow `json:"rows"`
}

// NormalizedRecord is one (state, year) observation before cleaning.
// Year and Value are carried as read from the sheet.
type NormalizedRecord struct {
	Category string `json:"category"`
	State    string `json:"state"`
	Year     Cell   `json:"year"`
	Value    Cell   `json:"value"`
}

// NormalizedTable is the long-format reshape of one source file
type NormalizedTable struct {
	Category string             `json:"category"`
	Source   string             `json:"source"`
	Records  []NormalizedRecord `json:"records"`
}

// Len returns the number of records
func (t *NormalizedTable) Len() int {
	return len(t.Records)
}

// CleanRecord is a canonical observation after year standardization and imputation.
// Value may be NaN when the state had no usable observation to impute from.
type CleanRecord struct {
	Category  string        `json:"category"`
	State     string        `json:"state"`
	Year      string        `json:"year"`
	Value     float64       `json:"value"`
	Imputed   bool          `json:"imputed,omitempty"`
	Anomalies []AnomalyKind `json:"anomalies,omitempty"`
}

// Key identifies a record by its four canonical fields.
// NaN values share one key so that duplicate NaN rows collapse.
func (r CleanRecord) Key() string {
	return strings.Join([]string{
		r.Category,
		r.State,
		r.Year,
		strconv.FormatFloat(r.Value, 'g', -1, 64),
	}, "\x1f")
}

// CleanedTable is the final per-category output
type CleanedTable struct {
	Category string        `json:"category"`
	Source   string        `json:"source"`
	Records  []CleanRecord `json:"records"`
	Summary  TableSummary  `json:"summary"`
}

// TableSummary describes the value distribution of a cleaned table
type TableSummary struct {
	Records      int     `json:"records"`
	States       int     `json:"states"`
	Years        int     `json:"years"`
	Imputed      int     `json:"imputed"`
	NonFinite    int     `json:"non_finite"`
	DroppedYears int     `json:"dropped_years"`
	Duplicates   int     `json:"duplicates"`
	Mean         float64 `json:"mean"`
	StdDev       float64 `json:"std_dev"`
	Min          float64 `json:"min"`
	Max          float64 `json:"max"`
}
