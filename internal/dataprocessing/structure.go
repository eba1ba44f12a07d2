package dataprocessing

import (
	"path/filepath"
	"regexp"
	"strings"

	"expenditure/pkg/contracts/domain"
)

var (
	// ordinalPattern matches state labels such as "12. Kerala"
	ordinalPattern = regexp.MustCompile(`^\d+\.`)
)

// Structure slices the grid at the anchor, promotes the anchor row to headers
// and keeps only rows whose state cell starts with an ordinal.
// The ordinal and surrounding whitespace are stripped from retained state names.
func Structure(grid *domain.RawGrid, anchor domain.Anchor) (*domain.StructuredTable, error) {
	source := ""
	if grid != nil {
		source = grid.Source
	}
	fail := func(reason string) error {
		return &StructuringError{Source: source, Anchor: anchor, Reason: reason}
	}

	if grid == nil || anchor.Row < 0 || anchor.Row >= grid.NumRows() || anchor.Col < 0 {
		return nil, fail("anchor outside grid")
	}

	width := grid.NumCols() - anchor.Col
	if width <= 1 {
		return nil, fail("no columns right of anchor")
	}
	if anchor.Row == grid.NumRows()-1 {
		return nil, fail("no rows below header")
	}

	headers := make([]domain.Cell, width-1)
	for j := range headers {
		headers[j] = grid.At(anchor.Row, anchor.Col+1+j)
	}

	table := &domain.StructuredTable{
		Source:  source,
		Headers: headers,
	}

	for i := anchor.Row + 1; i < grid.NumRows(); i++ {
		label := grid.At(i, anchor.Col)
		if !label.IsString() || !ordinalPattern.MatchString(label.Text) {
			continue
		}

		values := make([]domain.Cell, width-1)
		for j := range values {
			values[j] = grid.At(i, anchor.Col+1+j)
		}
		table.Rows = append(table.Rows, domain.StateRow{
			State:  StripOrdinal(label.Text),
			Values: values,
		})
	}

	return table, nil
}

// StripOrdinal removes a leading "<digits>." and surrounding whitespace
func StripOrdinal(label string) string {
	return strings.TrimSpace(ordinalPattern.ReplaceAllString(label, ""))
}

// Melt reshapes a structured table into one record per (state, year column).
// Records are ordered state-major, then by original column order.
func Melt(table *domain.StructuredTable) *domain.NormalizedTable {
	out := &domain.NormalizedTable{
		Category: table.Category,
		Source:   table.Source,
		Records:  make([]domain.NormalizedRecord, 0, len(table.Rows)*len(table.Headers)),
	}
	for _, row := range table.Rows {
		for j, year := range table.Headers {
			out.Records = append(out.Records, domain.NormalizedRecord{
				Category: table.Category,
				State:    row.State,
				Year:     year,
				Value:    row.Values[j],
			})
		}
	}
	return out
}

// Normalize runs anchor location, structuring and the wide-to-long reshape
func Normalize(grid *domain.RawGrid, category string) (*domain.NormalizedTable, error) {
	anchor, err := LocateAnchor(grid)
	if err != nil {
		return nil, err
	}
	structured, err := Structure(grid, anchor)
	if err != nil {
		return nil, err
	}
	structured.Category = category
	return Melt(structured), nil
}

// CategoryName derives the category from a source filename: extension removed,
// spaces replaced by underscores, lower-cased, first ASCII letter upper-cased.
func CategoryName(filename string) string {
	base := filepath.Base(filename)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	name := strings.ToLower(strings.ReplaceAll(base, " ", "_"))
	if name == "" {
		return name
	}
	if c := name[0]; c >= 'a' && c <= 'z' {
		name = string(c-'a'+'A') + name[1:]
	}
	return name
}
