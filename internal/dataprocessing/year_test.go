package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"expenditure/pkg/contracts/domain"
)

func TestStandardizeYear(t *testing.T) {
	tests := []struct {
		name   string
		in     domain.Cell
		want   string
		wantOK bool
	}{
		{"plain", domain.StringCell("2015-16"), "2015-16", true},
		{"revised estimate", domain.StringCell("2015-16 (RE)"), "2015-16", true},
		{"budget estimate", domain.StringCell("2015-16 (BE)"), "2015-16", true},
		{"trailing text truncated", domain.StringCell("2009-10 Accounts"), "2009-10", true},
		{"long form", domain.StringCell("2015-2016"), "2015-20", true},
		{"total", domain.StringCell("Total"), "", false},
		{"too short", domain.StringCell("15-16"), "", false},
		{"no hyphen", domain.StringCell("FY 2015 16"), "", false},
		{"hyphen after seventh char", domain.StringCell("Average 2015-16"), "", false},
		{"numeric label", domain.NumberCell(2015), "", false},
		{"empty label", domain.EmptyCell(), "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := StandardizeYear(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStandardizeYears_DropsInvalid(t *testing.T) {
	table := &domain.NormalizedTable{
		Category: "Revenue_deficit",
		Records: []domain.NormalizedRecord{
			{State: "Goa", Year: domain.StringCell("2014-15 (BE)"), Value: domain.StringCell("1")},
			{State: "Goa", Year: domain.StringCell("Total"), Value: domain.StringCell("9")},
			{State: "Goa", Year: domain.EmptyCell(), Value: domain.StringCell("9")},
			{State: "Goa", Year: domain.StringCell("2015-16"), Value: domain.StringCell("2")},
		},
	}

	out, dropped := StandardizeYears(table)
	assert.Equal(t, 2, dropped)
	assert.Len(t, out.Records, 2)
	assert.Equal(t, "2014-15", out.Records[0].Year.Text)
	assert.Equal(t, "2015-16", out.Records[1].Year.Text)

	// input untouched
	assert.Equal(t, "2014-15 (BE)", table.Records[0].Year.Text)
}
