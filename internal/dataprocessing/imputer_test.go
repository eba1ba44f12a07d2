package dataprocessing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expenditure/pkg/contracts/domain"
)

func rec(state, year string, value domain.Cell) domain.NormalizedRecord {
	return domain.NormalizedRecord{
		Category: "Aggregate_expenditure",
		State:    state,
		Year:     domain.StringCell(year),
		Value:    value,
	}
}

func longTable(records ...domain.NormalizedRecord) *domain.NormalizedTable {
	return &domain.NormalizedTable{
		Category: "Aggregate_expenditure",
		Source:   "Aggregate Expenditure.csv",
		Records:  records,
	}
}

func TestCoerceValue(t *testing.T) {
	tests := []struct {
		name   string
		in     domain.Cell
		want   float64
		wantOK bool
	}{
		{"number cell", domain.NumberCell(12.5), 12.5, true},
		{"numeric text", domain.StringCell("42"), 42, true},
		{"padded text", domain.StringCell("  7.25 "), 7.25, true},
		{"thousands separator", domain.StringCell("1,234.5"), 1234.5, true},
		{"negative", domain.StringCell("-3"), -3, true},
		{"zero", domain.StringCell("0"), 0, true},
		{"en dash", domain.StringCell("–"), 0, false},
		{"em dash", domain.StringCell("—"), 0, false},
		{"not available", domain.StringCell("NA"), 0, false},
		{"words", domain.StringCell("n/a"), 0, false},
		{"nan text", domain.StringCell("NaN"), 0, false},
		{"empty", domain.EmptyCell(), 0, false},
		{"nan number", domain.NumberCell(math.NaN()), 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := CoerceValue(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClean_LeavesCompleteGroupsUnchanged(t *testing.T) {
	table := longTable(
		rec("Goa", "2014-15", domain.StringCell("10")),
		rec("Goa", "2015-16", domain.StringCell("20")),
		rec("Assam", "2014-15", domain.StringCell("5.5")),
	)

	cleaned, anomalies := NewGroupMeanImputer().Clean(table)
	assert.Empty(t, anomalies)
	require.Len(t, cleaned.Records, 3)
	assert.Equal(t, 10.0, cleaned.Records[0].Value)
	assert.Equal(t, 20.0, cleaned.Records[1].Value)
	assert.Equal(t, 5.5, cleaned.Records[2].Value)
	for _, r := range cleaned.Records {
		assert.False(t, r.Imputed)
	}
	assert.Equal(t, 0, cleaned.Summary.Imputed)
}

func TestClean_ImputesZeroAndMissingWithStateMean(t *testing.T) {
	table := longTable(
		rec("Bihar", "2014-15", domain.StringCell("10")),
		rec("Bihar", "2015-16", domain.StringCell("0")),
		rec("Bihar", "2016-17", domain.EmptyCell()),
		rec("Kerala", "2014-15", domain.StringCell("4")),
		rec("Kerala", "2015-16", domain.StringCell("8")),
		rec("Kerala", "2016-17", domain.StringCell("–")),
	)

	cleaned, anomalies := NewGroupMeanImputer().Clean(table)
	require.Len(t, cleaned.Records, 6)

	for i := 0; i < 3; i++ {
		assert.Equal(t, 10.0, cleaned.Records[i].Value, "Bihar record %d", i)
	}
	assert.False(t, cleaned.Records[0].Imputed)
	assert.True(t, cleaned.Records[1].Imputed)
	assert.True(t, cleaned.Records[2].Imputed)

	assert.Equal(t, 6.0, cleaned.Records[5].Value)
	assert.True(t, cleaned.Records[5].Imputed)

	// only the dash is a coercion anomaly, the blank cell is plain missing
	require.Len(t, anomalies, 1)
	assert.Equal(t, domain.AnomalyNumericCoercion, anomalies[0].Kind)
	assert.Equal(t, "Kerala", anomalies[0].State)
	assert.Equal(t, []domain.AnomalyKind{domain.AnomalyNumericCoercion}, cleaned.Records[5].Anomalies)
	assert.Equal(t, 3, cleaned.Summary.Imputed)
}

func TestClean_UndefinedGroupMeanStaysNaN(t *testing.T) {
	table := longTable(
		rec("Sikkim", "2014-15", domain.StringCell("0")),
		rec("Sikkim", "2015-16", domain.EmptyCell()),
		rec("Goa", "2014-15", domain.StringCell("3")),
	)

	cleaned, anomalies := NewGroupMeanImputer().Clean(table)
	require.Len(t, cleaned.Records, 3)

	assert.True(t, math.IsNaN(cleaned.Records[0].Value))
	assert.True(t, math.IsNaN(cleaned.Records[1].Value))
	assert.Contains(t, cleaned.Records[0].Anomalies, domain.AnomalyUndefinedGroupMean)

	undefined := 0
	for _, a := range anomalies {
		if a.Kind == domain.AnomalyUndefinedGroupMean {
			undefined++
			assert.Equal(t, "Sikkim", a.State)
		}
	}
	assert.Equal(t, 2, undefined)
	assert.Equal(t, 2, cleaned.Summary.NonFinite)
	assert.Equal(t, 3.0, cleaned.Summary.Mean)
}

func TestClean_DropsUnstandardizableYears(t *testing.T) {
	table := longTable(
		rec("Goa", "2014-15 (RE)", domain.StringCell("1")),
		rec("Goa", "Total", domain.StringCell("100")),
		domain.NormalizedRecord{Category: "Aggregate_expenditure", State: "Goa", Year: domain.NumberCell(2016), Value: domain.StringCell("7")},
	)

	cleaned, _ := NewGroupMeanImputer().Clean(table)
	require.Len(t, cleaned.Records, 1)
	assert.Equal(t, "2014-15", cleaned.Records[0].Year)
	assert.Equal(t, 2, cleaned.Summary.DroppedYears)
}

func TestClean_MeansIgnoreDroppedYears(t *testing.T) {
	// the "Total" column must not feed the state mean
	table := longTable(
		rec("Goa", "2014-15", domain.StringCell("2")),
		rec("Goa", "2015-16", domain.StringCell("0")),
		rec("Goa", "Total", domain.StringCell("1000")),
	)

	cleaned, _ := NewGroupMeanImputer().Clean(table)
	require.Len(t, cleaned.Records, 2)
	assert.Equal(t, 2.0, cleaned.Records[1].Value)
}

func TestDeduplicate(t *testing.T) {
	records := []domain.CleanRecord{
		{Category: "C", State: "Goa", Year: "2014-15", Value: 1},
		{Category: "C", State: "Assam", Year: "2014-15", Value: 2},
		{Category: "C", State: "Goa", Year: "2014-15", Value: 1},
		{Category: "C", State: "Goa", Year: "2014-15", Value: 1.5},
		{Category: "C", State: "Tripura", Year: "2014-15", Value: math.NaN()},
		{Category: "C", State: "Tripura", Year: "2014-15", Value: math.NaN()},
	}

	out, removed := Deduplicate(records)
	assert.Equal(t, 2, removed)
	require.Len(t, out, 4)
	assert.Equal(t, "Goa", out[0].State)
	assert.Equal(t, "Assam", out[1].State)
	assert.Equal(t, 1.5, out[2].Value)
	assert.Equal(t, "Tripura", out[3].State)
}

func TestClean_DeduplicatesAfterImputation(t *testing.T) {
	// the zero becomes 5 and then duplicates the first record
	table := longTable(
		rec("Goa", "2014-15", domain.StringCell("5")),
		rec("Goa", "2014-15", domain.StringCell("0")),
	)

	cleaned, _ := NewGroupMeanImputer().Clean(table)
	require.Len(t, cleaned.Records, 1)
	assert.False(t, cleaned.Records[0].Imputed)
	assert.Equal(t, 1, cleaned.Summary.Duplicates)
}

func TestClean_EmptyTable(t *testing.T) {
	cleaned, anomalies := NewGroupMeanImputer().Clean(longTable())
	assert.Empty(t, cleaned.Records)
	assert.Empty(t, anomalies)
	assert.Equal(t, "Aggregate_expenditure", cleaned.Category)
}

func TestGroupMeans(t *testing.T) {
	records := []domain.CleanRecord{
		{State: "Goa", Value: 2},
		{State: "Goa", Value: 4},
		{State: "Goa", Value: 0},
		{State: "Goa", Value: math.NaN()},
		{State: "Assam", Value: 0},
	}

	means := GroupMeans(records)
	assert.Equal(t, 3.0, means["Goa"])
	require.Contains(t, means, "Assam")
	assert.True(t, math.IsNaN(means["Assam"]))
}
