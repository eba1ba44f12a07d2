package dataprocessing

import (
	"math"
	"strconv"
	"strings"

	"github.com/montanaflynn/stats"

	"expenditure/pkg/contracts/domain"
)

// placeholders are the "not available" markers used in the source sheets
var placeholders = map[string]bool{
	"–":    true,
	"—":    true,
	"-":    true,
	"NA":   true,
	"N.A.": true,
	"n.a.": true,
}

// CoerceValue converts a cell to a finite number.
// Empty cells, placeholders and unparsable text report ok=false.
func CoerceValue(c domain.Cell) (float64, bool) {
	switch c.Kind {
	case domain.CellNumber:
		if math.IsNaN(c.Number) || math.IsInf(c.Number, 0) {
			return 0, false
		}
		return c.Number, true
	case domain.CellString:
		text := strings.TrimSpace(c.Text)
		if text == "" || placeholders[text] {
			return 0, false
		}
		f, err := strconv.ParseFloat(strings.ReplaceAll(text, ",", ""), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// GroupMeanImputer repairs missing and zero observations with the mean of the
// state's usable observations and removes exact duplicates afterwards.
type GroupMeanImputer struct{}

// NewGroupMeanImputer creates a new imputer
func NewGroupMeanImputer() *GroupMeanImputer {
	return &GroupMeanImputer{}
}

// Clean standardizes years, coerces values, imputes and deduplicates.
// It never fails: anomalies are attached to records and also returned.
func (p *GroupMeanImputer) Clean(table *domain.NormalizedTable) (*domain.CleanedTable, []domain.Anomaly) {
	standardized, droppedYears := StandardizeYears(table)

	records, anomalies := p.Coerce(standardized)
	records, imputeAnomalies := p.Impute(records)
	anomalies = append(anomalies, imputeAnomalies...)
	records, duplicates := Deduplicate(records)

	summary := Summarize(records)
	summary.DroppedYears = droppedYears
	summary.Duplicates = duplicates

	return &domain.CleanedTable{
		Category: table.Category,
		Source:   table.Source,
		Records:  records,
		Summary:  summary,
	}, anomalies
}

// Coerce converts every record to a CleanRecord. Values that are not numeric
// become NaN, which marks them as missing for Impute.
// Year labels are expected to be standardized already.
func (p *GroupMeanImputer) Coerce(table *domain.NormalizedTable) ([]domain.CleanRecord, []domain.Anomaly) {
	records := make([]domain.CleanRecord, 0, len(table.Records))
	var anomalies []domain.Anomaly

	for _, rec := range table.Records {
		out := domain.CleanRecord{
			Category: rec.Category,
			State:    rec.State,
			Year:     rec.Year.String(),
		}
		value, ok := CoerceValue(rec.Value)
		if ok {
			out.Value = value
		} else {
			out.Value = math.NaN()
			if !rec.Value.IsEmpty() {
				a := domain.Anomaly{
					Kind:     domain.AnomalyNumericCoercion,
					Category: rec.Category,
					State:    rec.State,
					Year:     out.Year,
					Detail:   rec.Value.String(),
				}
				out.Anomalies = append(out.Anomalies, a.Kind)
				anomalies = append(anomalies, a)
			}
		}
		records = append(records, out)
	}
	return records, anomalies
}

// GroupMeans returns the mean of the finite, non-zero values of each state.
// A state without any such value maps to NaN.
func GroupMeans(records []domain.CleanRecord) map[string]float64 {
	groups := make(map[string][]float64)
	for _, rec := range records {
		if _, seen := groups[rec.State]; !seen {
			groups[rec.State] = nil
		}
		if isMissingOrZero(rec.Value) {
			continue
		}
		groups[rec.State] = append(groups[rec.State], rec.Value)
	}

	means := make(map[string]float64, len(groups))
	for state, values := range groups {
		mean, err := stats.Mean(values)
		if err != nil {
			mean = math.NaN()
		}
		means[state] = mean
	}
	return means
}

// Impute replaces missing and zero values with the state's group mean.
// Means are computed once up front so no replacement sees imputed data.
// Records whose state has no usable value keep NaN and carry an
// UndefinedGroupMean anomaly.
func (p *GroupMeanImputer) Impute(records []domain.CleanRecord) ([]domain.CleanRecord, []domain.Anomaly) {
	means := GroupMeans(records)
	out := make([]domain.CleanRecord, len(records))
	var anomalies []domain.Anomaly

	for i, rec := range records {
		if isMissingOrZero(rec.Value) {
			rec.Value = means[rec.State]
			rec.Imputed = true
			if math.IsNaN(rec.Value) {
				a := domain.Anomaly{
					Kind:     domain.AnomalyUndefinedGroupMean,
					Category: rec.Category,
					State:    rec.State,
					Year:     rec.Year,
				}
				rec.Anomalies = append(append([]domain.AnomalyKind(nil), rec.Anomalies...), a.Kind)
				anomalies = append(anomalies, a)
			}
		}
		out[i] = rec
	}
	return out, anomalies
}

// Deduplicate removes records whose category, state, year and value equal an
// earlier record. It returns the kept records and the number removed.
func Deduplicate(records []domain.CleanRecord) ([]domain.CleanRecord, int) {
	seen := make(map[string]struct{}, len(records))
	out := make([]domain.CleanRecord, 0, len(records))
	for _, rec := range records {
		key := rec.Key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, rec)
	}
	return out, len(records) - len(out)
}

func isMissingOrZero(v float64) bool {
	return math.IsNaN(v) || v == 0
}
