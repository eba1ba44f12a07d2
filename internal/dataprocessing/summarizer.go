package dataprocessing

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"expenditure/pkg/contracts/domain"
)

// Summarize computes record counts and the distribution of finite values.
// Distribution fields stay zero when the table has no finite value.
func Summarize(records []domain.CleanRecord) domain.TableSummary {
	summary := domain.TableSummary{Records: len(records)}

	states := make(map[string]struct{})
	years := make(map[string]struct{})
	finite := make([]float64, 0, len(records))

	for _, rec := range records {
		states[rec.State] = struct{}{}
		years[rec.Year] = struct{}{}
		if rec.Imputed {
			summary.Imputed++
		}
		if math.IsNaN(rec.Value) || math.IsInf(rec.Value, 0) {
			summary.NonFinite++
			continue
		}
		finite = append(finite, rec.Value)
	}
	summary.States = len(states)
	summary.Years = len(years)

	if len(finite) == 0 {
		return summary
	}

	summary.Min = floats.Min(finite)
	summary.Max = floats.Max(finite)
	if len(finite) == 1 {
		summary.Mean = finite[0]
		return summary
	}
	summary.Mean, summary.StdDev = stat.MeanStdDev(finite, nil)
	return summary
}
