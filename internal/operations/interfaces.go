package operations

import (
	"context"

	"expenditure/pkg/contracts/domain"
)

// GridReader loads one raw file
type GridReader interface {
	ReadGrid(path string) (*domain.RawGrid, error)
}

// Cleaner turns a normalized table into a cleaned one. Implementations never fail.
type Cleaner interface {
	Clean(table *domain.NormalizedTable) (*domain.CleanedTable, []domain.Anomaly)
}

// DiagnosticsSink receives every file outcome in listing order, from a single goroutine
type DiagnosticsSink func(outcome FileOutcome)

// RunFunc executes one batch for a run request
type RunFunc func(ctx context.Context, req domain.RunRequest) (*BatchResult, error)
