package operations

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"expenditure/internal/dataprocessing"
	"expenditure/internal/infrastructure"
	"expenditure/pkg/contracts/domain"
)

// FileOutcome is the result of processing one file: exactly one of Table or
// Skip is set.
type FileOutcome struct {
	Filename   string
	Path       string
	Category   string
	Normalized *domain.NormalizedTable
	Table      *domain.CleanedTable
	Anomalies  []domain.Anomaly
	Skip       *domain.SkippedFile
	Duration   time.Duration
}

// Skipped reports whether the file ended up in the cleaning report
func (o FileOutcome) Skipped() bool {
	return o.Skip != nil
}

// BatchResult holds the successful tables and the report of one batch
type BatchResult struct {
	// Tables is keyed by category. A later file with the same category replaces an earlier one.
	Tables map[string]*domain.CleanedTable
	// Order lists categories by first appearance in the batch.
	Order    []string
	Outcomes []FileOutcome
	Report   *domain.CleaningReport
	Duration time.Duration
}

// Ordered returns the successful tables in listing order
func (r *BatchResult) Ordered() []*domain.CleanedTable {
	tables := make([]*domain.CleanedTable, 0, len(r.Order))
	for _, category := range r.Order {
		tables = append(tables, r.Tables[category])
	}
	return tables
}

// BatchOptions configures a Batch
type BatchOptions struct {
	Workers int
	Logger  *slog.Logger
	Sink    DiagnosticsSink
	Metrics *infrastructure.PipelineMetrics
}

// Batch applies the pipeline to a list of files
type Batch struct {
	reader  GridReader
	cleaner Cleaner
	workers int
	logger  *slog.Logger
	sink    DiagnosticsSink
	metrics *infrastructure.PipelineMetrics
}

// NewBatch creates a batch runner
func NewBatch(reader GridReader, cleaner Cleaner, opts BatchOptions) *Batch {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Batch{
		reader:  reader,
		cleaner: cleaner,
		workers: opts.Workers,
		logger:  infrastructure.WithComponent(opts.Logger, "batch"),
		sink:    opts.Sink,
		metrics: opts.Metrics,
	}
}

// Run processes every path and never fails. Per-file problems become
// cleaning report entries; a cancelled context skips the files not yet read.
func (b *Batch) Run(ctx context.Context, paths []string) *BatchResult {
	start := time.Now()
	ctx, span := traceBatch(ctx, len(paths), b.workers)
	defer span.End()

	b.logger.InfoContext(ctx, "Batch started",
		slog.Int("files", len(paths)),
		slog.Int("workers", b.workers))

	outcomes := make([]FileOutcome, len(paths))
	if b.workers == 1 || len(paths) < 2 {
		for i, path := range paths {
			outcomes[i] = b.processFile(ctx, path)
		}
	} else {
		g := new(errgroup.Group)
		g.SetLimit(b.workers)
		for i, path := range paths {
			g.Go(func() error {
				outcomes[i] = b.processFile(ctx, path)
				return nil
			})
		}
		_ = g.Wait()
	}

	result := b.collect(ctx, outcomes)
	result.Duration = time.Since(start)

	b.metrics.RecordBatch(ctx, result.Duration, len(paths))
	span.SetAttributes(
		attribute.Int("batch.tables", len(result.Tables)),
		attribute.Int("batch.skipped", len(result.Report.Skipped)),
	)
	b.logger.InfoContext(ctx, "Batch completed",
		slog.Int("tables", len(result.Tables)),
		slog.Int("skipped", len(result.Report.Skipped)),
		slog.Int("anomalies", len(result.Report.Anomalies)),
		slog.Duration("duration", result.Duration))

	return result
}

// collect merges outcomes in listing order. It is the only writer of the report.
func (b *Batch) collect(ctx context.Context, outcomes []FileOutcome) *BatchResult {
	result := &BatchResult{
		Tables:   make(map[string]*domain.CleanedTable),
		Outcomes: outcomes,
		Report:   &domain.CleaningReport{Skipped: []domain.SkippedFile{}},
	}

	for _, outcome := range outcomes {
		if outcome.Skipped() {
			result.Report.Skip(outcome.Skip.Filename, outcome.Skip.Kind, outcome.Skip.Reason)
			b.metrics.RecordSkip(ctx, string(outcome.Skip.Kind))
			b.logger.WarnContext(ctx, "File skipped",
				slog.String("file", outcome.Filename),
				slog.String("kind", string(outcome.Skip.Kind)),
				slog.String("reason", outcome.Skip.Reason))
		} else {
			if _, seen := result.Tables[outcome.Category]; !seen {
				result.Order = append(result.Order, outcome.Category)
			} else {
				b.logger.WarnContext(ctx, "Category produced by more than one file",
					slog.String("category", outcome.Category),
					slog.String("file", outcome.Filename))
			}
			result.Tables[outcome.Category] = outcome.Table
			result.Report.AddAnomalies(outcome.Anomalies...)
			b.metrics.RecordTable(ctx, outcome.Category,
				len(outcome.Table.Records), outcome.Table.Summary.Imputed, len(outcome.Anomalies))
			b.logger.InfoContext(ctx, "File cleaned",
				slog.String("file", outcome.Filename),
				slog.String("category", outcome.Category),
				slog.Int("records", len(outcome.Table.Records)),
				slog.Int("imputed", outcome.Table.Summary.Imputed),
				slog.Int("anomalies", len(outcome.Anomalies)),
				slog.Duration("duration", outcome.Duration))
		}

		if b.sink != nil {
			b.sink(outcome)
		}
	}

	return result
}

// processFile runs one file through read, normalize and clean
func (b *Batch) processFile(ctx context.Context, path string) (outcome FileOutcome) {
	filename := filepath.Base(path)
	outcome = FileOutcome{
		Filename: filename,
		Path:     path,
		Category: dataprocessing.CategoryName(filename),
	}

	ctx, span := traceFile(ctx, filename, outcome.Category)
	start := time.Now()
	defer func() {
		outcome.Duration = time.Since(start)
		endFile(span, outcome)
	}()

	if err := ctx.Err(); err != nil {
		outcome.Skip = skipEntry(filename, domain.SkipLoading, err)
		return outcome
	}

	grid, err := b.reader.ReadGrid(path)
	if err != nil {
		outcome.Skip = skipEntry(filename, domain.SkipLoading, err)
		return outcome
	}

	normalized, err := dataprocessing.Normalize(grid, outcome.Category)
	if err != nil {
		outcome.Skip = skipEntry(filename, SkipKindFor(err), err)
		return outcome
	}
	outcome.Normalized = normalized

	outcome.Table, outcome.Anomalies = b.cleaner.Clean(normalized)
	return outcome
}

func skipEntry(filename string, kind domain.SkipKind, err error) *domain.SkippedFile {
	return &domain.SkippedFile{
		Filename: filename,
		Kind:     kind,
		Reason:   fmt.Sprintf("%s: %v", kind, err),
	}
}
