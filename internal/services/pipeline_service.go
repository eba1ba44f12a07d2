package services

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"expenditure/internal/config"
	"expenditure/internal/dataprocessing"
	"expenditure/internal/exporter"
	"expenditure/internal/files"
	"expenditure/internal/infrastructure"
	"expenditure/internal/operations"
	"expenditure/pkg/contracts/domain"
)

// TableStore is the relational sink the pipeline loads cleaned tables into
type TableStore interface {
	ReplaceCategory(ctx context.Context, table *domain.CleanedTable) error
}

// PipelineOptions wires the optional collaborators of a PipelineService
type PipelineOptions struct {
	Store   TableStore
	Metrics *infrastructure.PipelineMetrics
	Sink    operations.DiagnosticsSink
	Logger  *slog.Logger
}

// PipelineService runs a batch over the raw directory and writes its outputs
type PipelineService struct {
	pipeline  config.PipelineConfig
	paths     *config.Paths
	discovery *files.Discovery
	reader    *files.GridReader
	cleaner   operations.Cleaner
	exporter  *exporter.DatasetExporter
	store     TableStore
	metrics   *infrastructure.PipelineMetrics
	sink      operations.DiagnosticsSink
	logger    *slog.Logger
}

// NewPipelineService creates a pipeline service over the resolved paths
func NewPipelineService(cfg config.PipelineConfig, paths *config.Paths, opts PipelineOptions) *PipelineService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("PipelineService initialized",
		slog.String("raw_dir", paths.RawDir),
		slog.String("cleaned_dir", paths.CleanedDir),
		slog.Int("workers", cfg.Workers),
		slog.Bool("database", opts.Store != nil))

	return &PipelineService{
		pipeline:  cfg,
		paths:     paths,
		discovery: files.NewDiscovery(paths.BaseDir),
		reader:    files.NewGridReader(files.ReaderOptions{Encoding: cfg.Encoding, Sheet: cfg.Sheet}),
		cleaner:   dataprocessing.NewGroupMeanImputer(),
		exporter:  exporter.NewDatasetExporter(paths, cfg.ExcelBOM, logger),
		store:     opts.Store,
		metrics:   opts.Metrics,
		sink:      opts.Sink,
		logger:    infrastructure.WithComponent(logger, "pipeline_service"),
	}
}

// Run discovers raw files, runs the batch and persists every cleaned table.
// Output failures are appended to the report; only an unreadable raw
// directory or uncreatable output directories fail the run.
func (s *PipelineService) Run(ctx context.Context, req domain.RunRequest) (*operations.BatchResult, error) {
	if err := s.paths.EnsureDirectories(); err != nil {
		return nil, err
	}

	paths, err := s.Discover(req.Categories)
	if err != nil {
		return nil, err
	}

	workers := s.pipeline.Workers
	if req.Workers > 0 {
		workers = req.Workers
	}

	batch := operations.NewBatch(s.reader, s.cleaner, operations.BatchOptions{
		Workers: workers,
		Logger:  s.logger,
		Sink:    s.sink,
		Metrics: s.metrics,
	})
	result := batch.Run(ctx, paths)

	s.writeOutputs(ctx, result)

	s.logger.InfoContext(ctx, "Pipeline run finished",
		slog.Int("files", len(paths)),
		slog.Int("tables", len(result.Tables)),
		slog.Int("skipped", len(result.Report.Skipped)))
	return result, nil
}

// Discover lists the raw files to process, in name order. A non-empty
// categories list overrides the configured allow-list.
func (s *PipelineService) Discover(categories []string) ([]string, error) {
	if len(categories) == 0 {
		categories = s.pipeline.Categories
	}

	extensions := s.pipeline.Extensions
	if len(extensions) == 0 {
		extensions = files.DefaultRawExtensions
	}

	found, err := s.discovery.FindRawFiles(s.paths.RawDir, extensions, categoryFilter(categories))
	if err != nil {
		return nil, fmt.Errorf("failed to list raw files: %w", err)
	}

	paths := make([]string, 0, len(found))
	for _, f := range found {
		paths = append(paths, f.Path)
	}
	return paths, nil
}

// categoryFilter accepts filenames whose category is in the allow-list.
// An empty list accepts everything.
func categoryFilter(categories []string) func(name string) bool {
	if len(categories) == 0 {
		return nil
	}
	allowed := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		allowed[strings.ToLower(dataprocessing.CategoryName(strings.TrimSpace(c)))] = struct{}{}
	}
	return func(name string) bool {
		_, ok := allowed[strings.ToLower(dataprocessing.CategoryName(name))]
		return ok
	}
}

// writeOutputs writes transformed, cleaned and combined files and loads the
// store. The tables written are the ones that ended up in result.Tables.
func (s *PipelineService) writeOutputs(ctx context.Context, result *operations.BatchResult) {
	for _, outcome := range result.Outcomes {
		if outcome.Skipped() || result.Tables[outcome.Category] != outcome.Table {
			continue
		}

		if s.pipeline.WriteTransformed && outcome.Normalized != nil {
			if _, err := s.exporter.ExportTransformed(outcome.Normalized); err != nil {
				s.outputFailed(ctx, result, outcome.Filename, err)
			}
		}

		if _, err := s.exporter.ExportCleaned(outcome.Table); err != nil {
			s.outputFailed(ctx, result, outcome.Filename, err)
		}

		if s.store != nil {
			if err := s.store.ReplaceCategory(ctx, outcome.Table); err != nil {
				s.outputFailed(ctx, result, outcome.Filename, err)
			}
		}
	}

	if s.pipeline.WriteCombined && len(result.Order) > 0 {
		if _, err := s.exporter.ExportCombined(result.Ordered()); err != nil {
			s.outputFailed(ctx, result, filepath.Base(s.paths.GetCombinedPath()), err)
		}
	}
}

func (s *PipelineService) outputFailed(ctx context.Context, result *operations.BatchResult, filename string, err error) {
	result.Report.Skip(filename, domain.SkipOutput, fmt.Sprintf("%s: %v", domain.SkipOutput, err))
	s.metrics.RecordSkip(ctx, string(domain.SkipOutput))
	s.logger.ErrorContext(ctx, "Failed to write output",
		slog.String("file", filename),
		slog.String("error", err.Error()))
}
