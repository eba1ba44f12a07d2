package exporter

import (
	"fmt"
	"log/slog"
	"math"
	"strconv"

	"expenditure/internal/config"
	"expenditure/pkg/contracts/domain"
)

// Column headers of the long-format outputs
var (
	recordHeaders   = []string{domain.ColumnState, domain.ColumnYear, domain.ColumnValue}
	combinedHeaders = []string{domain.ColumnState, domain.ColumnYear, domain.ColumnValue, domain.ColumnCategory}
)

// DatasetExporter writes per-category and combined expenditure files
type DatasetExporter struct {
	writer *CSVWriter
	paths  *config.Paths
	bom    bool
	logger *slog.Logger
}

// NewDatasetExporter creates an exporter rooted at the given paths. With bom
// set every file starts with a UTF-8 byte order mark so Excel detects the
// encoding.
func NewDatasetExporter(paths *config.Paths, bom bool, logger *slog.Logger) *DatasetExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &DatasetExporter{
		writer: NewCSVWriter(logger),
		paths:  paths,
		bom:    bom,
		logger: logger.With(slog.String("component", "dataset_exporter")),
	}
}

// ExportTransformed writes the melted table with raw labels and values.
// It returns the path written.
func (e *DatasetExporter) ExportTransformed(table *domain.NormalizedTable) (string, error) {
	path := e.paths.GetTransformedPath(table.Category)

	records := make([][]string, 0, len(table.Records))
	for _, rec := range table.Records {
		records = append(records, []string{rec.State, rec.Year.String(), rec.Value.String()})
	}

	if err := e.writer.WriteCSV(path, WriteOptions{Headers: recordHeaders, Records: records, BOMPrefix: e.bom}); err != nil {
		return "", fmt.Errorf("failed to export transformed %s: %w", table.Category, err)
	}

	e.logger.Info("Exported transformed table",
		slog.String("category", table.Category),
		slog.String("path", path),
		slog.Int("records", len(records)))
	return path, nil
}

// ExportCleaned writes the cleaned table. Undefined values are left blank.
func (e *DatasetExporter) ExportCleaned(table *domain.CleanedTable) (string, error) {
	path := e.paths.GetCleanedPath(table.Category)

	records := make([][]string, 0, len(table.Records))
	for _, rec := range table.Records {
		records = append(records, []string{rec.State, rec.Year, FormatValue(rec.Value)})
	}

	if err := e.writer.WriteCSV(path, WriteOptions{Headers: recordHeaders, Records: records, BOMPrefix: e.bom}); err != nil {
		return "", fmt.Errorf("failed to export cleaned %s: %w", table.Category, err)
	}

	e.logger.Info("Exported cleaned table",
		slog.String("category", table.Category),
		slog.String("path", path),
		slog.Int("records", len(records)))
	return path, nil
}

// ExportCombined concatenates cleaned tables, in the order given, into one
// file tagged with each record's category.
func (e *DatasetExporter) ExportCombined(tables []*domain.CleanedTable) (string, error) {
	path := e.paths.GetCombinedPath()

	stream, err := e.writer.CreateStreamWriter(path, combinedHeaders, e.bom)
	if err != nil {
		return "", fmt.Errorf("failed to export combined dataset: %w", err)
	}

	for _, table := range tables {
		for _, rec := range table.Records {
			row := []string{rec.State, rec.Year, FormatValue(rec.Value), table.Category}
			if err := stream.WriteRecord(row); err != nil {
				stream.Close()
				return "", fmt.Errorf("failed to write combined record: %w", err)
			}
		}
	}

	if err := stream.Close(); err != nil {
		return "", fmt.Errorf("failed to close combined dataset: %w", err)
	}

	e.logger.Info("Exported combined dataset",
		slog.String("path", path),
		slog.Int("tables", len(tables)),
		slog.Int("records", stream.Count()))
	return path, nil
}

// FormatValue renders a value with the shortest exact representation; NaN and
// infinities become an empty field.
func FormatValue(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
