package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"sort"
	"strings"

	"expenditure/internal/config"
	"expenditure/internal/dataprocessing"
	"expenditure/internal/files"
	"expenditure/internal/storage"
	"expenditure/pkg/contracts/domain"
)

// CategoryStore is the read side of the relational sink
type CategoryStore interface {
	Categories(ctx context.Context) ([]storage.CategorySummary, error)
	Records(ctx context.Context, category string) ([]storage.Record, error)
}

// CategoryInfo describes one available cleaned category
type CategoryInfo struct {
	Category string `json:"category"`
	Records  int    `json:"records"`
	States   int    `json:"states"`
	Years    int    `json:"years"`
	Imputed  int    `json:"imputed"`
	Source   string `json:"source"`
}

// DataService serves cleaned categories. It reads the database when one is
// configured and the cleaned output files otherwise.
type DataService struct {
	store     CategoryStore
	paths     *config.Paths
	discovery *files.Discovery
	reader    *files.GridReader
	logger    *slog.Logger
}

// NewDataService creates a data service; store may be nil
func NewDataService(paths *config.Paths, store CategoryStore, logger *slog.Logger) *DataService {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("DataService initialized",
		slog.String("cleaned_dir", paths.CleanedDir),
		slog.Bool("database", store != nil))

	return &DataService{
		store:     store,
		paths:     paths,
		discovery: files.NewDiscovery(paths.BaseDir),
		reader:    files.NewGridReader(files.ReaderOptions{}),
		logger:    logger.With(slog.String("component", "data_service")),
	}
}

// ListCategories returns the available categories sorted by name
func (ds *DataService) ListCategories(ctx context.Context) ([]CategoryInfo, error) {
	if ds.store != nil {
		summaries, err := ds.store.Categories(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]CategoryInfo, 0, len(summaries))
		for _, s := range summaries {
			out = append(out, CategoryInfo{
				Category: s.Category,
				Records:  s.Records,
				States:   s.States,
				Years:    s.Years,
				Imputed:  s.Imputed,
				Source:   "database",
			})
		}
		return out, nil
	}

	found, err := ds.discovery.FindCSVFiles(ds.paths.CleanedDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []CategoryInfo{}, nil
		}
		return nil, err
	}

	out := make([]CategoryInfo, 0, len(found))
	for _, f := range found {
		if !strings.HasSuffix(f.Name, config.CleanedSuffix) {
			continue
		}
		category := strings.TrimSuffix(f.Name, config.CleanedSuffix)
		records, err := ds.readCleaned(category)
		if err != nil {
			ds.logger.WarnContext(ctx, "Skipping unreadable cleaned file",
				slog.String("file", f.Name),
				slog.String("error", err.Error()))
			continue
		}
		summary := dataprocessing.Summarize(records)
		out = append(out, CategoryInfo{
			Category: category,
			Records:  summary.Records,
			States:   summary.States,
			Years:    summary.Years,
			Source:   "file",
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out, nil
}

// GetCategory returns the cleaned records of one category in output order.
// Values that could not be imputed are NaN.
func (ds *DataService) GetCategory(ctx context.Context, category string) ([]domain.CleanRecord, error) {
	if category == "" {
		return nil, fmt.Errorf("%w: empty category", ErrInvalidInput)
	}

	if ds.store != nil {
		stored, err := ds.store.Records(ctx, category)
		if err != nil {
			if errors.Is(err, storage.ErrCategoryNotFound) {
				return nil, fmt.Errorf("%w: %s", ErrCategoryNotFound, category)
			}
			return nil, err
		}
		out := make([]domain.CleanRecord, 0, len(stored))
		for _, r := range stored {
			value := math.NaN()
			if r.Value.Valid {
				value = r.Value.Float64
			}
			out = append(out, domain.CleanRecord{
				Category: r.Category,
				State:    r.State,
				Year:     r.Year,
				Value:    value,
				Imputed:  r.Imputed,
			})
		}
		return out, nil
	}

	if strings.ContainsAny(category, `/\`) || strings.Contains(category, "..") {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, category)
	}

	records, err := ds.readCleaned(category)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrCategoryNotFound, category)
		}
		return nil, err
	}
	return records, nil
}

// readCleaned parses a cleaned output file back into records
func (ds *DataService) readCleaned(category string) ([]domain.CleanRecord, error) {
	path := ds.paths.GetCleanedPath(category)
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}

	grid, err := ds.reader.ReadGrid(path)
	if err != nil {
		return nil, err
	}
	if len(grid.Rows) == 0 {
		return nil, fmt.Errorf("%w: %s has no header", ErrInvalidFileType, path)
	}

	records := make([]domain.CleanRecord, 0, len(grid.Rows)-1)
	for _, row := range grid.Rows[1:] {
		if len(row) < 3 {
			continue
		}
		value, ok := dataprocessing.CoerceValue(row[2])
		if !ok {
			value = math.NaN()
		}
		records = append(records, domain.CleanRecord{
			Category: category,
			State:    row[0].String(),
			Year:     row[1].String(),
			Value:    value,
		})
	}
	return records, nil
}
