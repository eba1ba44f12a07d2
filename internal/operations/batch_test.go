package operations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expenditure/internal/dataprocessing"
	"expenditure/internal/files"
	"expenditure/internal/shared/testutil"
	"expenditure/pkg/contracts/domain"
)

// stubReader serves grids from memory keyed by base name
type stubReader struct {
	grids map[string][][]string
	fail  map[string]error
}

func (r *stubReader) ReadGrid(path string) (*domain.RawGrid, error) {
	name := filepath.Base(path)
	if err, ok := r.fail[name]; ok {
		return nil, err
	}
	rows, ok := r.grids[name]
	if !ok {
		return nil, fmt.Errorf("no such file: %s", name)
	}
	return domain.NewRawGrid(name, rows), nil
}

func anchorOnLastRow() [][]string {
	return [][]string{{"Note"}, {"States", "2019-20"}}
}

func TestBatchIsolatesFailingFile(t *testing.T) {
	reader := &stubReader{grids: map[string][][]string{
		"Education.csv": testutil.ExpenditureSheet(),
		"Health.csv":    testutil.SheetWithoutAnchor(),
		"Roads.csv":     testutil.ExpenditureSheet(),
	}}
	logger, handler := testutil.NewTestLogger(t)

	batch := NewBatch(reader, dataprocessing.NewGroupMeanImputer(), BatchOptions{Logger: logger})
	result := batch.Run(context.Background(), []string{"raw/Education.csv", "raw/Health.csv", "raw/Roads.csv"})

	require.Len(t, result.Tables, 2)
	assert.Equal(t, []string{"Education", "Roads"}, result.Order)
	require.Len(t, result.Report.Skipped, 1)
	assert.Equal(t, "Health.csv", result.Report.Skipped[0].Filename)
	assert.Equal(t, domain.SkipAnchorNotFound, result.Report.Skipped[0].Kind)
	assert.Contains(t, result.Report.Skipped[0].Reason, "AnchorNotFound")

	testutil.AssertLogContains(t, handler, slog.LevelWarn, "File skipped")
	testutil.AssertLogAttr(t, handler, "component", "batch")
	testutil.AssertNoErrors(t, handler)
}

func TestBatchCleansTables(t *testing.T) {
	reader := &stubReader{grids: map[string][][]string{"Education.csv": testutil.ExpenditureSheet()}}

	result := NewBatch(reader, dataprocessing.NewGroupMeanImputer(), BatchOptions{}).
		Run(context.Background(), []string{"Education.csv"})

	table := result.Tables["Education"]
	require.NotNil(t, table)
	assert.Equal(t, "Education.csv", table.Source)
	assert.Len(t, table.Records, 6)
	assert.Equal(t, 3, table.Summary.Imputed)

	// "–" is recorded as a coercion anomaly
	require.Len(t, result.Report.Anomalies, 1)
	assert.Equal(t, domain.AnomalyNumericCoercion, result.Report.Anomalies[0].Kind)
	assert.Equal(t, "Goa", result.Report.Anomalies[0].State)

	outcome := result.Outcomes[0]
	assert.False(t, outcome.Skipped())
	require.NotNil(t, outcome.Normalized)
	assert.Equal(t, 6, outcome.Normalized.Len())
}

func TestBatchSkipKinds(t *testing.T) {
	reader := &stubReader{
		grids: map[string][][]string{
			"Anchorless.csv": testutil.SheetWithoutAnchor(),
			"Lastrow.csv":    anchorOnLastRow(),
		},
		fail: map[string]error{"Broken.xlsx": errors.New("zip: not a valid zip file")},
	}

	result := NewBatch(reader, dataprocessing.NewGroupMeanImputer(), BatchOptions{}).
		Run(context.Background(), []string{"Anchorless.csv", "Broken.xlsx", "Lastrow.csv"})

	assert.Empty(t, result.Tables)
	require.Len(t, result.Report.Skipped, 3)
	assert.Equal(t, domain.SkipAnchorNotFound, result.Report.Skipped[0].Kind)
	assert.Equal(t, domain.SkipLoading, result.Report.Skipped[1].Kind)
	assert.Contains(t, result.Report.Skipped[1].Reason, "not a valid zip")
	assert.Equal(t, domain.SkipStructuring, result.Report.Skipped[2].Kind)
}

func TestBatchParallelMatchesSequential(t *testing.T) {
	grids := map[string][][]string{}
	var paths []string
	for i := 0; i < 12; i++ {
		name := fmt.Sprintf("Category %02d.csv", i)
		switch i % 3 {
		case 1:
			grids[name] = testutil.SheetWithoutAnchor()
		case 2:
			grids[name] = anchorOnLastRow()
		default:
			grids[name] = testutil.ExpenditureSheet()
		}
		paths = append(paths, name)
	}
	reader := &stubReader{grids: grids}

	var seqOrder, parOrder []string
	seq := NewBatch(reader, dataprocessing.NewGroupMeanImputer(), BatchOptions{
		Sink: func(o FileOutcome) { seqOrder = append(seqOrder, o.Filename) },
	}).Run(context.Background(), paths)
	par := NewBatch(reader, dataprocessing.NewGroupMeanImputer(), BatchOptions{
		Workers: 4,
		Sink:    func(o FileOutcome) { parOrder = append(parOrder, o.Filename) },
	}).Run(context.Background(), paths)

	assert.Equal(t, paths, seqOrder)
	assert.Equal(t, seqOrder, parOrder)
	assert.Equal(t, seq.Report.Skipped, par.Report.Skipped)
	assert.Equal(t, seq.Order, par.Order)
	for category, table := range seq.Tables {
		assert.Equal(t, table.Records, par.Tables[category].Records, category)
	}
}

func TestBatchCancelledContext(t *testing.T) {
	reader := &stubReader{grids: map[string][][]string{"Education.csv": testutil.ExpenditureSheet()}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := NewBatch(reader, dataprocessing.NewGroupMeanImputer(), BatchOptions{}).
		Run(ctx, []string{"Education.csv"})

	assert.Empty(t, result.Tables)
	require.Len(t, result.Report.Skipped, 1)
	assert.Equal(t, domain.SkipLoading, result.Report.Skipped[0].Kind)
	assert.Contains(t, result.Report.Skipped[0].Reason, context.Canceled.Error())
}

func TestBatchDuplicateCategory(t *testing.T) {
	reader := &stubReader{grids: map[string][][]string{
		"Health.csv":  testutil.ExpenditureSheet(),
		"health.xlsx": {{"States", "2019-20"}, {"1. Kerala", "3"}},
	}}

	result := NewBatch(reader, dataprocessing.NewGroupMeanImputer(), BatchOptions{}).
		Run(context.Background(), []string{"Health.csv", "health.xlsx"})

	assert.Equal(t, []string{"Health"}, result.Order)
	assert.Equal(t, "health.xlsx", result.Tables["Health"].Source)
	assert.Len(t, result.Ordered(), 1)
}

func TestBatchEmpty(t *testing.T) {
	result := NewBatch(&stubReader{}, dataprocessing.NewGroupMeanImputer(), BatchOptions{Workers: 3}).
		Run(context.Background(), nil)

	assert.Empty(t, result.Tables)
	assert.NotNil(t, result.Report)
	assert.Empty(t, result.Report.Skipped)
}

func TestBatchWithFileReader(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		testutil.WriteCSV(t, dir, "Education.csv", testutil.ExpenditureSheet()),
		testutil.WriteWorkbook(t, dir, "Health.xlsx", testutil.ExpenditureSheet()),
		testutil.WriteWorkbook(t, dir, "Roads.xlsx", testutil.SheetWithoutAnchor()),
	}

	reader := files.NewGridReader(files.ReaderOptions{})
	result := NewBatch(reader, dataprocessing.NewGroupMeanImputer(), BatchOptions{Workers: 2}).
		Run(context.Background(), paths)

	require.Len(t, result.Tables, 2)
	csvRecords := result.Tables["Education"].Records
	xlsxRecords := result.Tables["Health"].Records
	require.Len(t, xlsxRecords, len(csvRecords))
	for i := range csvRecords {
		assert.Equal(t, csvRecords[i].State, xlsxRecords[i].State)
		assert.Equal(t, csvRecords[i].Year, xlsxRecords[i].Year)
		assert.Equal(t, csvRecords[i].Value, xlsxRecords[i].Value)
	}
	require.Len(t, result.Report.Skipped, 1)
	assert.Equal(t, "Roads.xlsx", result.Report.Skipped[0].Filename)
}

func TestSkipKindFor(t *testing.T) {
	assert.Equal(t, domain.SkipAnchorNotFound, SkipKindFor(&dataprocessing.AnchorNotFoundError{Source: "x"}))
	assert.Equal(t, domain.SkipStructuring, SkipKindFor(fmt.Errorf("wrapped: %w", &dataprocessing.StructuringError{})))
	assert.Equal(t, domain.SkipLoading, SkipKindFor(errors.New("disk")))
}
