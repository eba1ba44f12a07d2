package files

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"expenditure/pkg/contracts/domain"
)

// ReaderOptions configures how raw files are decoded
type ReaderOptions struct {
	// Encoding of CSV input: "utf8" (default) or "windows1252".
	// A UTF-8 or UTF-16 byte order mark always wins.
	Encoding string
	// Sheet to read from workbooks; empty means the first sheet.
	Sheet string
}

// GridReader loads raw files as headerless grids
type GridReader struct {
	opts ReaderOptions
}

// NewGridReader creates a reader with the given options
func NewGridReader(opts ReaderOptions) *GridReader {
	return &GridReader{opts: opts}
}

// ReadGrid loads the file at path. The grid's Source is the file's base name.
func (r *GridReader) ReadGrid(path string) (*domain.RawGrid, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open file: %w", err)
		}
		defer f.Close()
		return r.ReadCSV(filepath.Base(path), f)
	case ".xlsx", ".xlsm":
		return r.readWorkbook(path)
	default:
		return nil, fmt.Errorf("unsupported file type: %s", filepath.Ext(path))
	}
}

// ReadCSV decodes delimited text into a grid. Rows keep their own length.
func (r *GridReader) ReadCSV(source string, in io.Reader) (*domain.RawGrid, error) {
	decoded := transform.NewReader(in, unicode.BOMOverride(r.fallbackDecoder().NewDecoder()))

	reader := csv.NewReader(decoded)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv %s: %w", source, err)
	}
	return domain.NewRawGrid(source, rows), nil
}

func (r *GridReader) fallbackDecoder() encoding.Encoding {
	switch strings.ToLower(r.opts.Encoding) {
	case "windows1252", "cp1252":
		return charmap.Windows1252
	default:
		return unicode.UTF8
	}
}

// readWorkbook reads one sheet. Cells stored as numbers become number cells,
// everything else is text.
func (r *GridReader) readWorkbook(path string) (*domain.RawGrid, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheet := r.opts.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook %s has no sheets", filepath.Base(path))
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}

	grid := &domain.RawGrid{Source: filepath.Base(path), Rows: make([][]domain.Cell, len(rows))}
	for i, row := range rows {
		cells := make([]domain.Cell, len(row))
		for j, raw := range row {
			cells[j] = workbookCell(f, sheet, i, j, raw)
		}
		grid.Rows[i] = cells
	}
	return grid, nil
}

func workbookCell(f *excelize.File, sheet string, row, col int, raw string) domain.Cell {
	if strings.TrimSpace(raw) == "" {
		return domain.EmptyCell()
	}
	name, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err != nil {
		return domain.StringCell(raw)
	}
	cellType, err := f.GetCellType(sheet, name)
	if err != nil {
		return domain.StringCell(raw)
	}
	switch cellType {
	case excelize.CellTypeNumber, excelize.CellTypeUnset:
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			return domain.NumberCell(v)
		}
	}
	return domain.StringCell(raw)
}
