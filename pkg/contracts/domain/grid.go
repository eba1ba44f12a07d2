package domain

import (
	"strconv"
	"strings"
)

// CellKind tags the dynamic type of a grid cell
type CellKind int

const (
	CellEmpty CellKind = iota
	CellString
	CellNumber
)

// String returns the kind name used in logs and reports
func (k CellKind) String() string {
	switch k {
	case CellString:
		return "string"
	case CellNumber:
		return "number"
	default:
		return "empty"
	}
}

// Cell is a single untyped value read from a source sheet.
// Exactly one of Text or Number is meaningful, depending on Kind.
type Cell struct {
	Kind   CellKind `json:"kind"`
	Text   string   `json:"text,omitempty"`
	Number float64  `json:"number,omitempty"`
}

// EmptyCell returns a cell with no value
func EmptyCell() Cell {
	return Cell{Kind: CellEmpty}
}

// StringCell returns a cell holding text
func StringCell(s string) Cell {
	return Cell{Kind: CellString, Text: s}
}

// NumberCell returns a cell holding a number
func NumberCell(f float64) Cell {
	return Cell{Kind: CellNumber, Number: f}
}

// IsEmpty reports whether the cell carries no value
func (c Cell) IsEmpty() bool {
	return c.Kind == CellEmpty
}

// IsString reports whether the cell holds text
func (c Cell) IsString() bool {
	return c.Kind == CellString
}

// String renders the cell the way it is written to CSV output
func (c Cell) String() string {
	switch c.Kind {
	case CellString:
		return c.Text
	case CellNumber:
		return strconv.FormatFloat(c.Number, 'f', -1, 64)
	default:
		return ""
	}
}

// Equal compares kind and payload
func (c Cell) Equal(other Cell) bool {
	if c.Kind != other.Kind {
		return false
	}
	switch c.Kind {
	case CellString:
		return c.Text == other.Text
	case CellNumber:
		return c.Number == other.Number
	default:
		return true
	}
}

// ParseCell types a raw text value: blank text is empty, everything else is a string.
// Numeric interpretation is left to the cleaning stage.
func ParseCell(raw string) Cell {
	if strings.TrimSpace(raw) == "" {
		return EmptyCell()
	}
	return StringCell(raw)
}

// RawGrid is a headerless two-dimensional sheet as loaded from a source file.
// Rows may have different lengths; a missing trailing cell reads as empty.
type RawGrid struct {
	Source string   `json:"source"`
	Rows   [][]Cell `json:"rows"`
}

// NewRawGrid builds a grid from text rows, typing each cell with ParseCell
func NewRawGrid(source string, rows [][]string) *RawGrid {
	grid := &RawGrid{Source: source, Rows: make([][]Cell, len(rows))}
	for i, row := range rows {
		cells := make([]Cell, len(row))
		for j, raw := range row {
			cells[j] = ParseCell(raw)
		}
		grid.Rows[i] = cells
	}
	return grid
}

// NumRows returns the number of rows in the grid
func (g *RawGrid) NumRows() int {
	return len(g.Rows)
}

// NumCols returns the width of the widest row
func (g *RawGrid) NumCols() int {
	width := 0
	for _, row := range g.Rows {
		if len(row) > width {
			width = len(row)
		}
	}
	return width
}

// At returns the cell at (row, col), or an empty cell when out of range
func (g *RawGrid) At(row, col int) Cell {
	if row < 0 || row >= len(g.Rows) || col < 0 || col >= len(g.Rows[row]) {
		return EmptyCell()
	}
	return g.Rows[row][col]
}

// Anchor is the position of the structural marker cell inside a RawGrid
type Anchor struct {
	Row int `json:"row"`
	Col int `json:"col"`
}
