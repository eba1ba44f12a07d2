package dataprocessing

import (
	"expenditure/pkg/contracts/domain"
)

// AnchorMarker is the literal cell text that marks the top-left corner of the data block
const AnchorMarker = "States"

// LocateAnchor scans the grid in row-major order and returns the position of
// the first cell whose text is exactly AnchorMarker.
func LocateAnchor(grid *domain.RawGrid) (domain.Anchor, error) {
	return LocateMarker(grid, AnchorMarker)
}

// LocateMarker is LocateAnchor for an arbitrary marker text
func LocateMarker(grid *domain.RawGrid, marker string) (domain.Anchor, error) {
	if grid == nil {
		return domain.Anchor{}, &AnchorNotFoundError{Marker: marker}
	}
	for i, row := range grid.Rows {
		for j, cell := range row {
			if cell.IsString() && cell.Text == marker {
				return domain.Anchor{Row: i, Col: j}, nil
			}
		}
	}
	return domain.Anchor{}, &AnchorNotFoundError{Source: grid.Source, Marker: marker}
}
