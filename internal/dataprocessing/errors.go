package dataprocessing

import (
	"errors"
	"fmt"

	"expenditure/pkg/contracts/domain"
)

// Sentinel errors for per-file failures. Match with errors.Is.
var (
	ErrAnchorNotFound = errors.New("anchor not found")
	ErrStructuring    = errors.New("structuring error")
)

// AnchorNotFoundError reports a grid without the marker cell
type AnchorNotFoundError struct {
	Source string
	Marker string
}

func (e *AnchorNotFoundError) Error() string {
	return fmt.Sprintf("marker %q not found in %s", e.Marker, e.Source)
}

// Unwrap allows errors.Is(err, ErrAnchorNotFound)
func (e *AnchorNotFoundError) Unwrap() error {
	return ErrAnchorNotFound
}

// StructuringError reports an anchor that does not lead to a usable table
type StructuringError struct {
	Source string
	Anchor domain.Anchor
	Reason string
}

func (e *StructuringError) Error() string {
	return fmt.Sprintf("cannot structure %s at row %d, column %d: %s",
		e.Source, e.Anchor.Row, e.Anchor.Col, e.Reason)
}

// Unwrap allows errors.Is(err, ErrStructuring)
func (e *StructuringError) Unwrap() error {
	return ErrStructuring
}
