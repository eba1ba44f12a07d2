package operations

import (
	"context"
	"errors"
	"fmt"

	"expenditure/internal/dataprocessing"
	"expenditure/pkg/contracts/domain"
)

// Manager errors. Match with errors.Is.
var (
	ErrRunInProgress = errors.New("a run is already in progress")
	ErrRunNotFound   = errors.New("run not found")
	ErrManagerClosed = errors.New("run manager is shut down")
)

// ErrorType represents the type of operation error
type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "validation"
	ErrorTypeExecution    ErrorType = "execution"
	ErrorTypeTimeout      ErrorType = "timeout"
	ErrorTypeCancellation ErrorType = "cancellation"
)

// OperationError describes why a whole run failed. Per-file problems are
// never OperationErrors; they end up in the cleaning report.
type OperationError struct {
	Type    ErrorType `json:"type"`
	RunID   string    `json:"run_id,omitempty"`
	Message string    `json:"message"`
	Cause   error     `json:"-"`
}

// Error implements the error interface
func (e *OperationError) Error() string {
	if e == nil {
		return "unknown operation error"
	}
	msg := fmt.Sprintf("[%s] %s", e.Type, e.Message)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error
func (e *OperationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// NewExecutionError wraps a failure that prevented a run from producing a result
func NewExecutionError(runID string, cause error) *OperationError {
	return &OperationError{Type: ErrorTypeExecution, RunID: runID, Message: "run failed", Cause: cause}
}

// NewValidationError rejects a run request
func NewValidationError(message string, cause error) *OperationError {
	return &OperationError{Type: ErrorTypeValidation, Message: message, Cause: cause}
}

// classifyRunError maps context errors onto timeout and cancellation
func classifyRunError(runID string, err error) *OperationError {
	var opErr *OperationError
	if errors.As(err, &opErr) {
		return opErr
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &OperationError{Type: ErrorTypeTimeout, RunID: runID, Message: "run timed out", Cause: err}
	case errors.Is(err, context.Canceled):
		return &OperationError{Type: ErrorTypeCancellation, RunID: runID, Message: "run was cancelled", Cause: err}
	default:
		return NewExecutionError(runID, err)
	}
}

// IsValidation reports whether err rejects the request itself
func IsValidation(err error) bool {
	var opErr *OperationError
	return errors.As(err, &opErr) && opErr.Type == ErrorTypeValidation
}

// SkipKindFor classifies a per-file error for the cleaning report
func SkipKindFor(err error) domain.SkipKind {
	switch {
	case errors.Is(err, dataprocessing.ErrAnchorNotFound):
		return domain.SkipAnchorNotFound
	case errors.Is(err, dataprocessing.ErrStructuring):
		return domain.SkipStructuring
	default:
		return domain.SkipLoading
	}
}
