package domain

import (
	"time"
)

// RunStatus represents the lifecycle state of a batch run
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// RunRequest asks for a batch over the configured raw directory
type RunRequest struct {
	Categories []string `json:"categories,omitempty" validate:"omitempty,dive,required,max=128"`
	Workers    int      `json:"workers,omitempty" validate:"omitempty,min=1,max=32"`
}

// Run is the externally visible record of one batch execution
type Run struct {
	ID          string          `json:"id" validate:"required,uuid"`
	Status      RunStatus       `json:"status"`
	Request     RunRequest      `json:"request"`
	CreatedAt   time.Time       `json:"created_at"`
	StartedAt   *time.Time      `json:"started_at,omitempty"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	Error       string          `json:"error,omitempty"`
	Tables      []TableResult   `json:"tables,omitempty"`
	Report      *CleaningReport `json:"report,omitempty"`
}

// TableResult summarizes one successfully cleaned category of a run
type TableResult struct {
	Category string       `json:"category"`
	Source   string       `json:"source"`
	Summary  TableSummary `json:"summary"`
}
