package domain

import "fmt"

// SkipKind classifies why a source file was left out of a batch
type SkipKind string

const (
	SkipAnchorNotFound SkipKind = "AnchorNotFound"
	SkipStructuring    SkipKind = "StructuringError"
	SkipLoading        SkipKind = "LoadingError"
	SkipOutput         SkipKind = "OutputError"
)

// SkippedFile is one entry of the cleaning report
type SkippedFile struct {
	Filename string   `json:"filename"`
	Kind     SkipKind `json:"kind"`
	Reason   string   `json:"reason"`
}

// AnomalyKind classifies a non-fatal data-quality finding
type AnomalyKind string

const (
	AnomalyNumericCoercion    AnomalyKind = "NumericCoercionAnomaly"
	AnomalyUndefinedGroupMean AnomalyKind = "UndefinedGroupMean"
)

// Anomaly is a data-quality warning attached to a single record
type Anomaly struct {
	Kind     AnomalyKind `json:"kind"`
	Category string      `json:"category"`
	State    string      `json:"state"`
	Year     string      `json:"year"`
	Detail   string      `json:"detail,omitempty"`
}

// String formats the anomaly for log lines
func (a Anomaly) String() string {
	if a.Detail != "" {
		return fmt.Sprintf("%s: %s/%s/%s (%s)", a.Kind, a.Category, a.State, a.Year, a.Detail)
	}
	return fmt.Sprintf("%s: %s/%s/%s", a.Kind, a.Category, a.State, a.Year)
}

// CleaningReport is the audit trail of a batch. It is only ever appended to.
type CleaningReport struct {
	Skipped   []SkippedFile `json:"skipped"`
	Anomalies []Anomaly     `json:"anomalies,omitempty"`
}

// Skip records a file that could not be processed
func (r *CleaningReport) Skip(filename string, kind SkipKind, reason string) {
	r.Skipped = append(r.Skipped, SkippedFile{Filename: filename, Kind: kind, Reason: reason})
}

// AddAnomalies appends record-level warnings
func (r *CleaningReport) AddAnomalies(anomalies ...Anomaly) {
	r.Anomalies = append(r.Anomalies, anomalies...)
}

// HasSkips reports whether any file was skipped
func (r *CleaningReport) HasSkips() bool {
	return len(r.Skipped) > 0
}
