package job

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidSnapshot indicates a snapshot that violates its field constraints.
var ErrInvalidSnapshot = errors.New("invalid job snapshot")

// FieldError describes a single invalid snapshot field.
type FieldError struct {
	Field   string
	Message string
}

// Error returns the error message.
func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrInvalidSnapshot, e.Field, e.Message)
}

// Unwrap returns ErrInvalidSnapshot so callers can match with errors.Is.
func (e *FieldError) Unwrap() error {
	return ErrInvalidSnapshot
}

// Snapshot is the immutable view of a print job at decision time.
type Snapshot struct {
	// JobID is the host's identifier for the job. Optional.
	JobID string `json:"job_id,omitempty"`

	// Username is the submitting user. Optional.
	Username string `json:"username,omitempty"`

	// PrinterName is the printer the job was originally sent to.
	PrinterName string `json:"printer_name"`

	// DocumentName is the submitted document's title. Optional.
	DocumentName string `json:"document_name,omitempty"`

	// SubmittedAt is when the user submitted the job.
	SubmittedAt time.Time `json:"submitted_at,omitempty"`

	// AnalysisComplete reports whether IsColor, TotalPages and Cost are populated.
	AnalysisComplete bool `json:"analysis_complete"`

	// IsColor is true for color jobs. Analysis-gated.
	IsColor bool `json:"is_color,omitempty"`

	// TotalPages is the job's page count. Analysis-gated.
	TotalPages int `json:"total_pages,omitempty"`

	// Cost is the job's cost in the deployment's currency. Analysis-gated.
	Cost float64 `json:"cost,omitempty"`
}

// Validate checks the snapshot's field constraints.
// Analysis-gated fields are only checked when AnalysisComplete is true.
func (s *Snapshot) Validate() error {
	if s.PrinterName == "" {
		return &FieldError{Field: "printer_name", Message: "printer name is required"}
	}
	if !s.AnalysisComplete {
		return nil
	}
	if s.TotalPages < 0 {
		return &FieldError{Field: "total_pages", Message: "page count must be non-negative"}
	}
	if s.Cost < 0 {
		return &FieldError{Field: "cost", Message: "cost must be non-negative"}
	}
	return nil
}

// Identity returns the snapshot with every analysis-gated field cleared.
// It is what a pre-analysis callback carries.
func (s Snapshot) Identity() Snapshot {
	return Snapshot{
		JobID:        s.JobID,
		Username:     s.Username,
		PrinterName:  s.PrinterName,
		DocumentName: s.DocumentName,
		SubmittedAt:  s.SubmittedAt,
	}
}
