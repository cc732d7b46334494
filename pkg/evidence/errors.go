package evidence

import (
	"errors"
	"fmt"
)

var (
	// ErrStorageClosed is returned by a backend after Close.
	ErrStorageClosed = errors.New("evidence storage closed")

	// ErrRecorderClosed is returned when recording after the recorder shut down.
	ErrRecorderClosed = errors.New("evidence recorder closed")

	// ErrBufferFull is returned when the async buffer stayed full past the write timeout.
	ErrBufferFull = errors.New("evidence buffer full")

	// ErrInvalidQuery marks query validation failures.
	ErrInvalidQuery = errors.New("invalid evidence query")
)

// StorageError wraps a backend failure with the operation that hit it.
type StorageError struct {
	Backend   string // "sqlite", "memory"
	Operation string // "store", "query", "delete", ...
	Cause     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("evidence %s %s: %v", e.Backend, e.Operation, e.Cause)
}

func (e *StorageError) Unwrap() error {
	return e.Cause
}

// NewStorageError creates a new StorageError.
func NewStorageError(backend, operation string, cause error) *StorageError {
	return &StorageError{
		Backend:   backend,
		Operation: operation,
		Cause:     cause,
	}
}

// QueryError represents a query that failed validation.
type QueryError struct {
	Field  string
	Reason string
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrInvalidQuery, e.Field, e.Reason)
}

// Unwrap returns ErrInvalidQuery.
func (e *QueryError) Unwrap() error {
	return ErrInvalidQuery
}

// NewQueryError creates a new QueryError.
func NewQueryError(field, reason string) *QueryError {
	return &QueryError{Field: field, Reason: reason}
}

// RecorderError reports a decision that could not be queued for storage.
type RecorderError struct {
	EvaluationID string
	Cause        error
}

func (e *RecorderError) Error() string {
	if e.EvaluationID == "" {
		return "record decision: " + e.Cause.Error()
	}
	return fmt.Sprintf("record decision %s: %v", e.EvaluationID, e.Cause)
}

func (e *RecorderError) Unwrap() error {
	return e.Cause
}

// NewRecorderError creates a new RecorderError.
func NewRecorderError(evaluationID string, cause error) *RecorderError {
	return &RecorderError{
		EvaluationID: evaluationID,
		Cause:        cause,
	}
}

// RetentionError reports a failed prune with the limits in force.
type RetentionError struct {
	RetentionDays int
	MaxRecords    int64
	Cause         error
}

func (e *RetentionError) Error() string {
	return fmt.Sprintf("prune evidence (days=%d, max_records=%d): %v", e.RetentionDays, e.MaxRecords, e.Cause)
}

func (e *RetentionError) Unwrap() error {
	return e.Cause
}

// NewRetentionError creates a new RetentionError.
func NewRetentionError(retentionDays int, maxRecords int64, cause error) *RetentionError {
	return &RetentionError{
		RetentionDays: retentionDays,
		MaxRecords:    maxRecords,
		Cause:         cause,
	}
}

// ExportError reports a failed export.
type ExportError struct {
	Format      string // "json", "jsonl", "csv"
	RecordCount int
	Cause       error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export %d record(s) as %s: %v", e.RecordCount, e.Format, e.Cause)
}

func (e *ExportError) Unwrap() error {
	return e.Cause
}

// NewExportError creates a new ExportError.
func NewExportError(format string, recordCount int, cause error) *ExportError {
	return &ExportError{
		Format:      format,
		RecordCount: recordCount,
		Cause:       cause,
	}
}
