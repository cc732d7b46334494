package evidence

import (
	"context"
	"io"
	"time"
)

// DecisionRecord is the durable audit entry for one policy evaluation. It
// captures the job's identity, the outcome, each rule's result and any
// gateway action that failed.
type DecisionRecord struct {
	// Identity
	ID           string `json:"id"`            // UUID v4
	EvaluationID string `json:"evaluation_id"` // From the evaluator

	// Timestamps
	EvaluatedAt  time.Time `json:"evaluated_at"`  // When evaluation started
	RecordedTime time.Time `json:"recorded_time"` // When evidence recorded

	// Job identity
	JobID        string    `json:"job_id,omitempty"`
	Username     string    `json:"username,omitempty"` // Plain or sha256-hashed
	PrinterName  string    `json:"printer_name"`
	DocumentName string    `json:"document_name,omitempty"`
	SubmittedAt  time.Time `json:"submitted_at,omitempty"`

	// Analysis results at decision time
	AnalysisComplete bool    `json:"analysis_complete"`
	IsColor          bool    `json:"is_color"`
	TotalPages       int     `json:"total_pages"`
	Cost             float64 `json:"cost"`

	// Outcome
	Disposition    string        `json:"disposition"`               // "proceed", "canceled"
	FinalState     string        `json:"final_state"`               // Terminal evaluator state
	PromptResponse string        `json:"prompt_response,omitempty"` // "CONFIRM", "CANCEL", "TIMEOUT"
	RedirectTarget string        `json:"redirect_target,omitempty"` // Printer the job moved to
	Rules          []RuleOutcome `json:"rules"`

	// Gateway actions that returned an error
	FailedActions []ActionFailure `json:"failed_actions,omitempty"`

	EvaluationTime time.Duration `json:"evaluation_time"`

	// RecordHash is the SHA-256 of the record's canonical JSON, excluding the hash.
	RecordHash string `json:"record_hash"`
}

// HasFailures reports whether any gateway action failed during evaluation.
func (r *DecisionRecord) HasFailures() bool {
	return len(r.FailedActions) > 0
}

// RuleOutcome captures how one rule fared during evaluation.
type RuleOutcome struct {
	Rule           string        `json:"rule"`
	Matched        bool          `json:"matched"`
	Canceled       bool          `json:"canceled,omitempty"`
	Actions        []string      `json:"actions,omitempty"` // Gateway operations in call order
	Error          string        `json:"error,omitempty"`
	EvaluationTime time.Duration `json:"evaluation_time"`
}

// ActionFailure records a gateway call that returned an error.
type ActionFailure struct {
	Action string `json:"action"`
	Error  string `json:"error"`
}

// Query defines filter parameters for querying decision records.
type Query struct {
	// Time range over EvaluatedAt
	StartTime *time.Time `json:"start_time,omitempty"` // Inclusive start time
	EndTime   *time.Time `json:"end_time,omitempty"`   // Inclusive end time

	// Filters
	JobID          string `json:"job_id,omitempty"`
	Username       string `json:"username,omitempty"`
	PrinterName    string `json:"printer_name,omitempty"`
	Disposition    string `json:"disposition,omitempty"`     // "proceed", "canceled"
	Rule           string `json:"rule,omitempty"`            // Rule that matched
	RedirectTarget string `json:"redirect_target,omitempty"` // Exact target printer

	// HasFailures restricts to records with (true) or without (false) failed actions.
	HasFailures *bool `json:"has_failures,omitempty"`

	// Pagination
	Limit  int `json:"limit,omitempty"`  // Max records to return
	Offset int `json:"offset,omitempty"` // Skip N records

	// Sorting by EvaluatedAt
	SortOrder string `json:"sort_order,omitempty"` // "asc", "desc"
}

// Storage defines the interface for evidence storage backends.
// Implementations must be safe for concurrent use.
type Storage interface {
	// Store persists a decision record.
	Store(ctx context.Context, record *DecisionRecord) error

	// Query retrieves records matching the query filters, newest first unless
	// SortOrder is "asc". Returns an empty slice if no records match.
	Query(ctx context.Context, query *Query) ([]*DecisionRecord, error)

	// Count returns the number of records matching the query filters.
	// Pagination fields are ignored.
	Count(ctx context.Context, query *Query) (int64, error)

	// Delete removes records matching the query filters and returns how many
	// were deleted. A positive Limit removes only the oldest Limit matches.
	// Used for retention enforcement.
	Delete(ctx context.Context, query *Query) (int64, error)

	// Close releases any resources held by the storage backend.
	Close() error
}

// Exporter writes decision records in a specific format.
type Exporter interface {
	Export(ctx context.Context, records []*DecisionRecord, w io.Writer) error
}
