package export

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"time"

	"mercator-hq/jobhook/pkg/evidence"
)

// CSVExporter exports decision records as CSV, one row per decision.
type CSVExporter struct {
	// IncludeHeader includes a header row with column names.
	IncludeHeader bool
}

// NewCSVExporter creates a new CSV exporter.
func NewCSVExporter(includeHeader bool) *CSVExporter {
	return &CSVExporter{
		IncludeHeader: includeHeader,
	}
}

// Header returns the CSV column names in row order.
func Header() []string {
	return []string{
		"id",
		"evaluation_id",
		"evaluated_at",
		"job_id",
		"username",
		"printer_name",
		"document_name",
		"analysis_complete",
		"is_color",
		"total_pages",
		"cost",
		"disposition",
		"final_state",
		"prompt_response",
		"redirect_target",
		"matched_rules",
		"failed_actions",
		"evaluation_time_ms",
		"record_hash",
	}
}

// Export writes records to w. Matched rules and failed actions are
// flattened into ";"-separated lists.
func (e *CSVExporter) Export(ctx context.Context, records []*evidence.DecisionRecord, w io.Writer) error {
	writer := csv.NewWriter(w)

	if e.IncludeHeader {
		if err := writer.Write(Header()); err != nil {
			return evidence.NewExportError("csv", len(records), err)
		}
	}

	for _, record := range records {
		if err := ctx.Err(); err != nil {
			return evidence.NewExportError("csv", len(records), err)
		}
		if err := writer.Write(recordToRow(record)); err != nil {
			return evidence.NewExportError("csv", len(records), err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return evidence.NewExportError("csv", len(records), err)
	}
	return nil
}

func recordToRow(r *evidence.DecisionRecord) []string {
	var matched []string
	for _, rule := range r.Rules {
		if rule.Matched {
			matched = append(matched, rule.Rule)
		}
	}

	var failed []string
	for _, f := range r.FailedActions {
		failed = append(failed, f.Action+": "+f.Error)
	}

	return []string{
		r.ID,
		r.EvaluationID,
		formatTime(r.EvaluatedAt),
		r.JobID,
		r.Username,
		r.PrinterName,
		r.DocumentName,
		strconv.FormatBool(r.AnalysisComplete),
		strconv.FormatBool(r.IsColor),
		strconv.Itoa(r.TotalPages),
		strconv.FormatFloat(r.Cost, 'f', -1, 64),
		r.Disposition,
		r.FinalState,
		r.PromptResponse,
		r.RedirectTarget,
		strings.Join(matched, ";"),
		strings.Join(failed, ";"),
		strconv.FormatInt(r.EvaluationTime.Milliseconds(), 10),
		r.RecordHash,
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
