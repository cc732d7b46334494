package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"mercator-hq/jobhook/pkg/evidence"
)

func testRecords() []*evidence.DecisionRecord {
	at := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	return []*evidence.DecisionRecord{
		{
			ID:               "rec-1",
			EvaluationID:     "eval-1",
			EvaluatedAt:      at,
			JobID:            "job-1",
			Username:         "jdoe",
			PrinterName:      "Front Office",
			DocumentName:     "budget, final.xlsx",
			AnalysisComplete: true,
			TotalPages:       25,
			Cost:             1.5,
			Disposition:      "proceed",
			FinalState:       "proceeding",
			RedirectTarget:   "Perrysburg Showroom M3150",
			Rules: []evidence.RuleOutcome{
				{Rule: "color_confirmation"},
				{Rule: "volume_redirect", Matched: true},
			},
			FailedActions:  []evidence.ActionFailure{{Action: "sendMessage", Error: "client offline"}},
			EvaluationTime: 12 * time.Millisecond,
			RecordHash:     "abc",
		},
		{
			ID:             "rec-2",
			EvaluationID:   "eval-2",
			EvaluatedAt:    at.Add(time.Minute),
			PrinterName:    "Lab",
			IsColor:        true,
			Disposition:    "canceled",
			FinalState:     "canceled",
			PromptResponse: "CANCEL",
			Rules:          []evidence.RuleOutcome{{Rule: "color_confirmation", Matched: true, Canceled: true}},
		},
	}
}

func TestJSONExporter(t *testing.T) {
	tests := []struct {
		name    string
		pretty  bool
		records []*evidence.DecisionRecord
		want    int
	}{
		{"empty", false, nil, 0},
		{"compact", false, testRecords(), 2},
		{"pretty", true, testRecords(), 2},
		{"single record is still an array", false, testRecords()[:1], 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := NewJSONExporter(tt.pretty).Export(context.Background(), tt.records, &buf); err != nil {
				t.Fatalf("Export() failed: %v", err)
			}

			var decoded []*evidence.DecisionRecord
			if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
				t.Fatalf("output is not a JSON array: %v\n%s", err, buf.String())
			}
			if len(decoded) != tt.want {
				t.Errorf("decoded %d records, want %d", len(decoded), tt.want)
			}
			if tt.pretty && !strings.Contains(buf.String(), "\n  ") {
				t.Error("pretty output is not indented")
			}
		})
	}
}

func TestJSONLinesExporter(t *testing.T) {
	var buf bytes.Buffer
	if err := NewJSONLinesExporter().Export(context.Background(), testRecords(), &buf); err != nil {
		t.Fatalf("Export() failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}

	var r evidence.DecisionRecord
	if err := json.Unmarshal([]byte(lines[1]), &r); err != nil {
		t.Fatalf("line is not JSON: %v", err)
	}
	if r.Disposition != "canceled" || r.PromptResponse != "CANCEL" {
		t.Errorf("decoded record = %+v", r)
	}
}

func TestJSONLinesExporter_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewJSONLinesExporter().Export(ctx, testRecords(), &bytes.Buffer{})
	var ee *evidence.ExportError
	if !errors.As(err, &ee) || ee.Format != "jsonl" || !errors.Is(err, context.Canceled) {
		t.Errorf("Export() = %v, want jsonl ExportError wrapping context.Canceled", err)
	}
}

func TestCSVExporter(t *testing.T) {
	var buf bytes.Buffer
	if err := NewCSVExporter(true).Export(context.Background(), testRecords(), &buf); err != nil {
		t.Fatalf("Export() failed: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}

	header := rows[0]
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[h] = i
	}
	if len(header) != len(Header()) {
		t.Errorf("header has %d columns, want %d", len(header), len(Header()))
	}

	first := rows[1]
	checks := map[string]string{
		"document_name":      "budget, final.xlsx",
		"evaluated_at":       "2026-04-01T12:00:00Z",
		"cost":               "1.5",
		"matched_rules":      "volume_redirect",
		"failed_actions":     "sendMessage: client offline",
		"evaluation_time_ms": "12",
		"redirect_target":    "Perrysburg Showroom M3150",
	}
	for name, want := range checks {
		if got := first[col[name]]; got != want {
			t.Errorf("%s = %q, want %q", name, got, want)
		}
	}

	if got := rows[2][col["prompt_response"]]; got != "CANCEL" {
		t.Errorf("prompt_response = %q, want CANCEL", got)
	}
}

func TestCSVExporter_NoHeader(t *testing.T) {
	var buf bytes.Buffer
	if err := NewCSVExporter(false).Export(context.Background(), testRecords()[:1], &buf); err != nil {
		t.Fatalf("Export() failed: %v", err)
	}
	if strings.HasPrefix(buf.String(), "id,") {
		t.Error("header written when IncludeHeader is false")
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestExporters_WriteError(t *testing.T) {
	exporters := map[string]evidence.Exporter{
		"json":  NewJSONExporter(false),
		"jsonl": NewJSONLinesExporter(),
		"csv":   NewCSVExporter(true),
	}
	for name, exp := range exporters {
		t.Run(name, func(t *testing.T) {
			err := exp.Export(context.Background(), testRecords(), failingWriter{})
			var ee *evidence.ExportError
			if !errors.As(err, &ee) {
				t.Fatalf("Export() = %v, want ExportError", err)
			}
			if ee.Format != name {
				t.Errorf("Format = %q, want %q", ee.Format, name)
			}
		})
	}
}
