package export

import (
	"context"
	"encoding/json"
	"io"

	"mercator-hq/jobhook/pkg/evidence"
)

// JSONExporter exports decision records as a JSON array.
type JSONExporter struct {
	// Pretty enables indentation.
	Pretty bool
}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter(pretty bool) *JSONExporter {
	return &JSONExporter{
		Pretty: pretty,
	}
}

// Export writes records as a JSON array. An empty slice yields "[]".
func (e *JSONExporter) Export(ctx context.Context, records []*evidence.DecisionRecord, w io.Writer) error {
	if records == nil {
		records = []*evidence.DecisionRecord{}
	}

	enc := json.NewEncoder(w)
	if e.Pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(records); err != nil {
		return evidence.NewExportError("json", len(records), err)
	}
	return nil
}

// JSONLinesExporter exports one JSON object per line.
type JSONLinesExporter struct{}

// NewJSONLinesExporter creates a new JSON lines exporter.
func NewJSONLinesExporter() *JSONLinesExporter {
	return &JSONLinesExporter{}
}

// Export writes each record on its own line. It stops early if ctx is done.
func (e *JSONLinesExporter) Export(ctx context.Context, records []*evidence.DecisionRecord, w io.Writer) error {
	enc := json.NewEncoder(w)
	for i, record := range records {
		if err := ctx.Err(); err != nil {
			return evidence.NewExportError("jsonl", i, err)
		}
		if err := enc.Encode(record); err != nil {
			return evidence.NewExportError("jsonl", i, err)
		}
	}
	return nil
}
