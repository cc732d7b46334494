// Package export renders decision records for auditors and tooling.
//
//   - JSONExporter: a JSON array, optionally indented
//   - JSONLinesExporter: one JSON object per line, suitable for replay tooling
//   - CSVExporter: one row per decision for spreadsheets
//
// All exporters satisfy evidence.Exporter and wrap failures in
// evidence.ExportError.
package export
