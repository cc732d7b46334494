package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"mercator-hq/jobhook/pkg/job"
	"mercator-hq/jobhook/pkg/policy/engine"
)

// Attribute keys set by the evaluator and the CLI. All use the jobhook.*
// namespace.
const (
	AttrEvaluationID     = "jobhook.evaluation_id"
	AttrJobID            = "jobhook.job_id"
	AttrPrinter          = "jobhook.printer"
	AttrAnalysisComplete = "jobhook.analysis_complete"
	AttrColor            = "jobhook.job.color"
	AttrPages            = "jobhook.job.pages"
	AttrCost             = "jobhook.job.cost"
	AttrDisposition      = "jobhook.disposition"
	AttrActions          = "jobhook.actions"
	AttrRedirectTarget   = "jobhook.redirect_target"
	AttrPromptResponse   = "jobhook.prompt_response"
	AttrSource           = "jobhook.source"
	AttrLine             = "jobhook.source.line"
)

// JobAttributes returns the attributes describing snap. Identity fields that
// may name a person are left out.
func JobAttributes(snap *job.Snapshot) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String(AttrJobID, snap.JobID),
		attribute.String(AttrPrinter, snap.PrinterName),
		attribute.Bool(AttrAnalysisComplete, snap.AnalysisComplete),
	}
	if snap.AnalysisComplete {
		attrs = append(attrs,
			attribute.Bool(AttrColor, snap.IsColor),
			attribute.Int(AttrPages, snap.TotalPages),
			attribute.Float64(AttrCost, snap.Cost),
		)
	}
	return attrs
}

// SetJobAttributes sets the job attributes on span.
func SetJobAttributes(span trace.Span, snap *job.Snapshot) {
	span.SetAttributes(JobAttributes(snap)...)
}

// SetDecisionAttributes sets the outcome of an evaluation on span.
func SetDecisionAttributes(span trace.Span, d *engine.Decision) {
	attrs := []attribute.KeyValue{
		attribute.String(AttrEvaluationID, d.EvaluationID),
		attribute.String(AttrDisposition, string(d.Disposition)),
		attribute.Int(AttrActions, len(d.Actions())),
	}
	if d.PromptResponse != "" {
		attrs = append(attrs, attribute.String(AttrPromptResponse, string(d.PromptResponse)))
	}
	if d.RedirectTarget != "" {
		attrs = append(attrs, attribute.String(AttrRedirectTarget, d.RedirectTarget))
	}
	span.SetAttributes(attrs...)
}

// AddEvent adds a named event to the span with optional attributes.
func AddEvent(span trace.Span, name string, attrs ...attribute.KeyValue) {
	span.AddEvent(name, trace.WithAttributes(attrs...))
}
