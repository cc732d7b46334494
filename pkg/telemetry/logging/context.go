package logging

import (
	"context"
	"log/slog"
)

// Context keys for job log fields.
type contextKey string

const (
	// JobIDKey is the context key for print job IDs.
	JobIDKey contextKey = "job_id"

	// UserKey is the context key for the submitting user.
	UserKey contextKey = "user"

	// PrinterKey is the context key for the destination printer.
	PrinterKey contextKey = "printer"

	// EvaluationIDKey is the context key for policy evaluation IDs.
	EvaluationIDKey contextKey = "evaluation_id"
)

// orderedKeys fixes the order fields appear in log lines.
var orderedKeys = []contextKey{EvaluationIDKey, JobIDKey, UserKey, PrinterKey}

// WithJobID adds a job ID to the context.
func WithJobID(ctx context.Context, jobID string) context.Context {
	return context.WithValue(ctx, JobIDKey, jobID)
}

// GetJobID retrieves the job ID from the context.
func GetJobID(ctx context.Context) string {
	return getString(ctx, JobIDKey)
}

// WithUser adds the submitting user to the context.
func WithUser(ctx context.Context, user string) context.Context {
	return context.WithValue(ctx, UserKey, user)
}

// GetUser retrieves the submitting user from the context.
func GetUser(ctx context.Context) string {
	return getString(ctx, UserKey)
}

// WithPrinter adds the printer name to the context.
func WithPrinter(ctx context.Context, printer string) context.Context {
	return context.WithValue(ctx, PrinterKey, printer)
}

// GetPrinter retrieves the printer name from the context.
func GetPrinter(ctx context.Context) string {
	return getString(ctx, PrinterKey)
}

// WithEvaluationID adds an evaluation ID to the context.
func WithEvaluationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, EvaluationIDKey, id)
}

// GetEvaluationID retrieves the evaluation ID from the context.
func GetEvaluationID(ctx context.Context) string {
	return getString(ctx, EvaluationIDKey)
}

func getString(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}

// contextFields returns the job fields stored on ctx as attributes.
func contextFields(ctx context.Context) []slog.Attr {
	var attrs []slog.Attr
	for _, key := range orderedKeys {
		if v := getString(ctx, key); v != "" {
			attrs = append(attrs, slog.String(string(key), v))
		}
	}
	return attrs
}

// contextHandler adds context fields to every record logged with a context.
type contextHandler struct {
	next slog.Handler
}

func (h *contextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if attrs := contextFields(ctx); len(attrs) > 0 {
		r = r.Clone()
		r.AddAttrs(attrs...)
	}
	return h.next.Handle(ctx, r)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{next: h.next.WithAttrs(attrs)}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{next: h.next.WithGroup(name)}
}

// ContextLogger is a logger bound to a context.
type ContextLogger struct {
	logger *slog.Logger
	ctx    context.Context
}

// NewContextLogger creates a logger that always logs with ctx.
func NewContextLogger(logger *slog.Logger, ctx context.Context) *ContextLogger {
	return &ContextLogger{logger: logger, ctx: ctx}
}

// Debug logs a debug message with context fields.
func (cl *ContextLogger) Debug(msg string, args ...any) {
	cl.logger.DebugContext(cl.ctx, msg, args...)
}

// Info logs an info message with context fields.
func (cl *ContextLogger) Info(msg string, args ...any) {
	cl.logger.InfoContext(cl.ctx, msg, args...)
}

// Warn logs a warning message with context fields.
func (cl *ContextLogger) Warn(msg string, args ...any) {
	cl.logger.WarnContext(cl.ctx, msg, args...)
}

// Error logs an error message with context fields.
func (cl *ContextLogger) Error(msg string, args ...any) {
	cl.logger.ErrorContext(cl.ctx, msg, args...)
}

// With creates a new context logger with additional fields.
func (cl *ContextLogger) With(args ...any) *ContextLogger {
	return &ContextLogger{logger: cl.logger.With(args...), ctx: cl.ctx}
}
