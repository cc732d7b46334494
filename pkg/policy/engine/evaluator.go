package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"mercator-hq/jobhook/pkg/costs"
	"mercator-hq/jobhook/pkg/gateway"
	"mercator-hq/jobhook/pkg/job"
)

// MetricsRecorder receives evaluation metrics.
type MetricsRecorder interface {
	RecordEvaluation(disposition string, analysisPending bool, duration time.Duration)
	RecordRule(rule string, matched bool)
	RecordPromptResponse(response string)
	RecordGatewayFailure(action string)
}

// DecisionRecorder receives every finished decision, e.g. for evidence storage.
// It runs on the evaluation path, so implementations must return promptly;
// any wait must be bounded.
type DecisionRecorder interface {
	RecordDecision(ctx context.Context, decision *Decision)
}

// SpanStarter starts trace spans. Both trace.Tracer and the telemetry
// tracing wrapper satisfy it.
type SpanStarter interface {
	Start(ctx context.Context, spanName string, opts ...trace.SpanStartOption) (context.Context, trace.Span)
}

// Evaluator runs the submission policies against job snapshots.
type Evaluator struct {
	// config contains evaluator configuration
	config Config

	// rules in evaluation order
	rules []Rule

	// logger for structured logging
	logger *slog.Logger

	metrics    MetricsRecorder
	tracer     SpanStarter
	recorder   DecisionRecorder
	formatCost costs.FormatFunc
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Evaluator) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m MetricsRecorder) Option {
	return func(e *Evaluator) {
		if m != nil {
			e.metrics = m
		}
	}
}

// WithTracer sets the span starter.
func WithTracer(t SpanStarter) Option {
	return func(e *Evaluator) {
		if t != nil {
			e.tracer = t
		}
	}
}

// WithDecisionRecorder sets a recorder that receives every decision.
func WithDecisionRecorder(r DecisionRecorder) Option {
	return func(e *Evaluator) {
		e.recorder = r
	}
}

// WithCostFormatter sets the function used to render costs in prompts.
func WithCostFormatter(f costs.FormatFunc) Option {
	return func(e *Evaluator) {
		if f != nil {
			e.formatCost = f
		}
	}
}

// New creates an evaluator. A nil cfg uses DefaultConfig. Configuration
// errors are returned as *ConfigError.
func New(cfg *Config, opts ...Option) (*Evaluator, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	if err := cfg.validateSettings(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	e := &Evaluator{
		config:     *cfg,
		logger:     slog.Default(),
		metrics:    noopMetrics{},
		tracer:     noop.NewTracerProvider().Tracer("jobhook/engine"),
		formatCost: costs.Plain,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With("component", "policy.engine")

	color, err := NewColorConfirmationRule(&e.config, e.formatCost)
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	volume, err := NewVolumeRedirectRule(&e.config)
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	e.rules = []Rule{color, volume}

	return e, nil
}

// Config returns a copy of the evaluator configuration.
func (e *Evaluator) Config() Config {
	return e.config
}

// RuleNames returns the rule names in evaluation order.
func (e *Evaluator) RuleNames() []string {
	names := make([]string, len(e.rules))
	for i, r := range e.rules {
		names[i] = r.Name()
	}
	return names
}

// Evaluate runs the policies against snap, acting on the job through gw.
//
// An error is returned only for a nil or invalid snapshot or a nil gateway;
// in that case no gateway call has been made. Gateway failures never produce
// an error, they are recorded on the Decision.
func (e *Evaluator) Evaluate(ctx context.Context, snap *job.Snapshot, gw gateway.ActionGateway) (*Decision, error) {
	if snap == nil {
		return nil, ErrNilSnapshot
	}
	if gw == nil {
		return nil, ErrNilGateway
	}
	if err := snap.Validate(); err != nil {
		return nil, err
	}

	// Rules see a private copy.
	s := *snap
	id := uuid.NewString()

	ctx, span := e.tracer.Start(ctx, "jobhook.evaluate", trace.WithAttributes(
		attribute.String("jobhook.evaluation_id", id),
		attribute.String("jobhook.job_id", s.JobID),
		attribute.String("jobhook.printer", s.PrinterName),
		attribute.Bool("jobhook.analysis_complete", s.AnalysisComplete),
	))
	defer span.End()

	evalCtx := &EvaluationContext{
		EvaluationID: id,
		Job:          &s,
		Logger:       e.logger.With("evaluation_id", id, "job_id", s.JobID, "printer", s.PrinterName),
		State:        StateAwaitingAnalysis,
		StartTime:    time.Now(),
		gateway:      gw,
		metrics:      e.metrics,
		failSafe:     e.config.FailSafeMode,
	}
	if e.config.EnableTrace {
		evalCtx.Trace = &EvaluationTrace{}
	}

	if !s.AnalysisComplete {
		if err := evalCtx.transition(StateProceeding); err != nil {
			return nil, err
		}
		evalCtx.Logger.Debug("job analysis incomplete, skipping policy evaluation")
		decision := e.buildDecision(evalCtx, true)
		e.finish(ctx, span, evalCtx, decision)
		return decision, nil
	}

	if err := evalCtx.transition(StateEvaluating); err != nil {
		return nil, err
	}

	for _, rule := range e.rules {
		e.evaluateRule(ctx, rule, evalCtx)

		// Stop if evaluation is short-circuited
		if evalCtx.Stopped {
			evalCtx.AddTraceStep("stop", rule.Name(), "evaluation short-circuited", time.Since(evalCtx.StartTime))
			break
		}
	}

	final := StateProceeding
	if evalCtx.canceled {
		final = StateCanceled
	}
	if err := evalCtx.transition(final); err != nil {
		return nil, err
	}

	decision := e.buildDecision(evalCtx, false)
	e.finish(ctx, span, evalCtx, decision)
	return decision, nil
}

// evaluateRule evaluates a single rule.
func (e *Evaluator) evaluateRule(ctx context.Context, rule Rule, evalCtx *EvaluationContext) {
	ruleStart := time.Now()
	name := rule.Name()

	result := &RuleResult{Rule: name}
	evalCtx.Rules = append(evalCtx.Rules, result)
	evalCtx.current = result
	defer func() { evalCtx.current = nil }()

	ctx, span := e.tracer.Start(ctx, "jobhook.rule."+name)
	defer span.End()

	evalCtx.AddTraceStep("rule_start", name, fmt.Sprintf("evaluating rule %q", name), 0)

	result.Matched = rule.Matches(evalCtx.Job)
	e.metrics.RecordRule(name, result.Matched)
	span.SetAttributes(attribute.Bool("jobhook.rule.matched", result.Matched))
	evalCtx.AddTraceStep("predicate", name, fmt.Sprintf("matched: %v", result.Matched), time.Since(ruleStart))

	if !result.Matched {
		evalCtx.Logger.Debug("rule not matched", "rule", name)
		result.EvaluationTime = time.Since(ruleStart)
		return
	}

	evalCtx.Logger.Debug("rule matched", "rule", name)

	if err := rule.Apply(ctx, evalCtx); err != nil {
		result.Error = err.Error()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		e.handleRuleError(ctx, err, evalCtx)
	}

	span.SetAttributes(attribute.Bool("jobhook.rule.canceled", result.Canceled))
	result.EvaluationTime = time.Since(ruleStart)
	evalCtx.AddTraceStep("rule_end", name, fmt.Sprintf("completed rule %q", name), result.EvaluationTime)
}

// handleRuleError resolves a rule that could not complete according to the
// fail-safe mode.
func (e *Evaluator) handleRuleError(ctx context.Context, err error, evalCtx *EvaluationContext) {
	evalCtx.Logger.Error("rule failed",
		"rule", evalCtx.ruleName(),
		"error", err,
		"fail_safe_mode", e.config.FailSafeMode,
	)

	switch e.config.FailSafeMode {
	case FailOpen:
		evalCtx.Logger.Info("fail-open: continuing after rule error", "rule", evalCtx.ruleName())
	default:
		evalCtx.Logger.Info("fail-closed: canceling job after rule error", "rule", evalCtx.ruleName())
		evalCtx.CancelJob(ctx, "policy evaluation error")
	}
}

// buildDecision constructs the final decision from the evaluation context.
func (e *Evaluator) buildDecision(evalCtx *EvaluationContext, analysisPending bool) *Decision {
	decision := &Decision{
		EvaluationID:    evalCtx.EvaluationID,
		Disposition:     evalCtx.State.Disposition(),
		State:           evalCtx.State,
		AnalysisPending: analysisPending,
		Job:             *evalCtx.Job,
		Rules:           evalCtx.Rules,
		PromptResponse:  evalCtx.PromptResponse,
		RedirectTarget:  evalCtx.RedirectTarget,
		EvaluatedAt:     evalCtx.StartTime,
		EvaluationTime:  time.Since(evalCtx.StartTime),
		Trace:           evalCtx.Trace,
	}

	if decision.Trace != nil {
		decision.Trace.TotalTime = decision.EvaluationTime
	}

	return decision
}

func (e *Evaluator) finish(ctx context.Context, span trace.Span, evalCtx *EvaluationContext, decision *Decision) {
	span.SetAttributes(
		attribute.String("jobhook.disposition", string(decision.Disposition)),
		attribute.Int("jobhook.actions", len(decision.Actions())),
	)
	if decision.RedirectTarget != "" {
		span.SetAttributes(attribute.String("jobhook.redirect_target", decision.RedirectTarget))
	}

	e.metrics.RecordEvaluation(string(decision.Disposition), decision.AnalysisPending, decision.EvaluationTime)

	evalCtx.Logger.Info("policy evaluation complete",
		"disposition", decision.Disposition,
		"analysis_pending", decision.AnalysisPending,
		"actions", len(decision.Actions()),
		"failures", len(decision.Failures()),
		"duration", decision.EvaluationTime,
	)

	if e.recorder != nil {
		e.recorder.RecordDecision(ctx, decision)
	}
}

type noopMetrics struct{}

func (noopMetrics) RecordEvaluation(string, bool, time.Duration) {}
func (noopMetrics) RecordRule(string, bool)                      {}
func (noopMetrics) RecordPromptResponse(string)                  {}
func (noopMetrics) RecordGatewayFailure(string)                  {}
