package engine

import (
	"log/slog"
	"time"

	"mercator-hq/jobhook/pkg/gateway"
	"mercator-hq/jobhook/pkg/job"
)

// Disposition is the terminal outcome of an evaluation.
type Disposition string

const (
	// Proceed lets the job continue, possibly redirected.
	Proceed Disposition = "proceed"

	// Canceled means a rule canceled the job through the gateway.
	Canceled Disposition = "canceled"
)

// Decision is the result of evaluating one job snapshot.
type Decision struct {
	// EvaluationID uniquely identifies this evaluation.
	EvaluationID string `json:"evaluation_id"`

	// Disposition is the final outcome.
	Disposition Disposition `json:"disposition"`

	// State is the terminal state the evaluation ended in.
	State State `json:"state"`

	// AnalysisPending is true when the job was not yet analyzed and no rule ran.
	AnalysisPending bool `json:"analysis_pending"`

	// Job is a copy of the evaluated snapshot.
	Job job.Snapshot `json:"job"`

	// Rules contains one result per rule that was considered, in order.
	Rules []*RuleResult `json:"rules,omitempty"`

	// PromptResponse is the user's answer, if a prompt was shown.
	PromptResponse gateway.PromptResponse `json:"prompt_response,omitempty"`

	// RedirectTarget is the printer the job was redirected to, if any.
	RedirectTarget string `json:"redirect_target,omitempty"`

	// EvaluatedAt is when evaluation started.
	EvaluatedAt time.Time `json:"evaluated_at"`

	// EvaluationTime is the total time taken, including prompt wait time.
	EvaluationTime time.Duration `json:"evaluation_time"`

	// Trace contains detailed evaluation steps (if enabled).
	Trace *EvaluationTrace `json:"trace,omitempty"`
}

// Actions returns every gateway action taken, in call order.
func (d *Decision) Actions() []*ActionResult {
	var actions []*ActionResult
	for _, r := range d.Rules {
		actions = append(actions, r.Actions...)
	}
	return actions
}

// Failures returns the gateway actions that returned an error.
func (d *Decision) Failures() []*ActionResult {
	var failed []*ActionResult
	for _, a := range d.Actions() {
		if !a.Success {
			failed = append(failed, a)
		}
	}
	return failed
}

// RuleResult records how a single rule fared.
type RuleResult struct {
	// Rule is the rule name.
	Rule string `json:"rule"`

	// Matched indicates whether the rule's predicate held.
	Matched bool `json:"matched"`

	// Actions contains the gateway actions the rule performed.
	Actions []*ActionResult `json:"actions,omitempty"`

	// Canceled is true when this rule canceled the job.
	Canceled bool `json:"canceled,omitempty"`

	// Error is set when the rule could not complete its action sequence.
	Error string `json:"error,omitempty"`

	// EvaluationTime is the time taken by this rule.
	EvaluationTime time.Duration `json:"evaluation_time"`
}

// ActionResult is the outcome of one gateway call.
type ActionResult struct {
	// Action is the gateway operation called.
	Action gateway.Operation `json:"action"`

	// Success indicates the gateway returned no error.
	Success bool `json:"success"`

	// Error contains the gateway error, if any.
	Error error `json:"-"`

	// ErrorMessage is Error rendered for serialization.
	ErrorMessage string `json:"error,omitempty"`

	// Details contains action-specific details (target printer, message text).
	Details map[string]string `json:"details,omitempty"`
}

// EvaluationTrace records detailed steps during evaluation for debugging.
type EvaluationTrace struct {
	// Steps contains individual trace steps.
	Steps []*TraceStep `json:"steps"`

	// TotalTime is the total evaluation time.
	TotalTime time.Duration `json:"total_time"`
}

// TraceStep represents a single step in the evaluation trace.
type TraceStep struct {
	// StepType identifies the step ("transition", "rule_start", "predicate", "action", "rule_end").
	StepType string `json:"step_type"`

	// Rule is the rule being evaluated, empty for evaluator-level steps.
	Rule string `json:"rule,omitempty"`

	// Details contains step-specific details.
	Details string `json:"details"`

	// Timestamp is when this step occurred.
	Timestamp time.Time `json:"timestamp"`

	// Duration is how long this step took.
	Duration time.Duration `json:"duration"`
}

// EvaluationContext carries the state of a single evaluation. Rules act on
// the job only through its action helpers, which record every gateway call.
type EvaluationContext struct {
	// EvaluationID is the unique identifier for this evaluation.
	EvaluationID string

	// Job is the snapshot under evaluation. Rules must not modify it.
	Job *job.Snapshot

	// Logger is scoped to this evaluation.
	Logger *slog.Logger

	// State is the current state machine state.
	State State

	// Rules accumulates rule results.
	Rules []*RuleResult

	// PromptResponse is the user's answer, if prompted.
	PromptResponse gateway.PromptResponse

	// RedirectTarget is set by redirect actions.
	RedirectTarget string

	// Trace records evaluation steps (if tracing is enabled).
	Trace *EvaluationTrace

	// StartTime is when evaluation started.
	StartTime time.Time

	// Stopped indicates whether evaluation should stop (short-circuit).
	Stopped bool

	gateway  gateway.ActionGateway
	metrics  MetricsRecorder
	failSafe FailSafeMode
	current  *RuleResult
	canceled bool
}

// Stop stops further rule evaluation (short-circuit).
func (ctx *EvaluationContext) Stop() {
	ctx.Stopped = true
}

// AddTraceStep adds a step to the evaluation trace (if tracing is enabled).
func (ctx *EvaluationContext) AddTraceStep(stepType, rule, details string, duration time.Duration) {
	if ctx.Trace == nil {
		return
	}
	ctx.Trace.Steps = append(ctx.Trace.Steps, &TraceStep{
		StepType:  stepType,
		Rule:      rule,
		Details:   details,
		Timestamp: time.Now(),
		Duration:  duration,
	})
}

// transition moves the state machine to next.
func (ctx *EvaluationContext) transition(next State) error {
	if !ctx.State.CanTransition(next) {
		return &TransitionError{From: ctx.State, To: next}
	}
	ctx.AddTraceStep("transition", "", string(ctx.State)+" -> "+string(next), 0)
	ctx.State = next
	return nil
}
