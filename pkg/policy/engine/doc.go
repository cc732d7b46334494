// Package engine evaluates print-job submission policies.
//
// The platform pauses a submitted job and hands the evaluator a job.Snapshot
// together with a gateway.ActionGateway. The evaluator runs a fixed, ordered
// list of rules against the snapshot; rules act on the job only through the
// gateway, and the evaluation ends with a Disposition of Proceed or Canceled.
//
// # Rules
//
// Two rules are built in and always run in this order:
//
//  1. ColorConfirmationRule - color jobs must be confirmed by the user. The
//     prompt shows the formatted job cost. A Cancel or Timeout answer cancels
//     the job and ends the evaluation.
//  2. VolumeRedirectRule - jobs over the page limit bypass the origin release
//     queue, are redirected to the high-volume printer, and the user and the
//     application log are notified.
//
// # State machine
//
//	AwaitingAnalysis --(analysis incomplete)--> Proceeding
//	AwaitingAnalysis --(analysis complete)----> Evaluating
//	Evaluating ------(rule canceled job)------> Canceled
//	Evaluating ------(rules exhausted)--------> Proceeding
//
// Proceeding and Canceled are terminal. Until analysis is complete no rule
// runs and the gateway is not called.
//
// # Fail-safe modes
//
// A gateway prompt that fails outright, or a rule that cannot build its
// messages, is resolved by the configured FailSafeMode:
//
//   - fail-closed: cancel the job (default)
//   - fail-open: let the job continue as if confirmed
//
// Failures of the best-effort actions (messages and log lines) never change
// the disposition. They are logged, counted and recorded on the Decision.
//
// # Basic Usage
//
//	ev, err := engine.New(engine.DefaultConfig(),
//	    engine.WithLogger(logger),
//	    engine.WithCostFormatter(formatter.Func()),
//	)
//	if err != nil {
//	    return err
//	}
//
//	decision, err := ev.Evaluate(ctx, snapshot, gw)
//	if err != nil {
//	    return err
//	}
//	if decision.Disposition == engine.Canceled {
//	    // job has been canceled through the gateway
//	}
//
// # Thread Safety
//
// An Evaluator is immutable after New and safe for concurrent use. Each call
// to Evaluate works on its own EvaluationContext.
package engine
