package engine

import (
	"context"
	"fmt"

	"mercator-hq/jobhook/pkg/gateway"
)

// Prompt asks the user to confirm the job and returns their answer. When the
// gateway fails, or answers with something other than a known response, the
// answer is decided by the fail-safe mode.
func (ec *EvaluationContext) Prompt(ctx context.Context, message string, opts gateway.PromptOptions) gateway.PromptResponse {
	resp, err := ec.gateway.PromptConfirm(ctx, message, opts)
	if err == nil {
		switch resp {
		case gateway.Confirm, gateway.Cancel, gateway.Timeout:
		default:
			err = fmt.Errorf("unexpected prompt response %q", resp)
		}
	}

	details := map[string]string{"title": opts.Title}
	if err != nil {
		resp = ec.failSafeResponse()
		details["resolved_as"] = string(resp)
		ec.Logger.Warn("prompt failed, applying fail-safe mode",
			"rule", ec.ruleName(),
			"error", err,
			"fail_safe_mode", ec.failSafe,
			"resolved_as", resp,
		)
	}
	details["response"] = string(resp)

	ec.record(gateway.OpPromptConfirm, err, details)
	ec.PromptResponse = resp
	ec.metrics.RecordPromptResponse(string(resp))
	return resp
}

// CancelJob cancels the job and stops evaluation. The job counts as canceled
// even if the gateway call fails. Repeated calls are no-ops.
func (ec *EvaluationContext) CancelJob(ctx context.Context, reason string) {
	if ec.canceled {
		return
	}

	err := ec.gateway.CancelJob(ctx)
	ec.record(gateway.OpCancelJob, err, map[string]string{"reason": reason})

	ec.canceled = true
	if ec.current != nil {
		ec.current.Canceled = true
	}
	ec.Stop()

	ec.Logger.Info("job canceled",
		"rule", ec.ruleName(),
		"reason", reason,
		"printer", ec.Job.PrinterName,
	)
}

// BypassReleaseQueue skips the origin printer's release queue.
func (ec *EvaluationContext) BypassReleaseQueue(ctx context.Context) {
	err := ec.gateway.BypassReleaseQueue(ctx)
	ec.record(gateway.OpBypassReleaseQueue, err, nil)
}

// Redirect sends the job to target.
func (ec *EvaluationContext) Redirect(ctx context.Context, target string, opts gateway.RedirectOptions) {
	err := ec.gateway.Redirect(ctx, target, opts)
	ec.record(gateway.OpRedirect, err, map[string]string{
		"target":               target,
		"allow_hold_at_target": fmt.Sprint(opts.AllowHoldAtTarget),
	})
	if err != nil {
		return
	}

	ec.RedirectTarget = target
	ec.Logger.Info("job redirected",
		"rule", ec.ruleName(),
		"source", ec.Job.PrinterName,
		"target", target,
	)
}

// SendMessage notifies the user. Failures are recorded and otherwise ignored.
func (ec *EvaluationContext) SendMessage(ctx context.Context, text string) {
	err := ec.gateway.SendMessage(ctx, text)
	ec.record(gateway.OpSendMessage, err, map[string]string{"text": text})
}

// LogInfo writes an application log line. Failures are recorded and otherwise ignored.
func (ec *EvaluationContext) LogInfo(ctx context.Context, text string) {
	err := ec.gateway.LogInfo(ctx, text)
	ec.record(gateway.OpLogInfo, err, map[string]string{"text": text})
}

// Canceled reports whether the job has been canceled.
func (ec *EvaluationContext) Canceled() bool {
	return ec.canceled
}

func (ec *EvaluationContext) failSafeResponse() gateway.PromptResponse {
	if ec.failSafe == FailOpen {
		return gateway.Confirm
	}
	return gateway.Timeout
}

func (ec *EvaluationContext) ruleName() string {
	if ec.current == nil {
		return ""
	}
	return ec.current.Rule
}

func (ec *EvaluationContext) record(op gateway.Operation, err error, details map[string]string) {
	result := &ActionResult{
		Action:  op,
		Success: err == nil,
		Error:   err,
		Details: details,
	}
	if err != nil {
		result.ErrorMessage = err.Error()
		ec.metrics.RecordGatewayFailure(string(op))
		ec.Logger.Warn("gateway action failed",
			"rule", ec.ruleName(),
			"action", op,
			"error", err,
		)
	}

	if ec.current != nil {
		ec.current.Actions = append(ec.current.Actions, result)
	}
	ec.AddTraceStep("action", ec.ruleName(), fmt.Sprintf("%s success=%v", op, result.Success), 0)
}
