package gateway

import (
	"context"
	"fmt"
	"strings"
)

// PromptResponse is the user's answer to a confirmation prompt.
type PromptResponse string

const (
	// Confirm means the user chose to print.
	Confirm PromptResponse = "CONFIRM"

	// Cancel means the user declined.
	Cancel PromptResponse = "CANCEL"

	// Timeout means the user did not answer before the host's deadline.
	Timeout PromptResponse = "TIMEOUT"
)

// ParsePromptResponse parses a response name case-insensitively.
func ParsePromptResponse(s string) (PromptResponse, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(Confirm):
		return Confirm, nil
	case string(Cancel):
		return Cancel, nil
	case string(Timeout):
		return Timeout, nil
	default:
		return "", fmt.Errorf("unknown prompt response %q", s)
	}
}

// PromptOptions are the dialog texts shown with a confirmation prompt.
type PromptOptions struct {
	Title       string
	Description string
}

// RedirectOptions control how a redirected job is queued at its target.
type RedirectOptions struct {
	// AllowHoldAtTarget lets the job wait in the target printer's
	// hold/release queue, if one is defined.
	AllowHoldAtTarget bool
}

// ActionGateway is the host-provided set of side-effecting job operations.
type ActionGateway interface {
	// PromptConfirm asks the submitting user to confirm the job and blocks
	// until they answer or the host's timeout elapses.
	PromptConfirm(ctx context.Context, message string, opts PromptOptions) (PromptResponse, error)

	// CancelJob halts the job.
	CancelJob(ctx context.Context) error

	// BypassReleaseQueue skips the origin printer's hold/release queue.
	// It has no effect unless the job is also redirected.
	BypassReleaseQueue(ctx context.Context) error

	// Redirect reassigns the job to targetPrinter.
	Redirect(ctx context.Context, targetPrinter string, opts RedirectOptions) error

	// SendMessage notifies the user. Best effort.
	SendMessage(ctx context.Context, text string) error

	// LogInfo writes an audit line to the application log. Best effort.
	LogInfo(ctx context.Context, text string) error
}

// Operation names a gateway method.
type Operation string

const (
	OpPromptConfirm      Operation = "promptConfirm"
	OpCancelJob          Operation = "cancelJob"
	OpBypassReleaseQueue Operation = "bypassReleaseQueue"
	OpRedirect           Operation = "redirect"
	OpSendMessage        Operation = "sendMessage"
	OpLogInfo            Operation = "logInfo"
)
