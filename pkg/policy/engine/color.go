package engine

import (
	"context"
	"fmt"
	"text/template"

	"mercator-hq/jobhook/pkg/costs"
	"mercator-hq/jobhook/pkg/gateway"
	"mercator-hq/jobhook/pkg/job"
)

// ColorConfirmationRule asks the user to confirm color jobs and cancels the
// job unless they do.
type ColorConfirmationRule struct {
	title       string
	description string
	message     *template.Template
	formatCost  costs.FormatFunc
}

// NewColorConfirmationRule creates the rule from cfg. A nil formatCost falls
// back to costs.Plain.
func NewColorConfirmationRule(cfg *Config, formatCost costs.FormatFunc) (*ColorConfirmationRule, error) {
	tmpl, err := compileTemplate("prompt.message", cfg.Prompt.Message)
	if err != nil {
		return nil, err
	}
	if formatCost == nil {
		formatCost = costs.Plain
	}
	return &ColorConfirmationRule{
		title:       cfg.Prompt.Title,
		description: cfg.Prompt.Description,
		message:     tmpl,
		formatCost:  formatCost,
	}, nil
}

// Name returns the rule name.
func (r *ColorConfirmationRule) Name() string {
	return RuleColorConfirmation
}

// Matches holds for color jobs.
func (r *ColorConfirmationRule) Matches(snap *job.Snapshot) bool {
	return snap.IsColor
}

// Apply prompts once. Cancel and Timeout both cancel the job.
func (r *ColorConfirmationRule) Apply(ctx context.Context, evalCtx *EvaluationContext) error {
	data := messageData(evalCtx.Job)
	data.Cost = r.formatCost(evalCtx.Job.Cost)

	message, err := render(r.message, data)
	if err != nil {
		return &ActionError{Rule: r.Name(), Action: gateway.OpPromptConfirm, Cause: err}
	}

	resp := evalCtx.Prompt(ctx, message, gateway.PromptOptions{
		Title:       r.title,
		Description: r.description,
	})
	if resp == gateway.Confirm {
		return nil
	}

	evalCtx.CancelJob(ctx, fmt.Sprintf("color prompt answered %s", resp))
	return nil
}
