package engine

import (
	"context"
	"text/template"

	"mercator-hq/jobhook/pkg/gateway"
	"mercator-hq/jobhook/pkg/job"
)

// VolumeRedirectRule sends jobs over the page limit to the high-volume
// printer. It never cancels.
type VolumeRedirectRule struct {
	limit          int
	target         string
	allowHold      bool
	redirectNotice *template.Template
	redirectLog    *template.Template
}

// NewVolumeRedirectRule creates the rule from cfg.
func NewVolumeRedirectRule(cfg *Config) (*VolumeRedirectRule, error) {
	notice, err := compileTemplate("messages.redirect_notice", cfg.Messages.RedirectNotice)
	if err != nil {
		return nil, err
	}
	logLine, err := compileTemplate("messages.redirect_log", cfg.Messages.RedirectLog)
	if err != nil {
		return nil, err
	}
	return &VolumeRedirectRule{
		limit:          cfg.PageLimit,
		target:         cfg.HighVolumePrinter,
		allowHold:      cfg.AllowHoldAtTarget,
		redirectNotice: notice,
		redirectLog:    logLine,
	}, nil
}

// Name returns the rule name.
func (r *VolumeRedirectRule) Name() string {
	return RuleVolumeRedirect
}

// Matches holds for jobs strictly over the page limit.
func (r *VolumeRedirectRule) Matches(snap *job.Snapshot) bool {
	return snap.TotalPages > r.limit
}

// Apply bypasses the release queue, redirects, notifies the user and writes
// the audit line, in that order. Each step runs regardless of earlier
// failures. The rule never returns an error: a configured text that fails to
// render for this job is replaced by the default text.
func (r *VolumeRedirectRule) Apply(ctx context.Context, evalCtx *EvaluationContext) error {
	data := messageData(evalCtx.Job)
	data.Limit = r.limit
	data.Target = r.target

	notice := renderOrFallback(evalCtx, r.redirectNotice, fallbackRedirectNotice, data)
	logLine := renderOrFallback(evalCtx, r.redirectLog, fallbackRedirectLog, data)

	evalCtx.BypassReleaseQueue(ctx)
	evalCtx.Redirect(ctx, r.target, gateway.RedirectOptions{AllowHoldAtTarget: r.allowHold})
	evalCtx.SendMessage(ctx, notice)
	evalCtx.LogInfo(ctx, logLine)
	return nil
}

func renderOrFallback(evalCtx *EvaluationContext, tmpl, fallback *template.Template, data MessageData) string {
	text, err := render(tmpl, data)
	if err == nil {
		return text
	}
	evalCtx.Logger.Warn("message template failed, using default text",
		"template", tmpl.Name(),
		"error", err,
	)
	// The defaults only reference fields that are always set.
	text, _ = render(fallback, data)
	return text
}
