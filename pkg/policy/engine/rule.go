package engine

import (
	"context"

	"mercator-hq/jobhook/pkg/job"
)

// Rule is a single submission policy. Rules are stateless; everything they
// learn or do during an evaluation lives on the EvaluationContext.
type Rule interface {
	// Name identifies the rule in logs, metrics and decisions.
	Name() string

	// Matches reports whether the rule applies to the job. It is only called
	// once the job's analysis is complete.
	Matches(snap *job.Snapshot) bool

	// Apply performs the rule's action sequence through evalCtx. A returned
	// error means the sequence could not be carried out and is resolved by
	// the evaluator's fail-safe mode.
	Apply(ctx context.Context, evalCtx *EvaluationContext) error
}

// Rule names.
const (
	RuleColorConfirmation = "color_confirmation"
	RuleVolumeRedirect    = "volume_redirect"
)

func messageData(snap *job.Snapshot) MessageData {
	return MessageData{
		Pages:    snap.TotalPages,
		Source:   snap.PrinterName,
		User:     snap.Username,
		JobID:    snap.JobID,
		Document: snap.DocumentName,
	}
}
