package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/jobhook/pkg/cli"
	"mercator-hq/jobhook/pkg/gateway"
	"mercator-hq/jobhook/pkg/job"
	"mercator-hq/jobhook/pkg/policy/engine"
)

var evaluateFlags struct {
	jobID         string
	user          string
	printer       string
	document      string
	color         bool
	pages         int
	cost          float64
	pending       bool
	response      string
	promptTimeout time.Duration
	format        string
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate one print job",
	Long: `Evaluate a single print job against the submission policies.

By default the confirmation prompt for color jobs is shown on this terminal.
Use --response to answer it from the command line instead; the gateway calls
are then listed in the output.

Examples:
  # Color job, answer the prompt interactively
  jobhook evaluate --printer "Front Office" --color --pages 4 --cost 1.20

  # Large grayscale job
  jobhook evaluate --printer "Front Office" --pages 40 --cost 2.00 --response CONFIRM

  # Job whose analysis has not finished yet
  jobhook evaluate --printer "Front Office" --pending --format json`,
	RunE: runEvaluateCmd,
}

func init() {
	rootCmd.AddCommand(evaluateCmd)

	evaluateCmd.Flags().StringVar(&evaluateFlags.printer, "printer", "", "printer the job was sent to (required)")
	evaluateCmd.Flags().StringVar(&evaluateFlags.jobID, "job-id", "", "job identifier")
	evaluateCmd.Flags().StringVar(&evaluateFlags.user, "user", "", "submitting user")
	evaluateCmd.Flags().StringVar(&evaluateFlags.document, "document", "", "document name")
	evaluateCmd.Flags().BoolVar(&evaluateFlags.color, "color", false, "job is in color")
	evaluateCmd.Flags().IntVar(&evaluateFlags.pages, "pages", 0, "total page count")
	evaluateCmd.Flags().Float64Var(&evaluateFlags.cost, "cost", 0, "job cost")
	evaluateCmd.Flags().BoolVar(&evaluateFlags.pending, "pending", false, "job analysis has not completed")
	evaluateCmd.Flags().StringVar(&evaluateFlags.response, "response", "", "scripted prompt response: CONFIRM, CANCEL, TIMEOUT")
	evaluateCmd.Flags().DurationVar(&evaluateFlags.promptTimeout, "prompt-timeout", gateway.DefaultPromptTimeout, "how long to wait for an interactive answer")
	evaluateCmd.Flags().StringVar(&evaluateFlags.format, "format", "text", "output format: text, json, csv")
	_ = evaluateCmd.MarkFlagRequired("printer")
}

func runEvaluateCmd(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(evaluateFlags.format)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cfgFile)
	if err != nil {
		return err
	}
	a, err := newApp(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	ev, err := a.buildEvaluator(cfg)
	if err != nil {
		return err
	}

	var gw gateway.ActionGateway
	var scripted *gateway.Recorder
	if evaluateFlags.response != "" {
		resp, err := gateway.ParsePromptResponse(evaluateFlags.response)
		if err != nil {
			return cli.NewConfigError("response", err.Error())
		}
		scripted = gateway.NewRecorder(resp)
		gw = scripted
	} else {
		gw = gateway.NewConsole(cmd.InOrStdin(), cmd.OutOrStdout(),
			gateway.WithPromptTimeout(evaluateFlags.promptTimeout),
			gateway.WithConsoleLogger(a.logger),
		)
	}

	ctx, stop := cli.SetupSignalHandler(cmd.Context())
	defer stop()

	snap := snapshotFromFlags()
	decision, err := ev.Evaluate(jobContext(ctx, &snap), &snap, gw)
	if err != nil {
		return cli.NewCommandError("evaluate", err)
	}

	return writeDecision(cmd.OutOrStdout(), format, decision, scripted)
}

func snapshotFromFlags() job.Snapshot {
	snap := job.Snapshot{
		JobID:        evaluateFlags.jobID,
		Username:     evaluateFlags.user,
		PrinterName:  evaluateFlags.printer,
		DocumentName: evaluateFlags.document,
		SubmittedAt:  time.Now(),
	}
	if evaluateFlags.pending {
		return snap
	}
	snap.AnalysisComplete = true
	snap.IsColor = evaluateFlags.color
	snap.TotalPages = evaluateFlags.pages
	snap.Cost = evaluateFlags.cost
	return snap
}

func writeDecision(w io.Writer, format cli.OutputFormat, d *engine.Decision, calls *gateway.Recorder) error {
	if format == cli.FormatJSON {
		return cli.NewFormatter(format).FormatTo(w, d)
	}
	return cli.NewFormatter(format).FormatTo(w, decisionTable{decision: d, calls: calls})
}

// decisionTable renders a decision as FIELD/VALUE rows.
type decisionTable struct {
	decision *engine.Decision
	calls    *gateway.Recorder
}

func (t decisionTable) Header() []string { return []string{"FIELD", "VALUE"} }

func (t decisionTable) Rows() [][]string {
	d := t.decision
	rows := [][]string{
		{"evaluation_id", d.EvaluationID},
		{"printer", d.Job.PrinterName},
		{"disposition", string(d.Disposition)},
		{"state", string(d.State)},
		{"analysis_pending", strconv.FormatBool(d.AnalysisPending)},
	}
	if d.Job.JobID != "" {
		rows = append(rows, []string{"job_id", d.Job.JobID})
	}
	if d.PromptResponse != "" {
		rows = append(rows, []string{"prompt_response", string(d.PromptResponse)})
	}
	if d.RedirectTarget != "" {
		rows = append(rows, []string{"redirect_target", d.RedirectTarget})
	}
	for _, r := range d.Rules {
		rows = append(rows, []string{"rule." + r.Rule, ruleSummary(r)})
	}
	if t.calls != nil {
		ops := make([]string, 0)
		for _, op := range t.calls.Operations() {
			ops = append(ops, string(op))
		}
		rows = append(rows, []string{"gateway_calls", strings.Join(ops, ",")})
	}
	for _, f := range d.Failures() {
		rows = append(rows, []string{"failed." + string(f.Action), f.ErrorMessage})
	}
	rows = append(rows, []string{"evaluation_time", d.EvaluationTime.Round(time.Microsecond).String()})
	return rows
}

func ruleSummary(r *engine.RuleResult) string {
	switch {
	case r.Error != "":
		return fmt.Sprintf("error: %s", r.Error)
	case r.Canceled:
		return "matched, canceled"
	case r.Matched:
		return "matched"
	default:
		return "not matched"
	}
}
