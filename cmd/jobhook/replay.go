package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/jobhook/pkg/cli"
	"mercator-hq/jobhook/pkg/evidence/retention"
	"mercator-hq/jobhook/pkg/gateway"
	"mercator-hq/jobhook/pkg/job"
	"mercator-hq/jobhook/pkg/policy/engine"
	"mercator-hq/jobhook/pkg/policy/manager"
	"mercator-hq/jobhook/pkg/telemetry/tracing"
)

// maxReplayLine bounds a single JSON line.
const maxReplayLine = 1 << 20

var replayFlags struct {
	watch       bool
	metricsAddr string
	progress    bool
	format      string
	output      string
}

var replayCmd = &cobra.Command{
	Use:   "replay [FILE]",
	Short: "Evaluate recorded job submissions",
	Long: `Evaluate job snapshots read as JSON lines from FILE, or stdin if FILE is
omitted or "-".

Each line is a job snapshot with an optional scripted prompt answer and an
optional W3C trace context:

  {"job_id":"42","printer_name":"Front Office","analysis_complete":true,
   "is_color":true,"total_pages":3,"cost":0.45,"prompt_response":"CONFIRM",
   "trace_context":{"traceparent":"00-..."}}

A color job without a prompt_response is treated as unanswered (TIMEOUT).
Blank lines and lines starting with "#" are skipped.

With --watch the configuration file is reloaded whenever it changes, and
records that follow are evaluated with the new policy. With --metrics-addr
Prometheus metrics and health endpoints are served while the replay runs.

Examples:
  # Replay a file
  jobhook replay jobs.jsonl --config jobhook.yaml

  # Stream from stdin with hot reload and metrics
  tail -f submissions.jsonl | jobhook replay --watch --metrics-addr :9090 -c jobhook.yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReplayCmd,
}

func init() {
	rootCmd.AddCommand(replayCmd)

	replayCmd.Flags().BoolVar(&replayFlags.watch, "watch", false, "reload the configuration file when it changes")
	replayCmd.Flags().StringVar(&replayFlags.metricsAddr, "metrics-addr", "", "serve metrics and health endpoints on this address")
	replayCmd.Flags().BoolVar(&replayFlags.progress, "progress", false, "show progress on stderr")
	replayCmd.Flags().StringVar(&replayFlags.format, "format", "text", "output format: text, json, csv")
	replayCmd.Flags().StringVarP(&replayFlags.output, "output", "o", "", "output file (default: stdout)")
}

// replayRecord is one input line.
type replayRecord struct {
	job.Snapshot
	PromptResponse string            `json:"prompt_response,omitempty"`
	TraceContext   map[string]string `json:"trace_context,omitempty"`
}

// evaluatorSource is satisfied by both *engine.Evaluator and *manager.Manager.
type evaluatorSource interface {
	Evaluate(ctx context.Context, snap *job.Snapshot, gw gateway.ActionGateway) (*engine.Decision, error)
}

// replayResult is the outcome of one input line.
type replayResult struct {
	Line           int    `json:"line"`
	JobID          string `json:"job_id,omitempty"`
	Printer        string `json:"printer,omitempty"`
	Disposition    string `json:"disposition,omitempty"`
	PromptResponse string `json:"prompt_response,omitempty"`
	RedirectTarget string `json:"redirect_target,omitempty"`
	Failures       int    `json:"failures,omitempty"`
	Error          string `json:"error,omitempty"`

	// TraceContext carries the record's span so downstream tooling can join
	// its own spans to the evaluation. Empty when tracing is off.
	TraceContext map[string]string `json:"trace_context,omitempty"`
}

// replaySummary counts outcomes over a whole replay.
type replaySummary struct {
	Total      int `json:"total"`
	Proceeded  int `json:"proceeded"`
	Canceled   int `json:"canceled"`
	Redirected int `json:"redirected"`
	Errors     int `json:"errors"`
}

// replayReport is the command's output.
type replayReport struct {
	Summary replaySummary  `json:"summary"`
	Results []replayResult `json:"results"`
}

func (r replayReport) Header() []string {
	return []string{"LINE", "JOB", "PRINTER", "DISPOSITION", "PROMPT", "REDIRECT", "FAILURES", "ERROR"}
}

func (r replayReport) Rows() [][]string {
	rows := make([][]string, 0, len(r.Results))
	for _, res := range r.Results {
		rows = append(rows, []string{
			strconv.Itoa(res.Line),
			res.JobID,
			res.Printer,
			res.Disposition,
			res.PromptResponse,
			res.RedirectTarget,
			strconv.Itoa(res.Failures),
			res.Error,
		})
	}
	return rows
}

func runReplayCmd(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(replayFlags.format)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cfgFile)
	if err != nil {
		return err
	}
	watch := replayFlags.watch || cfg.Policy.Watch
	if watch && cfgFile == "" {
		return cli.NewConfigError("watch", "--watch needs a --config file")
	}

	a, err := newApp(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	ctx, stop := cli.SetupSignalHandler(cmd.Context())
	defer stop()

	var (
		source evaluatorSource
		mgr    *manager.Manager
	)
	if cfgFile != "" {
		mgr, err = manager.New(cfgFile, a.buildFromFile, a.logger,
			manager.WithDebounceInterval(cfg.Policy.WatchDebounce),
			manager.WithReloadRecorder(a.collector),
		)
		if err != nil {
			return err
		}
		defer mgr.Close()
		source = mgr

		mgr.OnReload(func(ev *engine.Evaluator) {
			pc := ev.Config()
			a.logger.Info("replay continues with reloaded policy",
				"page_limit", pc.PageLimit,
				"high_volume_printer", pc.HighVolumePrinter,
				"rules", ev.RuleNames(),
			)
		})

		if watch {
			go func() {
				if err := mgr.Watch(ctx); err != nil && ctx.Err() == nil {
					a.logger.Error("config watcher stopped", "error", err)
				}
			}()
		}
	} else {
		ev, err := a.buildEvaluator(cfg)
		if err != nil {
			return err
		}
		source = ev
	}

	if a.store != nil {
		pruner := retention.NewPruner(a.store, retention.FromConfig(&cfg.Evidence.Retention),
			retention.WithLogger(a.logger),
			retention.WithMetrics(a.collector),
		)
		if err := pruner.Start(ctx); err != nil {
			a.logger.Warn("failed to start retention scheduler", "error", err)
		} else {
			defer pruner.Stop()
		}
	}

	metricsAddr := replayFlags.metricsAddr
	if metricsAddr == "" {
		metricsAddr = cfg.Telemetry.Metrics.ListenAddress
	}
	if metricsAddr != "" {
		admin, err := startAdminServer(metricsAddr, newAdminHandler(a, mgr), a.logger)
		if err != nil {
			return cli.NewCommandError("replay", fmt.Errorf("failed to start metrics endpoint: %w", err))
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := admin.Shutdown(shutdownCtx); err != nil {
				a.logger.Error("admin endpoint shutdown failed", "error", err)
			}
		}()
	}

	in := cmd.InOrStdin()
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return cli.NewCommandError("replay", err)
		}
		defer f.Close()
		in = f
	}

	var progress cli.ProgressReporter
	if replayFlags.progress {
		progress = cli.NewProgressReporter(cmd.ErrOrStderr())
	}

	report, err := replay(ctx, source, a.tracer, in, progress)
	if err != nil {
		return cli.NewCommandError("replay", err)
	}

	out, err := openOutput(replayFlags.output)
	if err != nil {
		return err
	}
	defer out.Close()

	if err := cli.NewFormatter(format).FormatTo(out, report); err != nil {
		return err
	}

	s := report.Summary
	fmt.Fprintf(cmd.ErrOrStderr(), "%d jobs: %d proceeded (%d redirected), %d canceled, %d errors\n",
		s.Total, s.Proceeded, s.Redirected, s.Canceled, s.Errors)

	if s.Errors > 0 {
		return cli.NewCommandError("replay", fmt.Errorf("%d of %d records failed", s.Errors, s.Total))
	}
	return nil
}

// replay evaluates every record in in. Malformed or invalid records are
// reported in their result and do not stop the replay. progress may be nil.
func replay(ctx context.Context, source evaluatorSource, tracer engine.SpanStarter, in io.Reader, progress cli.ProgressReporter) (replayReport, error) {
	report := replayReport{Results: []replayResult{}}

	if progress != nil {
		progress.Start(0)
		defer progress.Finish()
	}

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxReplayLine)

	line := 0
	for scanner.Scan() {
		line++
		data := bytes.TrimSpace(scanner.Bytes())
		if len(data) == 0 || data[0] == '#' {
			continue
		}
		if err := ctx.Err(); err != nil {
			return report, err
		}

		res := replayLine(ctx, source, tracer, line, data)
		report.Results = append(report.Results, res)

		s := &report.Summary
		s.Total++
		switch {
		case res.Error != "":
			s.Errors++
		case res.Disposition == string(engine.Canceled):
			s.Canceled++
		default:
			s.Proceeded++
			if res.RedirectTarget != "" {
				s.Redirected++
			}
		}

		if progress != nil {
			progress.Update(int64(s.Total))
		}
	}
	if err := scanner.Err(); err != nil {
		if progress != nil {
			progress.Error(err)
		}
		return report, fmt.Errorf("failed to read input: %w", err)
	}
	return report, nil
}

func replayLine(ctx context.Context, source evaluatorSource, tracer engine.SpanStarter, line int, data []byte) replayResult {
	res := replayResult{Line: line}

	var rec replayRecord
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&rec); err != nil {
		res.Error = fmt.Sprintf("invalid record: %v", err)
		return res
	}
	res.JobID = rec.JobID
	res.Printer = rec.PrinterName

	response := gateway.Timeout
	if rec.PromptResponse != "" {
		parsed, err := gateway.ParsePromptResponse(rec.PromptResponse)
		if err != nil {
			res.Error = err.Error()
			return res
		}
		response = parsed
	}

	ctx = jobContext(tracing.ExtractFromMap(ctx, rec.TraceContext), &rec.Snapshot)
	ctx, span := tracer.Start(ctx, "jobhook.replay.record")
	defer span.End()
	tracing.SetJobAttributes(span, &rec.Snapshot)
	if span.SpanContext().IsValid() {
		res.TraceContext = map[string]string{}
		tracing.InjectToMap(ctx, res.TraceContext)
	}

	decision, err := source.Evaluate(ctx, &rec.Snapshot, gateway.NewRecorder(response))
	if err != nil {
		tracing.SetError(span, err)
		res.Error = err.Error()
		return res
	}
	tracing.SetDecisionAttributes(span, decision)

	res.Disposition = string(decision.Disposition)
	res.PromptResponse = string(decision.PromptResponse)
	res.RedirectTarget = decision.RedirectTarget
	res.Failures = len(decision.Failures())
	return res
}
