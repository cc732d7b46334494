package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/jobhook/pkg/cli"
	"mercator-hq/jobhook/pkg/config"
	"mercator-hq/jobhook/pkg/evidence"
	"mercator-hq/jobhook/pkg/evidence/export"
	"mercator-hq/jobhook/pkg/evidence/query"
	"mercator-hq/jobhook/pkg/evidence/recorder"
	"mercator-hq/jobhook/pkg/evidence/retention"
	"mercator-hq/jobhook/pkg/telemetry/logging"
)

var evidenceFlags struct {
	backend        string
	timeRange      string
	jobID          string
	user           string
	printer        string
	disposition    string
	rule           string
	redirectTarget string
	failures       string
	limit          int
	offset         int
	sort           string
	format         string
	output         string
	count          bool
	verify         bool
}

var pruneFlags struct {
	backend    string
	days       int
	maxRecords int64
	archive    string
}

var evidenceCmd = &cobra.Command{
	Use:   "evidence",
	Short: "Inspect recorded policy decisions",
	Long: `Query, export and prune the evidence records written for every
evaluated job.

Subcommands:
  query   - Query decision records with filters
  prune   - Apply the retention policy now`,
}

var evidenceQueryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query decision records",
	Long: `Query decision records with filters, newest first.

Time Range Format:
  RFC3339 interval format: "start/end"
  Example: "2026-03-01T00:00:00Z/2026-03-02T00:00:00Z"

Examples:
  # Canceled jobs of one user
  jobhook evidence query --user alice --disposition canceled

  # Jobs redirected by the volume rule, as CSV
  jobhook evidence query --rule volume_redirect --format csv -o redirected.csv

  # Decisions where a gateway action failed, checking record hashes
  jobhook evidence query --failures true --verify`,
	RunE: runEvidenceQueryCmd,
}

var evidencePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete records outside the retention policy",
	Long: `Delete records older than the retention period and the oldest records
beyond the record limit. Flags override the configured retention.

Examples:
  # Apply the configured retention
  jobhook evidence prune

  # Keep 30 days, archiving deleted records first
  jobhook evidence prune --days 30 --archive /var/lib/jobhook/archive`,
	RunE: runEvidencePruneCmd,
}

func init() {
	rootCmd.AddCommand(evidenceCmd)
	evidenceCmd.AddCommand(evidenceQueryCmd, evidencePruneCmd)

	f := evidenceQueryCmd.Flags()
	f.StringVar(&evidenceFlags.backend, "backend", "", "backend: sqlite, memory (uses config if not specified)")
	f.StringVar(&evidenceFlags.timeRange, "time-range", "", "time range (RFC3339 interval: start/end)")
	f.StringVar(&evidenceFlags.jobID, "job", "", "filter by job ID")
	f.StringVar(&evidenceFlags.user, "user", "", "filter by submitting user")
	f.StringVar(&evidenceFlags.printer, "printer", "", "filter by origin printer")
	f.StringVar(&evidenceFlags.disposition, "disposition", "", "filter by disposition (proceed, canceled)")
	f.StringVar(&evidenceFlags.rule, "rule", "", "filter by matched rule (color_confirmation, volume_redirect)")
	f.StringVar(&evidenceFlags.redirectTarget, "redirect-target", "", "filter by redirect target printer")
	f.StringVar(&evidenceFlags.failures, "failures", "", "filter by failed gateway actions (true, false)")
	f.IntVar(&evidenceFlags.limit, "limit", 0, "max results (0 uses the configured default)")
	f.IntVar(&evidenceFlags.offset, "offset", 0, "pagination offset")
	f.StringVar(&evidenceFlags.sort, "sort", "desc", "sort order by evaluation time: asc, desc")
	f.StringVar(&evidenceFlags.format, "format", "text", "output format: text, json, jsonl, csv")
	f.StringVarP(&evidenceFlags.output, "output", "o", "", "output file (default: stdout)")
	f.BoolVar(&evidenceFlags.count, "count", false, "print only the number of matching records")
	f.BoolVar(&evidenceFlags.verify, "verify", false, "verify record hashes")

	p := evidencePruneCmd.Flags()
	p.StringVar(&pruneFlags.backend, "backend", "", "backend: sqlite, memory (uses config if not specified)")
	p.IntVar(&pruneFlags.days, "days", -1, "retention period in days (default from config)")
	p.Int64Var(&pruneFlags.maxRecords, "max-records", -1, "maximum records to keep (default from config)")
	p.StringVar(&pruneFlags.archive, "archive", "", "directory receiving deleted records as JSON lines")
}

// openEvidenceStore loads the configuration and opens its evidence backend,
// with backend overriding the configured one.
func openEvidenceStore(backend string, logOut io.Writer) (*config.Config, evidence.Storage, *slog.Logger, error) {
	cfg, err := loadConfig(cfgFile)
	if err != nil {
		return nil, nil, nil, err
	}
	if backend != "" {
		cfg.Evidence.Backend = backend
	}

	logger, err := logging.New(logging.FromConfig(&cfg.Telemetry.Logging, logOut))
	if err != nil {
		return nil, nil, nil, cli.NewConfigError("telemetry.logging", err.Error())
	}

	store, err := openStorage(&cfg.Evidence, logger.Slog())
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, store, logger.Slog(), nil
}

func runEvidenceQueryCmd(cmd *cobra.Command, args []string) error {
	cfg, store, _, err := openEvidenceStore(evidenceFlags.backend, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer store.Close()

	q, err := buildQuery(&cfg.Evidence)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	out, err := openOutput(evidenceFlags.output)
	if err != nil {
		return err
	}
	defer out.Close()

	if evidenceFlags.count {
		n, err := store.Count(ctx, q)
		if err != nil {
			return cli.NewCommandError("evidence", fmt.Errorf("count failed: %w", err))
		}
		_, err = fmt.Fprintln(out, n)
		return err
	}

	records, err := store.Query(ctx, q)
	if err != nil {
		return cli.NewCommandError("evidence", fmt.Errorf("query failed: %w", err))
	}

	if err := writeRecords(ctx, out, evidenceFlags.format, records, evidenceFlags.verify); err != nil {
		return err
	}

	if evidenceFlags.verify {
		if bad := countTampered(records); bad > 0 {
			return cli.NewCommandError("evidence", fmt.Errorf("%d record(s) failed hash verification", bad))
		}
	}
	return nil
}

// buildQuery turns the query flags into a validated query.
func buildQuery(cfg *config.EvidenceConfig) (*evidence.Query, error) {
	q := &evidence.Query{
		JobID:          evidenceFlags.jobID,
		Username:       evidenceFlags.user,
		PrinterName:    evidenceFlags.printer,
		Disposition:    evidenceFlags.disposition,
		Rule:           evidenceFlags.rule,
		RedirectTarget: evidenceFlags.redirectTarget,
		Limit:          evidenceFlags.limit,
		Offset:         evidenceFlags.offset,
		SortOrder:      evidenceFlags.sort,
	}
	if q.Username != "" && cfg.Recorder.HashUsernames {
		q.Username = recorder.HashUsername(q.Username)
	}

	if evidenceFlags.timeRange != "" {
		start, end, err := parseTimeRange(evidenceFlags.timeRange)
		if err != nil {
			return nil, cli.NewConfigError("time-range", err.Error())
		}
		q.StartTime, q.EndTime = &start, &end
	}

	if evidenceFlags.failures != "" {
		b, err := strconv.ParseBool(evidenceFlags.failures)
		if err != nil {
			return nil, cli.NewConfigError("failures", fmt.Sprintf("invalid value %q (want true or false)", evidenceFlags.failures))
		}
		q.HasFailures = &b
	}

	limits := query.LimitsFromConfig(&cfg.Query)
	limits.ApplyDefaults(q)
	if err := limits.Validate(q); err != nil {
		return nil, cli.NewConfigError("query", err.Error())
	}
	return q, nil
}

// parseTimeRange parses an RFC3339 "start/end" interval.
func parseTimeRange(s string) (time.Time, time.Time, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 2 {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid time range format (expected: start/end)")
	}
	start, err := time.Parse(time.RFC3339, parts[0])
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start time: %w", err)
	}
	end, err := time.Parse(time.RFC3339, parts[1])
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid end time: %w", err)
	}
	return start, end, nil
}

// writeRecords renders records in the named format. Text output is a table.
func writeRecords(ctx context.Context, w io.Writer, format string, records []*evidence.DecisionRecord, verify bool) error {
	var exp evidence.Exporter
	switch strings.ToLower(format) {
	case "json":
		exp = export.NewJSONExporter(true)
	case "jsonl":
		exp = export.NewJSONLinesExporter()
	case "csv":
		exp = export.NewCSVExporter(true)
	case "", "text":
		return cli.NewFormatter(cli.FormatText).FormatTo(w, recordTable{records: records, verify: verify})
	default:
		return cli.NewConfigError("format", fmt.Sprintf("unsupported output format %q (want text, json, jsonl or csv)", format))
	}
	return exp.Export(ctx, records, w)
}

func countTampered(records []*evidence.DecisionRecord) int {
	bad := 0
	for _, r := range records {
		if !recorder.VerifyRecord(r) {
			bad++
		}
	}
	return bad
}

// recordTable renders decision records one per row.
type recordTable struct {
	records []*evidence.DecisionRecord
	verify  bool
}

func (t recordTable) Header() []string {
	h := []string{"EVALUATED", "JOB", "USER", "PRINTER", "DISPOSITION", "PROMPT", "REDIRECT", "FAILURES"}
	if t.verify {
		h = append(h, "HASH")
	}
	return h
}

func (t recordTable) Rows() [][]string {
	rows := make([][]string, 0, len(t.records))
	for _, r := range t.records {
		row := []string{
			r.EvaluatedAt.Format(time.RFC3339),
			r.JobID,
			r.Username,
			r.PrinterName,
			r.Disposition,
			r.PromptResponse,
			r.RedirectTarget,
			strconv.Itoa(len(r.FailedActions)),
		}
		if t.verify {
			status := "ok"
			if !recorder.VerifyRecord(r) {
				status = "MISMATCH"
			}
			row = append(row, status)
		}
		rows = append(rows, row)
	}
	return rows
}

func runEvidencePruneCmd(cmd *cobra.Command, args []string) error {
	cfg, store, logger, err := openEvidenceStore(pruneFlags.backend, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer store.Close()

	rc := retention.FromConfig(&cfg.Evidence.Retention)
	if pruneFlags.days >= 0 {
		rc.RetentionDays = pruneFlags.days
	}
	if pruneFlags.maxRecords >= 0 {
		rc.MaxRecords = pruneFlags.maxRecords
	}
	if pruneFlags.archive != "" {
		rc.ArchivePath = pruneFlags.archive
	}

	if !rc.Enabled() {
		fmt.Fprintln(cmd.OutOrStdout(), "Retention disabled, nothing to prune.")
		return nil
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	deleted, err := retention.NewPruner(store, rc, retention.WithLogger(logger)).Prune(ctx)
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d record(s).\n", deleted)
	if err != nil {
		return cli.NewCommandError("evidence prune", err)
	}
	return nil
}
