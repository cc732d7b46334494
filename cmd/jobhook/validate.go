package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"mercator-hq/jobhook/pkg/cli"
	"mercator-hq/jobhook/pkg/config"
	"mercator-hq/jobhook/pkg/costs"
	"mercator-hq/jobhook/pkg/policy/engine"
)

var validateFlags struct {
	format string
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Validate the configuration file given with --config, including
JOBHOOK_* environment overrides.

Every invalid field is reported. The policy templates are compiled and a
sample cost is formatted, so a file that validates can be loaded by
"jobhook replay --watch" without errors.

Examples:
  jobhook validate --config jobhook.yaml
  JOBHOOK_POLICY_PAGE_LIMIT=25 jobhook validate -c jobhook.yaml --format json`,
	RunE: runValidateCmd,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVar(&validateFlags.format, "format", "text", "output format: text, json, csv")
}

// settingsTable lists the effective policy settings.
type settingsTable struct {
	Valid    bool              `json:"valid"`
	Settings map[string]string `json:"settings,omitempty"`
	Errors   []string          `json:"errors,omitempty"`
	order    []string
}

func (t settingsTable) Header() []string { return []string{"SETTING", "VALUE"} }

func (t settingsTable) Rows() [][]string {
	rows := make([][]string, 0, len(t.order)+len(t.Errors))
	for _, key := range t.order {
		rows = append(rows, []string{key, t.Settings[key]})
	}
	for _, e := range t.Errors {
		rows = append(rows, []string{"error", e})
	}
	return rows
}

func (t *settingsTable) set(key, value string) {
	if t.Settings == nil {
		t.Settings = make(map[string]string)
	}
	t.Settings[key] = value
	t.order = append(t.order, key)
}

func runValidateCmd(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(validateFlags.format)
	if err != nil {
		return err
	}
	return validateConfig(cmd.OutOrStdout(), format, cfgFile)
}

// validateConfig writes the validation result for path to w. A configuration
// problem is returned as a *cli.ConfigError.
func validateConfig(w io.Writer, format cli.OutputFormat, path string) error {
	table, err := checkConfig(path)
	if ferr := cli.NewFormatter(format).FormatTo(w, table); ferr != nil {
		return ferr
	}
	return err
}

func checkConfig(path string) (settingsTable, error) {
	var table settingsTable

	cfg, err := config.LoadConfigWithEnvOverrides(path)
	if err != nil {
		var ve config.ValidationError
		if errors.As(err, &ve) {
			for _, fe := range ve.Errors {
				table.Errors = append(table.Errors, fe.Error())
			}
		} else {
			table.Errors = append(table.Errors, err.Error())
		}
		return table, cli.NewConfigError("config", fmt.Sprintf("%d problem(s) found", len(table.Errors)))
	}

	formatter, err := costs.New(cfg.FormatterConfig())
	if err != nil {
		table.Errors = append(table.Errors, err.Error())
		return table, cli.NewConfigError("costs", err.Error())
	}
	ev, err := engine.New(cfg.EngineConfig(), engine.WithCostFormatter(formatter.Func()))
	if err != nil {
		table.Errors = append(table.Errors, err.Error())
		return table, cli.NewConfigError("policy", err.Error())
	}

	ec := ev.Config()
	table.Valid = true
	table.set("page_limit", strconv.Itoa(ec.PageLimit))
	table.set("high_volume_printer", ec.HighVolumePrinter)
	table.set("fail_safe_mode", string(ec.FailSafeMode))
	table.set("rules", fmt.Sprint(ev.RuleNames()))
	table.set("sample_cost", formatter.Format(1.5))
	table.set("evidence", evidenceSummary(&cfg.Evidence))
	table.set("tracing", strconv.FormatBool(cfg.Telemetry.Tracing.Enabled))
	return table, nil
}

func evidenceSummary(cfg *config.EvidenceConfig) string {
	if !cfg.Enabled {
		return "disabled"
	}
	if cfg.Backend == "sqlite" {
		return "sqlite " + cfg.SQLite.Path
	}
	return cfg.Backend
}
