package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "jobhook.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfig_ValidFile(t *testing.T) {
	path := writeConfig(t, `
policy:
  page_limit: 25
  high_volume_printer: "Basement MFP"
  fail_safe_mode: "fail-open"
  watch: true
  watch_debounce: "250ms"
  prompt:
    title: "Colour job"

costs:
  locale: "de-DE"
  currency: "EUR"

evidence:
  backend: "memory"
  retention:
    days: 30

telemetry:
  logging:
    level: "debug"
    format: "text"
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Policy.PageLimit != 25 {
		t.Errorf("expected page limit 25, got %d", cfg.Policy.PageLimit)
	}
	if cfg.Policy.HighVolumePrinter != "Basement MFP" {
		t.Errorf("expected printer %q, got %q", "Basement MFP", cfg.Policy.HighVolumePrinter)
	}
	if cfg.Policy.FailSafeMode != "fail-open" {
		t.Errorf("expected fail-open, got %q", cfg.Policy.FailSafeMode)
	}
	if !cfg.Policy.Watch || cfg.Policy.WatchDebounce != 250*time.Millisecond {
		t.Errorf("expected watch with 250ms debounce, got %v/%v", cfg.Policy.Watch, cfg.Policy.WatchDebounce)
	}
	if cfg.Policy.Prompt.Title != "Colour job" {
		t.Errorf("expected prompt title override, got %q", cfg.Policy.Prompt.Title)
	}
	if !strings.Contains(cfg.Policy.Prompt.Message, "{{.Cost}}") {
		t.Errorf("expected default prompt message to be kept, got %q", cfg.Policy.Prompt.Message)
	}
	if cfg.Costs.Currency != "EUR" {
		t.Errorf("expected currency EUR, got %q", cfg.Costs.Currency)
	}
	if cfg.Evidence.Retention.Days != 30 {
		t.Errorf("expected retention days 30, got %d", cfg.Evidence.Retention.Days)
	}
	if cfg.Telemetry.Logging.Level != "debug" {
		t.Errorf("expected logging level %q, got %q", "debug", cfg.Telemetry.Logging.Level)
	}
}

func TestLoadConfig_DefaultsForEmptyFile(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "{}\n"))
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Policy.PageLimit != DefaultPageLimit {
		t.Errorf("expected page limit %d, got %d", DefaultPageLimit, cfg.Policy.PageLimit)
	}
	if cfg.Policy.HighVolumePrinter != "Perrysburg Showroom M3150" {
		t.Errorf("expected default printer, got %q", cfg.Policy.HighVolumePrinter)
	}
	if !cfg.Policy.AllowHoldAtTarget {
		t.Error("expected allow_hold_at_target to default to true")
	}
	if cfg.Policy.FailSafeMode != DefaultFailSafeMode {
		t.Errorf("expected fail-safe mode %q, got %q", DefaultFailSafeMode, cfg.Policy.FailSafeMode)
	}
	if !cfg.Evidence.Enabled || cfg.Evidence.Backend != DefaultEvidenceBackend {
		t.Errorf("expected evidence enabled with %q, got %v/%q", DefaultEvidenceBackend, cfg.Evidence.Enabled, cfg.Evidence.Backend)
	}
	if len(cfg.Telemetry.Metrics.DurationBuckets) != len(DefaultDurationBuckets) {
		t.Errorf("expected default duration buckets, got %v", cfg.Telemetry.Metrics.DurationBuckets)
	}
}

func TestLoadConfig_ExplicitZeroValuesKept(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, `
policy:
  page_limit: 0
  allow_hold_at_target: false
evidence:
  enabled: false
telemetry:
  metrics:
    enabled: false
`))
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Policy.PageLimit != 0 {
		t.Errorf("expected explicit page limit 0, got %d", cfg.Policy.PageLimit)
	}
	if cfg.Policy.AllowHoldAtTarget {
		t.Error("expected allow_hold_at_target false")
	}
	if cfg.Evidence.Enabled {
		t.Error("expected evidence disabled")
	}
	if cfg.Telemetry.Metrics.Enabled {
		t.Error("expected metrics disabled")
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist, got %v", err)
	}
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "policy: [unterminated\n"))
	if err == nil {
		t.Fatal("expected error for invalid YAML")
	}
	if !strings.Contains(err.Error(), "failed to parse") {
		t.Errorf("expected parse error, got %v", err)
	}
}

func TestLoadConfig_ValidationFailure(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, `
policy:
  page_limit: -1
`))
	if err == nil {
		t.Fatal("expected validation error")
	}

	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T: %v", err, err)
	}
	if verr.Errors[0].Field != "policy.page_limit" {
		t.Errorf("expected field policy.page_limit, got %q", verr.Errors[0].Field)
	}
}

func TestLoadConfigWithEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
policy:
  page_limit: 25
evidence:
  backend: "memory"
`)

	t.Setenv("JOBHOOK_POLICY_PAGE_LIMIT", "50")
	t.Setenv("JOBHOOK_POLICY_HIGH_VOLUME_PRINTER", "Annex Printer")
	t.Setenv("JOBHOOK_POLICY_ALLOW_HOLD_AT_TARGET", "false")
	t.Setenv("JOBHOOK_POLICY_WATCH_DEBOUNCE", "1s")
	t.Setenv("JOBHOOK_COSTS_CURRENCY", "GBP")
	t.Setenv("JOBHOOK_TELEMETRY_LOGGING_LEVEL", "warn")
	t.Setenv("JOBHOOK_TELEMETRY_TRACING_SAMPLE_RATIO", "0.5")

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Policy.PageLimit != 50 {
		t.Errorf("expected page limit 50, got %d", cfg.Policy.PageLimit)
	}
	if cfg.Policy.HighVolumePrinter != "Annex Printer" {
		t.Errorf("expected printer override, got %q", cfg.Policy.HighVolumePrinter)
	}
	if cfg.Policy.AllowHoldAtTarget {
		t.Error("expected allow_hold_at_target false from environment")
	}
	if cfg.Policy.WatchDebounce != time.Second {
		t.Errorf("expected debounce 1s, got %v", cfg.Policy.WatchDebounce)
	}
	if cfg.Costs.Currency != "GBP" {
		t.Errorf("expected currency GBP, got %q", cfg.Costs.Currency)
	}
	if cfg.Telemetry.Logging.Level != "warn" {
		t.Errorf("expected level warn, got %q", cfg.Telemetry.Logging.Level)
	}
	if cfg.Telemetry.Tracing.SampleRatio != 0.5 {
		t.Errorf("expected sample ratio 0.5, got %v", cfg.Telemetry.Tracing.SampleRatio)
	}
}

func TestLoadConfigWithEnvOverrides_IgnoresMalformedValues(t *testing.T) {
	t.Setenv("JOBHOOK_POLICY_PAGE_LIMIT", "many")
	t.Setenv("JOBHOOK_POLICY_TRACE", "sometimes")

	cfg, err := LoadConfigWithEnvOverrides("")
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Policy.PageLimit != DefaultPageLimit {
		t.Errorf("expected default page limit, got %d", cfg.Policy.PageLimit)
	}
	if cfg.Policy.Trace {
		t.Error("expected trace to stay disabled")
	}
}

func TestLoadConfigWithEnvOverrides_InvalidOverride(t *testing.T) {
	t.Setenv("JOBHOOK_POLICY_FAIL_SAFE_MODE", "fail-sideways")

	_, err := LoadConfigWithEnvOverrides("")
	if err == nil {
		t.Fatal("expected validation error after overrides")
	}
	if !strings.Contains(err.Error(), "after environment overrides") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestParse_EngineConfigRoundTrip(t *testing.T) {
	cfg, err := Parse([]byte(`
policy:
  page_limit: 3
  trace: true
  messages:
    redirect_notice: "Sent to {{.Target}}"
`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	ec := cfg.EngineConfig()
	if ec.PageLimit != 3 || !ec.EnableTrace {
		t.Errorf("engine config = %+v", ec)
	}
	if ec.Messages.RedirectNotice != "Sent to {{.Target}}" {
		t.Errorf("expected custom redirect notice, got %q", ec.Messages.RedirectNotice)
	}
	if err := ec.Validate(); err != nil {
		t.Errorf("engine config should validate: %v", err)
	}
}
