package config

import (
	"time"

	"mercator-hq/jobhook/pkg/costs"
	"mercator-hq/jobhook/pkg/policy/engine"
)

// Config is the root configuration structure for jobhook.
type Config struct {
	// Policy contains the submission policy settings.
	Policy PolicyConfig `yaml:"policy"`

	// Costs controls how job costs are displayed to users.
	Costs CostsConfig `yaml:"costs"`

	// Evidence contains configuration for decision evidence storage.
	Evidence EvidenceConfig `yaml:"evidence"`

	// Telemetry contains configuration for logging, metrics and tracing.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// PolicyConfig contains the submission policy settings.
type PolicyConfig struct {
	// PageLimit is the largest page count that is not redirected.
	// Default: 10
	PageLimit int `yaml:"page_limit"`

	// HighVolumePrinter receives jobs over the page limit.
	// Default: "Perrysburg Showroom M3150"
	HighVolumePrinter string `yaml:"high_volume_printer"`

	// AllowHoldAtTarget lets redirected jobs wait in the target's release queue.
	// Default: true
	AllowHoldAtTarget bool `yaml:"allow_hold_at_target"`

	// FailSafeMode resolves failed prompts and rules.
	// Options: "fail-closed", "fail-open"
	// Default: "fail-closed"
	FailSafeMode string `yaml:"fail_safe_mode"`

	// Trace attaches a step-by-step trace to each decision.
	// Default: false
	Trace bool `yaml:"trace"`

	// Prompt contains the color confirmation dialog texts.
	Prompt PromptConfig `yaml:"prompt"`

	// Messages contains the redirect notice and log templates.
	Messages MessagesConfig `yaml:"messages"`

	// Watch enables hot reload when the configuration file changes.
	// Default: false
	Watch bool `yaml:"watch"`

	// WatchDebounce is the quiet period before a reload.
	// Default: 100ms
	WatchDebounce time.Duration `yaml:"watch_debounce"`
}

// PromptConfig contains the color confirmation dialog texts.
type PromptConfig struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`

	// Message is a Go text/template. Fields: .Cost .Pages .Source .User .JobID .Document
	Message string `yaml:"message"`
}

// MessagesConfig contains the redirect notice and log line templates.
type MessagesConfig struct {
	// RedirectNotice is sent to the user. Fields: .Limit .Target .Source .Pages
	RedirectNotice string `yaml:"redirect_notice"`

	// RedirectLog is written to the application log. Fields: .Source .Target .Limit .Pages
	RedirectLog string `yaml:"redirect_log"`
}

// CostsConfig controls how job costs are displayed.
type CostsConfig struct {
	// Locale is a BCP 47 tag.
	// Default: "en-US"
	Locale string `yaml:"locale"`

	// Currency is an ISO 4217 code.
	// Default: "USD"
	Currency string `yaml:"currency"`
}

// EvidenceConfig controls where and how decisions are recorded.
type EvidenceConfig struct {
	Enabled bool `yaml:"enabled"` // default true

	// Backend is "sqlite" (default) or "memory". The memory backend loses
	// everything on exit and is meant for tests and dry runs.
	Backend string `yaml:"backend"`

	SQLite    SQLiteConfig    `yaml:"sqlite"`
	Recorder  RecorderConfig  `yaml:"recorder"`
	Retention RetentionConfig `yaml:"retention"`
	Query     QueryConfig     `yaml:"query"`
}

// SQLiteConfig configures the sqlite evidence database.
type SQLiteConfig struct {
	Path         string        `yaml:"path"`           // default data/evidence.db
	MaxOpenConns int           `yaml:"max_open_conns"` // default 10
	MaxIdleConns int           `yaml:"max_idle_conns"` // default 5
	WALMode      bool          `yaml:"wal_mode"`       // default true
	BusyTimeout  time.Duration `yaml:"busy_timeout"`   // default 5s
}

// RecorderConfig configures the asynchronous evidence writer.
type RecorderConfig struct {
	// AsyncBuffer is how many decisions may wait for storage. Default: 1000
	AsyncBuffer int `yaml:"async_buffer"`

	// WriteTimeout bounds both waiting for buffer space and each write.
	// Default: 5s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// MaxFieldLength truncates document names and error texts. Default: 500
	MaxFieldLength int `yaml:"max_field_length"`

	// HashUsernames stores "sha256:<hex>" instead of the username.
	HashUsernames bool `yaml:"hash_usernames"`
}

// RetentionConfig limits how much evidence is kept.
type RetentionConfig struct {
	// Days keeps records evaluated within the last Days days; 0 keeps
	// everything. Default: 90
	Days int `yaml:"days"`

	// PruneSchedule is a five-field cron expression. Default: "0 3 * * *"
	PruneSchedule string `yaml:"prune_schedule"`

	// MaxRecords caps the table size, oldest first; 0 is unlimited.
	MaxRecords int64 `yaml:"max_records"`

	// ArchivePath, when set, receives pruned records as JSON lines before
	// they are deleted.
	ArchivePath string `yaml:"archive_path"`
}

// QueryConfig bounds evidence query page sizes.
type QueryConfig struct {
	DefaultLimit int `yaml:"default_limit"` // default 100
	MaxLimit     int `yaml:"max_limit"`     // default 10000
}

// TelemetryConfig groups logging, metrics and tracing.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig configures the slog handler.
type LoggingConfig struct {
	// Level is debug, info (default), warn or error.
	Level string `yaml:"level"`

	// Format is json (default) or text.
	Format string `yaml:"format"`

	AddSource bool `yaml:"add_source"`

	// RedactPII masks usernames and email addresses in log attributes.
	RedactPII bool `yaml:"redact_pii"`
}

// MetricsConfig configures the Prometheus collector.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // default true
	Path    string `yaml:"path"`    // default /metrics

	// ListenAddress serves metrics and health endpoints during replay.
	// Empty disables the listener.
	ListenAddress string `yaml:"listen_address"`

	Namespace string `yaml:"namespace"` // default jobhook
	Subsystem string `yaml:"subsystem"` // default policy

	// DurationBuckets are the evaluation duration histogram buckets, in
	// seconds.
	DurationBuckets []float64 `yaml:"duration_buckets"`
}

// TracingConfig configures OpenTelemetry export.
type TracingConfig struct {
	Enabled bool `yaml:"enabled"`

	// Sampler is always, never or ratio (default). A sampled parent span is
	// always followed.
	Sampler     string  `yaml:"sampler"`
	SampleRatio float64 `yaml:"sample_ratio"` // default 0.1

	// Endpoint is the OTLP gRPC collector, e.g. "localhost:4317".
	Endpoint    string     `yaml:"endpoint"`
	ServiceName string     `yaml:"service_name"` // default jobhook
	OTLP        OTLPConfig `yaml:"otlp"`
}

// OTLPConfig configures the OTLP gRPC exporter.
type OTLPConfig struct {
	Insecure bool          `yaml:"insecure"` // default true
	Timeout  time.Duration `yaml:"timeout"`  // default 10s
}

// EngineConfig converts the policy section to an evaluator configuration.
func (c *Config) EngineConfig() *engine.Config {
	return &engine.Config{
		PageLimit:         c.Policy.PageLimit,
		HighVolumePrinter: c.Policy.HighVolumePrinter,
		AllowHoldAtTarget: c.Policy.AllowHoldAtTarget,
		Prompt: engine.PromptConfig{
			Title:       c.Policy.Prompt.Title,
			Description: c.Policy.Prompt.Description,
			Message:     c.Policy.Prompt.Message,
		},
		Messages: engine.MessageConfig{
			RedirectNotice: c.Policy.Messages.RedirectNotice,
			RedirectLog:    c.Policy.Messages.RedirectLog,
		},
		FailSafeMode: engine.FailSafeMode(c.Policy.FailSafeMode),
		EnableTrace:  c.Policy.Trace,
	}
}

// FormatterConfig converts the costs section to a cost formatter configuration.
func (c *Config) FormatterConfig() costs.Config {
	return costs.Config{Locale: c.Costs.Locale, Currency: c.Costs.Currency}
}
