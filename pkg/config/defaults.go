package config

import (
	"time"

	"mercator-hq/jobhook/pkg/policy/engine"
)

// Default values for configuration fields.
const (
	// Policy defaults
	DefaultPageLimit         = engine.DefaultPageLimit
	DefaultHighVolumePrinter = engine.DefaultHighVolumePrinter
	DefaultAllowHoldAtTarget = true
	DefaultFailSafeMode      = string(engine.FailClosed)
	DefaultWatchDebounce     = 100 * time.Millisecond

	// Costs defaults
	DefaultCostsLocale   = "en-US"
	DefaultCostsCurrency = "USD"

	// Evidence defaults
	DefaultEvidenceEnabled              = true
	DefaultEvidenceBackend              = "sqlite"
	DefaultEvidenceSQLitePath           = "data/evidence.db"
	DefaultEvidenceSQLiteMaxOpenConns   = 10
	DefaultEvidenceSQLiteMaxIdleConns   = 5
	DefaultEvidenceSQLiteWALMode        = true
	DefaultEvidenceSQLiteBusyTimeout    = 5 * time.Second
	DefaultEvidenceRecorderAsyncBuffer  = 1000
	DefaultEvidenceRecorderWriteTimeout = 5 * time.Second
	DefaultEvidenceRecorderMaxFieldLen  = 500
	DefaultEvidenceRetentionDays        = 90
	DefaultEvidenceRetentionSchedule    = "0 3 * * *"
	DefaultEvidenceQueryDefaultLimit    = 100
	DefaultEvidenceQueryMaxLimit        = 10000

	// Telemetry defaults
	DefaultLoggingLevel       = "info"
	DefaultLoggingFormat      = "json"
	DefaultMetricsEnabled     = true
	DefaultPrometheusPath     = "/metrics"
	DefaultMetricsNamespace   = "jobhook"
	DefaultMetricsSubsystem   = "policy"
	DefaultTracingSampler     = "ratio"
	DefaultTracingSampleRatio = 0.1
	DefaultTracingServiceName = "jobhook"
	DefaultOTLPInsecure       = true
	DefaultOTLPTimeout        = 10 * time.Second
)

// DefaultDurationBuckets are the evaluation duration histogram buckets in seconds.
// Evaluations that prompt the user can take as long as the prompt timeout.
var DefaultDurationBuckets = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 1, 5, 15, 30, 60, 120}

// NewDefault returns a configuration with every default applied, including
// the boolean defaults ApplyDefaults cannot infer from zero values.
func NewDefault() *Config {
	cfg := &Config{
		Policy: PolicyConfig{
			PageLimit:         DefaultPageLimit,
			AllowHoldAtTarget: DefaultAllowHoldAtTarget,
		},
		Evidence: EvidenceConfig{
			Enabled: DefaultEvidenceEnabled,
			SQLite: SQLiteConfig{
				WALMode: DefaultEvidenceSQLiteWALMode,
			},
			Retention: RetentionConfig{
				Days: DefaultEvidenceRetentionDays,
			},
		},
		Telemetry: TelemetryConfig{
			Metrics: MetricsConfig{
				Enabled: DefaultMetricsEnabled,
			},
			Tracing: TracingConfig{
				SampleRatio: DefaultTracingSampleRatio,
				OTLP: OTLPConfig{
					Insecure: DefaultOTLPInsecure,
				},
			},
		},
	}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults applies default values to a Config struct.
// It sets defaults for any fields that have zero values.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	// Policy defaults
	if cfg.Policy.HighVolumePrinter == "" {
		cfg.Policy.HighVolumePrinter = DefaultHighVolumePrinter
	}
	if cfg.Policy.FailSafeMode == "" {
		cfg.Policy.FailSafeMode = DefaultFailSafeMode
	}
	if cfg.Policy.WatchDebounce == 0 {
		cfg.Policy.WatchDebounce = DefaultWatchDebounce
	}
	if cfg.Policy.Prompt.Title == "" {
		cfg.Policy.Prompt.Title = engine.DefaultPromptTitle
	}
	if cfg.Policy.Prompt.Description == "" {
		cfg.Policy.Prompt.Description = engine.DefaultPromptDescription
	}
	if cfg.Policy.Prompt.Message == "" {
		cfg.Policy.Prompt.Message = engine.DefaultPromptMessage
	}
	if cfg.Policy.Messages.RedirectNotice == "" {
		cfg.Policy.Messages.RedirectNotice = engine.DefaultRedirectNotice
	}
	if cfg.Policy.Messages.RedirectLog == "" {
		cfg.Policy.Messages.RedirectLog = engine.DefaultRedirectLog
	}

	// Costs defaults
	if cfg.Costs.Locale == "" {
		cfg.Costs.Locale = DefaultCostsLocale
	}
	if cfg.Costs.Currency == "" {
		cfg.Costs.Currency = DefaultCostsCurrency
	}

	// Evidence defaults
	if cfg.Evidence.Backend == "" {
		cfg.Evidence.Backend = DefaultEvidenceBackend
	}
	if cfg.Evidence.SQLite.Path == "" {
		cfg.Evidence.SQLite.Path = DefaultEvidenceSQLitePath
	}
	if cfg.Evidence.SQLite.MaxOpenConns == 0 {
		cfg.Evidence.SQLite.MaxOpenConns = DefaultEvidenceSQLiteMaxOpenConns
	}
	if cfg.Evidence.SQLite.MaxIdleConns == 0 {
		cfg.Evidence.SQLite.MaxIdleConns = DefaultEvidenceSQLiteMaxIdleConns
	}
	if cfg.Evidence.SQLite.BusyTimeout == 0 {
		cfg.Evidence.SQLite.BusyTimeout = DefaultEvidenceSQLiteBusyTimeout
	}
	if cfg.Evidence.Recorder.AsyncBuffer == 0 {
		cfg.Evidence.Recorder.AsyncBuffer = DefaultEvidenceRecorderAsyncBuffer
	}
	if cfg.Evidence.Recorder.WriteTimeout == 0 {
		cfg.Evidence.Recorder.WriteTimeout = DefaultEvidenceRecorderWriteTimeout
	}
	if cfg.Evidence.Recorder.MaxFieldLength == 0 {
		cfg.Evidence.Recorder.MaxFieldLength = DefaultEvidenceRecorderMaxFieldLen
	}
	if cfg.Evidence.Retention.PruneSchedule == "" {
		cfg.Evidence.Retention.PruneSchedule = DefaultEvidenceRetentionSchedule
	}
	if cfg.Evidence.Query.DefaultLimit == 0 {
		cfg.Evidence.Query.DefaultLimit = DefaultEvidenceQueryDefaultLimit
	}
	if cfg.Evidence.Query.MaxLimit == 0 {
		cfg.Evidence.Query.MaxLimit = DefaultEvidenceQueryMaxLimit
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultPrometheusPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Telemetry.Metrics.Subsystem == "" {
		cfg.Telemetry.Metrics.Subsystem = DefaultMetricsSubsystem
	}
	if len(cfg.Telemetry.Metrics.DurationBuckets) == 0 {
		cfg.Telemetry.Metrics.DurationBuckets = append([]float64(nil), DefaultDurationBuckets...)
	}
	if cfg.Telemetry.Tracing.Sampler == "" {
		cfg.Telemetry.Tracing.Sampler = DefaultTracingSampler
	}
	if cfg.Telemetry.Tracing.ServiceName == "" {
		cfg.Telemetry.Tracing.ServiceName = DefaultTracingServiceName
	}
	if cfg.Telemetry.Tracing.OTLP.Timeout == 0 {
		cfg.Telemetry.Tracing.OTLP.Timeout = DefaultOTLPTimeout
	}
}
