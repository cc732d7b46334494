package config

import "time"

// ConfigBuilder provides a fluent API for building Config instances in tests.
// It starts from NewDefault so the result is valid unless a setter breaks it.
type ConfigBuilder struct {
	cfg *Config
}

// NewTestConfig creates a ConfigBuilder with an in-memory evidence backend.
func NewTestConfig() *ConfigBuilder {
	cfg := NewDefault()
	cfg.Evidence.Backend = "memory"
	return &ConfigBuilder{cfg: cfg}
}

// Build returns the built Config instance.
func (b *ConfigBuilder) Build() *Config {
	return b.cfg
}

// WithPageLimit sets the redirect page limit.
func (b *ConfigBuilder) WithPageLimit(limit int) *ConfigBuilder {
	b.cfg.Policy.PageLimit = limit
	return b
}

// WithHighVolumePrinter sets the redirect target.
func (b *ConfigBuilder) WithHighVolumePrinter(name string) *ConfigBuilder {
	b.cfg.Policy.HighVolumePrinter = name
	return b
}

// WithFailSafeMode sets the fail-safe mode.
func (b *ConfigBuilder) WithFailSafeMode(mode string) *ConfigBuilder {
	b.cfg.Policy.FailSafeMode = mode
	return b
}

// WithPromptMessage sets the color prompt template.
func (b *ConfigBuilder) WithPromptMessage(msg string) *ConfigBuilder {
	b.cfg.Policy.Prompt.Message = msg
	return b
}

// WithCosts sets the cost locale and currency.
func (b *ConfigBuilder) WithCosts(locale, currency string) *ConfigBuilder {
	b.cfg.Costs.Locale = locale
	b.cfg.Costs.Currency = currency
	return b
}

// WithEvidenceBackend sets the evidence backend.
func (b *ConfigBuilder) WithEvidenceBackend(backend string) *ConfigBuilder {
	b.cfg.Evidence.Backend = backend
	return b
}

// WithRetention sets retention days and the prune schedule.
func (b *ConfigBuilder) WithRetention(days int, schedule string) *ConfigBuilder {
	b.cfg.Evidence.Retention.Days = days
	b.cfg.Evidence.Retention.PruneSchedule = schedule
	return b
}

// WithLogLevel sets the logging level.
func (b *ConfigBuilder) WithLogLevel(level string) *ConfigBuilder {
	b.cfg.Telemetry.Logging.Level = level
	return b
}

// WithTracing enables tracing with the given sampler settings.
func (b *ConfigBuilder) WithTracing(sampler string, ratio float64, endpoint string) *ConfigBuilder {
	b.cfg.Telemetry.Tracing.Enabled = true
	b.cfg.Telemetry.Tracing.Sampler = sampler
	b.cfg.Telemetry.Tracing.SampleRatio = ratio
	b.cfg.Telemetry.Tracing.Endpoint = endpoint
	return b
}

// WithWatchDebounce sets the reload debounce interval.
func (b *ConfigBuilder) WithWatchDebounce(d time.Duration) *ConfigBuilder {
	b.cfg.Policy.WatchDebounce = d
	return b
}
