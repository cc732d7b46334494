package engine

import (
	"fmt"
	"strings"
)

// FailSafeMode determines how the evaluator resolves prompt and rule failures.
type FailSafeMode string

const (
	// FailOpen lets the job continue as if the user had confirmed.
	FailOpen FailSafeMode = "fail-open"

	// FailClosed cancels the job. This is the default.
	FailClosed FailSafeMode = "fail-closed"
)

// Default policy values.
const (
	DefaultPageLimit         = 10
	DefaultHighVolumePrinter = "Perrysburg Showroom M3150"
)

// Config contains configuration for the policy evaluator.
type Config struct {
	// PageLimit is the largest page count that is not redirected.
	// Default: 10.
	PageLimit int

	// HighVolumePrinter receives jobs over PageLimit. Must be compatible with
	// the source printers (same printer language).
	// Default: "Perrysburg Showroom M3150".
	HighVolumePrinter string

	// AllowHoldAtTarget lets redirected jobs wait in the target's release queue.
	// Default: true.
	AllowHoldAtTarget bool

	// Prompt holds the color confirmation dialog texts.
	Prompt PromptConfig

	// Messages holds the redirect notice and log templates.
	Messages MessageConfig

	// FailSafeMode determines how to handle prompt and rule failures.
	// Default: FailClosed.
	FailSafeMode FailSafeMode

	// EnableTrace enables detailed evaluation tracing on each Decision.
	// Default: false.
	EnableTrace bool
}

// PromptConfig holds the color confirmation dialog texts. Message is a
// text/template rendered with MessageData.
type PromptConfig struct {
	Title       string
	Description string
	Message     string
}

// MessageConfig holds the redirect notice sent to the user and the line
// written to the application log. Both are text/templates rendered with
// MessageData.
type MessageConfig struct {
	RedirectNotice string
	RedirectLog    string
}

// DefaultConfig returns the default evaluator configuration.
func DefaultConfig() *Config {
	return &Config{
		PageLimit:         DefaultPageLimit,
		HighVolumePrinter: DefaultHighVolumePrinter,
		AllowHoldAtTarget: true,
		Prompt: PromptConfig{
			Title:       DefaultPromptTitle,
			Description: DefaultPromptDescription,
			Message:     DefaultPromptMessage,
		},
		Messages: MessageConfig{
			RedirectNotice: DefaultRedirectNotice,
			RedirectLog:    DefaultRedirectLog,
		},
		FailSafeMode: FailClosed,
	}
}

// Validate validates the evaluator configuration, including that every
// message template parses and only references known fields.
func (c *Config) Validate() error {
	if err := c.validateSettings(); err != nil {
		return err
	}
	for _, t := range templateFields(c) {
		if _, err := compileTemplate(t.field, t.text); err != nil {
			return err
		}
	}
	return nil
}

// validateSettings checks everything except the message templates, which the
// rule constructors compile.
func (c *Config) validateSettings() error {
	switch c.FailSafeMode {
	case FailOpen, FailClosed:
		// Valid
	default:
		return &ConfigError{Field: "fail_safe_mode", Message: fmt.Sprintf("invalid fail-safe mode %q", c.FailSafeMode)}
	}

	if c.PageLimit < 0 {
		return &ConfigError{Field: "page_limit", Message: "must be non-negative"}
	}

	if strings.TrimSpace(c.HighVolumePrinter) == "" {
		return &ConfigError{Field: "high_volume_printer", Message: "is required"}
	}

	return nil
}

// WithFailSafeMode sets the fail-safe mode.
func (c *Config) WithFailSafeMode(mode FailSafeMode) *Config {
	c.FailSafeMode = mode
	return c
}

// WithPageLimit sets the page limit.
func (c *Config) WithPageLimit(limit int) *Config {
	c.PageLimit = limit
	return c
}

// WithHighVolumePrinter sets the redirect target.
func (c *Config) WithHighVolumePrinter(printer string) *Config {
	c.HighVolumePrinter = printer
	return c
}

// WithTrace enables or disables evaluation tracing.
func (c *Config) WithTrace(enabled bool) *Config {
	c.EnableTrace = enabled
	return c
}
