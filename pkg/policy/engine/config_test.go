package engine

import (
	"errors"
	"testing"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		modify    func(*Config)
		wantField string
	}{
		{
			name:   "defaults",
			modify: func(*Config) {},
		},
		{
			name:   "zero page limit",
			modify: func(c *Config) { c.PageLimit = 0 },
		},
		{
			name:      "negative page limit",
			modify:    func(c *Config) { c.PageLimit = -1 },
			wantField: "page_limit",
		},
		{
			name:      "empty target printer",
			modify:    func(c *Config) { c.HighVolumePrinter = "  " },
			wantField: "high_volume_printer",
		},
		{
			name:      "unknown fail-safe mode",
			modify:    func(c *Config) { c.FailSafeMode = "fail-sideways" },
			wantField: "fail_safe_mode",
		},
		{
			name:      "unparsable prompt template",
			modify:    func(c *Config) { c.Prompt.Message = "costs {{.Cost" },
			wantField: "prompt.message",
		},
		{
			name:      "unknown template field",
			modify:    func(c *Config) { c.Messages.RedirectLog = "moved to {{.Destination}}" },
			wantField: "messages.redirect_log",
		},
		{
			name:      "notice failing on a populated job",
			modify:    func(c *Config) { c.Messages.RedirectNotice = "{{if .Target}}{{index .Target 99}}{{end}}" },
			wantField: "messages.redirect_notice",
		},
		{
			name:      "prompt failing once a cost is set",
			modify:    func(c *Config) { c.Prompt.Message = "{{if .Cost}}{{index .Cost 40}}{{end}}" },
			wantField: "prompt.message",
		},
		{
			name:      "unknown notice field",
			modify:    func(c *Config) { c.Messages.RedirectNotice = "{{.Pagez}}" },
			wantField: "messages.redirect_notice",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}

			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("Validate() error = %v, want %v", err, ErrInvalidConfig)
			}
			var ce *ConfigError
			if !errors.As(err, &ce) {
				t.Fatalf("Validate() error type = %T, want *ConfigError", err)
			}
			if ce.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", ce.Field, tt.wantField)
			}
		})
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig().WithHighVolumePrinter("")

	_, err := New(cfg)
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("New() error = %v, want %v", err, ErrInvalidConfig)
	}
	var ce *ConfigError
	if !errors.As(err, &ce) || ce.Field != "high_volume_printer" {
		t.Errorf("New() error = %v", err)
	}
}

func TestNew_CopiesConfig(t *testing.T) {
	cfg := DefaultConfig()
	ev, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	cfg.PageLimit = 99
	if got := ev.Config().PageLimit; got != DefaultPageLimit {
		t.Errorf("PageLimit = %d after caller mutation, want %d", got, DefaultPageLimit)
	}

	want := []string{RuleColorConfirmation, RuleVolumeRedirect}
	got := ev.RuleNames()
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("RuleNames() = %v, want %v", got, want)
	}
}

func TestNew_InvalidTemplate(t *testing.T) {
	tests := []struct {
		name      string
		modify    func(*Config)
		wantField string
	}{
		{"prompt", func(c *Config) { c.Prompt.Message = "{{.Price}}" }, "prompt.message"},
		{"notice", func(c *Config) { c.Messages.RedirectNotice = "{{if .Target}}{{index .Target 99}}{{end}}" }, "messages.redirect_notice"},
		{"log", func(c *Config) { c.Messages.RedirectLog = "{{.Source" }, "messages.redirect_log"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)

			_, err := New(cfg)
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("New() error = %v, want %v", err, ErrInvalidConfig)
			}
			var ce *ConfigError
			if !errors.As(err, &ce) || ce.Field != tt.wantField {
				t.Errorf("New() error = %v, want field %s", err, tt.wantField)
			}
		})
	}
}
