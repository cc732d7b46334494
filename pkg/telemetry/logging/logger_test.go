package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"mercator-hq/jobhook/pkg/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{name: "json", config: Config{Level: "info", Format: "json"}},
		{name: "text", config: Config{Level: "debug", Format: "text"}},
		{name: "upper case", config: Config{Level: "WARN", Format: "JSON"}},
		{name: "defaults", config: Config{}},
		{name: "invalid level", config: Config{Level: "loud"}, wantErr: true},
		{name: "invalid format", config: Config{Format: "xml"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.config.Writer = &bytes.Buffer{}
			logger, err := New(tt.config)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && logger.Slog() == nil {
				t.Error("expected slog logger")
			}
		})
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := New(Config{Level: "warn", Format: "json", Writer: buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	out := buf.String()
	if strings.Contains(out, "debug message") || strings.Contains(out, "info message") {
		t.Errorf("messages below warn should be filtered: %s", out)
	}
	if !strings.Contains(out, "warn message") || !strings.Contains(out, "error message") {
		t.Errorf("expected warn and error messages: %s", out)
	}
}

func TestLogger_JSONFields(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, _ := New(Config{Level: "info", Format: "json", Writer: buf})

	logger.With("component", "engine").Info("policy evaluation complete", "disposition", "proceed")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v: %s", err, buf.String())
	}
	if entry["msg"] != "policy evaluation complete" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if entry["component"] != "engine" || entry["disposition"] != "proceed" {
		t.Errorf("unexpected fields: %v", entry)
	}
}

func TestLogger_ContextFields(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, _ := New(Config{Level: "info", Format: "json", Writer: buf})

	ctx := WithJobID(context.Background(), "job-7")
	ctx = WithPrinter(ctx, "Front Office")
	ctx = WithEvaluationID(ctx, "eval-1")

	logger.InfoContext(ctx, "job received")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if entry["job_id"] != "job-7" || entry["printer"] != "Front Office" || entry["evaluation_id"] != "eval-1" {
		t.Errorf("expected context fields, got %v", entry)
	}
}

func TestLogger_Redaction(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, _ := New(Config{Level: "info", Format: "json", RedactPII: true, Writer: buf})

	ctx := WithUser(context.Background(), "jdoe")
	logger.InfoContext(ctx, "notified jdoe@example.com", "printer", "Front Office")

	out := buf.String()
	if strings.Contains(out, "jdoe") {
		t.Errorf("username leaked: %s", out)
	}
	if !strings.Contains(out, "j***@example.com") {
		t.Errorf("expected redacted email: %s", out)
	}
	if !strings.Contains(out, "Front Office") {
		t.Errorf("non-user fields should be kept: %s", out)
	}
}

func TestLogger_Component(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, _ := New(Config{Format: "text", Writer: buf})

	logger.Component("manager").Info("reloaded")

	if !strings.Contains(buf.String(), "component=manager") {
		t.Errorf("expected component field: %s", buf.String())
	}
}

func TestFromConfig(t *testing.T) {
	buf := &bytes.Buffer{}
	cfg := FromConfig(&config.LoggingConfig{Level: "debug", Format: "text", RedactPII: true}, buf)

	if cfg.Level != "debug" || cfg.Format != "text" || !cfg.RedactPII || cfg.Writer != buf {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "debug", want: "DEBUG"},
		{in: "", want: "INFO"},
		{in: "warning", want: "WARN"},
		{in: "ERROR", want: "ERROR"},
		{in: "trace", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v", tt.in, err)
			}
			if !tt.wantErr && got.String() != tt.want {
				t.Errorf("ParseLevel(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}
