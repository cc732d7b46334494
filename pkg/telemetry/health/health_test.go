package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestChecker_Liveness(t *testing.T) {
	c := New(0)
	if got := c.Liveness().Status; got != StatusOK {
		t.Errorf("Liveness() = %q, want %q", got, StatusOK)
	}
	if c.timeout != DefaultCheckTimeout {
		t.Errorf("timeout = %v, want %v", c.timeout, DefaultCheckTimeout)
	}
}

func TestChecker_Readiness(t *testing.T) {
	tests := []struct {
		name   string
		checks map[string]CheckFunc
		want   string
	}{
		{"no checks", nil, StatusReady},
		{
			"all healthy",
			map[string]CheckFunc{
				"policy":   func(context.Context) error { return nil },
				"evidence": func(context.Context) error { return nil },
			},
			StatusReady,
		},
		{
			"one failing",
			map[string]CheckFunc{
				"policy":   func(context.Context) error { return nil },
				"evidence": func(context.Context) error { return errors.New("database is locked") },
			},
			StatusDegraded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(time.Second)
			for name, check := range tt.checks {
				c.RegisterCheck(name, check)
			}
			status := c.Readiness(context.Background())
			if status.Status != tt.want {
				t.Errorf("Readiness() = %q, want %q", status.Status, tt.want)
			}
			if len(status.Checks) != len(tt.checks) {
				t.Errorf("got %d results, want %d", len(status.Checks), len(tt.checks))
			}
		})
	}
}

func TestChecker_ReadinessTimeout(t *testing.T) {
	c := New(20 * time.Millisecond)
	c.RegisterCheck("slow", func(ctx context.Context) error {
		<-ctx.Done()
		time.Sleep(50 * time.Millisecond)
		return nil
	})

	status := c.Readiness(context.Background())
	result := status.Checks["slow"]
	if result.Status != StatusUnhealthy || result.Message != ErrCheckTimeout.Error() {
		t.Errorf("slow check = %+v, want timeout", result)
	}
}

func TestChecker_Checks(t *testing.T) {
	c := New(0)
	c.RegisterCheck("policy", func(context.Context) error { return nil })
	c.RegisterCheck("evidence", func(context.Context) error { return nil })
	c.RegisterCheck("policy", func(context.Context) error { return nil })

	got := c.Checks()
	if len(got) != 2 || got[0] != "evidence" || got[1] != "policy" {
		t.Errorf("Checks() = %v", got)
	}
}

func TestRegister(t *testing.T) {
	c := New(time.Second)
	c.RegisterCheck("evidence", func(context.Context) error { return errors.New("closed") })

	mux := http.NewServeMux()
	Register(mux, c, VersionInfo{Version: "1.2.3", Commit: "abc"})

	tests := []struct {
		method string
		path   string
		code   int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/ready", http.StatusServiceUnavailable},
		{http.MethodHead, "/ready", http.StatusServiceUnavailable},
		{http.MethodGet, "/version", http.StatusOK},
		{http.MethodPost, "/health", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			if rec.Code != tt.code {
				t.Errorf("status = %d, want %d", rec.Code, tt.code)
			}
		})
	}

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/version", nil))
	var info VersionInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &info); err != nil {
		t.Fatalf("decode version: %v", err)
	}
	if info.Version != "1.2.3" || info.GoVersion == "" {
		t.Errorf("version = %+v", info)
	}
}
