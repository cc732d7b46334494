package retention

import (
	"context"
	"testing"
	"time"

	"mercator-hq/jobhook/pkg/evidence/storage"
)

func TestScheduler_StartStop(t *testing.T) {
	p := newTestPruner(storage.NewMemoryStorage(), &Config{RetentionDays: 30, PruneSchedule: "0 3 * * *"})

	ctx := context.Background()
	if err := p.Start(ctx); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	if !p.scheduler.IsRunning() {
		t.Fatal("scheduler not running after Start")
	}

	next := p.NextPruning()
	if next == nil {
		t.Fatal("NextPruning() = nil")
	}
	if next.Hour() != 3 || next.Minute() != 0 {
		t.Errorf("NextPruning() = %v, want 03:00", next)
	}

	// Starting twice does not add a second entry.
	if err := p.Start(ctx); err != nil {
		t.Fatalf("second Start() failed: %v", err)
	}
	if n := len(p.scheduler.cron.Entries()); n != 1 {
		t.Errorf("cron entries = %d, want 1", n)
	}

	p.Stop()
	if p.scheduler.IsRunning() {
		t.Error("scheduler still running after Stop")
	}
	p.Stop()
}

func TestScheduler_InvalidSchedule(t *testing.T) {
	p := newTestPruner(storage.NewMemoryStorage(), &Config{RetentionDays: 30, PruneSchedule: "every day"})

	if err := p.Start(context.Background()); err == nil {
		t.Fatal("Start() accepted invalid schedule")
	}
	if p.scheduler.IsRunning() {
		t.Error("scheduler running after failed Start")
	}
}

func TestScheduler_SkippedWhenUnconfigured(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
	}{
		{"no schedule", &Config{RetentionDays: 30}},
		{"no limits", &Config{PruneSchedule: "0 3 * * *"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestPruner(storage.NewMemoryStorage(), tt.cfg)
			if err := p.Start(context.Background()); err != nil {
				t.Fatalf("Start() failed: %v", err)
			}
			if p.scheduler.IsRunning() {
				t.Error("scheduler running without configuration")
			}
			if p.NextPruning() != nil {
				t.Error("NextPruning() should be nil")
			}
		})
	}
}

func TestScheduler_StopsOnContextCancel(t *testing.T) {
	p := newTestPruner(storage.NewMemoryStorage(), &Config{MaxRecords: 10, PruneSchedule: "@hourly"})

	ctx, cancel := context.WithCancel(context.Background())
	if err := p.Start(ctx); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	cancel()

	deadline := time.Now().Add(2 * time.Second)
	for p.scheduler.IsRunning() {
		if time.Now().After(deadline) {
			t.Fatal("scheduler still running after context cancel")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
