package retention

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"mercator-hq/jobhook/pkg/config"
	"mercator-hq/jobhook/pkg/evidence"
	"mercator-hq/jobhook/pkg/evidence/export"
)

// Config contains configuration for the retention pruner.
type Config struct {
	// RetentionDays is the number of days to retain evidence.
	// 0 keeps evidence forever.
	RetentionDays int

	// PruneSchedule is a standard 5-field cron expression.
	// Example: "0 3 * * *" (daily at 3 AM)
	PruneSchedule string

	// MaxRecords is the maximum number of records to keep. 0 means unlimited.
	MaxRecords int64

	// ArchivePath, when set, receives a JSON lines file of every record
	// before it is deleted.
	ArchivePath string
}

// DefaultConfig returns the default retention configuration.
func DefaultConfig() *Config {
	return &Config{
		RetentionDays: config.DefaultEvidenceRetentionDays,
		PruneSchedule: config.DefaultEvidenceRetentionSchedule,
	}
}

// FromConfig builds a pruner configuration from the retention section.
func FromConfig(cfg *config.RetentionConfig) *Config {
	return &Config{
		RetentionDays: cfg.Days,
		PruneSchedule: cfg.PruneSchedule,
		MaxRecords:    cfg.MaxRecords,
		ArchivePath:   cfg.ArchivePath,
	}
}

// Enabled reports whether any retention limit is configured.
func (c *Config) Enabled() bool {
	return c.RetentionDays > 0 || c.MaxRecords > 0
}

// MetricsRecorder receives the number of records removed per prune.
type MetricsRecorder interface {
	RecordPruned(count int64)
}

// Option configures a Pruner.
type Option func(*Pruner)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pruner) {
		if logger != nil {
			p.logger = logger.With("component", "evidence.retention")
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m MetricsRecorder) Option {
	return func(p *Pruner) {
		if m != nil {
			p.metrics = m
		}
	}
}

// WithClock overrides the time source used to compute the age cutoff.
func WithClock(now func() time.Time) Option {
	return func(p *Pruner) {
		if now != nil {
			p.now = now
		}
	}
}

// Pruner enforces retention limits on evidence records.
type Pruner struct {
	storage   evidence.Storage
	config    *Config
	logger    *slog.Logger
	metrics   MetricsRecorder
	now       func() time.Time
	scheduler *Scheduler
}

// NewPruner creates a new retention pruner.
func NewPruner(storage evidence.Storage, cfg *Config, opts ...Option) *Pruner {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	p := &Pruner{
		storage: storage,
		config:  cfg,
		logger:  slog.Default().With("component", "evidence.retention"),
		metrics: noopMetrics{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}

	p.scheduler = NewScheduler(p)
	return p
}

// Prune deletes records older than the retention period, then the oldest
// records beyond MaxRecords. Returns the total number deleted.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	var totalDeleted int64

	if p.config.RetentionDays > 0 {
		deleted, err := p.pruneByAge(ctx)
		totalDeleted += deleted
		if err != nil {
			p.metrics.RecordPruned(totalDeleted)
			return totalDeleted, fmt.Errorf("prune by age failed: %w", err)
		}
		p.logger.Debug("pruned records by age",
			"deleted_count", deleted,
			"retention_days", p.config.RetentionDays,
		)
	}

	if p.config.MaxRecords > 0 {
		deleted, err := p.pruneByCount(ctx)
		totalDeleted += deleted
		if err != nil {
			p.metrics.RecordPruned(totalDeleted)
			return totalDeleted, fmt.Errorf("prune by count failed: %w", err)
		}
		p.logger.Debug("pruned records by count",
			"deleted_count", deleted,
			"max_records", p.config.MaxRecords,
		)
	}

	p.metrics.RecordPruned(totalDeleted)

	if totalDeleted > 0 {
		p.logger.Info("evidence pruning completed",
			"total_deleted", totalDeleted,
			"retention_days", p.config.RetentionDays,
			"max_records", p.config.MaxRecords,
		)
	}

	return totalDeleted, nil
}

// pruneByAge deletes records evaluated before the cutoff.
func (p *Pruner) pruneByAge(ctx context.Context) (int64, error) {
	cutoff := p.now().AddDate(0, 0, -p.config.RetentionDays)
	query := &evidence.Query{EndTime: &cutoff}

	if p.config.ArchivePath != "" {
		records, err := p.storage.Query(ctx, &evidence.Query{EndTime: &cutoff, SortOrder: "asc"})
		if err != nil {
			return 0, p.retentionError(err)
		}
		if err := p.archive(ctx, "age", records); err != nil {
			return 0, p.retentionError(err)
		}
	}

	deleted, err := p.storage.Delete(ctx, query)
	if err != nil {
		return 0, p.retentionError(err)
	}
	return deleted, nil
}

// pruneByCount deletes the oldest records beyond MaxRecords.
func (p *Pruner) pruneByCount(ctx context.Context) (int64, error) {
	count, err := p.storage.Count(ctx, &evidence.Query{})
	if err != nil {
		return 0, p.retentionError(err)
	}
	if count <= p.config.MaxRecords {
		return 0, nil
	}

	excess := count - p.config.MaxRecords
	p.logger.Info("record count exceeds limit, pruning oldest",
		"current_count", count,
		"max_records", p.config.MaxRecords,
		"to_delete", excess,
	)

	if p.config.ArchivePath != "" {
		records, err := p.storage.Query(ctx, &evidence.Query{Limit: int(excess), SortOrder: "asc"})
		if err != nil {
			return 0, p.retentionError(err)
		}
		if err := p.archive(ctx, "count", records); err != nil {
			return 0, p.retentionError(err)
		}
	}

	deleted, err := p.storage.Delete(ctx, &evidence.Query{Limit: int(excess)})
	if err != nil {
		return 0, p.retentionError(err)
	}
	return deleted, nil
}

// archive writes records to a timestamped JSON lines file under ArchivePath.
func (p *Pruner) archive(ctx context.Context, reason string, records []*evidence.DecisionRecord) error {
	if len(records) == 0 {
		return nil
	}

	if err := os.MkdirAll(p.config.ArchivePath, 0o755); err != nil {
		return fmt.Errorf("failed to create archive directory: %w", err)
	}

	name := fmt.Sprintf("decisions-%s-%s.jsonl", reason, p.now().UTC().Format("20060102T150405.000000000"))
	path := filepath.Join(p.config.ArchivePath, name)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create archive file: %w", err)
	}

	if err := export.NewJSONLinesExporter().Export(ctx, records, f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close archive file: %w", err)
	}

	p.logger.Info("evidence archived before deletion",
		"archive_file", path,
		"record_count", len(records),
	)
	return nil
}

func (p *Pruner) retentionError(err error) error {
	return evidence.NewRetentionError(p.config.RetentionDays, p.config.MaxRecords, err)
}

// Start starts scheduled pruning. It is a no-op without limits or schedule.
func (p *Pruner) Start(ctx context.Context) error {
	return p.scheduler.Start(ctx)
}

// Stop stops scheduled pruning and waits for a running prune to finish.
func (p *Pruner) Stop() {
	p.scheduler.Stop()
}

// NextPruning returns the time of the next scheduled pruning, or nil.
func (p *Pruner) NextPruning() *time.Time {
	return p.scheduler.NextRun()
}

type noopMetrics struct{}

func (noopMetrics) RecordPruned(int64) {}
