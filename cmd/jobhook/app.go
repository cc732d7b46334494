package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"mercator-hq/jobhook/pkg/cli"
	"mercator-hq/jobhook/pkg/config"
	"mercator-hq/jobhook/pkg/costs"
	"mercator-hq/jobhook/pkg/evidence"
	"mercator-hq/jobhook/pkg/evidence/recorder"
	"mercator-hq/jobhook/pkg/evidence/storage"
	"mercator-hq/jobhook/pkg/job"
	"mercator-hq/jobhook/pkg/policy/engine"
	"mercator-hq/jobhook/pkg/telemetry/logging"
	"mercator-hq/jobhook/pkg/telemetry/metrics"
	"mercator-hq/jobhook/pkg/telemetry/tracing"
)

// app holds the collaborators shared by every evaluator the process builds.
// Evaluators are rebuilt on config reload; the app is not.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	collector *metrics.Collector
	tracer    *tracing.Tracer
	store     evidence.Storage
	recorder  *recorder.Recorder
}

// loadConfig reads path with environment overrides. An empty path uses the
// defaults plus environment overrides.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(path)
	if err != nil {
		return nil, cli.NewConfigError("config", err.Error())
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}
	return cfg, nil
}

// newApp builds logging, metrics, tracing and evidence recording from cfg.
// Log output goes to logOut.
func newApp(cfg *config.Config, logOut io.Writer) (*app, error) {
	logger, err := logging.New(logging.FromConfig(&cfg.Telemetry.Logging, logOut))
	if err != nil {
		return nil, cli.NewConfigError("telemetry.logging", err.Error())
	}
	slog.SetDefault(logger.Slog())

	a := &app{
		cfg:       cfg,
		logger:    logger.Slog(),
		collector: metrics.NewCollector(&cfg.Telemetry.Metrics, nil),
	}

	a.tracer, err = tracing.New(&cfg.Telemetry.Tracing, tracing.WithServiceVersion(Version))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	if cfg.Evidence.Enabled {
		a.store, err = openStorage(&cfg.Evidence, a.logger)
		if err != nil {
			_ = a.tracer.Shutdown(context.Background())
			return nil, err
		}
		a.recorder = recorder.New(a.store, recorder.FromConfig(&cfg.Evidence),
			recorder.WithLogger(a.logger),
			recorder.WithMetrics(a.collector),
		)
	}

	a.logger.Debug("jobhook initialized",
		"evidence_enabled", cfg.Evidence.Enabled,
		"evidence_backend", cfg.Evidence.Backend,
		"tracing_enabled", a.tracer.Enabled(),
	)
	return a, nil
}

// openStorage opens the configured evidence backend.
func openStorage(cfg *config.EvidenceConfig, logger *slog.Logger) (evidence.Storage, error) {
	switch cfg.Backend {
	case "sqlite":
		store, err := storage.NewSQLiteStorage(&storage.SQLiteConfig{
			Path:         cfg.SQLite.Path,
			MaxOpenConns: cfg.SQLite.MaxOpenConns,
			MaxIdleConns: cfg.SQLite.MaxIdleConns,
			WALMode:      cfg.SQLite.WALMode,
			BusyTimeout:  cfg.SQLite.BusyTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open evidence database: %w", err)
		}
		logger.Debug("evidence store opened", "backend", "sqlite", "path", cfg.SQLite.Path)
		return store, nil
	case "memory":
		return storage.NewMemoryStorage(), nil
	default:
		return nil, cli.NewConfigError("evidence.backend",
			fmt.Sprintf("unsupported backend %q (supported: sqlite, memory)", cfg.Backend))
	}
}

// buildEvaluator builds an evaluator for cfg wired to the app's telemetry
// and recorder. It is also the policy manager's reload function.
func (a *app) buildEvaluator(cfg *config.Config) (*engine.Evaluator, error) {
	formatter, err := costs.New(cfg.FormatterConfig())
	if err != nil {
		return nil, cli.NewConfigError("costs", err.Error())
	}

	opts := []engine.Option{
		engine.WithLogger(a.logger),
		engine.WithMetrics(a.collector),
		engine.WithTracer(a.tracer),
		engine.WithCostFormatter(formatter.Func()),
	}
	if a.recorder != nil {
		opts = append(opts, engine.WithDecisionRecorder(a.recorder))
	}

	return engine.New(cfg.EngineConfig(), opts...)
}

// buildFromFile loads path and builds an evaluator from it.
func (a *app) buildFromFile(path string) (*engine.Evaluator, error) {
	cfg, err := loadConfig(path)
	if err != nil {
		return nil, err
	}
	return a.buildEvaluator(cfg)
}

// Close flushes pending evidence and spans.
func (a *app) Close(ctx context.Context) error {
	var firstErr error
	if a.recorder != nil {
		if err := a.recorder.Close(); err != nil {
			firstErr = err
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := a.tracer.Shutdown(ctx); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// openOutput returns stdout for an empty path, otherwise the created file.
func openOutput(path string) (io.WriteCloser, error) {
	if path == "" {
		return nopCloser{os.Stdout}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// jobContext puts the job's identity on ctx so gateway log lines carry it.
func jobContext(ctx context.Context, snap *job.Snapshot) context.Context {
	if snap.JobID != "" {
		ctx = logging.WithJobID(ctx, snap.JobID)
	}
	if snap.Username != "" {
		ctx = logging.WithUser(ctx, snap.Username)
	}
	return logging.WithPrinter(ctx, snap.PrinterName)
}
