package manager

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"mercator-hq/jobhook/pkg/gateway"
	"mercator-hq/jobhook/pkg/job"
	"mercator-hq/jobhook/pkg/policy/engine"
)

// BuildFunc loads the configuration at path and builds an evaluator from it.
type BuildFunc func(path string) (*engine.Evaluator, error)

// Stats describes the manager's reload history.
type Stats struct {
	Reloads        int64
	FailedReloads  int64
	LastReload     time.Time
	LastReloadErr  error
	WatcherRunning bool
}

// ReloadRecorder receives the outcome of each reload attempt.
type ReloadRecorder interface {
	RecordReload(success bool)
}

// Manager serves evaluations from the current evaluator and rebuilds it when
// the configuration file changes.
type Manager struct {
	path   string
	build  BuildFunc
	logger *slog.Logger

	// current is swapped atomically on reload
	current atomic.Pointer[engine.Evaluator]

	// reloadMu serializes reloads
	reloadMu sync.Mutex

	mu            sync.RWMutex
	reloads       int64
	failedReloads int64
	lastReload    time.Time
	lastErr       error
	watcher       *FileWatcher
	closed        bool
	listeners     []func(*engine.Evaluator)

	debounce time.Duration
	metrics  ReloadRecorder
}

// Option configures a Manager.
type Option func(*Manager)

// WithDebounceInterval sets the file watcher debounce interval.
func WithDebounceInterval(d time.Duration) Option {
	return func(m *Manager) { m.debounce = d }
}

// WithReloadRecorder reports reload outcomes to r.
func WithReloadRecorder(r ReloadRecorder) Option {
	return func(m *Manager) { m.metrics = r }
}

// New builds the initial evaluator from path. An initial build failure is
// returned as a *ReloadError.
func New(path string, build BuildFunc, logger *slog.Logger, opts ...Option) (*Manager, error) {
	if logger == nil {
		logger = slog.Default()
	}

	m := &Manager{
		path:     path,
		build:    build,
		logger:   logger.With("component", "policy.manager"),
		debounce: DefaultFileWatcherConfig().DebounceInterval,
	}
	for _, opt := range opts {
		opt(m)
	}

	ev, err := build(path)
	if err != nil {
		return nil, &ReloadError{Path: path, Cause: err}
	}
	m.current.Store(ev)
	m.lastReload = time.Now()

	return m, nil
}

// Evaluator returns the current evaluator.
func (m *Manager) Evaluator() *engine.Evaluator {
	return m.current.Load()
}

// Evaluate runs the current evaluator.
func (m *Manager) Evaluate(ctx context.Context, snap *job.Snapshot, gw gateway.ActionGateway) (*engine.Decision, error) {
	return m.current.Load().Evaluate(ctx, snap, gw)
}

// OnReload registers fn to be called with each newly installed evaluator.
func (m *Manager) OnReload(fn func(*engine.Evaluator)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// Reload rebuilds the evaluator. On failure the previous evaluator stays in
// service and a *ReloadError is returned.
func (m *Manager) Reload() error {
	m.reloadMu.Lock()
	defer m.reloadMu.Unlock()

	m.mu.RLock()
	closed := m.closed
	m.mu.RUnlock()
	if closed {
		return ErrClosed
	}

	start := time.Now()
	ev, err := m.build(m.path)

	m.mu.Lock()
	if err != nil {
		m.failedReloads++
		m.lastErr = &ReloadError{Path: m.path, Cause: err}
		reloadErr := m.lastErr
		m.mu.Unlock()

		if m.metrics != nil {
			m.metrics.RecordReload(false)
		}
		m.logger.Error("policy reload failed, keeping previous evaluator",
			"path", m.path,
			"error", err,
		)
		return reloadErr
	}

	m.current.Store(ev)
	m.reloads++
	m.lastReload = time.Now()
	m.lastErr = nil
	listeners := append([]func(*engine.Evaluator){}, m.listeners...)
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.RecordReload(true)
	}
	cfg := ev.Config()
	m.logger.Info("policy reloaded",
		"path", m.path,
		"page_limit", cfg.PageLimit,
		"high_volume_printer", cfg.HighVolumePrinter,
		"fail_safe_mode", cfg.FailSafeMode,
		"duration", time.Since(start),
	)

	for _, fn := range listeners {
		fn(ev)
	}
	return nil
}

// Watch reloads on every change to the configuration file. It blocks until
// ctx is cancelled or Close is called.
func (m *Manager) Watch(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	if m.watcher != nil {
		m.mu.Unlock()
		return nil
	}
	fw, err := NewFileWatcher(&FileWatcherConfig{
		Path:             m.path,
		DebounceInterval: m.debounce,
	}, m.logger)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	m.watcher = fw
	m.mu.Unlock()

	return fw.Watch(ctx, m.Reload)
}

// Stats returns reload statistics.
func (m *Manager) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Stats{
		Reloads:        m.reloads,
		FailedReloads:  m.failedReloads,
		LastReload:     m.lastReload,
		LastReloadErr:  m.lastErr,
		WatcherRunning: m.watcher != nil && !m.closed,
	}
}

// Close stops the file watcher. The current evaluator remains usable.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	fw := m.watcher
	m.mu.Unlock()

	if fw != nil {
		return fw.Stop()
	}
	return nil
}
