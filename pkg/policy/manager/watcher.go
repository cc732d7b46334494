package manager

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// defaultDebounce coalesces the write bursts most editors emit on save.
const defaultDebounce = 100 * time.Millisecond

var errWatcherUsed = errors.New("file watcher already started or stopped")

// FileWatcherConfig configures a FileWatcher.
type FileWatcherConfig struct {
	// Path is the policy configuration file.
	Path string

	// DebounceInterval is the quiet period after the last change before
	// onReload runs.
	DebounceInterval time.Duration
}

// DefaultFileWatcherConfig returns a config with the default debounce and no
// path.
func DefaultFileWatcherConfig() *FileWatcherConfig {
	return &FileWatcherConfig{DebounceInterval: defaultDebounce}
}

// FileWatcher calls back after a policy file changes on disk. The parent
// directory is watched so atomic rename-over saves are seen.
type FileWatcher struct {
	watcher  *fsnotify.Watcher
	debounce *Debouncer
	target   string
	interval time.Duration
	logger   *slog.Logger

	mu       sync.Mutex
	started  bool
	cancel   context.CancelFunc
	finished chan struct{}
	stopOnce sync.Once
	stopErr  error
}

// NewFileWatcher resolves the target path and opens an fsnotify handle.
func NewFileWatcher(config *FileWatcherConfig, logger *slog.Logger) (*FileWatcher, error) {
	if config == nil {
		config = DefaultFileWatcherConfig()
	}
	if config.Path == "" {
		return nil, errors.New("watch path is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	target, err := filepath.Abs(config.Path)
	if err != nil {
		return nil, fmt.Errorf("resolve %q: %w", config.Path, err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("open fsnotify watcher: %w", err)
	}

	interval := config.DebounceInterval
	if interval <= 0 {
		interval = defaultDebounce
	}

	return &FileWatcher{
		watcher:  w,
		debounce: NewDebouncer(interval),
		target:   target,
		interval: interval,
		logger:   logger,
		finished: make(chan struct{}),
	}, nil
}

// Watch blocks, invoking onReload once per debounced burst of changes to the
// target, until ctx is done or Stop is called. A FileWatcher can be started
// once.
func (fw *FileWatcher) Watch(ctx context.Context, onReload func() error) error {
	fw.mu.Lock()
	if fw.started {
		fw.mu.Unlock()
		return errWatcherUsed
	}
	fw.started = true
	ctx, fw.cancel = context.WithCancel(ctx)
	fw.mu.Unlock()
	defer close(fw.finished)

	dir := filepath.Dir(fw.target)
	if err := fw.watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %q: %w", dir, err)
	}
	fw.logger.Info("watching policy file",
		"path", fw.target,
		"debounce", fw.interval,
	)

	reload := func() {
		fw.logger.Info("policy file changed, reloading", "path", fw.target)
		if err := onReload(); err != nil {
			fw.logger.Error("policy reload failed", "error", err)
		}
	}

	for {
		select {
		case <-ctx.Done():
			fw.logger.Info("policy file watcher stopped")
			return nil

		case ev, ok := <-fw.watcher.Events:
			if !ok {
				return errors.New("fsnotify event stream closed")
			}
			if fw.shouldProcessEvent(ev) {
				fw.logger.Debug("policy file event", "op", ev.Op.String())
				fw.debounce.Trigger(reload)
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return errors.New("fsnotify error stream closed")
			}
			fw.logger.Warn("policy file watcher error", "error", err)
		}
	}
}

// Stop ends Watch, drops any pending reload and closes the fsnotify handle.
// Repeated calls return the first result.
func (fw *FileWatcher) Stop() error {
	fw.stopOnce.Do(func() {
		fw.mu.Lock()
		started, cancel := fw.started, fw.cancel
		fw.started = true
		fw.mu.Unlock()

		if cancel != nil {
			cancel()
		}
		if started && cancel != nil {
			<-fw.finished
		}
		fw.debounce.Stop()
		if err := fw.watcher.Close(); err != nil {
			fw.stopErr = fmt.Errorf("close fsnotify watcher: %w", err)
		}
	})
	return fw.stopErr
}

// shouldProcessEvent keeps content changes to the target file only.
func (fw *FileWatcher) shouldProcessEvent(ev fsnotify.Event) bool {
	if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) &&
		!ev.Op.Has(fsnotify.Rename) && !ev.Op.Has(fsnotify.Remove) {
		return false
	}
	name, err := filepath.Abs(ev.Name)
	return err == nil && name == fw.target
}

// Debouncer runs only the most recent callback, once no Trigger has arrived
// for the interval.
type Debouncer struct {
	interval time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	gen     uint64
	stopped bool
}

// NewDebouncer returns a Debouncer with the given quiet period.
func NewDebouncer(interval time.Duration) *Debouncer {
	return &Debouncer{interval: interval}
}

// Trigger schedules fn, replacing any callback still waiting.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = time.AfterFunc(d.interval, func() {
		d.mu.Lock()
		current := !d.stopped && gen == d.gen
		d.mu.Unlock()
		if current {
			fn()
		}
	})
}

// Stop cancels the pending callback. Later Triggers are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
