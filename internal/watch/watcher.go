// Package watch re-runs a callback whenever a single file changes on disk.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"tlscore/internal/logging"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is how long a file must stay quiet before the callback runs.
const DefaultDebounce = 300 * time.Millisecond

// ChangeFunc is invoked once per settled change of the watched file.
type ChangeFunc func(ctx context.Context, path string) error

// Stats tracks watcher activity.
type Stats struct {
	Events        int
	Runs          int
	Errors        int
	LastEventTime time.Time
	LastEventType string
}

// Watcher watches one file. The parent directory is watched rather than the
// file itself so that editors which save by rename keep being observed.
type Watcher struct {
	mu       sync.Mutex
	fs       *fsnotify.Watcher
	path     string
	debounce time.Duration
	pending  time.Time // zero when no change is waiting
	onChange ChangeFunc
	stats    Stats
}

// New creates a Watcher for path. A debounce <= 0 uses DefaultDebounce.
func New(path string, debounce time.Duration, onChange ChangeFunc) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	return &Watcher{
		fs:       fsw,
		path:     abs,
		debounce: debounce,
		onChange: onChange,
	}, nil
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string {
	return w.path
}

// Run blocks until ctx is cancelled or the underlying watcher fails, then
// releases it. Callback errors are logged and counted but do not stop the loop.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fs.Close()
	log := logging.Get(logging.CategoryWatch)
	log.Info("watching", zap.String("path", w.path), zap.Duration("debounce", w.debounce))

	tick := w.debounce / 4
	if tick > 100*time.Millisecond {
		tick = 100 * time.Millisecond
	}
	if tick < 5*time.Millisecond {
		tick = 5 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Debug("watch stopped", zap.Error(ctx.Err()))
			return nil

		case event, ok := <-w.fs.Events:
			if !ok {
				return fmt.Errorf("watch event channel closed")
			}
			w.handleEvent(event)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return fmt.Errorf("watch error channel closed")
			}
			log.Warn("watch error", zap.Error(err))
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()

		case <-ticker.C:
			if w.settled() {
				w.fire(ctx, log)
			}
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}

	var eventType string
	switch {
	case event.Op&fsnotify.Create != 0:
		eventType = "create"
	case event.Op&fsnotify.Write != 0:
		eventType = "modify"
	default:
		// Removal and rename leave nothing to score; a following create re-arms.
		return
	}

	now := time.Now()
	w.mu.Lock()
	w.stats.Events++
	w.stats.LastEventTime = now
	w.stats.LastEventType = eventType
	w.pending = now
	w.mu.Unlock()
}

func (w *Watcher) settled() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.pending.IsZero() || time.Since(w.pending) < w.debounce {
		return false
	}
	w.pending = time.Time{}
	return true
}

func (w *Watcher) fire(ctx context.Context, log *zap.Logger) {
	err := w.onChange(ctx, w.path)

	w.mu.Lock()
	w.stats.Runs++
	if err != nil {
		w.stats.Errors++
	}
	w.mu.Unlock()

	if err != nil {
		log.Warn("re-score failed", zap.String("path", w.path), zap.Error(err))
	}
}

// GetStats returns the current watcher statistics.
func (w *Watcher) GetStats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}
