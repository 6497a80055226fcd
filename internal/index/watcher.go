package index

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the window used to coalesce rapid file events, since
// editors and extractors rewrite the pages file in several bursts.
const DefaultDebounce = 500 * time.Millisecond

// Watcher observes the source pages file and triggers a full rebuild when
// it changes. Incremental updates are deliberately out: the corpus is
// rebuilt wholesale and swapped in as a new snapshot.
type Watcher struct {
	path     string
	debounce time.Duration
	rebuild  func(ctx context.Context) error
	logger   *slog.Logger
}

// NewWatcher creates a watcher for the pages file at path. rebuild is
// invoked after each debounced change burst.
func NewWatcher(path string, debounce time.Duration, rebuild func(ctx context.Context) error, logger *slog.Logger) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve pages path: %w", err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		path:     abs,
		debounce: debounce,
		rebuild:  rebuild,
		logger:   logger,
	}, nil
}

// Watch blocks until ctx is cancelled, rebuilding after each debounced
// change to the watched file. A failed rebuild is logged and the previous
// snapshot stays active; watching continues.
func (w *Watcher) Watch(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer fsw.Close()

	// Watch the parent directory: atomic saves replace the file inode,
	// which a direct file watch would lose after the first rename.
	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}

	w.logger.Info("watch_started",
		slog.String("path", w.path),
		slog.Duration("debounce", w.debounce))

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}

			w.logger.Debug("watch_event",
				slog.String("op", event.Op.String()),
				slog.String("path", event.Name))

			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}

		case <-timerC:
			timer = nil
			timerC = nil

			w.logger.Info("watch_rebuild_triggered", slog.String("path", w.path))
			if err := w.rebuild(ctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				w.logger.Error("watch_rebuild_failed", slog.String("error", err.Error()))
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch_error", slog.String("error", err.Error()))
		}
	}
}
