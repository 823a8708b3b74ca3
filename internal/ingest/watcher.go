package ingest

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches the CV source path and re-ingests on change.
type Watcher struct {
	pipeline *Pipeline
	path     string

	watcher *fsnotify.Watcher

	// Debouncing
	pendingMu    sync.Mutex
	pendingSince time.Time
	pending      bool
	debounceTime time.Duration
}

// WatcherConfig contains watcher configuration.
type WatcherConfig struct {
	Path         string
	Pipeline     *Pipeline
	DebounceTime time.Duration // Default: 500ms
}

// NewWatcher creates a new file watcher.
func NewWatcher(cfg WatcherConfig) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	debounceTime := cfg.DebounceTime
	if debounceTime == 0 {
		debounceTime = 500 * time.Millisecond
	}

	return &Watcher{
		pipeline:     cfg.Pipeline,
		path:         cfg.Path,
		watcher:      watcher,
		debounceTime: debounceTime,
	}, nil
}

// Watch starts watching for file changes.
// It blocks until the context is cancelled.
func (w *Watcher) Watch(ctx context.Context) error {
	if err := w.addWatchDirs(); err != nil {
		return err
	}

	slog.Info("watching CV source for changes", "path", w.path)

	go w.processDebounced(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("stopping watcher")
			return w.watcher.Close()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watcher error", "error", err)
		}
	}
}

// addWatchDirs watches the path, recursing into subdirectories.
func (w *Watcher) addWatchDirs() error {
	info, err := os.Stat(w.path)
	if err != nil {
		return err
	}

	if !info.IsDir() {
		return w.watcher.Add(filepath.Dir(w.path))
	}

	return filepath.WalkDir(w.path, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != w.path {
				return filepath.SkipDir
			}
			if err := w.watcher.Add(path); err != nil {
				slog.Warn("failed to watch directory", "path", path, "error", err)
			}
		}
		return nil
	})
}

// handleEvent marks a re-ingest as pending for relevant events.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) {
		return
	}
	if !supportedExtensions[strings.ToLower(filepath.Ext(event.Name))] {
		return
	}

	w.pendingMu.Lock()
	w.pending = true
	w.pendingSince = time.Now()
	w.pendingMu.Unlock()

	slog.Debug("cv source changed", "path", event.Name, "op", event.Op.String())
}

// processDebounced re-ingests once changes have settled.
func (w *Watcher) processDebounced(ctx context.Context) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.pendingMu.Lock()
			due := w.pending && time.Since(w.pendingSince) >= w.debounceTime
			if due {
				w.pending = false
			}
			w.pendingMu.Unlock()

			if due {
				if _, err := w.pipeline.IngestPath(ctx, w.path); err != nil {
					slog.Error("re-ingest failed", "path", w.path, "error", err)
				}
			}
		}
	}
}
