package mapstyle

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ThemeWatcher reloads a theme file when it changes on disk and hands every
// valid version to a callback. Invalid versions are logged and skipped.
type ThemeWatcher struct {
	path     string
	watcher  *fsnotify.Watcher
	onChange func(Theme)

	debounceDur time.Duration
	stopCh      chan struct{}
	doneCh      chan struct{}
	stopOnce    sync.Once
	started     bool
}

func NewThemeWatcher(path string, onChange func(Theme)) (*ThemeWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &ThemeWatcher{
		path:        abs,
		watcher:     watcher,
		onChange:    onChange,
		debounceDur: 200 * time.Millisecond,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}, nil
}

// Start watches the directory of the theme file, so editors that replace the
// file on save are picked up too. It does not block.
func (w *ThemeWatcher) Start(ctx context.Context) error {
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return err
	}
	slog.Debug("Watching theme file", "path", w.path)
	w.started = true
	go w.run(ctx)
	return nil
}

// Stop ends the watch loop and waits for it to exit. It is safe to call on a
// watcher that never started.
func (w *ThemeWatcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		if w.started {
			<-w.doneCh
		}
		if err := w.watcher.Close(); err != nil {
			slog.Error("Failed to close theme watcher", "error", err)
		}
	})
}

func (w *ThemeWatcher) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	var pending time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 {
				pending = time.Now()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("Theme watcher error", "error", err)

		case <-ticker.C:
			if pending.IsZero() || time.Since(pending) < w.debounceDur {
				continue
			}
			pending = time.Time{}
			w.reload()
		}
	}
}

func (w *ThemeWatcher) reload() {
	t, err := LoadTheme(w.path)
	if err != nil {
		slog.Warn("Keeping previous theme", "path", w.path, "error", err)
		return
	}
	slog.Info("Theme reloaded", "path", w.path)
	w.onChange(t)
}
