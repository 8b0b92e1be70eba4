package registry

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ReloadCallback is called after a watcher-driven reload succeeds.
type ReloadCallback func()

// Watch observes the registry's configuration file and reloads on change,
// running until ctx is cancelled. Events are debounced because editors and
// atomic-save tools emit bursts of writes and renames for a single save.
// A reload failure keeps the previous snapshot and is only logged.
func Watch(ctx context.Context, reg *Registry, logger *slog.Logger, cb ReloadCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	// Watch the directory, not the file: atomic saves replace the inode.
	dir := filepath.Dir(reg.Path())
	base := filepath.Base(reg.Path())
	if err := w.Add(dir); err != nil {
		return err
	}

	logger.Info("registry watcher: started", slog.String("path", reg.Path()))

	var debounce *time.Timer
	var debounceCh <-chan time.Time

	schedule := func() {
		if debounce == nil {
			debounce = time.NewTimer(200 * time.Millisecond)
			debounceCh = debounce.C
		} else {
			debounce.Reset(200 * time.Millisecond)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			logger.Info("registry watcher: stopped")
			return nil

		case <-debounceCh:
			if err := reg.Reload(); err != nil {
				logger.Warn("registry watcher: reload failed", slog.String("error", err.Error()))
				continue
			}
			snap := reg.Snapshot()
			logger.Info("registry watcher: reloaded",
				slog.Int("templates", len(snap.Templates)),
				slog.Int("actions", len(snap.Actions)))
			if cb != nil {
				cb()
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != base {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				schedule()
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("registry watcher: error", slog.String("error", err.Error()))
		}
	}
}
