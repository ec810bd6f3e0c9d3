// Package watch reports content changes of the knowledge document on disk.
package watch

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/jstrack/internal/storage"
)

const defaultDebounce = 200 * time.Millisecond

// Callback is called with the file name and its new checksum after the
// content of a watched file changed.
type Callback func(name, checksum string)

// Watcher follows a set of files inside a storage.FS root.
type Watcher struct {
	fs       *storage.FS
	files    []string
	logger   *slog.Logger
	debounce time.Duration
}

// New creates a Watcher for files relative to fs.Root().
func New(fs *storage.FS, files []string, logger *slog.Logger) *Watcher {
	return &Watcher{fs: fs, files: files, logger: logger, debounce: defaultDebounce}
}

// Run watches until ctx is cancelled. Editors and atomic writers replace
// files, so the directory is watched rather than the files themselves.
// Bursts of events are coalesced and a callback fires only when the
// checksum differs from the last one seen.
func (w *Watcher) Run(ctx context.Context, cb Callback) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := fw.Add(w.fs.Root()); err != nil {
		return err
	}

	watched := make(map[string]bool, len(w.files))
	seen := make(map[string]string, len(w.files))
	for _, f := range w.files {
		watched[f] = true
		seen[f] = w.checksum(f)
	}

	w.logger.Info("watcher: started", slog.String("root", w.fs.Root()))

	pending := make(map[string]bool)
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			w.logger.Info("watcher: stopped")
			return nil

		case <-fire:
			for name := range pending {
				sum := w.checksum(name)
				if sum == seen[name] {
					continue
				}
				seen[name] = sum
				w.logger.Debug("watcher: changed", slog.String("file", name))
				if cb != nil && sum != "" {
					cb(name, sum)
				}
			}
			clear(pending)

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			name, err := filepath.Rel(w.fs.Root(), ev.Name)
			if err != nil || !watched[name] {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			pending[name] = true
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				fire = timer.C
			} else {
				timer.Reset(w.debounce)
			}

		case watchErr, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// checksum returns "" for a missing file.
func (w *Watcher) checksum(name string) string {
	data, err := w.fs.Read(name)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			w.logger.Warn("watcher: read failed", slog.String("file", name), slog.String("error", err.Error()))
		}
		return ""
	}
	return storage.Checksum(data)
}
