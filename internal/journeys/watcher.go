package journeys

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits for writes to settle
const DefaultDebounce = 250 * time.Millisecond

// Watcher reloads a definitions directory into a Loader when its files change
type Watcher struct {
	dir      string
	loader   *Loader
	debounce time.Duration
	onReload func(error)
}

// NewWatcher creates a watcher for dir. onReload, if set, is called after
// every reload attempt.
func NewWatcher(dir string, loader *Loader, onReload func(error)) *Watcher {
	return &Watcher{
		dir:      dir,
		loader:   loader,
		debounce: DefaultDebounce,
		onReload: onReload,
	}
}

// Run watches until ctx is cancelled
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}
	slog.Info("watching journey definitions", "dir", w.dir)

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !isDefinition(event.Name) || event.Has(fsnotify.Chmod) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			timerC = timer.C

		case <-timerC:
			timerC = nil
			err := w.loader.LoadFromDir(w.dir)
			if err != nil {
				slog.Error("journey reload failed, keeping previous definitions", "dir", w.dir, "error", err)
			} else {
				slog.Info("journey definitions reloaded", "dir", w.dir)
			}
			if w.onReload != nil {
				w.onReload(err)
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("journey watcher error", "error", err)
		}
	}
}

func isDefinition(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}
