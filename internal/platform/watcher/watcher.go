// Package watcher reloads file-backed stores when their files change on disk.
// The assets directory doubles as a git working tree in some deployments, so a
// `git pull` can rewrite artifact files behind the process; the watcher keeps
// the in-memory stores in sync with those external edits.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const debounceDuration = 500 * time.Millisecond

// Watcher observes one directory and dispatches per-file reload callbacks.
type Watcher struct {
	dir    string
	logger *slog.Logger

	mu        sync.Mutex
	reloaders map[string]func() error
	timers    map[string]*time.Timer

	fsw *fsnotify.Watcher
}

// New creates a watcher for the given directory. Register reloaders before
// calling Start.
func New(dir string, logger *slog.Logger) *Watcher {
	return &Watcher{
		dir:       dir,
		logger:    logger,
		reloaders: make(map[string]func() error),
		timers:    make(map[string]*time.Timer),
	}
}

// Register attaches a reload callback to a file name (base name, not path).
// The callback runs debounced after the file is written or created.
func (w *Watcher) Register(filename string, reload func() error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.reloaders[filename] = reload
}

// Start begins watching the directory. It returns after spawning the watch
// loop; cancel ctx to stop it.
func (w *Watcher) Start(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	if err := fsw.Add(w.dir); err != nil {
		_ = fsw.Close()
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}

	w.fsw = fsw
	w.logger.Info("watching assets directory for external changes", "dir", w.dir)

	go w.loop(ctx)
	return nil
}

func (w *Watcher) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("assets watcher stopped")
			_ = w.fsw.Close()
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}

			// Write and Create cover editors, echo, and the rename at the end
			// of our own atomic saves. Reloading after our own save is
			// redundant but harmless: the store rereads what it just wrote.
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			w.schedule(filepath.Base(event.Name))

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error("assets watcher error", "error", err)
		}
	}
}

// schedule debounces reloads per file so rapid write bursts collapse into one.
func (w *Watcher) schedule(name string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	reload, ok := w.reloaders[name]
	if !ok {
		return
	}

	if timer, ok := w.timers[name]; ok {
		timer.Stop()
	}
	w.timers[name] = time.AfterFunc(debounceDuration, func() {
		if err := reload(); err != nil {
			w.logger.Error("store reload failed", "file", name, "error", err)
			return
		}
		w.logger.Info("store reloaded after external change", "file", name)
	})
}
