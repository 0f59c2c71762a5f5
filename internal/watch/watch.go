// Package watch runs a handler for every media file dropped into a directory.
//
// A file is handed over once no write touched it for the settle delay, so
// a recording still being copied is not processed half-written. Handlers run
// one at a time in arrival order.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultSettle is the quiet period before a new file is handled.
const DefaultSettle = 2 * time.Second

// queueSize bounds the settled files waiting for the handler.
const queueSize = 64

// ErrNotDirectory indicates the watched path is not a directory.
var ErrNotDirectory = errors.New("watch path is not a directory")

// Handler processes one settled file. A returned error is logged and
// watching continues.
type Handler func(ctx context.Context, path string) error

// Watcher watches one directory, non-recursively.
type Watcher struct {
	dir    string
	handle Handler
	accept func(path string) bool
	settle time.Duration
	logger *slog.Logger
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithSettle sets the quiet period before a file is handled.
func WithSettle(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.settle = d
		}
	}
}

// WithFilter restricts handled files to those accept returns true for.
func WithFilter(accept func(path string) bool) Option {
	return func(w *Watcher) {
		if accept != nil {
			w.accept = accept
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// New creates a Watcher for dir.
func New(dir string, handle Handler, opts ...Option) (*Watcher, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot watch %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s: %w", dir, ErrNotDirectory)
	}

	w := &Watcher{
		dir:    dir,
		handle: handle,
		accept: func(string) bool { return true },
		settle: DefaultSettle,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Run watches until ctx is canceled. Files present before Run are ignored.
// It returns nil on cancellation, after the running handler returns.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer func() { _ = fsw.Close() }()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}
	w.logger.Info("watching", slog.String("dir", w.dir), slog.Duration("settle", w.settle))

	loopCtx, stop := context.WithCancel(ctx)
	defer stop()

	ready := make(chan string, queueSize)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.work(ctx, ready)
	}()

	err = w.loop(loopCtx, fsw, ready)
	stop()
	close(ready)
	wg.Wait()
	return err
}

// work runs the handler for each settled file, one at a time.
func (w *Watcher) work(ctx context.Context, ready <-chan string) {
	for path := range ready {
		if ctx.Err() != nil {
			continue
		}
		w.logger.Info("handling", slog.String("file", path))
		if err := w.handle(ctx, path); err != nil {
			w.logger.Error("handler failed", slog.String("file", path), slog.Any("error", err))
		}
	}
}

// loop debounces fsnotify events and queues settled files.
func (w *Watcher) loop(ctx context.Context, fsw *fsnotify.Watcher, ready chan<- string) error {
	timers := make(map[string]*time.Timer)
	seen := make(map[string]bool)
	settled := make(chan string)

	defer func() {
		for _, t := range timers {
			t.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			path := event.Name
			if !w.accept(path) {
				continue
			}

			switch {
			case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
				if t, ok := timers[path]; ok {
					t.Stop()
					delete(timers, path)
				}
				delete(seen, path)

			case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
				if seen[path] {
					continue
				}
				if t, ok := timers[path]; ok {
					t.Reset(w.settle)
					continue
				}
				w.logger.Debug("file event", slog.String("file", path), slog.String("op", event.Op.String()))
				timers[path] = time.AfterFunc(w.settle, func() {
					select {
					case settled <- path:
					case <-ctx.Done():
					}
				})
			}

		case path := <-settled:
			delete(timers, path)
			if seen[path] {
				continue // a Reset raced with the firing timer
			}
			seen[path] = true
			select {
			case ready <- path:
			case <-ctx.Done():
				return nil
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Error("watcher error", slog.Any("error", err))
		}
	}
}

// Dir returns the watched directory.
func (w *Watcher) Dir() string {
	return filepath.Clean(w.dir)
}
