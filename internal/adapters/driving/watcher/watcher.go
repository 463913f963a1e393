// Package watcher rebuilds the index when files in the source directory change.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/manualqa/internal/logger"
)

// DefaultDebounce is how long the source directory must be quiet before a
// rebuild starts.
const DefaultDebounce = 2 * time.Second

// RebuildFunc rebuilds and republishes the index.
type RebuildFunc func(ctx context.Context) error

// Watcher watches a single source directory and triggers one rebuild per
// burst of changes.
type Watcher struct {
	dir      string
	rebuild  RebuildFunc
	debounce time.Duration
	accept   func(path string) bool

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period before a rebuild.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithFilter restricts rebuilds to paths for which accept returns true.
func WithFilter(accept func(path string) bool) Option {
	return func(w *Watcher) {
		if accept != nil {
			w.accept = accept
		}
	}
}

// New creates a watcher for dir.
func New(dir string, rebuild RebuildFunc, opts ...Option) *Watcher {
	w := &Watcher{
		dir:      dir,
		rebuild:  rebuild,
		debounce: DefaultDebounce,
		accept:   func(string) bool { return true },
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start watches until Stop is called or ctx is cancelled. It blocks.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.stopCh = make(chan struct{})
	stopCh := w.stopCh
	w.wg.Add(1)
	w.mu.Unlock()
	defer w.wg.Done()

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		w.reset()
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		w.reset()
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	logger.Info("Watching %s for changes", w.dir)

	return w.run(ctx, fsw, stopCh)
}

// Stop ends a running Start and waits for any rebuild in progress.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	close(w.stopCh)
	w.mu.Unlock()

	w.wg.Wait()
	return nil
}

func (w *Watcher) reset() {
	w.mu.Lock()
	w.running = false
	w.mu.Unlock()
}

func (w *Watcher) run(ctx context.Context, fsw *fsnotify.Watcher, stopCh chan struct{}) error {
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			w.reset()
			return ctx.Err()
		case <-stopCh:
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if w.relevant(event) {
				logger.Debug("Source change: %s %s", event.Op, event.Name)
				timer.Reset(w.debounce)
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher: %v", err)
		case <-timer.C:
			logger.Info("Sources changed, rebuilding index")
			if err := w.rebuild(ctx); err != nil {
				logger.Error("Rebuild failed: %v", err)
			}
		}
	}
}

// relevant reports whether event can change the corpus. Permission changes,
// directories and hidden files are ignored.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	if strings.HasPrefix(filepath.Base(event.Name), ".") {
		return false
	}
	if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			return false
		}
	}
	return w.accept(event.Name)
}
