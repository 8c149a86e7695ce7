// Package boardwatch reloads a board file into a trace service whenever it
// changes on disk.
package boardwatch

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/signalsfoundry/pcb-trace-analyzer/core"
	"github.com/signalsfoundry/pcb-trace-analyzer/internal/logging"
)

// DefaultDebounce coalesces the burst of events editors emit for one save.
const DefaultDebounce = 200 * time.Millisecond

// Loader is the part of core.TraceService the watcher drives.
type Loader interface {
	Load(ctx context.Context, r io.Reader) (*core.LoadSummary, error)
}

// Watcher reloads a single board file.
type Watcher struct {
	path     string
	loader   Loader
	log      logging.Logger
	debounce time.Duration
	onReload func(*core.LoadSummary, error)
}

// Option configures a Watcher.
type Option func(*Watcher)

func WithLogger(l logging.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.log = l
		}
	}
}

func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithReloadHook is called after every reload attempt, including failed ones.
func WithReloadHook(fn func(*core.LoadSummary, error)) Option {
	return func(w *Watcher) { w.onReload = fn }
}

// New returns a watcher for path. Nothing happens until Run or LoadOnce.
func New(path string, loader Loader, opts ...Option) *Watcher {
	w := &Watcher{
		path:     filepath.Clean(path),
		loader:   loader,
		log:      logging.Noop(),
		debounce: DefaultDebounce,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// LoadOnce reads the board file and hands it to the loader. A failed load
// leaves the previously loaded board in place.
func (w *Watcher) LoadOnce(ctx context.Context) (*core.LoadSummary, error) {
	f, err := os.Open(w.path)
	if err != nil {
		return nil, fmt.Errorf("open board %s: %w", w.path, err)
	}
	defer f.Close()
	return w.loader.Load(ctx, f)
}

// Run watches the board's directory, so files replaced by rename are still
// seen, and reloads after each burst of changes. It blocks until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	dir := filepath.Dir(w.path)
	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	w.log.Info(ctx, "watching board file", logging.String("path", w.path))

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}
			w.log.Debug(ctx, "board file changed", logging.String("op", ev.Op.String()))
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn(ctx, "watcher error", logging.Err(err))
		case <-fire:
			fire = nil
			w.reload(ctx)
		}
	}
}

func (w *Watcher) reload(ctx context.Context) {
	summary, err := w.LoadOnce(ctx)
	if err != nil {
		w.log.Warn(ctx, "board reload failed; keeping previous board",
			logging.String("path", w.path), logging.Err(err))
	} else {
		w.log.Info(ctx, "board reloaded",
			logging.String("path", w.path),
			logging.Int("objects", summary.Objects()),
			logging.Int("nets", summary.Nets),
		)
	}
	if w.onReload != nil {
		w.onReload(summary, err)
	}
}
