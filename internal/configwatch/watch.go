// Package configwatch reports changes to startup files in the
// configuration directory.
package configwatch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = 250 * time.Millisecond

// Watcher calls a function when one of a set of files in a directory is
// created, written, removed or renamed. Bursts of events within the
// debounce interval produce a single call.
type Watcher struct {
	dir      string
	names    []string
	onChange func()
	logger   *slog.Logger
	debounce *debouncer

	w      *fsnotify.Watcher
	cancel context.CancelFunc
	done   chan struct{}
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the debounce interval. Zero calls onChange for every
// event.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		w.debounce.interval = d
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Watcher) {
		w.logger = logger
	}
}

// Start watches names inside dir until ctx is done or Close is called.
// dir must exist.
func Start(ctx context.Context, dir string, names []string, onChange func(), opts ...Option) (*Watcher, error) {
	wt := &Watcher{
		dir:      dir,
		names:    names,
		onChange: onChange,
		logger:   slog.New(slog.DiscardHandler),
		done:     make(chan struct{}),
	}
	wt.debounce = &debouncer{interval: defaultDebounce, fire: wt.fire}
	for _, opt := range opts {
		opt(wt)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := fw.Add(dir); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	wt.w = fw

	ctx, wt.cancel = context.WithCancel(ctx)
	go wt.run(ctx)
	return wt, nil
}

func (wt *Watcher) run(ctx context.Context) {
	defer close(wt.done)
	defer func() {
		_ = wt.w.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-wt.w.Events:
			if !ok {
				return
			}
			if !slices.Contains(wt.names, filepath.Base(ev.Name)) {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			wt.logger.Debug("config file changed", "file", ev.Name, "op", ev.Op.String())
			wt.debounce.trigger()
		case err, ok := <-wt.w.Errors:
			if !ok {
				return
			}
			wt.logger.Debug("fsnotify error", "err", err)
		}
	}
}

func (wt *Watcher) fire() {
	select {
	case <-wt.done:
		return
	default:
	}
	wt.onChange()
}

// Close stops the watcher and waits for its goroutine to exit.
func (wt *Watcher) Close() error {
	wt.cancel()
	<-wt.done
	wt.debounce.stop()
	return nil
}

type debouncer struct {
	mu       sync.Mutex
	timer    *time.Timer
	pending  bool
	interval time.Duration
	fire     func()
}

func (d *debouncer) trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.interval <= 0 {
		d.fire()
		return
	}
	if d.pending {
		return
	}
	d.pending = true
	if d.timer == nil {
		d.timer = time.AfterFunc(d.interval, d.flush)
	} else {
		d.timer.Reset(d.interval)
	}
}

func (d *debouncer) flush() {
	d.mu.Lock()
	d.pending = false
	d.mu.Unlock()
	d.fire()
}

func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.pending = false
}
