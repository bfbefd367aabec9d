// Package watch turns writes to the session database by any process into
// store.changed events on the bus. fsnotify drives it; polling SQLite's
// data_version is an optional fallback for filesystems without events.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/matheus3301/huddle/internal/bus"
	"go.uber.org/zap"
)

// DefaultDebounce coalesces the burst of events a single commit produces
// across the database, WAL and shared-memory files.
const DefaultDebounce = 50 * time.Millisecond

// Versioner reports a counter that changes when another connection commits.
type Versioner interface {
	DataVersion(ctx context.Context) (int64, error)
}

// Options configures a Watcher.
type Options struct {
	// Path is the database file. Its directory is watched and events are
	// filtered to the file and its -wal/-shm/-journal siblings.
	Path string
	// Notify enables fsnotify watching.
	Notify bool
	// PollInterval enables data_version polling when positive.
	PollInterval time.Duration
	// Debounce defaults to DefaultDebounce.
	Debounce time.Duration
}

// Change is the payload of store.changed events.
type Change struct {
	Source string // "fs" or "poll"
}

// Watcher publishes store.changed when the database changes on disk.
type Watcher struct {
	opts   Options
	ver    Versioner
	bus    *bus.Bus
	logger *zap.Logger

	fs     *fsnotify.Watcher
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu   sync.Mutex
	last int64
}

// New creates a watcher. ver may be nil when polling is disabled.
func New(opts Options, ver Versioner, b *bus.Bus, logger *zap.Logger) *Watcher {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{opts: opts, ver: ver, bus: b, logger: logger, ctx: ctx, cancel: cancel}
}

// Start begins watching. It returns once the watches are in place.
func (w *Watcher) Start() error {
	if w.opts.Notify {
		fw, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("create fs watcher: %w", err)
		}
		dir := filepath.Dir(w.opts.Path)
		if err := fw.Add(dir); err != nil {
			_ = fw.Close()
			return fmt.Errorf("watch %s: %w", dir, err)
		}
		w.fs = fw
		w.wg.Add(1)
		go w.processEvents()
	}

	if w.opts.PollInterval > 0 && w.ver != nil {
		v, err := w.ver.DataVersion(w.ctx)
		if err != nil {
			return err
		}
		w.last = v
		w.wg.Add(1)
		go w.poll()
	}

	w.logger.Info("store watcher started",
		zap.String("path", w.opts.Path),
		zap.Bool("notify", w.fs != nil),
		zap.Duration("poll_interval", w.opts.PollInterval))
	return nil
}

// relevant reports whether name is the database or one of its sidecar files.
func (w *Watcher) relevant(name string) bool {
	base := filepath.Base(w.opts.Path)
	got := filepath.Base(name)
	if got == base {
		return true
	}
	for _, suffix := range []string{"-wal", "-shm", "-journal"} {
		if got == base+suffix {
			return true
		}
	}
	return false
}

func (w *Watcher) processEvents() {
	defer w.wg.Done()

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) {
				continue
			}
			if !w.relevant(event.Name) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.opts.Debounce)
			} else {
				timer.Reset(w.opts.Debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			w.publish("fs")

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Warn("fs watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) poll() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			v, err := w.ver.DataVersion(w.ctx)
			if err != nil {
				if w.ctx.Err() == nil {
					w.logger.Warn("poll data_version", zap.Error(err))
				}
				continue
			}
			w.mu.Lock()
			changed := v != w.last
			w.last = v
			w.mu.Unlock()
			if changed {
				w.publish("poll")
			}
		}
	}
}

func (w *Watcher) publish(source string) {
	w.logger.Debug("store changed", zap.String("source", source))
	w.bus.Emit(bus.KindStoreChanged, Change{Source: source})
}

// Close stops watching and waits for the goroutines to exit.
func (w *Watcher) Close() error {
	w.cancel()
	var err error
	if w.fs != nil {
		err = w.fs.Close()
	}
	w.wg.Wait()
	return err
}

// Forward calls fn for every store.changed event until ctx is done. It is
// how managers caching stored state learn about other writers.
func Forward(ctx context.Context, b *bus.Bus, fn func()) {
	ch, unsub := b.Subscribe("store.", 16)
	defer unsub()
	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-ch:
			if evt.Kind == bus.KindStoreChanged {
				fn()
			}
		}
	}
}
