/*
Package watch converts Gamry exports as they appear in a directory.

Events are debounced per path: a file is handed to the Handler once it has
not been created or written for the debounce window, so an instrument still
streaming an export is converted once, after it settles.

Basic usage:

	w, err := watch.New(watch.Config{Dir: dir}, match, convert, log)
	if err != nil {
		return err
	}
	if err := w.Start(ctx); err != nil {
		return err
	}
	defer w.Stop()
*/
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sonemaro/dtaprep/pkg/logger"
)

// DefaultDebounce is the settle time used when Config.Debounce is zero
const DefaultDebounce = 500 * time.Millisecond

// Handler converts one settled file
type Handler func(ctx context.Context, path string) error

// MatchFunc decides from the base name whether a file is of interest
type MatchFunc func(name string) bool

// Config holds watcher settings
type Config struct {
	// Dir is watched non-recursively
	Dir string

	// Debounce is how long a path must stay quiet before it is handled
	Debounce time.Duration

	// Tick is how often pending paths are checked (default Debounce/5, at least 10ms)
	Tick time.Duration
}

// Stats tracks watcher activity
type Stats struct {
	Events        int
	Created       int
	Modified      int
	Removed       int
	Conversions   int
	Failures      int
	Errors        int
	LastEventPath string
	LastEventTime time.Time
	LastError     string
}

// Watcher feeds settled files of a directory to a Handler
type Watcher struct {
	mu       sync.RWMutex
	watcher  *fsnotify.Watcher
	config   Config
	match    MatchFunc
	handle   Handler
	log      logger.Logger
	pending  map[string]time.Time
	stopCh   chan struct{}
	doneCh   chan struct{}
	running  bool
	stopOnce sync.Once

	stats Stats
}

// New creates a watcher for config.Dir. Nothing is watched until Start.
func New(config Config, match MatchFunc, handle Handler, log logger.Logger) (*Watcher, error) {
	if handle == nil {
		return nil, fmt.Errorf("watch handler must not be nil")
	}
	if config.Debounce <= 0 {
		config.Debounce = DefaultDebounce
	}
	if config.Tick <= 0 {
		config.Tick = config.Debounce / 5
		if config.Tick < 10*time.Millisecond {
			config.Tick = 10 * time.Millisecond
		}
	}
	if match == nil {
		match = func(string) bool { return true }
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}

	return &Watcher{
		watcher: fw,
		config:  config,
		match:   match,
		handle:  handle,
		log:     log,
		pending: make(map[string]time.Time),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}, nil
}

// Start begins watching. It does not block.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.watcher.Add(w.config.Dir); err != nil {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		return fmt.Errorf("watching %s: %w", w.config.Dir, err)
	}

	w.log.WithFields(logger.Fields{
		"dir":      w.config.Dir,
		"debounce": w.config.Debounce,
	}).Info("Watching directory")

	go w.run(ctx)

	return nil
}

// Stop stops the watcher and waits for the event loop to exit
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		w.mu.Lock()
		wasRunning := w.running
		w.running = false
		w.mu.Unlock()

		close(w.stopCh)
		if wasRunning {
			<-w.doneCh
		}

		if err := w.watcher.Close(); err != nil {
			w.log.WithFields(logger.Fields{"error": err}).Error("Closing watcher failed")
		}
		w.log.Debug("Watcher stopped")
	})
}

// Done is closed when the event loop has exited
func (w *Watcher) Done() <-chan struct{} {
	return w.doneCh
}

// Stats returns a snapshot of the watcher counters
func (w *Watcher) Stats() Stats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.stats
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.config.Tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Watcher context cancelled")
			return

		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.WithFields(logger.Fields{"error": err}).Error("Watcher error")
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()

		case <-ticker.C:
			w.processSettled(ctx)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	name := filepath.Base(event.Name)
	if !w.match(name) {
		return
	}

	w.log.WithFields(logger.Fields{
		"path": event.Name,
		"op":   event.Op.String(),
	}).Trace("File event")

	w.mu.Lock()
	defer w.mu.Unlock()

	w.stats.Events++
	w.stats.LastEventPath = event.Name
	w.stats.LastEventTime = time.Now()

	switch {
	case event.Has(fsnotify.Create):
		w.stats.Created++
		w.pending[event.Name] = time.Now()
	case event.Has(fsnotify.Write):
		w.stats.Modified++
		w.pending[event.Name] = time.Now()
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		w.stats.Removed++
		delete(w.pending, event.Name)
	}
}

// processSettled hands every path quiet for the debounce window to the handler
func (w *Watcher) processSettled(ctx context.Context) {
	w.mu.Lock()
	now := time.Now()
	var settled []string
	for path, last := range w.pending {
		if now.Sub(last) >= w.config.Debounce {
			settled = append(settled, path)
			delete(w.pending, path)
		}
	}
	w.mu.Unlock()

	for _, path := range settled {
		if ctx.Err() != nil {
			return
		}

		err := w.handle(ctx, path)

		w.mu.Lock()
		if err != nil {
			w.stats.Failures++
			w.stats.LastError = err.Error()
		} else {
			w.stats.Conversions++
		}
		w.mu.Unlock()

		if err != nil {
			w.log.WithFields(logger.Fields{
				"path":  path,
				"error": err,
			}).Error("Conversion failed")
		} else {
			w.log.WithFields(logger.Fields{"path": path}).Info("File converted")
		}
	}
}
