package transform

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/goliatone/go-wmarkdown/internal/logging"
	"github.com/goliatone/go-wmarkdown/pkg/interfaces"
)

// ErrWatcherClosed is returned when adding paths to a closed watcher.
var ErrWatcherClosed = errors.New("transform: watcher is closed")

// DefaultEventBuffer is the capacity of the watcher event channel.
const DefaultEventBuffer = 64

// Event reports the outcome of a file change.
type Event struct {
	Path    string
	Module  *Module
	Removed bool
	Err     error
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithWatchLogger sets the watcher logger.
func WithWatchLogger(logger interfaces.Logger) WatcherOption {
	return func(w *Watcher) {
		w.logger = logger
	}
}

// WithEventBuffer sets the event channel capacity.
func WithEventBuffer(size int) WatcherOption {
	return func(w *Watcher) {
		if size > 0 {
			w.buffer = size
		}
	}
}

// Watcher re-transforms markdown files when they change on disk.
type Watcher struct {
	transformer *Transformer
	fsw         *fsnotify.Watcher
	logger      interfaces.Logger
	buffer      int

	events chan Event
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	closed bool
	paths  map[string]struct{}
}

// NewWatcher starts a watcher feeding changed files through t.
func NewWatcher(t *Transformer, opts ...WatcherOption) (*Watcher, error) {
	if t == nil {
		return nil, fmt.Errorf("transform: transformer is required")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("transform: create watcher: %w", err)
	}

	w := &Watcher{
		transformer: t,
		fsw:         fsw,
		buffer:      DefaultEventBuffer,
		paths:       make(map[string]struct{}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	w.logger = logging.Ensure(w.logger)
	w.events = make(chan Event, w.buffer)
	w.ctx, w.cancel = context.WithCancel(context.Background())

	w.wg.Add(1)
	go w.loop()
	return w, nil
}

// Add watches root and every directory below it that the exclude filters do
// not reject.
func (w *Watcher) Add(root string) error {
	abs, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("transform: watch %s: %w", root, err)
	}

	return filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != abs && anyMatch(w.transformer.filters.exclude, path) {
			return filepath.SkipDir
		}
		return w.watchDir(path)
	})
}

func (w *Watcher) watchDir(dir string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWatcherClosed
	}
	if _, ok := w.paths[dir]; ok {
		return nil
	}
	if err := w.fsw.Add(dir); err != nil {
		return fmt.Errorf("transform: watch %s: %w", dir, err)
	}
	w.paths[dir] = struct{}{}
	w.logger.Debug("transform.watch.added", "dir", dir)
	return nil
}

// Paths returns the watched directories.
func (w *Watcher) Paths() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]string, 0, len(w.paths))
	for path := range w.paths {
		out = append(out, path)
	}
	return out
}

// Events delivers one Event per handled change. It is closed by Close.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Close stops the watcher and closes the event channel.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	w.cancel()
	err := w.fsw.Close()
	w.wg.Wait()
	close(w.events)
	return err
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("transform.watch.error", "error", err)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.Add(event.Name); err != nil {
				w.logger.Warn("transform.watch.add_failed", "dir", event.Name, "error", err)
			}
			return
		}
	}

	if !w.transformer.ShouldReload(event.Name) {
		return
	}
	logger := logging.WithFileContext(w.logger, event.Name)

	switch {
	case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
		logger.Debug("transform.watch.removed")
		w.send(Event{Path: event.Name, Removed: true})
	case event.Has(fsnotify.Create) || event.Has(fsnotify.Write):
		w.send(w.reload(event.Name))
	}
}

func (w *Watcher) reload(path string) Event {
	src, err := os.ReadFile(path)
	if err != nil {
		return Event{Path: path, Err: fmt.Errorf("transform: read %s: %w", path, err)}
	}

	mod, err := w.transformer.Transform(w.ctx, string(src), path)
	if err != nil {
		return Event{Path: path, Err: err}
	}
	if mod == nil {
		return Event{Path: path}
	}
	w.logger.Info("transform.watch.reloaded", "file", path, "cached", mod.Cached)
	return Event{Path: path, Module: mod}
}

func (w *Watcher) send(event Event) {
	select {
	case w.events <- event:
	case <-w.ctx.Done():
	default:
		w.logger.Warn("transform.watch.dropped", "file", event.Path)
	}
}
