// Package watcher reports debounced batches of source changes under a
// directory tree.
package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"repoviz/internal/paths"
	"repoviz/internal/slogutil"
	"repoviz/internal/source"
)

// DefaultDebounce is the quiet period before a batch is emitted.
const DefaultDebounce = 500 * time.Millisecond

// EventType represents the type of file system event
type EventType int

const (
	EventCreate EventType = iota
	EventModify
	EventDelete
	EventRename
)

// String returns a string representation of the event type
func (e EventType) String() string {
	switch e {
	case EventCreate:
		return "create"
	case EventModify:
		return "modify"
	case EventDelete:
		return "delete"
	case EventRename:
		return "rename"
	default:
		return "unknown"
	}
}

// Event is one change. Path is slash-separated and relative to the root.
type Event struct {
	Type      EventType
	Path      string
	Timestamp time.Time
}

// Watcher watches a directory tree. Directories the filter ignores, and
// .git, are never watched.
type Watcher struct {
	root     string
	filter   *source.Filter
	debounce time.Duration
	logger   *slog.Logger
	fs       *fsnotify.Watcher
}

// New creates a watcher for root. filter and logger may be nil; a zero
// debounce uses DefaultDebounce.
func New(root string, filter *source.Filter, debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve watch root: %w", err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	w := &Watcher{root: abs, filter: filter, debounce: debounce, logger: logger, fs: fw}
	if err := w.addTree(abs); err != nil {
		fw.Close()
		return nil, err
	}
	return w, nil
}

// Run delivers batches to onChange until ctx is done. onChange runs on the
// caller's goroutine, one batch at a time; changes that arrive meanwhile
// form the next batch.
func (w *Watcher) Run(ctx context.Context, onChange func([]Event)) error {
	defer w.fs.Close()

	batches := make(chan []Event)
	batch := NewBatchDebouncer(w.debounce, func(events []Event) {
		select {
		case batches <- events:
		case <-ctx.Done():
		}
	})
	defer batch.Cancel()

	w.logger.Info("Watching for changes", "root", w.root, "debounce_ms", w.debounce.Milliseconds())

	for {
		select {
		case <-ctx.Done():
			return nil

		case events := <-batches:
			w.logger.Debug("Changes detected", "events", len(events))
			onChange(events)

		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if e, keep := w.translate(ev); keep {
				batch.Add(e)
			}

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("File watcher error", "error", err)
		}
	}
}

// translate maps an fsnotify event to an Event, watching new directories
// as they appear.
func (w *Watcher) translate(ev fsnotify.Event) (Event, bool) {
	rel, err := paths.CanonicalizePath(ev.Name, w.root)
	if err != nil {
		return Event{}, false
	}
	rel = paths.NormalizePath(rel)
	if rel == "" || rel == ".git" || paths.TopSegment(rel) == ".git" {
		return Event{}, false
	}

	if ev.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if w.filter == nil || !w.filter.Ignored(rel, true) {
				if err := w.addTree(ev.Name); err != nil {
					w.logger.Warn("Failed to watch new directory", "path", rel, "error", err)
				}
			}
			return Event{}, false
		}
	}
	if w.filter != nil && w.filter.Ignored(rel, false) {
		return Event{}, false
	}

	e := Event{Path: rel, Timestamp: time.Now()}
	switch {
	case ev.Op&fsnotify.Create != 0:
		e.Type = EventCreate
	case ev.Op&fsnotify.Write != 0:
		e.Type = EventModify
	case ev.Op&fsnotify.Remove != 0:
		e.Type = EventDelete
	case ev.Op&fsnotify.Rename != 0:
		e.Type = EventRename
	default:
		return Event{}, false
	}
	return e, true
}

// addTree watches dir and every directory below it that is not ignored.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == dir {
				return fmt.Errorf("watch %s: %w", dir, err)
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if p != w.root {
			rel, _ := filepath.Rel(w.root, p)
			rel = paths.NormalizePath(rel)
			if d.Name() == ".git" || (w.filter != nil && w.filter.Ignored(rel, true)) {
				return filepath.SkipDir
			}
		}
		if err := w.fs.Add(p); err != nil {
			w.logger.Warn("Failed to watch directory", "path", p, "error", err)
		}
		return nil
	})
}
