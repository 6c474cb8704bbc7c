// Package watch notices when the open log file changes on disk so the UI can
// offer a reload. It does not follow or tail the file.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher reports changes to a single file. The parent directory is watched
// so that files replaced by rename or rotation are still noticed.
type Watcher struct {
	fsw     *fsnotify.Watcher
	changes chan string
	logger  *zap.Logger

	mu     sync.Mutex
	target string
	dir    string
}

// New creates a Watcher with no target. A nil logger discards messages.
func New(logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	return &Watcher{
		fsw:     fsw,
		changes: make(chan string, 1),
		logger:  logger,
	}, nil
}

// NewPolling creates a Watcher without fsnotify. It only reports changes
// passed to Notify.
func NewPolling(logger *zap.Logger) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		changes: make(chan string, 1),
		logger:  logger,
	}
}

// Changes delivers the target path after it is written, created, removed or
// renamed. Bursts of events collapse into one pending notification.
func (w *Watcher) Changes() <-chan string {
	return w.changes
}

// Set switches the watched file to path.
func (w *Watcher) Set(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}
	dir := filepath.Dir(abs)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fsw != nil && dir != w.dir {
		if w.dir != "" {
			_ = w.fsw.Remove(w.dir)
		}
		if err := w.fsw.Add(dir); err != nil {
			w.dir = ""
			return fmt.Errorf("watch %s: %w", dir, err)
		}
		w.dir = dir
	}
	w.target = abs
	return nil
}

// Notify reports a change to path as if the file system had. Used by
// callers that detect changes some other way.
func (w *Watcher) Notify(path string) {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	select {
	case w.changes <- path:
	default:
	}
}

// Run forwards events for the target until ctx is cancelled, then closes the
// underlying watcher.
func (w *Watcher) Run(ctx context.Context) {
	if w.fsw == nil {
		<-ctx.Done()
		return
	}
	defer w.fsw.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) &&
				!ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
				continue
			}
			w.mu.Lock()
			target := w.target
			w.mu.Unlock()
			if filepath.Clean(ev.Name) != target {
				continue
			}
			select {
			case w.changes <- target:
			default:
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("file watcher error", zap.Error(err))
		}
	}
}
