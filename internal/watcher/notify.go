package watcher

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"remoteaccessd/internal/logging"
)

const notifyDebounce = 300 * time.Millisecond

// Notifier nudges the daemon loop when the watched directory or its parent
// changes, e.g. when an automounter creates the mount point. It watches the
// parent so the directory may come and go.
type Notifier struct {
	dir     string
	parent  string
	wake    func()
	logger  *slog.Logger
	watcher *fsnotify.Watcher

	mu       sync.Mutex
	dirAdded bool
	debounce *time.Timer
	closed   bool
}

// NewNotifier starts watching dir's parent, and dir itself when it exists.
func NewNotifier(dir string, wake func(), logger *slog.Logger) (*Notifier, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	n := &Notifier{
		dir:     dir,
		parent:  filepath.Dir(dir),
		wake:    wake,
		logger:  logging.NewComponentLogger(logger, "watcher"),
		watcher: fsw,
	}
	if err := fsw.Add(n.parent); err != nil {
		fsw.Close()
		return nil, err
	}
	n.tryAddDir()
	return n, nil
}

func (n *Notifier) tryAddDir() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.dirAdded {
		return
	}
	if err := n.watcher.Add(n.dir); err == nil {
		n.dirAdded = true
	}
}

func (n *Notifier) dirGone() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.dirAdded {
		_ = n.watcher.Remove(n.dir)
		n.dirAdded = false
	}
}

// Run forwards debounced change notifications until ctx ends or the
// watcher is closed.
func (n *Notifier) Run(ctx context.Context) {
	defer n.stopDebounce()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-n.watcher.Events:
			if !ok {
				return
			}
			if !n.relevant(event) {
				continue
			}
			n.schedule()
		case err, ok := <-n.watcher.Errors:
			if !ok {
				return
			}
			logging.WarnWithContext(n.logger, "directory watch error; falling back to polling", "watch_error",
				logging.Error(err),
				logging.String(logging.FieldImpact, "media detection may lag by one poll interval"),
			)
		}
	}
}

func (n *Notifier) schedule() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}
	if n.debounce != nil {
		n.debounce.Stop()
	}
	n.debounce = time.AfterFunc(notifyDebounce, n.fire)
}

// fire holds the lock across wake so Close never returns while a wake is
// in flight.
func (n *Notifier) fire() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}
	n.wake()
}

func (n *Notifier) stopDebounce() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.debounce != nil {
		n.debounce.Stop()
		n.debounce = nil
	}
}

func (n *Notifier) relevant(event fsnotify.Event) bool {
	path, err := filepath.Abs(event.Name)
	if err != nil {
		return false
	}
	if path == n.dir {
		switch {
		case event.Has(fsnotify.Create):
			n.tryAddDir()
		case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
			n.dirGone()
		}
		return true
	}
	return filepath.Dir(path) == n.dir
}

// Close stops the underlying watcher and cancels any pending wake. wake is
// not called once Close has returned.
func (n *Notifier) Close() error {
	n.mu.Lock()
	n.closed = true
	if n.debounce != nil {
		n.debounce.Stop()
		n.debounce = nil
	}
	n.mu.Unlock()
	return n.watcher.Close()
}
