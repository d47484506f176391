package storyweave

import (
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher is a shared, append-only file-watch collaborator: generators add
// paths to it via AddDependency, and it only ever watches — it exposes no
// event stream of its own, matching the spec's "watch-only semantics".
type Watcher struct {
	mu      sync.Mutex
	fsw     *fsnotify.Watcher
	watched map[string]bool
}

// NewWatcher starts a background fsnotify watcher. The returned Watcher's
// events are drained and discarded internally; callers only ever call
// Watch.
func NewWatcher() (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{fsw: fsw, watched: make(map[string]bool)}
	go w.drain()
	return w, nil
}

func (w *Watcher) drain() {
	for {
		select {
		case _, ok := <-w.fsw.Events:
			if !ok {
				return
			}
		case _, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
		}
	}
}

// Watch adds path to the watch set. Idempotent: a path already being
// watched is a no-op. Errors from the underlying fsnotify watcher (e.g. a
// path that doesn't exist) are swallowed, matching the collaborator's
// watch-only, best-effort contract.
func (w *Watcher) Watch(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.watched[path] {
		return
	}
	if err := w.fsw.Add(path); err == nil {
		w.watched[path] = true
	}
}

// Close stops the underlying fsnotify watcher and its drain goroutine.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}
