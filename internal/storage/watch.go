package storage

import (
	"context"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce collapses the burst of events a single atomic write produces.
const DefaultDebounce = 50 * time.Millisecond

// Watcher reports keys of a FileStore that change on disk, including
// changes made by other processes.
type Watcher struct {
	watcher  *fsnotify.Watcher
	dir      string
	debounce time.Duration
}

// NewWatcher starts watching the directory of fs.
func NewWatcher(fs *FileStore) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(fs.Dir()); err != nil {
		w.Close()
		return nil, err
	}
	return &Watcher{watcher: w, dir: filepath.Clean(fs.Dir()), debounce: DefaultDebounce}, nil
}

// SetDebounce overrides the debounce window.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.debounce = d
}

// Run delivers batches of changed keys to onChange until ctx is done or the
// watcher is closed. Errors from the underlying watcher go to onError when
// it is non-nil.
func (w *Watcher) Run(ctx context.Context, onChange func(keys []string), onError func(error)) {
	timer := time.NewTimer(0)
	<-timer.C

	pending := make(map[string]struct{})

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			name := filepath.Base(event.Name)
			if isTempName(name) || filepath.Dir(event.Name) != w.dir {
				continue
			}
			pending[name] = struct{}{}
			timer.Reset(w.debounce)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			keys := make([]string, 0, len(pending))
			for k := range pending {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			pending = make(map[string]struct{})
			onChange(keys)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			if onError != nil {
				onError(err)
			}
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
