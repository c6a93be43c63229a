package credstore

import (
	"errors"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"authkit/pkg/logging"
)

// DefaultDebounceInterval is the time to wait after a file event before
// reloading, so editors and atomic-rename writers trigger a single reload.
const DefaultDebounceInterval = 200 * time.Millisecond

// Watcher monitors the credentials file for external changes and reloads the
// store when another process rewrites it (e.g. a re-login in a second
// terminal). The parent directory is watched rather than the file itself
// because Clear removes the file and Set recreates it.
type Watcher struct {
	mu       sync.Mutex
	store    *Store
	onChange func()

	fsWatcher *fsnotify.Watcher
	stopCh    chan struct{}
	running   bool

	debounce      time.Duration
	debounceMu    sync.Mutex
	debounceTimer *time.Timer
}

// NewWatcher creates a watcher for the given store. onChange is invoked
// (after the store has been reloaded) every time the credentials file
// changes on disk; it may be nil.
func NewWatcher(store *Store, onChange func()) (*Watcher, error) {
	if store.Path() == "" {
		return nil, errors.New("credential store is not file-backed")
	}

	return &Watcher{
		store:    store,
		onChange: onChange,
		debounce: DefaultDebounceInterval,
	}, nil
}

// Start begins watching. It is an error to start a running watcher.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return errors.New("credential watcher already running")
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	if err := fsWatcher.Add(filepath.Dir(w.store.Path())); err != nil {
		fsWatcher.Close()
		return err
	}

	w.fsWatcher = fsWatcher
	w.stopCh = make(chan struct{})
	w.running = true

	go w.run()

	logging.Debug("CredWatcher", "watching %s", w.store.Path())
	return nil
}

// Stop stops watching. Safe to call on a stopped watcher.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}

	close(w.stopCh)
	w.fsWatcher.Close()
	w.fsWatcher = nil
	w.running = false
}

func (w *Watcher) run() {
	fsWatcher := w.fsWatcher
	stopCh := w.stopCh

	for {
		select {
		case <-stopCh:
			return

		case event, ok := <-fsWatcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(w.store.Path()) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			w.scheduleReload()

		case err, ok := <-fsWatcher.Errors:
			if !ok {
				return
			}
			logging.Warn("CredWatcher", "watch error: %v", err)
		}
	}
}

// scheduleReload debounces rapid successive events into a single reload.
func (w *Watcher) scheduleReload() {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}

	w.debounceTimer = time.AfterFunc(w.debounce, func() {
		if err := w.store.Reload(); err != nil {
			logging.Error("CredWatcher", err, "failed to reload credentials after file change")
			return
		}
		logging.Debug("CredWatcher", "credentials reloaded after external change")
		if w.onChange != nil {
			w.onChange()
		}
	})
}
