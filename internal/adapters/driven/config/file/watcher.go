package file

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/eunio-health/eunio-sync/internal/logger"
)

// Watcher reloads a ConfigStore when its file changes on disk and then calls
// the reload callback. Editors that save by renaming a new file into place are
// handled by watching the directory rather than the file itself.
type Watcher struct {
	store    *ConfigStore
	onReload func()
	watcher  *fsnotify.Watcher
	done     chan struct{}
	wg       sync.WaitGroup
	mu       sync.Mutex
	running  bool
}

// NewWatcher creates a watcher for store. onReload may be nil.
// The watcher must be started with Start() before it reacts to changes.
func NewWatcher(store *ConfigStore, onReload func()) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	return &Watcher{
		store:    store,
		onReload: onReload,
		watcher:  w,
		done:     make(chan struct{}),
	}, nil
}

// Start begins watching the configuration directory.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return fmt.Errorf("config watcher already running")
	}

	dir := filepath.Dir(w.store.Path())
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("watching config directory %s: %w", dir, err)
	}

	w.running = true
	w.wg.Add(1)
	go w.processEvents()
	return nil
}

// Stop stops watching and blocks until the event loop has exited.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	w.mu.Unlock()

	close(w.done)
	err := w.watcher.Close()
	w.wg.Wait()
	if err != nil {
		return fmt.Errorf("closing config watcher: %w", err)
	}
	return nil
}

func (w *Watcher) processEvents() {
	defer w.wg.Done()

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if w.relevant(event) {
				w.reload()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("config watcher error", logger.Err(err))
		}
	}
}

// relevant reports whether event rewrote the config file.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != filepath.Clean(w.store.Path()) {
		return false
	}
	return event.Has(fsnotify.Create) || event.Has(fsnotify.Write) || event.Has(fsnotify.Rename)
}

func (w *Watcher) reload() {
	if err := w.store.Load(); err != nil {
		// Keep the previous values until the file parses again.
		logger.Warn("config reload failed", "path", w.store.Path(), logger.Err(err))
		return
	}
	logger.Debug("config reloaded", "path", w.store.Path())
	if w.onReload != nil {
		w.onReload()
	}
}
