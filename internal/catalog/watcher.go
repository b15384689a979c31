package catalog

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"hubbleplay/internal/logger"
	"hubbleplay/internal/metrics"
	"hubbleplay/internal/model"
)

const reloadDelay = 100 * time.Millisecond

// Watcher reloads a catalog file when it changes on disk. A reload that
// fails to parse or validate is logged and the previous catalog is kept.
type Watcher struct {
	path    string
	log     *logger.Logger
	extend  func(*model.Catalog) *model.Catalog
	mu      sync.RWMutex
	current *model.Catalog

	watcher   *fsnotify.Watcher
	listeners []func(*model.Catalog)
	stopCh    chan struct{}
	stopOnce  sync.Once
	done      chan struct{}
}

// NewWatcher loads path once and returns a watcher for it. extend, when
// non-nil, is applied to every loaded catalog (used to merge imported
// OpenAPI APIs).
func NewWatcher(path string, log *logger.Logger, extend func(*model.Catalog) *model.Catalog) (*Watcher, error) {
	if log == nil {
		log = logger.NewNopLogger()
	}
	w := &Watcher{
		path:   path,
		log:    log.WithComponent(logger.ComponentCatalog),
		extend: extend,
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
	if err := w.Load(); err != nil {
		return nil, err
	}
	return w, nil
}

// Load reads and validates the catalog file.
func (w *Watcher) Load() error {
	cat, err := LoadFromFile(w.path)
	if err != nil {
		return err
	}
	if w.extend != nil {
		cat = w.extend(cat)
	}

	w.mu.Lock()
	w.current = cat
	w.mu.Unlock()
	return nil
}

// Get returns the current catalog.
func (w *Watcher) Get() *model.Catalog {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// OnReload registers a callback for catalog changes. Register before Watch.
func (w *Watcher) OnReload(fn func(*model.Catalog)) {
	w.listeners = append(w.listeners, fn)
}

// Watch starts watching the catalog file for changes.
func (w *Watcher) Watch() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	// Watch the directory so editors that replace the file are still seen.
	dir := filepath.Dir(w.path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch directory: %w", err)
	}

	// Stop waits on watchLoop only once w.watcher is set.
	w.watcher = watcher
	go w.watchLoop()
	return nil
}

func (w *Watcher) watchLoop() {
	defer close(w.done)

	for {
		select {
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(w.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			// Small delay to ensure file write is complete
			time.Sleep(reloadDelay)

			if err := w.Load(); err != nil {
				metrics.CatalogReloadInc(false)
				w.log.Warnw("catalog reload failed, keeping previous catalog", "path", w.path, "error", err)
				continue
			}

			cat := w.Get()
			metrics.CatalogReloadInc(true)
			metrics.CatalogAPIsSet(len(cat.APIs))
			w.log.Infow("catalog reloaded", "path", w.path, "apis", len(cat.APIs))
			for _, fn := range w.listeners {
				fn(cat)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Errorw("catalog watcher error", "error", err)
		}
	}
}

// Stop stops the watcher. It is safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		if w.watcher != nil {
			w.watcher.Close()
			<-w.done
		}
	})
}
