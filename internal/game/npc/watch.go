package npc

import (
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher reloads a Catalog when files in its directories change.
type Watcher struct {
	watcher *fsnotify.Watcher
	catalog *Catalog
	logger  *zap.Logger
	// Reloaded receives the changed path after each successful reload.
	Reloaded chan string
	closeCh  chan struct{}
	done     chan struct{}
	once     sync.Once
}

// NewWatcher watches dirs and reloads catalog on content changes.
//
// Precondition: catalog and logger must be non-nil; every dir must exist.
func NewWatcher(catalog *Catalog, logger *zap.Logger, dirs ...string) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := w.Add(dir); err != nil {
			_ = w.Close()
			return nil, err
		}
	}

	watcher := &Watcher{
		watcher:  w,
		catalog:  catalog,
		logger:   logger,
		Reloaded: make(chan string, 16),
		closeCh:  make(chan struct{}),
		done:     make(chan struct{}),
	}
	go watcher.run()
	return watcher, nil
}

// Close stops watching. It is safe to call more than once.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		err = w.watcher.Close()
		<-w.done
		close(w.Reloaded)
	})
	return err
}

// reloadDebounce is how long a path must stay quiet before the catalog reloads.
const reloadDebounce = 100 * time.Millisecond

func (w *Watcher) run() {
	defer close(w.done)
	pending := make(map[string]*time.Timer)
	fire := make(chan string, 16)
	defer func() {
		for _, t := range pending {
			t.Stop()
		}
	}()
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if !isContentFile(event.Name) {
				continue
			}
			if t, ok := pending[event.Name]; ok {
				t.Reset(reloadDebounce)
				continue
			}
			name := event.Name
			pending[name] = time.AfterFunc(reloadDebounce, func() {
				select {
				case fire <- name:
				case <-w.closeCh:
				}
			})
		case path := <-fire:
			delete(pending, path)
			w.reload(path)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("content watcher error", zap.Error(err))
		case <-w.closeCh:
			return
		}
	}
}

// reload rebuilds the catalog after path has settled.
func (w *Watcher) reload(path string) {
	if err := w.catalog.Reload(); err != nil {
		w.logger.Warn("enemy catalog reload failed", zap.String("path", path), zap.Error(err))
		return
	}
	w.logger.Info("enemy catalog reloaded", zap.String("path", path))
	select {
	case w.Reloaded <- path:
	default:
	}
}

func isContentFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml" || ext == ".json"
}
