package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"mediasweep/internal/logging"
	"mediasweep/internal/mediatypes"
	"mediasweep/internal/metrics"
)

// DefaultWatchDebounce is the quiet period after the last change before the
// library is reported as changed.
const DefaultWatchDebounce = 10 * time.Second

// Watcher reports changes to photos and videos under a library root.
// Bursts of events, such as a folder being copied in, are coalesced into a
// single onChange call once the library has been quiet for the debounce
// period.
type Watcher struct {
	root     string
	debounce time.Duration
	onChange func()

	watcher *fsnotify.Watcher

	mu    sync.Mutex
	timer *time.Timer
}

// NewWatcher watches root and every non-hidden directory below it.
func NewWatcher(root string, debounce time.Duration, onChange func()) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		metrics.CatalogWatcherErrors.Inc()
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}

	w := &Watcher{root: root, debounce: debounce, onChange: onChange, watcher: fw}
	n := w.addTree(root)
	metrics.CatalogWatchedDirectories.Set(float64(n))
	logging.Debug("Library watcher started, watching %d directories", n)
	return w, nil
}

// addTree adds dir and its subdirectories, returning how many were added.
func (w *Watcher) addTree(dir string) int {
	count := 0
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if addErr := w.watcher.Add(path); addErr != nil {
			logging.Warn("failed to watch %s: %v", path, addErr)
			metrics.CatalogWatcherErrors.Inc()
			return nil
		}
		count++
		return nil
	})
	if err != nil {
		logging.Error("failed to walk library for watcher: %v", err)
		metrics.CatalogWatcherErrors.Inc()
	}
	return count
}

// Run processes events until ctx is done, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) {
	defer func() {
		w.mu.Lock()
		if w.timer != nil {
			w.timer.Stop()
		}
		w.mu.Unlock()
		if err := w.watcher.Close(); err != nil {
			logging.Error("failed to close file watcher: %v", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.Error("Watcher error: %v", err)
			metrics.CatalogWatcherErrors.Inc()
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil || isHidden(rel) {
		return
	}
	metrics.CatalogWatcherEventsTotal.WithLabelValues(eventType(event.Op)).Inc()

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			n := w.addTree(event.Name)
			metrics.CatalogWatchedDirectories.Add(float64(n))
			w.schedule()
			return
		}
	}

	// Chmod alone never changes what the library lists.
	if event.Op == fsnotify.Chmod {
		return
	}
	if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		// Removed directories have no extension; always rescan.
		w.schedule()
		return
	}
	kind, known := mediatypes.KindForExt(strings.ToLower(filepath.Ext(event.Name)))
	if known && kind.IsAsset() {
		w.schedule()
	}
}

// schedule restarts the debounce timer.
func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.onChange)
}

func isHidden(rel string) bool {
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if strings.HasPrefix(part, ".") && part != "." && part != ".." {
			return true
		}
	}
	return false
}

func eventType(op fsnotify.Op) string {
	switch {
	case op.Has(fsnotify.Create):
		return "create"
	case op.Has(fsnotify.Write):
		return "write"
	case op.Has(fsnotify.Remove):
		return "remove"
	case op.Has(fsnotify.Rename):
		return "rename"
	case op.Has(fsnotify.Chmod):
		return "chmod"
	default:
		return "unknown"
	}
}
