// Package watch reloads a diagram file when it changes on disk.
package watch

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces editor save bursts
const DefaultDebounce = 100 * time.Millisecond

// ReloadFunc receives the new file content
type ReloadFunc func(source string)

// Watcher watches a single diagram file. The parent directory is watched
// so editors that save by rename are still seen.
type Watcher struct {
	path     string
	debounce time.Duration
	onReload ReloadFunc
	watcher  *fsnotify.Watcher

	mu   sync.Mutex
	last string
	runs int
}

// New creates a watcher for path. The current content is read so that
// unchanged saves are not reported.
func New(path string, debounce time.Duration, onReload ReloadFunc) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	w := &Watcher{
		path:     abs,
		debounce: debounce,
		onReload: onReload,
		watcher:  fw,
	}
	if data, err := os.ReadFile(abs); err == nil {
		w.last = string(data)
	}
	return w, nil
}

// Path returns the absolute path being watched
func (w *Watcher) Path() string {
	return w.path
}

// Remember records content written by flowkit itself so the resulting
// file event does not trigger a reload.
func (w *Watcher) Remember(source string) {
	w.mu.Lock()
	w.last = source
	w.mu.Unlock()
}

// Reloads returns how many times onReload has been called
func (w *Watcher) Reloads() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.runs
}

// Run processes file events until ctx is done or the watcher is closed
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	debounce := time.NewTimer(0)
	<-debounce.C // drain initial timer
	pending := false

	for {
		select {
		case <-ctx.Done():
			debounce.Stop()
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			pending = true
			debounce.Reset(w.debounce)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			log.Println("Watcher error:", err)

		case <-debounce.C:
			if pending {
				pending = false
				w.reload()
			}
		}
	}
}

func (w *Watcher) reload() {
	data, err := os.ReadFile(w.path)
	if err != nil {
		// A rename-replace may not have landed yet; the Create event retries
		if !os.IsNotExist(err) {
			log.Printf("Failed to read %s: %v", w.path, err)
		}
		return
	}

	source := string(data)
	w.mu.Lock()
	if source == w.last {
		w.mu.Unlock()
		return
	}
	w.last = source
	w.runs++
	w.mu.Unlock()

	log.Printf("Reloaded %s", filepath.Base(w.path))
	if w.onReload != nil {
		w.onReload(source)
	}
}
