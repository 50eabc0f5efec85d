// Package fsnotify implements the ports.Watcher interface using github.com/fsnotify/fsnotify.
// It watches the directory containing a pattern file rather than the file itself,
// so atomic-rename saves (write temp, rename over target) stay visible, and
// debounces rapid events (editors often trigger multiple writes per save).
package fsnotify

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher implements ports.Watcher using fsnotify.
type Watcher struct {
	fw      *fsnotify.Watcher
	done    chan struct{}
	stopped bool
	mu      sync.Mutex
}

// NewWatcher creates a new file system watcher.
func NewWatcher() (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		fw:   fw,
		done: make(chan struct{}),
	}, nil
}

// Watch starts monitoring a single pattern file. Events for other files in
// the same directory are ignored. onChange is called with the file's
// absolute path; it may fire while the file is transiently absent (an
// editor renaming the old copy away), so callers must tolerate a failed
// read and retry on the next event.
func (w *Watcher) Watch(listPath string, onChange func(filePath string)) error {
	absPath, err := filepath.Abs(listPath)
	if err != nil {
		return err
	}
	dir := filepath.Dir(absPath)
	target := filepath.Base(absPath)

	if err := w.fw.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	// Debounce state: one save can deliver several events for the target
	// (truncate then write, or a temp-rename pair). Firing on the trailing
	// edge means the callback reads the finished file, not a half-saved one.
	var dmu sync.Mutex
	var pending *time.Timer
	const debounceInterval = 50 * time.Millisecond

	go func() {
		for {
			select {
			case event, ok := <-w.fw.Events:
				if !ok {
					return
				}
				if filepath.Base(event.Name) != target {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
					!event.Has(fsnotify.Rename) {
					continue
				}

				// Debounce: restart the timer on every event in the burst
				dmu.Lock()
				if pending != nil {
					pending.Stop()
				}
				pending = time.AfterFunc(debounceInterval, func() {
					onChange(absPath)
				})
				dmu.Unlock()

			case _, ok := <-w.fw.Errors:
				if !ok {
					return
				}
				// Errors are swallowed — fsnotify recovers automatically

			case <-w.done:
				dmu.Lock()
				if pending != nil {
					pending.Stop()
				}
				dmu.Unlock()
				return
			}
		}
	}()

	return nil
}

// Stop ends monitoring and releases all resources.
// Safe to call multiple times.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return nil
	}
	w.stopped = true
	close(w.done)
	return w.fw.Close()
}
