// Package watch re-runs a merge whenever the intermediate file changes.
// It supports an encode-iterate workflow: re-encode frames into the
// intermediate file and the merged output follows automatically.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bitstreamlab/vmdremux/pkg/log"
)

// Watcher monitors one intermediate file and invokes a merge function when
// it is rewritten. Events are debounced so encoders that write in bursts
// trigger a single re-merge.
type Watcher struct {
	mu sync.Mutex

	path     string
	debounce time.Duration
	run      func() error
	logger   log.Logger
	timer    *time.Timer
}

// New creates a Watcher for path. run performs one full merge.
func New(path string, debounce time.Duration, logger log.Logger, run func() error) *Watcher {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Watcher{
		path:     path,
		debounce: debounce,
		run:      run,
		logger:   logger,
	}
}

// Run blocks until ctx is cancelled, re-merging after every change to the
// watched file. The containing directory is watched rather than the file
// itself: encoders typically replace the file, which would drop a direct
// watch.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	dir := filepath.Dir(w.path)
	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	w.logger.Info("watching intermediate file", log.String("path", w.path))

	for {
		select {
		case <-ctx.Done():
			w.stopTimer()
			return ctx.Err()

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.scheduleMerge()

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher error", log.Err(err))
		}
	}
}

// scheduleMerge arms (or re-arms) the debounce timer.
func (w *Watcher) scheduleMerge() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		if err := w.run(); err != nil {
			w.logger.Error("re-merge failed", log.Err(err))
			return
		}
		w.logger.Info("re-merged after change", log.String("path", w.path))
	})
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
}
