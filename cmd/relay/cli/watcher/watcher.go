// Package watcher detects transcript file updates and reports their paths.
//
// Directories are watched rather than individual files (fsnotify handles
// directory watches more reliably, and new transcripts appear without extra
// bookkeeping). Delivery is at-least-once with no ordering guarantee: the
// same path may be reported several times for one logical write, and
// subscribers must tolerate both.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/relaykit/relay/cmd/relay/cli/logging"
)

// TranscriptExt is the file extension of agent transcript files.
const TranscriptExt = ".jsonl"

// UpdateFunc is invoked with the path of an updated transcript file.
// Calls are made from the watcher's single dispatch goroutine, one at a time.
type UpdateFunc func(path string)

// Watcher reports writes to transcript files under the configured directories.
type Watcher struct {
	fsw     *fsnotify.Watcher
	mu      sync.Mutex
	nextID  int
	subs    map[int]UpdateFunc
	done    chan struct{}
	closeMu sync.Once
}

// New creates a watcher over the given transcript directories. Directories
// that do not exist are skipped with a debug log; at least one directory must
// be watchable.
func New(dirs []string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}

	w := &Watcher{
		fsw:  fsw,
		subs: make(map[int]UpdateFunc),
		done: make(chan struct{}),
	}

	watched := 0
	for _, dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			logging.Debug(context.Background(), "skipping unwatchable transcript directory",
				"dir", dir, "error", err.Error())
			continue
		}
		watched++
	}
	if watched == 0 {
		_ = fsw.Close()
		return nil, fmt.Errorf("no watchable transcript directories among %d configured", len(dirs))
	}

	go w.dispatch()
	return w, nil
}

// Subscribe registers fn for transcript updates. The returned cancel function
// removes the subscription; it is safe to call more than once.
func (w *Watcher) Subscribe(fn func(path string)) func() {
	w.mu.Lock()
	defer w.mu.Unlock()

	id := w.nextID
	w.nextID++
	w.subs[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			w.mu.Lock()
			defer w.mu.Unlock()
			delete(w.subs, id)
		})
	}
}

// Close stops the dispatch loop and releases the underlying fsnotify watcher.
// In-flight subscriber calls run to completion.
func (w *Watcher) Close() error {
	var err error
	w.closeMu.Do(func() {
		close(w.done)
		err = w.fsw.Close()
	})
	return err
}

// dispatch is the single notification loop. Each qualifying event is handed
// to every subscriber synchronously before the next event is read.
func (w *Watcher) dispatch() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !isTranscriptUpdate(event) {
				continue
			}
			w.notify(event.Name)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logging.Warn(context.Background(), "transcript watch error", "error", err.Error())
		}
	}
}

// notify invokes all current subscribers with the updated path.
func (w *Watcher) notify(path string) {
	w.mu.Lock()
	fns := make([]UpdateFunc, 0, len(w.subs))
	for _, fn := range w.subs {
		fns = append(fns, fn)
	}
	w.mu.Unlock()

	for _, fn := range fns {
		fn(path)
	}
}

// isTranscriptUpdate reports whether the event is a write or create of a
// transcript file.
func isTranscriptUpdate(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return false
	}
	return strings.EqualFold(filepath.Ext(event.Name), TranscriptExt)
}
