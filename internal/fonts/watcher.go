package fonts

import (
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ///////////////////////////////////////////////
// Watcher
// ///////////////////////////////////////////////

// Watcher reports changes to font files in a directory using fsnotify, with a
// polling fallback. Callers typically call [Resolver.Rescan] on each event.
type Watcher struct {
	// dir is the fonts directory being monitored.
	dir string
	// events delivers a signal each time a font file is added, changed, or
	// removed. Buffered to 1 so bursts of changes coalesce.
	events chan struct{}
	// done is closed by [Watcher.Close] to stop the goroutines.
	done chan struct{}
	// fsw is the underlying fsnotify watcher; nil when polling.
	fsw *fsnotify.Watcher
	// once makes [Watcher.Close] idempotent.
	once sync.Once
	// polling is true once the watcher has fallen back to directory scans.
	polling atomic.Bool
	// pollInterval is the time between scans in polling mode.
	pollInterval time.Duration
}

// NewWatcher starts watching dir for font file changes.
func NewWatcher(dir string) (*Watcher, error) {
	w := &Watcher{
		dir:          dir,
		events:       make(chan struct{}, 1),
		done:         make(chan struct{}),
		pollInterval: 2 * time.Second,
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		slog.Info("fsnotify unavailable, polling fonts dir", "error", err)
		w.startPolling()
		return w, nil
	}
	if err := fsw.Add(dir); err != nil {
		slog.Info("cannot watch fonts dir, polling", "dir", dir, "error", err)
		fsw.Close()
		w.startPolling()
		return w, nil
	}
	w.fsw = fsw
	go w.watch()
	return w, nil
}

// Events returns a channel that receives a signal when font files change.
func (w *Watcher) Events() <-chan struct{} {
	return w.events
}

// Polling reports whether the watcher is scanning instead of using fsnotify.
func (w *Watcher) Polling() bool {
	return w.polling.Load()
}

// Close stops the watcher and releases resources.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		if w.fsw != nil {
			if closeErr := w.fsw.Close(); closeErr != nil {
				err = fmt.Errorf("closing fsnotify watcher: %w", closeErr)
			}
		}
	})
	return err
}

func (w *Watcher) startPolling() {
	w.fsw = nil
	w.polling.Store(true)
	go w.poll()
}

// watch forwards fsnotify events for font files. On an fsnotify error it
// switches to polling.
func (w *Watcher) watch() {
	fsw := w.fsw
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			changed := event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
				event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)
			if changed && IsFontFile(event.Name) {
				w.notify()
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			slog.Info("fsnotify error, polling fonts dir", "error", err)
			fsw.Close()
			w.startPolling()
			return
		}
	}
}

// poll rescans the directory and signals when the set of font files or their
// modification times change.
func (w *Watcher) poll() {
	last := w.snapshot()

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			cur := w.snapshot()
			if cur != last {
				last = cur
				w.notify()
			}
		}
	}
}

// snapshot summarizes the font files in dir as count plus newest mtime.
func (w *Watcher) snapshot() [2]int64 {
	var count, newest int64
	_ = filepath.WalkDir(w.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !IsFontFile(path) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		count++
		newest = max(newest, info.ModTime().UnixNano())
		return nil
	})
	return [2]int64{count, newest}
}

// notify sends one pending signal; further calls are dropped until it is read.
func (w *Watcher) notify() {
	select {
	case w.events <- struct{}{}:
	default:
	}
}
