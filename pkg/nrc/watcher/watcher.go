// Package watcher rebuilds a resource artifact when its source directory changes.
package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/nappgui/nrc/pkg/nrc/config"
	"github.com/nappgui/nrc/pkg/nrc/logging"
)

var logger = logging.Get("watcher")

// Options configures a Watcher.
type Options struct {
	// Debounce is the quiet period after the last event before a burst is delivered.
	Debounce time.Duration
	// Ignore lists absolute paths whose events never trigger a burst,
	// typically the artifact being written.
	Ignore []string
}

// Func receives the sorted, de-duplicated paths changed during one burst.
type Func func(ctx context.Context, changed []string)

// Watcher watches a directory tree and coalesces events into bursts.
type Watcher struct {
	root     string
	watcher  *fsnotify.Watcher
	debounce time.Duration
	ignore   map[string]bool
	paths    map[string]bool
	mu       sync.RWMutex
	closed   bool
}

// New creates a Watcher on root and all of its subdirectories.
func New(root string, opts Options) (*Watcher, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		root:     absRoot,
		watcher:  fsw,
		debounce: opts.Debounce,
		ignore:   make(map[string]bool, len(opts.Ignore)),
		paths:    make(map[string]bool),
	}
	if w.debounce <= 0 {
		w.debounce = config.DefaultWatchDebounce
	}
	for _, p := range opts.Ignore {
		if abs, err := filepath.Abs(p); err == nil {
			w.ignore[abs] = true
		}
	}

	if err := w.watchTree(absRoot); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

// Root returns the absolute watched root.
func (w *Watcher) Root() string {
	return w.root
}

// watchTree adds root and every directory below it. Symlinks are not
// followed to avoid loops.
func (w *Watcher) watchTree(root string) error {
	info, err := os.Lstat(root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return &fs.PathError{Op: "watch", Path: root, Err: fs.ErrInvalid}
	}

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == root {
				return walkErr
			}
			return nil //nolint:nilerr // unreadable subtrees are skipped
		}
		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		if d.IsDir() {
			return w.addWatch(path)
		}
		return nil
	})
}

func (w *Watcher) addWatch(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed || w.paths[path] {
		return nil
	}

	if err := w.watcher.Add(path); err != nil {
		logger.Warn("failed to add watch", "path", path, "error", err)
		return err
	}
	w.paths[path] = true
	return nil
}

func (w *Watcher) removeWatch(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for p := range w.paths {
		if p == path || isSubPath(p, path) {
			_ = w.watcher.Remove(p)
			delete(w.paths, p)
		}
	}
}

// Watched reports whether dir currently has a watch.
func (w *Watcher) Watched(dir string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.paths[dir]
}

// Run delivers bursts to fn until ctx is cancelled. fn runs on the
// calling goroutine, so events arriving during a rebuild fold into the
// next burst.
func (w *Watcher) Run(ctx context.Context, fn Func) error {
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	pending := make(map[string]bool)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.handleEvent(event) {
				continue
			}
			pending[event.Name] = true
			timer.Reset(w.debounce)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher error", "error", err)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			changed := make([]string, 0, len(pending))
			for p := range pending {
				changed = append(changed, p)
			}
			sort.Strings(changed)
			clear(pending)

			logger.Debug("change burst", "paths", len(changed))
			fn(ctx, changed)
		}
	}
}

// handleEvent keeps the watch set current and reports whether the event
// counts toward a burst.
func (w *Watcher) handleEvent(event fsnotify.Event) bool {
	if w.ignored(event.Name) {
		return false
	}

	switch {
	case event.Op&fsnotify.Create != 0:
		w.handleCreate(event.Name)
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		w.removeWatch(event.Name)
	case event.Op&fsnotify.Chmod != 0 && event.Op&fsnotify.Write == 0:
		return false
	}
	return true
}

func (w *Watcher) handleCreate(path string) {
	info, err := os.Lstat(path)
	if err != nil || info.Mode()&fs.ModeSymlink != 0 || !info.IsDir() {
		return
	}
	// Directories created with content (mkdir -p, cp -r) need their
	// children watched too.
	if err := w.watchTree(path); err != nil {
		logger.Debug("watch new directory", "path", path, "error", err)
	}
}

func (w *Watcher) ignored(path string) bool {
	if w.ignore[path] {
		return true
	}
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".nrc-") && strings.HasSuffix(base, ".tmp")
}

// Close releases the underlying watches.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	w.paths = make(map[string]bool)
	return w.watcher.Close()
}

func isSubPath(path, parent string) bool {
	return len(path) > len(parent) && path[:len(parent)+1] == parent+string(filepath.Separator)
}
