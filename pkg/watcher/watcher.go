package watcher

import (
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher reports changes to a set of files. Events for files in the same
// directories that are not in the set are ignored.
type Watcher struct {
	fs        *fsnotify.Watcher
	debouncer *Debouncer
	onChange  func(paths []string)

	mu      sync.Mutex
	files   map[string]bool
	changed map[string]bool

	done chan struct{}
	wg   sync.WaitGroup
}

// New starts watching files. onChange runs on a background goroutine with the
// paths that changed during the last debounce window.
func New(files []string, debounce *Debouncer, onChange func(paths []string)) (*Watcher, error) {
	if onChange == nil {
		return nil, errors.New("watcher: onChange is required")
	}
	if debounce == nil {
		debounce = NewDebouncer(0)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}

	w := &Watcher{
		fs:        fw,
		debouncer: debounce,
		onChange:  onChange,
		files:     make(map[string]bool),
		changed:   make(map[string]bool),
		done:      make(chan struct{}),
	}
	if err := w.Set(files); err != nil {
		fw.Close()
		return nil, err
	}

	w.wg.Add(1)
	go w.loop()
	return w, nil
}

// Set replaces the watched file set. Editors replace files by rename, so the
// parent directories are watched rather than the files themselves.
func (w *Watcher) Set(files []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	dirs := make(map[string]bool)
	next := make(map[string]bool, len(files))
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return fmt.Errorf("resolving %s: %w", f, err)
		}
		next[abs] = true
		dirs[filepath.Dir(abs)] = true
	}

	for _, d := range w.fs.WatchList() {
		if !dirs[d] {
			_ = w.fs.Remove(d)
		}
	}
	for d := range dirs {
		if err := w.fs.Add(d); err != nil {
			return fmt.Errorf("watching %s: %w", d, err)
		}
	}
	w.files = next
	return nil
}

// Close stops watching and cancels a pending notification.
func (w *Watcher) Close() error {
	select {
	case <-w.done:
		return nil
	default:
	}
	close(w.done)
	w.debouncer.Cancel()
	err := w.fs.Close()
	w.wg.Wait()
	return err
}

func (w *Watcher) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			log.Printf("Warning: file watcher error: %v", err)
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) && !ev.Has(fsnotify.Remove) {
		return
	}
	path := filepath.Clean(ev.Name)

	w.mu.Lock()
	if !w.files[path] {
		w.mu.Unlock()
		return
	}
	w.changed[path] = true
	w.mu.Unlock()

	w.debouncer.Trigger(w.flush)
}

func (w *Watcher) flush() {
	w.mu.Lock()
	paths := make([]string, 0, len(w.changed))
	for p := range w.changed {
		paths = append(paths, p)
	}
	w.changed = make(map[string]bool)
	w.mu.Unlock()

	if len(paths) > 0 {
		w.onChange(paths)
	}
}
