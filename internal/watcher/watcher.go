// Package watcher reports when watched files settle after a change.
package watcher

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/crypto/blake2b"
)

// DefaultDebounce is how long a file must stay untouched before an event is
// emitted.
const DefaultDebounce = 250 * time.Millisecond

// Event reports a file whose content changed and has since been stable
// for the debounce interval.
type Event struct {
	Path      string
	Hash      [32]byte
	Size      int64
	Timestamp time.Time
}

// Watcher monitors a fixed set of files. Directories are not accepted.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	paths     []string
	debounce  time.Duration

	tracked map[string]bool
	pending map[string]time.Time // path -> time of the last write seen
	last    map[string][32]byte  // path -> hash at the last event
	mu      sync.Mutex

	events chan Event
	errors chan error

	done chan struct{}
	wg   sync.WaitGroup
}

// New creates a watcher for paths. A debounce of zero uses DefaultDebounce.
func New(paths []string, debounce time.Duration) (*Watcher, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("watcher: no paths to watch")
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		fsWatcher: fsWatcher,
		paths:     paths,
		debounce:  debounce,
		tracked:   make(map[string]bool),
		pending:   make(map[string]time.Time),
		last:      make(map[string][32]byte),
		events:    make(chan Event, 16),
		errors:    make(chan error, 10),
		done:      make(chan struct{}),
	}, nil
}

// Events returns the channel of settled changes.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Errors returns the channel of errors.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// Start begins watching. The current content of every file is taken as
// the baseline, so no event fires until a file actually changes. When
// Start fails the underlying watcher is closed and Stop must not be called.
func (w *Watcher) Start() error {
	if err := w.addPaths(); err != nil {
		w.fsWatcher.Close()
		return err
	}

	w.wg.Add(2)
	go w.eventLoop()
	go w.debounceLoop()
	return nil
}

func (w *Watcher) addPaths() error {
	dirs := make(map[string]bool)
	for _, path := range w.paths {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return err
		}
		info, err := os.Stat(absPath)
		if err != nil {
			return err
		}
		if info.IsDir() {
			return fmt.Errorf("watcher: %s is a directory", path)
		}

		hash, _, err := HashFile(absPath)
		if err != nil {
			return err
		}
		w.tracked[absPath] = true
		w.last[absPath] = hash

		// Watch single file (by watching its directory) so that editors
		// that replace the file on save are still seen.
		dir := filepath.Dir(absPath)
		if !dirs[dir] {
			if err := w.fsWatcher.Add(dir); err != nil {
				return err
			}
			dirs[dir] = true
		}
	}
	return nil
}

// Stop shuts the watcher down and closes its channels.
func (w *Watcher) Stop() error {
	close(w.done)
	w.wg.Wait()
	close(w.events)
	close(w.errors)
	return w.fsWatcher.Close()
}

func (w *Watcher) eventLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.mu.Lock()
			if w.tracked[event.Name] {
				w.pending[event.Name] = time.Now()
			}
			w.mu.Unlock()

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.report(err)
		}
	}
}

func (w *Watcher) debounceLoop() {
	defer w.wg.Done()

	ticker := time.NewTicker(max(w.debounce/4, 10*time.Millisecond))
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return
		case now := <-ticker.C:
			w.checkStable(now)
		}
	}
}

// checkStable emits events for pending files that have been quiet for the
// debounce interval and whose content differs from the last event.
func (w *Watcher) checkStable(now time.Time) {
	threshold := now.Add(-w.debounce)

	w.mu.Lock()
	var stable []string
	for path, lastMod := range w.pending {
		if lastMod.Before(threshold) {
			stable = append(stable, path)
		}
	}
	w.mu.Unlock()

	for _, path := range stable {
		hash, size, err := HashFile(path)

		w.mu.Lock()
		if w.pending[path].After(threshold) {
			// written again while hashing
			w.mu.Unlock()
			continue
		}
		delete(w.pending, path)
		if err != nil {
			w.mu.Unlock()
			if !os.IsNotExist(err) {
				w.report(err)
			}
			continue
		}
		if hash == w.last[path] {
			w.mu.Unlock()
			continue
		}
		w.last[path] = hash
		w.mu.Unlock()

		select {
		case w.events <- Event{Path: path, Hash: hash, Size: size, Timestamp: now}:
		case <-w.done:
			return
		}
	}
}

func (w *Watcher) report(err error) {
	select {
	case w.errors <- err:
	default:
	}
}

// HashFile computes the BLAKE2b-256 hash of a file.
func HashFile(path string) ([32]byte, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return [32]byte{}, 0, err
	}
	defer f.Close()

	h, err := blake2b.New256(nil)
	if err != nil {
		return [32]byte{}, 0, err
	}
	size, err := io.Copy(h, f)
	if err != nil {
		return [32]byte{}, 0, err
	}

	var hash [32]byte
	copy(hash[:], h.Sum(nil))
	return hash, size, nil
}

// WatchedPaths returns the paths given to New.
func (w *Watcher) WatchedPaths() []string {
	return w.paths
}
