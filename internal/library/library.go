package library

import (
	"errors"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher monitors the track directory and a set of extra files and calls
// onChange once changes settle. Calls never overlap; changes that arrive
// while onChange is running queue exactly one more call.
type Watcher struct {
	root     string
	allowed  extensionSet
	files    map[string]struct{}
	watcher  *fsnotify.Watcher
	logger   *log.Logger
	onChange func()

	refreshMu    sync.Mutex
	refreshTimer *time.Timer
	refreshDelay time.Duration

	runMu   sync.Mutex
	running bool
	pending bool

	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
	closeErr  error
}

// NewWatcher starts watching root recursively plus the directories that hold
// files. Only allowed audio files under root and the listed files trigger
// onChange.
func NewWatcher(root string, files []string, allowed []string, debounce time.Duration, onChange func(), logger *log.Logger) (*Watcher, error) {
	if onChange == nil {
		return nil, errors.New("watcher: onChange callback required")
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if logger == nil {
		logger = log.Default()
	}

	w := &Watcher{
		root:         filepath.Clean(root),
		allowed:      newExtensionSet(allowed),
		files:        make(map[string]struct{}, len(files)),
		watcher:      watcher,
		logger:       logger,
		onChange:     onChange,
		refreshDelay: debounce,
		done:         make(chan struct{}),
	}

	w.addWatchRecursive(w.root)
	dirs := make(map[string]struct{})
	for _, file := range files {
		if file == "" {
			continue
		}
		file = filepath.Clean(file)
		w.files[file] = struct{}{}
		dir := filepath.Dir(file)
		if _, seen := dirs[dir]; seen || w.underRoot(dir) {
			continue
		}
		dirs[dir] = struct{}{}
		if err := watcher.Add(dir); err != nil {
			w.logger.Printf("watcher add failure for %s: %v", dir, err)
		}
	}

	w.wg.Add(1)
	go w.run()

	return w, nil
}

// Close stops the watcher and cleans up resources.
func (w *Watcher) Close() error {
	w.closeOnce.Do(func() {
		close(w.done)

		w.refreshMu.Lock()
		if w.refreshTimer != nil {
			w.refreshTimer.Stop()
			w.refreshTimer = nil
		}
		w.refreshMu.Unlock()

		w.closeErr = w.watcher.Close()
		w.wg.Wait()
	})
	return w.closeErr
}

func (w *Watcher) run() {
	defer w.wg.Done()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Printf("watcher error: %v", err)
		case <-w.done:
			return
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	name := filepath.Clean(event.Name)
	if event.Op&fsnotify.Create == fsnotify.Create && w.underRoot(name) {
		if info, err := os.Stat(name); err == nil && info.IsDir() {
			w.addWatchRecursive(name)
		}
	}

	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}
	if _, ok := w.files[name]; ok {
		w.scheduleRefresh()
		return
	}
	if w.underRoot(name) && w.allowed.matches(name) {
		w.scheduleRefresh()
	}
}

func (w *Watcher) scheduleRefresh() {
	select {
	case <-w.done:
		return
	default:
	}

	w.refreshMu.Lock()
	defer w.refreshMu.Unlock()

	if w.refreshTimer != nil {
		w.refreshTimer.Stop()
	}

	var timer *time.Timer
	timer = time.AfterFunc(w.refreshDelay, func() {
		w.refreshMu.Lock()
		if w.refreshTimer == timer {
			w.refreshTimer = nil
		}
		w.refreshMu.Unlock()

		w.fire()
	})

	w.refreshTimer = timer
}

// Trigger calls onChange now, or queues one more call if one is running.
func (w *Watcher) Trigger() {
	w.fire()
}

func (w *Watcher) fire() {
	w.runMu.Lock()
	if w.running {
		w.pending = true
		w.runMu.Unlock()
		return
	}
	w.running = true
	w.runMu.Unlock()

	for {
		select {
		case <-w.done:
			w.runMu.Lock()
			w.running, w.pending = false, false
			w.runMu.Unlock()
			return
		default:
		}

		w.onChange()

		w.runMu.Lock()
		if !w.pending {
			w.running = false
			w.runMu.Unlock()
			return
		}
		w.pending = false
		w.runMu.Unlock()
	}
}

func (w *Watcher) addWatchRecursive(path string) {
	filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			w.logger.Printf("walk error for %s: %v", p, err)
			return nil
		}

		if d.IsDir() {
			if err := w.watcher.Add(p); err != nil {
				w.logger.Printf("watcher add failure for %s: %v", p, err)
			}
		}
		return nil
	})
}

func (w *Watcher) underRoot(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !filepath.IsAbs(rel) && !startsWithParent(rel))
}

func startsWithParent(rel string) bool {
	return len(rel) >= 3 && rel[:3] == ".."+string(filepath.Separator)
}
