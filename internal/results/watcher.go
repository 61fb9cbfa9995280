package results

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce collapses bursts of writes to the database file into a single notification.
const DefaultDebounce = 150 * time.Millisecond

// FileWatcher calls a function when the SQLite file at a path (or its journal) changes.
//
// It lets a [Controller] follow writes made by other processes sharing the database.
type FileWatcher struct {
	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	path     string
	names    map[string]bool
	debounce time.Duration
	onChange func()
	logger   *log.Logger
	timer    *time.Timer
	stopCh   chan struct{}
	doneCh   chan struct{}
	running  bool
}

// NewFileWatcher creates a watcher for the database at path. A debounce of zero uses [DefaultDebounce].
func NewFileWatcher(path string, debounce time.Duration, onChange func(), logger *log.Logger) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		watcher.Close()
		return nil, err
	}
	base := filepath.Base(abs)

	return &FileWatcher{
		watcher:  watcher,
		path:     abs,
		names:    map[string]bool{base: true, base + "-wal": true, base + "-journal": true},
		debounce: debounce,
		onChange: onChange,
		logger:   logger,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Start watches the directory holding the database. It does not block.
func (fw *FileWatcher) Start(ctx context.Context) error {
	fw.mu.Lock()
	if fw.running {
		fw.mu.Unlock()
		return nil
	}
	fw.running = true
	fw.mu.Unlock()

	if err := fw.watcher.Add(filepath.Dir(fw.path)); err != nil {
		fw.mu.Lock()
		fw.running = false
		fw.mu.Unlock()
		return err
	}

	if fw.logger != nil {
		fw.logger.Debug("watching database", "path", fw.path)
	}

	go fw.run(ctx)
	return nil
}

// Stop stops the watcher and waits for its goroutine to exit.
func (fw *FileWatcher) Stop() {
	fw.mu.Lock()
	if !fw.running {
		fw.mu.Unlock()
		fw.watcher.Close()
		return
	}
	fw.running = false
	if fw.timer != nil {
		fw.timer.Stop()
	}
	fw.mu.Unlock()

	close(fw.stopCh)
	<-fw.doneCh

	if err := fw.watcher.Close(); err != nil && fw.logger != nil {
		fw.logger.Error("failed to close database watcher", "error", err)
	}
}

func (fw *FileWatcher) run(ctx context.Context) {
	defer close(fw.doneCh)

	for {
		select {
		case <-ctx.Done():
			return
		case <-fw.stopCh:
			return
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			fw.handle(event)
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			if fw.logger != nil {
				fw.logger.Error("database watcher error", "error", err)
			}
		}
	}
}

func (fw *FileWatcher) handle(event fsnotify.Event) {
	if !fw.names[filepath.Base(event.Name)] {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) {
		return
	}

	fw.mu.Lock()
	defer fw.mu.Unlock()
	if !fw.running {
		return
	}
	if fw.timer != nil {
		fw.timer.Stop()
	}
	fw.timer = time.AfterFunc(fw.debounce, fw.onChange)
}
