// Package watch monitors the data directory for loadable files appearing
// or disappearing, so file listings stay current without rescanning on
// every request.
package watch

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/basegroupapp/basegroup-server/internal/loader"
)

// Watcher wraps fsnotify over a single, non-recursive data directory.
type Watcher struct {
	dir      string
	onChange func()
	logger   *slog.Logger

	fw       *fsnotify.Watcher
	done     chan struct{}
	stopOnce sync.Once
}

// New creates a watcher for dir. onChange fires whenever a loadable file
// is created, removed, or renamed inside it.
func New(dir string, onChange func(), logger *slog.Logger) (*Watcher, error) {
	if dir == "" {
		return nil, fmt.Errorf("watch: empty directory")
	}
	return &Watcher{
		dir:      dir,
		onChange: onChange,
		logger:   logger,
		done:     make(chan struct{}),
	}, nil
}

// Start begins watching. It returns once the watch is registered; events
// are handled on a background goroutine.
func (w *Watcher) Start() error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	if err := fw.Add(w.dir); err != nil {
		_ = fw.Close()
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}

	w.fw = fw
	go w.loop()

	if w.logger != nil {
		w.logger.Info("Watching data directory", "dir", w.dir)
	}
	return nil
}

func (w *Watcher) loop() {
	for {
		select {
		case event, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if !loader.IsLoadable(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename|fsnotify.Write) != 0 {
				if w.logger != nil {
					w.logger.Debug("Data directory changed", "file", event.Name, "op", event.Op.String())
				}
				if w.onChange != nil {
					w.onChange()
				}
			}

		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			if w.logger != nil {
				w.logger.Warn("Watcher error", "error", err)
			}

		case <-w.done:
			return
		}
	}
}

// Stop shuts the watcher down. Safe to call more than once.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		if w.fw != nil {
			err = w.fw.Close()
		}
	})
	return err
}
