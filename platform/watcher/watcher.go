package watcher

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"regis_chat_backend/pkg/logging"
)

type Operation int

const (
	FileCreated Operation = iota + 1
	FileModified
	FileDeleted
)

type FileEvent struct {
	Path      string
	Operation Operation
}

// DirWatcher reports changes to files with the given extensions in one directory.
type DirWatcher struct {
	watcher    *fsnotify.Watcher
	extensions []string
}

func New(extensions ...string) (*DirWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &DirWatcher{watcher: w, extensions: extensions}, nil
}

// Watch starts monitoring dir. The channel closes when ctx ends or Stop is called.
func (w *DirWatcher) Watch(ctx context.Context, dir string) (<-chan FileEvent, error) {
	if err := w.watcher.Add(dir); err != nil {
		return nil, err
	}

	events := make(chan FileEvent, 100)

	go func() {
		defer close(events)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if !w.watched(event.Name) {
					continue
				}

				var op Operation
				switch {
				case event.Has(fsnotify.Create):
					op = FileCreated
				case event.Has(fsnotify.Write):
					op = FileModified
				case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
					op = FileDeleted
				default:
					continue
				}

				select {
				case events <- FileEvent{Path: event.Name, Operation: op}:
				case <-ctx.Done():
					return
				}
			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				logging.Logger.Warn("file watcher error", "dir", dir, "error", err)
			}
		}
	}()

	return events, nil
}

func (w *DirWatcher) Stop() error {
	return w.watcher.Close()
}

func (w *DirWatcher) watched(path string) bool {
	if len(w.extensions) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range w.extensions {
		if ext == e {
			return true
		}
	}
	return false
}
