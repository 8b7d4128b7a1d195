package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"regis_chat_backend/pkg/logging"
	"regis_chat_backend/platform/watcher"
)

// TemplateStore reads docx templates from one directory and keeps their
// bytes in memory until the file changes.
type TemplateStore struct {
	dir   string
	mu    sync.RWMutex
	bytes map[string][]byte
}

func NewTemplateStore(dir string) *TemplateStore {
	return &TemplateStore{dir: dir, bytes: map[string][]byte{}}
}

func (s *TemplateStore) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// Load returns the template content. Errors wrap os.ErrNotExist when the
// file is absent.
func (s *TemplateStore) Load(name string) ([]byte, error) {
	s.mu.RLock()
	data, ok := s.bytes[name]
	s.mu.RUnlock()
	if ok {
		return data, nil
	}

	data, err := os.ReadFile(s.Path(name))
	if err != nil {
		return nil, fmt.Errorf("read template %s: %w", name, err)
	}
	s.mu.Lock()
	s.bytes[name] = data
	s.mu.Unlock()
	return data, nil
}

func (s *TemplateStore) Evict(name string) {
	s.mu.Lock()
	delete(s.bytes, name)
	s.mu.Unlock()
}

func (s *TemplateStore) Cached() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.bytes)
}

// Watch evicts cached templates when their files change. It returns once
// the watcher is running; eviction continues until ctx ends.
func (s *TemplateStore) Watch(ctx context.Context, w *watcher.DirWatcher) error {
	events, err := w.Watch(ctx, s.dir)
	if err != nil {
		return fmt.Errorf("watch %s: %w", s.dir, err)
	}
	go func() {
		for ev := range events {
			name := filepath.Base(ev.Path)
			s.Evict(name)
			logging.Logger.Info("template changed", "file", name, "op", ev.Operation)
		}
	}()
	return nil
}
