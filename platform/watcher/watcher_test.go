package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatchReportsCreate(t *testing.T) {
	dir := t.TempDir()
	w, err := New(".docx")
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	defer w.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	events, err := w.Watch(ctx, dir)
	if err != nil {
		t.Fatalf("watch: %v", err)
	}

	go func() {
		time.Sleep(100 * time.Millisecond)
		_ = os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644)
		_ = os.WriteFile(filepath.Join(dir, "RO-16.docx"), []byte("x"), 0o644)
	}()

	select {
	case ev := <-events:
		if filepath.Base(ev.Path) != "RO-16.docx" {
			t.Fatalf("unexpected event for %s", ev.Path)
		}
		if ev.Operation != FileCreated {
			t.Fatalf("expected create, got %v", ev.Operation)
		}
	case <-ctx.Done():
		t.Fatal("timeout waiting for event")
	}
}

func TestWatchedExtensions(t *testing.T) {
	w := &DirWatcher{extensions: []string{".docx"}}
	if !w.watched("a/B.DOCX") || w.watched("a/b.pdf") {
		t.Fatal("extension filter mismatch")
	}
	all := &DirWatcher{}
	if !all.watched("anything") {
		t.Fatal("empty filter should accept everything")
	}
}
