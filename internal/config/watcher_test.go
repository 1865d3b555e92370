package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, map[string]any{"robot": map[string]any{"name": "before"}})

	got := make(chan *Config, 4)
	w := NewWatcher(path, func(c *Config) { got <- c }, nil)
	w.debounce = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	defer func() {
		cancel()
		<-done
	}()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)

	// An invalid intermediate write is skipped.
	if err := os.WriteFile(path, []byte("{"), 0o600); err != nil {
		t.Fatal(err)
	}
	time.Sleep(100 * time.Millisecond)
	writeConfig(t, dir, map[string]any{"robot": map[string]any{"name": "after"}})

	select {
	case c := <-got:
		if c.Robot.Name != "after" {
			t.Errorf("reloaded name = %q, want %q", c.Robot.Name, "after")
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no reload observed")
	}

	// Other files in the directory are ignored.
	if err := os.WriteFile(filepath.Join(dir, "other.json"), []byte("{}"), 0o600); err != nil {
		t.Fatal(err)
	}
	select {
	case c := <-got:
		t.Errorf("unexpected reload: %+v", c.Robot)
	case <-time.After(150 * time.Millisecond):
	}
}
