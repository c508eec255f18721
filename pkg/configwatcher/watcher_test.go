package configwatcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"enem_quiz_backend/internal/config"
)

func TestWatchReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	write := func(origin string) {
		body := "jwt:\n  secret: test-secret\nstorage:\n  local_path: " + filepath.Join(dir, "uploads") +
			"\ncors:\n  allowed_origins:\n    - " + origin + "\n"
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write("http://a.test")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan *config.Config, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, dir, 20*time.Millisecond, func(cfg *config.Config) { got <- cfg })
	}()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	write("http://b.test")

	select {
	case cfg := <-got:
		if len(cfg.CORS.AllowedOrigins) != 1 || cfg.CORS.AllowedOrigins[0] != "http://b.test" {
			t.Fatalf("unexpected origins %v", cfg.CORS.AllowedOrigins)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("config was not reloaded")
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("watch: %v", err)
	}
}

func TestIsConfigFile(t *testing.T) {
	if !isConfigFile("/etc/app/config.yaml") || isConfigFile("/etc/app/other.yaml") {
		t.Fatal("unexpected match")
	}
}
