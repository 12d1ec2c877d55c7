package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatch_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "scene.toml", "[tick]\nrate = 10\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan Config, 4)
	errs := make(chan error, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, 50*time.Millisecond, func(c Config) { changes <- c }, func(err error) { errs <- err })
	}()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(path, []byte("[tick]\nrate = 25\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-changes:
		if cfg.Tick.Rate != 25 {
			t.Errorf("reloaded rate = %v, want 25", cfg.Tick.Rate)
		}
	case err := <-errs:
		t.Fatalf("unexpected error: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}

	// An invalid file is reported, not delivered.
	if err := os.WriteFile(path, []byte("[tick]\nrate = 0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case <-errs:
	case cfg := <-changes:
		t.Fatalf("invalid config delivered: %+v", cfg)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for error")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Watch() returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}

func TestWatch_SkipsUnchangedContent(t *testing.T) {
	dir := t.TempDir()
	content := "[tick]\nrate = 10\n"
	path := writeFile(t, dir, "scene.toml", content)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan Config, 4)
	go func() {
		_ = Watch(ctx, path, 20*time.Millisecond, func(c Config) { changes <- c }, nil)
	}()

	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case cfg := <-changes:
		t.Fatalf("unchanged save reloaded: %+v", cfg)
	case <-time.After(300 * time.Millisecond):
	}

	if err := os.WriteFile(path, []byte("[tick]\nrate = 40\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case cfg := <-changes:
		if cfg.Tick.Rate != 40 {
			t.Errorf("reloaded rate = %v, want 40", cfg.Tick.Rate)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}
}

func TestFileDigest(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.toml", "rate = 1\n")
	b := writeFile(t, dir, "b.toml", "rate = 1\n")
	c := writeFile(t, dir, "c.toml", "rate = 2\n")

	da, err := fileDigest(a)
	if err != nil {
		t.Fatalf("fileDigest() failed: %v", err)
	}
	db, _ := fileDigest(b)
	dc, _ := fileDigest(c)
	if da != db {
		t.Error("equal contents should have equal digests")
	}
	if da == dc {
		t.Error("different contents should have different digests")
	}
	if _, err := fileDigest(filepath.Join(dir, "missing.toml")); err == nil {
		t.Error("missing file should fail")
	}
}

func TestWatch_MissingDirectory(t *testing.T) {
	err := Watch(context.Background(), "/nonexistent/dir/scene.toml", 0, func(Config) {}, nil)
	if err == nil {
		t.Error("expected error for missing directory")
	}
}
