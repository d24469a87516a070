package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func TestConfig_RoundTrip(t *testing.T) {
	t.Setenv("REPLYTREE_CONFIG_DIR", t.TempDir())

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig (missing file): %v", err)
	}
	if err := cfg.Set("serve.addr", " :9090 "); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := cfg.Set("currentThread", "thr-abc"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := SaveConfig(cfg); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	path, _ := ConfigPath()
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if !strings.Contains(string(raw), "addr: :9090") || !strings.Contains(string(raw), "currentThread: thr-abc") {
		t.Fatalf("unexpected yaml:\n%s", raw)
	}

	got, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if v, _ := got.Get("serve.addr"); v != ":9090" {
		t.Fatalf("serve.addr: got %q", v)
	}
	if err := got.Set("nope", "x"); err == nil {
		t.Fatalf("expected an error for an unknown key")
	}
}

func TestConfig_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("REPLYTREE_CONFIG_DIR", dir)
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("serve: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected a parse error")
	}
}

func TestSaveConfig_ConcurrentWriters_DoesNotCorruptConfig(t *testing.T) {
	t.Setenv("REPLYTREE_CONFIG_DIR", t.TempDir())

	const n = 32
	var wg sync.WaitGroup
	errCh := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cfg := &GlobalConfig{Actor: fmt.Sprintf("act-%d", i)}
			if err := SaveConfig(cfg); err != nil {
				errCh <- err
			}
		}(i)
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		t.Errorf("concurrent SaveConfig: %v", err)
	}

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig after concurrent writes: %v", err)
	}
	if !strings.HasPrefix(cfg.Actor, "act-") {
		t.Fatalf("unexpected actor %q", cfg.Actor)
	}
}
