package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaultsAndEnvOverride(t *testing.T) {
	t.Setenv("GEMINI_API_KEYS", "key-a, key-b ,key-c")
	t.Setenv("TTS_CONCURRENCY", "8")
	t.Setenv("GATEWAY_PASSWORD", "secret")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ListenAddr != ":8080" {
		t.Errorf("expected default listen addr, got %s", cfg.ListenAddr)
	}
	if len(cfg.GeminiKeys) != 3 || cfg.GeminiKeys[1] != "key-b" {
		t.Errorf("expected trimmed CSV keys, got %v", cfg.GeminiKeys)
	}
	if cfg.TTSConcurrency != 8 {
		t.Errorf("expected env override of concurrency, got %d", cfg.TTSConcurrency)
	}
	if cfg.GatewayPassword != "secret" {
		t.Errorf("expected gateway password from env")
	}
}

func TestLoadMissingKeysErrors(t *testing.T) {
	t.Setenv("GEMINI_API_KEYS", "")
	if _, err := Load(""); err == nil {
		t.Fatal("expected error when no gemini keys configured")
	}
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEYS", "k1")
	dir := t.TempDir()
	path := filepath.Join(dir, "gateway.yaml")
	yamlBody := "listenAddr: \":9090\"\nttsConcurrency: 3\n"
	if err := os.WriteFile(path, []byte(yamlBody), 0o644); err != nil {
		t.Fatalf("write yaml: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ListenAddr != ":9090" || cfg.TTSConcurrency != 3 {
		t.Fatalf("expected yaml overrides applied, got %+v", cfg)
	}
}

func TestWatchFileReloadsOnWrite(t *testing.T) {
	t.Setenv("GEMINI_API_KEYS", "k1")
	dir := t.TempDir()
	path := filepath.Join(dir, "gateway.yaml")
	if err := os.WriteFile(path, []byte("ttsConcurrency: 5\n"), 0o644); err != nil {
		t.Fatalf("write yaml: %v", err)
	}

	reloaded := make(chan *Config, 1)
	w, err := WatchFile(path, func(c *Config) { reloaded <- c })
	if err != nil {
		t.Fatalf("watch file: %v", err)
	}
	defer w.Close()

	time.Sleep(50 * time.Millisecond)
	if err := os.WriteFile(path, []byte("ttsConcurrency: 9\n"), 0o644); err != nil {
		t.Fatalf("rewrite yaml: %v", err)
	}

	select {
	case cfg := <-reloaded:
		if cfg.TTSConcurrency != 9 {
			t.Fatalf("expected reloaded concurrency 9, got %d", cfg.TTSConcurrency)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for reload callback")
	}
}
