package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeIngestConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ingest.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadIngestDefaults(t *testing.T) {
	cfg, err := LoadIngest(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadIngest err: %v", err)
	}
	if cfg.Chunker.MaxChars != 800 || cfg.Chunker.Overlap != 100 {
		t.Fatalf("unexpected chunker defaults %+v", cfg.Chunker)
	}
	if cfg.BatchSize != 32 || cfg.Limit != 50 || cfg.Dimension != 1024 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if len(cfg.Fetch.Feeds) != 4 || cfg.Fetch.Limit != 60 || cfg.Fetch.Timeout() != 30*time.Second {
		t.Fatalf("unexpected fetch defaults %+v", cfg.Fetch)
	}
}

func TestLoadIngestOverlay(t *testing.T) {
	path := writeIngestConfig(t, "chunker:\n  max_chars: 400\nbatch_size: 8\nfetch:\n  feeds:\n    - https://example.com/rss.xml\n")

	cfg, err := LoadIngest(path)
	if err != nil {
		t.Fatalf("LoadIngest err: %v", err)
	}
	if cfg.Chunker.MaxChars != 400 || cfg.BatchSize != 8 {
		t.Fatalf("overlay not applied: %+v", cfg)
	}
	if cfg.Chunker.Overlap != 100 || cfg.Dimension != 1024 || cfg.Fetch.Limit != 60 {
		t.Fatalf("defaults not kept: %+v", cfg)
	}
	if len(cfg.Fetch.Feeds) != 1 || cfg.Fetch.Feeds[0] != "https://example.com/rss.xml" {
		t.Fatalf("feeds not replaced: %v", cfg.Fetch.Feeds)
	}
}

func TestLoadIngestExplicitZeroOverlap(t *testing.T) {
	path := writeIngestConfig(t, "chunker:\n  overlap: 0\n")

	cfg, err := LoadIngest(path)
	if err != nil {
		t.Fatalf("LoadIngest err: %v", err)
	}
	if cfg.Chunker.Overlap != 0 {
		t.Fatalf("expected explicit overlap 0 to be kept, got %d", cfg.Chunker.Overlap)
	}
	if cfg.Chunker.MaxChars != 800 {
		t.Fatalf("expected default max_chars, got %d", cfg.Chunker.MaxChars)
	}
}

func TestLoadIngestMalformed(t *testing.T) {
	path := writeIngestConfig(t, "batch_size: [oops")
	if _, err := LoadIngest(path); err == nil {
		t.Fatal("expected parse error")
	}
}
