package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestSplitFormats(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"pdf,docx", []string{"pdf", "docx"}},
		{" PDF , .Md ,", []string{"pdf", "md"}},
		{"", nil},
	}
	for _, tt := range tests {
		got := splitFormats(tt.in)
		if len(got) == 0 && len(tt.want) == 0 {
			continue
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("splitFormats(%q): got %v want %v", tt.in, got, tt.want)
		}
	}
}

func TestGetEnvDuration(t *testing.T) {
	t.Setenv("X_DUR", "90s")
	if got := getEnvDuration("X_DUR", time.Second); got != 90*time.Second {
		t.Fatalf("expected 90s got %v", got)
	}
	t.Setenv("X_DUR", "300")
	if got := getEnvDuration("X_DUR", time.Second); got != 300*time.Second {
		t.Fatalf("expected bare seconds got %v", got)
	}
	t.Setenv("X_DUR", "junk")
	if got := getEnvDuration("X_DUR", 5*time.Second); got != 5*time.Second {
		t.Fatalf("expected default got %v", got)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "echoflow.yaml")
	data := []byte("log_level: debug\ndocling_url: http://backend:5001\nmax_batch_size: 10\ncache_ttl: 30m\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}
	cfg := Config{LogLevel: "info", MaxBatchSize: 100}
	if err := cfg.LoadFile(path); err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected debug got %q", cfg.LogLevel)
	}
	if cfg.DoclingURL != "http://backend:5001" {
		t.Errorf("unexpected docling url %q", cfg.DoclingURL)
	}
	if cfg.MaxBatchSize != 10 {
		t.Errorf("expected 10 got %d", cfg.MaxBatchSize)
	}
	if cfg.CacheTTL != 30*time.Minute {
		t.Errorf("expected 30m got %v", cfg.CacheTTL)
	}
}

func TestLoadFileMissing(t *testing.T) {
	var cfg Config
	if err := cfg.LoadFile(filepath.Join(t.TempDir(), "absent.yaml")); !os.IsNotExist(err) {
		t.Fatalf("expected not-exist error got %v", err)
	}
}
