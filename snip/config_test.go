package snip_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hazyhaar/snipcss/snip"
)

func TestDefaultConfig(t *testing.T) {
	cfg := snip.DefaultConfig()

	if cfg.Browser.ViewportWidth != 1920 || cfg.Browser.ViewportHeight != 1080 {
		t.Errorf("viewport: got %dx%d, want 1920x1080",
			cfg.Browser.ViewportWidth, cfg.Browser.ViewportHeight)
	}
	if cfg.Browser.NavTimeout != 30*time.Second {
		t.Errorf("NavTimeout: got %v, want 30s", cfg.Browser.NavTimeout)
	}
	if cfg.Extract.MaxParseWarnings != 0 {
		t.Errorf("MaxParseWarnings: got %d, want 0 (unlimited)", cfg.Extract.MaxParseWarnings)
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snipcss.yaml")
	data := `
browser:
  viewport_width: 375
  viewport_height: 812
  nav_timeout: 10s
  resource_blocking: [images, fonts]
extract:
  max_parse_warnings: 5
  compact: true
sinks:
  - type: file
    path: out.html
  - type: sqlite
    path: runs.db
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := snip.LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile: %v", err)
	}

	if cfg.Browser.ViewportWidth != 375 || cfg.Browser.ViewportHeight != 812 {
		t.Errorf("viewport: got %dx%d", cfg.Browser.ViewportWidth, cfg.Browser.ViewportHeight)
	}
	if cfg.Browser.NavTimeout != 10*time.Second {
		t.Errorf("NavTimeout: got %v", cfg.Browser.NavTimeout)
	}
	if len(cfg.Browser.ResourceBlocking) != 2 {
		t.Errorf("ResourceBlocking: got %v", cfg.Browser.ResourceBlocking)
	}
	if !cfg.Extract.Compact || cfg.Extract.MaxParseWarnings != 5 {
		t.Errorf("extract: %+v", cfg.Extract)
	}
	if len(cfg.Sinks) != 2 || cfg.Sinks[0].Type != "file" || cfg.Sinks[1].Type != "sqlite" {
		t.Errorf("sinks: %+v", cfg.Sinks)
	}
}

func TestLoadConfigFile_DefaultsFillGaps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snipcss.yaml")
	if err := os.WriteFile(path, []byte("extract:\n  compact: true\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := snip.LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile: %v", err)
	}
	if cfg.Browser.ViewportWidth != 1920 {
		t.Errorf("default viewport width not applied: %d", cfg.Browser.ViewportWidth)
	}
}

func TestLoadConfigFile_Missing(t *testing.T) {
	if _, err := snip.LoadConfigFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
