package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestLoad_FullFile(t *testing.T) {
	content := `
server:
  port: 9000
  cors_origins: ["https://example.org"]
cache:
  image_size_mb: 64
  image_ttl_minutes: 5
render:
  colorbar_width: 512
  colorbar_height: 16
  default_colormap: magma
  lut_size: 1024
store:
  sqlite_path: "/var/lib/cmap/colormaps.db"
catalog:
  paths:
    - /etc/cmap/brand.yaml
    - /etc/cmap/science.yaml
`
	cfg := loadFromString(t, content)

	if cfg.Server.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Server.Port)
	}
	if diff := cmp.Diff([]string{"https://example.org"}, cfg.Server.CORSOrigins); diff != "" {
		t.Errorf("cors origins mismatch (-want +got):\n%s", diff)
	}
	if cfg.Cache.ImageSizeMB != 64 || cfg.Cache.ImageTTL() != 5*time.Minute {
		t.Errorf("unexpected cache config: %+v", cfg.Cache)
	}
	if cfg.Render.ColorbarWidth != 512 || cfg.Render.ColorbarHeight != 16 {
		t.Errorf("unexpected colorbar size %dx%d", cfg.Render.ColorbarWidth, cfg.Render.ColorbarHeight)
	}
	if cfg.Render.DefaultColormap != "magma" || cfg.Render.LUTSize != 1024 {
		t.Errorf("unexpected render config: %+v", cfg.Render)
	}
	if cfg.Store.SQLitePath != "/var/lib/cmap/colormaps.db" {
		t.Errorf("unexpected sqlite_path: %s", cfg.Store.SQLitePath)
	}
	if diff := cmp.Diff([]string{"/etc/cmap/brand.yaml", "/etc/cmap/science.yaml"}, cfg.Catalog.Paths); diff != "" {
		t.Errorf("catalog paths mismatch (-want +got):\n%s", diff)
	}
	if cfg.Server.Addr() != ":9000" {
		t.Errorf("unexpected addr %q", cfg.Server.Addr())
	}
}

func TestLoad_DefaultsApplied(t *testing.T) {
	content := `
server:
  port: 0
render:
  default_colormap: ""
`
	cfg := loadFromString(t, content)

	want := DefaultConfig()
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("defaults mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("expected defaults for a missing file, got %v", err)
	}
	if cfg.Server.Port != 8080 || cfg.Render.DefaultColormap != "viridis" {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"bad yaml", "server: [", "parse config"},
		{"lut above max", "render:\n  lut_size: 100\n  max_lut_size: 10\n", "lut_size"},
		{"port out of range", "server:\n  port: 70000\n", "server.port"},
		{"colorbar too wide", "render:\n  colorbar_width: 9000\n", "colorbar"},
		{"test image too small", "render:\n  test_image_size: 1\n", "test_image_size"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.content)
			_, err := Load(path)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	return path
}

func loadFromString(t *testing.T, content string) *Config {
	t.Helper()

	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func TestLoad_ShippedConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "config", "server.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	want := DefaultConfig()
	want.Catalog.Paths = []string{"config/colormaps.yaml"}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}
