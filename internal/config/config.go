// Package config handles configuration loading for the colormap server.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the server configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Cache   CacheConfig   `yaml:"cache"`
	Render  RenderConfig  `yaml:"render"`
	Store   StoreConfig   `yaml:"store"`
	Catalog CatalogConfig `yaml:"catalog"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port                int      `yaml:"port"`
	CORSOrigins         []string `yaml:"cors_origins"`
	ReadTimeoutSeconds  int      `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds int      `yaml:"write_timeout_seconds"`
}

// CacheConfig contains caching settings.
type CacheConfig struct {
	// ImageSizeMB bounds the rendered PNG cache.
	ImageSizeMB     int `yaml:"image_size_mb"`
	ImageTTLMinutes int `yaml:"image_ttl_minutes"`
	// QueryCacheSize is the number of encoded LUT responses kept in memory.
	QueryCacheSize int `yaml:"query_cache_size"`
	// ColormapCacheSize is the number of resolved colormaps kept in memory.
	ColormapCacheSize int `yaml:"colormap_cache_size"`
}

// RenderConfig contains rendering settings.
type RenderConfig struct {
	ColorbarWidth   int    `yaml:"colorbar_width"`
	ColorbarHeight  int    `yaml:"colorbar_height"`
	DefaultColormap string `yaml:"default_colormap"`
	LUTSize         int    `yaml:"lut_size"`
	MaxLUTSize      int    `yaml:"max_lut_size"`
	MaxImageSize    int    `yaml:"max_image_size"`
	TestImageSize   int    `yaml:"test_image_size"`
}

// StoreConfig contains persistence settings for user colormaps.
type StoreConfig struct {
	SQLitePath string `yaml:"sqlite_path"`
}

// CatalogConfig lists YAML files with additional colormaps.
type CatalogConfig struct {
	Paths []string `yaml:"paths"`
}

// Load reads configuration from a YAML file. A missing file yields the
// default configuration.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	// Apply defaults for missing values
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:                8080,
			CORSOrigins:         []string{"http://localhost:3000", "http://localhost:5173"},
			ReadTimeoutSeconds:  15,
			WriteTimeoutSeconds: 60,
		},
		Cache: CacheConfig{
			ImageSizeMB:       128,
			ImageTTLMinutes:   10,
			QueryCacheSize:    1024,
			ColormapCacheSize: 256,
		},
		Render: RenderConfig{
			ColorbarWidth:   256,
			ColorbarHeight:  32,
			DefaultColormap: "viridis",
			LUTSize:         256,
			MaxLUTSize:      65536,
			MaxImageSize:    4096,
			TestImageSize:   256,
		},
		Store: StoreConfig{
			SQLitePath: "./data/colormaps.db",
		},
	}
}

func applyDefaults(cfg *Config) {
	defaults := DefaultConfig()

	if cfg.Server.Port == 0 {
		cfg.Server.Port = defaults.Server.Port
	}
	if len(cfg.Server.CORSOrigins) == 0 {
		cfg.Server.CORSOrigins = defaults.Server.CORSOrigins
	}
	if cfg.Server.ReadTimeoutSeconds == 0 {
		cfg.Server.ReadTimeoutSeconds = defaults.Server.ReadTimeoutSeconds
	}
	if cfg.Server.WriteTimeoutSeconds == 0 {
		cfg.Server.WriteTimeoutSeconds = defaults.Server.WriteTimeoutSeconds
	}
	if cfg.Cache.ImageSizeMB == 0 {
		cfg.Cache.ImageSizeMB = defaults.Cache.ImageSizeMB
	}
	if cfg.Cache.ImageTTLMinutes == 0 {
		cfg.Cache.ImageTTLMinutes = defaults.Cache.ImageTTLMinutes
	}
	if cfg.Cache.QueryCacheSize == 0 {
		cfg.Cache.QueryCacheSize = defaults.Cache.QueryCacheSize
	}
	if cfg.Cache.ColormapCacheSize == 0 {
		cfg.Cache.ColormapCacheSize = defaults.Cache.ColormapCacheSize
	}
	if cfg.Render.ColorbarWidth == 0 {
		cfg.Render.ColorbarWidth = defaults.Render.ColorbarWidth
	}
	if cfg.Render.ColorbarHeight == 0 {
		cfg.Render.ColorbarHeight = defaults.Render.ColorbarHeight
	}
	if cfg.Render.DefaultColormap == "" {
		cfg.Render.DefaultColormap = defaults.Render.DefaultColormap
	}
	if cfg.Render.LUTSize == 0 {
		cfg.Render.LUTSize = defaults.Render.LUTSize
	}
	if cfg.Render.MaxLUTSize == 0 {
		cfg.Render.MaxLUTSize = defaults.Render.MaxLUTSize
	}
	if cfg.Render.MaxImageSize == 0 {
		cfg.Render.MaxImageSize = defaults.Render.MaxImageSize
	}
	if cfg.Render.TestImageSize == 0 {
		cfg.Render.TestImageSize = defaults.Render.TestImageSize
	}
	if cfg.Store.SQLitePath == "" {
		cfg.Store.SQLitePath = defaults.Store.SQLitePath
	}
}

// Validate reports settings that cannot work together.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Render.LUTSize < 1 || c.Render.MaxLUTSize < c.Render.LUTSize {
		return fmt.Errorf("render.lut_size %d must be between 1 and render.max_lut_size %d",
			c.Render.LUTSize, c.Render.MaxLUTSize)
	}
	if c.Render.ColorbarWidth < 1 || c.Render.ColorbarHeight < 1 ||
		c.Render.ColorbarWidth > c.Render.MaxImageSize || c.Render.ColorbarHeight > c.Render.MaxImageSize {
		return fmt.Errorf("render colorbar size %dx%d must be between 1 and render.max_image_size %d",
			c.Render.ColorbarWidth, c.Render.ColorbarHeight, c.Render.MaxImageSize)
	}
	if c.Render.TestImageSize < 2 || c.Render.TestImageSize > c.Render.MaxImageSize {
		return fmt.Errorf("render.test_image_size %d must be between 2 and render.max_image_size %d",
			c.Render.TestImageSize, c.Render.MaxImageSize)
	}
	return nil
}

// ImageTTL returns the image cache lifetime.
func (c CacheConfig) ImageTTL() time.Duration {
	return time.Duration(c.ImageTTLMinutes) * time.Minute
}

// Addr returns the listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
