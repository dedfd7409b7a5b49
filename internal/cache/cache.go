// Package cache provides caching for rendered images and encoded query
// results.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/allegro/bigcache/v3"
	"github.com/dustin/go-humanize"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Config contains cache configuration.
type Config struct {
	ImageCacheSizeMB int
	ImageTTL         time.Duration
	QueryCacheSize   int
}

// Manager manages image and query caches.
type Manager struct {
	imageCache *bigcache.BigCache
	queryCache *lru.Cache[string, []byte]
}

// NewManager creates a new cache manager.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.QueryCacheSize <= 0 {
		return nil, errors.New("query cache size must be positive")
	}

	// Colorbars are a few KB; test images can reach a few hundred KB, so
	// keep the shard count low enough for a shard to hold one.
	imageCacheConfig := bigcache.Config{
		Shards:             64,
		LifeWindow:         cfg.ImageTTL,
		CleanWindow:        cfg.ImageTTL / 2,
		MaxEntriesInWindow: 1000,
		MaxEntrySize:       8 * 1024,
		HardMaxCacheSize:   cfg.ImageCacheSizeMB,
		Verbose:            false,
	}

	imageCache, err := bigcache.New(context.Background(), imageCacheConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create image cache: %w", err)
	}

	queryCache, err := lru.New[string, []byte](cfg.QueryCacheSize)
	if err != nil {
		imageCache.Close()
		return nil, fmt.Errorf("failed to create query cache: %w", err)
	}

	return &Manager{
		imageCache: imageCache,
		queryCache: queryCache,
	}, nil
}

// GetImage retrieves an encoded image from cache.
func (m *Manager) GetImage(key string) ([]byte, bool) {
	data, err := m.imageCache.Get(key)
	if err != nil {
		return nil, false
	}
	return data, true
}

// SetImage stores an encoded image in cache.
func (m *Manager) SetImage(key string, data []byte) error {
	return m.imageCache.Set(key, data)
}

// GetQuery retrieves a query result from cache.
func (m *Manager) GetQuery(key string) ([]byte, bool) {
	return m.queryCache.Get(key)
}

// SetQuery stores a query result in cache.
func (m *Manager) SetQuery(key string, data []byte) {
	m.queryCache.Add(key, data)
}

// Reset drops every cached entry. Called when a colormap definition
// changes, since keys are derived from names.
func (m *Manager) Reset() error {
	m.queryCache.Purge()
	return m.imageCache.Reset()
}

// ColorbarKey generates a cache key for a rendered colorbar.
func ColorbarKey(name string, width, height int, gamma float64) string {
	return fmt.Sprintf("bar:%s:%dx%d:g=%g", name, width, height, gamma)
}

// TestImageKey generates a cache key for a rendered test image.
func TestImageKey(kind, name string, size int, gamma float64) string {
	return fmt.Sprintf("img:%s:%s:%d:g=%g", kind, name, size, gamma)
}

// LUTKey generates a cache key for an encoded lookup table.
func LUTKey(name string, n int, gamma float64, format string) string {
	return fmt.Sprintf("lut:%s:%d:g=%g:%s", name, n, gamma, format)
}

// BodyKey generates a cache key for a request body.
func BodyKey(prefix string, body []byte) string {
	h := sha256.New()
	h.Write(body)
	return prefix + ":" + hex.EncodeToString(h.Sum(nil))[:16]
}

// Stats returns cache statistics.
func (m *Manager) Stats() map[string]interface{} {
	s := m.imageCache.Stats()
	return map[string]interface{}{
		"image_cache_len":    m.imageCache.Len(),
		"image_cache_cap":    m.imageCache.Capacity(),
		"image_cache_size":   humanize.Bytes(uint64(m.imageCache.Capacity())),
		"image_cache_hits":   s.Hits,
		"image_cache_misses": s.Misses,
		"query_cache_len":    m.queryCache.Len(),
	}
}

// Close closes the cache manager.
func (m *Manager) Close() error {
	return m.imageCache.Close()
}
