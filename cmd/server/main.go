// Package main is the entry point for the colormap server.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/microvis/cmap/internal/api"
	"github.com/microvis/cmap/internal/cache"
	"github.com/microvis/cmap/internal/config"
	"github.com/microvis/cmap/internal/render"
	"github.com/microvis/cmap/internal/service"
	"github.com/microvis/cmap/internal/store"
	"github.com/microvis/cmap/pkg/colormap"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "config/server.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting colormap server on port %d", cfg.Server.Port)

	ctx := context.Background()

	// Initialize cache manager
	cacheManager, err := cache.NewManager(cache.Config{
		ImageCacheSizeMB: cfg.Cache.ImageSizeMB,
		ImageTTL:         cfg.Cache.ImageTTL(),
		QueryCacheSize:   cfg.Cache.QueryCacheSize,
	})
	if err != nil {
		log.Fatalf("Failed to initialize cache: %v", err)
	}
	defer cacheManager.Close()

	renderer := render.NewRenderer(render.Config{
		ColorbarWidth:  cfg.Render.ColorbarWidth,
		ColorbarHeight: cfg.Render.ColorbarHeight,
		MaxImageSize:   cfg.Render.MaxImageSize,
	})

	// User colormaps (SQLite persistence)
	colormapStore, err := store.NewStore(cfg.Store.SQLitePath)
	if err != nil {
		log.Fatalf("Failed to open colormap store: %v", err)
	}
	defer colormapStore.Close()

	// Built-in colormaps plus catalog files
	catalog := colormap.NewBuiltinCatalog()
	for _, path := range cfg.Catalog.Paths {
		n, err := service.LoadCatalogFile(catalog, path)
		if err != nil {
			log.Fatalf("Failed to load catalog %s: %v", path, err)
		}
		log.Printf("  Catalog %s: %d entries", path, n)
	}

	colormapService, err := service.NewColormapService(service.ColormapServiceConfig{
		Catalog:           catalog,
		Store:             colormapStore,
		Cache:             cacheManager,
		Renderer:          renderer,
		DefaultColormap:   cfg.Render.DefaultColormap,
		LUTSize:           cfg.Render.LUTSize,
		MaxLUTSize:        cfg.Render.MaxLUTSize,
		ColorbarWidth:     cfg.Render.ColorbarWidth,
		ColorbarHeight:    cfg.Render.ColorbarHeight,
		TestImageSize:     cfg.Render.TestImageSize,
		ColormapCacheSize: cfg.Cache.ColormapCacheSize,
	})
	if err != nil {
		log.Fatalf("Failed to initialize colormap service: %v", err)
	}
	if _, err := colormapService.Resolve(cfg.Render.DefaultColormap, 0); err != nil {
		log.Fatalf("Default colormap %q: %v", cfg.Render.DefaultColormap, err)
	}

	loaded, err := colormapService.LoadCustom()
	if err != nil {
		log.Fatalf("Failed to load user colormaps: %v", err)
	}
	log.Printf("Colormaps: %d registered, %d user-defined (sqlite=%s)",
		len(colormapService.Names()), loaded, cfg.Store.SQLitePath)

	// Set up HTTP router
	router := api.NewRouter(api.RouterConfig{
		Service:     colormapService,
		Cache:       cacheManager,
		CORSOrigins: cfg.Server.CORSOrigins,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server listening on http://localhost:%d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
