// Package service provides business logic for the colormap server.
package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"regexp"
	"strconv"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/microvis/cmap/internal/cache"
	"github.com/microvis/cmap/internal/lutcodec"
	"github.com/microvis/cmap/internal/render"
	"github.com/microvis/cmap/internal/store"
	"github.com/microvis/cmap/pkg/colormap"
	"github.com/microvis/cmap/pkg/testimage"
)

var (
	// ErrReadOnly is returned when changing a built-in or file-loaded
	// colormap.
	ErrReadOnly = errors.New("colormap is read-only")
	// ErrInvalidName is returned for names unusable as identifiers.
	ErrInvalidName = errors.New("invalid colormap name")
)

var namePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_.-]{0,63}$`)

// validateName checks a user colormap name before anything is stored.
// The "_r" suffix addresses reversed colormaps and cannot be registered.
func validateName(name string) error {
	if !namePattern.MatchString(name) {
		return fmt.Errorf("%w: %q must be lower case letters, digits, '.', '_' or '-'", ErrInvalidName, name)
	}
	if strings.HasSuffix(name, "_r") {
		return fmt.Errorf("%w: %q ends in the reserved suffix \"_r\"", ErrInvalidName, name)
	}
	return nil
}

// LUT encodings accepted by LUTBytes.
const (
	FormatJSON       = "json"
	FormatBinary     = "bin"
	FormatBinaryZstd = "bin+zstd"
)

// Test image kinds accepted by TestImage.
const (
	ImageSineramp = "sineramp"
	ImageCircle   = "circle"
)

// ColormapServiceConfig contains colormap service configuration.
type ColormapServiceConfig struct {
	Catalog  *colormap.Catalog
	Store    *store.Store // optional; nil disables persistence
	Cache    *cache.Manager
	Renderer *render.Renderer

	DefaultColormap   string
	LUTSize           int
	MaxLUTSize        int
	ColorbarWidth     int
	ColorbarHeight    int
	TestImageSize     int
	ColormapCacheSize int
}

// ColormapService resolves, renders and persists colormaps.
type ColormapService struct {
	catalog  *colormap.Catalog
	store    *store.Store
	cache    *cache.Manager
	renderer *render.Renderer

	defaultName    string
	lutSize        int
	maxLUTSize     int
	colorbarWidth  int
	colorbarHeight int
	testImageSize  int

	// Resolved colormaps by name and gamma. Keeping them alive keeps
	// their lookup tables cached.
	resolved *lru.Cache[string, *colormap.Colormap]

	mu     sync.RWMutex
	custom map[string]bool
}

// NewColormapService creates a new colormap service.
func NewColormapService(cfg ColormapServiceConfig) (*ColormapService, error) {
	if cfg.Catalog == nil || cfg.Cache == nil || cfg.Renderer == nil {
		return nil, errors.New("colormap service needs a catalog, a cache and a renderer")
	}
	size := cfg.ColormapCacheSize
	if size <= 0 {
		size = 256
	}
	resolved, err := lru.New[string, *colormap.Colormap](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create colormap cache: %w", err)
	}

	s := &ColormapService{
		catalog:        cfg.Catalog,
		store:          cfg.Store,
		cache:          cfg.Cache,
		renderer:       cfg.Renderer,
		defaultName:    cfg.DefaultColormap,
		lutSize:        cfg.LUTSize,
		maxLUTSize:     cfg.MaxLUTSize,
		colorbarWidth:  cfg.ColorbarWidth,
		colorbarHeight: cfg.ColorbarHeight,
		testImageSize:  cfg.TestImageSize,
		resolved:       resolved,
		custom:         make(map[string]bool),
	}
	if s.defaultName == "" {
		s.defaultName = "viridis"
	}
	if s.lutSize <= 0 {
		s.lutSize = colormap.DefaultLUTSize
	}
	if s.maxLUTSize < s.lutSize {
		s.maxLUTSize = s.lutSize
	}
	if s.colorbarWidth <= 0 {
		s.colorbarWidth = 256
	}
	if s.colorbarHeight <= 0 {
		s.colorbarHeight = 32
	}
	if s.testImageSize < 2 {
		s.testImageSize = 256
	}
	return s, nil
}

// Names returns the registered colormap names.
func (s *ColormapService) Names() []string {
	return s.catalog.Names()
}

// IsCustom reports whether name is a user-defined colormap.
func (s *ColormapService) IsCustom(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.custom[name]
}

// Resolve returns the colormap called name. An empty name selects the
// default colormap; a gamma of 0 keeps the colormap's own gamma.
func (s *ColormapService) Resolve(name string, gamma float64) (*colormap.Colormap, error) {
	if name == "" {
		name = s.defaultName
	}
	key := name + "@" + strconv.FormatFloat(gamma, 'g', -1, 64)
	if cm, ok := s.resolved.Get(key); ok {
		return cm, nil
	}

	// Create and Delete purge the cache under the write lock.
	s.mu.RLock()
	defer s.mu.RUnlock()

	cm, err := s.catalog.Get(name)
	if err != nil {
		return nil, err
	}
	if gamma != 0 && gamma != cm.Gamma() {
		if cm, err = cm.WithGamma(gamma); err != nil {
			return nil, err
		}
	}
	s.resolved.Add(key, cm)
	return cm, nil
}

// ColormapInfo describes a colormap.
type ColormapInfo struct {
	Name        string             `json:"name"`
	DisplayName string             `json:"display_name"`
	Custom      bool               `json:"custom"`
	Gamma       float64            `json:"gamma"`
	Stops       []colormap.HexStop `json:"stops"`
	Plotly      [][]any            `json:"plotly"`
	Source      json.RawMessage    `json:"source,omitempty"`
}

// Describe returns the stops and metadata of a colormap. A gamma of 0
// keeps the colormap's own gamma.
func (s *ColormapService) Describe(name string, gamma float64) (*ColormapInfo, error) {
	cm, err := s.Resolve(name, gamma)
	if err != nil {
		return nil, err
	}
	info := &ColormapInfo{
		Name:        cm.Name(),
		DisplayName: cm.DisplayName(),
		Custom:      s.IsCustom(cm.Name()),
		Gamma:       cm.Gamma(),
		Stops:       cm.HexStops(),
		Plotly:      cm.ToPlotly(),
	}
	if info.Custom && s.store != nil {
		rec, err := s.store.Get(cm.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to load colormap record: %w", err)
		}
		if rec != nil {
			info.Source = rec.Source
		}
	}
	return info, nil
}

func (s *ColormapService) lutSizeOrDefault(n int) (int, error) {
	if n == 0 {
		return s.lutSize, nil
	}
	if n < 1 || n > s.maxLUTSize {
		return 0, fmt.Errorf("%w: lut size %d must be between 1 and %d", colormap.ErrInvalidArgument, n, s.maxLUTSize)
	}
	return n, nil
}

// LUT returns the n-entry lookup table of a colormap; n = 0 selects the
// configured size. The table may be shared and must not be modified.
func (s *ColormapService) LUT(name string, n int, gamma float64) (colormap.LUT, error) {
	n, err := s.lutSizeOrDefault(n)
	if err != nil {
		return nil, err
	}
	cm, err := s.Resolve(name, gamma)
	if err != nil {
		return nil, err
	}
	return s.lutFor(cm, n)
}

// lutFor returns the n-row table of cm. Only the configured size and the
// colormap's own size are kept on the colormap; resolved colormaps can
// live for the whole process, and n comes from requests.
func (s *ColormapService) lutFor(cm *colormap.Colormap, n int) (colormap.LUT, error) {
	if n == s.lutSize || n == cm.LUTSize() {
		return cm.LUT(n)
	}
	return cm.Stops().ToLUT(n, cm.Gamma())
}

// LUTResponse is the JSON form of a lookup table.
type LUTResponse struct {
	Name   string       `json:"name"`
	Size   int          `json:"size"`
	Gamma  float64      `json:"gamma"`
	Colors [][4]float64 `json:"colors"`
}

// LUTBytes returns a lookup table encoded as format.
func (s *ColormapService) LUTBytes(name string, n int, gamma float64, format string) ([]byte, error) {
	switch format {
	case FormatJSON, FormatBinary, FormatBinaryZstd:
	default:
		return nil, fmt.Errorf("%w: unknown lut format %q", colormap.ErrInvalidArgument, format)
	}
	n, err := s.lutSizeOrDefault(n)
	if err != nil {
		return nil, err
	}
	cm, err := s.Resolve(name, gamma)
	if err != nil {
		return nil, err
	}

	cacheKey := cache.LUTKey(cm.Name(), n, cm.Gamma(), format)
	if data, ok := s.cache.GetQuery(cacheKey); ok {
		return data, nil
	}

	lut, err := s.lutFor(cm, n)
	if err != nil {
		return nil, err
	}

	var data []byte
	switch format {
	case FormatJSON:
		data, err = json.Marshal(LUTResponse{Name: cm.Name(), Size: n, Gamma: cm.Gamma(), Colors: lut})
	case FormatBinary:
		data = lutcodec.Encode(lut)
	case FormatBinaryZstd:
		data, err = lutcodec.EncodeCompressed(lut)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode lut: %w", err)
	}

	s.cache.SetQuery(cacheKey, data)
	return data, nil
}

// EvalResult is the color of one input value.
type EvalResult struct {
	X    float64    `json:"x"`
	RGBA [4]float64 `json:"rgba"`
	Hex  string     `json:"hex"`
}

// Evaluate maps each value of xs through the configured-size lookup
// table of a colormap.
func (s *ColormapService) Evaluate(name string, xs []float64, gamma float64) ([]EvalResult, error) {
	cm, err := s.Resolve(name, gamma)
	if err != nil {
		return nil, err
	}
	lut, err := s.lutFor(cm, s.lutSize)
	if err != nil {
		return nil, err
	}
	out := make([]EvalResult, len(xs))
	for i, x := range xs {
		c := lut.At(lut.Index(x))
		out[i] = EvalResult{X: x, RGBA: c.Floats(), Hex: c.Hex()}
	}
	return out, nil
}

// Colorbar returns a rendered colorbar PNG; zero dimensions select the
// configured size.
func (s *ColormapService) Colorbar(name string, width, height int, gamma float64) ([]byte, error) {
	if width == 0 {
		width = s.colorbarWidth
	}
	if height == 0 {
		height = s.colorbarHeight
	}
	cm, err := s.Resolve(name, gamma)
	if err != nil {
		return nil, err
	}

	cacheKey := cache.ColorbarKey(cm.Name(), width, height, cm.Gamma())
	if data, ok := s.cache.GetImage(cacheKey); ok {
		return data, nil
	}

	data, err := s.renderer.Colorbar(cm, width, height)
	if err != nil {
		return nil, fmt.Errorf("failed to render colorbar: %w", err)
	}

	if err := s.cache.SetImage(cacheKey, data); err != nil {
		log.Printf("[Service] failed to cache colorbar %s: %v", cacheKey, err)
	}
	return data, nil
}

// TestImage renders a perceptual test image through a colormap. kind is
// ImageSineramp (a ramp with a fading sine wave, for linear colormaps) or
// ImageCircle (a spiral ramp, for cyclic colormaps).
func (s *ColormapService) TestImage(name, kind string, gamma float64) ([]byte, error) {
	cm, err := s.Resolve(name, gamma)
	if err != nil {
		return nil, err
	}

	size := s.testImageSize
	cacheKey := cache.TestImageKey(kind, cm.Name(), size, cm.Gamma())
	if data, ok := s.cache.GetImage(cacheKey); ok {
		return data, nil
	}

	var (
		values [][]float64
		hi     float64
	)
	switch kind {
	case ImageSineramp:
		values, err = testimage.Sineramp(size/2, size, 0.05, 8, 2)
		hi = 1
	case ImageCircle:
		values, err = testimage.CircleSineramp(size, math.Pi/10, 8, 2, true)
		hi = 2 * math.Pi
	default:
		return nil, fmt.Errorf("%w: unknown test image %q", colormap.ErrInvalidArgument, kind)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to generate %s: %w", kind, err)
	}

	data, err := s.renderer.Field(cm, values, 0, hi)
	if err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", kind, err)
	}

	if err := s.cache.SetImage(cacheKey, data); err != nil {
		log.Printf("[Service] failed to cache test image %s: %v", cacheKey, err)
	}
	return data, nil
}

// PaletteNames returns the registered categorical palettes.
func (s *ColormapService) PaletteNames() []string {
	return s.catalog.PaletteNames()
}

// Palette returns the hex colors of a palette.
func (s *ColormapService) Palette(name string) ([]string, error) {
	p, ok := s.catalog.Palette(name)
	if !ok {
		return nil, fmt.Errorf("%w: palette %q", colormap.ErrUnknownColormap, name)
	}
	return p.Hex(), nil
}

// PaletteImage renders a palette as a row of cell x cell squares.
func (s *ColormapService) PaletteImage(name string, cell int) ([]byte, error) {
	p, ok := s.catalog.Palette(name)
	if !ok {
		return nil, fmt.Errorf("%w: palette %q", colormap.ErrUnknownColormap, name)
	}
	if cell == 0 {
		cell = s.colorbarHeight
	}
	cacheKey := cache.TestImageKey("palette", name, cell, 1)
	if data, ok := s.cache.GetImage(cacheKey); ok {
		return data, nil
	}
	data, err := s.renderer.Palette(p, cell)
	if err != nil {
		return nil, fmt.Errorf("failed to render palette: %w", err)
	}
	if err := s.cache.SetImage(cacheKey, data); err != nil {
		log.Printf("[Service] failed to cache palette %s: %v", cacheKey, err)
	}
	return data, nil
}

// ParseStops parses a decoded JSON color specification, see
// colormap.ParseStopsValue. fillMode is "neighboring" (or empty) or
// "fractional".
func (s *ColormapService) ParseStops(colors any, fillMode string) (*colormap.ColorStops, error) {
	mode, err := colormap.ParseFillMode(fillMode)
	if err != nil {
		return nil, err
	}
	return colormap.ParseStopsValue(colors, mode)
}

// ColorInfo describes a parsed color.
type ColorInfo struct {
	Input string     `json:"input"`
	Hex   string     `json:"hex"`
	RGBA  [4]float64 `json:"rgba"`
	RGBA8 [4]uint8   `json:"rgba8"`
	HSL   [3]float64 `json:"hsl"`
	HSV   [3]float64 `json:"hsv"`
}

// ParseColor parses a color string.
func (s *ColormapService) ParseColor(input string) (*ColorInfo, error) {
	c, err := colormap.ParseColor(input)
	if err != nil {
		return nil, err
	}
	v := c.RGBA8()
	h, sl, l := c.HSL()
	hv, sv, vv := c.HSV()
	return &ColorInfo{
		Input: input,
		Hex:   c.Hex(),
		RGBA:  c.Floats(),
		RGBA8: [4]uint8{v.R, v.G, v.B, v.A},
		HSL:   [3]float64{h, sl, l},
		HSV:   [3]float64{hv, sv, vv},
	}, nil
}

// CreateRequest defines a user colormap.
type CreateRequest struct {
	Name        string          `json:"name"`
	DisplayName string          `json:"display_name"`
	Colors      json.RawMessage `json:"colors"`
	FillMode    string          `json:"fill_mode"`
	Gamma       float64         `json:"gamma"`
}

// Create registers a user colormap, replacing an existing user colormap
// of the same name, and persists it when a store is configured.
func (s *ColormapService) Create(req CreateRequest) (*ColormapInfo, error) {
	if err := validateName(req.Name); err != nil {
		return nil, err
	}
	colors, err := DecodeColors(req.Colors)
	if err != nil {
		return nil, err
	}
	stops, err := s.ParseStops(colors, req.FillMode)
	if err != nil {
		return nil, err
	}
	gamma := req.Gamma
	if gamma == 0 {
		gamma = 1
	}
	cm, err := colormap.New(stops,
		colormap.WithName(req.Name),
		colormap.WithDisplayName(req.DisplayName),
		colormap.WithGamma(gamma))
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.catalog.Contains(req.Name) && !s.custom[req.Name] {
		return nil, fmt.Errorf("%w: %q", ErrReadOnly, req.Name)
	}
	previous, replacing := s.catalog.Lookup(req.Name)
	if err := s.catalog.Register(cm); err != nil {
		return nil, err
	}
	if s.store != nil {
		rec := &store.Record{
			Name:        req.Name,
			DisplayName: req.DisplayName,
			Stops:       stops.Array(),
			Source:      req.Colors,
			FillMode:    req.FillMode,
			Gamma:       gamma,
		}
		if err := s.store.Save(rec); err != nil {
			if replacing {
				s.catalog.Register(previous)
			} else {
				s.catalog.Unregister(req.Name)
			}
			return nil, fmt.Errorf("failed to save colormap: %w", err)
		}
	}
	s.custom[req.Name] = true
	s.invalidate()
	log.Printf("[Service] saved colormap %q with %d stops", req.Name, stops.Len())

	return &ColormapInfo{
		Name:        cm.Name(),
		DisplayName: cm.DisplayName(),
		Custom:      true,
		Gamma:       cm.Gamma(),
		Stops:       cm.HexStops(),
		Plotly:      cm.ToPlotly(),
		Source:      req.Colors,
	}, nil
}

// Delete removes a user colormap.
func (s *ColormapService) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.custom[name] {
		if s.catalog.Contains(name) {
			return fmt.Errorf("%w: %q", ErrReadOnly, name)
		}
		return fmt.Errorf("%w: %q", colormap.ErrUnknownColormap, name)
	}
	if s.store != nil {
		if _, err := s.store.Delete(name); err != nil {
			return fmt.Errorf("failed to delete colormap: %w", err)
		}
	}
	s.catalog.Unregister(name)
	delete(s.custom, name)
	s.invalidate()
	log.Printf("[Service] deleted colormap %q", name)
	return nil
}

// invalidate drops everything derived from colormap names. Callers hold
// s.mu.
func (s *ColormapService) invalidate() {
	s.resolved.Purge()
	if err := s.cache.Reset(); err != nil {
		log.Printf("[Service] failed to reset cache: %v", err)
	}
}

// LoadCustom registers every colormap from the store. Records that no
// longer validate are skipped and logged.
func (s *ColormapService) LoadCustom() (int, error) {
	if s.store == nil {
		return 0, nil
	}
	records, err := s.store.List()
	if err != nil {
		return 0, fmt.Errorf("failed to list colormaps: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	loaded := 0
	for _, rec := range records {
		if s.catalog.Contains(rec.Name) && !s.custom[rec.Name] {
			log.Printf("[Service] stored colormap %q shadows a built-in, skipping", rec.Name)
			continue
		}
		stops, err := colormap.StopsFromArray(rec.Stops)
		if err != nil {
			log.Printf("[Service] stored colormap %q is invalid: %v", rec.Name, err)
			continue
		}
		cm, err := colormap.New(stops,
			colormap.WithName(rec.Name),
			colormap.WithDisplayName(rec.DisplayName),
			colormap.WithGamma(rec.Gamma))
		if err != nil {
			log.Printf("[Service] stored colormap %q is invalid: %v", rec.Name, err)
			continue
		}
		if err := s.catalog.Register(cm); err != nil {
			log.Printf("[Service] failed to register %q: %v", rec.Name, err)
			continue
		}
		s.custom[rec.Name] = true
		loaded++
	}
	if loaded > 0 {
		s.invalidate()
	}
	return loaded, nil
}

// Stats returns cache and catalog statistics.
func (s *ColormapService) Stats() map[string]interface{} {
	stats := s.cache.Stats()
	s.mu.RLock()
	stats["custom_colormaps"] = len(s.custom)
	s.mu.RUnlock()
	stats["colormaps"] = len(s.catalog.Names())
	stats["resolved_cache_len"] = s.resolved.Len()
	return stats
}

// DecodeColors decodes a JSON color specification, keeping integers
// distinguishable from floats.
func DecodeColors(raw json.RawMessage) (any, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: colors are required", colormap.ErrInvalidColorStops)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: colors: %v", colormap.ErrTypeMismatch, err)
	}
	return v, nil
}
