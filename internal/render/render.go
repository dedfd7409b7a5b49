// Package render draws colormaps into PNG images using fogleman/gg.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"sync"

	"github.com/fogleman/gg"
	"github.com/microvis/cmap/pkg/colormap"
)

// ErrInvalidSize is returned for images without pixels or beyond the
// configured maximum.
var ErrInvalidSize = errors.New("invalid image size")

var checkerLight = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
var checkerDark = color.NRGBA{R: 204, G: 204, B: 204, A: 255}

// Config contains renderer configuration.
type Config struct {
	ColorbarWidth  int
	ColorbarHeight int
	MaxImageSize   int
}

// Renderer renders colorbars, palettes and scalar fields.
type Renderer struct {
	config      Config
	contextPool sync.Pool
	bufferPool  sync.Pool
}

// NewRenderer creates a new renderer.
func NewRenderer(cfg Config) *Renderer {
	return &Renderer{
		config: cfg,
		contextPool: sync.Pool{
			New: func() interface{} {
				return gg.NewContext(cfg.ColorbarWidth, cfg.ColorbarHeight)
			},
		},
		bufferPool: sync.Pool{
			New: func() interface{} {
				return bytes.NewBuffer(make([]byte, 0, 32*1024))
			},
		},
	}
}

func (r *Renderer) checkSize(width, height int) error {
	if width < 1 || height < 1 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	if r.config.MaxImageSize > 0 && (width > r.config.MaxImageSize || height > r.config.MaxImageSize) {
		return fmt.Errorf("%w: %dx%d exceeds %d", ErrInvalidSize, width, height, r.config.MaxImageSize)
	}
	return nil
}

// context returns a cleared drawing context and a function releasing it.
// Contexts of the default colorbar size are pooled.
func (r *Renderer) context(width, height int) (*gg.Context, func()) {
	if width == r.config.ColorbarWidth && height == r.config.ColorbarHeight {
		dc := r.contextPool.Get().(*gg.Context)
		return dc, func() { r.contextPool.Put(dc) }
	}
	return gg.NewContext(width, height), func() {}
}

// drawChecker paints the transparency checkerboard behind partly
// transparent colors.
func drawChecker(dc *gg.Context, cell float64) {
	dc.SetColor(checkerLight)
	dc.Clear()
	dc.SetColor(checkerDark)
	w, h := float64(dc.Width()), float64(dc.Height())
	for y, row := 0.0, 0; y < h; y, row = y+cell, row+1 {
		for x, col := 0.0, 0; x < w; x, col = x+cell, col+1 {
			if (row+col)%2 == 0 {
				dc.DrawRectangle(x, y, cell, cell)
			}
		}
	}
	dc.Fill()
}

// Colorbar renders cm left to right as a width x height PNG.
func (r *Renderer) Colorbar(cm *colormap.Colormap, width, height int) ([]byte, error) {
	if err := r.checkSize(width, height); err != nil {
		return nil, err
	}
	dc, release := r.context(width, height)
	defer release()

	drawChecker(dc, math.Max(math.Floor(float64(height)/2), 1))

	step := 0.0
	if width > 1 {
		step = 1 / float64(width-1)
	}
	for x := 0; x < width; x++ {
		dc.SetColor(cm.At(float64(x) * step))
		dc.DrawRectangle(float64(x), 0, 1, float64(height))
		dc.Fill()
	}

	return r.encode(dc.Image())
}

// Palette renders one square of cell x cell pixels per palette color.
func (r *Renderer) Palette(p colormap.Palette, cell int) ([]byte, error) {
	if len(p) == 0 {
		return nil, fmt.Errorf("%w: empty palette", ErrInvalidSize)
	}
	if err := r.checkSize(cell*len(p), cell); err != nil {
		return nil, err
	}
	dc, release := r.context(cell*len(p), cell)
	defer release()

	drawChecker(dc, math.Max(math.Floor(float64(cell)/2), 1))
	for i := range p {
		dc.SetColor(p.AtIndex(i))
		dc.DrawRectangle(float64(i*cell), 0, float64(cell), float64(cell))
		dc.Fill()
	}

	return r.encode(dc.Image())
}

// Field renders a two-dimensional array of values through cm. Values are
// mapped linearly from [lo, hi] to [0, 1]; NaN values are transparent.
// Every row must have the same length.
func (r *Renderer) Field(cm *colormap.Colormap, values [][]float64, lo, hi float64) ([]byte, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: no rows", ErrInvalidSize)
	}
	height, width := len(values), len(values[0])
	if err := r.checkSize(width, height); err != nil {
		return nil, err
	}

	span := hi - lo
	if span == 0 {
		span = 1
	}

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	norm := make([]float64, width)
	rgba := make([][4]float64, width)
	for y, row := range values {
		if len(row) != width {
			return nil, fmt.Errorf("%w: row %d has %d values, want %d", ErrInvalidSize, y, len(row), width)
		}
		for x, v := range row {
			norm[x] = (v - lo) / span
		}
		cm.MapInto(rgba, norm)
		for x, v := range row {
			if math.IsNaN(v) {
				continue
			}
			c := colormap.FromFloats(rgba[x][0], rgba[x][1], rgba[x][2], rgba[x][3]).RGBA8()
			img.SetNRGBA(x, y, color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A})
		}
	}

	return r.encode(img)
}

func (r *Renderer) encode(img image.Image) ([]byte, error) {
	buf := r.bufferPool.Get().(*bytes.Buffer)
	defer func() {
		buf.Reset()
		r.bufferPool.Put(buf)
	}()

	// Use fast PNG encoder
	encoder := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := encoder.Encode(buf, img); err != nil {
		return nil, err
	}

	// Copy buffer contents (buffer will be reused)
	result := make([]byte, buf.Len())
	copy(result, buf.Bytes())
	return result, nil
}
