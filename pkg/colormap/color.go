package colormap

import (
	"fmt"
	"image/color"
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Color is an immutable RGBA color. Each channel is in the range [0, 1].
//
// Colors are comparable: two colors are equal when all four channels are
// equal. The zero value is NoColor.
type Color struct {
	r, g, b, a float64
}

// RGBA8 is the 8-bit integer form of a Color.
type RGBA8 struct {
	R, G, B, A uint8
}

// NoColor is fully transparent black. A nil ColorLike resolves to it.
var NoColor = Color{}

// FromFloats creates a color from float channels. Values are clamped to
// [0, 1]; NaN becomes 0.
func FromFloats(r, g, b, a float64) Color {
	return Color{r: clip01(r), g: clip01(g), b: clip01(b), a: clip01(a)}
}

// RGB creates an opaque color from float channels.
func RGB(r, g, b float64) Color {
	return FromFloats(r, g, b, 1)
}

// FromRGBA8 converts an 8-bit color.
func FromRGBA8(c RGBA8) Color {
	return Color{
		r: float64(c.R) / 255,
		g: float64(c.G) / 255,
		b: float64(c.B) / 255,
		a: float64(c.A) / 255,
	}
}

// FromHex converts an integer color. Values up to 0xFFFFFF are read as
// opaque 0xRRGGBB, larger values as 0xRRGGBBAA.
func FromHex(v uint32) Color {
	if v <= 0xFFFFFF {
		return FromRGBA8(RGBA8{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255})
	}
	return FromRGBA8(RGBA8{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)})
}

// FromChannels creates a color from 3 (RGB) or 4 (RGBA) numbers.
//
// If any value is greater than 1 the sequence is read as 8-bit: RGB are
// divided by 255, and so is alpha when it exceeds 1 (an alpha <= 1 is kept
// as a fraction). Otherwise all values are fractions in [0, 1].
func FromChannels(v []float64) (Color, error) {
	if len(v) != 3 && len(v) != 4 {
		return NoColor, fmt.Errorf("%w: expected 3 or 4 channels, got %d", ErrInvalidColorFormat, len(v))
	}
	eightBit := false
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return NoColor, fmt.Errorf("%w: non-finite channel %v", ErrInvalidColorFormat, x)
		}
		if x > 1 {
			eightBit = true
		}
	}
	alpha := 1.0
	if len(v) == 4 {
		alpha = v[3]
	}
	if !eightBit {
		return FromFloats(v[0], v[1], v[2], alpha), nil
	}
	if alpha > 1 {
		alpha /= 255
	}
	return FromFloats(v[0]/255, v[1]/255, v[2]/255, alpha), nil
}

// FromColor converts any image/color value.
func FromColor(c color.Color) Color {
	n := color.NRGBA64Model.Convert(c).(color.NRGBA64)
	return Color{
		r: float64(n.R) / 0xffff,
		g: float64(n.G) / 0xffff,
		b: float64(n.B) / 0xffff,
		a: float64(n.A) / 0xffff,
	}
}

// FromHSL creates a color from hue in degrees (any value, wrapped into
// [0, 360)), saturation and lightness in [0, 1], and alpha.
func FromHSL(h, s, l, a float64) Color {
	c := colorful.Hsl(wrapHue(h), clip01(s), clip01(l)).Clamped()
	return FromFloats(c.R, c.G, c.B, a)
}

// FromHSV creates a color from hue in degrees, saturation and value in
// [0, 1], and alpha.
func FromHSV(h, s, v, a float64) Color {
	c := colorful.Hsv(wrapHue(h), clip01(s), clip01(v)).Clamped()
	return FromFloats(c.R, c.G, c.B, a)
}

func (c Color) R() float64 { return c.r }
func (c Color) G() float64 { return c.g }
func (c Color) B() float64 { return c.b }
func (c Color) A() float64 { return c.a }

// Floats returns the channels as an array.
func (c Color) Floats() [4]float64 {
	return [4]float64{c.r, c.g, c.b, c.a}
}

// RGBA8 rounds every channel to the nearest 8-bit value.
func (c Color) RGBA8() RGBA8 {
	return RGBA8{R: to8bit(c.r), G: to8bit(c.g), B: to8bit(c.b), A: to8bit(c.a)}
}

// RGBA implements color.Color. The result is alpha-premultiplied.
func (c Color) RGBA() (r, g, b, a uint32) {
	r = uint32(math.Round(c.r * c.a * 0xffff))
	g = uint32(math.Round(c.g * c.a * 0xffff))
	b = uint32(math.Round(c.b * c.a * 0xffff))
	a = uint32(math.Round(c.a * 0xffff))
	return
}

// Hex renders the color as "#RRGGBB", or "#RRGGBBAA" when it is not opaque.
func (c Color) Hex() string {
	v := c.RGBA8()
	if v.A == 255 {
		return fmt.Sprintf("#%02X%02X%02X", v.R, v.G, v.B)
	}
	return fmt.Sprintf("#%02X%02X%02X%02X", v.R, v.G, v.B, v.A)
}

func (c Color) String() string {
	return c.Hex()
}

// Equal reports whether both colors have identical channels.
func (c Color) Equal(o Color) bool {
	return c == o
}

// HSL returns hue in degrees [0, 360), saturation and lightness in [0, 1].
func (c Color) HSL() (h, s, l float64) {
	return colorful.Color{R: c.r, G: c.g, B: c.b}.Hsl()
}

// HSV returns hue in degrees [0, 360), saturation and value in [0, 1].
func (c Color) HSV() (h, s, v float64) {
	return colorful.Color{R: c.r, G: c.g, B: c.b}.Hsv()
}

// WithAlpha returns a copy of c with a new alpha channel.
func (c Color) WithAlpha(a float64) Color {
	c.a = clip01(a)
	return c
}

// Luminance returns the relative luminance of the color (alpha ignored).
func (c Color) Luminance() float64 {
	_, y, _ := colorful.Color{R: c.r, G: c.g, B: c.b}.Xyz()
	return y
}

// ToColor implements ColorLike.
func (c Color) ToColor() (Color, error) {
	return c, nil
}

func to8bit(v float64) uint8 {
	v = math.Round(v * 255)
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

func wrapHue(h float64) float64 {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	return h
}

// clip01 restricts x to [0, 1], mapping NaN to 0.
func clip01(x float64) float64 {
	if x > 0 {
		return math.Min(x, 1)
	}
	return 0
}
