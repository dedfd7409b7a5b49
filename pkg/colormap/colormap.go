package colormap

import (
	"fmt"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"
)

// DefaultLUTSize is the table size used by At, Map and Colors.
const DefaultLUTSize = 256

// Colormap maps values in [0, 1] to colors through cached lookup tables.
//
// The stops of a Colormap never change after construction, so a table is
// computed at most once per size and kept for the colormap's lifetime. A
// Colormap is safe for concurrent use and must not be copied.
type Colormap struct {
	name        string
	displayName string
	stops       *ColorStops
	gamma       float64
	lutSize     int

	luts  sync.Map // int -> LUT
	group singleflight.Group
}

// Option configures a Colormap.
type Option func(*Colormap)

// WithName sets the identifier of the colormap.
func WithName(name string) Option {
	return func(cm *Colormap) { cm.name = name }
}

// WithDisplayName sets a human readable name.
func WithDisplayName(name string) Option {
	return func(cm *Colormap) { cm.displayName = name }
}

// WithGamma sets the gamma of the sampling grid used for every table.
func WithGamma(gamma float64) Option {
	return func(cm *Colormap) { cm.gamma = gamma }
}

// WithLUTSize sets the table size used by At, Map and Colors.
func WithLUTSize(n int) Option {
	return func(cm *Colormap) { cm.lutSize = n }
}

// New creates a colormap from stops.
func New(stops *ColorStops, opts ...Option) (*Colormap, error) {
	if stops == nil || stops.Len() == 0 {
		return nil, fmt.Errorf("%w: colormap needs at least one stop", ErrInvalidColorStops)
	}
	cm := &Colormap{stops: stops, gamma: 1, lutSize: DefaultLUTSize}
	for _, opt := range opts {
		opt(cm)
	}
	if err := checkLUTArgs(cm.lutSize, cm.gamma); err != nil {
		return nil, err
	}
	return cm, nil
}

// FromSpecs parses specs with FillNeighboring and creates a colormap.
func FromSpecs(specs []StopSpec, opts ...Option) (*Colormap, error) {
	stops, err := ParseStops(specs, FillNeighboring)
	if err != nil {
		return nil, err
	}
	return New(stops, opts...)
}

// FromColors creates a colormap from evenly spaced colors.
func FromColors(colors ...ColorLike) (*Colormap, error) {
	specs := make([]StopSpec, len(colors))
	for i, c := range colors {
		specs[i] = Auto(c)
	}
	return FromSpecs(specs)
}

// FromString creates a colormap running from NoColor to the color s.
func FromString(s string, opts ...Option) (*Colormap, error) {
	stops, err := ParseStopsString(s)
	if err != nil {
		return nil, err
	}
	return New(stops, opts...)
}

func (cm *Colormap) Name() string {
	return cm.name
}

// DisplayName returns the display name, falling back to Name.
func (cm *Colormap) DisplayName() string {
	if cm.displayName != "" {
		return cm.displayName
	}
	return cm.name
}

func (cm *Colormap) Stops() *ColorStops {
	return cm.stops
}

func (cm *Colormap) Gamma() float64 {
	return cm.gamma
}

func (cm *Colormap) LUTSize() int {
	return cm.lutSize
}

// LUT returns the n-row lookup table, computing it on first use. The
// returned table is shared between callers and must not be modified.
func (cm *Colormap) LUT(n int) (LUT, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: lut size must be positive, got %d", ErrInvalidArgument, n)
	}
	if v, ok := cm.luts.Load(n); ok {
		return v.(LUT), nil
	}
	v, err, _ := cm.group.Do(strconv.Itoa(n), func() (any, error) {
		if v, ok := cm.luts.Load(n); ok {
			return v, nil
		}
		lut, err := cm.stops.ToLUT(n, cm.gamma)
		if err != nil {
			return nil, err
		}
		cm.luts.Store(n, lut)
		return lut, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(LUT), nil
}

// CachedLUTs returns the number of table sizes held by the colormap.
func (cm *Colormap) CachedLUTs() int {
	n := 0
	cm.luts.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// defaultLUT cannot fail: New validated the stops, size and gamma.
func (cm *Colormap) defaultLUT() LUT {
	lut, err := cm.LUT(cm.lutSize)
	if err != nil {
		panic("colormap: " + err.Error())
	}
	return lut
}

// At returns the color at x. Values below 0 (and NaN) map to the first
// table entry, values at or above 1 to the last.
func (cm *Colormap) At(x float64) Color {
	lut := cm.defaultLUT()
	return lut.At(lutIndex(x, len(lut)))
}

// Map evaluates every value of xs and returns one (r, g, b, a) row per
// value.
func (cm *Colormap) Map(xs []float64) [][4]float64 {
	return cm.MapInto(make([][4]float64, len(xs)), xs)
}

// MapInto is like Map but writes into dst, which must be at least as long
// as xs. It returns dst[:len(xs)].
func (cm *Colormap) MapInto(dst [][4]float64, xs []float64) [][4]float64 {
	lut := cm.defaultLUT()
	dst = dst[:len(xs)]
	for i, x := range xs {
		dst[i] = lut[lutIndex(x, len(lut))]
	}
	return dst
}

// MapGrid evaluates a two-dimensional array of values.
func (cm *Colormap) MapGrid(grid [][]float64) [][][4]float64 {
	out := make([][][4]float64, len(grid))
	for i, row := range grid {
		out[i] = cm.Map(row)
	}
	return out
}

// Colors samples n colors spanning the colormap from 0 to 1.
func (cm *Colormap) Colors(n int) []Color {
	if n < 1 {
		return nil
	}
	xs := make([]float64, n)
	if n > 1 {
		step := 1 / float64(n-1)
		for i := range xs {
			xs[i] = float64(i) * step
		}
	}
	return cm.ColorsAt(xs)
}

// ColorsAt samples the colormap at the given positions.
func (cm *Colormap) ColorsAt(xs []float64) []Color {
	out := make([]Color, len(xs))
	for i, x := range xs {
		out[i] = cm.At(x)
	}
	return out
}

// Reversed returns a colormap with mirrored stops. A named colormap "x"
// becomes "x_r".
func (cm *Colormap) Reversed() *Colormap {
	name := cm.name
	if name != "" {
		name += "_r"
	}
	return &Colormap{
		name:        name,
		displayName: cm.displayName,
		stops:       cm.stops.Reversed(),
		gamma:       cm.gamma,
		lutSize:     cm.lutSize,
	}
}

// WithGamma returns a colormap with the same stops and a different gamma.
func (cm *Colormap) WithGamma(gamma float64) (*Colormap, error) {
	return New(cm.stops, WithName(cm.name), WithDisplayName(cm.displayName),
		WithLUTSize(cm.lutSize), WithGamma(gamma))
}

// HexStop is a stop rendered as a hex string.
type HexStop struct {
	Position float64 `json:"position"`
	Color    string  `json:"color"`
}

// HexStops returns the stops as (position, hex) pairs.
func (cm *Colormap) HexStops() []HexStop {
	out := make([]HexStop, cm.stops.Len())
	for i := range out {
		s := cm.stops.At(i)
		out[i] = HexStop{Position: s.Position, Color: s.Color.Hex()}
	}
	return out
}

// ToPlotly returns a plotly colorscale: a list of [position, hex] pairs.
func (cm *Colormap) ToPlotly() [][]any {
	hs := cm.HexStops()
	out := make([][]any, len(hs))
	for i, s := range hs {
		out[i] = []any{s.Position, s.Color}
	}
	return out
}

// ToAltair returns an altair scale, the same pairs as ToPlotly.
func (cm *Colormap) ToAltair() [][]any {
	return cm.ToPlotly()
}
