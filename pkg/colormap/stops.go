package colormap

import (
	"fmt"
	"math"
	"strings"
)

// ColorStop is one anchor of a color gradient.
type ColorStop struct {
	Position float64
	Color    Color
}

// ColorStops is an immutable sequence of color stops sorted by position.
// Internally it is an (N, 5) table of (position, r, g, b, a) rows.
type ColorStops struct {
	rows [][5]float64
}

// FillMode selects how ParseStops assigns positions to stops given without
// one.
type FillMode int

const (
	// FillNeighboring spaces unset positions evenly between the nearest
	// explicitly positioned neighbors.
	FillNeighboring FillMode = iota
	// FillFractional places an unset stop at index/(count-1).
	FillFractional
)

// ParseFillMode maps "neighboring" (or "") and "fractional" to a FillMode.
func ParseFillMode(s string) (FillMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "neighboring":
		return FillNeighboring, nil
	case "fractional":
		return FillFractional, nil
	}
	return 0, fmt.Errorf("%w: fill mode must be 'neighboring' or 'fractional', not %q", ErrInvalidArgument, s)
}

func (m FillMode) String() string {
	switch m {
	case FillNeighboring:
		return "neighboring"
	case FillFractional:
		return "fractional"
	}
	return fmt.Sprintf("FillMode(%d)", int(m))
}

// StopSpec is one entry of a color stop specification: a color with an
// optional position. Build it with Auto, At or Full.
type StopSpec struct {
	pos    float64
	hasPos bool
	color  ColorLike
}

// Auto is a stop whose position is filled in by ParseStops.
func Auto(c ColorLike) StopSpec {
	return StopSpec{color: c}
}

// At is a stop at an explicit position.
func At(pos float64, c ColorLike) StopSpec {
	return StopSpec{pos: pos, hasPos: true, color: c}
}

// Full is a stop given as (position, r, g, b, a).
func Full(v [5]float64) StopSpec {
	return At(v[0], Channels(v[1:]))
}

// Position returns the explicit position, if any.
func (s StopSpec) Position() (float64, bool) {
	return s.pos, s.hasPos
}

// NewColorStops validates stops and wraps them. Positions must be finite,
// within [0, 1] and non-decreasing.
func NewColorStops(stops []ColorStop) (*ColorStops, error) {
	rows := make([][5]float64, len(stops))
	for i, s := range stops {
		rows[i] = [5]float64{s.Position, s.Color.r, s.Color.g, s.Color.b, s.Color.a}
	}
	if err := validateRows(rows); err != nil {
		return nil, err
	}
	return &ColorStops{rows: rows}, nil
}

// StopsFromArray builds stops from (position, r, g, b, a) rows. Color
// channels are clamped to [0, 1].
func StopsFromArray(rows [][5]float64) (*ColorStops, error) {
	out := make([][5]float64, len(rows))
	for i, r := range rows {
		out[i] = [5]float64{r[0], clip01(r[1]), clip01(r[2]), clip01(r[3]), clip01(r[4])}
	}
	if err := validateRows(out); err != nil {
		return nil, err
	}
	return &ColorStops{rows: out}, nil
}

func validateRows(rows [][5]float64) error {
	if len(rows) == 0 {
		return fmt.Errorf("%w: no stops", ErrInvalidColorStops)
	}
	for i, r := range rows {
		p := r[0]
		if math.IsNaN(p) || p < 0 || p > 1 {
			return fmt.Errorf("%w: stop %d has position %v outside [0, 1]", ErrInvalidColorStops, i, p)
		}
		if i > 0 && p < rows[i-1][0] {
			return fmt.Errorf("%w: stop %d at %v precedes stop %d at %v", ErrInvalidColorStops, i, p, i-1, rows[i-1][0])
		}
	}
	return nil
}

// ParseStops resolves every spec's color and fills in missing positions
// according to mode.
//
// An empty list is an error. A single spec is treated as a gradient from
// NoColor to that color. With FillNeighboring the first and last stops
// default to 0 and 1 and runs of unset positions are spaced evenly between
// their set neighbors, e.g. [r, y, (0.8, g), b] gives (0, 0.4, 0.8, 1).
// With FillFractional the same list gives (0, 1/3, 0.8, 1).
func ParseStops(specs []StopSpec, mode FillMode) (*ColorStops, error) {
	if mode != FillNeighboring && mode != FillFractional {
		return nil, fmt.Errorf("%w: unknown fill mode %v", ErrInvalidArgument, mode)
	}
	switch len(specs) {
	case 0:
		return nil, fmt.Errorf("%w: at least one color is required", ErrInvalidColorStops)
	case 1:
		specs = []StopSpec{Auto(nil), specs[0]}
	}

	n := len(specs)
	positions := make([]float64, n)
	set := make([]bool, n)
	colors := make([]Color, n)
	for i, s := range specs {
		c, err := Resolve(s.color)
		if err != nil {
			return nil, fmt.Errorf("color stop %d: %w", i, err)
		}
		colors[i] = c
		positions[i], set[i] = s.pos, s.hasPos
	}

	if mode == FillFractional {
		for i := range positions {
			if !set[i] {
				positions[i] = float64(i) / float64(n-1)
			}
		}
	} else {
		fillNeighboring(positions, set)
	}

	stops := make([]ColorStop, n)
	for i := range stops {
		stops[i] = ColorStop{Position: positions[i], Color: colors[i]}
	}
	return NewColorStops(stops)
}

// ParseStopsString treats a single color string as a gradient from NoColor
// to that color.
func ParseStopsString(s string) (*ColorStops, error) {
	return ParseStops([]StopSpec{Auto(nil), Auto(Text(s))}, FillNeighboring)
}

// fillNeighboring fills positions where set is false. set is not modified.
func fillNeighboring(pos []float64, set []bool) {
	n := len(pos)
	if n == 0 {
		return
	}
	if !set[0] {
		pos[0] = 0
	}
	if !set[n-1] {
		pos[n-1] = 1
	}
	last := 0
	for i := 1; i < n; i++ {
		if i != n-1 && !set[i] {
			continue
		}
		if gap := i - last; gap > 1 {
			step := (pos[i] - pos[last]) / float64(gap)
			for k := last + 1; k < i; k++ {
				pos[k] = pos[last] + float64(k-last)*step
			}
		}
		last = i
	}
}

func (s *ColorStops) Len() int {
	return len(s.rows)
}

// At returns the i-th stop. It panics if i is out of range.
func (s *ColorStops) At(i int) ColorStop {
	r := s.rows[i]
	return ColorStop{Position: r[0], Color: Color{r: r[1], g: r[2], b: r[3], a: r[4]}}
}

// Slice returns the stops in [i, j) as a new ColorStops sharing storage.
// It panics if the bounds are out of range.
func (s *ColorStops) Slice(i, j int) *ColorStops {
	return &ColorStops{rows: s.rows[i:j:j]}
}

// Positions returns the stop positions.
func (s *ColorStops) Positions() []float64 {
	out := make([]float64, len(s.rows))
	for i, r := range s.rows {
		out[i] = r[0]
	}
	return out
}

// Colors returns the stop colors.
func (s *ColorStops) Colors() []Color {
	out := make([]Color, len(s.rows))
	for i := range s.rows {
		out[i] = s.At(i).Color
	}
	return out
}

// Array returns a copy of the (N, 5) table of (position, r, g, b, a) rows.
func (s *ColorStops) Array() [][5]float64 {
	out := make([][5]float64, len(s.rows))
	copy(out, s.rows)
	return out
}

// Reversed mirrors the gradient: a stop at p moves to 1-p.
func (s *ColorStops) Reversed() *ColorStops {
	n := len(s.rows)
	out := make([][5]float64, n)
	for i, r := range s.rows {
		r[0] = 1 - r[0]
		out[n-1-i] = r
	}
	return &ColorStops{rows: out}
}

// ToLUT interpolates an (n, 4) lookup table between the stops.
func (s *ColorStops) ToLUT(n int, gamma float64) (LUT, error) {
	return StopsToLUT(n, s.rows, gamma)
}

// SegmentData splits the stops into per-channel segments, anchored at 0 and
// 1, suitable for SegmentLUT.
func (s *ColorStops) SegmentData() SegmentData {
	rows := anchorRows(s.rows)
	var sd SegmentData
	for c, dst := range []*[]Segment{&sd.Red, &sd.Green, &sd.Blue, &sd.Alpha} {
		segs := make([]Segment, len(rows))
		for i, r := range rows {
			segs[i] = Segment{X: r[0], Y0: r[c+1], Y1: r[c+1]}
		}
		*dst = segs
	}
	return sd
}

func (s *ColorStops) String() string {
	var b strings.Builder
	b.WriteString("ColorStops(")
	for i := range s.rows {
		st := s.At(i)
		fmt.Fprintf(&b, "\n  (%g, %s),", st.Position, st.Color.Hex())
	}
	b.WriteString("\n)")
	return b.String()
}
