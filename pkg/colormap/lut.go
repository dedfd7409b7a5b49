package colormap

import (
	"fmt"
	"math"
	"sort"
)

// LUT is a lookup table of colors sampled at evenly spaced positions from 0
// to 1 inclusive. Each row is (r, g, b, a) in [0, 1].
type LUT [][4]float64

func (l LUT) Len() int {
	return len(l)
}

// At returns row i as a Color. It panics if i is out of range.
func (l LUT) At(i int) Color {
	r := l[i]
	return Color{r: r[0], g: r[1], b: r[2], a: r[3]}
}

// Colors returns every row as a Color.
func (l LUT) Colors() []Color {
	out := make([]Color, len(l))
	for i := range l {
		out[i] = l.At(i)
	}
	return out
}

// Index maps x in [0, 1] to a row index: x*N truncated toward zero, with
// x < 0 (and NaN) giving 0 and x >= 1 giving N-1.
func (l LUT) Index(x float64) int {
	return lutIndex(x, len(l))
}

func lutIndex(x float64, n int) int {
	v := x * float64(n)
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v >= float64(n):
		return n - 1
	}
	return int(v)
}

// Segment is one control point of a single channel: the value approaching
// X from below is Y0 and the value leaving X is Y1.
type Segment struct {
	X, Y0, Y1 float64
}

// SegmentData holds per-channel control points.
type SegmentData struct {
	Red, Green, Blue, Alpha []Segment
}

// anchorRows makes sure the first row sits at 0 and the last at 1, copying
// the boundary colors when needed.
func anchorRows(rows [][5]float64) [][5]float64 {
	out := make([][5]float64, 0, len(rows)+2)
	if first := rows[0]; first[0] != 0 {
		first[0] = 0
		out = append(out, first)
	}
	out = append(out, rows...)
	if last := rows[len(rows)-1]; last[0] != 1 {
		last[0] = 1
		out = append(out, last)
	}
	return out
}

func checkLUTArgs(n int, gamma float64) error {
	if n < 1 {
		return fmt.Errorf("%w: lut size must be positive, got %d", ErrInvalidArgument, n)
	}
	if !(gamma > 0) || math.IsInf(gamma, 0) {
		return fmt.Errorf("%w: gamma must be positive and finite, got %v", ErrInvalidArgument, gamma)
	}
	return nil
}

// sampleGrid returns the interior sample positions, in LUT index units, of
// an n-row table with the given gamma. gamma > 1 packs samples toward the
// low end.
func sampleGrid(n int, gamma float64) []float64 {
	scale := float64(n - 1)
	step := 1 / scale
	grid := make([]float64, 0, n-2)
	for i := 1; i < n-1; i++ {
		grid = append(grid, scale*math.Pow(float64(i)*step, gamma))
	}
	return grid
}

// bracket returns the index k such that xs[k-1] < x <= xs[k], clamped to
// [1, len(xs)-1], and the fractional distance of x between the two.
// A sample exactly at a duplicated position brackets the pair ending at
// the first duplicate, so it takes the earlier stop's color. Coincident
// brackets only remain after clamping and yield a distance of 1.
func bracket(xs []float64, x float64) (int, float64) {
	k := sort.SearchFloat64s(xs, x)
	if k < 1 {
		k = 1
	} else if k > len(xs)-1 {
		k = len(xs) - 1
	}
	x0, x1 := xs[k-1], xs[k]
	if x1 <= x0 {
		return k, 1
	}
	return k, (x - x0) / (x1 - x0)
}

// StopsToLUT converts (position, r, g, b, a) rows into an n-row LUT.
//
// Rows are anchored at positions 0 and 1 by repeating the boundary colors.
// For n == 1 the table holds the color at position 1. Otherwise the first
// and last rows take the boundary colors and interior rows are linearly
// interpolated between the bracketing stops on a gamma-corrected grid. All
// values are clipped to [0, 1].
func StopsToLUT(n int, rows [][5]float64, gamma float64) (LUT, error) {
	if err := checkLUTArgs(n, gamma); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no stops", ErrInvalidColorStops)
	}
	data := anchorRows(rows)
	for i := 1; i < len(data); i++ {
		if !(data[i][0] >= data[i-1][0]) {
			return nil, fmt.Errorf("%w: stops must be in ascending position order", ErrInvalidColorStops)
		}
	}

	lut := make(LUT, n)
	last := data[len(data)-1]
	if n == 1 {
		lut[0] = clipRow(last)
		return lut, nil
	}

	xs := make([]float64, len(data))
	for i, r := range data {
		xs[i] = r[0] * float64(n-1)
	}
	lut[0] = clipRow(data[0])
	for i, x := range sampleGrid(n, gamma) {
		k, frac := bracket(xs, x)
		lo, hi := data[k-1], data[k]
		var row [4]float64
		for c := range row {
			row[c] = clip01(lo[c+1] + frac*(hi[c+1]-lo[c+1]))
		}
		lut[i+1] = row
	}
	lut[n-1] = clipRow(last)
	return lut, nil
}

// SegmentLUT builds an n-entry table for one channel from segment data.
// The first segment must be at x = 0 and the last at x = 1, with x
// non-decreasing in between. Between control points the value runs from
// the left point's Y1 to the right point's Y0.
func SegmentLUT(n int, segs []Segment, gamma float64) ([]float64, error) {
	if err := checkLUTArgs(n, gamma); err != nil {
		return nil, err
	}
	if len(segs) < 2 || segs[0].X != 0 || segs[len(segs)-1].X != 1 {
		return nil, fmt.Errorf("%w: segment data must start with x=0 and end with x=1", ErrInvalidColorStops)
	}
	for i := 1; i < len(segs); i++ {
		if !(segs[i].X >= segs[i-1].X) {
			return nil, fmt.Errorf("%w: segment data must have x in increasing order", ErrInvalidColorStops)
		}
	}

	out := make([]float64, n)
	last := segs[len(segs)-1]
	if n == 1 {
		out[0] = clip01(last.Y0)
		return out, nil
	}
	xs := make([]float64, len(segs))
	for i, s := range segs {
		xs[i] = s.X * float64(n-1)
	}
	out[0] = clip01(segs[0].Y1)
	for i, x := range sampleGrid(n, gamma) {
		k, frac := bracket(xs, x)
		out[i+1] = clip01(frac*(segs[k].Y0-segs[k-1].Y1) + segs[k-1].Y1)
	}
	out[n-1] = clip01(last.Y0)
	return out, nil
}

func clipRow(r [5]float64) [4]float64 {
	return [4]float64{clip01(r[1]), clip01(r[2]), clip01(r[3]), clip01(r[4])}
}
