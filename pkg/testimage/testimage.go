// Package testimage generates images for judging the perceptual quality of
// colormaps.
//
// Sineramp and CircleSineramp follow the MATLAB functions of the same name
// by Peter Kovesi (https://www.peterkovesi.com/matlabfns/, MIT License).
package testimage

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidSize reports image dimensions too small to generate.
var ErrInvalidSize = errors.New("invalid test image size")

// Sineramp returns a rows×cols image of a sine wave superimposed on a ramp.
//
// The sine amplitude is amp at the top row and falls to 0 at the bottom
// following ((rows-1-r)/(rows-1))^power. The number of columns is adjusted
// so the image holds a whole number of wavelengths. Every row is
// normalized to span [0, 1]. A good colormap shows the sine pattern equally
// well across its whole range and no features along the bottom row.
func Sineramp(rows, cols int, amp, wavelen, power float64) ([][]float64, error) {
	if rows < 2 || cols < 2 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, rows, cols)
	}
	if !(wavelen > 0) {
		return nil, fmt.Errorf("%w: wavelength %v", ErrInvalidSize, wavelen)
	}
	cycles := math.Round(float64(cols) / wavelen)
	cols = int(cycles * wavelen)
	if cols < 2 {
		return nil, fmt.Errorf("%w: wavelength %v leaves %d columns", ErrInvalidSize, wavelen, cols)
	}

	fx := make([]float64, cols)
	for x := range fx {
		fx[x] = amp * math.Sin(2*math.Pi*float64(x)/wavelen)
	}

	im := make([][]float64, rows)
	for r := range im {
		a := math.Pow(float64(rows-1-r)/float64(rows-1), power)
		row := make([]float64, cols)
		for x := range row {
			ramp := float64(x) / float64(cols-1)
			row[x] = a*fx[x] + ramp*(1-2*amp)
		}
		normalizeRow(row)
		im[r] = row
	}
	return im, nil
}

// CircleSineramp returns a size×size image for judging cyclic colormaps: a
// spiral ramp from 0 (pointing right) to 2π anticlockwise with a sine wave
// whose amplitude grows from the center outwards. Values lie in [0, 2π);
// pixels outside the annulus are NaN.
func CircleSineramp(size int, amp, wavelen, power float64, hole bool) ([][]float64, error) {
	if size < 2 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}
	if !(wavelen > 0) {
		return nil, fmt.Errorf("%w: wavelength %v", ErrInvalidSize, wavelen)
	}
	fsize := float64(size)
	maxr := fsize / 2 * 0.9
	minr := 0.0
	if hole {
		minr = 0.15 * fsize
	}
	meanr := (maxr + minr) / 2
	cycles := math.Round(2 * math.Pi * meanr / wavelen)

	im := make([][]float64, size)
	for i := range im {
		row := make([]float64, size)
		y := float64(i) - fsize/2
		for j := range row {
			x := float64(j) - fsize/2
			theta := mod(math.Atan2(-y, x), 2*math.Pi)
			rad := (math.Hypot(x, y) - minr) / (maxr - minr)
			if rad > 1 || (hole && rad < 0) {
				row[j] = math.NaN()
				continue
			}
			v := amp*math.Pow(rad, power)*math.Sin(cycles*theta) + theta
			row[j] = mod(v, 2*math.Pi)
		}
		im[i] = row
	}
	return im, nil
}

// Normalize rescales values from [lo, hi] to [0, 1] in place. NaN values
// are left alone.
func Normalize(im [][]float64, lo, hi float64) {
	span := hi - lo
	if span == 0 {
		span = 1
	}
	for _, row := range im {
		for i, v := range row {
			row[i] = (v - lo) / span
		}
	}
}

func normalizeRow(row []float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range row {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	span := hi - lo
	for i := range row {
		row[i] -= lo
		if span > 0 {
			row[i] /= span
		}
	}
}

// mod is the floored modulus; the result has the sign of m.
func mod(a, m float64) float64 {
	r := math.Mod(a, m)
	if r < 0 {
		r += m
	}
	if r >= m {
		r = 0
	}
	return r
}
