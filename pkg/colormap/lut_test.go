package colormap

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func rows(t *testing.T, specs ...StopSpec) [][5]float64 {
	t.Helper()
	return mustStops(t, specs, FillNeighboring).Array()
}

func column(lut LUT, c int) []float64 {
	out := make([]float64, len(lut))
	for i, r := range lut {
		out[i] = r[c]
	}
	return out
}

func TestStopsToLUTShapeAndRange(t *testing.T) {
	t.Parallel()

	data := rows(t, Auto(Text("navy")), At(0.3, Text("#ff000080")), Auto(Text("gold")), Auto(Channels{1, 1, 1, 0.2}))
	for _, n := range []int{2, 3, 16, 256, 1000} {
		for _, gamma := range []float64{0.5, 1, 2.2} {
			lut, err := StopsToLUT(n, data, gamma)
			if err != nil {
				t.Fatalf("n=%d gamma=%v: %v", n, gamma, err)
			}
			if lut.Len() != n {
				t.Fatalf("n=%d: got %d rows", n, lut.Len())
			}
			for i, r := range lut {
				for _, v := range r {
					if !(v >= 0 && v <= 1) {
						t.Fatalf("n=%d gamma=%v: row %d out of range: %v", n, gamma, i, r)
					}
				}
			}
			if lut.At(0) != MustParseColor("navy") || lut.At(n-1) != FromFloats(1, 1, 1, 0.2) {
				t.Fatalf("n=%d: boundary rows %v %v", n, lut.At(0), lut.At(n-1))
			}
		}
	}
}

func TestStopsToLUTSingleRow(t *testing.T) {
	t.Parallel()

	lut, err := StopsToLUT(1, rows(t, Auto(Text("black")), Auto(Text("white"))), 1)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(LUT{{1, 1, 1, 1}}, lut); diff != "" {
		t.Fatalf("lut mismatch (-want +got):\n%s", diff)
	}
}

func TestStopsToLUTGamma(t *testing.T) {
	t.Parallel()

	data := rows(t, Auto(Text("black")), Auto(Text("white")))
	tests := []struct {
		gamma float64
		want  []float64
	}{
		{1, []float64{0, 0.25, 0.5, 0.75, 1}},
		{2, []float64{0, 0.0625, 0.25, 0.5625, 1}},
	}
	for _, tt := range tests {
		lut, err := StopsToLUT(5, data, tt.gamma)
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(tt.want, column(lut, 0)); diff != "" {
			t.Fatalf("gamma %v: red channel mismatch (-want +got):\n%s", tt.gamma, diff)
		}
		if diff := cmp.Diff([]float64{1, 1, 1, 1, 1}, column(lut, 3)); diff != "" {
			t.Fatalf("gamma %v: alpha channel mismatch (-want +got):\n%s", tt.gamma, diff)
		}
	}
}

func TestStopsToLUTAnchorsBoundaryColors(t *testing.T) {
	t.Parallel()

	lut, err := StopsToLUT(5, rows(t, At(0.25, Text("red")), At(0.75, Text("blue"))), 1)
	if err != nil {
		t.Fatal(err)
	}
	want := LUT{
		{1, 0, 0, 1},
		{1, 0, 0, 1},
		{0.5, 0, 0.5, 1},
		{0, 0, 1, 1},
		{0, 0, 1, 1},
	}
	if diff := cmp.Diff(want, lut); diff != "" {
		t.Fatalf("lut mismatch (-want +got):\n%s", diff)
	}
}

func TestStopsToLUTCoincidentStops(t *testing.T) {
	t.Parallel()

	for _, data := range [][][5]float64{
		rows(t, At(0, Text("black")), At(0.5, Text("black")), At(0.5, Text("white")), At(1, Text("white"))),
		rows(t, At(0.5, Text("black")), At(0.5, Text("white"))),
	} {
		lut, err := StopsToLUT(11, data, 1)
		if err != nil {
			t.Fatal(err)
		}
		for i, r := range lut {
			for _, v := range r {
				if math.IsNaN(v) {
					t.Fatalf("row %d has NaN: %v", i, r)
				}
			}
		}
		if lut.At(5) != RGB(0, 0, 0) || lut.At(6) != RGB(1, 1, 1) {
			t.Fatalf("expected a hard step between rows 5 and 6, got %v %v", lut.At(5), lut.At(6))
		}
	}
}

func TestStopsToLUTDuplicatePositionTakesEarlierStop(t *testing.T) {
	t.Parallel()

	data := rows(t, At(0, Text("black")), At(0.5, Text("black")), At(0.5, Text("white")), At(1, Text("white")))
	lut, err := StopsToLUT(3, data, 1)
	if err != nil {
		t.Fatal(err)
	}
	if lut[1] != [4]float64{0, 0, 0, 1} {
		t.Fatalf("sample at the duplicated position = %v, want black", lut[1])
	}
}

func TestStopsToLUTErrors(t *testing.T) {
	t.Parallel()

	good := [][5]float64{{0, 0, 0, 0, 1}, {1, 1, 1, 1, 1}}
	tests := []struct {
		name  string
		n     int
		rows  [][5]float64
		gamma float64
		want  error
	}{
		{"zero size", 0, good, 1, ErrInvalidArgument},
		{"negative size", -3, good, 1, ErrInvalidArgument},
		{"zero gamma", 8, good, 0, ErrInvalidArgument},
		{"negative gamma", 8, good, -1, ErrInvalidArgument},
		{"nan gamma", 8, good, math.NaN(), ErrInvalidArgument},
		{"inf gamma", 8, good, math.Inf(1), ErrInvalidArgument},
		{"no rows", 8, nil, 1, ErrInvalidColorStops},
		{"decreasing", 8, [][5]float64{{0.6, 0, 0, 0, 1}, {0.3, 1, 1, 1, 1}}, 1, ErrInvalidColorStops},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := StopsToLUT(tt.n, tt.rows, tt.gamma); !errors.Is(err, tt.want) {
				t.Fatalf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSegmentLUTMatchesStopsToLUT(t *testing.T) {
	t.Parallel()

	s := mustStops(t, []StopSpec{
		At(0.1, Text("red")),
		At(0.3, Text("lime")),
		At(0.7, Text("#0000ff80")),
		At(0.9, Text("white")),
	}, FillNeighboring)
	sd := s.SegmentData()

	for _, gamma := range []float64{1, 1.5} {
		lut, err := s.ToLUT(64, gamma)
		if err != nil {
			t.Fatal(err)
		}
		for c, segs := range [][]Segment{sd.Red, sd.Green, sd.Blue, sd.Alpha} {
			got, err := SegmentLUT(64, segs, gamma)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(column(lut, c), got, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
				t.Fatalf("gamma %v channel %d mismatch (-stops +segments):\n%s", gamma, c, diff)
			}
		}
	}
}

func TestSegmentLUTDiscontinuity(t *testing.T) {
	t.Parallel()

	segs := []Segment{{X: 0, Y0: 0, Y1: 0}, {X: 0.5, Y0: 0.5, Y1: 1}, {X: 1, Y0: 1, Y1: 1}}
	got, err := SegmentLUT(5, segs, 1)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]float64{0, 0.25, 0.5, 1, 1}, got); diff != "" {
		t.Fatalf("segment lut mismatch (-want +got):\n%s", diff)
	}

	bad := [][]Segment{
		{{X: 0.1}, {X: 1}},
		{{X: 0}, {X: 0.9}},
		{{X: 0}, {X: 0.6}, {X: 0.4}, {X: 1}},
		{{X: 0}},
	}
	for _, segs := range bad {
		if _, err := SegmentLUT(5, segs, 1); !errors.Is(err, ErrInvalidColorStops) {
			t.Errorf("SegmentLUT(%v) error = %v", segs, err)
		}
	}
}

func TestLUTIndex(t *testing.T) {
	t.Parallel()

	lut := make(LUT, 4)
	tests := []struct {
		x    float64
		want int
	}{
		{math.NaN(), 0},
		{math.Inf(-1), 0},
		{-0.1, 0},
		{0, 0},
		{0.24, 0},
		{0.25, 1},
		{0.49, 1},
		{0.5, 2},
		{0.999, 3},
		{1, 3},
		{2, 3},
		{math.Inf(1), 3},
	}
	for _, tt := range tests {
		if got := lut.Index(tt.x); got != tt.want {
			t.Errorf("Index(%v) = %d, want %d", tt.x, got, tt.want)
		}
	}
}

func TestLUTLuminanceRamp(t *testing.T) {
	t.Parallel()

	lut, err := StopsToLUT(256, rows(t,
		Auto(Text("blue")),
		At(0.001, Text("black")),
		At(0.999, Text("white")),
		Auto(Text("red")),
	), 1)
	if err != nil {
		t.Fatal(err)
	}
	if lut.At(0) != RGB(0, 0, 1) || lut.At(255) != RGB(1, 0, 0) {
		t.Fatalf("unexpected boundary colors %v %v", lut.At(0), lut.At(255))
	}
	prev := -1.0
	for i := 1; i < 255; i++ {
		y := lut.At(i).Luminance()
		if y < prev {
			t.Fatalf("luminance decreases at row %d: %v < %v", i, y, prev)
		}
		prev = y
	}
	if lut.At(1).Luminance() > 0.01 || lut.At(254).Luminance() < 0.98 {
		t.Fatalf("inner ramp should run from near black to near white")
	}
}
