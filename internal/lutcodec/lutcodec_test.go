package lutcodec

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/microvis/cmap/pkg/colormap"
)

func testLUT(t *testing.T, n int) colormap.LUT {
	t.Helper()
	cm, err := colormap.FromColors(colormap.Text("navy"), colormap.Text("#ff000080"), colormap.Text("gold"))
	if err != nil {
		t.Fatal(err)
	}
	lut, err := cm.LUT(n)
	if err != nil {
		t.Fatal(err)
	}
	return lut
}

func TestEncodeLayout(t *testing.T) {
	lut := colormap.LUT{{0, 0.5, 1, 1}}
	got := Encode(lut)
	want := []byte{
		'C', 'L', 'U', 'T', 1, 4, 0, 0,
		1, 0, 0, 0,
		0x00, 0x00, 0x00, 0x00, // 0
		0x00, 0x00, 0x00, 0x3f, // 0.5
		0x00, 0x00, 0x80, 0x3f, // 1
		0x00, 0x00, 0x80, 0x3f, // 1
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("Encode = % x\nwant     % x", got, want)
	}
}

func TestRoundTrip(t *testing.T) {
	for _, n := range []int{1, 2, 256, 4096} {
		lut := testLUT(t, n)
		got, err := Decode(Encode(lut))
		if err != nil {
			t.Fatalf("n=%d: %v", n, err)
		}
		if diff := cmp.Diff(lut, got, cmpopts.EquateApprox(0, 1e-7)); diff != "" {
			t.Fatalf("n=%d round trip mismatch (-want +got):\n%s", n, diff)
		}
	}
}

func TestCompressedRoundTrip(t *testing.T) {
	lut := testLUT(t, 4096)
	raw := Encode(lut)
	packed, err := EncodeCompressed(lut)
	if err != nil {
		t.Fatal(err)
	}
	got, err := DecodeCompressed(packed)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(lut, got, cmpopts.EquateApprox(0, 1e-7)); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}

	flat := make(colormap.LUT, 4096)
	for i := range flat {
		flat[i] = [4]float64{1, 0, 0, 1}
	}
	packed, err = EncodeCompressed(flat)
	if err != nil {
		t.Fatal(err)
	}
	if len(packed) >= len(raw)/10 {
		t.Fatalf("compressed size %d of a constant table not below a tenth of %d", len(packed), len(raw))
	}
}

func TestDecodeErrors(t *testing.T) {
	good := Encode(colormap.LUT{{1, 1, 1, 1}, {0, 0, 0, 1}})

	badVersion := append([]byte(nil), good...)
	badVersion[4] = 9

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"bad magic", append([]byte("XLUT"), good[4:]...)},
		{"bad version", badVersion},
		{"truncated", good[:len(good)-1]},
		{"trailing", append(append([]byte(nil), good...), 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode(tt.data); !errors.Is(err, ErrCorrupt) {
				t.Fatalf("Decode error = %v", err)
			}
		})
	}

	if _, err := DecodeCompressed([]byte("not zstd")); err == nil {
		t.Fatal("expected zstd error")
	}
}
