package colormap

import (
	"errors"
	"testing"
)

func TestParseColor(t *testing.T) {
	t.Parallel()

	royal := RGBA8{65, 105, 225, 255}
	tests := []struct {
		name  string
		input ColorLike
		want  RGBA8
	}{
		{"name", Text("royalblue"), royal},
		{"name with space", Text("Royal Blue"), royal},
		{"name with underscore", Text("ROYAL_BLUE"), royal},
		{"color value", MustParseColor("royalblue"), royal},
		{"8-bit channels", Channels{65, 105, 225}, royal},
		{"float channels", Channels{65.0 / 255, 105.0 / 255, 225.0 / 255}, royal},
		{"rgb commas", Text("rgb(65, 105, 225)"), royal},
		{"rgb spaces", Text("rgb(65 105 225)"), royal},
		{"rgb tight", Text("rgb(65,105,225)"), royal},
		{"hex", Text("#4169E1"), royal},
		{"hex lower", Text("#4169e1"), royal},
		{"hex short", Text("#ABC"), RGBA8{170, 187, 204, 255}},
		{"hex short alpha", Text("#ABC8"), RGBA8{170, 187, 204, 136}},
		{"hex int", Hex(0x4169E1), royal},
		{"hex int alpha", Hex(0x4169E133), RGBA8{65, 105, 225, 51}},
		{"0x string", Text("0x4169E133"), RGBA8{65, 105, 225, 51}},
		{"rgb small", Text("rgb(2, 3, 4)"), RGBA8{2, 3, 4, 255}},
		{"rgb percent", Text("rgb(100%, 0%, 0%)"), RGBA8{255, 0, 0, 255}},
		{"rgb none", Text("rgb(100%,none, 0%)"), RGBA8{255, 0, 0, 255}},
		{"rgba float alpha", Text("rgba(2, 3, 4, 0.5)"), RGBA8{2, 3, 4, 128}},
		{"rgba percent alpha", Text("rgba(2,3,4,50%)"), RGBA8{2, 3, 4, 128}},
		{"rgb negative", Text("rgb(-2, 3, 4)"), RGBA8{0, 3, 4, 255}},
		{"rgb above max", Text("rgb(100, 200, 300)"), RGBA8{100, 200, 255, 255}},
		{"rgb negative alpha", Text("rgb(20, 10, 0, -10)"), RGBA8{20, 10, 0, 0}},
		{"rgb percent above max", Text("rgb(100%, 200%, 300%)"), RGBA8{255, 255, 255, 255}},
		{"rgb slash none", Text("rgb(128 none none / none)"), RGBA8{128, 0, 0, 0}},
		{"hsl", Text("hsl(120, 100%, 50%)"), RGBA8{0, 255, 0, 255}},
		{"hsl wrapped hue", Text("hsl(480deg, 100%, 50%)"), RGBA8{0, 255, 0, 255}},
		{"hsla", Text("hsla(120, 100%, 50%, 0.25)"), RGBA8{0, 255, 0, 64}},
		{"hsla slash none", Text("hsla(120, 100%, 50% / none)"), RGBA8{0, 255, 0, 0}},
		{"float rgba", Channels{0, 1, 0, 0}, RGBA8{0, 255, 0, 0}},
		{"8-bit with float alpha", Channels{0, 255, 0, 1}, RGBA8{0, 255, 0, 255}},
		{"short name", Text("r"), RGBA8{255, 0, 0, 255}},
		{"transparent", Text("transparent"), RGBA8{}},
		{"nil", nil, RGBA8{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Resolve(tt.input)
			if err != nil {
				t.Fatalf("Resolve(%v): %v", tt.input, err)
			}
			if got := c.RGBA8(); got != tt.want {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseColorErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  error
	}{
		{"rgb(100%, 200%, 300%, 400%, 500%)", ErrInvalidColorFormat},
		{"rgb(1, 2)", ErrInvalidColorFormat},
		{"rgb(1, 2, x)", ErrInvalidColorFormat},
		{"rgb(1 2 3 4 / 5)", ErrInvalidColorFormat},
		{"rgb(nan, 2, 3)", ErrInvalidColorFormat},
		{"cmyk(1, 2, 3)", ErrInvalidColorFormat},
		{"#12345", ErrInvalidColorFormat},
		{"#GGGGGG", ErrInvalidColorFormat},
		{"0x12", ErrInvalidColorFormat},
		{"", ErrInvalidColorFormat},
		{"seven", ErrUnknownColorName},
	}
	for _, tt := range tests {
		if _, err := ParseColor(tt.input); !errors.Is(err, tt.want) {
			t.Errorf("ParseColor(%q) error = %v, want %v", tt.input, err, tt.want)
		}
	}

	if _, err := FromChannels([]float64{1, 2}); !errors.Is(err, ErrInvalidColorFormat) {
		t.Errorf("expected ErrInvalidColorFormat for 2 channels, got %v", err)
	}
	if _, err := ColorLikeFromValue(1.2); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("expected ErrTypeMismatch for a bare float, got %v", err)
	}
	if _, err := ColorLikeFromValue(true); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("expected ErrTypeMismatch for a bool, got %v", err)
	}
}

func TestColorConversions(t *testing.T) {
	t.Parallel()

	start := RGBA8{59, 84, 226, 153}
	c := FromRGBA8(start)
	if got := c.RGBA8(); got != start {
		t.Fatalf("8-bit round trip: got %v", got)
	}

	h, s, l := c.HSL()
	if got := FromHSL(h, s, l, c.A()).RGBA8(); got != start {
		t.Fatalf("HSL round trip: got %v", got)
	}
	if int(h) != 231 {
		t.Fatalf("expected hue 231, got %v", h)
	}
	hv, sv, vv := c.HSV()
	if got := FromHSV(hv, sv, vv, c.A()).RGBA8(); got != start {
		t.Fatalf("HSV round trip: got %v", got)
	}

	if got := c.Hex(); got != "#3B54E299" {
		t.Fatalf("Hex() = %q", got)
	}
	if got := c.String(); got != "#3B54E299" {
		t.Fatalf("String() = %q", got)
	}
	if got := RGB(1, 0, 0).Hex(); got != "#FF0000" {
		t.Fatalf("opaque Hex() = %q", got)
	}
}

func TestHexRoundTrip(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"royalblue", "rgb(100%, 0%, 0%)", "hsla(200, 40%, 30%, 0.3)",
		"#ABC8", "rgba(2,3,4,50%)", "hsl(17.3, 33.3%, 66.6%)",
	}
	for _, in := range inputs {
		c, err := ParseColor(in)
		if err != nil {
			t.Fatalf("ParseColor(%q): %v", in, err)
		}
		once, err := ParseColor(c.Hex())
		if err != nil {
			t.Fatalf("ParseColor(%q): %v", c.Hex(), err)
		}
		twice, err := ParseColor(once.Hex())
		if err != nil {
			t.Fatalf("ParseColor(%q): %v", once.Hex(), err)
		}
		if once != twice {
			t.Errorf("%q: hex round trip not idempotent: %v != %v", in, once, twice)
		}
		if once.RGBA8() != c.RGBA8() {
			t.Errorf("%q: hex changed the 8-bit value: %v != %v", in, once.RGBA8(), c.RGBA8())
		}
	}
}

func TestColorEquality(t *testing.T) {
	t.Parallel()

	a := MustParseColor("red")
	b := MustParseColor("#FF0000")
	if a != b || !a.Equal(b) {
		t.Fatalf("expected %v == %v", a, b)
	}
	if a == a.WithAlpha(0.5) {
		t.Fatal("alpha must take part in equality")
	}
}

func TestColorImplementsImageColor(t *testing.T) {
	t.Parallel()

	c := FromFloats(1, 0.5, 0, 0.5)
	r, g, b, a := c.RGBA()
	if a != 0x8000 || r != 0x8000 || b != 0 || g != 0x4000 {
		t.Fatalf("unexpected premultiplied values %x %x %x %x", r, g, b, a)
	}
	opaque := MustParseColor("royalblue")
	if back := FromColor(opaque); back.RGBA8() != opaque.RGBA8() {
		t.Fatalf("FromColor round trip: %v != %v", back.RGBA8(), opaque.RGBA8())
	}
}

func TestFromFloatsClamps(t *testing.T) {
	t.Parallel()

	c := FromFloats(-1, 2, 0.5, 7)
	if c.R() != 0 || c.G() != 1 || c.B() != 0.5 || c.A() != 1 {
		t.Fatalf("unexpected channels %v", c.Floats())
	}
}

func TestLookupName(t *testing.T) {
	t.Parallel()

	if _, ok := LookupName("not-a-color"); ok {
		t.Fatal("expected lookup to fail")
	}
	c, ok := LookupName("  LightGray ")
	if !ok || c.RGBA8() != (RGBA8{211, 211, 211, 255}) {
		t.Fatalf("LookupName(lightgray) = %v, %v", c, ok)
	}
	found := false
	for _, n := range ColorNames() {
		if n == "royalblue" {
			found = true
		}
	}
	if !found {
		t.Fatal("ColorNames should contain royalblue")
	}
}
