package colormap

import (
	"strings"
	"unicode"

	"golang.org/x/image/colornames"
	"golang.org/x/text/cases"
)

// shortNames are the single-letter color codes familiar from plotting
// libraries. They take precedence over the CSS table.
var shortNames = map[string]Color{
	"b": RGB(0, 0, 1),
	"g": RGB(0, 0.5, 0),
	"r": RGB(1, 0, 0),
	"c": RGB(0, 0.75, 0.75),
	"m": RGB(0.75, 0, 0.75),
	"y": RGB(0.75, 0.75, 0),
	"k": RGB(0, 0, 0),
	"w": RGB(1, 1, 1),
}

// LookupName resolves a color name. Case, whitespace, '_' and '-' are
// ignored, so "Royal Blue" and "royal_blue" both find "royalblue".
func LookupName(name string) (Color, bool) {
	key := normalizeName(name)
	if c, ok := shortNames[key]; ok {
		return c, true
	}
	if key == "transparent" {
		return NoColor, true
	}
	c, ok := colornames.Map[key]
	if !ok {
		return NoColor, false
	}
	return FromRGBA8(RGBA8{R: c.R, G: c.G, B: c.B, A: c.A}), true
}

// ColorNames returns every name accepted by LookupName, in no particular
// order.
func ColorNames() []string {
	names := make([]string, 0, len(colornames.Names)+len(shortNames)+1)
	names = append(names, colornames.Names...)
	for k := range shortNames {
		names = append(names, k)
	}
	return append(names, "transparent")
}

func normalizeName(name string) string {
	// A Caser keeps state and must not be shared between goroutines.
	folded := cases.Fold().String(name)
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '_' || r == '-' {
			return -1
		}
		return r
	}, folded)
}
