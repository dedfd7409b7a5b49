package colormap

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Catalog is a registry of named colormaps and palettes. It is safe for
// concurrent use.
type Catalog struct {
	mu       sync.RWMutex
	maps     map[string]*Colormap
	palettes map[string]Palette
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		maps:     make(map[string]*Colormap),
		palettes: make(map[string]Palette),
	}
}

// NewBuiltinCatalog returns a catalog holding the built-in colormaps and
// palettes.
func NewBuiltinCatalog() *Catalog {
	c := NewCatalog()
	for name, hexes := range builtinGradients {
		specs := make([]StopSpec, len(hexes))
		for i, h := range hexes {
			specs[i] = Auto(MustParseColor(h))
		}
		cm, err := FromSpecs(specs, WithName(name))
		if err != nil {
			panic("colormap: builtin " + name + ": " + err.Error())
		}
		c.maps[name] = cm
	}
	c.palettes["tab20"] = Tab20
	return c
}

func catalogKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Register adds cm under its name, replacing any previous entry.
func (c *Catalog) Register(cm *Colormap) error {
	key := catalogKey(cm.Name())
	if key == "" {
		return fmt.Errorf("%w: colormap has no name", ErrInvalidArgument)
	}
	if strings.HasSuffix(key, "_r") {
		return fmt.Errorf("%w: name %q is reserved for reversed colormaps", ErrInvalidArgument, key)
	}
	c.mu.Lock()
	c.maps[key] = cm
	c.mu.Unlock()
	return nil
}

// Unregister removes a colormap and reports whether it was present.
func (c *Catalog) Unregister(name string) bool {
	key := catalogKey(name)
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.maps[key]
	delete(c.maps, key)
	return ok
}

// Contains reports whether a colormap is registered under exactly name.
func (c *Catalog) Contains(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.maps[catalogKey(name)]
	return ok
}

// Lookup returns the colormap registered under exactly name, without the
// reversal and single-color fallbacks of Get.
func (c *Catalog) Lookup(name string) (*Colormap, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cm, ok := c.maps[catalogKey(name)]
	return cm, ok
}

// Get resolves a colormap name.
//
// Registered names resolve directly. A "_r" suffix yields the reversed
// colormap. Any other name that is a valid color yields a gradient from
// NoColor to that color (reversed with "_r").
func (c *Catalog) Get(name string) (*Colormap, error) {
	key := catalogKey(name)
	c.mu.RLock()
	cm, ok := c.maps[key]
	c.mu.RUnlock()
	if ok {
		return cm, nil
	}

	base, reversed := strings.CutSuffix(key, "_r")
	if reversed {
		c.mu.RLock()
		cm, ok = c.maps[base]
		c.mu.RUnlock()
		if ok {
			return cm.Reversed(), nil
		}
	}

	col, err := ParseColor(base)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColormap, name)
	}
	specs := []StopSpec{Auto(nil), Auto(col)}
	if reversed {
		specs[0], specs[1] = specs[1], specs[0]
	}
	return FromSpecs(specs, WithName(key))
}

// Names returns the registered colormap names in sorted order.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	names := make([]string, 0, len(c.maps))
	for name := range c.maps {
		names = append(names, name)
	}
	c.mu.RUnlock()
	sort.Strings(names)
	return names
}

// RegisterPalette adds a categorical palette.
func (c *Catalog) RegisterPalette(name string, p Palette) error {
	key := catalogKey(name)
	if key == "" || len(p) == 0 {
		return fmt.Errorf("%w: palette needs a name and at least one color", ErrInvalidArgument)
	}
	c.mu.Lock()
	c.palettes[key] = p
	c.mu.Unlock()
	return nil
}

// Palette returns a registered palette.
func (c *Catalog) Palette(name string) (Palette, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.palettes[catalogKey(name)]
	return p, ok
}

// PaletteNames returns the registered palette names in sorted order.
func (c *Catalog) PaletteNames() []string {
	c.mu.RLock()
	names := make([]string, 0, len(c.palettes))
	for name := range c.palettes {
		names = append(names, name)
	}
	c.mu.RUnlock()
	sort.Strings(names)
	return names
}

// Palette is a list of distinct colors for categorical data.
type Palette []Color

// AtIndex returns color i, wrapping around.
func (p Palette) AtIndex(i int) Color {
	i %= len(p)
	if i < 0 {
		i += len(p)
	}
	return p[i]
}

// At returns the color for t in [0, 1], splitting the range into equal
// bins.
func (p Palette) At(t float64) Color {
	return p[lutIndex(t, len(p))]
}

// Hex returns the palette as hex strings.
func (p Palette) Hex() []string {
	out := make([]string, len(p))
	for i, c := range p {
		out[i] = c.Hex()
	}
	return out
}

// Tab20 is a 20-color categorical palette.
var Tab20 = Palette{
	FromRGBA8(RGBA8{31, 119, 180, 255}),  // blue
	FromRGBA8(RGBA8{255, 127, 14, 255}),  // orange
	FromRGBA8(RGBA8{44, 160, 44, 255}),   // green
	FromRGBA8(RGBA8{214, 39, 40, 255}),   // red
	FromRGBA8(RGBA8{148, 103, 189, 255}), // purple
	FromRGBA8(RGBA8{140, 86, 75, 255}),   // brown
	FromRGBA8(RGBA8{227, 119, 194, 255}), // pink
	FromRGBA8(RGBA8{127, 127, 127, 255}), // gray
	FromRGBA8(RGBA8{188, 189, 34, 255}),  // olive
	FromRGBA8(RGBA8{23, 190, 207, 255}),  // cyan
	FromRGBA8(RGBA8{174, 199, 232, 255}), // light blue
	FromRGBA8(RGBA8{255, 187, 120, 255}), // light orange
	FromRGBA8(RGBA8{152, 223, 138, 255}), // light green
	FromRGBA8(RGBA8{255, 152, 150, 255}), // light red
	FromRGBA8(RGBA8{197, 176, 213, 255}), // light purple
	FromRGBA8(RGBA8{196, 156, 148, 255}), // light brown
	FromRGBA8(RGBA8{247, 182, 210, 255}), // light pink
	FromRGBA8(RGBA8{199, 199, 199, 255}), // light gray
	FromRGBA8(RGBA8{219, 219, 141, 255}), // light olive
	FromRGBA8(RGBA8{158, 218, 229, 255}), // light cyan
}

// builtinGradients are sampled from the matplotlib perceptual colormaps;
// stops are evenly spaced.
var builtinGradients = map[string][]string{
	"viridis": {
		"#440154", "#482374", "#404387", "#345E8D", "#29788E", "#20908C",
		"#22A784", "#44BE70", "#79D151", "#BDDE26", "#FDE725",
	},
	"plasma": {
		"#0D0887", "#4B03A1", "#7D03A8", "#A82296", "#CB4679", "#E56B5D",
		"#F89441", "#FDC328", "#F0F921",
	},
	"inferno": {
		"#000004", "#280B54", "#65156E", "#9F2A63", "#D44842", "#F57D15",
		"#FAC127", "#FCFFA4",
	},
	"magma": {
		"#000004", "#1C1044", "#4F127B", "#812581", "#B5367A", "#E55064",
		"#FB8761", "#FEC287", "#FCFDBF",
	},
	"seurat": {"lightgray", "red"},
	"gray":   {"black", "white"},
}
