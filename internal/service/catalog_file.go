package service

import (
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/microvis/cmap/pkg/colormap"
	"gopkg.in/yaml.v3"
)

// catalogFile is the YAML layout of a colormap catalog:
//
//	colormaps:
//	  ocean:
//	    display_name: Ocean
//	    colors: ["#001133", [0.4, "teal"], "white"]
//	  fire:
//	    colors: [black, red, yellow]
//	    fill_mode: fractional
//	    gamma: 1.5
//	palettes:
//	  traffic: [green, yellow, red]
type catalogFile struct {
	Colormaps map[string]catalogEntry `yaml:"colormaps"`
	Palettes  map[string][]any        `yaml:"palettes"`
}

type catalogEntry struct {
	DisplayName string  `yaml:"display_name"`
	Colors      any     `yaml:"colors"`
	FillMode    string  `yaml:"fill_mode"`
	Gamma       float64 `yaml:"gamma"`
}

// LoadCatalogFile registers the colormaps and palettes defined in a YAML
// file. The whole file is validated before anything is registered.
func LoadCatalogFile(cat *colormap.Catalog, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read catalog: %w", err)
	}
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return 0, fmt.Errorf("parse catalog %s: %w", path, err)
	}

	names := make([]string, 0, len(file.Colormaps))
	for name := range file.Colormaps {
		names = append(names, name)
	}
	sort.Strings(names)

	maps := make([]*colormap.Colormap, 0, len(names))
	for _, name := range names {
		entry := file.Colormaps[name]
		mode, err := colormap.ParseFillMode(entry.FillMode)
		if err != nil {
			return 0, fmt.Errorf("catalog %s: colormap %q: %w", path, name, err)
		}
		stops, err := colormap.ParseStopsValue(entry.Colors, mode)
		if err != nil {
			return 0, fmt.Errorf("catalog %s: colormap %q: %w", path, name, err)
		}
		gamma := entry.Gamma
		if gamma == 0 {
			gamma = 1
		}
		cm, err := colormap.New(stops,
			colormap.WithName(name),
			colormap.WithDisplayName(entry.DisplayName),
			colormap.WithGamma(gamma))
		if err != nil {
			return 0, fmt.Errorf("catalog %s: colormap %q: %w", path, name, err)
		}
		maps = append(maps, cm)
	}

	palettes := make(map[string]colormap.Palette, len(file.Palettes))
	for name, values := range file.Palettes {
		p := make(colormap.Palette, len(values))
		for i, v := range values {
			like, err := colormap.ColorLikeFromValue(v)
			if err != nil {
				return 0, fmt.Errorf("catalog %s: palette %q color %d: %w", path, name, i, err)
			}
			c, err := colormap.Resolve(like)
			if err != nil {
				return 0, fmt.Errorf("catalog %s: palette %q color %d: %w", path, name, i, err)
			}
			p[i] = c
		}
		palettes[name] = p
	}

	for _, cm := range maps {
		if err := cat.Register(cm); err != nil {
			return 0, fmt.Errorf("catalog %s: %w", path, err)
		}
	}
	for name, p := range palettes {
		if err := cat.RegisterPalette(name, p); err != nil {
			return 0, fmt.Errorf("catalog %s: %w", path, err)
		}
	}
	log.Printf("[Catalog] loaded %d colormaps and %d palettes from %s", len(maps), len(palettes), path)
	return len(maps) + len(palettes), nil
}
