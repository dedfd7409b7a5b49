// Command cmapview prints colormaps as truecolor swatches in the terminal.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/microvis/cmap/internal/service"
	"github.com/microvis/cmap/pkg/colormap"
	"golang.org/x/term"
)

func main() {
	width := flag.Int("width", 0, "Swatch width in columns (default: terminal width)")
	gamma := flag.Float64("gamma", 0, "Gamma override (0 keeps the colormap's own)")
	catalogPath := flag.String("catalog", "", "YAML catalog with additional colormaps")
	list := flag.Bool("list", false, "Show every registered colormap")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: cmapview [flags] [name|color...]\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	log.SetFlags(0)

	catalog := colormap.NewBuiltinCatalog()
	if *catalogPath != "" {
		if _, err := service.LoadCatalogFile(catalog, *catalogPath); err != nil {
			log.Fatalf("cmapview: %v", err)
		}
	}

	names := flag.Args()
	if *list {
		names = catalog.Names()
	}
	if len(names) == 0 {
		names = []string{"viridis"}
	}

	cols := *width
	if cols <= 0 {
		cols = terminalWidth()
	}

	labelWidth := 0
	for _, name := range names {
		labelWidth = max(labelWidth, len(name))
	}

	for _, name := range names {
		cm, err := catalog.Get(name)
		if err == nil && *gamma != 0 {
			cm, err = cm.WithGamma(*gamma)
		}
		if err != nil {
			log.Fatalf("cmapview: %v", err)
		}
		writeSwatch(os.Stdout, cm, name, labelWidth, cols)
	}
}

// terminalWidth returns the width of stdout, or 80 when it is not a
// terminal.
func terminalWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return 80
	}
	w, _, err := term.GetSize(fd)
	if err != nil || w <= 0 {
		return 80
	}
	return w
}

// Checker shades shown through translucent colors, one per half cell.
var (
	checkerTop    = colormap.RGB(1, 1, 1)
	checkerBottom = colormap.RGB(0.8, 0.8, 0.8)
)

// writeSwatch writes one line: the padded label followed by the colormap
// sampled at one color per column. Each cell is an upper half block so
// translucent colors show against two checker shades.
func writeSwatch(w io.Writer, cm *colormap.Colormap, label string, labelWidth, cols int) {
	n := cols - labelWidth - 1
	if n < 1 {
		n = 1
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-*s ", labelWidth, label)
	for _, c := range cm.Colors(n) {
		top := over(c, checkerTop).RGBA8()
		bottom := over(c, checkerBottom).RGBA8()
		fmt.Fprintf(&b, "\x1b[38;2;%d;%d;%dm\x1b[48;2;%d;%d;%dm▀",
			top.R, top.G, top.B, bottom.R, bottom.G, bottom.B)
	}
	b.WriteString("\x1b[0m\n")
	io.WriteString(w, b.String())
}

// over composites c onto an opaque background.
func over(c, bg colormap.Color) colormap.Color {
	a := c.A()
	return colormap.RGB(
		c.R()*a+bg.R()*(1-a),
		c.G()*a+bg.G()*(1-a),
		c.B()*a+bg.B()*(1-a),
	)
}
