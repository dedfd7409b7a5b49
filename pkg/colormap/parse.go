package colormap

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// ColorLike is any value that can be resolved to a Color. The
// implementations in this package are Color, Text, Channels and Hex; a nil
// ColorLike stands for NoColor.
type ColorLike interface {
	ToColor() (Color, error)
}

// Text is a color given as a string: a name, a hex string or a functional
// rgb()/rgba()/hsl()/hsla() expression.
type Text string

// ToColor implements ColorLike.
func (t Text) ToColor() (Color, error) {
	return ParseColor(string(t))
}

// Channels is a color given as 3 or 4 numbers, see FromChannels.
type Channels []float64

// ToColor implements ColorLike.
func (c Channels) ToColor() (Color, error) {
	return FromChannels(c)
}

// Hex is a color given as an integer, see FromHex.
type Hex uint32

// ToColor implements ColorLike.
func (h Hex) ToColor() (Color, error) {
	return FromHex(uint32(h)), nil
}

// Resolve converts c to a Color. A nil c gives NoColor.
func Resolve(c ColorLike) (Color, error) {
	if c == nil {
		return NoColor, nil
	}
	return c.ToColor()
}

// MustParseColor is like ParseColor but panics on error. It is intended
// for package-level tables.
func MustParseColor(s string) Color {
	c, err := ParseColor(s)
	if err != nil {
		panic("colormap: " + err.Error())
	}
	return c
}

type colorKind int

const (
	kindName colorKind = iota
	kindHex
	kindFunctional
)

func classify(s string) colorKind {
	switch {
	case strings.HasPrefix(s, "#"), strings.HasPrefix(s, "0x"), strings.HasPrefix(s, "0X"):
		return kindHex
	case strings.ContainsRune(s, '('):
		return kindFunctional
	default:
		return kindName
	}
}

// ParseColor parses a color string.
//
// Accepted forms are CSS color names (see LookupName), hex strings
// ("#RGB", "#RGBA", "#RRGGBB", "#RRGGBBAA", optionally with a "0x" prefix
// instead of "#"), and the functional forms rgb(), rgba(), hsl() and hsla()
// with comma or space separated arguments and an optional "/ alpha".
func ParseColor(s string) (Color, error) {
	t := strings.TrimSpace(s)
	if t == "" {
		return NoColor, fmt.Errorf("%w: empty string", ErrInvalidColorFormat)
	}
	switch classify(t) {
	case kindHex:
		return parseHexString(t)
	case kindFunctional:
		return parseFunctional(t)
	}
	c, ok := LookupName(t)
	if !ok {
		return NoColor, fmt.Errorf("%w: %q", ErrUnknownColorName, s)
	}
	return c, nil
}

func parseHexString(s string) (Color, error) {
	digits := strings.TrimPrefix(s, "#")
	if len(digits) == len(s) {
		digits = s[2:]
	}
	var v [4]uint8
	v[3] = 255
	switch len(digits) {
	case 3, 4:
		for i := 0; i < len(digits); i++ {
			d, ok := hexDigit(digits[i])
			if !ok {
				return NoColor, fmt.Errorf("%w: bad hex digit in %q", ErrInvalidColorFormat, s)
			}
			v[i] = d * 17
		}
	case 6, 8:
		for i := 0; i < len(digits); i += 2 {
			hi, ok1 := hexDigit(digits[i])
			lo, ok2 := hexDigit(digits[i+1])
			if !ok1 || !ok2 {
				return NoColor, fmt.Errorf("%w: bad hex digit in %q", ErrInvalidColorFormat, s)
			}
			v[i/2] = hi<<4 | lo
		}
	default:
		return NoColor, fmt.Errorf("%w: hex color %q must have 3, 4, 6 or 8 digits", ErrInvalidColorFormat, s)
	}
	return FromRGBA8(RGBA8{R: v[0], G: v[1], B: v[2], A: v[3]}), nil
}

func hexDigit(c byte) (uint8, bool) {
	switch {
	case '0' <= c && c <= '9':
		return c - '0', true
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10, true
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

var functionalRe = regexp.MustCompile(`(?i)^(rgba?|hsla?)\s*\((.*)\)$`)

func parseFunctional(s string) (Color, error) {
	m := functionalRe.FindStringSubmatch(s)
	if m == nil {
		return NoColor, fmt.Errorf("%w: %q", ErrInvalidColorFormat, s)
	}
	args, err := splitArgs(m[2])
	if err != nil {
		return NoColor, fmt.Errorf("%w: %q: %v", ErrInvalidColorFormat, s, err)
	}
	if strings.HasPrefix(strings.ToLower(m[1]), "rgb") {
		return rgbFromArgs(s, args)
	}
	return hslFromArgs(s, args)
}

// splitArgs splits the argument list of a functional color into 3 or 4
// lower-cased tokens. A "/" introduces the alpha token.
func splitArgs(body string) ([]string, error) {
	isSep := func(r rune) bool { return r == ',' || unicode.IsSpace(r) }
	main, alpha, hasSlash := strings.Cut(strings.ToLower(body), "/")
	args := strings.FieldsFunc(main, isSep)
	if hasSlash {
		a := strings.FieldsFunc(alpha, isSep)
		if len(args) != 3 || len(a) != 1 {
			return nil, fmt.Errorf("expected 3 channels and 1 alpha around '/'")
		}
		args = append(args, a[0])
	}
	if len(args) != 3 && len(args) != 4 {
		return nil, fmt.Errorf("expected 3 or 4 arguments, got %d", len(args))
	}
	return args, nil
}

func rgbFromArgs(s string, args []string) (Color, error) {
	var ch [4]float64
	ch[3] = 1
	for i, tok := range args {
		var err error
		if i == 3 {
			ch[i], err = parseAlpha(tok)
		} else {
			ch[i], err = parseNumberOrPercent(tok, 255)
		}
		if err != nil {
			return NoColor, fmt.Errorf("%w: %q: %v", ErrInvalidColorFormat, s, err)
		}
	}
	return FromFloats(ch[0], ch[1], ch[2], ch[3]), nil
}

func hslFromArgs(s string, args []string) (Color, error) {
	hue, err := parseHue(args[0])
	if err != nil {
		return NoColor, fmt.Errorf("%w: %q: %v", ErrInvalidColorFormat, s, err)
	}
	// Saturation and lightness are percentages; bare numbers count as
	// percentages too.
	sat, err := parseNumberOrPercent(args[1], 100)
	if err != nil {
		return NoColor, fmt.Errorf("%w: %q: %v", ErrInvalidColorFormat, s, err)
	}
	light, err := parseNumberOrPercent(args[2], 100)
	if err != nil {
		return NoColor, fmt.Errorf("%w: %q: %v", ErrInvalidColorFormat, s, err)
	}
	alpha := 1.0
	if len(args) == 4 {
		if alpha, err = parseAlpha(args[3]); err != nil {
			return NoColor, fmt.Errorf("%w: %q: %v", ErrInvalidColorFormat, s, err)
		}
	}
	return FromHSL(hue, sat, light, alpha), nil
}

// parseNumberOrPercent reads "none" (0), "N%" (N/100) or a number scaled by
// 1/scale, and clamps the result to [0, 1].
func parseNumberOrPercent(tok string, scale float64) (float64, error) {
	if tok == "none" {
		return 0, nil
	}
	if p, ok := strings.CutSuffix(tok, "%"); ok {
		v, err := parseFinite(p)
		if err != nil {
			return 0, err
		}
		return clip01(v / 100), nil
	}
	v, err := parseFinite(tok)
	if err != nil {
		return 0, err
	}
	return clip01(v / scale), nil
}

func parseAlpha(tok string) (float64, error) {
	return parseNumberOrPercent(tok, 1)
}

func parseHue(tok string) (float64, error) {
	if tok == "none" {
		return 0, nil
	}
	return parseFinite(strings.TrimSuffix(tok, "deg"))
}

func parseFinite(tok string) (float64, error) {
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0, fmt.Errorf("bad number %q", tok)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite number %q", tok)
	}
	return v, nil
}
