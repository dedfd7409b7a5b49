package colormap

import (
	"encoding/json"
	"fmt"
	"math"
)

// ParseStopsValue parses a decoded JSON or YAML value into stops. A string
// is a single color (see ParseStopsString); a list is classified item by
// item with SpecsFromValues.
func ParseStopsValue(v any, mode FillMode) (*ColorStops, error) {
	switch t := v.(type) {
	case string:
		return ParseStops([]StopSpec{Auto(nil), Auto(Text(t))}, mode)
	case []any:
		specs, err := SpecsFromValues(t)
		if err != nil {
			return nil, err
		}
		return ParseStops(specs, mode)
	}
	return nil, fmt.Errorf("%w: colors must be a string or a list, got %T", ErrTypeMismatch, v)
}

// SpecsFromValues classifies decoded JSON or YAML values as stop specs:
//
//	"red", "#f00", 0xff0000, [1, 0, 0], null  color, position unset
//	[0.5, <color>]                            color at an explicit position
//	[0.5, 1, 0, 0, 1]                         position followed by RGBA
//
// Integers stand for hex colors. JSON numbers must be decoded with
// json.Decoder.UseNumber so integers and floats can be told apart.
func SpecsFromValues(values []any) ([]StopSpec, error) {
	specs := make([]StopSpec, len(values))
	for i, v := range values {
		s, err := specFromValue(v)
		if err != nil {
			return nil, fmt.Errorf("color stop %d: %w", i, err)
		}
		specs[i] = s
	}
	return specs, nil
}

func specFromValue(v any) (StopSpec, error) {
	list, ok := v.([]any)
	if !ok {
		c, err := ColorLikeFromValue(v)
		return Auto(c), err
	}
	switch len(list) {
	case 2:
		// A pair cannot be a color, so it is a positioned stop.
		pos, ok := number(list[0])
		if !ok {
			return StopSpec{}, fmt.Errorf("%w: stop position %v is not a number", ErrTypeMismatch, list[0])
		}
		c, err := ColorLikeFromValue(list[1])
		return At(pos, c), err
	case 5:
		var row [5]float64
		for i, x := range list {
			f, ok := number(x)
			if !ok {
				return StopSpec{}, fmt.Errorf("%w: stop element %v is not a number", ErrTypeMismatch, x)
			}
			row[i] = f
		}
		return Full(row), nil
	}
	c, err := ColorLikeFromValue(v)
	return Auto(c), err
}

// ColorLikeFromValue classifies a single decoded value as a color.
func ColorLikeFromValue(v any) (ColorLike, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case ColorLike:
		return t, nil
	case string:
		return Text(t), nil
	case int:
		return hexFromInt(int64(t))
	case int64:
		return hexFromInt(t)
	case uint64:
		if t > math.MaxUint32 {
			return nil, fmt.Errorf("%w: integer color %#x out of range", ErrInvalidColorFormat, t)
		}
		return Hex(t), nil
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return hexFromInt(i)
		}
		return nil, fmt.Errorf("%w: cannot convert number %s to a color", ErrTypeMismatch, t)
	case []float64:
		return Channels(t), nil
	case []any:
		ch := make(Channels, len(t))
		for i, x := range t {
			f, ok := number(x)
			if !ok {
				return nil, fmt.Errorf("%w: channel %v is not a number", ErrTypeMismatch, x)
			}
			ch[i] = f
		}
		if len(ch) != 3 && len(ch) != 4 {
			return nil, fmt.Errorf("%w: expected 3 or 4 channels, got %d", ErrInvalidColorFormat, len(ch))
		}
		return ch, nil
	}
	return nil, fmt.Errorf("%w: cannot convert type %T to a color", ErrTypeMismatch, v)
}

func hexFromInt(i int64) (ColorLike, error) {
	if i < 0 || i > math.MaxUint32 {
		return nil, fmt.Errorf("%w: integer color %d out of range", ErrInvalidColorFormat, i)
	}
	return Hex(i), nil
}

func number(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	}
	return 0, false
}
