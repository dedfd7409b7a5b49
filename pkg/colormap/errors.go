package colormap

import "errors"

// Errors returned by the parsing and lookup-table functions. They are always
// wrapped with context; test for them with errors.Is.
var (
	// ErrInvalidColorFormat reports a malformed color string or a color
	// sequence with the wrong number of channels.
	ErrInvalidColorFormat = errors.New("invalid color format")

	// ErrUnknownColorName reports a color name missing from the name table.
	ErrUnknownColorName = errors.New("unknown color name")

	// ErrTypeMismatch reports an input value whose type cannot describe a
	// color or a color stop.
	ErrTypeMismatch = errors.New("unsupported color type")

	// ErrInvalidArgument reports a bad fill mode, LUT size or gamma.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidColorStops reports stop positions that are not finite,
	// outside [0, 1] or decreasing, or a stop list without entries.
	ErrInvalidColorStops = errors.New("invalid color stops")

	// ErrUnknownColormap reports a name that a Catalog cannot resolve.
	ErrUnknownColormap = errors.New("unknown colormap")
)
