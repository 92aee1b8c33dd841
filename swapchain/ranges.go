package swapchain

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ErrNoIntegerColor is returned when integer-range metadata is queried on a
// format that does not sample as integers. It indicates a bug in the caller.
var ErrNoIntegerColor = errors.New("integer range queried on a non-integer color format")

// ColorIntegerRange describes the per-component range of a color format
// whose samples are integers rather than normalized or floating point
// values. The zero value is NoIntegerColor.
type ColorIntegerRange struct {
	bits   uint8
	signed bool
}

var (
	NoIntegerColor = ColorIntegerRange{}
	U8             = ColorIntegerRange{bits: 8}
	S8             = ColorIntegerRange{bits: 8, signed: true}
	U16            = ColorIntegerRange{bits: 16}
	S16            = ColorIntegerRange{bits: 16, signed: true}
	U32            = ColorIntegerRange{bits: 32}
	S32            = ColorIntegerRange{bits: 32, signed: true}
	// URGB10A2 stores 10 bits for each color and 2 for alpha.
	URGB10A2 = ColorIntegerRange{bits: 10}
)

var integerRangeNames = map[string]ColorIntegerRange{
	"":         NoIntegerColor,
	"none":     NoIntegerColor,
	"u8":       U8,
	"s8":       S8,
	"u16":      U16,
	"s16":      S16,
	"u32":      U32,
	"s32":      S32,
	"uRGB10A2": URGB10A2,
}

// ParseColorIntegerRange accepts the names printed by String.
func ParseColorIntegerRange(s string) (ColorIntegerRange, error) {
	r, ok := integerRangeNames[s]
	if !ok {
		return NoIntegerColor, fmt.Errorf("unknown color integer range %q", s)
	}
	return r, nil
}

// IsInteger reports whether r is anything but NoIntegerColor.
func (r ColorIntegerRange) IsInteger() bool {
	return r != NoIntegerColor
}

func (r ColorIntegerRange) String() string {
	switch {
	case r == NoIntegerColor:
		return "none"
	case r == URGB10A2:
		return "uRGB10A2"
	case r.signed:
		return fmt.Sprintf("s%d", r.bits)
	default:
		return fmt.Sprintf("u%d", r.bits)
	}
}

func (r *ColorIntegerRange) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := ParseColorIntegerRange(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*r = parsed
	return nil
}

// BitsForIntegerRange returns the bit depth of each color component: 8, 10,
// 16 or 32.
func BitsForIntegerRange(r ColorIntegerRange) (uint8, error) {
	if !r.IsInteger() {
		return 0, ErrNoIntegerColor
	}
	return r.bits, nil
}

// IsSignedIntegerRange reports whether components are signed integers.
func IsSignedIntegerRange(r ColorIntegerRange) (bool, error) {
	if !r.IsInteger() {
		return false, ErrNoIntegerColor
	}
	return r.signed, nil
}
