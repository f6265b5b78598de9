package freehand

import (
	"errors"
	"image/color"
)

// ErrInvalidColor is returned by NormalizeColor when the input is not an
// RGB or RGBA triple/quad of values in [0, 255].
var ErrInvalidColor = errors.New("freehand: color must be [R, G, B] with values in [0, 255]")

// Color is an RGBA color with 8-bit channels in R, G, B, A order.
//
// Color is a value type; assigning it copies all four channels, so a Color
// read from the pixel buffer never aliases it. Colors produced by
// NormalizeColor are always fully opaque.
type Color [4]uint8

// Common colors.
var (
	Black   = Color{0, 0, 0, 255}
	White   = Color{255, 255, 255, 255}
	Red     = Color{255, 0, 0, 255}
	Green   = Color{0, 255, 0, 255}
	Blue    = Color{0, 0, 255, 255}
	Magenta = Color{255, 0, 255, 255}
)

// NormalizeColor converts a 3- or 4-element channel list into a Color.
//
// Three values are extended with full opacity. For four values the alpha
// slot is ignored and replaced by 255: alpha is not settable by callers.
// Any other length, or any value outside [0, 255], yields Black together
// with ErrInvalidColor. Black is a usable default, so callers may log the
// error and carry on.
func NormalizeColor(values ...int) (Color, error) {
	if len(values) != 3 && len(values) != 4 {
		return Black, ErrInvalidColor
	}
	var c Color
	for i := 0; i < 3; i++ {
		v := values[i]
		if v < 0 || v > 255 {
			return Black, ErrInvalidColor
		}
		c[i] = uint8(v)
	}
	c[3] = 255
	return c, nil
}

// ColorOf converts a standard library color to an opaque Color.
// The color is un-premultiplied first; alpha is then forced to 255.
func ColorOf(c color.Color) Color {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return Color{n.R, n.G, n.B, 255}
}

// RGBA implements the color.Color interface.
// The returned values are alpha-premultiplied as the interface requires.
func (c Color) RGBA() (r, g, b, a uint32) {
	return color.NRGBA{R: c[0], G: c[1], B: c[2], A: c[3]}.RGBA()
}

// Ints returns the channels as a slice, convenient for JSON and for feeding
// back into NormalizeColor.
func (c Color) Ints() []int {
	return []int{int(c[0]), int(c[1]), int(c[2]), int(c[3])}
}

// ColorsEqual reports whether a and b match within tolerance.
//
// A tolerance of zero (or less) requires all four channels to be equal.
// Otherwise the absolute R, G and B differences are each expressed as a
// fraction of 255, averaged, and scaled to a percentage; the colors match
// when that percentage does not exceed tolerance. Alpha does not take part
// in the tolerant comparison. One channel may differ sharply as long as the
// average stays within tolerance.
func ColorsEqual(a, b Color, tolerance float64) bool {
	if tolerance <= 0 {
		return a == b
	}
	return percentDiff(a, b) <= tolerance
}

func percentDiff(a, b Color) float64 {
	sum := absDiff(a[0], b[0]) + absDiff(a[1], b[1]) + absDiff(a[2], b[2])
	return float64(sum) / 255 / 3 * 100
}

func absDiff(x, y uint8) int {
	if x > y {
		return int(x - y)
	}
	return int(y - x)
}

// ClampTolerance restricts a fill tolerance percentage to [0, 100].
func ClampTolerance(t float64) float64 {
	if t < 0 {
		return 0
	}
	if t > 100 {
		return 100
	}
	return t
}

// toleranceKey identifies one comparison in a toleranceCache.
type toleranceKey struct {
	a, b      Color
	tolerance float64
}

// toleranceCache memoizes ColorsEqual for the lifetime of a single fill.
// Entries are pure functions of their key and never need invalidation.
type toleranceCache map[toleranceKey]bool

func (tc toleranceCache) equal(a, b Color, tolerance float64) bool {
	if tolerance <= 0 {
		return a == b
	}
	k := toleranceKey{a: a, b: b, tolerance: tolerance}
	if v, ok := tc[k]; ok {
		return v
	}
	v := ColorsEqual(a, b, tolerance)
	tc[k] = v
	return v
}
