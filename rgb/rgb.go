// Package rgb holds unbounded linear RGB radiance values and the tone map that
// squeezes them into display bytes.
package rgb

import "math"

// T is a color.  Components are non-negative but not clamped; sums over
// several lights may exceed 1.
type T struct {
	R, G, B float64
}

func Black() T {
	return T{}
}

func White() T {
	return T{1, 1, 1}
}

func Gray(i float64) T {
	return T{i, i, i}
}

func Add(a, b T) T {
	return T{a.R + b.R, a.G + b.G, a.B + b.B}
}

func Scale(a T, s float64) T {
	return T{a.R * s, a.G * s, a.B * s}
}

// Tint multiplies a and b component-wise.
func Tint(a, b T) T {
	return T{a.R * b.R, a.G * b.G, a.B * b.B}
}

// IsValid reports whether every component is finite and non-negative.
func (c T) IsValid() bool {
	for _, e := range [3]float64{c.R, c.G, c.B} {
		if math.IsNaN(e) || math.IsInf(e, 0) || e < 0 {
			return false
		}
	}
	return true
}

// ToneMap maps a channel value in [0, inf) onto a byte with 255*(1-e^-c).
// Negative and NaN inputs map to 0.
func ToneMap(c float64) uint8 {
	if !(c > 0) {
		return 0
	}
	return uint8(math.Round(255.0 * (1.0 - math.Exp(-c))))
}

// RGBA tone maps c into four bytes, with alpha fully opaque.
func (c T) RGBA() [4]uint8 {
	return [4]uint8{ToneMap(c.R), ToneMap(c.G), ToneMap(c.B), 255}
}
