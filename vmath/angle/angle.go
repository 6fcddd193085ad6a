// Package angle tags a scalar with its angular unit.
package angle

import "math"

// T is an angle.  It is stored in radians; the zero value is a zero angle.
type T struct {
	rad float64
}

func Radians(r float64) T {
	return T{rad: r}
}

func Degrees(d float64) T {
	return T{rad: d * math.Pi / 180.0}
}

func (a T) Rad() float64 {
	return a.rad
}

func (a T) Deg() float64 {
	return a.rad * 180.0 / math.Pi
}
