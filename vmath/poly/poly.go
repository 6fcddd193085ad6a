package poly

import "math"

// SolveQuadratic finds the real roots of a*t^2 + b*t + c = 0.
//
// The roots are returned in ascending order; callers rely on lo being the
// nearer intersection.  ok is false when there are no real roots.  A zero
// leading coefficient is reported as having no roots.
func SolveQuadratic(a, b, c float64) (lo, hi float64, ok bool) {
	if a == 0 {
		return math.NaN(), math.NaN(), false
	}

	d := b*b - 4*a*c
	if d < 0 || math.IsNaN(d) {
		return math.NaN(), math.NaN(), false
	}

	sq := math.Sqrt(d)
	lo = (-b - sq) / (2 * a)
	hi = (-b + sq) / (2 * a)
	if hi < lo {
		lo, hi = hi, lo
	}
	return lo, hi, true
}
