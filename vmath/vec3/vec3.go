package vec3

import (
	"fmt"
	"math"
)

type T [3]float64

func (v T) Norm() float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

func (v T) IsFinite() bool {
	for _, e := range v {
		if math.IsNaN(e) || math.IsInf(e, 0) {
			return false
		}
	}
	return true
}

// Normalize scales v to unit length.  It panics if v has zero length, since
// there is no direction to preserve.
func Normalize(v T) T {
	l := v.Norm()
	if l == 0 {
		panic(fmt.Sprintf("vec3: cannot normalize zero-length vector %v", v))
	}
	return T{
		v[0] / l,
		v[1] / l,
		v[2] / l,
	}
}

func AddVV(a, b T) T {
	return T{
		a[0] + b[0],
		a[1] + b[1],
		a[2] + b[2],
	}
}

func SubVV(a, b T) T {
	return T{
		a[0] - b[0],
		a[1] - b[1],
		a[2] - b[2],
	}
}

func MulVS(a T, b float64) T {
	return T{
		a[0] * b,
		a[1] * b,
		a[2] * b,
	}
}

func DivVS(a T, b float64) T {
	return T{
		a[0] / b,
		a[1] / b,
		a[2] / b,
	}
}

func IProd(a, b T) float64 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

func CProd(a, b T) T {
	return T{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

// Reject returns the component of b that is orthogonal to a.
func Reject(a, b T) T {
	return SubVV(b, MulVS(Normalize(a), IProd(a, b)/a.Norm()))
}
