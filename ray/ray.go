package ray

import (
	"fmt"
	"math"

	"glint/vmath/vec3"
)

// UnitTolerance is how far |Slope| may stray from 1.
const UnitTolerance = 1e-4

type Ray struct {
	Point vec3.T
	Slope vec3.T

	// TTL is the bounce budget.  It is carried and validated, but the shader
	// only does direct lighting and never consumes it.
	TTL int
}

// New constructs a ray.  It panics if slope isn't unit length or ttl is less
// than one; both indicate a bug in the caller rather than bad input.
func New(point, slope vec3.T, ttl int) Ray {
	if n := slope.Norm(); !(math.Abs(1.0-n) < UnitTolerance) {
		panic(fmt.Sprintf("ray: slope %v has norm %v, want 1", slope, n))
	}
	if ttl < 1 {
		panic(fmt.Sprintf("ray: ttl %d, want >= 1", ttl))
	}
	return Ray{
		Point: point,
		Slope: slope,
		TTL:   ttl,
	}
}

func (r *Ray) Eval(t float64) vec3.T {
	return vec3.T{
		r.Point[0] + t*r.Slope[0],
		r.Point[1] + t*r.Slope[1],
		r.Point[2] + t*r.Slope[2],
	}
}
