package geometry

import (
	"fmt"
	"math"

	"glint/contact"
	"glint/ray"
	"glint/rgb"
	"glint/vmath/poly"
	"glint/vmath/vec3"
)

// Geometry is a surface that can be hit by a ray.
type Geometry interface {
	// RayInto returns the first contact with a positive distance along the
	// ray.  ok is false when the ray misses.
	RayInto(query ray.Ray) (c contact.Contact, ok bool)
}

type Sphere struct {
	Center vec3.T
	Radius float64
	Color  rgb.T
}

func NewSphere(center vec3.T, radius float64, color rgb.T) (*Sphere, error) {
	if !center.IsFinite() {
		return nil, fmt.Errorf("sphere center %v is not finite", center)
	}
	if !(radius > 0) || math.IsInf(radius, 0) {
		return nil, fmt.Errorf("sphere radius %v must be positive and finite", radius)
	}
	if !color.IsValid() {
		return nil, fmt.Errorf("sphere color %+v must be finite and non-negative", color)
	}
	return &Sphere{Center: center, Radius: radius, Color: color}, nil
}

func (s *Sphere) RayInto(query ray.Ray) (contact.Contact, bool) {
	offset := vec3.SubVV(s.Center, query.Point)
	b := -2.0 * vec3.IProd(query.Slope, offset)
	c := vec3.IProd(offset, offset) - s.Radius*s.Radius

	lo, hi, ok := poly.SolveQuadratic(1.0, b, c)
	switch {
	case !ok:
		return contact.Contact{}, false
	case 0 < lo && lo < hi:
		return s.contactAt(query, lo), true
	case 0 < hi:
		// The ray starts inside the sphere.
		return s.contactAt(query, hi), true
	}

	// Both roots are behind the ray.
	return contact.Contact{}, false
}

func (s *Sphere) contactAt(query ray.Ray, t float64) contact.Contact {
	p := query.Eval(t)
	return contact.Contact{
		T:     t,
		P:     p,
		N:     vec3.Normalize(vec3.SubVV(p, s.Center)),
		Color: s.Color,
	}
}

// Plane is an infinite two-sided plane through Point.  Normal need not be
// unit length; contacts always report a unit normal.
type Plane struct {
	Point  vec3.T
	Normal vec3.T
	Color  rgb.T
}

// NewPlane normalizes normal, which must be non-zero.
func NewPlane(point, normal vec3.T, color rgb.T) (*Plane, error) {
	if !point.IsFinite() || !normal.IsFinite() {
		return nil, fmt.Errorf("plane point %v and normal %v must be finite", point, normal)
	}
	if normal.Norm() == 0 {
		return nil, fmt.Errorf("plane normal must be non-zero")
	}
	if !color.IsValid() {
		return nil, fmt.Errorf("plane color %+v must be finite and non-negative", color)
	}
	return &Plane{Point: point, Normal: vec3.Normalize(normal), Color: color}, nil
}

func (p *Plane) RayInto(query ray.Ray) (contact.Contact, bool) {
	height := vec3.IProd(vec3.SubVV(p.Point, query.Point), p.Normal)
	distance := height / vec3.IProd(query.Slope, p.Normal)

	// A ray parallel to the plane gives an infinite or NaN distance.
	if !(0 < distance) || math.IsInf(distance, 0) {
		return contact.Contact{}, false
	}

	// Flip the normal towards the side the ray came from.
	n := vec3.Normalize(p.Normal)
	if height > 0 {
		n = vec3.MulVS(n, -1.0)
	}

	return contact.Contact{
		T:     distance,
		P:     query.Eval(distance),
		N:     n,
		Color: p.Color,
	}, true
}
