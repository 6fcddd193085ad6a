package contact

import (
	"glint/rgb"
	"glint/vmath/vec3"
)

// Contact records where a ray first meets a surface.  It only lives for the
// duration of one shading computation.
type Contact struct {
	// Distance along the ray, always positive.
	T float64

	// World-space hit position.
	P vec3.T

	// Unit normal facing the side the ray arrived from.
	N vec3.T

	// Surface base color at P.
	Color rgb.T
}

// Nearer reports whether c is strictly closer than d.
func (c Contact) Nearer(d Contact) bool {
	return c.T < d.T
}
