package scene

import (
	"fmt"
	"math"

	"glint/contact"
	"glint/geometry"
	"glint/ray"
	"glint/rgb"
	"glint/vmath/vec3"
)

// Environment turns a ray into the radiance arriving along it.
type Environment interface {
	Trace(query ray.Ray) rgb.T
}

// Background is an Environment with nothing in it.
type Background struct {
	Color rgb.T
}

func (b Background) Trace(query ray.Ray) rgb.T {
	return b.Color
}

type Light struct {
	Position vec3.T
	Color    rgb.T
}

// Scene is a flat list of objects and point lights.  Every ray is tested
// against every object.
//
// A Scene must not be modified once rendering begins; it is read concurrently
// without locks.
type Scene struct {
	Objects    []geometry.Geometry
	Lights     []Light
	Background rgb.T
	Ambient    rgb.T

	// CollisionGuard is how far shadow rays are pushed off a surface along its
	// normal, so they don't immediately hit the surface they leave.
	CollisionGuard float64
}

// New assembles a validated Scene.
func New(objects []geometry.Geometry, lights []Light, background, ambient rgb.T, collisionGuard float64) (*Scene, error) {
	for i, o := range objects {
		if o == nil {
			return nil, fmt.Errorf("object %d is nil", i)
		}
	}
	for i, l := range lights {
		if !l.Position.IsFinite() {
			return nil, fmt.Errorf("light %d position %v is not finite", i, l.Position)
		}
		if !l.Color.IsValid() {
			return nil, fmt.Errorf("light %d color %+v must be finite and non-negative", i, l.Color)
		}
	}
	if !background.IsValid() {
		return nil, fmt.Errorf("background color %+v must be finite and non-negative", background)
	}
	if !ambient.IsValid() {
		return nil, fmt.Errorf("ambient color %+v must be finite and non-negative", ambient)
	}
	if !(collisionGuard >= 0) || math.IsInf(collisionGuard, 0) {
		return nil, fmt.Errorf("collision guard %v must be finite and non-negative", collisionGuard)
	}

	return &Scene{
		Objects:        append([]geometry.Geometry(nil), objects...),
		Lights:         append([]Light(nil), lights...),
		Background:     background,
		Ambient:        ambient,
		CollisionGuard: collisionGuard,
	}, nil
}

// Closest finds the nearest contact along query.  On exact ties the object
// listed first wins.
func (s *Scene) Closest(query ray.Ray) (contact.Contact, bool) {
	minContact := contact.Contact{T: math.Inf(1)}
	found := false
	for _, o := range s.Objects {
		c, ok := o.RayInto(query)
		if ok && c.Nearer(minContact) {
			minContact = c
			found = true
		}
	}
	return minContact, found
}

func (s *Scene) Trace(query ray.Ray) rgb.T {
	c, ok := s.Closest(query)
	if !ok {
		return s.Background
	}
	return s.shade(c)
}

// shade sums the ambient term and the diffuse term of every light visible from
// the contact point.
func (s *Scene) shade(c contact.Contact) rgb.T {
	start := vec3.AddVV(c.P, vec3.MulVS(c.N, s.CollisionGuard))

	result := rgb.Tint(c.Color, s.Ambient)
	for _, l := range s.Lights {
		toLight := vec3.SubVV(l.Position, start)
		lightDistance := toLight.Norm()
		if lightDistance == 0 {
			continue
		}
		lightDir := vec3.DivVS(toLight, lightDistance)

		// Lights behind the surface contribute nothing, and there's no point
		// casting a shadow ray back through the object.
		diffuseScore := vec3.IProd(c.N, lightDir)
		if diffuseScore <= 0 {
			continue
		}

		if blocker, ok := s.Closest(ray.New(start, lightDir, 1)); ok && blocker.T < lightDistance {
			continue
		}

		result = rgb.Add(result, rgb.Scale(rgb.Tint(c.Color, l.Color), diffuseScore))
	}
	return result
}
