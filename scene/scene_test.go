package scene

import (
	"math"
	"testing"

	"glint/geometry"
	"glint/ray"
	"glint/rgb"
	"glint/vmath/vec3"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

var approx = cmpopts.EquateApprox(0, 1e-9)

func ground() *geometry.Plane {
	return &geometry.Plane{Point: vec3.T{0, 0, 0}, Normal: vec3.T{0, 0, 1}, Color: rgb.Gray(0.8)}
}

// downRay points straight down at the origin of the ground plane.
func downRay() ray.Ray {
	return ray.New(vec3.T{0, 0, 10}, vec3.T{0, 0, -1}, 1)
}

func mustNew(t *testing.T, objects []geometry.Geometry, lights []Light) *Scene {
	t.Helper()
	s, err := New(objects, lights, rgb.T{B: 0.3}, rgb.Gray(0.1), 1e-5)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	return s
}

func TestTraceMissReturnsBackground(t *testing.T) {
	s := mustNew(t, []geometry.Geometry{ground()}, nil)

	got := s.Trace(ray.New(vec3.T{0, 0, 10}, vec3.T{0, 0, 1}, 1))
	if diff := cmp.Diff(got, rgb.T{B: 0.3}); diff != "" {
		t.Errorf("Bad miss color; diff (-got +want)\n%s", diff)
	}
}

func TestTraceAmbientOnly(t *testing.T) {
	s := mustNew(t, []geometry.Geometry{ground()}, nil)

	got := s.Trace(downRay())
	if diff := cmp.Diff(got, rgb.Gray(0.08), approx); diff != "" {
		t.Errorf("Bad ambient-only color; diff (-got +want)\n%s", diff)
	}
}

func TestTraceDiffuse(t *testing.T) {
	// Light directly overhead gives a diffuse score of 1.
	s := mustNew(t, []geometry.Geometry{ground()}, []Light{
		{Position: vec3.T{0, 0, 100}, Color: rgb.Gray(0.5)},
	})

	got := s.Trace(downRay())
	want := rgb.Gray(0.08 + 0.8*0.5)
	if diff := cmp.Diff(got, want, approx); diff != "" {
		t.Errorf("Bad lit color; diff (-got +want)\n%s", diff)
	}
}

func TestTraceDiffuseCosine(t *testing.T) {
	s := mustNew(t, []geometry.Geometry{ground()}, []Light{
		{Position: vec3.T{100, 0, 100}, Color: rgb.White()},
	})

	got := s.Trace(downRay())
	want := rgb.Gray(0.08 + 0.8*math.Sqrt(0.5))
	if diff := cmp.Diff(got, want, cmpopts.EquateApprox(0, 1e-6)); diff != "" {
		t.Errorf("Bad lit color at 45 degrees; diff (-got +want)\n%s", diff)
	}
}

func TestTraceLightBelowSurface(t *testing.T) {
	s := mustNew(t, []geometry.Geometry{ground()}, []Light{
		{Position: vec3.T{0, 0, -100}, Color: rgb.White()},
	})

	got := s.Trace(downRay())
	if diff := cmp.Diff(got, rgb.Gray(0.08), approx); diff != "" {
		t.Errorf("Light on the far side contributed; diff (-got +want)\n%s", diff)
	}
}

func TestTraceOccludedLight(t *testing.T) {
	blocker := &geometry.Sphere{Center: vec3.T{0, 0, 50}, Radius: 5, Color: rgb.T{R: 1}}

	// The eye ray starts between the ground and the blocker, so it sees the
	// ground; the light above the blocker is hidden.
	s := mustNew(t, []geometry.Geometry{ground(), blocker}, []Light{
		{Position: vec3.T{0, 0, 100}, Color: rgb.White()},
	})

	got := s.Trace(downRay())
	if diff := cmp.Diff(got, rgb.Gray(0.08), approx); diff != "" {
		t.Errorf("Occluded light contributed; diff (-got +want)\n%s", diff)
	}
}

func TestTraceBlockerBeyondLight(t *testing.T) {
	beyond := &geometry.Sphere{Center: vec3.T{0, 0, 50}, Radius: 5}

	s := mustNew(t, []geometry.Geometry{ground(), beyond}, []Light{
		{Position: vec3.T{0, 0, 20}, Color: rgb.White()},
	})

	got := s.Trace(downRay())
	if diff := cmp.Diff(got, rgb.Gray(0.08+0.8), approx); diff != "" {
		t.Errorf("Object beyond the light occluded it; diff (-got +want)\n%s", diff)
	}
}

func TestClosestPicksNearest(t *testing.T) {
	far := &geometry.Sphere{Center: vec3.T{0, 0, 20}, Radius: 1, Color: rgb.T{G: 1}}
	near := &geometry.Sphere{Center: vec3.T{0, 0, 5}, Radius: 1, Color: rgb.T{R: 1}}
	s := mustNew(t, []geometry.Geometry{far, near}, nil)

	c, ok := s.Closest(ray.New(vec3.T{}, vec3.T{0, 0, 1}, 1))
	if !ok {
		t.Fatalf("Closest found nothing")
	}
	if math.Abs(c.T-4) > 1e-9 {
		t.Errorf("Bad closest distance; got %v, want 4", c.T)
	}
	if c.Color != (rgb.T{R: 1}) {
		t.Errorf("Closest returned the far sphere")
	}
}

func TestClosestTieFirstWins(t *testing.T) {
	a := &geometry.Sphere{Center: vec3.T{0, 0, 5}, Radius: 1, Color: rgb.T{R: 1}}
	b := &geometry.Sphere{Center: vec3.T{0, 0, 5}, Radius: 1, Color: rgb.T{G: 1}}
	s := mustNew(t, []geometry.Geometry{a, b}, nil)

	c, _ := s.Closest(ray.New(vec3.T{}, vec3.T{0, 0, 1}, 1))
	if c.Color != (rgb.T{R: 1}) {
		t.Errorf("Coincident objects not resolved in scan order; got %+v", c.Color)
	}
}

func TestBackground(t *testing.T) {
	var env Environment = Background{Color: rgb.Gray(0.2)}
	if got := env.Trace(downRay()); got != rgb.Gray(0.2) {
		t.Errorf("Bad background trace; got %+v", got)
	}
}

func TestNewValidates(t *testing.T) {
	if _, err := New([]geometry.Geometry{nil}, nil, rgb.Black(), rgb.Black(), 0); err == nil {
		t.Errorf("New accepted a nil object")
	}
	if _, err := New(nil, nil, rgb.Black(), rgb.Black(), -1); err == nil {
		t.Errorf("New accepted a negative collision guard")
	}
	if _, err := New(nil, []Light{{Color: rgb.T{R: math.NaN()}}}, rgb.Black(), rgb.Black(), 0); err == nil {
		t.Errorf("New accepted a NaN light color")
	}
}
