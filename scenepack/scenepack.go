// Package scenepack loads scene descriptions from YAML or JSON files.
package scenepack

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"glint/camera"
	"glint/geometry"
	"glint/rgb"
	"glint/scene"
	"glint/vmath/angle"
	"glint/vmath/vec3"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"sigs.k8s.io/yaml"
)

// File is the on-disk form of a scene.  JSON is a subset of YAML, so either
// syntax is accepted.
type File struct {
	Background     Color    `json:"background"`
	Ambient        Color    `json:"ambient"`
	CollisionGuard *float64 `json:"collisionGuard,omitempty"`
	Objects        []Object `json:"objects"`
	Lights         []Light  `json:"lights"`
	Camera         Camera   `json:"camera"`
}

// Vec is a 3-vector written as a JSON array of exactly three numbers.
type Vec vec3.T

func (v *Vec) UnmarshalJSON(data []byte) error {
	var elems []float64
	if err := json.Unmarshal(data, &elems); err != nil {
		return err
	}
	if len(elems) != 3 {
		return fmt.Errorf("vector %s has %d elements, want 3", data, len(elems))
	}
	copy(v[:], elems)
	return nil
}

type Color struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
}

// Object holds exactly one of its shape fields.
type Object struct {
	Sphere *Sphere `json:"sphere,omitempty"`
	Plane  *Plane  `json:"plane,omitempty"`
}

type Sphere struct {
	Center Vec     `json:"center"`
	Radius float64 `json:"radius"`
	Color  Color   `json:"color"`
}

type Plane struct {
	Point  Vec   `json:"point"`
	Normal Vec   `json:"normal"`
	Color  Color `json:"color"`
}

type Light struct {
	Position Vec   `json:"position"`
	Color    Color `json:"color"`
}

type Camera struct {
	Origin     Vec     `json:"origin"`
	Direction  Vec     `json:"direction"`
	Up         Vec     `json:"up"`
	FOVDegrees float64 `json:"fovDegrees"`
	Cols       int     `json:"cols"`
	Rows       int     `json:"rows"`
	TTL        int     `json:"ttl"`
}

// DefaultCollisionGuard is used when a file doesn't set collisionGuard.
const DefaultCollisionGuard = 1e-5

// Pack is a loaded, validated scene and the camera that views it.
type Pack struct {
	Scene  *scene.Scene
	Camera *camera.FlatCamera
}

// Load reads, validates, and builds the scene in fileName.
func Load(ctx context.Context, fileName string) (*Pack, error) {
	f, err := ReadFile(ctx, fileName)
	if err != nil {
		return nil, err
	}

	pack, err := f.Build()
	if err != nil {
		return nil, fmt.Errorf("while building scene from %q: %w", fileName, err)
	}
	return pack, nil
}

// ReadFile decodes fileName without building it, so callers can adjust the
// description first.
func ReadFile(ctx context.Context, fileName string) (*File, error) {
	tracer := otel.Tracer("glint/scenepack")
	var span trace.Span
	_, span = tracer.Start(ctx, "scenepack.ReadFile")
	defer span.End()

	span.SetAttributes(attribute.String("file", fileName))

	fileBytes, err := os.ReadFile(fileName)
	if err != nil {
		err := fmt.Errorf("while reading scene file: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	f, err := Decode(fileBytes)
	if err != nil {
		err := fmt.Errorf("while decoding scene file %q: %w", fileName, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	return f, nil
}

// Decode unmarshals a YAML or JSON scene description.  Unknown fields are
// rejected.
func Decode(data []byte) (*File, error) {
	f := &File{}
	if err := yaml.UnmarshalStrict(data, f); err != nil {
		return nil, fmt.Errorf("while unmarshaling scene: %w", err)
	}
	return f, nil
}

func Parse(data []byte) (*Pack, error) {
	f, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return f.Build()
}

// Build converts f into a scene and camera, validating every part.
func (f *File) Build() (*Pack, error) {
	objects := []geometry.Geometry{}
	for i, o := range f.Objects {
		g, err := convertObject(o)
		if err != nil {
			return nil, fmt.Errorf("while converting object %d: %w", i, err)
		}
		objects = append(objects, g)
	}

	lights := []scene.Light{}
	for _, l := range f.Lights {
		lights = append(lights, scene.Light{
			Position: vec3.T(l.Position),
			Color:    convertColor(l.Color),
		})
	}

	guard := DefaultCollisionGuard
	if f.CollisionGuard != nil {
		guard = *f.CollisionGuard
	}

	realScene, err := scene.New(objects, lights, convertColor(f.Background), convertColor(f.Ambient), guard)
	if err != nil {
		return nil, fmt.Errorf("while building scene: %w", err)
	}

	c := f.Camera
	realCamera, err := camera.NewFlatCamera(vec3.T(c.Origin), vec3.T(c.Direction), vec3.T(c.Up), angle.Degrees(c.FOVDegrees), c.Cols, c.Rows, c.TTL)
	if err != nil {
		return nil, fmt.Errorf("while building camera: %w", err)
	}

	return &Pack{
		Scene:  realScene,
		Camera: realCamera,
	}, nil
}

func convertObject(o Object) (geometry.Geometry, error) {
	switch {
	case o.Sphere != nil && o.Plane != nil:
		return nil, fmt.Errorf("object sets both sphere and plane")
	case o.Sphere != nil:
		return geometry.NewSphere(vec3.T(o.Sphere.Center), o.Sphere.Radius, convertColor(o.Sphere.Color))
	case o.Plane != nil:
		return geometry.NewPlane(vec3.T(o.Plane.Point), vec3.T(o.Plane.Normal), convertColor(o.Plane.Color))
	}
	return nil, fmt.Errorf("object sets neither sphere nor plane")
}

func convertColor(c Color) rgb.T {
	return rgb.T{R: c.R, G: c.G, B: c.B}
}

// Example returns the demo scene file: a red sphere floating above a gray
// floor, lit from both sides.
func Example(cols, rows int) *File {
	guard := DefaultCollisionGuard
	return &File{
		Background:     Color{0, 0, 0},
		Ambient:        Color{0.1, 0.1, 0.1},
		CollisionGuard: &guard,
		Objects: []Object{
			{Sphere: &Sphere{Center: Vec{0, 50, 10}, Radius: 10, Color: Color{1, 0, 0}}},
			{Plane: &Plane{Point: Vec{0, 0, 0}, Normal: Vec{0, 0, 1}, Color: Color{0.8, 0.8, 0.8}}},
		},
		Lights: []Light{
			{Position: Vec{-100, 20, 100}, Color: Color{0.9, 0.9, 0.9}},
			{Position: Vec{100, 20, 100}, Color: Color{0.7, 0.7, 0.7}},
		},
		Camera: Camera{
			Origin:     Vec{0, 0, 10},
			Direction:  Vec{0, 1, 0},
			Up:         Vec{0, 0, 1},
			FOVDegrees: 45,
			Cols:       cols,
			Rows:       rows,
			TTL:        10,
		},
	}
}
