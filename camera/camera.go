package camera

import (
	"fmt"
	"math"

	"glint/ray"
	"glint/vmath/angle"
	"glint/vmath/vec3"
)

// Camera casts rays through a fixed-size grid of pixels.
type Camera interface {
	Spawn(col, row int) ray.Ray
	Bounds() (cols, rows int)
}

// FlatCamera projects the scene onto a flat screen one unit in front of
// Origin.  Each ray passes through the centre of its pixel.
type FlatCamera struct {
	origin  vec3.T
	topLeft vec3.T
	xInc    vec3.T
	yInc    vec3.T
	cols    int
	rows    int
	ttl     int
}

// NewFlatCamera builds a camera at origin looking along direction.  up only
// needs to be roughly up; its component along direction is removed.  fov is
// the horizontal field of view.
func NewFlatCamera(origin, direction, up vec3.T, fov angle.T, cols, rows, ttl int) (*FlatCamera, error) {
	if !origin.IsFinite() || !direction.IsFinite() || !up.IsFinite() {
		return nil, fmt.Errorf("camera vectors must be finite (origin=%v direction=%v up=%v)", origin, direction, up)
	}
	if direction.Norm() == 0 {
		return nil, fmt.Errorf("camera direction must be non-zero")
	}
	if !(fov.Rad() > 0 && fov.Rad() < math.Pi) {
		return nil, fmt.Errorf("field of view %v degrees must be in (0, 180)", fov.Deg())
	}
	if cols < 1 || rows < 1 {
		return nil, fmt.Errorf("resolution %dx%d must be at least 1x1", cols, rows)
	}
	if ttl < 1 {
		return nil, fmt.Errorf("ray ttl %d must be at least 1", ttl)
	}

	forward := vec3.Normalize(direction)
	upPerp := vec3.Reject(forward, up)
	if up.Norm() == 0 || upPerp.Norm() < 1e-9*up.Norm() {
		return nil, fmt.Errorf("up hint %v must be non-zero and not parallel to direction %v", up, direction)
	}
	screenUp := vec3.Normalize(upPerp)
	screenRight := vec3.CProd(forward, screenUp)
	centre := vec3.AddVV(origin, forward)

	screenWidth := 2.0 * math.Tan(fov.Rad()/2.0)
	pixelSize := screenWidth / float64(cols)

	xInc := vec3.MulVS(screenRight, pixelSize)
	yInc := vec3.MulVS(screenUp, pixelSize)
	topLeft := vec3.SubVV(
		vec3.SubVV(centre, vec3.MulVS(xInc, float64(cols)/2.0-0.5)),
		vec3.MulVS(yInc, float64(rows)/2.0-0.5))

	return &FlatCamera{
		origin:  origin,
		topLeft: topLeft,
		xInc:    xInc,
		yInc:    yInc,
		cols:    cols,
		rows:    rows,
		ttl:     ttl,
	}, nil
}

// Spawn returns the ray through pixel (col, row), with row 0 at the top of the
// image.  It panics if the pixel is outside the camera's bounds.
func (c *FlatCamera) Spawn(col, row int) ray.Ray {
	if col < 0 || col >= c.cols || row < 0 || row >= c.rows {
		panic(fmt.Sprintf("camera: pixel (%d, %d) outside bounds %dx%d", col, row, c.cols, c.rows))
	}

	screen := vec3.AddVV(
		vec3.AddVV(c.topLeft, vec3.MulVS(c.xInc, float64(col))),
		vec3.MulVS(c.yInc, float64(c.rows-row-1)))

	return ray.New(c.origin, vec3.Normalize(vec3.SubVV(screen, c.origin)), c.ttl)
}

func (c *FlatCamera) Bounds() (int, int) {
	return c.cols, c.rows
}

func (c *FlatCamera) Origin() vec3.T {
	return c.origin
}
