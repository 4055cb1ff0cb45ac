package scene

import (
	"math"

	"adisglobe/pkg/render"
	"adisglobe/pkg/vec"
)

// PerspectiveCamera is a pinhole camera looking at a target point.
type PerspectiveCamera struct {
	FOV      float64 // vertical field of view, degrees
	Aspect   float64
	Near     float64
	Far      float64
	Position vec.Vec3
	Up       vec.Vec3

	target vec.Vec3
}

// NewPerspectiveCamera creates a camera at the origin looking down -Z.
func NewPerspectiveCamera(fov, aspect, near, far float64) *PerspectiveCamera {
	return &PerspectiveCamera{
		FOV:    fov,
		Aspect: aspect,
		Near:   near,
		Far:    far,
		Up:     vec.Vec3{Y: 1},
		target: vec.Vec3{Z: -1},
	}
}

// LookAt points the camera at t.
func (c *PerspectiveCamera) LookAt(t vec.Vec3) { c.target = t }

// Target returns the point the camera looks at.
func (c *PerspectiveCamera) Target() vec.Vec3 { return c.target }

// SetAspect updates the projection for a new viewport shape. Non-positive
// dimensions are ignored.
func (c *PerspectiveCamera) SetAspect(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	c.Aspect = float64(width) / float64(height)
}

// View returns the state handed to the device.
func (c *PerspectiveCamera) View() render.CameraView {
	return render.CameraView{
		Position: c.Position,
		Target:   c.target,
		Up:       c.Up,
		FOV:      c.FOV,
		Aspect:   c.Aspect,
		Near:     c.Near,
		Far:      c.Far,
	}
}

// basis returns the camera's forward, right and up unit vectors.
func (c *PerspectiveCamera) basis() (forward, right, up vec.Vec3) {
	forward = c.target.Sub(c.Position).Normalize()
	right = forward.Cross(c.Up).Normalize()
	if right.Len() == 0 {
		// Looking straight along Up; any perpendicular will do.
		right = forward.Cross(vec.Vec3{Z: 1}).Normalize()
	}
	up = right.Cross(forward)
	return forward, right, up
}

// Ray returns the world-space ray through normalized device coordinates
// (x, y in [-1, 1], +y up).
func (c *PerspectiveCamera) Ray(ndc vec.Vec2) vec.Ray {
	forward, right, up := c.basis()
	halfH := math.Tan(c.FOV * math.Pi / 360)
	halfW := halfH * c.Aspect
	dir := forward.
		Add(right.Scale(ndc.X * halfW)).
		Add(up.Scale(ndc.Y * halfH)).
		Normalize()
	return vec.Ray{Origin: c.Position, Direction: dir}
}

// Project maps a world point to normalized device coordinates. ok is false
// for points behind the camera.
func (c *PerspectiveCamera) Project(p vec.Vec3) (ndc vec.Vec2, ok bool) {
	forward, right, up := c.basis()
	d := p.Sub(c.Position)
	z := d.Dot(forward)
	if z <= 0 {
		return vec.Vec2{}, false
	}
	halfH := math.Tan(c.FOV * math.Pi / 360)
	halfW := halfH * c.Aspect
	return vec.Vec2{
		X: d.Dot(right) / (z * halfW),
		Y: d.Dot(up) / (z * halfH),
	}, true
}
