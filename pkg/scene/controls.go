package scene

import (
	"math"
	"time"

	"adisglobe/pkg/vec"
)

const polarEps = 1e-6

// Spherical coordinates around the controls target. Theta is the azimuth
// around +Y measured from +Z, Phi the polar angle from +Y.
type Spherical struct {
	Radius float64
	Theta  float64
	Phi    float64
}

// SphericalFrom converts an offset vector to spherical coordinates.
func SphericalFrom(v vec.Vec3) Spherical {
	r := v.Len()
	if r == 0 {
		return Spherical{}
	}
	return Spherical{
		Radius: r,
		Theta:  math.Atan2(v.X, v.Z),
		Phi:    math.Acos(math.Max(-1, math.Min(1, v.Y/r))),
	}
}

// Vec converts back to a cartesian offset.
func (s Spherical) Vec() vec.Vec3 {
	sinPhi := math.Sin(s.Phi)
	return vec.Vec3{
		X: s.Radius * sinPhi * math.Sin(s.Theta),
		Y: s.Radius * math.Cos(s.Phi),
		Z: s.Radius * sinPhi * math.Cos(s.Theta),
	}
}

// OrbitControls rotates and dollies a camera around a target point.
// Panning is not supported. All methods must be called from the thread that
// owns the camera.
type OrbitControls struct {
	Target vec.Vec3

	EnableDamping   bool
	DampingFactor   float64
	MinDistance     float64
	MaxDistance     float64
	AutoRotate      bool
	AutoRotateSpeed float64 // 1.0 is one revolution per minute
	RotateSpeed     float64
	ZoomSpeed       float64

	camera   *PerspectiveCamera
	height   float64
	delta    Spherical // Radius unused
	scale    float64
	dragging bool
	last     vec.Vec2
	disposed bool
}

// NewOrbitControls attaches controls to camera. viewportHeight is used to
// convert pointer drags to angles.
func NewOrbitControls(camera *PerspectiveCamera, viewportHeight int) *OrbitControls {
	return &OrbitControls{
		DampingFactor:   0.05,
		MaxDistance:     math.Inf(1),
		AutoRotateSpeed: 2,
		RotateSpeed:     1,
		ZoomSpeed:       1,
		camera:          camera,
		height:          float64(max(viewportHeight, 1)),
		scale:           1,
	}
}

// Camera returns the controlled camera.
func (o *OrbitControls) Camera() *PerspectiveCamera { return o.camera }

// SetViewportHeight updates the drag-to-angle conversion after a resize.
func (o *OrbitControls) SetViewportHeight(h int) {
	if h > 0 {
		o.height = float64(h)
	}
}

// RotateLeft queues an azimuth change in radians.
func (o *OrbitControls) RotateLeft(angle float64) { o.delta.Theta -= angle }

// RotateUp queues a polar change in radians.
func (o *OrbitControls) RotateUp(angle float64) { o.delta.Phi -= angle }

// Dolly queues a distance multiplier; values below 1 move closer.
func (o *OrbitControls) Dolly(factor float64) {
	if factor > 0 {
		o.scale *= factor
	}
}

// PointerDown starts a drag at (x, y) in pixels.
func (o *OrbitControls) PointerDown(x, y float64) {
	if o.disposed {
		return
	}
	o.dragging = true
	o.last = vec.Vec2{X: x, Y: y}
}

// PointerMove rotates by the movement since the previous pointer position.
func (o *OrbitControls) PointerMove(x, y float64) {
	if o.disposed || !o.dragging {
		return
	}
	dx, dy := x-o.last.X, y-o.last.Y
	o.last = vec.Vec2{X: x, Y: y}
	o.RotateLeft(2 * math.Pi * dx / o.height * o.RotateSpeed)
	o.RotateUp(2 * math.Pi * dy / o.height * o.RotateSpeed)
}

// PointerUp ends a drag.
func (o *OrbitControls) PointerUp() { o.dragging = false }

// Wheel dollies in for negative deltaY and out for positive.
func (o *OrbitControls) Wheel(deltaY float64) {
	if o.disposed || deltaY == 0 {
		return
	}
	step := math.Pow(0.95, o.ZoomSpeed)
	if deltaY < 0 {
		o.Dolly(step)
	} else {
		o.Dolly(1 / step)
	}
}

// Dragging reports whether a pointer drag is in progress.
func (o *OrbitControls) Dragging() bool { return o.dragging }

// Update applies pending rotation, zoom and auto-rotation for a frame of
// length dt and repositions the camera. It returns true when the camera moved.
func (o *OrbitControls) Update(dt time.Duration) bool {
	if o.disposed {
		return false
	}
	before := o.camera.Position

	offset := o.camera.Position.Sub(o.Target)
	s := SphericalFrom(offset)

	if o.AutoRotate && !o.dragging && dt > 0 {
		o.RotateLeft(2 * math.Pi / 60 * o.AutoRotateSpeed * dt.Seconds())
	}

	if o.EnableDamping {
		s.Theta += o.delta.Theta * o.DampingFactor
		s.Phi += o.delta.Phi * o.DampingFactor
	} else {
		s.Theta += o.delta.Theta
		s.Phi += o.delta.Phi
	}
	s.Phi = math.Max(polarEps, math.Min(math.Pi-polarEps, s.Phi))

	s.Radius *= o.scale
	s.Radius = math.Max(o.MinDistance, math.Min(o.MaxDistance, s.Radius))

	o.camera.Position = o.Target.Add(s.Vec())
	o.camera.LookAt(o.Target)

	if o.EnableDamping {
		o.delta.Theta *= 1 - o.DampingFactor
		o.delta.Phi *= 1 - o.DampingFactor
	} else {
		o.delta = Spherical{}
	}
	o.scale = 1

	return o.camera.Position.DistanceTo(before) > 1e-9
}

// Stop discards pending rotation momentum and zoom.
func (o *OrbitControls) Stop() {
	o.delta = Spherical{}
	o.scale = 1
	o.dragging = false
}

// Dispose detaches the controls; later input and updates are ignored.
func (o *OrbitControls) Dispose() {
	o.Stop()
	o.disposed = true
}

// Disposed reports whether Dispose was called.
func (o *OrbitControls) Disposed() bool { return o.disposed }
