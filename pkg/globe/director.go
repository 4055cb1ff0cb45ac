package globe

import (
	"sync"
	"time"

	"adisglobe/pkg/geo"
	"adisglobe/pkg/metrics"
	"adisglobe/pkg/vec"
)

// CameraState is a snapshot of the camera, safe to read from any goroutine.
type CameraState struct {
	Position   vec.Vec3 `json:"position"`
	Target     vec.Vec3 `json:"target"`
	AutoRotate bool     `json:"auto_rotate"`
	Flying     bool     `json:"flying"`
}

// Director animates the camera. Public methods may be called from any
// goroutine; the work itself runs on the render goroutine.
type Director struct {
	h *Host

	// render goroutine only
	token  uint64
	flying bool

	mu    sync.RWMutex
	state CameraState
}

type flight struct {
	token            uint64
	t0               time.Time
	duration         time.Duration
	startPos, endPos vec.Vec3
	startTgt, endTgt vec.Vec3
	onComplete       func()
}

// ResetView returns the camera to its canonical position with auto-rotate on.
// It is applied on the next frame without animation and cancels any flight.
func (d *Director) ResetView() {
	d.h.Post(d.reset)
}

// FlyToCity animates the camera to look at target. onComplete runs on the
// render goroutine once the flight lands; it never runs if another flight or
// a reset supersedes this one.
func (d *Director) FlyToCity(target geo.Coordinate, onComplete func()) {
	d.h.Post(func() { d.flyTo(target, onComplete) })
}

// State returns the camera snapshot taken at the end of the last frame or
// camera command.
func (d *Director) State() CameraState {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.state
}

func (d *Director) supersede() uint64 {
	if d.flying {
		d.h.metrics.Fly(metrics.FlyCancelled)
		d.flying = false
	}
	d.token++
	return d.token
}

func (d *Director) reset() {
	d.supersede()
	h := d.h
	h.controls.Stop()
	h.camera.Position = vec.Vec3{Z: h.opts.CameraDistance}
	h.controls.Target = vec.Zero
	h.controls.AutoRotate = true
	h.controls.Update(0)
	d.snapshot()
	h.log.Debug("Camera reset")
}

func (d *Director) flyTo(target geo.Coordinate, onComplete func()) {
	h := d.h
	tok := d.supersede()
	h.controls.AutoRotate = false
	h.controls.Stop()

	p := geo.CartesianOf(target, h.opts.Radius)
	f := &flight{
		token:      tok,
		t0:         h.opts.Clock(),
		duration:   h.opts.FlyDuration,
		startPos:   h.camera.Position,
		endPos:     p.Normalize().Scale(h.opts.FlyDistance),
		startTgt:   h.controls.Target,
		endTgt:     p.Scale(0.98),
		onComplete: onComplete,
	}
	d.flying = true
	d.snapshot()
	h.log.Debug("Fly-to started", "lat", target.Lat, "lon", target.Lon, "token", tok)
	h.RequestFrame(func(now time.Time) { d.step(f, now) })
}

func (d *Director) step(f *flight, now time.Time) {
	if f.token != d.token {
		return
	}
	h := d.h
	t := 1.0
	if f.duration > 0 {
		t = min(1, max(0, float64(now.Sub(f.t0))/float64(f.duration)))
	}
	h.camera.Position = vec.Lerp(f.startPos, f.endPos, t)
	h.controls.Target = vec.Lerp(f.startTgt, f.endTgt, t)
	h.camera.LookAt(h.controls.Target)

	if t < 1 {
		h.RequestFrame(func(now time.Time) { d.step(f, now) })
		return
	}
	d.flying = false
	h.metrics.Fly(metrics.FlyCompleted)
	if f.onComplete != nil {
		f.onComplete()
	}
}

// snapshot publishes the camera state; render goroutine only.
func (d *Director) snapshot() {
	h := d.h
	s := CameraState{
		Position:   h.camera.Position,
		Target:     h.controls.Target,
		AutoRotate: h.controls.AutoRotate,
		Flying:     d.flying,
	}
	d.mu.Lock()
	d.state = s
	d.mu.Unlock()
}
