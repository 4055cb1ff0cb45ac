package globe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"adisglobe/pkg/logging"
	"adisglobe/pkg/metrics"
	"adisglobe/pkg/model"
	"adisglobe/pkg/render"
	"adisglobe/pkg/scene"
	"adisglobe/pkg/vec"
)

// ErrTornDown is returned for work submitted to a host whose loop has stopped.
var ErrTornDown = errors.New("globe: host torn down")

const (
	globeSegs = 64
	bumpScale = 0.5
	// Pointer travel in pixels beyond which a press becomes a drag.
	clickSlop = 4
)

// FrameStats describes the render loop.
type FrameStats struct {
	Frames    uint64    `json:"frames"`
	LastFrame time.Time `json:"last_frame"`
	Items     int       `json:"items"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	LastError string    `json:"last_error,omitempty"`
}

// Stats is a cross-goroutine snapshot of the host.
type Stats struct {
	Frame       FrameStats  `json:"frame"`
	Markers     MarkerStats `json:"markers"`
	Pollution   LayerStats  `json:"pollution"`
	Camera      CameraState `json:"camera"`
	Outstanding int         `json:"outstanding"`
}

// Host owns the surface, the device and the scene, and runs the render loop.
// Scene state is only mutated on the loop goroutine; other goroutines submit
// work with Post or Do.
type Host struct {
	opts    Options
	log     *slog.Logger
	surface render.Surface
	device  render.Device
	source  FrameSource
	metrics *metrics.Metrics

	// render goroutine only
	scene     *scene.Scene
	camera    *scene.PerspectiveCamera
	controls  *scene.OrbitControls
	globe     *scene.Node
	globeRes  resourceSet
	markers   *MarkerLayer
	data      *DataLayer
	picker    *Picker
	director  *Director
	width     int
	height    int
	lastTick  time.Time
	seq       uint64
	lastItems int
	press     *vec.Vec2
	dragged   bool
	lastError error

	mu        sync.Mutex
	tasks     []func()
	callbacks []func(time.Time)
	started   bool
	closed    bool
	wake      chan struct{}
	stop      chan struct{}
	done      chan struct{}
	teardown  sync.Once
	tdErr     error
	listeners []func()

	snapMu    sync.RWMutex
	selection *model.Selection
	stats     Stats
}

// New builds the scene on device and subscribes to surface events. The loop
// does not run until Start.
func New(surface render.Surface, device render.Device, opts Options) (*Host, error) {
	if !surface.Attached() {
		return nil, fmt.Errorf("new host: %w", render.ErrDetached)
	}
	opts = opts.withDefaults()
	h := &Host{
		opts:     opts,
		log:      opts.Logger,
		surface:  surface,
		device:   device,
		source:   opts.Source,
		metrics:  opts.Metrics,
		globeRes: resourceSet{dev: device},
		wake:     make(chan struct{}, 1),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	if h.source == nil {
		h.source = NewTickerSource(opts.FrameRate)
	}
	h.width, h.height = surface.Size()

	if err := h.buildScene(); err != nil {
		_ = h.globeRes.releaseAll()
		h.source.Stop()
		return nil, err
	}
	device.SetSize(h.width, h.height)

	h.listeners = append(h.listeners,
		surface.OnResize(func(w, ht int) {
			h.Post(func() { h.applyResize(w, ht) })
		}),
		surface.OnPointer(func(ev render.PointerEvent) {
			h.Post(func() { h.handlePointer(ev) })
		}),
	)
	h.director.snapshot()
	h.publishStats()
	return h, nil
}

func (h *Host) buildScene() error {
	o := h.opts
	h.scene = scene.New(o.Background)
	h.scene.Lights = []scene.Light{
		{Kind: scene.AmbientLight, Color: 0xffffff, Intensity: 0.45},
		{Kind: scene.PointLight, Color: 0xffffff, Intensity: 1, Position: vec.Vec3{X: 250, Y: 200, Z: 200}},
	}

	aspect := 1.0
	if h.width > 0 && h.height > 0 {
		aspect = float64(h.width) / float64(h.height)
	}
	h.camera = scene.NewPerspectiveCamera(o.FOV, aspect, o.Near, o.Far)
	h.camera.Position = vec.Vec3{Z: o.CameraDistance}
	h.camera.LookAt(vec.Zero)

	h.controls = scene.NewOrbitControls(h.camera, h.height)
	h.controls.EnableDamping = o.EnableDamping
	h.controls.DampingFactor = o.DampingFactor
	h.controls.MinDistance = o.MinDistance
	h.controls.MaxDistance = o.MaxDistance
	h.controls.AutoRotate = true
	h.controls.AutoRotateSpeed = o.AutoRotateSpeed

	mapTex, err := h.globeRes.texture(render.TextureDesc{Source: o.Textures.Map})
	if err != nil {
		return err
	}
	bumpTex, err := h.globeRes.texture(render.TextureDesc{Source: o.Textures.Bump})
	if err != nil {
		return err
	}
	specTex, err := h.globeRes.texture(render.TextureDesc{Source: o.Textures.Specular})
	if err != nil {
		return err
	}
	mat, err := h.globeRes.material(render.MaterialDesc{
		Shading:     render.ShadingPhong,
		Color:       0xffffff,
		Opacity:     1,
		DepthWrite:  true,
		Map:         mapTex,
		BumpMap:     bumpTex,
		BumpScale:   bumpScale,
		SpecularMap: specTex,
		Specular:    0x808080,
	})
	if err != nil {
		return err
	}
	geom, err := h.globeRes.geometry(render.GeometryDesc{Radius: o.Radius, WidthSegments: globeSegs, HeightSegments: globeSegs})
	if err != nil {
		return err
	}

	h.globe = scene.NewMeshNode("globe", scene.Mesh{Geometry: geom, Material: mat, Radius: o.Radius})
	h.globe.Layer = "globe"
	h.scene.Root.Add(h.globe)

	hazes := scene.NewGroup(layerHazes)
	markers := scene.NewGroup(layerMarkers)
	pollution := scene.NewGroup(layerPollution)
	h.globe.Add(hazes)
	h.globe.Add(markers)
	h.globe.Add(pollution)

	h.markers = newMarkerLayer(h.device, o.Radius, markers, hazes)
	h.data = newDataLayer(h.device, o.Radius, o.RenderBudget, o.Severity, pollution)
	h.picker = &Picker{radius: o.Radius, camera: h.camera, globe: h.globe, markers: h.markers, clock: o.Clock}
	h.director = &Director{h: h}
	return nil
}

// Director returns the camera director.
func (h *Host) Director() *Director { return h.director }

// Start runs the render loop until ctx is cancelled or Teardown is called.
func (h *Host) Start(ctx context.Context) {
	h.mu.Lock()
	if h.started || h.closed {
		h.mu.Unlock()
		return
	}
	h.started = true
	h.mu.Unlock()

	go h.loop(ctx)
}

func (h *Host) loop(ctx context.Context) {
	defer close(h.done)
	frames := h.source.Frames()
	h.log.Info("Render loop started", "fps", h.opts.FrameRate)
	for {
		select {
		case <-ctx.Done():
			// Nothing drains the queues any more; refuse new work until Teardown.
			h.mu.Lock()
			h.closed = true
			h.tasks = nil
			h.callbacks = nil
			h.mu.Unlock()
			h.log.Info("Render loop stopped", "reason", ctx.Err())
			return
		case <-h.stop:
			h.log.Info("Render loop stopped")
			return
		case <-h.wake:
			h.drainTasks()
		case now := <-frames:
			h.tick(now)
			h.source.FrameDone()
		}
	}
}

// Post queues task for the render goroutine. It is safe from any goroutine
// and a no-op once the host is torn down.
func (h *Host) Post(task func()) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.tasks = append(h.tasks, task)
	h.mu.Unlock()

	select {
	case h.wake <- struct{}{}:
	default:
	}
}

// Do runs task on the render goroutine and waits for it. It must not be
// called from the render goroutine.
func (h *Host) Do(ctx context.Context, task func()) error {
	finished := make(chan struct{})
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return ErrTornDown
	}
	h.mu.Unlock()

	h.Post(func() {
		task()
		close(finished)
	})
	select {
	case <-finished:
		return nil
	case <-h.stop:
		return ErrTornDown
	case <-h.done:
		return ErrTornDown
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RequestFrame schedules cb for the next frame. Callbacks requested while a
// frame's callbacks run are deferred to the frame after.
func (h *Host) RequestFrame(cb func(now time.Time)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.callbacks = append(h.callbacks, cb)
}

func (h *Host) drainTasks() {
	h.mu.Lock()
	tasks := h.tasks
	h.tasks = nil
	h.mu.Unlock()

	for _, t := range tasks {
		t()
	}
}

func (h *Host) tick(now time.Time) {
	start := time.Now()

	h.drainTasks()

	h.mu.Lock()
	cbs := h.callbacks
	h.callbacks = nil
	h.mu.Unlock()
	for _, cb := range cbs {
		cb(now)
	}

	var dt time.Duration
	if !h.lastTick.IsZero() {
		dt = now.Sub(h.lastTick)
	}
	h.lastTick = now
	h.controls.Update(dt)

	h.draw(now)
	h.director.snapshot()
	h.publishStats()
	h.metrics.ObserveFrame(time.Since(start))
}

func (h *Host) draw(now time.Time) {
	h.seq++
	f := &render.Frame{
		Seq:        h.seq,
		Time:       now,
		Width:      h.width,
		Height:     h.height,
		Background: h.scene.Background,
		Camera:     h.camera.View(),
		Items:      h.scene.Collect(nil),
	}
	if err := h.device.Draw(f); err != nil {
		if h.lastError == nil || h.lastError.Error() != err.Error() {
			h.log.Error("Draw failed", "error", err)
		}
		h.lastError = err
		return
	}
	h.lastError = nil
	h.lastItems = len(f.Items)
	logging.Trace(h.log, "Frame drawn", "seq", h.seq, "items", len(f.Items))
}

func (h *Host) applyResize(w, ht int) {
	if w <= 0 || ht <= 0 || !h.surface.Attached() {
		return
	}
	h.width, h.height = w, ht
	h.device.SetSize(w, ht)
	h.camera.SetAspect(w, ht)
	h.controls.SetViewportHeight(ht)
	h.log.Debug("Surface resized", "width", w, "height", ht)
}

func (h *Host) handlePointer(ev render.PointerEvent) {
	switch ev.Kind {
	case render.PointerDown:
		h.press = &vec.Vec2{X: ev.X, Y: ev.Y}
		h.dragged = false
		h.controls.PointerDown(ev.X, ev.Y)
	case render.PointerMove:
		if h.press != nil && !h.dragged {
			dx, dy := ev.X-h.press.X, ev.Y-h.press.Y
			h.dragged = dx*dx+dy*dy > clickSlop*clickSlop
		}
		h.controls.PointerMove(ev.X, ev.Y)
	case render.PointerUp:
		h.controls.PointerUp()
		if h.press != nil && !h.dragged {
			h.click(ev.X, ev.Y)
		}
		h.press = nil
	case render.PointerWheel:
		h.controls.Wheel(ev.DeltaY)
	}
}

func (h *Host) click(x, y float64) {
	sel, result, ok := h.picker.Pick(x, y, h.width, h.height)
	h.metrics.Pick(result)
	if !ok {
		return
	}
	h.log.Info("Selection", "kind", sel.Kind, "name", sel.Name, "lat", sel.Coordinate.Lat, "lon", sel.Coordinate.Lon)
	h.setSelection(&sel)
	if h.opts.OnSelect != nil {
		h.opts.OnSelect(sel)
	}
	if h.opts.FlyOnSelect {
		h.director.flyTo(sel.Coordinate, nil)
	}
}

// SetCities rebuilds the marker layer on the render goroutine.
func (h *Host) SetCities(ctx context.Context, cities []model.CityMarker) (MarkerStats, error) {
	var stats MarkerStats
	var err error
	if derr := h.Do(ctx, func() {
		start := time.Now()
		stats, err = h.markers.Rebuild(cities)
		h.metrics.ObserveRebuild(layerMarkers, stats.Markers+stats.Hazes, time.Since(start))
		h.publishStats()
	}); derr != nil {
		return MarkerStats{}, derr
	}
	return stats, err
}

// SetSamples replaces the pollution layer on the render goroutine.
func (h *Host) SetSamples(ctx context.Context, samples []model.PollutionSample) (LayerStats, error) {
	var stats LayerStats
	var err error
	if derr := h.Do(ctx, func() {
		start := time.Now()
		stats, err = h.data.Rebuild(samples)
		h.metrics.ObserveRebuild(layerPollution, h.data.Primitives(), time.Since(start))
		h.metrics.AddDropped(stats.Dropped)
		h.publishStats()
	}); derr != nil {
		return LayerStats{}, derr
	}
	if err == nil {
		h.log.Info("Pollution layer rebuilt", "input", stats.Input, "valid", stats.Valid, "points", stats.Points, "stride", stats.Stride)
	}
	return stats, err
}

func (h *Host) outstanding() int {
	return h.globeRes.len() + h.markers.outstanding() + h.data.outstanding()
}

func (h *Host) publishStats() {
	var lastErr string
	if h.lastError != nil {
		lastErr = h.lastError.Error()
	}
	s := Stats{
		Frame: FrameStats{
			Frames:    h.seq,
			LastFrame: h.lastTick,
			Items:     h.lastItems,
			Width:     h.width,
			Height:    h.height,
			LastError: lastErr,
		},
		Markers:     h.markers.Stats(),
		Pollution:   h.data.Stats(),
		Camera:      h.director.State(),
		Outstanding: h.outstanding(),
	}
	h.snapMu.Lock()
	h.stats = s
	h.snapMu.Unlock()
	h.metrics.SetOutstanding(s.Outstanding)
}

// Stats returns the latest snapshot.
func (h *Host) Stats() Stats {
	h.snapMu.RLock()
	defer h.snapMu.RUnlock()
	return h.stats
}

// Teardown stops the loop, unsubscribes from the surface, releases every
// resource the host allocated, disposes the device and detaches the surface.
// It is idempotent.
func (h *Host) Teardown() error {
	h.teardown.Do(func() { h.tdErr = h.doTeardown() })
	return h.tdErr
}

func (h *Host) doTeardown() error {
	h.mu.Lock()
	h.closed = true
	h.tasks = nil
	h.callbacks = nil
	started := h.started
	h.mu.Unlock()

	close(h.stop)
	if started {
		<-h.done
	}
	h.source.Stop()

	for _, remove := range h.listeners {
		remove()
	}
	h.listeners = nil
	h.controls.Dispose()

	var errs []error
	if err := h.data.release(); err != nil {
		errs = append(errs, err)
	}
	if err := h.markers.release(); err != nil {
		errs = append(errs, err)
	}
	if err := h.globeRes.releaseAll(); err != nil {
		errs = append(errs, fmt.Errorf("release globe: %w", err))
	}
	h.scene.Root.Clear()
	h.publishStats()

	if err := h.device.Dispose(); err != nil {
		errs = append(errs, fmt.Errorf("dispose device: %w", err))
	}
	if h.surface.Attached() {
		if err := h.surface.Detach(); err != nil && !errors.Is(err, render.ErrDetached) {
			errs = append(errs, fmt.Errorf("detach surface: %w", err))
		}
	}
	h.log.Info("Globe torn down")
	return errors.Join(errs...)
}
