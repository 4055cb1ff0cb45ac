// Package globe hosts the interactive globe: the render loop, the camera
// director, pointer picking and the marker and pollution layers.
package globe

import (
	"log/slog"
	"time"

	"adisglobe/pkg/metrics"
	"adisglobe/pkg/model"
	"adisglobe/pkg/render"
)

// Textures are the globe surface image sources.
type Textures struct {
	Map      string
	Bump     string
	Specular string
}

// Options configure a Host. Start from DefaultOptions; zero numeric fields
// fall back to the defaults.
type Options struct {
	Radius          float64
	CameraDistance  float64
	FOV             float64
	Near            float64
	Far             float64
	MinDistance     float64
	MaxDistance     float64
	AutoRotateSpeed float64
	EnableDamping   bool
	DampingFactor   float64
	Background      render.Color
	Textures        Textures
	FrameRate       int

	FlyDuration time.Duration
	FlyDistance float64
	FlyOnSelect bool

	RenderBudget int
	Severity     SeverityFunc

	// Source drives the render loop. Nil uses a ticker at FrameRate.
	Source FrameSource
	// Clock stamps fly-to start times and selections. Nil uses time.Now.
	Clock func() time.Time

	// OnSelect and OnDismiss run on the render goroutine and must not block.
	OnSelect  func(model.Selection)
	OnDismiss func()

	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// DefaultOptions returns the stock globe setup.
func DefaultOptions() Options {
	return Options{
		Radius:          100,
		CameraDistance:  320,
		FOV:             45,
		Near:            0.1,
		Far:             2000,
		MinDistance:     140,
		MaxDistance:     450,
		AutoRotateSpeed: 0.35,
		EnableDamping:   true,
		DampingFactor:   0.05,
		Background:      0x0a0e1a,
		Textures: Textures{
			Map:      "https://threejs.org/examples/textures/land_ocean_ice_cloud_2048.jpg",
			Bump:     "https://threejs.org/examples/textures/earthbump1k.jpg",
			Specular: "https://threejs.org/examples/textures/earthspec1k.jpg",
		},
		FrameRate:    60,
		FlyDuration:  900 * time.Millisecond,
		FlyDistance:  260,
		FlyOnSelect:  true,
		RenderBudget: 20000,
		Severity:     LinearSeverity,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Radius <= 0 {
		o.Radius = d.Radius
	}
	if o.CameraDistance <= 0 {
		o.CameraDistance = d.CameraDistance
	}
	if o.FOV <= 0 {
		o.FOV = d.FOV
	}
	if o.Near <= 0 {
		o.Near = d.Near
	}
	if o.Far <= 0 {
		o.Far = d.Far
	}
	if o.MinDistance <= 0 {
		o.MinDistance = o.Radius + 40
	}
	if o.MaxDistance <= 0 {
		o.MaxDistance = o.Radius + 350
	}
	if o.DampingFactor <= 0 {
		o.DampingFactor = d.DampingFactor
	}
	if o.FrameRate <= 0 {
		o.FrameRate = d.FrameRate
	}
	if o.FlyDuration <= 0 {
		o.FlyDuration = d.FlyDuration
	}
	if o.FlyDistance <= 0 {
		o.FlyDistance = d.FlyDistance
	}
	if o.RenderBudget <= 0 {
		o.RenderBudget = d.RenderBudget
	}
	if o.Severity == nil {
		o.Severity = LinearSeverity
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
	if o.Logger == nil {
		o.Logger = slog.Default().With("component", "globe")
	}
	return o
}
