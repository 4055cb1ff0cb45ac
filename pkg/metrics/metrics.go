// Package metrics exposes Prometheus collectors for the globe render loop,
// its layers and picking.
package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pick results.
const (
	PickMarker  = "marker"
	PickSurface = "surface"
	PickMiss    = "miss"
)

// Fly-to outcomes.
const (
	FlyCompleted = "completed"
	FlyCancelled = "cancelled"
)

// Metrics bundles the globe collectors. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	gatherer prometheus.Gatherer

	Frames         prometheus.Counter
	FrameDuration  prometheus.Histogram
	LayerPrimitive *prometheus.GaugeVec
	LayerRebuild   *prometheus.HistogramVec
	DroppedSamples prometheus.Counter
	Picks          *prometheus.CounterVec
	FlyTo          *prometheus.CounterVec
	Outstanding    prometheus.Gauge
	DatasetErrors  prometheus.Counter
}

// New registers the collectors against reg, defaulting to the global
// registry when nil. Registering twice against the same registry reuses the
// existing collectors.
func New(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	m := &Metrics{gatherer: gatherer}
	var err error

	if m.Frames, err = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "globe_frames_total",
		Help: "Frames submitted to the render device.",
	})); err != nil {
		return nil, err
	}
	if m.FrameDuration, err = register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "globe_frame_duration_seconds",
		Help:    "Time spent on the render goroutine per frame.",
		Buckets: []float64{0.0005, 0.001, 0.002, 0.004, 0.008, 0.016, 0.033, 0.066, 0.1},
	})); err != nil {
		return nil, err
	}
	if m.LayerPrimitive, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "globe_layer_primitives",
		Help: "Drawable primitives currently in each layer.",
	}, []string{"layer"})); err != nil {
		return nil, err
	}
	if m.LayerRebuild, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "globe_layer_rebuild_duration_seconds",
		Help:    "Layer rebuild latency in seconds.",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
	}, []string{"layer"})); err != nil {
		return nil, err
	}
	if m.DroppedSamples, err = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "globe_dropped_samples_total",
		Help: "Pollution samples dropped as invalid before rendering.",
	})); err != nil {
		return nil, err
	}
	if m.Picks, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "globe_picks_total",
		Help: "Pointer picks by result (marker, surface, miss).",
	}, []string{"result"})); err != nil {
		return nil, err
	}
	if m.FlyTo, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "globe_flyto_total",
		Help: "Camera fly-to animations by outcome.",
	}, []string{"outcome"})); err != nil {
		return nil, err
	}
	if m.Outstanding, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "globe_outstanding_resources",
		Help: "Device resources allocated by the globe and not yet released.",
	})); err != nil {
		return nil, err
	}
	if m.DatasetErrors, err = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "globe_dataset_fetch_errors_total",
		Help: "Failed pollution dataset fetches.",
	})); err != nil {
		return nil, err
	}
	return m, nil
}

// Handler exposes a ready-to-use /metrics handler.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// ObserveFrame records one drawn frame.
func (m *Metrics) ObserveFrame(d time.Duration) {
	if m == nil {
		return
	}
	m.Frames.Inc()
	m.FrameDuration.Observe(d.Seconds())
}

// ObserveRebuild records a layer rebuild and its resulting primitive count.
func (m *Metrics) ObserveRebuild(layer string, primitives int, d time.Duration) {
	if m == nil {
		return
	}
	m.LayerPrimitive.WithLabelValues(layer).Set(float64(primitives))
	m.LayerRebuild.WithLabelValues(layer).Observe(d.Seconds())
}

// AddDropped counts invalid samples.
func (m *Metrics) AddDropped(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.DroppedSamples.Add(float64(n))
}

// Pick counts a pick by result.
func (m *Metrics) Pick(result string) {
	if m == nil {
		return
	}
	m.Picks.WithLabelValues(result).Inc()
}

// Fly counts a finished or superseded fly-to.
func (m *Metrics) Fly(outcome string) {
	if m == nil {
		return
	}
	m.FlyTo.WithLabelValues(outcome).Inc()
}

// SetOutstanding publishes the live resource count.
func (m *Metrics) SetOutstanding(n int) {
	if m == nil {
		return
	}
	m.Outstanding.Set(float64(n))
}

// DatasetError counts a failed dataset fetch.
func (m *Metrics) DatasetError() {
	if m == nil {
		return
	}
	m.DatasetErrors.Inc()
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
			var zero C
			return zero, fmt.Errorf("collector already registered with incompatible type: %w", err)
		}
		var zero C
		return zero, err
	}
	return c, nil
}
