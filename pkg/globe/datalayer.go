package globe

import (
	"fmt"
	"math"

	"adisglobe/pkg/colorscale"
	"adisglobe/pkg/geo"
	"adisglobe/pkg/model"
	"adisglobe/pkg/render"
	"adisglobe/pkg/scene"
)

const (
	pointRadius    = 0.8
	pointSegs      = 8
	pointOpacity   = 0.7
	pointLift      = 0.5
	haloRadius     = 1.5
	haloOpacity    = 0.4
	haloColor      = render.Color(0xff0000)
	maxSeverity    = 500
	layerPollution = "pollution"
	layerAnomalies = "anomalies"

	// DefaultSeverityScale maps column densities (molecules/cm²) to an index.
	DefaultSeverityScale = 5e16
)

// SeverityFunc derives a severity index from a raw concentration.
type SeverityFunc func(concentration float64) float64

// LinearSeverity is ScaledSeverity(DefaultSeverityScale).
func LinearSeverity(concentration float64) float64 {
	return scaled(concentration, DefaultSeverityScale)
}

// ScaledSeverity returns clamp(c*scale, 0, 500); negative inputs map to 0.
func ScaledSeverity(scale float64) SeverityFunc {
	return func(c float64) float64 { return scaled(c, scale) }
}

func scaled(c, scale float64) float64 {
	if c < 0 {
		return 0
	}
	return math.Max(0, math.Min(maxSeverity, c*scale))
}

// LayerStats describes one pollution layer generation.
type LayerStats struct {
	Input     int `json:"input"`
	Valid     int `json:"valid"`
	Dropped   int `json:"dropped"`
	Stride    int `json:"stride"`
	Points    int `json:"points"`
	Anomalies int `json:"anomalies"`
}

// Downsample keeps every k-th item with k = ceil(len/budget) so at most budget
// items remain. A non-positive budget keeps everything.
func Downsample[T any](items []T, budget int) ([]T, int) {
	n := len(items)
	if budget <= 0 || n <= budget {
		return items, 1
	}
	k := (n + budget - 1) / budget
	out := make([]T, 0, (n+k-1)/k)
	for i := 0; i < n; i += k {
		out = append(out, items[i])
	}
	return out, k
}

// DataLayer renders the pollution point cloud. It is only touched from the
// render goroutine.
type DataLayer struct {
	radius   float64
	budget   int
	severity SeverityFunc
	group    *scene.Node
	res      resourceSet
	stats    LayerStats
}

func newDataLayer(dev render.Device, radius float64, budget int, severity SeverityFunc, group *scene.Node) *DataLayer {
	return &DataLayer{
		radius:   radius,
		budget:   budget,
		severity: severity,
		group:    group,
		res:      resourceSet{dev: dev},
	}
}

// Rebuild releases the previous generation and renders samples. Invalid
// samples are dropped and the rest stride-sampled down to the render budget.
func (l *DataLayer) Rebuild(samples []model.PollutionSample) (LayerStats, error) {
	if err := l.release(); err != nil {
		return LayerStats{}, err
	}

	valid := make([]model.PollutionSample, 0, len(samples))
	for _, s := range samples {
		if s.Valid() {
			valid = append(valid, s)
		}
	}
	kept, stride := Downsample(valid, l.budget)

	stats := LayerStats{
		Input:   len(samples),
		Valid:   len(valid),
		Dropped: len(samples) - len(valid),
		Stride:  stride,
	}
	if len(kept) == 0 {
		l.stats = stats
		return stats, nil
	}
	if err := l.build(kept, &stats); err != nil {
		_ = l.release()
		return LayerStats{}, err
	}
	l.stats = stats
	return stats, nil
}

func (l *DataLayer) build(samples []model.PollutionSample, stats *LayerStats) error {
	pointGeom, err := l.res.geometry(render.GeometryDesc{Radius: pointRadius, WidthSegments: pointSegs, HeightSegments: pointSegs})
	if err != nil {
		return err
	}
	var haloGeom, haloMat render.ResourceID
	mats := map[render.Color]render.ResourceID{}

	for _, s := range samples {
		color := colorscale.ColorFor(l.severity(s.Concentration))
		mat, ok := mats[color]
		if !ok {
			if mat, err = l.res.material(render.MaterialDesc{
				Color:       color,
				Opacity:     pointOpacity,
				Transparent: true,
				DepthWrite:  true,
			}); err != nil {
				return err
			}
			mats[color] = mat
		}
		pos := geo.CartesianOf(s.Coordinate, l.radius+pointLift)
		n := scene.NewMeshNode("", scene.Mesh{Geometry: pointGeom, Material: mat})
		n.Layer = layerPollution
		n.Position = pos
		l.group.Add(n)
		stats.Points++

		if !s.Anomaly {
			continue
		}
		if haloGeom == 0 {
			if haloGeom, err = l.res.geometry(render.GeometryDesc{Radius: haloRadius, WidthSegments: pointSegs, HeightSegments: pointSegs}); err != nil {
				return err
			}
			if haloMat, err = l.res.material(render.MaterialDesc{
				Color:       haloColor,
				Opacity:     haloOpacity,
				Transparent: true,
				Blending:    render.BlendAdditive,
				DepthWrite:  true,
			}); err != nil {
				return err
			}
		}
		h := scene.NewMeshNode("", scene.Mesh{Geometry: haloGeom, Material: haloMat})
		h.Layer = layerAnomalies
		h.Position = pos
		l.group.Add(h)
		stats.Anomalies++
	}
	return nil
}

func (l *DataLayer) release() error {
	l.group.Clear()
	l.stats = LayerStats{}
	if err := l.res.releaseAll(); err != nil {
		return fmt.Errorf("release pollution layer: %w", err)
	}
	return nil
}

// Stats returns the current generation's counts.
func (l *DataLayer) Stats() LayerStats { return l.stats }

// Primitives is the number of drawable nodes in the layer.
func (l *DataLayer) Primitives() int { return l.stats.Points + l.stats.Anomalies }

func (l *DataLayer) outstanding() int { return l.res.len() }
