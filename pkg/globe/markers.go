package globe

import (
	"fmt"
	"math"

	"adisglobe/pkg/colorscale"
	"adisglobe/pkg/geo"
	"adisglobe/pkg/model"
	"adisglobe/pkg/render"
	"adisglobe/pkg/scene"
	"adisglobe/pkg/vec"
)

const (
	markerRadius  = 2.2
	markerSegs    = 16
	hazeSegs      = 20
	hazeMaxRadius = 18
	hazeDivisor   = 18
	hazeOpacity   = 0.28

	layerMarkers = "markers"
	layerHazes   = "hazes"
)

// MarkerStats summarizes a marker layer generation.
type MarkerStats struct {
	Markers int `json:"markers"`
	Hazes   int `json:"hazes"`
}

// MarkerLayer draws one pickable sphere per city and a haze halo around
// high-severity cities. It is only touched from the render goroutine.
type MarkerLayer struct {
	radius  float64
	markers *scene.Node
	hazes   *scene.Node
	res     resourceSet

	cities   []model.CityMarker
	pickable []*scene.Node
	stats    MarkerStats
}

func newMarkerLayer(dev render.Device, radius float64, markers, hazes *scene.Node) *MarkerLayer {
	return &MarkerLayer{
		radius:  radius,
		markers: markers,
		hazes:   hazes,
		res:     resourceSet{dev: dev},
	}
}

// HazeRadius is the halo size for a severity.
func HazeRadius(severity int) float64 {
	return math.Min(hazeMaxRadius, float64(severity)/hazeDivisor)
}

// Rebuild replaces every marker and haze with a fresh generation for cities.
func (l *MarkerLayer) Rebuild(cities []model.CityMarker) (MarkerStats, error) {
	if err := l.release(); err != nil {
		return MarkerStats{}, err
	}
	if len(cities) == 0 {
		return l.stats, nil
	}
	if err := l.build(cities); err != nil {
		// Leave the layer empty rather than half built.
		_ = l.release()
		return MarkerStats{}, err
	}
	return l.stats, nil
}

func (l *MarkerLayer) build(cities []model.CityMarker) error {
	markerGeom, err := l.res.geometry(render.GeometryDesc{Radius: markerRadius, WidthSegments: markerSegs, HeightSegments: markerSegs})
	if err != nil {
		return err
	}
	var hazeGeom render.ResourceID
	markerMats := map[render.Color]render.ResourceID{}
	hazeMats := map[render.Color]render.ResourceID{}

	l.cities = make([]model.CityMarker, len(cities))
	copy(l.cities, cities)

	for i := range l.cities {
		c := &l.cities[i]
		color := colorscale.ColorFor(float64(c.Severity))
		pos := geo.CartesianOf(c.Coordinate, l.radius)

		mat, ok := markerMats[color]
		if !ok {
			if mat, err = l.res.material(render.MaterialDesc{Color: color, Opacity: 1, DepthWrite: true}); err != nil {
				return err
			}
			markerMats[color] = mat
		}
		n := scene.NewMeshNode(c.Name, scene.Mesh{Geometry: markerGeom, Material: mat, Radius: markerRadius})
		n.Layer = layerMarkers
		n.Position = pos
		n.UserData = *c
		l.markers.Add(n)
		n.LookAt(vec.Zero)
		l.pickable = append(l.pickable, n)
		l.stats.Markers++

		if c.Severity <= colorscale.HighSeverityFloor {
			continue
		}
		if hazeGeom == 0 {
			// Unit sphere scaled per city.
			if hazeGeom, err = l.res.geometry(render.GeometryDesc{Radius: 1, WidthSegments: hazeSegs, HeightSegments: hazeSegs}); err != nil {
				return err
			}
		}
		hmat, ok := hazeMats[color]
		if !ok {
			if hmat, err = l.res.material(render.MaterialDesc{
				Color:       color,
				Opacity:     hazeOpacity,
				Transparent: true,
				Blending:    render.BlendAdditive,
				DepthWrite:  false,
			}); err != nil {
				return err
			}
			hazeMats[color] = hmat
		}
		h := scene.NewMeshNode(c.Name+" haze", scene.Mesh{Geometry: hazeGeom, Material: hmat})
		h.Layer = layerHazes
		h.Position = pos
		h.Scale = HazeRadius(c.Severity)
		l.hazes.Add(h)
		l.stats.Hazes++
	}
	return nil
}

func (l *MarkerLayer) release() error {
	l.markers.Clear()
	l.hazes.Clear()
	l.cities = nil
	l.pickable = nil
	l.stats = MarkerStats{}
	if err := l.res.releaseAll(); err != nil {
		return fmt.Errorf("release markers: %w", err)
	}
	return nil
}

// Pickable returns the marker nodes, one per city, in city order.
func (l *MarkerLayer) Pickable() []*scene.Node { return l.pickable }

// Cities returns the cities of the current generation.
func (l *MarkerLayer) Cities() []model.CityMarker { return l.cities }

// Stats returns the current generation's counts.
func (l *MarkerLayer) Stats() MarkerStats { return l.stats }

func (l *MarkerLayer) outstanding() int { return l.res.len() }
