package globe

import (
	"time"

	"github.com/google/uuid"

	"adisglobe/pkg/colorscale"
	"adisglobe/pkg/geo"
	"adisglobe/pkg/metrics"
	"adisglobe/pkg/model"
	"adisglobe/pkg/scene"
	"adisglobe/pkg/vec"
)

// NDC converts a surface position in pixels to normalized device
// coordinates (+y up).
func NDC(x, y float64, width, height int) vec.Vec2 {
	return vec.Vec2{
		X: x/float64(width)*2 - 1,
		Y: -(y/float64(height))*2 + 1,
	}
}

// Picker resolves pointer clicks to a marker or a point on the globe surface.
type Picker struct {
	radius  float64
	camera  *scene.PerspectiveCamera
	globe   *scene.Node
	markers *MarkerLayer
	clock   func() time.Time
	ray     scene.Raycaster
}

// Pick casts a ray through (x, y). Markers always take priority over the
// globe surface, even where the surface hit is nearer. ok is false on a miss.
func (p *Picker) Pick(x, y float64, width, height int) (sel model.Selection, result string, ok bool) {
	if width <= 0 || height <= 0 {
		return model.Selection{}, metrics.PickMiss, false
	}
	p.ray.SetFromCamera(NDC(x, y, width, height), p.camera)

	if hits := p.ray.IntersectObjects(p.markers.Pickable(), false); len(hits) > 0 {
		if city, isCity := hits[0].Node.UserData.(model.CityMarker); isCity {
			return p.citySelection(city), metrics.PickMarker, true
		}
	}

	hits := p.ray.IntersectObject(p.globe, false)
	if len(hits) == 0 {
		return model.Selection{}, metrics.PickMiss, false
	}
	local := hits[0].Point.Sub(p.globe.WorldPosition())
	return p.pointSelection(geo.ToGeo(local, p.radius)), metrics.PickSurface, true
}

func (p *Picker) citySelection(c model.CityMarker) model.Selection {
	aqi := c.Severity
	cat := colorscale.CategoryFor(float64(aqi))
	return model.Selection{
		ID:         uuid.NewString(),
		Kind:       model.SelectionCity,
		Name:       c.Name,
		Coordinate: c.Coordinate,
		City:       &c,
		Severity:   &aqi,
		Category:   cat.Level,
		Color:      cat.Color.Hex(),
		CreatedAt:  p.clock(),
	}
}

func (p *Picker) pointSelection(c geo.Coordinate) model.Selection {
	sel := model.Selection{
		ID:         uuid.NewString(),
		Kind:       model.SelectionPoint,
		Name:       model.VirtualPointName,
		Coordinate: c,
		CreatedAt:  p.clock(),
	}
	if idx, d := geo.Nearest(c, p.markers.Cities()); idx >= 0 {
		sel.NearestCity = p.markers.Cities()[idx].Name
		sel.NearestDistance = d
	}
	return sel
}
