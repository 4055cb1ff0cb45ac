package model

import (
	"time"

	"github.com/paulmach/orb/geojson"

	"adisglobe/pkg/geo"
)

// SelectionKind distinguishes a picked city marker from a picked surface point.
type SelectionKind string

const (
	SelectionCity  SelectionKind = "city"
	SelectionPoint SelectionKind = "point"
)

// VirtualPointName is the display name of a surface pick.
const VirtualPointName = "Selected Location"

// Selection is the currently focused entity. City selections carry the marker
// and its severity; point selections carry neither.
type Selection struct {
	ID         string         `json:"id"`
	Kind       SelectionKind  `json:"kind"`
	Name       string         `json:"name"`
	Coordinate geo.Coordinate `json:"coordinate"`
	City       *CityMarker    `json:"city,omitempty"`
	Severity   *int           `json:"aqi,omitempty"`
	Category   string         `json:"category,omitempty"`
	Color      string         `json:"color,omitempty"`

	NearestCity     string  `json:"nearest_city,omitempty"`
	NearestDistance float64 `json:"nearest_distance_m,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Feature renders the selection as a GeoJSON point feature.
func (s *Selection) Feature() *geojson.Feature {
	f := geojson.NewFeature(s.Coordinate.Point())
	f.ID = s.ID
	f.Properties["kind"] = string(s.Kind)
	f.Properties["name"] = s.Name
	if s.Severity != nil {
		f.Properties["aqi"] = *s.Severity
		f.Properties["category"] = s.Category
		f.Properties["color"] = s.Color
	}
	if s.NearestCity != "" {
		f.Properties["nearest_city"] = s.NearestCity
		f.Properties["nearest_distance_m"] = s.NearestDistance
	}
	return f
}
