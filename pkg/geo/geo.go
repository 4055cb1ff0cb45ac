package geo

import (
	"math"

	"github.com/paulmach/orb"
)

// EarthRadius is the mean Earth radius in meters.
const EarthRadius = 6371000

// Coordinate is a geographic position in degrees.
// Lat is within [-90, 90] and Lon within (-180, 180].
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// NewCoordinate clamps lat and normalizes lon.
func NewCoordinate(lat, lon float64) Coordinate {
	return Coordinate{
		Lat: math.Max(-90, math.Min(90, lat)),
		Lon: NormalizeLon(lon),
	}
}

// Valid reports whether lat and lon are finite and lat is within range.
// Longitude is accepted unnormalized.
func Valid(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return false
	}
	return lat >= -90 && lat <= 90
}

// Point returns the coordinate as an orb point (lon, lat).
func (c Coordinate) Point() orb.Point {
	return orb.Point{c.Lon, c.Lat}
}

// FromPoint converts an orb point (lon, lat) into a normalized Coordinate.
func FromPoint(p orb.Point) Coordinate {
	return NewCoordinate(p.Lat(), p.Lon())
}

// NormalizeLon maps any longitude into (-180, 180].
func NormalizeLon(lon float64) float64 {
	lon = math.Mod(lon+180, 360)
	if lon <= 0 {
		lon += 360
	}
	return lon - 180
}

// Distance calculates the Haversine distance between two coordinates in meters.
func Distance(p1, p2 Coordinate) float64 {
	dLat := (p2.Lat - p1.Lat) * (math.Pi / 180.0)
	dLon := (p2.Lon - p1.Lon) * (math.Pi / 180.0)
	lat1 := p1.Lat * (math.Pi / 180.0)
	lat2 := p2.Lat * (math.Pi / 180.0)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Sin(dLon/2)*math.Sin(dLon/2)*math.Cos(lat1)*math.Cos(lat2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadius * c
}

// Named is anything with a name and a position.
type Named interface {
	Label() string
	Position() Coordinate
}

// Nearest returns the index of the candidate closest to c and its distance in
// meters. It returns -1 when candidates is empty.
func Nearest[T Named](c Coordinate, candidates []T) (idx int, meters float64) {
	idx = -1
	meters = math.MaxFloat64
	for i, cand := range candidates {
		d := Distance(c, cand.Position())
		if d < meters {
			idx, meters = i, d
		}
	}
	if idx < 0 {
		return -1, 0
	}
	return idx, meters
}
