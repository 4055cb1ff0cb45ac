package geo

import (
	"math"

	"adisglobe/pkg/vec"
)

const (
	degToRad = math.Pi / 180.0
	radToDeg = 180.0 / math.Pi
)

// ToCartesian places (lat, lon) on a sphere of the given radius.
// The polar angle is measured from +Y (north); the azimuth is offset by 180°
// so lon 0 lands on +X and lon 90 on -Z.
func ToCartesian(lat, lon, radius float64) vec.Vec3 {
	phi := (90 - lat) * degToRad
	theta := (lon + 180) * degToRad
	return vec.Vec3{
		X: -radius * math.Sin(phi) * math.Cos(theta),
		Y: radius * math.Cos(phi),
		Z: radius * math.Sin(phi) * math.Sin(theta),
	}
}

// ToGeo is the inverse of ToCartesian for a point on (or near) the sphere of
// the given radius. At the poles longitude is reported as 0.
func ToGeo(p vec.Vec3, radius float64) Coordinate {
	if radius <= 0 {
		return Coordinate{}
	}
	cosPhi := math.Max(-1, math.Min(1, p.Y/radius))
	lat := 90 - math.Acos(cosPhi)*radToDeg

	if math.Hypot(p.X, p.Z) <= 1e-12*radius {
		return Coordinate{Lat: lat, Lon: 0}
	}
	theta := math.Atan2(p.Z, -p.X) * radToDeg
	return Coordinate{Lat: lat, Lon: NormalizeLon(theta - 180)}
}

// CartesianOf is ToCartesian for a Coordinate.
func CartesianOf(c Coordinate, radius float64) vec.Vec3 {
	return ToCartesian(c.Lat, c.Lon, radius)
}
