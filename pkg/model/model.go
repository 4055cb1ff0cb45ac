package model

import (
	"math"

	"adisglobe/pkg/geo"
)

// InvalidConcentration is the sentinel threshold: concentrations at or below
// it mark a missing reading.
const InvalidConcentration = -1e20

// CityMarker is a labeled city with a static air-quality index.
type CityMarker struct {
	Name       string         `json:"name"`
	Coordinate geo.Coordinate `json:"coordinate"`
	Severity   int            `json:"aqi"`
}

// Label implements geo.Named.
func (c CityMarker) Label() string { return c.Name }

// Position implements geo.Named.
func (c CityMarker) Position() geo.Coordinate { return c.Coordinate }

// PollutionSample is one reading of the sampled concentration field.
type PollutionSample struct {
	Coordinate    geo.Coordinate `json:"coordinate"`
	Concentration float64        `json:"concentration"`
	Anomaly       bool           `json:"anomaly"`
}

// Valid reports whether the sample carries a usable reading.
func (s PollutionSample) Valid() bool {
	c := s.Concentration
	if math.IsNaN(c) || math.IsInf(c, 0) || c <= InvalidConcentration {
		return false
	}
	return geo.Valid(s.Coordinate.Lat, s.Coordinate.Lon)
}
