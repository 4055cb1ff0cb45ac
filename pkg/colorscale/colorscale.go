// Package colorscale maps air-quality severity values to display categories.
package colorscale

import (
	"adisglobe/pkg/render"
)

// Category is one severity band.
type Category struct {
	Level string       `json:"level"`
	Range string       `json:"range"`
	Min   int          `json:"min"`
	Max   int          `json:"max"` // inclusive; -1 for the open top band
	Color render.Color `json:"color"`
	Desc  string       `json:"desc"`
}

// Severity breakpoints (upper bound of each band, inclusive).
const (
	GoodMax           = 50
	ModerateMax       = 100
	SensitiveMax      = 150
	UnhealthyMax      = 200
	VeryUnhealthyMax  = 300
	HazardousFloor    = VeryUnhealthyMax + 1
	HighSeverityFloor = SensitiveMax // markers above this get a haze halo
)

var categories = []Category{
	{Level: "Good", Range: "0-50", Min: 0, Max: GoodMax, Color: 0x00e400,
		Desc: "Air quality is satisfactory, and air pollution poses little or no risk."},
	{Level: "Moderate", Range: "51-100", Min: GoodMax + 1, Max: ModerateMax, Color: 0xffff00,
		Desc: "Air quality is acceptable. Unusually sensitive people should consider limiting prolonged outdoor exertion."},
	{Level: "Unhealthy for Sensitive Groups", Range: "101-150", Min: ModerateMax + 1, Max: SensitiveMax, Color: 0xff7e00,
		Desc: "Members of sensitive groups may experience health effects. The general public is less likely to be affected."},
	{Level: "Unhealthy", Range: "151-200", Min: SensitiveMax + 1, Max: UnhealthyMax, Color: 0xff0000,
		Desc: "Some members of the general public may experience health effects; sensitive groups may experience more serious effects."},
	{Level: "Very Unhealthy", Range: "201-300", Min: UnhealthyMax + 1, Max: VeryUnhealthyMax, Color: 0x8f3f97,
		Desc: "Health alert: the risk of health effects is increased for everyone."},
	{Level: "Hazardous", Range: "301+", Min: HazardousFloor, Max: -1, Color: 0x7e0023,
		Desc: "Health warning of emergency conditions: everyone is more likely to be affected."},
}

// Legend returns the ordered category table.
func Legend() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// CategoryFor returns the band containing severity. Values below zero fall in
// the first band and values above the last breakpoint in the last.
// Fractional values are compared against the inclusive integer bounds, so
// 50.5 is Moderate.
func CategoryFor(severity float64) Category {
	for _, c := range categories {
		if c.Max < 0 || severity <= float64(c.Max) {
			return c
		}
	}
	return categories[len(categories)-1]
}

// ColorFor returns the display color for severity.
func ColorFor(severity float64) render.Color {
	return CategoryFor(severity).Color
}

// Hazardous reports whether severity is in the top band.
func Hazardous(severity float64) bool {
	return severity > VeryUnhealthyMax
}
