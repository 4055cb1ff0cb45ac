package geo

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
)

func TestDistance(t *testing.T) {
	tests := []struct {
		name string
		p1   Coordinate
		p2   Coordinate
		want float64
	}{
		{
			name: "Same Point",
			p1:   Coordinate{Lat: 0, Lon: 0},
			p2:   Coordinate{Lat: 0, Lon: 0},
			want: 0,
		},
		{
			name: "London to Paris",
			p1:   Coordinate{Lat: 51.5074, Lon: -0.1278},
			p2:   Coordinate{Lat: 48.8566, Lon: 2.3522},
			want: 344000, // Approx 344km
		},
		{
			name: "Equator 1 degree",
			p1:   Coordinate{Lat: 0, Lon: 0},
			p2:   Coordinate{Lat: 0, Lon: 1},
			want: 111319, // Approx 111km
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Distance(tt.p1, tt.p2)
			// Allow 1% margin of error due to float precision/earth radius var
			margin := tt.want * 0.01
			if math.Abs(got-tt.want) > margin && tt.want != 0 {
				t.Errorf("Distance() = %v, want %v (+/- %v)", got, tt.want, margin)
			}
		})
	}
}

func TestNormalizeLon(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{180, 180},
		{-180, 180},
		{-179, -179},
		{190, -170},
		{-300, 60},
		{720, 0},
	}
	for _, tt := range tests {
		if got := NormalizeLon(tt.in); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("NormalizeLon(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewCoordinate(t *testing.T) {
	c := NewCoordinate(95, 200)
	if c.Lat != 90 || math.Abs(c.Lon-(-160)) > 1e-9 {
		t.Errorf("NewCoordinate(95, 200) = %+v", c)
	}
	if Valid(math.NaN(), 0) || Valid(0, math.Inf(1)) || Valid(91, 0) {
		t.Error("Valid accepted an invalid coordinate")
	}
	if !Valid(-90, 359) {
		t.Error("Valid rejected an unnormalized longitude")
	}
}

func TestOrbInterop(t *testing.T) {
	c := Coordinate{Lat: 28.6, Lon: 77.2}
	p := c.Point()
	if p != (orb.Point{77.2, 28.6}) {
		t.Fatalf("Point() = %v", p)
	}
	if back := FromPoint(p); back != c {
		t.Errorf("FromPoint() = %+v, want %+v", back, c)
	}
}

type place struct {
	name string
	at   Coordinate
}

func (p place) Label() string        { return p.name }
func (p place) Position() Coordinate { return p.at }

func TestNearest(t *testing.T) {
	places := []place{
		{"Delhi", Coordinate{28.6, 77.2}},
		{"Lahore", Coordinate{31.5, 74.3}},
		{"London", Coordinate{51.5, -0.1}},
	}

	idx, meters := Nearest(Coordinate{Lat: 31, Lon: 74}, places)
	if idx != 1 {
		t.Fatalf("Nearest idx = %d, want 1 (Lahore)", idx)
	}
	if meters <= 0 || meters > 100000 {
		t.Errorf("distance to Lahore = %v m, want under 100km", meters)
	}

	if idx, _ := Nearest(Coordinate{}, []place{}); idx != -1 {
		t.Errorf("Nearest on empty = %d, want -1", idx)
	}
}
