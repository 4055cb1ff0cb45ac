package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// City is one configured marker.
type City struct {
	Name string  `yaml:"name" json:"name"`
	Lat  float64 `yaml:"lat" json:"lat"`
	Lon  float64 `yaml:"lon" json:"lon"`
	AQI  int     `yaml:"aqi" json:"aqi"`
}

// CityList is the on-disk form of the city file.
type CityList struct {
	Cities []City `yaml:"cities"`
}

// LoadCities reads the ordered city list. A missing file is created with
// DefaultCities.
func LoadCities(path string) ([]City, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		cities := DefaultCities()
		if err := SaveCities(path, cities); err != nil {
			return nil, err
		}
		return cities, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read city file: %w", err)
	}

	var list CityList
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("failed to parse city file: %w", err)
	}
	if err := ValidateCities(list.Cities); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return list.Cities, nil
}

// SaveCities writes cities to path, creating the directory.
func SaveCities(path string, cities []City) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create city directory: %w", err)
	}
	data, err := yaml.Marshal(CityList{Cities: cities})
	if err != nil {
		return fmt.Errorf("failed to marshal cities: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write city file: %w", err)
	}
	return nil
}

// ValidateCities checks every entry; the first problem is reported.
func ValidateCities(cities []City) error {
	if len(cities) == 0 {
		return errors.New("city list is empty")
	}
	for i, c := range cities {
		switch {
		case c.Name == "":
			return fmt.Errorf("city %d: missing name", i)
		case c.Lat < -90 || c.Lat > 90:
			return fmt.Errorf("city %q: latitude %v out of range", c.Name, c.Lat)
		case c.Lon < -180 || c.Lon > 180:
			return fmt.Errorf("city %q: longitude %v out of range", c.Name, c.Lon)
		case c.AQI < 0:
			return fmt.Errorf("city %q: negative aqi %d", c.Name, c.AQI)
		}
	}
	return nil
}

// DefaultCities returns the stock marker set.
func DefaultCities() []City {
	return []City{
		{Name: "Delhi", Lat: 28.6, Lon: 77.2, AQI: 387},
		{Name: "Beijing", Lat: 39.9, Lon: 116.4, AQI: 178},
		{Name: "Dhaka", Lat: 23.8, Lon: 90.4, AQI: 296},
		{Name: "Mumbai", Lat: 19.1, Lon: 72.9, AQI: 164},
		{Name: "Lahore", Lat: 31.5, Lon: 74.3, AQI: 312},
		{Name: "Jakarta", Lat: -6.2, Lon: 106.8, AQI: 156},
		{Name: "Kolkata", Lat: 22.6, Lon: 88.4, AQI: 245},
		{Name: "Shanghai", Lat: 31.2, Lon: 121.5, AQI: 142},
		{Name: "Seoul", Lat: 37.6, Lon: 127.0, AQI: 98},
		{Name: "Tokyo", Lat: 35.7, Lon: 139.7, AQI: 67},
		{Name: "Bangkok", Lat: 13.8, Lon: 100.5, AQI: 134},
		{Name: "Hanoi", Lat: 21.0, Lon: 105.8, AQI: 167},
		{Name: "Karachi", Lat: 24.9, Lon: 67.0, AQI: 203},
		{Name: "Tehran", Lat: 35.7, Lon: 51.4, AQI: 198},
		{Name: "Ulaanbaatar", Lat: 47.9, Lon: 106.9, AQI: 289},
		{Name: "Kathmandu", Lat: 27.7, Lon: 85.3, AQI: 214},
		{Name: "Chengdu", Lat: 30.7, Lon: 104.1, AQI: 156},
		{Name: "Ho Chi Minh City", Lat: 10.8, Lon: 106.7, AQI: 123},
		{Name: "Cairo", Lat: 30.0, Lon: 31.2, AQI: 168},
		{Name: "Dubai", Lat: 25.3, Lon: 55.3, AQI: 112},
		{Name: "Riyadh", Lat: 24.7, Lon: 46.7, AQI: 134},
		{Name: "Baghdad", Lat: 33.3, Lon: 44.4, AQI: 189},
		{Name: "Lagos", Lat: 6.5, Lon: 3.4, AQI: 145},
		{Name: "Nairobi", Lat: -1.3, Lon: 36.8, AQI: 87},
		{Name: "Johannesburg", Lat: -26.2, Lon: 28.0, AQI: 76},
		{Name: "Addis Ababa", Lat: 9.0, Lon: 38.7, AQI: 94},
		{Name: "London", Lat: 51.5, Lon: -0.1, AQI: 52},
		{Name: "Paris", Lat: 48.9, Lon: 2.4, AQI: 61},
		{Name: "Moscow", Lat: 55.8, Lon: 37.6, AQI: 64},
		{Name: "Istanbul", Lat: 41.0, Lon: 28.9, AQI: 89},
		{Name: "Berlin", Lat: 52.5, Lon: 13.4, AQI: 48},
		{Name: "Rome", Lat: 41.9, Lon: 12.5, AQI: 73},
		{Name: "Madrid", Lat: 40.4, Lon: -3.7, AQI: 58},
		{Name: "Warsaw", Lat: 52.2, Lon: 21.0, AQI: 82},
		{Name: "Athens", Lat: 38.0, Lon: 23.7, AQI: 91},
		{Name: "Los Angeles", Lat: 34.1, Lon: -118.2, AQI: 87},
		{Name: "Mexico City", Lat: 19.4, Lon: -99.1, AQI: 124},
		{Name: "New York", Lat: 40.7, Lon: -74.0, AQI: 54},
		{Name: "Chicago", Lat: 41.9, Lon: -87.6, AQI: 62},
		{Name: "Houston", Lat: 29.8, Lon: -95.4, AQI: 71},
		{Name: "Phoenix", Lat: 33.4, Lon: -112.1, AQI: 79},
		{Name: "Toronto", Lat: 43.7, Lon: -79.4, AQI: 45},
		{Name: "Vancouver", Lat: 49.3, Lon: -123.1, AQI: 38},
		{Name: "Montreal", Lat: 45.5, Lon: -73.6, AQI: 41},
		{Name: "São Paulo", Lat: -23.5, Lon: -46.6, AQI: 78},
		{Name: "Rio de Janeiro", Lat: -22.9, Lon: -43.2, AQI: 67},
		{Name: "Buenos Aires", Lat: -34.6, Lon: -58.4, AQI: 73},
		{Name: "Lima", Lat: -12.0, Lon: -77.0, AQI: 98},
		{Name: "Bogotá", Lat: 4.7, Lon: -74.1, AQI: 102},
		{Name: "Santiago", Lat: -33.4, Lon: -70.7, AQI: 112},
		{Name: "Sydney", Lat: -33.9, Lon: 151.2, AQI: 34},
		{Name: "Melbourne", Lat: -37.8, Lon: 144.9, AQI: 39},
		{Name: "Auckland", Lat: -36.8, Lon: 174.8, AQI: 28},
		{Name: "Perth", Lat: -31.9, Lon: 115.9, AQI: 31},
	}
}
