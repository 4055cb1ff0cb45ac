package probe

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"adisglobe/pkg/config"
)

func TestCityConfig(t *testing.T) {
	p := CityConfig(config.DefaultCities())
	if !p.Critical {
		t.Error("City Config must be critical")
	}
	if err := p.Check(context.Background()); err != nil {
		t.Errorf("default cities rejected: %v", err)
	}
	if err := CityConfig(nil).Check(context.Background()); err == nil {
		t.Error("empty city list accepted")
	}
	bad := []config.City{{Name: "Nowhere", Lat: 123}}
	if err := CityConfig(bad).Check(context.Background()); err == nil {
		t.Error("out of range latitude accepted")
	}
}

func TestDatasetSource(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "fused_data.json")
	if err := os.WriteFile(file, []byte("[]"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		source  string
		wantErr bool
	}{
		{"https://data.example.org/fused_data.json", false},
		{"http://localhost:8080/fused.json", false},
		{"https:///fused.json", true},
		{file, false},
		{"file://" + file, false},
		{filepath.Join(dir, "missing.json"), true},
		{dir, true},
		{"", true},
	}
	for _, tt := range tests {
		err := DatasetSource(tt.source).Check(context.Background())
		if (err != nil) != tt.wantErr {
			t.Errorf("DatasetSource(%q) error = %v, wantErr %v", tt.source, err, tt.wantErr)
		}
	}
	if DatasetSource("x").Critical {
		t.Error("Dataset Source must not be critical")
	}
}
