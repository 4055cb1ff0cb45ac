package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adisglobe/pkg/config"
	"adisglobe/pkg/logging"
)

func writeTestConfig(t *testing.T, source string) string {
	t.Helper()
	dir := t.TempDir()

	cfg := config.DefaultConfig()
	cfg.Server.Address = "localhost:0"
	cfg.Log.Server.Path = filepath.Join(dir, "server.log")
	cfg.Log.Server.Level = "debug"
	cfg.Log.Requests.Path = filepath.Join(dir, "requests.log")
	cfg.Cities.Path = filepath.Join(dir, "cities.yaml")
	cfg.Data.Source = source
	cfg.Globe.Surface.Width = 320
	cfg.Globe.Surface.Height = 240

	path := filepath.Join(dir, "adisglobe.yaml")
	require.NoError(t, config.Save(path, cfg))
	return path
}

func TestRun(t *testing.T) {
	dataPath := filepath.Join(t.TempDir(), "fused_data.json")
	require.NoError(t, os.WriteFile(dataPath, []byte(`[{"lat":28.6,"lon":77.2,"NO2":6e-15,"anomaly_flag":1}]`), 0o644))

	tests := []struct {
		name   string
		source string
	}{
		{name: "LocalDataset", source: dataPath},
		{name: "MissingDataset", source: filepath.Join(t.TempDir(), "absent.json")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTestConfig(t, tt.source)

			// Cancel quickly; this only verifies the startup sequence.
			ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
			defer cancel()

			require.NoError(t, run(ctx, path))

			_, err := os.Stat(filepath.Join(filepath.Dir(path), "cities.yaml"))
			assert.NoError(t, err, "default city list is written on first start")
		})
	}
}

func TestRun_InvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("globe:\n  radius: -1\n"), 0o644))

	err := run(context.Background(), path)
	assert.ErrorContains(t, err, "failed to load config")
}

func TestLoggingMiddleware(t *testing.T) {
	called := false
	h := loggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))

	assert.True(t, called)
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.NotNil(t, logging.RequestLogger)
}

func TestToMarkers(t *testing.T) {
	got := toMarkers([]config.City{
		{Name: "Delhi", Lat: 28.6, Lon: 77.2, AQI: 387},
		{Name: "Wrap", Lat: 0, Lon: 190, AQI: 10},
	})
	require.Len(t, got, 2)
	assert.Equal(t, "Delhi", got[0].Name)
	assert.Equal(t, 387, got[0].Severity)
	assert.InDelta(t, -170, got[1].Coordinate.Lon, 1e-9)
}

func TestGlobeOptions_BadBackground(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Globe.Background = "navy"
	_, err := globeOptions(cfg, nil, nil)
	assert.ErrorContains(t, err, "globe.background")
}
