package globe

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"adisglobe/pkg/geo"
	"adisglobe/pkg/model"
	"adisglobe/pkg/render"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}

type harness struct {
	t     *testing.T
	host  *Host
	dev   *render.Headless
	surf  *render.VirtualSurface
	src   *ManualSource
	clock *fakeClock

	mu        sync.Mutex
	selected  []model.Selection
	dismissed int
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newHarness(t *testing.T, mutate func(*Options)) *harness {
	t.Helper()
	hs := &harness{
		t:     t,
		dev:   render.NewHeadless(),
		surf:  render.NewVirtualSurface(800, 600),
		src:   NewManualSource(),
		clock: newFakeClock(),
	}
	opts := DefaultOptions()
	opts.Source = hs.src
	opts.Clock = hs.clock.Now
	opts.Logger = quietLogger()
	opts.OnSelect = func(s model.Selection) {
		hs.mu.Lock()
		hs.selected = append(hs.selected, s)
		hs.mu.Unlock()
	}
	opts.OnDismiss = func() {
		hs.mu.Lock()
		hs.dismissed++
		hs.mu.Unlock()
	}
	if mutate != nil {
		mutate(&opts)
	}

	h, err := New(hs.surf, hs.dev, opts)
	require.NoError(t, err)
	hs.host = h
	h.Start(context.Background())
	t.Cleanup(func() { _ = h.Teardown() })
	return hs
}

// frame advances the clock by one 60Hz frame and draws it.
func (hs *harness) frame() {
	hs.t.Helper()
	require.True(hs.t, hs.src.Tick(hs.clock.Advance(16*time.Millisecond)))
}

func (hs *harness) frames(n int) {
	hs.t.Helper()
	for range n {
		hs.frame()
	}
}

// onLoop runs fn on the render goroutine and waits.
func (hs *harness) onLoop(fn func()) {
	hs.t.Helper()
	require.NoError(hs.t, hs.host.Do(context.Background(), fn))
}

func (hs *harness) flush() { hs.onLoop(func() {}) }

func (hs *harness) selections() []model.Selection {
	hs.mu.Lock()
	defer hs.mu.Unlock()
	out := make([]model.Selection, len(hs.selected))
	copy(out, hs.selected)
	return out
}

func city(name string, lat, lon float64, aqi int) model.CityMarker {
	return model.CityMarker{Name: name, Coordinate: geo.Coordinate{Lat: lat, Lon: lon}, Severity: aqi}
}

var testCities = []model.CityMarker{
	city("Delhi", 28.6139, 77.209, 387),
	city("Tokyo", 35.6895, 139.6917, 96),
	city("New York", 40.7128, -74.006, 42),
	city("São Paulo", -23.5505, -46.6333, 70),
	city("Lagos", 6.5244, 3.3792, 182),
}
