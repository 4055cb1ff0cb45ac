package globe

import (
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adisglobe/pkg/geo"
	"adisglobe/pkg/metrics"
	"adisglobe/pkg/vec"
)

func TestDirector_FlyToCompletesWithinWindow(t *testing.T) {
	hs := newHarness(t, nil)
	delhi := geo.Coordinate{Lat: 28.6139, Lon: 77.209}

	var done atomic.Int32
	hs.host.Director().FlyToCity(delhi, func() { done.Add(1) })
	hs.flush()
	assert.False(t, hs.host.Director().State().AutoRotate)
	assert.True(t, hs.host.Director().State().Flying)

	// 16ms frames: 56 frames is 896ms, 57 is 912ms.
	hs.frames(56)
	assert.Equal(t, int32(0), done.Load(), "completed before the duration elapsed")
	hs.frame()
	assert.Equal(t, int32(1), done.Load())
	hs.frames(10)
	assert.Equal(t, int32(1), done.Load(), "onComplete must fire exactly once")

	p := geo.CartesianOf(delhi, 100)
	st := hs.host.Director().State()
	assert.True(t, vec.ApproxEqual(p.Normalize().Scale(260), st.Position, 1e-6), "position %v", st.Position)
	assert.True(t, vec.ApproxEqual(p.Scale(0.98), st.Target, 1e-6), "target %v", st.Target)
	assert.False(t, st.Flying)
}

func TestDirector_MidFlightInterpolates(t *testing.T) {
	hs := newHarness(t, nil)
	target := geo.Coordinate{Lat: 0, Lon: -90} // faces the start camera
	hs.host.Director().FlyToCity(target, nil)
	hs.flush()

	hs.frames(28) // 448ms
	st := hs.host.Director().State()
	// Straight in along +Z from 320 to 260.
	assert.InDelta(t, 320-60*448.0/900, st.Position.Z, 1e-6)
	assert.InDelta(t, 98*448.0/900, st.Target.Z, 1e-6)
}

func TestDirector_NewFlightSupersedesOld(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	require.NoError(t, err)
	hs := newHarness(t, func(o *Options) { o.Metrics = m })

	var first, second atomic.Int32
	d := hs.host.Director()
	d.FlyToCity(geo.Coordinate{Lat: 28.6, Lon: 77.2}, func() { first.Add(1) })
	hs.flush()
	hs.frames(10)
	tokyo := geo.Coordinate{Lat: 35.7, Lon: 139.7}
	d.FlyToCity(tokyo, func() { second.Add(1) })
	hs.flush()
	hs.frames(70)

	assert.Equal(t, int32(0), first.Load(), "stale flight must never complete")
	assert.Equal(t, int32(1), second.Load())
	want := geo.CartesianOf(tokyo, 100).Normalize().Scale(260)
	assert.True(t, vec.ApproxEqual(want, d.State().Position, 1e-6))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.FlyTo.WithLabelValues(metrics.FlyCancelled)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FlyTo.WithLabelValues(metrics.FlyCompleted)))
}

func TestDirector_ResetViewCancelsFlight(t *testing.T) {
	hs := newHarness(t, nil)
	d := hs.host.Director()

	var done atomic.Int32
	d.FlyToCity(geo.Coordinate{Lat: 51.5, Lon: -0.12}, func() { done.Add(1) })
	hs.flush()
	hs.frames(20)

	d.ResetView()
	hs.flush()
	st := d.State()
	assert.True(t, vec.ApproxEqual(vec.Vec3{Z: 320}, st.Position, 1e-9), "position %v", st.Position)
	assert.Equal(t, vec.Zero, st.Target)
	assert.True(t, st.AutoRotate)
	assert.False(t, st.Flying)

	hs.frames(80)
	assert.Equal(t, int32(0), done.Load())
	assert.InDelta(t, 320, d.State().Position.Len(), 1e-9)
}

func TestDirector_ZeroDurationLandsOnFirstFrame(t *testing.T) {
	hs := newHarness(t, nil)
	hs.host.opts.FlyDuration = 0

	var done atomic.Int32
	hs.host.Director().FlyToCity(geo.Coordinate{}, func() { done.Add(1) })
	hs.flush()
	hs.frame()
	assert.Equal(t, int32(1), done.Load())
}
