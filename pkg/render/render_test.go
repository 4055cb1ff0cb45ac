package render

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeadless_TracksAllocations(t *testing.T) {
	d := NewHeadless()

	geom, err := d.CreateGeometry(GeometryDesc{Radius: 1, WidthSegments: 8, HeightSegments: 8})
	require.NoError(t, err)
	mat, err := d.CreateMaterial(MaterialDesc{Color: 0xff0000})
	require.NoError(t, err)
	tex, err := d.CreateTexture(TextureDesc{Source: "earth.jpg"})
	require.NoError(t, err)

	assert.Equal(t, 3, d.Outstanding())
	assert.Equal(t, 1, d.OutstandingOf(KindTexture))

	require.NoError(t, d.Draw(&Frame{Items: []DrawItem{{Geometry: geom, Material: mat, Scale: 1}}}))
	assert.Equal(t, uint64(1), d.Stats().Frames)
	assert.Equal(t, 1, d.Stats().LastItems)

	require.NoError(t, d.Release(tex))
	err = d.Release(tex)
	assert.True(t, errors.Is(err, ErrUnknownResource), "double release must be reported")

	require.NoError(t, d.Release(mat))
	err = d.Draw(&Frame{Items: []DrawItem{{Geometry: geom, Material: mat}}})
	assert.True(t, errors.Is(err, ErrUnknownResource), "drawing a released material must fail")

	require.NoError(t, d.Release(geom))
	assert.Equal(t, 0, d.Outstanding())

	require.NoError(t, d.Dispose())
	_, err = d.CreateGeometry(GeometryDesc{Radius: 1})
	assert.ErrorIs(t, err, ErrDisposed)
}

func TestHeadless_RejectsDegenerateGeometry(t *testing.T) {
	d := NewHeadless()
	_, err := d.CreateGeometry(GeometryDesc{Radius: 0})
	assert.Error(t, err)
	assert.Equal(t, 0, d.Outstanding())
}

func TestColor_Hex(t *testing.T) {
	assert.Equal(t, "#7e0023", Color(0x7e0023).Hex())
	r, g, b := Color(0x102030).RGB()
	assert.Equal(t, []uint8{0x10, 0x20, 0x30}, []uint8{r, g, b})
	txt, err := Color(0xff).MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "#0000ff", string(txt))
}

func TestParseColor(t *testing.T) {
	for _, in := range []string{"#0a0e1a", "0a0e1a", "0x0a0e1a", " #0A0E1A "} {
		c, err := ParseColor(in)
		require.NoError(t, err, in)
		assert.Equal(t, Color(0x0a0e1a), c, in)
	}
	for _, in := range []string{"", "#fff", "#zzzzzz", "#0a0e1a00"} {
		_, err := ParseColor(in)
		assert.Error(t, err, in)
	}
}

func TestVirtualSurface_Lifecycle(t *testing.T) {
	s := NewVirtualSurface(800, 600)

	var sizes [][2]int
	removeResize := s.OnResize(func(w, h int) { sizes = append(sizes, [2]int{w, h}) })
	var events []PointerEvent
	removePointer := s.OnPointer(func(ev PointerEvent) { events = append(events, ev) })
	assert.Equal(t, 2, s.Listeners())

	require.NoError(t, s.Resize(1024, 768))
	require.NoError(t, s.Click(10, 20))
	assert.Equal(t, [][2]int{{1024, 768}}, sizes)
	require.Len(t, events, 2)
	assert.Equal(t, PointerDown, events[0].Kind)
	assert.Equal(t, PointerUp, events[1].Kind)

	removeResize()
	removePointer()
	assert.Equal(t, 0, s.Listeners())

	require.NoError(t, s.Detach())
	assert.False(t, s.Attached())
	assert.ErrorIs(t, s.Detach(), ErrDetached)
	assert.ErrorIs(t, s.Resize(1, 1), ErrDetached)
	assert.ErrorIs(t, s.Click(0, 0), ErrDetached)
}
