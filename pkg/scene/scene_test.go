package scene

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adisglobe/pkg/render"
	"adisglobe/pkg/vec"
)

func TestNode_AddRemoveReparent(t *testing.T) {
	a := NewGroup("a")
	b := NewGroup("b")
	child := NewMeshNode("child", Mesh{Radius: 1})

	a.Add(child)
	assert.Equal(t, a, child.Parent())
	b.Add(child)
	assert.Empty(t, a.Children())
	assert.Equal(t, b, child.Parent())

	assert.False(t, a.Remove(child))
	assert.True(t, b.Remove(child))
	assert.Nil(t, child.Parent())
}

func TestNode_WorldTransform(t *testing.T) {
	root := NewGroup("root")
	root.Position = vec.Vec3{X: 10}
	root.Scale = 2
	n := NewMeshNode("n", Mesh{Radius: 1})
	n.Position = vec.Vec3{Y: 3}
	root.Add(n)

	assert.Equal(t, vec.Vec3{X: 10, Y: 6}, n.WorldPosition())
	assert.Equal(t, 2.0, n.WorldScale())
}

func TestScene_CollectSkipsHiddenSubtrees(t *testing.T) {
	s := New(0x0a0e1a)
	visible := NewMeshNode("v", Mesh{Geometry: 1, Material: 2})
	hiddenGroup := NewGroup("h")
	hiddenGroup.Visible = false
	hiddenGroup.Add(NewMeshNode("inner", Mesh{Geometry: 3, Material: 4}))
	s.Root.Add(visible)
	s.Root.Add(hiddenGroup)

	items := s.Collect(nil)
	require.Len(t, items, 1)
	assert.Equal(t, render.ResourceID(1), items[0].Geometry)

	var names []string
	s.Root.Traverse(func(n *Node) { names = append(names, n.Name) })
	assert.Equal(t, []string{"scene", "v", "h", "inner"}, names)
}

func TestCamera_CenterRayPointsAtTarget(t *testing.T) {
	cam := NewPerspectiveCamera(45, 1.5, 0.1, 2000)
	cam.Position = vec.Vec3{Z: 320}
	cam.LookAt(vec.Zero)

	r := cam.Ray(vec.Vec2{})
	assert.True(t, vec.ApproxEqual(vec.Vec3{Z: -1}, r.Direction, 1e-12))

	// Edge of the frustum is fov/2 off axis.
	top := cam.Ray(vec.Vec2{Y: 1})
	angle := math.Acos(top.Direction.Dot(vec.Vec3{Z: -1})) * 180 / math.Pi
	assert.InDelta(t, 22.5, angle, 1e-9)
	assert.Greater(t, top.Direction.Y, 0.0)

	right := cam.Ray(vec.Vec2{X: 1})
	assert.Greater(t, right.Direction.X, 0.0)
}

func TestCamera_ProjectInvertsRay(t *testing.T) {
	cam := NewPerspectiveCamera(45, 4.0/3.0, 0.1, 2000)
	cam.Position = vec.Vec3{X: 30, Y: 40, Z: 250}
	cam.LookAt(vec.Vec3{X: 5})

	for _, ndc := range []vec.Vec2{{}, {X: 0.5, Y: -0.25}, {X: -0.9, Y: 0.9}} {
		p := cam.Ray(ndc).At(100)
		got, ok := cam.Project(p)
		require.True(t, ok)
		assert.InDelta(t, ndc.X, got.X, 1e-9)
		assert.InDelta(t, ndc.Y, got.Y, 1e-9)
	}

	_, ok := cam.Project(vec.Vec3{X: 30, Y: 40, Z: 400})
	assert.False(t, ok, "behind the camera")
}

func TestCamera_SetAspectIgnoresEmptyViewport(t *testing.T) {
	cam := NewPerspectiveCamera(45, 1, 0.1, 10)
	cam.SetAspect(0, 100)
	assert.Equal(t, 1.0, cam.Aspect)
	cam.SetAspect(800, 400)
	assert.Equal(t, 2.0, cam.Aspect)
}

func TestSpherical_RoundTrip(t *testing.T) {
	for _, v := range []vec.Vec3{{Z: 320}, {X: 1, Y: 2, Z: 3}, {X: -50, Y: -10, Z: -7}} {
		assert.True(t, vec.ApproxEqual(v, SphericalFrom(v).Vec(), 1e-9), "%v", v)
	}
}

func newControls() (*PerspectiveCamera, *OrbitControls) {
	cam := NewPerspectiveCamera(45, 1, 0.1, 2000)
	cam.Position = vec.Vec3{Z: 320}
	cam.LookAt(vec.Zero)
	ctl := NewOrbitControls(cam, 600)
	ctl.MinDistance = 140
	ctl.MaxDistance = 450
	return cam, ctl
}

func TestOrbitControls_IdleUpdateKeepsCamera(t *testing.T) {
	cam, ctl := newControls()
	moved := ctl.Update(16 * time.Millisecond)
	assert.False(t, moved)
	assert.True(t, vec.ApproxEqual(vec.Vec3{Z: 320}, cam.Position, 1e-9))
}

func TestOrbitControls_AutoRotateKeepsDistance(t *testing.T) {
	cam, ctl := newControls()
	ctl.AutoRotate = true
	ctl.AutoRotateSpeed = 0.35

	for range 60 {
		ctl.Update(time.Second / 60)
	}
	assert.InDelta(t, 320, cam.Position.Len(), 1e-9)
	// 0.35 rpm for one second.
	want := 2 * math.Pi / 60 * 0.35
	got := math.Abs(math.Atan2(cam.Position.X, cam.Position.Z))
	assert.InDelta(t, want, got, 1e-9)
}

func TestOrbitControls_DistanceClamped(t *testing.T) {
	cam, ctl := newControls()
	ctl.Dolly(0.01)
	ctl.Update(0)
	assert.InDelta(t, 140, cam.Position.Len(), 1e-9)

	for range 200 {
		ctl.Wheel(1)
		ctl.Update(0)
	}
	assert.InDelta(t, 450, cam.Position.Len(), 1e-9)
}

func TestOrbitControls_DampingDecays(t *testing.T) {
	cam, ctl := newControls()
	ctl.EnableDamping = true
	ctl.PointerDown(100, 100)
	ctl.PointerMove(160, 100)
	ctl.PointerUp()

	ctl.Update(0)
	first := cam.Position
	ctl.Update(0)
	second := cam.Position
	step1 := first.DistanceTo(vec.Vec3{Z: 320})
	step2 := second.DistanceTo(first)
	assert.Greater(t, step1, 0.0)
	assert.Less(t, step2, step1, "momentum decays")
	assert.InDelta(t, 320, cam.Position.Len(), 1e-9)
}

func TestOrbitControls_PolarClamp(t *testing.T) {
	cam, ctl := newControls()
	ctl.RotateUp(10)
	ctl.Update(0)
	assert.Less(t, cam.Position.Y, 320.0)
	assert.Greater(t, cam.Position.Y, 319.0)
}

func TestOrbitControls_DisposeIgnoresInput(t *testing.T) {
	cam, ctl := newControls()
	ctl.Dispose()
	ctl.PointerDown(0, 0)
	ctl.PointerMove(100, 0)
	assert.False(t, ctl.Dragging())
	assert.False(t, ctl.Update(time.Second))
	assert.Equal(t, vec.Vec3{Z: 320}, cam.Position)
	assert.True(t, ctl.Disposed())
}

func TestRaycaster_SortsNearestFirst(t *testing.T) {
	root := NewGroup("root")
	far := NewMeshNode("far", Mesh{Radius: 1})
	far.Position = vec.Vec3{Z: -20}
	near := NewMeshNode("near", Mesh{Radius: 1})
	near.Position = vec.Vec3{Z: -10}
	hidden := NewMeshNode("hidden", Mesh{Radius: 1})
	hidden.Position = vec.Vec3{Z: -5}
	hidden.Visible = false
	miss := NewMeshNode("miss", Mesh{Radius: 1})
	miss.Position = vec.Vec3{X: 10, Z: -5}
	root.Add(far)
	root.Add(near)
	root.Add(hidden)
	root.Add(miss)

	rc := Raycaster{Ray: vec.Ray{Direction: vec.Vec3{Z: -1}}}
	hits := rc.IntersectObjects(root.Children(), false)
	require.Len(t, hits, 2)
	assert.Equal(t, "near", hits[0].Node.Name)
	assert.InDelta(t, 9, hits[0].Distance, 1e-9)
	assert.Equal(t, "far", hits[1].Node.Name)

	assert.Empty(t, rc.IntersectObject(root, false), "groups are not hit without recursion")
	assert.Len(t, rc.IntersectObject(root, true), 2)
}

func TestRaycaster_FromCameraHitsGlobe(t *testing.T) {
	cam := NewPerspectiveCamera(45, 1, 0.1, 2000)
	cam.Position = vec.Vec3{Z: 320}
	cam.LookAt(vec.Zero)
	globe := NewMeshNode("globe", Mesh{Radius: 100})

	var rc Raycaster
	rc.SetFromCamera(vec.Vec2{}, cam)
	hits := rc.IntersectObject(globe, false)
	require.Len(t, hits, 1)
	assert.True(t, vec.ApproxEqual(vec.Vec3{Z: 100}, hits[0].Point, 1e-9))

	rc.SetFromCamera(vec.Vec2{X: 1, Y: 1}, cam)
	assert.Empty(t, rc.IntersectObject(globe, false))
}
