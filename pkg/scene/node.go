// Package scene is a minimal retained scene graph: nodes with translation and
// uniform scale, sphere meshes bound to device resources, a perspective camera,
// orbit controls and a raycaster.
package scene

import (
	"adisglobe/pkg/render"
	"adisglobe/pkg/vec"
)

// Mesh binds a node to device resources. Shapes are spheres; Radius is the
// geometry radius used for hit testing.
type Mesh struct {
	Geometry render.ResourceID
	Material render.ResourceID
	Radius   float64
}

// Node is an element of the scene graph. A node without a mesh is a group.
type Node struct {
	Name     string
	Layer    string
	Position vec.Vec3
	Scale    float64
	Forward  vec.Vec3 // facing direction, set by LookAt
	Visible  bool
	Mesh     *Mesh
	UserData any

	parent   *Node
	children []*Node
}

// NewGroup creates an empty, visible group node.
func NewGroup(name string) *Node {
	return &Node{Name: name, Scale: 1, Visible: true}
}

// NewMeshNode creates a visible node drawing m.
func NewMeshNode(name string, m Mesh) *Node {
	return &Node{Name: name, Scale: 1, Visible: true, Mesh: &m}
}

// Add attaches child, detaching it from a previous parent first.
func (n *Node) Add(child *Node) {
	if child.parent != nil {
		child.parent.Remove(child)
	}
	child.parent = n
	n.children = append(n.children, child)
}

// Remove detaches child. It reports whether child was attached to n.
func (n *Node) Remove(child *Node) bool {
	for i, c := range n.children {
		if c == child {
			n.children = append(n.children[:i], n.children[i+1:]...)
			child.parent = nil
			return true
		}
	}
	return false
}

// Clear detaches and returns all children.
func (n *Node) Clear() []*Node {
	out := n.children
	for _, c := range out {
		c.parent = nil
	}
	n.children = nil
	return out
}

// Children returns the direct children. The slice must not be modified.
func (n *Node) Children() []*Node { return n.children }

// Parent returns the parent node or nil.
func (n *Node) Parent() *Node { return n.parent }

// LookAt orients the node to face target (world space).
func (n *Node) LookAt(target vec.Vec3) {
	n.Forward = target.Sub(n.WorldPosition()).Normalize()
}

// WorldPosition accumulates translations and scales up the parent chain.
func (n *Node) WorldPosition() vec.Vec3 {
	p := n.Position
	for a := n.parent; a != nil; a = a.parent {
		p = p.Scale(a.Scale).Add(a.Position)
	}
	return p
}

// WorldScale is the product of scales up the parent chain.
func (n *Node) WorldScale() float64 {
	s := n.Scale
	for a := n.parent; a != nil; a = a.parent {
		s *= a.Scale
	}
	return s
}

// Traverse visits n and all descendants depth-first.
func (n *Node) Traverse(fn func(*Node)) {
	fn(n)
	for _, c := range n.children {
		c.Traverse(fn)
	}
}

// LightKind enumerates light types.
type LightKind int

const (
	AmbientLight LightKind = iota
	PointLight
)

// Light illuminates Phong materials. Lights own no device resources.
type Light struct {
	Kind      LightKind
	Color     render.Color
	Intensity float64
	Position  vec.Vec3
}

// Scene is the root of a scene graph.
type Scene struct {
	Root       *Node
	Background render.Color
	Lights     []Light
}

// New creates an empty scene.
func New(background render.Color) *Scene {
	return &Scene{Root: NewGroup("scene"), Background: background}
}

// Collect appends a draw item for every visible mesh to items. Hidden nodes
// hide their subtree.
func (s *Scene) Collect(items []render.DrawItem) []render.DrawItem {
	var walk func(n *Node, origin vec.Vec3, scale float64)
	walk = func(n *Node, origin vec.Vec3, scale float64) {
		if !n.Visible {
			return
		}
		pos := origin.Add(n.Position.Scale(scale))
		sc := scale * n.Scale
		if n.Mesh != nil {
			items = append(items, render.DrawItem{
				Geometry: n.Mesh.Geometry,
				Material: n.Mesh.Material,
				Position: pos,
				Scale:    sc,
				Layer:    n.Layer,
			})
		}
		for _, c := range n.children {
			walk(c, pos, sc)
		}
	}
	walk(s.Root, vec.Zero, 1)
	return items
}
