package scene

import (
	"sort"

	"adisglobe/pkg/vec"
)

// Intersection is a ray hit on a mesh node.
type Intersection struct {
	Node     *Node
	Distance float64
	Point    vec.Vec3
}

// Raycaster tests a ray against sphere meshes.
type Raycaster struct {
	Ray vec.Ray
}

// SetFromCamera aims the ray through ndc as seen from cam.
func (r *Raycaster) SetFromCamera(ndc vec.Vec2, cam *PerspectiveCamera) {
	r.Ray = cam.Ray(ndc)
}

// IntersectObject returns hits on n (and its descendants when recursive),
// nearest first. Hidden nodes and their subtrees are skipped.
func (r *Raycaster) IntersectObject(n *Node, recursive bool) []Intersection {
	var hits []Intersection
	r.collect(n, recursive, &hits)
	sortHits(hits)
	return hits
}

// IntersectObjects is IntersectObject over several roots, merged and sorted.
func (r *Raycaster) IntersectObjects(nodes []*Node, recursive bool) []Intersection {
	var hits []Intersection
	for _, n := range nodes {
		r.collect(n, recursive, &hits)
	}
	sortHits(hits)
	return hits
}

func (r *Raycaster) collect(n *Node, recursive bool, hits *[]Intersection) {
	if !n.Visible {
		return
	}
	if n.Mesh != nil && n.Mesh.Radius > 0 {
		center := n.WorldPosition()
		if t, ok := r.Ray.IntersectSphere(center, n.Mesh.Radius*n.WorldScale()); ok {
			*hits = append(*hits, Intersection{Node: n, Distance: t, Point: r.Ray.At(t)})
		}
	}
	if recursive {
		for _, c := range n.children {
			r.collect(c, true, hits)
		}
	}
}

func sortHits(hits []Intersection) {
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })
}
