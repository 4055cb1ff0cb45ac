package vec

import "math"

// Vec2 is a 2D vector, used for normalized device coordinates.
type Vec2 struct {
	X, Y float64
}

// Vec3 is a 3D vector in scene space.
type Vec3 struct {
	X, Y, Z float64
}

// Zero is the origin.
var Zero = Vec3{}

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }

// Scale returns v * s.
func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }

// Dot returns the dot product.
func (v Vec3) Dot(o Vec3) float64 { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }

// Cross returns the cross product v x o.
func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		v.Y*o.Z - v.Z*o.Y,
		v.Z*o.X - v.X*o.Z,
		v.X*o.Y - v.Y*o.X,
	}
}

// Len returns the Euclidean length.
func (v Vec3) Len() float64 { return math.Sqrt(v.Dot(v)) }

// Normalize returns the unit vector in the direction of v.
// The zero vector is returned unchanged.
func (v Vec3) Normalize() Vec3 {
	l := v.Len()
	if l == 0 {
		return v
	}
	return v.Scale(1 / l)
}

// DistanceTo returns |v - o|.
func (v Vec3) DistanceTo(o Vec3) float64 { return v.Sub(o).Len() }

// Lerp interpolates from a to b by t (t is not clamped).
func Lerp(a, b Vec3, t float64) Vec3 {
	return Vec3{
		a.X + (b.X-a.X)*t,
		a.Y + (b.Y-a.Y)*t,
		a.Z + (b.Z-a.Z)*t,
	}
}

// ApproxEqual reports whether every component of a and b differs by at most eps.
func ApproxEqual(a, b Vec3, eps float64) bool {
	return math.Abs(a.X-b.X) <= eps && math.Abs(a.Y-b.Y) <= eps && math.Abs(a.Z-b.Z) <= eps
}

// Ray is a half-line with a normalized direction.
type Ray struct {
	Origin    Vec3
	Direction Vec3
}

// At returns the point at distance t along the ray.
func (r Ray) At(t float64) Vec3 { return r.Origin.Add(r.Direction.Scale(t)) }

// IntersectSphere returns the distance to the nearest intersection of r with the
// sphere (center, radius) in front of the origin. A ray starting inside the
// sphere reports the exit point.
func (r Ray) IntersectSphere(center Vec3, radius float64) (float64, bool) {
	oc := r.Origin.Sub(center)
	b := oc.Dot(r.Direction)
	c := oc.Dot(oc) - radius*radius
	disc := b*b - c
	if disc < 0 {
		return 0, false
	}
	sq := math.Sqrt(disc)
	t := -b - sq
	if t < 0 {
		t = -b + sq
	}
	if t < 0 {
		return 0, false
	}
	return t, true
}
