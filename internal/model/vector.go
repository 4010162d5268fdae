package model

import "math"

// Vector is a point or direction in world space.
// Z is the vertical axis. Value type, passed by value.
type Vector struct {
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
	Z float64 `yaml:"z" json:"z"`
}

// UpAxis is the fixed world up direction.
var UpAxis = Vector{Z: 1}

// NewVector creates a Vector with the given components.
func NewVector(x, y, z float64) Vector {
	return Vector{X: x, Y: y, Z: z}
}

// Add returns v + o.
func (v Vector) Add(o Vector) Vector {
	return Vector{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

// Sub returns v - o.
func (v Vector) Sub(o Vector) Vector {
	return Vector{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z}
}

// Scale returns v multiplied by s.
func (v Vector) Scale(s float64) Vector {
	return Vector{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

// Mul returns the component-wise product of v and o.
func (v Vector) Mul(o Vector) Vector {
	return Vector{X: v.X * o.X, Y: v.Y * o.Y, Z: v.Z * o.Z}
}

// Dot returns the dot product.
func (v Vector) Dot(o Vector) float64 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

// Cross returns the cross product v × o.
func (v Vector) Cross(o Vector) Vector {
	return Vector{
		X: v.Y*o.Z - v.Z*o.Y,
		Y: v.Z*o.X - v.X*o.Z,
		Z: v.X*o.Y - v.Y*o.X,
	}
}

// Length returns the Euclidean length.
func (v Vector) Length() float64 {
	return math.Sqrt(v.Dot(v))
}

// IsZero reports whether all components are zero.
func (v Vector) IsZero() bool {
	return v.X == 0 && v.Y == 0 && v.Z == 0
}

// Normalize returns v scaled to unit length.
// The zero vector is returned unchanged.
func (v Vector) Normalize() Vector {
	l := v.Length()
	if l == 0 {
		return v
	}
	return v.Scale(1 / l)
}

// Planar returns v with the vertical component dropped.
func (v Vector) Planar() Vector {
	return Vector{X: v.X, Y: v.Y}
}

// WithZ returns a copy of v with a new vertical component.
func (v Vector) WithZ(z float64) Vector {
	v.Z = z
	return v
}

// DistanceSquared returns the squared 3D distance (no sqrt).
func (v Vector) DistanceSquared(o Vector) float64 {
	d := v.Sub(o)
	return d.Dot(d)
}

// PlanarDistance returns the Euclidean distance between a and b ignoring Z.
func PlanarDistance(a, b Vector) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}
