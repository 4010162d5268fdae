package model

import "math"

// Rotator is an orientation in degrees.
// Yaw turns around the up axis, Pitch tilts the forward axis up, Roll spins around forward.
type Rotator struct {
	Pitch float64 `yaml:"pitch" json:"pitch"`
	Yaw   float64 `yaml:"yaw" json:"yaw"`
	Roll  float64 `yaml:"roll" json:"roll"`
}

// Forward returns the unit direction the rotator faces.
func (r Rotator) Forward() Vector {
	p := r.Pitch * math.Pi / 180
	y := r.Yaw * math.Pi / 180
	return Vector{
		X: math.Cos(p) * math.Cos(y),
		Y: math.Cos(p) * math.Sin(y),
		Z: math.Sin(p),
	}
}

// Basis is an orthonormal set of axes.
type Basis struct {
	X, Y, Z Vector
}

// MakeBasisFromXZ builds a basis whose X axis is exactly x and whose Z axis is
// as close to z as orthogonality permits.
func MakeBasisFromXZ(x, z Vector) Basis {
	nx := x.Normalize()
	y := z.Cross(nx)
	if y.Length() < 1e-9 {
		// x is parallel to z; pick any reference that is not
		ref := Vector{X: 1}
		if math.Abs(nx.X) > 0.9 {
			ref = Vector{Y: 1}
		}
		y = ref.Cross(nx)
	}
	ny := y.Normalize()
	return Basis{X: nx, Y: ny, Z: nx.Cross(ny)}
}

// Rotator converts the basis to pitch/yaw/roll.
func (b Basis) Rotator() Rotator {
	pitch := math.Atan2(b.X.Z, math.Hypot(b.X.X, b.X.Y))
	yaw := math.Atan2(b.X.Y, b.X.X)

	// Y axis of the roll-free rotation with the same pitch and yaw
	sy := Vector{X: -math.Sin(yaw), Y: math.Cos(yaw)}
	roll := math.Atan2(b.Z.Dot(sy), b.Y.Dot(sy))

	return Rotator{
		Pitch: pitch * 180 / math.Pi,
		Yaw:   yaw * 180 / math.Pi,
		Roll:  roll * 180 / math.Pi,
	}
}

// LookRotation returns the orientation facing forward with the given up reference.
// A zero forward yields the zero rotator.
func LookRotation(forward, up Vector) Rotator {
	if forward.IsZero() {
		return Rotator{}
	}
	return MakeBasisFromXZ(forward, up).Rotator()
}

// Transform is position + orientation + scale.
type Transform struct {
	Position Vector  `yaml:"position" json:"position"`
	Rotation Rotator `yaml:"rotation" json:"rotation"`
	Scale    Vector  `yaml:"scale" json:"scale"`
}

// NewTransform returns a unit-scale, unrotated transform at pos.
func NewTransform(pos Vector) Transform {
	return Transform{Position: pos, Scale: Vector{X: 1, Y: 1, Z: 1}}
}

// WithPosition returns a new Transform with an updated position (immutable pattern).
func (t Transform) WithPosition(pos Vector) Transform {
	t.Position = pos
	return t
}

// WithRotation returns a new Transform with an updated orientation (immutable pattern).
func (t Transform) WithRotation(r Rotator) Transform {
	t.Rotation = r
	return t
}

// WithScale returns a new Transform with an updated scale (immutable pattern).
func (t Transform) WithScale(s Vector) Transform {
	t.Scale = s
	return t
}

// Lerp interpolates from a to b. Angles take the shortest arc.
func Lerp(a, b Transform, alpha float64) Transform {
	return Transform{
		Position: lerpVector(a.Position, b.Position, alpha),
		Scale:    lerpVector(a.Scale, b.Scale, alpha),
		Rotation: Rotator{
			Pitch: lerpAngle(a.Rotation.Pitch, b.Rotation.Pitch, alpha),
			Yaw:   lerpAngle(a.Rotation.Yaw, b.Rotation.Yaw, alpha),
			Roll:  lerpAngle(a.Rotation.Roll, b.Rotation.Roll, alpha),
		},
	}
}

func lerpVector(a, b Vector, alpha float64) Vector {
	return a.Add(b.Sub(a).Scale(alpha))
}

func lerpAngle(a, b, alpha float64) float64 {
	d := math.Mod(b-a, 360)
	if d > 180 {
		d -= 360
	} else if d < -180 {
		d += 360
	}
	return a + d*alpha
}
