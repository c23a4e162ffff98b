// Package geometry holds the small 2D value types shared by the swarm
// controller, the physics arena and the viewer.
package geometry

import (
	"fmt"
	"math"
)

// Epsilon is the tolerance used for float comparisons and for deciding that
// a vector is too short to have a direction.
const (
	Epsilon = 1e-9
)

// Vector2D is a 2D vector or point in world units.
// Fields are public so literals like Vector2D{X: 1, Y: 2} stay readable.
type Vector2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Zero is the zero vector.
var Zero = Vector2D{}

// NewVector creates a new Vector2D.
func NewVector(x, y float64) Vector2D {
	return Vector2D{X: x, Y: y}
}

// NewVectorPolar creates a vector from polar coordinates, theta in radians.
func NewVectorPolar(radius, theta float64) Vector2D {
	x := radius * math.Cos(theta)
	y := radius * math.Sin(theta)

	// snap the cos/sin noise around the axes
	if math.Abs(x) < Epsilon {
		x = 0
	}
	if math.Abs(y) < Epsilon {
		y = 0
	}
	return Vector2D{X: x, Y: y}
}

// String implements fmt.Stringer, two decimals are enough for logs.
func (v Vector2D) String() string {
	return fmt.Sprintf("(%.2f, %.2f)", v.X, v.Y)
}

// ---------------------------------------------------------------------
// Arithmetic. Value receivers, every operation returns a new vector.
// ---------------------------------------------------------------------

// Add adds two vectors.
func (v Vector2D) Add(other Vector2D) Vector2D {
	return Vector2D{v.X + other.X, v.Y + other.Y}
}

// Sub subtracts other from v.
func (v Vector2D) Sub(other Vector2D) Vector2D {
	return Vector2D{v.X - other.X, v.Y - other.Y}
}

// Mul scales the vector by a scalar value.
func (v Vector2D) Mul(scalar float64) Vector2D {
	return Vector2D{v.X * scalar, v.Y * scalar}
}

// Dot calculates the dot product of two vectors.
func (v Vector2D) Dot(other Vector2D) float64 {
	return v.X*other.X + v.Y*other.Y
}

// ---------------------------------------------------------------------
// Magnitude
// ---------------------------------------------------------------------

// LenSqr is the squared magnitude. Use it for comparisons to skip the sqrt.
func (v Vector2D) LenSqr() float64 {
	return v.X*v.X + v.Y*v.Y
}

// Len is the magnitude of the vector.
func (v Vector2D) Len() float64 {
	return math.Hypot(v.X, v.Y)
}

// Normalize returns the unit vector with the same direction,
// or the zero vector when v is too short to have one.
func (v Vector2D) Normalize() Vector2D {
	l := v.Len()
	if l < Epsilon || !v.IsFinite() {
		return Zero
	}
	return v.Mul(1 / l)
}

// ClampLen rescales v uniformly so its magnitude does not exceed max.
// The direction is preserved. A non-positive max or a non-finite v yields zero.
func (v Vector2D) ClampLen(max float64) Vector2D {
	if max <= 0 || !v.IsFinite() {
		return Zero
	}
	l := v.Len()
	if l <= max {
		return v
	}
	return v.Mul(max / l)
}

// IsFinite reports whether both components are neither NaN nor infinite.
func (v Vector2D) IsFinite() bool {
	return !math.IsNaN(v.X) && !math.IsNaN(v.Y) && !math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0)
}

// IsZero reports whether v is shorter than Epsilon.
func (v Vector2D) IsZero() bool {
	return v.LenSqr() < Epsilon*Epsilon
}

// ---------------------------------------------------------------------
// Geometric Utilities
// ---------------------------------------------------------------------

// DistanceTo calculates the Euclidean distance to another point.
func (v Vector2D) DistanceTo(other Vector2D) float64 {
	return v.Sub(other).Len()
}

// DistanceSquaredTo calculates the squared Euclidean distance to another point.
func (v Vector2D) DistanceSquaredTo(other Vector2D) float64 {
	return v.Sub(other).LenSqr()
}

// Angle returns the heading of the vector in radians, range [-Pi, Pi].
func (v Vector2D) Angle() float64 {
	return math.Atan2(v.Y, v.X)
}

// Lerp interpolates between v and target, t in [0, 1].
func (v Vector2D) Lerp(target Vector2D, t float64) Vector2D {
	return v.Add(target.Sub(v).Mul(t))
}

// Eq checks if two vectors are equal within Epsilon.
func (v Vector2D) Eq(other Vector2D) bool {
	return math.Abs(v.X-other.X) <= Epsilon && math.Abs(v.Y-other.Y) <= Epsilon
}
