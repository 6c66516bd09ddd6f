package geometry

import (
	"fmt"
	"math"
)

// Epsilon is the tolerance used for float64 comparisons in this package.
const (
	Epsilon = 1e-9
)

// Vector2D represents a 2D vector or point in cartesian space.
// Fields are public so literals stay short: v := Vector2D{1, 2}
type Vector2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NewVector creates a new Vector2D.
func NewVector(x, y float64) Vector2D {
	return Vector2D{X: x, Y: y}
}

// NewVectorPolar creates a new Vector2D from polar coordinates.
// theta is in radians.
func NewVectorPolar(radius, theta float64) Vector2D {
	return Vector2D{X: radius * math.Cos(theta), Y: radius * math.Sin(theta)}
}

// String implements the fmt.Stringer interface.
func (v Vector2D) String() string {
	return fmt.Sprintf("(%.2f, %.2f)", v.X, v.Y)
}

// Add adds two vectors and returns the result.
func (v Vector2D) Add(other Vector2D) Vector2D {
	return Vector2D{v.X + other.X, v.Y + other.Y}
}

// Sub subtracts the other vector from the current vector.
func (v Vector2D) Sub(other Vector2D) Vector2D {
	return Vector2D{v.X - other.X, v.Y - other.Y}
}

// Mul scales the vector by a scalar value.
func (v Vector2D) Mul(scalar float64) Vector2D {
	return Vector2D{v.X * scalar, v.Y * scalar}
}

// LenSqr calculates the squared magnitude of the vector.
// Use it for radius comparisons, it avoids the square root.
func (v Vector2D) LenSqr() float64 {
	return v.X*v.X + v.Y*v.Y
}

// Len calculates the magnitude (length) of the vector.
func (v Vector2D) Len() float64 {
	return math.Hypot(v.X, v.Y)
}

// Angle returns the heading (in radians) of the vector relative to the X-axis.
// Range: [-Pi, Pi]
func (v Vector2D) Angle() float64 {
	return math.Atan2(v.Y, v.X)
}

// Eq checks if two vectors are approximately equal using the Epsilon constant.
func (v Vector2D) Eq(other Vector2D) bool {
	return math.Abs(v.X-other.X) <= Epsilon && math.Abs(v.Y-other.Y) <= Epsilon
}
