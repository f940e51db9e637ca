package geometry

import (
	"errors"
	"fmt"
	"math"
)

// Epsilon is the tolerance used for float64 comparisons.
const (
	Epsilon = 1e-9
)

// Vector2D represents a 2D vector or point in cartesian space.
// Fields are public because they are plain data: v := Vector2D{X: 1, Y: 2}
type Vector2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NewVector creates a new Vector2D.
func NewVector(x, y float64) Vector2D {
	return Vector2D{X: x, Y: y}
}

// NewVectorPolar creates a new Vector2D from polar coordinates, theta in radians.
func NewVectorPolar(radius, theta float64) Vector2D {
	x := radius * math.Cos(theta)
	y := radius * math.Sin(theta)

	// snap floating point noise near zero
	if math.Abs(x) < Epsilon {
		x = 0
	}
	if math.Abs(y) < Epsilon {
		y = 0
	}

	return Vector2D{X: x, Y: y}
}

// String implements the fmt.Stringer interface.
func (v Vector2D) String() string {
	return fmt.Sprintf("(%.2f, %.2f)", v.X, v.Y)
}

// ---------------------------------------------------------------------
// Arithmetic Operations
// Value receivers returning new values keep vectors immutable and cheap.
// ---------------------------------------------------------------------

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

// Div scales the vector by 1/scalar.
// A zero scalar returns an Inf vector together with an error.
func (v Vector2D) Div(scalar float64) (Vector2D, error) {
	if scalar == 0 {
		return Vector2D{math.Inf(1), math.Inf(1)}, errors.New("vector cannot be divided by zero")
	}
	return Vector2D{v.X / scalar, v.Y / scalar}, nil
}

// Dot calculates the dot product of two vectors.
func (v Vector2D) Dot(other Vector2D) float64 {
	return v.X*other.X + v.Y*other.Y
}

// ---------------------------------------------------------------------
// Magnitude and Normalization
// ---------------------------------------------------------------------

// LenSqr calculates the squared magnitude of the vector.
// Prefer it over Len() for comparisons, it avoids the square root.
func (v Vector2D) LenSqr() float64 {
	return v.X*v.X + v.Y*v.Y
}

// Len calculates the magnitude (length) of the vector.
func (v Vector2D) Len() float64 {
	return math.Hypot(v.X, v.Y)
}

// Normalize returns a unit vector in the same direction.
// Returns a zero vector if the length is effectively zero.
func (v Vector2D) Normalize() Vector2D {
	l := v.Len()
	if l < Epsilon {
		return Vector2D{0, 0}
	}
	return v.Mul(1 / l)
}

// ClampLen returns v scaled down so that its length does not exceed maxLen.
func (v Vector2D) ClampLen(maxLen float64) Vector2D {
	lsq := v.LenSqr()
	if lsq <= maxLen*maxLen || lsq == 0 {
		return v
	}
	return v.Mul(maxLen / math.Sqrt(lsq))
}

// IsZero reports whether both components are within Epsilon of zero.
func (v Vector2D) IsZero() bool {
	return math.Abs(v.X) <= Epsilon && math.Abs(v.Y) <= Epsilon
}

// ---------------------------------------------------------------------
// Geometric Utilities
// ---------------------------------------------------------------------

// DistanceTo calculates the Euclidean distance to another vector.
func (v Vector2D) DistanceTo(other Vector2D) float64 {
	return v.Sub(other).Len()
}

// DistanceSquaredTo calculates the squared Euclidean distance to another vector.
func (v Vector2D) DistanceSquaredTo(other Vector2D) float64 {
	dx := v.X - other.X
	dy := v.Y - other.Y
	return dx*dx + dy*dy
}

// Angle returns the angle (in radians) of the vector relative to the X-axis, in [-Pi, Pi].
func (v Vector2D) Angle() float64 {
	return math.Atan2(v.Y, v.X)
}

// Lerp (Linear Interpolate) calculates a point between v and target based on t [0, 1].
func (v Vector2D) Lerp(target Vector2D, t float64) Vector2D {
	return v.Add(target.Sub(v).Mul(t))
}

// Eq checks if two vectors are approximately equal using the Epsilon constant.
func (v Vector2D) Eq(other Vector2D) bool {
	return math.Abs(v.X-other.X) <= Epsilon && math.Abs(v.Y-other.Y) <= Epsilon
}

// Clamp01 clamps x into [0, 1].
func Clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
