package geometry

import (
	"fmt"
	"math"
)

// Rect is an axis-aligned rectangle described by its min and max corners.
type Rect struct {
	Min Vector2D `json:"min"`
	Max Vector2D `json:"max"`
}

// NewRect returns the rectangle spanning both corners, whatever their order.
func NewRect(a, b Vector2D) Rect {
	return Rect{
		Min: Vector2D{X: math.Min(a.X, b.X), Y: math.Min(a.Y, b.Y)},
		Max: Vector2D{X: math.Max(a.X, b.X), Y: math.Max(a.Y, b.Y)},
	}
}

func (r Rect) String() string {
	return fmt.Sprintf("[%s - %s]", r.Min, r.Max)
}

// Width of the rectangle along X.
func (r Rect) Width() float64 { return r.Max.X - r.Min.X }

// Height of the rectangle along Y.
func (r Rect) Height() float64 { return r.Max.Y - r.Min.Y }

// Area returns Width*Height, zero or negative for degenerate rectangles.
func (r Rect) Area() float64 { return r.Width() * r.Height() }

// Center returns the middle point.
func (r Rect) Center() Vector2D {
	return r.Min.Lerp(r.Max, 0.5)
}

// Contains reports whether p lies inside r, borders included.
func (r Rect) Contains(p Vector2D) bool {
	return p.X >= r.Min.X && p.X <= r.Max.X && p.Y >= r.Min.Y && p.Y <= r.Max.Y
}

// Inset shrinks the rectangle by d on every side.
// The result collapses to the center instead of inverting.
func (r Rect) Inset(d float64) Rect {
	d = math.Min(d, math.Min(r.Width(), r.Height())/2)
	return Rect{
		Min: Vector2D{X: r.Min.X + d, Y: r.Min.Y + d},
		Max: Vector2D{X: r.Max.X - d, Y: r.Max.Y - d},
	}
}

// Lerp maps normalized coordinates (u, v) in [0,1]² to a point inside r.
func (r Rect) Lerp(u, v float64) Vector2D {
	return Vector2D{
		X: r.Min.X + (r.Max.X-r.Min.X)*u,
		Y: r.Min.Y + (r.Max.Y-r.Min.Y)*v,
	}
}

// Normalized is the inverse of Lerp: it projects p into r's unit square.
// Points outside r produce coordinates outside [0,1].
func (r Rect) Normalized(p Vector2D) (u, v float64) {
	return (p.X - r.Min.X) / r.Width(), (p.Y - r.Min.Y) / r.Height()
}

// DistanceSquaredTo returns the squared distance from p to the closest point of r,
// zero when p is inside. Infinite corners are supported.
func (r Rect) DistanceSquaredTo(p Vector2D) float64 {
	dx := 0.0
	if p.X < r.Min.X {
		dx = r.Min.X - p.X
	} else if p.X > r.Max.X {
		dx = p.X - r.Max.X
	}
	dy := 0.0
	if p.Y < r.Min.Y {
		dy = r.Min.Y - p.Y
	} else if p.Y > r.Max.Y {
		dy = p.Y - r.Max.Y
	}
	return dx*dx + dy*dy
}
