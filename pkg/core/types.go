// pkg/core/types.go
package core

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// Position3D is a point in the race world or in a hand-root frame, in meters.
type Position3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Vec returns the position as a gonum vector.
func (p Position3D) Vec() r3.Vec {
	return r3.Vec{X: p.X, Y: p.Y, Z: p.Z}
}

// FromVec converts a gonum vector back into a Position3D.
func FromVec(v r3.Vec) Position3D {
	return Position3D{X: v.X, Y: v.Y, Z: v.Z}
}

// Sub returns p - q.
func (p Position3D) Sub(q Position3D) Position3D {
	return FromVec(r3.Sub(p.Vec(), q.Vec()))
}

// Add returns p + q.
func (p Position3D) Add(q Position3D) Position3D {
	return FromVec(r3.Add(p.Vec(), q.Vec()))
}

// Scale returns p * f.
func (p Position3D) Scale(f float64) Position3D {
	return FromVec(r3.Scale(f, p.Vec()))
}

// Norm returns the Euclidean length of p.
func (p Position3D) Norm() float64 {
	return r3.Norm(p.Vec())
}

// Distance returns the Euclidean distance between p and q.
func (p Position3D) Distance(q Position3D) float64 {
	return r3.Norm(r3.Sub(p.Vec(), q.Vec()))
}

// Normalize returns the unit vector colinear to p.
// The zero vector normalizes to itself.
func (p Position3D) Normalize() Position3D {
	if p.Norm() == 0 {
		return Position3D{}
	}
	return FromVec(r3.Unit(p.Vec()))
}

// IsZero reports whether all components are zero.
func (p Position3D) IsZero() bool {
	return p == Position3D{}
}
