package model

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Point3D represents a mesh vertex or prism corner.
type Point3D struct {
	X        float64 `json:"x" yaml:"x"`
	Y        float64 `json:"y" yaml:"y"`
	Z        float64 `json:"z" yaml:"z"`
	Exterior bool    `json:"exterior,omitempty" yaml:"exterior,omitempty"` // On the mesh surface; rendering only
}

// Sub returns the vector from q to p.
func (p Point3D) Sub(q Point3D) Vector3D {
	return fromVec(r3.Sub(p.vec(), q.vec()))
}

// Finite reports whether all coordinates are finite numbers.
func (p Point3D) Finite() bool {
	return finite(p.X) && finite(p.Y) && finite(p.Z)
}

func (p Point3D) vec() r3.Vec {
	return r3.Vec{X: p.X, Y: p.Y, Z: p.Z}
}

// Vector3D is a direction or displacement. It has no identity beyond its components.
type Vector3D struct {
	X float64 `json:"x" yaml:"x" mapstructure:"x"`
	Y float64 `json:"y" yaml:"y" mapstructure:"y"`
	Z float64 `json:"z" yaml:"z" mapstructure:"z"`
}

// Sub returns v - w.
func (v Vector3D) Sub(w Vector3D) Vector3D {
	return fromVec(r3.Sub(v.vec(), w.vec()))
}

// Dot returns the dot product of v and w.
func (v Vector3D) Dot(w Vector3D) float64 {
	return r3.Dot(v.vec(), w.vec())
}

// Cross returns the cross product v x w.
func (v Vector3D) Cross(w Vector3D) Vector3D {
	return fromVec(r3.Cross(v.vec(), w.vec()))
}

// Norm returns the Euclidean length of v.
func (v Vector3D) Norm() float64 {
	return r3.Norm(v.vec())
}

// IsZero reports whether every component is zero.
func (v Vector3D) IsZero() bool {
	return v.X == 0 && v.Y == 0 && v.Z == 0
}

// Finite reports whether all components are finite numbers.
func (v Vector3D) Finite() bool {
	return finite(v.X) && finite(v.Y) && finite(v.Z)
}

func (v Vector3D) vec() r3.Vec {
	return r3.Vec{X: v.X, Y: v.Y, Z: v.Z}
}

func fromVec(v r3.Vec) Vector3D {
	return Vector3D{X: v.X, Y: v.Y, Z: v.Z}
}

// AABB is an axis-aligned bounding box. Valid boxes satisfy Min <= Max on every axis.
type AABB struct {
	Min Point3D `json:"min" yaml:"min"`
	Max Point3D `json:"max" yaml:"max"`
}

// Valid reports whether Min <= Max holds on every axis.
func (b AABB) Valid() bool {
	return b.Min.X <= b.Max.X && b.Min.Y <= b.Max.Y && b.Min.Z <= b.Max.Z
}

// Size returns the extent of the box along each axis.
func (b AABB) Size() Vector3D {
	return b.Max.Sub(b.Min)
}

// Encloses reports whether p lies inside b, widened by slack on every face.
func (b AABB) Encloses(p Point3D, slack float64) bool {
	return p.X >= b.Min.X-slack && p.X <= b.Max.X+slack &&
		p.Y >= b.Min.Y-slack && p.Y <= b.Max.Y+slack &&
		p.Z >= b.Min.Z-slack && p.Z <= b.Max.Z+slack
}

// BoundsOf returns the smallest AABB containing all points.
// It returns the zero box when no points are given.
func BoundsOf(points ...Point3D) AABB {
	if len(points) == 0 {
		return AABB{}
	}
	min := Point3D{X: points[0].X, Y: points[0].Y, Z: points[0].Z}
	max := min
	for _, p := range points[1:] {
		min.X = math.Min(min.X, p.X)
		min.Y = math.Min(min.Y, p.Y)
		min.Z = math.Min(min.Z, p.Z)
		max.X = math.Max(max.X, p.X)
		max.Y = math.Max(max.Y, p.Y)
		max.Z = math.Max(max.Z, p.Z)
	}
	return AABB{Min: min, Max: max}
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
