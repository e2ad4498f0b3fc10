package model

import (
	"fmt"
	"math"

	"github.com/google/uuid"
)

// Magnetization is the sign of a field region.
type Magnetization string

const (
	MagnetizationPositive Magnetization = "positive" // Pointing outwards from the arms
	MagnetizationNegative Magnetization = "negative" // Pointing inwards
	MagnetizationNone     Magnetization = "none"
)

// Valid reports whether m is one of the known magnetization states.
func (m Magnetization) Valid() bool {
	switch m {
	case MagnetizationPositive, MagnetizationNegative, MagnetizationNone:
		return true
	}
	return false
}

// Prism is an oriented rectangular cuboid given as two 4-point rectangles.
// Rect 0 corners 0, 1 and 3 together with rect 1 corner 0 span three edges
// from the shared origin corner rect 0 corner 0. The containment test is only
// exact when those edges are mutually orthogonal.
type Prism [2][4]Point3D

// AxisAlignedPrism builds the prism spanning min..max in the corner order
// expected by the containment test: rect 0 lies on y = min.Y and rect 1 is
// the same rectangle extruded to y = max.Y.
func AxisAlignedPrism(min, max Point3D) Prism {
	rect := func(y float64) [4]Point3D {
		return [4]Point3D{
			{X: min.X, Y: y, Z: min.Z},
			{X: min.X, Y: y, Z: max.Z},
			{X: max.X, Y: y, Z: max.Z},
			{X: max.X, Y: y, Z: min.Z},
		}
	}
	return Prism{rect(min.Y), rect(max.Y)}
}

// Origin returns the shared corner of the three spanning edges.
func (p Prism) Origin() Point3D {
	return p[0][0]
}

// Edges returns the spanning edge vectors u, v and w from the origin corner.
func (p Prism) Edges() (u, v, w Vector3D) {
	p0 := p.Origin()
	return p[0][3].Sub(p0), p[1][0].Sub(p0), p[0][1].Sub(p0)
}

// Corners returns all eight corners, rect 0 first.
func (p Prism) Corners() []Point3D {
	corners := make([]Point3D, 0, 8)
	corners = append(corners, p[0][:]...)
	return append(corners, p[1][:]...)
}

// Bounds returns the AABB of the eight corners.
func (p Prism) Bounds() AABB {
	return BoundsOf(p.Corners()...)
}

// Orthogonal reports whether the spanning edges are pairwise orthogonal within
// tol, measured as the absolute cosine of the angle between each pair.
func (p Prism) Orthogonal(tol float64) bool {
	u, v, w := p.Edges()
	return cosAbs(u, v) <= tol && cosAbs(v, w) <= tol && cosAbs(u, w) <= tol
}

func cosAbs(a, b Vector3D) float64 {
	na, nb := a.Norm(), b.Norm()
	if na == 0 || nb == 0 {
		return 1
	}
	return math.Abs(a.Dot(b)) / (na * nb)
}

// FieldRegion is a prism carrying an initial magnetization direction.
// Regions are immutable once built and may be reused across meshes.
type FieldRegion struct {
	ID            string        `json:"id,omitempty" yaml:"id,omitempty"`
	Label         string        `json:"label,omitempty" yaml:"label,omitempty"`
	Points        Prism         `json:"points" yaml:"points"`
	AABB          AABB          `json:"aabb" yaml:"aabb"`
	Magnetization Magnetization `json:"magnetization" yaml:"magnetization"`
	Vector        Vector3D      `json:"vector" yaml:"vector"`
}

// NewFieldRegion builds a region whose AABB is derived from the prism corners.
func NewFieldRegion(points Prism, m Magnetization, vector Vector3D) FieldRegion {
	return FieldRegion{
		ID:            uuid.New().String()[:8],
		Points:        points,
		AABB:          points.Bounds(),
		Magnetization: m,
		Vector:        vector,
	}
}

// RegionCheck controls the optional checks applied by FieldRegion.Validate.
type RegionCheck struct {
	Orthogonality bool    // Reject prisms whose spanning edges are not orthogonal
	Tolerance     float64 // Maximum |cos| between spanning edges
}

// DefaultOrthogonalityTolerance allows roughly 0.06 degrees of skew.
const DefaultOrthogonalityTolerance = 1e-3

// aabbSlack is the relative slack allowed when a supplied AABB is checked
// against the prism corners it should enclose.
const aabbSlack = 1e-9

// Validate checks the region at position index of its input list.
func (r FieldRegion) Validate(index int, check RegionCheck) error {
	if !r.Magnetization.Valid() {
		return &InvalidFieldRegionError{Index: index, Field: "magnetization",
			Reason: fmt.Sprintf("unknown value %q, want positive, negative or none", r.Magnetization)}
	}
	if !r.Vector.Finite() {
		return &InvalidFieldRegionError{Index: index, Field: "vector", Reason: "components must be finite"}
	}
	if r.Vector.IsZero() {
		return &InvalidFieldRegionError{Index: index, Field: "vector", Reason: "must be non-zero"}
	}
	for i, c := range r.Points.Corners() {
		if !c.Finite() {
			return &InvalidFieldRegionError{Index: index, Field: fmt.Sprintf("points[%d][%d]", i/4, i%4),
				Reason: "coordinates must be finite"}
		}
	}

	u, v, w := r.Points.Edges()
	for i, e := range []Vector3D{u, v, w} {
		if e.IsZero() {
			return &InvalidFieldRegionError{Index: index, Field: "points",
				Reason: fmt.Sprintf("degenerate prism: edge %c has zero length", "uvw"[i])}
		}
	}

	if !r.AABB.Valid() {
		return &InvalidFieldRegionError{Index: index, Field: "aabb", Reason: "min exceeds max on at least one axis"}
	}
	slack := aabbSlack * math.Max(1, r.Points.Bounds().Size().Norm())
	for _, c := range r.Points.Corners() {
		if !r.AABB.Encloses(c, slack) {
			return &InvalidFieldRegionError{Index: index, Field: "aabb",
				Reason: fmt.Sprintf("does not enclose prism corner (%g, %g, %g)", c.X, c.Y, c.Z)}
		}
	}

	if check.Orthogonality {
		tol := check.Tolerance
		if tol <= 0 {
			tol = DefaultOrthogonalityTolerance
		}
		if !r.Points.Orthogonal(tol) {
			return &InvalidFieldRegionError{Index: index, Field: "points",
				Reason: "prism edges from the origin corner are not mutually orthogonal"}
		}
	}
	return nil
}

// ValidateRegions validates every region in order and returns the first failure.
func ValidateRegions(regions []FieldRegion, check RegionCheck) error {
	for i, r := range regions {
		if err := r.Validate(i, check); err != nil {
			return err
		}
	}
	return nil
}
