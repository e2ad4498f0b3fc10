// Package field decides which magnetization region, if any, contains a point.
package field

import "github.com/piwi3910/MagSeed/internal/model"

// PointInAABB reports whether p lies inside box. All six faces are inclusive,
// so points on the surface are inside.
func PointInAABB(p model.Point3D, box model.AABB) bool {
	return p.X >= box.Min.X && p.X <= box.Max.X &&
		p.Y >= box.Min.Y && p.Y <= box.Max.Y &&
		p.Z >= box.Min.Z && p.Z <= box.Max.Z
}

// PointInPrism reports whether p lies inside the prism by projecting the
// offset from the origin corner onto each spanning edge. The point is inside
// when every projection falls within [0, |e|^2], boundaries included.
//
// The test is exact for prisms whose spanning edges are mutually orthogonal.
// For skewed prisms the result is unspecified.
func PointInPrism(p model.Point3D, prism model.Prism) bool {
	d := p.Sub(prism.Origin())
	u, v, w := prism.Edges()
	return withinEdge(d, u) && withinEdge(d, v) && withinEdge(d, w)
}

func withinEdge(d, e model.Vector3D) bool {
	proj := d.Dot(e)
	return proj >= 0 && proj <= e.Dot(e)
}

// contains applies the AABB fast reject before the prism test.
func contains(p model.Point3D, r *model.FieldRegion) bool {
	return PointInAABB(p, r.AABB) && PointInPrism(p, r.Points)
}

// Classify returns the vector of the first region in declared order that
// contains p, together with its index. When no region matches it returns the
// zero vector, model.FallbackRegion and false; choosing a fallback is up to
// the caller.
func Classify(p model.Point3D, regions []model.FieldRegion) (model.Vector3D, int, bool) {
	for i := range regions {
		if contains(p, &regions[i]) {
			return regions[i].Vector, i, true
		}
	}
	return model.Vector3D{}, model.FallbackRegion, false
}
