package field

import (
	"math"
	"sort"

	"github.com/dhconnelly/rtreego"

	"github.com/piwi3910/MagSeed/internal/model"
)

// indexPad widens index rectangles relative to coordinate magnitude, so the
// index never drops a candidate whose inclusive AABB touches the point.
const indexPad = 1e-9

// R-tree branching factors.
const (
	treeMinChildren = 4
	treeMaxChildren = 16
)

// Classifier classifies points against a fixed, ordered region list.
// It is read-only after construction and safe for concurrent use.
type Classifier struct {
	regions []model.FieldRegion
	tree    *rtreego.Rtree
}

// regionEntry is the R-tree payload for one region.
type regionEntry struct {
	index  int
	bounds rtreego.Rect
}

func (e *regionEntry) Bounds() rtreego.Rect {
	return e.bounds
}

// NewClassifier prepares a classifier for regions. An R-tree over the region
// AABBs is built when there are more than threshold regions; a threshold of
// zero or less disables the index. The region slice is copied.
func NewClassifier(regions []model.FieldRegion, threshold int) *Classifier {
	c := &Classifier{regions: append([]model.FieldRegion(nil), regions...)}
	if threshold > 0 && len(regions) > threshold {
		c.buildIndex()
	}
	return c
}

func (c *Classifier) buildIndex() {
	objs := make([]rtreego.Spatial, 0, len(c.regions))
	for i, r := range c.regions {
		rect, err := paddedRect(r.AABB)
		if err != nil {
			// Leave the index off; the linear scan is always correct.
			return
		}
		objs = append(objs, &regionEntry{index: i, bounds: rect})
	}
	c.tree = rtreego.NewTree(3, treeMinChildren, treeMaxChildren, objs...)
}

func paddedRect(box model.AABB) (rtreego.Rect, error) {
	pad := indexPad * math.Max(1, maxAbs(box.Min, box.Max))
	return rtreego.NewRectFromPoints(
		rtreego.Point{box.Min.X - pad, box.Min.Y - pad, box.Min.Z - pad},
		rtreego.Point{box.Max.X + pad, box.Max.Y + pad, box.Max.Z + pad},
	)
}

func maxAbs(points ...model.Point3D) float64 {
	m := 0.0
	for _, p := range points {
		m = math.Max(m, math.Max(math.Abs(p.X), math.Max(math.Abs(p.Y), math.Abs(p.Z))))
	}
	return m
}

// Len returns the number of regions.
func (c *Classifier) Len() int {
	return len(c.regions)
}

// Indexed reports whether the classifier uses the spatial index.
func (c *Classifier) Indexed() bool {
	return c.tree != nil
}

// Classify behaves exactly like the package-level Classify over the
// classifier's regions.
func (c *Classifier) Classify(p model.Point3D) (model.Vector3D, int, bool) {
	if c.tree == nil {
		return Classify(p, c.regions)
	}

	for _, i := range c.candidates(p) {
		if contains(p, &c.regions[i]) {
			return c.regions[i].Vector, i, true
		}
	}
	return model.Vector3D{}, model.FallbackRegion, false
}

// candidates returns the indices of regions whose padded AABB intersects p,
// in declared order.
func (c *Classifier) candidates(p model.Point3D) []int {
	tol := indexPad * math.Max(1, maxAbs(p))
	hits := c.tree.SearchIntersect(rtreego.Point{p.X, p.Y, p.Z}.ToRect(tol))
	if len(hits) == 0 {
		return nil
	}
	idx := make([]int, len(hits))
	for i, h := range hits {
		idx[i] = h.(*regionEntry).index
	}
	sort.Ints(idx)
	return idx
}
