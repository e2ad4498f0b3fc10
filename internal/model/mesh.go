package model

import (
	"fmt"
	"sort"
)

// Tetrahedron references four vertices of its mesh by 0-based index.
type Tetrahedron struct {
	Tag int    `json:"tag"` // Material/region tag from the source file
	V   [4]int `json:"v"`
}

// Mesh is a tetrahedral volume mesh: a vertex table and the tetrahedra built on it.
type Mesh struct {
	Points     []Point3D     `json:"points"`
	Tetrahedra []Tetrahedron `json:"tetrahedra"`
}

// Corners dereferences the vertices of tetrahedron i.
func (m *Mesh) Corners(i int) [4]Point3D {
	t := m.Tetrahedra[i]
	return [4]Point3D{m.Points[t.V[0]], m.Points[t.V[1]], m.Points[t.V[2]], m.Points[t.V[3]]}
}

// Bounds returns the AABB of all vertices.
func (m *Mesh) Bounds() AABB {
	return BoundsOf(m.Points...)
}

// CheckIndices verifies every tetrahedron references a vertex in the table.
func (m *Mesh) CheckIndices() error {
	for i, t := range m.Tetrahedra {
		for _, v := range t.V {
			if v < 0 || v >= len(m.Points) {
				return fmt.Errorf("tetrahedron %d references vertex %d, mesh has %d vertices", i, v, len(m.Points))
			}
		}
	}
	return nil
}

// faceKey identifies a triangular face independent of vertex order.
type faceKey [3]int

func makeFaceKey(a, b, c int) faceKey {
	k := []int{a, b, c}
	sort.Ints(k)
	return faceKey{k[0], k[1], k[2]}
}

// tetraFaces lists the four faces of a tetrahedron as vertex positions.
var tetraFaces = [4][3]int{{0, 1, 2}, {0, 1, 3}, {0, 2, 3}, {1, 2, 3}}

// MarkExterior sets Point3D.Exterior for every vertex. A vertex is exterior
// when it belongs to a face that no other tetrahedron shares. Vertices not
// used by any tetrahedron are left interior. It returns the number of
// boundary faces found.
func (m *Mesh) MarkExterior() int {
	counts := make(map[faceKey]int, 2*len(m.Tetrahedra))
	for _, t := range m.Tetrahedra {
		for _, f := range tetraFaces {
			counts[makeFaceKey(t.V[f[0]], t.V[f[1]], t.V[f[2]])]++
		}
	}

	for i := range m.Points {
		m.Points[i].Exterior = false
	}

	boundary := 0
	for k, n := range counts {
		if n != 1 {
			continue
		}
		boundary++
		for _, v := range k {
			m.Points[v].Exterior = true
		}
	}
	return boundary
}

// ExteriorCount returns the number of vertices flagged exterior.
func (m *Mesh) ExteriorCount() int {
	n := 0
	for _, p := range m.Points {
		if p.Exterior {
			n++
		}
	}
	return n
}
