package meshio

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/piwi3910/MagSeed/internal/model"
)

// jsonPoint always carries the exterior flag, which the viewer expects.
type jsonPoint struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Z        float64 `json:"z"`
	Exterior bool    `json:"exterior"`
}

// WriteJSON writes the mesh as an array of tetrahedra, each an array of its
// four vertex objects.
func WriteJSON(w io.Writer, mesh *model.Mesh) error {
	tets := make([][4]jsonPoint, len(mesh.Tetrahedra))
	for i := range mesh.Tetrahedra {
		for j, p := range mesh.Corners(i) {
			tets[i][j] = jsonPoint{X: p.X, Y: p.Y, Z: p.Z, Exterior: p.Exterior}
		}
	}
	if err := json.NewEncoder(w).Encode(tets); err != nil {
		return fmt.Errorf("failed to encode mesh JSON: %w", err)
	}
	return nil
}

// JSONPath derives the output name for a mesh file: the last ".mesh" in path
// is dropped and ".json" appended.
func JSONPath(meshPath string) string {
	if i := strings.LastIndex(meshPath, ".mesh"); i >= 0 {
		meshPath = meshPath[:i] + meshPath[i+len(".mesh"):]
	}
	return meshPath + ".json"
}
