package export

import (
	"fmt"

	"github.com/yofu/dxf"
	"github.com/yofu/dxf/color"

	"github.com/piwi3910/MagSeed/internal/model"
)

// Layer names used in region drawings, one per magnetization.
const (
	LayerPositive = "MAG_POSITIVE"
	LayerNegative = "MAG_NEGATIVE"
	LayerNone     = "MAG_NONE"
)

var layerColors = []struct {
	name string
	col  color.ColorNumber
	mag  model.Magnetization
}{
	{LayerPositive, color.Red, model.MagnetizationPositive},
	{LayerNegative, color.Blue, model.MagnetizationNegative},
	{LayerNone, color.White, model.MagnetizationNone},
}

// LayerFor returns the drawing layer for a magnetization.
func LayerFor(m model.Magnetization) string {
	for _, l := range layerColors {
		if l.mag == m {
			return l.name
		}
	}
	return LayerNone
}

// PrismEdges returns the 12 edges of a prism as corner pairs: the four sides
// of each rectangle and the four connecting edges.
func PrismEdges(p model.Prism) [12][2]model.Point3D {
	var edges [12][2]model.Point3D
	n := 0
	for r := 0; r < 2; r++ {
		for c := 0; c < 4; c++ {
			edges[n] = [2]model.Point3D{p[r][c], p[r][(c+1)%4]}
			n++
		}
	}
	for c := 0; c < 4; c++ {
		edges[n] = [2]model.Point3D{p[0][c], p[1][c]}
		n++
	}
	return edges
}

// ExportRegionsDXF writes the prism wireframes of all regions as 3D LINE
// entities, each region on the layer of its magnetization.
func ExportRegionsDXF(path string, regions []model.FieldRegion) error {
	if len(regions) == 0 {
		return fmt.Errorf("no regions to export")
	}

	d := dxf.NewDrawing()
	for _, l := range layerColors {
		if _, err := d.AddLayer(l.name, l.col, dxf.DefaultLineType, false); err != nil {
			return fmt.Errorf("failed to add layer %s: %w", l.name, err)
		}
	}

	for i, r := range regions {
		if err := d.ChangeLayer(LayerFor(r.Magnetization)); err != nil {
			return fmt.Errorf("region %d: %w", i, err)
		}
		for _, e := range PrismEdges(r.Points) {
			a, b := e[0], e[1]
			if _, err := d.Line(a.X, a.Y, a.Z, b.X, b.Y, b.Z); err != nil {
				return fmt.Errorf("region %d: failed to add edge: %w", i, err)
			}
		}
	}

	if err := d.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save DXF: %w", err)
	}
	return nil
}
