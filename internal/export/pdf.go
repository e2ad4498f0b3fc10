// Package export writes initial-condition tables and field regions to
// various file formats.
package export

import (
	"fmt"
	"math"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/piwi3910/MagSeed/internal/model"
)

// rgb is a fill or stroke colour.
type rgb struct {
	R, G, B int
}

// magnetizationColors mirrors the region colours of the web viewer.
var magnetizationColors = map[model.Magnetization]rgb{
	model.MagnetizationPositive: {R: 244, G: 67, B: 54},  // red
	model.MagnetizationNegative: {R: 33, G: 150, B: 243}, // blue
	model.MagnetizationNone:     {R: 158, G: 158, B: 158},
}

var fallbackColor = rgb{R: 255, G: 193, B: 7} // amber

func colorFor(m model.Magnetization) rgb {
	if c, ok := magnetizationColors[m]; ok {
		return c
	}
	return magnetizationColors[model.MagnetizationNone]
}

// Page layout constants (A4 landscape in mm).
const (
	pageWidth    = 297.0
	pageHeight   = 210.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	marginBottom = 15.0
	headerHeight = 12.0
	legendHeight = 20.0
	drawAreaTop  = marginTop + headerHeight + 5.0
)

// maxPlottedVertices caps the vertex dots drawn on the layout page.
const maxPlottedVertices = 4000

// Report is the content of a run report.
type Report struct {
	Title    string
	RunID    string
	MeshFile string
	Created  time.Time
	Mesh     *model.Mesh
	Regions  []model.FieldRegion
	Table    *model.InitialConditionTable
	Settings model.AssignSettings
}

// ExportReport generates a PDF with a top-view layout of the regions and the
// mesh vertices coloured by assignment, followed by a summary page carrying
// the statistics, the region table and a QR code of the run summary.
func ExportReport(path string, r Report) error {
	if r.Mesh == nil || r.Table == nil {
		return fmt.Errorf("report needs a mesh and an assignment table")
	}
	if r.Table.Len() != len(r.Mesh.Points) {
		return fmt.Errorf("table has %d rows, mesh has %d vertices", r.Table.Len(), len(r.Mesh.Points))
	}
	if r.Title == "" {
		r.Title = "Initial Magnetization Report"
	}
	if r.Created.IsZero() {
		r.Created = time.Now()
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, marginBottom)

	pdf.AddPage()
	renderLayoutPage(pdf, r)

	pdf.AddPage()
	if err := renderSummaryPage(pdf, r); err != nil {
		return err
	}

	return pdf.OutputFileAndClose(path)
}

// viewport maps the XY plane onto the drawing area.
type viewport struct {
	minX, minY       float64
	scale            float64
	offsetX, offsetY float64
	canvasW, canvasH float64
}

func newViewport(bounds model.AABB) viewport {
	drawWidth := pageWidth - marginLeft - marginRight
	drawHeight := pageHeight - drawAreaTop - marginBottom - legendHeight

	w := math.Max(bounds.Max.X-bounds.Min.X, 1e-9)
	h := math.Max(bounds.Max.Y-bounds.Min.Y, 1e-9)
	scale := math.Min(drawWidth/w, drawHeight/h)

	vp := viewport{minX: bounds.Min.X, minY: bounds.Min.Y, scale: scale, canvasW: w * scale, canvasH: h * scale}
	vp.offsetX = marginLeft + (drawWidth-vp.canvasW)/2
	vp.offsetY = drawAreaTop
	return vp
}

// at converts model XY to page coordinates. Page Y grows downwards.
func (vp viewport) at(p model.Point3D) (float64, float64) {
	return vp.offsetX + (p.X-vp.minX)*vp.scale, vp.offsetY + vp.canvasH - (p.Y-vp.minY)*vp.scale
}

func renderLayoutPage(pdf *fpdf.Fpdf, r Report) {
	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetXY(marginLeft, marginTop)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, headerHeight, r.Title+" - top view (XY)", "", 0, "L", false, 0, "")

	s := r.Table.Summary(len(r.Regions))
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetXY(marginLeft, marginTop+headerHeight)
	stats := fmt.Sprintf("Vertices: %d | Tetrahedra: %d | Regions: %d | Matched: %d | Fallback: %d (%.1f%%)",
		s.Vertices, len(r.Mesh.Tetrahedra), len(r.Regions), s.Matched, s.Fallbacks, 100*s.FallbackRatio())
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 5, stats, "", 0, "L", false, 0, "")

	bounds := r.Mesh.Bounds()
	for _, reg := range r.Regions {
		bounds = model.BoundsOf(bounds.Min, bounds.Max, reg.AABB.Min, reg.AABB.Max)
	}
	vp := newViewport(bounds)

	// Mesh extent
	pdf.SetFillColor(245, 245, 245)
	pdf.SetDrawColor(100, 100, 100)
	pdf.SetLineWidth(0.5)
	pdf.Rect(vp.offsetX, vp.offsetY, vp.canvasW, vp.canvasH, "FD")

	drawVertices(pdf, vp, r)
	for _, reg := range r.Regions {
		drawPrismOutline(pdf, vp, reg)
	}

	drawExtentAnnotations(pdf, bounds, vp)
	drawLegend(pdf, vp.offsetY+vp.canvasH+6)
}

// drawVertices plots a stride sample of the mesh vertices in the colour of
// the region they were assigned to.
func drawVertices(pdf *fpdf.Fpdf, vp viewport, r Report) {
	stride := 1
	if n := len(r.Mesh.Points); n > maxPlottedVertices {
		stride = (n + maxPlottedVertices - 1) / maxPlottedVertices
	}
	for i := 0; i < len(r.Mesh.Points); i += stride {
		col := fallbackColor
		if reg := r.Table.Regions[i]; reg >= 0 && reg < len(r.Regions) {
			col = colorFor(r.Regions[reg].Magnetization)
		}
		x, y := vp.at(r.Mesh.Points[i])
		pdf.SetFillColor(col.R, col.G, col.B)
		pdf.Circle(x, y, 0.4, "F")
	}
}

func drawPrismOutline(pdf *fpdf.Fpdf, vp viewport, reg model.FieldRegion) {
	col := colorFor(reg.Magnetization)
	pdf.SetDrawColor(col.R, col.G, col.B)
	pdf.SetLineWidth(0.3)
	for _, e := range PrismEdges(reg.Points) {
		x1, y1 := vp.at(e[0])
		x2, y2 := vp.at(e[1])
		pdf.Line(x1, y1, x2, y2)
	}

	if reg.Label != "" {
		x, y := vp.at(reg.AABB.Min)
		pdf.SetFont("Helvetica", "", 6)
		pdf.SetTextColor(col.R, col.G, col.B)
		pdf.SetXY(x, y)
		pdf.CellFormat(pdf.GetStringWidth(reg.Label)+1, 3, reg.Label, "", 0, "L", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	}
}

// drawExtentAnnotations adds X and Y extent labels outside the drawing.
func drawExtentAnnotations(pdf *fpdf.Fpdf, b model.AABB, vp viewport) {
	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(80, 80, 80)

	xLabel := fmt.Sprintf("x: %.4g .. %.4g", b.Min.X, b.Max.X)
	xW := pdf.GetStringWidth(xLabel)
	pdf.SetXY(vp.offsetX+(vp.canvasW-xW)/2, vp.offsetY+vp.canvasH+1)
	pdf.CellFormat(xW, 4, xLabel, "", 0, "C", false, 0, "")

	yLabel := fmt.Sprintf("y: %.4g .. %.4g", b.Min.Y, b.Max.Y)
	pdf.TransformBegin()
	pdf.TransformRotate(90, vp.offsetX-3, vp.offsetY+vp.canvasH/2)
	yW := pdf.GetStringWidth(yLabel)
	pdf.SetXY(vp.offsetX-3-yW/2, vp.offsetY+vp.canvasH/2-2)
	pdf.CellFormat(yW, 4, yLabel, "", 0, "C", false, 0, "")
	pdf.TransformEnd()

	pdf.SetTextColor(0, 0, 0)
}

func drawLegend(pdf *fpdf.Fpdf, y float64) {
	items := []struct {
		label string
		col   rgb
	}{
		{"positive", colorFor(model.MagnetizationPositive)},
		{"negative", colorFor(model.MagnetizationNegative)},
		{"none", colorFor(model.MagnetizationNone)},
		{"fallback", fallbackColor},
	}

	pdf.SetFont("Helvetica", "", 8)
	x := marginLeft
	for _, it := range items {
		pdf.SetFillColor(it.col.R, it.col.G, it.col.B)
		pdf.Rect(x, y+0.5, 3, 3, "F")
		pdf.SetXY(x+4, y)
		w := pdf.GetStringWidth(it.label) + 2
		pdf.CellFormat(w, 4, it.label, "", 0, "L", false, 0, "")
		x += w + 8
	}
}

func renderSummaryPage(pdf *fpdf.Fpdf, r Report) error {
	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetXY(marginLeft, marginTop)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 10, "Assignment Summary", "", 0, "L", false, 0, "")

	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.5)
	pdf.Line(marginLeft, marginTop+12, pageWidth-marginRight, marginTop+12)

	y := marginTop + 18
	s := r.Table.Summary(len(r.Regions))

	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(100, 7, "Overall Statistics", "", 0, "L", false, 0, "")
	y += 9

	summaryItems := []struct {
		label string
		value string
	}{
		{"Run", r.RunID},
		{"Mesh", r.MeshFile},
		{"Created", r.Created.Format(time.RFC3339)},
		{"Vertices", fmt.Sprintf("%d", s.Vertices)},
		{"Exterior Vertices", fmt.Sprintf("%d", r.Mesh.ExteriorCount())},
		{"Tetrahedra", fmt.Sprintf("%d", len(r.Mesh.Tetrahedra))},
		{"Matched", fmt.Sprintf("%d", s.Matched)},
		{"Fallback", fmt.Sprintf("%d (%.1f%%)", s.Fallbacks, 100*s.FallbackRatio())},
		{"Fallback Policy", fallbackDescription(r.Settings.Fallback)},
	}

	pdf.SetFont("Helvetica", "", 10)
	for _, item := range summaryItems {
		pdf.SetXY(marginLeft+5, y)
		pdf.CellFormat(45, 6, item.label+":", "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(120, 6, item.value, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		y += 6
	}

	if err := drawQRCode(pdf, "run_summary", runSummaryPayload(r, s), pageWidth-marginRight-qrSize*2, marginTop+18, qrSize*2); err != nil {
		return err
	}

	y += 5
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(100, 7, "Regions (first match wins)", "", 0, "L", false, 0, "")
	y += 9

	colWidths := []float64{15, 55, 30, 60, 80, 27}
	headers := []string{"#", "Label", "Magnetization", "Vector", "AABB", "Vertices"}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	xPos := marginLeft
	for i, header := range headers {
		pdf.SetXY(xPos, y)
		pdf.CellFormat(colWidths[i], 6, header, "1", 0, "C", true, 0, "")
		xPos += colWidths[i]
	}
	y += 6

	pdf.SetFont("Helvetica", "", 8)
	for i, reg := range r.Regions {
		if y > pageHeight-marginBottom-10 {
			pdf.AddPage()
			y = marginTop
		}
		xPos = marginLeft
		rowData := []string{
			fmt.Sprintf("%d", i),
			reg.Label,
			string(reg.Magnetization),
			fmt.Sprintf("(%.3g, %.3g, %.3g)", reg.Vector.X, reg.Vector.Y, reg.Vector.Z),
			fmt.Sprintf("(%.3g, %.3g, %.3g)-(%.3g, %.3g, %.3g)",
				reg.AABB.Min.X, reg.AABB.Min.Y, reg.AABB.Min.Z, reg.AABB.Max.X, reg.AABB.Max.Y, reg.AABB.Max.Z),
			fmt.Sprintf("%d", s.PerRegion[i]),
		}

		if i%2 == 0 {
			pdf.SetFillColor(245, 245, 245)
		} else {
			pdf.SetFillColor(255, 255, 255)
		}
		for j, cell := range rowData {
			pdf.SetXY(xPos, y)
			pdf.CellFormat(colWidths[j], 6, cell, "1", 0, "C", true, 0, "")
			xPos += colWidths[j]
		}
		y += 6
	}

	if s.Matched == 0 && s.Vertices > 0 {
		y += 8
		pdf.SetFont("Helvetica", "B", 11)
		pdf.SetTextColor(200, 0, 0)
		pdf.SetXY(marginLeft, y)
		pdf.CellFormat(200, 7, "WARNING: no vertex matched any region", "", 0, "L", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	}

	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(120, 120, 120)
	pdf.SetXY(marginLeft, pageHeight-marginBottom)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 4, "Generated by MagSeed - micromagnetic initial conditions", "", 0, "C", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	return nil
}

func fallbackDescription(f model.FallbackSettings) string {
	switch f.Mode {
	case model.FallbackSeeded:
		return fmt.Sprintf("seeded random (seed %d)", f.Seed)
	default:
		v := f.Vector
		if v.IsZero() {
			v = model.DefaultFallbackVector
		}
		return fmt.Sprintf("constant (%.3g, %.3g, %.3g)", v.X, v.Y, v.Z)
	}
}
