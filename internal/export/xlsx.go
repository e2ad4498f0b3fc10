package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/piwi3910/MagSeed/internal/importer"
	"github.com/piwi3910/MagSeed/internal/model"
)

// Sheet names of the exported workbook.
const (
	SheetConditions = "Initial Conditions"
	SheetRegions    = importer.RegionSheet
)

var conditionHeaders = []interface{}{"index", "x", "y", "z", "exterior", "mx", "my", "mz", "region"}

// ExportXLSX writes the per-vertex table and the region list to a workbook.
// The Regions sheet uses the corner column layout the importer reads, so it
// can be edited and loaded back.
func ExportXLSX(path string, points []model.Point3D, table *model.InitialConditionTable, regions []model.FieldRegion) error {
	if table.Len() != len(points) {
		return fmt.Errorf("table has %d rows, mesh has %d vertices", table.Len(), len(points))
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetConditions); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	if err := writeConditions(f, points, table); err != nil {
		return err
	}

	if _, err := f.NewSheet(SheetRegions); err != nil {
		return fmt.Errorf("failed to add sheet: %w", err)
	}
	if err := writeRegions(f, regions); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func writeConditions(f *excelize.File, points []model.Point3D, table *model.InitialConditionTable) error {
	sw, err := f.NewStreamWriter(SheetConditions)
	if err != nil {
		return fmt.Errorf("failed to open stream writer: %w", err)
	}
	if err := sw.SetRow("A1", conditionHeaders); err != nil {
		return err
	}
	for i, p := range points {
		v := table.Vectors[i]
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []interface{}{i, p.X, p.Y, p.Z, p.Exterior, v.X, v.Y, v.Z, table.Regions[i]}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}
	return sw.Flush()
}

func writeRegions(f *excelize.File, regions []model.FieldRegion) error {
	header := []interface{}{"label", "magnetization", "vx", "vy", "vz"}
	for i := 0; i < importer.CornerColumns; i++ {
		header = append(header, importer.CornerHeader(i))
	}
	if err := f.SetSheetRow(SheetRegions, "A1", &header); err != nil {
		return err
	}

	for i, r := range regions {
		row := []interface{}{r.Label, string(r.Magnetization), r.Vector.X, r.Vector.Y, r.Vector.Z}
		for _, c := range r.Points.Corners() {
			row = append(row, c.X, c.Y, c.Z)
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(SheetRegions, cell, &row); err != nil {
			return fmt.Errorf("failed to write region %d: %w", i, err)
		}
	}
	return nil
}
