// Package importer loads field regions from region documents (JSON, YAML) and
// from spreadsheets (CSV, Excel). Tabular imports support automatic delimiter
// detection, flexible column mapping, and case-insensitive header recognition.
package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/piwi3910/MagSeed/internal/model"
)

// ImportResult holds the results of a tabular import.
type ImportResult struct {
	Regions  []model.FieldRegion
	Errors   []string
	Warnings []string
}

// CornerColumns is the number of coordinate columns describing a full prism:
// two rectangles of four corners with three coordinates each.
const CornerColumns = 24

// ColumnMapping maps semantic column roles to their indices in the data.
// A row describes its prism either by all 24 corner columns or, for
// axis-aligned boxes, by the six Box columns (min x, y, z then max x, y, z).
type ColumnMapping struct {
	Label         int
	Magnetization int
	Vector        [3]int
	Box           [6]int
	Corners       [CornerColumns]int
}

func emptyMapping() ColumnMapping {
	m := ColumnMapping{Label: -1, Magnetization: -1}
	for i := range m.Vector {
		m.Vector[i] = -1
	}
	for i := range m.Box {
		m.Box[i] = -1
	}
	for i := range m.Corners {
		m.Corners[i] = -1
	}
	return m
}

// HasCorners reports whether every corner column is mapped.
func (m ColumnMapping) HasCorners() bool {
	return allMapped(m.Corners[:])
}

// HasBox reports whether every box column is mapped.
func (m ColumnMapping) HasBox() bool {
	return allMapped(m.Box[:])
}

func allMapped(cols []int) bool {
	for _, c := range cols {
		if c < 0 {
			return false
		}
	}
	return true
}

var axes = [3]string{"x", "y", "z"}

// CornerHeader returns the header name of corner coordinate column i, for
// example "r0p3_z" for the z coordinate of rectangle 0, corner 3.
func CornerHeader(i int) string {
	return fmt.Sprintf("r%dp%d_%s", i/12, (i/3)%4, axes[i%3])
}

// headerAliases maps column roles to their accepted aliases (all lowercase).
// Corner columns are matched by CornerHeader only.
var headerAliases = map[string][]string{
	"label":         {"label", "name", "region", "description", "desc"},
	"magnetization": {"magnetization", "magnetisation", "mag", "sign", "polarity"},
	"vx":            {"vx", "vector x", "vector_x", "mx"},
	"vy":            {"vy", "vector y", "vector_y", "my"},
	"vz":            {"vz", "vector z", "vector_z", "mz"},
	"min_x":         {"min_x", "min x", "xmin", "x0"},
	"min_y":         {"min_y", "min y", "ymin", "y0"},
	"min_z":         {"min_z", "min z", "zmin", "z0"},
	"max_x":         {"max_x", "max x", "xmax", "x1"},
	"max_y":         {"max_y", "max y", "ymax", "y1"},
	"max_z":         {"max_z", "max z", "zmax", "z1"},
}

var roleSlots = map[string]func(m *ColumnMapping) *int{
	"label":         func(m *ColumnMapping) *int { return &m.Label },
	"magnetization": func(m *ColumnMapping) *int { return &m.Magnetization },
	"vx":            func(m *ColumnMapping) *int { return &m.Vector[0] },
	"vy":            func(m *ColumnMapping) *int { return &m.Vector[1] },
	"vz":            func(m *ColumnMapping) *int { return &m.Vector[2] },
	"min_x":         func(m *ColumnMapping) *int { return &m.Box[0] },
	"min_y":         func(m *ColumnMapping) *int { return &m.Box[1] },
	"min_z":         func(m *ColumnMapping) *int { return &m.Box[2] },
	"max_x":         func(m *ColumnMapping) *int { return &m.Box[3] },
	"max_y":         func(m *ColumnMapping) *int { return &m.Box[4] },
	"max_z":         func(m *ColumnMapping) *int { return &m.Box[5] },
}

var cornerIndex = func() map[string]int {
	idx := make(map[string]int, CornerColumns)
	for i := 0; i < CornerColumns; i++ {
		idx[CornerHeader(i)] = i
	}
	return idx
}()

// DetectCSVDelimiter reads the file content and determines the most likely CSV delimiter.
// It tries comma, semicolon, tab, and pipe. The delimiter that produces the most
// consistent (non-one) column count across lines wins.
func DetectCSVDelimiter(data []byte) rune {
	candidates := []rune{',', ';', '\t', '|'}
	bestDelimiter := ','
	bestScore := 0

	for _, delim := range candidates {
		reader := csv.NewReader(bytes.NewReader(data))
		reader.Comma = delim
		reader.LazyQuotes = true
		reader.FieldsPerRecord = -1

		records, err := reader.ReadAll()
		if err != nil || len(records) < 1 {
			continue
		}

		firstCols := len(records[0])
		if firstCols < 2 {
			continue
		}

		score := 0
		for _, row := range records {
			if len(row) == firstCols {
				score++
			}
		}

		weighted := score*10 + firstCols
		if weighted > bestScore {
			bestScore = weighted
			bestDelimiter = delim
		}
	}

	return bestDelimiter
}

// DetectColumns examines a header row and returns a ColumnMapping.
// Returns the mapping and true if a header was detected, or a positional
// mapping and false if no header was found. Positional rows hold label,
// magnetization, vx, vy, vz and then either 24 corner coordinates or the six
// box bounds, depending on their width.
func DetectColumns(row []string) (ColumnMapping, bool) {
	mapping := emptyMapping()

	isHeader := false
	for i, cell := range row {
		normalized := strings.ToLower(strings.TrimSpace(cell))
		if c, ok := cornerIndex[normalized]; ok {
			isHeader = true
			if mapping.Corners[c] == -1 {
				mapping.Corners[c] = i
			}
			continue
		}
		for role, aliases := range headerAliases {
			for _, alias := range aliases {
				if normalized != alias {
					continue
				}
				isHeader = true
				if slot := roleSlots[role](&mapping); *slot == -1 {
					*slot = i
				}
			}
		}
	}

	if !isHeader {
		return positionalMapping(len(row)), false
	}
	return mapping, true
}

func positionalMapping(width int) ColumnMapping {
	m := emptyMapping()
	m.Label, m.Magnetization = 0, 1
	m.Vector = [3]int{2, 3, 4}
	if width >= 5+CornerColumns {
		for i := range m.Corners {
			m.Corners[i] = 5 + i
		}
		return m
	}
	for i := range m.Box {
		m.Box[i] = 5 + i
	}
	return m
}

// getCell safely retrieves a cell value from a row by column index.
// Returns empty string if the index is out of range or negative.
func getCell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func parseFloatCell(row []string, idx int, rowLabel, name string) (float64, string) {
	s := getCell(row, idx)
	if s == "" {
		return 0, fmt.Sprintf("%s: Missing %s value", rowLabel, name)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Sprintf("%s: Invalid %s '%s'", rowLabel, name, s)
	}
	return v, ""
}

// parseMagnetization maps spreadsheet spellings onto the magnetization enum.
func parseMagnetization(s string) (model.Magnetization, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "positive", "pos", "+", "out":
		return model.MagnetizationPositive, true
	case "negative", "neg", "-", "in":
		return model.MagnetizationNegative, true
	case "none", "n", "0", "":
		return model.MagnetizationNone, true
	default:
		return model.MagnetizationNone, false
	}
}

// parseRow extracts a FieldRegion from a row using the given column mapping.
// Returns the region, any error message, and any warning message.
func parseRow(row []string, mapping ColumnMapping, rowLabel string, regionCount int) (model.FieldRegion, string, string) {
	var vec model.Vector3D
	for i, dst := range []*float64{&vec.X, &vec.Y, &vec.Z} {
		v, msg := parseFloatCell(row, mapping.Vector[i], rowLabel, "v"+axes[i])
		if msg != "" {
			return model.FieldRegion{}, msg, ""
		}
		*dst = v
	}

	var prism model.Prism
	switch {
	case mapping.HasCorners():
		for i, col := range mapping.Corners {
			v, msg := parseFloatCell(row, col, rowLabel, CornerHeader(i))
			if msg != "" {
				return model.FieldRegion{}, msg, ""
			}
			p := &prism[i/12][(i/3)%4]
			switch i % 3 {
			case 0:
				p.X = v
			case 1:
				p.Y = v
			case 2:
				p.Z = v
			}
		}
	case mapping.HasBox():
		var b [6]float64
		names := [6]string{"min_x", "min_y", "min_z", "max_x", "max_y", "max_z"}
		for i, col := range mapping.Box {
			v, msg := parseFloatCell(row, col, rowLabel, names[i])
			if msg != "" {
				return model.FieldRegion{}, msg, ""
			}
			b[i] = v
		}
		prism = model.AxisAlignedPrism(
			model.Point3D{X: b[0], Y: b[1], Z: b[2]},
			model.Point3D{X: b[3], Y: b[4], Z: b[5]})
	default:
		return model.FieldRegion{}, fmt.Sprintf("%s: Missing prism columns", rowLabel), ""
	}

	var warning string
	magStr := getCell(row, mapping.Magnetization)
	mag, ok := parseMagnetization(magStr)
	if !ok {
		warning = fmt.Sprintf("%s: Unknown magnetization '%s', defaulting to none", rowLabel, magStr)
	}

	region := model.NewFieldRegion(prism, mag, vec)
	region.Label = getCell(row, mapping.Label)
	if region.Label == "" {
		region.Label = fmt.Sprintf("Region %d", regionCount+1)
	}
	if err := region.Validate(regionCount, model.RegionCheck{}); err != nil {
		return model.FieldRegion{}, fmt.Sprintf("%s: %v", rowLabel, err), ""
	}

	return region, "", warning
}

// isEmptyRow returns true if the row has no meaningful content.
func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// ImportCSV imports regions from a CSV file.
// It automatically detects the delimiter and maps columns by header names.
// Supports comma, semicolon, tab, and pipe delimiters.
func ImportCSV(path string) ImportResult {
	result := ImportResult{}

	data, err := os.ReadFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open file: %v", err))
		return result
	}

	if len(bytes.TrimSpace(data)) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	delimiter := DetectCSVDelimiter(data)
	if delimiter != ',' {
		delimName := map[rune]string{';': "semicolon", '\t': "tab", '|': "pipe"}[delimiter]
		result.Warnings = append(result.Warnings, fmt.Sprintf("Detected %s delimiter", delimName))
	}

	res := ImportCSVFromReader(bytes.NewReader(data), delimiter)
	res.Warnings = append(result.Warnings, res.Warnings...)
	return res
}

// ImportCSVFromReader imports regions from a CSV reader with a specific delimiter.
func ImportCSVFromReader(reader io.Reader, delimiter rune) ImportResult {
	result := ImportResult{}

	csvReader := csv.NewReader(reader)
	csvReader.Comma = delimiter
	csvReader.LazyQuotes = true
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read CSV: %v", err))
		return result
	}

	if len(records) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	return importFromRows(records, "Line")
}

// RegionSheet is the worksheet ImportExcel prefers when a workbook has several.
const RegionSheet = "Regions"

// ImportExcel imports regions from the sheet named RegionSheet, or from the
// first sheet when there is none.
func ImportExcel(path string) ImportResult {
	result := ImportResult{}

	f, err := excelize.OpenFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open Excel file: %v", err))
		return result
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		result.Errors = append(result.Errors, "Excel file has no sheets")
		return result
	}

	sheet := sheets[0]
	for _, name := range sheets {
		if strings.EqualFold(name, RegionSheet) {
			sheet = name
			break
		}
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read Excel data: %v", err))
		return result
	}

	if len(rows) == 0 {
		result.Errors = append(result.Errors, "Sheet is empty")
		return result
	}

	return importFromRows(rows, "Row")
}

// importFromRows is the shared import logic for both CSV and Excel data.
// Rows keep their order, which is the classification priority.
func importFromRows(rows [][]string, rowPrefix string) ImportResult {
	result := ImportResult{}

	mapping, hasHeader := DetectColumns(rows[0])
	startRow := 0
	if hasHeader {
		startRow = 1
		result.Warnings = append(result.Warnings, "Detected header row, skipping")

		missing := []string{}
		for i, c := range mapping.Vector {
			if c == -1 {
				missing = append(missing, "v"+axes[i])
			}
		}
		if !mapping.HasCorners() && !mapping.HasBox() {
			missing = append(missing, "corner or box columns")
		}
		if len(missing) > 0 {
			result.Errors = append(result.Errors, fmt.Sprintf("Required columns not found in header: %s", strings.Join(missing, ", ")))
			return result
		}
	} else if len(rows[0]) >= 3 {
		if _, err := strconv.ParseFloat(strings.TrimSpace(rows[0][2]), 64); err != nil {
			// Unrecognized header; keep positional mapping but skip it.
			startRow = 1
			result.Warnings = append(result.Warnings, "Detected header row, skipping")
		}
	}

	for i := startRow; i < len(rows); i++ {
		row := rows[i]
		if isEmptyRow(row) {
			continue
		}

		rowLabel := fmt.Sprintf("%s %d", rowPrefix, i+1)
		region, errMsg, warning := parseRow(row, mapping, rowLabel, len(result.Regions))
		if errMsg != "" {
			result.Errors = append(result.Errors, errMsg)
			continue
		}
		if warning != "" {
			result.Warnings = append(result.Warnings, warning)
		}

		result.Regions = append(result.Regions, region)
	}

	if len(result.Regions) == 0 && len(result.Errors) == 0 {
		result.Errors = append(result.Errors, "No data rows found")
	}
	return result
}
