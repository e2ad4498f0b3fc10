package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/piwi3910/MagSeed/internal/model"
)

// WriteTableJSON writes one row per vertex: index, point, vector and the
// index of the matching region (-1 for fallback).
func WriteTableJSON(w io.Writer, points []model.Point3D, table *model.InitialConditionTable) error {
	if table.Len() != len(points) {
		return fmt.Errorf("table has %d rows, mesh has %d vertices", table.Len(), len(points))
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(table.Rows(points)); err != nil {
		return fmt.Errorf("failed to encode table: %w", err)
	}
	return nil
}

// regionDoc is the region shape the solver job and the web client exchange.
type regionDoc struct {
	Points        model.Prism         `json:"points"`
	AABB          model.AABB          `json:"aabb"`
	Magnetization model.Magnetization `json:"magnetization"`
	Vector        model.Vector3D      `json:"vector"`
}

// WriteRegionsJSON writes regions in declared order without the local
// ID and label fields.
func WriteRegionsJSON(w io.Writer, regions []model.FieldRegion) error {
	docs := make([]regionDoc, len(regions))
	for i, r := range regions {
		docs[i] = regionDoc{Points: r.Points, AABB: r.AABB, Magnetization: r.Magnetization, Vector: r.Vector}
	}
	if err := json.NewEncoder(w).Encode(docs); err != nil {
		return fmt.Errorf("failed to encode regions: %w", err)
	}
	return nil
}
