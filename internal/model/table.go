package model

// FallbackRegion is the region index recorded for vertices that matched no region.
const FallbackRegion = -1

// InitialConditionTable holds the initial magnetization of every mesh vertex.
// Vectors[i] and Regions[i] belong to mesh vertex i.
type InitialConditionTable struct {
	Vectors []Vector3D `json:"vectors"`
	Regions []int      `json:"regions"` // Index of the matching region, or FallbackRegion
}

// NewInitialConditionTable allocates a table for n vertices.
func NewInitialConditionTable(n int) *InitialConditionTable {
	return &InitialConditionTable{
		Vectors: make([]Vector3D, n),
		Regions: make([]int, n),
	}
}

// Len returns the number of vertices in the table.
func (t *InitialConditionTable) Len() int {
	return len(t.Vectors)
}

// InitialCondition is one serialized table row.
type InitialCondition struct {
	Index  int      `json:"index"`
	Point  Point3D  `json:"point"`
	Vector Vector3D `json:"vector"`
	Region int      `json:"region"`
}

// Rows pairs the table with the mesh vertices it was built from.
func (t *InitialConditionTable) Rows(points []Point3D) []InitialCondition {
	rows := make([]InitialCondition, len(t.Vectors))
	for i := range t.Vectors {
		rows[i] = InitialCondition{Index: i, Vector: t.Vectors[i], Region: t.Regions[i]}
		if i < len(points) {
			rows[i].Point = points[i]
		}
	}
	return rows
}

// AssignmentSummary counts how many vertices each region received.
type AssignmentSummary struct {
	Vertices  int   `json:"vertices"`
	Matched   int   `json:"matched"`
	Fallbacks int   `json:"fallbacks"`
	PerRegion []int `json:"per_region"`
}

// Summary counts vertices per region for a list of regionCount regions.
func (t *InitialConditionTable) Summary(regionCount int) AssignmentSummary {
	s := AssignmentSummary{
		Vertices:  t.Len(),
		PerRegion: make([]int, regionCount),
	}
	for _, r := range t.Regions {
		if r == FallbackRegion || r >= regionCount {
			s.Fallbacks++
			continue
		}
		s.Matched++
		s.PerRegion[r]++
	}
	return s
}

// FallbackRatio returns the share of vertices that matched no region.
func (s AssignmentSummary) FallbackRatio() float64 {
	if s.Vertices == 0 {
		return 0
	}
	return float64(s.Fallbacks) / float64(s.Vertices)
}
