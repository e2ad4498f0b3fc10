package model

// Project ties a mesh file, its field regions and the assignment settings
// together for save/load.
type Project struct {
	Name     string         `json:"name" yaml:"name"`
	MeshFile string         `json:"mesh_file" yaml:"mesh_file"` // Relative paths resolve against the project file
	Regions  []FieldRegion  `json:"regions" yaml:"regions"`
	Settings AssignSettings `json:"settings" yaml:"settings"`
}

func NewProject() Project {
	return Project{
		Name:     "Untitled",
		Regions:  []FieldRegion{},
		Settings: DefaultAssignSettings(),
	}
}
