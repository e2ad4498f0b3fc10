// Package project persists configuration, project files and run manifests.
package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/piwi3910/MagSeed/internal/model"
)

// ProjectExt is the file extension of project files.
const ProjectExt = ".magseed"

// SaveProject writes the project to the specified JSON file.
// It creates parent directories if they do not exist.
func SaveProject(path string, p model.Project) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadProject reads a project file. Settings missing from the file keep their
// defaults. Regions are validated with the project's own settings.
func LoadProject(path string) (model.Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Project{}, fmt.Errorf("failed to read project: %w", err)
	}
	p := model.NewProject()
	if err := json.Unmarshal(data, &p); err != nil {
		return model.Project{}, fmt.Errorf("failed to parse project: %w", err)
	}
	if p.Regions == nil {
		p.Regions = []model.FieldRegion{}
	}
	if err := model.ValidateRegions(p.Regions, p.Settings.RegionCheck()); err != nil {
		return model.Project{}, err
	}
	return p, nil
}

// MeshPath resolves the project's mesh file. Relative paths are taken
// relative to the directory holding the project file.
func MeshPath(projectPath string, p model.Project) string {
	if p.MeshFile == "" || filepath.IsAbs(p.MeshFile) {
		return p.MeshFile
	}
	return filepath.Join(filepath.Dir(projectPath), p.MeshFile)
}
