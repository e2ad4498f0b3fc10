package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/piwi3910/MagSeed/internal/model"
)

// ManifestVersion is written into every run manifest.
const ManifestVersion = "1.0.0"

// ManifestName is the file name of the manifest inside an output directory.
const ManifestName = "manifest.json"

// Manifest records what produced the files of one run.
type Manifest struct {
	Version   string                  `json:"version"`
	CreatedAt string                  `json:"created_at"`
	RunID     string                  `json:"run_id"`
	MeshFile  string                  `json:"mesh_file,omitempty"`
	Regions   int                     `json:"regions"`
	Settings  model.AssignSettings    `json:"settings"`
	Summary   model.AssignmentSummary `json:"summary"`
	Outputs   []string                `json:"outputs,omitempty"` // File names relative to the manifest
}

// NewManifest starts a manifest for a run with a fresh run ID.
func NewManifest(meshFile string, regions int, settings model.AssignSettings, summary model.AssignmentSummary) Manifest {
	return Manifest{
		Version:   ManifestVersion,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		RunID:     uuid.New().String()[:8],
		MeshFile:  meshFile,
		Regions:   regions,
		Settings:  settings,
		Summary:   summary,
	}
}

// WriteManifest writes m as ManifestName into dir and returns the file path.
func WriteManifest(dir string, m Manifest) (string, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal manifest: %w", err)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(dir, ManifestName)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write manifest: %w", err)
	}
	return path, nil
}

// ReadManifest reads a manifest file.
func ReadManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("failed to read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("failed to parse manifest: %w", err)
	}
	if m.Version == "" {
		return Manifest{}, fmt.Errorf("invalid manifest: missing version field")
	}
	return m, nil
}
