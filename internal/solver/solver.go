// Package solver prepares work directories for the external micromagnetic
// solver and defines the boundary it is driven through.
package solver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/piwi3910/MagSeed/internal/export"
	"github.com/piwi3910/MagSeed/internal/importer"
	"github.com/piwi3910/MagSeed/internal/meshio"
	"github.com/piwi3910/MagSeed/internal/model"
)

// File names inside a staged work directory. The solver script expects the
// first two verbatim.
const (
	MeshFile       = "generated.nmesh"
	FieldsFile     = "magnetization_fields.json"
	ConditionsFile = "initial_magnetization.json"
	DataFile       = "nsim_dat.ndt"
)

// Job is a staged work directory.
type Job struct {
	Dir            string
	MeshPath       string
	FieldsPath     string
	ConditionsPath string
}

// Artifact is what a solver run leaves behind.
type Artifact struct {
	Path   string // Data file produced by the solver
	Output []byte // Combined stdout/stderr of the run
}

// Runner executes a staged job.
type Runner interface {
	Run(ctx context.Context, job Job) (Artifact, error)
}

// Stage writes the mesh, the region list and the per-vertex table into dir.
// table may be nil when the solver computes its own initial state.
func Stage(dir string, mesh *model.Mesh, regions []model.FieldRegion, table *model.InitialConditionTable) (Job, error) {
	if mesh == nil {
		return Job{}, errors.New("stage: nil mesh")
	}
	if err := mesh.CheckIndices(); err != nil {
		return Job{}, fmt.Errorf("stage: %w", err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return Job{}, fmt.Errorf("failed to create work directory: %w", err)
	}

	job := Job{
		Dir:        dir,
		MeshPath:   filepath.Join(dir, MeshFile),
		FieldsPath: filepath.Join(dir, FieldsFile),
	}

	var buf bytes.Buffer
	if err := meshio.WriteNeutral(&buf, mesh); err != nil {
		return Job{}, err
	}
	if err := os.WriteFile(job.MeshPath, buf.Bytes(), 0644); err != nil {
		return Job{}, fmt.Errorf("failed to write %s: %w", MeshFile, err)
	}

	buf.Reset()
	if err := export.WriteRegionsJSON(&buf, regions); err != nil {
		return Job{}, err
	}
	if err := os.WriteFile(job.FieldsPath, buf.Bytes(), 0644); err != nil {
		return Job{}, fmt.Errorf("failed to write %s: %w", FieldsFile, err)
	}

	if table != nil {
		buf.Reset()
		if err := export.WriteTableJSON(&buf, mesh.Points, table); err != nil {
			return Job{}, err
		}
		job.ConditionsPath = filepath.Join(dir, ConditionsFile)
		if err := os.WriteFile(job.ConditionsPath, buf.Bytes(), 0644); err != nil {
			return Job{}, fmt.Errorf("failed to write %s: %w", ConditionsFile, err)
		}
	}
	return job, nil
}

// CommandRunner runs a local command inside the job directory, e.g. a
// container launcher. The command must leave DataFile behind.
type CommandRunner struct {
	Name string
	Args []string
}

func (r CommandRunner) Run(ctx context.Context, job Job) (Artifact, error) {
	cmd := exec.CommandContext(ctx, r.Name, r.Args...)
	cmd.Dir = job.Dir

	output, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() != nil {
			return Artifact{Output: output}, fmt.Errorf("solver cancelled: %w", ctx.Err())
		}
		return Artifact{Output: output}, fmt.Errorf("solver failed: %w\n%s", err, output)
	}

	path := filepath.Join(job.Dir, DataFile)
	if _, err := os.Stat(path); err != nil {
		return Artifact{Output: output}, fmt.Errorf("solver produced no %s: %w", DataFile, err)
	}
	return Artifact{Path: path, Output: output}, nil
}

// Request is the form a front-end submits alongside the uploaded mesh file.
type Request struct {
	MagnetizationFields json.RawMessage `json:"magnetizationFields"`
}

// Regions decodes and validates the submitted region list.
func (r Request) Regions(check model.RegionCheck) ([]model.FieldRegion, error) {
	if len(r.MagnetizationFields) == 0 {
		return nil, errors.New("request has no magnetizationFields")
	}
	return importer.DecodeRegionsJSON(bytes.NewReader(r.MagnetizationFields), check)
}

// Response carries an error back to the front-end. Successful runs return
// the data file instead.
type Response struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// ErrorResponse maps err onto the front-end error shape.
func ErrorResponse(err error) Response {
	var rerr *model.InvalidFieldRegionError
	if errors.As(err, &rerr) {
		return Response{Error: "Failed to validate magnetization_fields json", Details: rerr.Error()}
	}
	var merr *model.MalformedMeshError
	if errors.As(err, &merr) {
		return Response{Error: "Failed to read mesh file", Details: merr.Error()}
	}
	return Response{Error: err.Error()}
}
