package solver

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/MagSeed/internal/meshio"
	"github.com/piwi3910/MagSeed/internal/model"
)

func stageInputs() (*model.Mesh, []model.FieldRegion, *model.InitialConditionTable) {
	mesh := &model.Mesh{
		Points: []model.Point3D{
			{X: 0, Y: 0, Z: 0},
			{X: 1, Y: 0, Z: 0},
			{X: 0, Y: 1, Z: 0},
			{X: 0, Y: 0, Z: 1},
		},
		Tetrahedra: []model.Tetrahedron{{Tag: 1, V: [4]int{0, 1, 2, 3}}},
	}
	mesh.MarkExterior()
	regions := []model.FieldRegion{
		model.NewFieldRegion(model.AxisAlignedPrism(model.Point3D{}, model.Point3D{X: 1, Y: 1, Z: 1}),
			model.MagnetizationPositive, model.Vector3D{X: 1}),
	}
	table := model.NewInitialConditionTable(4)
	for i := range table.Vectors {
		table.Vectors[i] = model.Vector3D{X: 1}
		table.Regions[i] = 0
	}
	return mesh, regions, table
}

func TestStage(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "job")
	mesh, regions, table := stageInputs()

	job, err := Stage(dir, mesh, regions, table)
	require.NoError(t, err)
	assert.Equal(t, dir, job.Dir)

	back, err := meshio.ParseFile(job.MeshPath)
	require.NoError(t, err)
	assert.Equal(t, mesh.Tetrahedra, back.Tetrahedra)
	assert.Len(t, back.Points, 4)

	raw, err := os.ReadFile(job.FieldsPath)
	require.NoError(t, err)
	req := Request{MagnetizationFields: raw}
	decoded, err := req.Regions(model.RegionCheck{})
	require.NoError(t, err)
	require.Len(t, decoded, 1)
	assert.Equal(t, regions[0].Points, decoded[0].Points)

	raw, err = os.ReadFile(job.ConditionsPath)
	require.NoError(t, err)
	var rows []model.InitialCondition
	require.NoError(t, json.Unmarshal(raw, &rows))
	assert.Len(t, rows, 4)
}

func TestStage_WithoutTable(t *testing.T) {
	mesh, regions, _ := stageInputs()
	job, err := Stage(t.TempDir(), mesh, regions, nil)
	require.NoError(t, err)
	assert.Empty(t, job.ConditionsPath)
	_, err = os.Stat(filepath.Join(job.Dir, ConditionsFile))
	assert.True(t, os.IsNotExist(err))
}

func TestStage_Errors(t *testing.T) {
	_, regions, table := stageInputs()
	_, err := Stage(t.TempDir(), nil, regions, table)
	assert.Error(t, err)

	mesh, _, _ := stageInputs()
	_, err = Stage(t.TempDir(), mesh, regions, model.NewInitialConditionTable(2))
	assert.Error(t, err)
}

func TestStage_RejectsDanglingIndex(t *testing.T) {
	mesh, regions, table := stageInputs()
	mesh.Tetrahedra[0].V[3] = 9
	dir := t.TempDir()

	_, err := Stage(dir, mesh, regions, table)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "vertex 9")
	_, err = os.Stat(filepath.Join(dir, MeshFile))
	assert.True(t, os.IsNotExist(err))
}

func TestCommandRunner(t *testing.T) {
	mesh, regions, _ := stageInputs()
	job, err := Stage(t.TempDir(), mesh, regions, nil)
	require.NoError(t, err)

	r := CommandRunner{Name: "sh", Args: []string{"-c", "test -f " + MeshFile + " && echo ok && printf 'data' > " + DataFile}}
	art, err := r.Run(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(job.Dir, DataFile), art.Path)
	assert.Contains(t, string(art.Output), "ok")
}

func TestCommandRunner_Failures(t *testing.T) {
	job := Job{Dir: t.TempDir()}

	_, err := CommandRunner{Name: "sh", Args: []string{"-c", "echo boom; exit 3"}}.Run(context.Background(), job)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")

	_, err = CommandRunner{Name: "sh", Args: []string{"-c", "true"}}.Run(context.Background(), job)
	require.Error(t, err)
	assert.Contains(t, err.Error(), DataFile)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = CommandRunner{Name: "sh", Args: []string{"-c", "sleep 5"}}.Run(ctx, job)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestRequestRegions_Errors(t *testing.T) {
	_, err := Request{}.Regions(model.RegionCheck{})
	assert.Error(t, err)

	bad := `[{"points":[[{"x":0,"y":0,"z":0},{"x":0,"y":0,"z":1},{"x":0,"y":1,"z":1},{"x":0,"y":1,"z":0}],` +
		`[{"x":1,"y":0,"z":0},{"x":1,"y":0,"z":1},{"x":1,"y":1,"z":1},{"x":1,"y":1,"z":0}]],` +
		`"magnetization":"sideways","vector":{"x":1,"y":0,"z":0}}]`
	_, err = Request{MagnetizationFields: json.RawMessage(bad)}.Regions(model.RegionCheck{})
	require.Error(t, err)

	resp := ErrorResponse(err)
	assert.Equal(t, "Failed to validate magnetization_fields json", resp.Error)
	assert.Contains(t, resp.Details, "magnetization")
}

func TestErrorResponse(t *testing.T) {
	resp := ErrorResponse(&model.MalformedMeshError{Line: 3, Reason: "expected 3 coordinates"})
	assert.Equal(t, "Failed to read mesh file", resp.Error)
	assert.Contains(t, resp.Details, "line 3")

	resp = ErrorResponse(errors.New("disk full"))
	assert.Equal(t, Response{Error: "disk full"}, resp)
}
