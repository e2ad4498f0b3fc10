package assign

import (
	"bytes"
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/MagSeed/internal/meshio"
	"github.com/piwi3910/MagSeed/internal/model"
)

func cubeRegion(min, max float64, vec model.Vector3D) model.FieldRegion {
	return model.NewFieldRegion(
		model.AxisAlignedPrism(model.Point3D{X: min, Y: min, Z: min}, model.Point3D{X: max, Y: max, Z: max}),
		model.MagnetizationPositive, vec)
}

func TestAssign_EndToEnd(t *testing.T) {
	input := "2\n0.5 0.5 0.5\n5 5 5\n0\n"
	mesh, err := meshio.Parse(strings.NewReader(input))
	require.NoError(t, err)

	regions := []model.FieldRegion{cubeRegion(0, 1, model.Vector3D{X: 1})}
	table, err := New(model.DefaultAssignSettings()).Assign(context.Background(), mesh, regions)
	require.NoError(t, err)

	require.Equal(t, 2, table.Len())
	assert.Equal(t, model.Vector3D{X: 1}, table.Vectors[0])
	assert.Equal(t, 0, table.Regions[0])
	assert.Equal(t, model.DefaultFallbackVector, table.Vectors[1])
	assert.Equal(t, model.FallbackRegion, table.Regions[1])
}

func TestAssign_FirstMatchWins(t *testing.T) {
	mesh := &model.Mesh{Points: []model.Point3D{{X: 0.5, Y: 0.5, Z: 0.5}}}
	small := cubeRegion(0, 1, model.Vector3D{X: 1})
	large := cubeRegion(0, 2, model.Vector3D{Y: 1})

	table, err := New(model.DefaultAssignSettings()).Assign(context.Background(), mesh, []model.FieldRegion{large, small})
	require.NoError(t, err)
	assert.Equal(t, model.Vector3D{Y: 1}, table.Vectors[0])
}

func TestAssign_EmptyRegionsFallBack(t *testing.T) {
	mesh := &model.Mesh{Points: make([]model.Point3D, 10)}
	table, err := New(model.DefaultAssignSettings()).Assign(context.Background(), mesh, nil)
	require.NoError(t, err)
	for i, v := range table.Vectors {
		assert.False(t, v.IsZero(), "vertex %d", i)
		assert.Equal(t, model.FallbackRegion, table.Regions[i])
	}
}

func TestAssign_InvalidRegion(t *testing.T) {
	mesh := &model.Mesh{Points: make([]model.Point3D, 1)}
	bad := cubeRegion(0, 1, model.Vector3D{})

	_, err := New(model.DefaultAssignSettings()).Assign(context.Background(), mesh,
		[]model.FieldRegion{cubeRegion(0, 1, model.Vector3D{X: 1}), bad})
	var regionErr *model.InvalidFieldRegionError
	require.ErrorAs(t, err, &regionErr)
	assert.Equal(t, 1, regionErr.Index)
}

func TestAssign_UnknownFallbackMode(t *testing.T) {
	s := model.DefaultAssignSettings()
	s.Fallback.Mode = "sideways"
	_, err := New(s).Assign(context.Background(), &model.Mesh{}, nil)
	assert.Error(t, err)
}

func randomMesh(rng *rand.Rand, n int) *model.Mesh {
	m := &model.Mesh{Points: make([]model.Point3D, n)}
	for i := range m.Points {
		m.Points[i] = model.Point3D{X: rng.Float64() * 10, Y: rng.Float64() * 10, Z: rng.Float64() * 10}
	}
	return m
}

func randomRegions(rng *rand.Rand, n int) []model.FieldRegion {
	regions := make([]model.FieldRegion, n)
	for i := range regions {
		lo := model.Point3D{X: rng.Float64() * 8, Y: rng.Float64() * 8, Z: rng.Float64() * 8}
		hi := model.Point3D{X: lo.X + 0.5 + rng.Float64()*2, Y: lo.Y + 0.5 + rng.Float64()*2, Z: lo.Z + 0.5 + rng.Float64()*2}
		regions[i] = model.NewFieldRegion(model.AxisAlignedPrism(lo, hi), model.MagnetizationNegative,
			model.Vector3D{X: float64(i), Y: 1})
	}
	return regions
}

func TestAssign_ParallelMatchesSequential(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	mesh := randomMesh(rng, 5000)
	regions := randomRegions(rng, 60)

	seqSettings := model.DefaultAssignSettings()
	seqSettings.Workers = 1
	seqSettings.IndexThreshold = 0
	seqSettings.Fallback = model.FallbackSettings{Mode: model.FallbackSeeded, Seed: 42}
	seq := New(seqSettings)

	parSettings := seqSettings
	parSettings.Workers = 8
	parSettings.IndexThreshold = 16
	par := New(parSettings)
	par.chunkSize = 97

	want, err := seq.Assign(context.Background(), mesh, regions)
	require.NoError(t, err)
	got, err := par.Assign(context.Background(), mesh, regions)
	require.NoError(t, err)

	assert.Equal(t, want, got)
	s := got.Summary(len(regions))
	assert.Positive(t, s.Matched)
	assert.Positive(t, s.Fallbacks)
}

func TestAssign_DoesNotMutateInputs(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	mesh := randomMesh(rng, 200)
	regions := randomRegions(rng, 5)

	meshCopy := &model.Mesh{Points: append([]model.Point3D(nil), mesh.Points...)}
	regionsCopy := append([]model.FieldRegion(nil), regions...)

	_, err := New(model.DefaultAssignSettings()).Assign(context.Background(), mesh, regions)
	require.NoError(t, err)
	assert.Equal(t, meshCopy.Points, mesh.Points)
	assert.Equal(t, regionsCopy, regions)
}

func TestAssign_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	mesh := randomMesh(rand.New(rand.NewPCG(1, 1)), 100)
	_, err := New(model.DefaultAssignSettings()).Assign(ctx, mesh, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestAssign_LogsSummary(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)

	mesh := &model.Mesh{Points: []model.Point3D{{X: 0.5, Y: 0.5, Z: 0.5}, {X: 9, Y: 9, Z: 9}}}
	_, err := New(model.DefaultAssignSettings(), WithLogger(logger)).
		Assign(context.Background(), mesh, []model.FieldRegion{cubeRegion(0, 1, model.Vector3D{X: 1})})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `"fallbacks":1`)
	assert.Contains(t, out, `"vertex":1`)
	assert.Contains(t, out, "initial magnetization assigned")
}

func TestSeededFallback(t *testing.T) {
	f := SeededFallback{Seed: 99}
	for i := 0; i < 1000; i++ {
		v := f.Vector(i, model.Point3D{})
		assert.InDelta(t, 1.0, v.Norm(), 1e-9)
		assert.Equal(t, v, f.Vector(i, model.Point3D{X: 5}), "depends only on seed and index")
	}
	assert.NotEqual(t, f.Vector(0, model.Point3D{}), f.Vector(1, model.Point3D{}))
	assert.NotEqual(t, f.Vector(0, model.Point3D{}), SeededFallback{Seed: 100}.Vector(0, model.Point3D{}))
}

func TestConstantFallbackNeverZero(t *testing.T) {
	assert.Equal(t, model.DefaultFallbackVector, ConstantFallback{}.Vector(0, model.Point3D{}))
	assert.Equal(t, model.DefaultFallbackVector, ConstantFallback{V: model.Vector3D{X: math.NaN()}}.Vector(0, model.Point3D{}))
	assert.Equal(t, model.Vector3D{Y: 2}, ConstantFallback{V: model.Vector3D{Y: 2}}.Vector(3, model.Point3D{}))
}

func TestWithFallbackOverridesSettings(t *testing.T) {
	mesh := &model.Mesh{Points: make([]model.Point3D, 3)}
	custom := ConstantFallback{V: model.Vector3D{X: -1}}
	table, err := New(model.DefaultAssignSettings(), WithFallback(custom)).Assign(context.Background(), mesh, nil)
	require.NoError(t, err)
	assert.Equal(t, model.Vector3D{X: -1}, table.Vectors[2])
}
