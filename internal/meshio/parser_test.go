package meshio

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/MagSeed/internal/model"
)

const singleTetra = `4
0 0 0
1 0 0
0 1 0
0 0 1
1
1 1 2 3 4
`

func TestParse_SingleTetrahedron(t *testing.T) {
	mesh, err := Parse(strings.NewReader(singleTetra))
	require.NoError(t, err)

	require.Len(t, mesh.Points, 4)
	require.Len(t, mesh.Tetrahedra, 1)
	assert.Equal(t, [4]int{0, 1, 2, 3}, mesh.Tetrahedra[0].V)
	assert.Equal(t, 1, mesh.Tetrahedra[0].Tag)

	c := mesh.Corners(0)
	assert.Equal(t, 1.0, c[1].X)
	assert.Equal(t, 1.0, c[2].Y)
	assert.Equal(t, 1.0, c[3].Z)
	// Every vertex of a lone tetrahedron is on the surface.
	assert.Equal(t, 4, mesh.ExteriorCount())
}

func TestParse_Empty(t *testing.T) {
	mesh, err := Parse(strings.NewReader("0\n0\n"))
	require.NoError(t, err)
	assert.Empty(t, mesh.Points)
	assert.Empty(t, mesh.Tetrahedra)
}

func TestParse_BlankLinesAndTrailingSection(t *testing.T) {
	input := "\n4\n0 0 0\n\n1 0 0\n0 1 0\n0 0 1\n1\n\n7 4 3 2 1\n2\n1 1 2 3\n1 2 3 4\n"
	mesh, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	assert.Len(t, mesh.Points, 4)
	require.Len(t, mesh.Tetrahedra, 1)
	assert.Equal(t, [4]int{3, 2, 1, 0}, mesh.Tetrahedra[0].V)
	assert.Equal(t, 7, mesh.Tetrahedra[0].Tag)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		line  int
	}{
		{"empty input", "", 1},
		{"non-numeric count", "four\n", 1},
		{"negative count", "-1\n", 1},
		{"header with extra field", "4 4\n", 1},
		{"ragged vertex", "2\n0 0 0\n1 0\n", 3},
		{"extra coordinate", "1\n0 0 0 0\n", 2},
		{"non-numeric coordinate", "1\n0 x 0\n", 2},
		{"non-finite coordinate", "1\n0 NaN 0\n", 2},
		{"missing vertices", "3\n0 0 0\n", 3},
		{"missing tetrahedron count", singleTetra[:strings.Index(singleTetra, "1\n1 1")], 6},
		{"index out of range", strings.Replace(singleTetra, "1 1 2 3 4", "1 1 2 3 5", 1), 7},
		{"index zero", strings.Replace(singleTetra, "1 1 2 3 4", "1 0 2 3 4", 1), 7},
		{"ragged tetrahedron", strings.Replace(singleTetra, "1 1 2 3 4", "1 1 2 3", 1), 7},
		{"non-numeric index", strings.Replace(singleTetra, "1 1 2 3 4", "1 1 2 c 4", 1), 7},
		{"missing tetrahedra", strings.Replace(singleTetra, "\n1\n1 1 2 3 4", "\n2\n1 1 2 3 4", 1), 8},
		{"huge vertex count", "9223372036854775807\n0 0 0\n", 3},
		{"huge tetrahedron count", "1\n0 0 0\n9223372036854775807\n1 1 1 1 1\n", 5},
		{"large vertex count, short file", "2000000000\n0 0 0\n1 0 0\n0 1 0\n0 0 1\n", 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.input))
			require.Error(t, err)

			var malformed *model.MalformedMeshError
			require.ErrorAs(t, err, &malformed)
			assert.Equal(t, tt.line, malformed.Line, err.Error())
		})
	}
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cube.mesh")
	require.NoError(t, os.WriteFile(path, []byte(singleTetra), 0644))

	mesh, err := ParseFile(path)
	require.NoError(t, err)
	assert.Len(t, mesh.Tetrahedra, 1)

	_, err = ParseFile(filepath.Join(dir, "missing.mesh"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.mesh")
	require.NoError(t, os.WriteFile(bad, []byte("1\n0 0\n"), 0644))
	_, err = ParseFile(bad)
	var malformed *model.MalformedMeshError
	require.ErrorAs(t, err, &malformed)
	assert.Contains(t, err.Error(), "bad.mesh")
}

func TestWriteNeutral_RoundTrip(t *testing.T) {
	mesh, err := Parse(strings.NewReader(singleTetra))
	require.NoError(t, err)
	mesh.Points[1].X = 0.125

	var buf bytes.Buffer
	require.NoError(t, WriteNeutral(&buf, mesh))

	again, err := Parse(&buf)
	require.NoError(t, err)
	assert.Equal(t, mesh, again)
}

func TestWriteJSON(t *testing.T) {
	mesh, err := Parse(strings.NewReader(singleTetra))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, mesh))

	var tets [][]map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &tets))
	require.Len(t, tets, 1)
	require.Len(t, tets[0], 4)
	assert.Equal(t, 1.0, tets[0][1]["x"])
	assert.Equal(t, true, tets[0][0]["exterior"])
}

func TestJSONPath(t *testing.T) {
	assert.Equal(t, "cube.json", JSONPath("cube.mesh"))
	assert.Equal(t, "a.mesh.b.json", JSONPath("a.mesh.b.mesh"))
	assert.Equal(t, "cube.vol.json", JSONPath("cube.vol"))
}
