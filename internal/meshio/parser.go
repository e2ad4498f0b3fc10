// Package meshio reads and writes tetrahedral meshes in the Netgen neutral
// text format.
package meshio

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/piwi3910/MagSeed/internal/model"
)

// maxLineBytes bounds a single input line.
const maxLineBytes = 1 << 20

// lineReader yields non-blank lines split into fields, tracking the physical
// line number of the last line returned.
type lineReader struct {
	sc   *bufio.Scanner
	line int
}

func newLineReader(r io.Reader) *lineReader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	return &lineReader{sc: sc}
}

// next returns the fields of the next non-blank line. what names the expected
// content for the end-of-input error.
func (lr *lineReader) next(what string) ([]string, error) {
	for lr.sc.Scan() {
		lr.line++
		fields := strings.Fields(lr.sc.Text())
		if len(fields) > 0 {
			return fields, nil
		}
	}
	if err := lr.sc.Err(); err != nil {
		return nil, &model.MalformedMeshError{Line: lr.line + 1, Reason: "read failed", Err: err}
	}
	return nil, lr.errorf(lr.line+1, "unexpected end of input, expected %s", what)
}

func (lr *lineReader) errorf(line int, format string, args ...any) error {
	return &model.MalformedMeshError{Line: line, Reason: fmt.Sprintf(format, args...)}
}

// count parses a section header holding a single non-negative integer.
func (lr *lineReader) count(what string) (int, error) {
	fields, err := lr.next(what)
	if err != nil {
		return 0, err
	}
	if len(fields) != 1 {
		return 0, lr.errorf(lr.line, "%s: expected 1 field, got %d", what, len(fields))
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, &model.MalformedMeshError{Line: lr.line, Reason: what + ": not an integer", Err: err}
	}
	if n < 0 {
		return 0, lr.errorf(lr.line, "%s: negative count %d", what, n)
	}
	return n, nil
}

// maxPrealloc caps how many entries a header count reserves up front. Counts
// are only trusted once the lines behind them have been read.
const maxPrealloc = 1 << 16

// Parse reads a mesh: a vertex count N, N lines of "x y z", a tetrahedron
// count M and M lines of "tag i1 i2 i3 i4" with 1-based vertex indices.
// Anything after the tetrahedron block, such as a surface element section, is
// ignored. Vertex exterior flags are computed from unshared faces.
func Parse(r io.Reader) (*model.Mesh, error) {
	lr := newLineReader(r)

	n, err := lr.count("vertex count")
	if err != nil {
		return nil, err
	}
	mesh := &model.Mesh{Points: make([]model.Point3D, 0, min(n, maxPrealloc))}
	for i := 0; i < n; i++ {
		fields, err := lr.next(fmt.Sprintf("vertex %d of %d", i+1, n))
		if err != nil {
			return nil, err
		}
		if len(fields) != 3 {
			return nil, lr.errorf(lr.line, "vertex %d: expected 3 coordinates, got %d", i+1, len(fields))
		}
		var xyz [3]float64
		for j, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, &model.MalformedMeshError{Line: lr.line, Reason: fmt.Sprintf("vertex %d: bad coordinate %q", i+1, f), Err: err}
			}
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, lr.errorf(lr.line, "vertex %d: coordinate %q is not finite", i+1, f)
			}
			xyz[j] = v
		}
		mesh.Points = append(mesh.Points, model.Point3D{X: xyz[0], Y: xyz[1], Z: xyz[2]})
	}

	m, err := lr.count("tetrahedron count")
	if err != nil {
		return nil, err
	}
	mesh.Tetrahedra = make([]model.Tetrahedron, 0, min(m, maxPrealloc))
	for i := 0; i < m; i++ {
		fields, err := lr.next(fmt.Sprintf("tetrahedron %d of %d", i+1, m))
		if err != nil {
			return nil, err
		}
		if len(fields) != 5 {
			return nil, lr.errorf(lr.line, "tetrahedron %d: expected tag and 4 vertex indices, got %d fields", i+1, len(fields))
		}
		tag, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, &model.MalformedMeshError{Line: lr.line, Reason: fmt.Sprintf("tetrahedron %d: bad tag %q", i+1, fields[0]), Err: err}
		}
		t := model.Tetrahedron{Tag: tag}
		for j, f := range fields[1:] {
			idx, err := strconv.Atoi(f)
			if err != nil {
				return nil, &model.MalformedMeshError{Line: lr.line, Reason: fmt.Sprintf("tetrahedron %d: bad vertex index %q", i+1, f), Err: err}
			}
			if idx < 1 || idx > n {
				return nil, lr.errorf(lr.line, "tetrahedron %d: vertex index %d out of range [1, %d]", i+1, idx, n)
			}
			t.V[j] = idx - 1
		}
		mesh.Tetrahedra = append(mesh.Tetrahedra, t)
	}

	mesh.MarkExterior()
	return mesh, nil
}

// ParseFile opens and parses the mesh at path.
func ParseFile(path string) (*model.Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open mesh: %w", err)
	}
	defer f.Close()

	mesh, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return mesh, nil
}

// WriteNeutral writes mesh in the format Parse reads. Vertex indices are
// written 1-based and the surface element section is left empty.
func WriteNeutral(w io.Writer, mesh *model.Mesh) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%d\n", len(mesh.Points))
	for _, p := range mesh.Points {
		fmt.Fprintf(bw, "%s %s %s\n", formatFloat(p.X), formatFloat(p.Y), formatFloat(p.Z))
	}
	fmt.Fprintf(bw, "%d\n", len(mesh.Tetrahedra))
	for _, t := range mesh.Tetrahedra {
		fmt.Fprintf(bw, "%d %d %d %d %d\n", t.Tag, t.V[0]+1, t.V[1]+1, t.V[2]+1, t.V[3]+1)
	}
	fmt.Fprintln(bw, 0)
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write mesh: %w", err)
	}
	return nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
