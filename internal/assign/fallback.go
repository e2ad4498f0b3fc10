package assign

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/piwi3910/MagSeed/internal/model"
)

// Fallback supplies the initial vector for a vertex no region contains.
// Implementations must never return the zero vector and must depend only on
// their inputs, so parallel and sequential runs agree.
type Fallback interface {
	Vector(index int, p model.Point3D) model.Vector3D
}

// ConstantFallback returns the same vector for every vertex.
type ConstantFallback struct {
	V model.Vector3D
}

func (f ConstantFallback) Vector(int, model.Point3D) model.Vector3D {
	if f.V.IsZero() || !f.V.Finite() {
		return model.DefaultFallbackVector
	}
	return f.V
}

// SeededFallback returns a unit vector uniformly distributed on the sphere.
// The generator for each vertex is seeded from (Seed, index), so a vertex
// always gets the same direction regardless of scheduling.
type SeededFallback struct {
	Seed uint64
}

func (f SeededFallback) Vector(index int, _ model.Point3D) model.Vector3D {
	rng := rand.New(rand.NewPCG(f.Seed, uint64(index)))
	z := 2*rng.Float64() - 1
	phi := 2 * math.Pi * rng.Float64()
	r := math.Sqrt(1 - z*z)
	return model.Vector3D{X: r * math.Cos(phi), Y: r * math.Sin(phi), Z: z}
}

// NewFallback builds the fallback policy described by settings.
func NewFallback(s model.FallbackSettings) (Fallback, error) {
	switch s.Mode {
	case model.FallbackConstant, "":
		return ConstantFallback{V: s.Vector}, nil
	case model.FallbackSeeded:
		return SeededFallback{Seed: s.Seed}, nil
	default:
		return nil, fmt.Errorf("unknown fallback mode %q", s.Mode)
	}
}
