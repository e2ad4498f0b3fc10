// Package assign builds the per-vertex initial magnetization table.
package assign

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/piwi3910/MagSeed/internal/field"
	"github.com/piwi3910/MagSeed/internal/model"
)

// defaultChunkSize is the number of vertices classified per task.
const defaultChunkSize = 4096

// Assigner classifies mesh vertices against field regions.
type Assigner struct {
	Settings model.AssignSettings

	log       zerolog.Logger
	fallback  Fallback
	chunkSize int
}

// Option configures an Assigner.
type Option func(*Assigner)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(a *Assigner) { a.log = l }
}

// WithFallback overrides the fallback policy derived from the settings.
func WithFallback(f Fallback) Option {
	return func(a *Assigner) { a.fallback = f }
}

func New(settings model.AssignSettings, opts ...Option) *Assigner {
	a := &Assigner{
		Settings:  settings,
		log:       zerolog.Nop(),
		chunkSize: defaultChunkSize,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Assign returns the initial magnetization of every vertex in mesh. Vertex i
// gets the vector of the first region in declared order that contains it, or
// the fallback vector when none does. Regions are validated first; an empty
// region list is valid and sends every vertex to the fallback.
//
// Neither mesh nor regions are modified.
func (a *Assigner) Assign(ctx context.Context, mesh *model.Mesh, regions []model.FieldRegion) (*model.InitialConditionTable, error) {
	if err := model.ValidateRegions(regions, a.Settings.RegionCheck()); err != nil {
		return nil, err
	}
	fallback := a.fallback
	if fallback == nil {
		var err error
		if fallback, err = NewFallback(a.Settings.Fallback); err != nil {
			return nil, err
		}
	}

	start := time.Now()
	classifier := field.NewClassifier(regions, a.Settings.IndexThreshold)
	points := mesh.Points
	table := model.NewInitialConditionTable(len(points))

	workers := a.Settings.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	chunk := a.chunkSize
	if chunk <= 0 {
		chunk = defaultChunkSize
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for lo := 0; lo < len(points); lo += chunk {
		if gctx.Err() != nil {
			break
		}
		hi := min(lo+chunk, len(points))
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			a.assignRange(classifier, fallback, points, table, lo, hi)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("assignment cancelled: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("assignment cancelled: %w", err)
	}

	s := table.Summary(len(regions))
	a.log.Info().
		Int("vertices", s.Vertices).
		Int("regions", len(regions)).
		Int("matched", s.Matched).
		Int("fallbacks", s.Fallbacks).
		Bool("indexed", classifier.Indexed()).
		Dur("elapsed", time.Since(start)).
		Msg("initial magnetization assigned")
	return table, nil
}

// assignRange fills table rows [lo, hi). Ranges never overlap, so tasks do
// not share writes.
func (a *Assigner) assignRange(c *field.Classifier, fb Fallback, points []model.Point3D, table *model.InitialConditionTable, lo, hi int) {
	for i := lo; i < hi; i++ {
		vec, idx, ok := c.Classify(points[i])
		if !ok {
			vec = fb.Vector(i, points[i])
			if e := a.log.Debug(); e.Enabled() {
				e.Int("vertex", i).
					Float64("x", points[i].X).Float64("y", points[i].Y).Float64("z", points[i].Z).
					Msg("no region matched, using fallback")
			}
		}
		table.Vectors[i] = vec
		table.Regions[i] = idx
	}
}
