package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/piwi3910/MagSeed/internal/assign"
	"github.com/piwi3910/MagSeed/internal/export"
	"github.com/piwi3910/MagSeed/internal/importer"
	"github.com/piwi3910/MagSeed/internal/meshio"
	"github.com/piwi3910/MagSeed/internal/model"
	"github.com/piwi3910/MagSeed/internal/project"
)

// Output file names written by assign and run.
const (
	conditionsJSON = "conditions.json"
	conditionsXLSX = "conditions.xlsx"
	reportPDF      = "report.pdf"
	regionsDXF     = "regions.dxf"
)

type formats struct {
	xlsx bool
	pdf  bool
	dxf  bool
}

func addSettingsFlags(cmd *cobra.Command) {
	cmd.Flags().Int("workers", 0, "parallel workers (0 = one per CPU)")
	cmd.Flags().Int("index-threshold", 0, "region count above which a spatial index is built (0 disables it)")
	cmd.Flags().String("fallback", "", "fallback for unmatched vertices: constant or seeded")
	cmd.Flags().Uint64("seed", 0, "seed for the seeded fallback")
	cmd.Flags().Bool("strict", false, "reject prisms whose edges are not orthogonal")
}

// applySettingsFlags overrides s with the flags the user actually set.
func applySettingsFlags(cmd *cobra.Command, s *model.AssignSettings) {
	f := cmd.Flags()
	if f.Changed("workers") {
		s.Workers, _ = f.GetInt("workers")
	}
	if f.Changed("index-threshold") {
		s.IndexThreshold, _ = f.GetInt("index-threshold")
	}
	if f.Changed("fallback") {
		mode, _ := f.GetString("fallback")
		s.Fallback.Mode = model.FallbackMode(mode)
	}
	if f.Changed("seed") {
		s.Fallback.Seed, _ = f.GetUint64("seed")
	}
	if f.Changed("strict") {
		s.CheckOrthogonality, _ = f.GetBool("strict")
	}
}

func addFormatFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("xlsx", false, "also write "+conditionsXLSX)
	cmd.Flags().Bool("pdf", false, "also write "+reportPDF)
	cmd.Flags().Bool("dxf", false, "also write "+regionsDXF)
}

func formatFlags(cmd *cobra.Command) formats {
	var fm formats
	fm.xlsx, _ = cmd.Flags().GetBool("xlsx")
	fm.pdf, _ = cmd.Flags().GetBool("pdf")
	fm.dxf, _ = cmd.Flags().GetBool("dxf")
	return fm
}

func outputDir(cmd *cobra.Command) string {
	dir, _ := cmd.Flags().GetString("out")
	if dir == "" {
		dir = cfg.OutputDir
	}
	if dir == "" {
		dir = "."
	}
	return dir
}

func loadMesh(path string) (*model.Mesh, error) {
	mesh, err := meshio.ParseFile(path)
	if err != nil {
		return nil, err
	}
	log.Info().
		Str("mesh", path).
		Int("vertices", len(mesh.Points)).
		Int("tetrahedra", len(mesh.Tetrahedra)).
		Int("exterior", mesh.ExteriorCount()).
		Msg("mesh loaded")
	return mesh, nil
}

func loadRegions(path string, settings model.AssignSettings) ([]model.FieldRegion, error) {
	regions, err := importer.LoadRegions(path, settings.RegionCheck())
	if err != nil {
		return nil, err
	}
	log.Info().Str("fields", path).Int("regions", len(regions)).Msg("regions loaded")
	return regions, nil
}

func assignTable(ctx context.Context, settings model.AssignSettings, mesh *model.Mesh, regions []model.FieldRegion) (*model.InitialConditionTable, error) {
	a := assign.New(settings, assign.WithLogger(log))
	return a.Assign(ctx, mesh, regions)
}

// writeOutputs writes the table and the requested extra formats into dir and
// records them in a run manifest.
func writeOutputs(dir, meshFile string, mesh *model.Mesh, regions []model.FieldRegion,
	table *model.InitialConditionTable, settings model.AssignSettings, fm formats) (project.Manifest, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return project.Manifest{}, fmt.Errorf("failed to create output directory: %w", err)
	}

	summary := table.Summary(len(regions))
	m := project.NewManifest(meshFile, len(regions), settings, summary)

	f, err := os.Create(filepath.Join(dir, conditionsJSON))
	if err != nil {
		return m, err
	}
	err = export.WriteTableJSON(f, mesh.Points, table)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return m, err
	}
	m.Outputs = append(m.Outputs, conditionsJSON)

	if fm.xlsx {
		if err := export.ExportXLSX(filepath.Join(dir, conditionsXLSX), mesh.Points, table, regions); err != nil {
			return m, err
		}
		m.Outputs = append(m.Outputs, conditionsXLSX)
	}
	if fm.pdf {
		report := export.Report{
			RunID:    m.RunID,
			MeshFile: meshFile,
			Created:  time.Now(),
			Mesh:     mesh,
			Regions:  regions,
			Table:    table,
			Settings: settings,
		}
		if err := export.ExportReport(filepath.Join(dir, reportPDF), report); err != nil {
			return m, err
		}
		m.Outputs = append(m.Outputs, reportPDF)
	}
	if fm.dxf {
		if len(regions) == 0 {
			log.Warn().Msg("no regions, skipping DXF export")
		} else {
			if err := export.ExportRegionsDXF(filepath.Join(dir, regionsDXF), regions); err != nil {
				return m, err
			}
			m.Outputs = append(m.Outputs, regionsDXF)
		}
	}

	path, err := project.WriteManifest(dir, m)
	if err != nil {
		return m, err
	}
	log.Info().
		Str("run_id", m.RunID).
		Str("manifest", path).
		Int("matched", summary.Matched).
		Int("fallbacks", summary.Fallbacks).
		Msg("outputs written")
	return m, nil
}

// projectFor builds a project that reproduces an assign run when saved at
// projectPath. The mesh path is stored relative to the project file when
// possible.
func projectFor(projectPath, meshPath string, regions []model.FieldRegion, settings model.AssignSettings) model.Project {
	p := model.NewProject()
	p.Name = strings.TrimSuffix(filepath.Base(projectPath), filepath.Ext(projectPath))
	p.MeshFile = meshPath
	absMesh, err1 := filepath.Abs(meshPath)
	absDir, err2 := filepath.Abs(filepath.Dir(projectPath))
	if err1 == nil && err2 == nil {
		if rel, err := filepath.Rel(absDir, absMesh); err == nil {
			p.MeshFile = rel
		}
	}
	if regions != nil {
		p.Regions = regions
	}
	p.Settings = settings
	return p
}

// writeDefaultConfig writes the default configuration to path. An existing
// file is kept unless force is set.
func writeDefaultConfig(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists, use --force to overwrite", path)
	}
	return project.SaveAppConfig(path, model.DefaultAppConfig())
}
