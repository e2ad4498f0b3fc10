package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/piwi3910/MagSeed/internal/meshio"
	"github.com/piwi3910/MagSeed/internal/project"
	"github.com/piwi3910/MagSeed/internal/solver"
)

func assignCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assign",
		Short: "Assign initial magnetization to every mesh vertex",
		RunE: func(cmd *cobra.Command, args []string) error {
			meshPath, _ := cmd.Flags().GetString("mesh")
			fieldsPath, _ := cmd.Flags().GetString("fields")

			settings := cfg.Assign
			applySettingsFlags(cmd, &settings)

			mesh, err := loadMesh(meshPath)
			if err != nil {
				return err
			}
			regions, err := loadRegions(fieldsPath, settings)
			if err != nil {
				return err
			}
			table, err := assignTable(cmd.Context(), settings, mesh, regions)
			if err != nil {
				return err
			}
			if _, err := writeOutputs(outputDir(cmd), meshPath, mesh, regions, table, settings, formatFlags(cmd)); err != nil {
				return err
			}

			if projectPath, _ := cmd.Flags().GetString("save-project"); projectPath != "" {
				if err := project.SaveProject(projectPath, projectFor(projectPath, meshPath, regions, settings)); err != nil {
					return fmt.Errorf("failed to save project: %w", err)
				}
				log.Info().Str("project", projectPath).Msg("project saved")
			}
			return nil
		},
	}

	cmd.Flags().String("mesh", "", "mesh file (required)")
	cmd.Flags().String("fields", "", "field regions file: .json, .yaml, .csv or .xlsx (required)")
	cmd.Flags().StringP("out", "o", "", "output directory (default from config)")
	cmd.Flags().String("save-project", "", "also save mesh, regions and settings as a project file for 'magseed run'")
	_ = cmd.MarkFlagRequired("mesh")
	_ = cmd.MarkFlagRequired("fields")
	addSettingsFlags(cmd)
	addFormatFlags(cmd)

	return cmd
}

func initCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := cfgFile
			if path == "" {
				path = project.DefaultConfigPath()
			}
			force, _ := cmd.Flags().GetBool("force")
			if err := writeDefaultConfig(path, force); err != nil {
				return err
			}
			log.Info().Str("config", path).Msg("configuration written")
			return nil
		},
	}

	cmd.Flags().Bool("force", false, "overwrite an existing config file")
	return cmd
}

func mesh2jsonCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mesh2json <mesh>",
		Short: "Convert a mesh file to the per-tetrahedron JSON the viewer renders",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			meshPath := args[0]
			out, _ := cmd.Flags().GetString("out")
			if out == "" {
				out = meshio.JSONPath(meshPath)
			}

			mesh, err := loadMesh(meshPath)
			if err != nil {
				return err
			}

			f, err := os.Create(out)
			if err != nil {
				return err
			}
			defer f.Close()
			if err := meshio.WriteJSON(f, mesh); err != nil {
				return err
			}
			log.Info().Str("json", out).Msg("mesh converted")
			return f.Close()
		},
	}

	cmd.Flags().StringP("out", "o", "", "output file (default: mesh path with .json extension)")
	return cmd
}

func validateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <fields>...",
		Short: "Check field region files without assigning",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings := cfg.Assign
			applySettingsFlags(cmd, &settings)

			failed := 0
			for _, path := range args {
				regions, err := loadRegions(path, settings)
				if err != nil {
					failed++
					resp, _ := json.Marshal(solver.ErrorResponse(err))
					log.Error().Str("fields", path).RawJSON("response", resp).Msg("invalid")
					continue
				}
				fmt.Printf("%s: %d regions OK\n", path, len(regions))
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d files invalid", failed, len(args))
			}
			return nil
		},
	}

	addSettingsFlags(cmd)
	return cmd
}

func stageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stage",
		Short: "Prepare a solver work directory, optionally running the solver",
		Long: `Writes generated.nmesh, magnetization_fields.json and the per-vertex table
into the work directory. Arguments after -- are run as the solver command
inside that directory, e.g.

  magseed stage --mesh bar.mesh --fields bar.json --dir work -- ./run-nmag.sh`,
		RunE: func(cmd *cobra.Command, args []string) error {
			meshPath, _ := cmd.Flags().GetString("mesh")
			fieldsPath, _ := cmd.Flags().GetString("fields")
			dir, _ := cmd.Flags().GetString("dir")

			settings := cfg.Assign
			applySettingsFlags(cmd, &settings)

			mesh, err := loadMesh(meshPath)
			if err != nil {
				return err
			}
			regions, err := loadRegions(fieldsPath, settings)
			if err != nil {
				return err
			}
			table, err := assignTable(cmd.Context(), settings, mesh, regions)
			if err != nil {
				return err
			}

			job, err := solver.Stage(dir, mesh, regions, table)
			if err != nil {
				return err
			}
			log.Info().Str("dir", job.Dir).Msg("job staged")

			if len(args) == 0 {
				return nil
			}
			runner := solver.CommandRunner{Name: args[0], Args: args[1:]}
			art, err := runner.Run(cmd.Context(), job)
			if err != nil {
				return err
			}
			log.Info().Str("data", art.Path).Msg("solver finished")
			return nil
		},
	}

	cmd.Flags().String("mesh", "", "mesh file (required)")
	cmd.Flags().String("fields", "", "field regions file (required)")
	cmd.Flags().String("dir", "", "work directory (required)")
	_ = cmd.MarkFlagRequired("mesh")
	_ = cmd.MarkFlagRequired("fields")
	_ = cmd.MarkFlagRequired("dir")
	addSettingsFlags(cmd)

	return cmd
}

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <project" + project.ProjectExt + ">",
		Short: "Assign using a saved project file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectPath := args[0]
			p, err := project.LoadProject(projectPath)
			if err != nil {
				return err
			}
			meshPath := project.MeshPath(projectPath, p)
			if meshPath == "" {
				return errors.New("project has no mesh file")
			}

			settings := p.Settings
			applySettingsFlags(cmd, &settings)

			mesh, err := loadMesh(meshPath)
			if err != nil {
				return err
			}
			table, err := assignTable(cmd.Context(), settings, mesh, p.Regions)
			if err != nil {
				return err
			}

			dir, _ := cmd.Flags().GetString("out")
			if dir == "" {
				dir = filepath.Join(filepath.Dir(projectPath), p.Name+"-out")
			}
			_, err = writeOutputs(dir, meshPath, mesh, p.Regions, table, settings, formatFlags(cmd))
			return err
		},
	}

	cmd.Flags().StringP("out", "o", "", "output directory (default: <name>-out next to the project)")
	addSettingsFlags(cmd)
	addFormatFlags(cmd)

	return cmd
}
