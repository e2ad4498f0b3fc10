// MagSeed prepares initial magnetization for micromagnetic simulations.
//
// It reads a tetrahedral mesh and a list of field regions, assigns every mesh
// vertex the vector of the first region containing it, and writes the result
// for the solver together with optional spreadsheet, PDF and DXF outputs.
//
// Build:
//
//	go build -o magseed ./cmd/magseed
package main

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/piwi3910/MagSeed/internal/model"
	"github.com/piwi3910/MagSeed/internal/project"
)

var (
	cfgFile string
	verbose bool

	cfg model.AppConfig
	log zerolog.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "magseed",
		Short: "Initial magnetization preparer for tetrahedral meshes",
		Long: `MagSeed assigns every vertex of a tetrahedral mesh the magnetization vector
of the first field region containing it, and stages the result for the solver.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.magseed/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(
		initCmd(),
		assignCmd(),
		mesh2jsonCmd(),
		validateCmd(),
		stageCmd(),
		runCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func initConfig() error {
	path := cfgFile
	if path == "" {
		path = project.DefaultConfigPath()
	}

	var err error
	cfg, err = project.LoadAppConfig(path)
	if err != nil {
		return err
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || cfg.LogLevel == "" {
		level = zerolog.InfoLevel
	}
	if verbose {
		level = zerolog.DebugLevel
	}
	log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().Timestamp().Logger()

	log.Debug().Str("config", path).Msg("configuration loaded")
	return nil
}
