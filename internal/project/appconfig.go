package project

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/piwi3910/MagSeed/internal/model"
)

// EnvPrefix prefixes environment overrides, e.g. MAGSEED_ASSIGN_WORKERS=4.
const EnvPrefix = "MAGSEED"

// DefaultConfigDir returns the default directory for application configuration.
// On all platforms this is ~/.magseed/
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".magseed")
}

// DefaultConfigPath returns the default path for the application config file.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// SaveAppConfig persists an AppConfig to the given path as YAML.
// It creates any missing parent directories automatically.
func SaveAppConfig(path string, config model.AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	data, err := yaml.Marshal(config)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadAppConfig reads an AppConfig from the given path, layered over
// DefaultAppConfig and under MAGSEED_* environment variables. A missing file
// is not an error.
func LoadAppConfig(path string) (model.AppConfig, error) {
	v := viper.New()
	setDefaults(v, model.DefaultAppConfig())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		_, err := os.Stat(path)
		switch {
		case err == nil:
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return model.AppConfig{}, fmt.Errorf("failed to read config %s: %w", path, err)
			}
		case !os.IsNotExist(err):
			return model.AppConfig{}, err
		}
	}

	var config model.AppConfig
	if err := v.Unmarshal(&config); err != nil {
		return model.AppConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return config, nil
}

// setDefaults registers every key so environment overrides apply even when
// the file does not mention them.
func setDefaults(v *viper.Viper, d model.AppConfig) {
	a := d.Assign
	v.SetDefault("assign.workers", a.Workers)
	v.SetDefault("assign.index_threshold", a.IndexThreshold)
	v.SetDefault("assign.fallback.mode", string(a.Fallback.Mode))
	v.SetDefault("assign.fallback.seed", a.Fallback.Seed)
	v.SetDefault("assign.fallback.vector.x", a.Fallback.Vector.X)
	v.SetDefault("assign.fallback.vector.y", a.Fallback.Vector.Y)
	v.SetDefault("assign.fallback.vector.z", a.Fallback.Vector.Z)
	v.SetDefault("assign.check_orthogonality", a.CheckOrthogonality)
	v.SetDefault("assign.orthogonality_tolerance", a.OrthogonalityTolerance)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("output_dir", d.OutputDir)
}
