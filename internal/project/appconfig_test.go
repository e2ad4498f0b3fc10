package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/piwi3910/MagSeed/internal/model"
)

func TestSaveAndLoadAppConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	cfg := model.DefaultAppConfig()
	cfg.Assign.Workers = 6
	cfg.Assign.IndexThreshold = 0
	cfg.Assign.Fallback = model.FallbackSettings{Mode: model.FallbackSeeded, Seed: 42}
	cfg.Assign.CheckOrthogonality = true
	cfg.LogLevel = "debug"
	cfg.OutputDir = "/tmp/out"

	if err := SaveAppConfig(path, cfg); err != nil {
		t.Fatalf("SaveAppConfig failed: %v", err)
	}

	loaded, err := LoadAppConfig(path)
	if err != nil {
		t.Fatalf("LoadAppConfig failed: %v", err)
	}

	if loaded.Assign.Workers != 6 {
		t.Errorf("expected Workers=6, got %d", loaded.Assign.Workers)
	}
	if loaded.Assign.IndexThreshold != 0 {
		t.Errorf("expected IndexThreshold=0, got %d", loaded.Assign.IndexThreshold)
	}
	if loaded.Assign.Fallback.Mode != model.FallbackSeeded || loaded.Assign.Fallback.Seed != 42 {
		t.Errorf("expected seeded fallback with seed 42, got %+v", loaded.Assign.Fallback)
	}
	if !loaded.Assign.CheckOrthogonality {
		t.Error("expected CheckOrthogonality=true")
	}
	if loaded.LogLevel != "debug" {
		t.Errorf("expected LogLevel=debug, got %s", loaded.LogLevel)
	}
	if loaded.OutputDir != "/tmp/out" {
		t.Errorf("expected OutputDir=/tmp/out, got %s", loaded.OutputDir)
	}
}

func TestLoadAppConfigMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nonexistent", "config.yaml")

	cfg, err := LoadAppConfig(path)
	if err != nil {
		t.Fatalf("expected no error for missing file, got: %v", err)
	}

	defaults := model.DefaultAppConfig()
	if cfg.Assign.IndexThreshold != defaults.Assign.IndexThreshold {
		t.Errorf("expected default index threshold %d, got %d", defaults.Assign.IndexThreshold, cfg.Assign.IndexThreshold)
	}
	if cfg.Assign.Fallback.Vector != model.DefaultFallbackVector {
		t.Errorf("expected default fallback vector, got %+v", cfg.Assign.Fallback.Vector)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("expected log level info, got %s", cfg.LogLevel)
	}
}

func TestLoadAppConfigPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("assign:\n  workers: 2\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadAppConfig(path)
	if err != nil {
		t.Fatalf("LoadAppConfig failed: %v", err)
	}
	if cfg.Assign.Workers != 2 {
		t.Errorf("expected Workers=2, got %d", cfg.Assign.Workers)
	}
	if cfg.Assign.Fallback.Mode != model.FallbackConstant {
		t.Errorf("expected default fallback mode, got %q", cfg.Assign.Fallback.Mode)
	}
	if cfg.Assign.OrthogonalityTolerance != model.DefaultOrthogonalityTolerance {
		t.Errorf("expected default tolerance, got %g", cfg.Assign.OrthogonalityTolerance)
	}
}

func TestLoadAppConfigEnvOverride(t *testing.T) {
	t.Setenv("MAGSEED_ASSIGN_WORKERS", "3")
	t.Setenv("MAGSEED_LOG_LEVEL", "warn")

	cfg, err := LoadAppConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadAppConfig failed: %v", err)
	}
	if cfg.Assign.Workers != 3 {
		t.Errorf("expected Workers=3 from environment, got %d", cfg.Assign.Workers)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("expected LogLevel=warn from environment, got %s", cfg.LogLevel)
	}
}

func TestLoadAppConfigInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("assign: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadAppConfig(path)
	if err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

func TestSaveAppConfigCreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "dir", "config.yaml")

	if err := SaveAppConfig(path, model.DefaultAppConfig()); err != nil {
		t.Fatalf("SaveAppConfig failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected config file to exist: %v", err)
	}
}
