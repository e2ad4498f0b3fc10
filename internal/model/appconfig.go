package model

// FallbackMode selects how vertices outside every region are initialised.
type FallbackMode string

const (
	FallbackConstant FallbackMode = "constant" // Same non-zero vector everywhere
	FallbackSeeded   FallbackMode = "seeded"   // Random direction seeded by vertex index
)

// FallbackSettings configures the no-match fallback vector.
type FallbackSettings struct {
	Mode   FallbackMode `json:"mode" yaml:"mode" mapstructure:"mode"`
	Vector Vector3D     `json:"vector" yaml:"vector" mapstructure:"vector"` // Used by FallbackConstant
	Seed   uint64       `json:"seed" yaml:"seed" mapstructure:"seed"`       // Used by FallbackSeeded
}

// DefaultFallbackVector is arbitrary; it only has to be non-zero so the
// solver can normalise the field.
var DefaultFallbackVector = Vector3D{X: 0, Y: 0, Z: 1}

// DefaultIndexThreshold is the region count above which the classifier builds
// a spatial index instead of scanning linearly.
const DefaultIndexThreshold = 32

// AssignSettings holds classifier and assigner configuration.
type AssignSettings struct {
	Workers                int              `json:"workers" yaml:"workers" mapstructure:"workers"`                         // 0 = one per CPU
	IndexThreshold         int              `json:"index_threshold" yaml:"index_threshold" mapstructure:"index_threshold"` // Region count above which an R-tree is built
	Fallback               FallbackSettings `json:"fallback" yaml:"fallback" mapstructure:"fallback"`
	CheckOrthogonality     bool             `json:"check_orthogonality" yaml:"check_orthogonality" mapstructure:"check_orthogonality"`
	OrthogonalityTolerance float64          `json:"orthogonality_tolerance" yaml:"orthogonality_tolerance" mapstructure:"orthogonality_tolerance"`
}

// RegionCheck returns the validation options implied by the settings.
func (s AssignSettings) RegionCheck() RegionCheck {
	return RegionCheck{Orthogonality: s.CheckOrthogonality, Tolerance: s.OrthogonalityTolerance}
}

// DefaultAssignSettings returns the settings used when nothing is configured.
func DefaultAssignSettings() AssignSettings {
	return AssignSettings{
		Workers:        0,
		IndexThreshold: DefaultIndexThreshold,
		Fallback: FallbackSettings{
			Mode:   FallbackConstant,
			Vector: DefaultFallbackVector,
		},
		CheckOrthogonality:     false,
		OrthogonalityTolerance: DefaultOrthogonalityTolerance,
	}
}

// AppConfig holds application-wide preferences and default settings.
type AppConfig struct {
	Assign    AssignSettings `json:"assign" yaml:"assign" mapstructure:"assign"`
	LogLevel  string         `json:"log_level" yaml:"log_level" mapstructure:"log_level"`    // zerolog level name
	OutputDir string         `json:"output_dir" yaml:"output_dir" mapstructure:"output_dir"` // Default directory for exports
}

// DefaultAppConfig returns an AppConfig populated with sensible defaults.
func DefaultAppConfig() AppConfig {
	return AppConfig{
		Assign:    DefaultAssignSettings(),
		LogLevel:  "info",
		OutputDir: ".",
	}
}
