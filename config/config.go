// Package config provides configuration loading and access for the swarm.
package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

//go:embed schema.json
var schemaJSON []byte

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Config holds all swarm configuration parameters.
type Config struct {
	Grid        GridConfig        `yaml:"grid"`
	Pairing     PairingConfig     `yaml:"pairing"`
	Forces      ForcesConfig      `yaml:"forces"`
	Exploration ExplorationConfig `yaml:"exploration"`
	Integration IntegrationConfig `yaml:"integration"`
	Pattern     PatternConfig     `yaml:"pattern"`
	Tick        TickConfig        `yaml:"tick"`
	Population  PopulationConfig  `yaml:"population"`
	Telemetry   TelemetryConfig   `yaml:"telemetry"`
	View        ViewConfig        `yaml:"view"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// GridConfig holds spatial index parameters.
type GridConfig struct {
	CellSize float64 `yaml:"cell_size"`
}

// PairingConfig holds pairing state machine parameters. Durations are in ticks.
type PairingConfig struct {
	FormationRadius  float64 `yaml:"formation_radius"`
	KeepRadius       float64 `yaml:"keep_radius"`
	Cooldown         int     `yaml:"cooldown"`
	BreakGrace       int     `yaml:"break_grace"`
	EaseFrames       int     `yaml:"ease_frames"`
	MinFrames        int     `yaml:"min_frames"`
	BreakProbability float64 `yaml:"break_probability"` // per pair per tick once MinFrames is exceeded
}

// ForcesConfig holds repulsion, attraction and pairing force parameters.
type ForcesConfig struct {
	MinSeparation         float64 `yaml:"min_separation"`
	RepulsionStrength     float64 `yaml:"repulsion_strength"`
	PairedRepulsionFactor float64 `yaml:"paired_repulsion_factor"`
	ComplementaryRange    float64 `yaml:"complementary_range"`
	AttractionStrength    float64 `yaml:"attraction_strength"`

	PairSpacing        float64 `yaml:"pair_spacing"`
	SeparationStrength float64 `yaml:"separation_strength"`
	CohesionStrength   float64 `yaml:"cohesion_strength"`
	AlignmentStrength  float64 `yaml:"alignment_strength"`
	TravelStrength     float64 `yaml:"travel_strength"`
	AlignSpeed         float64 `yaml:"align_speed"`       // speed the alignment term steers toward
	TangentWeight      float64 `yaml:"tangent_weight"`    // orbit tangent share of the shared heading
	HeadingSmoothing   float64 `yaml:"heading_smoothing"` // low-pass factor per tick
	JitterInterval     int     `yaml:"jitter_interval"`
	JitterAngle        float64 `yaml:"jitter_angle"` // radians
	PairedJitterFactor float64 `yaml:"paired_jitter_factor"`
}

// ExplorationConfig holds solo wander parameters.
type ExplorationConfig struct {
	WanderStrength      float64 `yaml:"wander_strength"`
	PairedFactor        float64 `yaml:"paired_factor"`
	DriftStrength       float64 `yaml:"drift_strength"`
	DriftSpeed          float64 `yaml:"drift_speed"` // radians per second
	NoiseStrength       float64 `yaml:"noise_strength"`
	NoiseFrequency      float64 `yaml:"noise_frequency"`
	MaxRange            float64 `yaml:"max_range"`
	BoundaryStrength    float64 `yaml:"boundary_strength"`
	AvoidCenterRadius   float64 `yaml:"avoid_center_radius"`
	AvoidCenterStrength float64 `yaml:"avoid_center_strength"`
}

// IntegrationConfig holds offset, velocity and lock parameters.
type IntegrationConfig struct {
	OffsetDamping       float64 `yaml:"offset_damping"`
	MaxOffset           float64 `yaml:"max_offset"`
	PatternWeight       float64 `yaml:"pattern_weight"`
	PairedPatternFactor float64 `yaml:"paired_pattern_factor"`
	FollowRate          float64 `yaml:"follow_rate"`
	VelocityBlend       float64 `yaml:"velocity_blend"`
	MaxVelocity         float64 `yaml:"max_velocity"`
	SoftLockRate        float64 `yaml:"soft_lock_rate"`
	SoftLockEpsilon     float64 `yaml:"soft_lock_epsilon"`
}

// PatternConfig holds the ambient swarm pattern parameters.
type PatternConfig struct {
	BaseRadius   float64 `yaml:"base_radius"`
	Spread       float64 `yaml:"spread"`
	AngularSpeed float64 `yaml:"angular_speed"` // radians per second
	Wobble       float64 `yaml:"wobble"`
}

// TickConfig holds simulation cadence.
type TickConfig struct {
	FrameSkip int     `yaml:"frame_skip"` // frames per simulation step
	DT        float64 `yaml:"dt"`         // simulated seconds per step
}

// PopulationConfig holds host population parameters.
type PopulationConfig struct {
	Initial     int     `yaml:"initial"`
	SpawnRadius float64 `yaml:"spawn_radius"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         float64 `yaml:"stats_window"`
	PerfCollectorWindow int     `yaml:"perf_collector_window"`
}

// ViewConfig holds display settings for the demo window.
type ViewConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	QueryRadius    float64 // max(min_separation, complementary_range)
	FormationRadSq float64
	KeepRadSq      float64
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Default returns the embedded defaults.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults are broken: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := Merge(cfg, data); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()

	return cfg, nil
}

// Merge checks data against the config schema and unmarshals it over cfg.
// Only fields present in data are overwritten.
func Merge(cfg *Config, data []byte) error {
	if err := validateSchema(data); err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}
	return nil
}

func validateSchema(data []byte) error {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}
	if doc == nil {
		return nil
	}

	// Round-trip through JSON so the validator sees plain JSON values.
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(schemaJSON)); err != nil {
		return fmt.Errorf("loading config schema: %w", err)
	}
	sch, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compiling config schema: %w", err)
	}
	if err := sch.Validate(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// Validate performs the checks the schema cannot express.
func (c *Config) Validate() error {
	switch {
	case c.Grid.CellSize <= 0:
		return fmt.Errorf("%w: grid.cell_size must be positive, got %v", ErrInvalid, c.Grid.CellSize)
	case c.Integration.MaxVelocity <= 0:
		return fmt.Errorf("%w: integration.max_velocity must be positive, got %v", ErrInvalid, c.Integration.MaxVelocity)
	case c.Integration.MaxOffset <= 0:
		return fmt.Errorf("%w: integration.max_offset must be positive, got %v", ErrInvalid, c.Integration.MaxOffset)
	case c.Integration.FollowRate <= 0:
		return fmt.Errorf("%w: integration.follow_rate must be positive, got %v", ErrInvalid, c.Integration.FollowRate)
	case c.Tick.FrameSkip < 1:
		return fmt.Errorf("%w: tick.frame_skip must be at least 1, got %d", ErrInvalid, c.Tick.FrameSkip)
	case c.Tick.DT <= 0:
		return fmt.Errorf("%w: tick.dt must be positive, got %v", ErrInvalid, c.Tick.DT)
	case c.Pairing.FormationRadius <= 0:
		return fmt.Errorf("%w: pairing.formation_radius must be positive, got %v", ErrInvalid, c.Pairing.FormationRadius)
	case c.Pairing.KeepRadius < c.Pairing.FormationRadius:
		return fmt.Errorf("%w: pairing.keep_radius (%v) must be >= formation_radius (%v)",
			ErrInvalid, c.Pairing.KeepRadius, c.Pairing.FormationRadius)
	case c.Pairing.BreakProbability < 0 || c.Pairing.BreakProbability > 1:
		return fmt.Errorf("%w: pairing.break_probability must be in [0,1], got %v", ErrInvalid, c.Pairing.BreakProbability)
	case c.Pairing.Cooldown < 0 || c.Pairing.BreakGrace < 0 || c.Pairing.EaseFrames < 0 || c.Pairing.MinFrames < 0:
		return fmt.Errorf("%w: pairing durations must be non-negative", ErrInvalid)
	case c.Forces.MinSeparation <= 0:
		return fmt.Errorf("%w: forces.min_separation must be positive, got %v", ErrInvalid, c.Forces.MinSeparation)
	case c.Forces.PairSpacing <= 0:
		return fmt.Errorf("%w: forces.pair_spacing must be positive, got %v", ErrInvalid, c.Forces.PairSpacing)
	case c.Forces.JitterInterval < 1:
		return fmt.Errorf("%w: forces.jitter_interval must be at least 1, got %d", ErrInvalid, c.Forces.JitterInterval)
	case c.Exploration.MaxRange <= 0:
		return fmt.Errorf("%w: exploration.max_range must be positive, got %v", ErrInvalid, c.Exploration.MaxRange)
	case c.Integration.OffsetDamping < 0 || c.Integration.OffsetDamping > 1:
		return fmt.Errorf("%w: integration.offset_damping must be in [0,1], got %v", ErrInvalid, c.Integration.OffsetDamping)
	case c.Integration.VelocityBlend <= 0 || c.Integration.VelocityBlend > 1:
		return fmt.Errorf("%w: integration.velocity_blend must be in (0,1], got %v", ErrInvalid, c.Integration.VelocityBlend)
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.QueryRadius = max(c.Forces.MinSeparation, c.Forces.ComplementaryRange)
	c.Derived.FormationRadSq = c.Pairing.FormationRadius * c.Pairing.FormationRadius
	c.Derived.KeepRadSq = c.Pairing.KeepRadius * c.Pairing.KeepRadius
}

// Finalize validates c and recomputes derived values after in-place edits.
func (c *Config) Finalize() error {
	if err := c.Validate(); err != nil {
		return err
	}
	c.computeDerived()
	return nil
}

// Clone returns a deep copy of c.
func (c *Config) Clone() *Config {
	out := *c
	return &out
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
