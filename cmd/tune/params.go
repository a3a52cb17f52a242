package main

import (
	"github.com/pthm-cable/peakswarm/config"
)

// ParamSpec defines a single tunable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the set of all tunable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of pairing and force parameters.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			// Pairing state machine
			{Name: "formation_radius", Path: "pairing.formation_radius", Min: 10, Max: 45, Default: 25},
			{Name: "keep_margin", Path: "pairing.keep_radius - pairing.formation_radius", Min: 0, Max: 30, Default: 10},
			{Name: "cooldown", Path: "pairing.cooldown", Min: 30, Max: 600, Default: 180},
			{Name: "min_frames", Path: "pairing.min_frames", Min: 60, Max: 900, Default: 300},
			{Name: "break_probability", Path: "pairing.break_probability", Min: 0, Max: 0.01, Default: 0.002},
			// Forces
			{Name: "attraction_strength", Path: "forces.attraction_strength", Min: 0.01, Max: 0.3, Default: 0.08},
			{Name: "cohesion_strength", Path: "forces.cohesion_strength", Min: 0.005, Max: 0.1, Default: 0.02},
			{Name: "travel_strength", Path: "forces.travel_strength", Min: 0.05, Max: 0.6, Default: 0.25},
			{Name: "pair_spacing", Path: "forces.pair_spacing", Min: 4, Max: 20, Default: 10},
			// Exploration
			{Name: "wander_strength", Path: "exploration.wander_strength", Min: 0.2, Max: 2.5, Default: 1},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// FromConfig reads the current parameter values out of cfg.
func (pv *ParamVector) FromConfig(cfg *config.Config) []float64 {
	return pv.Clamp([]float64{
		cfg.Pairing.FormationRadius,
		cfg.Pairing.KeepRadius - cfg.Pairing.FormationRadius,
		float64(cfg.Pairing.Cooldown),
		float64(cfg.Pairing.MinFrames),
		cfg.Pairing.BreakProbability,
		cfg.Forces.AttractionStrength,
		cfg.Forces.CohesionStrength,
		cfg.Forces.TravelStrength,
		cfg.Forces.PairSpacing,
		cfg.Exploration.WanderStrength,
	})
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = min(max(v[i], spec.Min), spec.Max)
	}
	return clamped
}

// ApplyToConfig applies parameter values to a Config struct and recomputes
// its derived values.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) error {
	clamped := pv.Clamp(values)

	// Order must match Specs order
	i := 0
	next := func() float64 {
		v := clamped[i]
		i++
		return v
	}

	cfg.Pairing.FormationRadius = next()
	cfg.Pairing.KeepRadius = cfg.Pairing.FormationRadius + next()
	cfg.Pairing.Cooldown = int(next())
	cfg.Pairing.MinFrames = int(next())
	cfg.Pairing.BreakProbability = next()

	cfg.Forces.AttractionStrength = next()
	cfg.Forces.CohesionStrength = next()
	cfg.Forces.TravelStrength = next()
	cfg.Forces.PairSpacing = next()

	cfg.Exploration.WanderStrength = next()

	return cfg.Finalize()
}
