package systems

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/peakswarm/config"
)

// ApplyExploration returns the solo wander force for agent i. The drift and
// noise terms are multiplied by wander_strength and by scale; boundary and
// center avoidance always apply in full.
func ApplyExploration(in *ForceInput, i int, scale float64) r2.Vec {
	cfg := &in.Cfg.Exploration
	me := &in.Agents[i]
	pos := Planar(me.Position)
	scale *= cfg.WanderStrength

	// Circular drift, phase-offset per agent
	phase := me.Seed*2*math.Pi + in.Time*cfg.DriftSpeed
	s, c := math.Sincos(phase)
	force := r2.Scale(cfg.DriftStrength*scale, r2.Vec{X: c, Y: s})

	// Low-frequency noise on each axis
	if in.Noise != nil {
		nx, nz := in.Noise.Wander(me.Seed, in.Time, cfg.NoiseFrequency)
		force = r2.Add(force, r2.Scale(cfg.NoiseStrength*scale, r2.Vec{X: nx, Y: nz}))
	}

	// Soft boundary
	r := r2.Norm(pos)
	if r > cfg.MaxRange {
		inward := r2.Scale(-1/r, pos)
		push := (r - cfg.MaxRange) / cfg.MaxRange * cfg.BoundaryStrength
		force = r2.Add(force, r2.Scale(push, inward))
	}

	return r2.Add(force, CenterAvoidance(pos, cfg, in.Rng))
}

// CenterAvoidance pushes outward with quadratic strength inside the avoidance
// radius. At the exact origin the direction is random.
func CenterAvoidance(pos r2.Vec, cfg *config.ExplorationConfig, rng *rand.Rand) r2.Vec {
	radius := cfg.AvoidCenterRadius
	if radius <= 0 {
		return r2.Vec{}
	}
	r := r2.Norm(pos)
	if r >= radius || math.IsNaN(r) {
		return r2.Vec{}
	}
	s := 1 - r/radius
	dir := unitOr(pos, RandomUnit(rng))
	return r2.Scale(cfg.AvoidCenterStrength*s*s, dir)
}
