package systems

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/peakswarm/config"
)

// Integrate folds this tick's force into the persistent offset and moves the
// agent toward its blended goal. pos and vel are updated in place on the
// horizontal plane only; the height is left untouched. The new offset is returned.
func Integrate(cfg *config.IntegrationConfig, pos, vel *r3.Vec, offset, force, target r2.Vec, paired bool) r2.Vec {
	if !finite(force) {
		force = r2.Vec{}
	}
	offset = clampLength(r2.Add(r2.Scale(cfg.OffsetDamping, offset), force), cfg.MaxOffset)

	here := Planar(*pos)
	weight := cfg.PatternWeight
	if paired {
		weight *= cfg.PairedPatternFactor
	}
	goal := lerp(r2.Add(here, offset), target, clamp01(weight))

	desired := r2.Scale(cfg.FollowRate, r2.Sub(goal, here))
	v := lerp(Planar(*vel), desired, cfg.VelocityBlend)
	v = clampLength(v, cfg.MaxVelocity)
	if !finite(v) {
		v = r2.Vec{}
	}

	vel.X, vel.Z = v.X, v.Y
	pos.X += v.X
	pos.Z += v.Y
	return offset
}

// SoftLockStep moves pos toward target at the soft lock rate. It returns true
// once pos is within epsilon, after snapping pos onto the target.
func SoftLockStep(cfg *config.IntegrationConfig, pos *r3.Vec, target r2.Vec) bool {
	here := Planar(*pos)
	next := lerp(here, target, cfg.SoftLockRate)
	if r2.Norm(r2.Sub(target, next)) <= cfg.SoftLockEpsilon || !finite(next) {
		pos.X, pos.Z = target.X, target.Y
		return true
	}
	pos.X, pos.Z = next.X, next.Y
	return false
}

// Snap places pos on target without touching its height.
func Snap(pos *r3.Vec, target r2.Vec) {
	if math.IsNaN(target.X) || math.IsNaN(target.Y) {
		return
	}
	pos.X, pos.Z = target.X, target.Y
}
