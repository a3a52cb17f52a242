package systems

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/peakswarm/components"
	"github.com/pthm-cable/peakswarm/config"
)

// attractionNearFactor is where complementary attraction begins, as a multiple of min separation.
const attractionNearFactor = 1.2

// ForceInput bundles the per-tick state the force functions read. The force
// functions keep no state between calls and never write pair state; the
// shared headings and probabilistic breaks belong to UpdatePairs.
type ForceInput struct {
	Cfg      *config.Config
	Agents   []components.Agent
	Velocity []r3.Vec
	LastPos  []r3.Vec
	Index    *SpatialIndex
	Pairs    *PairingRegistry
	Noise    *NoiseField
	Rng      *rand.Rand
	Time     float64 // simulated seconds

	neighbors []int
	pairList  [][2]int
}

// ApplyRepulsion returns the push away from crowding neighbors plus the pull
// toward complementary neighbors.
func ApplyRepulsion(in *ForceInput, i int) r2.Vec {
	cfg := &in.Cfg.Forces
	me := &in.Agents[i]
	ps := in.Pairs.State(i)
	pos := Planar(me.Position)

	radius := in.Cfg.Derived.QueryRadius
	near := cfg.MinSeparation * attractionNearFactor

	var force r2.Vec
	in.neighbors = in.Index.QueryInto(in.neighbors[:0], me.Position, radius)
	for _, j := range in.neighbors {
		if j == i || j >= len(in.Agents) {
			continue
		}
		other := &in.Agents[j]
		if !other.Visible {
			continue
		}

		away := r2.Sub(pos, Planar(other.Position))
		dist := r2.Norm(away)
		if dist > radius {
			continue
		}

		if dist < cfg.MinSeparation {
			dir := unitOr(away, RandomUnit(in.Rng))
			penetration := (cfg.MinSeparation - dist) / cfg.MinSeparation
			scale := cfg.RepulsionStrength * penetration
			switch {
			case ps.Partner == j:
				scale *= cfg.PairedRepulsionFactor
			case ps.BreakPartner == j && ps.BreakGrace > 0:
				scale *= graceFade(ps.BreakGrace, in.Cfg.Pairing.BreakGrace)
			}
			force = r2.Add(force, r2.Scale(scale, dir))
		}

		if dist < near || dist > cfg.ComplementaryRange || dist < degenerateEps {
			continue
		}
		if !components.Complementary(me.Category, other.Category) || !mayAttract(in.Pairs, i, j) {
			continue
		}
		span := cfg.ComplementaryRange - near
		if span <= 0 {
			continue
		}
		s := 1 - clamp01((dist-near)/span)
		pull := cfg.AttractionStrength * s * s
		force = r2.Add(force, r2.Scale(-pull/dist, away))
	}
	return force
}

// mayAttract reports whether neither agent is paired with a third party.
func mayAttract(pairs *PairingRegistry, i, j int) bool {
	pi, pj := pairs.Partner(i), pairs.Partner(j)
	if pi != components.NoPartner && pi != j {
		return false
	}
	if pj != components.NoPartner && pj != i {
		return false
	}
	return true
}

// graceFade is 0 right after a break and reaches 1 when the grace window ends.
func graceFade(remaining, window int) float64 {
	if window <= 0 {
		return 1
	}
	return clamp01(1 - float64(remaining)/float64(window))
}

// ApplyPairing returns the pair force for agent i and the scale the caller
// should apply to exploration.
func ApplyPairing(in *ForceInput, i int) (r2.Vec, float64) {
	ps := in.Pairs.State(i)
	if !ps.Paired() {
		return breakEcho(in, ps)
	}

	cfg := &in.Cfg.Forces
	j := ps.Partner
	pos := Planar(in.Agents[i].Position)
	partnerPos := Planar(in.Agents[j].Position)

	toPartner := r2.Sub(partnerPos, pos)
	dist := r2.Norm(toPartner)
	dir := unitOr(toPartner, RandomUnit(in.Rng))

	var force r2.Vec

	// Separation keeps the pair near the desired spacing
	spacing := cfg.PairSpacing
	switch {
	case dist < spacing:
		force = r2.Add(force, r2.Scale(-cfg.SeparationStrength*(spacing-dist)/spacing, dir))
	case dist > 1.5*spacing:
		over := math.Min((dist-1.5*spacing)/spacing, 1)
		force = r2.Add(force, r2.Scale(0.5*cfg.SeparationStrength*over, dir))
	}

	// Cohesion toward the midpoint
	mid := lerp(pos, partnerPos, 0.5)
	force = r2.Add(force, r2.Scale(cfg.CohesionStrength, r2.Sub(mid, pos)))

	// Alignment and travel along the shared heading
	shared := in.Pairs.ensureDirection(i, j, in.Rng)
	ease := EaseFactor(ps.FramesPaired, in.Cfg.Pairing.EaseFrames)
	force = r2.Add(force, headingForce(cfg, shared.Heading, Planar(in.Velocity[i]), ease))

	// Lateral jitter, scaled down from solo wander noise
	jitter := (in.Rng.Float64()*2 - 1) * PairedJitterStrength(in.Cfg)
	force = r2.Add(force, r2.Scale(jitter, perp(dir)))

	return force, in.Cfg.Exploration.PairedFactor
}

// PairedJitterStrength is the largest lateral jitter a paired agent receives.
func PairedJitterStrength(cfg *config.Config) float64 {
	ex := &cfg.Exploration
	return ex.WanderStrength * ex.NoiseStrength * cfg.Forces.PairedJitterFactor
}

// UpdatePairs recomputes every pair's shared heading and then draws its
// probabilistic break. Each pair is visited once per tick, whether or not
// either member is free to move.
func UpdatePairs(in *ForceInput) {
	pc := &in.Cfg.Pairing
	in.pairList = in.Pairs.Pairs(in.pairList[:0])
	for _, p := range in.pairList {
		i, j := p[0], p[1]
		framesPaired := in.Pairs.State(i).FramesPaired

		mid := lerp(Planar(in.Agents[i].Position), Planar(in.Agents[j].Position), 0.5)
		steerHeading(in, i, j, mid, in.Pairs.ensureDirection(i, j, in.Rng), framesPaired)

		if framesPaired > pc.MinFrames && in.Rng.Float64() < pc.BreakProbability {
			in.Pairs.Break(i, j, BreakChance)
		}
	}
}

// headingForce steers velocity toward heading and adds forward travel, both scaled by ease.
func headingForce(cfg *config.ForcesConfig, heading, velocity r2.Vec, ease float64) r2.Vec {
	align := r2.Scale(cfg.AlignmentStrength*ease, r2.Sub(r2.Scale(cfg.AlignSpeed, heading), velocity))
	travel := r2.Scale(cfg.TravelStrength*ease, heading)
	return r2.Add(align, travel)
}

// steerHeading recomputes the shared heading of the pair (i, j), i < j.
func steerHeading(in *ForceInput, i, j int, mid r2.Vec, shared *components.PairDirection, framesPaired int) {
	cfg := &in.Cfg.Forces

	// Tangent to the orbit through the pair midpoint, for group drift
	tangent := unitOr(perp(mid), shared.Heading)

	// Recent average velocity of the pair from position deltas
	vi := r2.Sub(Planar(in.Agents[i].Position), Planar(in.LastPos[i]))
	vj := r2.Sub(Planar(in.Agents[j].Position), Planar(in.LastPos[j]))
	avg := r2.Scale(0.5, r2.Add(vi, vj))

	desired := r2.Scale(cfg.TangentWeight, tangent)
	if r2.Norm(avg) > degenerateEps {
		desired = r2.Add(desired, r2.Scale(1-cfg.TangentWeight, unitOr(avg, tangent)))
	}
	desired = unitOr(desired, tangent)

	if framesPaired%cfg.JitterInterval == 0 {
		desired = rotate(desired, (in.Rng.Float64()*2-1)*cfg.JitterAngle)
	}

	smoothed := lerp(shared.Heading, desired, cfg.HeadingSmoothing)
	shared.Heading = unitOr(smoothed, desired)
}

// breakEcho fades the old pair's heading force out over the grace window.
// Exploration returns as the echo fades.
func breakEcho(in *ForceInput, ps *components.PairState) (r2.Vec, float64) {
	window := in.Cfg.Pairing.BreakGrace
	if ps.BreakGrace <= 0 || window <= 0 || r2.Norm2(ps.BreakHeading) < degenerateEps {
		return r2.Vec{}, 1
	}

	w := clamp01(float64(ps.BreakGrace)/float64(window)) * ps.BreakEase
	cfg := &in.Cfg.Forces
	force := r2.Scale(w*(cfg.AlignmentStrength*cfg.AlignSpeed+cfg.TravelStrength), ps.BreakHeading)

	paired := in.Cfg.Exploration.PairedFactor
	return force, paired + (1-paired)*(1-w)
}
