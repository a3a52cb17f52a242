package systems

import (
	"math/rand"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/peakswarm/components"
	"github.com/pthm-cable/peakswarm/config"
)

// BreakReason records why a pair dissolved.
type BreakReason uint8

const (
	BreakDistance   BreakReason = iota // partners drifted beyond the keep radius
	BreakChance                        // probabilistic dissolution after the minimum duration
	BreakIneligible                    // a member became invisible or lost its complementary category
)

// PairEvents counts pairing transitions since the registry was created or reset.
type PairEvents struct {
	Formed           int
	DistanceBreaks   int
	ChanceBreaks     int
	IneligibleBreaks int
	DroppedByResize  int // links cleared because the partner was removed
}

// PairingRegistry owns per-agent pair state and the shared pair headings.
type PairingRegistry struct {
	cfg        *config.Config
	states     []components.PairState
	directions map[components.PairKey]*components.PairDirection
	scratch    []int
	events     PairEvents
}

// NewPairingRegistry creates an empty registry.
func NewPairingRegistry(cfg *config.Config) *PairingRegistry {
	return &PairingRegistry{
		cfg:        cfg,
		directions: make(map[components.PairKey]*components.PairDirection),
		scratch:    make([]int, 0, 64),
	}
}

// Len returns the number of tracked agents.
func (r *PairingRegistry) Len() int {
	return len(r.states)
}

// State returns the pair record for agent i.
func (r *PairingRegistry) State(i int) *components.PairState {
	return &r.states[i]
}

// Partner returns the partner of i or NoPartner.
func (r *PairingRegistry) Partner(i int) int {
	return r.states[i].Partner
}

// Direction returns the shared heading for the pair containing i and j, or nil.
func (r *PairingRegistry) Direction(i, j int) *components.PairDirection {
	return r.directions[components.KeyFor(i, j)]
}

// ensureDirection returns the shared heading for (i, j), creating a random one if absent.
func (r *PairingRegistry) ensureDirection(i, j int, rng *rand.Rand) *components.PairDirection {
	key := components.KeyFor(i, j)
	dir, ok := r.directions[key]
	if !ok {
		dir = &components.PairDirection{Heading: RandomUnit(rng)}
		r.directions[key] = dir
	}
	return dir
}

// Events returns the cumulative transition counters.
func (r *PairingRegistry) Events() PairEvents {
	return r.events
}

// Resize grows or truncates the registry to n agents. New slots are unpaired.
// Links to removed indices are cleared on the surviving partner.
func (r *PairingRegistry) Resize(n int) {
	if n < 0 {
		n = 0
	}
	if n < len(r.states) {
		r.states = r.states[:n]
		for i := range r.states {
			p := &r.states[i]
			if p.Partner >= n {
				p.Partner = components.NoPartner
				p.FramesPaired = 0
				r.events.DroppedByResize++
			}
			if p.BreakPartner >= n {
				p.BreakPartner = components.NoPartner
			}
		}
	}
	for len(r.states) < n {
		r.states = append(r.states, components.Unpaired())
	}

	for k := range r.directions {
		i := int(k)
		if i >= n || r.states[i].Partner == components.NoPartner {
			delete(r.directions, k)
		}
	}
}

// Reset returns every agent to the unpaired state and zeroes the counters.
func (r *PairingRegistry) Reset() {
	for i := range r.states {
		r.states[i] = components.Unpaired()
	}
	clear(r.directions)
	r.events = PairEvents{}
}

// Update runs the per-tick pairing passes in order: timers, break check, formation.
func (r *PairingRegistry) Update(agents []components.Agent, index *SpatialIndex, rng *rand.Rand) {
	r.Advance()
	r.BreakDistant(agents)
	r.Form(agents, index, rng)
}

// Advance decrements cooldown and grace timers and ages existing pairs.
func (r *PairingRegistry) Advance() {
	for i := range r.states {
		p := &r.states[i]
		if p.Cooldown > 0 {
			p.Cooldown--
		}
		if p.BreakGrace > 0 {
			p.BreakGrace--
			if p.BreakGrace == 0 {
				p.BreakPartner = components.NoPartner
			}
		}
		if p.Paired() {
			p.FramesPaired++
		}
	}
}

// BreakDistant dissolves pairs whose members are farther apart than the keep
// radius, or that are no longer eligible to be paired. Each pair is visited once.
func (r *PairingRegistry) BreakDistant(agents []components.Agent) {
	keepSq := r.cfg.Derived.KeepRadSq
	for i := range r.states {
		j := r.states[i].Partner
		if j == components.NoPartner || j < i {
			continue
		}
		a, b := &agents[i], &agents[j]
		switch {
		case !a.Visible || !b.Visible || !components.Complementary(a.Category, b.Category):
			r.Break(i, j, BreakIneligible)
		case PlanarDistSq(a.Position, b.Position) > keepSq:
			r.Break(i, j, BreakDistance)
		}
	}
}

// Form links each eligible unpaired agent with its closest eligible candidate.
func (r *PairingRegistry) Form(agents []components.Agent, index *SpatialIndex, rng *rand.Rand) {
	radius := r.cfg.Pairing.FormationRadius
	radiusSq := r.cfg.Derived.FormationRadSq

	for i := range r.states {
		if !r.seeking(agents, i) {
			continue
		}
		me := &agents[i]

		best := components.NoPartner
		bestDistSq := radiusSq
		r.scratch = index.QueryInto(r.scratch[:0], me.Position, radius)
		for _, j := range r.scratch {
			if j == i || j >= len(r.states) || !r.seeking(agents, j) {
				continue
			}
			if !components.Complementary(me.Category, agents[j].Category) {
				continue
			}
			d := PlanarDistSq(me.Position, agents[j].Position)
			if d > radiusSq {
				continue
			}
			if best == components.NoPartner || d < bestDistSq || (d == bestDistSq && j < best) {
				best = j
				bestDistSq = d
			}
		}

		if best != components.NoPartner {
			r.Link(i, best, rng)
		}
	}
}

// seeking reports whether agent i may enter a new pair this tick.
func (r *PairingRegistry) seeking(agents []components.Agent, i int) bool {
	p := &r.states[i]
	a := &agents[i]
	return !p.Paired() && p.Cooldown == 0 && a.Visible && a.Category.Valid()
}

// Link pairs i and j symmetrically and creates their shared heading if absent.
func (r *PairingRegistry) Link(i, j int, rng *rand.Rand) {
	if i == j {
		return
	}
	r.states[i].Partner = j
	r.states[i].FramesPaired = 0
	r.states[j].Partner = i
	r.states[j].FramesPaired = 0

	r.ensureDirection(i, j, rng)
	r.events.Formed++
}

// Break dissolves the pair (i, j), starting cooldown and grace on both sides.
// The shared heading and current ease are captured so the members coast out.
func (r *PairingRegistry) Break(i, j int, reason BreakReason) {
	if r.states[i].Partner != j || r.states[j].Partner != i {
		return
	}

	var heading r2.Vec
	key := components.KeyFor(i, j)
	if dir, ok := r.directions[key]; ok {
		heading = dir.Heading
		delete(r.directions, key)
	}
	ease := EaseFactor(r.states[i].FramesPaired, r.cfg.Pairing.EaseFrames)

	for _, pair := range [2][2]int{{i, j}, {j, i}} {
		p := &r.states[pair[0]]
		p.Partner = components.NoPartner
		p.FramesPaired = 0
		p.Cooldown = r.cfg.Pairing.Cooldown
		p.BreakGrace = r.cfg.Pairing.BreakGrace
		p.BreakPartner = pair[1]
		p.BreakHeading = heading
		p.BreakEase = ease
	}

	switch reason {
	case BreakDistance:
		r.events.DistanceBreaks++
	case BreakChance:
		r.events.ChanceBreaks++
	case BreakIneligible:
		r.events.IneligibleBreaks++
	}
}

// Pairs appends every current pair as (lower, higher) to dst.
func (r *PairingRegistry) Pairs(dst [][2]int) [][2]int {
	for i := range r.states {
		if j := r.states[i].Partner; j > i {
			dst = append(dst, [2]int{i, j})
		}
	}
	return dst
}

// PairedCount returns the number of agents that currently have a partner.
func (r *PairingRegistry) PairedCount() int {
	n := 0
	for i := range r.states {
		if r.states[i].Paired() {
			n++
		}
	}
	return n
}

// EaseFactor ramps new pair forces from 0 to 1 over easeFrames ticks.
func EaseFactor(framesPaired, easeFrames int) float64 {
	if easeFrames <= 0 {
		return 1
	}
	return Smoothstep(float64(framesPaired) / float64(easeFrames))
}
