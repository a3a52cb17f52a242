package engine

import (
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/peakswarm/components"
	"github.com/pthm-cable/peakswarm/config"
	"github.com/pthm-cable/peakswarm/systems"
)

// Read-only views of the engine state. Results are only consistent between
// Tick calls.

// Len returns the number of agents.
func (e *Engine) Len() int {
	return len(e.agents)
}

// Config returns the engine configuration.
func (e *Engine) Config() *config.Config {
	return e.cfg
}

// Agent returns a copy of agent i.
func (e *Engine) Agent(i int) components.Agent {
	return e.agents[i]
}

// Position returns the current position of agent i.
func (e *Engine) Position(i int) r3.Vec {
	return e.agents[i].Position
}

// Velocity returns the current velocity of agent i.
func (e *Engine) Velocity(i int) r3.Vec {
	return e.velocity[i]
}

// Target returns the ambient pattern target of agent i on the x/z plane.
func (e *Engine) Target(i int) r2.Vec {
	return e.targets[i]
}

// Held reports whether agent i is locked or held by an override.
func (e *Engine) Held(i int) bool {
	return e.held(i)
}

// Override returns the active override of agent i.
func (e *Engine) Override(i int) components.Override {
	return e.overrides[i]
}

// Positions appends every agent position to dst.
func (e *Engine) Positions(dst []r3.Vec) []r3.Vec {
	for i := range e.agents {
		dst = append(dst, e.agents[i].Position)
	}
	return dst
}

// Nearby returns the indices of agents within radius of pos on the x/z plane.
// Positions are compared as they are now, so the result is exact even after
// the step has moved agents away from their indexed cells.
func (e *Engine) Nearby(pos r3.Vec, radius float64) []int {
	if radius < 0 {
		return nil
	}
	rsq := radius * radius
	var out []int
	for i := range e.agents {
		if systems.PlanarDistSq(e.agents[i].Position, pos) <= rsq {
			out = append(out, i)
		}
	}
	return out
}

// Pairs returns every current pair as (lower, higher) index.
func (e *Engine) Pairs() [][2]int {
	return e.pairs.Pairs(nil)
}

// PairState returns a copy of the pairing record of agent i.
func (e *Engine) PairState(i int) components.PairState {
	return *e.pairs.State(i)
}

// Time returns the simulated time in seconds.
func (e *Engine) Time() float64 {
	return e.time
}

// Counters returns progress and pairing totals.
func (e *Engine) Counters() Counters {
	return Counters{
		Frames: e.frames,
		Steps:  e.steps,
		Agents: len(e.agents),
		Paired: e.pairs.PairedCount(),
		Events: e.pairs.Events(),
	}
}

// PairEvents returns the cumulative pairing transition counters.
func (e *Engine) PairEvents() systems.PairEvents {
	return e.pairs.Events()
}
