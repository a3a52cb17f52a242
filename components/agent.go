package components

import "gonum.org/v1/gonum/spatial/r3"

// Agent is one swarm anchor. Only X and Z of Position take part in swarm
// logic; Y is the caller's height mapping and is never written by the engine.
type Agent struct {
	Position r3.Vec
	Category Category
	Seed     float64 // exploration randomizer, fixed at creation
	Visible  bool
	Locked   bool
}

// Descriptor is one entry of the population snapshot handed to the engine.
type Descriptor struct {
	Category Category
	Visible  bool
	Locked   bool
	Height   float64 // vertical component, owned by the caller
	Spawn    r3.Vec  // initial position, only read when the slot is new
}

// OverrideMode selects how an external target takes over an agent.
type OverrideMode uint8

const (
	OverrideNone   OverrideMode = iota
	OverrideSnap                // caller owns the position; the agent is placed on Target and locked
	OverrideSmooth              // engine interpolates toward Target, then latches to locked
)

// Override is an externally supplied position target.
type Override struct {
	Mode   OverrideMode
	Target r3.Vec
}
