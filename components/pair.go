package components

import "gonum.org/v1/gonum/spatial/r2"

// NoPartner marks an unpaired slot.
const NoPartner = -1

// PairState is the per-agent pairing record, indexed by agent index.
type PairState struct {
	Partner      int // agent index or NoPartner
	FramesPaired int // ticks since pairing began (0 while unpaired)
	Cooldown     int // ticks before the agent may search again

	// Break bookkeeping; BreakPartner is only meaningful while BreakGrace > 0
	BreakGrace   int
	BreakPartner int
	BreakHeading r2.Vec  // heading captured at break time (planar x/z)
	BreakEase    float64 // ease factor captured at break time
}

// Unpaired returns the zero state for a fresh slot.
func Unpaired() PairState {
	return PairState{Partner: NoPartner, BreakPartner: NoPartner}
}

// Paired reports whether the agent currently has a partner.
func (p PairState) Paired() bool {
	return p.Partner != NoPartner
}

// InGrace reports whether fading forces toward the ex-partner still apply.
func (p PairState) InGrace() bool {
	return p.BreakGrace > 0 && p.BreakPartner != NoPartner
}

// PairKey identifies an unordered pair by its lower index.
type PairKey int

// KeyFor returns the key for the pair (a, b).
func KeyFor(a, b int) PairKey {
	if a < b {
		return PairKey(a)
	}
	return PairKey(b)
}

// PairDirection is the heading shared by both members of a pair. It is
// rewritten once per tick for the pair as a whole.
type PairDirection struct {
	Heading r2.Vec
}
