package engine

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/peakswarm/config"
)

// goldenAngle spreads consecutive agents evenly around the pattern.
var goldenAngle = math.Pi * (3 - math.Sqrt(5))

// updateTargets recomputes the ambient pattern for every agent.
func (e *Engine) updateTargets() {
	n := len(e.agents)
	for i := range e.agents {
		e.targets[i] = PatternTarget(&e.cfg.Pattern, i, n, e.agents[i].Seed, e.patternTime)
	}
}

// PatternTarget returns agent i's place in a rotating golden-angle disc of n
// agents at pattern time t. Each ring breathes slightly with the agent's seed.
func PatternTarget(pc *config.PatternConfig, i, n int, seed, t float64) r2.Vec {
	if n <= 0 {
		return r2.Vec{}
	}
	frac := math.Sqrt((float64(i) + 0.5) / float64(n))
	radius := pc.BaseRadius + pc.Spread*frac
	radius += pc.Wobble * math.Sin(t*0.5+seed*2*math.Pi)

	angle := float64(i)*goldenAngle + t*pc.AngularSpeed
	s, c := math.Sincos(angle)
	return r2.Vec{X: c * radius, Y: s * radius}
}
