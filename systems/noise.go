package systems

import (
	opensimplex "github.com/ojrac/opensimplex-go"
)

// seedSpacing separates per-agent noise tracks in the second noise dimension.
const seedSpacing = 37.0

// NoiseField generates the low-frequency wander signal for exploration.
type NoiseField struct {
	noise opensimplex.Noise
}

// NewNoiseField creates a noise field from a generator seed.
func NewNoiseField(seed int64) *NoiseField {
	return &NoiseField{noise: opensimplex.New(seed)}
}

// Wander samples two decorrelated noise tracks in [-1, 1] for one agent.
// agentSeed offsets the tracks so agents do not move in lockstep.
func (n *NoiseField) Wander(agentSeed, t, frequency float64) (x, z float64) {
	s := agentSeed * seedSpacing
	x = n.noise.Eval2(t*frequency, s)
	z = n.noise.Eval2(s+1000, t*frequency)
	return x, z
}
