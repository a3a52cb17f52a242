// Package engine runs the swarm motion model: it owns agent positions and
// velocities and advances them once per simulation step.
package engine

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/peakswarm/components"
	"github.com/pthm-cable/peakswarm/config"
	"github.com/pthm-cable/peakswarm/systems"
	"github.com/pthm-cable/peakswarm/telemetry"
)

// PhaseTimer receives step phase boundaries. telemetry.PerfCollector satisfies it.
type PhaseTimer interface {
	StartTick()
	StartPhase(phase string)
	EndTick()
}

type noopTimer struct{}

func (noopTimer) StartTick()        {}
func (noopTimer) StartPhase(string) {}
func (noopTimer) EndTick()          {}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithPhaseTimer attaches a step profiler.
func WithPhaseTimer(p PhaseTimer) Option {
	return func(e *Engine) {
		if p != nil {
			e.perf = p
		}
	}
}

// Counters summarizes engine progress for observers.
type Counters struct {
	Frames int // Tick calls
	Steps  int // simulation steps actually run
	Agents int
	Paired int // agents with a partner
	Events systems.PairEvents
}

// Engine is the swarm simulation. It is not safe for concurrent use; callers
// must not read agent state while Tick is running.
type Engine struct {
	cfg    *config.Config
	rng    *rand.Rand
	logger *slog.Logger
	perf   PhaseTimer

	// Per-agent state, indexed by agent index
	agents    []components.Agent
	velocity  []r3.Vec
	offset    []r2.Vec
	lastPos   []r3.Vec
	prePos    []r3.Vec
	targets   []r2.Vec
	overrides []components.Override

	index  *systems.SpatialIndex
	pairs  *systems.PairingRegistry
	noise  *systems.NoiseField
	forces systems.ForceInput

	frameSkip   int
	frames      int
	steps       int
	time        float64 // simulated seconds
	patternTime float64 // advances only while targets are unlocked
	targetLock  bool
	lastEvents  systems.PairEvents
}

// New creates an engine. The configuration is validated and its derived values
// refreshed; a nil rng is replaced by one seeded from the clock.
func New(cfg *config.Config, rng *rand.Rand, opts ...Option) (*Engine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("engine: %w: nil config", config.ErrInvalid)
	}
	if err := cfg.Finalize(); err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	e := &Engine{
		cfg:       cfg,
		rng:       rng,
		logger:    slog.Default(),
		perf:      noopTimer{},
		index:     systems.NewSpatialIndex(cfg.Grid.CellSize),
		pairs:     systems.NewPairingRegistry(cfg),
		noise:     systems.NewNoiseField(rng.Int63()),
		frameSkip: cfg.Tick.FrameSkip,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// SetPopulation applies a population snapshot. Slots beyond the current
// population are created at their spawn point; surplus slots are discarded
// together with every reference to them. Categories and flags are copied for
// every slot, and the height of each agent is set from its descriptor.
func (e *Engine) SetPopulation(descs []components.Descriptor) {
	old := len(e.agents)
	n := len(descs)

	if n < old {
		e.agents = e.agents[:n]
	}
	for i := old; i < n; i++ {
		e.agents = append(e.agents, components.Agent{
			Position: sanitize(descs[i].Spawn),
			Seed:     e.rng.Float64(),
		})
	}
	for i := range descs {
		d := &descs[i]
		a := &e.agents[i]
		a.Category = d.Category
		a.Visible = d.Visible
		a.Locked = d.Locked
		if !math.IsNaN(d.Height) && !math.IsInf(d.Height, 0) {
			a.Position.Y = d.Height
		}
	}

	e.resize()
	if n != old {
		e.logger.Debug("population resized", "from", old, "to", n)
	}
}

// resize brings every auxiliary array to the agent count. New slots start at
// rest, unpaired, with their current position as history and pattern target.
func (e *Engine) resize() {
	n := len(e.agents)
	if len(e.velocity) == n && e.pairs.Len() == n {
		return
	}

	e.velocity = resizeSlice(e.velocity, n)
	e.offset = resizeSlice(e.offset, n)
	e.overrides = resizeSlice(e.overrides, n)
	e.prePos = resizeSlice(e.prePos, n)

	old := len(e.lastPos)
	e.lastPos = resizeSlice(e.lastPos, n)
	e.targets = resizeSlice(e.targets, n)
	for i := old; i < n; i++ {
		e.lastPos[i] = e.agents[i].Position
		e.targets[i] = systems.Planar(e.agents[i].Position)
	}

	e.pairs.Resize(n)
}

// resizeSlice truncates s or grows it with zero values to length n.
func resizeSlice[T any](s []T, n int) []T {
	if n <= len(s) {
		return s[:n]
	}
	var zero T
	for len(s) < n {
		s = append(s, zero)
	}
	return s
}

// Tick is called once per rendered frame. It runs a simulation step every
// frame_skip calls and reports whether one ran.
func (e *Engine) Tick() bool {
	e.frames++
	if e.frames%e.frameSkip != 0 {
		return false
	}
	e.Step()
	return true
}

// Step runs one simulation step regardless of the frame cadence.
func (e *Engine) Step() {
	e.perf.StartTick()

	// 1. Auxiliary arrays
	e.perf.StartPhase(telemetry.PhaseResize)
	e.resize()

	// 2. Ambient pattern targets
	e.perf.StartPhase(telemetry.PhaseTargets)
	if !e.targetLock {
		e.updateTargets()
		e.patternTime += e.cfg.Tick.DT
	}

	// 3. Spatial index
	e.perf.StartPhase(telemetry.PhaseSpatialIndex)
	e.index.Clear()
	for i := range e.agents {
		e.index.Insert(i, e.agents[i].Position)
	}

	// 4. Pairing, then shared headings and chance breaks for every pair
	e.perf.StartPhase(telemetry.PhasePairing)
	e.pairs.Update(e.agents, e.index, e.rng)
	in := e.forceInput()
	systems.UpdatePairs(in)

	// 5. Forces and integration
	e.perf.StartPhase(telemetry.PhaseForces)
	e.integrate(in)

	// 6. History
	e.perf.StartPhase(telemetry.PhaseHistory)
	e.lastPos, e.prePos = e.prePos, e.lastPos

	e.time += e.cfg.Tick.DT
	e.steps++
	e.logPairEvents()

	e.perf.EndTick()
}

// forceInput refreshes the shared force input for this step.
func (e *Engine) forceInput() *systems.ForceInput {
	in := &e.forces
	in.Cfg = e.cfg
	in.Agents = e.agents
	in.Velocity = e.velocity
	in.LastPos = e.lastPos
	in.Index = e.index
	in.Pairs = e.pairs
	in.Noise = e.noise
	in.Rng = e.rng
	in.Time = e.time
	return in
}

// integrate runs the force model for every movable agent.
func (e *Engine) integrate(in *systems.ForceInput) {
	ic := &e.cfg.Integration
	for i := range e.agents {
		a := &e.agents[i]
		e.prePos[i] = a.Position

		if e.held(i) {
			continue
		}
		if o := &e.overrides[i]; o.Mode == components.OverrideSmooth {
			e.velocity[i] = r3.Vec{}
			if systems.SoftLockStep(ic, &a.Position, systems.Planar(o.Target)) {
				o.Mode = components.OverrideSnap
			}
			continue
		}
		if !a.Visible {
			continue
		}

		force := systems.ApplyRepulsion(in, i)
		pairForce, scale := systems.ApplyPairing(in, i)
		force = r2.Add(force, pairForce)
		force = r2.Add(force, systems.ApplyExploration(in, i, scale))

		paired := e.pairs.State(i).Paired()
		e.offset[i] = systems.Integrate(ic, &a.Position, &e.velocity[i], e.offset[i], force, e.targets[i], paired)
	}
}

// held reports whether agent i is under external position control.
func (e *Engine) held(i int) bool {
	return e.agents[i].Locked || e.overrides[i].Mode == components.OverrideSnap
}

func (e *Engine) logPairEvents() {
	ev := e.pairs.Events()
	if ev == e.lastEvents {
		return
	}
	prev := e.lastEvents
	e.lastEvents = ev
	e.logger.Debug("pairing",
		"step", e.steps,
		"formed", ev.Formed-prev.Formed,
		"distance_breaks", ev.DistanceBreaks-prev.DistanceBreaks,
		"chance_breaks", ev.ChanceBreaks-prev.ChanceBreaks,
		"ineligible_breaks", ev.IneligibleBreaks-prev.IneligibleBreaks,
		"dropped", ev.DroppedByResize-prev.DroppedByResize,
	)
}

// SetTargetLock freezes or releases the ambient pattern targets.
func (e *Engine) SetTargetLock(locked bool) {
	e.targetLock = locked
}

// TargetLocked reports whether the pattern targets are frozen.
func (e *Engine) TargetLocked() bool {
	return e.targetLock
}

// SetFrameSkip changes the step cadence. Values below 1 are raised to 1.
func (e *Engine) SetFrameSkip(n int) {
	e.frameSkip = max(1, n)
}

// FrameSkip returns the number of frames per simulation step.
func (e *Engine) FrameSkip() int {
	return e.frameSkip
}

// SetOverride hands agent i to an external target. Snap places the agent on
// the target and holds it there; Smooth interpolates toward it and then holds.
// OverrideNone releases the agent.
func (e *Engine) SetOverride(i int, o components.Override) {
	if i < 0 || i >= len(e.agents) {
		return
	}
	o.Target = sanitize(o.Target)
	e.overrides[i] = o
	switch o.Mode {
	case components.OverrideSnap:
		systems.Snap(&e.agents[i].Position, systems.Planar(o.Target))
		e.velocity[i] = r3.Vec{}
	case components.OverrideNone:
		e.overrides[i] = components.Override{}
	}
}

// ClearOverride returns agent i to swarm control.
func (e *Engine) ClearOverride(i int) {
	if i < 0 || i >= len(e.agents) {
		return
	}
	e.overrides[i] = components.Override{}
	e.offset[i] = r2.Vec{}
}

// SetPosition moves a held agent. It returns false and does nothing if the
// agent is under swarm control.
func (e *Engine) SetPosition(i int, pos r3.Vec) bool {
	if i < 0 || i >= len(e.agents) || !e.held(i) {
		return false
	}
	e.agents[i].Position = sanitize(pos)
	return true
}

// Reset clears pairing, velocities, offsets and overrides while keeping the
// population and positions.
func (e *Engine) Reset() {
	e.pairs.Reset()
	clear(e.velocity)
	clear(e.offset)
	clear(e.overrides)
	for i := range e.agents {
		e.lastPos[i] = e.agents[i].Position
	}
	e.lastEvents = systems.PairEvents{}
	e.frames = 0
	e.steps = 0
	e.time = 0
	e.patternTime = 0
	e.logger.Info("engine reset", "agents", len(e.agents))
}

// sanitize replaces non-finite coordinates with zero.
func sanitize(v r3.Vec) r3.Vec {
	fix := func(f float64) float64 {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return 0
		}
		return f
	}
	return r3.Vec{X: fix(v.X), Y: fix(v.Y), Z: fix(v.Z)}
}
