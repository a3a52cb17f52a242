// Package game wires the host population, the swarm engine, telemetry and
// the raylib view into a runnable demo.
package game

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/peakswarm/camera"
	"github.com/pthm-cable/peakswarm/components"
	"github.com/pthm-cable/peakswarm/config"
	"github.com/pthm-cable/peakswarm/engine"
	"github.com/pthm-cable/peakswarm/host"
	"github.com/pthm-cable/peakswarm/renderer"
	"github.com/pthm-cable/peakswarm/telemetry"
	"github.com/pthm-cable/peakswarm/ui"
)

// populationStep is how many agents the add/remove controls change at once.
const populationStep = 10

// Options configures a new game.
type Options struct {
	Config         *config.Config // nil uses config.Cfg()
	Seed           int64
	LogStats       bool
	StatsWindowSec float64 // 0 uses telemetry.stats_window
	SnapshotDir    string
	OutputDir      string
	Headless       bool
	StepsPerUpdate int // frames per UpdateHeadless call
	Population     int // 0 uses population.initial
	Logger         *slog.Logger
}

// Game holds the complete demo state.
type Game struct {
	cfg    *config.Config
	rng    *rand.Rand
	seed   int64
	logger *slog.Logger

	pop    *host.Population
	engine *engine.Engine
	descs  []components.Descriptor

	// Telemetry
	collector        *telemetry.Collector
	perfCollector    *telemetry.PerfCollector
	outputManager    *telemetry.OutputManager
	bookmarkDetector *telemetry.BookmarkDetector
	statsCallback    func(telemetry.WindowStats)
	lastStats        telemetry.WindowStats
	logStats         bool
	snapshotDir      string

	// Control
	headless       bool
	paused         bool
	stepsPerUpdate int
	selected       int

	// View (graphical mode only)
	camera     *camera.Camera
	swarm      *renderer.SwarmRenderer
	background *renderer.BackgroundRenderer
	hud        *ui.HUD
	perfPanel  *ui.PerfPanel
	controls   *ui.ControlsPanel
	inspector  *ui.Inspector
	overlays   *ui.OverlayRegistry
	showPerf   bool

	phases      *telemetry.PhaseRegistry
	phaseLabels map[string]string

	screenWidth, screenHeight float32
}

// stepTimer forwards engine phases to the perf collector but leaves the tick
// open so telemetry work is timed as its own phase.
type stepTimer struct {
	*telemetry.PerfCollector
}

func (s stepTimer) EndTick() {
	s.StartPhase(telemetry.PhaseTelemetry)
}

// NewGameWithOptions creates a game with the given options.
func NewGameWithOptions(opts Options) (*Game, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Cfg()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	rng := rand.New(rand.NewSource(opts.Seed))

	statsWindow := opts.StatsWindowSec
	if statsWindow <= 0 {
		statsWindow = cfg.Telemetry.StatsWindow
	}
	stepsPerUpdate := opts.StepsPerUpdate
	if stepsPerUpdate < 1 {
		stepsPerUpdate = 1
	}

	g := &Game{
		cfg:              cfg,
		rng:              rng,
		seed:             opts.Seed,
		logger:           logger,
		pop:              host.NewPopulation(cfg, rng),
		collector:        telemetry.NewCollector(statsWindow, cfg.Tick.DT),
		perfCollector:    telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow),
		bookmarkDetector: telemetry.NewBookmarkDetector(10),
		logStats:         opts.LogStats,
		snapshotDir:      opts.SnapshotDir,
		headless:         opts.Headless,
		stepsPerUpdate:   stepsPerUpdate,
		selected:         -1,
		screenWidth:      float32(cfg.View.Width),
		screenHeight:     float32(cfg.View.Height),
	}

	eng, err := engine.New(cfg, rng,
		engine.WithLogger(logger),
		engine.WithPhaseTimer(stepTimer{g.perfCollector}),
	)
	if err != nil {
		return nil, fmt.Errorf("creating engine: %w", err)
	}
	g.engine = eng

	om, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("creating output manager: %w", err)
	}
	g.outputManager = om
	if err := om.WriteConfig(cfg); err != nil {
		logger.Error("failed to write config", "error", err)
	}

	initial := opts.Population
	if initial <= 0 {
		initial = cfg.Population.Initial
	}
	g.pop.Spawn(initial)
	g.syncPopulation()

	if !opts.Headless {
		g.initView()
	}

	logger.Info("game created",
		"seed", opts.Seed,
		"agents", g.pop.Len(),
		"stats_window", statsWindow,
		"output_dir", om.Dir(),
		"headless", opts.Headless,
	)
	return g, nil
}

// initView creates the raylib-backed view components.
func (g *Game) initView() {
	g.camera = camera.New(g.cfg.Exploration.MaxRange * 1.6)
	g.swarm = renderer.NewSwarmRenderer(g.cfg)
	g.background = renderer.NewBackgroundRenderer(int32(g.screenWidth), int32(g.screenHeight), 30, 40, 60)
	g.hud = ui.NewHUD()
	g.perfPanel = ui.NewPerfPanel(10, int32(g.screenHeight)-150)
	g.controls = ui.NewControlsPanel(10, 10, 220)
	g.inspector = ui.NewInspector(int32(g.screenWidth)-250, 120, 240)

	g.phases = telemetry.NewPhaseRegistry()
	g.phaseLabels = make(map[string]string)
	for _, info := range g.phases.All() {
		g.phaseLabels[info.ID] = info.Name
	}

	g.overlays = ui.NewOverlayRegistry()
	g.overlays.SetEnabled(ui.OverlayCategoryColors, true)
	g.overlays.SetEnabled(ui.OverlayPairLinks, true)
	g.overlays.SetEnabled(ui.OverlayBoundary, true)
}

// SetStatsCallback registers a function called with every flushed window.
func (g *Game) SetStatsCallback(fn func(telemetry.WindowStats)) {
	g.statsCallback = fn
}

// syncPopulation hands the current host snapshot to the engine.
func (g *Game) syncPopulation() {
	g.descs = g.pop.Descriptors(g.descs[:0])
	g.engine.SetPopulation(g.descs)
	if g.selected >= g.pop.Len() {
		g.selected = -1
	}
}

// frame advances one rendered frame: the engine steps every frame_skip frames
// and telemetry is flushed after each step.
func (g *Game) frame() {
	g.syncPopulation()
	if !g.engine.Tick() {
		return
	}
	g.flushTelemetry()
	g.perfCollector.EndTick()
}

// Update handles input and advances one frame unless paused.
func (g *Game) Update() {
	g.handleInput()
	if g.paused {
		return
	}
	g.frame()
}

// UpdateHeadless advances stepsPerUpdate frames without input or rendering.
func (g *Game) UpdateHeadless() {
	if g.paused {
		return
	}
	for range g.stepsPerUpdate {
		g.frame()
	}
}

// Tick returns the number of simulation steps run.
func (g *Game) Tick() int {
	return g.engine.Counters().Steps
}

// Engine exposes the swarm engine.
func (g *Game) Engine() *engine.Engine {
	return g.engine
}

// Population exposes the host population.
func (g *Game) Population() *host.Population {
	return g.pop
}

// LastStats returns the most recently flushed telemetry window.
func (g *Game) LastStats() telemetry.WindowStats {
	return g.lastStats
}

// TogglePause pauses or resumes the simulation.
func (g *Game) TogglePause() {
	g.paused = !g.paused
}

// Paused reports whether the simulation is paused.
func (g *Game) Paused() bool {
	return g.paused
}

// SetTargetLock freezes or releases the ambient pattern.
func (g *Game) SetTargetLock(locked bool) {
	if g.engine.TargetLocked() == locked {
		return
	}
	g.engine.SetTargetLock(locked)
	g.logger.Info("target lock", "locked", locked)
}

// SetFrameSkip changes the simulation cadence.
func (g *Game) SetFrameSkip(n int) {
	g.engine.SetFrameSkip(n)
}

// Resize sets the population to n agents.
func (g *Game) Resize(n int) {
	g.pop.Resize(max(0, n))
	g.syncPopulation()
}

// ToggleVisible hides or shows agent i.
func (g *Game) ToggleVisible(i int) {
	if i < 0 || i >= g.pop.Len() {
		return
	}
	g.pop.SetVisible(i, !g.pop.Flags(i).Visible)
	g.syncPopulation()
}

// ToggleLocked hands agent i to or from external control.
func (g *Game) ToggleLocked(i int) {
	if i < 0 || i >= g.pop.Len() {
		return
	}
	g.pop.SetLocked(i, !g.pop.Flags(i).Locked)
	g.syncPopulation()
}

// Gather overrides every agent to glide onto a ring at the pattern's base radius.
func (g *Game) Gather() {
	n := g.engine.Len()
	radius := g.cfg.Pattern.BaseRadius
	for i := 0; i < n; i++ {
		angle := float64(i) / float64(n) * 2 * math.Pi
		target := r3.Vec{
			X: math.Cos(angle) * radius,
			Y: g.engine.Position(i).Y,
			Z: math.Sin(angle) * radius,
		}
		g.engine.SetOverride(i, components.Override{Mode: components.OverrideSmooth, Target: target})
	}
	g.logger.Info("gather", "agents", n, "radius", radius)
}

// Release returns every overridden agent to swarm control.
func (g *Game) Release() {
	for i := 0; i < g.engine.Len(); i++ {
		g.engine.ClearOverride(i)
	}
	g.logger.Info("release", "agents", g.engine.Len())
}

// Reset restarts pairing and telemetry while keeping the population.
func (g *Game) Reset() {
	g.engine.Reset()
	g.collector.Reset()
	g.lastStats = telemetry.WindowStats{}
}

// Unload releases resources.
func (g *Game) Unload() {
	if err := g.outputManager.Close(); err != nil {
		g.logger.Error("failed to close output", "error", err)
	}
}
