package game

import (
	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/peakswarm/renderer"
	"github.com/pthm-cable/peakswarm/systems"
	"github.com/pthm-cable/peakswarm/ui"
)

const controlsLegend = "Space: pause | L: lock pattern | [ ]: agents | < >: skip | O/U: gather/release | R: reset | F5: snapshot | Tab: panel | F3: perf | Arrows/WASD/wheel: camera"

// Draw renders the game.
func (g *Game) Draw() {
	g.perfCollector.RecordFrame()

	rl.BeginDrawing()
	rl.ClearBackground(rl.Black)

	g.background.Draw()

	g.swarm.Draw(renderer.Camera3D(g.camera), g.engine, renderer.DrawOptions{
		ColorByPair: g.overlays.IsEnabled(ui.OverlayPairColors),
		PairLinks:   g.overlays.IsEnabled(ui.OverlayPairLinks),
		Targets:     g.overlays.IsEnabled(ui.OverlayTargets),
		Boundary:    g.overlays.IsEnabled(ui.OverlayBoundary),
		HeightStems: g.overlays.IsEnabled(ui.OverlayHeightStems),
		Grid:        g.overlays.IsEnabled(ui.OverlayGrid),
		Selected:    g.selected,
	})

	counters := g.engine.Counters()
	g.hud.Draw(ui.HUDData{
		Title:          "Peak Swarm",
		Agents:         counters.Agents,
		Visible:        g.pop.VisibleCount(),
		Paired:         counters.Paired,
		Step:           counters.Steps,
		SimTime:        g.engine.Time(),
		FrameSkip:      g.engine.FrameSkip(),
		FPS:            rl.GetFPS(),
		Paused:         g.paused,
		TargetLocked:   g.engine.TargetLocked(),
		PairedFraction: g.lastStats.PairedFraction,
		ScreenWidth:    int32(g.screenWidth),
		ScreenHeight:   int32(g.screenHeight),
	})

	if g.controls.IsVisible() {
		g.drawControlsPanel()
	}

	if info := g.selectedInfo(); info != nil {
		g.inspector.Draw(info)
	}

	if g.showPerf {
		perfStats := g.perfCollector.Stats()
		g.perfPanel.Draw(ui.PerfPanelData{
			PhaseTimes: perfStats.PhaseAvg,
			Total:      perfStats.AvgTickDuration,
			Labels:     g.phaseLabels,
		}, g.phases.IDs())
	}

	g.hud.DrawControls(int32(g.screenWidth), int32(g.screenHeight), controlsLegend)

	rl.EndDrawing()
}

// drawControlsPanel draws the raygui panel and applies whatever it changed.
func (g *Game) drawControlsPanel() {
	state := ui.ControlsState{
		Paused:       g.paused,
		TargetLocked: g.engine.TargetLocked(),
		FrameSkip:    g.engine.FrameSkip(),
		Population:   g.pop.Len(),
	}
	action := g.controls.Draw(&state, g.overlays)

	g.paused = state.Paused
	g.SetTargetLock(state.TargetLocked)
	if state.FrameSkip != g.engine.FrameSkip() {
		g.SetFrameSkip(state.FrameSkip)
	}

	switch {
	case action.AddAgents:
		g.Resize(g.pop.Len() + populationStep)
	case action.RemoveAgents:
		g.Resize(g.pop.Len() - populationStep)
	case action.Gather:
		g.Gather()
	case action.Release:
		g.Release()
	case action.Reset:
		g.Reset()
	case action.Snapshot:
		g.SaveSnapshot()
	}
}

// selectedInfo gathers inspector data for the selected agent, or nil.
func (g *Game) selectedInfo() *ui.AgentInfo {
	i := g.selected
	if i < 0 || i >= g.engine.Len() {
		return nil
	}
	a := g.engine.Agent(i)
	ps := g.engine.PairState(i)
	vel := g.engine.Velocity(i)

	return &ui.AgentInfo{
		Index:        i,
		Category:     a.Category.String(),
		Color:        renderer.CategoryColor(a.Category),
		X:            a.Position.X,
		Y:            a.Position.Y,
		Z:            a.Position.Z,
		Speed:        r3.Norm(vel),
		Visible:      a.Visible,
		Held:         g.engine.Held(i),
		Partner:      ps.Partner,
		FramesPaired: ps.FramesPaired,
		Ease:         systems.EaseFactor(ps.FramesPaired, g.cfg.Pairing.EaseFrames),
		Cooldown:     ps.Cooldown,
		CooldownMax:  g.cfg.Pairing.Cooldown,
		BreakGrace:   ps.BreakGrace,
		GraceMax:     g.cfg.Pairing.BreakGrace,
	}
}
