package game

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/peakswarm/renderer"
)

// handleInput processes keyboard and mouse input.
func (g *Game) handleInput() {
	g.handleResize()

	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}

	if rl.IsKeyPressed(rl.KeySpace) {
		g.TogglePause()
	}
	if rl.IsKeyPressed(rl.KeyL) {
		g.SetTargetLock(!g.engine.TargetLocked())
	}

	// Frame skip with < > keys (comma and period)
	skip := g.engine.FrameSkip()
	if rl.IsKeyPressed(rl.KeyComma) && skip > 1 {
		g.SetFrameSkip(skip - 1)
	}
	if rl.IsKeyPressed(rl.KeyPeriod) && skip < 10 {
		g.SetFrameSkip(skip + 1)
	}

	// Population with [ and ]
	if rl.IsKeyPressed(rl.KeyLeftBracket) {
		g.Resize(g.pop.Len() - populationStep)
	}
	if rl.IsKeyPressed(rl.KeyRightBracket) {
		g.Resize(g.pop.Len() + populationStep)
	}

	if rl.IsKeyPressed(rl.KeyO) {
		g.Gather()
	}
	if rl.IsKeyPressed(rl.KeyU) {
		g.Release()
	}
	if rl.IsKeyPressed(rl.KeyR) {
		g.Reset()
	}
	if rl.IsKeyPressed(rl.KeyF5) {
		g.SaveSnapshot()
	}
	if rl.IsKeyPressed(rl.KeyTab) {
		g.controls.Toggle()
	}
	if rl.IsKeyPressed(rl.KeyF3) {
		g.showPerf = !g.showPerf
	}

	// Selected agent controls
	if rl.IsKeyPressed(rl.KeyI) {
		g.ToggleVisible(g.selected)
	}
	if rl.IsKeyPressed(rl.KeyK) {
		g.ToggleLocked(g.selected)
	}
	if rl.IsKeyPressed(rl.KeyEscape) {
		g.selected = -1
	}

	// Overlay toggles
	if key := rl.GetKeyPressed(); key != 0 {
		g.overlays.HandleKeyPress(key)
	}

	g.handleCameraInput()
	g.handleSelection()
}

// handleResize checks for window resize and propagates new dimensions.
func (g *Game) handleResize() {
	if !rl.IsWindowResized() {
		return
	}
	w := float32(rl.GetScreenWidth())
	h := float32(rl.GetScreenHeight())
	if w == g.screenWidth && h == g.screenHeight {
		return
	}
	g.screenWidth = w
	g.screenHeight = h

	g.background.Resize(int32(w), int32(h))
	g.perfPanel.SetPosition(10, int32(h)-150)
	g.inspector.SetPosition(int32(w)-250, 120)
}

// handleCameraInput processes orbit, pan and zoom controls.
func (g *Game) handleCameraInput() {
	const orbitSpeed = 0.03

	if rl.IsKeyDown(rl.KeyRight) {
		g.camera.Orbit(orbitSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyLeft) {
		g.camera.Orbit(-orbitSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyUp) {
		g.camera.Orbit(0, orbitSpeed)
	}
	if rl.IsKeyDown(rl.KeyDown) {
		g.camera.Orbit(0, -orbitSpeed)
	}

	// Pan speed scales with distance for natural feel
	panSpeed := g.camera.Distance * 0.01
	if rl.IsKeyDown(rl.KeyD) {
		g.camera.Pan(panSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyA) {
		g.camera.Pan(-panSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyW) {
		g.camera.Pan(0, panSpeed)
	}
	if rl.IsKeyDown(rl.KeyS) {
		g.camera.Pan(0, -panSpeed)
	}

	// Right-drag orbits
	if rl.IsMouseButtonDown(rl.MouseButtonRight) {
		d := rl.GetMouseDelta()
		g.camera.Orbit(float64(d.X)*0.005, float64(d.Y)*0.005)
	}

	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		g.camera.ZoomBy(1 + float64(wheel)*0.1)
	}
	if rl.IsKeyPressed(rl.KeyEqual) || rl.IsKeyPressed(rl.KeyKpAdd) {
		g.camera.ZoomBy(1.25)
	}
	if rl.IsKeyPressed(rl.KeyMinus) || rl.IsKeyPressed(rl.KeyKpSubtract) {
		g.camera.ZoomBy(0.8)
	}

	if rl.IsKeyPressed(rl.KeyHome) {
		g.camera.Reset()
	}
}

// handleSelection picks the agent under the cursor on left click.
func (g *Game) handleSelection() {
	if !rl.IsMouseButtonPressed(rl.MouseButtonLeft) {
		return
	}
	mouse := rl.GetMousePosition()
	if g.controls.Contains(mouse) {
		return
	}
	ray := rl.GetScreenToWorldRay(mouse, renderer.Camera3D(g.camera))
	g.selected = g.swarm.Pick(ray, g.engine)
}
