package ui

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// ControlsState is the engine-facing state the panel edits.
type ControlsState struct {
	Paused       bool
	TargetLocked bool
	FrameSkip    int
	Population   int
}

// ControlsAction reports which one-shot buttons were pressed this frame.
type ControlsAction struct {
	AddAgents    bool
	RemoveAgents bool
	Gather       bool
	Release      bool
	Reset        bool
	Snapshot     bool
}

// maxFrameSkip bounds the frame skip slider.
const maxFrameSkip = 10

// ControlsPanel renders the left-side controls panel with raygui widgets
// and overlay toggles.
type ControlsPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
	visible  bool

	lastHeight int32
}

// NewControlsPanel creates a new controls panel.
func NewControlsPanel(x, y, width int32) *ControlsPanel {
	return &ControlsPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
		visible:  true,
	}
}

// IsVisible returns whether the panel is shown.
func (c *ControlsPanel) IsVisible() bool {
	return c.visible
}

// Toggle switches panel visibility.
func (c *ControlsPanel) Toggle() bool {
	c.visible = !c.visible
	return c.visible
}

// Contains reports whether a screen point is over the panel.
func (c *ControlsPanel) Contains(p rl.Vector2) bool {
	if !c.visible {
		return false
	}
	return p.X >= float32(c.x) && p.X <= float32(c.x+c.width) && p.Y >= float32(c.y) && p.Y <= float32(c.y+c.lastHeight)
}

// height returns the panel height for the given overlay set.
func (c *ControlsPanel) height(overlays *OverlayRegistry) int32 {
	rows := int32(12)
	if overlays != nil {
		rows += int32(len(overlays.All()) + len(overlays.Categories()))
	}
	return rows*(c.renderer.Theme.LineHeight+6) + c.renderer.Theme.Padding*2
}

// Draw renders the panel, writes edits into state and returns button presses.
func (c *ControlsPanel) Draw(state *ControlsState, overlays *OverlayRegistry) ControlsAction {
	var act ControlsAction
	if !c.visible {
		return act
	}

	r := c.renderer
	padding := r.Theme.Padding
	rowH := float32(r.Theme.LineHeight + 4)
	inner := float32(c.width - padding*2)

	c.lastHeight = c.height(overlays)
	r.DrawPanel(c.x, c.y, c.width, c.lastHeight)

	x := float32(c.x + padding)
	y := float32(c.y + padding)

	rl.DrawText("Swarm", int32(x), int32(y), 16, rl.White)
	y += rowH + 4

	// Simulation toggles
	state.Paused = gui.CheckBox(rl.Rectangle{X: x, Y: y, Width: 14, Height: 14}, "Paused [Space]", state.Paused)
	y += rowH
	state.TargetLocked = gui.CheckBox(rl.Rectangle{X: x, Y: y, Width: 14, Height: 14}, "Lock pattern [L]", state.TargetLocked)
	y += rowH + 2

	// Frame skip
	rl.DrawText(fmt.Sprintf("Frame skip: %d", state.FrameSkip), int32(x), int32(y), r.Theme.FontSize, r.Theme.LabelColor)
	y += rowH - 2
	skip := gui.SliderBar(rl.Rectangle{X: x, Y: y, Width: inner - 30, Height: 14}, "", "", float32(state.FrameSkip), 1, maxFrameSkip)
	state.FrameSkip = max(1, int(skip+0.5))
	y += rowH + 2

	// Population
	half := (inner - 6) / 2
	rl.DrawText(fmt.Sprintf("Agents: %d", state.Population), int32(x), int32(y), r.Theme.FontSize, r.Theme.LabelColor)
	y += rowH - 2
	act.RemoveAgents = gui.Button(rl.Rectangle{X: x, Y: y, Width: half, Height: 20}, "Remove")
	act.AddAgents = gui.Button(rl.Rectangle{X: x + half + 6, Y: y, Width: half, Height: 20}, "Add")
	y += 26

	// Overrides
	act.Gather = gui.Button(rl.Rectangle{X: x, Y: y, Width: half, Height: 20}, "Gather [O]")
	act.Release = gui.Button(rl.Rectangle{X: x + half + 6, Y: y, Width: half, Height: 20}, "Release [U]")
	y += 26

	act.Reset = gui.Button(rl.Rectangle{X: x, Y: y, Width: half, Height: 20}, "Reset [R]")
	act.Snapshot = gui.Button(rl.Rectangle{X: x + half + 6, Y: y, Width: half, Height: 20}, "Snapshot [F5]")
	y += 30

	// Overlay toggles by category
	if overlays == nil {
		return act
	}
	for _, category := range overlays.Categories() {
		rl.DrawText(categoryLabel(category), int32(x), int32(y), r.Theme.HeaderFontSize, r.Theme.SectionHeader)
		y += rowH
		for _, desc := range overlays.ByCategory(category) {
			label := fmt.Sprintf("%s [%s]", desc.Name, desc.KeyLabel)
			enabled := overlays.IsEnabled(desc.ID)
			if gui.CheckBox(rl.Rectangle{X: x, Y: y, Width: 14, Height: 14}, label, enabled) != enabled {
				overlays.Toggle(desc.ID)
			}
			y += rowH
		}
		y += 4
	}

	return act
}

// categoryLabel returns a display label for an overlay category.
func categoryLabel(cat string) string {
	switch cat {
	case "visual":
		return "Visual"
	case "debug":
		return "Debug"
	default:
		return cat
	}
}
