package ui

import (
	"fmt"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Title          string
	Agents         int
	Visible        int
	Paired         int
	Step           int
	SimTime        float64
	FrameSkip      int
	FPS            int32
	Paused         bool
	TargetLocked   bool
	PairedFraction float64 // from the last telemetry window
	ScreenWidth    int32
	ScreenHeight   int32
}

// HUD renders the main heads-up display.
type HUD struct {
	renderer *Renderer
}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{
		renderer: NewRenderer(),
	}
}

// Draw renders the HUD in the top-right corner.
func (h *HUD) Draw(data HUDData) {
	x := data.ScreenWidth - 300

	rl.DrawText(data.Title, x, 10, 20, rl.White)

	rl.DrawText(
		fmt.Sprintf("Agents: %d | Visible: %d | Paired: %d", data.Agents, data.Visible, data.Paired),
		x, 35, 14, rl.LightGray,
	)

	rl.DrawText(
		fmt.Sprintf("Step: %d | t=%.1fs | Skip: %d | FPS: %d", data.Step, data.SimTime, data.FrameSkip, data.FPS),
		x, 53, 14, rl.LightGray,
	)

	rl.DrawText(fmt.Sprintf("Paired fraction (window): %.2f", data.PairedFraction), x, 71, 14, rl.LightGray)

	// Status
	statusText := "Running"
	if data.Paused {
		statusText = "PAUSED"
	}
	if data.TargetLocked {
		statusText += " | pattern locked"
	}
	rl.DrawText(statusText, x, 91, 14, rl.Yellow)
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenWidth, screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-25, 14, rl.Gray)
}

// PerfPanelData holds performance metrics for display.
type PerfPanelData struct {
	PhaseTimes map[string]time.Duration
	Total      time.Duration
	Labels     map[string]string // display names by phase ID; missing IDs are shown as-is
}

// PerfPanel renders the step phase timing panel.
type PerfPanel struct {
	renderer *Renderer
	x, y     int32
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel(x, y int32) *PerfPanel {
	return &PerfPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
	}
}

// SetPosition updates the panel position.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the performance panel with phases in the given order.
func (p *PerfPanel) Draw(data PerfPanelData, phases []string) {
	x := p.x
	y := p.y

	rl.DrawText("Step Phases", x, y, 16, rl.White)
	y += 20

	rl.DrawText(fmt.Sprintf("Total: %s", data.Total.Round(time.Microsecond)), x, y, 14, rl.Yellow)
	y += 16

	for _, id := range phases {
		avg := data.PhaseTimes[id]
		name := id
		if label, ok := data.Labels[id]; ok {
			name = label
		}
		pct := float64(0)
		if data.Total > 0 {
			pct = float64(avg) / float64(data.Total) * 100
		}

		color := rl.LightGray
		if pct > 50 {
			color = rl.Red
		} else if pct > 25 {
			color = rl.Orange
		}

		rl.DrawText(
			fmt.Sprintf("%-14s %8s %5.1f%%", name, avg.Round(time.Microsecond), pct),
			x, y, 12, color,
		)
		y += 14
	}
}
