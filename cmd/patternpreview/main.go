// Pattern preview tool - interactive view of the ambient pattern and the
// exploration wander noise, with sliders.
//
// Usage: go run ./cmd/patternpreview
package main

import (
	"flag"
	"fmt"
	"image/color"
	"log"
	"math/rand"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/peakswarm/config"
	"github.com/pthm-cable/peakswarm/engine"
	"github.com/pthm-cable/peakswarm/systems"
)

const (
	windowWidth  = 1000
	windowHeight = 720
	previewSize  = 512
	panelWidth   = windowWidth - previewSize - 30

	stripSize = 128 // noise strip texture resolution
	stripSpan = 60  // seconds of wander shown across the strip
)

// PreviewParams holds the pattern and noise parameters being edited.
type PreviewParams struct {
	Agents         int
	BaseRadius     float32
	Spread         float32
	AngularSpeed   float32
	Wobble         float32
	NoiseFrequency float32
	Seed           int64
}

func paramsFromConfig(cfg *config.Config) PreviewParams {
	return PreviewParams{
		Agents:         cfg.Population.Initial,
		BaseRadius:     float32(cfg.Pattern.BaseRadius),
		Spread:         float32(cfg.Pattern.Spread),
		AngularSpeed:   float32(cfg.Pattern.AngularSpeed),
		Wobble:         float32(cfg.Pattern.Wobble),
		NoiseFrequency: float32(cfg.Exploration.NoiseFrequency),
		Seed:           1,
	}
}

func (p PreviewParams) pattern() config.PatternConfig {
	return config.PatternConfig{
		BaseRadius:   float64(p.BaseRadius),
		Spread:       float64(p.Spread),
		AngularSpeed: float64(p.AngularSpeed),
		Wobble:       float64(p.Wobble),
	}
}

func main() {
	configPath := flag.String("config", "", "Config YAML to start from (empty = use defaults)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	defaults := paramsFromConfig(cfg)
	params := defaults
	maxRange := float32(cfg.Exploration.MaxRange)

	rl.InitWindow(windowWidth, windowHeight, "Pattern Preview")
	defer rl.CloseWindow()
	rl.SetTargetFPS(30)

	img := rl.GenImageColor(stripSize, stripSize, rl.Black)
	texture := rl.LoadTextureFromImage(img)
	rl.UnloadImage(img)
	defer rl.UnloadTexture(texture)

	var seeds []float64
	var noise *systems.NoiseField
	reseed := func() {
		rng := rand.New(rand.NewSource(params.Seed))
		seeds = make([]float64, params.Agents)
		for i := range seeds {
			seeds[i] = rng.Float64()
		}
		noise = systems.NewNoiseField(params.Seed)
	}
	reseed()

	var t float64
	animating := true
	needsRegen := true
	strip := make([]float32, stripSize*stripSize)

	for !rl.WindowShouldClose() {
		if animating {
			t += float64(rl.GetFrameTime())
			needsRegen = true
		}

		if needsRegen {
			generateStrip(strip, noise, t, float64(params.NoiseFrequency))
			updateTexture(texture, strip, stripSize)
			needsRegen = false
		}

		rl.BeginDrawing()
		rl.ClearBackground(rl.RayWhite)

		// Top-down pattern preview
		drawPattern(params, seeds, t, maxRange)

		// Wander noise strip
		stripY := float32(previewSize + 20)
		rl.DrawTexturePro(
			texture,
			rl.Rectangle{X: 0, Y: 0, Width: stripSize, Height: stripSize},
			rl.Rectangle{X: 10, Y: stripY, Width: previewSize, Height: 120},
			rl.Vector2{X: 0, Y: 0},
			0,
			rl.White,
		)
		rl.DrawRectangleLines(10, int32(stripY), previewSize, 120, rl.DarkGray)
		rl.DrawText(fmt.Sprintf("Wander x (rows: agent seeds, columns: next %ds)", stripSpan), 15, int32(stripY)+125, 14, rl.DarkGray)
		rl.DrawText(fmt.Sprintf("Time: %.1fs", t), 15, int32(stripY)+145, 14, rl.DarkGray)

		// Control panel
		panelX := float32(previewSize + 20)
		panelY := float32(10)

		rl.DrawText("Ambient Pattern", int32(panelX), int32(panelY), 20, rl.DarkGray)
		panelY += 35

		slider := func(label, lo, hi string, value, minV, maxV float32, format string) float32 {
			rl.DrawText(label, int32(panelX), int32(panelY), 14, rl.Gray)
			panelY += 18
			v := gui.SliderBar(
				rl.Rectangle{X: panelX, Y: panelY, Width: float32(panelWidth - 80), Height: 20},
				lo, hi, value, minV, maxV,
			)
			rl.DrawText(fmt.Sprintf(format, v), int32(panelX+float32(panelWidth-70)), int32(panelY+2), 16, rl.DarkGray)
			panelY += 35
			return v
		}

		if n := int(slider("Agents", "1", "400", float32(params.Agents), 1, 400, "%.0f")); n != params.Agents {
			params.Agents = n
			reseed()
		}
		params.BaseRadius = slider("Base radius", "0", "150", params.BaseRadius, 0, 150, "%.1f")
		params.Spread = slider("Spread (disc width)", "0", "200", params.Spread, 0, 200, "%.1f")
		params.AngularSpeed = slider("Angular speed (rad/s)", "0", "0.5", params.AngularSpeed, 0, 0.5, "%.3f")
		params.Wobble = slider("Wobble (ring breathing)", "0", "30", params.Wobble, 0, 30, "%.1f")

		// Separator
		rl.DrawLine(int32(panelX), int32(panelY), int32(panelX)+int32(panelWidth)-20, int32(panelY), rl.LightGray)
		panelY += 15

		rl.DrawText("Wander Noise", int32(panelX), int32(panelY), 16, rl.DarkGray)
		panelY += 25
		if f := slider("Noise frequency", "0.01", "0.5", params.NoiseFrequency, 0.01, 0.5, "%.3f"); f != params.NoiseFrequency {
			params.NoiseFrequency = f
			needsRegen = true
		}
		panelY += 10

		// Buttons
		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 120, Height: 30}, toggleText(animating, "Stop", "Animate")) {
			animating = !animating
		}
		if gui.Button(rl.Rectangle{X: panelX + 130, Y: panelY, Width: 120, Height: 30}, "Reset Time") {
			t = 0
			needsRegen = true
		}
		panelY += 45

		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 120, Height: 30}, "Random Seed") {
			params.Seed = int64(rl.GetRandomValue(0, 99999))
			reseed()
			needsRegen = true
		}
		if gui.Button(rl.Rectangle{X: panelX + 130, Y: panelY, Width: 120, Height: 30}, "Reset All") {
			params = defaults
			reseed()
			t = 0
			needsRegen = true
		}
		panelY += 55

		// Output YAML
		rl.DrawText("YAML Config:", int32(panelX), int32(panelY), 16, rl.DarkGray)
		panelY += 25
		yaml := configYAML(params)
		rl.DrawText(yaml, int32(panelX), int32(panelY), 14, rl.Gray)

		rl.DrawText("Press C to copy YAML to clipboard", int32(panelX), int32(windowHeight-30), 12, rl.LightGray)
		if rl.IsKeyPressed(rl.KeyC) {
			rl.SetClipboardText(yaml)
		}

		rl.EndDrawing()
	}
}

// configYAML renders the edited values as a config fragment.
func configYAML(p PreviewParams) string {
	return fmt.Sprintf(`pattern:
  base_radius: %.1f
  spread: %.1f
  angular_speed: %.3f
  wobble: %.1f
exploration:
  noise_frequency: %.3f`,
		p.BaseRadius, p.Spread, p.AngularSpeed, p.Wobble, p.NoiseFrequency)
}

func toggleText(cond bool, ifTrue, ifFalse string) string {
	if cond {
		return ifTrue
	}
	return ifFalse
}

// drawPattern plots every pattern target inside the preview square, scaled so
// the exploration range fills it.
func drawPattern(p PreviewParams, seeds []float64, t float64, maxRange float32) {
	rl.DrawRectangle(10, 10, previewSize, previewSize, rl.Color{R: 20, G: 28, B: 40, A: 255})
	rl.DrawRectangleLines(10, 10, previewSize, previewSize, rl.DarkGray)

	cx := float32(10 + previewSize/2)
	cy := float32(10 + previewSize/2)
	scale := float32(previewSize/2) / maxRange

	rl.DrawCircleLines(int32(cx), int32(cy), maxRange*scale, rl.Fade(rl.SkyBlue, 0.5))
	rl.DrawCircleLines(int32(cx), int32(cy), p.BaseRadius*scale, rl.Fade(rl.Gray, 0.5))

	pc := p.pattern()
	for i, seed := range seeds {
		target := engine.PatternTarget(&pc, i, len(seeds), seed, t)
		x := cx + float32(target.X)*scale
		y := cy + float32(target.Y)*scale
		shade := uint8(120 + 135*float64(i)/float64(max(1, len(seeds)-1)))
		rl.DrawCircleV(rl.Vector2{X: x, Y: y}, 3, rl.Color{R: shade, G: 200, B: 255 - shade/2, A: 255})
	}
}

// generateStrip fills grid with the x wander track of one seed per row over
// the next stripSpan seconds, mapped to [0, 1].
func generateStrip(grid []float32, noise *systems.NoiseField, t, frequency float64) {
	for y := 0; y < stripSize; y++ {
		seed := (float64(y) + 0.5) / stripSize
		for x := 0; x < stripSize; x++ {
			at := t + float64(x)/stripSize*stripSpan
			wx, _ := noise.Wander(seed, at, frequency)
			grid[y*stripSize+x] = float32(wx*0.5 + 0.5)
		}
	}
}

// updateTexture updates the GPU texture from the grid values
func updateTexture(texture rl.Texture2D, grid []float32, size int) {
	pixels := make([]color.RGBA, size*size)
	for i, v := range grid {
		v = min(max(v, 0), 1)
		// Use a color gradient: dark blue -> cyan -> yellow -> white
		var r, g, b uint8
		if v < 0.25 {
			t := v / 0.25
			r = uint8(10 + t*30)
			g = uint8(20 + t*60)
			b = uint8(60 + t*100)
		} else if v < 0.5 {
			t := (v - 0.25) / 0.25
			r = uint8(40 + t*20)
			g = uint8(80 + t*120)
			b = uint8(160 + t*40)
		} else if v < 0.75 {
			t := (v - 0.5) / 0.25
			r = uint8(60 + t*140)
			g = uint8(200 - t*40)
			b = uint8(200 - t*150)
		} else {
			t := (v - 0.75) / 0.25
			r = uint8(200 + t*55)
			g = uint8(160 + t*95)
			b = uint8(50 + t*205)
		}
		pixels[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	rl.UpdateTexture(texture, pixels)
}
