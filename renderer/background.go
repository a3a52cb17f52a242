package renderer

import rl "github.com/gen2brain/raylib-go/raylib"

// BackgroundRenderer fills the screen with a vertical gradient behind the 3D scene.
type BackgroundRenderer struct {
	screenW, screenH int32
	top, bottom      rl.Color
}

// NewBackgroundRenderer creates a new background renderer. The base color is
// used at the bottom and a darkened copy at the top.
func NewBackgroundRenderer(screenW, screenH int32, baseR, baseG, baseB uint8) *BackgroundRenderer {
	return &BackgroundRenderer{
		screenW: screenW,
		screenH: screenH,
		top:     rl.Color{R: baseR / 3, G: baseG / 3, B: baseB / 3, A: 255},
		bottom:  rl.Color{R: baseR, G: baseG, B: baseB, A: 255},
	}
}

// Resize updates the screen dimensions.
func (b *BackgroundRenderer) Resize(w, h int32) {
	b.screenW = w
	b.screenH = h
}

// Draw renders the gradient. Call before BeginMode3D.
func (b *BackgroundRenderer) Draw() {
	rl.DrawRectangleGradientV(0, 0, b.screenW, b.screenH, b.top, b.bottom)
}
