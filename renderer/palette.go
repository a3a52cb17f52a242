package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/peakswarm/components"
)

// categoryColors is indexed by components.Category.
var categoryColors = []rl.Color{
	components.CategoryNone:     {R: 140, G: 140, B: 140, A: 255},
	components.CategoryLow:      {R: 70, G: 130, B: 230, A: 255},
	components.CategoryMid:      {R: 90, G: 210, B: 120, A: 255},
	components.CategoryHigh:     {R: 240, G: 190, B: 60, A: 255},
	components.CategoryRhythmic: {R: 225, G: 80, B: 160, A: 255},
}

// Pair state colors
var (
	colorPaired   = rl.Color{R: 250, G: 250, B: 250, A: 255}
	colorCooldown = rl.Color{R: 220, G: 90, B: 70, A: 255}
	colorFree     = rl.Color{R: 90, G: 110, B: 140, A: 255}
)

// CategoryColor returns the display color for a category.
func CategoryColor(c components.Category) rl.Color {
	if int(c) < len(categoryColors) {
		return categoryColors[c]
	}
	return categoryColors[components.CategoryNone]
}

// PairStateColor returns the display color for an agent's pairing state.
func PairStateColor(ps components.PairState) rl.Color {
	switch {
	case ps.Paired():
		return colorPaired
	case ps.Cooldown > 0:
		return colorCooldown
	default:
		return colorFree
	}
}
