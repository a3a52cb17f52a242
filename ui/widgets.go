package ui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// sectionGap is the vertical space after each section.
const sectionGap = 4

// Renderer draws descriptor-driven panels with one theme.
type Renderer struct {
	Theme Theme
}

// NewRenderer creates a renderer with the default theme.
func NewRenderer() *Renderer {
	return &Renderer{Theme: DefaultTheme()}
}

// DrawPanel draws a panel background with border.
func (r *Renderer) DrawPanel(x, y, width, height int32) {
	rl.DrawRectangle(x, y, width, height, r.Theme.PanelBg)
	rl.DrawRectangleLines(x, y, width, height, r.Theme.PanelBorder)
}

// DrawSectionHeader draws a section header and returns the new Y position.
func (r *Renderer) DrawSectionHeader(x, y int32, title string) int32 {
	rl.DrawText(title, x, y, r.Theme.HeaderFontSize, r.Theme.SectionHeader)
	return y + r.Theme.LineHeight
}

// DrawLabelValue draws a label and value on the same line.
func (r *Renderer) DrawLabelValue(x, y int32, label, value string) int32 {
	rl.DrawText(label+":", x, y, r.Theme.FontSize, r.Theme.LabelColor)
	rl.DrawText(value, x+r.Theme.LabelWidth, y, r.Theme.FontSize, r.Theme.ValueColor)
	return y + r.Theme.LineHeight
}

// DrawBar draws a bar filled to value in [0, 1] with text to its right.
func (r *Renderer) DrawBar(x, y int32, label string, value float32, text string, fill rl.Color, width int32) int32 {
	value = min(max(value, 0), 1)

	barX := x + r.Theme.LabelWidth
	barWidth := width - r.Theme.LabelWidth - 60

	rl.DrawText(label+":", x, y, r.Theme.FontSize, r.Theme.LabelColor)
	rl.DrawRectangle(barX, y+2, barWidth, r.Theme.BarHeight, r.Theme.BarBg)
	rl.DrawRectangle(barX, y+2, int32(float32(barWidth)*value), r.Theme.BarHeight, fill)
	rl.DrawText(text, barX+barWidth+5, y, r.Theme.FontSize, r.Theme.ValueColor)

	return y + r.Theme.LineHeight + 2
}

// DrawColorSwatch draws a swatch followed by an optional caption.
func (r *Renderer) DrawColorSwatch(x, y int32, label string, color rl.Color, caption string) int32 {
	const swatchSize = 12
	rl.DrawText(label+":", x, y, r.Theme.FontSize, r.Theme.LabelColor)
	rl.DrawRectangle(x+r.Theme.LabelWidth, y+1, swatchSize, swatchSize, color)
	if caption != "" {
		rl.DrawText(caption, x+r.Theme.LabelWidth+swatchSize+6, y, r.Theme.FontSize, r.Theme.ValueColor)
	}
	return y + r.Theme.LineHeight
}

// DrawField renders a field based on its descriptor.
func (r *Renderer) DrawField(x, y int32, fd FieldDescriptor, data any, width int32) int32 {
	switch fd.Widget {
	case WidgetText:
		return r.DrawLabelValue(x, y, fd.Label, fieldText(fd, data))

	case WidgetBar:
		var value float32
		if fd.Getter != nil {
			value = fd.Getter(data)
		}
		return r.DrawBar(x, y, fd.Label, value, fmt.Sprintf("%.2f", value), r.Theme.BarFill, width)

	case WidgetCountdown:
		remaining, total := countdown(fd, data)
		var value float32
		if total > 0 {
			value = remaining / total
		}
		return r.DrawBar(x, y, fd.Label, value, fmt.Sprintf("%.0f", remaining), r.Theme.CountdownFill, width)

	case WidgetColorSwatch:
		var color rl.Color
		if fd.ColorGetter != nil {
			color = fd.ColorGetter(data)
		}
		var caption string
		if fd.TextGetter != nil {
			caption = fd.TextGetter(data)
		}
		return r.DrawColorSwatch(x, y, fd.Label, color, caption)

	case WidgetSection:
		return r.DrawSectionHeader(x, y, fd.Label)

	case WidgetSpacer:
		return y + 6
	}

	return y
}

// fieldText formats a text field from its TextGetter or Getter and Format.
func fieldText(fd FieldDescriptor, data any) string {
	switch {
	case fd.TextGetter != nil:
		return fd.TextGetter(data)
	case fd.Getter != nil:
		return fmt.Sprintf(fd.Format, fd.Getter(data))
	}
	return ""
}

// countdown returns the remaining and full length of a countdown field.
func countdown(fd FieldDescriptor, data any) (remaining, total float32) {
	if fd.Getter != nil {
		remaining = fd.Getter(data)
	}
	if fd.Max != nil {
		total = fd.Max(data)
	}
	return remaining, total
}

// DrawSection renders a section with header and fields.
func (r *Renderer) DrawSection(x, y int32, sd SectionDescriptor, data any, width int32) int32 {
	if sd.Visible != nil && !sd.Visible(data) {
		return y
	}

	if sd.Title != "" {
		y = r.DrawSectionHeader(x, y, sd.Title)
	}
	for _, fd := range sd.Fields {
		if fd.Visible != nil && !fd.Visible(data) {
			continue
		}
		y = r.DrawField(x, y, fd, data, width)
	}
	return y + sectionGap
}

// FieldHeight returns the vertical space DrawField uses for fd.
func (r *Renderer) FieldHeight(fd FieldDescriptor) int32 {
	switch fd.Widget {
	case WidgetBar, WidgetCountdown:
		return r.Theme.LineHeight + 2
	case WidgetSpacer:
		return 6
	case WidgetText, WidgetColorSwatch, WidgetSection:
		return r.Theme.LineHeight
	}
	return 0
}

// MeasureSections returns the height DrawSection would use for every
// section with data, so panels can be sized before drawing.
func (r *Renderer) MeasureSections(sections []SectionDescriptor, data any) int32 {
	var h int32
	for _, sd := range sections {
		if sd.Visible != nil && !sd.Visible(data) {
			continue
		}
		if sd.Title != "" {
			h += r.Theme.LineHeight
		}
		for _, fd := range sd.Fields {
			if fd.Visible != nil && !fd.Visible(data) {
				continue
			}
			h += r.FieldHeight(fd)
		}
		h += sectionGap
	}
	return h
}
