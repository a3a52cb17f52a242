package ui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// AgentInfo is the inspector's view of one agent.
type AgentInfo struct {
	Index        int
	Category     string
	Color        rl.Color
	X, Y, Z      float64
	Speed        float64
	Visible      bool
	Held         bool
	Partner      int // -1 when unpaired
	FramesPaired int
	Ease         float64 // pair force ramp in [0, 1]
	Cooldown     int
	CooldownMax  int
	BreakGrace   int
	GraceMax     int
}

// agentSections describes the inspector layout.
var agentSections = []SectionDescriptor{
	{
		ID:    "identity",
		Title: "Agent",
		Fields: []FieldDescriptor{
			{ID: "index", Label: "Index", Widget: WidgetText, TextGetter: func(d any) string {
				return fmt.Sprintf("#%d", d.(*AgentInfo).Index)
			}},
			{ID: "category", Label: "Category", Widget: WidgetColorSwatch, ColorGetter: func(d any) rl.Color {
				return d.(*AgentInfo).Color
			}, TextGetter: func(d any) string {
				return d.(*AgentInfo).Category
			}},
			{ID: "flags", Label: "Flags", Widget: WidgetText, TextGetter: func(d any) string {
				a := d.(*AgentInfo)
				return fmt.Sprintf("visible=%t held=%t", a.Visible, a.Held)
			}},
		},
	},
	{
		ID:    "motion",
		Title: "Motion",
		Fields: []FieldDescriptor{
			{ID: "position", Label: "Position", Widget: WidgetText, TextGetter: func(d any) string {
				a := d.(*AgentInfo)
				return fmt.Sprintf("(%.2f, %.2f, %.2f)", a.X, a.Y, a.Z)
			}},
			{ID: "speed", Label: "Speed", Widget: WidgetText, Format: "%.4f", Getter: func(d any) float32 {
				return float32(d.(*AgentInfo).Speed)
			}},
		},
	},
	{
		ID:    "pairing",
		Title: "Pairing",
		Fields: []FieldDescriptor{
			{ID: "partner", Label: "Partner", Widget: WidgetText, TextGetter: func(d any) string {
				if p := d.(*AgentInfo).Partner; p >= 0 {
					return fmt.Sprintf("#%d", p)
				}
				return "none"
			}},
			{ID: "frames", Label: "Paired for", Widget: WidgetText, Format: "%.0f ticks", Getter: func(d any) float32 {
				return float32(d.(*AgentInfo).FramesPaired)
			}, Visible: func(d any) bool { return d.(*AgentInfo).Partner >= 0 }},
			{ID: "ease", Label: "Ease", Widget: WidgetBar, Getter: func(d any) float32 {
				return float32(d.(*AgentInfo).Ease)
			}, Visible: func(d any) bool { return d.(*AgentInfo).Partner >= 0 }},
			{ID: "cooldown", Label: "Cooldown", Widget: WidgetCountdown, Getter: func(d any) float32 {
				return float32(d.(*AgentInfo).Cooldown)
			}, Max: func(d any) float32 {
				return float32(d.(*AgentInfo).CooldownMax)
			}, Visible: func(d any) bool { return d.(*AgentInfo).Cooldown > 0 }},
			{ID: "grace", Label: "Grace", Widget: WidgetCountdown, Getter: func(d any) float32 {
				return float32(d.(*AgentInfo).BreakGrace)
			}, Max: func(d any) float32 {
				return float32(d.(*AgentInfo).GraceMax)
			}, Visible: func(d any) bool { return d.(*AgentInfo).BreakGrace > 0 }},
		},
	},
}

// Inspector renders the selected agent panel.
type Inspector struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewInspector creates a new inspector panel.
func NewInspector(x, y, width int32) *Inspector {
	return &Inspector{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
	}
}

// SetPosition updates the inspector position.
func (ins *Inspector) SetPosition(x, y int32) {
	ins.x = x
	ins.y = y
}

// Height returns the panel height needed for info.
func (ins *Inspector) Height(info *AgentInfo) int32 {
	return ins.renderer.MeasureSections(agentSections, info) + ins.renderer.Theme.Padding*2
}

// Draw renders the inspector panel for the given agent.
func (ins *Inspector) Draw(info *AgentInfo) int32 {
	r := ins.renderer
	padding := r.Theme.Padding

	r.DrawPanel(ins.x, ins.y, ins.width, ins.Height(info))

	y := ins.y + padding
	contentWidth := ins.width - padding*2
	for _, section := range agentSections {
		y = r.DrawSection(ins.x+padding, y, section, info, contentWidth)
	}
	return y
}
