package renderer

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/peakswarm/camera"
	"github.com/pthm-cable/peakswarm/components"
	"github.com/pthm-cable/peakswarm/config"
)

// View is the read-only swarm state the renderer draws.
type View interface {
	Len() int
	Agent(i int) components.Agent
	PairState(i int) components.PairState
	Held(i int) bool
	Target(i int) r2.Vec
	Config() *config.Config
}

// DrawOptions selects which layers are drawn.
type DrawOptions struct {
	ColorByPair bool
	PairLinks   bool
	Targets     bool
	Boundary    bool
	HeightStems bool
	Grid        bool
	Selected    int // agent index to highlight, or -1
}

// SwarmRenderer draws agents as spheres with optional debug layers.
type SwarmRenderer struct {
	AgentRadius float32
}

// NewSwarmRenderer creates a renderer sized for the configured separation.
func NewSwarmRenderer(cfg *config.Config) *SwarmRenderer {
	return &SwarmRenderer{AgentRadius: float32(cfg.Forces.MinSeparation * 0.35)}
}

// Camera3D converts an orbit camera into a raylib camera.
func Camera3D(c *camera.Camera) rl.Camera3D {
	return rl.Camera3D{
		Position:   vec3(c.Eye()),
		Target:     vec3(c.Target),
		Up:         rl.NewVector3(0, 1, 0),
		Fovy:       float32(c.FOV),
		Projection: rl.CameraPerspective,
	}
}

// Draw renders the swarm from cam. Must be called between BeginDrawing and EndDrawing.
func (r *SwarmRenderer) Draw(cam rl.Camera3D, v View, opts DrawOptions) {
	cfg := v.Config()

	rl.BeginMode3D(cam)

	if opts.Grid {
		extent := cfg.Exploration.MaxRange * 2
		cells := int32(math.Ceil(extent / cfg.Grid.CellSize))
		rl.DrawGrid(cells, float32(cfg.Grid.CellSize))
	}

	if opts.Boundary {
		// Circles are drawn in the XY plane; rotate onto the ground
		axis := rl.NewVector3(1, 0, 0)
		rl.DrawCircle3D(rl.NewVector3(0, 0, 0), float32(cfg.Exploration.MaxRange), axis, 90, rl.Fade(rl.SkyBlue, 0.5))
		if cfg.Exploration.AvoidCenterRadius > 0 {
			rl.DrawCircle3D(rl.NewVector3(0, 0, 0), float32(cfg.Exploration.AvoidCenterRadius), axis, 90, rl.Fade(rl.Red, 0.5))
		}
	}

	n := v.Len()

	if opts.PairLinks {
		for i := 0; i < n; i++ {
			ps := v.PairState(i)
			if ps.Partner <= i {
				continue
			}
			a := v.Agent(i)
			b := v.Agent(ps.Partner)
			rl.DrawLine3D(vec3(a.Position), vec3(b.Position), rl.Fade(rl.White, 0.8))
		}
	}

	for i := 0; i < n; i++ {
		a := v.Agent(i)
		if !a.Visible {
			continue
		}
		pos := vec3(a.Position)

		color := CategoryColor(a.Category)
		if opts.ColorByPair {
			color = PairStateColor(v.PairState(i))
		}

		if opts.HeightStems {
			ground := rl.NewVector3(pos.X, 0, pos.Z)
			rl.DrawLine3D(ground, pos, rl.Fade(color, 0.3))
		}

		if v.Held(i) {
			rl.DrawSphereWires(pos, r.AgentRadius, 6, 8, color)
		} else {
			rl.DrawSphere(pos, r.AgentRadius, color)
		}

		if opts.Targets {
			t := v.Target(i)
			target := rl.NewVector3(float32(t.X), 0, float32(t.Y))
			size := r.AgentRadius * 0.4
			rl.DrawCube(target, size, size, size, rl.Fade(color, 0.6))
		}

		if i == opts.Selected {
			rl.DrawSphereWires(pos, r.AgentRadius*1.8, 8, 10, rl.Yellow)
		}
	}

	rl.EndMode3D()
}

// Pick returns the closest visible agent hit by ray, or -1.
func (r *SwarmRenderer) Pick(ray rl.Ray, v View) int {
	best := -1
	bestDist := float32(math.MaxFloat32)
	for i := 0; i < v.Len(); i++ {
		a := v.Agent(i)
		if !a.Visible {
			continue
		}
		hit := rl.GetRayCollisionSphere(ray, vec3(a.Position), r.AgentRadius*1.5)
		if hit.Hit && hit.Distance < bestDist {
			best = i
			bestDist = hit.Distance
		}
	}
	return best
}

// vec3 converts a gonum vector to raylib.
func vec3(v r3.Vec) rl.Vector3 {
	return rl.NewVector3(float32(v.X), float32(v.Y), float32(v.Z))
}
