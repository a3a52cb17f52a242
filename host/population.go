// Package host is the population collaborator around the engine: it owns the
// agents as ECS entities and flattens them into ordered descriptor snapshots.
package host

import (
	"math"
	"math/rand"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/peakswarm/components"
	"github.com/pthm-cable/peakswarm/config"
)

// categoryHeights is the vertical placement per category.
var categoryHeights = map[components.Category]float64{
	components.CategoryNone:     0,
	components.CategoryLow:      1,
	components.CategoryMid:      4,
	components.CategoryHigh:     8,
	components.CategoryRhythmic: 2.5,
}

// HeightFor returns the height an agent of category c is drawn at.
func HeightFor(c components.Category) float64 {
	return categoryHeights[c]
}

// Population holds the agent entities in index order.
type Population struct {
	world *ecs.World
	rng   *rand.Rand
	cfg   *config.Config

	mapper     *ecs.Map3[components.Label, components.Flags, components.Placement]
	labels     *ecs.Map[components.Label]
	flags      *ecs.Map[components.Flags]
	placements *ecs.Map[components.Placement]
	flagFilter *ecs.Filter1[components.Flags]

	order []ecs.Entity
}

// NewPopulation creates an empty population.
func NewPopulation(cfg *config.Config, rng *rand.Rand) *Population {
	world := ecs.NewWorld()
	return &Population{
		world:      world,
		rng:        rng,
		cfg:        cfg,
		mapper:     ecs.NewMap3[components.Label, components.Flags, components.Placement](world),
		labels:     ecs.NewMap[components.Label](world),
		flags:      ecs.NewMap[components.Flags](world),
		placements: ecs.NewMap[components.Placement](world),
		flagFilter: ecs.NewFilter1[components.Flags](world),
	}
}

// Len returns the number of agents.
func (p *Population) Len() int {
	return len(p.order)
}

// Spawn appends n agents with random categories at random points inside the
// spawn radius.
func (p *Population) Spawn(n int) {
	cats := components.AssignableCategories()
	for range n {
		p.Add(cats[p.rng.Intn(len(cats))], p.spawnPoint())
	}
}

// Add appends one visible agent and returns its index.
func (p *Population) Add(c components.Category, at r3.Vec) int {
	label := components.Label{Category: c}
	flags := components.Flags{Visible: true}
	place := components.Placement{Spawn: at, Height: HeightFor(c)}

	e := p.mapper.NewEntity(&label, &flags, &place)
	p.order = append(p.order, e)
	return len(p.order) - 1
}

// spawnPoint returns a uniform random point in the spawn disc.
func (p *Population) spawnPoint() r3.Vec {
	r := p.cfg.Population.SpawnRadius * math.Sqrt(p.rng.Float64())
	angle := p.rng.Float64() * 2 * math.Pi
	return r3.Vec{X: math.Cos(angle) * r, Z: math.Sin(angle) * r}
}

// Shrink removes agents from the end until at most n remain.
func (p *Population) Shrink(n int) {
	if n < 0 {
		n = 0
	}
	for len(p.order) > n {
		last := len(p.order) - 1
		p.world.RemoveEntity(p.order[last])
		p.order = p.order[:last]
	}
}

// Resize spawns or removes agents so that exactly n remain.
func (p *Population) Resize(n int) {
	if n > len(p.order) {
		p.Spawn(n - len(p.order))
		return
	}
	p.Shrink(n)
}

// SetVisible shows or hides agent i.
func (p *Population) SetVisible(i int, visible bool) {
	if f := p.flagsAt(i); f != nil {
		f.Visible = visible
	}
}

// SetLocked hands agent i to external position control.
func (p *Population) SetLocked(i int, locked bool) {
	if f := p.flagsAt(i); f != nil {
		f.Locked = locked
	}
}

// SetCategory relabels agent i and moves it to the matching height.
func (p *Population) SetCategory(i int, c components.Category) {
	if i < 0 || i >= len(p.order) {
		return
	}
	e := p.order[i]
	p.labels.Get(e).Category = c
	p.placements.Get(e).Height = HeightFor(c)
}

// Flags returns agent i's visibility and lock state.
func (p *Population) Flags(i int) components.Flags {
	if f := p.flagsAt(i); f != nil {
		return *f
	}
	return components.Flags{}
}

func (p *Population) flagsAt(i int) *components.Flags {
	if i < 0 || i >= len(p.order) {
		return nil
	}
	return p.flags.Get(p.order[i])
}

// VisibleCount returns the number of visible agents.
func (p *Population) VisibleCount() int {
	n := 0
	query := p.flagFilter.Query()
	for query.Next() {
		if query.Get().Visible {
			n++
		}
	}
	return n
}

// Descriptors appends the ordered population snapshot to dst.
func (p *Population) Descriptors(dst []components.Descriptor) []components.Descriptor {
	for _, e := range p.order {
		label := p.labels.Get(e)
		flags := p.flags.Get(e)
		place := p.placements.Get(e)
		dst = append(dst, components.Descriptor{
			Category: label.Category,
			Visible:  flags.Visible,
			Locked:   flags.Locked,
			Height:   place.Height,
			Spawn:    place.Spawn,
		})
	}
	return dst
}
