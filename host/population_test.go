package host

import (
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/peakswarm/components"
	"github.com/pthm-cable/peakswarm/config"
)

func newTestPopulation(t *testing.T) *Population {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("loading defaults: %v", err)
	}
	return NewPopulation(cfg, rand.New(rand.NewSource(1)))
}

func TestSpawn_InsideRadius(t *testing.T) {
	p := newTestPopulation(t)
	p.Spawn(200)

	descs := p.Descriptors(nil)
	if len(descs) != 200 {
		t.Fatalf("expected 200 descriptors, got %d", len(descs))
	}
	for i, d := range descs {
		if r := math.Hypot(d.Spawn.X, d.Spawn.Z); r > p.cfg.Population.SpawnRadius {
			t.Errorf("agent %d spawned at radius %v", i, r)
		}
		if !d.Category.Valid() {
			t.Errorf("agent %d has no category", i)
		}
		if !d.Visible || d.Locked {
			t.Errorf("agent %d should start visible and unlocked", i)
		}
		if d.Height != HeightFor(d.Category) {
			t.Errorf("agent %d height %v, want %v", i, d.Height, HeightFor(d.Category))
		}
	}
}

func TestShrink_KeepsOrder(t *testing.T) {
	p := newTestPopulation(t)
	for i := range 10 {
		p.Add(components.CategoryLow, r3.Vec{X: float64(i)})
	}

	p.Shrink(5)
	descs := p.Descriptors(nil)
	if len(descs) != 5 || p.Len() != 5 {
		t.Fatalf("expected 5 agents, got %d", len(descs))
	}
	for i, d := range descs {
		if d.Spawn.X != float64(i) {
			t.Errorf("agent %d at %v, want x=%d", i, d.Spawn, i)
		}
	}

	p.Shrink(-3)
	if p.Len() != 0 {
		t.Errorf("expected empty population, got %d", p.Len())
	}
}

func TestResize(t *testing.T) {
	p := newTestPopulation(t)
	p.Resize(8)
	if p.Len() != 8 {
		t.Fatalf("expected 8 agents, got %d", p.Len())
	}
	p.Resize(3)
	if p.Len() != 3 {
		t.Fatalf("expected 3 agents, got %d", p.Len())
	}
}

func TestFlagsAndCategory(t *testing.T) {
	p := newTestPopulation(t)
	p.Add(components.CategoryLow, r3.Vec{})
	p.Add(components.CategoryMid, r3.Vec{})
	p.Add(components.CategoryHigh, r3.Vec{})

	p.SetVisible(1, false)
	p.SetLocked(2, true)
	p.SetCategory(0, components.CategoryRhythmic)
	p.SetVisible(99, false)

	if p.VisibleCount() != 2 {
		t.Errorf("expected 2 visible agents, got %d", p.VisibleCount())
	}
	descs := p.Descriptors(nil)
	if descs[1].Visible {
		t.Error("agent 1 should be hidden")
	}
	if !descs[2].Locked {
		t.Error("agent 2 should be locked")
	}
	if descs[0].Category != components.CategoryRhythmic || descs[0].Height != HeightFor(components.CategoryRhythmic) {
		t.Errorf("agent 0 relabel not applied: %+v", descs[0])
	}
	if f := p.Flags(2); !f.Locked || !f.Visible {
		t.Errorf("Flags(2) = %+v, want visible and locked", f)
	}
	if f := p.Flags(-1); f != (components.Flags{}) {
		t.Errorf("out of range Flags should be zero, got %+v", f)
	}
}
