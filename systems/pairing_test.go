package systems

import (
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/peakswarm/components"
	"github.com/pthm-cable/peakswarm/config"
)

// testConfig returns a fresh copy of the embedded defaults.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("loading defaults: %v", err)
	}
	return cfg
}

func agentAt(cat components.Category, x, z float64) components.Agent {
	return components.Agent{Position: r3.Vec{X: x, Z: z}, Category: cat, Visible: true}
}

func buildIndex(cfg *config.Config, agents []components.Agent) *SpatialIndex {
	idx := NewSpatialIndex(cfg.Grid.CellSize)
	for i := range agents {
		idx.Insert(i, agents[i].Position)
	}
	return idx
}

func newRegistry(cfg *config.Config, n int) *PairingRegistry {
	r := NewPairingRegistry(cfg)
	r.Resize(n)
	return r
}

// checkSymmetry fails the test if any link is one-sided or self-referencing.
func checkSymmetry(t *testing.T, r *PairingRegistry) {
	t.Helper()
	for i := 0; i < r.Len(); i++ {
		j := r.Partner(i)
		if j == components.NoPartner {
			continue
		}
		if j == i {
			t.Fatalf("agent %d is paired with itself", i)
		}
		if j < 0 || j >= r.Len() {
			t.Fatalf("agent %d references out-of-range partner %d", i, j)
		}
		if r.Partner(j) != i {
			t.Fatalf("asymmetric link: %d -> %d but %d -> %d", i, j, j, r.Partner(j))
		}
	}
}

// ---------- Formation ----------

func TestForm_ComplementaryNeighborsPair(t *testing.T) {
	cfg := testConfig(t)
	cfg.Pairing.FormationRadius = 25
	if err := cfg.Finalize(); err != nil {
		t.Fatal(err)
	}
	agents := []components.Agent{
		agentAt(components.CategoryLow, 0, 0),
		agentAt(components.CategoryMid, 10, 0),
	}
	r := newRegistry(cfg, len(agents))

	r.Form(agents, buildIndex(cfg, agents), rand.New(rand.NewSource(1)))

	if r.Partner(0) != 1 || r.Partner(1) != 0 {
		t.Fatalf("expected 0<->1, got 0->%d 1->%d", r.Partner(0), r.Partner(1))
	}
	if r.State(0).FramesPaired != 0 || r.State(1).FramesPaired != 0 {
		t.Error("framesPaired should start at 0")
	}
	dir := r.Direction(0, 1)
	if dir == nil {
		t.Fatal("expected a shared heading for the new pair")
	}
	if n := math.Hypot(dir.Heading.X, dir.Heading.Y); math.Abs(n-1) > 1e-9 {
		t.Errorf("shared heading should be a unit vector, got length %v", n)
	}
	if r.Events().Formed != 1 {
		t.Errorf("expected 1 formed event, got %d", r.Events().Formed)
	}
}

func TestForm_CategoryEligibility(t *testing.T) {
	tests := []struct {
		name string
		a, b components.Category
		want bool
	}{
		{"low-mid", components.CategoryLow, components.CategoryMid, true},
		{"mid-low", components.CategoryMid, components.CategoryLow, true},
		{"high-mid", components.CategoryHigh, components.CategoryMid, true},
		{"mid-rhythmic", components.CategoryMid, components.CategoryRhythmic, true},
		{"low-low", components.CategoryLow, components.CategoryLow, false},
		{"low-high", components.CategoryLow, components.CategoryHigh, false},
		{"high-rhythmic", components.CategoryHigh, components.CategoryRhythmic, false},
		{"none-mid", components.CategoryNone, components.CategoryMid, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			agents := []components.Agent{agentAt(tt.a, 0, 0), agentAt(tt.b, 5, 0)}
			r := newRegistry(cfg, 2)
			r.Form(agents, buildIndex(cfg, agents), rand.New(rand.NewSource(1)))

			got := r.Partner(0) == 1
			if got != tt.want {
				t.Errorf("%v/%v paired = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestForm_CooldownExcludesCandidate(t *testing.T) {
	cfg := testConfig(t)
	agents := []components.Agent{
		agentAt(components.CategoryMid, 0, 0),
		agentAt(components.CategoryLow, 5, 0),
		agentAt(components.CategoryLow, 15, 0),
	}
	r := newRegistry(cfg, len(agents))
	r.State(1).Cooldown = 3

	r.Form(agents, buildIndex(cfg, agents), rand.New(rand.NewSource(1)))

	if r.Partner(1) != components.NoPartner {
		t.Errorf("agent in cooldown was paired with %d", r.Partner(1))
	}
	if r.Partner(0) != 2 {
		t.Errorf("expected 0 to pair with the farther eligible agent 2, got %d", r.Partner(0))
	}
}

func TestForm_InvisibleExcluded(t *testing.T) {
	cfg := testConfig(t)
	agents := []components.Agent{
		agentAt(components.CategoryMid, 0, 0),
		agentAt(components.CategoryLow, 5, 0),
	}
	agents[1].Visible = false
	r := newRegistry(cfg, len(agents))

	r.Form(agents, buildIndex(cfg, agents), rand.New(rand.NewSource(1)))

	if r.Partner(0) != components.NoPartner {
		t.Errorf("invisible agent should not pair, got partner %d", r.Partner(0))
	}
}

func TestForm_ClosestWins(t *testing.T) {
	cfg := testConfig(t)
	agents := []components.Agent{
		agentAt(components.CategoryMid, 0, 0),
		agentAt(components.CategoryLow, 20, 0),
		agentAt(components.CategoryLow, 0, 6),
	}
	r := newRegistry(cfg, len(agents))

	r.Form(agents, buildIndex(cfg, agents), rand.New(rand.NewSource(1)))

	if r.Partner(0) != 2 {
		t.Errorf("expected closest candidate 2, got %d", r.Partner(0))
	}
	if r.Partner(1) != components.NoPartner {
		t.Errorf("agent 1 has no eligible partner left, got %d", r.Partner(1))
	}
}

func TestForm_TieGoesToLowerIndex(t *testing.T) {
	cfg := testConfig(t)
	agents := []components.Agent{
		agentAt(components.CategoryMid, 0, 0),
		agentAt(components.CategoryLow, -10, 0),
		agentAt(components.CategoryLow, 10, 0),
	}
	r := newRegistry(cfg, len(agents))

	r.Form(agents, buildIndex(cfg, agents), rand.New(rand.NewSource(1)))

	if r.Partner(0) != 1 {
		t.Errorf("expected tie broken toward index 1, got %d", r.Partner(0))
	}
}

func TestForm_OutsideRadius(t *testing.T) {
	cfg := testConfig(t)
	agents := []components.Agent{
		agentAt(components.CategoryMid, 0, 0),
		agentAt(components.CategoryLow, cfg.Pairing.FormationRadius+0.01, 0),
	}
	r := newRegistry(cfg, len(agents))

	r.Form(agents, buildIndex(cfg, agents), rand.New(rand.NewSource(1)))

	if r.Partner(0) != components.NoPartner {
		t.Errorf("agents beyond the formation radius paired: %d", r.Partner(0))
	}
}

func TestLink_SelfIsNoOp(t *testing.T) {
	cfg := testConfig(t)
	r := newRegistry(cfg, 2)

	r.Link(1, 1, rand.New(rand.NewSource(1)))

	if r.Partner(1) != components.NoPartner {
		t.Errorf("self link should be ignored, got partner %d", r.Partner(1))
	}
}

// ---------- Breaking ----------

func TestUpdate_DistanceBreak(t *testing.T) {
	cfg := testConfig(t)
	cfg.Pairing.KeepRadius = 35
	if err := cfg.Finalize(); err != nil {
		t.Fatal(err)
	}
	rng := rand.New(rand.NewSource(1))
	agents := []components.Agent{
		agentAt(components.CategoryLow, 0, 0),
		agentAt(components.CategoryMid, 10, 0),
	}
	r := newRegistry(cfg, len(agents))
	r.Link(0, 1, rng)

	agents[1].Position.X = 100
	r.Update(agents, buildIndex(cfg, agents), rng)

	for _, i := range []int{0, 1} {
		ps := r.State(i)
		if ps.Partner != components.NoPartner {
			t.Errorf("agent %d still paired with %d", i, ps.Partner)
		}
		if ps.Cooldown != cfg.Pairing.Cooldown {
			t.Errorf("agent %d cooldown = %d, want %d", i, ps.Cooldown, cfg.Pairing.Cooldown)
		}
		if ps.BreakGrace != cfg.Pairing.BreakGrace {
			t.Errorf("agent %d grace = %d, want %d", i, ps.BreakGrace, cfg.Pairing.BreakGrace)
		}
		if ps.FramesPaired != 0 {
			t.Errorf("agent %d framesPaired = %d, want 0", i, ps.FramesPaired)
		}
	}
	if r.State(0).BreakPartner != 1 || r.State(1).BreakPartner != 0 {
		t.Errorf("breakPartner should reference the ex-partner, got %d and %d",
			r.State(0).BreakPartner, r.State(1).BreakPartner)
	}
	if r.Direction(0, 1) != nil {
		t.Error("shared heading should be released on break")
	}
	if r.Events().DistanceBreaks != 1 {
		t.Errorf("expected 1 distance break, got %d", r.Events().DistanceBreaks)
	}
}

func TestUpdate_BrokenPairNotReformedSameTick(t *testing.T) {
	cfg := testConfig(t)
	rng := rand.New(rand.NewSource(1))
	agents := []components.Agent{
		agentAt(components.CategoryLow, 0, 0),
		agentAt(components.CategoryMid, 10, 0),
		agentAt(components.CategoryMid, 3, 0),
	}
	r := newRegistry(cfg, len(agents))
	r.Link(0, 1, rng)
	agents[1].Position.X = 100

	r.Update(agents, buildIndex(cfg, agents), rng)

	if r.Partner(0) != components.NoPartner {
		t.Errorf("freshly broken agent re-paired with %d", r.Partner(0))
	}
	if r.Partner(2) != components.NoPartner {
		t.Errorf("agent 2 has no eligible partner, got %d", r.Partner(2))
	}
}

func TestUpdate_IneligibleBreak(t *testing.T) {
	cfg := testConfig(t)
	rng := rand.New(rand.NewSource(1))
	agents := []components.Agent{
		agentAt(components.CategoryLow, 0, 0),
		agentAt(components.CategoryMid, 10, 0),
	}
	r := newRegistry(cfg, len(agents))
	r.Link(0, 1, rng)

	agents[1].Visible = false
	r.Update(agents, buildIndex(cfg, agents), rng)

	if r.Partner(0) != components.NoPartner || r.Partner(1) != components.NoPartner {
		t.Errorf("hidden partner should dissolve the pair")
	}
	if r.Events().IneligibleBreaks != 1 {
		t.Errorf("expected 1 ineligible break, got %d", r.Events().IneligibleBreaks)
	}
}

func TestBreak_CapturesHeadingAndEase(t *testing.T) {
	cfg := testConfig(t)
	cfg.Pairing.EaseFrames = 60
	r := newRegistry(cfg, 2)
	r.Link(0, 1, rand.New(rand.NewSource(1)))
	heading := r.Direction(0, 1).Heading
	r.State(0).FramesPaired = 30
	r.State(1).FramesPaired = 30

	r.Break(0, 1, BreakChance)

	for _, i := range []int{0, 1} {
		ps := r.State(i)
		if ps.BreakHeading != heading {
			t.Errorf("agent %d break heading = %v, want %v", i, ps.BreakHeading, heading)
		}
		if math.Abs(ps.BreakEase-0.5) > 1e-9 {
			t.Errorf("agent %d break ease = %v, want 0.5", i, ps.BreakEase)
		}
	}
}

func TestBreak_OneSidedIsNoOp(t *testing.T) {
	cfg := testConfig(t)
	r := newRegistry(cfg, 3)
	r.Link(0, 1, rand.New(rand.NewSource(1)))

	r.Break(0, 2, BreakChance)

	if r.Partner(0) != 1 || r.Partner(1) != 0 {
		t.Error("break of a non-existent pair changed state")
	}
}

// ---------- Timers ----------

func TestAdvance_TimersAndGrace(t *testing.T) {
	cfg := testConfig(t)
	r := newRegistry(cfg, 2)
	ps := r.State(0)
	ps.Cooldown = 2
	ps.BreakGrace = 2
	ps.BreakPartner = 1

	r.Advance()
	if ps.Cooldown != 1 || ps.BreakGrace != 1 || ps.BreakPartner != 1 {
		t.Fatalf("after one tick: cooldown=%d grace=%d breakPartner=%d", ps.Cooldown, ps.BreakGrace, ps.BreakPartner)
	}

	r.Advance()
	if ps.Cooldown != 0 || ps.BreakGrace != 0 {
		t.Fatalf("timers should reach 0, got cooldown=%d grace=%d", ps.Cooldown, ps.BreakGrace)
	}
	if ps.BreakPartner != components.NoPartner {
		t.Errorf("breakPartner should clear when grace ends, got %d", ps.BreakPartner)
	}

	r.Advance()
	if ps.Cooldown != 0 || ps.BreakGrace != 0 {
		t.Errorf("timers should floor at 0, got cooldown=%d grace=%d", ps.Cooldown, ps.BreakGrace)
	}
}

func TestAdvance_AgesPairs(t *testing.T) {
	cfg := testConfig(t)
	r := newRegistry(cfg, 2)
	r.Link(0, 1, rand.New(rand.NewSource(1)))

	for range 5 {
		r.Advance()
	}
	if r.State(0).FramesPaired != 5 || r.State(1).FramesPaired != 5 {
		t.Errorf("expected framesPaired 5, got %d and %d", r.State(0).FramesPaired, r.State(1).FramesPaired)
	}
}

// ---------- Resize ----------

func TestResize_ShrinkClearsDanglingPartners(t *testing.T) {
	cfg := testConfig(t)
	rng := rand.New(rand.NewSource(1))
	r := newRegistry(cfg, 10)
	r.Link(0, 7, rng)
	r.Link(2, 3, rng)
	r.Link(1, 5, rng)
	r.Link(8, 9, rng)
	r.State(4).BreakPartner = 6
	r.State(4).BreakGrace = 10

	r.Resize(5)

	if r.Len() != 5 {
		t.Fatalf("expected 5 states, got %d", r.Len())
	}
	for i := 0; i < r.Len(); i++ {
		if p := r.Partner(i); p >= 5 {
			t.Errorf("agent %d still references removed partner %d", i, p)
		}
		if bp := r.State(i).BreakPartner; bp >= 5 {
			t.Errorf("agent %d still references removed ex-partner %d", i, bp)
		}
	}
	if r.Partner(2) != 3 || r.Partner(3) != 2 {
		t.Error("pair (2,3) should survive the shrink")
	}
	if r.Direction(2, 3) == nil {
		t.Error("surviving pair lost its shared heading")
	}
	if r.Direction(0, 7) != nil || r.Direction(1, 5) != nil {
		t.Error("headings of dropped pairs should be released")
	}
	if got := r.Events().DroppedByResize; got != 2 {
		t.Errorf("expected 2 dropped links, got %d", got)
	}
	checkSymmetry(t, r)
}

func TestResize_GrowAddsUnpaired(t *testing.T) {
	cfg := testConfig(t)
	r := newRegistry(cfg, 2)
	r.Resize(6)

	for i := 0; i < r.Len(); i++ {
		ps := r.State(i)
		if ps.Paired() || ps.Cooldown != 0 || ps.BreakPartner != components.NoPartner {
			t.Errorf("new slot %d not in the unpaired state: %+v", i, *ps)
		}
	}
}

// ---------- Properties ----------

func TestUpdate_SymmetryUnderRandomMotion(t *testing.T) {
	cfg := testConfig(t)
	cfg.Pairing.Cooldown = 5
	cfg.Pairing.BreakGrace = 3
	rng := rand.New(rand.NewSource(42))
	cats := components.AssignableCategories()

	agents := make([]components.Agent, 80)
	for i := range agents {
		agents[i] = agentAt(cats[rng.Intn(len(cats))], rng.Float64()*200-100, rng.Float64()*200-100)
	}
	r := newRegistry(cfg, len(agents))

	for tick := 0; tick < 300; tick++ {
		inCooldown := make([]bool, len(agents))
		before := make([]int, len(agents))
		for i := range agents {
			// Cooldown is decremented before formation, so only agents at >1 stay excluded.
			inCooldown[i] = r.State(i).Cooldown > 1
			before[i] = r.Partner(i)
		}

		r.Update(agents, buildIndex(cfg, agents), rng)
		checkSymmetry(t, r)

		for i := range agents {
			j := r.Partner(i)
			if j == components.NoPartner {
				continue
			}
			if !components.Complementary(agents[i].Category, agents[j].Category) {
				t.Fatalf("tick %d: non-complementary pair %v/%v", tick, agents[i].Category, agents[j].Category)
			}
			if before[i] == components.NoPartner && inCooldown[i] {
				t.Fatalf("tick %d: agent %d paired while in cooldown", tick, i)
			}
		}

		for i := range agents {
			agents[i].Position.X += rng.Float64()*6 - 3
			agents[i].Position.Z += rng.Float64()*6 - 3
		}
	}
	if r.Events().Formed == 0 {
		t.Error("expected at least one pair to form")
	}
}

func TestEaseFactor(t *testing.T) {
	tests := []struct {
		name         string
		frames, ease int
		want         float64
	}{
		{"start", 0, 60, 0},
		{"half", 30, 60, 0.5},
		{"done", 60, 60, 1},
		{"past", 120, 60, 1},
		{"disabled", 0, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EaseFactor(tt.frames, tt.ease); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("EaseFactor(%d, %d) = %v, want %v", tt.frames, tt.ease, got, tt.want)
			}
		})
	}
}
