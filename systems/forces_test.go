package systems

import (
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/peakswarm/components"
	"github.com/pthm-cable/peakswarm/config"
)

func newForceInput(cfg *config.Config, agents []components.Agent) *ForceInput {
	lastPos := make([]r3.Vec, len(agents))
	for i := range agents {
		lastPos[i] = agents[i].Position
	}
	return &ForceInput{
		Cfg:      cfg,
		Agents:   agents,
		Velocity: make([]r3.Vec, len(agents)),
		LastPos:  lastPos,
		Index:    buildIndex(cfg, agents),
		Pairs:    newRegistry(cfg, len(agents)),
		Noise:    NewNoiseField(3),
		Rng:      rand.New(rand.NewSource(5)),
	}
}

// isolatePairForces zeroes every pair term except the ones a test enables.
func isolatePairForces(cfg *config.Config) {
	cfg.Forces.SeparationStrength = 0
	cfg.Forces.CohesionStrength = 0
	cfg.Forces.AlignmentStrength = 0
	cfg.Forces.TravelStrength = 0
	cfg.Exploration.WanderStrength = 0
	cfg.Pairing.BreakProbability = 0
}

// ---------- Repulsion ----------

func TestApplyRepulsion_PushesApart(t *testing.T) {
	cfg := testConfig(t)
	agents := []components.Agent{
		agentAt(components.CategoryLow, 0, 0),
		agentAt(components.CategoryLow, 4, 0),
	}
	in := newForceInput(cfg, agents)

	f := ApplyRepulsion(in, 0)
	if f.X >= 0 {
		t.Errorf("expected push toward -x, got %v", f)
	}
	want := cfg.Forces.RepulsionStrength * (cfg.Forces.MinSeparation - 4) / cfg.Forces.MinSeparation
	if math.Abs(r2.Norm(f)-want) > 1e-9 {
		t.Errorf("push magnitude = %v, want %v", r2.Norm(f), want)
	}
}

func TestApplyRepulsion_CoincidentAgentsStayFinite(t *testing.T) {
	cfg := testConfig(t)
	agents := []components.Agent{
		agentAt(components.CategoryMid, 3, 3),
		agentAt(components.CategoryLow, 3, 3),
	}
	in := newForceInput(cfg, agents)

	f := ApplyRepulsion(in, 0)
	if !finite(f) {
		t.Fatalf("force is not finite: %v", f)
	}
	if r2.Norm(f) == 0 {
		t.Error("coincident agents should still be pushed apart")
	}
}

func TestApplyRepulsion_ReducedForPartner(t *testing.T) {
	cfg := testConfig(t)
	agents := []components.Agent{
		agentAt(components.CategoryLow, 0, 0),
		agentAt(components.CategoryMid, 4, 0),
	}
	in := newForceInput(cfg, agents)
	solo := r2.Norm(ApplyRepulsion(in, 0))

	in.Pairs.Link(0, 1, in.Rng)
	paired := r2.Norm(ApplyRepulsion(in, 0))

	if paired <= 0 {
		t.Fatal("paired repulsion should be reduced, not removed")
	}
	if math.Abs(paired/solo-cfg.Forces.PairedRepulsionFactor) > 1e-9 {
		t.Errorf("paired/solo = %v, want %v", paired/solo, cfg.Forces.PairedRepulsionFactor)
	}
}

func TestApplyRepulsion_FadesForExPartner(t *testing.T) {
	cfg := testConfig(t)
	agents := []components.Agent{
		agentAt(components.CategoryLow, 0, 0),
		agentAt(components.CategoryLow, 4, 0),
	}
	in := newForceInput(cfg, agents)
	full := r2.Norm(ApplyRepulsion(in, 0))

	ps := in.Pairs.State(0)
	ps.BreakPartner = 1
	ps.BreakGrace = cfg.Pairing.BreakGrace / 4

	got := r2.Norm(ApplyRepulsion(in, 0))
	want := full * (1 - float64(ps.BreakGrace)/float64(cfg.Pairing.BreakGrace))
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("faded push = %v, want %v", got, want)
	}
}

func TestApplyRepulsion_ComplementaryPull(t *testing.T) {
	cfg := testConfig(t)
	agents := []components.Agent{
		agentAt(components.CategoryLow, 0, 0),
		agentAt(components.CategoryMid, 20, 0),
	}
	in := newForceInput(cfg, agents)

	f := ApplyRepulsion(in, 0)
	if f.X <= 0 || math.Abs(f.Y) > 1e-12 {
		t.Errorf("expected pull toward +x, got %v", f)
	}
}

func TestApplyRepulsion_NoPullWhenPairedElsewhere(t *testing.T) {
	cfg := testConfig(t)
	agents := []components.Agent{
		agentAt(components.CategoryLow, 0, 0),
		agentAt(components.CategoryMid, 20, 0),
		agentAt(components.CategoryMid, -200, 0),
	}
	in := newForceInput(cfg, agents)
	in.Pairs.Link(0, 2, in.Rng)

	if f := ApplyRepulsion(in, 0); r2.Norm(f) != 0 {
		t.Errorf("agent paired with a third party should not attract, got %v", f)
	}
}

func TestApplyRepulsion_InvisibleIgnored(t *testing.T) {
	cfg := testConfig(t)
	agents := []components.Agent{
		agentAt(components.CategoryLow, 0, 0),
		agentAt(components.CategoryLow, 2, 0),
	}
	agents[1].Visible = false
	in := newForceInput(cfg, agents)

	if f := ApplyRepulsion(in, 0); r2.Norm(f) != 0 {
		t.Errorf("invisible neighbor should exert no force, got %v", f)
	}
}

// ---------- Pairing force ----------

func TestApplyPairing_UnpairedIsNeutral(t *testing.T) {
	cfg := testConfig(t)
	in := newForceInput(cfg, []components.Agent{agentAt(components.CategoryLow, 0, 0)})

	f, scale := ApplyPairing(in, 0)
	if r2.Norm(f) != 0 || scale != 1 {
		t.Errorf("expected zero force and full exploration, got %v and %v", f, scale)
	}
}

func TestApplyPairing_SeparationKeepsSpacing(t *testing.T) {
	tests := []struct {
		name    string
		dist    float64
		towardX bool
	}{
		{"too close", 4, false},
		{"too far", 30, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			isolatePairForces(cfg)
			cfg.Forces.SeparationStrength = 0.4
			agents := []components.Agent{
				agentAt(components.CategoryLow, 0, 0),
				agentAt(components.CategoryMid, tt.dist, 0),
			}
			in := newForceInput(cfg, agents)
			in.Pairs.Link(0, 1, in.Rng)

			f, scale := ApplyPairing(in, 0)
			if (f.X > 0) != tt.towardX || f.X == 0 {
				t.Errorf("force %v, want toward partner = %v", f, tt.towardX)
			}
			if scale != cfg.Exploration.PairedFactor {
				t.Errorf("exploration scale = %v, want %v", scale, cfg.Exploration.PairedFactor)
			}
		})
	}
}

func TestApplyPairing_TravelEasesIn(t *testing.T) {
	cfg := testConfig(t)
	isolatePairForces(cfg)
	cfg.Forces.TravelStrength = 0.25
	agents := []components.Agent{
		agentAt(components.CategoryLow, 0, 0),
		agentAt(components.CategoryMid, 10, 0),
	}
	in := newForceInput(cfg, agents)
	in.Pairs.Link(0, 1, in.Rng)

	start, _ := ApplyPairing(in, 1)
	if r2.Norm(start) > 1e-12 {
		t.Errorf("travel should be zero on the first paired tick, got %v", start)
	}

	in.Pairs.State(1).FramesPaired = cfg.Pairing.EaseFrames
	eased, _ := ApplyPairing(in, 1)
	if math.Abs(r2.Norm(eased)-cfg.Forces.TravelStrength) > 1e-9 {
		t.Errorf("eased travel magnitude = %v, want %v", r2.Norm(eased), cfg.Forces.TravelStrength)
	}
}

func TestApplyPairing_LeavesHeadingAlone(t *testing.T) {
	cfg := testConfig(t)
	agents := []components.Agent{
		agentAt(components.CategoryLow, 0, 50),
		agentAt(components.CategoryMid, 10, 50),
	}
	in := newForceInput(cfg, agents)
	in.Pairs.Link(0, 1, in.Rng)
	shared := in.Pairs.Direction(0, 1)
	shared.Heading = r2.Vec{X: 1}

	ApplyPairing(in, 0)
	ApplyPairing(in, 1)
	if shared.Heading != (r2.Vec{X: 1}) {
		t.Errorf("force pass changed the shared heading to %v", shared.Heading)
	}
}

func TestApplyPairing_JitterBoundedByWander(t *testing.T) {
	cfg := testConfig(t)
	isolatePairForces(cfg)
	cfg.Exploration.WanderStrength = 1
	agents := []components.Agent{
		agentAt(components.CategoryLow, 0, 0),
		agentAt(components.CategoryMid, cfg.Forces.PairSpacing, 0),
	}
	in := newForceInput(cfg, agents)
	in.Pairs.Link(0, 1, in.Rng)

	bound := PairedJitterStrength(cfg)
	if bound <= 0 || bound >= cfg.Exploration.NoiseStrength {
		t.Fatalf("paired jitter %v should be a positive fraction of solo noise %v", bound, cfg.Exploration.NoiseStrength)
	}
	for range 50 {
		f, _ := ApplyPairing(in, 0)
		if r2.Norm(f) > bound+1e-9 {
			t.Fatalf("jitter %v exceeds %v", r2.Norm(f), bound)
		}
		if math.Abs(f.X) > 1e-9 {
			t.Fatalf("jitter should be lateral to the partner, got %v", f)
		}
	}

	cfg.Exploration.WanderStrength = 0
	if f, _ := ApplyPairing(in, 0); r2.Norm(f) != 0 {
		t.Errorf("jitter should vanish without wander, got %v", f)
	}
}

// ---------- Pair updates ----------

func TestUpdatePairs_SteersHeading(t *testing.T) {
	cfg := testConfig(t)
	cfg.Pairing.BreakProbability = 0
	agents := []components.Agent{
		agentAt(components.CategoryLow, 0, 50),
		agentAt(components.CategoryMid, 10, 50),
	}
	in := newForceInput(cfg, agents)
	in.Pairs.Link(0, 1, in.Rng)
	shared := in.Pairs.Direction(0, 1)
	shared.Heading = r2.Vec{X: 1}
	in.Pairs.State(0).FramesPaired = 1
	in.Pairs.State(1).FramesPaired = 1

	UpdatePairs(in)

	if shared.Heading == (r2.Vec{X: 1}) {
		t.Error("expected the shared heading to change")
	}
	if n := r2.Norm(shared.Heading); math.Abs(n-1) > 1e-9 {
		t.Errorf("shared heading length = %v, want 1", n)
	}
}

func TestUpdatePairs_ChanceBreakAfterMinimum(t *testing.T) {
	cfg := testConfig(t)
	cfg.Pairing.BreakProbability = 1
	cfg.Pairing.MinFrames = 10
	agents := []components.Agent{
		agentAt(components.CategoryLow, 0, 0),
		agentAt(components.CategoryMid, 10, 0),
	}
	in := newForceInput(cfg, agents)
	in.Pairs.Link(0, 1, in.Rng)

	in.Pairs.State(0).FramesPaired = 10
	in.Pairs.State(1).FramesPaired = 10
	UpdatePairs(in)
	if in.Pairs.Partner(0) != 1 {
		t.Fatal("pair broke before exceeding the minimum duration")
	}

	in.Pairs.State(0).FramesPaired = 11
	in.Pairs.State(1).FramesPaired = 11
	UpdatePairs(in)
	if in.Pairs.Partner(0) != components.NoPartner || in.Pairs.Partner(1) != components.NoPartner {
		t.Error("expected a chance break")
	}
	if in.Pairs.Events().ChanceBreaks != 1 {
		t.Errorf("expected 1 chance break, got %d", in.Pairs.Events().ChanceBreaks)
	}
	if hd := in.Pairs.State(1).BreakHeading; r2.Norm(hd) == 0 {
		t.Error("break should capture the shared heading")
	}
}

func TestApplyPairing_BreakEchoFades(t *testing.T) {
	cfg := testConfig(t)
	in := newForceInput(cfg, []components.Agent{agentAt(components.CategoryLow, 0, 0)})
	ps := in.Pairs.State(0)
	ps.BreakHeading = r2.Vec{Y: 1}
	ps.BreakEase = 1
	ps.BreakGrace = cfg.Pairing.BreakGrace

	full, fullScale := ApplyPairing(in, 0)
	if full.Y <= 0 {
		t.Fatalf("echo should push along the captured heading, got %v", full)
	}
	if math.Abs(fullScale-cfg.Exploration.PairedFactor) > 1e-9 {
		t.Errorf("exploration scale at break = %v, want %v", fullScale, cfg.Exploration.PairedFactor)
	}

	ps.BreakGrace = cfg.Pairing.BreakGrace / 2
	half, halfScale := ApplyPairing(in, 0)
	if r2.Norm(half) >= r2.Norm(full) {
		t.Errorf("echo should fade: %v then %v", r2.Norm(full), r2.Norm(half))
	}
	if halfScale <= fullScale || halfScale >= 1 {
		t.Errorf("exploration should ramp back up, got %v", halfScale)
	}

	ps.BreakGrace = 0
	if f, scale := ApplyPairing(in, 0); r2.Norm(f) != 0 || scale != 1 {
		t.Errorf("echo should end with grace, got %v and %v", f, scale)
	}
}

// ---------- Exploration ----------

func TestCenterAvoidance_AtOrigin(t *testing.T) {
	cfg := testConfig(t)
	cfg.Exploration.AvoidCenterRadius = 50
	rng := rand.New(rand.NewSource(9))

	f := CenterAvoidance(r2.Vec{}, &cfg.Exploration, rng)
	if !finite(f) {
		t.Fatalf("center avoidance at origin is not finite: %v", f)
	}
	if r2.Norm(f) == 0 {
		t.Fatal("center avoidance at origin should be non-zero")
	}
	if math.Abs(r2.Norm(f)-cfg.Exploration.AvoidCenterStrength) > 1e-9 {
		t.Errorf("magnitude = %v, want full strength %v", r2.Norm(f), cfg.Exploration.AvoidCenterStrength)
	}
}

func TestCenterAvoidance_Quadratic(t *testing.T) {
	cfg := testConfig(t)
	cfg.Exploration.AvoidCenterRadius = 50
	rng := rand.New(rand.NewSource(9))

	tests := []struct {
		name string
		r    float64
		want float64
	}{
		{"half radius", 25, 0.25},
		{"at radius", 50, 0},
		{"outside", 80, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := CenterAvoidance(r2.Vec{X: tt.r}, &cfg.Exploration, rng)
			want := tt.want * cfg.Exploration.AvoidCenterStrength
			if math.Abs(r2.Norm(f)-want) > 1e-9 {
				t.Errorf("magnitude = %v, want %v", r2.Norm(f), want)
			}
			if tt.want > 0 && f.X <= 0 {
				t.Errorf("push should point outward, got %v", f)
			}
		})
	}
}

func TestApplyExploration_OriginIsFinite(t *testing.T) {
	cfg := testConfig(t)
	in := newForceInput(cfg, []components.Agent{agentAt(components.CategoryMid, 0, 0)})

	f := ApplyExploration(in, 0, 1)
	if !finite(f) || r2.Norm(f) == 0 {
		t.Errorf("expected finite non-zero force at origin, got %v", f)
	}
}

func TestApplyExploration_BoundaryPullsInward(t *testing.T) {
	cfg := testConfig(t)
	cfg.Exploration.DriftStrength = 0
	cfg.Exploration.NoiseStrength = 0
	x := cfg.Exploration.MaxRange * 2
	in := newForceInput(cfg, []components.Agent{agentAt(components.CategoryMid, x, 0)})

	f := ApplyExploration(in, 0, 1)
	want := cfg.Exploration.BoundaryStrength
	if f.X >= 0 || math.Abs(-f.X-want) > 1e-9 {
		t.Errorf("expected inward push of %v, got %v", want, f)
	}
}

func TestApplyExploration_ScaleReducesWander(t *testing.T) {
	cfg := testConfig(t)
	cfg.Exploration.AvoidCenterRadius = 0
	in := newForceInput(cfg, []components.Agent{agentAt(components.CategoryMid, 100, 0)})
	in.Agents[0].Seed = 0.3
	in.Time = 12

	full := ApplyExploration(in, 0, 1)
	reduced := ApplyExploration(in, 0, 0.25)
	if math.Abs(r2.Norm(reduced)-0.25*r2.Norm(full)) > 1e-9 {
		t.Errorf("scaled wander = %v, want %v", r2.Norm(reduced), 0.25*r2.Norm(full))
	}
}

func TestApplyExploration_WanderStrengthScales(t *testing.T) {
	cfg := testConfig(t)
	cfg.Exploration.AvoidCenterRadius = 0
	in := newForceInput(cfg, []components.Agent{agentAt(components.CategoryMid, 100, 0)})
	in.Agents[0].Seed = 0.3
	in.Time = 12

	cfg.Exploration.WanderStrength = 1
	base := ApplyExploration(in, 0, 1)
	cfg.Exploration.WanderStrength = 2
	doubled := ApplyExploration(in, 0, 1)
	if math.Abs(r2.Norm(doubled)-2*r2.Norm(base)) > 1e-9 {
		t.Errorf("wander at strength 2 = %v, want %v", r2.Norm(doubled), 2*r2.Norm(base))
	}

	cfg.Exploration.WanderStrength = 0
	if f := ApplyExploration(in, 0, 1); r2.Norm(f) != 0 {
		t.Errorf("expected no wander at strength 0, got %v", f)
	}
}
