package systems

import (
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestIntegrate_VelocityBound(t *testing.T) {
	cfg := testConfig(t)
	cfg.Integration.VelocityBlend = 1
	cfg.Integration.FollowRate = 10
	rng := rand.New(rand.NewSource(3))

	pos := r3.Vec{X: 5, Y: 12, Z: -5}
	var vel r3.Vec
	var offset r2.Vec
	for range 500 {
		force := r2.Vec{X: rng.NormFloat64() * 50, Y: rng.NormFloat64() * 50}
		target := r2.Vec{X: rng.Float64()*1000 - 500, Y: rng.Float64()*1000 - 500}
		offset = Integrate(&cfg.Integration, &pos, &vel, offset, force, target, rng.Intn(2) == 0)

		if speed := vel.X*vel.X + vel.Z*vel.Z; math.Sqrt(speed) > cfg.Integration.MaxVelocity+1e-9 {
			t.Fatalf("speed %v exceeds max %v", math.Sqrt(speed), cfg.Integration.MaxVelocity)
		}
		if r2.Norm(offset) > cfg.Integration.MaxOffset+1e-9 {
			t.Fatalf("offset %v exceeds max %v", r2.Norm(offset), cfg.Integration.MaxOffset)
		}
	}
	if pos.Y != 12 {
		t.Errorf("height must not be written, got %v", pos.Y)
	}
}

func TestIntegrate_MovesTowardTarget(t *testing.T) {
	cfg := testConfig(t)
	pos := r3.Vec{}
	var vel r3.Vec
	var offset r2.Vec
	target := r2.Vec{X: 40}

	for range 200 {
		offset = Integrate(&cfg.Integration, &pos, &vel, offset, r2.Vec{}, target, false)
	}
	if pos.X <= 0 {
		t.Errorf("expected drift toward the pattern target, got %v", pos)
	}
	if math.Abs(pos.Z) > 1e-9 {
		t.Errorf("no lateral motion expected, got z=%v", pos.Z)
	}
}

func TestIntegrate_VelocityIsLowPassed(t *testing.T) {
	cfg := testConfig(t)
	cfg.Integration.PatternWeight = 0
	pos := r3.Vec{}
	var vel r3.Vec

	Integrate(&cfg.Integration, &pos, &vel, r2.Vec{}, r2.Vec{X: 10}, r2.Vec{}, false)

	desired := cfg.Integration.FollowRate * math.Min(10, cfg.Integration.MaxOffset)
	want := math.Min(desired*cfg.Integration.VelocityBlend, cfg.Integration.MaxVelocity)
	if math.Abs(vel.X-want) > 1e-9 {
		t.Errorf("velocity = %v, want blended %v", vel.X, want)
	}
}

func TestIntegrate_NonFiniteForceIgnored(t *testing.T) {
	cfg := testConfig(t)
	pos := r3.Vec{X: 1, Z: 1}
	var vel r3.Vec

	offset := Integrate(&cfg.Integration, &pos, &vel, r2.Vec{}, r2.Vec{X: math.NaN(), Y: math.Inf(1)}, r2.Vec{X: 1, Y: 1}, false)
	if !finite(offset) || math.IsNaN(pos.X) || math.IsNaN(pos.Z) || math.IsNaN(vel.X) {
		t.Errorf("non-finite force leaked into state: pos=%v vel=%v offset=%v", pos, vel, offset)
	}
}

func TestSoftLockStep_ConvergesAndLatches(t *testing.T) {
	cfg := testConfig(t)
	pos := r3.Vec{X: 0, Y: 7, Z: 0}
	target := r2.Vec{X: 30, Y: -20}

	done := false
	steps := 0
	for !done && steps < 1000 {
		done = SoftLockStep(&cfg.Integration, &pos, target)
		steps++
	}
	if !done {
		t.Fatal("soft lock never latched")
	}
	if pos.X != target.X || pos.Z != target.Y {
		t.Errorf("expected snap onto target, got %v", pos)
	}
	if pos.Y != 7 {
		t.Errorf("height must not be written, got %v", pos.Y)
	}
	if steps < 2 {
		t.Errorf("soft lock should interpolate, latched after %d steps", steps)
	}
}

func TestSnap(t *testing.T) {
	pos := r3.Vec{X: 1, Y: 2, Z: 3}
	Snap(&pos, r2.Vec{X: -4, Y: 9})
	if pos != (r3.Vec{X: -4, Y: 2, Z: 9}) {
		t.Errorf("unexpected snap result %v", pos)
	}

	Snap(&pos, r2.Vec{X: math.NaN()})
	if pos != (r3.Vec{X: -4, Y: 2, Z: 9}) {
		t.Errorf("NaN target should be ignored, got %v", pos)
	}
}
