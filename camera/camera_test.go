package camera

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestNew(t *testing.T) {
	cam := New(50)

	if cam.Target != (r3.Vec{}) {
		t.Errorf("expected camera aimed at origin, got %v", cam.Target)
	}
	if d := r3.Norm(r3.Sub(cam.Eye(), cam.Target)); math.Abs(d-50) > 1e-9 {
		t.Errorf("expected eye at distance 50, got %f", d)
	}
	if cam.Eye().Y <= 0 {
		t.Errorf("expected eye above the ground plane, got %v", cam.Eye())
	}
}

func TestNew_NonPositiveDistance(t *testing.T) {
	cam := New(0)
	if cam.Distance <= 0 {
		t.Errorf("distance should be positive, got %f", cam.Distance)
	}
}

func TestOrbit_ClampsPitch(t *testing.T) {
	cam := New(10)

	cam.Orbit(0, 10)
	if cam.Pitch != cam.MaxPitch {
		t.Errorf("pitch should clamp to %f, got %f", cam.MaxPitch, cam.Pitch)
	}
	cam.Orbit(0, -10)
	if cam.Pitch != cam.MinPitch {
		t.Errorf("pitch should clamp to %f, got %f", cam.MinPitch, cam.Pitch)
	}
}

func TestOrbit_KeepsDistance(t *testing.T) {
	cam := New(20)
	for i := 0; i < 10; i++ {
		cam.Orbit(0.7, 0.05)
		if d := r3.Norm(r3.Sub(cam.Eye(), cam.Target)); math.Abs(d-20) > 1e-9 {
			t.Fatalf("orbit changed distance to %f", d)
		}
	}
}

func TestZoomBy(t *testing.T) {
	cam := New(10)

	cam.ZoomBy(2)
	if math.Abs(cam.Distance-5) > 1e-9 {
		t.Errorf("expected distance 5, got %f", cam.Distance)
	}

	cam.ZoomBy(1000)
	if cam.Distance != cam.MinDistance {
		t.Errorf("expected clamp to min %f, got %f", cam.MinDistance, cam.Distance)
	}

	cam.ZoomBy(0.0001)
	if cam.Distance != cam.MaxDistance {
		t.Errorf("expected clamp to max %f, got %f", cam.MaxDistance, cam.Distance)
	}

	before := cam.Distance
	cam.ZoomBy(0)
	if cam.Distance != before {
		t.Error("zero factor should be ignored")
	}
}

func TestPan(t *testing.T) {
	cam := New(10)
	cam.Yaw = 0 // eye on +X looking toward -X

	cam.Pan(0, 1)
	if math.Abs(cam.Target.X+1) > 1e-9 || math.Abs(cam.Target.Z) > 1e-9 {
		t.Errorf("forward pan should move toward -X, got %v", cam.Target)
	}

	cam.Pan(1, 0)
	if math.Abs(cam.Target.Z+1) > 1e-9 {
		t.Errorf("right pan should move toward -Z, got %v", cam.Target)
	}
	if cam.Target.Y != 0 {
		t.Errorf("pan must stay on the ground plane, got %v", cam.Target)
	}
}

func TestReset(t *testing.T) {
	cam := New(30)
	yaw, pitch := cam.Yaw, cam.Pitch

	cam.Orbit(1, 0.3)
	cam.ZoomBy(2)
	cam.Pan(5, 5)
	cam.Reset()

	if cam.Yaw != yaw || cam.Pitch != pitch || cam.Distance != 30 || cam.Target != (r3.Vec{}) {
		t.Errorf("reset did not restore pose: %+v", cam)
	}
}
