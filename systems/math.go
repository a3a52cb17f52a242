package systems

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// degenerateEps is the length below which a vector has no usable direction.
const degenerateEps = 1e-9

// Clamp functions for common value ranges

// clampFloat clamps v between minVal and maxVal.
func clampFloat(v, minVal, maxVal float64) float64 {
	if v < minVal {
		return minVal
	}
	if v > maxVal {
		return maxVal
	}
	return v
}

// clamp01 clamps v to the [0, 1] range.
func clamp01(v float64) float64 {
	return clampFloat(v, 0, 1)
}

// Smoothstep is the cubic Hermite ramp 3t^2 - 2t^3 over t clamped to [0, 1].
func Smoothstep(t float64) float64 {
	t = clamp01(t)
	return t * t * (3 - 2*t)
}

// Planar helpers. The swarm lives on the x/z plane; r2 X is world X and r2 Y is world Z.

// Planar projects p onto the horizontal plane.
func Planar(p r3.Vec) r2.Vec {
	return r2.Vec{X: p.X, Y: p.Z}
}

// Lift returns v as a horizontal r3 vector with zero height.
func Lift(v r2.Vec) r3.Vec {
	return r3.Vec{X: v.X, Z: v.Y}
}

// PlanarDistSq returns the squared horizontal distance between a and b.
func PlanarDistSq(a, b r3.Vec) float64 {
	dx := a.X - b.X
	dz := a.Z - b.Z
	return dx*dx + dz*dz
}

// RandomUnit returns a uniformly distributed planar unit vector.
func RandomUnit(rng *rand.Rand) r2.Vec {
	angle := rng.Float64() * 2 * math.Pi
	return r2.Vec{X: math.Cos(angle), Y: math.Sin(angle)}
}

// unitOr normalizes v, returning fallback when v has no usable direction.
func unitOr(v r2.Vec, fallback r2.Vec) r2.Vec {
	n := r2.Norm(v)
	if n < degenerateEps || math.IsNaN(n) || math.IsInf(n, 0) {
		return fallback
	}
	return r2.Scale(1/n, v)
}

// rotate turns v by angle radians counter-clockwise.
func rotate(v r2.Vec, angle float64) r2.Vec {
	s, c := math.Sincos(angle)
	return r2.Vec{X: v.X*c - v.Y*s, Y: v.X*s + v.Y*c}
}

// perp returns v rotated a quarter turn counter-clockwise.
func perp(v r2.Vec) r2.Vec {
	return r2.Vec{X: -v.Y, Y: v.X}
}

// clampLength scales v down so that |v| <= maxLen.
func clampLength(v r2.Vec, maxLen float64) r2.Vec {
	n2 := r2.Norm2(v)
	if n2 <= maxLen*maxLen || n2 == 0 {
		return v
	}
	return r2.Scale(maxLen/math.Sqrt(n2), v)
}

// lerp blends a toward b by t.
func lerp(a, b r2.Vec, t float64) r2.Vec {
	return r2.Add(a, r2.Scale(t, r2.Sub(b, a)))
}

// finite reports whether both components are usable numbers.
func finite(v r2.Vec) bool {
	return !math.IsNaN(v.X) && !math.IsNaN(v.Y) && !math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0)
}
