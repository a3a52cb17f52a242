// Package camera provides an orbit camera for viewing the swarm.
package camera

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Camera orbits a target point on the ground plane.
// Yaw is measured from +X toward +Z; pitch is the elevation above the plane.
type Camera struct {
	// Target is the point the camera looks at
	Target r3.Vec

	// Orbit angles in radians
	Yaw, Pitch float64

	// Distance from target to eye
	Distance float64

	// Constraints
	MinDistance, MaxDistance float64
	MinPitch, MaxPitch       float64

	// FOV is the vertical field of view in degrees
	FOV float64

	home pose
}

// pose is the state restored by Reset.
type pose struct {
	Target     r3.Vec
	Yaw, Pitch float64
	Distance   float64
}

// New creates a camera looking at the origin from the given distance.
func New(distance float64) *Camera {
	if distance <= 0 {
		distance = 1
	}
	c := &Camera{
		Yaw:         math.Pi / 4,
		Pitch:       0.6,
		Distance:    distance,
		MinDistance: distance * 0.1,
		MaxDistance: distance * 4,
		MinPitch:    0.05,
		MaxPitch:    1.5,
		FOV:         45,
	}
	c.home = pose{Target: c.Target, Yaw: c.Yaw, Pitch: c.Pitch, Distance: c.Distance}
	return c
}

// Eye returns the camera position in world coordinates.
func (c *Camera) Eye() r3.Vec {
	sp, cp := math.Sincos(c.Pitch)
	sy, cy := math.Sincos(c.Yaw)
	offset := r3.Vec{X: cp * cy, Y: sp, Z: cp * sy}
	return r3.Add(c.Target, r3.Scale(c.Distance, offset))
}

// Orbit rotates the camera around the target. Pitch is clamped.
func (c *Camera) Orbit(dyaw, dpitch float64) {
	c.Yaw = math.Mod(c.Yaw+dyaw, 2*math.Pi)
	c.Pitch = clamp(c.Pitch+dpitch, c.MinPitch, c.MaxPitch)
}

// ZoomBy divides the distance by factor. Factors above 1 move closer.
func (c *Camera) ZoomBy(factor float64) {
	if factor <= 0 {
		return
	}
	c.Distance = clamp(c.Distance/factor, c.MinDistance, c.MaxDistance)
}

// Pan moves the target on the ground plane relative to the view direction.
// right moves across the screen; forward moves away from the eye.
func (c *Camera) Pan(right, forward float64) {
	sy, cy := math.Sincos(c.Yaw)
	// Horizontal axes as seen from the eye
	fwd := r3.Vec{X: -cy, Z: -sy}
	side := r3.Vec{X: sy, Z: -cy}
	delta := r3.Add(r3.Scale(right, side), r3.Scale(forward, fwd))
	c.Target = r3.Add(c.Target, delta)
}

// Reset returns the camera to its initial pose.
func (c *Camera) Reset() {
	c.Target = c.home.Target
	c.Yaw = c.home.Yaw
	c.Pitch = c.home.Pitch
	c.Distance = c.home.Distance
}

// clamp restricts a value to a range.
func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
