package telemetry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/peakswarm/components"
	"github.com/pthm-cable/peakswarm/systems"
)

// Source is the read-only engine view the collector samples.
type Source interface {
	Len() int
	Agent(i int) components.Agent
	Velocity(i int) r3.Vec
	PairState(i int) components.PairState
	Held(i int) bool
	PairEvents() systems.PairEvents
	Time() float64
}

// Collector turns cumulative engine counters into per-window WindowStats.
type Collector struct {
	windowDurationSec   float64
	windowDurationSteps int
	dt                  float64

	// Current window tracking
	windowStartStep int
	lastEvents      systems.PairEvents

	// Scratch buffers reused between flushes
	speeds   []float64
	pairAges []float64
	radii    []float64
}

// NewCollector creates a new stats collector.
// windowDurationSec: how long each stats window lasts in simulation seconds
// dt: seconds per step (used for step-to-time conversion)
func NewCollector(windowDurationSec, dt float64) *Collector {
	steps := int(windowDurationSec / dt)
	if steps < 1 {
		steps = 1
	}
	return &Collector{
		windowDurationSec:   windowDurationSec,
		windowDurationSteps: steps,
		dt:                  dt,
	}
}

// ShouldFlush returns true if enough steps have passed to flush the window.
func (c *Collector) ShouldFlush(currentStep int) bool {
	return currentStep-c.windowStartStep >= c.windowDurationSteps
}

// WindowDurationSteps returns the number of steps per window.
func (c *Collector) WindowDurationSteps() int {
	return c.windowDurationSteps
}

// Reset starts a new window at step 0 with no prior events.
func (c *Collector) Reset() {
	c.windowStartStep = 0
	c.lastEvents = systems.PairEvents{}
}

// Flush samples src and produces the stats for the window ending at currentStep.
func (c *Collector) Flush(currentStep int, src Source) WindowStats {
	events := src.PairEvents()
	delta := systems.PairEvents{
		Formed:           events.Formed - c.lastEvents.Formed,
		DistanceBreaks:   events.DistanceBreaks - c.lastEvents.DistanceBreaks,
		ChanceBreaks:     events.ChanceBreaks - c.lastEvents.ChanceBreaks,
		IneligibleBreaks: events.IneligibleBreaks - c.lastEvents.IneligibleBreaks,
		DroppedByResize:  events.DroppedByResize - c.lastEvents.DroppedByResize,
	}

	c.speeds = c.speeds[:0]
	c.pairAges = c.pairAges[:0]
	c.radii = c.radii[:0]

	var visible, held, paired int
	for i := 0; i < src.Len(); i++ {
		a := src.Agent(i)
		if a.Visible {
			visible++
		}
		if src.Held(i) {
			held++
		} else {
			v := src.Velocity(i)
			c.speeds = append(c.speeds, math.Hypot(v.X, v.Z))
		}
		if ps := src.PairState(i); ps.Paired() && a.Visible {
			paired++
			if i < ps.Partner {
				c.pairAges = append(c.pairAges, float64(ps.FramesPaired))
			}
		}
		c.radii = append(c.radii, math.Hypot(a.Position.X, a.Position.Z))
	}

	var fraction float64
	if visible > 0 {
		fraction = float64(paired) / float64(visible)
	}

	speed := Describe(c.speeds)
	age := Describe(c.pairAges)
	radius := Describe(c.radii)

	stats := WindowStats{
		WindowStartStep: c.windowStartStep,
		WindowEndStep:   currentStep,
		SimTimeSec:      src.Time(),

		Agents:         src.Len(),
		Visible:        visible,
		Held:           held,
		Paired:         paired,
		PairedFraction: fraction,

		Formed:           delta.Formed,
		DistanceBreaks:   delta.DistanceBreaks,
		ChanceBreaks:     delta.ChanceBreaks,
		IneligibleBreaks: delta.IneligibleBreaks,
		Dropped:          delta.DroppedByResize,

		SpeedMean: speed.Mean,
		SpeedStd:  speed.Std,
		SpeedP10:  speed.P10,
		SpeedP50:  speed.P50,
		SpeedP90:  speed.P90,

		PairAgeMean: age.Mean,
		PairAgeP50:  age.P50,
		PairAgeMax:  age.Max,

		RadiusMean: radius.Mean,
		RadiusP90:  radius.P90,
	}

	// Reset for next window
	c.windowStartStep = currentStep
	c.lastEvents = events

	return stats
}
