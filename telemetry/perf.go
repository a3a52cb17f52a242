package telemetry

import (
	"log/slog"
	"time"
)

// Phase names for the simulation step.
const (
	PhaseResize       = "resize"
	PhaseTargets      = "targets"
	PhaseSpatialIndex = "spatial_index"
	PhasePairing      = "pairing"
	PhaseForces       = "forces"
	PhaseHistory      = "history"
	PhaseTelemetry    = "telemetry"
)

// phases lists every phase in step order.
var phases = []string{
	PhaseResize, PhaseTargets, PhaseSpatialIndex,
	PhasePairing, PhaseForces, PhaseHistory, PhaseTelemetry,
}

const phaseCount = 7

// phaseSlot maps a phase name to its position in phases.
var phaseSlot = func() map[string]int {
	m := make(map[string]int, len(phases))
	for i, p := range phases {
		m[p] = i
	}
	return m
}()

// Phases returns every phase name in step order.
func Phases() []string {
	return append([]string(nil), phases...)
}

// phaseTimes holds one duration per step phase, in step order.
type phaseTimes [phaseCount]time.Duration

// PerfSample holds timing data for a single step.
type PerfSample struct {
	TickDuration time.Duration
	Phases       phaseTimes
}

// PerfCollector tracks step timing over a rolling window. Phases not in
// Phases() count toward the step total only. It satisfies engine.PhaseTimer.
type PerfCollector struct {
	windowSize  int
	samples     []PerfSample
	writeIndex  int
	sampleCount int

	current    phaseTimes
	tickStart  time.Time
	phaseStart time.Time
	lastSlot   int // -1 when no known phase is running

	// Frame timing (for graphics mode)
	lastFrameTime time.Time
	frameDuration time.Duration
}

// NewPerfCollector creates a collector averaging over windowSize steps.
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 60
	}
	return &PerfCollector{
		windowSize: windowSize,
		samples:    make([]PerfSample, windowSize),
		lastSlot:   -1,
	}
}

// StartTick begins timing a new simulation step.
func (p *PerfCollector) StartTick() {
	p.tickStart = time.Now()
	p.current = phaseTimes{}
	p.lastSlot = -1
}

// StartPhase ends the running phase and starts timing the named one.
func (p *PerfCollector) StartPhase(phase string) {
	now := time.Now()
	p.closePhase(now)
	p.phaseStart = now
	if slot, ok := phaseSlot[phase]; ok {
		p.lastSlot = slot
	} else {
		p.lastSlot = -1
	}
}

func (p *PerfCollector) closePhase(now time.Time) {
	if p.lastSlot >= 0 {
		p.current[p.lastSlot] += now.Sub(p.phaseStart)
	}
}

// EndTick finishes timing the current step and records the sample.
func (p *PerfCollector) EndTick() {
	now := time.Now()
	p.closePhase(now)
	p.lastSlot = -1

	p.samples[p.writeIndex] = PerfSample{
		TickDuration: now.Sub(p.tickStart),
		Phases:       p.current,
	}
	p.writeIndex = (p.writeIndex + 1) % p.windowSize
	if p.sampleCount < p.windowSize {
		p.sampleCount++
	}
}

// RecordFrame records frame timing for graphics mode.
func (p *PerfCollector) RecordFrame() {
	now := time.Now()
	if !p.lastFrameTime.IsZero() {
		p.frameDuration = now.Sub(p.lastFrameTime)
	}
	p.lastFrameTime = now
}

// PerfStats holds aggregated performance statistics.
type PerfStats struct {
	// Step timing
	AvgTickDuration time.Duration
	MinTickDuration time.Duration
	MaxTickDuration time.Duration

	// Average duration and share of step time per phase, keyed by phase name.
	// Phases that never ran are absent.
	PhaseAvg map[string]time.Duration
	PhasePct map[string]float64

	// Slowest phase on average, empty before the first step
	Dominant string

	TicksPerSecond float64

	// Frame timing (graphics mode)
	FrameDuration time.Duration
	FPS           float64
}

// Stats computes aggregated statistics over the current window.
func (p *PerfCollector) Stats() PerfStats {
	stats := PerfStats{
		PhaseAvg:      make(map[string]time.Duration, len(phases)),
		PhasePct:      make(map[string]float64, len(phases)),
		FrameDuration: p.frameDuration,
	}
	if p.frameDuration > 0 {
		stats.FPS = float64(time.Second) / float64(p.frameDuration)
	}
	if p.sampleCount == 0 {
		return stats
	}

	var total time.Duration
	var sums phaseTimes
	for i := 0; i < p.sampleCount; i++ {
		s := &p.samples[i]
		total += s.TickDuration
		if i == 0 || s.TickDuration < stats.MinTickDuration {
			stats.MinTickDuration = s.TickDuration
		}
		stats.MaxTickDuration = max(stats.MaxTickDuration, s.TickDuration)
		for slot, d := range s.Phases {
			sums[slot] += d
		}
	}

	n := time.Duration(p.sampleCount)
	stats.AvgTickDuration = total / n
	if stats.AvgTickDuration > 0 {
		stats.TicksPerSecond = float64(time.Second) / float64(stats.AvgTickDuration)
	}

	var slowest time.Duration
	for slot, phase := range phases {
		if sums[slot] == 0 {
			continue
		}
		avg := sums[slot] / n
		stats.PhaseAvg[phase] = avg
		if stats.AvgTickDuration > 0 {
			stats.PhasePct[phase] = float64(avg) / float64(stats.AvgTickDuration) * 100
		}
		if avg > slowest {
			slowest = avg
			stats.Dominant = phase
		}
	}
	return stats
}

// LogStats logs performance statistics.
func (s PerfStats) LogStats() {
	attrs := []any{
		"avg_tick_us", s.AvgTickDuration.Microseconds(),
		"min_tick_us", s.MinTickDuration.Microseconds(),
		"max_tick_us", s.MaxTickDuration.Microseconds(),
		"ticks_per_sec", int(s.TicksPerSecond),
		"dominant", s.Dominant,
	}
	if s.FPS > 0 {
		attrs = append(attrs, "fps", int(s.FPS))
	}
	for _, phase := range phases {
		if pct, ok := s.PhasePct[phase]; ok && pct > 0.1 {
			attrs = append(attrs, phase+"_pct", int(pct*10)/10.0)
		}
	}
	slog.Info("perf", attrs...)
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_tick_us", s.AvgTickDuration.Microseconds()),
		slog.Int64("min_tick_us", s.MinTickDuration.Microseconds()),
		slog.Int64("max_tick_us", s.MaxTickDuration.Microseconds()),
		slog.Float64("ticks_per_sec", s.TicksPerSecond),
	}
	if s.FPS > 0 {
		attrs = append(attrs, slog.Float64("fps", s.FPS))
	}
	for _, phase := range phases {
		if pct, ok := s.PhasePct[phase]; ok {
			attrs = append(attrs, slog.Float64(phase+"_pct", pct))
		}
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is a flat row of perf.csv. Phase columns follow step order.
type PerfStatsCSV struct {
	WindowEnd       int     `csv:"window_end"`
	AvgTickUS       int64   `csv:"avg_tick_us"`
	MinTickUS       int64   `csv:"min_tick_us"`
	MaxTickUS       int64   `csv:"max_tick_us"`
	TicksPerSec     float64 `csv:"ticks_per_sec"`
	FPS             float64 `csv:"fps"`
	Dominant        string  `csv:"dominant"`
	ResizePct       float64 `csv:"resize_pct"`
	TargetsPct      float64 `csv:"targets_pct"`
	SpatialIndexPct float64 `csv:"spatial_index_pct"`
	PairingPct      float64 `csv:"pairing_pct"`
	ForcesPct       float64 `csv:"forces_pct"`
	HistoryPct      float64 `csv:"history_pct"`
	TelemetryPct    float64 `csv:"telemetry_pct"`
}

// phaseColumns returns the percentage column for each phase, in step order.
func (r *PerfStatsCSV) phaseColumns() [phaseCount]*float64 {
	return [phaseCount]*float64{
		&r.ResizePct, &r.TargetsPct, &r.SpatialIndexPct,
		&r.PairingPct, &r.ForcesPct, &r.HistoryPct, &r.TelemetryPct,
	}
}

// ToCSV converts PerfStats to a perf.csv row.
func (s PerfStats) ToCSV(windowEnd int) PerfStatsCSV {
	row := PerfStatsCSV{
		WindowEnd:   windowEnd,
		AvgTickUS:   s.AvgTickDuration.Microseconds(),
		MinTickUS:   s.MinTickDuration.Microseconds(),
		MaxTickUS:   s.MaxTickDuration.Microseconds(),
		TicksPerSec: s.TicksPerSecond,
		FPS:         s.FPS,
		Dominant:    s.Dominant,
	}
	cols := row.phaseColumns()
	for slot, phase := range phases {
		*cols[slot] = s.PhasePct[phase]
	}
	return row
}
