package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	WindowStartStep int     `csv:"-"`
	WindowEndStep   int     `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Population at window end
	Agents         int     `csv:"agents"`
	Visible        int     `csv:"visible"`
	Held           int     `csv:"held"`
	Paired         int     `csv:"paired"` // visible agents with a partner
	PairedFraction float64 `csv:"paired_fraction"` // of visible agents

	// Pairing transitions during the window
	Formed           int `csv:"formed"`
	DistanceBreaks   int `csv:"distance_breaks"`
	ChanceBreaks     int `csv:"chance_breaks"`
	IneligibleBreaks int `csv:"ineligible_breaks"`
	Dropped          int `csv:"dropped"`

	// Speed distribution (sampled at window end)
	SpeedMean float64 `csv:"speed_mean"`
	SpeedStd  float64 `csv:"speed_std"`
	SpeedP10  float64 `csv:"speed_p10"`
	SpeedP50  float64 `csv:"speed_p50"`
	SpeedP90  float64 `csv:"speed_p90"`

	// Pair age in steps, over current pairs
	PairAgeMean float64 `csv:"pair_age_mean"`
	PairAgeP50  float64 `csv:"pair_age_p50"`
	PairAgeMax  float64 `csv:"pair_age_max"`

	// Distance from the origin
	RadiusMean float64 `csv:"radius_mean"`
	RadiusP90  float64 `csv:"radius_p90"`
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// Distribution summarizes a sample.
type Distribution struct {
	Mean, Std     float64
	P10, P50, P90 float64
	Max           float64
}

// Describe computes mean, population standard deviation and percentiles of
// values. values is not modified.
func Describe(values []float64) Distribution {
	n := len(values)
	if n == 0 {
		return Distribution{}
	}

	mean, std := stat.PopMeanStdDev(values, nil)

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	return Distribution{
		Mean: mean,
		Std:  std,
		P10:  Percentile(sorted, 0.10),
		P50:  Percentile(sorted, 0.50),
		P90:  Percentile(sorted, 0.90),
		Max:  sorted[n-1],
	}
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", s.WindowStartStep),
		slog.Int("window_end", s.WindowEndStep),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("agents", s.Agents),
		slog.Int("visible", s.Visible),
		slog.Int("held", s.Held),
		slog.Int("paired", s.Paired),
		slog.Float64("paired_fraction", s.PairedFraction),
		slog.Int("formed", s.Formed),
		slog.Int("distance_breaks", s.DistanceBreaks),
		slog.Int("chance_breaks", s.ChanceBreaks),
		slog.Int("ineligible_breaks", s.IneligibleBreaks),
		slog.Int("dropped", s.Dropped),
		slog.Float64("speed_mean", s.SpeedMean),
		slog.Float64("speed_std", s.SpeedStd),
		slog.Float64("speed_p10", s.SpeedP10),
		slog.Float64("speed_p50", s.SpeedP50),
		slog.Float64("speed_p90", s.SpeedP90),
		slog.Float64("pair_age_mean", s.PairAgeMean),
		slog.Float64("pair_age_p50", s.PairAgeP50),
		slog.Float64("pair_age_max", s.PairAgeMax),
		slog.Float64("radius_mean", s.RadiusMean),
		slog.Float64("radius_p90", s.RadiusP90),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndStep,
		"sim_time", s.SimTimeSec,
		"agents", s.Agents,
		"paired", s.Paired,
		"paired_fraction", s.PairedFraction,
		"formed", s.Formed,
		"distance_breaks", s.DistanceBreaks,
		"chance_breaks", s.ChanceBreaks,
		"ineligible_breaks", s.IneligibleBreaks,
		"speed_mean", s.SpeedMean,
		"speed_p90", s.SpeedP90,
		"pair_age_mean", s.PairAgeMean,
		"radius_mean", s.RadiusMean,
	)
}
