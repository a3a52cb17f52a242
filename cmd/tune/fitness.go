package main

import (
	"log/slog"
	"math"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/peakswarm/config"
	"github.com/pthm-cable/peakswarm/game"
	"github.com/pthm-cable/peakswarm/telemetry"
)

// FitnessEvaluator runs headless swarms and scores their pairing behavior.
type FitnessEvaluator struct {
	params      *ParamVector
	maxSteps    int
	seeds       []int64
	baseConfig  *config.Config
	agents      int
	statsWindow float64
	target      float64 // desired paired fraction

	mu          sync.Mutex
	lastQuality float64 // quality from most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, maxSteps int, seeds []int64, baseCfg *config.Config, agents int, target float64) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		maxSteps:    maxSteps,
		seeds:       seeds,
		baseConfig:  baseCfg,
		agents:      agents,
		statsWindow: 5.0,
		target:      target,
	}
}

// LastQuality returns the quality score from the most recent evaluation.
func (fe *FitnessEvaluator) LastQuality() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastQuality
}

// Evaluate computes fitness for a parameter vector (lower = better).
// Fitness is the negated mean quality across seeds.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	cfg := fe.baseConfig.Clone()
	if err := fe.params.ApplyToConfig(cfg, x); err != nil {
		slog.Warn("rejected parameters", "error", err)
		fe.mu.Lock()
		fe.lastQuality = 0
		fe.mu.Unlock()
		return 0
	}

	// Run all seeds in parallel, each on its own config copy
	qualities := make([]float64, len(fe.seeds))
	var wg sync.WaitGroup
	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			windows, err := fe.runSimulation(cfg.Clone(), s)
			if err != nil {
				slog.Warn("run failed", "seed", s, "error", err)
				return
			}
			qualities[idx] = computeQuality(windows, fe.target)
		}(i, seed)
	}
	wg.Wait()

	quality := stat.Mean(qualities, nil)

	fe.mu.Lock()
	fe.lastQuality = quality
	fe.mu.Unlock()

	return -quality
}

// runSimulation executes a single headless run and returns its stats windows.
func (fe *FitnessEvaluator) runSimulation(cfg *config.Config, seed int64) ([]telemetry.WindowStats, error) {
	cfg.Tick.FrameSkip = 1

	g, err := game.NewGameWithOptions(game.Options{
		Config:         cfg,
		Seed:           seed,
		Headless:       true,
		StatsWindowSec: fe.statsWindow,
		StepsPerUpdate: 60,
		Population:     fe.agents,
		Logger:         slog.New(slog.DiscardHandler),
	})
	if err != nil {
		return nil, err
	}
	defer g.Unload()

	var windows []telemetry.WindowStats
	g.SetStatsCallback(func(s telemetry.WindowStats) {
		windows = append(windows, s)
	})

	for g.Tick() < fe.maxSteps {
		g.UpdateHeadless()
	}
	return windows, nil
}

// Quality component weights.
const (
	qualityWeightTarget    = 0.50
	qualityWeightStability = 0.30
	qualityWeightChurn     = 0.20

	qualityWarmupWindows = 2    // skip first N windows while pairs settle
	targetTolerance      = 0.10 // paired fraction error with score 1/e
)

// computeQuality scores a run in [0, 1]. It rewards a paired fraction close
// to target, a steady pairing level across windows, and pairs that end by
// chance rather than by drifting apart.
func computeQuality(windows []telemetry.WindowStats, target float64) float64 {
	if len(windows) <= qualityWarmupWindows {
		return 0
	}
	valid := windows[qualityWarmupWindows:]

	fractions := make([]float64, len(valid))
	var formed, distanceBreaks int
	for i, w := range valid {
		fractions[i] = w.PairedFraction
		formed += w.Formed
		distanceBreaks += w.DistanceBreaks
	}

	// 1. Distance from the target level
	var targetSum float64
	for _, f := range fractions {
		e := (f - target) / targetTolerance
		targetSum += math.Exp(-e * e)
	}
	targetScore := targetSum / float64(len(fractions))

	// 2. Stability (coefficient of variation across windows)
	stabilityScore := 0.0
	if len(fractions) >= 2 {
		mean, std := stat.MeanStdDev(fractions, nil)
		if mean > 0 {
			cv := std / mean
			stabilityScore = math.Exp(-cv * cv * 4)
		}
	}

	// 3. Churn: share of pairs lost to distance
	churnScore := 0.0
	if formed > 0 {
		churnScore = 1 - clamp01(float64(distanceBreaks)/float64(formed))
	}

	quality := qualityWeightTarget*targetScore +
		qualityWeightStability*stabilityScore +
		qualityWeightChurn*churnScore

	return clamp01(quality)
}

// clamp01 clamps x to [0, 1].
func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
