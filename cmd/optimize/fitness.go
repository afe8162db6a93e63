package main

import (
	"math"

	"github.com/ahammer/metalrain/config"
	"github.com/ahammer/metalrain/game"
	"github.com/ahammer/metalrain/telemetry"
)

// Evaluation viewport. Small keeps the shading phase cheap; clustering
// behavior only depends on world size through spawn density, and every
// evaluation uses the same dimensions.
const (
	evalWidth  = 320
	evalHeight = 180
)

// Overflows force clusters onto the shared fallback slot, which reads as a
// visual glitch, so they cost far more than ordinary churn.
const overflowWeight = 10.0

// stabilityEvaluator scores a parameter vector by how much identity churn
// headless runs produce under it.
type stabilityEvaluator struct {
	params      *ParamVector
	maxTicks    int32
	seeds       []int64
	statsWindow float64
}

func newStabilityEvaluator(params *ParamVector, maxTicks int32, seeds []int64) *stabilityEvaluator {
	return &stabilityEvaluator{
		params:      params,
		maxTicks:    maxTicks,
		seeds:       seeds,
		statsWindow: 2.0,
	}
}

// Evaluate returns the mean churn score across the seed set, lower = better.
// Runs are sequential: parameters land in the shared config, which the
// clustering hot path reads live.
func (e *stabilityEvaluator) Evaluate(x []float64) float64 {
	e.params.ApplyToConfig(config.Cfg(), x)

	var total float64
	for _, seed := range e.seeds {
		total += e.runSeed(seed)
	}
	return total / float64(len(e.seeds))
}

// runSeed executes one headless run and returns its mean window score.
func (e *stabilityEvaluator) runSeed(seed int64) float64 {
	var windows []telemetry.WindowStats

	g, err := game.NewGame(game.Options{
		Seed:           seed,
		Headless:       true,
		StatsWindowSec: e.statsWindow,
		StepsPerUpdate: 1,
		Width:          evalWidth,
		Height:         evalHeight,
		StatsCallback: func(stats telemetry.WindowStats) {
			windows = append(windows, stats)
		},
	})
	if err != nil {
		return math.Inf(1)
	}
	defer g.Unload()

	for g.Tick() < e.maxTicks {
		g.UpdateHeadless()
	}

	// First window is warmup: the field is still filling with balls.
	if len(windows) < 2 {
		return math.Inf(1)
	}
	var score float64
	for _, w := range windows[1:] {
		score += windowScore(w)
	}
	return score / float64(len(windows)-1)
}

// windowScore measures identity instability in one window. A freshly spawned
// ball legitimately mints an identity, so spawns are subtracted; what remains
// is split flicker, plus the slot churn it causes downstream.
func windowScore(w telemetry.WindowStats) float64 {
	splitMints := w.FreshIdentities - w.Spawns
	if splitMints < 0 {
		splitMints = 0
	}
	return float64(splitMints) +
		float64(w.SlotEvictions) +
		overflowWeight*float64(w.SlotOverflows)
}
