// Package telemetry provides windowed run statistics, CSV output, and
// performance tracking.
package telemetry

// Collector turns per-frame events into aggregated WindowStats, one row per
// fixed span of simulation time.
type Collector struct {
	windowDurationSec   float64
	windowDurationTicks int32
	dt                  float32

	windowStartTick int32

	// Per-window event counts, reset at flush
	spawns          int
	recycles        int
	freshIdentities int

	// Subsystem lifetime totals seen at the previous flush. The slot
	// allocator and tile builder keep cumulative counters; windows report
	// the delta.
	lastEvictions uint64
	lastOverflows uint64
	lastDropped   int64
}

// NewCollector aggregates over windowDurationSec of simulation time, with dt
// seconds per tick. Windows shorter than one tick round up to one tick.
func NewCollector(windowDurationSec float64, dt float32) *Collector {
	ticksPerWindow := int32(windowDurationSec / float64(dt))
	if ticksPerWindow < 1 {
		ticksPerWindow = 1
	}
	return &Collector{
		windowDurationSec:   windowDurationSec,
		windowDurationTicks: ticksPerWindow,
		dt:                  dt,
	}
}

// RecordSpawns records n balls emitted this frame.
func (c *Collector) RecordSpawns(n int) {
	c.spawns += n
}

// RecordRecycles records n balls recycled by the population cap this frame.
func (c *Collector) RecordRecycles(n int) {
	c.recycles += n
}

// RecordFreshIdentities records n clusters that were minted a new identity
// this frame.
func (c *Collector) RecordFreshIdentities(n int) {
	c.freshIdentities += n
}

// ShouldFlush reports whether the current window is complete.
func (c *Collector) ShouldFlush(currentTick int32) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// FrameCounts holds point-in-time values sampled at flush.
type FrameCounts struct {
	Balls      int
	Clusters   int
	SlotsInUse int

	// Lifetime totals owned by their subsystems. The collector diffs them
	// against the previous flush to get per-window counts.
	Evictions      uint64 // slot allocator
	Overflows      uint64 // slot allocator
	DroppedRecords int64  // tile builder degenerate skips
}

// Flush closes the window at currentTick: it folds the window counters and
// the supplied distributions (cluster member counts, ball radii) into a
// WindowStats, diffs the lifetime totals in counts against the previous
// flush, and starts the next window.
func (c *Collector) Flush(
	currentTick int32,
	counts FrameCounts,
	clusterSizes, radii []float64,
) WindowStats {
	sizeMean, sizeP50, sizeP90, sizeMax := ComputeDistribution(clusterSizes)
	radiusMean, radiusStd := ComputeSpread(radii)

	singletons := 0
	for _, s := range clusterSizes {
		if s == 1 {
			singletons++
		}
	}

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      float64(currentTick) * float64(c.dt),

		BallCount:    counts.Balls,
		ClusterCount: counts.Clusters,
		SlotsInUse:   counts.SlotsInUse,

		Spawns:          c.spawns,
		Recycles:        c.recycles,
		FreshIdentities: c.freshIdentities,
		SlotEvictions:   int(counts.Evictions - c.lastEvictions),
		SlotOverflows:   int(counts.Overflows - c.lastOverflows),
		DroppedRecords:  int(counts.DroppedRecords - c.lastDropped),

		ClusterSizeMean: sizeMean,
		ClusterSizeP50:  sizeP50,
		ClusterSizeP90:  sizeP90,
		ClusterSizeMax:  sizeMax,
		Singletons:      singletons,

		RadiusMean: radiusMean,
		RadiusStd:  radiusStd,
	}

	c.windowStartTick = currentTick
	c.spawns = 0
	c.recycles = 0
	c.freshIdentities = 0
	c.lastEvictions = counts.Evictions
	c.lastOverflows = counts.Overflows
	c.lastDropped = counts.DroppedRecords

	return stats
}

// WindowDurationTicks returns the window length in ticks.
func (c *Collector) WindowDurationTicks() int32 {
	return c.windowDurationTicks
}
