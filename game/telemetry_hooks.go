package game

import (
	"log/slog"

	"github.com/ahammer/metalrain/telemetry"
)

// flushTelemetry emits a stats window when one has elapsed. Cluster sizes and
// radii are sampled from the current frame, so a window's distributions
// describe its final tick rather than an average over the window.
func (g *Game) flushTelemetry() {
	if !g.collector.ShouldFlush(g.tick) {
		return
	}

	clusterSizes := make([]float64, len(g.clusters))
	for i := range g.clusters {
		clusterSizes[i] = float64(len(g.clusters[i].Members))
	}
	radii := make([]float64, len(g.snapshot))
	for i := range g.snapshot {
		radii[i] = float64(g.snapshot[i].Radius)
	}

	counts := telemetry.FrameCounts{
		Balls:          len(g.snapshot),
		Clusters:       len(g.clusters),
		SlotsInUse:     g.slots.InUse(),
		Evictions:      g.slots.Evictions(),
		Overflows:      g.slots.Overflows(),
		DroppedRecords: g.metaballs.DroppedRecords(),
	}

	stats := g.collector.Flush(g.tick, counts, clusterSizes, radii)
	perfStats := g.perfCollector.Stats()

	if g.statsCallback != nil {
		g.statsCallback(stats)
	}

	if g.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if err := g.outputManager.WriteTelemetry(stats); err != nil {
		slog.Error("failed to write telemetry", "error", err)
	}
	if err := g.outputManager.WritePerf(perfStats, stats.WindowEndTick); err != nil {
		slog.Error("failed to write perf stats", "error", err)
	}
}
