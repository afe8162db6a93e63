package telemetry

import (
	"math"
	"testing"
)

func TestComputeDistribution(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		mean   float64
		p50    float64
		p90    float64
		max    float64
	}{
		{"empty slice", []float64{}, 0, 0, 0, 0},
		{"single element", []float64{7}, 7, 7, 7, 7},
		{"one to ten", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 5.5, 5, 9, 10},
		{"unsorted", []float64{5, 1, 3}, 3, 3, 5, 5},
		{"skewed sizes", []float64{1, 1, 2, 5}, 2.25, 1, 5, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mean, p50, p90, max := ComputeDistribution(tt.values)
			if math.Abs(mean-tt.mean) > 0.001 {
				t.Errorf("mean = %v, want %v", mean, tt.mean)
			}
			if math.Abs(p50-tt.p50) > 0.001 {
				t.Errorf("p50 = %v, want %v", p50, tt.p50)
			}
			if math.Abs(p90-tt.p90) > 0.001 {
				t.Errorf("p90 = %v, want %v", p90, tt.p90)
			}
			if math.Abs(max-tt.max) > 0.001 {
				t.Errorf("max = %v, want %v", max, tt.max)
			}
		})
	}
}

func TestComputeDistributionLeavesInputAlone(t *testing.T) {
	values := []float64{9, 2, 6}
	ComputeDistribution(values)

	if values[0] != 9 || values[1] != 2 || values[2] != 6 {
		t.Errorf("input was reordered: %v", values)
	}
}

func TestComputeSpread(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		mean   float64
		std    float64
	}{
		{"empty slice", []float64{}, 0, 0},
		{"single element", []float64{4}, 4, 0},
		{"symmetric pair", []float64{8, 12}, 10, 2.8284},
		{"three values", []float64{10, 20, 30}, 20, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mean, std := ComputeSpread(tt.values)
			if math.Abs(mean-tt.mean) > 0.001 {
				t.Errorf("mean = %v, want %v", mean, tt.mean)
			}
			if math.Abs(std-tt.std) > 0.001 {
				t.Errorf("std = %v, want %v", std, tt.std)
			}
		})
	}
}

func TestCollectorWindowTicks(t *testing.T) {
	c := NewCollector(5.0, 0.25)
	if got := c.WindowDurationTicks(); got != 20 {
		t.Errorf("WindowDurationTicks() = %d, want 20", got)
	}

	// A window shorter than one tick still flushes every tick.
	c = NewCollector(0.001, 0.25)
	if got := c.WindowDurationTicks(); got != 1 {
		t.Errorf("WindowDurationTicks() = %d, want 1", got)
	}
}

func TestCollectorShouldFlush(t *testing.T) {
	c := NewCollector(1.0, 0.25) // 4 ticks per window

	if c.ShouldFlush(3) {
		t.Error("ShouldFlush(3) = true before window elapsed")
	}
	if !c.ShouldFlush(4) {
		t.Error("ShouldFlush(4) = false at window boundary")
	}
}

func TestCollectorFlush(t *testing.T) {
	c := NewCollector(1.0, 0.25)

	c.RecordSpawns(3)
	c.RecordRecycles(1)
	c.RecordFreshIdentities(2)

	counts := FrameCounts{
		Balls:          10,
		Clusters:       4,
		SlotsInUse:     3,
		Evictions:      7,
		Overflows:      2,
		DroppedRecords: 5,
	}
	sizes := []float64{1, 2, 3, 4}
	radii := []float64{10, 20, 30}

	stats := c.Flush(4, counts, sizes, radii)

	if stats.WindowStartTick != 0 || stats.WindowEndTick != 4 {
		t.Errorf("window = [%d, %d], want [0, 4]", stats.WindowStartTick, stats.WindowEndTick)
	}
	if math.Abs(stats.SimTimeSec-1.0) > 1e-9 {
		t.Errorf("SimTimeSec = %v, want 1.0", stats.SimTimeSec)
	}
	if stats.BallCount != 10 || stats.ClusterCount != 4 || stats.SlotsInUse != 3 {
		t.Errorf("counts = %d/%d/%d, want 10/4/3",
			stats.BallCount, stats.ClusterCount, stats.SlotsInUse)
	}
	if stats.Spawns != 3 || stats.Recycles != 1 || stats.FreshIdentities != 2 {
		t.Errorf("events = %d/%d/%d, want 3/1/2",
			stats.Spawns, stats.Recycles, stats.FreshIdentities)
	}
	if stats.SlotEvictions != 7 || stats.SlotOverflows != 2 || stats.DroppedRecords != 5 {
		t.Errorf("deltas = %d/%d/%d, want 7/2/5",
			stats.SlotEvictions, stats.SlotOverflows, stats.DroppedRecords)
	}
	if math.Abs(stats.ClusterSizeMean-2.5) > 0.001 {
		t.Errorf("ClusterSizeMean = %v, want 2.5", stats.ClusterSizeMean)
	}
	if stats.ClusterSizeP50 != 2 || stats.ClusterSizeP90 != 4 || stats.ClusterSizeMax != 4 {
		t.Errorf("size quantiles = %v/%v/%v, want 2/4/4",
			stats.ClusterSizeP50, stats.ClusterSizeP90, stats.ClusterSizeMax)
	}
	if stats.Singletons != 1 {
		t.Errorf("Singletons = %d, want 1", stats.Singletons)
	}
	if math.Abs(stats.RadiusMean-20) > 0.001 || math.Abs(stats.RadiusStd-10) > 0.001 {
		t.Errorf("radius = %v±%v, want 20±10", stats.RadiusMean, stats.RadiusStd)
	}
}

func TestCollectorFlushResetsForNextWindow(t *testing.T) {
	c := NewCollector(1.0, 0.25)

	c.RecordSpawns(3)
	c.Flush(4, FrameCounts{Evictions: 7, Overflows: 2, DroppedRecords: 5}, nil, nil)

	// Lifetime totals advanced a little; the second window reports deltas.
	c.RecordSpawns(1)
	stats := c.Flush(8, FrameCounts{Evictions: 9, Overflows: 2, DroppedRecords: 5}, nil, nil)

	if stats.WindowStartTick != 4 || stats.WindowEndTick != 8 {
		t.Errorf("window = [%d, %d], want [4, 8]", stats.WindowStartTick, stats.WindowEndTick)
	}
	if stats.Spawns != 1 {
		t.Errorf("Spawns = %d, want 1 after reset", stats.Spawns)
	}
	if stats.SlotEvictions != 2 {
		t.Errorf("SlotEvictions = %d, want 2", stats.SlotEvictions)
	}
	if stats.SlotOverflows != 0 || stats.DroppedRecords != 0 {
		t.Errorf("unchanged totals produced deltas %d/%d, want 0/0",
			stats.SlotOverflows, stats.DroppedRecords)
	}
	if stats.ClusterSizeMean != 0 || stats.Singletons != 0 {
		t.Errorf("empty samples produced stats %v/%d",
			stats.ClusterSizeMean, stats.Singletons)
	}
}
