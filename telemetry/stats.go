package telemetry

import (
	"log/slog"
	"slices"

	"gonum.org/v1/gonum/stat"
)

// WindowStats is one aggregated row of run statistics, covering a fixed span
// of simulation time.
type WindowStats struct {
	WindowStartTick int32   `csv:"-"`
	WindowEndTick   int32   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Counts at window end
	BallCount    int `csv:"balls"`
	ClusterCount int `csv:"clusters"`
	SlotsInUse   int `csv:"slots_in_use"`

	// Events within the window
	Spawns          int `csv:"spawns"`
	Recycles        int `csv:"recycles"`
	FreshIdentities int `csv:"fresh_identities"`
	SlotEvictions   int `csv:"slot_evictions"`
	SlotOverflows   int `csv:"slot_overflows"`
	DroppedRecords  int `csv:"dropped_records"`

	// Cluster size distribution (sampled at window end)
	ClusterSizeMean float64 `csv:"cluster_size_mean"`
	ClusterSizeP50  float64 `csv:"cluster_size_p50"`
	ClusterSizeP90  float64 `csv:"cluster_size_p90"`
	ClusterSizeMax  float64 `csv:"cluster_size_max"`
	Singletons      int     `csv:"singletons"`

	// Ball radius distribution (sampled at window end)
	RadiusMean float64 `csv:"radius_mean"`
	RadiusStd  float64 `csv:"radius_std"`
}

// ComputeDistribution calculates mean, empirical quantiles, and max of a
// sample. Returns zeros for an empty sample. The input is not modified.
func ComputeDistribution(values []float64) (mean, p50, p90, max float64) {
	if len(values) == 0 {
		return 0, 0, 0, 0
	}

	sorted := slices.Clone(values)
	slices.Sort(sorted)

	mean = stat.Mean(sorted, nil)
	p50 = stat.Quantile(0.50, stat.Empirical, sorted, nil)
	p90 = stat.Quantile(0.90, stat.Empirical, sorted, nil)
	max = sorted[len(sorted)-1]

	return mean, p50, p90, max
}

// ComputeSpread calculates mean and sample standard deviation. Returns zeros
// for an empty sample; std is zero for a single-element sample.
func ComputeSpread(values []float64) (mean, std float64) {
	if len(values) == 0 {
		return 0, 0
	}

	mean = stat.Mean(values, nil)
	if len(values) > 1 {
		std = stat.StdDev(values, nil)
	}

	return mean, std
}

// LogValue groups every field for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", int(s.WindowStartTick)),
		slog.Int("window_end", int(s.WindowEndTick)),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("balls", s.BallCount),
		slog.Int("clusters", s.ClusterCount),
		slog.Int("slots_in_use", s.SlotsInUse),
		slog.Int("spawns", s.Spawns),
		slog.Int("recycles", s.Recycles),
		slog.Int("fresh_identities", s.FreshIdentities),
		slog.Int("slot_evictions", s.SlotEvictions),
		slog.Int("slot_overflows", s.SlotOverflows),
		slog.Int("dropped_records", s.DroppedRecords),
		slog.Float64("cluster_size_mean", s.ClusterSizeMean),
		slog.Float64("cluster_size_p50", s.ClusterSizeP50),
		slog.Float64("cluster_size_p90", s.ClusterSizeP90),
		slog.Float64("cluster_size_max", s.ClusterSizeMax),
		slog.Int("singletons", s.Singletons),
		slog.Float64("radius_mean", s.RadiusMean),
		slog.Float64("radius_std", s.RadiusStd),
	)
}

// LogStats emits the window as a single slog info record.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"sim_time", s.SimTimeSec,
		"balls", s.BallCount,
		"clusters", s.ClusterCount,
		"slots_in_use", s.SlotsInUse,
		"spawns", s.Spawns,
		"recycles", s.Recycles,
		"fresh_identities", s.FreshIdentities,
		"slot_evictions", s.SlotEvictions,
		"slot_overflows", s.SlotOverflows,
		"dropped_records", s.DroppedRecords,
		"cluster_size_mean", s.ClusterSizeMean,
		"cluster_size_p50", s.ClusterSizeP50,
		"cluster_size_p90", s.ClusterSizeP90,
		"cluster_size_max", s.ClusterSizeMax,
		"singletons", s.Singletons,
		"radius_mean", s.RadiusMean,
		"radius_std", s.RadiusStd,
	)
}
