package telemetry

import (
	"log/slog"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Phase names for the tick pipeline.
const (
	PhaseSpawn       = "spawn"
	PhaseMovement    = "movement"
	PhaseSnapshot    = "snapshot"
	PhaseSpatialGrid = "spatial_grid"
	PhaseClustering  = "clustering"
	PhaseIdentity    = "identity"
	PhaseSlots       = "slots"
	PhaseRender      = "render"
	PhaseTelemetry   = "telemetry"
)

// PhaseOrder lists the step phases in execution order.
var PhaseOrder = []string{
	PhaseSpawn,
	PhaseMovement,
	PhaseSnapshot,
	PhaseSpatialGrid,
	PhaseClustering,
	PhaseIdentity,
	PhaseSlots,
	PhaseRender,
	PhaseTelemetry,
}

// tickSample is the stored timing of one completed tick.
type tickSample struct {
	total  time.Duration
	phases map[string]time.Duration
}

// PerfCollector times ticks and their phases over a rolling window. A tick
// is bracketed by StartTick/EndTick; each StartPhase closes the phase before
// it, so the pipeline only marks transitions.
type PerfCollector struct {
	ring   []tickSample
	head   int // next slot to overwrite
	filled int // ring slots holding data

	scratch   map[string]time.Duration // phases of the tick in flight
	tickStart time.Time
	phaseName string
	phaseFrom time.Time

	lastFrame time.Time
	frameDur  time.Duration
}

// NewPerfCollector keeps the most recent windowSize ticks. Sizes below one
// fall back to a second's worth at 60 ticks.
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 60
	}
	return &PerfCollector{
		ring:    make([]tickSample, windowSize),
		scratch: make(map[string]time.Duration, len(PhaseOrder)),
	}
}

// StartTick opens a new tick measurement.
func (p *PerfCollector) StartTick() {
	p.tickStart = time.Now()
	p.phaseName = ""
	for k := range p.scratch {
		delete(p.scratch, k)
	}
}

// StartPhase closes the running phase, if any, and opens the named one.
func (p *PerfCollector) StartPhase(name string) {
	now := time.Now()
	if p.phaseName != "" {
		p.scratch[p.phaseName] += now.Sub(p.phaseFrom)
	}
	p.phaseName = name
	p.phaseFrom = now
}

// EndTick closes the final phase and commits the tick to the ring. The slot's
// phase map is reused across laps, so a settled collector stops allocating.
func (p *PerfCollector) EndTick() {
	now := time.Now()
	if p.phaseName != "" {
		p.scratch[p.phaseName] += now.Sub(p.phaseFrom)
		p.phaseName = ""
	}

	slot := &p.ring[p.head]
	slot.total = now.Sub(p.tickStart)
	if slot.phases == nil {
		slot.phases = make(map[string]time.Duration, len(p.scratch))
	} else {
		for k := range slot.phases {
			delete(slot.phases, k)
		}
	}
	for k, v := range p.scratch {
		slot.phases[k] = v
	}

	p.head = (p.head + 1) % len(p.ring)
	if p.filled < len(p.ring) {
		p.filled++
	}
}

// RecordFrame marks a drawn frame; the gap between calls is the frame time.
func (p *PerfCollector) RecordFrame() {
	now := time.Now()
	if !p.lastFrame.IsZero() {
		p.frameDur = now.Sub(p.lastFrame)
	}
	p.lastFrame = now
}

// PerfStats is the aggregate over the collector's current window.
type PerfStats struct {
	AvgTickDuration time.Duration
	MinTickDuration time.Duration
	MaxTickDuration time.Duration
	P50TickDuration time.Duration
	P99TickDuration time.Duration

	// Per-phase mean duration and share of the mean tick, in percent.
	PhaseAvg map[string]time.Duration
	PhasePct map[string]float64

	TicksPerSecond float64

	// Derived from RecordFrame, present only in windowed mode.
	FrameDuration time.Duration
	FPS           float64
}

// Stats aggregates the ticks currently in the window.
func (p *PerfCollector) Stats() PerfStats {
	var fps float64
	if p.frameDur > 0 {
		fps = float64(time.Second) / float64(p.frameDur)
	}
	if p.filled == 0 {
		return PerfStats{
			PhaseAvg:      map[string]time.Duration{},
			PhasePct:      map[string]float64{},
			FrameDuration: p.frameDur,
			FPS:           fps,
		}
	}

	n := p.filled
	totals := make([]float64, 0, n)
	var sum, minTick, maxTick time.Duration
	phaseSum := make(map[string]time.Duration, len(PhaseOrder))

	for i := 0; i < n; i++ {
		s := &p.ring[i]
		sum += s.total
		totals = append(totals, float64(s.total))
		if i == 0 || s.total < minTick {
			minTick = s.total
		}
		if s.total > maxTick {
			maxTick = s.total
		}
		for name, d := range s.phases {
			phaseSum[name] += d
		}
	}

	avg := sum / time.Duration(n)
	sort.Float64s(totals)

	phaseAvg := make(map[string]time.Duration, len(phaseSum))
	phasePct := make(map[string]float64, len(phaseSum))
	for name, total := range phaseSum {
		mean := total / time.Duration(n)
		phaseAvg[name] = mean
		if avg > 0 {
			phasePct[name] = float64(mean) / float64(avg) * 100
		}
	}

	var perSecond float64
	if avg > 0 {
		perSecond = float64(time.Second) / float64(avg)
	}

	return PerfStats{
		AvgTickDuration: avg,
		MinTickDuration: minTick,
		MaxTickDuration: maxTick,
		P50TickDuration: time.Duration(stat.Quantile(0.50, stat.Empirical, totals, nil)),
		P99TickDuration: time.Duration(stat.Quantile(0.99, stat.Empirical, totals, nil)),
		PhaseAvg:        phaseAvg,
		PhasePct:        phasePct,
		TicksPerSecond:  perSecond,
		FrameDuration:   p.frameDur,
		FPS:             fps,
	}
}

// LogStats emits one structured perf line. Phases below a tenth of a percent
// are left out to keep the line readable.
func (s PerfStats) LogStats() {
	attrs := []any{
		"avg_tick_us", s.AvgTickDuration.Microseconds(),
		"min_tick_us", s.MinTickDuration.Microseconds(),
		"max_tick_us", s.MaxTickDuration.Microseconds(),
		"p50_tick_us", s.P50TickDuration.Microseconds(),
		"p99_tick_us", s.P99TickDuration.Microseconds(),
		"ticks_per_sec", int(s.TicksPerSecond),
	}
	if s.FPS > 0 {
		attrs = append(attrs, "fps", int(s.FPS))
	}
	for _, name := range PhaseOrder {
		if pct, ok := s.PhasePct[name]; ok && pct > 0.1 {
			attrs = append(attrs, name+"_pct", int(pct*10)/10.0)
		}
	}
	slog.Info("perf", attrs...)
}

// LogValue implements slog.LogValuer.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_tick_us", s.AvgTickDuration.Microseconds()),
		slog.Int64("min_tick_us", s.MinTickDuration.Microseconds()),
		slog.Int64("max_tick_us", s.MaxTickDuration.Microseconds()),
		slog.Int64("p50_tick_us", s.P50TickDuration.Microseconds()),
		slog.Int64("p99_tick_us", s.P99TickDuration.Microseconds()),
		slog.Float64("ticks_per_sec", s.TicksPerSecond),
	}
	if s.FPS > 0 {
		attrs = append(attrs, slog.Float64("fps", s.FPS))
	}
	for name, pct := range s.PhasePct {
		attrs = append(attrs, slog.Float64(name+"_pct", pct))
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV flattens PerfStats for gocsv.
type PerfStatsCSV struct {
	WindowEnd      int32   `csv:"window_end"`
	AvgTickUS      int64   `csv:"avg_tick_us"`
	MinTickUS      int64   `csv:"min_tick_us"`
	MaxTickUS      int64   `csv:"max_tick_us"`
	P50TickUS      int64   `csv:"p50_tick_us"`
	P99TickUS      int64   `csv:"p99_tick_us"`
	TicksPerSec    float64 `csv:"ticks_per_sec"`
	FPS            float64 `csv:"fps"`
	SpawnPct       float64 `csv:"spawn_pct"`
	MovementPct    float64 `csv:"movement_pct"`
	SnapshotPct    float64 `csv:"snapshot_pct"`
	SpatialGridPct float64 `csv:"spatial_grid_pct"`
	ClusteringPct  float64 `csv:"clustering_pct"`
	IdentityPct    float64 `csv:"identity_pct"`
	SlotsPct       float64 `csv:"slots_pct"`
	RenderPct      float64 `csv:"render_pct"`
	TelemetryPct   float64 `csv:"telemetry_pct"`
}

// ToCSV stamps the stats with the tick their window ended on.
func (s PerfStats) ToCSV(windowEnd int32) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:      windowEnd,
		AvgTickUS:      s.AvgTickDuration.Microseconds(),
		MinTickUS:      s.MinTickDuration.Microseconds(),
		MaxTickUS:      s.MaxTickDuration.Microseconds(),
		P50TickUS:      s.P50TickDuration.Microseconds(),
		P99TickUS:      s.P99TickDuration.Microseconds(),
		TicksPerSec:    s.TicksPerSecond,
		FPS:            s.FPS,
		SpawnPct:       s.PhasePct[PhaseSpawn],
		MovementPct:    s.PhasePct[PhaseMovement],
		SnapshotPct:    s.PhasePct[PhaseSnapshot],
		SpatialGridPct: s.PhasePct[PhaseSpatialGrid],
		ClusteringPct:  s.PhasePct[PhaseClustering],
		IdentityPct:    s.PhasePct[PhaseIdentity],
		SlotsPct:       s.PhasePct[PhaseSlots],
		RenderPct:      s.PhasePct[PhaseRender],
		TelemetryPct:   s.PhasePct[PhaseTelemetry],
	}
}
