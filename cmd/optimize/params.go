package main

import (
	"math"

	"github.com/ahammer/metalrain/config"
)

// ParamSpec is one tunable dimension of the search space.
type ParamSpec struct {
	Name    string
	Path    string // config key, for logs and the eval CSV
	Min     float64
	Max     float64
	Default float64
}

func (s ParamSpec) clamp(v float64) float64 {
	return math.Min(math.Max(v, s.Min), s.Max)
}

func (s ParamSpec) toUnit(v float64) float64   { return (v - s.Min) / (s.Max - s.Min) }
func (s ParamSpec) fromUnit(u float64) float64 { return s.Min + u*(s.Max-s.Min) }

// ParamVector is the ordered search space. CMA-ES walks the unit cube; the
// vector translates between unit and raw coordinates.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector defines the searched parameters. The merge buffer trades
// reach against boundary flicker; grace frames trade slot churn against slot
// pressure.
func NewParamVector() *ParamVector {
	return &ParamVector{Specs: []ParamSpec{
		{Name: "distance_buffer", Path: "clustering.distance_buffer", Min: 1.0, Max: 3.0, Default: 1.2},
		{Name: "grace_frames", Path: "palette.grace_frames", Min: 0, Max: 90, Default: 0},
	}}
}

// Dim returns the search dimensionality.
func (pv *ParamVector) Dim() int { return len(pv.Specs) }

// DefaultVector returns the raw defaults in spec order.
func (pv *ParamVector) DefaultVector() []float64 {
	out := make([]float64, len(pv.Specs))
	for i, s := range pv.Specs {
		out[i] = s.Default
	}
	return out
}

// Normalize maps raw values onto the unit cube.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	out := make([]float64, len(pv.Specs))
	for i, s := range pv.Specs {
		out[i] = s.toUnit(raw[i])
	}
	return out
}

// Denormalize maps unit-cube values back to raw parameters.
func (pv *ParamVector) Denormalize(unit []float64) []float64 {
	out := make([]float64, len(pv.Specs))
	for i, s := range pv.Specs {
		out[i] = s.fromUnit(unit[i])
	}
	return out
}

// Clamp forces every value into its spec bounds. CMA-ES proposals can step
// outside the cube, so raw values are clamped before use.
func (pv *ParamVector) Clamp(raw []float64) []float64 {
	out := make([]float64, len(pv.Specs))
	for i, s := range pv.Specs {
		out[i] = s.clamp(raw[i])
	}
	return out
}

// ApplyToConfig writes clamped values into cfg, in spec order.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	v := pv.Clamp(values)
	cfg.Clustering.DistanceBuffer = v[0]
	cfg.Palette.GraceFrames = int(math.Round(v[1]))
}

// ExtractFromConfig reads the current values back out, in spec order.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	return []float64{
		cfg.Clustering.DistanceBuffer,
		float64(cfg.Palette.GraceFrames),
	}
}
