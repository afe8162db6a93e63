package renderer

import "math"

// float32 helpers for the per-pixel hot path. The stdlib math package works
// in float64, and the conversions show up in profiles at this call volume.

// fastSqrt is the inverse-square-root bit trick with one Newton step,
// good to about 0.1% over the field magnitudes the shader sees.
func fastSqrt(x float32) float32 {
	if x <= 0 {
		return 0
	}
	g := math.Float32frombits(0x5f375a86 - math.Float32bits(x)>>1)
	g *= 1.5 - 0.5*x*g*g
	return x * g
}

func absf(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

func clampf(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// smoothstep is the cubic Hermite step between edges e0 and e1.
func smoothstep(e0, e1, x float32) float32 {
	if e1 == e0 {
		if x < e0 {
			return 0
		}
		return 1
	}
	t := clamp01((x - e0) / (e1 - e0))
	return t * t * (3 - 2*t)
}

func lerp(a, b, t float32) float32 {
	return a + (b-a)*t
}
