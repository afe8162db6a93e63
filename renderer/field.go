package renderer

import "math"

// maxFieldCandidates is the compile-time bound on candidate slots tracked per
// pixel. The configured cap may be lower, never higher.
const maxFieldCandidates = 16

// earlyExitEps is the field value below which a pixel is pure background.
const earlyExitEps = 1e-4

// negligibleGrad is the gradient magnitude below which the adaptive AA band
// collapses to the fixed fallback width.
const negligibleGrad = 1e-6

// Params carries the per-frame field evaluation constants. Built once per
// frame from config; never mutated during evaluation.
type Params struct {
	Iso          float32
	NormalZScale float32
	AAMinPx      float32
	AAMaxPx      float32
	AAFallbackPx float32
	CandidateCap int
	Mode         Mode
}

// fieldAccum is one candidate slot's running contribution at a pixel.
type fieldAccum struct {
	slot   uint16
	shape  uint16 // shape of the strongest single contributor
	best   float32
	f      float32
	gx, gy float32
}

// fieldSample is the outcome of accumulating a pixel: the dominant slot's
// field and gradient plus the runner-up used to anti-alias cluster-vs-cluster
// edges. slot is NoSlot when nothing contributed.
type fieldSample struct {
	f          float32
	gx, gy     float32
	slot       uint16
	shape      uint16
	second     float32
	secondSlot uint16
}

// RadiusScale returns the factor converting a physics radius into a field
// radius so that an isolated ball's iso contour lands exactly on the physics
// radius: solving (1 - d²/R²)³ = iso at d = r gives R = r / k.
func RadiusScale(iso float32) float32 {
	c := float64(clampf(iso, 1e-4, 0.9999))
	k := math.Sqrt(math.Max(1-math.Cbrt(c), 1e-4))
	return float32(1 / k)
}

// accumulate evaluates the field at pixel center (px, py) from the records
// listed in entries. Up to limit distinct slots are tracked; contributions
// for further slots are dropped, which under-reports the field only in
// pathologically dense overlap and never corrupts the tracked slots.
func accumulate(px, py float32, records []RenderRecord, entries []int32, atlas *ShapeAtlas, limit int) fieldSample {
	var acc [maxFieldCandidates]fieldAccum
	n := 0
	if limit > maxFieldCandidates {
		limit = maxFieldCandidates
	}

	for _, ri := range entries {
		rec := &records[ri]
		dx := px - rec.X
		dy := py - rec.Y
		r2 := rec.Radius * rec.Radius
		d2 := dx*dx + dy*dy
		if d2 >= r2 {
			continue
		}
		q := d2 / r2
		u := 1 - q
		w := u * u * u
		gs := -6 * u * u / r2
		gx := gs * dx
		gy := gs * dy

		shape := uint16(rec.Packed >> 16)
		if shape != 0 && atlas != nil {
			m := atlas.Mask(shape, dx/rec.Radius, dy/rec.Radius)
			if m <= 0 {
				continue
			}
			w *= m
			gx *= m
			gy *= m
		}

		slot := uint16(rec.Packed)
		idx := -1
		for i := 0; i < n; i++ {
			if acc[i].slot == slot {
				idx = i
				break
			}
		}
		if idx < 0 {
			if n >= limit {
				continue
			}
			acc[n] = fieldAccum{slot: slot}
			idx = n
			n++
		}
		a := &acc[idx]
		a.f += w
		a.gx += gx
		a.gy += gy
		if w > a.best {
			a.best = w
			a.shape = shape
		}
	}

	s := fieldSample{slot: NoSlot, secondSlot: NoSlot}
	bi := -1
	for i := 0; i < n; i++ {
		if bi < 0 || acc[i].f > acc[bi].f {
			bi = i
		}
	}
	if bi < 0 {
		return s
	}
	s.f = acc[bi].f
	s.gx = acc[bi].gx
	s.gy = acc[bi].gy
	s.slot = acc[bi].slot
	s.shape = acc[bi].shape
	for i := 0; i < n; i++ {
		if i == bi {
			continue
		}
		if acc[i].f > s.second {
			s.second = acc[i].f
			s.secondSlot = acc[i].slot
		}
	}
	return s
}

// aaBand derives the anti-alias half-width around iso from the dominant
// gradient. The width is adaptive: iso/(2|grad|) pixels, clamped to the
// configured pixel range, then converted back to field units through the
// gradient. On a flat plateau the conversion collapses, so the band pins to
// the fallback width at the gradient floor, which orders only the pixels
// sitting exactly astride iso.
func aaBand(gradLen float32, p *Params) float32 {
	if gradLen < negligibleGrad {
		return p.AAFallbackPx * negligibleGrad
	}
	hwPx := clampf(p.Iso/(2*gradLen), p.AAMinPx, p.AAMaxPx)
	return hwPx * gradLen
}
