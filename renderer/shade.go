package renderer

import "image/color"

// Mode selects the foreground shading function. The set is closed and
// dispatched by value once per pixel.
type Mode int

const (
	ModeFlat Mode = iota
	ModeBevel
	ModeOutlineGlow
	ModeMetadata
	modeCount
)

// String returns the name shown in the HUD and the tuning UI.
func (m Mode) String() string {
	switch m {
	case ModeFlat:
		return "flat"
	case ModeBevel:
		return "bevel"
	case ModeOutlineGlow:
		return "outline-glow"
	case ModeMetadata:
		return "metadata"
	}
	return "unknown"
}

// Next returns the following mode, wrapping.
func (m Mode) Next() Mode { return (m + 1) % modeCount }

// Prev returns the preceding mode, wrapping.
func (m Mode) Prev() Mode { return (m + modeCount - 1) % modeCount }

// BgMode selects the background layer behind the surface.
type BgMode int

const (
	BgSolidGray BgMode = iota
	BgNoise
	BgVerticalGradient
	bgModeCount
)

// String returns the name shown in the HUD and the tuning UI.
func (b BgMode) String() string {
	switch b {
	case BgSolidGray:
		return "solid"
	case BgNoise:
		return "noise"
	case BgVerticalGradient:
		return "vertical-gradient"
	}
	return "unknown"
}

// Next returns the following background mode, wrapping.
func (b BgMode) Next() BgMode { return (b + 1) % bgModeCount }

// Prev returns the preceding background mode, wrapping.
func (b BgMode) Prev() BgMode { return (b + bgModeCount - 1) % bgModeCount }

// Key light for the bevel mode: unit length, from the upper left, out of the
// screen.
const (
	lightX = -0.4
	lightY = -0.6
	lightZ = 0.6928
)

// shadePixel converts a field sample into the final pixel color, compositing
// over the background by the anti-aliased edge mask.
func shadePixel(s *fieldSample, p *Params, colors []color.RGBA, bg color.RGBA) color.RGBA {
	if s.slot == NoSlot || s.f < earlyExitEps {
		if p.Mode == ModeMetadata {
			return color.RGBA{R: 0, G: 255, B: 255, A: 255}
		}
		return bg
	}
	if p.Mode == ModeMetadata {
		return metadataPixel(s)
	}

	gradLen := fastSqrt(s.gx*s.gx + s.gy*s.gy)
	hw := aaBand(gradLen, p)
	mask := smoothstep(p.Iso-hw, p.Iso+hw, s.f)
	if mask <= 0 && p.Mode != ModeOutlineGlow {
		return bg
	}

	base := slotColor(colors, s.slot)

	// Where a second cluster also clears iso the pixel sits on a
	// cluster-vs-cluster edge; blend its color over the same band width so
	// the internal boundary is anti-aliased without the fields merging.
	if s.secondSlot != NoSlot && s.second > p.Iso {
		t := clamp01((s.f - s.second) / (2 * hw))
		base = mixRGBA(slotColor(colors, s.secondSlot), base, 0.5+0.5*t)
	}

	switch p.Mode {
	case ModeBevel:
		return mixRGBA(bg, shadeBevel(s, p, base, gradLen), mask)
	case ModeOutlineGlow:
		return shadeOutlineGlow(s, p, base, hw, mask, bg)
	default:
		return mixRGBA(bg, base, mask)
	}
}

// shadeBevel lights the surface as a chamfered flat sphere: flat well above
// iso, curving toward the rim where the field approaches iso. The pseudo
// normal comes straight from the field gradient.
func shadeBevel(s *fieldSample, p *Params, base color.RGBA, gradLen float32) color.RGBA {
	rim := 1 - smoothstep(p.Iso, p.Iso*2.2, s.f)
	var nx, ny float32
	if gradLen > negligibleGrad {
		nx = -s.gx / gradLen * rim
		ny = -s.gy / gradLen * rim
	}
	nz := p.NormalZScale
	if nz < 1e-3 {
		nz = 1e-3
	}
	inv := 1 / fastSqrt(nx*nx+ny*ny+nz*nz)
	nx *= inv
	ny *= inv
	nz *= inv

	diff := nx*lightX + ny*lightY + nz*lightZ
	if diff < 0 {
		diff = 0
	}
	return scaleRGB(base, 0.35+0.65*diff)
}

// shadeOutlineGlow draws a flat fill with a bright ring at the iso crossing
// and a soft glow falling off below iso, so near-merging clusters telegraph
// their approach.
func shadeOutlineGlow(s *fieldSample, p *Params, base color.RGBA, hw, mask float32, bg color.RGBA) color.RGBA {
	ringT := 1 - clamp01(absf(s.f-p.Iso)/(3*hw))
	lit := mixRGBA(base, color.RGBA{R: 255, G: 255, B: 255, A: 255}, ringT*0.55)

	t := clamp01(s.f / p.Iso)
	glow := t * t * t * 0.45 * (1 - mask)
	out := mixRGBA(bg, base, glow)
	return mixRGBA(out, lit, mask)
}

// metadataPixel encodes the raw sample for external composition: field in R
// clamped to [0,1], slot low byte in G, shape low byte in B.
func metadataPixel(s *fieldSample) color.RGBA {
	return color.RGBA{
		R: uint8(clamp01(s.f) * 255),
		G: uint8(s.slot),
		B: uint8(s.shape),
		A: 255,
	}
}

func slotColor(colors []color.RGBA, slot uint16) color.RGBA {
	if int(slot) < len(colors) {
		return colors[slot]
	}
	return color.RGBA{R: 255, G: 0, B: 255, A: 255} // a slot the palette never produced
}

func mixRGBA(a, b color.RGBA, t float32) color.RGBA {
	return color.RGBA{
		R: uint8(lerp(float32(a.R), float32(b.R), t)),
		G: uint8(lerp(float32(a.G), float32(b.G), t)),
		B: uint8(lerp(float32(a.B), float32(b.B), t)),
		A: uint8(lerp(float32(a.A), float32(b.A), t)),
	}
}

func scaleRGB(c color.RGBA, s float32) color.RGBA {
	r := float32(c.R) * s
	g := float32(c.G) * s
	b := float32(c.B) * s
	if r > 255 {
		r = 255
	}
	if g > 255 {
		g = 255
	}
	if b > 255 {
		b = 255
	}
	return color.RGBA{R: uint8(r), G: uint8(g), B: uint8(b), A: c.A}
}
