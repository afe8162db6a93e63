package renderer

import (
	"image/color"
	"testing"
)

var (
	testBg   = color.RGBA{R: 33, G: 33, B: 33, A: 255}
	testRed  = color.RGBA{R: 255, G: 0, B: 0, A: 255}
	testBlue = color.RGBA{R: 0, G: 0, B: 255, A: 255}
)

func shadeParams(m Mode) Params {
	return Params{
		Iso:          0.6,
		NormalZScale: 1,
		AAMinPx:      0.25,
		AAMaxPx:      2.0,
		AAFallbackPx: 0.75,
		CandidateCap: 12,
		Mode:         m,
	}
}

func TestModeCycle(t *testing.T) {
	if got := ModeMetadata.Next(); got != ModeFlat {
		t.Errorf("Next after last = %v, want %v", got, ModeFlat)
	}
	if got := ModeFlat.Prev(); got != ModeMetadata {
		t.Errorf("Prev before first = %v, want %v", got, ModeMetadata)
	}
	names := map[Mode]string{
		ModeFlat:        "flat",
		ModeBevel:       "bevel",
		ModeOutlineGlow: "outline-glow",
		ModeMetadata:    "metadata",
	}
	for m, want := range names {
		if m.String() != want {
			t.Errorf("Mode(%d).String() = %q, want %q", m, m.String(), want)
		}
	}
}

func TestBgModeCycle(t *testing.T) {
	if got := BgVerticalGradient.Next(); got != BgSolidGray {
		t.Errorf("Next after last = %v, want %v", got, BgSolidGray)
	}
	if got := BgSolidGray.Prev(); got != BgVerticalGradient {
		t.Errorf("Prev before first = %v, want %v", got, BgVerticalGradient)
	}
}

func TestShadeEmptyPixelIsBackground(t *testing.T) {
	s := fieldSample{slot: NoSlot, secondSlot: NoSlot}
	p := shadeParams(ModeFlat)
	if got := shadePixel(&s, &p, nil, testBg); got != testBg {
		t.Errorf("empty pixel = %v, want background", got)
	}

	pm := shadeParams(ModeMetadata)
	want := color.RGBA{R: 0, G: 255, B: 255, A: 255}
	if got := shadePixel(&s, &pm, nil, testBg); got != want {
		t.Errorf("empty metadata pixel = %v, want %v", got, want)
	}
}

func TestShadeNearZeroFieldIsBackground(t *testing.T) {
	s := fieldSample{f: 5e-5, slot: 0, secondSlot: NoSlot}
	p := shadeParams(ModeFlat)
	if got := shadePixel(&s, &p, []color.RGBA{testRed}, testBg); got != testBg {
		t.Errorf("near-zero pixel = %v, want background", got)
	}
}

func TestShadeFlatInterior(t *testing.T) {
	s := fieldSample{f: 5, gx: 0.6, slot: 0, secondSlot: NoSlot}
	p := shadeParams(ModeFlat)
	if got := shadePixel(&s, &p, []color.RGBA{testRed}, testBg); got != testRed {
		t.Errorf("interior pixel = %v, want pure slot color %v", got, testRed)
	}
}

func TestShadeFlatOutsideSurface(t *testing.T) {
	s := fieldSample{f: 0.2, gx: 0.6, slot: 0, secondSlot: NoSlot}
	p := shadeParams(ModeFlat)
	if got := shadePixel(&s, &p, []color.RGBA{testRed}, testBg); got != testBg {
		t.Errorf("sub-iso pixel = %v, want background", got)
	}
}

func TestMetadataEncoding(t *testing.T) {
	p := shadeParams(ModeMetadata)
	s := fieldSample{f: 0.5, slot: 3, shape: 7, secondSlot: NoSlot}
	want := color.RGBA{R: 127, G: 3, B: 7, A: 255}
	if got := shadePixel(&s, &p, nil, testBg); got != want {
		t.Errorf("metadata pixel = %v, want %v", got, want)
	}

	hot := fieldSample{f: 2.5, slot: 3, shape: 7, secondSlot: NoSlot}
	if got := shadePixel(&hot, &p, nil, testBg); got.R != 255 {
		t.Errorf("metadata field channel = %d, want clamped 255", got.R)
	}
}

func TestClusterEdgeBlend(t *testing.T) {
	colors := []color.RGBA{testRed, testBlue}
	p := shadeParams(ModeFlat)

	// No contender: pure dominant color.
	alone := fieldSample{f: 5, gx: 0.6, slot: 0, secondSlot: NoSlot}
	if got := shadePixel(&alone, &p, colors, testBg); got != testRed {
		t.Fatalf("no-contender pixel = %v, want %v", got, testRed)
	}

	// Dead heat on a cluster-vs-cluster edge: an even mix of both colors.
	tied := fieldSample{f: 5, second: 5, gx: 0.6, slot: 0, secondSlot: 1}
	want := color.RGBA{R: 127, G: 0, B: 127, A: 255}
	if got := shadePixel(&tied, &p, colors, testBg); got != want {
		t.Errorf("tied-edge pixel = %v, want %v", got, want)
	}

	// Contender above iso but far behind: blend collapses to the dominant.
	far := fieldSample{f: 5, second: 0.61, gx: 0.6, slot: 0, secondSlot: 1}
	if got := shadePixel(&far, &p, colors, testBg); got != testRed {
		t.Errorf("far-second pixel = %v, want %v", got, testRed)
	}

	// Contender below iso never tints the dominant surface.
	sub := fieldSample{f: 5, second: 0.59, gx: 0.6, slot: 0, secondSlot: 1}
	if got := shadePixel(&sub, &p, colors, testBg); got != testRed {
		t.Errorf("sub-iso-second pixel = %v, want %v", got, testRed)
	}
}

func TestBevelInteriorShadesFlatTop(t *testing.T) {
	// Deep inside rim influence is zero, the normal is straight +z and the
	// diffuse term is the light's z component.
	s := fieldSample{f: 5, gx: 0.6, slot: 0, secondSlot: NoSlot}
	p := shadeParams(ModeBevel)
	want := color.RGBA{R: 204, G: 0, B: 0, A: 255}
	if got := shadePixel(&s, &p, []color.RGBA{testRed}, testBg); got != want {
		t.Errorf("bevel interior = %v, want %v", got, want)
	}
}

func TestBevelRimFacesTheLight(t *testing.T) {
	p := shadeParams(ModeBevel)
	colors := []color.RGBA{testRed}

	// Near the iso edge the pseudo normal tilts along -grad. With the key
	// light up-left, a rim tilting up-left must come out brighter than the
	// mirror-image rim tilting down-right.
	toward := fieldSample{f: 0.7, gx: 0.6, gy: 0.9, slot: 0, secondSlot: NoSlot}
	away := fieldSample{f: 0.7, gx: -0.6, gy: -0.9, slot: 0, secondSlot: NoSlot}

	lit := shadePixel(&toward, &p, colors, testBg)
	dark := shadePixel(&away, &p, colors, testBg)
	if lit.R <= dark.R {
		t.Errorf("rim toward light R=%d not brighter than away R=%d", lit.R, dark.R)
	}
}

func TestOutlineGlowBelowIso(t *testing.T) {
	// Halfway to iso: no mask coverage, just the approach glow over the
	// background.
	s := fieldSample{f: 0.3, gx: 0.6, slot: 0, secondSlot: NoSlot}
	p := shadeParams(ModeOutlineGlow)
	want := color.RGBA{R: 45, G: 31, B: 31, A: 255}
	if got := shadePixel(&s, &p, []color.RGBA{testRed}, testBg); got != want {
		t.Errorf("glow pixel = %v, want %v", got, want)
	}
}

func TestOutlineGlowRingAtIso(t *testing.T) {
	s := fieldSample{f: 0.6, gx: 0.6, slot: 0, secondSlot: NoSlot}
	p := shadeParams(ModeOutlineGlow)
	want := color.RGBA{R: 168, G: 82, B: 82, A: 255}
	if got := shadePixel(&s, &p, []color.RGBA{testRed}, testBg); got != want {
		t.Errorf("ring pixel = %v, want %v", got, want)
	}
}

func TestSlotColorFallback(t *testing.T) {
	colors := []color.RGBA{testRed}
	if got := slotColor(colors, 0); got != testRed {
		t.Errorf("in-range slot color = %v, want %v", got, testRed)
	}
	magenta := color.RGBA{R: 255, G: 0, B: 255, A: 255}
	if got := slotColor(colors, 3); got != magenta {
		t.Errorf("out-of-range slot color = %v, want %v", got, magenta)
	}
}
