package renderer

import (
	"image/color"
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/ahammer/metalrain/config"
)

// bgGridStep is the pixel spacing of the noise grid. The grid is refreshed on
// an interval and sampled bilinearly, so per-pixel cost stays at one lerp.
const bgGridStep = 16

// Background produces the backdrop color behind the surface. Solid and
// gradient modes are pure functions of the pixel; the noise mode animates
// fractional brownian motion over opensimplex noise on a coarse grid.
type Background struct {
	mode BgMode

	width, height int

	noise      opensimplex.Noise
	grid       []float32
	gw, gh     int
	elapsed    float64
	sinceBuild float64
	interval   float64

	baseScale  float64
	octaves    int
	gain       float64
	lacunarity float64
	speedX     float64
	speedY     float64
	contrast   float64
}

// NewBackground creates a background sized to the viewport, reading noise
// parameters from config.
func NewBackground(width, height int, mode BgMode, seed int64) *Background {
	nc := config.Cfg().Noise
	b := &Background{
		mode:       mode,
		noise:      opensimplex.NewNormalized(seed),
		interval:   nc.UpdateInterval,
		baseScale:  nc.BaseScale,
		octaves:    nc.Octaves,
		gain:       nc.Gain,
		lacunarity: nc.Lacunarity,
		speedX:     nc.SpeedX,
		speedY:     nc.SpeedY,
		contrast:   nc.Contrast,
	}
	b.Resize(width, height)
	return b
}

// Mode returns the active background mode.
func (b *Background) Mode() BgMode { return b.mode }

// SetMode switches the background mode. The noise grid stays warm so
// switching back is free.
func (b *Background) SetMode(m BgMode) { b.mode = m }

// Resize re-derives the noise grid for a new viewport.
func (b *Background) Resize(width, height int) {
	b.width = width
	b.height = height
	b.gw = width/bgGridStep + 2
	b.gh = height/bgGridStep + 2
	b.grid = make([]float32, b.gw*b.gh)
	b.rebuild()
}

// Update advances the animation clock and refreshes the noise grid when the
// update interval has elapsed.
func (b *Background) Update(dt float64) {
	b.elapsed += dt
	if b.mode != BgNoise {
		return
	}
	b.sinceBuild += dt
	if b.sinceBuild >= b.interval {
		b.sinceBuild = 0
		b.rebuild()
	}
}

// rebuild evaluates fbm at every grid node with the current time drift.
func (b *Background) rebuild() {
	du := b.elapsed * b.speedX
	dv := b.elapsed * b.speedY
	for gy := 0; gy < b.gh; gy++ {
		py := float64(gy * bgGridStep)
		for gx := 0; gx < b.gw; gx++ {
			px := float64(gx * bgGridStep)
			b.grid[gy*b.gw+gx] = b.fbm(px*b.baseScale+du, py*b.baseScale+dv)
		}
	}
}

// fbm sums octaves of opensimplex noise, then applies contrast shaping.
func (b *Background) fbm(x, y float64) float32 {
	sum := 0.0
	amp := 0.5
	freq := 1.0
	for o := 0; o < b.octaves; o++ {
		sum += amp * b.noise.Eval2(x*freq, y*freq)
		freq *= b.lacunarity
		amp *= b.gain
	}
	v := math.Pow(sum, b.contrast)
	if v < 0 {
		v = 0
	} else if v > 1 {
		v = 1
	}
	return float32(v)
}

// sampleGrid interpolates the noise grid at pixel (x, y).
func (b *Background) sampleGrid(x, y int) float32 {
	fx := float32(x) / bgGridStep
	fy := float32(y) / bgGridStep
	x0 := int(fx)
	y0 := int(fy)
	if x0 > b.gw-2 {
		x0 = b.gw - 2
	}
	if y0 > b.gh-2 {
		y0 = b.gh - 2
	}
	tx := fx - float32(x0)
	ty := fy - float32(y0)

	i := y0*b.gw + x0
	a := b.grid[i] + (b.grid[i+1]-b.grid[i])*tx
	j := i + b.gw
	c := b.grid[j] + (b.grid[j+1]-b.grid[j])*tx
	return a + (c-a)*ty
}

// Background palette: a neutral dark gray for solid, cool slate ramps for
// the gradient and noise modes.
var (
	bgSolid      = color.RGBA{R: 33, G: 33, B: 33, A: 255}
	bgGradTop    = color.RGBA{R: 26, G: 28, B: 38, A: 255}
	bgGradBottom = color.RGBA{R: 8, G: 9, B: 13, A: 255}
	bgNoiseLow   = color.RGBA{R: 10, G: 12, B: 16, A: 255}
	bgNoiseHigh  = color.RGBA{R: 46, G: 52, B: 66, A: 255}
)

// At returns the backdrop color for pixel (x, y).
func (b *Background) At(x, y int) color.RGBA {
	switch b.mode {
	case BgVerticalGradient:
		t := float32(y) / float32(b.height)
		return mixRGBA(bgGradTop, bgGradBottom, t)
	case BgNoise:
		return mixRGBA(bgNoiseLow, bgNoiseHigh, b.sampleGrid(x, y))
	default:
		return bgSolid
	}
}
