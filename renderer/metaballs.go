// Package renderer contains the screen-space half of the pipeline: render
// records, tile binning, field evaluation and shading into a CPU pixel
// buffer, plus the texture upload for windowed presentation.
package renderer

import (
	"image/color"
	"log/slog"
	"sync"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/ahammer/metalrain/config"
	"github.com/ahammer/metalrain/systems"
)

var candidateCapWarn sync.Once

// Metaballs turns clustered balls into shaded pixels. Each frame: flatten
// clusters into render records, bin them into screen tiles, then shade every
// pixel from its tile's records over the worker pool. The buffer uploads to
// a raylib texture in windowed runs; headless runs read Pixels directly.
type Metaballs struct {
	grid  *TileGrid
	pool  *rowPool
	atlas *ShapeAtlas
	bg    *Background

	records []RenderRecord
	pix     []color.RGBA
	colors  []color.RGBA

	params           Params
	radiusMultiplier float32
	width, height    int

	tex         rl.Texture2D
	texW, texH  int
	initialized bool
}

// NewMetaballs builds the pipeline for the given viewport. atlas may be nil,
// in which case every ball renders as an analytic circle.
func NewMetaballs(width, height int, atlas *ShapeAtlas, bg *Background) *Metaballs {
	mc := config.Cfg().Metaballs
	m := &Metaballs{
		grid:             NewTileGrid(width, height, mc.TileSize),
		atlas:            atlas,
		bg:               bg,
		width:            width,
		height:           height,
		pix:              make([]color.RGBA, width*height),
		radiusMultiplier: float32(mc.RadiusMultiplier),
		params: Params{
			Iso:          float32(mc.Iso),
			NormalZScale: float32(mc.NormalZScale),
			AAMinPx:      float32(mc.AAMinPx),
			AAMaxPx:      float32(mc.AAMaxPx),
			AAFallbackPx: float32(mc.AAFallbackPx),
			CandidateCap: mc.CandidateCap,
			Mode:         Mode(mc.FgMode),
		},
	}
	if m.radiusMultiplier < 1e-4 {
		m.radiusMultiplier = 1e-4
	}
	if m.params.CandidateCap < 1 || m.params.CandidateCap > maxFieldCandidates {
		candidateCapWarn.Do(func() {
			slog.Warn("candidate cap out of range, clamping",
				"requested", mc.CandidateCap, "max", maxFieldCandidates)
		})
		m.params.CandidateCap = clampi(m.params.CandidateCap, 1, maxFieldCandidates)
	}
	if m.params.Mode < 0 || m.params.Mode >= modeCount {
		m.params.Mode = ModeFlat
	}
	m.pool = newRowPool(m.shadeRowRange)
	return m
}

// Render shades one frame into the pixel buffer. balls, clusters and slotIDs
// come from the clustering stage; colors maps slot index to RGBA. The view
// transform maps world to screen as (world - origin) * zoom.
func (m *Metaballs) Render(balls []systems.BallSnap, clusters []systems.Cluster, slotIDs []uint16, colors []color.RGBA, originX, originY, zoom float32) {
	scale := RadiusScale(m.params.Iso) * m.radiusMultiplier
	m.records = BuildRecordsInto(m.records[:0], balls, clusters, slotIDs, originX, originY, zoom, scale)
	m.grid.Rebuild(m.records)
	m.colors = colors
	m.pool.run(m.grid.Rows())
}

// shadeRowRange shades the tiles in rows [tr0, tr1). Workers get disjoint
// row ranges, so each pixel is written exactly once per frame.
func (m *Metaballs) shadeRowRange(tr0, tr1 int) {
	p := &m.params
	cols := m.grid.Cols()
	for tr := tr0; tr < tr1; tr++ {
		for tc := 0; tc < cols; tc++ {
			x0, y0, x1, y1 := m.grid.TileBounds(tc, tr)
			entries := m.grid.TileEntries(tc, tr)
			if len(entries) == 0 {
				m.fillBackground(x0, y0, x1, y1, p.Mode)
				continue
			}
			for y := y0; y < y1; y++ {
				py := float32(y) + 0.5
				row := m.pix[y*m.width : (y+1)*m.width]
				for x := x0; x < x1; x++ {
					s := accumulate(float32(x)+0.5, py, m.records, entries, m.atlas, p.CandidateCap)
					row[x] = shadePixel(&s, p, m.colors, m.bg.At(x, y))
				}
			}
		}
	}
}

// fillBackground writes the backdrop for a tile no record touches.
func (m *Metaballs) fillBackground(x0, y0, x1, y1 int, mode Mode) {
	if mode == ModeMetadata {
		px := color.RGBA{R: 0, G: 255, B: 255, A: 255}
		for y := y0; y < y1; y++ {
			row := m.pix[y*m.width : (y+1)*m.width]
			for x := x0; x < x1; x++ {
				row[x] = px
			}
		}
		return
	}
	for y := y0; y < y1; y++ {
		row := m.pix[y*m.width : (y+1)*m.width]
		for x := x0; x < x1; x++ {
			row[x] = m.bg.At(x, y)
		}
	}
}

// Resize reallocates the pixel buffer and tile grid for a new viewport.
func (m *Metaballs) Resize(width, height int) {
	if width == m.width && height == m.height {
		return
	}
	m.width = width
	m.height = height
	m.pix = make([]color.RGBA, width*height)
	m.grid.Resize(width, height)
	m.bg.Resize(width, height)
}

// initTexture creates the presentation texture. Must run after the raylib
// window exists.
func (m *Metaballs) initTexture() {
	img := rl.GenImageColor(m.width, m.height, rl.Black)
	m.tex = rl.LoadTextureFromImage(img)
	rl.SetTextureFilter(m.tex, rl.FilterPoint)
	rl.UnloadImage(img)
	m.texW = m.width
	m.texH = m.height
	m.initialized = true
}

// Draw uploads the shaded buffer and blits it to the screen.
func (m *Metaballs) Draw() {
	if !m.initialized || m.texW != m.width || m.texH != m.height {
		if m.initialized {
			rl.UnloadTexture(m.tex)
		}
		m.initTexture()
	}
	rl.UpdateTexture(m.tex, m.pix)
	src := rl.Rectangle{Width: float32(m.texW), Height: float32(m.texH)}
	dst := rl.Rectangle{Width: float32(m.width), Height: float32(m.height)}
	rl.DrawTexturePro(m.tex, src, dst, rl.Vector2{}, 0, rl.White)
}

// Unload stops the workers and frees GPU resources.
func (m *Metaballs) Unload() {
	m.pool.stop()
	if m.initialized {
		rl.UnloadTexture(m.tex)
		m.initialized = false
	}
}

// Pixels returns the shaded buffer of the last Render, row-major.
func (m *Metaballs) Pixels() []color.RGBA { return m.pix }

// Width returns the viewport width in pixels.
func (m *Metaballs) Width() int { return m.width }

// Height returns the viewport height in pixels.
func (m *Metaballs) Height() int { return m.height }

// RecordCount returns how many render records the last frame produced.
func (m *Metaballs) RecordCount() int { return len(m.records) }

// DroppedRecords returns how many degenerate records have been skipped.
func (m *Metaballs) DroppedRecords() int64 { return m.grid.Skipped() }

// Iso returns the surface threshold.
func (m *Metaballs) Iso() float32 { return m.params.Iso }

// SetIso sets the surface threshold. The radius correction clamps internally;
// callers keep their own UI range.
func (m *Metaballs) SetIso(v float32) { m.params.Iso = v }

// Mode returns the active foreground mode.
func (m *Metaballs) Mode() Mode { return m.params.Mode }

// SetMode switches the foreground mode.
func (m *Metaballs) SetMode(mode Mode) {
	if mode < 0 || mode >= modeCount {
		return
	}
	m.params.Mode = mode
}

// NormalZScale returns the bevel normal flattening factor.
func (m *Metaballs) NormalZScale() float32 { return m.params.NormalZScale }

// SetNormalZScale adjusts the bevel normal flattening factor.
func (m *Metaballs) SetNormalZScale(v float32) { m.params.NormalZScale = v }

// RadiusMultiplier returns the extra scale on the iso-corrected radius.
func (m *Metaballs) RadiusMultiplier() float32 { return m.radiusMultiplier }

// SetRadiusMultiplier adjusts the extra radius scale, floored away from zero.
func (m *Metaballs) SetRadiusMultiplier(v float32) {
	if v < 1e-4 {
		v = 1e-4
	}
	m.radiusMultiplier = v
}

// Background returns the backdrop layer for mode cycling.
func (m *Metaballs) Background() *Background { return m.bg }
