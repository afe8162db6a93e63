package renderer

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// MinTileSize is the smallest accepted tile edge in pixels. Below this the
// per-tile bookkeeping costs more than the pixels it saves.
const MinTileSize = 8

// tilePad widens each record's tile span so pixels near a tile border still
// see every record whose field reaches their center.
const tilePad = 1.5

var tileSizeWarn sync.Once

// TileGrid bins render records into fixed-size screen tiles so the field
// evaluator only reads the records that can touch a tile's pixels.
//
// All per-tile lists share one backing slice: a count pass, a prefix sum,
// then a fill pass. Spans are recomputed in the fill pass rather than stored;
// the arithmetic is cheaper than holding a spans slice across passes.
type TileGrid struct {
	tileSize      int
	cols, rows    int
	width, height int

	counts  []int32
	offsets []int32
	entries []int32
	cursor  []int32

	skipped     int64
	lastSkipLog time.Time
}

// NewTileGrid creates a grid for the given viewport. Tile sizes below
// MinTileSize are clamped with a one-time warning.
func NewTileGrid(width, height, tileSize int) *TileGrid {
	if tileSize < MinTileSize {
		tileSizeWarn.Do(func() {
			slog.Warn("tile size below minimum, clamping",
				"requested", tileSize, "min", MinTileSize)
		})
		tileSize = MinTileSize
	}
	g := &TileGrid{tileSize: tileSize}
	g.Resize(width, height)
	return g
}

// Resize rebuilds the tile layout for a new viewport. Panics on a
// non-positive viewport: there is no sensible output surface to fall back to.
func (g *TileGrid) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		panic(fmt.Sprintf("renderer: viewport must be positive, got %dx%d", width, height))
	}
	if width == g.width && height == g.height && g.counts != nil {
		return
	}
	g.width = width
	g.height = height
	g.cols = (width + g.tileSize - 1) / g.tileSize
	g.rows = (height + g.tileSize - 1) / g.tileSize
	n := g.cols * g.rows
	g.counts = make([]int32, n)
	g.offsets = make([]int32, n)
	g.cursor = make([]int32, n)
}

// Rebuild rebins all records. Records with NaN coordinates or a non-positive
// radius are dropped with a rate-limited warning; records entirely outside
// the viewport are culled silently.
func (g *TileGrid) Rebuild(records []RenderRecord) {
	clear(g.counts)

	for i := range records {
		rec := &records[i]
		if rec.X != rec.X || rec.Y != rec.Y || !(rec.Radius > 0) {
			g.noteDegenerate(rec)
			continue
		}
		c0, r0, c1, r1, visible := g.span(rec)
		if !visible {
			continue
		}
		for row := r0; row <= r1; row++ {
			base := row * g.cols
			for col := c0; col <= c1; col++ {
				g.counts[base+col]++
			}
		}
	}

	total := int32(0)
	for i, c := range g.counts {
		g.offsets[i] = total
		g.cursor[i] = total
		total += c
	}
	if cap(g.entries) < int(total) {
		g.entries = make([]int32, total)
	} else {
		g.entries = g.entries[:total]
	}

	for i := range records {
		rec := &records[i]
		if rec.X != rec.X || rec.Y != rec.Y || !(rec.Radius > 0) {
			continue
		}
		c0, r0, c1, r1, visible := g.span(rec)
		if !visible {
			continue
		}
		for row := r0; row <= r1; row++ {
			base := row * g.cols
			for col := c0; col <= c1; col++ {
				g.entries[g.cursor[base+col]] = int32(i)
				g.cursor[base+col]++
			}
		}
	}
}

// span returns the inclusive tile range a record covers, or visible=false
// when its padded reach misses the viewport entirely. Infinite coordinates
// fall out through the viewport test.
func (g *TileGrid) span(rec *RenderRecord) (c0, r0, c1, r1 int, visible bool) {
	reach := rec.Radius + tilePad
	minX := rec.X - reach
	maxX := rec.X + reach
	minY := rec.Y - reach
	maxY := rec.Y + reach
	if maxX < 0 || maxY < 0 || minX >= float32(g.width) || minY >= float32(g.height) {
		return 0, 0, 0, 0, false
	}
	ts := float32(g.tileSize)
	c0 = clampi(int(minX/ts), 0, g.cols-1)
	c1 = clampi(int(maxX/ts), 0, g.cols-1)
	r0 = clampi(int(minY/ts), 0, g.rows-1)
	r1 = clampi(int(maxY/ts), 0, g.rows-1)
	return c0, r0, c1, r1, true
}

func (g *TileGrid) noteDegenerate(rec *RenderRecord) {
	g.skipped++
	if now := time.Now(); now.Sub(g.lastSkipLog) >= time.Second {
		g.lastSkipLog = now
		slog.Warn("dropping degenerate render record",
			"x", rec.X, "y", rec.Y, "radius", rec.Radius, "dropped_total", g.skipped)
	}
}

// TileEntries returns the record indices binned to tile (col, row). The
// slice aliases internal storage and is valid until the next Rebuild.
func (g *TileGrid) TileEntries(col, row int) []int32 {
	t := row*g.cols + col
	start := g.offsets[t]
	return g.entries[start : start+g.counts[t]]
}

// TileBounds returns the pixel rectangle of tile (col, row) clamped to the
// viewport: x in [x0, x1), y in [y0, y1).
func (g *TileGrid) TileBounds(col, row int) (x0, y0, x1, y1 int) {
	x0 = col * g.tileSize
	y0 = row * g.tileSize
	x1 = x0 + g.tileSize
	y1 = y0 + g.tileSize
	if x1 > g.width {
		x1 = g.width
	}
	if y1 > g.height {
		y1 = g.height
	}
	return x0, y0, x1, y1
}

// Cols returns the number of tile columns.
func (g *TileGrid) Cols() int { return g.cols }

// Rows returns the number of tile rows.
func (g *TileGrid) Rows() int { return g.rows }

// TileSize returns the effective tile edge after clamping.
func (g *TileGrid) TileSize() int { return g.tileSize }

// Width returns the viewport width in pixels.
func (g *TileGrid) Width() int { return g.width }

// Height returns the viewport height in pixels.
func (g *TileGrid) Height() int { return g.height }

// Skipped returns how many degenerate records have been dropped.
func (g *TileGrid) Skipped() int64 { return g.skipped }

func clampi(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
