// Package systems provides the per-frame systems of the demo: ball motion,
// spawning, and the clustering engine.
package systems

// ClusterGrid buckets snapshot indices into square cells sized so that any
// two balls within merge distance land in the same or adjacent cells.
// It is rebuilt every frame because the cell size tracks the largest radius.
type ClusterGrid struct {
	cellSize float32
	cols     int
	rows     int
	cells    [][]int32 // flat grid of snapshot index lists
}

// NewClusterGrid creates an empty grid. Rebuild sizes it.
func NewClusterGrid() *ClusterGrid {
	return &ClusterGrid{}
}

// Rebuild rebins all balls. Cell size is 2 x (largest radius) x buffer so the
// merge predicate only ever needs the 3x3 neighborhood; degenerate inputs
// (no balls, tiny radii) collapse to a small grid rather than failing.
func (g *ClusterGrid) Rebuild(balls []BallSnap, worldW, worldH, buffer float32) {
	maxR := float32(0)
	for i := range balls {
		if balls[i].Radius > maxR {
			maxR = balls[i].Radius
		}
	}

	cellSize := 2 * maxR * buffer
	if cellSize < 1 {
		cellSize = 1 // zero-size cells would collapse the grid
	}

	cols := int(worldW/cellSize) + 1
	rows := int(worldH/cellSize) + 1
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}

	g.cellSize = cellSize
	if g.cols != cols || g.rows != rows || g.cells == nil {
		g.cols = cols
		g.rows = rows
		g.cells = make([][]int32, cols*rows)
		for i := range g.cells {
			g.cells[i] = make([]int32, 0, 8)
		}
	} else {
		for i := range g.cells {
			g.cells[i] = g.cells[i][:0]
		}
	}

	for i := range balls {
		idx := g.cellIndex(balls[i].X, balls[i].Y)
		g.cells[idx] = append(g.cells[idx], int32(i))
	}
}

// CandidatesInto appends the snapshot indices stored in the 3x3 cell block
// around (x, y) to dst and returns the updated slice. Reuse dst across calls
// to avoid allocations. The result includes the querying ball itself; there
// is no cap because the clusterer needs every candidate for exact merging.
func (g *ClusterGrid) CandidatesInto(dst []int32, x, y float32) []int32 {
	if len(g.cells) == 0 {
		return dst
	}

	col := clampInt(int(x/g.cellSize), 0, g.cols-1)
	row := clampInt(int(y/g.cellSize), 0, g.rows-1)

	c0 := clampInt(col-1, 0, g.cols-1)
	c1 := clampInt(col+1, 0, g.cols-1)
	r0 := clampInt(row-1, 0, g.rows-1)
	r1 := clampInt(row+1, 0, g.rows-1)

	for r := r0; r <= r1; r++ {
		base := r * g.cols
		for c := c0; c <= c1; c++ {
			dst = append(dst, g.cells[base+c]...)
		}
	}
	return dst
}

// CellSize returns the edge length the last Rebuild derived.
func (g *ClusterGrid) CellSize() float32 {
	return g.cellSize
}

// Dims returns the grid dimensions of the last Rebuild.
func (g *ClusterGrid) Dims() (cols, rows int) {
	return g.cols, g.rows
}

// cellIndex returns the flat index for a world position.
func (g *ClusterGrid) cellIndex(x, y float32) int {
	col := clampInt(int(x/g.cellSize), 0, g.cols-1)
	row := clampInt(int(y/g.cellSize), 0, g.rows-1)
	return row*g.cols + col
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
