// Package camera provides the 2D view into the world: pan, zoom, and the
// mapping between screen pixels and world units, with the view clamped to
// the world rectangle.
package camera

// Camera maps between world and screen coordinates. The world is a bounded
// rectangle; the camera center is kept far enough from the edges that the
// visible area never leaves it.
type Camera struct {
	X, Y float32 // center, world coordinates
	Zoom float32 // screen pixels per world unit

	ViewportW, ViewportH float32
	WorldW, WorldH       float32

	// Zoom stays inside [MinZoom, MaxZoom]. MinZoom is recomputed on
	// resize so zooming out stops once the world fills the screen.
	MinZoom, MaxZoom float32
}

// New returns a camera over the given world, centered, at 1:1 zoom or the
// closest legal level.
func New(viewportW, viewportH, worldW, worldH float32) *Camera {
	c := &Camera{
		Zoom:      1,
		MaxZoom:   4,
		ViewportW: viewportW,
		ViewportH: viewportH,
		WorldW:    worldW,
		WorldH:    worldH,
	}
	c.MinZoom = fitZoom(viewportW, viewportH, worldW, worldH)
	c.Zoom = max(c.Zoom, c.MinZoom)
	c.X, c.Y = worldW/2, worldH/2
	c.clampCenter()
	return c
}

// fitZoom is the zoom at which the viewport exactly covers the world on its
// limiting axis.
func fitZoom(viewportW, viewportH, worldW, worldH float32) float32 {
	return max(viewportW/worldW, viewportH/worldH)
}

// halfView returns half the viewport extent in world units.
func (c *Camera) halfView() (hw, hh float32) {
	return c.ViewportW / (2 * c.Zoom), c.ViewportH / (2 * c.Zoom)
}

// WorldToScreen converts a world position to screen pixels.
func (c *Camera) WorldToScreen(wx, wy float32) (sx, sy float32) {
	return c.ViewportW/2 + (wx-c.X)*c.Zoom, c.ViewportH/2 + (wy-c.Y)*c.Zoom
}

// ScreenToWorld converts screen pixels to a world position.
func (c *Camera) ScreenToWorld(sx, sy float32) (wx, wy float32) {
	return c.X + (sx-c.ViewportW/2)/c.Zoom, c.Y + (sy-c.ViewportH/2)/c.Zoom
}

// Origin returns the world position of the screen's top-left corner. The
// renderer builds its world-to-screen transform from this and Zoom.
func (c *Camera) Origin() (ox, oy float32) {
	hw, hh := c.halfView()
	return c.X - hw, c.Y - hh
}

// IsVisible reports whether a circle could appear on screen. It errs on the
// generous side for culling.
func (c *Camera) IsVisible(wx, wy, radius float32) bool {
	hw, hh := c.halfView()
	return absf(wx-c.X) <= hw+radius && absf(wy-c.Y) <= hh+radius
}

// Resize updates the viewport size, reclamping zoom and center.
func (c *Camera) Resize(viewportW, viewportH float32) {
	if c.ViewportW == viewportW && c.ViewportH == viewportH {
		return
	}
	c.ViewportW, c.ViewportH = viewportW, viewportH
	c.MinZoom = fitZoom(viewportW, viewportH, c.WorldW, c.WorldH)
	c.Zoom = max(c.Zoom, c.MinZoom)
	c.clampCenter()
}

// Pan moves the camera by a screen-pixel delta, stopping at the world edges.
func (c *Camera) Pan(dx, dy float32) {
	c.X += dx / c.Zoom
	c.Y += dy / c.Zoom
	c.clampCenter()
}

// SetZoom clamps the zoom into [MinZoom, MaxZoom]. Zooming out near an edge
// pushes the center back inside the valid band.
func (c *Camera) SetZoom(zoom float32) {
	c.Zoom = min(max(zoom, c.MinZoom), c.MaxZoom)
	c.clampCenter()
}

// ZoomBy multiplies the zoom by factor.
func (c *Camera) ZoomBy(factor float32) {
	c.SetZoom(c.Zoom * factor)
}

// Reset recenters on the world at 1:1 zoom (or the closest legal level).
func (c *Camera) Reset() {
	c.X, c.Y = c.WorldW/2, c.WorldH/2
	c.SetZoom(1)
}

// VisibleWorldBounds returns the world rectangle on screen as
// (minX, minY, maxX, maxY).
func (c *Camera) VisibleWorldBounds() (minX, minY, maxX, maxY float32) {
	hw, hh := c.halfView()
	return c.X - hw, c.Y - hh, c.X + hw, c.Y + hh
}

// clampCenter keeps the view rectangle inside the world. An axis narrower
// than the view centers on the world instead.
func (c *Camera) clampCenter() {
	hw, hh := c.halfView()
	c.X = clampAxis(c.X, hw, c.WorldW)
	c.Y = clampAxis(c.Y, hh, c.WorldH)
}

func clampAxis(v, half, size float32) float32 {
	if 2*half >= size {
		return size / 2
	}
	return min(max(v, half), size-half)
}

func absf(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
