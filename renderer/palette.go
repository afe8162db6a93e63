package renderer

import (
	"fmt"
	"image/color"
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Palette derives the actual drawn color for a cluster from its color family
// and stable identity. Sibling clusters of one family stay recognizably
// related while remaining distinguishable, which is what keeps cross-cluster
// boundaries readable after the allocator hands out slots.
type Palette struct {
	base      []colorful.Color
	variation float64
}

// NewPalette parses the configured base colors. variation spreads identity
// variants in hue and lightness; 0 disables the spread entirely.
func NewPalette(hexes []string, variation float64) (*Palette, error) {
	if len(hexes) == 0 {
		return nil, fmt.Errorf("palette: no base colors configured")
	}
	base := make([]colorful.Color, len(hexes))
	for i, h := range hexes {
		c, err := colorful.Hex(h)
		if err != nil {
			return nil, fmt.Errorf("palette: base color %d: %w", i, err)
		}
		base[i] = c
	}
	return &Palette{base: base, variation: variation}, nil
}

// NumBase returns the number of configured color families.
func (p *Palette) NumBase() int {
	return len(p.base)
}

// Base returns the family color itself, used for HUD swatches.
func (p *Palette) Base(colorIndex uint8) color.RGBA {
	c := p.base[int(colorIndex)%len(p.base)]
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// ColorFor returns the deterministic variant of the family color for the
// given cluster identity.
func (p *Palette) ColorFor(colorIndex uint8, identity uint32) color.RGBA {
	c := p.base[int(colorIndex)%len(p.base)]
	if p.variation > 0 {
		h, s, l := c.Hsl()
		h += (float64(hash01(identity))*2 - 1) * 360 * p.variation * 0.15
		if h < 0 {
			h += 360
		} else if h >= 360 {
			h -= 360
		}
		l += (float64(hash01(identity*0x9e3779b9))*2 - 1) * p.variation
		if l < 0.18 {
			l = 0.18
		} else if l > 0.82 {
			l = 0.82
		}
		c = colorful.Hsl(h, s, l).Clamped()
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// hash01 maps an identity to a stable value in [0, 1).
func hash01(x uint32) float32 {
	x ^= x >> 16
	x *= 0x7feb352d
	x ^= x >> 15
	x *= 0x846ca68b
	x ^= x >> 16
	return float32(x) / float32(math.MaxUint32)
}
