package renderer

import (
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
)

// ShapeAtlas holds a pre-rasterized grayscale distance field for non-circle
// ball silhouettes. Texel value 0.5 sits on the shape edge, larger is inside.
// Shape index 0 is reserved for the analytic circle and never looked up.
type ShapeAtlas struct {
	tileSize      int
	width, height int
	feather       float32
	pix           []uint8
	shapes        []shapeEntry
}

type shapeEntry struct {
	u0, v0, u1, v1 float32
	pivotX, pivotY float32
	valid          bool
}

type atlasMetaJSON struct {
	Version       int             `json:"version"`
	TileSize      int             `json:"tile_size"`
	AtlasWidth    int             `json:"atlas_width"`
	AtlasHeight   int             `json:"atlas_height"`
	DistanceRange float64         `json:"distance_range"`
	Shapes        []shapeMetaJSON `json:"shapes"`
}

type shapeMetaJSON struct {
	Name  string `json:"name"`
	Index int    `json:"index"`
	Px    struct {
		X, Y, W, H int
	} `json:"px"`
	UV struct {
		U0 float64 `json:"u0"`
		V0 float64 `json:"v0"`
		U1 float64 `json:"u1"`
		V1 float64 `json:"v1"`
	} `json:"uv"`
	Pivot *struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	} `json:"pivot"`
}

// LoadShapeAtlas reads the atlas metadata JSON and its distance field PNG.
// Schema oddities (index collisions, over-capacity) degrade to warnings; a
// malformed file is an error and the caller runs without shaped balls.
func LoadShapeAtlas(metaPath, imagePath string) (*ShapeAtlas, error) {
	raw, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, fmt.Errorf("reading atlas metadata: %w", err)
	}
	var meta atlasMetaJSON
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("parsing atlas metadata: %w", err)
	}
	if meta.Version != 1 {
		return nil, fmt.Errorf("unsupported atlas version %d, expected 1", meta.Version)
	}
	if meta.TileSize <= 0 {
		return nil, fmt.Errorf("atlas tile_size must be positive, got %d", meta.TileSize)
	}
	if meta.AtlasWidth%meta.TileSize != 0 || meta.AtlasHeight%meta.TileSize != 0 {
		slog.Warn("atlas dimensions are not multiples of tile_size",
			"width", meta.AtlasWidth, "height", meta.AtlasHeight, "tile_size", meta.TileSize)
	}
	capacity := (meta.AtlasWidth / meta.TileSize) * (meta.AtlasHeight / meta.TileSize)
	if len(meta.Shapes) > capacity {
		slog.Warn("atlas shape count exceeds tile capacity",
			"shapes", len(meta.Shapes), "capacity", capacity)
	}

	pix, w, h, err := loadGrayPNG(imagePath)
	if err != nil {
		return nil, err
	}
	if w != meta.AtlasWidth || h != meta.AtlasHeight {
		return nil, fmt.Errorf("atlas image is %dx%d but metadata says %dx%d",
			w, h, meta.AtlasWidth, meta.AtlasHeight)
	}
	if w < 2 || h < 2 {
		return nil, fmt.Errorf("atlas image too small: %dx%d", w, h)
	}

	distRange := meta.DistanceRange
	if distRange <= 0 {
		distRange = float64(meta.TileSize) * 0.125
	}
	feather := clampf(float32(distRange)/float32(meta.TileSize), 0, 0.5)

	maxIndex := 0
	for i := range meta.Shapes {
		if meta.Shapes[i].Index > maxIndex {
			maxIndex = meta.Shapes[i].Index
		}
	}
	a := &ShapeAtlas{
		tileSize: meta.TileSize,
		width:    w,
		height:   h,
		feather:  feather,
		pix:      pix,
		shapes:   make([]shapeEntry, maxIndex+1),
	}
	for i := range meta.Shapes {
		s := &meta.Shapes[i]
		if s.Index == 0 {
			slog.Warn("atlas shape claims reserved index 0, skipping", "name", s.Name)
			continue
		}
		if a.shapes[s.Index].valid {
			slog.Warn("atlas shape index collision, keeping first", "index", s.Index, "name", s.Name)
			continue
		}
		px, py := 0.5, 0.5
		if s.Pivot != nil {
			px, py = s.Pivot.X, s.Pivot.Y
		}
		a.shapes[s.Index] = shapeEntry{
			u0: float32(s.UV.U0), v0: float32(s.UV.V0),
			u1: float32(s.UV.U1), v1: float32(s.UV.V1),
			pivotX: float32(px), pivotY: float32(py),
			valid: true,
		}
	}
	return a, nil
}

// NumShapes returns the size of the index space including the reserved
// circle at 0.
func (a *ShapeAtlas) NumShapes() int {
	if a == nil {
		return 1
	}
	return len(a.shapes)
}

// Feather returns the normalized edge half-width used for masking.
func (a *ShapeAtlas) Feather() float32 { return a.feather }

// Mask returns the silhouette coverage for a shape at ball-local coordinates
// (nx, ny) in [-1, 1], where the ball's field radius maps to 1. Unknown
// indices return full coverage so a stale shape renders as a circle rather
// than vanishing.
func (a *ShapeAtlas) Mask(shape uint16, nx, ny float32) float32 {
	if int(shape) >= len(a.shapes) || !a.shapes[shape].valid {
		return 1
	}
	s := &a.shapes[shape]
	lu := s.pivotX + nx*0.5
	lv := s.pivotY + ny*0.5
	if lu < 0 || lu > 1 || lv < 0 || lv > 1 {
		return 0
	}
	u := s.u0 + (s.u1-s.u0)*lu
	v := s.v0 + (s.v1-s.v0)*lv
	d := a.sample(u, v)
	return smoothstep(0.5-a.feather, 0.5+a.feather, d)
}

// sample bilinearly reads the distance field at atlas UV, texel-center
// convention.
func (a *ShapeAtlas) sample(u, v float32) float32 {
	fx := u*float32(a.width) - 0.5
	fy := v*float32(a.height) - 0.5
	x0 := int(fx)
	y0 := int(fy)
	if fx < 0 {
		x0 = 0
		fx = 0
	}
	if fy < 0 {
		y0 = 0
		fy = 0
	}
	if x0 > a.width-2 {
		x0 = a.width - 2
	}
	if y0 > a.height-2 {
		y0 = a.height - 2
	}
	tx := fx - float32(x0)
	ty := fy - float32(y0)
	if tx > 1 {
		tx = 1
	}
	if ty > 1 {
		ty = 1
	}

	i := y0*a.width + x0
	p00 := float32(a.pix[i])
	p10 := float32(a.pix[i+1])
	p01 := float32(a.pix[i+a.width])
	p11 := float32(a.pix[i+a.width+1])
	top := p00 + (p10-p00)*tx
	bot := p01 + (p11-p01)*tx
	return (top + (bot-top)*ty) / 255
}

// loadGrayPNG decodes a PNG into a flat grayscale byte grid.
func loadGrayPNG(path string) ([]uint8, int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("opening atlas image: %w", err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("decoding atlas image: %w", err)
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	if g, ok := img.(*image.Gray); ok && g.Stride == w {
		return g.Pix, w, h, nil
	}
	pix := make([]uint8, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, _, _, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			pix[y*w+x] = uint8(r >> 8)
		}
	}
	return pix, w, h, nil
}
