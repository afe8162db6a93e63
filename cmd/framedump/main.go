// Frame dump tool: runs the pipeline headless and writes the shaded pixel
// buffer to a PNG for inspection. No window or GPU is involved.
//
// Usage: go run ./cmd/framedump -ticks 600 -out frame.png
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"

	"github.com/ahammer/metalrain/config"
	"github.com/ahammer/metalrain/game"
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	outPath := flag.String("out", "frame.png", "Output PNG path")
	ticks := flag.Int("ticks", 600, "Ticks to simulate before dumping")
	width := flag.Int("width", 640, "Render width")
	height := flag.Int("height", 360, "Render height")
	seed := flag.Int64("seed", 42, "RNG seed")
	flag.Parse()

	if err := config.Init(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	g, err := game.NewGame(game.Options{
		Seed:     *seed,
		Headless: true,
		Width:    *width,
		Height:   *height,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start: %v\n", err)
		os.Exit(1)
	}
	defer g.Unload()

	for i := 0; i < *ticks; i++ {
		g.UpdateHeadless()
	}

	if err := writePNG(*outPath, g.Pixels(), *width, *height); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write image: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Frame written to: %s (%dx%d, tick %d, %d balls)\n",
		*outPath, *width, *height, g.Tick(), g.BallCount())
}

func writePNG(path string, pixels []color.RGBA, width, height int) error {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i, p := range pixels {
		img.Pix[i*4+0] = p.R
		img.Pix[i*4+1] = p.G
		img.Pix[i*4+2] = p.B
		img.Pix[i*4+3] = p.A
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return png.Encode(f, img)
}
