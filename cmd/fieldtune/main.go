// Field tuning tool: drives the full record/tile/shade pipeline on a small
// synthetic scene with sliders for the surface parameters.
//
// Usage: go run ./cmd/fieldtune
package main

import (
	"fmt"
	"math"
	"strings"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/ahammer/metalrain/config"
	"github.com/ahammer/metalrain/renderer"
	"github.com/ahammer/metalrain/systems"
)

const (
	windowWidth  = 1000
	windowHeight = 720
	previewSize  = 512
	panelWidth   = windowWidth - previewSize - 30
)

// FieldParams holds the tunable surface parameters.
type FieldParams struct {
	Iso        float32
	Buffer     float32
	NormalZ    float32
	RadiusMult float32
}

func defaultParams() FieldParams {
	cfg := config.Cfg()
	return FieldParams{
		Iso:        float32(cfg.Metaballs.Iso),
		Buffer:     float32(cfg.Clustering.DistanceBuffer),
		NormalZ:    float32(cfg.Metaballs.NormalZScale),
		RadiusMult: float32(cfg.Metaballs.RadiusMultiplier),
	}
}

func main() {
	config.MustInit("")
	cfg := config.Cfg()

	rl.InitWindow(windowWidth, windowHeight, "Field Tune")
	defer rl.CloseWindow()
	rl.SetTargetFPS(60)

	pal, err := renderer.NewPalette(cfg.Palette.BaseColors, cfg.Palette.Variation)
	if err != nil {
		panic(err)
	}
	slots := renderer.NewSlotAllocator(cfg.Palette.Capacity, cfg.Palette.GraceFrames, pal)

	bg := renderer.NewBackground(previewSize, previewSize, renderer.BgSolidGray, 1)
	m := renderer.NewMetaballs(previewSize, previewSize, nil, bg)
	defer m.Unload()

	balls := makeScene()
	grid := systems.NewClusterGrid()
	var slotIDs []uint16
	nextIdentity := uint32(1)

	params := defaultParams()
	var t float32
	animating := true

	for !rl.WindowShouldClose() {
		if animating {
			t += rl.GetFrameTime()
		}
		moveScene(balls, t)

		m.SetIso(params.Iso)
		m.SetNormalZScale(params.NormalZ)
		m.SetRadiusMultiplier(params.RadiusMult)

		grid.Rebuild(balls, previewSize, previewSize, params.Buffer)
		clusters := systems.BuildClusters(balls, grid, params.Buffer)
		systems.ResolveIdentities(clusters, balls, &nextIdentity)
		for ci := range clusters {
			for _, mi := range clusters[ci].Members {
				balls[mi].PrevTag = clusters[ci].Identity
			}
		}
		slotIDs = slots.AssignInto(slotIDs[:0], clusters)

		m.Render(balls, clusters, slotIDs, slots.Colors(), 0, 0, 1)

		rl.BeginDrawing()
		rl.ClearBackground(rl.RayWhite)

		m.Draw()
		rl.DrawRectangleLines(0, 0, previewSize, previewSize, rl.DarkGray)

		statsY := int32(previewSize + 25)
		rl.DrawText(
			fmt.Sprintf("Records: %d  Dropped: %d  Clusters: %d  Slots: %d",
				m.RecordCount(), m.DroppedRecords(), len(clusters), slots.InUse()),
			15, statsY, 16, rl.DarkGray,
		)
		rl.DrawText(fmt.Sprintf("Time: %.1f", t), 15, statsY+20, 16, rl.DarkGray)

		panelX := float32(previewSize + 20)
		panelY := float32(10)

		rl.DrawText("Surface Parameters", int32(panelX), int32(panelY), 20, rl.DarkGray)
		panelY += 35

		params.Iso = drawSlider(&panelX, &panelY, "Iso (surface threshold)", "0.1", "1.5", params.Iso, 0.1, 1.5, "%.2f")
		params.Buffer = drawSlider(&panelX, &panelY, "Buffer (merge reach multiplier)", "1.0", "3.0", params.Buffer, 1.0, 3.0, "%.2f")
		params.NormalZ = drawSlider(&panelX, &panelY, "Normal Z (bevel flatness)", "0.5", "8.0", params.NormalZ, 0.5, 8.0, "%.1f")
		params.RadiusMult = drawSlider(&panelX, &panelY, "Radius multiplier (field reach)", "1.1", "3.0", params.RadiusMult, 1.1, 3.0, "%.2f")

		rl.DrawLine(int32(panelX), int32(panelY), int32(panelX)+int32(panelWidth)-20, int32(panelY), rl.LightGray)
		panelY += 15

		buttonAt := func(col int, label string) bool {
			return gui.Button(rl.Rectangle{
				X: panelX + float32(col)*130, Y: panelY, Width: 120, Height: 30,
			}, label)
		}

		if buttonAt(0, fmt.Sprintf("Shade: %s", m.Mode())) {
			m.SetMode(m.Mode().Next())
		}
		if buttonAt(1, fmt.Sprintf("Bg: %s", bg.Mode())) {
			bg.SetMode(bg.Mode().Next())
		}
		panelY += 45

		animLabel := "Animate"
		if animating {
			animLabel = "Stop"
		}
		if buttonAt(0, animLabel) {
			animating = !animating
		}
		if buttonAt(1, "Reset All") {
			params = defaultParams()
			t = 0
		}
		panelY += 55

		rl.DrawText("YAML Config:", int32(panelX), int32(panelY), 16, rl.DarkGray)
		panelY += 25
		for _, line := range yamlLines(params) {
			rl.DrawText(line, int32(panelX), int32(panelY), 14, rl.Gray)
			panelY += 16
		}

		rl.DrawText("C copies this YAML to the clipboard", int32(panelX), int32(windowHeight-30), 12, rl.LightGray)
		if rl.IsKeyPressed(rl.KeyC) {
			rl.SetClipboardText(strings.Join(yamlLines(params), "\n") + "\n")
		}

		rl.EndDrawing()
	}
}

// drawSlider renders a labeled slider row and advances the panel cursor.
func drawSlider(panelX, panelY *float32, label, minText, maxText string, value, min, max float32, format string) float32 {
	rl.DrawText(label, int32(*panelX), int32(*panelY), 14, rl.Gray)
	*panelY += 18
	next := gui.SliderBar(
		rl.Rectangle{X: *panelX, Y: *panelY, Width: float32(panelWidth - 80), Height: 20},
		minText, maxText,
		value, min, max,
	)
	rl.DrawText(fmt.Sprintf(format, value), int32(*panelX+float32(panelWidth-70)), int32(*panelY+2), 16, rl.DarkGray)
	*panelY += 35
	return next
}

func yamlLines(params FieldParams) []string {
	return []string{
		"metaballs:",
		fmt.Sprintf("  iso: %.2f", params.Iso),
		fmt.Sprintf("  normal_z_scale: %.1f", params.NormalZ),
		fmt.Sprintf("  radius_multiplier: %.2f", params.RadiusMult),
		"clustering:",
		fmt.Sprintf("  distance_buffer: %.2f", params.Buffer),
	}
}

// makeScene builds three color families of orbiting balls sized for the
// preview viewport.
func makeScene() []systems.BallSnap {
	balls := make([]systems.BallSnap, 0, 9)
	for group := range 3 {
		for i := range 3 {
			balls = append(balls, systems.BallSnap{
				Radius: 26 + float32(i)*8,
				Color:  uint8(group),
			})
		}
	}
	return balls
}

// moveScene orbits each ball around its family anchor. Family orbits cross
// over time, so same-color balls repeatedly merge and split.
func moveScene(balls []systems.BallSnap, t float32) {
	anchors := [3][2]float32{
		{previewSize * 0.3, previewSize * 0.35},
		{previewSize * 0.7, previewSize * 0.4},
		{previewSize * 0.5, previewSize * 0.7},
	}
	for bi := range balls {
		group := bi / 3
		member := bi % 3
		phase := float64(t)*(0.4+0.15*float64(group)) + float64(member)*2.1
		orbit := float64(40 + member*34)
		balls[bi].X = anchors[group][0] + float32(math.Cos(phase)*orbit)
		balls[bi].Y = anchors[group][1] + float32(math.Sin(phase*1.3)*orbit)
	}
}
