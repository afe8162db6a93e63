// Package ui draws the heads-up display and the debug timing panel.
package ui

import (
	"fmt"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/ahammer/metalrain/telemetry"
)

// Theme holds the colors and spacing shared by the HUD panels.
type Theme struct {
	PanelFill  rl.Color
	PanelEdge  rl.Color
	Dim        rl.Color
	Accent     rl.Color
	Pad        int32
	TextSize   int32
	HeaderSize int32
}

// DefaultTheme is the dark styling used by the debug overlay.
func DefaultTheme() Theme {
	return Theme{
		PanelFill:  rl.Color{R: 18, G: 24, B: 30, A: 240},
		PanelEdge:  rl.Color{R: 62, G: 72, B: 84, A: 255},
		Dim:        rl.LightGray,
		Accent:     rl.Yellow,
		Pad:        10,
		TextSize:   12,
		HeaderSize: 16,
	}
}

// HUDData holds everything the status block prints each frame.
type HUDData struct {
	Title      string
	Tick       int32
	Balls      int
	Clusters   int
	SlotsInUse int
	Iso        float32
	FgMode     string
	BgMode     string
	FPS        int32
	Speed      int
	Paused     bool
}

// HUD renders the status readout and the optional timing panel.
type HUD struct {
	theme Theme
}

// NewHUD returns a HUD with the default theme.
func NewHUD() *HUD {
	return &HUD{theme: DefaultTheme()}
}

// Draw paints the status block in the top-left corner.
func (h *HUD) Draw(data HUDData) {
	rl.DrawText(data.Title, 10, 10, 20, rl.White)

	y := int32(35)
	line := func(s string) {
		rl.DrawText(s, 10, y, 16, h.theme.Dim)
		y += 20
	}
	line(fmt.Sprintf("Balls: %d | Clusters: %d | Slots: %d",
		data.Balls, data.Clusters, data.SlotsInUse))
	line(fmt.Sprintf("Tick: %d | Speed: %dx | FPS: %d",
		data.Tick, data.Speed, data.FPS))
	line(fmt.Sprintf("Iso: %.2f | Shade: %s | Bg: %s",
		data.Iso, data.FgMode, data.BgMode))

	status := "Running"
	if data.Paused {
		status = "PAUSED"
	}
	rl.DrawText(status, 10, y, 16, h.theme.Accent)
}

// DrawControls prints the key legend along the bottom edge.
func (h *HUD) DrawControls(screenWidth, screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-25, 14, rl.Gray)
}

// DrawPerf renders the tick phase breakdown, anchored to the top right.
func (h *HUD) DrawPerf(stats telemetry.PerfStats, screenWidth int32) {
	const width = 260
	t := h.theme

	rows := int32(len(telemetry.PhaseOrder))
	height := t.Pad*2 + 20 + 16 + 20 + rows*14
	x := screenWidth - width - 10
	y := int32(10)
	h.drawPanel(x, y, width, height)

	x += t.Pad
	y += t.Pad
	rl.DrawText("Tick Breakdown", x, y, t.HeaderSize, rl.White)
	y += 20

	rl.DrawText(fmt.Sprintf("Tick: %s avg | %s p99",
		stats.AvgTickDuration.Round(time.Microsecond),
		stats.P99TickDuration.Round(time.Microsecond)),
		x, y, 14, t.Accent)
	y += 16

	rl.DrawText(fmt.Sprintf("%.0f ticks/s | %.0f fps", stats.TicksPerSecond, stats.FPS),
		x, y, 14, t.Accent)
	y += 20

	for _, phase := range telemetry.PhaseOrder {
		pct := stats.PhasePct[phase]
		row := fmt.Sprintf("%-12s %8s %5.1f%%",
			phase, stats.PhaseAvg[phase].Round(time.Microsecond), pct)
		rl.DrawText(row, x, y, t.TextSize, phaseColor(pct, t.Dim))
		y += 14
	}
}

func (h *HUD) drawPanel(x, y, w, height int32) {
	rl.DrawRectangle(x, y, w, height, h.theme.PanelFill)
	rl.DrawRectangleLines(x, y, w, height, h.theme.PanelEdge)
}

// phaseColor flags phases that eat a disproportionate share of the tick.
func phaseColor(pct float64, normal rl.Color) rl.Color {
	switch {
	case pct > 20:
		return rl.Red
	case pct > 10:
		return rl.Orange
	default:
		return normal
	}
}
