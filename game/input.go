package game

import (
	rl "github.com/gen2brain/raylib-go/raylib"
)

// Iso tweak step and the range the UI keeps it inside. The renderer accepts
// any positive iso; this range is where the correction stays visually sane.
const (
	isoStep = 0.05
	isoMin  = 0.2
	isoMax  = 1.5
)

// Speed key bounds for stepsPerUpdate.
const (
	minSpeed = 1
	maxSpeed = 10
)

// handleInput applies one frame of keyboard and mouse state.
func (g *Game) handleInput() {
	g.handleResize()

	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}
	if rl.IsKeyPressed(rl.KeySpace) {
		g.paused = !g.paused
	}
	// Single tick, only meaningful while paused
	if rl.IsKeyPressed(rl.KeyN) && g.paused {
		g.stepOnce = true
	}

	// < and > change how many ticks run per drawn frame
	if rl.IsKeyPressed(rl.KeyComma) && g.stepsPerUpdate > minSpeed {
		g.stepsPerUpdate--
	}
	if rl.IsKeyPressed(rl.KeyPeriod) && g.stepsPerUpdate < maxSpeed {
		g.stepsPerUpdate++
	}

	if rl.IsKeyPressed(rl.KeyD) {
		g.debug = !g.debug
	}

	// Bracket keys nudge the surface threshold
	if rl.IsKeyPressed(rl.KeyLeftBracket) {
		g.metaballs.SetIso(clampIso(g.metaballs.Iso() - isoStep))
	}
	if rl.IsKeyPressed(rl.KeyRightBracket) {
		g.metaballs.SetIso(clampIso(g.metaballs.Iso() + isoStep))
	}

	if rl.IsKeyPressed(rl.KeyTab) {
		g.metaballs.SetMode(g.metaballs.Mode().Next())
	}
	if rl.IsKeyPressed(rl.KeyB) {
		bg := g.metaballs.Background()
		bg.SetMode(bg.Mode().Next())
	}

	g.handleCameraInput()
}

// handleResize propagates a window resize to the camera and the pixel
// pipeline.
func (g *Game) handleResize() {
	if !rl.IsWindowResized() {
		return
	}
	w, h := float32(rl.GetScreenWidth()), float32(rl.GetScreenHeight())
	if w == g.screenWidth && h == g.screenHeight {
		return
	}
	g.screenWidth, g.screenHeight = w, h
	g.camera.Resize(w, h)
	g.metaballs.Resize(int(w), int(h))
}

// handleCameraInput drives pan and zoom. Pan distance is in world units, so
// it shrinks as the camera zooms in.
func (g *Game) handleCameraInput() {
	step := 8.0 / g.camera.Zoom

	var dx, dy float32
	if rl.IsKeyDown(rl.KeyRight) {
		dx += step
	}
	if rl.IsKeyDown(rl.KeyLeft) {
		dx -= step
	}
	if rl.IsKeyDown(rl.KeyDown) {
		dy += step
	}
	if rl.IsKeyDown(rl.KeyUp) {
		dy -= step
	}
	if dx != 0 || dy != 0 {
		g.camera.Pan(dx, dy)
	}

	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		g.camera.ZoomBy(1 + wheel*0.1)
	}
	if rl.IsKeyPressed(rl.KeyEqual) || rl.IsKeyPressed(rl.KeyKpAdd) {
		g.camera.ZoomBy(1.25)
	}
	if rl.IsKeyPressed(rl.KeyMinus) || rl.IsKeyPressed(rl.KeyKpSubtract) {
		g.camera.ZoomBy(0.8)
	}
	if rl.IsKeyPressed(rl.KeyHome) {
		g.camera.Reset()
	}
}

func clampIso(v float32) float32 {
	if v < isoMin {
		return isoMin
	}
	if v > isoMax {
		return isoMax
	}
	return v
}
