package camera

import (
	"math"
	"testing"
)

// wideCam is the standard fixture: a 1280x720 viewport over a world twice
// that size, so zoom 1 shows the middle quarter.
func wideCam() *Camera {
	return New(1280, 720, 2560, 1440)
}

func near(a, b float32) bool {
	return math.Abs(float64(a-b)) < 0.01
}

func TestNewStartsAtWorldCenter(t *testing.T) {
	cam := wideCam()
	if cam.X != 1280 || cam.Y != 720 {
		t.Fatalf("center = (%v, %v), want world center (1280, 720)", cam.X, cam.Y)
	}
	if cam.Zoom != 1 {
		t.Fatalf("zoom = %v, want 1", cam.Zoom)
	}
}

func TestNewRaisesZoomForSmallWorld(t *testing.T) {
	// A world half the viewport size cannot fill the screen at 1:1, so the
	// constructor starts at the fitting zoom.
	cam := New(1280, 720, 640, 360)
	if cam.Zoom != 2 {
		t.Fatalf("zoom = %v, want 2", cam.Zoom)
	}
	if cam.X != 320 || cam.Y != 180 {
		t.Fatalf("center = (%v, %v), want (320, 180)", cam.X, cam.Y)
	}
}

func TestWorldToScreenCentered(t *testing.T) {
	cam := wideCam()
	sx, sy := cam.WorldToScreen(cam.X, cam.Y)
	if !near(sx, 640) || !near(sy, 360) {
		t.Fatalf("world center lands at (%v, %v), want (640, 360)", sx, sy)
	}
}

func TestScreenToWorldRoundtrip(t *testing.T) {
	cam := wideCam()
	cam.Pan(300, -120)
	cam.SetZoom(1.6)

	for _, p := range [][2]float32{{640, 360}, {0, 0}, {37, 689}, {1279, 1}} {
		wx, wy := cam.ScreenToWorld(p[0], p[1])
		sx, sy := cam.WorldToScreen(wx, wy)
		if !near(sx, p[0]) || !near(sy, p[1]) {
			t.Errorf("screen (%v, %v) came back as (%v, %v)", p[0], p[1], sx, sy)
		}
	}
}

func TestOriginIsScreenTopLeft(t *testing.T) {
	cam := wideCam()
	cam.Pan(137, -59)
	cam.SetZoom(1.7)

	ox, oy := cam.Origin()
	if sx, sy := cam.WorldToScreen(ox, oy); !near(sx, 0) || !near(sy, 0) {
		t.Fatalf("origin maps to (%v, %v), want (0, 0)", sx, sy)
	}
	if wx, wy := cam.ScreenToWorld(0, 0); !near(wx, ox) || !near(wy, oy) {
		t.Fatalf("ScreenToWorld(0,0) = (%v, %v), want origin (%v, %v)", wx, wy, ox, oy)
	}
}

func TestPanClampsAtEdges(t *testing.T) {
	cam := wideCam()

	// At zoom 1 half the viewport is 640x360, so the center may roam
	// [640, 1920] x [360, 1080].
	cam.Pan(-1e9, -1e9)
	if cam.X != 640 || cam.Y != 360 {
		t.Fatalf("after panning top-left: center (%v, %v), want (640, 360)", cam.X, cam.Y)
	}
	cam.Pan(1e9, 1e9)
	if cam.X != 1920 || cam.Y != 1080 {
		t.Fatalf("after panning bottom-right: center (%v, %v), want (1920, 1080)", cam.X, cam.Y)
	}
}

func TestZoomOutRecentersNearEdge(t *testing.T) {
	cam := wideCam()
	cam.Pan(1e9, 0)

	// At the fit zoom the whole world is on screen and only its center is a
	// legal camera position.
	cam.SetZoom(cam.MinZoom)
	if cam.X != 1280 {
		t.Fatalf("center X = %v, want 1280", cam.X)
	}
	if _, _, maxX, _ := cam.VisibleWorldBounds(); maxX > cam.WorldW+0.01 {
		t.Fatalf("view extends to %v, past the world edge %v", maxX, cam.WorldW)
	}
}

func TestZoomClamp(t *testing.T) {
	cam := wideCam()
	if cam.MinZoom != 0.5 {
		t.Fatalf("MinZoom = %v, want 0.5", cam.MinZoom)
	}

	cam.SetZoom(0.01)
	if cam.Zoom != cam.MinZoom {
		t.Fatalf("zoom = %v, want the floor %v", cam.Zoom, cam.MinZoom)
	}
	cam.SetZoom(100)
	if cam.Zoom != cam.MaxZoom {
		t.Fatalf("zoom = %v, want the ceiling %v", cam.Zoom, cam.MaxZoom)
	}
}

func TestMinZoomPreventsDeadSpace(t *testing.T) {
	// The world is wide and short relative to an 800x600 viewport, so the
	// vertical ratio 600/800 wins over the horizontal 800/1600.
	cam := New(800, 600, 1600, 800)
	if !near(cam.MinZoom, 0.75) {
		t.Fatalf("MinZoom = %v, want 0.75", cam.MinZoom)
	}

	cam.SetZoom(cam.MinZoom)
	if visibleH := cam.ViewportH / cam.Zoom; !near(visibleH, cam.WorldH) {
		t.Fatalf("visible height %v at min zoom, want the world height %v", visibleH, cam.WorldH)
	}
}

func TestIsVisible(t *testing.T) {
	cam := wideCam()

	// Zoom 1 shows [640, 1920] x [360, 1080] around the default center.
	cases := []struct {
		x, y, r float32
		want    bool
	}{
		{1280, 720, 10, true},   // dead center
		{2400, 1300, 10, false}, // well outside
		{600, 720, 100, true},   // center offscreen but the circle reaches in
	}
	for _, tc := range cases {
		if got := cam.IsVisible(tc.x, tc.y, tc.r); got != tc.want {
			t.Errorf("IsVisible(%v, %v, r=%v) = %v, want %v", tc.x, tc.y, tc.r, got, tc.want)
		}
	}
}

func TestResizeReclamps(t *testing.T) {
	cam := wideCam()
	cam.Pan(1e9, 1e9)

	// Doubling the viewport width makes the whole world width visible, so X
	// snaps back to the world center while Y keeps its clamped value.
	cam.Resize(2560, 720)
	if cam.X != 1280 {
		t.Fatalf("center X = %v, want 1280", cam.X)
	}
	if cam.Y != 1080 {
		t.Fatalf("center Y = %v, want 1080", cam.Y)
	}
}

func TestReset(t *testing.T) {
	cam := wideCam()
	cam.Pan(400, 250)
	cam.SetZoom(2.5)

	cam.Reset()
	if cam.X != 1280 || cam.Y != 720 {
		t.Fatalf("center = (%v, %v), want (1280, 720)", cam.X, cam.Y)
	}
	if cam.Zoom != 1 {
		t.Fatalf("zoom = %v, want 1", cam.Zoom)
	}
}
