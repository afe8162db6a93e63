package game

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ahammer/metalrain/config"
)

func init() {
	// Initialize config for tests
	config.MustInit("")
}

func newHeadlessGame(t *testing.T, opts Options) *Game {
	t.Helper()
	opts.Headless = true
	if opts.Width == 0 {
		opts.Width = 192
	}
	if opts.Height == 0 {
		opts.Height = 108
	}
	g, err := NewGame(opts)
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	t.Cleanup(g.Unload)
	return g
}

func runTicks(g *Game, n int) {
	for i := 0; i < n; i++ {
		g.UpdateHeadless()
	}
}

func TestHeadlessRunSpawnsAndAdvances(t *testing.T) {
	g := newHeadlessGame(t, Options{Seed: 1})

	runTicks(g, 60)

	if g.Tick() != 60 {
		t.Fatalf("tick = %d, want 60", g.Tick())
	}
	if g.BallCount() == 0 {
		t.Fatal("no balls spawned after 60 ticks")
	}
	if len(g.snapshot) != g.BallCount() {
		t.Fatalf("snapshot has %d rows, spawn system reports %d balls", len(g.snapshot), g.BallCount())
	}
	for i, b := range g.snapshot {
		if b.Radius <= 0 {
			t.Fatalf("ball %d has radius %v", i, b.Radius)
		}
	}
}

func TestViewportOverride(t *testing.T) {
	g := newHeadlessGame(t, Options{Seed: 1, Width: 160, Height: 96})

	if w, h := g.metaballs.Width(), g.metaballs.Height(); w != 160 || h != 96 {
		t.Fatalf("pipeline viewport = %dx%d, want 160x96", w, h)
	}
}

func TestClustersPartitionSnapshot(t *testing.T) {
	g := newHeadlessGame(t, Options{Seed: 2})

	runTicks(g, 120)

	seen := make([]bool, len(g.snapshot))
	total := 0
	for ci := range g.clusters {
		cl := &g.clusters[ci]
		if cl.Identity == 0 {
			t.Fatalf("cluster %d has zero identity", ci)
		}
		if ci > 0 && g.clusters[ci-1].Identity >= cl.Identity {
			t.Fatalf("cluster identities not ascending at %d: %d then %d",
				ci, g.clusters[ci-1].Identity, cl.Identity)
		}
		for _, m := range cl.Members {
			if int(m) >= len(g.snapshot) {
				t.Fatalf("cluster %d references ball %d, snapshot has %d", ci, m, len(g.snapshot))
			}
			if seen[m] {
				t.Fatalf("ball %d assigned to more than one cluster", m)
			}
			seen[m] = true
			total++
		}
	}
	if total != len(g.snapshot) {
		t.Fatalf("clusters cover %d balls, snapshot has %d", total, len(g.snapshot))
	}

	if len(g.slotIDs) != len(g.clusters) {
		t.Fatalf("%d slot assignments for %d clusters", len(g.slotIDs), len(g.clusters))
	}
}

func TestIdentitiesWrittenBackToTags(t *testing.T) {
	g := newHeadlessGame(t, Options{Seed: 3})

	runTicks(g, 45)

	for ci := range g.clusters {
		cl := &g.clusters[ci]
		for _, m := range cl.Members {
			tag := g.tagMap.Get(g.entities[m])
			if tag.ID != cl.Identity {
				t.Fatalf("ball %d carries tag %d, cluster %d resolved identity %d",
					m, tag.ID, ci, cl.Identity)
			}
		}
	}
}

func TestSameSeedSamePixels(t *testing.T) {
	a := newHeadlessGame(t, Options{Seed: 7})
	b := newHeadlessGame(t, Options{Seed: 7})

	runTicks(a, 90)
	runTicks(b, 90)

	if a.BallCount() != b.BallCount() {
		t.Fatalf("ball counts diverged: %d vs %d", a.BallCount(), b.BallCount())
	}

	pa, pb := a.Pixels(), b.Pixels()
	if len(pa) != len(pb) {
		t.Fatalf("pixel buffer sizes diverged: %d vs %d", len(pa), len(pb))
	}
	for i := range pa {
		if pa[i] != pb[i] {
			t.Fatalf("pixel %d diverged: %v vs %v", i, pa[i], pb[i])
		}
	}
}

func TestDifferentSeedsDiverge(t *testing.T) {
	a := newHeadlessGame(t, Options{Seed: 7})
	b := newHeadlessGame(t, Options{Seed: 8})

	runTicks(a, 90)
	runTicks(b, 90)

	pa, pb := a.Pixels(), b.Pixels()
	for i := range pa {
		if pa[i] != pb[i] {
			return
		}
	}
	t.Fatal("different seeds rendered identical frames")
}

func TestStepsPerUpdateBatchesTicks(t *testing.T) {
	g := newHeadlessGame(t, Options{Seed: 1, StepsPerUpdate: 4})

	runTicks(g, 5)

	if g.Tick() != 20 {
		t.Fatalf("tick = %d after 5 batched updates of 4, want 20", g.Tick())
	}
}

func TestTelemetryOutputFiles(t *testing.T) {
	dir := t.TempDir()
	g := newHeadlessGame(t, Options{Seed: 4, StatsWindowSec: 0.05, OutputDir: dir})

	runTicks(g, 30)
	g.Unload()

	for _, name := range []string{"config.yaml", "telemetry.csv", "perf.csv"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("expected %s in output dir: %v", name, err)
		}
	}

	raw, err := os.ReadFile(filepath.Join(dir, "telemetry.csv"))
	if err != nil {
		t.Fatalf("reading telemetry.csv: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	if len(lines) < 2 {
		t.Fatalf("telemetry.csv has %d lines, want header plus data", len(lines))
	}
	if !strings.Contains(lines[0], "window_end") || !strings.Contains(lines[0], "balls") {
		t.Fatalf("telemetry.csv header missing expected columns: %q", lines[0])
	}
}
