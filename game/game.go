// Package game wires the demo together: the ECS world, spawn and movement,
// per-frame clustering with stable identities, slot assignment, the pixel
// pipeline, and telemetry around every phase.
package game

import (
	"fmt"
	"image/color"
	"log/slog"
	"math/rand"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/mlange-42/ark/ecs"

	"github.com/ahammer/metalrain/camera"
	"github.com/ahammer/metalrain/components"
	"github.com/ahammer/metalrain/config"
	"github.com/ahammer/metalrain/renderer"
	"github.com/ahammer/metalrain/systems"
	"github.com/ahammer/metalrain/telemetry"
	"github.com/ahammer/metalrain/ui"
)

// Options holds startup settings from the CLI.
type Options struct {
	Seed           int64
	Headless       bool
	LogStats       bool
	StatsWindowSec float64 // 0 = use config
	OutputDir      string
	StepsPerUpdate int
	Width          int // viewport override, 0 = use config
	Height         int

	// StatsCallback, when set, receives every flushed stats window.
	StatsCallback func(telemetry.WindowStats)
}

// Game holds the complete demo state.
type Game struct {
	world ecs.World
	rng   *rand.Rand

	snapFilter ecs.Filter5[
		components.Position, components.Body, components.Paint,
		components.Shape, components.ClusterTag,
	]
	tagMap ecs.Map1[components.ClusterTag]

	spawn    *systems.SpawnSystem
	movement *systems.MovementSystem
	grid     *systems.ClusterGrid

	// Per-frame buffers, reused across ticks
	snapshot []systems.BallSnap
	entities []ecs.Entity
	clusters []systems.Cluster
	slotIDs  []uint16

	slots     *renderer.SlotAllocator
	metaballs *renderer.Metaballs
	camera    *camera.Camera
	hud       *ui.HUD

	collector     *telemetry.Collector
	perfCollector *telemetry.PerfCollector
	outputManager *telemetry.OutputManager
	statsCallback func(telemetry.WindowStats)

	nextIdentity uint32

	tick     int32
	paused   bool
	stepOnce bool
	debug    bool

	dt             float64
	logStats       bool
	headless       bool
	stepsPerUpdate int

	screenWidth, screenHeight float32
	worldWidth, worldHeight   float32
}

// NewGame creates a game instance. Safe to call before the raylib window
// exists; GPU resources are created lazily on the first Draw.
func NewGame(opts Options) (*Game, error) {
	cfg := config.Cfg()

	sw := cfg.Derived.ScreenW32
	sh := cfg.Derived.ScreenH32
	if opts.Width > 0 {
		sw = float32(opts.Width)
	}
	if opts.Height > 0 {
		sh = float32(opts.Height)
	}
	ww := cfg.Derived.WorldW32
	wh := cfg.Derived.WorldH32
	if cfg.World.Width == 0 {
		ww = sw
	}
	if cfg.World.Height == 0 {
		wh = sh
	}

	statsWindow := opts.StatsWindowSec
	if statsWindow <= 0 {
		statsWindow = cfg.Telemetry.StatsWindow
	}
	steps := opts.StepsPerUpdate
	if steps < 1 {
		steps = 1
	}

	g := &Game{
		rng:            rand.New(rand.NewSource(opts.Seed)),
		nextIdentity:   1,
		dt:             cfg.Physics.DT,
		logStats:       opts.LogStats,
		headless:       opts.Headless,
		stepsPerUpdate: steps,
		statsCallback:  opts.StatsCallback,
		screenWidth:    sw,
		screenHeight:   sh,
		worldWidth:     ww,
		worldHeight:    wh,
	}

	g.world = *ecs.NewWorld()
	g.snapFilter = *ecs.NewFilter5[
		components.Position, components.Body, components.Paint,
		components.Shape, components.ClusterTag,
	](&g.world)
	g.tagMap = *ecs.NewMap1[components.ClusterTag](&g.world)

	bounds := systems.Bounds{Width: ww, Height: wh}
	g.spawn = systems.NewSpawnSystem(&g.world, bounds, g.rng)
	g.movement = systems.NewMovementSystem(&g.world, bounds)
	g.grid = systems.NewClusterGrid()

	pal, err := renderer.NewPalette(cfg.Palette.BaseColors, cfg.Palette.Variation)
	if err != nil {
		return nil, fmt.Errorf("building palette: %w", err)
	}
	g.slots = renderer.NewSlotAllocator(cfg.Palette.Capacity, cfg.Palette.GraceFrames, pal)

	var atlas *renderer.ShapeAtlas
	if cfg.Shapes.MetaPath != "" && cfg.Shapes.ImagePath != "" {
		atlas, err = renderer.LoadShapeAtlas(cfg.Shapes.MetaPath, cfg.Shapes.ImagePath)
		if err != nil {
			slog.Warn("shape atlas unavailable, rendering circles", "error", err)
			atlas = nil
		}
	}
	g.spawn.SetShapeCount(atlas.NumShapes())

	bg := renderer.NewBackground(int(sw), int(sh), renderer.BgMode(cfg.Metaballs.BgMode), opts.Seed)
	g.metaballs = renderer.NewMetaballs(int(sw), int(sh), atlas, bg)
	g.camera = camera.New(sw, sh, ww, wh)
	g.hud = ui.NewHUD()

	g.collector = telemetry.NewCollector(statsWindow, cfg.Derived.DT32)
	g.perfCollector = telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow)

	g.outputManager, err = telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("opening output directory: %w", err)
	}
	if err := g.outputManager.WriteConfig(cfg); err != nil {
		slog.Error("failed to snapshot config", "error", err)
	}

	return g, nil
}

// Update advances the windowed game: input first, then zero or more ticks.
func (g *Game) Update() {
	g.handleInput()

	if g.paused && !g.stepOnce {
		return
	}

	steps := g.stepsPerUpdate
	if g.stepOnce {
		steps = 1
		g.stepOnce = false
	}

	for i := 0; i < steps; i++ {
		g.step()
	}
}

// UpdateHeadless advances one batch of ticks without touching input or the
// window.
func (g *Game) UpdateHeadless() {
	for i := 0; i < g.stepsPerUpdate; i++ {
		g.step()
	}
}

// step runs a single tick of the pipeline.
func (g *Game) step() {
	pc := g.perfCollector
	pc.StartTick()

	pc.StartPhase(telemetry.PhaseSpawn)
	spawned, recycled := g.spawn.Update(&g.world, int64(g.tick))
	g.collector.RecordSpawns(spawned)
	g.collector.RecordRecycles(recycled)

	pc.StartPhase(telemetry.PhaseMovement)
	g.movement.Update(&g.world)

	pc.StartPhase(telemetry.PhaseSnapshot)
	g.buildSnapshot()

	pc.StartPhase(telemetry.PhaseSpatialGrid)
	buffer := systems.EffectiveBuffer()
	g.grid.Rebuild(g.snapshot, g.worldWidth, g.worldHeight, buffer)

	pc.StartPhase(telemetry.PhaseClustering)
	g.clusters = systems.BuildClusters(g.snapshot, g.grid, buffer)

	pc.StartPhase(telemetry.PhaseIdentity)
	before := g.nextIdentity
	systems.ResolveIdentities(g.clusters, g.snapshot, &g.nextIdentity)
	g.collector.RecordFreshIdentities(int(g.nextIdentity - before))
	g.writeTagsBack()

	pc.StartPhase(telemetry.PhaseSlots)
	g.slotIDs = g.slots.AssignInto(g.slotIDs[:0], g.clusters)
	colors := g.slots.Colors()

	pc.StartPhase(telemetry.PhaseRender)
	g.metaballs.Background().Update(g.dt)
	ox, oy := g.camera.Origin()
	g.metaballs.Render(g.snapshot, g.clusters, g.slotIDs, colors, ox, oy, g.camera.Zoom)

	pc.StartPhase(telemetry.PhaseTelemetry)
	g.tick++
	g.flushTelemetry()

	pc.EndTick()
}

// buildSnapshot flattens live balls into the frame snapshot the clustering
// engine consumes, remembering each row's entity for the tag write-back.
func (g *Game) buildSnapshot() {
	g.snapshot = g.snapshot[:0]
	g.entities = g.entities[:0]

	query := g.snapFilter.Query()
	for query.Next() {
		pos, body, paint, shape, tag := query.Get()
		g.snapshot = append(g.snapshot, systems.BallSnap{
			X:       pos.X,
			Y:       pos.Y,
			Radius:  body.Radius,
			Color:   paint.ColorIndex,
			Shape:   shape.Index,
			PrevTag: tag.ID,
		})
		g.entities = append(g.entities, query.Entity())
	}
}

// writeTagsBack stores each cluster's resolved identity on its members, so
// next frame's snapshot carries it as PrevTag.
func (g *Game) writeTagsBack() {
	for ci := range g.clusters {
		cl := &g.clusters[ci]
		for _, m := range cl.Members {
			g.tagMap.Get(g.entities[m]).ID = cl.Identity
		}
	}
}

// Draw presents the last rendered frame with the HUD on top.
func (g *Game) Draw() {
	g.perfCollector.RecordFrame()

	rl.BeginDrawing()
	rl.ClearBackground(rl.Black)

	g.metaballs.Draw()

	g.hud.Draw(ui.HUDData{
		Title:      "Metal Rain",
		Tick:       g.tick,
		Balls:      g.spawn.Count(),
		Clusters:   len(g.clusters),
		SlotsInUse: g.slots.InUse(),
		Iso:        g.metaballs.Iso(),
		FgMode:     g.metaballs.Mode().String(),
		BgMode:     g.metaballs.Background().Mode().String(),
		FPS:        rl.GetFPS(),
		Speed:      g.stepsPerUpdate,
		Paused:     g.paused,
	})
	if g.debug {
		g.hud.DrawPerf(g.perfCollector.Stats(), int32(g.screenWidth))
	}
	g.hud.DrawControls(int32(g.screenWidth), int32(g.screenHeight),
		"SPACE: Pause | N: Step | < >: Speed | [ ]: Iso | TAB: Shade | B: Background | D: Perf | Arrows: Pan | +/-: Zoom | HOME: Reset")

	rl.EndDrawing()
}

// Unload stops the shading workers and releases GPU and file resources.
func (g *Game) Unload() {
	g.metaballs.Unload()
	if err := g.outputManager.Close(); err != nil {
		slog.Error("failed to close output files", "error", err)
	}
}

// Tick returns the current simulation tick.
func (g *Game) Tick() int32 { return g.tick }

// BallCount returns the live ball population.
func (g *Game) BallCount() int { return g.spawn.Count() }

// ClusterCount returns the cluster count of the last tick.
func (g *Game) ClusterCount() int { return len(g.clusters) }

// Pixels returns the shaded buffer of the last tick, row-major.
func (g *Game) Pixels() []color.RGBA { return g.metaballs.Pixels() }
