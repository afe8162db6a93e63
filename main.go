package main

import (
	"flag"
	"log/slog"
	"os"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/ahammer/metalrain/config"
	"github.com/ahammer/metalrain/game"
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = built-in defaults)")
	headless := flag.Bool("headless", false, "Run the pipeline without opening a window")
	logStats := flag.Bool("log-stats", false, "Log window stats through slog")
	statsWindow := flag.Float64("stats-window", 0, "Override the stats window length in seconds")
	outputDir := flag.String("output-dir", "", "Directory for CSV logs and the config snapshot")
	seed := flag.Int64("seed", 0, "RNG seed (0 picks one from the clock)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after this many ticks (0 = run forever)")
	stepsPerUpdate := flag.Int("steps-per-update", 1, "Ticks per update call")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	opts := game.Options{
		Seed:           *seed,
		Headless:       *headless,
		LogStats:       *logStats,
		StatsWindowSec: *statsWindow,
		OutputDir:      *outputDir,
		StepsPerUpdate: *stepsPerUpdate,
	}
	if opts.Seed == 0 {
		opts.Seed = time.Now().UnixNano()
	}

	if *headless {
		runHeadless(opts, *maxTicks)
		return
	}
	runWindowed(opts, *maxTicks)
}

// runHeadless drives the full pipeline into the CPU pixel buffer, no window
// or GPU needed.
func runHeadless(opts game.Options, maxTicks int) {
	g := mustStart(opts)
	defer g.Unload()

	slog.Info("starting headless run",
		"seed", opts.Seed,
		"stats_window", opts.StatsWindowSec,
		"max_ticks", maxTicks,
		"steps_per_update", opts.StepsPerUpdate,
	)

	for {
		g.UpdateHeadless()
		if maxTicks > 0 && int(g.Tick()) >= maxTicks {
			slog.Info("max ticks reached", "tick", g.Tick())
			return
		}
	}
}

func runWindowed(opts game.Options, maxTicks int) {
	cfg := config.Cfg()
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Metal Rain")
	defer rl.CloseWindow()
	rl.SetWindowState(rl.FlagWindowResizable)
	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	g := mustStart(opts)
	defer g.Unload()

	for !rl.WindowShouldClose() {
		g.Update()
		g.Draw()
		if maxTicks > 0 && int(g.Tick()) >= maxTicks {
			return
		}
	}
}

func mustStart(opts game.Options) *game.Game {
	g, err := game.NewGame(opts)
	if err != nil {
		slog.Error("failed to start", "error", err)
		os.Exit(1)
	}
	return g
}
