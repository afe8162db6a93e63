package systems

import (
	"math/rand"
	"testing"

	"github.com/mlange-42/ark/ecs"

	"github.com/ahammer/metalrain/components"
	"github.com/ahammer/metalrain/config"
)

func TestSpawnEmitsAndGrows(t *testing.T) {
	world := *ecs.NewWorld()
	rng := rand.New(rand.NewSource(42))
	sys := NewSpawnSystem(&world, Bounds{Width: 640, Height: 360}, rng)

	// One full spawn interval worth of ticks
	ticks := int(config.Cfg().Spawn.Interval/config.Cfg().Physics.DT) + 2
	for i := 0; i < ticks; i++ {
		sys.Update(&world, int64(i))
	}

	if sys.Count() == 0 {
		t.Fatal("expected balls after a spawn interval")
	}

	filter := ecs.NewFilter2[components.Body, components.Paint](&world)
	query := filter.Query()
	colors := config.Cfg().Spawn.Colors
	for query.Next() {
		body, paint := query.Get()
		if body.Radius <= 0 {
			t.Errorf("spawned ball has degenerate radius %f", body.Radius)
		}
		if int(paint.ColorIndex) >= colors {
			t.Errorf("color index %d out of configured range %d", paint.ColorIndex, colors)
		}
	}
}

func TestSpawnRecyclesOldestAboveCap(t *testing.T) {
	cfg := config.Cfg()
	origMax := cfg.Spawn.MaxBalls
	origInterval := cfg.Spawn.Interval
	cfg.Spawn.MaxBalls = 10
	cfg.Spawn.Interval = cfg.Physics.DT // a burst every tick
	defer func() {
		cfg.Spawn.MaxBalls = origMax
		cfg.Spawn.Interval = origInterval
	}()

	world := *ecs.NewWorld()
	rng := rand.New(rand.NewSource(7))
	sys := NewSpawnSystem(&world, Bounds{Width: 640, Height: 360}, rng)

	for i := 0; i < 120; i++ {
		sys.Update(&world, int64(i))
	}

	if got := sys.Count(); got > 10 {
		t.Errorf("population cap violated: %d balls", got)
	}

	// Survivors must be the youngest
	filter := ecs.NewFilter1[components.Ball](&world)
	query := filter.Query()
	n := 0
	for query.Next() {
		ball := query.Get()
		if ball.BornTick < 60 {
			t.Errorf("old ball (tick %d) survived recycling", ball.BornTick)
		}
		n++
	}
	if n > 10 {
		t.Errorf("world holds %d balls, cap is 10", n)
	}
}
