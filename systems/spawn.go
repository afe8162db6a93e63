package systems

import (
	"math/rand"

	"github.com/mlange-42/ark/ecs"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"

	"github.com/ahammer/metalrain/components"
	"github.com/ahammer/metalrain/config"
)

// spawnRadius is the radius a ball is born with before its grow-in tween
// takes over. Small but renderable, so new balls never register as
// degenerate geometry.
const spawnRadius = 0.5

// SpawnSystem rains balls in from above the top edge and recycles the oldest
// ones once the population cap is reached. Radius grow-in tweens live outside
// the ECS, keyed by entity, the same way other per-entity side state is kept.
type SpawnSystem struct {
	mapper ecs.Map7[
		components.Position, components.Velocity, components.Body,
		components.Paint, components.Shape, components.ClusterTag,
		components.Ball,
	]
	bodyMap ecs.Map1[components.Body]

	rng    *rand.Rand
	bounds Bounds

	dt       float32
	interval float32
	perBurst int
	maxBalls int

	timer  float32
	nextID uint32
	order  []ecs.Entity // spawn order, oldest first

	tweens map[ecs.Entity]*gween.Tween

	numShapes int // loaded atlas shapes; 0 keeps every spawn a circle
}

// NewSpawnSystem creates the emitter. rng is owned by the caller so runs stay
// reproducible under a fixed seed.
func NewSpawnSystem(w *ecs.World, bounds Bounds, rng *rand.Rand) *SpawnSystem {
	cfg := config.Cfg()
	return &SpawnSystem{
		mapper: *ecs.NewMap7[
			components.Position, components.Velocity, components.Body,
			components.Paint, components.Shape, components.ClusterTag,
			components.Ball,
		](w),
		bodyMap:  *ecs.NewMap1[components.Body](w),
		rng:      rng,
		bounds:   bounds,
		dt:       cfg.Derived.DT32,
		interval: float32(cfg.Spawn.Interval),
		perBurst: cfg.Spawn.PerBurst,
		maxBalls: cfg.Spawn.MaxBalls,
		timer:    0,
		nextID:   1,
		tweens:   make(map[ecs.Entity]*gween.Tween),
	}
}

// SetShapeCount tells the emitter how many atlas shapes exist. Indices
// 1..count-1 become eligible for spawns; index 0 stays the analytic circle.
func (s *SpawnSystem) SetShapeCount(n int) {
	s.numShapes = n
}

// Count returns the live ball count.
func (s *SpawnSystem) Count() int {
	return len(s.order)
}

// Update advances tweens, emits due bursts, and enforces the population cap.
// It reports how many balls were emitted and recycled this frame.
func (s *SpawnSystem) Update(w *ecs.World, tick int64) (spawned, recycled int) {
	s.updateTweens(w)

	s.timer -= s.dt
	for s.timer <= 0 {
		s.timer += s.interval
		for i := 0; i < s.perBurst; i++ {
			s.spawnBall(tick)
			spawned++
		}
	}

	for len(s.order) > s.maxBalls {
		e := s.order[0]
		s.order = s.order[1:]
		if w.Alive(e) {
			w.RemoveEntity(e)
		}
		delete(s.tweens, e)
		recycled++
	}

	return spawned, recycled
}

// updateTweens grows fresh balls toward their target radius.
func (s *SpawnSystem) updateTweens(w *ecs.World) {
	for e, tw := range s.tweens {
		if !w.Alive(e) {
			delete(s.tweens, e)
			continue
		}
		v, finished := tw.Update(s.dt)
		s.bodyMap.Get(e).Radius = v
		if finished {
			delete(s.tweens, e)
		}
	}
}

func (s *SpawnSystem) spawnBall(tick int64) {
	cfg := config.Cfg()

	targetR := float32(cfg.Spawn.RadiusMin) +
		s.rng.Float32()*float32(cfg.Spawn.RadiusMax-cfg.Spawn.RadiusMin)

	// Keep spawn columns away from the walls so side bounces do not eat the
	// grow-in animation.
	margin := targetR * 2
	x := margin + s.rng.Float32()*(s.bounds.Width-2*margin)

	pos := components.Position{X: x, Y: -targetR}
	vel := components.Velocity{
		X: (s.rng.Float32()*2 - 1) * float32(cfg.Spawn.SpeedJitter),
		Y: 20,
	}
	body := components.Body{Radius: spawnRadius}
	paint := components.Paint{ColorIndex: uint8(s.rng.Intn(cfg.Spawn.Colors))}

	shape := components.Shape{}
	if s.numShapes > 1 && s.rng.Float64() < cfg.Spawn.ShapeChance {
		shape.Index = uint16(1 + s.rng.Intn(s.numShapes-1))
	}

	tag := components.ClusterTag{}
	ball := components.Ball{ID: s.nextID, BornTick: tick}
	s.nextID++

	e := s.mapper.NewEntity(&pos, &vel, &body, &paint, &shape, &tag, &ball)
	s.order = append(s.order, e)
	s.tweens[e] = gween.New(spawnRadius, targetR, float32(cfg.Spawn.PopDuration), ease.OutBack)
}
