package systems

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/ahammer/metalrain/components"
	"github.com/ahammer/metalrain/config"
)

// Bounds is the world rectangle balls move in.
type Bounds struct {
	Width, Height float32
}

// restThreshold stops micro-bounces once floor impacts get this slow.
const restThreshold = 6.0

// MovementSystem integrates ball motion: gravity, drag, and wall bounces.
// There is no ceiling so freshly spawned balls can drop in from above.
type MovementSystem struct {
	filter ecs.Filter3[components.Position, components.Velocity, components.Body]
	bounds Bounds

	dt          float32
	gravity     float32
	restitution float32
	drag        float32
}

// NewMovementSystem creates the system for the given world bounds.
func NewMovementSystem(w *ecs.World, bounds Bounds) *MovementSystem {
	phys := config.Cfg().Physics
	return &MovementSystem{
		filter:      *ecs.NewFilter3[components.Position, components.Velocity, components.Body](w),
		bounds:      bounds,
		dt:          config.Cfg().Derived.DT32,
		gravity:     float32(phys.Gravity),
		restitution: float32(phys.Restitution),
		drag:        float32(phys.Drag),
	}
}

// Update advances one tick.
func (s *MovementSystem) Update(w *ecs.World) {
	damp := 1 - s.drag*s.dt

	query := s.filter.Query()
	for query.Next() {
		pos, vel, body := query.Get()

		vel.Y += s.gravity * s.dt
		vel.X *= damp
		vel.Y *= damp

		pos.X += vel.X * s.dt
		pos.Y += vel.Y * s.dt

		r := body.Radius
		if pos.X < r {
			pos.X = r
			vel.X = -vel.X * s.restitution
		} else if pos.X > s.bounds.Width-r {
			pos.X = s.bounds.Width - r
			vel.X = -vel.X * s.restitution
		}

		if pos.Y > s.bounds.Height-r {
			pos.Y = s.bounds.Height - r
			vel.Y = -vel.Y * s.restitution
			if vel.Y > -restThreshold {
				vel.Y = 0
			}
		}
	}
}
