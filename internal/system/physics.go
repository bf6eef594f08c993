package system

import (
	"math"
	"time"

	"github.com/tickarena/server/internal/component"
	"github.com/tickarena/server/internal/core/ecs"
	coresys "github.com/tickarena/server/internal/core/system"
)

// PhysicsSystem runs the ECS world's systems (movement, bounds) once per
// physics tick. Phase 1 (Physics).
type PhysicsSystem struct {
	world *ecs.World
}

func NewPhysicsSystem(world *ecs.World) *PhysicsSystem {
	return &PhysicsSystem{world: world}
}

func (s *PhysicsSystem) Phase() coresys.Phase { return coresys.PhasePhysics }

func (s *PhysicsSystem) Update(dt time.Duration) {
	s.world.Update(dt)
}

// MovementSystem advances every living entity by speed along its heading.
// Constant velocity, instant turns, no collisions.
type MovementSystem struct{}

func (MovementSystem) Filter() ecs.Filter {
	return ecs.Filter{
		Must:    ecs.Kinds(component.KindPosition, component.KindMovement),
		Exclude: ecs.Kinds(component.KindDead),
	}
}

func (MovementSystem) Process(w *ecs.World, id ecs.EntityID, _ time.Duration) {
	pos, _ := ecs.Get[*component.Position](w, id)
	mv, _ := ecs.Get[*component.Movement](w, id)
	pos.X += mv.Speed * math.Cos(mv.Direction)
	pos.Y += mv.Speed * math.Sin(mv.Direction)
}

// BoundsSystem clamps positions to a square arena of the given half extent.
// A zero half extent disables clamping.
type BoundsSystem struct {
	HalfExtent float64
}

func (BoundsSystem) Filter() ecs.Filter {
	return ecs.Filter{Must: ecs.Kinds(component.KindPosition)}
}

func (s BoundsSystem) Process(w *ecs.World, id ecs.EntityID, _ time.Duration) {
	if s.HalfExtent <= 0 {
		return
	}
	pos, _ := ecs.Get[*component.Position](w, id)
	pos.X = clamp(pos.X, -s.HalfExtent, s.HalfExtent)
	pos.Y = clamp(pos.Y, -s.HalfExtent, s.HalfExtent)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
