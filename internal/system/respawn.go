package system

import (
	"time"

	"github.com/tickarena/server/internal/component"
	"github.com/tickarena/server/internal/core/ecs"
	"github.com/tickarena/server/internal/core/event"
	coresys "github.com/tickarena/server/internal/core/system"
	"github.com/tickarena/server/internal/world"
)

var deadFilter = ecs.Filter{Must: ecs.Kinds(component.KindDead)}

// RespawnSystem brings dead players back at the origin with full health once
// the respawn delay has elapsed. Phase 2 (Logic).
type RespawnSystem struct {
	world *world.State
	delay time.Duration
	bus   *event.Bus
}

func NewRespawnSystem(ws *world.State, delay time.Duration, bus *event.Bus) *RespawnSystem {
	return &RespawnSystem{world: ws, delay: delay, bus: bus}
}

func (s *RespawnSystem) Phase() coresys.Phase { return coresys.PhaseLogic }

func (s *RespawnSystem) Update(_ time.Duration) {
	w := s.world.ECS
	now := s.world.Now()
	w.Each(deadFilter, func(id ecs.EntityID) {
		dead, ok := ecs.Get[*component.Dead](w, id)
		if !ok || now.Sub(dead.At) < s.delay {
			return
		}
		if pos, ok := ecs.Get[*component.Position](w, id); ok {
			pos.X, pos.Y = 0, 0
		}
		if hp, ok := ecs.Get[*component.Health](w, id); ok {
			hp.HP = hp.MaxHP
		}
		w.RemoveComponent(id, component.KindDead)

		if p, ok := ecs.Get[*component.Player](w, id); ok {
			event.Emit(s.bus, event.PlayerRespawned{PlayerID: p.PlayerID})
		}
	})
}
