package component

import "github.com/tickarena/server/internal/core/ecs"

// Player links an entity to its public player id and network session.
// The session itself lives in net/.
type Player struct {
	PlayerID  uint32
	SessionID uint64
}

func (*Player) Kind() ecs.Kind { return KindPlayer }

// Position is the authoritative world position.
type Position struct {
	X, Y float64
}

func (*Position) Kind() ecs.Kind { return KindPosition }

// Movement is a constant-speed heading. Direction is in radians.
type Movement struct {
	Speed     float64 // units per physics tick
	Direction float64
}

func (*Movement) Kind() ecs.Kind { return KindMovement }

// Health of an entity. HP never exceeds MaxHP.
type Health struct {
	HP    int
	MaxHP int
}

func (*Health) Kind() ecs.Kind { return KindHealth }
