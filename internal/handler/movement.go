package handler

import (
	"math"

	"github.com/tickarena/server/internal/component"
	"github.com/tickarena/server/internal/core/ecs"
	"github.com/tickarena/server/internal/net"
	"github.com/tickarena/server/internal/net/packet"
)

// HandleMove processes a move intent (C→S type 1). The player does not move
// here: the intent only turns it to face the target point, and the physics
// tick carries it along that heading.
func HandleMove(sess *net.Session, data []byte, deps *Deps) error {
	var m packet.MoveIntent
	if err := m.UnmarshalBinary(data); err != nil {
		return err
	}

	p := deps.World.GetBySession(sess.ID)
	if p == nil {
		return nil
	}
	pos, ok := deps.World.Position(p)
	if !ok {
		return nil
	}
	mv, ok := ecs.Get[*component.Movement](deps.World.ECS, p.Entity)
	if !ok {
		return nil
	}
	mv.Direction = math.Atan2(float64(m.Y)-pos.Y, float64(m.X)-pos.X)
	return nil
}
