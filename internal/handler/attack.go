package handler

import (
	"github.com/tickarena/server/internal/component"
	"github.com/tickarena/server/internal/net"
	"github.com/tickarena/server/internal/net/packet"
)

// HandleAttack processes an attack intent (C→S type 3). It only queues the
// intent; CombatSystem validates and resolves it on the next logic tick.
// A newer intent replaces an unresolved one.
func HandleAttack(sess *net.Session, data []byte, deps *Deps) error {
	var m packet.AttackIntent
	if err := m.UnmarshalBinary(data); err != nil {
		return err
	}

	p := deps.World.GetBySession(sess.ID)
	if p == nil || deps.World.IsDead(p) {
		return nil
	}
	deps.World.ECS.RemoveComponent(p.Entity, component.KindAttackIntent)
	_, err := deps.World.ECS.AddComponent(p.Entity, &component.AttackIntent{
		TargetID: m.TargetID,
		Code:     m.Code,
	})
	return err
}
