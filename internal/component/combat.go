package component

import (
	"time"

	"github.com/tickarena/server/internal/core/ecs"
)

// Combat tracks the attacker's cooldown.
type Combat struct {
	ReadyAt time.Time
}

func (*Combat) Kind() ecs.Kind { return KindCombat }

// AttackIntent is a pending attack, resolved by CombatSystem on the next
// logic tick. Only the latest intent per tick survives.
type AttackIntent struct {
	TargetID uint32
	Code     uint8
}

func (*AttackIntent) Kind() ecs.Kind { return KindAttackIntent }

// Dead marks an entity waiting to respawn.
type Dead struct {
	At time.Time
}

func (*Dead) Kind() ecs.Kind { return KindDead }
