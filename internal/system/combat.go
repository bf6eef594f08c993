package system

import (
	"math"
	"time"

	"github.com/tickarena/server/internal/component"
	"github.com/tickarena/server/internal/core/ecs"
	"github.com/tickarena/server/internal/core/event"
	coresys "github.com/tickarena/server/internal/core/system"
	"github.com/tickarena/server/internal/data"
	"github.com/tickarena/server/internal/scripting"
	"github.com/tickarena/server/internal/world"
	"go.uber.org/zap"
)

var intentFilter = ecs.Filter{Must: ecs.Kinds(component.KindAttackIntent)}

// CombatSystem resolves queued attack intents. Phase 2 (Logic).
//
// An intent is consumed whether or not it lands. It lands when attacker and
// target are distinct and alive, the attack code exists, the attacker's
// cooldown has passed and the target is within range.
type CombatSystem struct {
	world   *world.State
	attacks *data.AttackTable
	scripts *scripting.Engine // nil uses table damage
	bus     *event.Bus
	log     *zap.Logger
}

func NewCombatSystem(ws *world.State, attacks *data.AttackTable, scripts *scripting.Engine, bus *event.Bus, log *zap.Logger) *CombatSystem {
	return &CombatSystem{world: ws, attacks: attacks, scripts: scripts, bus: bus, log: log}
}

func (s *CombatSystem) Phase() coresys.Phase { return coresys.PhaseLogic }

func (s *CombatSystem) Update(_ time.Duration) {
	w := s.world.ECS
	now := s.world.Now()
	w.Each(intentFilter, func(id ecs.EntityID) {
		intent, ok := ecs.Get[*component.AttackIntent](w, id)
		if !ok {
			return
		}
		w.RemoveComponent(id, component.KindAttackIntent)
		s.resolve(id, *intent, now)
	})
}

func (s *CombatSystem) resolve(id ecs.EntityID, intent component.AttackIntent, now time.Time) {
	w := s.world.ECS
	if w.HasComponent(id, component.KindDead) {
		return
	}
	attacker, ok := ecs.Get[*component.Player](w, id)
	if !ok {
		return
	}
	target := s.world.GetByPlayerID(intent.TargetID)
	if target == nil || target.Entity == id || s.world.IsDead(target) {
		return
	}
	atk := s.attacks.Get(intent.Code)
	if atk == nil {
		return
	}
	cd, ok := ecs.Get[*component.Combat](w, id)
	if !ok || now.Before(cd.ReadyAt) {
		return
	}

	apos, ok1 := ecs.Get[*component.Position](w, id)
	tpos, ok2 := ecs.Get[*component.Position](w, target.Entity)
	ahp, ok3 := ecs.Get[*component.Health](w, id)
	thp, ok4 := ecs.Get[*component.Health](w, target.Entity)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return
	}
	dist := world.Distance(apos, tpos)
	if dist > atk.Range {
		return
	}

	if mv, ok := ecs.Get[*component.Movement](w, id); ok {
		mv.Direction = math.Atan2(tpos.Y-apos.Y, tpos.X-apos.X)
	}
	cd.ReadyAt = now.Add(atk.Cooldown())

	dmg := atk.Damage
	if s.scripts != nil {
		dmg = s.scripts.CalcAttack(scripting.AttackContext{
			Code:     atk.Code,
			Name:     atk.Name,
			Range:    atk.Range,
			Damage:   atk.Damage,
			Attacker: scripting.Combatant{ID: attacker.PlayerID, X: apos.X, Y: apos.Y, HP: ahp.HP, MaxHP: ahp.MaxHP},
			Target:   scripting.Combatant{ID: target.PlayerID, X: tpos.X, Y: tpos.Y, HP: thp.HP, MaxHP: thp.MaxHP},
			Distance: dist,
		}).Damage
	}

	thp.HP -= dmg
	if thp.HP < 0 {
		thp.HP = 0
	}
	event.Emit(s.bus, event.PlayerHit{AttackerID: attacker.PlayerID, TargetID: target.PlayerID, HP: thp.HP})

	if thp.HP > 0 {
		return
	}
	if _, err := w.AddComponent(target.Entity, &component.Dead{At: now}); err != nil {
		s.log.Error("mark player dead", zap.Uint32("player", target.PlayerID), zap.Error(err))
		return
	}
	event.Emit(s.bus, event.PlayerDied{PlayerID: target.PlayerID, AttackerID: attacker.PlayerID})
	s.log.Info("player died",
		zap.Uint32("player", target.PlayerID),
		zap.Uint32("killer", attacker.PlayerID),
	)
}
