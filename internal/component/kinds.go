// Package component holds the pure-data components attached to player
// entities. All mutation happens in systems and handlers.
package component

import "github.com/tickarena/server/internal/core/ecs"

const (
	KindPosition ecs.Kind = iota
	KindMovement
	KindHealth
	KindPlayer
	KindCombat
	KindAttackIntent
	KindDead
)
