package handler

import (
	"github.com/tickarena/server/internal/core/event"
	"github.com/tickarena/server/internal/net"
	"go.uber.org/zap"
)

// Disconnect cleans up after a closed or evicted session: the session leaves
// the registry, its entity is destroyed and, if it had joined, the others
// are told. Safe to call more than once.
func Disconnect(sess *net.Session, deps *Deps) {
	deps.Sessions.Remove(sess.ID)

	p := deps.World.RemovePlayer(sess.ID)
	if p == nil {
		return
	}
	event.Emit(deps.Bus, event.PlayerLeft{PlayerID: p.PlayerID, SessionID: sess.ID})

	deps.Log.Info("player left",
		zap.Uint64("session", sess.ID),
		zap.Uint32("player", p.PlayerID),
		zap.Int("players", deps.World.PlayerCount()),
	)
}
