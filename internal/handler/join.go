package handler

import (
	"fmt"

	"github.com/tickarena/server/internal/core/event"
	"github.com/tickarena/server/internal/net"
	"github.com/tickarena/server/internal/net/packet"
	"github.com/tickarena/server/internal/world"
	"go.uber.org/zap"
)

// Refusal reasons carried by the error control message.
const (
	ReasonArenaFull = "arena full"
	ReasonNoID      = "no player id available"
)

// HandleJoin processes {"type":"join"}: allocates a player id, spawns the
// entity at the origin, welcomes the joiner with everyone already present
// and announces the newcomer to everybody else.
func HandleJoin(sess *net.Session, deps *Deps) error {
	ws := deps.World
	if ws.PlayerCount() >= deps.Config.Game.MaxPlayers {
		deps.Log.Info("join refused, arena full", zap.Uint64("session", sess.ID))
		return refuse(sess, ReasonArenaFull)
	}

	id, err := deps.Sessions.AllocatePlayerID()
	if err != nil {
		deps.Log.Warn("join refused", zap.Uint64("session", sess.ID), zap.Error(err))
		return refuse(sess, ReasonNoID)
	}

	others := make([]packet.PlayerEntry, 0, ws.PlayerCount())
	ws.AllPlayers(func(p *world.PlayerInfo) {
		if pos, ok := ws.Position(p); ok {
			others = append(others, packet.PlayerEntry{ID: p.PlayerID, X: pos.X, Y: pos.Y})
		}
	})

	p, err := ws.AddPlayer(sess, id, world.Spawn{
		Speed: deps.Config.Game.MovementSpeed,
		MaxHP: deps.Config.Game.MaxHealth,
	})
	if err != nil {
		return fmt.Errorf("add player: %w", err)
	}
	deps.Sessions.BindPlayer(sess, id)

	welcome, err := packet.EncodeControl(packet.Welcome{
		Type:       packet.CtlWelcome,
		ID:         id,
		PlayerList: others,
	})
	if err != nil {
		return fmt.Errorf("encode welcome: %w", err)
	}
	sess.SendText(welcome)

	// Announce before entering the world: only players already present hear
	// about the newcomer, and later joiners see it in their welcome instead.
	pos, _ := ws.Position(p)
	broadcastControl(deps, packet.NewPlayer{
		Type: packet.CtlNewPlayer,
		ID:   id,
		X:    pos.X,
		Y:    pos.Y,
	}, sess.ID)
	sess.SetState(packet.StateInWorld)

	event.Emit(deps.Bus, event.PlayerJoined{PlayerID: id, SessionID: sess.ID})

	deps.Log.Info("player joined",
		zap.Uint64("session", sess.ID),
		zap.Uint32("player", id),
		zap.Int("players", ws.PlayerCount()),
	)
	return nil
}

func refuse(sess *net.Session, reason string) error {
	msg, err := packet.EncodeControl(packet.ControlError{Type: packet.CtlError, Reason: reason})
	if err != nil {
		sess.Close()
		return fmt.Errorf("encode refusal: %w", err)
	}
	sess.Kick(packet.Message{Data: msg})
	return nil
}
