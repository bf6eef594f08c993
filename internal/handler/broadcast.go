package handler

import (
	"math"

	"github.com/tickarena/server/internal/core/event"
	"github.com/tickarena/server/internal/net/packet"
	"go.uber.org/zap"
)

// SubscribeEvents turns game events into outbound frames. The bus dispatches
// them in the output phase, after the tick that emitted them.
func SubscribeEvents(deps *Deps) {
	event.Subscribe(deps.Bus, func(event.PlayerJoined) {
		recordPlayers(deps)
	})
	event.Subscribe(deps.Bus, func(e event.PlayerLeft) {
		recordPlayers(deps)
		broadcastControl(deps, packet.PlayerDisconnect{
			Type: packet.CtlPlayerDisconnect,
			ID:   e.PlayerID,
		}, e.SessionID)
	})
	event.Subscribe(deps.Bus, func(e event.PlayerHit) {
		broadcastFrame(deps, &packet.Hit{
			AttackerID: e.AttackerID,
			TargetID:   e.TargetID,
			HP:         clampHP(e.HP),
		})
	})
	event.Subscribe(deps.Bus, func(e event.PlayerDied) {
		broadcastFrame(deps, &packet.Notice{Type: packet.SDeath, PlayerID: e.PlayerID})
	})
	event.Subscribe(deps.Bus, func(e event.PlayerRespawned) {
		broadcastFrame(deps, &packet.Notice{Type: packet.SRespawn, PlayerID: e.PlayerID})
	})
}

func recordPlayers(deps *Deps) {
	if deps.Metrics != nil {
		deps.Metrics.Players.Set(float64(deps.World.PlayerCount()))
	}
}

func broadcastControl(deps *Deps, v any, skip uint64) {
	data, err := packet.EncodeControl(v)
	if err != nil {
		deps.Log.Error("encode control message", zap.Error(err))
		return
	}
	broadcast(deps, packet.Message{Data: data}, skip)
}

type binaryMarshaler interface {
	MarshalBinary() ([]byte, error)
}

func broadcastFrame(deps *Deps, m binaryMarshaler) {
	data, err := m.MarshalBinary()
	if err != nil {
		deps.Log.Error("encode frame", zap.Error(err))
		return
	}
	broadcast(deps, packet.Message{Binary: true, Data: data}, 0)
}

func broadcast(deps *Deps, msg packet.Message, skip uint64) {
	if _, err := deps.Sessions.Broadcast(msg, skip); err != nil {
		deps.Log.Debug("broadcast skipped sessions", zap.Error(err))
	}
}

func clampHP(hp int) int16 {
	switch {
	case hp > math.MaxInt16:
		return math.MaxInt16
	case hp < math.MinInt16:
		return math.MinInt16
	}
	return int16(hp)
}
