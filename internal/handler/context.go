package handler

import (
	"github.com/tickarena/server/internal/config"
	"github.com/tickarena/server/internal/core/event"
	"github.com/tickarena/server/internal/metrics"
	"github.com/tickarena/server/internal/net"
	"github.com/tickarena/server/internal/net/packet"
	"github.com/tickarena/server/internal/world"
	"go.uber.org/zap"
)

// Deps holds shared dependencies injected into all message handlers.
type Deps struct {
	Config   *config.Config
	Log      *zap.Logger
	World    *world.State
	Sessions *net.SessionStore
	Bus      *event.Bus
	Metrics  *metrics.Metrics
}

// RegisterAll registers all message handlers into the registry.
func RegisterAll(reg *packet.Registry, deps *Deps) {
	// Lobby phase
	reg.RegisterControl(packet.CtlJoin,
		[]packet.SessionState{packet.StateConnected},
		func(sess any, _ []byte) error {
			return HandleJoin(sess.(*net.Session), deps)
		},
	)

	// In-world phase
	inWorldStates := []packet.SessionState{packet.StateInWorld}

	reg.Register(packet.CMove, inWorldStates,
		func(sess any, data []byte) error {
			return HandleMove(sess.(*net.Session), data, deps)
		},
	)
	reg.Register(packet.CAttack, inWorldStates,
		func(sess any, data []byte) error {
			return HandleAttack(sess.(*net.Session), data, deps)
		},
	)
}
