package system

import (
	"time"

	coresys "github.com/tickarena/server/internal/core/system"
	"github.com/tickarena/server/internal/handler"
	"go.uber.org/zap"
)

// HeartbeatSystem runs the liveness sweep and cleans up evicted sessions.
// Phase 4 (Heartbeat).
type HeartbeatSystem struct {
	deps *handler.Deps
}

func NewHeartbeatSystem(deps *handler.Deps) *HeartbeatSystem {
	return &HeartbeatSystem{deps: deps}
}

func (s *HeartbeatSystem) Phase() coresys.Phase { return coresys.PhaseHeartbeat }

func (s *HeartbeatSystem) Update(_ time.Duration) {
	for _, sess := range s.deps.Sessions.Sweep() {
		s.deps.Log.Info("connection evicted, no pong",
			zap.Uint64("session", sess.ID),
			zap.Uint32("player", sess.PlayerID),
		)
		handler.Disconnect(sess, s.deps)
		if s.deps.Metrics != nil {
			s.deps.Metrics.Evictions.Inc()
		}
	}
}
