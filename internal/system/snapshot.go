package system

import (
	"time"

	coresys "github.com/tickarena/server/internal/core/system"
	"github.com/tickarena/server/internal/metrics"
	"github.com/tickarena/server/internal/net"
	"github.com/tickarena/server/internal/net/packet"
	"github.com/tickarena/server/internal/world"
	"go.uber.org/zap"
)

// SnapshotSystem broadcasts the full state of every player in one frame.
// Phase 3 (Network).
type SnapshotSystem struct {
	world    *world.State
	sessions *net.SessionStore
	metrics  *metrics.Metrics
	log      *zap.Logger
}

func NewSnapshotSystem(ws *world.State, sessions *net.SessionStore, m *metrics.Metrics, log *zap.Logger) *SnapshotSystem {
	return &SnapshotSystem{world: ws, sessions: sessions, metrics: m, log: log}
}

func (s *SnapshotSystem) Phase() coresys.Phase { return coresys.PhaseNetwork }

func (s *SnapshotSystem) Update(_ time.Duration) {
	if s.world.PlayerCount() == 0 {
		return
	}
	snap := packet.Snapshot{Players: s.world.PlayerStates()}
	data, err := snap.MarshalBinary()
	if err != nil {
		s.log.Error("encode snapshot", zap.Int("players", len(snap.Players)), zap.Error(err))
		return
	}
	sent, err := s.sessions.Broadcast(packet.Message{Binary: true, Data: data}, 0)
	if err != nil {
		s.log.Debug("snapshot skipped sessions", zap.Error(err))
	}
	if s.metrics != nil {
		s.metrics.SnapshotBytes.Add(float64(len(data) * sent))
	}
}
