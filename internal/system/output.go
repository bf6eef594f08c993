package system

import (
	"time"

	"github.com/tickarena/server/internal/core/ecs"
	"github.com/tickarena/server/internal/core/event"
	coresys "github.com/tickarena/server/internal/core/system"
	"github.com/tickarena/server/internal/metrics"
	"github.com/tickarena/server/internal/net"
)

// OutputSystem turns this tick's events into frames and hands every
// session's buffered output to its writer goroutine. Phase 5 (Output).
type OutputSystem struct {
	bus      *event.Bus
	sessions *net.SessionStore
	metrics  *metrics.Metrics
}

func NewOutputSystem(bus *event.Bus, sessions *net.SessionStore, m *metrics.Metrics) *OutputSystem {
	return &OutputSystem{bus: bus, sessions: sessions, metrics: m}
}

func (s *OutputSystem) Phase() coresys.Phase { return coresys.PhaseOutput }

func (s *OutputSystem) Update(_ time.Duration) {
	s.bus.SwapBuffers()
	s.bus.DispatchAll()

	dropped := 0
	s.sessions.ForEach(func(sess *net.Session) {
		dropped += sess.FlushOutput()
	})
	if dropped > 0 && s.metrics != nil {
		s.metrics.DroppedSends.Add(float64(dropped))
	}
}

// CleanupSystem releases ids of entities destroyed during the tick.
// Phase 6 (Cleanup).
type CleanupSystem struct {
	world *ecs.World
}

func NewCleanupSystem(world *ecs.World) *CleanupSystem {
	return &CleanupSystem{world: world}
}

func (s *CleanupSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *CleanupSystem) Update(_ time.Duration) {
	s.world.FlushDestroyQueue()
}
