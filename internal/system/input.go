package system

import (
	"errors"
	"time"

	coresys "github.com/tickarena/server/internal/core/system"
	"github.com/tickarena/server/internal/handler"
	"github.com/tickarena/server/internal/net"
	"github.com/tickarena/server/internal/net/packet"
	"go.uber.org/zap"
)

// SessionSource hands newly connected sessions to the game loop.
type SessionSource interface {
	NewSessions() <-chan *net.Session
}

// InputSystem accepts new sessions, drains message queues from all sessions
// and dispatches them through the packet registry. Closed sessions are
// cleaned up here. Phase 0 (Input).
type InputSystem struct {
	source     SessionSource
	registry   *packet.Registry
	deps       *handler.Deps
	maxPerTick int
	log        *zap.Logger
}

func NewInputSystem(source SessionSource, registry *packet.Registry, deps *handler.Deps, maxPerTick int) *InputSystem {
	return &InputSystem{
		source:     source,
		registry:   registry,
		deps:       deps,
		maxPerTick: maxPerTick,
		log:        deps.Log,
	}
}

func (s *InputSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *InputSystem) Update(_ time.Duration) {
	// Accept new sessions
	for {
		select {
		case sess := <-s.source.NewSessions():
			s.deps.Sessions.Add(sess)
		default:
			goto doneNew
		}
	}
doneNew:

	for _, sess := range s.deps.Sessions.All() {
		// Drain up to maxPerTick messages; a closed session still gets its
		// last frames handled in its last known state before cleanup.
		s.drain(sess)
		if sess.IsClosed() {
			handler.Disconnect(sess, s.deps)
		}
	}

	// Early flush so replies produced here (welcome) reach the writer
	// goroutines while the rest of the tick runs.
	for _, sess := range s.deps.Sessions.All() {
		s.flush(sess)
	}
}

func (s *InputSystem) drain(sess *net.Session) {
	for i := 0; i < s.maxPerTick; i++ {
		select {
		case msg := <-sess.InQueue:
			if err := s.registry.Dispatch(sess, sess.State(), msg); err != nil {
				s.reject(sess, err)
			}
		default:
			return
		}
	}
}

func (s *InputSystem) reject(sess *net.Session, err error) {
	s.log.Debug("message rejected",
		zap.Uint64("session", sess.ID),
		zap.Error(err),
	)
	if s.deps.Metrics != nil {
		s.deps.Metrics.RejectedFrames.WithLabelValues(rejectKind(err)).Inc()
	}
}

func (s *InputSystem) flush(sess *net.Session) {
	if dropped := sess.FlushOutput(); dropped > 0 && s.deps.Metrics != nil {
		s.deps.Metrics.DroppedSends.Add(float64(dropped))
	}
}

func rejectKind(err error) string {
	switch {
	case errors.Is(err, packet.ErrShortFrame):
		return "short"
	case errors.Is(err, packet.ErrFrameLength):
		return "length"
	case errors.Is(err, packet.ErrUnknownType):
		return "unknown_type"
	case errors.Is(err, packet.ErrTypeMismatch):
		return "type_mismatch"
	default:
		return "handler"
	}
}
