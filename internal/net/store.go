package net

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/tickarena/server/internal/net/packet"
)

// ErrIDSpaceExhausted is returned when no free player id could be found.
var ErrIDSpaceExhausted = errors.New("player id space exhausted")

const maxIDAttempts = 1 << 16

// SessionStore is the connection registry: every open session keyed by its
// session id, plus the player id bound to it once it joins.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[uint64]*Session
	byPlayer map[uint32]*Session
	rng      *rand.Rand
}

func NewSessionStore(rng *rand.Rand) *SessionStore {
	return &SessionStore{
		sessions: make(map[uint64]*Session),
		byPlayer: make(map[uint32]*Session),
		rng:      rng,
	}
}

func (s *SessionStore) Add(sess *Session) {
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
}

// Remove drops a session and its player binding.
func (s *SessionStore) Remove(id uint64) {
	s.mu.Lock()
	if sess, ok := s.sessions[id]; ok {
		if sess.PlayerID != 0 && s.byPlayer[sess.PlayerID] == sess {
			delete(s.byPlayer, sess.PlayerID)
		}
		delete(s.sessions, id)
	}
	s.mu.Unlock()
}

func (s *SessionStore) Get(id uint64) *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[id]
}

// ByPlayer returns the session bound to a player id.
func (s *SessionStore) ByPlayer(playerID uint32) *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.byPlayer[playerID]
}

// AllocatePlayerID picks a random nonzero 32-bit id not held by any bound
// session.
func (s *SessionStore) AllocatePlayerID() (uint32, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := 0; i < maxIDAttempts; i++ {
		id := s.rng.Uint32()
		if id == 0 {
			continue
		}
		if _, taken := s.byPlayer[id]; !taken {
			return id, nil
		}
	}
	return 0, ErrIDSpaceExhausted
}

// BindPlayer records the player id assigned to a session.
func (s *SessionStore) BindPlayer(sess *Session, playerID uint32) {
	s.mu.Lock()
	sess.PlayerID = playerID
	s.byPlayer[playerID] = sess
	s.mu.Unlock()
}

// ForEach iterates all sessions under the read lock.
func (s *SessionStore) ForEach(fn func(*Session)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sess := range s.sessions {
		fn(sess)
	}
}

// All returns a snapshot of every session, safe to iterate while the store
// is modified.
func (s *SessionStore) All() []*Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess)
	}
	return out
}

// Players returns every session that has joined.
func (s *SessionStore) Players() []*Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Session, 0, len(s.byPlayer))
	for _, sess := range s.byPlayer {
		out = append(out, sess)
	}
	return out
}

// Broadcast queues msg on every joined session except skip (0 skips none)
// and returns how many sessions it was queued on. Sessions that have not
// joined yet are left out so their first message is always the welcome.
// Closed sessions are skipped and reported in the returned error.
func (s *SessionStore) Broadcast(msg packet.Message, skip uint64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var (
		sent   int
		result *multierror.Error
	)
	for id, sess := range s.sessions {
		if id == skip {
			continue
		}
		if sess.IsClosed() {
			result = multierror.Append(result, fmt.Errorf("session %d: %w", id, ErrSessionClosed))
			continue
		}
		if sess.State() != packet.StateInWorld {
			continue
		}
		sess.Send(msg)
		sent++
	}
	return sent, result.ErrorOrNil()
}

func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep runs one liveness pass. Sessions that have not answered the previous
// ping (or whose socket is already closed) are closed and returned; every
// other session is marked not-live and pinged. A pong between two sweeps marks
// it live again, so a silent peer is evicted on the second sweep.
func (s *SessionStore) Sweep() []*Session {
	s.mu.RLock()
	var evicted, pinged []*Session
	for _, sess := range s.sessions {
		if sess.IsClosed() || !sess.live.Load() {
			evicted = append(evicted, sess)
			continue
		}
		sess.live.Store(false)
		pinged = append(pinged, sess)
	}
	s.mu.RUnlock()

	for _, sess := range evicted {
		sess.Close()
	}
	for _, sess := range pinged {
		sess.Ping()
	}
	return evicted
}
