package world

import (
	"errors"
	"math"
	"time"

	"github.com/tickarena/server/internal/component"
	"github.com/tickarena/server/internal/core/ecs"
	"github.com/tickarena/server/internal/net"
	"github.com/tickarena/server/internal/net/packet"
)

var ErrPlayerExists = errors.New("player already in world")

// PlayerInfo links a joined session to its entity.
// Accessed only from the game loop goroutine; no locks.
type PlayerInfo struct {
	PlayerID  uint32
	SessionID uint64
	Session   *net.Session
	Entity    ecs.EntityID
}

// Spawn describes a freshly joined player.
type Spawn struct {
	X, Y  float64
	Speed float64
	MaxHP int
}

// State tracks all players currently in-world and owns the ECS world.
// Single-goroutine access only (game loop).
type State struct {
	ECS *ecs.World

	bySession map[uint64]*PlayerInfo // SessionID → PlayerInfo
	byPlayer  map[uint32]*PlayerInfo // PlayerID → PlayerInfo
	order     []*PlayerInfo          // join order

	// Now is the game clock. Tests replace it.
	Now func() time.Time
}

func NewState(w *ecs.World) *State {
	return &State{
		ECS:       w,
		bySession: make(map[uint64]*PlayerInfo),
		byPlayer:  make(map[uint32]*PlayerInfo),
		Now:       time.Now,
	}
}

// AddPlayer creates the player's entity and registers it in the world.
func (s *State) AddPlayer(sess *net.Session, playerID uint32, sp Spawn) (*PlayerInfo, error) {
	if _, ok := s.bySession[sess.ID]; ok {
		return nil, ErrPlayerExists
	}
	if _, ok := s.byPlayer[playerID]; ok {
		return nil, ErrPlayerExists
	}

	id := s.ECS.CreateEntity()
	for _, c := range []ecs.Component{
		&component.Player{PlayerID: playerID, SessionID: sess.ID},
		&component.Position{X: sp.X, Y: sp.Y},
		&component.Movement{Speed: sp.Speed},
		&component.Health{HP: sp.MaxHP, MaxHP: sp.MaxHP},
		&component.Combat{},
	} {
		if _, err := s.ECS.AddComponent(id, c); err != nil {
			s.ECS.DestroyEntity(id)
			return nil, err
		}
	}

	p := &PlayerInfo{PlayerID: playerID, SessionID: sess.ID, Session: sess, Entity: id}
	s.bySession[sess.ID] = p
	s.byPlayer[playerID] = p
	s.order = append(s.order, p)
	return p, nil
}

// RemovePlayer detaches a player from the world. The entity loses its
// Player and AttackIntent components right away, so no system acts for the
// departed player, and is destroyed when the destroy queue is flushed at the
// end of the tick.
func (s *State) RemovePlayer(sessionID uint64) *PlayerInfo {
	p, ok := s.bySession[sessionID]
	if !ok {
		return nil
	}
	s.ECS.RemoveComponent(p.Entity, component.KindPlayer)
	s.ECS.RemoveComponent(p.Entity, component.KindAttackIntent)
	s.ECS.MarkForDestruction(p.Entity)
	delete(s.bySession, sessionID)
	delete(s.byPlayer, p.PlayerID)
	for i, q := range s.order {
		if q == p {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return p
}

// GetBySession returns a player by session ID.
func (s *State) GetBySession(sessionID uint64) *PlayerInfo {
	return s.bySession[sessionID]
}

// GetByPlayerID returns a player by public player ID.
func (s *State) GetByPlayerID(playerID uint32) *PlayerInfo {
	return s.byPlayer[playerID]
}

// PlayerCount returns the number of players in-world.
func (s *State) PlayerCount() int {
	return len(s.order)
}

// AllPlayers iterates all in-world players in join order.
func (s *State) AllPlayers(fn func(*PlayerInfo)) {
	for _, p := range s.order {
		fn(p)
	}
}

// Position returns a player's position.
func (s *State) Position(p *PlayerInfo) (*component.Position, bool) {
	return ecs.Get[*component.Position](s.ECS, p.Entity)
}

// Health returns a player's health.
func (s *State) Health(p *PlayerInfo) (*component.Health, bool) {
	return ecs.Get[*component.Health](s.ECS, p.Entity)
}

// IsDead reports whether the player is waiting to respawn.
func (s *State) IsDead(p *PlayerInfo) bool {
	return s.ECS.HasComponent(p.Entity, component.KindDead)
}

// PlayerStates returns every player's position in join order, as carried by
// a snapshot frame.
func (s *State) PlayerStates() []packet.PlayerState {
	out := make([]packet.PlayerState, 0, len(s.order))
	for _, p := range s.order {
		pos, ok := s.Position(p)
		if !ok {
			continue
		}
		out = append(out, packet.PlayerState{ID: p.PlayerID, X: float32(pos.X), Y: float32(pos.Y)})
	}
	return out
}

// Distance returns the euclidean distance between two positions.
func Distance(a, b *component.Position) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}
