package world

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tickarena/server/internal/component"
	"github.com/tickarena/server/internal/core/ecs"
	"github.com/tickarena/server/internal/net"
	"github.com/tickarena/server/internal/net/nettest"
	"go.uber.org/zap"
)

func newSession(id uint64) *net.Session {
	return net.NewSession(nettest.NewConn(), id, net.SessionOptions{InQueueSize: 1, OutQueueSize: 1}, zap.NewNop())
}

func newState() *State {
	return NewState(ecs.NewWorld(rand.New(rand.NewSource(1))))
}

var spawn = Spawn{Speed: 3, MaxHP: 100}

func TestAddPlayerCreatesEntity(t *testing.T) {
	s := newState()
	p, err := s.AddPlayer(newSession(1), 77, spawn)
	require.NoError(t, err)

	assert.True(t, s.ECS.Alive(p.Entity))
	pos, ok := s.Position(p)
	require.True(t, ok)
	assert.Equal(t, component.Position{}, *pos)

	hp, ok := s.Health(p)
	require.True(t, ok)
	assert.Equal(t, 100, hp.HP)
	assert.Equal(t, 100, hp.MaxHP)

	mv, ok := ecs.Get[*component.Movement](s.ECS, p.Entity)
	require.True(t, ok)
	assert.Equal(t, 3.0, mv.Speed)

	assert.Same(t, p, s.GetBySession(1))
	assert.Same(t, p, s.GetByPlayerID(77))
	assert.False(t, s.IsDead(p))
}

func TestAddPlayerRejectsDuplicates(t *testing.T) {
	s := newState()
	sess := newSession(1)
	_, err := s.AddPlayer(sess, 1, spawn)
	require.NoError(t, err)

	_, err = s.AddPlayer(sess, 2, spawn)
	assert.ErrorIs(t, err, ErrPlayerExists)
	_, err = s.AddPlayer(newSession(2), 1, spawn)
	assert.ErrorIs(t, err, ErrPlayerExists)
	assert.Equal(t, 1, s.PlayerCount())
}

func TestRemovePlayerDestroysEntityAtFlush(t *testing.T) {
	s := newState()
	p, err := s.AddPlayer(newSession(1), 5, spawn)
	require.NoError(t, err)
	_, err = s.ECS.AddComponent(p.Entity, &component.AttackIntent{TargetID: 9})
	require.NoError(t, err)

	assert.Same(t, p, s.RemovePlayer(1))
	assert.True(t, s.ECS.Alive(p.Entity), "destroyed with the queue, not immediately")
	assert.False(t, s.ECS.HasComponent(p.Entity, component.KindPlayer))
	assert.False(t, s.ECS.HasComponent(p.Entity, component.KindAttackIntent))

	s.ECS.FlushDestroyQueue()
	assert.False(t, s.ECS.Alive(p.Entity))
	assert.False(t, s.ECS.Pool().InUse(p.Entity))
	assert.Nil(t, s.GetByPlayerID(5))
	assert.Nil(t, s.RemovePlayer(1))
	assert.Equal(t, 0, s.PlayerCount())
}

func TestPlayerStatesInJoinOrder(t *testing.T) {
	s := newState()
	for i, id := range []uint32{30, 10, 20} {
		p, err := s.AddPlayer(newSession(uint64(i+1)), id, spawn)
		require.NoError(t, err)
		pos, _ := s.Position(p)
		pos.X = float64(i)
	}
	s.RemovePlayer(2)

	states := s.PlayerStates()
	require.Len(t, states, 2)
	assert.Equal(t, uint32(30), states[0].ID)
	assert.Equal(t, uint32(20), states[1].ID)
	assert.Equal(t, float32(2), states[1].X)
}

func TestDistance(t *testing.T) {
	assert.Equal(t, 5.0, Distance(&component.Position{}, &component.Position{X: 3, Y: 4}))
}
