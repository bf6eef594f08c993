package net

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tickarena/server/internal/net/packet"
)

func TestStoreAllocatesUniquePlayerIDs(t *testing.T) {
	store := NewSessionStore(rand.New(rand.NewSource(1)))
	seen := make(map[uint32]bool)
	for i := 0; i < 500; i++ {
		id, err := store.AllocatePlayerID()
		require.NoError(t, err)
		require.NotZero(t, id)
		require.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true

		sess, _ := newTestSession(uint64(i+1), testOpts)
		store.Add(sess)
		store.BindPlayer(sess, id)
	}
	assert.Len(t, store.Players(), 500)
}

func TestStoreRemoveDropsPlayerBinding(t *testing.T) {
	store := NewSessionStore(rand.New(rand.NewSource(1)))
	sess, _ := newTestSession(7, testOpts)
	store.Add(sess)
	store.BindPlayer(sess, 42)

	assert.Same(t, sess, store.Get(7))
	assert.Same(t, sess, store.ByPlayer(42))

	store.Remove(7)
	assert.Nil(t, store.Get(7))
	assert.Nil(t, store.ByPlayer(42))
	assert.Equal(t, 0, store.Len())
}

func TestSweepEvictsSilentPeerOnSecondPass(t *testing.T) {
	store := NewSessionStore(rand.New(rand.NewSource(1)))
	alive, aliveConn := newTestSession(1, testOpts)
	silent, silentConn := newTestSession(2, testOpts)
	alive.Start()
	silent.Start()
	defer alive.Close()
	store.Add(alive)
	store.Add(silent)

	// First pass never evicts a fresh connection; it pings everyone.
	assert.Empty(t, store.Sweep())
	assert.Equal(t, 1, aliveConn.Pings())
	assert.Equal(t, 1, silentConn.Pings())

	aliveConn.Pong()

	evicted := store.Sweep()
	require.Len(t, evicted, 1)
	assert.Same(t, silent, evicted[0])
	assert.True(t, silent.IsClosed())
	assert.False(t, alive.IsClosed())
	assert.Equal(t, 2, aliveConn.Pings())
}

func TestSweepEvictsClosedSessions(t *testing.T) {
	store := NewSessionStore(rand.New(rand.NewSource(1)))
	sess, _ := newTestSession(1, testOpts)
	store.Add(sess)
	sess.Close()

	evicted := store.Sweep()
	require.Len(t, evicted, 1)
	assert.Same(t, sess, evicted[0])
}

func TestBroadcastSkipsSenderAndClosedSessions(t *testing.T) {
	store := NewSessionStore(rand.New(rand.NewSource(1)))
	a, _ := newTestSession(1, testOpts)
	b, _ := newTestSession(2, testOpts)
	c, _ := newTestSession(3, testOpts)
	lobby, _ := newTestSession(4, testOpts)
	for _, sess := range []*Session{a, b, c} {
		sess.SetState(packet.StateInWorld)
		store.Add(sess)
	}
	store.Add(lobby)
	c.Close()

	sent, err := store.Broadcast(packet.Message{Binary: true, Data: []byte{4, 0, 0, 0, 1}}, 1)
	assert.Equal(t, 1, sent)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSessionClosed)

	assert.Equal(t, 0, a.FlushOutput())
	assert.Len(t, a.OutQueue, 0)
	b.FlushOutput()
	assert.Len(t, b.OutQueue, 1)
	lobby.FlushOutput()
	assert.Len(t, lobby.OutQueue, 0)
}

// scriptedSource replays vals as the results of rand.Rand.Uint32.
type scriptedSource struct {
	vals  []uint32
	draws int
}

func (s *scriptedSource) Int63() int64 {
	v := s.vals[s.draws%len(s.vals)]
	s.draws++
	return int64(v) << 31
}

func (s *scriptedSource) Seed(int64) {}

func TestAllocatePlayerIDResamplesOnCollision(t *testing.T) {
	src := &scriptedSource{vals: []uint32{7, 7, 0, 7, 9}}
	store := NewSessionStore(rand.New(src))

	id, err := store.AllocatePlayerID()
	require.NoError(t, err)
	require.Equal(t, uint32(7), id)
	sess, _ := newTestSession(1, testOpts)
	store.Add(sess)
	store.BindPlayer(sess, id)

	id, err = store.AllocatePlayerID()
	require.NoError(t, err)
	assert.Equal(t, uint32(9), id)
	assert.Equal(t, 5, src.draws)
}

func TestAllocatePlayerIDExhausted(t *testing.T) {
	store := NewSessionStore(rand.New(&scriptedSource{vals: []uint32{7, 0}}))
	sess, _ := newTestSession(1, testOpts)
	store.Add(sess)
	store.BindPlayer(sess, 7)

	_, err := store.AllocatePlayerID()
	assert.ErrorIs(t, err, ErrIDSpaceExhausted)

	store.Remove(1)
	id, err := store.AllocatePlayerID()
	require.NoError(t, err)
	assert.Equal(t, uint32(7), id, "freed ids may be reused")
}
