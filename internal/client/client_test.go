package client

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tickarena/server/internal/config"
	"github.com/tickarena/server/internal/game"
	"github.com/tickarena/server/internal/metrics"
	"github.com/tickarena/server/internal/net"
	"github.com/tickarena/server/internal/net/packet"
	"go.uber.org/zap"
)

// startArena runs a real server and game loop on a loopback port and returns
// the WebSocket URL.
func startArena(t *testing.T, tweak func(*config.Config)) string {
	t.Helper()
	cfg := config.Defaults()
	cfg.Network.BindAddress = "127.0.0.1:0"
	cfg.Network.NetworkHz = 50
	cfg.Network.Heartbeat = time.Hour
	cfg.Game.MovementSpeed = 0
	cfg.Game.Seed = 7
	if tweak != nil {
		tweak(cfg)
	}

	log := zap.NewNop()
	srv, err := net.NewServer(cfg.Network.BindAddress, net.SessionOptions{
		InQueueSize:  cfg.Network.InQueueSize,
		OutQueueSize: cfg.Network.OutQueueSize,
		WriteTimeout: cfg.Network.WriteTimeout,
		ReadLimit:    cfg.Network.ReadLimit,
	}, log)
	require.NoError(t, err)

	g, err := game.New(cfg, srv, metrics.New(), log)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		g.Run(ctx)
	}()
	go srv.Serve()

	t.Cleanup(func() {
		cancel()
		<-loopDone
		shutdownCtx, done := context.WithTimeout(context.Background(), time.Second)
		defer done()
		srv.Shutdown(shutdownCtx)
	})
	return fmt.Sprintf("ws://%s%s", srv.Addr(), net.WSPath)
}

func dial(t *testing.T, url string) *Client {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	c, err := Dial(ctx, url, 100*time.Millisecond, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { c.conn.Close() })
	return c
}

// waitFor reads messages until match accepts one.
func waitFor(t *testing.T, c *Client, match func(any) bool) any {
	t.Helper()
	require.NoError(t, c.conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	defer c.conn.SetReadDeadline(time.Time{})
	for {
		msg, err := c.Next()
		require.NoError(t, err)
		if match(msg) {
			return msg
		}
	}
}

func TestJoinSnapshotAndDisconnect(t *testing.T) {
	url := startArena(t, nil)
	a, b := dial(t, url), dial(t, url)

	wa, err := a.Join()
	require.NoError(t, err)
	assert.NotZero(t, wa.ID)
	assert.Empty(t, wa.PlayerList)

	wb, err := b.Join()
	require.NoError(t, err)
	require.Len(t, wb.PlayerList, 1)
	assert.Equal(t, wa.ID, wb.PlayerList[0].ID)

	np := waitFor(t, a, func(m any) bool {
		_, ok := m.(packet.NewPlayer)
		return ok
	}).(packet.NewPlayer)
	assert.Equal(t, wb.ID, np.ID)

	waitFor(t, a, func(m any) bool {
		s, ok := m.(packet.Snapshot)
		return ok && len(s.Players) == 2
	})
	assert.Equal(t, 2, a.Tracker.Len())

	require.NoError(t, b.Close())
	pd := waitFor(t, a, func(m any) bool {
		_, ok := m.(packet.PlayerDisconnect)
		return ok
	}).(packet.PlayerDisconnect)
	assert.Equal(t, wb.ID, pd.ID)

	waitFor(t, a, func(m any) bool {
		s, ok := m.(packet.Snapshot)
		return ok && len(s.Players) == 1
	})
	_, ok := a.Tracker.Get(wb.ID)
	assert.False(t, ok)
}

func TestAttackProducesHit(t *testing.T) {
	url := startArena(t, nil)
	a, b := dial(t, url), dial(t, url)
	_, err := a.Join()
	require.NoError(t, err)
	wb, err := b.Join()
	require.NoError(t, err)

	require.NoError(t, a.SendAttack(wb.ID, 0))
	hit := waitFor(t, b, func(m any) bool {
		_, ok := m.(packet.Hit)
		return ok
	}).(packet.Hit)
	assert.Equal(t, a.ID, hit.AttackerID)
	assert.Equal(t, wb.ID, hit.TargetID)
	assert.Equal(t, int16(90), hit.HP)
}

func TestMoveIntentChangesSnapshot(t *testing.T) {
	url := startArena(t, func(cfg *config.Config) { cfg.Game.MovementSpeed = 1 })
	a := dial(t, url)
	_, err := a.Join()
	require.NoError(t, err)

	require.NoError(t, a.SendMove(0, 1000))
	waitFor(t, a, func(m any) bool {
		s, ok := m.(packet.Snapshot)
		return ok && len(s.Players) == 1 && s.Players[0].Y > 1
	})
}

func TestJoinRefusedWhenFull(t *testing.T) {
	url := startArena(t, func(cfg *config.Config) { cfg.Game.MaxPlayers = 1 })
	a, b := dial(t, url), dial(t, url)
	_, err := a.Join()
	require.NoError(t, err)

	_, err = b.Join()
	assert.True(t, errors.Is(err, ErrRefused), "got %v", err)
}
