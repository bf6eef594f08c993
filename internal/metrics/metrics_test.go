package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New()
	m.Players.Set(3)
	m.Evictions.Inc()
	m.SnapshotBytes.Add(26)
	m.RejectedFrames.WithLabelValues("short").Inc()
	m.ObservePhase("physics", 2*time.Millisecond)

	body := scrape(t, m)
	assert.Contains(t, body, "tickarena_players 3")
	assert.Contains(t, body, "tickarena_heartbeat_evictions_total 1")
	assert.Contains(t, body, "tickarena_snapshot_bytes_total 26")
	assert.Contains(t, body, `tickarena_rejected_frames_total{kind="short"} 1`)
	assert.Contains(t, body, `tickarena_tick_duration_seconds_count{phase="physics"} 1`)
}

func TestRegistriesAreIndependent(t *testing.T) {
	a, b := New(), New()
	a.Players.Set(5)
	assert.Contains(t, scrape(t, b), "tickarena_players 0")
}
