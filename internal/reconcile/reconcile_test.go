package reconcile

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tickarena/server/internal/net/packet"
)

var t0 = time.Unix(1_700_000_000, 0)

func snapshot(players ...packet.PlayerState) packet.Snapshot {
	return packet.Snapshot{Players: players}
}

func TestLerp(t *testing.T) {
	assert.Equal(t, 0.0, Lerp(0, 10, 0))
	assert.Equal(t, 10.0, Lerp(0, 10, 1))
	assert.Equal(t, 2.5, Lerp(0, 10, 0.25))
}

func TestLerpAngleTakesShortArc(t *testing.T) {
	got := LerpAngle(math.Pi-0.1, -math.Pi+0.1, 0.5)
	assert.InDelta(t, math.Pi, math.Abs(got), 1e-9)
}

func TestNewEntityAppearsAtTarget(t *testing.T) {
	tr := NewTracker(100 * time.Millisecond)
	tr.Apply(t0, snapshot(packet.PlayerState{ID: 1, X: 4, Y: -2}))

	e, ok := tr.Get(1)
	require.True(t, ok)
	assert.Equal(t, 4.0, e.X)
	assert.Equal(t, -2.0, e.Y)
}

func TestStepInterpolatesWithinWindow(t *testing.T) {
	tr := NewTracker(100 * time.Millisecond)
	tr.Apply(t0, snapshot(packet.PlayerState{ID: 1}))
	tr.Apply(t0.Add(50*time.Millisecond), snapshot(packet.PlayerState{ID: 1, X: 10}))

	tr.Step(t0.Add(100 * time.Millisecond))
	e, _ := tr.Get(1)
	assert.InDelta(t, 5.0, e.X, 1e-9)
	assert.InDelta(t, 0.0, e.Angle, 1e-9)

	// Next pass starts from the displayed value.
	tr.Step(t0.Add(100 * time.Millisecond))
	e, _ = tr.Get(1)
	assert.InDelta(t, 7.5, e.X, 1e-9)
}

func TestStepSnapsPastWindow(t *testing.T) {
	tr := NewTracker(100 * time.Millisecond)
	tr.Apply(t0, snapshot(packet.PlayerState{ID: 1}))
	tr.Apply(t0, snapshot(packet.PlayerState{ID: 1, X: 0, Y: 10}))

	tr.Step(t0.Add(101 * time.Millisecond))
	e, _ := tr.Get(1)
	assert.Equal(t, 10.0, e.Y)
	assert.InDelta(t, math.Pi/2, e.Angle, 1e-9)
}

func TestStepClampsFactor(t *testing.T) {
	tr := NewTracker(100 * time.Millisecond)
	tr.Apply(t0, snapshot(packet.PlayerState{ID: 1}))
	tr.Apply(t0, snapshot(packet.PlayerState{ID: 1, X: 10}))

	// A render pass stamped before the snapshot does not extrapolate backwards.
	tr.Step(t0.Add(-time.Second))
	e, _ := tr.Get(1)
	assert.Equal(t, 0.0, e.X)

	tr.Step(t0.Add(100 * time.Millisecond))
	e, _ = tr.Get(1)
	assert.Equal(t, 10.0, e.X)
}

func TestAbsentEntitiesDropped(t *testing.T) {
	tr := NewTracker(100 * time.Millisecond)
	tr.Apply(t0, snapshot(packet.PlayerState{ID: 1}, packet.PlayerState{ID: 2}))
	require.Equal(t, 2, tr.Len())

	tr.Apply(t0, snapshot(packet.PlayerState{ID: 2}))
	_, ok := tr.Get(1)
	assert.False(t, ok)
	ids := []uint32{}
	for _, e := range tr.Entities() {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []uint32{2}, ids)
}

func TestMovingHeuristic(t *testing.T) {
	tr := NewTracker(100 * time.Millisecond)
	tr.Apply(t0, snapshot(packet.PlayerState{ID: 1}))
	tr.Step(t0)
	e, _ := tr.Get(1)
	assert.False(t, e.Moving)

	tr.Apply(t0, snapshot(packet.PlayerState{ID: 1, X: 5}))
	tr.Step(t0.Add(time.Second))
	e, _ = tr.Get(1)
	assert.True(t, e.Moving)

	for i := 0; i < 20; i++ {
		tr.Step(t0.Add(time.Second))
	}
	e, _ = tr.Get(1)
	assert.False(t, e.Moving)
	assert.Equal(t, 5.0, e.X, "heuristic never touches displayed position")
}
