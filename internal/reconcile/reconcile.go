// Package reconcile turns a stream of full-state snapshots into smooth
// client-side motion. It only ever writes presentation state.
package reconcile

import (
	"math"
	"sort"
	"time"

	"github.com/tickarena/server/internal/net/packet"
)

// Defaults for the moving heuristic.
const (
	DefaultSmoothing       = 0.5
	DefaultMovingThreshold = 0.05
)

// Lerp linearly interpolates from a to b by t.
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// LerpAngle interpolates between two angles along the shorter arc.
func LerpAngle(a, b, t float64) float64 {
	d := math.Remainder(b-a, 2*math.Pi)
	return a + d*t
}

// Entity is one tracked player as displayed.
type Entity struct {
	ID     uint32
	X, Y   float64
	Angle  float64
	Moving bool

	targetX, targetY float64
	targetAngle      float64
	smoothX, smoothY float64
}

// Tracker holds displayed and target state for every entity in the latest
// snapshot.
type Tracker struct {
	Window          time.Duration
	Smoothing       float64
	MovingThreshold float64

	entities map[uint32]*Entity
	last     time.Time
}

func NewTracker(window time.Duration) *Tracker {
	return &Tracker{
		Window:          window,
		Smoothing:       DefaultSmoothing,
		MovingThreshold: DefaultMovingThreshold,
		entities:        make(map[uint32]*Entity),
	}
}

// Apply records a snapshot received at now. New entities appear at their
// snapshot position; entities missing from the snapshot are dropped.
func (t *Tracker) Apply(now time.Time, snap packet.Snapshot) {
	seen := make(map[uint32]bool, len(snap.Players))
	for _, ps := range snap.Players {
		seen[ps.ID] = true
		x, y := float64(ps.X), float64(ps.Y)
		e, ok := t.entities[ps.ID]
		if !ok {
			t.entities[ps.ID] = &Entity{
				ID: ps.ID, X: x, Y: y,
				targetX: x, targetY: y,
				smoothX: x, smoothY: y,
			}
			continue
		}
		if dx, dy := x-e.targetX, y-e.targetY; dx != 0 || dy != 0 {
			e.targetAngle = math.Atan2(dy, dx)
		}
		e.targetX, e.targetY = x, y
	}
	for id := range t.entities {
		if !seen[id] {
			delete(t.entities, id)
		}
	}
	t.last = now
}

// Step advances displayed state for a render pass at now. Within the window
// each entity moves from its displayed value toward its target by
// elapsed/window, clamped to [0, 1]; past the window it snaps to the target.
func (t *Tracker) Step(now time.Time) {
	elapsed := now.Sub(t.last)
	snap := t.Window <= 0 || elapsed > t.Window
	f := 1.0
	if !snap {
		f = math.Max(0, math.Min(1, float64(elapsed)/float64(t.Window)))
	}

	for _, e := range t.entities {
		if snap {
			e.X, e.Y, e.Angle = e.targetX, e.targetY, e.targetAngle
		} else {
			e.X = Lerp(e.X, e.targetX, f)
			e.Y = Lerp(e.Y, e.targetY, f)
			e.Angle = LerpAngle(e.Angle, e.targetAngle, f)
		}

		// Moving heuristic: smooth the previous value twice toward the
		// rendered one and compare.
		e.smoothX = Lerp(Lerp(e.smoothX, e.X, t.Smoothing), e.X, t.Smoothing)
		e.smoothY = Lerp(Lerp(e.smoothY, e.Y, t.Smoothing), e.Y, t.Smoothing)
		e.Moving = math.Hypot(e.X-e.smoothX, e.Y-e.smoothY) > t.MovingThreshold
	}
}

// Get returns a copy of one entity.
func (t *Tracker) Get(id uint32) (Entity, bool) {
	e, ok := t.entities[id]
	if !ok {
		return Entity{}, false
	}
	return *e, true
}

// Entities returns copies of all entities ordered by id.
func (t *Tracker) Entities() []Entity {
	out := make([]Entity, 0, len(t.entities))
	for _, e := range t.entities {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (t *Tracker) Len() int { return len(t.entities) }
