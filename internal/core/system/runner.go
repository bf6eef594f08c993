package system

import (
	"sort"
	"time"
)

// Runner executes systems in phase order. Within a phase, systems run in
// registration order.
type Runner struct {
	systems []System
	sorted  bool

	// Observe, when set, receives the wall time of every phase that ran at
	// least one system.
	Observe func(phase Phase, d time.Duration)
}

func NewRunner() *Runner {
	return &Runner{
		systems: make([]System, 0, 16),
	}
}

func (r *Runner) Register(s System) {
	r.systems = append(r.systems, s)
	r.sorted = false
}

// TickPhases runs the systems of the listed phases, still in phase order
// regardless of the order they are listed in.
func (r *Runner) TickPhases(dt time.Duration, phases ...Phase) {
	var want [phaseCount]bool
	for _, p := range phases {
		if p >= 0 && p < phaseCount {
			want[p] = true
		}
	}
	r.run(dt, func(p Phase) bool { return p >= 0 && p < phaseCount && want[p] })
}

func (r *Runner) run(dt time.Duration, want func(Phase) bool) {
	r.ensureSorted()

	var (
		current Phase
		started time.Time
		open    bool
	)
	for _, s := range r.systems {
		p := s.Phase()
		if !want(p) {
			continue
		}
		if !open || p != current {
			r.observe(current, started, open)
			current, started, open = p, time.Now(), true
		}
		s.Update(dt)
	}
	r.observe(current, started, open)
}

func (r *Runner) observe(p Phase, started time.Time, open bool) {
	if open && r.Observe != nil {
		r.Observe(p, time.Since(started))
	}
}

func (r *Runner) ensureSorted() {
	if !r.sorted {
		sort.SliceStable(r.systems, func(i, j int) bool {
			return r.systems[i].Phase() < r.systems[j].Phase()
		})
		r.sorted = true
	}
}
