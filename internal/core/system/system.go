package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseInput     Phase = iota // 0: accept sessions, drain inbound queues
	PhasePhysics                // 1: integrate movement
	PhaseLogic                  // 2: combat, respawn
	PhaseNetwork                // 3: snapshot broadcast
	PhaseHeartbeat              // 4: liveness sweep
	PhaseOutput                 // 5: dispatch events, flush sessions
	PhaseCleanup                // 6: release destroyed entity ids

	phaseCount
)

func (p Phase) String() string {
	switch p {
	case PhaseInput:
		return "input"
	case PhasePhysics:
		return "physics"
	case PhaseLogic:
		return "logic"
	case PhaseNetwork:
		return "network"
	case PhaseHeartbeat:
		return "heartbeat"
	case PhaseOutput:
		return "output"
	case PhaseCleanup:
		return "cleanup"
	default:
		return "unknown"
	}
}

// System is the interface every tick-level system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
