// Package game assembles the world, systems and handlers, and runs the tick
// loop that owns all game state.
package game

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/tickarena/server/internal/config"
	"github.com/tickarena/server/internal/core/ecs"
	"github.com/tickarena/server/internal/core/event"
	coresys "github.com/tickarena/server/internal/core/system"
	"github.com/tickarena/server/internal/data"
	"github.com/tickarena/server/internal/handler"
	"github.com/tickarena/server/internal/metrics"
	"github.com/tickarena/server/internal/net"
	"github.com/tickarena/server/internal/net/packet"
	"github.com/tickarena/server/internal/scripting"
	"github.com/tickarena/server/internal/system"
	"github.com/tickarena/server/internal/world"
	"go.uber.org/zap"
)

// Game is the authoritative simulation. Everything except Run's tickers is
// touched only from the goroutine calling Run (or Step, in tests).
type Game struct {
	Config   *config.Config
	Log      *zap.Logger
	World    *world.State
	Sessions *net.SessionStore
	Bus      *event.Bus
	Registry *packet.Registry
	Metrics  *metrics.Metrics
	Deps     *handler.Deps

	runner  *coresys.Runner
	scripts *scripting.Engine
}

// New builds a game fed by sessions from source. m may be nil.
func New(cfg *config.Config, source system.SessionSource, m *metrics.Metrics, log *zap.Logger) (*Game, error) {
	attacks, err := data.LoadAttackTable(cfg.Combat.AttackTable)
	if err != nil {
		return nil, fmt.Errorf("attack table: %w", err)
	}
	scripts, err := scripting.NewEngine(cfg.Combat.ScriptsDir, log)
	if err != nil {
		return nil, fmt.Errorf("scripting: %w", err)
	}

	seed := cfg.Game.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	ecsWorld := ecs.NewWorld(rand.New(rand.NewSource(seed)))
	ecsWorld.OnReplace = func(id ecs.EntityID, k ecs.Kind) {
		log.Error("component replaced", zap.Uint32("entity", uint32(id)), zap.Uint8("kind", uint8(k)))
	}
	ecsWorld.RegisterSystem(system.MovementSystem{})
	ecsWorld.RegisterSystem(system.BoundsSystem{HalfExtent: cfg.Game.ArenaHalfExtent})

	g := &Game{
		Config:   cfg,
		Log:      log,
		World:    world.NewState(ecsWorld),
		Sessions: net.NewSessionStore(rand.New(rand.NewSource(seed + 1))),
		Bus:      event.NewBus(),
		Registry: packet.NewRegistry(log),
		Metrics:  m,
		runner:   coresys.NewRunner(),
		scripts:  scripts,
	}
	g.Deps = &handler.Deps{
		Config:   cfg,
		Log:      log,
		World:    g.World,
		Sessions: g.Sessions,
		Bus:      g.Bus,
		Metrics:  m,
	}
	if m != nil {
		g.runner.Observe = func(p coresys.Phase, d time.Duration) {
			m.ObservePhase(p.String(), d)
		}
	}
	handler.RegisterAll(g.Registry, g.Deps)
	handler.SubscribeEvents(g.Deps)

	g.runner.Register(system.NewInputSystem(source, g.Registry, g.Deps, cfg.Network.MaxPacketsPerTick))
	g.runner.Register(system.NewPhysicsSystem(ecsWorld))
	g.runner.Register(system.NewCombatSystem(g.World, attacks, scripts, g.Bus, log))
	g.runner.Register(system.NewRespawnSystem(g.World, cfg.Game.RespawnDelay, g.Bus))
	g.runner.Register(system.NewSnapshotSystem(g.World, g.Sessions, m, log))
	g.runner.Register(system.NewHeartbeatSystem(g.Deps))
	g.runner.Register(system.NewOutputSystem(g.Bus, g.Sessions, m))
	g.runner.Register(system.NewCleanupSystem(ecsWorld))
	return g, nil
}

// Step runs one tick of the given kind: input, the tick's own phase, then
// output and cleanup.
func (g *Game) Step(phase coresys.Phase, dt time.Duration) {
	g.runner.TickPhases(dt, coresys.PhaseInput, phase, coresys.PhaseOutput, coresys.PhaseCleanup)
}

// Run drives the four tick timers until ctx is cancelled.
func (g *Game) Run(ctx context.Context) error {
	physicsDt := config.Interval(g.Config.Game.PhysicsHz)
	logicDt := config.Interval(g.Config.Game.LogicHz)
	networkDt := config.Interval(g.Config.Network.NetworkHz)
	heartbeatDt := g.Config.Network.Heartbeat

	physics := time.NewTicker(physicsDt)
	defer physics.Stop()
	logic := time.NewTicker(logicDt)
	defer logic.Stop()
	network := time.NewTicker(networkDt)
	defer network.Stop()
	heartbeat := time.NewTicker(heartbeatDt)
	defer heartbeat.Stop()

	for {
		select {
		case <-physics.C:
			g.Step(coresys.PhasePhysics, physicsDt)
		case <-logic.C:
			g.Step(coresys.PhaseLogic, logicDt)
		case <-network.C:
			g.Step(coresys.PhaseNetwork, networkDt)
		case <-heartbeat.C:
			g.Step(coresys.PhaseHeartbeat, heartbeatDt)
		case <-ctx.Done():
			g.shutdown()
			return nil
		}
	}
}

// shutdown closes every session and releases the script VM.
func (g *Game) shutdown() {
	for _, sess := range g.Sessions.All() {
		sess.Close()
		handler.Disconnect(sess, g.Deps)
	}
	g.Bus.SwapBuffers()
	g.Bus.DispatchAll()
	g.scripts.Close()
}
