package scripting

import (
	_ "embed"
	"fmt"
	"math"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

//go:embed lua/combat.lua
var builtinCombat string

// Engine wraps a single gopher-lua VM for combat formulas.
// Single-goroutine access only (game loop).
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates a Lua engine with the built-in combat script, then loads
// every .lua file under scriptsDir/combat. An empty scriptsDir loads only the
// built-in script.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState()
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}

	if err := vm.DoString(builtinCombat); err != nil {
		vm.Close()
		return nil, fmt.Errorf("load builtin combat script: %w", err)
	}
	if scriptsDir != "" {
		if err := e.loadDir(filepath.Join(scriptsDir, "combat")); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load combat scripts: %w", err)
		}
	}
	return e, nil
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// Combatant is one side of an attack.
type Combatant struct {
	ID    uint32
	X, Y  float64
	HP    int
	MaxHP int
}

// AttackContext holds pre-packed data for an attack calculation.
type AttackContext struct {
	Code     uint8
	Name     string
	Range    float64
	Damage   int // table damage, also the fallback
	Attacker Combatant
	Target   Combatant
	Distance float64
}

// AttackResult is returned by the Lua combat function.
type AttackResult struct {
	Damage int
	// Scripted is false when the script failed and the table damage was used.
	Scripted bool
}

// CalcAttack calls the Lua calc_attack function. Any script failure falls back
// to the table damage.
func (e *Engine) CalcAttack(ctx AttackContext) AttackResult {
	fallback := AttackResult{Damage: ctx.Damage}

	fn := e.vm.GetGlobal("calc_attack")
	if fn == lua.LNil {
		e.log.Error("lua function calc_attack not found")
		return fallback
	}

	t := e.vm.NewTable()

	atk := e.vm.NewTable()
	atk.RawSetString("code", lua.LNumber(ctx.Code))
	atk.RawSetString("name", lua.LString(ctx.Name))
	atk.RawSetString("range", lua.LNumber(ctx.Range))
	atk.RawSetString("damage", lua.LNumber(ctx.Damage))
	t.RawSetString("attack", atk)
	t.RawSetString("attacker", e.combatant(ctx.Attacker))
	t.RawSetString("target", e.combatant(ctx.Target))
	t.RawSetString("distance", lua.LNumber(ctx.Distance))

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, t); err != nil {
		e.log.Error("lua calc_attack error", zap.Error(err))
		return fallback
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)

	rt, ok := result.(*lua.LTable)
	if !ok {
		e.log.Error("lua calc_attack returned non-table")
		return fallback
	}
	dmg, ok := rt.RawGetString("damage").(lua.LNumber)
	if !ok {
		e.log.Error("lua calc_attack returned no damage")
		return fallback
	}
	v := float64(dmg)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		e.log.Error("lua calc_attack returned non-finite damage", zap.Float64("damage", v))
		return fallback
	}
	if v < 0 {
		v = 0
	}
	if limit := float64(ctx.Target.MaxHP); limit > 0 && v > limit {
		v = limit
	}
	return AttackResult{Damage: int(v), Scripted: true}
}

func (e *Engine) combatant(c Combatant) *lua.LTable {
	t := e.vm.NewTable()
	t.RawSetString("id", lua.LNumber(c.ID))
	t.RawSetString("x", lua.LNumber(c.X))
	t.RawSetString("y", lua.LNumber(c.Y))
	t.RawSetString("hp", lua.LNumber(c.HP))
	t.RawSetString("max_hp", lua.LNumber(c.MaxHP))
	return t
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}
