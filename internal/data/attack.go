package data

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed attacks.yaml
var defaultAttacks []byte

// AttackEntry defines one attack code a client may send.
type AttackEntry struct {
	Code       uint8   `yaml:"code"`
	Name       string  `yaml:"name"`
	Range      float64 `yaml:"range"`
	CooldownMs int     `yaml:"cooldown_ms"`
	Damage     int     `yaml:"damage"`
}

// Cooldown returns the entry's cooldown as a duration.
func (e *AttackEntry) Cooldown() time.Duration {
	return time.Duration(e.CooldownMs) * time.Millisecond
}

// AttackTable provides lookup of attacks by code.
type AttackTable struct {
	attacks map[uint8]*AttackEntry
}

// LoadAttackTable loads an attack list yaml file. An empty path loads the
// built-in table.
func LoadAttackTable(path string) (*AttackTable, error) {
	if path == "" {
		return ParseAttackTable(defaultAttacks)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read attack table: %w", err)
	}
	return ParseAttackTable(raw)
}

// ParseAttackTable decodes an attack list.
func ParseAttackTable(raw []byte) (*AttackTable, error) {
	var entries []AttackEntry
	if err := yaml.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parse attack table: %w", err)
	}
	t := &AttackTable{
		attacks: make(map[uint8]*AttackEntry, len(entries)),
	}
	for i := range entries {
		e := &entries[i]
		if _, dup := t.attacks[e.Code]; dup {
			return nil, fmt.Errorf("parse attack table: duplicate code %d", e.Code)
		}
		if e.Range <= 0 || e.Damage < 0 || e.CooldownMs < 0 {
			return nil, fmt.Errorf("parse attack table: invalid entry for code %d", e.Code)
		}
		t.attacks[e.Code] = e
	}
	return t, nil
}

// Get returns the attack for code, or nil if none.
func (t *AttackTable) Get(code uint8) *AttackEntry {
	return t.attacks[code]
}

// Count returns the number of attacks loaded.
func (t *AttackTable) Count() int {
	return len(t.attacks)
}
