package component

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tickarena/server/internal/core/ecs"
)

func TestKindsAreDistinct(t *testing.T) {
	all := []ecs.Component{
		&Position{}, &Movement{}, &Health{}, &Player{},
		&Combat{}, &AttackIntent{}, &Dead{},
	}
	seen := make(map[ecs.Kind]bool)
	for _, c := range all {
		assert.False(t, seen[c.Kind()], "kind %d reused", c.Kind())
		assert.Less(t, int(c.Kind()), ecs.MaxKinds)
		seen[c.Kind()] = true
	}
}
