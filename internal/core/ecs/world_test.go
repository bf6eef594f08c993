package ecs_test

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tickarena/server/internal/core/ecs"
)

const (
	kindPos ecs.Kind = iota
	kindVel
	kindTag
)

type pos struct{ X, Y float64 }

func (*pos) Kind() ecs.Kind { return kindPos }

type vel struct{ DX, DY float64 }

func (*vel) Kind() ecs.Kind { return kindVel }

type tag struct{}

func (*tag) Kind() ecs.Kind { return kindTag }

func newWorld() *ecs.World {
	return ecs.NewWorld(rand.New(rand.NewSource(1)))
}

func TestEntitiesForMust(t *testing.T) {
	w := newWorld()

	onlyPos := w.CreateEntity()
	_, err := w.AddComponent(onlyPos, &pos{})
	require.NoError(t, err)

	both := w.CreateEntity()
	_, err = w.AddComponent(both, &pos{})
	require.NoError(t, err)
	_, err = w.AddComponent(both, &vel{})
	require.NoError(t, err)

	onlyVel := w.CreateEntity()
	_, err = w.AddComponent(onlyVel, &vel{})
	require.NoError(t, err)

	got := w.EntitiesFor(ecs.Filter{Must: ecs.Kinds(kindPos, kindVel)})
	assert.Equal(t, []ecs.EntityID{both}, got)
}

func TestFilterAnyAndExclude(t *testing.T) {
	w := newWorld()

	a := w.CreateEntity()
	w.AddComponent(a, &pos{})
	b := w.CreateEntity()
	w.AddComponent(b, &pos{})
	w.AddComponent(b, &tag{})
	c := w.CreateEntity()
	w.AddComponent(c, &vel{})

	t.Run("empty any and exclude are not applied", func(t *testing.T) {
		got := w.EntitiesFor(ecs.Filter{Must: ecs.Kinds(kindPos)})
		assert.Equal(t, []ecs.EntityID{a, b}, got)
	})

	t.Run("any", func(t *testing.T) {
		got := w.EntitiesFor(ecs.Filter{Any: ecs.Kinds(kindTag, kindVel)})
		assert.Equal(t, []ecs.EntityID{b, c}, got)
	})

	t.Run("exclude", func(t *testing.T) {
		got := w.EntitiesFor(ecs.Filter{Must: ecs.Kinds(kindPos), Exclude: ecs.Kinds(kindTag)})
		assert.Equal(t, []ecs.EntityID{a}, got)
	})

	t.Run("filtering does not mutate the registry", func(t *testing.T) {
		got := w.EntitiesFor(ecs.Filter{})
		assert.Equal(t, []ecs.EntityID{a, b, c}, got)
	})
}

func TestComponentStorage(t *testing.T) {
	w := newWorld()
	id := w.CreateEntity()

	replaced, err := w.AddComponent(id, &pos{X: 1})
	require.NoError(t, err)
	assert.False(t, replaced)

	var reported []ecs.Kind
	w.OnReplace = func(got ecs.EntityID, k ecs.Kind) {
		assert.Equal(t, id, got)
		reported = append(reported, k)
	}
	replaced, err = w.AddComponent(id, &pos{X: 2})
	require.NoError(t, err)
	assert.True(t, replaced, "second add of the same kind must be reported")
	assert.Equal(t, []ecs.Kind{kindPos}, reported)

	_, err = w.AddComponent(id, &vel{})
	require.NoError(t, err)
	assert.Len(t, reported, 1, "a new kind is not a replacement")

	p, ok := ecs.Get[*pos](w, id)
	require.True(t, ok)
	assert.Equal(t, 2.0, p.X, "last write wins")

	w.RemoveComponent(id, kindPos)
	_, ok = ecs.Get[*pos](w, id)
	assert.False(t, ok)
	assert.False(t, w.HasComponent(id, kindPos))

	_, err = w.AddComponent(ecs.EntityID(12345), &pos{})
	assert.ErrorIs(t, err, ecs.ErrNoEntity)
}

func TestUpdateRunsSystemsInRegistrationOrder(t *testing.T) {
	w := newWorld()
	id := w.CreateEntity()
	w.AddComponent(id, &pos{})
	w.AddComponent(id, &vel{DX: 3})

	var trace []string
	w.RegisterSystem(ecs.SystemFunc{
		F: ecs.Filter{Must: ecs.Kinds(kindPos, kindVel)},
		Fn: func(w *ecs.World, id ecs.EntityID, _ time.Duration) {
			p, _ := ecs.Get[*pos](w, id)
			v, _ := ecs.Get[*vel](w, id)
			p.X += v.DX
			trace = append(trace, "move")
		},
	})
	w.RegisterSystem(ecs.SystemFunc{
		F: ecs.Filter{Must: ecs.Kinds(kindPos)},
		Fn: func(w *ecs.World, id ecs.EntityID, _ time.Duration) {
			p, _ := ecs.Get[*pos](w, id)
			if p.X > 2 {
				p.X = 2
			}
			trace = append(trace, "clamp")
		},
	})

	w.Update(time.Second / 60)
	assert.Equal(t, []string{"move", "clamp"}, trace)

	p, _ := ecs.Get[*pos](w, id)
	assert.Equal(t, 2.0, p.X, "clamp must see the moved position")
}

func TestUpdateSkipsEntitiesDestroyedMidPass(t *testing.T) {
	w := newWorld()
	first := w.CreateEntity()
	w.AddComponent(first, &pos{})
	second := w.CreateEntity()
	w.AddComponent(second, &pos{})

	var visited []ecs.EntityID
	w.RegisterSystem(ecs.SystemFunc{
		F: ecs.Filter{Must: ecs.Kinds(kindPos)},
		Fn: func(w *ecs.World, id ecs.EntityID, _ time.Duration) {
			visited = append(visited, id)
			w.DestroyEntity(second)
		},
	})
	w.Update(0)

	assert.Equal(t, []ecs.EntityID{first}, visited)
	assert.False(t, w.Alive(second))
}

func TestEntityIDsStayReservedUntilFlush(t *testing.T) {
	w := newWorld()

	seen := make(map[ecs.EntityID]bool)
	for i := 0; i < 1000; i++ {
		id := w.CreateEntity()
		require.False(t, id.IsZero())
		require.False(t, seen[id], "duplicate entity id %d", id)
		seen[id] = true
	}

	var victim ecs.EntityID
	for id := range seen {
		victim = id
		break
	}
	w.DestroyEntity(victim)
	assert.False(t, w.Alive(victim))
	assert.True(t, w.Pool().InUse(victim), "id must stay reserved until the queue is flushed")

	w.FlushDestroyQueue()
	assert.False(t, w.Pool().InUse(victim))
	assert.Equal(t, 999, w.Len())
}

func TestMarkForDestructionDefersUntilFlush(t *testing.T) {
	w := newWorld()
	id := w.CreateEntity()
	w.AddComponent(id, &pos{})

	w.MarkForDestruction(id)
	w.MarkForDestruction(id)
	assert.True(t, w.Alive(id))
	assert.Equal(t, []ecs.EntityID{id}, w.EntitiesFor(ecs.Filter{Must: ecs.Kinds(kindPos)}))

	w.FlushDestroyQueue()
	assert.False(t, w.Alive(id))
	assert.False(t, w.Pool().InUse(id))
	assert.Zero(t, w.Len())
}

type scriptedSource struct {
	vals  []uint32
	draws int
}

func (s *scriptedSource) Int63() int64 {
	v := s.vals[s.draws%len(s.vals)]
	s.draws++
	return int64(v) << 31
}

func (s *scriptedSource) Seed(int64) {}

func TestEntityPoolResamplesOnCollision(t *testing.T) {
	src := &scriptedSource{vals: []uint32{7, 7, 0, 7, 9}}
	pool := ecs.NewEntityPool(rand.New(src))

	assert.Equal(t, ecs.EntityID(7), pool.Create())
	assert.Equal(t, ecs.EntityID(9), pool.Create())
	assert.Equal(t, 5, src.draws)
	assert.Equal(t, 2, pool.Len())

	pool.Release(7)
	src.vals, src.draws = []uint32{7}, 0
	assert.Equal(t, ecs.EntityID(7), pool.Create(), "released ids may be reused")
}
