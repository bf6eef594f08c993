package ecs

import (
	"errors"
	"math/rand"
	"time"
)

var ErrNoEntity = errors.New("ecs: no such entity")

// World is the top-level ECS container. It owns the entity pool, the
// per-entity component sets, the ordered system list and a deferred release
// queue flushed by CleanupSystem each tick.
type World struct {
	pool     *EntityPool
	entities map[EntityID]*entity
	order    []EntityID // insertion order
	systems  []System

	destroyQueue []EntityID
	releaseQueue []EntityID

	// OnReplace, when set, is called whenever AddComponent overwrites a
	// component of the same kind.
	OnReplace func(id EntityID, k Kind)
}

func NewWorld(rng *rand.Rand) *World {
	return &World{
		pool:         NewEntityPool(rng),
		entities:     make(map[EntityID]*entity, 256),
		order:        make([]EntityID, 0, 256),
		releaseQueue: make([]EntityID, 0, 64),
	}
}

func (w *World) Pool() *EntityPool { return w.pool }

// Len returns the number of live entities.
func (w *World) Len() int { return len(w.order) }

func (w *World) CreateEntity() EntityID {
	id := w.pool.Create()
	w.entities[id] = &entity{
		id:    id,
		comps: make(map[Kind]Component, 8),
	}
	w.order = append(w.order, id)
	return id
}

func (w *World) Alive(id EntityID) bool {
	_, ok := w.entities[id]
	return ok
}

// DestroyEntity removes id and all of its components right away. The
// identifier itself stays reserved until FlushDestroyQueue, so nothing created
// later in the same tick can reuse it.
func (w *World) DestroyEntity(id EntityID) {
	if _, ok := w.entities[id]; !ok {
		return // already destroyed (stale reference)
	}
	delete(w.entities, id)
	for i, oid := range w.order {
		if oid == id {
			w.order = append(w.order[:i], w.order[i+1:]...)
			break
		}
	}
	w.releaseQueue = append(w.releaseQueue, id)
}

// MarkForDestruction defers DestroyEntity to the next FlushDestroyQueue. The
// entity stays visible to systems until then.
func (w *World) MarkForDestruction(id EntityID) {
	if _, ok := w.entities[id]; ok {
		w.destroyQueue = append(w.destroyQueue, id)
	}
}

// FlushDestroyQueue destroys marked entities, then returns the identifiers of
// every destroyed entity to the pool. Called by CleanupSystem at the end of
// each tick.
func (w *World) FlushDestroyQueue() {
	for _, id := range w.destroyQueue {
		w.DestroyEntity(id)
	}
	w.destroyQueue = w.destroyQueue[:0]
	for _, id := range w.releaseQueue {
		w.pool.Release(id)
	}
	w.releaseQueue = w.releaseQueue[:0]
}

// AddComponent attaches c to id. An existing component of the same kind is
// overwritten (last write wins); replaced reports that and OnReplace is
// notified. Callers that mean to swap a component remove it first.
func (w *World) AddComponent(id EntityID, c Component) (replaced bool, err error) {
	e, ok := w.entities[id]
	if !ok {
		return false, ErrNoEntity
	}
	k := c.Kind()
	_, replaced = e.comps[k]
	e.comps[k] = c
	e.mask = e.mask.With(k)
	if replaced && w.OnReplace != nil {
		w.OnReplace(id, k)
	}
	return replaced, nil
}

func (w *World) RemoveComponent(id EntityID, k Kind) {
	e, ok := w.entities[id]
	if !ok {
		return
	}
	delete(e.comps, k)
	e.mask = e.mask.Without(k)
}

func (w *World) GetComponent(id EntityID, k Kind) (Component, bool) {
	e, ok := w.entities[id]
	if !ok {
		return nil, false
	}
	c, ok := e.comps[k]
	return c, ok
}

func (w *World) HasComponent(id EntityID, k Kind) bool {
	e, ok := w.entities[id]
	return ok && e.mask.Has(k)
}

// RegisterSystem appends s. Systems run in registration order.
func (w *World) RegisterSystem(s System) {
	w.systems = append(w.systems, s)
}

// Update runs every registered system once. The matching set is recomputed
// for each system, so a system sees the effects of the ones before it and
// never visits an entity destroyed earlier in the pass.
func (w *World) Update(dt time.Duration) {
	for _, s := range w.systems {
		f := s.Filter()
		for _, id := range w.EntitiesFor(f) {
			if !w.Alive(id) {
				continue
			}
			s.Process(w, id, dt)
		}
	}
}
