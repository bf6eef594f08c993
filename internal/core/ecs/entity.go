package ecs

import "math/rand"

// EntityID is an opaque 32-bit handle. Zero is never handed out.
type EntityID uint32

func (id EntityID) IsZero() bool { return id == 0 }

// EntityPool allocates random identifiers. An identifier stays reserved until
// Release is called, so a freshly created entity never collides with one that
// is still referenced elsewhere.
type EntityPool struct {
	rng  *rand.Rand
	used map[EntityID]struct{}
}

func NewEntityPool(rng *rand.Rand) *EntityPool {
	return &EntityPool{
		rng:  rng,
		used: make(map[EntityID]struct{}, 256),
	}
}

// Create rejection-samples until it finds an identifier not in use.
func (p *EntityPool) Create() EntityID {
	for {
		id := EntityID(p.rng.Uint32())
		if id.IsZero() {
			continue
		}
		if _, taken := p.used[id]; taken {
			continue
		}
		p.used[id] = struct{}{}
		return id
	}
}

func (p *EntityPool) InUse(id EntityID) bool {
	_, ok := p.used[id]
	return ok
}

// Release makes id available to Create again.
func (p *EntityPool) Release(id EntityID) {
	delete(p.used, id)
}

func (p *EntityPool) Len() int {
	return len(p.used)
}
