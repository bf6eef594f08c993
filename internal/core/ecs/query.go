package ecs

// Filter selects entities by component kinds.
//
//   - Must: every kind has to be present.
//   - Any: at least one kind has to be present; an empty set disables the check.
//   - Exclude: none of the kinds may be present; an empty set disables the check.
type Filter struct {
	Must    KindSet
	Any     KindSet
	Exclude KindSet
}

func (f Filter) Matches(mask KindSet) bool {
	if !mask.HasAll(f.Must) {
		return false
	}
	if !f.Any.IsEmpty() && !mask.HasAny(f.Any) {
		return false
	}
	if !f.Exclude.IsEmpty() && mask.HasAny(f.Exclude) {
		return false
	}
	return true
}

// EntitiesFor returns the entities matching f in insertion order. The result
// is a fresh slice; it is never cached across calls.
func (w *World) EntitiesFor(f Filter) []EntityID {
	out := make([]EntityID, 0, len(w.order))
	for _, id := range w.order {
		if f.Matches(w.entities[id].mask) {
			out = append(out, id)
		}
	}
	return out
}

// Each calls fn for every entity matching f. Entities destroyed by fn (or by
// an earlier call) are skipped.
func (w *World) Each(f Filter, fn func(EntityID)) {
	for _, id := range w.EntitiesFor(f) {
		if !w.Alive(id) {
			continue
		}
		fn(id)
	}
}

// Get returns the component of type T attached to id. T is normally a pointer
// type such as *component.Position.
func Get[T Component](w *World, id EntityID) (T, bool) {
	var zero T
	c, ok := w.GetComponent(id, zero.Kind())
	if !ok {
		return zero, false
	}
	t, ok := c.(T)
	return t, ok
}
