package ecs

import "time"

// System is a filter plus an operation applied to each matching entity.
// Systems keep no per-entity state; everything lives in components.
type System interface {
	Filter() Filter
	Process(w *World, id EntityID, dt time.Duration)
}

// SystemFunc adapts a plain function to System.
type SystemFunc struct {
	F  Filter
	Fn func(w *World, id EntityID, dt time.Duration)
}

func (s SystemFunc) Filter() Filter { return s.F }

func (s SystemFunc) Process(w *World, id EntityID, dt time.Duration) {
	s.Fn(w, id, dt)
}
