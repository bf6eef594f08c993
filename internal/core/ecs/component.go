package ecs

import "fmt"

// Kind tags a component type. The set of kinds is closed and declared by the
// package that defines the components; at most MaxKinds may exist.
type Kind uint8

const MaxKinds = 64

// Component is implemented by every record stored on an entity. Kind must not
// dereference its receiver so it can be called on a typed nil pointer.
type Component interface {
	Kind() Kind
}

// KindSet is a bitset over Kind.
type KindSet uint64

// Kinds builds a set from the given kinds.
func Kinds(ks ...Kind) KindSet {
	var s KindSet
	for _, k := range ks {
		s = s.With(k)
	}
	return s
}

func (s KindSet) With(k Kind) KindSet {
	if k >= MaxKinds {
		panic(fmt.Sprintf("ecs: component kind %d out of range", k))
	}
	return s | 1<<k
}

func (s KindSet) Without(k Kind) KindSet {
	return s &^ (1 << k)
}

func (s KindSet) Has(k Kind) bool      { return s&(1<<k) != 0 }
func (s KindSet) HasAll(o KindSet) bool { return s&o == o }
func (s KindSet) HasAny(o KindSet) bool { return s&o != 0 }
func (s KindSet) IsEmpty() bool         { return s == 0 }

// entity holds one entity's components keyed by kind, plus the cached mask
// used for filter matching.
type entity struct {
	id    EntityID
	mask  KindSet
	comps map[Kind]Component
}
