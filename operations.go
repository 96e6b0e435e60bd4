// Package weaveecs provides an archetype-based Entity-Component-System
// runtime for building real-time interactive applications.
package weaveecs

import "unsafe"

// AddComponent adds a component of type T to an entity, or overwrites it if
// already present. It returns a pointer to the stored component. Backed by
// World.addComponents, the same dynamic core the CommandBuffer and
// relationship engine use, rather than a per-arity structural-mutation
// path duplicated for each call site.
func AddComponent[T any](w *World, e EntityID, value T) (*T, error) {
	if err := w.addComponents(e, NewComponentValue(value)); err != nil {
		return nil, err
	}
	return GetComponent[T](w, e)
}

// AddComponent2 adds two components to an entity in one structural move.
func AddComponent2[T1, T2 any](w *World, e EntityID, v1 T1, v2 T2) error {
	return w.addComponents(e, NewComponentValue(v1), NewComponentValue(v2))
}

// AddComponent3 adds three components to an entity in one structural move.
func AddComponent3[T1, T2, T3 any](w *World, e EntityID, v1 T1, v2 T2, v3 T3) error {
	return w.addComponents(e, NewComponentValue(v1), NewComponentValue(v2), NewComponentValue(v3))
}

// AddComponent4 adds four components to an entity in one structural move.
func AddComponent4[T1, T2, T3, T4 any](w *World, e EntityID, v1 T1, v2 T2, v3 T3, v4 T4) error {
	return w.addComponents(e, NewComponentValue(v1), NewComponentValue(v2), NewComponentValue(v3), NewComponentValue(v4))
}

// SetComponent overwrites the value of an existing component of type T on
// entity e. It returns ErrUnknownEntity if e is not alive; if e does not
// already carry T, it is added (spec.md makes no distinction between "set"
// and "add" for a component not yet present).
func SetComponent[T any](w *World, e EntityID, value T) error {
	return w.addComponents(e, NewComponentValue(value))
}

// RemoveComponent removes a component of type T from entity e.
func RemoveComponent[T any](w *World, e EntityID) error {
	id, ok := TryGetID[T]()
	if !ok {
		return ErrUnknownComponent
	}
	return w.removeComponentsByID(e, id)
}

// RemoveComponent2 removes two component types from entity e.
func RemoveComponent2[T1, T2 any](w *World, e EntityID) error {
	id1, ok1 := TryGetID[T1]()
	id2, ok2 := TryGetID[T2]()
	if !ok1 || !ok2 {
		return ErrUnknownComponent
	}
	return w.removeComponentsByID(e, id1, id2)
}

// RemoveComponent3 removes three component types from entity e.
func RemoveComponent3[T1, T2, T3 any](w *World, e EntityID) error {
	id1, ok1 := TryGetID[T1]()
	id2, ok2 := TryGetID[T2]()
	id3, ok3 := TryGetID[T3]()
	if !ok1 || !ok2 || !ok3 {
		return ErrUnknownComponent
	}
	return w.removeComponentsByID(e, id1, id2, id3)
}

// RemoveComponent4 removes four component types from entity e.
func RemoveComponent4[T1, T2, T3, T4 any](w *World, e EntityID) error {
	id1, ok1 := TryGetID[T1]()
	id2, ok2 := TryGetID[T2]()
	id3, ok3 := TryGetID[T3]()
	id4, ok4 := TryGetID[T4]()
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return ErrUnknownComponent
	}
	return w.removeComponentsByID(e, id1, id2, id3, id4)
}

// GetComponent returns a pointer to entity e's component of type T. It
// returns ErrUnknownComponent if T was never registered, and
// ErrUnknownEntity if e is not alive or does not carry T.
func GetComponent[T any](w *World, e EntityID) (*T, error) {
	id, ok := TryGetID[T]()
	if !ok {
		return nil, ErrUnknownComponent
	}
	bytes, ok := w.getComponentDynamic(e, id)
	if !ok {
		return nil, ErrUnknownEntity
	}
	if len(bytes) == 0 {
		var zero T
		return &zero, nil
	}
	return (*T)(unsafe.Pointer(&bytes[0])), nil
}

// HasComponent reports whether entity e currently carries component type T.
func HasComponent[T any](w *World, e EntityID) bool {
	id, ok := TryGetID[T]()
	if !ok {
		return false
	}
	_, found := w.getComponentDynamic(e, id)
	return found
}
