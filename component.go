// Package weaveecs provides an archetype-based Entity-Component-System
// runtime for building real-time interactive applications.
package weaveecs

import (
	"fmt"
	"reflect"
	"unsafe"
)

// ComponentID is a unique identifier for a component type, stable for the
// lifetime of the process. It plays the role spec.md describes for a
// component's "type name": a registry-assigned identifier rather than a
// raw class-name string, per the DESIGN NOTES guidance to replace
// dynamic-class-name discovery with a registry keyed by a stable id.
type ComponentID uint32

const (
	bitsPerWord            = 64
	maskWords              = 4
	maxComponentTypes      = maskWords * bitsPerWord
	defaultInitialCapacity = 65536
)

// ComponentDependency is the optional dependency declaration a component
// type may carry (spec.md §3/§4.2): systems or other components that must
// be present/registered for this component to make sense.
type ComponentDependency struct {
	RequiredSystems    []string
	RequiredComponents []string
}

var (
	nextComponentID ComponentID
	typeToID        = make(map[reflect.Type]ComponentID, maxComponentTypes)
	idToType        = make(map[ComponentID]reflect.Type, maxComponentTypes)
	componentSizes  [maxComponentTypes]uintptr
	componentDeps   [maxComponentTypes]ComponentDependency
	componentInit   [maxComponentTypes]func() any
)

// ResetGlobalRegistry resets the global component registry. Useful for
// tests or applications that need to re-initialize ECS state between runs.
func ResetGlobalRegistry() {
	nextComponentID = 0
	typeToID = make(map[reflect.Type]ComponentID, maxComponentTypes)
	idToType = make(map[ComponentID]reflect.Type, maxComponentTypes)
	componentSizes = [maxComponentTypes]uintptr{}
	componentDeps = [maxComponentTypes]ComponentDependency{}
	componentInit = [maxComponentTypes]func() any{}
}

// RegisterComponent registers a component type and returns its unique ID.
// If the type is already registered, it returns the existing ID. It panics
// if the maximum number of component types is exceeded.
func RegisterComponent[T any]() ComponentID {
	var t T
	compType := reflect.TypeOf(t)

	if id, ok := typeToID[compType]; ok {
		return id
	}

	if int(nextComponentID) >= maxComponentTypes {
		panic(fmt.Sprintf("cannot register component %s: maximum number of component types (%d) reached", compType.Name(), maxComponentTypes))
	}

	id := nextComponentID
	typeToID[compType] = id
	idToType[id] = compType
	componentSizes[id] = unsafe.Sizeof(t)
	nextComponentID++
	return id
}

// RegisterComponentWithDependency registers a component type together with
// its dependency declaration and an optional default initializer, per
// spec.md §3's "every component type carries an optional dependency
// declaration ... and an optional default initializer".
func RegisterComponentWithDependency[T any](dep ComponentDependency, defaultInit func() T) ComponentID {
	id := RegisterComponent[T]()
	componentDeps[id] = dep
	if defaultInit != nil {
		componentInit[id] = func() any { return defaultInit() }
	}
	return id
}

// DependencyOf returns the registered dependency declaration for id, if any.
func DependencyOf(id ComponentID) ComponentDependency {
	return componentDeps[id]
}

// DefaultOf invokes the registered default initializer for id, if any, and
// reports whether one was registered.
func DefaultOf(id ComponentID) (any, bool) {
	init := componentInit[id]
	if init == nil {
		return nil, false
	}
	return init(), true
}

// GetID returns the ComponentID for a given component type. It panics if
// the type has not been registered.
func GetID[T any]() ComponentID {
	var zero T
	typ := reflect.TypeOf(zero)
	id, ok := typeToID[typ]
	if !ok {
		panic(fmt.Sprintf("component type %s not registered", typ))
	}
	return id
}

// TryGetID returns the ComponentID for a given component type and whether
// it was found. It does not panic if the type is unregistered.
func TryGetID[T any]() (ComponentID, bool) {
	var zero T
	typ := reflect.TypeOf(zero)
	id, ok := typeToID[typ]
	return id, ok
}

// TypeNameOf returns the stable type name backing a ComponentID, or false
// if the id is unknown. This is the "stable string" spec.md refers to when
// it describes a component's type name.
func TypeNameOf(id ComponentID) (string, bool) {
	t, ok := idToType[id]
	if !ok {
		return "", false
	}
	return t.String(), true
}

// IsComponentNameRegistered reports whether a component type with the given
// stable name (as returned by TypeNameOf) has been registered. Used by the
// scheduler to evaluate a System's RequiredComponents (spec.md §4.8).
func IsComponentNameRegistered(name string) bool {
	for _, t := range idToType {
		if t.String() == name {
			return true
		}
	}
	return false
}

// iface mirrors the Go runtime's two-word interface layout: a type pointer
// and a data pointer. Reaching into it lets the dynamic component path
// (ComponentValue, below) get a raw byte view of a boxed value without a
// second reflect-driven copy, the same trick plus3-ooftn's ecs view.go uses
// to populate query result structs from archetype storage.
type iface struct {
	typ  unsafe.Pointer
	data unsafe.Pointer
}

// ComponentValue is a type-erased component ready to be written into
// archetype storage: a registered ComponentID plus a pointer to its bytes.
// Dynamic call sites (CommandBuffer, World.Spawn, the relationship
// engine) build these with NewComponentValue instead of threading a Go
// generic type parameter through code that only knows the type at runtime.
type ComponentValue struct {
	id   ComponentID
	size uintptr
	ptr  unsafe.Pointer
	keep any // retains a reference so the boxed value isn't collected early
}

// NewComponentValue boxes v as a ComponentValue, registering T if needed.
func NewComponentValue[T any](v T) ComponentValue {
	id, ok := TryGetID[T]()
	if !ok {
		id = RegisterComponent[T]()
	}
	boxed := any(v)
	return ComponentValue{
		id:   id,
		size: componentSizes[id],
		ptr:  (*iface)(unsafe.Pointer(&boxed)).data,
		keep: boxed,
	}
}

// ID reports which component type this value carries.
func (c ComponentValue) ID() ComponentID { return c.id }

// asRelationship reports whether the boxed value implements Relationship,
// returning it as that interface if so. Used by World to maintain the
// relationship engine's reverse index without needing a generic type
// parameter at the call site.
func (c ComponentValue) asRelationship() (Relationship, bool) {
	r, ok := c.keep.(Relationship)
	return r, ok
}

func (c ComponentValue) bytes() []byte {
	if c.size == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(c.ptr), c.size)
}
