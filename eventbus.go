package weaveecs

import "reflect"

// MaxEventTypes defines the maximum number of unique event types that can be
// registered in the EventBus. This value is fixed at 256.
const MaxEventTypes = 256

// Handler is a subscription for events of type T. Update is called with the
// World and the event for every Publish, provided RunCriteria passes.
// Initialize runs once at subscription time, Cleanup once when the handler
// is unsubscribed; both are optional. This is the event-handler analogue of
// a Scheduler System, so a subscription can gate itself the same way a
// system does (spec.md §4.7, §8 scenario F), kept as a distinct type from
// System.RunCriteria even though the signature matches, per spec.md's
// instruction to preserve the subsystems as distinct.
type Handler[T any] struct {
	RunCriteria func(*World) bool
	Initialize  func(*World)
	Cleanup     func(*World)
	Update      func(*World, T)
}

type boundHandler[T any] struct {
	h  Handler[T]
	id uint64
}

// Subscription identifies one Subscribe call, returned so it can later be
// passed to Unsubscribe.
type Subscription struct {
	eventType uint8
	id        uint64
}

// EventBus provides a powerful, robust, blazing-fast event bus for publishing and subscribing to events.
type EventBus struct {
	world           *World
	eventTypeMap    map[reflect.Type]uint8
	handlers        [MaxEventTypes][]any
	nextEventTypeID uint8
	nextHandlerID   uint64
}

// Subscribe registers a handler for events of type T, invoking
// handler.Initialize immediately if set. The handler will be called
// whenever an event of type T is published and its RunCriteria (if any)
// passes, until the returned Subscription is passed to Unsubscribe.
func Subscribe[T any](bus *EventBus, handler Handler[T]) Subscription {
	t := reflect.TypeFor[T]()
	id := bus.getEventTypeID(t)
	if cap(bus.handlers[id]) == 0 {
		bus.handlers[id] = make([]any, 0, 4) // Preallocate small capacity to reduce reallocs
	}
	hid := bus.nextHandlerID
	bus.nextHandlerID++
	bus.handlers[id] = append(bus.handlers[id], boundHandler[T]{h: handler, id: hid})
	if handler.Initialize != nil {
		handler.Initialize(bus.world)
	}
	return Subscription{eventType: id, id: hid}
}

// Unsubscribe removes the handler sub identifies and runs its Cleanup, if
// set. Unsubscribing a handler that was already removed is a no-op.
func Unsubscribe[T any](bus *EventBus, sub Subscription) {
	hs := bus.handlers[sub.eventType]
	for i, raw := range hs {
		bh, ok := raw.(boundHandler[T])
		if !ok || bh.id != sub.id {
			continue
		}
		bus.handlers[sub.eventType] = append(hs[:i], hs[i+1:]...)
		if bh.h.Cleanup != nil {
			bh.h.Cleanup(bus.world)
		}
		return
	}
}

// Publish sends an event of type T to all subscribed handlers, in
// registration order, skipping any whose RunCriteria returns false.
func Publish[T any](bus *EventBus, event T) {
	t := reflect.TypeFor[T]()
	id, ok := bus.eventTypeMap[t]
	if !ok {
		return
	}
	hs := bus.handlers[id]
	for _, raw := range hs {
		bh := raw.(boundHandler[T])
		if bh.h.RunCriteria != nil && !bh.h.RunCriteria(bus.world) {
			continue
		}
		bh.h.Update(bus.world, event)
	}
}

// getEventTypeID retrieves or assigns an ID for the event type.
func (bus *EventBus) getEventTypeID(t reflect.Type) uint8 {
	if bus.eventTypeMap == nil {
		bus.eventTypeMap = make(map[reflect.Type]uint8)
	}
	if id, ok := bus.eventTypeMap[t]; ok {
		return id
	}
	if len(bus.eventTypeMap) >= MaxEventTypes {
		panic("weaveecs: too many event types")
	}
	id := bus.nextEventTypeID
	bus.nextEventTypeID++
	bus.eventTypeMap[t] = id
	return id
}
