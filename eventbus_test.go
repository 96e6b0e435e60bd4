package weaveecs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type busTestEvent struct {
	Value int
}

func TestEventBusSubscribeAndPublish(t *testing.T) {
	bus := &EventBus{world: NewWorld()}
	received := 0
	Subscribe(bus, Handler[busTestEvent]{Update: func(_ *World, e busTestEvent) {
		received += e.Value
	}})
	Subscribe(bus, Handler[busTestEvent]{Update: func(_ *World, e busTestEvent) {
		received += e.Value * 2
	}})
	Publish(bus, busTestEvent{Value: 1})
	assert.Equal(t, 3, received)
	Publish(bus, busTestEvent{Value: 2})
	assert.Equal(t, 9, received)
}

func TestEventBusMultipleTypes(t *testing.T) {
	bus := &EventBus{world: NewWorld()}
	received1, received2 := 0, 0
	Subscribe(bus, Handler[busTestEvent]{Update: func(_ *World, e busTestEvent) {
		received1 += e.Value
	}})
	type position struct{ X float64 }
	Subscribe(bus, Handler[position]{Update: func(_ *World, p position) {
		received2 += int(p.X)
	}})
	Publish(bus, busTestEvent{Value: 42})
	Publish(bus, position{X: 10})
	assert.Equal(t, 42, received1)
	assert.Equal(t, 10, received2)
}

func TestEventBusNoHandlers(t *testing.T) {
	bus := &EventBus{world: NewWorld()}
	assert.NotPanics(t, func() { Publish(bus, busTestEvent{Value: 42}) })
}

func TestEventBusRunCriteriaGates(t *testing.T) {
	bus := &EventBus{world: NewWorld()}
	gate := false
	received := 0
	Subscribe(bus, Handler[busTestEvent]{
		RunCriteria: func(*World) bool { return gate },
		Update:      func(_ *World, e busTestEvent) { received += e.Value },
	})
	Publish(bus, busTestEvent{Value: 5})
	assert.Equal(t, 0, received)
	gate = true
	Publish(bus, busTestEvent{Value: 5})
	assert.Equal(t, 5, received)
}

func TestEventBusInitializeRunsOnSubscribe(t *testing.T) {
	bus := &EventBus{world: NewWorld()}
	initialized := false
	Subscribe(bus, Handler[busTestEvent]{
		Initialize: func(*World) { initialized = true },
		Update:     func(*World, busTestEvent) {},
	})
	assert.True(t, initialized)
}

func TestEventBusUnsubscribeStopsDeliveryAndRunsCleanup(t *testing.T) {
	bus := &EventBus{world: NewWorld()}
	received := 0
	cleanedUp := false
	sub := Subscribe(bus, Handler[busTestEvent]{
		Update:  func(_ *World, e busTestEvent) { received += e.Value },
		Cleanup: func(*World) { cleanedUp = true },
	})
	Publish(bus, busTestEvent{Value: 1})
	assert.Equal(t, 1, received)

	Unsubscribe[busTestEvent](bus, sub)
	assert.True(t, cleanedUp)

	Publish(bus, busTestEvent{Value: 1})
	assert.Equal(t, 1, received)
}

func TestEventBusManySubscribers(t *testing.T) {
	bus := &EventBus{world: NewWorld()}
	const numSubs = 100
	received := 0
	for i := 0; i < numSubs; i++ {
		Subscribe(bus, Handler[busTestEvent]{Update: func(_ *World, e busTestEvent) {
			received += e.Value
		}})
	}
	Publish(bus, busTestEvent{Value: 1})
	assert.Equal(t, numSubs, received)
}
