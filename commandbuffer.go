package weaveecs

import "github.com/google/uuid"

// PrefabHandle is the opaque token an external assets/prefab collaborator
// hands back; weaveecs only ever threads it through to a registered
// PrefabSpawner. Backed by google/uuid so a handle survives round-tripping
// through logs or a wire format untouched.
type PrefabHandle uuid.UUID

// PrefabSpawner resolves a PrefabHandle into the component set a prefab
// spawn should realize. World.prefab_spawn_direct from spec.md §9 has no
// concrete behavior to ground this on, so an unset spawner reports
// ErrNotImplemented rather than guessing at a shape.
type PrefabSpawner func(PrefabHandle) ([]ComponentValue, error)

type commandKind uint8

const (
	cmdSpawnEntity commandKind = iota
	cmdDespawnEntity
	cmdAddComponents
	cmdRemoveComponents
	cmdPrefabSpawn
)

// command is one entry in the buffer's single ordered queue. Using a
// tagged union instead of five parallel queues (one per operation kind)
// is what keeps the single global enqueue order spec.md §4.4 requires
// without a merge step at flush time — grounded on plus3-ooftn/ecs's
// Commands, which queues a single []func(*World) instead.
type command struct {
	kind       commandKind
	entity     EntityID
	components []ComponentValue
	removeIDs  []ComponentID
	prefab     PrefabHandle
}

// CommandBuffer defers structural mutations (spawn, despawn, add/remove
// component, prefab spawn) so a system iterating a Query never mutates the
// archetype it is walking (spec.md §5 reentrancy rule). A World owns a
// single CommandBuffer (World.Commands) for its whole lifetime; the
// Scheduler flushes it after every schedule phase.
type CommandBuffer struct {
	world *World
	queue []command
}

func newCommandBuffer(w *World) *CommandBuffer {
	return &CommandBuffer{world: w}
}

// Spawn reserves an id for a new entity and enqueues its realization with
// the given initial components. The returned id is valid to reference
// (e.g. as a relationship target) before the buffer is flushed, even
// though the entity does not exist in any archetype until then.
func (cb *CommandBuffer) Spawn(components ...ComponentValue) EntityID {
	id := cb.world.reserveID()
	cb.queue = append(cb.queue, command{kind: cmdSpawnEntity, entity: id, components: components})
	return id
}

// Despawn enqueues deletion of e.
func (cb *CommandBuffer) Despawn(e EntityID) {
	cb.queue = append(cb.queue, command{kind: cmdDespawnEntity, entity: e})
}

// AddComponents enqueues adding the given components to e.
func (cb *CommandBuffer) AddComponents(e EntityID, components ...ComponentValue) {
	cb.queue = append(cb.queue, command{kind: cmdAddComponents, entity: e, components: components})
}

// RemoveComponents enqueues removing the given component types from e.
func (cb *CommandBuffer) RemoveComponents(e EntityID, ids ...ComponentID) {
	cb.queue = append(cb.queue, command{kind: cmdRemoveComponents, entity: e, removeIDs: ids})
}

// PrefabSpawn reserves an id and enqueues its realization via the World's
// registered PrefabSpawner.
func (cb *CommandBuffer) PrefabSpawn(handle PrefabHandle) EntityID {
	id := cb.world.reserveID()
	cb.queue = append(cb.queue, command{kind: cmdPrefabSpawn, entity: id, prefab: handle})
	return id
}

// Len reports how many commands are queued.
func (cb *CommandBuffer) Len() int { return len(cb.queue) }

// Flush applies every queued command, in enqueue order, against the owning
// World, then empties the queue. Errors from individual commands are
// collected and logged at warn (spec.md §7 recoverable-error policy); the
// remaining queue still runs to completion.
func (cb *CommandBuffer) Flush() []error {
	if len(cb.queue) == 0 {
		return nil
	}
	w := cb.world
	var errs []error
	log := GetNamespacedLogger("commandbuffer")

	for _, c := range cb.queue {
		var err error
		switch c.kind {
		case cmdSpawnEntity:
			err = w.spawnWithID(c.entity, c.components...)
		case cmdDespawnEntity:
			err = w.DeleteEntity(c.entity)
		case cmdAddComponents:
			err = w.addComponents(c.entity, c.components...)
		case cmdRemoveComponents:
			err = w.removeComponentsByID(c.entity, c.removeIDs...)
		case cmdPrefabSpawn:
			err = w.realizePrefab(c.entity, c.prefab)
		}
		if err != nil {
			log.WithError(err).Warn("command buffer entry failed")
			errs = append(errs, err)
		}
	}
	cb.queue = cb.queue[:0]
	return errs
}
