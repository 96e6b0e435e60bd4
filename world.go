// Package weaveecs provides an archetype-based Entity-Component-System
// runtime for building real-time interactive applications.
package weaveecs

import (
	"fmt"
	"math/bits"

	"github.com/sirupsen/logrus"
)

// WorldOptions provides configuration options for creating a new World.
type WorldOptions struct {
	InitialCapacity int // The initial capacity for entities and components.
}

// Transition caches the target archetype and precomputed copy operations
// for moving a row across an archetype boundary, whether that boundary is
// an add or a remove: copies only ever cover components present on both
// sides, so one cache direction serves both operations.
type Transition struct {
	target *Archetype
	copies []CopyOp
}

// CopyOp defines a single component copy operation from old to new archetype.
type CopyOp struct {
	from int // Slot in old archetype's componentData.
	to   int // Slot in new archetype's componentData.
	size int // Size of the component in bytes.
}

// World owns every entity, archetype, resource, and collaborator subsystem
// for one simulation. There is no implicit global world: callers construct
// one with NewWorld and thread it through their systems explicitly.
type World struct {
	nextEntityID   EntityID // The next available entity ID. Monotonic, never recycled.
	entitiesSlice  []entityMeta
	archetypes     map[maskType]*Archetype
	archetypesList []*Archetype

	transitions map[*Archetype]map[maskType]Transition

	Resources *ResourceRegistry
	Events    *EventBus
	Commands  *CommandBuffer

	relationships *relationshipEngine
	prefabSpawner PrefabSpawner

	// iterating is non-zero while a Query walk is in progress, guarding
	// against the reentrant structural mutation spec.md §5 forbids.
	iterating int

	initialCapacity int
	log             *logrus.Entry
}

// NewWorld creates a new World with default options.
func NewWorld() *World {
	return NewWorldWithOptions(WorldOptions{})
}

// NewWorldWithOptions creates a new World with the specified options.
func NewWorldWithOptions(opts WorldOptions) *World {
	cap := defaultInitialCapacity
	if opts.InitialCapacity > 0 {
		cap = opts.InitialCapacity
	}
	w := &World{
		nextEntityID:    1,
		entitiesSlice:   make([]entityMeta, 0, cap),
		archetypes:      make(map[maskType]*Archetype, 32),
		archetypesList:  make([]*Archetype, 0, 64),
		transitions:     make(map[*Archetype]map[maskType]Transition),
		Resources:       newCoreResources(),
		relationships:   newRelationshipEngine(),
		initialCapacity: cap,
		log:             GetNamespacedLogger("world"),
	}
	w.Events = &EventBus{world: w}
	w.Commands = newCommandBuffer(w)
	w.getOrCreateArchetype(maskType{})
	return w
}

// getOrCreateArchetype gets an existing archetype or creates a new one for the given component mask.
func (self *World) getOrCreateArchetype(mask maskType) *Archetype {
	if arch, ok := self.archetypes[mask]; ok {
		return arch
	}

	var count int
	for _, w := range mask {
		count += bits.OnesCount64(w)
	}
	compIDs := make([]ComponentID, 0, count)
	for word := 0; word < maskWords; word++ {
		w := mask[word]
		baseID := ComponentID(word * bitsPerWord)
		for bit := uint(0); bit < bitsPerWord; bit++ {
			if (w & (1 << bit)) != 0 {
				compIDs = append(compIDs, baseID+ComponentID(bit))
			}
		}
	}
	// No need to sort; IDs are appended in ascending order.

	newArch := &Archetype{
		mask:          mask,
		entities:      make([]EntityID, 0, self.initialCapacity),
		componentIDs:  compIDs,
		componentData: make([][]byte, len(compIDs)),
	}
	var slots [maxComponentTypes]int
	for i := range slots {
		slots[i] = -1
	}
	for i, id := range compIDs {
		slots[id] = i
	}
	newArch.slots = slots

	for i, id := range compIDs {
		size := int(componentSizes[id])
		newArch.componentData[i] = make([]byte, 0, self.initialCapacity*size)
	}

	self.archetypes[mask] = newArch
	self.archetypesList = append(self.archetypesList, newArch)
	return newArch
}

// transitionTo returns the cached Transition from archetype "from" to the
// archetype matching newMask, computing and caching it on first use. The
// same cache serves AddComponent and RemoveComponent: a copy op only ever
// names a component slot present on both sides, so it is correct
// regardless of whether newMask is a superset or a subset of from.mask.
func (self *World) transitionTo(from *Archetype, newMask maskType) Transition {
	byMask, ok := self.transitions[from]
	if !ok {
		byMask = make(map[maskType]Transition)
		self.transitions[from] = byMask
	} else if t, ok := byMask[newMask]; ok {
		return t
	}

	target := self.getOrCreateArchetype(newMask)
	copies := make([]CopyOp, 0, len(from.componentIDs))
	for i, id := range from.componentIDs {
		if slot := target.getSlot(id); slot >= 0 {
			copies = append(copies, CopyOp{from: i, to: slot, size: int(componentSizes[id])})
		}
	}
	t := Transition{target: target, copies: copies}
	byMask[newMask] = t
	return t
}

func (self *World) ensureEntitiesSlice(idx int) {
	if idx >= len(self.entitiesSlice) {
		self.entitiesSlice = extendSlice(self.entitiesSlice, idx-len(self.entitiesSlice)+1)
	}
}

func (self *World) metaOf(e EntityID) (entityMeta, bool) {
	if e == None {
		return entityMeta{}, false
	}
	idx := int(e)
	if idx >= len(self.entitiesSlice) {
		return entityMeta{}, false
	}
	m := self.entitiesSlice[idx]
	return m, m.alive()
}

// IsAlive reports whether e currently identifies a live entity.
func (self *World) IsAlive(e EntityID) bool {
	_, ok := self.metaOf(e)
	return ok
}

// reserveID allocates a fresh EntityID without putting it in any
// archetype. CommandBuffer.Spawn uses this so a caller can reference the
// id (e.g. as a relationship target) in the same tick, before the entity
// is actually realized at flush time.
func (self *World) reserveID() EntityID {
	id := self.nextEntityID
	self.nextEntityID++
	self.ensureEntitiesSlice(int(id))
	return id
}

// CreateEntity creates a new entity with no components and returns its id.
func (self *World) CreateEntity() EntityID {
	id := self.reserveID()
	if err := self.spawnWithID(id); err != nil {
		// reserveID always hands back a fresh, never-yet-alive id, so
		// spawnWithID cannot fail here.
		panic(err)
	}
	return id
}

// CreateEntities creates a batch of new entities with no components.
func (self *World) CreateEntities(count int) []EntityID {
	if count <= 0 {
		return nil
	}
	ids := make([]EntityID, count)
	for i := 0; i < count; i++ {
		ids[i] = self.CreateEntity()
	}
	return ids
}

// Spawn immediately realizes a new entity with the given components,
// bypassing the command buffer. Prefer CommandBuffer.Spawn from inside a
// system that is also iterating a Query.
func (self *World) Spawn(components ...ComponentValue) (EntityID, error) {
	id := self.reserveID()
	if err := self.spawnWithID(id, components...); err != nil {
		return None, err
	}
	return id, nil
}

// spawnWithID realizes id (previously returned by reserveID) as a live
// entity carrying components.
func (self *World) spawnWithID(id EntityID, components ...ComponentValue) error {
	idx := int(id)
	if id == None || idx >= len(self.entitiesSlice) {
		return fmt.Errorf("%w: %d", ErrUnknownEntity, id)
	}
	if self.entitiesSlice[idx].alive() {
		return fmt.Errorf("%w: %d", ErrDuplicateEntity, id)
	}

	var mask maskType
	for _, c := range components {
		mask = setMask(mask, c.ID())
	}
	arch := self.getOrCreateArchetype(mask)
	row := len(arch.entities)
	arch.entities = extendSlice(arch.entities, 1)
	arch.entities[row] = id

	for _, c := range components {
		self.writeComponent(arch, row, c)
	}

	self.entitiesSlice[idx] = entityMeta{Archetype: arch, Index: row}

	comps, _ := GetResource[ComponentEntities](self.Resources)
	for _, c := range components {
		if comps != nil {
			comps.add(c.ID(), id)
		}
		if rel, ok := c.asRelationship(); ok {
			self.relationships.onAdd(id, c.ID(), rel)
		}
	}
	return nil
}

func (self *World) writeComponent(arch *Archetype, row int, c ComponentValue) {
	slot := arch.getSlot(c.ID())
	size := int(componentSizes[c.ID()])
	col := arch.componentData[slot]
	if need := (row+1)*size - len(col); need > 0 {
		col = extendByteSlice(col, need)
	}
	copy(col[row*size:(row+1)*size], c.bytes())
	arch.componentData[slot] = col
}

// DeleteEntity removes e immediately: its row is swap-removed from its
// archetype, its relationship bookkeeping is dropped, and any
// linked_spawn relationship cascades to the entities that targeted it.
func (self *World) DeleteEntity(e EntityID) error {
	meta, ok := self.metaOf(e)
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownEntity, e)
	}
	if self.iterating > 0 {
		return ErrReentrantStructuralMutation
	}

	cascadingSources, nonCascadingSources := self.relationships.cascadeTargets(e)

	if comps, _ := GetResource[ComponentEntities](self.Resources); comps != nil {
		for _, id := range meta.Archetype.componentIDs {
			comps.remove(id, e)
		}
	}

	self.removeEntityFromArchetype(e, meta.Archetype, meta.Index)
	self.entitiesSlice[int(e)] = entityMeta{}
	self.relationships.forget(e)

	if deleted, _ := GetResource[EntitiesDeleted](self.Resources); deleted != nil {
		deleted.IDs = append(deleted.IDs, e)
	}

	for id, sources := range nonCascadingSources {
		for _, s := range sources {
			if self.IsAlive(s) {
				_ = self.removeComponentsByID(s, id)
			}
		}
	}

	for _, src := range cascadingSources {
		if self.IsAlive(src) {
			_ = self.DeleteEntity(src)
		}
	}
	return nil
}

// removeEntityFromArchetype removes an entity from an archetype using the swap-and-pop method.
func (self *World) removeEntityFromArchetype(e EntityID, arch *Archetype, index int) {
	lastIndex := len(arch.entities) - 1
	if lastIndex < 0 || index > lastIndex {
		return
	}
	lastEntity := arch.entities[lastIndex]

	arch.entities[index] = lastEntity
	arch.entities = arch.entities[:lastIndex]

	if e != lastEntity {
		m := self.entitiesSlice[int(lastEntity)]
		m.Index = index
		self.entitiesSlice[int(lastEntity)] = m
	}

	for i := range arch.componentData {
		id := arch.componentIDs[i]
		size := int(componentSizes[id])
		bytes := arch.componentData[i]
		copy(bytes[index*size:(index+1)*size], bytes[lastIndex*size:(lastIndex+1)*size])
		arch.componentData[i] = bytes[:lastIndex*size]
	}
}

// moveEntityBetweenArchetypes moves an entity from an old archetype to a new one.
// It copies component data using the precomputed list of copy operations.
// It returns the new index of the entity in the new archetype.
func moveEntityBetweenArchetypes(e EntityID, oldIndex int, oldArch, newArch *Archetype, copies []CopyOp) int {
	newIndex := len(newArch.entities)
	newArch.entities = extendSlice(newArch.entities, 1)
	newArch.entities[newIndex] = e

	for _, op := range copies {
		oldBytes := oldArch.componentData[op.from]
		size := op.size
		src := oldBytes[oldIndex*size : (oldIndex+1)*size]
		newBytes := newArch.componentData[op.to]
		newBytes = extendByteSlice(newBytes, size)
		copy(newBytes[len(newBytes)-size:], src)
		newArch.componentData[op.to] = newBytes
	}
	return newIndex
}

// addComponents is the dynamic core behind both AddComponent[T] and
// CommandBuffer's deferred add-component entries: it accepts a
// runtime-arbitrary set of components rather than a fixed generic arity.
func (self *World) addComponents(e EntityID, components ...ComponentValue) error {
	if len(components) == 0 {
		return nil
	}
	meta, ok := self.metaOf(e)
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownEntity, e)
	}
	if self.iterating > 0 {
		return ErrReentrantStructuralMutation
	}

	oldArch := meta.Archetype
	newMask := oldArch.mask
	for _, c := range components {
		newMask = setMask(newMask, c.ID())
	}

	updates, _ := GetResource[ComponentUpdates](self.Resources)
	added, _ := GetResource[ComponentEntities](self.Resources)

	if newMask == oldArch.mask {
		// Every component named was already present: this behaves as a set.
		for _, c := range components {
			self.writeComponent(oldArch, meta.Index, c)
			if updates != nil {
				updates.record(c.ID())
			}
			if rel, ok := c.asRelationship(); ok {
				self.relationships.onRemove(e, c.ID())
				self.relationships.onAdd(e, c.ID(), rel)
			}
		}
		return nil
	}

	t := self.transitionTo(oldArch, newMask)
	newIndex := moveEntityBetweenArchetypes(e, meta.Index, oldArch, t.target, t.copies)
	self.removeEntityFromArchetype(e, oldArch, meta.Index)
	self.entitiesSlice[int(e)] = entityMeta{Archetype: t.target, Index: newIndex}

	for _, c := range components {
		self.writeComponent(t.target, newIndex, c)
		wasPresent := oldArch.mask.has(c.ID())
		if updates != nil {
			updates.record(c.ID())
		}
		if !wasPresent && added != nil {
			added.add(c.ID(), e)
		}
		if rel, ok := c.asRelationship(); ok {
			if wasPresent {
				self.relationships.onRemove(e, c.ID())
			}
			self.relationships.onAdd(e, c.ID(), rel)
		}
	}
	return nil
}

// removeComponentsByID is the dynamic core behind RemoveComponent[T] and
// CommandBuffer's deferred remove-component entries.
func (self *World) removeComponentsByID(e EntityID, ids ...ComponentID) error {
	if len(ids) == 0 {
		return nil
	}
	meta, ok := self.metaOf(e)
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownEntity, e)
	}
	if self.iterating > 0 {
		return ErrReentrantStructuralMutation
	}

	oldArch := meta.Archetype
	newMask := oldArch.mask
	for _, id := range ids {
		newMask = unsetMask(newMask, id)
	}
	if newMask == oldArch.mask {
		return nil
	}

	comps, _ := GetResource[ComponentEntities](self.Resources)
	for _, id := range ids {
		if !oldArch.mask.has(id) {
			continue
		}
		if self.relationships.isRelationship(id) {
			self.relationships.onRemove(e, id)
		}
		if comps != nil {
			comps.remove(id, e)
		}
	}

	t := self.transitionTo(oldArch, newMask)
	newIndex := moveEntityBetweenArchetypes(e, meta.Index, oldArch, t.target, t.copies)
	self.removeEntityFromArchetype(e, oldArch, meta.Index)
	self.entitiesSlice[int(e)] = entityMeta{Archetype: t.target, Index: newIndex}
	return nil
}

// getComponentDynamic returns a byte view of component id on entity e.
func (self *World) getComponentDynamic(e EntityID, id ComponentID) ([]byte, bool) {
	meta, ok := self.metaOf(e)
	if !ok {
		return nil, false
	}
	slot := meta.Archetype.getSlot(id)
	if slot < 0 {
		return nil, false
	}
	size := int(componentSizes[id])
	col := meta.Archetype.componentData[slot]
	start := meta.Index * size
	return col[start : start+size], true
}

// SetPrefabSpawner registers the collaborator that resolves a PrefabHandle
// into a component set. Without one, PrefabSpawn commands fail with
// ErrNotImplemented (spec.md §9 world.prefab_spawn_direct).
func (self *World) SetPrefabSpawner(fn PrefabSpawner) {
	self.prefabSpawner = fn
}

func (self *World) realizePrefab(id EntityID, handle PrefabHandle) error {
	if self.prefabSpawner == nil {
		return fmt.Errorf("%w: no PrefabSpawner registered", ErrNotImplemented)
	}
	components, err := self.prefabSpawner(handle)
	if err != nil {
		return err
	}
	return self.spawnWithID(id, components...)
}

// RegisterRelationship marks component type R as a relationship edge:
// adding/removing an R on a source entity maintains the reverse index
// toward its RelationshipTarget(), and LinkedSpawn cascades deletion.
// Re-registering the same type with a different LinkedSpawn setting
// returns ErrRelationshipMismatch.
func RegisterRelationship[R Relationship](w *World, opts RelationshipOptions) (ComponentID, error) {
	id := RegisterComponent[R]()
	if err := w.relationships.register(id, opts); err != nil {
		return id, err
	}
	return id, nil
}
