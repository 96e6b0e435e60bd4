// Package weaveecs provides an archetype-based Entity-Component-System
// runtime for building real-time interactive applications.
package weaveecs

import "unsafe"

// Query is an iterator over entities that have a specific set of
// components. This query is for entities with one fetched component type.
// Archetype visit order is insertion order (World.archetypesList); row
// order within an archetype is ascending index. Both are preserved
// unchanged from the teacher's design.
type Query[T1 any] struct {
	world         *World         // The world to query.
	includeMask   maskType       // fetch ∪ with, compiled once at construction.
	excludeMask   maskType       // without, compiled once at construction.
	id1           ComponentID    // The ID of the first component.
	archIdx       int            // The current archetype index.
	index         int            // The current entity index within the archetype.
	currentArch   *Archetype     // The current archetype being iterated.
	base1         unsafe.Pointer // A pointer to the base of the first component's storage.
	stride1       uintptr        // The size of the first component type.
	currentEntity EntityID       // The current entity being iterated.
	released      bool
}

// CreateQuery builds a Query fetching T1, additionally requiring every
// component in with and forbidding every component in without, per
// spec.md's fetch ∪ with ⊆ S ∧ without ∩ S = ∅ contract. Callers must call
// Release when done so the world's reentrancy guard is lifted.
func CreateQuery[T1 any](w *World, with, without []ComponentID) *Query[T1] {
	id1 := GetID[T1]()
	q := &Query[T1]{
		world:       w,
		includeMask: orMask(makeMask1(id1), makeMask(with)),
		excludeMask: makeMask(without),
		id1:         id1,
		index:       -1,
	}
	w.iterating++
	return q
}

// Release ends this query's iteration frame, lifting the world's
// reentrancy guard. Safe to call more than once.
func (self *Query[T1]) Release() {
	if self.released {
		return
	}
	self.released = true
	self.world.iterating--
}

// Reset restarts the query from the first matching archetype without
// changing its reentrancy frame.
func (self *Query[T1]) Reset() {
	self.archIdx = 0
	self.index = -1
	self.currentArch = nil
}

// Next advances to the next entity. Returns false if no more entities.
func (self *Query[T1]) Next() bool {
	self.index++
	if self.currentArch != nil && self.index < len(self.currentArch.entities) {
		self.currentEntity = self.currentArch.entities[self.index]
		return true
	}

	for self.archIdx < len(self.world.archetypesList) {
		arch := self.world.archetypesList[self.archIdx]
		self.archIdx++
		if len(arch.entities) == 0 || !includesAll(arch.mask, self.includeMask) || intersects(arch.mask, self.excludeMask) {
			continue
		}
		self.currentArch = arch
		slot1 := arch.getSlot(self.id1)
		if slot1 < 0 {
			panic("weaveecs: missing component in matching archetype")
		}
		if len(arch.componentData[slot1]) > 0 {
			self.base1 = unsafe.Pointer(&arch.componentData[slot1][0])
		} else {
			self.base1 = nil
		}
		self.stride1 = componentSizes[self.id1]
		self.index = 0
		self.currentEntity = arch.entities[0]
		return true
	}
	return false
}

// Get returns a pointer to the component for the current entity.
func (self *Query[T1]) Get() *T1 {
	p1 := unsafe.Pointer(uintptr(self.base1) + uintptr(self.index)*self.stride1)
	return (*T1)(p1)
}

// Entity returns the current entity.
func (self *Query[T1]) Entity() EntityID {
	return self.currentEntity
}

// Query2 is the two-fetched-component analogue of Query.
type Query2[T1 any, T2 any] struct {
	world         *World
	includeMask   maskType
	excludeMask   maskType
	id1           ComponentID
	id2           ComponentID
	archIdx       int
	index         int
	currentArch   *Archetype
	base1         unsafe.Pointer
	stride1       uintptr
	base2         unsafe.Pointer
	stride2       uintptr
	currentEntity EntityID
	released      bool
}

// CreateQuery2 builds a Query2 fetching T1 and T2, per the with/without
// contract documented on CreateQuery.
func CreateQuery2[T1 any, T2 any](w *World, with, without []ComponentID) *Query2[T1, T2] {
	id1, id2 := GetID[T1](), GetID[T2]()
	q := &Query2[T1, T2]{
		world:       w,
		includeMask: orMask(makeMask2(id1, id2), makeMask(with)),
		excludeMask: makeMask(without),
		id1:         id1,
		id2:         id2,
		index:       -1,
	}
	w.iterating++
	return q
}

func (self *Query2[T1, T2]) Release() {
	if self.released {
		return
	}
	self.released = true
	self.world.iterating--
}

func (self *Query2[T1, T2]) Reset() {
	self.archIdx = 0
	self.index = -1
	self.currentArch = nil
}

func (self *Query2[T1, T2]) Next() bool {
	self.index++
	if self.currentArch != nil && self.index < len(self.currentArch.entities) {
		self.currentEntity = self.currentArch.entities[self.index]
		return true
	}

	for self.archIdx < len(self.world.archetypesList) {
		arch := self.world.archetypesList[self.archIdx]
		self.archIdx++
		if len(arch.entities) == 0 || !includesAll(arch.mask, self.includeMask) || intersects(arch.mask, self.excludeMask) {
			continue
		}
		self.currentArch = arch
		slot1 := arch.getSlot(self.id1)
		slot2 := arch.getSlot(self.id2)
		if slot1 < 0 || slot2 < 0 {
			panic("weaveecs: missing component in matching archetype")
		}
		if len(arch.componentData[slot1]) > 0 {
			self.base1 = unsafe.Pointer(&arch.componentData[slot1][0])
		} else {
			self.base1 = nil
		}
		self.stride1 = componentSizes[self.id1]
		if len(arch.componentData[slot2]) > 0 {
			self.base2 = unsafe.Pointer(&arch.componentData[slot2][0])
		} else {
			self.base2 = nil
		}
		self.stride2 = componentSizes[self.id2]
		self.index = 0
		self.currentEntity = arch.entities[0]
		return true
	}
	return false
}

func (self *Query2[T1, T2]) Get() (*T1, *T2) {
	p1 := unsafe.Pointer(uintptr(self.base1) + uintptr(self.index)*self.stride1)
	p2 := unsafe.Pointer(uintptr(self.base2) + uintptr(self.index)*self.stride2)
	return (*T1)(p1), (*T2)(p2)
}

func (self *Query2[T1, T2]) Entity() EntityID {
	return self.currentEntity
}

// Query3 is the three-fetched-component analogue of Query.
type Query3[T1, T2, T3 any] struct {
	world         *World
	includeMask   maskType
	excludeMask   maskType
	id1, id2, id3 ComponentID
	archIdx       int
	index         int
	currentArch   *Archetype
	base1, base2, base3 unsafe.Pointer
	stride1, stride2, stride3 uintptr
	currentEntity EntityID
	released      bool
}

func CreateQuery3[T1, T2, T3 any](w *World, with, without []ComponentID) *Query3[T1, T2, T3] {
	id1, id2, id3 := GetID[T1](), GetID[T2](), GetID[T3]()
	q := &Query3[T1, T2, T3]{
		world:       w,
		includeMask: orMask(makeMask3(id1, id2, id3), makeMask(with)),
		excludeMask: makeMask(without),
		id1:         id1,
		id2:         id2,
		id3:         id3,
		index:       -1,
	}
	w.iterating++
	return q
}

func (self *Query3[T1, T2, T3]) Release() {
	if self.released {
		return
	}
	self.released = true
	self.world.iterating--
}

func (self *Query3[T1, T2, T3]) Reset() {
	self.archIdx = 0
	self.index = -1
	self.currentArch = nil
}

func (self *Query3[T1, T2, T3]) Next() bool {
	self.index++
	if self.currentArch != nil && self.index < len(self.currentArch.entities) {
		self.currentEntity = self.currentArch.entities[self.index]
		return true
	}

	for self.archIdx < len(self.world.archetypesList) {
		arch := self.world.archetypesList[self.archIdx]
		self.archIdx++
		if len(arch.entities) == 0 || !includesAll(arch.mask, self.includeMask) || intersects(arch.mask, self.excludeMask) {
			continue
		}
		self.currentArch = arch
		s1, s2, s3 := arch.getSlot(self.id1), arch.getSlot(self.id2), arch.getSlot(self.id3)
		if s1 < 0 || s2 < 0 || s3 < 0 {
			panic("weaveecs: missing component in matching archetype")
		}
		self.base1 = baseOf(arch.componentData[s1])
		self.stride1 = componentSizes[self.id1]
		self.base2 = baseOf(arch.componentData[s2])
		self.stride2 = componentSizes[self.id2]
		self.base3 = baseOf(arch.componentData[s3])
		self.stride3 = componentSizes[self.id3]
		self.index = 0
		self.currentEntity = arch.entities[0]
		return true
	}
	return false
}

func (self *Query3[T1, T2, T3]) Get() (*T1, *T2, *T3) {
	p1 := unsafe.Pointer(uintptr(self.base1) + uintptr(self.index)*self.stride1)
	p2 := unsafe.Pointer(uintptr(self.base2) + uintptr(self.index)*self.stride2)
	p3 := unsafe.Pointer(uintptr(self.base3) + uintptr(self.index)*self.stride3)
	return (*T1)(p1), (*T2)(p2), (*T3)(p3)
}

func (self *Query3[T1, T2, T3]) Entity() EntityID {
	return self.currentEntity
}

// Query4 is the four-fetched-component analogue of Query.
type Query4[T1, T2, T3, T4 any] struct {
	world              *World
	includeMask        maskType
	excludeMask        maskType
	id1, id2, id3, id4 ComponentID
	archIdx            int
	index              int
	currentArch        *Archetype
	base1, base2, base3, base4       unsafe.Pointer
	stride1, stride2, stride3, stride4 uintptr
	currentEntity      EntityID
	released           bool
}

func CreateQuery4[T1, T2, T3, T4 any](w *World, with, without []ComponentID) *Query4[T1, T2, T3, T4] {
	id1, id2, id3, id4 := GetID[T1](), GetID[T2](), GetID[T3](), GetID[T4]()
	q := &Query4[T1, T2, T3, T4]{
		world:       w,
		includeMask: orMask(makeMask4(id1, id2, id3, id4), makeMask(with)),
		excludeMask: makeMask(without),
		id1:         id1,
		id2:         id2,
		id3:         id3,
		id4:         id4,
		index:       -1,
	}
	w.iterating++
	return q
}

func (self *Query4[T1, T2, T3, T4]) Release() {
	if self.released {
		return
	}
	self.released = true
	self.world.iterating--
}

func (self *Query4[T1, T2, T3, T4]) Reset() {
	self.archIdx = 0
	self.index = -1
	self.currentArch = nil
}

func (self *Query4[T1, T2, T3, T4]) Next() bool {
	self.index++
	if self.currentArch != nil && self.index < len(self.currentArch.entities) {
		self.currentEntity = self.currentArch.entities[self.index]
		return true
	}

	for self.archIdx < len(self.world.archetypesList) {
		arch := self.world.archetypesList[self.archIdx]
		self.archIdx++
		if len(arch.entities) == 0 || !includesAll(arch.mask, self.includeMask) || intersects(arch.mask, self.excludeMask) {
			continue
		}
		self.currentArch = arch
		s1, s2, s3, s4 := arch.getSlot(self.id1), arch.getSlot(self.id2), arch.getSlot(self.id3), arch.getSlot(self.id4)
		if s1 < 0 || s2 < 0 || s3 < 0 || s4 < 0 {
			panic("weaveecs: missing component in matching archetype")
		}
		self.base1 = baseOf(arch.componentData[s1])
		self.stride1 = componentSizes[self.id1]
		self.base2 = baseOf(arch.componentData[s2])
		self.stride2 = componentSizes[self.id2]
		self.base3 = baseOf(arch.componentData[s3])
		self.stride3 = componentSizes[self.id3]
		self.base4 = baseOf(arch.componentData[s4])
		self.stride4 = componentSizes[self.id4]
		self.index = 0
		self.currentEntity = arch.entities[0]
		return true
	}
	return false
}

func (self *Query4[T1, T2, T3, T4]) Get() (*T1, *T2, *T3, *T4) {
	p1 := unsafe.Pointer(uintptr(self.base1) + uintptr(self.index)*self.stride1)
	p2 := unsafe.Pointer(uintptr(self.base2) + uintptr(self.index)*self.stride2)
	p3 := unsafe.Pointer(uintptr(self.base3) + uintptr(self.index)*self.stride3)
	p4 := unsafe.Pointer(uintptr(self.base4) + uintptr(self.index)*self.stride4)
	return (*T1)(p1), (*T2)(p2), (*T3)(p3), (*T4)(p4)
}

func (self *Query4[T1, T2, T3, T4]) Entity() EntityID {
	return self.currentEntity
}

func baseOf(col []byte) unsafe.Pointer {
	if len(col) == 0 {
		return nil
	}
	return unsafe.Pointer(&col[0])
}
