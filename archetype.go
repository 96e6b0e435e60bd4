package weaveecs

// Archetype is a storage bucket for the unique combination of component
// types it names. Every live entity belongs to exactly one archetype at a
// time; adding or removing a component moves the entity's row to a
// different archetype (spec.md §3 "Archetype").
type Archetype struct {
	mask          maskType               // The component mask for this archetype.
	componentData [][]byte               // Per-component contiguous byte columns, row-major.
	componentIDs  []ComponentID          // Component ids present, in the order componentData is indexed.
	entities      []EntityID             // Entities in this archetype, row-ordered.
	slots         [maxComponentTypes]int // slots[id] -> column index in componentData, or -1.
}

// getSlot finds the column index of a component id in this archetype,
// using a direct lookup array for O(1) access.
func (self *Archetype) getSlot(id ComponentID) int {
	return self.slots[id]
}

// Signature reports the set of component ids this archetype stores.
func (self *Archetype) Signature() []ComponentID {
	return self.componentIDs
}

// Len reports how many entities currently occupy this archetype.
func (self *Archetype) Len() int {
	return len(self.entities)
}
