package weaveecs

import "time"

// EntitiesDeleted is a core resource recording every entity id deleted
// during the current tick, so systems that run later in the same tick can
// react without subscribing to an event (spec.md §4.6).
type EntitiesDeleted struct {
	IDs []EntityID
}

func (d *EntitiesDeleted) reset() { d.IDs = d.IDs[:0] }

// ComponentEntities is a core resource mirroring, per component type, the
// set of entities currently carrying that component. Unlike EntitiesDeleted
// and ComponentUpdates it is not tick-scoped: it is a live view of ownership,
// kept in sync on every add/remove/delete rather than cleared each Tick.
type ComponentEntities struct {
	byID map[ComponentID]map[EntityID]struct{}
}

func (c *ComponentEntities) add(id ComponentID, e EntityID) {
	if c.byID == nil {
		c.byID = make(map[ComponentID]map[EntityID]struct{})
	}
	set := c.byID[id]
	if set == nil {
		set = make(map[EntityID]struct{})
		c.byID[id] = set
	}
	set[e] = struct{}{}
}

func (c *ComponentEntities) remove(id ComponentID, e EntityID) {
	set := c.byID[id]
	if set == nil {
		return
	}
	delete(set, e)
	if len(set) == 0 {
		delete(c.byID, id)
	}
}

// Entities returns the live set of entities currently carrying component id.
func (c *ComponentEntities) Entities(id ComponentID) map[EntityID]struct{} {
	return c.byID[id]
}

// ComponentUpdates is a core resource counting, per component type, how
// many component writes went through the add/set paths (AddComponent*,
// SetComponent, the batch helpers, command-buffer adds) during the current
// tick, whether the write added the component or overwrote one already
// present. Components written at spawn time are not counted.
type ComponentUpdates struct {
	Counts map[ComponentID]int
}

func (c *ComponentUpdates) reset() {
	for k := range c.Counts {
		delete(c.Counts, k)
	}
}

func (c *ComponentUpdates) record(id ComponentID) {
	if c.Counts == nil {
		c.Counts = make(map[ComponentID]int)
	}
	c.Counts[id]++
}

// WorldTick is a core resource updated once per fixed step run by
// Scheduler.Tick: Frame counts the fixed steps run so far and Elapsed holds
// the fixed-step duration of the most recent one.
type WorldTick struct {
	Frame   uint64
	Elapsed time.Duration
}

// LoopControl is a core resource a system can set to stop the schedule
// after the current tick (spec.md §4.8 "tick execution").
type LoopControl struct {
	Stop bool
}

func newCoreResources() *ResourceRegistry {
	r := &ResourceRegistry{}
	SetResource(r, &EntitiesDeleted{})
	SetResource(r, &ComponentEntities{})
	SetResource(r, &ComponentUpdates{})
	SetResource(r, &WorldTick{})
	SetResource(r, &LoopControl{})
	return r
}

// resetTickResources clears the tick-scoped core resources at the start of
// each Tick. ComponentEntities is a persistent ownership mirror, not
// tick-scoped, so it is deliberately left untouched here.
func resetTickResources(r *ResourceRegistry) {
	if v, _ := GetResource[EntitiesDeleted](r); v != nil {
		v.reset()
	}
	if v, _ := GetResource[ComponentUpdates](r); v != nil {
		v.reset()
	}
}
