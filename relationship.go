package weaveecs

import "fmt"

// Relationship is implemented by component types that encode a directed
// edge to another entity (spec.md §4.5). RelationshipTarget reports the
// entity the edge points at; it is read when the component is added or
// overwritten, to keep the reverse index below current. Removal looks the
// target up in the engine's forward index instead.
type Relationship interface {
	RelationshipTarget() EntityID
}

// RelationshipOptions configures how a relationship component type behaves
// when its target entity is deleted.
type RelationshipOptions struct {
	// LinkedSpawn, when true, cascades deletion: deleting the target
	// entity also deletes every source entity holding this relationship
	// toward it (spec.md §4.5 "linked_spawn").
	LinkedSpawn bool
}

type relationshipDescriptor struct {
	componentID ComponentID
	linkedSpawn bool
}

// relationshipEngine maintains, per relationship component type, the
// reverse index from a target entity to the set of source entities that
// hold an edge toward it. Grounded on plus3-ooftn/ecs's deferred-bookkeeping
// style (commands.go), since the teacher library has no equivalent concept.
type relationshipEngine struct {
	descriptors map[ComponentID]relationshipDescriptor
	// reverse[componentID][target] -> source entities holding that edge.
	reverse map[ComponentID]map[EntityID]map[EntityID]struct{}
	// forward[componentID][source] -> target, so a later remove/delete can
	// clear the reverse index without re-reading the component's bytes.
	forward map[ComponentID]map[EntityID]EntityID
}

func newRelationshipEngine() *relationshipEngine {
	return &relationshipEngine{
		descriptors: make(map[ComponentID]relationshipDescriptor),
		reverse:     make(map[ComponentID]map[EntityID]map[EntityID]struct{}),
		forward:     make(map[ComponentID]map[EntityID]EntityID),
	}
}

// register marks id as a relationship component. Calling it twice for the
// same id with conflicting options is rejected: the reverse/forward
// indices built under the first registration would otherwise disagree
// with the LinkedSpawn cascade behavior the second registration asked for.
func (re *relationshipEngine) register(id ComponentID, opts RelationshipOptions) error {
	if existing, ok := re.descriptors[id]; ok && existing.linkedSpawn != opts.LinkedSpawn {
		return fmt.Errorf("%w: component already registered as a relationship with LinkedSpawn=%v",
			ErrRelationshipMismatch, existing.linkedSpawn)
	}
	re.descriptors[id] = relationshipDescriptor{componentID: id, linkedSpawn: opts.LinkedSpawn}
	if re.reverse[id] == nil {
		re.reverse[id] = make(map[EntityID]map[EntityID]struct{})
	}
	return nil
}

func (re *relationshipEngine) isRelationship(id ComponentID) bool {
	_, ok := re.descriptors[id]
	return ok
}

// onAdd records that source now holds a relationship edge of type id
// toward the entity v.RelationshipTarget() reports.
func (re *relationshipEngine) onAdd(source EntityID, id ComponentID, v Relationship) {
	target := v.RelationshipTarget()
	bucket := re.reverse[id]
	if bucket == nil {
		bucket = make(map[EntityID]map[EntityID]struct{})
		re.reverse[id] = bucket
	}
	sources := bucket[target]
	if sources == nil {
		sources = make(map[EntityID]struct{})
		bucket[target] = sources
	}
	sources[source] = struct{}{}

	fwd := re.forward[id]
	if fwd == nil {
		fwd = make(map[EntityID]EntityID)
		re.forward[id] = fwd
	}
	fwd[source] = target
}

// onRemove drops the edge source held of type id, looking the target up in
// the forward index rather than re-reading the component's bytes.
func (re *relationshipEngine) onRemove(source EntityID, id ComponentID) {
	fwd := re.forward[id]
	if fwd == nil {
		return
	}
	target, ok := fwd[source]
	if !ok {
		return
	}
	delete(fwd, source)

	bucket := re.reverse[id]
	if bucket == nil {
		return
	}
	sources := bucket[target]
	if sources == nil {
		return
	}
	delete(sources, source)
	if len(sources) == 0 {
		delete(bucket, target)
	}
}

// sourcesTargeting returns every entity holding a relationship of type id
// toward target.
func (re *relationshipEngine) sourcesTargeting(id ComponentID, target EntityID) []EntityID {
	bucket := re.reverse[id]
	if bucket == nil {
		return nil
	}
	sources := bucket[target]
	if len(sources) == 0 {
		return nil
	}
	out := make([]EntityID, 0, len(sources))
	for s := range sources {
		out = append(out, s)
	}
	return out
}

// cascadeTargets inspects every relationship type against the entity being
// deleted (target). For linked_spawn types it returns the source entities
// that must also be deleted. For non-linked_spawn types it returns, keyed by
// component id, the source entities that must instead have the relationship
// component removed, since their edge would otherwise keep pointing at a
// dead entity (spec.md §4.5).
func (re *relationshipEngine) cascadeTargets(target EntityID) (cascading []EntityID, nonCascading map[ComponentID][]EntityID) {
	for id, desc := range re.descriptors {
		sources := re.sourcesTargeting(id, target)
		if len(sources) == 0 {
			continue
		}
		if desc.linkedSpawn {
			cascading = append(cascading, sources...)
			continue
		}
		if nonCascading == nil {
			nonCascading = make(map[ComponentID][]EntityID)
		}
		nonCascading[id] = append(nonCascading[id], sources...)
	}
	return cascading, nonCascading
}

// forget drops every relationship entry that names entity, either as a
// source or a target, once it has been deleted.
func (re *relationshipEngine) forget(entity EntityID) {
	for id, bucket := range re.reverse {
		delete(bucket, entity)
		for target, sources := range bucket {
			if _, ok := sources[entity]; ok {
				delete(sources, entity)
				if len(sources) == 0 {
					delete(bucket, target)
				}
			}
		}
		re.reverse[id] = bucket
	}
	for _, fwd := range re.forward {
		delete(fwd, entity)
	}
}
