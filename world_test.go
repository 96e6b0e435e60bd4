package weaveecs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type wPosition struct{ X, Y float64 }
type wVelocity struct{ X, Y float64 }
type wHealth struct{ HP int }

func TestCreateEntityIsAlive(t *testing.T) {
	w := NewWorld()
	e := w.CreateEntity()
	assert.True(t, w.IsAlive(e))
	assert.NotEqual(t, None, e)
}

func TestEntityIDsNeverReused(t *testing.T) {
	w := NewWorld()
	e1 := w.CreateEntity()
	require.NoError(t, w.DeleteEntity(e1))
	e2 := w.CreateEntity()
	assert.NotEqual(t, e1, e2)
	assert.False(t, w.IsAlive(e1))
	assert.True(t, w.IsAlive(e2))
}

func TestSpawnWithComponents(t *testing.T) {
	w := NewWorld()
	e, err := w.Spawn(NewComponentValue(wPosition{X: 1, Y: 2}), NewComponentValue(wVelocity{X: 3}))
	require.NoError(t, err)

	pos, err := GetComponent[wPosition](w, e)
	require.NoError(t, err)
	assert.Equal(t, wPosition{X: 1, Y: 2}, *pos)

	vel, err := GetComponent[wVelocity](w, e)
	require.NoError(t, err)
	assert.Equal(t, 3.0, vel.X)
}

func TestAddComponentMovesArchetype(t *testing.T) {
	w := NewWorld()
	e := w.CreateEntity()
	_, err := AddComponent(w, e, wPosition{X: 5})
	require.NoError(t, err)
	assert.True(t, HasComponent[wPosition](w, e))

	err = AddComponent2(w, e, wVelocity{X: 1, Y: 1}, wHealth{HP: 10})
	require.NoError(t, err)
	assert.True(t, HasComponent[wVelocity](w, e))
	assert.True(t, HasComponent[wHealth](w, e))

	pos, err := GetComponent[wPosition](w, e)
	require.NoError(t, err)
	assert.Equal(t, 5.0, pos.X)
}

func TestSetComponentOverwritesInPlace(t *testing.T) {
	w := NewWorld()
	e, err := w.Spawn(NewComponentValue(wHealth{HP: 10}))
	require.NoError(t, err)

	require.NoError(t, SetComponent(w, e, wHealth{HP: 3}))
	hp, err := GetComponent[wHealth](w, e)
	require.NoError(t, err)
	assert.Equal(t, 3, hp.HP)
}

func TestRemoveComponent(t *testing.T) {
	w := NewWorld()
	e, err := w.Spawn(NewComponentValue(wPosition{}), NewComponentValue(wVelocity{}))
	require.NoError(t, err)

	require.NoError(t, RemoveComponent[wVelocity](w, e))
	assert.False(t, HasComponent[wVelocity](w, e))
	assert.True(t, HasComponent[wPosition](w, e))
}

func TestOperationsOnUnknownEntityFail(t *testing.T) {
	w := NewWorld()
	ghost := EntityID(9999)

	_, err := GetComponent[wPosition](w, ghost)
	assert.ErrorIs(t, err, ErrUnknownEntity)

	_, err = AddComponent(w, ghost, wPosition{})
	assert.ErrorIs(t, err, ErrUnknownEntity)

	err = w.DeleteEntity(ghost)
	assert.ErrorIs(t, err, ErrUnknownEntity)
}

func TestDeleteEntitySwapRemovesRow(t *testing.T) {
	w := NewWorld()
	a, err := w.Spawn(NewComponentValue(wPosition{X: 1}))
	require.NoError(t, err)
	b, err := w.Spawn(NewComponentValue(wPosition{X: 2}))
	require.NoError(t, err)

	require.NoError(t, w.DeleteEntity(a))
	assert.False(t, w.IsAlive(a))
	assert.True(t, w.IsAlive(b))

	pos, err := GetComponent[wPosition](w, b)
	require.NoError(t, err)
	assert.Equal(t, 2.0, pos.X)
}

func TestDeleteEntityRecordsEntitiesDeleted(t *testing.T) {
	w := NewWorld()
	e := w.CreateEntity()
	require.NoError(t, w.DeleteEntity(e))

	deleted, _ := GetResource[EntitiesDeleted](w.Resources)
	require.NotNil(t, deleted)
	assert.Contains(t, deleted.IDs, e)
}

func TestComponentEntitiesSurvivesAcrossTicks(t *testing.T) {
	w := NewWorld()
	s := NewScheduler(w)
	e, err := w.Spawn(NewComponentValue(wPosition{X: 1}))
	require.NoError(t, err)

	posID := GetID[wPosition]()
	s.Tick()
	s.Tick()

	comps, _ := GetResource[ComponentEntities](w.Resources)
	require.NotNil(t, comps)
	_, stillOwns := comps.Entities(posID)[e]
	assert.True(t, stillOwns, "entity must remain in ComponentEntities after ticks elapse")
}

func TestComponentEntitiesShrinksOnRemoveAndDelete(t *testing.T) {
	w := NewWorld()
	e, err := w.Spawn(NewComponentValue(wPosition{X: 1}), NewComponentValue(wVelocity{X: 2}))
	require.NoError(t, err)

	posID := GetID[wPosition]()
	velID := GetID[wVelocity]()
	comps, _ := GetResource[ComponentEntities](w.Resources)
	require.NotNil(t, comps)

	_, ok := comps.Entities(posID)[e]
	assert.True(t, ok)

	require.NoError(t, RemoveComponent[wVelocity](w, e))
	_, ok = comps.Entities(velID)[e]
	assert.False(t, ok, "removed component must drop the entity from ComponentEntities")

	require.NoError(t, w.DeleteEntity(e))
	_, ok = comps.Entities(posID)[e]
	assert.False(t, ok, "deleted entity must drop out of every component's ComponentEntities set")
}

func TestComponentDependencyMetadata(t *testing.T) {
	ResetGlobalRegistry()
	defer ResetGlobalRegistry()

	id := RegisterComponentWithDependency[wHealth](
		ComponentDependency{RequiredComponents: []string{"weaveecs.wPosition"}},
		func() wHealth { return wHealth{HP: 100} },
	)
	dep := DependencyOf(id)
	assert.Equal(t, []string{"weaveecs.wPosition"}, dep.RequiredComponents)

	def, ok := DefaultOf(id)
	require.True(t, ok)
	assert.Equal(t, wHealth{HP: 100}, def)
}
