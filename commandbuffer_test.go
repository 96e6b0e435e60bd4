package weaveecs

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cbPosition struct{ X float64 }

func TestCommandBufferSpawnDeferred(t *testing.T) {
	w := NewWorld()
	id := w.Commands.Spawn(NewComponentValue(cbPosition{X: 7}))
	assert.False(t, w.IsAlive(id), "entity must not exist before Flush")

	errs := w.Commands.Flush()
	assert.Empty(t, errs)
	assert.True(t, w.IsAlive(id))

	pos, err := GetComponent[cbPosition](w, id)
	require.NoError(t, err)
	assert.Equal(t, 7.0, pos.X)
}

func TestCommandBufferDespawnDeferred(t *testing.T) {
	w := NewWorld()
	e := w.CreateEntity()
	w.Commands.Despawn(e)
	assert.True(t, w.IsAlive(e))

	w.Commands.Flush()
	assert.False(t, w.IsAlive(e))
}

func TestCommandBufferOrderPreserved(t *testing.T) {
	w := NewWorld()
	e := w.CreateEntity()
	w.Commands.AddComponents(e, NewComponentValue(cbPosition{X: 1}))
	w.Commands.RemoveComponents(e, GetID[cbPosition]())

	w.Commands.Flush()
	assert.False(t, HasComponent[cbPosition](w, e))
}

func TestCommandBufferPrefabSpawnWithoutSpawnerFails(t *testing.T) {
	w := NewWorld()
	handle := PrefabHandle(uuid.New())
	id := w.Commands.PrefabSpawn(handle)

	errs := w.Commands.Flush()
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], ErrNotImplemented)
	assert.False(t, w.IsAlive(id))
}

func TestCommandBufferPrefabSpawnWithSpawner(t *testing.T) {
	w := NewWorld()
	w.SetPrefabSpawner(func(PrefabHandle) ([]ComponentValue, error) {
		return []ComponentValue{NewComponentValue(cbPosition{X: 42})}, nil
	})
	handle := PrefabHandle(uuid.New())
	id := w.Commands.PrefabSpawn(handle)

	errs := w.Commands.Flush()
	assert.Empty(t, errs)
	require.True(t, w.IsAlive(id))
	pos, err := GetComponent[cbPosition](w, id)
	require.NoError(t, err)
	assert.Equal(t, 42.0, pos.X)
}
