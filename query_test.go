package weaveecs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type qPosition struct{ X, Y float64 }
type qVelocity struct{ X, Y float64 }
type qDead struct{}

func TestQuerySingleComponent(t *testing.T) {
	w := NewWorld()
	var ids []EntityID
	for i := 0; i < 3; i++ {
		e, err := w.Spawn(NewComponentValue(qPosition{X: float64(i)}))
		require.NoError(t, err)
		ids = append(ids, e)
	}

	q := CreateQuery[qPosition](w, nil, nil)
	defer q.Release()

	seen := map[EntityID]float64{}
	for q.Next() {
		seen[q.Entity()] = q.Get().X
	}
	assert.Len(t, seen, 3)
	for i, id := range ids {
		assert.Equal(t, float64(i), seen[id])
	}
}

func TestQueryTwoComponentsIntersection(t *testing.T) {
	w := NewWorld()
	both, err := w.Spawn(NewComponentValue(qPosition{X: 1}), NewComponentValue(qVelocity{X: 2}))
	require.NoError(t, err)
	_, err = w.Spawn(NewComponentValue(qPosition{X: 9}))
	require.NoError(t, err)

	q := CreateQuery2[qPosition, qVelocity](w, nil, nil)
	defer q.Release()

	count := 0
	for q.Next() {
		count++
		assert.Equal(t, both, q.Entity())
		p, v := q.Get()
		assert.Equal(t, 1.0, p.X)
		assert.Equal(t, 2.0, v.X)
	}
	assert.Equal(t, 1, count)
}

func TestQueryWithoutExcludesComponent(t *testing.T) {
	w := NewWorld()
	alive, err := w.Spawn(NewComponentValue(qPosition{X: 1}))
	require.NoError(t, err)
	_, err = w.Spawn(NewComponentValue(qPosition{X: 2}), NewComponentValue(qDead{}))
	require.NoError(t, err)

	deadID := RegisterComponent[qDead]()
	q := CreateQuery[qPosition](w, nil, []ComponentID{deadID})
	defer q.Release()

	var found []EntityID
	for q.Next() {
		found = append(found, q.Entity())
	}
	assert.Equal(t, []EntityID{alive}, found)
}

func TestQueryWithRequiresAdditionalComponent(t *testing.T) {
	w := NewWorld()
	_, err := w.Spawn(NewComponentValue(qPosition{X: 1}))
	require.NoError(t, err)
	tagged, err := w.Spawn(NewComponentValue(qPosition{X: 2}), NewComponentValue(qDead{}))
	require.NoError(t, err)

	deadID := RegisterComponent[qDead]()
	q := CreateQuery[qPosition](w, []ComponentID{deadID}, nil)
	defer q.Release()

	var found []EntityID
	for q.Next() {
		found = append(found, q.Entity())
	}
	assert.Equal(t, []EntityID{tagged}, found)
}

func TestQueryReentrancyGuard(t *testing.T) {
	w := NewWorld()
	e, err := w.Spawn(NewComponentValue(qPosition{X: 1}))
	require.NoError(t, err)

	q := CreateQuery[qPosition](w, nil, nil)
	assert.ErrorIs(t, w.DeleteEntity(e), ErrReentrantStructuralMutation)
	q.Release()
	assert.NoError(t, w.DeleteEntity(e))
}

func TestQueryResetReplaysArchetypes(t *testing.T) {
	w := NewWorld()
	_, err := w.Spawn(NewComponentValue(qPosition{X: 1}))
	require.NoError(t, err)

	q := CreateQuery[qPosition](w, nil, nil)
	defer q.Release()

	first := 0
	for q.Next() {
		first++
	}
	q.Reset()
	second := 0
	for q.Next() {
		second++
	}
	assert.Equal(t, first, second)
}
