package weaveecs

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResourceRegistry(t *testing.T) {
	type testStruct1 struct{}
	type testStruct2 struct{}

	t.Run("Add and Get", func(t *testing.T) {
		r := &ResourceRegistry{}
		res1 := &testStruct1{}
		id := r.Add(res1)
		assert.Equal(t, 0, id)
		assert.Equal(t, res1, r.Get(0))
	})

	t.Run("Has", func(t *testing.T) {
		r := &ResourceRegistry{}
		r.Add(&testStruct1{})
		assert.True(t, r.Has(0))
		assert.False(t, r.Has(1))
		assert.False(t, r.Has(-1))
	})

	t.Run("Add same type panics", func(t *testing.T) {
		r := &ResourceRegistry{}
		r.Add(&testStruct1{})
		assert.Panics(t, func() { r.Add(&testStruct1{}) })
	})

	t.Run("Add different types", func(t *testing.T) {
		r := &ResourceRegistry{}
		r.Add(&testStruct1{})
		id := r.Add(&testStruct2{})
		assert.Equal(t, 1, id)
	})

	t.Run("Remove", func(t *testing.T) {
		r := &ResourceRegistry{}
		id := r.Add(&testStruct1{})
		r.Remove(id)
		assert.False(t, r.Has(id))
		assert.Nil(t, r.Get(id))
	})

	t.Run("Add after Remove same type", func(t *testing.T) {
		r := &ResourceRegistry{}
		id1 := r.Add(&testStruct1{})
		r.Remove(id1)
		id2 := r.Add(&testStruct1{})
		assert.Equal(t, id1, id2)
		assert.True(t, r.Has(id2))
	})

	t.Run("Add after multiple Removes", func(t *testing.T) {
		r := &ResourceRegistry{}
		id0 := r.Add(&testStruct1{})
		id1 := r.Add(&testStruct2{})
		r.Remove(id0)
		r.Remove(id1)
		id2 := r.Add(&testStruct1{})
		assert.Equal(t, 1, id2)
		id3 := r.Add(&testStruct2{})
		assert.Equal(t, 0, id3)
	})

	t.Run("Clear", func(t *testing.T) {
		r := &ResourceRegistry{}
		r.Add(&testStruct1{})
		r.Add(&testStruct2{})
		r.Clear()
		assert.Empty(t, r.items)
		assert.Empty(t, r.types)
		assert.Empty(t, r.freeIds)
		assert.False(t, r.Has(0))
	})

	t.Run("Add nil panics", func(t *testing.T) {
		r := &ResourceRegistry{}
		assert.Panics(t, func() { r.Add(nil) })
	})

	t.Run("Remove non-existent", func(t *testing.T) {
		r := &ResourceRegistry{}
		assert.NotPanics(t, func() { r.Remove(0) })
	})

	t.Run("Get non-existent", func(t *testing.T) {
		r := &ResourceRegistry{}
		assert.Nil(t, r.Get(0))
	})

	t.Run("Pointers preserved", func(t *testing.T) {
		r := &ResourceRegistry{}
		res := &testStruct1{}
		id := r.Add(res)
		assert.Same(t, res, r.Get(id))
	})
}

func TestHasResourceAndGetResource(t *testing.T) {
	type speed struct{ V float64 }
	r := &ResourceRegistry{}

	ok, id := HasResource[speed](r)
	assert.False(t, ok)
	assert.Equal(t, -1, id)

	r.Add(&speed{V: 3})
	ok, id = HasResource[speed](r)
	require.True(t, ok)
	assert.Equal(t, 0, id)

	got, gotID := GetResource[speed](r)
	require.NotNil(t, got)
	assert.Equal(t, 0, gotID)
	assert.Equal(t, 3.0, got.V)
}

func TestSetResource(t *testing.T) {
	type tag struct{ N int }
	r := &ResourceRegistry{}

	SetResource(r, &tag{N: 1})
	got, _ := GetResource[tag](r)
	require.NotNil(t, got)
	assert.Equal(t, 1, got.N)

	SetResource(r, &tag{N: 2})
	got, _ = GetResource[tag](r)
	require.NotNil(t, got)
	assert.Equal(t, 2, got.N)
}

func TestMustGetResource(t *testing.T) {
	type tag struct{ N int }
	r := &ResourceRegistry{}

	_, err := MustGetResource[tag](r)
	assert.ErrorIs(t, err, ErrUnknownResource)

	SetResource(r, &tag{N: 7})
	got, err := MustGetResource[tag](r)
	require.NoError(t, err)
	assert.Equal(t, 7, got.N)
}

func generateDistinctTypesAndRes(n int) ([]reflect.Type, []any) {
	types := make([]reflect.Type, n)
	res := make([]any, n)
	for i := 0; i < n; i++ {
		fields := []reflect.StructField{
			{Name: fmt.Sprintf("F%d", i), Type: reflect.TypeOf(0)},
		}
		types[i] = reflect.StructOf(fields)
		res[i] = reflect.New(types[i]).Interface()
	}
	return types, res
}

func BenchmarkResourceRegistryAdd(b *testing.B) {
	sizes := []int{1000, 10000, 100000, 1000000}
	for _, size := range sizes {
		name := fmt.Sprintf("%dK", size/1000)
		if size == 1000000 {
			name = "1M"
		}
		b.Run(name, func(b *testing.B) {
			_, reses := generateDistinctTypesAndRes(size)
			r := &ResourceRegistry{}
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < size; i++ {
				r.Add(reses[i])
			}
		})
	}
}
