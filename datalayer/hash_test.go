package datalayer

import (
	"testing"

	"github.com/rmera/goff"
	"github.com/rmera/goff/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHash(t *testing.T) {
	h := func(v any, tol int) string {
		s, err := Hash(v, tol)
		require.NoError(t, err)
		return s
	}
	assert.Equal(t, h([]float64{1, 2}, 8), h([]int{1, 2}, 8))
	assert.Equal(t, h([]float64{1, 2}, 8), h([2]float64{1, 2}, 8))
	assert.Equal(t, h([]float64{1, 2}, 8), h([]any{1, 2.0}, 8))
	assert.Equal(t, h(0.0, 6), h(-0.0000001, 6))
	assert.Equal(t, h(1.0, 3), h(1.0001, 3))
	assert.NotEqual(t, h(1.0, 5), h(1.0001, 5))
	assert.Equal(t,
		h(map[string]any{"b": 1, "a": []float64{2}}, 8),
		h(map[string]any{"a": []int{2}, "b": 1.0}, 8))
	assert.NotEqual(t, h("1", 8), h(1, 8))
	assert.Len(t, h("x", 8), 36)

	tol := metadata.DefaultTolerance
	assert.Equal(t, h([]float64{5.0}, tol), h([]float64{5.0 + 1e-9}, tol))
	assert.NotEqual(t, h([]float64{5.0}, tol), h([]float64{5.0 + 1e-8}, tol))
	assert.Equal(t, h(map[string]any{"k": 5, "d": 6}, tol), h(map[string]any{"d": 6.0, "k": 5.0 + 1e-14}, tol))

	_, err := Hash(map[int]float64{1: 2}, 8)
	assert.ErrorIs(t, err, goff.ErrType)
	_, err = Hash(struct{ A int }{1}, 8)
	assert.ErrorIs(t, err, goff.ErrType)
}

func TestFindLowestHole(t *testing.T) {
	assert.Equal(t, 0, FindLowestHole(nil))
	assert.Equal(t, 0, FindLowestHole([]int{}))
	assert.Equal(t, 1, FindLowestHole([]int{0}))
	assert.Equal(t, 2, FindLowestHole([]int{0, 1, 3, 4}))
	assert.Equal(t, 3, FindLowestHole([]int{0, 1, 2}))
	assert.Equal(t, 1, FindLowestHole([]int{2, 0, 5}))
	assert.Equal(t, 0, FindLowestHole([]int{1, 2}))
}

func TestUniqueTable(t *testing.T) {
	u := newUniqueTable[string](8)
	id, err := u.add("a", "a")
	require.NoError(t, err)
	assert.Equal(t, 0, id)
	id, err = u.add("a", "a")
	require.NoError(t, err)
	assert.Equal(t, 0, id)

	id, err = u.add("b", "b", 5)
	require.NoError(t, err)
	assert.Equal(t, 5, id)
	id, err = u.add("c", "c")
	require.NoError(t, err)
	assert.Equal(t, 1, id)

	//a free uid takes a duplicate value, lookups by value keep the first one
	id, err = u.add("a", "a", 3)
	require.NoError(t, err)
	assert.Equal(t, 3, id)
	id, _ = u.add("a", "a")
	assert.Equal(t, 0, id)

	_, err = u.add("z", "z", 5)
	assert.ErrorIs(t, err, goff.ErrConflict)
	assert.ErrorIs(t, err, goff.ErrKey)
	_, err = u.add("z", "z", -1)
	assert.ErrorIs(t, err, goff.ErrValue)

	_, err = u.get(2)
	assert.ErrorIs(t, err, goff.ErrKey)
	assert.Equal(t, []int{0, 1, 3, 5}, u.uids())
}
