package chemgraph

import (
	"testing"

	"github.com/rmera/goff"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// butane's carbons, plus a hydrogen on the first one
func butane(t *testing.T) *Topology {
	T, err := FromBonds([][2]int{{0, 1}, {1, 2}, {2, 3}, {0, 4}})
	require.NoError(t, err)
	return T
}

func TestPairs(t *testing.T) {
	T := butane(t)
	assert.Equal(t, 5, T.Len())
	p := T.Pairs()
	assert.Equal(t, [][2]int{{0, 1}, {0, 4}, {1, 2}, {2, 3}}, p.P12)
	assert.Equal(t, [][2]int{{0, 2}, {1, 3}, {1, 4}}, p.P13)
	assert.Equal(t, [][2]int{{0, 3}, {2, 4}}, p.P14)

	assert.Equal(t, 3, T.Separation(4, 2, 3))
	assert.Equal(t, -1, T.Separation(4, 3, 3))
	assert.Equal(t, []int{0, 2}, T.Neighbors(1))
	assert.True(t, T.Bonded(1, 0))
}

func TestRing(t *testing.T) {
	//cyclobutane: 0 and 2 are 1-3 both ways, no 1-4 pairs
	T, err := FromBonds([][2]int{{0, 1}, {1, 2}, {2, 3}, {3, 0}})
	require.NoError(t, err)
	p := T.Pairs()
	assert.Len(t, p.P12, 4)
	assert.Equal(t, [][2]int{{0, 2}, {1, 3}}, p.P13)
	assert.Empty(t, p.P14)
}

func TestAnglesDihedrals(t *testing.T) {
	T := butane(t)
	assert.Equal(t, [][3]int{{1, 0, 4}, {0, 1, 2}, {1, 2, 3}}, T.Angles())
	assert.ElementsMatch(t, [][4]int{{0, 1, 2, 3}, {4, 0, 1, 2}}, T.Dihedrals())
}

func TestBadBonds(t *testing.T) {
	_, err := FromBonds([][2]int{{1, 1}})
	assert.ErrorIs(t, err, goff.ErrValue)
	_, err = FromBonds([][2]int{{-1, 1}})
	assert.ErrorIs(t, err, goff.ErrValue)
}
