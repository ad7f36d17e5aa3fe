// SPDX-License-Identifier: MIT

package weights_test

import (
	"strings"
	"testing"

	"github.com/katalvlaran/esf/weights"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// square returns the unit square with lower-left corner (x, y), closed ring.
func square(x, y float64) weights.Polygon {
	return weights.Polygon{{
		{X: x, Y: y}, {X: x + 1, Y: y}, {X: x + 1, Y: y + 1}, {X: x, Y: y + 1}, {X: x, Y: y},
	}}
}

// grid2x2 lays out ids 1..4 as
//
//	3 4
//	1 2
func grid2x2() ([]int, map[int]weights.Polygon) {
	return []int{1, 2, 3, 4}, map[int]weights.Polygon{
		1: square(0, 0), 2: square(1, 0), 3: square(0, 1), 4: square(1, 1),
	}
}

func TestFromNeighbors_RowStandardized(t *testing.T) {
	w, err := weights.FromNeighbors([]int{10, 20, 30}, map[int][]int{
		10: {20}, 20: {10, 30}, 30: {20},
	})
	require.NoError(t, err)
	assert.Equal(t, weights.RowStandardized, w.Style())
	assert.Equal(t, 3, w.N())

	ids, vals, err := w.Neighbors(20)
	require.NoError(t, err)
	assert.Equal(t, []int{10, 30}, ids)
	assert.Equal(t, []float64{0.5, 0.5}, vals)

	assert.InDelta(t, 3.0, w.S0(), 1e-15)

	lag, err := w.Lag([]float64{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 2, 2}, lag)

	_, err = w.Lag([]float64{1})
	assert.ErrorIs(t, err, weights.ErrLengthMismatch)
}

func TestFromNeighbors_Errors(t *testing.T) {
	_, err := weights.FromNeighbors(nil, nil)
	assert.ErrorIs(t, err, weights.ErrEmpty)

	_, err = weights.FromNeighbors([]int{1, 1}, nil)
	assert.ErrorIs(t, err, weights.ErrDuplicateID)

	_, err = weights.FromNeighbors([]int{1, 2}, map[int][]int{1: {3}})
	assert.ErrorIs(t, err, weights.ErrUnknownUnit)

	_, err = weights.FromNeighbors([]int{1, 2}, map[int][]int{1: {1}})
	assert.ErrorIs(t, err, weights.ErrSelfNeighbor)

	_, err = weights.FromNeighbors([]int{1, 2}, map[int][]int{1: {2}})
	assert.ErrorIs(t, err, weights.ErrAsymmetric)

	w, err := weights.FromNeighbors([]int{1, 2}, map[int][]int{1: {2}}, weights.WithSymmetrize())
	require.NoError(t, err)
	ids, _, err := w.Neighbors(2)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, ids)
}

func TestIslandsHaveZeroRows(t *testing.T) {
	w, err := weights.FromNeighbors([]int{1, 2, 3}, map[int][]int{1: {2}, 2: {1}})
	require.NoError(t, err)
	assert.Equal(t, []int{3}, w.Islands())
	assert.Equal(t, []int{1, 1, 0}, w.Cardinalities())

	lag, err := w.Lag([]float64{5, 7, 100})
	require.NoError(t, err)
	assert.Equal(t, []float64{7, 5, 0}, lag)
}

func TestQueenVersusRook(t *testing.T) {
	ids, polys := grid2x2()

	queen, err := weights.QueenFromPolygons(ids, polys, weights.WithStyle(weights.Binary))
	require.NoError(t, err)
	nb, _, err := queen.Neighbors(1)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3, 4}, nb)

	rook, err := weights.RookFromPolygons(ids, polys, weights.WithStyle(weights.Binary))
	require.NoError(t, err)
	nb, _, err = rook.Neighbors(1)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, nb)

	// Binary rook on the 2x2 grid: every unit has two neighbors.
	assert.InDelta(t, 8.0, rook.S0(), 1e-15)
	assert.InDelta(t, 16.0, rook.S1(), 1e-15)
	assert.InDelta(t, 64.0, rook.S2(), 1e-15)
}

func TestPolygonMissing(t *testing.T) {
	ids, polys := grid2x2()
	delete(polys, 4)
	_, err := weights.QueenFromPolygons(ids, polys)
	assert.ErrorIs(t, err, weights.ErrBadLayer)
}

func TestDenseAndTransform(t *testing.T) {
	w, err := weights.FromNeighbors([]int{1, 2, 3}, map[int][]int{1: {2, 3}, 2: {1}, 3: {1}})
	require.NoError(t, err)

	d, err := w.Dense()
	require.NoError(t, err)
	v, _ := d.At(0, 1)
	assert.Equal(t, 0.5, v)
	v, _ = d.At(1, 0)
	assert.Equal(t, 1.0, v)

	b := w.Transform(weights.Binary)
	_, vals, err := b.Neighbors(1)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 1}, vals)
	// the original is not affected
	_, vals, _ = w.Neighbors(1)
	assert.Equal(t, []float64{0.5, 0.5}, vals)
}

func TestAlign(t *testing.T) {
	w, err := weights.FromNeighbors([]int{1, 2, 3}, map[int][]int{1: {2}, 2: {1, 3}, 3: {2}})
	require.NoError(t, err)

	a, err := w.Align([]int{3, 2, 1})
	require.NoError(t, err)
	assert.Equal(t, []int{3, 2, 1}, a.IDs())
	lag, err := a.Lag([]float64{30, 20, 10})
	require.NoError(t, err)
	assert.Equal(t, []float64{20, 20, 20}, lag)

	_, err = w.Align([]int{1, 2, 4})
	assert.ErrorIs(t, err, weights.ErrUnknownUnit)
}

func TestReadLayer(t *testing.T) {
	src := `
units:
  - id: 1
    neighbors: [2]
    polygon: [[[0, 0], [1, 0], [1, 1], [0, 1]]]
  - id: 2
    neighbors: [1]
    polygon: [[[1, 0], [2, 0], [2, 1], [1, 1]]]
`
	l, err := weights.ReadLayer(strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, l.IDs)

	listed, err := l.Weights(weights.Listed)
	require.NoError(t, err)
	rook, err := l.Weights(weights.Rook)
	require.NoError(t, err)
	assert.Equal(t, listed.S0(), rook.S0())

	_, err = weights.ReadLayer(strings.NewReader("units: []\n"))
	assert.ErrorIs(t, err, weights.ErrBadLayer)

	c, err := weights.ParseContiguity("Queen")
	require.NoError(t, err)
	assert.Equal(t, weights.Queen, c)
}

func TestLayerSubset(t *testing.T) {
	ids, polys := grid2x2()
	l := &weights.Layer{
		IDs:       ids,
		Neighbors: map[int][]int{1: {2, 3}, 2: {1, 4}, 3: {1, 4}, 4: {2, 3}},
		Polygons:  polys,
	}
	sub := l.Subset([]int{4, 2, 1})
	assert.Equal(t, []int{4, 2, 1}, sub.IDs)
	assert.Equal(t, []int{2}, sub.Neighbors[1])
	assert.Equal(t, []int{2}, sub.Neighbors[4])
	assert.Len(t, sub.Polygons, 3)

	w, err := sub.Weights(weights.Listed)
	require.NoError(t, err)
	assert.Equal(t, []int{4, 2, 1}, w.IDs())
}

func TestLattice(t *testing.T) {
	rook, err := weights.Lattice(3, 3, weights.Rook, weights.WithStyle(weights.Binary))
	require.NoError(t, err)
	queen, err := weights.Lattice(3, 3, weights.Queen, weights.WithStyle(weights.Binary))
	require.NoError(t, err)

	// Centre cell 5: 4 rook neighbors, 8 queen neighbors.
	assert.Equal(t, []int{2, 3, 2, 3, 4, 3, 2, 3, 2}, rook.Cardinalities())
	assert.Equal(t, []int{3, 5, 3, 5, 8, 5, 3, 5, 3}, queen.Cardinalities())
	assert.Equal(t, 24.0, rook.S0())
	assert.Equal(t, 40.0, queen.S0())

	ids, _, err := rook.Neighbors(1)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 4}, ids)

	_, err = weights.Lattice(0, 3, weights.Rook)
	assert.ErrorIs(t, err, weights.ErrEmpty)
	_, err = weights.Lattice(2, 2, weights.Listed)
	assert.Error(t, err)
}

func TestComponents(t *testing.T) {
	w, err := weights.FromNeighbors([]int{1, 2, 3, 4, 5}, map[int][]int{
		1: {2}, 2: {1}, 4: {5}, 5: {4},
	})
	require.NoError(t, err)
	assert.Equal(t, [][]int{{1, 2}, {3}, {4, 5}}, w.Components())

	grid, err := weights.Lattice(2, 3, weights.Rook)
	require.NoError(t, err)
	require.Len(t, grid.Components(), 1)
	assert.Equal(t, []int{1, 2, 4, 3, 5, 6}, grid.Components()[0])
}
