// SPDX-License-Identifier: MIT

package mem_test

import (
	"testing"

	"github.com/katalvlaran/esf/mem"
	"github.com/katalvlaran/esf/weights"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pathWeights returns a row-standardized chain 1-2-…-n.
func pathWeights(t *testing.T, n int) *weights.Weights {
	t.Helper()
	ids := make([]int, n)
	nb := make(map[int][]int, n)
	for i := 0; i < n; i++ {
		ids[i] = i + 1
		if i > 0 {
			nb[i+1] = append(nb[i+1], i)
		}
		if i < n-1 {
			nb[i+1] = append(nb[i+1], i+2)
		}
	}
	w, err := weights.FromNeighbors(ids, nb)
	require.NoError(t, err)

	return w
}

func dot(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}

	return s
}

func TestBuild_OrthonormalCenteredDescending(t *testing.T) {
	w := pathWeights(t, 8)
	b, err := mem.Build(w)
	require.NoError(t, err)
	require.Greater(t, b.Len(), 0)

	cands := b.Candidates()
	ones := make([]float64, 8)
	for i := range ones {
		ones[i] = 1
	}
	for i, c := range cands {
		assert.Equal(t, i+1, c.Rank)
		assert.Greater(t, c.Eigenvalue, 0.0)
		assert.InDelta(t, 1.0, dot(c.Loadings, c.Loadings), 1e-10, "unit norm")
		assert.InDelta(t, 0.0, dot(c.Loadings, ones), 1e-9, "orthogonal to constant")
		if i > 0 {
			assert.GreaterOrEqual(t, cands[i-1].Eigenvalue, c.Eigenvalue)
		}
		for j := 0; j < i; j++ {
			assert.InDelta(t, 0.0, dot(c.Loadings, cands[j].Loadings), 1e-9, "orthogonal %d,%d", i, j)
		}
	}
}

func TestBuild_MoranIOfEigenvector(t *testing.T) {
	w := pathWeights(t, 6)
	b, err := mem.Build(w)
	require.NoError(t, err)

	c, ok := b.Candidate(1)
	require.True(t, ok)
	lag, err := w.Lag(c.Loadings)
	require.NoError(t, err)
	// Loadings have zero mean and unit norm, so I = n/S0 · xᵀWx.
	got := float64(w.N()) / w.S0() * dot(c.Loadings, lag)
	assert.InDelta(t, got, c.MoranI, 1e-9)
	assert.Greater(t, c.MoranI, 0.5, "the leading map of a chain is a smooth gradient")
}

func TestBuild_MoranIMatchesEigenvalue(t *testing.T) {
	w := pathWeights(t, 8)
	b, err := mem.Build(w, mem.WithPositiveOnly(false))
	require.NoError(t, err)

	scale := float64(w.N()) / w.S0()
	for _, c := range b.Candidates() {
		lag, err := w.Lag(c.Loadings)
		require.NoError(t, err)
		assert.InDelta(t, scale*c.Eigenvalue, c.MoranI, 1e-9, "rank %d", c.Rank)
		assert.InDelta(t, scale*dot(c.Loadings, lag), c.MoranI, 1e-9, "rank %d", c.Rank)
	}
}

func TestBuild_Deterministic(t *testing.T) {
	w := pathWeights(t, 7)
	a, err := mem.Build(w)
	require.NoError(t, err)
	b, err := mem.Build(w)
	require.NoError(t, err)
	assert.Equal(t, a.Candidates(), b.Candidates())
}

func TestBuild_Options(t *testing.T) {
	w := pathWeights(t, 9)
	all, err := mem.Build(w, mem.WithPositiveOnly(false))
	require.NoError(t, err)
	pos, err := mem.Build(w)
	require.NoError(t, err)
	assert.Greater(t, all.Len(), pos.Len())

	two, err := mem.Build(w, mem.WithMaxVectors(2))
	require.NoError(t, err)
	assert.Equal(t, 2, two.Len())
	_, ok := two.Candidate(3)
	assert.False(t, ok)
}

func TestBuild_Errors(t *testing.T) {
	_, err := mem.Build(nil)
	assert.ErrorIs(t, err, mem.ErrNilWeights)

	_, err = mem.Build(pathWeights(t, 2))
	assert.ErrorIs(t, err, mem.ErrTooFewUnits)

	islands, err := weights.FromNeighbors([]int{1, 2, 3}, nil)
	require.NoError(t, err)
	_, err = mem.Build(islands)
	assert.ErrorIs(t, err, mem.ErrNoCandidates)
}
