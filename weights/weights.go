// SPDX-License-Identifier: MIT

package weights

import (
	"fmt"
	"sort"

	"github.com/katalvlaran/esf/matrix"
)

// Weights is an immutable sparse spatial weights structure.
// Row i corresponds to ids[i]; neighbors[i] holds row indices in ascending
// order and values[i] the matching weights.
type Weights struct {
	ids       []int
	index     map[int]int
	neighbors [][]int
	values    [][]float64
	style     Style
}

// FromNeighbors builds weights for the given unit order from explicit
// neighbor lists keyed by unit id. Units absent from nb are islands.
//
// Implementation:
//   - Stage 1: index ids (reject empty/duplicates).
//   - Stage 2: resolve neighbor ids to row indices (reject unknown/self).
//   - Stage 3: check symmetry (repair under WithSymmetrize), sort, dedupe.
//   - Stage 4: apply the transform style.
//
// Errors: ErrEmpty, ErrDuplicateID, ErrUnknownUnit, ErrSelfNeighbor, ErrAsymmetric.
// Complexity: O(n + E log d) where d is the largest neighbor count.
func FromNeighbors(ids []int, nb map[int][]int, opts ...Option) (*Weights, error) {
	o := gatherOptions(opts)
	if len(ids) == 0 {
		return nil, ErrEmpty
	}
	index := make(map[int]int, len(ids))
	for i, id := range ids {
		if _, dup := index[id]; dup {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateID, id)
		}
		index[id] = i
	}
	for id := range nb {
		if _, ok := index[id]; !ok {
			return nil, fmt.Errorf("%w: %d has a neighbor list but is not in the layer", ErrUnknownUnit, id)
		}
	}

	n := len(ids)
	sets := make([]map[int]struct{}, n)
	for i := range sets {
		sets[i] = make(map[int]struct{})
	}
	var (
		i, j int
		ok   bool
	)
	for i = 0; i < n; i++ {
		for _, nid := range nb[ids[i]] {
			if j, ok = index[nid]; !ok {
				return nil, fmt.Errorf("%w: %d (neighbor of %d)", ErrUnknownUnit, nid, ids[i])
			}
			if j == i {
				return nil, fmt.Errorf("%w: %d", ErrSelfNeighbor, ids[i])
			}
			sets[i][j] = struct{}{}
		}
	}
	for i = 0; i < n; i++ {
		for j = range sets[i] {
			if _, ok = sets[j][i]; ok {
				continue
			}
			if !o.symmetrize {
				return nil, fmt.Errorf("%w: %d lists %d", ErrAsymmetric, ids[i], ids[j])
			}
			sets[j][i] = struct{}{}
		}
	}

	w := &Weights{
		ids:       append([]int(nil), ids...),
		index:     index,
		neighbors: make([][]int, n),
		values:    make([][]float64, n),
		style:     Binary,
	}
	for i = 0; i < n; i++ {
		row := make([]int, 0, len(sets[i]))
		for j = range sets[i] {
			row = append(row, j)
		}
		sort.Ints(row)
		w.neighbors[i] = row
		w.values[i] = make([]float64, len(row))
		for k := range row {
			w.values[i][k] = 1
		}
	}

	return w.Transform(o.style), nil
}

// Transform returns a copy of w re-weighted under style s.
// Complexity: O(n + E).
func (w *Weights) Transform(s Style) *Weights {
	out := &Weights{
		ids:       w.ids,
		index:     w.index,
		neighbors: w.neighbors,
		values:    make([][]float64, len(w.ids)),
		style:     s,
	}
	var v float64
	for i, row := range w.neighbors {
		out.values[i] = make([]float64, len(row))
		if len(row) == 0 {
			continue // island: zero row under every style
		}
		v = 1
		if s == RowStandardized {
			v = 1 / float64(len(row))
		}
		for k := range row {
			out.values[i][k] = v
		}
	}

	return out
}

// N returns the number of units.
func (w *Weights) N() int { return len(w.ids) }

// Style returns the transform style in effect.
func (w *Weights) Style() Style { return w.style }

// IDs returns a copy of the unit ids in row order.
func (w *Weights) IDs() []int { return append([]int(nil), w.ids...) }

// Neighbors returns the neighbor ids of unit id and their weights.
func (w *Weights) Neighbors(id int) ([]int, []float64, error) {
	i, ok := w.index[id]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %d", ErrUnknownUnit, id)
	}
	ids := make([]int, len(w.neighbors[i]))
	for k, j := range w.neighbors[i] {
		ids[k] = w.ids[j]
	}

	return ids, append([]float64(nil), w.values[i]...), nil
}

// Cardinalities returns the neighbor count of every unit in row order.
func (w *Weights) Cardinalities() []int {
	out := make([]int, len(w.ids))
	for i, row := range w.neighbors {
		out[i] = len(row)
	}

	return out
}

// Islands returns the ids of units without neighbors.
func (w *Weights) Islands() []int {
	var out []int
	for i, row := range w.neighbors {
		if len(row) == 0 {
			out = append(out, w.ids[i])
		}
	}

	return out
}

// Lag returns the spatial lag Wx.
// Errors: ErrLengthMismatch.
// Complexity: O(n + E).
func (w *Weights) Lag(x []float64) ([]float64, error) {
	if len(x) != len(w.ids) {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrLengthMismatch, len(x), len(w.ids))
	}
	out := make([]float64, len(x))
	var acc float64
	for i, row := range w.neighbors {
		acc = 0
		for k, j := range row {
			acc += w.values[i][k] * x[j]
		}
		out[i] = acc
	}

	return out, nil
}

// weight returns w_ij via binary search on the sorted neighbor row.
func (w *Weights) weight(i, j int) float64 {
	row := w.neighbors[i]
	k := sort.SearchInts(row, j)
	if k < len(row) && row[k] == j {
		return w.values[i][k]
	}

	return 0
}

// S0 returns Σ_ij w_ij.
func (w *Weights) S0() float64 {
	var s float64
	for _, vals := range w.values {
		for _, v := range vals {
			s += v
		}
	}

	return s
}

// S1 returns ½ Σ_ij (w_ij + w_ji)².
// The neighbor structure is symmetric, so iterating stored pairs covers every
// non-zero term.
func (w *Weights) S1() float64 {
	var s, t float64
	for i, row := range w.neighbors {
		for k, j := range row {
			t = w.values[i][k] + w.weight(j, i)
			s += t * t
		}
	}

	return s / 2
}

// S2 returns Σ_i (w_i· + w_·i)².
func (w *Weights) S2() float64 {
	n := len(w.ids)
	rows := make([]float64, n)
	cols := make([]float64, n)
	for i, row := range w.neighbors {
		for k, j := range row {
			rows[i] += w.values[i][k]
			cols[j] += w.values[i][k]
		}
	}
	var s, t float64
	for i := 0; i < n; i++ {
		t = rows[i] + cols[i]
		s += t * t
	}

	return s
}

// Dense materializes W as an n×n matrix.
// Complexity: O(n^2) memory.
func (w *Weights) Dense() (*matrix.Dense, error) {
	n := len(w.ids)
	d, err := matrix.NewDense(n, n)
	if err != nil {
		return nil, err
	}
	for i, row := range w.neighbors {
		for k, j := range row {
			if err = d.Set(i, j, w.values[i][k]); err != nil {
				return nil, err
			}
		}
	}

	return d, nil
}

// Align returns w re-ordered to the given id order, which must be a
// permutation of IDs().
// Errors: ErrLengthMismatch, ErrUnknownUnit, ErrDuplicateID.
func (w *Weights) Align(ids []int) (*Weights, error) {
	if len(ids) != len(w.ids) {
		return nil, fmt.Errorf("%w: got %d ids, want %d", ErrLengthMismatch, len(ids), len(w.ids))
	}
	nb := make(map[int][]int, len(ids))
	seen := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateID, id)
		}
		seen[id] = struct{}{}
		i, ok := w.index[id]
		if !ok {
			return nil, fmt.Errorf("%w: %d", ErrUnknownUnit, id)
		}
		for _, j := range w.neighbors[i] {
			nb[id] = append(nb[id], w.ids[j])
		}
	}

	return FromNeighbors(ids, nb, WithStyle(w.style))
}
