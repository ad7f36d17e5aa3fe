// SPDX-License-Identifier: MIT

package weights

import "fmt"

// Lattice builds contiguity weights for a rows×cols raster of cells. Cell
// (r, c) gets id r*cols + c + 1, so ids run row-major from 1. Rook links
// the four orthogonal cells; Queen adds the diagonals.
// Errors: ErrEmpty for a non-positive dimension, or an unknown contiguity.
// Complexity: O(rows·cols).
func Lattice(rows, cols int, c Contiguity, opts ...Option) (*Weights, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("%w: lattice %dx%d", ErrEmpty, rows, cols)
	}
	var offsets [][2]int
	switch c {
	case Rook:
		offsets = [][2]int{{0, -1}, {1, 0}, {0, 1}, {-1, 0}}
	case Queen:
		offsets = [][2]int{{0, -1}, {1, -1}, {1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}}
	default:
		return nil, fmt.Errorf("weights: lattice needs rook or queen contiguity, got %q", c)
	}

	ids := make([]int, 0, rows*cols)
	nb := make(map[int][]int, rows*cols)
	for r := 0; r < rows; r++ {
		for col := 0; col < cols; col++ {
			id := r*cols + col + 1
			ids = append(ids, id)
			for _, d := range offsets {
				rr, cc := r+d[1], col+d[0]
				if rr < 0 || rr >= rows || cc < 0 || cc >= cols {
					continue
				}
				nb[id] = append(nb[id], rr*cols+cc+1)
			}
		}
	}

	return FromNeighbors(ids, nb, opts...)
}

// Components returns the connected components of the neighbor graph as
// lists of unit ids. Components are ordered by their first unit in layer
// order; ids within a component follow breadth-first discovery.
// Islands form singleton components.
// Complexity: O(n + E).
func (w *Weights) Components() [][]int {
	seen := make([]bool, len(w.ids))
	var comps [][]int
	for i0 := range w.ids {
		if seen[i0] {
			continue
		}
		queue := []int{i0}
		seen[i0] = true
		var comp []int
		for qi := 0; qi < len(queue); qi++ {
			u := queue[qi]
			comp = append(comp, w.ids[u])
			for _, v := range w.neighbors[u] {
				if !seen[v] {
					seen[v] = true
					queue = append(queue, v)
				}
			}
		}
		comps = append(comps, comp)
	}

	return comps
}
