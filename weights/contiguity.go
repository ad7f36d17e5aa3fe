// SPDX-License-Identifier: MIT

package weights

import (
	"fmt"
	"math"
	"sort"
)

// Point is a planar coordinate.
type Point struct {
	X, Y float64
}

// Polygon is a list of rings (outer boundary first, then holes). Rings may be
// open or closed; a closing vertex equal to the first is ignored.
type Polygon [][]Point

// vertexKey is a coordinate snapped to the precision grid.
type vertexKey struct{ x, y int64 }

// edgeKey is an undirected segment between two snapped vertices (a ≤ b).
type edgeKey struct{ a, b vertexKey }

func snap(p Point, prec float64) vertexKey {
	return vertexKey{x: int64(math.Round(p.X / prec)), y: int64(math.Round(p.Y / prec))}
}

func less(a, b vertexKey) bool {
	if a.x != b.x {
		return a.x < b.x
	}

	return a.y < b.y
}

// QueenFromPolygons derives weights where two units are neighbors if their
// boundaries share at least one vertex.
//
// Complexity: O(V + P) where V is the vertex count and P the number of
// co-located vertex pairs.
func QueenFromPolygons(ids []int, polys map[int]Polygon, opts ...Option) (*Weights, error) {
	o := gatherOptions(opts)

	return contiguity(ids, polys, func(ring []Point, emit func(any)) {
		for _, p := range ring {
			emit(snap(p, o.precision))
		}
	}, opts)
}

// RookFromPolygons derives weights where two units are neighbors if their
// boundaries share at least one edge.
func RookFromPolygons(ids []int, polys map[int]Polygon, opts ...Option) (*Weights, error) {
	o := gatherOptions(opts)

	return contiguity(ids, polys, func(ring []Point, emit func(any)) {
		m := len(ring)
		for k := 0; k < m; k++ {
			a, b := snap(ring[k], o.precision), snap(ring[(k+1)%m], o.precision)
			if a == b {
				continue
			}
			if less(b, a) {
				a, b = b, a
			}
			emit(edgeKey{a: a, b: b})
		}
	}, opts)
}

// contiguity groups units by shared boundary keys produced by keys, then
// delegates to FromNeighbors.
func contiguity(ids []int, polys map[int]Polygon, keys func([]Point, func(any)), opts []Option) (*Weights, error) {
	if len(ids) == 0 {
		return nil, ErrEmpty
	}
	owners := make(map[any][]int)
	for _, id := range ids {
		poly, ok := polys[id]
		if !ok {
			return nil, fmt.Errorf("%w: no polygon for unit %d", ErrBadLayer, id)
		}
		seen := make(map[any]struct{})
		for _, ring := range poly {
			ring = openRing(ring)
			keys(ring, func(k any) {
				if _, dup := seen[k]; dup {
					return
				}
				seen[k] = struct{}{}
				owners[k] = append(owners[k], id)
			})
		}
	}

	pairs := make(map[int]map[int]struct{}, len(ids))
	for _, units := range owners {
		for a := 0; a < len(units); a++ {
			for b := a + 1; b < len(units); b++ {
				u, v := units[a], units[b]
				if u == v {
					continue
				}
				if pairs[u] == nil {
					pairs[u] = make(map[int]struct{})
				}
				if pairs[v] == nil {
					pairs[v] = make(map[int]struct{})
				}
				pairs[u][v] = struct{}{}
				pairs[v][u] = struct{}{}
			}
		}
	}

	nb := make(map[int][]int, len(pairs))
	for u, set := range pairs {
		list := make([]int, 0, len(set))
		for v := range set {
			list = append(list, v)
		}
		sort.Ints(list)
		nb[u] = list
	}
	return FromNeighbors(ids, nb, opts...)
}

// openRing drops a closing vertex equal to the first one.
func openRing(ring []Point) []Point {
	if n := len(ring); n > 1 && ring[0] == ring[n-1] {
		return ring[:n-1]
	}

	return ring
}
