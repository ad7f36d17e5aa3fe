// SPDX-License-Identifier: MIT

package weights

import (
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Contiguity names how a Layer turns into neighbor lists.
type Contiguity string

const (
	// Listed uses the neighbor lists stored in the layer.
	Listed Contiguity = "listed"
	// Queen derives neighbors from shared polygon vertices.
	Queen Contiguity = "queen"
	// Rook derives neighbors from shared polygon edges.
	Rook Contiguity = "rook"
)

// Layer is the spatial layer: the unit ids in layer order, plus either
// explicit neighbor lists or polygon boundaries for each unit.
type Layer struct {
	IDs       []int
	Neighbors map[int][]int
	Polygons  map[int]Polygon
}

// layerFile is the on-disk YAML shape.
//
//	units:
//	  - id: 1
//	    neighbors: [2, 3]
//	    polygon: [[[0, 0], [1, 0], [1, 1], [0, 1]]]
type layerFile struct {
	Units []struct {
		ID        int           `yaml:"id"`
		Neighbors []int         `yaml:"neighbors"`
		Polygon   [][][]float64 `yaml:"polygon"`
	} `yaml:"units"`
}

// ReadLayer decodes a YAML layer. Unit order in the file is the layer order.
// Errors: ErrBadLayer (decode failure, no units, duplicate id).
func ReadLayer(r io.Reader) (*Layer, error) {
	var f layerFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadLayer, err)
	}
	if len(f.Units) == 0 {
		return nil, fmt.Errorf("%w: no units", ErrBadLayer)
	}
	l := &Layer{
		IDs:       make([]int, 0, len(f.Units)),
		Neighbors: make(map[int][]int),
		Polygons:  make(map[int]Polygon),
	}
	seen := make(map[int]struct{}, len(f.Units))
	for _, u := range f.Units {
		if _, dup := seen[u.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %d", ErrBadLayer, u.ID)
		}
		seen[u.ID] = struct{}{}
		l.IDs = append(l.IDs, u.ID)
		if len(u.Neighbors) > 0 {
			l.Neighbors[u.ID] = u.Neighbors
		}
		if len(u.Polygon) > 0 {
			poly := make(Polygon, len(u.Polygon))
			for k, ring := range u.Polygon {
				poly[k] = make([]Point, len(ring))
				for m, xy := range ring {
					if len(xy) != 2 {
						return nil, fmt.Errorf("%w: unit %d ring %d vertex %d is not an [x, y] pair", ErrBadLayer, u.ID, k, m)
					}
					poly[k][m] = Point{X: xy[0], Y: xy[1]}
				}
			}
			l.Polygons[u.ID] = poly
		}
	}

	return l, nil
}

// ParseContiguity maps a case-insensitive name to a Contiguity.
func ParseContiguity(s string) (Contiguity, error) {
	switch c := Contiguity(strings.ToLower(strings.TrimSpace(s))); c {
	case Listed, Queen, Rook:
		return c, nil
	case "":
		return Listed, nil
	default:
		return "", fmt.Errorf("weights: unknown contiguity %q", s)
	}
}

// Weights builds the weights structure for the layer under contiguity c.
func (l *Layer) Weights(c Contiguity, opts ...Option) (*Weights, error) {
	switch c {
	case Listed:
		return FromNeighbors(l.IDs, l.Neighbors, opts...)
	case Queen:
		return QueenFromPolygons(l.IDs, l.Polygons, opts...)
	case Rook:
		return RookFromPolygons(l.IDs, l.Polygons, opts...)
	default:
		return nil, fmt.Errorf("weights: unknown contiguity %q", c)
	}
}

// Subset returns the layer restricted to ids, in ids order. Neighbor links
// to dropped units are removed.
func (l *Layer) Subset(ids []int) *Layer {
	keep := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		keep[id] = struct{}{}
	}
	out := &Layer{
		IDs:       append([]int(nil), ids...),
		Neighbors: make(map[int][]int),
		Polygons:  make(map[int]Polygon),
	}
	for _, id := range ids {
		for _, nb := range l.Neighbors[id] {
			if _, ok := keep[nb]; ok {
				out.Neighbors[id] = append(out.Neighbors[id], nb)
			}
		}
		if p, ok := l.Polygons[id]; ok {
			out.Polygons[id] = p
		}
	}

	return out
}
