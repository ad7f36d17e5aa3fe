// SPDX-License-Identifier: MIT

// Package weights builds and queries the spatial weights structure over a set
// of geographic units.
//
// What & Why:
//
//	Moran's I and Moran's eigenvector maps both need to know which units are
//	neighbors and with what weight. Weights stores that as a sparse,
//	deterministic neighbor list keyed by integer unit id, in the row order of
//	the spatial layer.
//
// Construction:
//   - FromNeighbors: explicit neighbor lists (e.g. read with ReadLayer).
//   - QueenFromPolygons / RookFromPolygons: contiguity derived from polygon rings.
//
// Transform styles:
//   - Binary (B): w_ij = 1 for neighbors.
//   - RowStandardized (W): w_ij = 1/|N(i)|, so every non-island row sums to 1.
//
// Islands (units without neighbors) are allowed and get an all-zero row.
package weights
