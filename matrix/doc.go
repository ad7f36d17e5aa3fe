// SPDX-License-Identifier: MIT

// Package matrix provides the dense linear-algebra primitives used to turn a
// spatial weights structure into Moran's eigenvector maps.
//
// The matrix package provides:
//
//   - Dense: a row-major float64 matrix with bounds-checked At/Set.
//   - Central validators (nil, square, symmetric, vector length).
//   - Kernels: Transpose, MatVec, Symmetrize, DoubleCenter.
//   - Eigen: cyclic Jacobi eigen-decomposition for symmetric input.
//   - CenterColumns / ColumnMeans for column-wise statistics.
//
// Determinism:
//
//	Every kernel walks its operands in a fixed i→j order and never uses
//	randomness, so identical inputs produce bit-identical outputs.
//
// Matrices here are dense; they are intended for the few hundred spatial
// units a neighborhood study has, where O(n²) memory and O(n³) time for the
// eigen-decomposition are acceptable.
package matrix
