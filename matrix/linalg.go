// SPDX-License-Identifier: MIT
// Package matrix: linear-algebra kernels used by the eigenvector-map builder.
//
// Purpose:
//   - Provide the small set of kernels needed to go from a spatial weights
//     matrix W to the doubly-centered operator M·W·M.
//
// Notes:
//   - Every kernel validates through validators.go and wraps errors via matrixErrorf.
//   - Operands are never mutated; results are freshly allocated *Dense values.

package matrix

// Transpose returns a new matrix with rows and columns swapped (mᵀ).
// Complexity: O(r*c).
func Transpose(m Matrix) (*Dense, error) {
	if err := ValidateNotNil(m); err != nil {
		return nil, matrixErrorf(opTranspose, err)
	}
	d, err := toDense(m)
	if err != nil {
		return nil, matrixErrorf(opTranspose, err)
	}
	out, err := NewDense(d.c, d.r)
	if err != nil {
		return nil, matrixErrorf(opTranspose, err)
	}
	var i, j int
	for i = 0; i < d.r; i++ {
		for j = 0; j < d.c; j++ {
			out.data[j*d.r+i] = d.data[i*d.c+j]
		}
	}

	return out, nil
}

// MatVec computes y = m * x for a column vector x.
//
// Contract: m non-nil; x non-nil; len(x) == m.Cols().
// Determinism: fixed i→j loop order.
// Complexity: Time O(r*c), Space O(r) for y.
func MatVec(m Matrix, x []float64) ([]float64, error) {
	if err := ValidateNotNil(m); err != nil {
		return nil, matrixErrorf(opMatVec, err)
	}
	if err := ValidateVecLen(x, m.Cols()); err != nil {
		return nil, matrixErrorf(opMatVec, err)
	}
	d, err := toDense(m)
	if err != nil {
		return nil, matrixErrorf(opMatVec, err)
	}
	y := make([]float64, d.r)
	var (
		i, j, base int
		acc        float64
	)
	for i = 0; i < d.r; i++ {
		acc = 0
		base = i * d.c
		for j = 0; j < d.c; j++ {
			acc += d.data[base+j] * x[j]
		}
		y[i] = acc
	}

	return y, nil
}

// Symmetrize returns (A + Aᵀ)/2 for a square A.
// A row-standardized weights matrix is generally asymmetric; its symmetric
// part has the same Moran quadratic form xᵀWx and real eigenvalues.
// Complexity: O(n^2).
func Symmetrize(m Matrix) (*Dense, error) {
	if err := ValidateSquare(m); err != nil {
		return nil, matrixErrorf(opSymmetrize, err)
	}
	d, err := toDense(m)
	if err != nil {
		return nil, matrixErrorf(opSymmetrize, err)
	}
	t, err := Transpose(d)
	if err != nil {
		return nil, matrixErrorf(opSymmetrize, err)
	}
	for i := range t.data {
		t.data[i] = 0.5 * (d.data[i] + t.data[i])
	}

	return t, nil
}

// DoubleCenter returns M·A·M with M = I − 11ᵀ/n.
//
// Implementation:
//   - Stage 1: Validate square input.
//   - Stage 2: Closed form (MAM)[i,j] = a[i,j] − rowMean[i] − colMean[j] + grandMean,
//     which avoids two O(n³) products.
//
// Behavior highlights:
//   - A symmetric A yields a symmetric result whose eigenvectors are orthogonal to 1.
//
// Complexity:
//   - Time O(n^2), Space O(n^2).
func DoubleCenter(m Matrix) (*Dense, error) {
	if err := ValidateSquare(m); err != nil {
		return nil, matrixErrorf(opDoubleCenter, err)
	}
	d, err := toDense(m)
	if err != nil {
		return nil, matrixErrorf(opDoubleCenter, err)
	}
	n := d.r
	rowMean := make([]float64, n)
	colMean := make([]float64, n)
	var (
		i, j  int
		v     float64
		grand float64
		inv   = 1.0 / float64(n)
	)
	for i = 0; i < n; i++ {
		for j = 0; j < n; j++ {
			v = d.data[i*n+j]
			rowMean[i] += v
			colMean[j] += v
			grand += v
		}
	}
	for i = 0; i < n; i++ {
		rowMean[i] *= inv
		colMean[i] *= inv
	}
	grand *= inv * inv

	out, err := NewDense(n, n)
	if err != nil {
		return nil, matrixErrorf(opDoubleCenter, err)
	}
	for i = 0; i < n; i++ {
		for j = 0; j < n; j++ {
			out.data[i*n+j] = d.data[i*n+j] - rowMean[i] - colMean[j] + grand
		}
	}

	return out, nil
}
