// SPDX-License-Identifier: MIT

package matrix

// ColumnMeans returns the arithmetic mean of every column of X.
// Complexity: O(r*c).
func ColumnMeans(X Matrix) ([]float64, error) {
	if err := ValidateNotNil(X); err != nil {
		return nil, matrixErrorf(opCenter, err)
	}
	d, err := toDense(X)
	if err != nil {
		return nil, matrixErrorf(opCenter, err)
	}
	means := make([]float64, d.c)
	var i, j int
	for i = 0; i < d.r; i++ {
		for j = 0; j < d.c; j++ {
			means[j] += d.data[i*d.c+j]
		}
	}
	inv := 1.0 / float64(d.r)
	for j = range means {
		means[j] *= inv
	}

	return means, nil
}

// CenterColumns returns X with each column's mean subtracted, plus the means.
// The input is not mutated.
// Complexity: O(r*c).
func CenterColumns(X Matrix) (*Dense, []float64, error) {
	means, err := ColumnMeans(X)
	if err != nil {
		return nil, nil, err
	}
	d, err := toDense(X)
	if err != nil {
		return nil, nil, matrixErrorf(opCenter, err)
	}
	out := d.Clone().(*Dense)
	var i, j int
	for i = 0; i < out.r; i++ {
		for j = 0; j < out.c; j++ {
			out.data[i*out.c+j] -= means[j]
		}
	}

	return out, means, nil
}
