// SPDX-License-Identifier: MIT

// Package matrix_test contains unit tests for the Dense implementation
// of the Matrix interface in the matrix package.
package matrix_test

import (
	"testing"

	"github.com/katalvlaran/esf/matrix"
	"github.com/stretchr/testify/require"
)

// hide wraps any Matrix to hide its concrete type and force the interface path.
type hide struct{ matrix.Matrix }

// TestNewDenseInvalidDimensions ensures that NewDense rejects non-positive dimensions.
func TestNewDenseInvalidDimensions(t *testing.T) {
	_, err := matrix.NewDense(0, 5)
	require.ErrorIs(t, err, matrix.ErrInvalidDimensions)

	_, err = matrix.NewDense(5, -1)
	require.ErrorIs(t, err, matrix.ErrInvalidDimensions)
}

// TestAtSetOutOfRange ensures At() and Set() return ErrOutOfRange on invalid access.
func TestAtSetOutOfRange(t *testing.T) {
	m, err := matrix.NewDense(2, 2)
	require.NoError(t, err)

	_, err = m.At(-1, 0)
	require.ErrorIs(t, err, matrix.ErrOutOfRange)

	_, err = m.At(0, 2)
	require.ErrorIs(t, err, matrix.ErrOutOfRange)

	require.ErrorIs(t, m.Set(2, 0, 1.23), matrix.ErrOutOfRange)
}

// TestCloneIndependence ensures Clone() returns a deep copy that does not share storage.
func TestCloneIndependence(t *testing.T) {
	m, err := matrix.NewDense(2, 2)
	require.NoError(t, err)
	require.NoError(t, m.Set(0, 0, 1.0))

	c := m.Clone()
	require.NoError(t, c.Set(0, 0, 9.0))

	v, err := m.At(0, 0)
	require.NoError(t, err)
	require.Equal(t, 1.0, v) // original untouched
}

func TestNewFromColumns(t *testing.T) {
	d, err := matrix.NewFromColumns([][]float64{{1, 2, 3}, {4, 5, 6}})
	require.NoError(t, err)
	require.Equal(t, 3, d.Rows())
	require.Equal(t, 2, d.Cols())

	v, err := d.At(2, 1)
	require.NoError(t, err)
	require.Equal(t, 6.0, v)

	col, err := d.Column(0)
	require.NoError(t, err)
	require.Equal(t, []float64{1, 2, 3}, col)

	_, err = matrix.NewFromColumns([][]float64{{1, 2}, {3}})
	require.ErrorIs(t, err, matrix.ErrDimensionMismatch)

	_, err = matrix.NewFromColumns(nil)
	require.ErrorIs(t, err, matrix.ErrInvalidDimensions)
}

func TestValidators(t *testing.T) {
	require.ErrorIs(t, matrix.ValidateNotNil(nil), matrix.ErrNilMatrix)

	var typedNil *matrix.Dense
	require.ErrorIs(t, matrix.ValidateNotNil(typedNil), matrix.ErrNilMatrix)

	rect, _ := matrix.NewDense(2, 3)
	require.ErrorIs(t, matrix.ValidateSquare(rect), matrix.ErrDimensionMismatch)

	require.ErrorIs(t, matrix.ValidateVecLen([]float64{1}, 2), matrix.ErrDimensionMismatch)
	require.ErrorIs(t, matrix.ValidateVecLen(nil, 0), matrix.ErrNilMatrix)

	asym, _ := matrix.NewFromColumns([][]float64{{0, 1}, {2, 0}})
	require.ErrorIs(t, matrix.ValidateSymmetric(asym, 1e-9), matrix.ErrAsymmetry)
	require.NoError(t, matrix.ValidateSymmetric(asym, 1.5))
}
