// SPDX-License-Identifier: MIT

package matrix

import "math"

// Eigen default policy.
const (
	// DefaultEigenTol is the relative off-diagonal Frobenius norm at which the
	// Jacobi sweeps stop.
	DefaultEigenTol = 1e-12

	// DefaultEigenSweeps caps the number of full cyclic sweeps. Cyclic Jacobi
	// converges quadratically; 50 sweeps is far beyond what n ≤ 1000 needs.
	DefaultEigenSweeps = 50

	// symmetryTol is the absolute asymmetry Eigen accepts on input.
	symmetryTol = 1e-9
)

// Eigen computes eigenvalues and eigenvectors of a symmetric matrix via cyclic
// Jacobi sweeps.
//
// Implementation:
//   - Stage 1: Validate symmetric square input (within symmetryTol).
//   - Stage 2: For each sweep, visit every (p,q) with p<q in fixed order and
//     apply the rotation that zeroes A[p,q]; accumulate rotations into Q.
//   - Stage 3: Stop once ‖offdiag(A)‖_F ≤ tol·‖A‖_F.
//
// Behavior highlights:
//   - Row-cyclic visiting order instead of a largest-pivot search keeps each
//     sweep at O(n³) with no O(n²) pivot scan per rotation.
//   - Deterministic: no randomness, fixed loop orders.
//
// Inputs:
//   - m: symmetric Matrix; n := m.Rows().
//   - tol: relative convergence threshold (≤0 selects DefaultEigenTol).
//   - maxSweeps: safety cap (≤0 selects DefaultEigenSweeps).
//
// Returns:
//   - []float64: eigenvalues (diagonal of the rotated matrix), unsorted.
//   - *Dense: Q whose columns are the matching unit-norm eigenvectors.
//
// Errors:
//   - ErrNilMatrix, ErrDimensionMismatch, ErrAsymmetry, ErrNaNInf,
//     ErrEigenFailed (not converged after maxSweeps).
//
// Complexity:
//   - Time O(maxSweeps · n^3), Space O(n^2).
func Eigen(m Matrix, tol float64, maxSweeps int) ([]float64, *Dense, error) {
	if err := ValidateSymmetric(m, symmetryTol); err != nil {
		return nil, nil, matrixErrorf(opEigen, err)
	}
	if tol <= 0 {
		tol = DefaultEigenTol
	}
	if maxSweeps <= 0 {
		maxSweeps = DefaultEigenSweeps
	}

	src, err := toDense(m)
	if err != nil {
		return nil, nil, matrixErrorf(opEigen, err)
	}
	if err = ValidateFinite(src.data); err != nil {
		return nil, nil, matrixErrorf(opEigen, err)
	}
	n := src.r
	a := src.Clone().(*Dense) // working copy; the input is never mutated
	q, err := NewIdentity(n)
	if err != nil {
		return nil, nil, matrixErrorf(opEigen, err)
	}

	A, Q := a.data, q.data
	var (
		sweep, p, r, i     int
		app, aqq, apq      float64
		aip, aiq, qip, qiq float64
		theta, t, c, s     float64
		norm, off          float64
		converged          bool
	)
	for i = 0; i < n*n; i++ {
		norm += A[i] * A[i]
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return make([]float64, n), q, nil // zero matrix: every vector is an eigenvector
	}

	for sweep = 0; sweep <= maxSweeps; sweep++ {
		// J.1: off-diagonal Frobenius norm.
		off = 0
		for p = 0; p < n; p++ {
			for r = p + 1; r < n; r++ {
				off += 2 * A[p*n+r] * A[p*n+r]
			}
		}
		if math.Sqrt(off) <= tol*norm {
			converged = true
			break
		}
		if sweep == maxSweeps {
			break
		}

		// J.2: one cyclic sweep over the strict upper triangle (r plays the role of q).
		for p = 0; p < n-1; p++ {
			for r = p + 1; r < n; r++ {
				apq = A[p*n+r]
				if apq == 0 {
					continue
				}
				app, aqq = A[p*n+p], A[r*n+r]
				theta = (aqq - app) / (2 * apq)
				t = math.Copysign(1.0/(math.Abs(theta)+math.Hypot(theta, 1)), theta)
				c = 1.0 / math.Sqrt(t*t+1)
				s = t * c

				for i = 0; i < n; i++ {
					if i == p || i == r {
						continue
					}
					aip, aiq = A[i*n+p], A[i*n+r]
					A[i*n+p] = c*aip - s*aiq
					A[p*n+i] = A[i*n+p]
					A[i*n+r] = s*aip + c*aiq
					A[r*n+i] = A[i*n+r]
				}
				A[p*n+p] = c*c*app - 2*c*s*apq + s*s*aqq
				A[r*n+r] = s*s*app + 2*c*s*apq + c*c*aqq
				A[p*n+r], A[r*n+p] = 0, 0

				for i = 0; i < n; i++ {
					qip, qiq = Q[i*n+p], Q[i*n+r]
					Q[i*n+p] = c*qip - s*qiq
					Q[i*n+r] = s*qip + c*qiq
				}
			}
		}
	}
	if !converged {
		return nil, nil, matrixErrorf(opEigen, ErrEigenFailed)
	}

	eigs := make([]float64, n)
	for i = 0; i < n; i++ {
		eigs[i] = A[i*n+i]
	}

	return eigs, q, nil
}
