// SPDX-License-Identifier: MIT

// Package mem builds Moran's eigenvector maps (MEMs) from a spatial weights
// structure.
//
// What & Why:
//
//	The eigenvectors of the doubly-centered weights operator M·W·M
//	(M = I − 11ᵀ/n) are mutually orthogonal, orthogonal to the constant, and
//	ordered by eigenvalue they describe spatial patterns from the strongest
//	positive autocorrelation down to the strongest negative one. Each
//	eigenvector's Moran's I equals (n/S0)·λ.
//
// Steps:
//  1. Materialize W and symmetrize it ((W+Wᵀ)/2) so the spectrum is real.
//  2. Double-center.
//  3. Jacobi eigen-decomposition (matrix.Eigen).
//  4. Sort by descending eigenvalue (ties by original index), normalize to
//     unit length, fix sign so the first non-negligible loading is positive.
//  5. Keep eigenvalues above the cutoff (positive patterns only, by default).
package mem

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/katalvlaran/esf/matrix"
	"github.com/katalvlaran/esf/weights"
	"gonum.org/v1/gonum/floats"
)

var (
	// ErrNilWeights indicates Build was called without a weights structure.
	ErrNilWeights = errors.New("mem: nil weights")

	// ErrTooFewUnits indicates fewer than three units; the centered spectrum is trivial.
	ErrTooFewUnits = errors.New("mem: need at least 3 units")

	// ErrNoCandidates indicates no eigenvector survived the eigenvalue cutoff.
	ErrNoCandidates = errors.New("mem: no eigenvector passes the cutoff")
)

// Defaults for Build.
const (
	// DefaultPositiveOnly keeps only eigenvectors with positive eigenvalues.
	DefaultPositiveOnly = true

	// DefaultEigenvalueEps treats |λ| ≤ eps·λmax as zero (dropped).
	DefaultEigenvalueEps = 1e-8
)

// Candidate is one eigenvector of the basis.
type Candidate struct {
	Rank       int       // 1-based scan order (descending eigenvalue)
	Eigenvalue float64   // λ of M·W·M
	MoranI     float64   // Moran's I of the vector itself, (n/S0)·λ
	Loadings   []float64 // unit-norm, aligned with Basis.IDs()
}

// Basis is the ordered candidate list plus the unit order it is aligned to.
type Basis struct {
	ids        []int
	candidates []Candidate
}

// Option configures Build.
type Option func(*options)

type options struct {
	positiveOnly bool
	eps          float64
	maxVectors   int
	eigenTol     float64
	eigenSweeps  int
}

// WithPositiveOnly toggles dropping non-positive eigenvalues.
func WithPositiveOnly(v bool) Option { return func(o *options) { o.positiveOnly = v } }

// WithMaxVectors caps the number of candidates kept (0 = no cap).
// Panics on a negative value.
func WithMaxVectors(k int) Option {
	if k < 0 {
		panic("mem: WithMaxVectors: k must be >= 0")
	}

	return func(o *options) { o.maxVectors = k }
}

// WithEigenvalueEps sets the relative cutoff below which eigenvalues count as zero.
func WithEigenvalueEps(eps float64) Option {
	if !(eps >= 0) || math.IsInf(eps, 0) {
		panic("mem: WithEigenvalueEps: eps must be finite and >= 0")
	}

	return func(o *options) { o.eps = eps }
}

// WithJacobi overrides the Jacobi tolerance and sweep cap.
func WithJacobi(tol float64, sweeps int) Option {
	return func(o *options) { o.eigenTol, o.eigenSweeps = tol, sweeps }
}

// Build computes the eigenvector basis of w.
//
// Errors: ErrNilWeights, ErrTooFewUnits, ErrNoCandidates, and wrapped
// matrix errors (e.g. matrix.ErrEigenFailed).
// Complexity: O(sweeps · n³) time, O(n²) memory.
func Build(w *weights.Weights, opts ...Option) (*Basis, error) {
	o := options{positiveOnly: DefaultPositiveOnly, eps: DefaultEigenvalueEps}
	for _, fn := range opts {
		if fn != nil {
			fn(&o)
		}
	}
	if w == nil {
		return nil, ErrNilWeights
	}
	n := w.N()
	if n < 3 {
		return nil, fmt.Errorf("%w: got %d", ErrTooFewUnits, n)
	}

	W, err := w.Dense()
	if err != nil {
		return nil, fmt.Errorf("mem: %w", err)
	}
	S, err := matrix.Symmetrize(W)
	if err != nil {
		return nil, fmt.Errorf("mem: %w", err)
	}
	C, err := matrix.DoubleCenter(S)
	if err != nil {
		return nil, fmt.Errorf("mem: %w", err)
	}
	vals, Q, err := matrix.Eigen(C, o.eigenTol, o.eigenSweeps)
	if err != nil {
		return nil, fmt.Errorf("mem: %w", err)
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return vals[order[a]] > vals[order[b]] })

	var maxAbs float64
	for _, v := range vals {
		maxAbs = math.Max(maxAbs, math.Abs(v))
	}
	cut := o.eps * maxAbs
	scale := float64(n) / w.S0()

	b := &Basis{ids: w.IDs()}
	for _, k := range order {
		lambda := vals[k]
		if math.Abs(lambda) <= cut {
			continue // null space: the constant vector and flat directions
		}
		if o.positiveOnly && lambda <= 0 {
			continue
		}
		vec, err := Q.Column(k)
		if err != nil {
			return nil, fmt.Errorf("mem: %w", err)
		}
		normalize(vec)
		// vec is orthogonal to 1, so vᵀSv recovers λ and vᵀWv = vᵀSv.
		Sv, err := matrix.MatVec(S, vec)
		if err != nil {
			return nil, fmt.Errorf("mem: %w", err)
		}
		b.candidates = append(b.candidates, Candidate{
			Rank:       len(b.candidates) + 1,
			Eigenvalue: lambda,
			MoranI:     scale * floats.Dot(vec, Sv),
			Loadings:   vec,
		})
		if o.maxVectors > 0 && len(b.candidates) == o.maxVectors {
			break
		}
	}
	if len(b.candidates) == 0 {
		return nil, ErrNoCandidates
	}

	return b, nil
}

// normalize scales v to unit length and flips it so the first loading with
// |v_i| > 1e-10 is positive.
func normalize(v []float64) {
	var ss float64
	for _, x := range v {
		ss += x * x
	}
	norm := math.Sqrt(ss)
	if norm == 0 {
		return
	}
	sign := 1.0
	for _, x := range v {
		if math.Abs(x) > 1e-10*norm {
			if x < 0 {
				sign = -1
			}
			break
		}
	}
	for i := range v {
		v[i] *= sign / norm
	}
}

// Len returns the number of candidates.
func (b *Basis) Len() int { return len(b.candidates) }

// IDs returns a copy of the unit order the loadings are aligned to.
func (b *Basis) IDs() []int { return append([]int(nil), b.ids...) }

// Candidates returns a deep copy of the candidates in scan order.
func (b *Basis) Candidates() []Candidate {
	out := make([]Candidate, len(b.candidates))
	for i, c := range b.candidates {
		c.Loadings = append([]float64(nil), c.Loadings...)
		out[i] = c
	}

	return out
}

// Vectors returns the loadings of every candidate in scan order (copies).
func (b *Basis) Vectors() [][]float64 {
	out := make([][]float64, len(b.candidates))
	for i, c := range b.candidates {
		out[i] = append([]float64(nil), c.Loadings...)
	}

	return out
}

// Candidate returns the candidate with the given 1-based rank.
func (b *Basis) Candidate(rank int) (Candidate, bool) {
	if rank < 1 || rank > len(b.candidates) {
		return Candidate{}, false
	}
	c := b.candidates[rank-1]
	c.Loadings = append([]float64(nil), c.Loadings...)

	return c, true
}
