// SPDX-License-Identifier: MIT

// Package moran computes Moran's I for a variable over a spatial weights
// structure, with analytical inference under the normality and
// randomization assumptions and an optional seeded permutation test.
//
//	I = (n / S0) · (zᵀ W z) / (zᵀ z),   z = x − mean(x)
//
// I above E[I] = −1/(n−1) indicates positive spatial autocorrelation
// (neighbors alike); below it, negative autocorrelation.
package moran

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/katalvlaran/esf/matrix"
	"github.com/katalvlaran/esf/weights"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

var (
	// ErrNilWeights indicates a missing weights structure.
	ErrNilWeights = errors.New("moran: nil weights")

	// ErrTooFewUnits indicates n < 4; the randomization variance is undefined.
	ErrTooFewUnits = errors.New("moran: need at least 4 units")

	// ErrConstant indicates a variable with zero variance.
	ErrConstant = errors.New("moran: variable is constant")

	// ErrNoNeighbors indicates S0 = 0 (every unit is an island).
	ErrNoNeighbors = errors.New("moran: weights have no links")

	// ErrBadInput indicates a length mismatch or non-finite values.
	ErrBadInput = errors.New("moran: bad input")
)

// defaultSeed is used when permutations are requested with seed 0.
const defaultSeed int64 = 1

// Result holds the statistic and its inference.
type Result struct {
	I        float64 `json:"i" yaml:"i"`
	Expected float64 `json:"expected" yaml:"expected"`

	VarianceNorm float64 `json:"variance_norm" yaml:"variance_norm"`
	ZNorm        float64 `json:"z_norm" yaml:"z_norm"`
	PNorm        float64 `json:"p_norm" yaml:"p_norm"`

	VarianceRand float64 `json:"variance_rand" yaml:"variance_rand"`
	ZRand        float64 `json:"z_rand" yaml:"z_rand"`
	PRand        float64 `json:"p_rand" yaml:"p_rand"`

	Permutations int     `json:"permutations,omitempty" yaml:"permutations,omitempty"`
	PSim         float64 `json:"p_sim,omitempty" yaml:"p_sim,omitempty"`
}

// Statistic returns I, the value compared against a selection tolerance.
func (r Result) Statistic() float64 { return r.I }

// PValue returns the two-sided p-value under normality.
func (r Result) PValue() float64 { return r.PNorm }

// Option configures Test.
type Option func(*options)

type options struct {
	permutations int
	seed         int64
}

// WithPermutations enables a conditional permutation test with a fixed seed
// (seed 0 selects a package default). Panics on a negative count.
func WithPermutations(n int, seed int64) Option {
	if n < 0 {
		panic("moran: WithPermutations: n must be >= 0")
	}

	return func(o *options) { o.permutations, o.seed = n, seed }
}

// Test computes Moran's I of x over w.
//
// Implementation:
//   - Stage 1: validate lengths/finiteness, center x.
//   - Stage 2: I from the spatial lag; E[I] = −1/(n−1).
//   - Stage 3: analytical variances (normality, randomization) from S0, S1, S2
//     and the sample kurtosis; two-sided normal p-values.
//   - Stage 4: optional permutation pseudo p-value.
//
// Errors: ErrNilWeights, ErrBadInput, ErrTooFewUnits, ErrNoNeighbors, ErrConstant.
// Complexity: O((n + E)·(1 + permutations)).
func Test(x []float64, w *weights.Weights, opts ...Option) (Result, error) {
	var o options
	for _, fn := range opts {
		if fn != nil {
			fn(&o)
		}
	}
	if w == nil {
		return Result{}, ErrNilWeights
	}
	n := len(x)
	if n != w.N() {
		return Result{}, fmt.Errorf("%w: %d values for %d units", ErrBadInput, n, w.N())
	}
	if n < 4 {
		return Result{}, fmt.Errorf("%w: got %d", ErrTooFewUnits, n)
	}
	for i, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Result{}, fmt.Errorf("%w: value %d is not finite", ErrBadInput, i)
		}
	}
	s0 := w.S0()
	if s0 == 0 {
		return Result{}, ErrNoNeighbors
	}

	if floats.Min(x) == floats.Max(x) {
		return Result{}, ErrConstant
	}
	z, err := center(x)
	if err != nil {
		return Result{}, err
	}
	m2 := floats.Dot(z, z)

	I, err := statistic(z, m2, s0, w)
	if err != nil {
		return Result{}, err
	}

	nf := float64(n)
	s1, s2 := w.S1(), w.S2()
	ei := -1 / (nf - 1)
	s02 := s0 * s0

	vNorm := (nf*nf*s1-nf*s2+3*s02)/((nf*nf-1)*s02) - ei*ei

	var m4 float64
	for _, v := range z {
		m4 += v * v * v * v
	}
	b2 := nf * m4 / (m2 * m2)
	a := nf * ((nf*nf-3*nf+3)*s1 - nf*s2 + 3*s02)
	b := b2 * ((nf*nf-nf)*s1 - 2*nf*s2 + 6*s02)
	vRand := (a-b)/((nf-1)*(nf-2)*(nf-3)*s02) - ei*ei

	res := Result{I: I, Expected: ei, VarianceNorm: vNorm, VarianceRand: vRand}
	res.ZNorm, res.PNorm = zTest(I, ei, vNorm)
	res.ZRand, res.PRand = zTest(I, ei, vRand)

	if o.permutations > 0 {
		res.Permutations = o.permutations
		res.PSim, err = permutationP(z, m2, s0, I, w, o)
		if err != nil {
			return Result{}, err
		}
	}

	return res, nil
}

// center returns x minus its mean.
func center(x []float64) ([]float64, error) {
	X, err := matrix.NewFromColumns([][]float64{x})
	if err != nil {
		return nil, fmt.Errorf("moran: %w", err)
	}
	Z, _, err := matrix.CenterColumns(X)
	if err != nil {
		return nil, fmt.Errorf("moran: %w", err)
	}

	return Z.Column(0)
}

// statistic returns (n/S0)·zᵀWz/m2 for already-centered z.
func statistic(z []float64, m2, s0 float64, w *weights.Weights) (float64, error) {
	lag, err := w.Lag(z)
	if err != nil {
		return 0, fmt.Errorf("moran: %w", err)
	}

	return float64(len(z)) / s0 * floats.Dot(z, lag) / m2, nil
}

// zTest returns the z-score and the two-sided standard-normal p-value.
func zTest(I, ei, v float64) (float64, float64) {
	if !(v > 0) {
		return 0, 1
	}
	zs := (I - ei) / math.Sqrt(v)

	return zs, 2 * distuv.UnitNormal.Survival(math.Abs(zs))
}

// permutationP shuffles z with a seeded source and returns the folded
// pseudo p-value (larger+1)/(perms+1).
func permutationP(z []float64, m2, s0, observed float64, w *weights.Weights, o options) (float64, error) {
	seed := o.seed
	if seed == 0 {
		seed = defaultSeed
	}
	rng := rand.New(rand.NewSource(seed))
	perm := append([]float64(nil), z...)
	larger := 0
	for k := 0; k < o.permutations; k++ {
		rng.Shuffle(len(perm), func(i, j int) { perm[i], perm[j] = perm[j], perm[i] })
		sim, err := statistic(perm, m2, s0, w)
		if err != nil {
			return 0, err
		}
		if sim >= observed {
			larger++
		}
	}
	if o.permutations-larger < larger {
		larger = o.permutations - larger
	}

	return float64(larger+1) / float64(o.permutations+1), nil
}

// Tester binds a weights structure so the test can be passed around as a
// capability.
type Tester struct {
	W    *weights.Weights
	Opts []Option
}

// NewTester returns a Tester over w.
func NewTester(w *weights.Weights, opts ...Option) *Tester {
	return &Tester{W: w, Opts: opts}
}

// Test runs Test(residuals, t.W, t.Opts...).
func (t *Tester) Test(residuals []float64) (Result, error) {
	return Test(residuals, t.W, t.Opts...)
}
