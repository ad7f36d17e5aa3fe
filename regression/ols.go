// SPDX-License-Identifier: MIT

package regression

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Defaults for OLS.
const (
	// DefaultIntercept adds a constant column named InterceptName.
	DefaultIntercept = true

	// DefaultConditionLimit is the largest accepted condition number of the
	// design's R factor; anything above is treated as rank-deficient.
	DefaultConditionLimit = 1e12
)

// OLS is an ordinary-least-squares fitter. The zero value is not usable; call New.
type OLS struct {
	intercept bool
	condLimit float64
}

// Option configures an OLS fitter.
type Option func(*OLS)

// WithIntercept toggles the constant term.
func WithIntercept(v bool) Option { return func(o *OLS) { o.intercept = v } }

// WithConditionLimit sets the singularity threshold. Panics unless c > 1.
func WithConditionLimit(c float64) Option {
	if !(c > 1) || math.IsInf(c, 0) {
		panic("regression: WithConditionLimit: limit must be finite and > 1")
	}

	return func(o *OLS) { o.condLimit = c }
}

// New returns an OLS fitter.
func New(opts ...Option) *OLS {
	o := &OLS{intercept: DefaultIntercept, condLimit: DefaultConditionLimit}
	for _, fn := range opts {
		if fn != nil {
			fn(o)
		}
	}

	return o
}

// Fit regresses response on the design columns.
//
// Implementation:
//   - Stage 1: Validate lengths, finiteness, unique names, N > #terms.
//   - Stage 2: QR-factorize X; reject cond(R) > limit; solve for β.
//   - Stage 3: residuals, RSS, σ² = RSS/df; Cov(β) = σ²(XᵀX)⁻¹ via Cholesky.
//   - Stage 4: t = β/se, p = 2·P(T_df > |t|).
//
// Errors: ErrFit (bad input), ErrSingularFit (rank-deficient design).
// Complexity: O(N·p²).
func (o *OLS) Fit(response []float64, d Design) (*Result, error) {
	terms, err := o.validate(response, d)
	if err != nil {
		return nil, err
	}
	n, p := len(response), len(terms)

	X := mat.NewDense(n, p, nil)
	col := 0
	if o.intercept {
		for i := 0; i < n; i++ {
			X.Set(i, 0, 1)
		}
		col = 1
	}
	for j, c := range d.Columns {
		X.SetCol(col+j, c)
	}
	y := mat.NewDense(n, 1, append([]float64(nil), response...))

	var qr mat.QR
	qr.Factorize(X)
	if cond := qr.Cond(); math.IsNaN(cond) || cond > o.condLimit {
		return nil, fmt.Errorf("%w: condition number %.3g", ErrSingularFit, cond)
	}
	beta := mat.NewDense(p, 1, nil)
	if err = qr.SolveTo(beta, false, y); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSingularFit, err)
	}

	var fittedVec mat.VecDense
	fittedVec.MulVec(X, beta.ColView(0))
	fitted := make([]float64, n)
	resid := make([]float64, n)
	for i := 0; i < n; i++ {
		fitted[i] = fittedVec.AtVec(i)
		resid[i] = response[i] - fitted[i]
	}
	rss := floats.Dot(resid, resid)
	df := n - p
	sigma2 := rss / float64(df)

	var xtx mat.SymDense
	xtx.SymOuterK(1, X.T())
	var chol mat.Cholesky
	if ok := chol.Factorize(&xtx); !ok {
		return nil, fmt.Errorf("%w: XᵀX not positive definite", ErrSingularFit)
	}
	var cov mat.SymDense
	if err = chol.InverseTo(&cov); err != nil {
		var c mat.Condition
		if !errors.As(err, &c) {
			return nil, fmt.Errorf("%w: %v", ErrSingularFit, err)
		}
		// Ill-conditioned but already accepted by the QR check: keep the inverse.
	}

	res := &Result{
		Terms:        terms,
		Coefficients: make(map[string]float64, p),
		StdErrors:    make(map[string]float64, p),
		TValues:      make(map[string]float64, p),
		PValues:      make(map[string]float64, p),
		Residuals:    resid,
		Fitted:       fitted,
		N:            n,
		DF:           df,
		SigmaSq:      sigma2,
		RSS:          rss,
	}
	tdist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(df)}
	for j, name := range terms {
		b := beta.At(j, 0)
		se := math.Sqrt(sigma2 * math.Max(cov.At(j, j), 0))
		tv, pv := tStat(b, se, tdist)
		res.Coefficients[name] = b
		res.StdErrors[name] = se
		res.TValues[name] = tv
		res.PValues[name] = pv
	}
	res.R2, res.AdjR2 = rSquared(response, rss, n, df, o.intercept)

	return res, nil
}

// validate checks the inputs and returns the ordered term list.
func (o *OLS) validate(response []float64, d Design) ([]string, error) {
	n := len(response)
	if n == 0 {
		return nil, fmt.Errorf("%w: empty response", ErrFit)
	}
	if len(d.Names) != len(d.Columns) {
		return nil, fmt.Errorf("%w: %d names for %d columns", ErrFit, len(d.Names), len(d.Columns))
	}
	if !finite(response) {
		return nil, fmt.Errorf("%w: response has NaN/Inf", ErrFit)
	}
	terms := make([]string, 0, len(d.Columns)+1)
	if o.intercept {
		terms = append(terms, InterceptName)
	}
	seen := make(map[string]struct{}, len(d.Columns)+1)
	for _, t := range terms {
		seen[t] = struct{}{}
	}
	for j, c := range d.Columns {
		name := d.Names[j]
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("%w: duplicate term %q", ErrFit, name)
		}
		seen[name] = struct{}{}
		if len(c) != n {
			return nil, fmt.Errorf("%w: column %q has %d rows, response has %d", ErrFit, name, len(c), n)
		}
		if !finite(c) {
			return nil, fmt.Errorf("%w: column %q has NaN/Inf", ErrFit, name)
		}
		terms = append(terms, name)
	}
	if len(terms) == 0 {
		return nil, fmt.Errorf("%w: no terms", ErrFit)
	}
	if n <= len(terms) {
		return nil, fmt.Errorf("%w: %d observations for %d terms", ErrFit, n, len(terms))
	}

	return terms, nil
}

// tStat returns the t statistic and its two-sided p-value.
// A zero standard error (exact fit) yields p=0 for a non-zero coefficient.
func tStat(b, se float64, t distuv.StudentsT) (float64, float64) {
	if se == 0 {
		if b == 0 {
			return 0, 1
		}
		return math.Copysign(math.Inf(1), b), 0
	}
	tv := b / se

	return tv, math.Min(1, 2*t.Survival(math.Abs(tv)))
}

// rSquared follows the usual convention: centered TSS with an intercept,
// uncentered without one.
func rSquared(y []float64, rss float64, n, df int, intercept bool) (float64, float64) {
	var tss float64
	k0 := 0
	if intercept {
		mean := stat.Mean(y, nil)
		for _, v := range y {
			tss += (v - mean) * (v - mean)
		}
		k0 = 1
	} else {
		tss = floats.Dot(y, y)
	}
	if tss == 0 {
		return 0, 0
	}
	r2 := 1 - rss/tss

	return r2, 1 - float64(n-k0)/float64(df)*(1-r2)
}

func finite(x []float64) bool {
	for _, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}

	return true
}
