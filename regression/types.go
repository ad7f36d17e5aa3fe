// SPDX-License-Identifier: MIT

// Package regression fits ordinary-least-squares models over named columns.
//
// The engine solves the least-squares problem through a QR factorization of
// the design matrix, derives the coefficient covariance from a Cholesky
// factorization of XᵀX, and reports two-sided Student-t p-values per term.
// Rank-deficient designs are rejected with ErrSingularFit rather than
// producing arbitrary coefficients.
package regression

import (
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	// ErrFit indicates unusable input: mismatched lengths, non-finite values,
	// duplicate term names, or too few observations for the number of terms.
	ErrFit = errors.New("regression: fit failed")

	// ErrSingularFit indicates a rank-deficient (or numerically singular) design.
	ErrSingularFit = errors.New("regression: singular design matrix")
)

// InterceptName is the term name of the intercept column.
const InterceptName = "const"

// Design is an ordered set of named predictor columns over the same units.
type Design struct {
	Names   []string
	Columns [][]float64
}

// Add appends a named column and returns the extended design.
// The receiver's slices are not shared with the result.
func (d Design) Add(name string, col []float64) Design {
	out := d.Clone()
	out.Names = append(out.Names, name)
	out.Columns = append(out.Columns, append([]float64(nil), col...))

	return out
}

// Clone returns a deep copy.
func (d Design) Clone() Design {
	out := Design{
		Names:   append([]string(nil), d.Names...),
		Columns: make([][]float64, len(d.Columns)),
	}
	for i, c := range d.Columns {
		out.Columns[i] = append([]float64(nil), c...)
	}

	return out
}

// Len returns the number of columns.
func (d Design) Len() int { return len(d.Columns) }

// Column returns the column with the given name.
func (d Design) Column(name string) ([]float64, bool) {
	for i, n := range d.Names {
		if n == name {
			return d.Columns[i], true
		}
	}

	return nil, false
}

// IsZero reports whether every entry of col is exactly zero.
func IsZero(col []float64) bool {
	for _, v := range col {
		if v != 0 {
			return false
		}
	}

	return true
}

// DropZeroColumns returns d without identically-zero columns and the names
// that were dropped, in design order.
func DropZeroColumns(d Design) (Design, []string) {
	out := Design{}
	var dropped []string
	for i, c := range d.Columns {
		if IsZero(c) {
			dropped = append(dropped, d.Names[i])
			continue
		}
		out.Names = append(out.Names, d.Names[i])
		out.Columns = append(out.Columns, append([]float64(nil), c...))
	}

	return out, dropped
}

// Result is a fitted OLS model. Maps are keyed by term name; Terms preserves
// the design order (intercept first when present).
type Result struct {
	Terms        []string
	Coefficients map[string]float64
	StdErrors    map[string]float64
	TValues      map[string]float64
	PValues      map[string]float64
	Residuals    []float64
	Fitted       []float64
	N            int     // observations
	DF           int     // residual degrees of freedom, N − len(Terms)
	SigmaSq      float64 // residual variance, RSS/DF
	RSS          float64
	R2           float64
	AdjR2        float64
}

// Coefficient returns the coefficient of term, or 0 and false if absent.
func (r *Result) Coefficient(term string) (float64, bool) {
	v, ok := r.Coefficients[term]

	return v, ok
}

// PValue returns the p-value of term, or 1 and false if absent.
func (r *Result) PValue(term string) (float64, bool) {
	v, ok := r.PValues[term]
	if !ok {
		return 1, false
	}

	return v, true
}

// String renders a compact coefficient table.
func (r *Result) String() string {
	s := fmt.Sprintf("OLS n=%d df=%d R²=%.4f adjR²=%.4f\n", r.N, r.DF, r.R2, r.AdjR2)
	for _, t := range r.Terms {
		s += fmt.Sprintf("  %-16s % .6g  se=%.4g  t=% .4f  p=%.4g\n",
			t, r.Coefficients[t], r.StdErrors[t], r.TValues[t], r.PValues[t])
	}

	return s
}
