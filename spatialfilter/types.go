// SPDX-License-Identifier: MIT

package spatialfilter

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/katalvlaran/esf/mem"
	"github.com/katalvlaran/esf/moran"
	"github.com/katalvlaran/esf/regression"
)

// Term names added to the trial designs. Predictors must not use them.
const (
	FilterTerm    = "filter"
	CandidateTerm = "candidate"
)

// Defaults for Select.
const (
	DefaultSignificance = 0.10
	DefaultTolerance    = 0.5
)

var (
	// ErrInvalidInput indicates mismatched lengths, non-finite values,
	// missing collaborators or a reserved predictor name.
	ErrInvalidInput = errors.New("spatialfilter: invalid input")

	// ErrFit indicates a regression failure other than a singular design.
	ErrFit = errors.New("spatialfilter: fit failed")

	// ErrSingularFit indicates a rank-deficient design after zero-column removal.
	ErrSingularFit = errors.New("spatialfilter: singular fit")

	// ErrTest indicates the autocorrelation test failed.
	ErrTest = errors.New("spatialfilter: autocorrelation test failed")

	// ErrExhaustedCandidates indicates every candidate was tried and the
	// statistic is still at or above the tolerance.
	ErrExhaustedCandidates = errors.New("spatialfilter: candidates exhausted above tolerance")

	// ErrIterationLimit indicates the WithMaxCandidates cap was reached
	// with the statistic still at or above the tolerance.
	ErrIterationLimit = errors.New("spatialfilter: iteration limit reached")

	// ErrDegenerateColumn marks a candidate that is zero for every unit.
	// It is recorded on the rejected Step; it never aborts selection.
	ErrDegenerateColumn = errors.New("spatialfilter: degenerate all-zero candidate")
)

// Fitter fits response ~ design. *regression.OLS implements it.
type Fitter interface {
	Fit(response []float64, d regression.Design) (*regression.Result, error)
}

// AutocorrelationTester tests residuals for spatial autocorrelation.
// *moran.Tester implements it.
type AutocorrelationTester interface {
	Test(residuals []float64) (moran.Result, error)
}

// Input is everything one selection run consumes. Slices are never mutated.
type Input struct {
	Response   []float64
	Predictors regression.Design

	// Candidates are tried in this order. Ranks labels them in the result;
	// when nil, ranks are 1..len(Candidates).
	Candidates [][]float64
	Ranks      []int

	Fitter Fitter
	Tester AutocorrelationTester
}

// FromBasis returns the candidate vectors and ranks of b in basis order.
func FromBasis(b *mem.Basis) ([][]float64, []int) {
	cs := b.Candidates()
	vecs := make([][]float64, len(cs))
	ranks := make([]int, len(cs))
	for i, c := range cs {
		vecs[i] = c.Loadings
		ranks[i] = c.Rank
	}

	return vecs, ranks
}

// Step records the evaluation of one candidate.
type Step struct {
	Rank        int      `json:"rank" yaml:"rank"`
	Accepted    bool     `json:"accepted" yaml:"accepted"`
	Coefficient float64  `json:"coefficient" yaml:"coefficient"`
	PValue      float64  `json:"p_value" yaml:"p_value"`
	Statistic   float64  `json:"statistic" yaml:"statistic"` // statistic after this step
	Dropped     []string `json:"dropped,omitempty" yaml:"dropped,omitempty"`
	Reason      string   `json:"reason,omitempty" yaml:"reason,omitempty"`
	Err         error    `json:"-" yaml:"-"`
}

// Result is the outcome of a selection run. Filter is a private copy.
type Result struct {
	Accepted          []int
	Filter            []float64
	Model             *regression.Result
	Baseline          *regression.Result
	Statistic         float64
	BaselineStatistic float64
	Test              moran.Result
	BaselineTest      moran.Result
	Iterations        int // candidates examined
	Steps             []Step
}

// SelectionError wraps a selection failure with the loop state at the time
// it occurred. Partial is non-nil once the baseline fit has succeeded.
type SelectionError struct {
	Err        error
	Accepted   []int
	Statistic  float64
	Iterations int
	Partial    *Result
}

func (e *SelectionError) Error() string {
	return fmt.Sprintf("%v (accepted=%v statistic=%.6g iterations=%d)",
		e.Err, e.Accepted, e.Statistic, e.Iterations)
}

func (e *SelectionError) Unwrap() error { return e.Err }

// Option configures Select.
type Option func(*options)

type options struct {
	significance  float64
	tolerance     float64
	maxCandidates int
	logger        *slog.Logger
}

func defaultOptions() options {
	return options{
		significance: DefaultSignificance,
		tolerance:    DefaultTolerance,
	}
}

// WithSignificance sets the p-value cutoff for accepting a candidate.
// Panics unless 0 < p ≤ 1.
func WithSignificance(p float64) Option {
	if !(p > 0 && p <= 1) {
		panic("spatialfilter: WithSignificance: p must be in (0, 1]")
	}

	return func(o *options) { o.significance = p }
}

// WithTolerance sets the statistic value below which selection stops.
func WithTolerance(t float64) Option {
	return func(o *options) { o.tolerance = t }
}

// WithMaxCandidates caps the number of candidates examined (0 = no cap).
// Panics on a negative value.
func WithMaxCandidates(k int) Option {
	if k < 0 {
		panic("spatialfilter: WithMaxCandidates: k must be >= 0")
	}

	return func(o *options) { o.maxCandidates = k }
}

// WithLogger sets the logger for per-step Debug and summary Info records.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}
