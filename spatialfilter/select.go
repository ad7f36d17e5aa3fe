// SPDX-License-Identifier: MIT

package spatialfilter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/katalvlaran/esf/regression"
)

// state is the loop's working memory. Only Select touches it.
type state struct {
	filter     []float64
	accepted   []int
	test       float64
	iterations int
	steps      []Step
	model      *regression.Result
	baseline   *regression.Result
	res        *Result
}

// Select runs greedy spatial-filter selection over in.Candidates.
//
// Implementation:
//   - Stage 1: validate input; fit response ~ predictors; test residuals.
//   - Stage 2: for each candidate in order while statistic ≥ tolerance:
//     reject all-zero candidates without fitting; otherwise fit the trial
//     design (predictors + filter + candidate, zero columns dropped) and
//     accept when p(candidate) ≤ significance.
//   - Stage 3: on acceptance re-project the filter through the trial
//     coefficients, refit on predictors + filter and re-test.
//   - Stage 4: stop below tolerance, or fail with ErrExhaustedCandidates /
//     ErrIterationLimit carrying the partial state.
//
// Every failure is returned as *SelectionError; match the cause with
// errors.Is against ErrInvalidInput, ErrFit, ErrSingularFit, ErrTest,
// ErrExhaustedCandidates, ErrIterationLimit or a context error.
// Complexity: O(K) fits and tests for K candidates.
func Select(ctx context.Context, in Input, opts ...Option) (*Result, error) {
	o := defaultOptions()
	for _, fn := range opts {
		if fn != nil {
			fn(&o)
		}
	}
	log := o.logger
	if log == nil {
		log = slog.Default()
	}

	ranks, err := validate(in)
	if err != nil {
		return nil, &SelectionError{Err: err}
	}
	n := len(in.Response)
	st := &state{filter: make([]float64, n), accepted: []int{}}

	base, dropped := regression.DropZeroColumns(in.Predictors)
	if len(dropped) > 0 {
		log.Debug("spatialfilter: dropped zero predictors", slog.Any("terms", dropped))
	}
	st.baseline, err = fit(in.Fitter, in.Response, base)
	if err != nil {
		return nil, st.fail(err)
	}
	st.model = st.baseline
	bt, err := in.Tester.Test(st.baseline.Residuals)
	if err != nil {
		return nil, st.fail(fmt.Errorf("%w: %w", ErrTest, err))
	}
	st.res = &Result{
		Baseline:          st.baseline,
		BaselineStatistic: bt.I,
		BaselineTest:      bt,
		Test:              bt,
	}
	st.test = bt.I
	log.Info("spatialfilter: baseline",
		slog.Float64("statistic", bt.I),
		slog.Float64("tolerance", o.tolerance),
		slog.Int("candidates", len(in.Candidates)))

	for k, cand := range in.Candidates {
		if st.test < o.tolerance {
			break
		}
		if err = ctx.Err(); err != nil {
			return nil, st.fail(err)
		}
		if o.maxCandidates > 0 && st.iterations >= o.maxCandidates {
			return nil, st.fail(fmt.Errorf("%w: %d candidates examined", ErrIterationLimit, st.iterations))
		}
		st.iterations++
		step := Step{Rank: ranks[k], PValue: 1, Statistic: st.test}

		if regression.IsZero(cand) {
			step.Err = ErrDegenerateColumn
			step.Reason = ErrDegenerateColumn.Error()
			st.steps = append(st.steps, step)
			log.Debug("spatialfilter: degenerate candidate", slog.Int("rank", step.Rank))
			continue
		}

		trial := in.Predictors.Clone().
			Add(FilterTerm, st.filter).
			Add(CandidateTerm, cand)
		trial, step.Dropped = regression.DropZeroColumns(trial)
		tr, err := fit(in.Fitter, in.Response, trial)
		if err != nil {
			return nil, st.fail(err)
		}
		p, _ := tr.PValue(CandidateTerm)
		bk, _ := tr.Coefficient(CandidateTerm)
		step.PValue, step.Coefficient = p, bk
		if math.IsNaN(p) || p > o.significance {
			step.Reason = fmt.Sprintf("p=%.4g > %.4g", p, o.significance)
			st.steps = append(st.steps, step)
			log.Debug("spatialfilter: rejected",
				slog.Int("rank", step.Rank), slog.Float64("p", p))
			continue
		}

		// The absent filter term (all-zero filter) contributes nothing.
		bf, _ := tr.Coefficient(FilterTerm)
		for i := range st.filter {
			st.filter[i] = bf*st.filter[i] + bk*cand[i]
		}
		st.accepted = append(st.accepted, ranks[k])

		final, _ := regression.DropZeroColumns(in.Predictors.Clone().Add(FilterTerm, st.filter))
		st.model, err = fit(in.Fitter, in.Response, final)
		if err != nil {
			return nil, st.fail(err)
		}
		t, err := in.Tester.Test(st.model.Residuals)
		if err != nil {
			return nil, st.fail(fmt.Errorf("%w: %w", ErrTest, err))
		}
		st.test = t.I
		st.res.Test = t
		step.Accepted = true
		step.Statistic = t.I
		st.steps = append(st.steps, step)
		log.Debug("spatialfilter: accepted",
			slog.Int("rank", step.Rank),
			slog.Float64("p", p),
			slog.Float64("statistic", t.I))
	}

	if st.test >= o.tolerance {
		return nil, st.fail(fmt.Errorf("%w: statistic %.6g ≥ tolerance %.6g after %d candidates",
			ErrExhaustedCandidates, st.test, o.tolerance, st.iterations))
	}
	log.Info("spatialfilter: done",
		slog.Any("accepted", st.accepted),
		slog.Float64("statistic", st.test),
		slog.Int("iterations", st.iterations))

	return st.snapshot(), nil
}

// fit runs the fitter and classifies its error.
func fit(f Fitter, y []float64, d regression.Design) (*regression.Result, error) {
	res, err := f.Fit(y, d)
	switch {
	case err == nil:
		return res, nil
	case errors.Is(err, regression.ErrSingularFit):
		return nil, fmt.Errorf("%w: %w", ErrSingularFit, err)
	default:
		return nil, fmt.Errorf("%w: %w", ErrFit, err)
	}
}

// snapshot freezes the loop state into a Result with private copies.
func (st *state) snapshot() *Result {
	if st.res == nil {
		return nil
	}
	out := *st.res
	out.Accepted = append([]int{}, st.accepted...)
	out.Filter = append([]float64(nil), st.filter...)
	out.Model = st.model
	out.Statistic = st.test
	out.Iterations = st.iterations
	out.Steps = append([]Step(nil), st.steps...)

	return &out
}

func (st *state) fail(err error) *SelectionError {
	return &SelectionError{
		Err:        err,
		Accepted:   append([]int{}, st.accepted...),
		Statistic:  st.test,
		Iterations: st.iterations,
		Partial:    st.snapshot(),
	}
}

// validate checks shapes and collaborators and returns the candidate ranks.
func validate(in Input) ([]int, error) {
	if in.Fitter == nil || in.Tester == nil {
		return nil, fmt.Errorf("%w: nil fitter or tester", ErrInvalidInput)
	}
	n := len(in.Response)
	if n == 0 {
		return nil, fmt.Errorf("%w: empty response", ErrInvalidInput)
	}
	if len(in.Predictors.Names) != len(in.Predictors.Columns) {
		return nil, fmt.Errorf("%w: %d predictor names for %d columns",
			ErrInvalidInput, len(in.Predictors.Names), len(in.Predictors.Columns))
	}
	for j, name := range in.Predictors.Names {
		if name == FilterTerm || name == CandidateTerm {
			return nil, fmt.Errorf("%w: predictor name %q is reserved", ErrInvalidInput, name)
		}
		if len(in.Predictors.Columns[j]) != n {
			return nil, fmt.Errorf("%w: predictor %q has %d values, response has %d",
				ErrInvalidInput, name, len(in.Predictors.Columns[j]), n)
		}
	}
	for k, c := range in.Candidates {
		if len(c) != n {
			return nil, fmt.Errorf("%w: candidate %d has %d values, response has %d",
				ErrInvalidInput, k, len(c), n)
		}
		for _, v := range c {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("%w: candidate %d has NaN/Inf", ErrInvalidInput, k)
			}
		}
	}
	if in.Ranks == nil {
		ranks := make([]int, len(in.Candidates))
		for k := range ranks {
			ranks[k] = k + 1
		}

		return ranks, nil
	}
	if len(in.Ranks) != len(in.Candidates) {
		return nil, fmt.Errorf("%w: %d ranks for %d candidates", ErrInvalidInput, len(in.Ranks), len(in.Candidates))
	}

	return append([]int(nil), in.Ranks...), nil
}
