// SPDX-License-Identifier: MIT

// Package report assembles the outcome of one spatial-filtering run and
// renders it as text, JSON or YAML.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/katalvlaran/esf/moran"
	"github.com/katalvlaran/esf/regression"
	"github.com/katalvlaran/esf/spatialfilter"
	"gopkg.in/yaml.v3"
)

// Output formats accepted by Write.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// ErrFormat indicates an unknown output format.
var ErrFormat = errors.New("report: unknown format")

// Term is one row of a coefficient table.
type Term struct {
	Name        string  `json:"name" yaml:"name"`
	Coefficient float64 `json:"coefficient" yaml:"coefficient"`
	StdError    float64 `json:"std_error" yaml:"std_error"`
	T           float64 `json:"t" yaml:"t"`
	P           float64 `json:"p" yaml:"p"`
}

// Model summarizes a fitted regression.
type Model struct {
	Terms   []Term  `json:"terms" yaml:"terms"`
	N       int     `json:"n" yaml:"n"`
	DF      int     `json:"df" yaml:"df"`
	R2      float64 `json:"r2" yaml:"r2"`
	AdjR2   float64 `json:"adj_r2" yaml:"adj_r2"`
	SigmaSq float64 `json:"sigma_sq" yaml:"sigma_sq"`
}

// ModelFrom converts a regression result; nil stays nil.
func ModelFrom(r *regression.Result) *Model {
	if r == nil {
		return nil
	}
	m := &Model{N: r.N, DF: r.DF, R2: r.R2, AdjR2: r.AdjR2, SigmaSq: r.SigmaSq}
	for _, name := range r.Terms {
		m.Terms = append(m.Terms, Term{
			Name:        name,
			Coefficient: r.Coefficients[name],
			StdError:    r.StdErrors[name],
			T:           r.TValues[name],
			P:           r.PValues[name],
		})
	}

	return m
}

// Report is the record of one run. On a failed selection it still carries
// the partial accepted set and the last statistic.
type Report struct {
	RunID      string    `json:"run_id" yaml:"run_id"`
	CreatedAt  time.Time `json:"created_at" yaml:"created_at"`
	Response   string    `json:"response" yaml:"response"`
	Predictors []string  `json:"predictors" yaml:"predictors"`
	Units      int       `json:"units" yaml:"units"`
	Candidates int       `json:"candidates" yaml:"candidates"`
	Tolerance  float64   `json:"tolerance" yaml:"tolerance"`

	Baseline     *Model        `json:"baseline,omitempty" yaml:"baseline,omitempty"`
	BaselineTest *moran.Result `json:"baseline_test,omitempty" yaml:"baseline_test,omitempty"`
	Final        *Model        `json:"final,omitempty" yaml:"final,omitempty"`
	FinalTest    *moran.Result `json:"final_test,omitempty" yaml:"final_test,omitempty"`

	Accepted   []int                `json:"accepted" yaml:"accepted"`
	Statistic  float64              `json:"statistic" yaml:"statistic"`
	Iterations int                  `json:"iterations" yaml:"iterations"`
	Steps      []spatialfilter.Step `json:"steps,omitempty" yaml:"steps,omitempty"`
	Filter     map[int]float64      `json:"filter,omitempty" yaml:"filter,omitempty"`

	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// New returns an empty report with a fresh run id.
func New(response string, predictors []string) *Report {
	return &Report{
		RunID:      uuid.NewString(),
		CreatedAt:  time.Now().UTC(),
		Response:   response,
		Predictors: append([]string(nil), predictors...),
		Accepted:   []int{},
	}
}

// SetSelection records a selection result. ids label the filter values.
func (r *Report) SetSelection(res *spatialfilter.Result, ids []int) {
	if res == nil {
		return
	}
	r.Baseline = ModelFrom(res.Baseline)
	bt, ft := res.BaselineTest, res.Test
	r.BaselineTest, r.FinalTest = &bt, &ft
	r.Final = ModelFrom(res.Model)
	r.Accepted = append([]int{}, res.Accepted...)
	r.Statistic = res.Statistic
	r.Iterations = res.Iterations
	r.Steps = append([]spatialfilter.Step(nil), res.Steps...)
	if len(ids) == len(res.Filter) && len(res.Accepted) > 0 {
		r.Filter = make(map[int]float64, len(ids))
		for i, id := range ids {
			r.Filter[id] = res.Filter[i]
		}
	}
}

// SetError records err; a *spatialfilter.SelectionError contributes its
// partial state.
func (r *Report) SetError(err error, ids []int) {
	if err == nil {
		return
	}
	r.Error = err.Error()
	var se *spatialfilter.SelectionError
	if !errors.As(err, &se) {
		return
	}
	if se.Partial != nil {
		r.SetSelection(se.Partial, ids)
	}
	r.Accepted = append([]int{}, se.Accepted...)
	r.Statistic = se.Statistic
	r.Iterations = se.Iterations
}

// Write renders r in the given format.
func Write(w io.Writer, r *Report, format string) error {
	switch strings.ToLower(format) {
	case FormatText, "":
		return WriteText(w, r)
	case FormatJSON:
		return WriteJSON(w, r)
	case FormatYAML:
		return WriteYAML(w, r)
	default:
		return fmt.Errorf("%w: %q", ErrFormat, format)
	}
}

// WriteJSON renders r as indented JSON.
func WriteJSON(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("report: encode json: %w", err)
	}

	return nil
}

// WriteYAML renders r as YAML.
func WriteYAML(w io.Writer, r *Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("report: encode yaml: %w", err)
	}

	return enc.Close()
}

// WriteText renders a human-readable summary.
func WriteText(w io.Writer, r *Report) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "run %s  %s\n", r.RunID, r.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(tw, "response %s ~ %s\n", r.Response, strings.Join(r.Predictors, " + "))
	fmt.Fprintf(tw, "units %d  candidates %d  tolerance %g\n", r.Units, r.Candidates, r.Tolerance)

	writeModel(tw, "baseline", r.Baseline, r.BaselineTest)
	if len(r.Steps) > 0 {
		fmt.Fprintln(tw, "\nsteps")
		fmt.Fprintln(tw, "  rank\taccepted\tcoef\tp\tstatistic\tnote")
		for _, s := range r.Steps {
			fmt.Fprintf(tw, "  %d\t%t\t% .4g\t%.4g\t%.4f\t%s\n",
				s.Rank, s.Accepted, s.Coefficient, s.PValue, s.Statistic, s.Reason)
		}
	}
	writeModel(tw, "final", r.Final, r.FinalTest)

	fmt.Fprintf(tw, "\naccepted %v  statistic %.4f  iterations %d\n", r.Accepted, r.Statistic, r.Iterations)
	if len(r.Filter) > 0 {
		ids := make([]int, 0, len(r.Filter))
		for id := range r.Filter {
			ids = append(ids, id)
		}
		sort.Ints(ids)
		fmt.Fprintln(tw, "\nfilter")
		for _, id := range ids {
			fmt.Fprintf(tw, "  %d\t% .6f\n", id, r.Filter[id])
		}
	}
	if r.Error != "" {
		fmt.Fprintf(tw, "\nerror: %s\n", r.Error)
	}

	return tw.Flush()
}

func writeModel(w io.Writer, label string, m *Model, t *moran.Result) {
	if m == nil {
		return
	}
	fmt.Fprintf(w, "\n%s  n=%d  df=%d  R2=%.4f  adjR2=%.4f\n", label, m.N, m.DF, m.R2, m.AdjR2)
	fmt.Fprintln(w, "  term\tcoef\tse\tt\tp")
	for _, term := range m.Terms {
		fmt.Fprintf(w, "  %s\t% .6g\t%.4g\t% .3f\t%.4g\n",
			term.Name, term.Coefficient, term.StdError, term.T, term.P)
	}
	if t != nil {
		fmt.Fprintf(w, "  moran I=%.4f  E[I]=%.4f  z=%.3f  p=%.4g\n", t.I, t.Expected, t.ZNorm, t.PNorm)
	}
}
