// SPDX-License-Identifier: MIT

package report_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/katalvlaran/esf/moran"
	"github.com/katalvlaran/esf/regression"
	"github.com/katalvlaran/esf/report"
	"github.com/katalvlaran/esf/spatialfilter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func sampleResult() *spatialfilter.Result {
	model := &regression.Result{
		Terms:        []string{"const", "x"},
		Coefficients: map[string]float64{"const": 2.2, "x": 0.6},
		StdErrors:    map[string]float64{"const": 0.94, "x": 0.28},
		TValues:      map[string]float64{"const": 2.34, "x": 2.12},
		PValues:      map[string]float64{"const": 0.1, "x": 0.124},
		N:            5,
		DF:           3,
		R2:           0.6,
	}

	return &spatialfilter.Result{
		Accepted:          []int{2},
		Filter:            []float64{0.1, -0.2, 0.3},
		Model:             model,
		Baseline:          model,
		Statistic:         0.2,
		BaselineStatistic: 0.8,
		Test:              moran.Result{I: 0.2},
		BaselineTest:      moran.Result{I: 0.8},
		Iterations:        2,
		Steps: []spatialfilter.Step{
			{Rank: 1, PValue: 0.4, Statistic: 0.8, Reason: "p=0.4 > 0.1"},
			{Rank: 2, Accepted: true, PValue: 0.01, Statistic: 0.2},
		},
	}
}

func TestReport_SetSelectionAndWrite(t *testing.T) {
	r := report.New("donors", []string{"x"})
	_, err := uuid.Parse(r.RunID)
	require.NoError(t, err)

	r.SetSelection(sampleResult(), []int{11, 12, 13})
	assert.Equal(t, []int{2}, r.Accepted)
	assert.Equal(t, map[int]float64{11: 0.1, 12: -0.2, 13: 0.3}, r.Filter)
	require.NotNil(t, r.Final)
	assert.Equal(t, "x", r.Final.Terms[1].Name)
	assert.Equal(t, 0.8, r.BaselineTest.I)

	var buf bytes.Buffer
	require.NoError(t, report.Write(&buf, r, "json"))
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, r.RunID, decoded["run_id"])
	assert.Equal(t, []any{float64(2)}, decoded["accepted"])

	buf.Reset()
	require.NoError(t, report.Write(&buf, r, "yaml"))
	var y map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &y))
	assert.Equal(t, "donors", y["response"])

	buf.Reset()
	require.NoError(t, report.Write(&buf, r, "text"))
	out := buf.String()
	assert.Contains(t, out, "response donors ~ x")
	assert.Contains(t, out, "accepted [2]")
	assert.Contains(t, out, "p=0.4 > 0.1")

	assert.ErrorIs(t, report.Write(&buf, r, "xml"), report.ErrFormat)
}

func TestReport_SetErrorKeepsPartialState(t *testing.T) {
	partial := sampleResult()
	se := &spatialfilter.SelectionError{
		Err:        fmt.Errorf("%w: still high", spatialfilter.ErrExhaustedCandidates),
		Accepted:   []int{2},
		Statistic:  0.7,
		Iterations: 3,
		Partial:    partial,
	}
	r := report.New("donors", nil)
	r.SetError(fmt.Errorf("pipeline: %w", se), []int{1, 2, 3})

	assert.Contains(t, r.Error, "candidates exhausted")
	assert.Equal(t, []int{2}, r.Accepted)
	assert.Equal(t, 0.7, r.Statistic)
	assert.Equal(t, 3, r.Iterations)
	assert.NotNil(t, r.Baseline)

	plain := report.New("donors", nil)
	plain.SetError(fmt.Errorf("boom"), nil)
	assert.Equal(t, "boom", plain.Error)
	assert.Empty(t, plain.Accepted)
}
