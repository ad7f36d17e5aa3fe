// SPDX-License-Identifier: MIT

package regression_test

import (
	"testing"

	"github.com/katalvlaran/esf/regression"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFit_SimpleLine checks coefficients, standard errors, p-values and R²
// against hand-computed values for y = 2.2 + 0.6x.
func TestFit_SimpleLine(t *testing.T) {
	y := []float64{2, 4, 5, 4, 5}
	d := regression.Design{}.Add("x", []float64{1, 2, 3, 4, 5})

	res, err := regression.New().Fit(y, d)
	require.NoError(t, err)

	assert.Equal(t, []string{regression.InterceptName, "x"}, res.Terms)
	assert.InDelta(t, 2.2, res.Coefficients[regression.InterceptName], 1e-12)
	assert.InDelta(t, 0.6, res.Coefficients["x"], 1e-12)
	assert.InDelta(t, 0.282842712474619, res.StdErrors["x"], 1e-12)
	assert.InDelta(t, 0.938083151964686, res.StdErrors[regression.InterceptName], 1e-12)
	assert.InDelta(t, 2.1213203435596424, res.TValues["x"], 1e-9)
	assert.InDelta(t, 0.12402706265755459, res.PValues["x"], 1e-6)
	assert.InDelta(t, 2.4, res.RSS, 1e-12)
	assert.Equal(t, 3, res.DF)
	assert.InDelta(t, 0.6, res.R2, 1e-12)
	assert.InDelta(t, 0.4666666666666667, res.AdjR2, 1e-12)

	want := []float64{-0.8, 0.6, 1.0, -0.6, -0.2}
	for i := range want {
		assert.InDelta(t, want[i], res.Residuals[i], 1e-12)
		assert.InDelta(t, y[i], res.Fitted[i]+res.Residuals[i], 1e-12)
	}
}

func TestFit_NoIntercept(t *testing.T) {
	y := []float64{2, 4, 6}
	d := regression.Design{}.Add("x", []float64{1, 2, 3})

	res, err := regression.New(regression.WithIntercept(false)).Fit(y, d)
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, res.Terms)
	assert.InDelta(t, 2.0, res.Coefficients["x"], 1e-12)
	// exact fit: the standard error collapses and the p-value with it
	assert.InDelta(t, 0.0, res.PValues["x"], 1e-9)
}

func TestFit_Singular(t *testing.T) {
	y := []float64{1, 3, 2, 5, 4}
	x := []float64{1, 2, 3, 4, 5}
	d := regression.Design{}.Add("a", x).Add("b", x)

	_, err := regression.New().Fit(y, d)
	assert.ErrorIs(t, err, regression.ErrSingularFit)

	zero := regression.Design{}.Add("x", x).Add("z", make([]float64, 5))
	_, err = regression.New().Fit(y, zero)
	assert.ErrorIs(t, err, regression.ErrSingularFit)
}

func TestFit_BadInput(t *testing.T) {
	fit := regression.New()

	_, err := fit.Fit(nil, regression.Design{})
	assert.ErrorIs(t, err, regression.ErrFit)

	_, err = fit.Fit([]float64{1, 2, 3}, regression.Design{}.Add("x", []float64{1, 2}))
	assert.ErrorIs(t, err, regression.ErrFit)

	_, err = fit.Fit([]float64{1, 2}, regression.Design{}.Add("x", []float64{1, 2}))
	assert.ErrorIs(t, err, regression.ErrFit, "n must exceed the number of terms")

	dup := regression.Design{}.Add("x", []float64{1, 2, 3, 4}).Add("x", []float64{4, 3, 1, 2})
	_, err = fit.Fit([]float64{1, 2, 3, 4}, dup)
	assert.ErrorIs(t, err, regression.ErrFit)

	clash := regression.Design{}.Add(regression.InterceptName, []float64{1, 2, 3, 4})
	_, err = fit.Fit([]float64{1, 2, 3, 4}, clash)
	assert.ErrorIs(t, err, regression.ErrFit)
}

func TestDropZeroColumns(t *testing.T) {
	d := regression.Design{}.
		Add("a", []float64{1, 2}).
		Add("z", []float64{0, 0}).
		Add("b", []float64{0, 3})

	out, dropped := regression.DropZeroColumns(d)
	assert.Equal(t, []string{"a", "b"}, out.Names)
	assert.Equal(t, []string{"z"}, dropped)
	assert.Equal(t, 3, d.Len(), "input untouched")
}

func TestDesignAddDoesNotAlias(t *testing.T) {
	col := []float64{1, 2, 3}
	d := regression.Design{}.Add("x", col)
	col[0] = 99
	got, ok := d.Column("x")
	require.True(t, ok)
	assert.Equal(t, 1.0, got[0])
}
