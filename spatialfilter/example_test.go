// SPDX-License-Identifier: MIT

package spatialfilter_test

import (
	"context"
	"errors"
	"fmt"

	"github.com/katalvlaran/esf/mem"
	"github.com/katalvlaran/esf/moran"
	"github.com/katalvlaran/esf/regression"
	"github.com/katalvlaran/esf/spatialfilter"
	"github.com/katalvlaran/esf/weights"
)

// ExampleSelect filters a west-to-east gradient out of a regression on a
// 4×4 raster.
// Scenario:
//
//   - 16 cells, rook contiguity, row-standardized weights.
//   - The response carries a spatial trend the predictor does not explain,
//     so the baseline residuals are positively autocorrelated.
//   - Selection folds eigenvectors into the filter until Moran's I of the
//     residuals drops below 0.1.
//
// Complexity: one eigen-decomposition of a 16×16 matrix plus O(K) fits.
func ExampleSelect() {
	w, err := weights.Lattice(4, 4, weights.Rook)
	if err != nil {
		fmt.Println(err)
		return
	}
	basis, err := mem.Build(w)
	if err != nil {
		fmt.Println(err)
		return
	}
	cands, ranks := spatialfilter.FromBasis(basis)

	x := make([]float64, 16)
	y := make([]float64, 16)
	for i := range y {
		col := float64(i % 4)
		x[i] = float64((i * 7) % 5)
		y[i] = 2 + 0.5*x[i] + 3*col + 0.4*float64((i*5)%3)
	}

	res, err := spatialfilter.Select(context.Background(), spatialfilter.Input{
		Response:   y,
		Predictors: regression.Design{}.Add("x", x),
		Candidates: cands,
		Ranks:      ranks,
		Fitter:     regression.New(),
		Tester:     moran.NewTester(w),
	}, spatialfilter.WithTolerance(0.1))

	var se *spatialfilter.SelectionError
	if errors.As(err, &se) {
		fmt.Println("stopped early:", se.Err, "accepted", se.Accepted)
		return
	}
	fmt.Printf("baseline I=%.3f final I=%.3f accepted=%v\n",
		res.BaselineStatistic, res.Statistic, res.Accepted)
}
