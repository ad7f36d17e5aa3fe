// SPDX-License-Identifier: MIT

package main

import (
	"fmt"

	"github.com/katalvlaran/esf/pipeline"
	"github.com/spf13/cobra"
)

func (a *app) newMoranCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "moran",
		Short: "Fit the baseline model and test its residuals with Moran's I",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.loadConfig(cmd)
			if err != nil {
				return err
			}
			ds, err := pipeline.Load(c, a.logger)
			if err != nil {
				return err
			}
			fit, res, err := pipeline.Baseline(ds, c)
			if err != nil {
				return err
			}

			fmt.Fprint(a.stdout, fit.String())
			fmt.Fprintf(a.stdout, "Moran's I %.6f  E[I] %.6f\n", res.I, res.Expected)
			fmt.Fprintf(a.stdout, "  normality:     z=% .4f  p=%.4g\n", res.ZNorm, res.PNorm)
			fmt.Fprintf(a.stdout, "  randomization: z=% .4f  p=%.4g\n", res.ZRand, res.PRand)
			if res.Permutations > 0 {
				fmt.Fprintf(a.stdout, "  permutation:   p=%.4g (%d draws)\n", res.PSim, res.Permutations)
			}

			return nil
		},
	}
}
