// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/katalvlaran/esf/pipeline"
	"github.com/spf13/cobra"
)

func (a *app) newEigenCmd() *cobra.Command {
	var loadings bool
	cmd := &cobra.Command{
		Use:   "eigen",
		Short: "Print the Moran's eigenvector maps of the spatial layer",
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
			basis, err := pipeline.Basis(ds, c.MEM)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "rank\teigenvalue\tmoran_i")
			for _, cand := range basis.Candidates() {
				fmt.Fprintf(tw, "%d\t% .6f\t% .4f\n", cand.Rank, cand.Eigenvalue, cand.MoranI)
			}
			if loadings {
				fmt.Fprintln(tw)
				for i, id := range basis.IDs() {
					fmt.Fprintf(tw, "%d", id)
					for _, cand := range basis.Candidates() {
						fmt.Fprintf(tw, "\t% .4f", cand.Loadings[i])
					}
					fmt.Fprintln(tw)
				}
			}

			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&loadings, "loadings", false, "also print per-unit loadings")

	return cmd
}
