// SPDX-License-Identifier: MIT

package main

import (
	"errors"

	"github.com/katalvlaran/esf/pipeline"
	"github.com/spf13/cobra"
)

func (a *app) newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full pipeline and print the report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.loadConfig(cmd)
			if err != nil {
				return err
			}
			rep, runErr := pipeline.Run(cmd.Context(), c, a.logger)
			if rep == nil {
				return runErr
			}
			// A failed selection still produces a report with the partial state.
			return errors.Join(a.writeReport(rep, c.Output), runErr)
		},
	}
	f := cmd.Flags()
	f.Float64("tolerance", 0, "stop once residual Moran's I is below this value")
	f.Float64("significance", 0, "p-value cutoff for accepting an eigenvector")
	f.Int("max-candidates", 0, "cap on eigenvectors examined (0 = all)")
	f.StringP("format", "f", "", "report format: text, json or yaml")
	f.StringP("output", "o", "", "write the report to a file instead of stdout")

	return cmd
}
