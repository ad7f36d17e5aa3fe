// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/katalvlaran/esf/config"
	"github.com/katalvlaran/esf/report"
	"github.com/spf13/cobra"
)

// app carries global flag values and the streams commands write to.
type app struct {
	cfgFile string
	debug   bool

	stdout io.Writer
	stderr io.Writer
	logger *slog.Logger
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}
	root := &cobra.Command{
		Use:   "esf",
		Short: "Eigenvector spatial filtering for regression residuals",
		Long: `esf fits an OLS regression over units of a spatial layer, tests the
residuals for spatial autocorrelation with Moran's I, and greedily adds
Moran's eigenvector maps to a spatial filter covariate until the residual
statistic drops below a tolerance.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if a.debug {
				level = slog.LevelDebug
			}
			a.logger = slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: level}))
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default ./esf.yaml or ~/.esf/config.yaml)")
	root.PersistentFlags().BoolVar(&a.debug, "debug", false, "log every selection step")

	root.AddCommand(
		a.newRunCmd(),
		a.newEigenCmd(),
		a.newMoranCmd(),
		a.newInitConfigCmd(),
	)

	return root
}

// loadConfig reads the configuration and applies flag overrides.
func (a *app) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	c, err := config.NewLoader(a.logger).Load(a.cfgFile)
	if err != nil {
		return nil, err
	}
	f := cmd.Flags()
	if f.Lookup("tolerance") != nil && f.Changed("tolerance") {
		c.Selection.Tolerance, _ = f.GetFloat64("tolerance")
	}
	if f.Lookup("significance") != nil && f.Changed("significance") {
		c.Selection.Significance, _ = f.GetFloat64("significance")
	}
	if f.Lookup("max-candidates") != nil && f.Changed("max-candidates") {
		c.Selection.MaxCandidates, _ = f.GetInt("max-candidates")
	}
	if f.Lookup("format") != nil && f.Changed("format") {
		c.Output.Format, _ = f.GetString("format")
	}
	if f.Lookup("output") != nil && f.Changed("output") {
		c.Output.Path, _ = f.GetString("output")
	}

	return c, nil
}

// writeReport writes rep to the configured path, or stdout.
func (a *app) writeReport(rep *report.Report, out config.Output) error {
	if out.Path == "" {
		return report.Write(a.stdout, rep, out.Format)
	}
	f, err := os.Create(out.Path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	if err = report.Write(f, rep, out.Format); err != nil {
		f.Close()
		return err
	}
	a.logger.Info("report written", slog.String("path", out.Path))

	return f.Close()
}
