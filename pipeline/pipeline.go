// SPDX-License-Identifier: MIT

// Package pipeline wires the esf packages into a single run:
// read → join → weights → eigenvector basis → baseline → selection → report.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/katalvlaran/esf/config"
	"github.com/katalvlaran/esf/mem"
	"github.com/katalvlaran/esf/moran"
	"github.com/katalvlaran/esf/regression"
	"github.com/katalvlaran/esf/report"
	"github.com/katalvlaran/esf/spatialfilter"
	"github.com/katalvlaran/esf/table"
	"github.com/katalvlaran/esf/weights"
)

// ErrNoResponse indicates the response column is missing from the joined table.
var ErrNoResponse = errors.New("pipeline: response column not found")

// Dataset is the joined, validated input of a run, aligned to the layer order.
type Dataset struct {
	IDs        []int
	Table      *table.Table
	Response   []float64
	Predictors regression.Design
	Weights    *weights.Weights
}

// Load reads every configured table and the spatial layer, joins them in
// layer order and builds the weights.
func Load(cfg *config.Config, logger *slog.Logger) (*Dataset, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	tables := make([]*table.Table, 0, len(cfg.Data.Tables))
	for _, src := range cfg.Data.Tables {
		t, err := readTable(src)
		if err != nil {
			return nil, err
		}
		logger.Info("table loaded",
			slog.String("path", src.Path),
			slog.Int("rows", t.Len()),
			slog.Int("columns", len(t.Names())))
		tables = append(tables, t)
	}

	layer, err := readLayer(cfg.Data.Layer)
	if err != nil {
		return nil, err
	}
	var jopts []table.JoinOption
	if cfg.Data.LenientJoin {
		jopts = append(jopts, table.WithLenientJoin())
	}
	joined, err := table.LeftJoin(layer.IDs, tables, jopts...)
	if err != nil {
		return nil, fmt.Errorf("pipeline: join: %w", err)
	}
	if dropped := len(layer.IDs) - joined.Len(); dropped > 0 {
		logger.Warn("units without table rows dropped", slog.Int("dropped", dropped))
		layer = layer.Subset(joined.IDs())
	}

	w, err := buildWeights(layer, cfg.Weights)
	if err != nil {
		return nil, err
	}
	if islands := w.Islands(); len(islands) > 0 {
		logger.Warn("units without neighbors", slog.Any("ids", islands))
	}
	if comps := w.Components(); len(comps) > 1 {
		logger.Warn("neighbor graph is disconnected", slog.Int("components", len(comps)))
	}

	ds := &Dataset{IDs: joined.IDs(), Table: joined, Weights: w}
	if ds.Response, err = joined.Column(cfg.Model.Response); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrNoResponse, cfg.Model.Response)
	}
	for _, name := range cfg.Model.Predictors {
		col, err := joined.Column(name)
		if err != nil {
			return nil, fmt.Errorf("pipeline: predictor: %w", err)
		}
		ds.Predictors = ds.Predictors.Add(name, col)
	}
	logger.Info("dataset ready",
		slog.Int("units", len(ds.IDs)),
		slog.String("style", w.Style().String()))

	return ds, nil
}

func readTable(src config.Source) (*table.Table, error) {
	f, err := os.Open(src.Path)
	if err != nil {
		return nil, fmt.Errorf("pipeline: open table: %w", err)
	}
	defer f.Close()

	opts := []table.Option{table.WithSkipRows(src.SkipRows)}
	if src.IDColumn != "" {
		opts = append(opts, table.WithIDColumn(src.IDColumn))
	}
	if len(src.DropColumns) > 0 {
		opts = append(opts, table.WithDropColumns(src.DropColumns...))
	}
	t, err := table.ReadCSV(f, opts...)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %s: %w", src.Path, err)
	}

	return t, nil
}

func readLayer(path string) (*weights.Layer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("pipeline: open layer: %w", err)
	}
	defer f.Close()

	l, err := weights.ReadLayer(f)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %s: %w", path, err)
	}

	return l, nil
}

func buildWeights(l *weights.Layer, c config.Weights) (*weights.Weights, error) {
	cont, err := weights.ParseContiguity(c.Contiguity)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	style, err := weights.ParseStyle(c.Style)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	opts := []weights.Option{weights.WithStyle(style)}
	if c.Symmetrize {
		opts = append(opts, weights.WithSymmetrize())
	}
	w, err := l.Weights(cont, opts...)
	if err != nil {
		return nil, fmt.Errorf("pipeline: weights: %w", err)
	}

	return w, nil
}

// Basis builds the eigenvector basis of ds.Weights.
func Basis(ds *Dataset, c config.MEM) (*mem.Basis, error) {
	b, err := mem.Build(ds.Weights,
		mem.WithPositiveOnly(c.PositiveOnly),
		mem.WithMaxVectors(c.MaxVectors))
	if err != nil {
		return nil, fmt.Errorf("pipeline: basis: %w", err)
	}

	return b, nil
}

// Baseline fits response ~ predictors and tests its residuals.
func Baseline(ds *Dataset, cfg *config.Config) (*regression.Result, moran.Result, error) {
	fit, err := regression.New(regression.WithIntercept(cfg.Model.Intercept)).Fit(ds.Response, ds.Predictors)
	if err != nil {
		return nil, moran.Result{}, fmt.Errorf("pipeline: baseline: %w", err)
	}
	res, err := moran.Test(fit.Residuals, ds.Weights, moranOptions(cfg.Moran)...)
	if err != nil {
		return nil, moran.Result{}, fmt.Errorf("pipeline: baseline: %w", err)
	}

	return fit, res, nil
}

func moranOptions(c config.Moran) []moran.Option {
	if c.Permutations == 0 {
		return nil
	}

	return []moran.Option{moran.WithPermutations(c.Permutations, c.Seed)}
}

// Run executes a full analysis. The returned report is non-nil whenever the
// inputs loaded; on a selection failure it carries the partial state and
// the error is returned alongside it.
func Run(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*report.Report, error) {
	if logger == nil {
		logger = slog.Default()
	}
	start := time.Now()
	if cfg.Selection.TimeoutSec > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(cfg.Selection.TimeoutSec)*time.Second)
		defer cancel()
	}

	ds, err := Load(cfg, logger)
	if err != nil {
		return nil, err
	}
	rep := report.New(cfg.Model.Response, cfg.Model.Predictors)
	rep.Units = len(ds.IDs)
	rep.Tolerance = cfg.Selection.Tolerance

	basis, err := Basis(ds, cfg.MEM)
	if err != nil {
		rep.SetError(err, ds.IDs)
		return rep, err
	}
	rep.Candidates = basis.Len()
	logger.Info("eigenvector basis built", slog.Int("candidates", basis.Len()))

	cands, ranks := spatialfilter.FromBasis(basis)
	opts := []spatialfilter.Option{
		spatialfilter.WithSignificance(cfg.Selection.Significance),
		spatialfilter.WithTolerance(cfg.Selection.Tolerance),
		spatialfilter.WithLogger(logger),
	}
	if cfg.Selection.MaxCandidates > 0 {
		opts = append(opts, spatialfilter.WithMaxCandidates(cfg.Selection.MaxCandidates))
	}
	res, err := spatialfilter.Select(ctx, spatialfilter.Input{
		Response:   ds.Response,
		Predictors: ds.Predictors,
		Candidates: cands,
		Ranks:      ranks,
		Fitter:     regression.New(regression.WithIntercept(cfg.Model.Intercept)),
		Tester:     moran.NewTester(ds.Weights, moranOptions(cfg.Moran)...),
	}, opts...)
	if err != nil {
		rep.SetError(err, ds.IDs)
		logger.Error("selection failed", slog.String("error", err.Error()))
		return rep, fmt.Errorf("pipeline: %w", err)
	}
	rep.SetSelection(res, ds.IDs)
	logger.Info("run complete",
		slog.String("run_id", rep.RunID),
		slog.Any("accepted", res.Accepted),
		slog.Float64("statistic", res.Statistic),
		slog.Duration("elapsed", time.Since(start)))

	return rep, nil
}
