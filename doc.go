// SPDX-License-Identifier: MIT

// Package esf is eigenvector spatial filtering for regression residuals.
//
// A linear model fitted over geographic units often leaves residuals that
// are spatially autocorrelated: neighbors share errors. esf removes that
// structure by building a "spatial filter" covariate from Moran's
// eigenvector maps (MEMs) of the neighbor graph, adding eigenvectors one
// at a time until residual Moran's I drops below a tolerance.
//
// Packages, leaves first:
//
//	matrix/         dense matrices, double centering, Jacobi eigen-decomposition
//	table/          parse spreadsheet exports, left-join them onto a layer
//	weights/        neighbor lists, contiguity from polygons or lattices, S0/S1/S2
//	mem/            the ordered MEM candidate basis of a weights structure
//	regression/     OLS with coefficient p-values (gonum)
//	moran/          Moran's I with normal, randomization and permutation inference
//	spatialfilter/  greedy filter selection over the ordered candidates
//	config/         viper-backed run configuration
//	report/         run report in text, JSON or YAML
//	pipeline/       read → join → weights → basis → select → report
//	cmd/esf         the command-line front end
//
// Quick start:
//
//	esf init-config esf.yaml   # edit data paths and model terms
//	esf moran --config esf.yaml
//	esf run --config esf.yaml --format json
package esf
