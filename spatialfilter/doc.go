// SPDX-License-Identifier: MIT

// Package spatialfilter builds a composite "spatial filter" covariate from an
// ordered list of candidate eigenvectors (Moran's Eigenvector Maps) so that a
// regression of a response on its predictors plus the filter has residual
// Moran's I below a tolerance.
//
// Selection is greedy and forward-only:
//
//	filter ← 0; fit response ~ predictors; I ← moran(residuals)
//	for each candidate e_k in the given order, while I ≥ tolerance:
//	    fit response ~ predictors + filter + e_k   (all-zero columns dropped)
//	    if p(e_k) ≤ significance:
//	        filter ← b_filter·filter + b_k·e_k
//	        fit response ~ predictors + filter;  I ← moran(residuals)
//
// The candidate order is never re-sorted, so the accepted ranks are always a
// subsequence of the input. A rejected candidate leaves I untouched. Running
// out of candidates (or hitting the WithMaxCandidates cap) while I is still at
// or above the tolerance is an error; the error carries the partial state.
//
// The regression and the autocorrelation test are injected through the
// Fitter and AutocorrelationTester interfaces; *regression.OLS and
// *moran.Tester satisfy them.
package spatialfilter
