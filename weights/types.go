// SPDX-License-Identifier: MIT

package weights

import (
	"errors"
	"fmt"
)

// Sentinel errors for weights construction and queries.
var (
	// ErrEmpty indicates that no units were supplied.
	ErrEmpty = errors.New("weights: no units")

	// ErrDuplicateID indicates the same unit id appears twice in the layer.
	ErrDuplicateID = errors.New("weights: duplicate unit id")

	// ErrUnknownUnit indicates a neighbor or alignment id that is not in the layer.
	ErrUnknownUnit = errors.New("weights: unknown unit id")

	// ErrSelfNeighbor indicates a unit listed as its own neighbor.
	ErrSelfNeighbor = errors.New("weights: unit listed as its own neighbor")

	// ErrAsymmetric indicates i lists j but j does not list i, and repair is disabled.
	ErrAsymmetric = errors.New("weights: asymmetric neighbor lists")

	// ErrLengthMismatch indicates a vector whose length differs from N().
	ErrLengthMismatch = errors.New("weights: vector length mismatch")

	// ErrBadLayer indicates a malformed layer file.
	ErrBadLayer = errors.New("weights: malformed layer")
)

// Style selects how raw contiguity is turned into numeric weights.
type Style int

const (
	// Binary assigns weight 1 to every neighbor pair.
	Binary Style = iota

	// RowStandardized divides each row by its neighbor count.
	RowStandardized
)

// String returns the conventional one-letter code ("B" or "W").
func (s Style) String() string {
	switch s {
	case Binary:
		return "B"
	case RowStandardized:
		return "W"
	default:
		return fmt.Sprintf("Style(%d)", int(s))
	}
}

// ParseStyle maps "B"/"binary" and "W"/"row" to a Style.
func ParseStyle(s string) (Style, error) {
	switch s {
	case "B", "b", "binary":
		return Binary, nil
	case "W", "w", "row", "row-standardized":
		return RowStandardized, nil
	default:
		return 0, fmt.Errorf("weights: unknown style %q", s)
	}
}

// Default construction policy.
const (
	// DefaultStyle is row standardization, the usual choice for Moran's I.
	DefaultStyle = RowStandardized

	// DefaultSymmetrize repairs one-sided neighbor listings instead of failing.
	DefaultSymmetrize = false

	// DefaultPrecision is the coordinate snapping grid used to match polygon vertices.
	DefaultPrecision = 1e-9
)

// Option configures construction.
type Option func(*options)

type options struct {
	style      Style
	symmetrize bool
	precision  float64
}

func defaultOptions() options {
	return options{style: DefaultStyle, symmetrize: DefaultSymmetrize, precision: DefaultPrecision}
}

func gatherOptions(opts []Option) options {
	o := defaultOptions()
	for _, fn := range opts {
		if fn != nil {
			fn(&o)
		}
	}

	return o
}

// WithStyle selects the transform style applied after construction.
func WithStyle(s Style) Option {
	if s != Binary && s != RowStandardized {
		panic("weights: WithStyle: unknown style")
	}

	return func(o *options) { o.style = s }
}

// WithSymmetrize makes FromNeighbors add the missing half of one-sided pairs
// instead of returning ErrAsymmetric.
func WithSymmetrize() Option {
	return func(o *options) { o.symmetrize = true }
}

// WithPrecision sets the grid used to snap polygon coordinates before matching.
// Panics on a non-positive value (programmer error).
func WithPrecision(p float64) Option {
	if !(p > 0) {
		panic("weights: WithPrecision: precision must be > 0")
	}

	return func(o *options) { o.precision = p }
}
