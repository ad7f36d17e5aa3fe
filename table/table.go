// SPDX-License-Identifier: MIT

// Package table holds an in-memory numeric dataset keyed by unit id: the
// rows of a spreadsheet export after parsing, validated and ready to be
// joined to a spatial layer.
package table

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrParse indicates at least one cell could not be coerced; see *ParseErrors.
	ErrParse = errors.New("table: parse error")

	// ErrDuplicateID indicates a unit id appearing on more than one row.
	ErrDuplicateID = errors.New("table: duplicate id")

	// ErrMissingColumn indicates a requested column does not exist.
	ErrMissingColumn = errors.New("table: missing column")

	// ErrJoinMismatch indicates ids present on one side of a join only;
	// see *JoinMismatchError.
	ErrJoinMismatch = errors.New("table: join mismatch")

	// ErrEmpty indicates a sheet with no header or no data rows.
	ErrEmpty = errors.New("table: empty")
)

// ParseError is one cell that failed numeric coercion. Row is 1-based in
// the raw record stream.
type ParseError struct {
	Row    int
	Column string
	Value  string
}

func (e ParseError) Error() string {
	return fmt.Sprintf("row %d column %q: cannot parse %q", e.Row, e.Column, e.Value)
}

// ParseErrors collects every bad cell of one sheet.
type ParseErrors struct {
	Errs []ParseError
}

func (e *ParseErrors) Error() string {
	const show = 5
	var b strings.Builder
	fmt.Fprintf(&b, "%v: %d bad cell(s)", ErrParse, len(e.Errs))
	for i, pe := range e.Errs {
		if i == show {
			fmt.Fprintf(&b, "; ... %d more", len(e.Errs)-show)
			break
		}
		b.WriteString("; ")
		b.WriteString(pe.Error())
	}

	return b.String()
}

func (e *ParseErrors) Unwrap() error { return ErrParse }

// JoinMismatchError lists ids found on only one side of a join.
type JoinMismatchError struct {
	Table          int   // index of the offending table in the LeftJoin call
	MissingInTable []int // layer ids with no row in the table
	MissingInLayer []int // table ids absent from the layer
}

func (e *JoinMismatchError) Error() string {
	return fmt.Sprintf("%v: table %d: %d layer id(s) missing in table %v, %d table id(s) missing in layer %v",
		ErrJoinMismatch, e.Table, len(e.MissingInTable), e.MissingInTable, len(e.MissingInLayer), e.MissingInLayer)
}

func (e *JoinMismatchError) Unwrap() error { return ErrJoinMismatch }

// Table is an ordered set of units with named numeric columns.
type Table struct {
	ids     []int
	index   map[int]int
	names   []string
	columns map[string][]float64
}

// New builds a table from ids and columns given in names order.
// Columns are copied.
func New(ids []int, names []string, columns [][]float64) (*Table, error) {
	if len(names) != len(columns) {
		return nil, fmt.Errorf("table: %d names for %d columns", len(names), len(columns))
	}
	t := &Table{
		ids:     append([]int(nil), ids...),
		index:   make(map[int]int, len(ids)),
		names:   make([]string, 0, len(names)),
		columns: make(map[string][]float64, len(names)),
	}
	for i, id := range ids {
		if _, dup := t.index[id]; dup {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateID, id)
		}
		t.index[id] = i
	}
	for j, name := range names {
		if _, dup := t.columns[name]; dup {
			return nil, fmt.Errorf("table: duplicate column %q", name)
		}
		if len(columns[j]) != len(ids) {
			return nil, fmt.Errorf("table: column %q has %d values for %d ids", name, len(columns[j]), len(ids))
		}
		t.names = append(t.names, name)
		t.columns[name] = append([]float64(nil), columns[j]...)
	}

	return t, nil
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.ids) }

// IDs returns a copy of the unit ids in row order.
func (t *Table) IDs() []int { return append([]int(nil), t.ids...) }

// Names returns a copy of the column names in order.
func (t *Table) Names() []string { return append([]string(nil), t.names...) }

// Has reports whether the table has a row for id.
func (t *Table) Has(id int) bool {
	_, ok := t.index[id]

	return ok
}

// Column returns a copy of the named column.
func (t *Table) Column(name string) ([]float64, error) {
	c, ok := t.columns[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrMissingColumn, name)
	}

	return append([]float64(nil), c...), nil
}

// Columns returns copies of the named columns in the requested order.
func (t *Table) Columns(names ...string) ([][]float64, error) {
	out := make([][]float64, len(names))
	for i, name := range names {
		c, err := t.Column(name)
		if err != nil {
			return nil, err
		}
		out[i] = c
	}

	return out, nil
}

// LeftJoin returns a table whose rows follow ids (the spatial layer order)
// and whose columns are the union of the tables' columns, in argument order.
// A column name already taken gets the suffix _<n> (n = 2, 3, ...).
//
// Every id present on one side only is an error (*JoinMismatchError) unless
// WithLenientJoin is given, in which case layer ids missing from any table
// are dropped from the result and table-only ids are ignored.
func LeftJoin(ids []int, tables []*Table, opts ...JoinOption) (*Table, error) {
	var o joinOptions
	for _, fn := range opts {
		if fn != nil {
			fn(&o)
		}
	}
	layer := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := layer[id]; dup {
			return nil, fmt.Errorf("%w: %d in layer", ErrDuplicateID, id)
		}
		layer[id] = struct{}{}
	}

	keep := append([]int(nil), ids...)
	for ti, t := range tables {
		if t == nil {
			return nil, fmt.Errorf("table: nil table %d", ti)
		}
		var mism JoinMismatchError
		mism.Table = ti
		for _, id := range ids {
			if !t.Has(id) {
				mism.MissingInTable = append(mism.MissingInTable, id)
			}
		}
		for _, id := range t.ids {
			if _, ok := layer[id]; !ok {
				mism.MissingInLayer = append(mism.MissingInLayer, id)
			}
		}
		if len(mism.MissingInTable) == 0 && len(mism.MissingInLayer) == 0 {
			continue
		}
		if !o.lenient {
			sort.Ints(mism.MissingInLayer)
			return nil, &mism
		}
		keep = filterIDs(keep, t)
	}

	var (
		names   []string
		columns [][]float64
		taken   = map[string]struct{}{}
	)
	for _, t := range tables {
		for _, name := range t.names {
			out := uniqueName(name, taken)
			taken[out] = struct{}{}
			src := t.columns[name]
			col := make([]float64, len(keep))
			for i, id := range keep {
				col[i] = src[t.index[id]]
			}
			names = append(names, out)
			columns = append(columns, col)
		}
	}

	return New(keep, names, columns)
}

func filterIDs(ids []int, t *Table) []int {
	out := ids[:0]
	for _, id := range ids {
		if t.Has(id) {
			out = append(out, id)
		}
	}

	return out
}

func uniqueName(name string, taken map[string]struct{}) string {
	if _, ok := taken[name]; !ok {
		return name
	}
	for n := 2; ; n++ {
		s := fmt.Sprintf("%s_%d", name, n)
		if _, ok := taken[s]; !ok {
			return s
		}
	}
}

// JoinOption configures LeftJoin.
type JoinOption func(*joinOptions)

type joinOptions struct {
	lenient bool
}

// WithLenientJoin drops unmatched layer ids instead of failing.
func WithLenientJoin() JoinOption {
	return func(o *joinOptions) { o.lenient = true }
}
