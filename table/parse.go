// SPDX-License-Identifier: MIT

package table

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// DefaultSkipRows is the number of banner rows above the header row.
const DefaultSkipRows = 1

// Option configures ParseRecords and ReadCSV.
type Option func(*parseOptions)

type parseOptions struct {
	skipRows int
	idColumn string
	drop     map[string]struct{}
}

// WithSkipRows sets the number of leading rows discarded before the header.
// Panics on a negative count.
func WithSkipRows(n int) Option {
	if n < 0 {
		panic("table: WithSkipRows: n must be >= 0")
	}

	return func(o *parseOptions) { o.skipRows = n }
}

// WithIDColumn names the integer id column. The default is the first column.
func WithIDColumn(name string) Option {
	return func(o *parseOptions) { o.idColumn = name }
}

// WithDropColumns excludes non-numeric columns (labels, names) from parsing.
func WithDropColumns(names ...string) Option {
	return func(o *parseOptions) {
		for _, n := range names {
			o.drop[n] = struct{}{}
		}
	}
}

// ReadCSV parses a CSV sheet; see ParseRecords.
func ReadCSV(r io.Reader, opts ...Option) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("table: read csv: %w", err)
	}

	return ParseRecords(records, opts...)
}

// ParseRecords turns raw sheet rows into a Table.
//
// The first skipRows rows are discarded, the next row supplies the column
// names, and every following non-blank row is a unit. The id column must
// hold integers; every other kept column must be numeric after trimming
// whitespace and removing thousands separators. Every failing cell is
// collected into a single *ParseErrors (wrapping ErrParse).
func ParseRecords(records [][]string, opts ...Option) (*Table, error) {
	o := parseOptions{skipRows: DefaultSkipRows, drop: map[string]struct{}{}}
	for _, fn := range opts {
		if fn != nil {
			fn(&o)
		}
	}
	if len(records) <= o.skipRows {
		return nil, fmt.Errorf("%w: no header row", ErrEmpty)
	}
	header := records[o.skipRows]
	names := make([]string, len(header))
	for j, h := range header {
		names[j] = strings.TrimSpace(h)
	}

	idCol := 0
	if o.idColumn != "" {
		idCol = -1
		for j, n := range names {
			if n == o.idColumn {
				idCol = j
				break
			}
		}
		if idCol < 0 {
			return nil, fmt.Errorf("%w: id column %q", ErrMissingColumn, o.idColumn)
		}
	}
	if idCol >= len(names) {
		return nil, fmt.Errorf("%w: no columns", ErrEmpty)
	}

	var keep []int
	for j, n := range names {
		if _, skip := o.drop[n]; skip || j == idCol {
			continue
		}
		keep = append(keep, j)
	}

	var (
		ids     []int
		columns = make([][]float64, len(keep))
		perrs   ParseErrors
	)
	for r := o.skipRows + 1; r < len(records); r++ {
		row := records[r]
		if blank(row) {
			continue
		}
		cell := func(j int) string {
			if j < len(row) {
				return row[j]
			}

			return ""
		}
		id, err := parseInt(cell(idCol))
		if err != nil {
			perrs.Errs = append(perrs.Errs, ParseError{Row: r + 1, Column: names[idCol], Value: cell(idCol)})
		}
		ids = append(ids, id)
		for k, j := range keep {
			v, err := parseFloat(cell(j))
			if err != nil {
				perrs.Errs = append(perrs.Errs, ParseError{Row: r + 1, Column: names[j], Value: cell(j)})
			}
			columns[k] = append(columns[k], v)
		}
	}
	if len(perrs.Errs) > 0 {
		return nil, &perrs
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: no data rows", ErrEmpty)
	}

	kept := make([]string, len(keep))
	for k, j := range keep {
		kept[k] = names[j]
	}

	return New(ids, kept, columns)
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}

	return true
}

// clean strips whitespace and thousands separators.
func clean(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, "_", "")

	return strings.ReplaceAll(s, " ", "")
}

func parseInt(s string) (int, error) {
	c := clean(s)
	if v, err := strconv.Atoi(c); err == nil {
		return v, nil
	}
	// Spreadsheet exports often render integer ids as "42.0".
	f, err := strconv.ParseFloat(c, 64)
	if err != nil || f != float64(int(f)) {
		return 0, fmt.Errorf("not an integer: %q", s)
	}

	return int(f), nil
}

func parseFloat(s string) (float64, error) {
	f, err := strconv.ParseFloat(clean(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not finite: %q", s)
	}

	return f, nil
}
