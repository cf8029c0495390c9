package dataset

import (
	"fmt"
	"math"

	"gocausal/domain/core"
)

// Frame is the canonical tabular input to every experiment: an ordered
// sequence of observations indexed by a sortable float64 key (plain row
// order, or time encoded as epoch seconds), with named float64 columns.
// Categorical variables are stored as numeric level codes.
type Frame struct {
	index   []float64
	names   []string
	columns map[string][]float64
}

// New builds a frame from an index and named columns. Column order follows
// names. Every column must match the index length and the index must be
// free of NaNs.
func New(index []float64, names []string, columns map[string][]float64) (*Frame, error) {
	if len(index) == 0 {
		return nil, core.NewDataValidationError("index", "frame has no observations")
	}
	for i, v := range index {
		if math.IsNaN(v) {
			return nil, core.NewDataValidationError("index",
				fmt.Sprintf("NaN at position %d", i))
		}
	}
	if len(names) != len(columns) {
		return nil, core.NewDataValidationError("columns",
			fmt.Sprintf("%d names for %d columns", len(names), len(columns)))
	}
	for _, name := range names {
		col, ok := columns[name]
		if !ok {
			return nil, core.NewColumnError(name)
		}
		if len(col) != len(index) {
			return nil, core.NewDataValidationError(name,
				fmt.Sprintf("column has %d rows, index has %d", len(col), len(index)))
		}
	}
	f := &Frame{
		index:   append([]float64(nil), index...),
		names:   append([]string(nil), names...),
		columns: make(map[string][]float64, len(columns)),
	}
	for _, name := range names {
		f.columns[name] = append([]float64(nil), columns[name]...)
	}
	return f, nil
}

// NewRowOrdered builds a frame indexed by row position (0..n-1).
func NewRowOrdered(names []string, columns map[string][]float64) (*Frame, error) {
	n := 0
	for _, col := range columns {
		n = len(col)
		break
	}
	index := make([]float64, n)
	for i := range index {
		index[i] = float64(i)
	}
	return New(index, names, columns)
}

// Len returns the number of observations.
func (f *Frame) Len() int { return len(f.index) }

// Index returns a copy of the index values.
func (f *Frame) Index() []float64 {
	return append([]float64(nil), f.index...)
}

// IndexAt returns the index value at row i.
func (f *Frame) IndexAt(i int) float64 { return f.index[i] }

// ColumnNames returns the column names in declaration order.
func (f *Frame) ColumnNames() []string {
	return append([]string(nil), f.names...)
}

// HasColumn reports whether the frame holds the named column.
func (f *Frame) HasColumn(name string) bool {
	_, ok := f.columns[name]
	return ok
}

// Column returns a copy of the named column's values.
func (f *Frame) Column(name string) ([]float64, error) {
	col, ok := f.columns[name]
	if !ok {
		return nil, core.NewColumnError(name)
	}
	return append([]float64(nil), col...), nil
}

// ColumnRange returns the min and max of the named column.
func (f *Frame) ColumnRange(name string) (lo, hi float64, err error) {
	col, ok := f.columns[name]
	if !ok {
		return 0, 0, core.NewColumnError(name)
	}
	lo, hi = col[0], col[0]
	for _, v := range col {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi, nil
}

// DistinctValues returns the set of distinct values in the named column.
func (f *Frame) DistinctValues(name string) (map[float64]struct{}, error) {
	col, ok := f.columns[name]
	if !ok {
		return nil, core.NewColumnError(name)
	}
	distinct := make(map[float64]struct{})
	for _, v := range col {
		distinct[v] = struct{}{}
	}
	return distinct, nil
}

// SplitAt partitions the frame at the given index boundary: rows with
// index < t go to pre, rows with index >= t go to post. Row order is
// preserved and no row is duplicated or dropped.
func (f *Frame) SplitAt(t float64) (pre, post *Frame) {
	var preRows, postRows []int
	for i, v := range f.index {
		if v < t {
			preRows = append(preRows, i)
		} else {
			postRows = append(postRows, i)
		}
	}
	return f.selectRows(preRows), f.selectRows(postRows)
}

// selectRows builds a sub-frame from the given row positions. An empty
// selection yields an empty frame (callers validate emptiness).
func (f *Frame) selectRows(rows []int) *Frame {
	sub := &Frame{
		index:   make([]float64, len(rows)),
		names:   append([]string(nil), f.names...),
		columns: make(map[string][]float64, len(f.names)),
	}
	for _, name := range f.names {
		sub.columns[name] = make([]float64, len(rows))
	}
	for j, i := range rows {
		sub.index[j] = f.index[i]
		for _, name := range f.names {
			sub.columns[name][j] = f.columns[name][i]
		}
	}
	return sub
}
