// Package frame is an immutable, in-memory columnar table.
// Filtering and grouping produce index views into the parent; no cell is copied.
package frame

import (
	"context"
	"fmt"
	"sort"

	"autodash/domain/dashboard"
	"autodash/domain/dataset"
)

// Frame is an immutable columnar table
type Frame struct {
	columns []dataset.Column
	data    map[string][]dataset.Value
	index   []int // nil means every row of data, in order
	rows    int
}

// New builds a frame from column descriptors and row-major values.
// Short rows are padded with nulls.
func New(columns []dataset.Column, rows [][]dataset.Value) (*Frame, error) {
	f := &Frame{
		columns: append([]dataset.Column(nil), columns...),
		data:    make(map[string][]dataset.Value, len(columns)),
		rows:    len(rows),
	}
	for i, c := range columns {
		if _, dup := f.data[c.Name]; dup {
			return nil, fmt.Errorf("duplicate column %q", c.Name)
		}
		col := make([]dataset.Value, len(rows))
		for r, row := range rows {
			if i < len(row) {
				col[r] = row[i]
			}
		}
		f.data[c.Name] = col
	}
	return f, nil
}

// Columns implements ports.DatasetPort
func (f *Frame) Columns(ctx context.Context) ([]dataset.Column, error) {
	return append([]dataset.Column(nil), f.columns...), nil
}

// Distinct implements ports.DatasetPort
func (f *Frame) Distinct(ctx context.Context, column string) ([]dataset.Value, error) {
	if _, ok := f.data[column]; !ok {
		return nil, fmt.Errorf("column %q not found", column)
	}
	seen := make(map[string]bool)
	var out []dataset.Value
	for i := 0; i < f.Len(); i++ {
		v := f.Value(i, column)
		if v.IsNull() {
			continue
		}
		k := v.Key()
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, v)
	}
	return out, nil
}

// HasColumn reports whether the frame has a column named name
func (f *Frame) HasColumn(name string) bool {
	_, ok := f.data[name]
	return ok
}

// ColumnType returns the semantic type of a column
func (f *Frame) ColumnType(name string) dataset.ColumnType {
	for _, c := range f.columns {
		if c.Name == name {
			return c.Type
		}
	}
	return dataset.ColumnOther
}

// Len returns the number of visible rows
func (f *Frame) Len() int {
	if f.index != nil {
		return len(f.index)
	}
	return f.rows
}

// Width returns the number of columns
func (f *Frame) Width() int { return len(f.columns) }

// Value returns the cell at visible row i of column name
func (f *Frame) Value(i int, name string) dataset.Value {
	col, ok := f.data[name]
	if !ok || i < 0 || i >= f.Len() {
		return dataset.Null()
	}
	if f.index != nil {
		return col[f.index[i]]
	}
	return col[i]
}

// Row returns visible row i in column order
func (f *Frame) Row(i int) []dataset.Value {
	out := make([]dataset.Value, len(f.columns))
	for j, c := range f.columns {
		out[j] = f.Value(i, c.Name)
	}
	return out
}

// view returns a sub-frame over the given visible-row positions
func (f *Frame) view(positions []int) *Frame {
	idx := make([]int, len(positions))
	for i, p := range positions {
		if f.index != nil {
			idx[i] = f.index[p]
		} else {
			idx[i] = p
		}
	}
	return &Frame{columns: f.columns, data: f.data, index: idx, rows: f.rows}
}

// Filter keeps rows matching every bound field of the snapshot.
// Fields are AND-combined, values within a field OR-combined; a field set to
// the sentinel (or left empty) does not filter. Unknown fields are ignored.
func (f *Frame) Filter(s dashboard.BindingSnapshot) *Frame {
	type constraint struct {
		column string
		keys   map[string]bool
	}
	var cons []constraint
	for _, name := range s.Names() {
		vals, all := s.Selected(name)
		if all || !f.HasColumn(name) {
			continue
		}
		keys := make(map[string]bool, len(vals))
		for _, v := range vals {
			keys[v.Key()] = true
		}
		cons = append(cons, constraint{column: name, keys: keys})
	}
	if len(cons) == 0 {
		return f
	}

	positions := make([]int, 0, f.Len())
	for i := 0; i < f.Len(); i++ {
		pass := true
		for _, c := range cons {
			if !c.keys[f.Value(i, c.column).Key()] {
				pass = false
				break
			}
		}
		if pass {
			positions = append(positions, i)
		}
	}
	return f.view(positions)
}

// Numbers returns the non-null numeric values of a column
func (f *Frame) Numbers(name string) []float64 {
	out := make([]float64, 0, f.Len())
	for i := 0; i < f.Len(); i++ {
		if n, ok := f.Value(i, name).Number(); ok {
			out = append(out, n)
		}
	}
	return out
}

// Group is the set of rows sharing one value of the grouping column
type Group struct {
	Key   dataset.Value
	Frame *Frame
}

// GroupBy partitions rows by the value of column, sorted by natural order.
// Null keys form their own trailing group.
func (f *Frame) GroupBy(column string) ([]Group, error) {
	if !f.HasColumn(column) {
		return nil, fmt.Errorf("column %q not found", column)
	}
	positions := make(map[string][]int)
	keys := make(map[string]dataset.Value)
	var order []string
	for i := 0; i < f.Len(); i++ {
		v := f.Value(i, column)
		k := v.Key()
		if _, ok := positions[k]; !ok {
			order = append(order, k)
			keys[k] = v
		}
		positions[k] = append(positions[k], i)
	}
	groups := make([]Group, 0, len(order))
	for _, k := range order {
		groups = append(groups, Group{Key: keys[k], Frame: f.view(positions[k])})
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Key.Compare(groups[j].Key) < 0
	})
	return groups, nil
}
