// Copyright (C) The Adex Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package adex

import (
	"fmt"
)

// Table is a small column-major dataframe: an ordered list of column
// names, and for each column one cell slice of equal length. A nil cell
// is a null. Transformations return new Tables; a Table is never
// modified after it is handed to another pipeline stage.
type Table struct {
	columns []string
	cells   map[string][]any
}

// Axis selects the direction of an operation that can apply to either
// rows or columns.
type Axis int

const (
	RowAxis Axis = iota
	ColumnAxis
)

func NewTable(columns ...string) *Table {
	t := &Table{
		columns: append([]string(nil), columns...),
		cells:   make(map[string][]any, len(columns)),
	}
	for _, col := range columns {
		t.cells[col] = nil
	}
	return t
}

// AppendRow adds one row. len(row) must equal the number of columns.
func (t *Table) AppendRow(row ...any) {
	if len(row) != len(t.columns) {
		panic(fmt.Sprintf("AppendRow: %d values for %d columns", len(row), len(t.columns)))
	}
	for i, col := range t.columns {
		t.cells[col] = append(t.cells[col], row[i])
	}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if len(t.columns) == 0 {
		return 0
	}
	return len(t.cells[t.columns[0]])
}

// Columns returns the column names in order. The caller must not modify
// the returned slice.
func (t *Table) Columns() []string {
	return t.columns
}

func (t *Table) HasColumn(name string) bool {
	_, ok := t.cells[name]
	return ok
}

// Column returns the cells of the named column, or nil if the column
// does not exist.
func (t *Table) Column(name string) []any {
	return t.cells[name]
}

// At returns the cell at the given row in the named column.
func (t *Table) At(row int, column string) any {
	return t.cells[column][row]
}

// Select returns a new table with the named columns in the given order.
func (t *Table) Select(columns ...string) (*Table, error) {
	out := NewTable(columns...)
	for _, col := range columns {
		cells, ok := t.cells[col]
		if !ok {
			return nil, fmt.Errorf("select: no such column %q", col)
		}
		out.cells[col] = append([]any(nil), cells...)
	}
	return out, nil
}

// Drop returns a new table without the named columns. Unknown names are
// ignored.
func (t *Table) Drop(columns ...string) *Table {
	dropping := map[string]bool{}
	for _, col := range columns {
		dropping[col] = true
	}
	var keep []string
	for _, col := range t.columns {
		if !dropping[col] {
			keep = append(keep, col)
		}
	}
	out, _ := t.Select(keep...)
	return out
}

// Filter returns a new table containing the rows for which keep returns
// true, in their original order.
func (t *Table) Filter(keep func(row int) bool) *Table {
	out := NewTable(t.columns...)
	for row := 0; row < t.Len(); row++ {
		if !keep(row) {
			continue
		}
		for _, col := range t.columns {
			out.cells[col] = append(out.cells[col], t.cells[col][row])
		}
	}
	return out
}

// TransposeWithHeader pivots the table: every column other than
// headerColumn becomes a row of a new first column named newKey, and
// every value of headerColumn becomes a column. Cell (r=colname, c=key)
// of the result is the original cell (row with that key, colname).
// headerColumn values must be strings and must be unique, since each
// becomes a column name.
func (t *Table) TransposeWithHeader(headerColumn, newKey string) (*Table, error) {
	keys := t.cells[headerColumn]
	if keys == nil {
		return nil, fmt.Errorf("transpose: no such column %q", headerColumn)
	}
	columns := []string{newKey}
	seen := map[string]bool{newKey: true}
	for _, key := range keys {
		name, ok := key.(string)
		if !ok {
			return nil, fmt.Errorf("transpose: %q value %v is not a string", headerColumn, key)
		}
		if seen[name] {
			return nil, dataErrorf("transpose: duplicate %q value %q", headerColumn, name)
		}
		seen[name] = true
		columns = append(columns, name)
	}
	out := NewTable(columns...)
	for _, col := range t.columns {
		if col == headerColumn {
			continue
		}
		row := []any{col}
		row = append(row, t.cells[col]...)
		out.AppendRow(row...)
	}
	return out, nil
}

// NullFraction returns the fraction of nil cells in the given row
// (axis=RowAxis, name ignored, columns in skip excluded) or in the named
// column (axis=ColumnAxis). An empty extent has null fraction 0.
func (t *Table) NullFraction(axis Axis, row int, column string, skip map[string]bool) float64 {
	nulls, total := 0, 0
	switch axis {
	case RowAxis:
		for _, col := range t.columns {
			if skip[col] {
				continue
			}
			total++
			if t.cells[col][row] == nil {
				nulls++
			}
		}
	case ColumnAxis:
		for _, cell := range t.cells[column] {
			total++
			if cell == nil {
				nulls++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(nulls) / float64(total)
}

// DropSparse filters out the rows (axis=RowAxis) or columns
// (axis=ColumnAxis) whose null fraction exceeds maxNullFraction. For
// rows, columns in skip are excluded from the fraction; for columns,
// skip names columns that are kept regardless.
func (t *Table) DropSparse(axis Axis, maxNullFraction float64, skip map[string]bool) *Table {
	if axis == RowAxis {
		return t.Filter(func(row int) bool {
			return t.NullFraction(RowAxis, row, "", skip) <= maxNullFraction
		})
	}
	var keep []string
	for _, col := range t.columns {
		if skip[col] || t.NullFraction(ColumnAxis, 0, col, nil) <= maxNullFraction {
			keep = append(keep, col)
		}
	}
	out, _ := t.Select(keep...)
	return out
}
