// Copyright (C) The Adex Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package adex

// Pairwise table joins on a single key column. Only the two join shapes
// the pipeline needs are implemented: a plain inner join, and a full
// outer join that coalesces columns the two sides share. Joining a list
// of tables is a left-to-right reduction over one of these.

// rowIndex maps each key value to the rows that carry it, preserving
// row order within a key.
func rowIndex(t *Table, key string) map[any][]int {
	idx := make(map[any][]int, t.Len())
	for row, cell := range t.Column(key) {
		idx[cell] = append(idx[cell], row)
	}
	return idx
}

// innerJoin joins left and right on leftKey == rightKey. The right key
// column is dropped from the output; a right column whose name collides
// with a left column is renamed with a _right suffix.
func innerJoin(left, right *Table, leftKey, rightKey string) *Table {
	var rightCols []string     // right columns that survive, original names
	var rightOutNames []string // their names in the output
	for _, col := range right.Columns() {
		if col == rightKey {
			continue
		}
		rightCols = append(rightCols, col)
		if left.HasColumn(col) {
			rightOutNames = append(rightOutNames, col+"_right")
		} else {
			rightOutNames = append(rightOutNames, col)
		}
	}
	out := NewTable(append(append([]string(nil), left.Columns()...), rightOutNames...)...)
	rightIdx := rowIndex(right, rightKey)
	for lrow := 0; lrow < left.Len(); lrow++ {
		for _, rrow := range rightIdx[left.At(lrow, leftKey)] {
			row := make([]any, 0, len(out.Columns()))
			for _, col := range left.Columns() {
				row = append(row, left.At(lrow, col))
			}
			for _, col := range rightCols {
				row = append(row, right.At(rrow, col))
			}
			out.AppendRow(row...)
		}
	}
	return out
}

// outerJoinCoalesce full-outer-joins left and right on key. Non-key
// columns present on both sides are coalesced into one output column,
// preferring the left value and falling back to the right one when the
// left is null. Left rows come first in left order, then right rows
// that matched nothing.
func outerJoinCoalesce(left, right *Table, key string) *Table {
	columns := append([]string(nil), left.Columns()...)
	for _, col := range right.Columns() {
		if col != key && !left.HasColumn(col) {
			columns = append(columns, col)
		}
	}
	out := NewTable(columns...)
	rightIdx := rowIndex(right, key)
	matched := make([]bool, right.Len())
	for lrow := 0; lrow < left.Len(); lrow++ {
		rrows := rightIdx[left.At(lrow, key)]
		if len(rrows) == 0 {
			rrows = []int{-1} // no match, right side all null
		}
		for _, rrow := range rrows {
			if rrow >= 0 {
				matched[rrow] = true
			}
			row := make([]any, 0, len(columns))
			for _, col := range columns {
				var cell any
				if left.HasColumn(col) {
					cell = left.At(lrow, col)
				}
				if cell == nil && rrow >= 0 && right.HasColumn(col) {
					cell = right.At(rrow, col)
				}
				row = append(row, cell)
			}
			out.AppendRow(row...)
		}
	}
	for rrow := 0; rrow < right.Len(); rrow++ {
		if matched[rrow] {
			continue
		}
		row := make([]any, 0, len(columns))
		for _, col := range columns {
			var cell any
			if right.HasColumn(col) {
				cell = right.At(rrow, col)
			}
			row = append(row, cell)
		}
		out.AppendRow(row...)
	}
	return out
}

// joinAll reduces tables pairwise left to right. tables must be
// non-empty.
func joinAll(tables []*Table, join func(left, right *Table) *Table) *Table {
	out := tables[0]
	for _, t := range tables[1:] {
		out = join(out, t)
	}
	return out
}
