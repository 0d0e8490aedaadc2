// Copyright (C) The Adex Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package adex

// geneColumn is the key column of every raw expression table: one row
// per gene, one column per sample.
const geneColumn = "gene"

// nullPercentageColumn is the scratch column HighFrequencyGenesTable
// uses to hold each row's null fraction.
const nullPercentageColumn = "Null-Percentage"

// GeneIntersection returns the set of gene identifiers present in every
// table's gene column. An empty table list yields an empty set.
func GeneIntersection(tables []*Table) map[string]bool {
	common := map[string]bool{}
	for i, t := range tables {
		seen := map[string]bool{}
		for _, cell := range t.Column(geneColumn) {
			if gene, ok := cell.(string); ok {
				seen[gene] = true
			}
		}
		if i == 0 {
			common = seen
			continue
		}
		for gene := range common {
			if !seen[gene] {
				delete(common, gene)
			}
		}
	}
	return common
}

// CommonGenesTable inner-joins all tables on the gene column, keeping
// only the genes every table has. tables must be non-empty.
func CommonGenesTable(tables []*Table) (*Table, error) {
	if len(tables) == 0 {
		return nil, dataErrorf("no tables to join")
	}
	return joinAll(tables, func(left, right *Table) *Table {
		return innerJoin(left, right, geneColumn, geneColumn)
	}), nil
}

// HighFrequencyGenesTable outer-joins all tables on the gene column and
// keeps only the rows (genes) whose fraction of null sample cells is at
// most allowedNullPercentage. The computed Null-Percentage column is
// dropped unless the caller keeps it for inspection.
func HighFrequencyGenesTable(tables []*Table, allowedNullPercentage float64, dropFrequenciesColumn bool) (*Table, error) {
	if len(tables) == 0 {
		return nil, dataErrorf("no tables to join")
	}
	joined := joinAll(tables, func(left, right *Table) *Table {
		return outerJoinCoalesce(left, right, geneColumn)
	})
	skip := map[string]bool{geneColumn: true}
	out := NewTable(append(append([]string(nil), joined.Columns()...), nullPercentageColumn)...)
	for row := 0; row < joined.Len(); row++ {
		frac := joined.NullFraction(RowAxis, row, "", skip)
		if frac > allowedNullPercentage {
			continue
		}
		vals := make([]any, 0, len(joined.Columns())+1)
		for _, col := range joined.Columns() {
			vals = append(vals, joined.At(row, col))
		}
		out.AppendRow(append(vals, frac)...)
	}
	if dropFrequenciesColumn {
		out = out.Drop(nullPercentageColumn)
	}
	return out, nil
}
