// Copyright (C) The Adex Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package adex

import (
	"flag"
	"fmt"
	"io"

	"github.com/james-bowman/nlp"
	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"
)

// PCATable projects the gene columns of a preprocessed table onto
// their first `components` principal components. The result has the
// Sample column, PC1..PCn, and whatever reserved metadata columns the
// input carried, so it can be handed straight to Plot2D. Remaining
// null expression cells are treated as zero.
func PCATable(t *Table, components int) (*Table, error) {
	fixed := fixedColumns()
	var genes []string
	for _, col := range t.Columns() {
		if !fixed[col] {
			genes = append(genes, col)
		}
	}
	if len(genes) == 0 {
		return nil, dataErrorf("pca: table has no gene columns")
	}
	samples := t.Len()
	if samples == 0 {
		return nil, dataErrorf("pca: table has no rows")
	}

	data := make([]float64, samples*len(genes))
	for j, gene := range genes {
		for i, cell := range t.Column(gene) {
			if v, ok := cell.(float64); ok {
				data[i*len(genes)+j] = v
			}
		}
	}
	// nlp wants one column per data point
	mtx := mat.NewDense(samples, len(genes), data).T()

	log.Printf("pca: fitting %d samples, %d genes, %d components", samples, len(genes), components)
	transformer := nlp.NewPCA(components)
	transformer.Fit(mtx)
	projected, err := transformer.Transform(mtx)
	if err != nil {
		return nil, err
	}
	projected = projected.T()

	columns := []string{sampleColumn}
	for pc := 0; pc < components; pc++ {
		columns = append(columns, fmt.Sprintf("PC%d", pc+1))
	}
	var kept []string
	for _, col := range t.Columns() {
		if fixed[col] && col != sampleColumn {
			kept = append(kept, col)
		}
	}
	out := NewTable(append(columns, kept...)...)
	for row := 0; row < samples; row++ {
		cells := []any{t.At(row, sampleColumn)}
		for pc := 0; pc < components; pc++ {
			cells = append(cells, projected.At(row, pc))
		}
		for _, col := range kept {
			cells = append(cells, t.At(row, col))
		}
		out.AppendRow(cells...)
	}
	return out, nil
}

type pcacmd struct{}

func (cmd *pcacmd) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var err error
	defer func() {
		if err != nil {
			fmt.Fprintf(stderr, "%s\n", err)
		}
	}()
	flags := flag.NewFlagSet("", flag.ContinueOnError)
	flags.SetOutput(stderr)
	inputFilename := flags.String("i", "", "preprocessed input `file` (parquet)")
	outputFilename := flags.String("o", "pca.parquet", "output `file`")
	components := flags.Int("components", 4, "number of components")
	err = flags.Parse(args)
	if err == flag.ErrHelp {
		err = nil
		return 0
	} else if err != nil {
		return 2
	}

	table, err := ReadParquetTable(*inputFilename)
	if err != nil {
		return 1
	}
	projected, err := PCATable(table, *components)
	if err != nil {
		return 1
	}
	err = WriteParquetTable(*outputFilename, projected)
	if err != nil {
		return 1
	}
	fmt.Fprintln(stdout, *outputFilename)
	return 0
}
