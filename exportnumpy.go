// Copyright (C) The Adex Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package adex

import (
	"bufio"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/kshedden/gonpy"
	log "github.com/sirupsen/logrus"
)

// ExportNumpy writes the gene columns of a preprocessed table to
// dir/matrix.npy (float64, one row per sample, nulls as NaN) with
// dir/samples.csv and dir/genes.csv naming the rows and columns, for
// consumption by downstream Python notebooks.
func ExportNumpy(t *Table, dir string) error {
	fixed := fixedColumns()
	var genes []string
	for _, col := range t.Columns() {
		if !fixed[col] {
			genes = append(genes, col)
		}
	}
	rows := t.Len()
	out := make([]float64, rows*len(genes))
	for j, gene := range genes {
		for i, cell := range t.Column(gene) {
			if v, ok := cell.(float64); ok {
				out[i*len(genes)+j] = v
			} else {
				out[i*len(genes)+j] = math.NaN()
			}
		}
	}

	f, err := os.OpenFile(filepath.Join(dir, "matrix.npy"), os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0777)
	if err != nil {
		return err
	}
	defer f.Close()
	bufw := bufio.NewWriter(f)
	npw, err := gonpy.NewWriter(nopCloser{bufw})
	if err != nil {
		return err
	}
	npw.Shape = []int{rows, len(genes)}
	log.Printf("writing numpy: %d rows, %d cols", rows, len(genes))
	if err = npw.WriteFloat64(out); err != nil {
		return err
	}
	if err = bufw.Flush(); err != nil {
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}

	samples := make([]string, rows)
	for i, cell := range t.Column(sampleColumn) {
		samples[i], _ = cell.(string)
	}
	if err = writeList(filepath.Join(dir, "samples.csv"), sampleColumn, samples); err != nil {
		return err
	}
	return writeList(filepath.Join(dir, "genes.csv"), geneColumn, genes)
}

func writeList(filename, header string, values []string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	w.Write([]string{header})
	for _, value := range values {
		w.Write([]string{value})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

type exportnumpycmd struct{}

func (cmd *exportnumpycmd) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var err error
	defer func() {
		if err != nil {
			fmt.Fprintf(stderr, "%s\n", err)
		}
	}()
	flags := flag.NewFlagSet("", flag.ContinueOnError)
	flags.SetOutput(stderr)
	inputFilename := flags.String("i", "", "preprocessed input `file` (parquet)")
	outputDir := flags.String("output-dir", ".", "output `directory`")
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
	err = ExportNumpy(table, *outputDir)
	if err != nil {
		return 1
	}
	fmt.Fprintln(stdout, filepath.Join(*outputDir, "matrix.npy"))
	return 0
}
