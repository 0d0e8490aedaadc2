// Copyright (C) The Adex Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package adex

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"sort"

	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// GeneAssociation is one gene's differential-expression test result.
type GeneAssociation struct {
	Gene   string
	PValue float64
}

// GeneAssociations runs a Welch two-sample t-test on every gene column
// of a preprocessed table, comparing the rows whose groupColumn equals
// caseValue against the rest, and returns the genes sorted by
// ascending p-value. Null cells are ignored; a gene with fewer than
// two non-null observations in either group gets p=1.
func GeneAssociations(t *Table, groupColumn, caseValue string) ([]GeneAssociation, error) {
	if !t.HasColumn(groupColumn) {
		return nil, dataErrorf("assoc: no such column %q", groupColumn)
	}
	isCase := make([]bool, t.Len())
	for row := 0; row < t.Len(); row++ {
		isCase[row] = t.At(row, groupColumn) == caseValue
	}
	fixed := fixedColumns()
	var out []GeneAssociation
	for _, col := range t.Columns() {
		if fixed[col] || col == groupColumn {
			continue
		}
		var cases, controls []float64
		for row, cell := range t.Column(col) {
			v, ok := cell.(float64)
			if !ok {
				continue
			}
			if isCase[row] {
				cases = append(cases, v)
			} else {
				controls = append(controls, v)
			}
		}
		out = append(out, GeneAssociation{Gene: col, PValue: welchPvalue(cases, controls)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].PValue < out[j].PValue })
	return out, nil
}

// welchPvalue is the two-sided Welch t-test p-value for a difference
// in means between two samples of unequal variance.
func welchPvalue(a, b []float64) float64 {
	if len(a) < 2 || len(b) < 2 {
		return 1
	}
	meanA, varA := stat.MeanVariance(a, nil)
	meanB, varB := stat.MeanVariance(b, nil)
	na, nb := float64(len(a)), float64(len(b))
	se2 := varA/na + varB/nb
	if se2 == 0 {
		return 1
	}
	t := (meanA - meanB) / math.Sqrt(se2)
	// Welch-Satterthwaite degrees of freedom
	nu := se2 * se2 / (varA*varA/(na*na*(na-1)) + varB*varB/(nb*nb*(nb-1)))
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: nu}
	return 2 * dist.Survival(math.Abs(t))
}

type assoccmd struct{}

func (cmd *assoccmd) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var err error
	defer func() {
		if err != nil {
			fmt.Fprintf(stderr, "%s\n", err)
		}
	}()
	flags := flag.NewFlagSet("", flag.ContinueOnError)
	flags.SetOutput(stderr)
	inputFilename := flags.String("i", "", "preprocessed input `file` (parquet)")
	outputFilename := flags.String("o", "assoc.csv", "output `file` (csv: gene,p-value)")
	groupColumn := flags.String("group-column", "Condition", "categorical `column` that splits cases from controls")
	caseValue := flags.String("case", "", "group column `value` that marks a case sample")
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
	log.Printf("testing %d columns over %d samples", len(table.Columns()), table.Len())
	assocs, err := GeneAssociations(table, *groupColumn, *caseValue)
	if err != nil {
		return 1
	}
	f, err := os.Create(*outputFilename)
	if err != nil {
		return 1
	}
	defer f.Close()
	w := csv.NewWriter(f)
	w.Write([]string{"gene", "p_value"})
	for _, assoc := range assocs {
		w.Write([]string{assoc.Gene, fmt.Sprintf("%g", assoc.PValue)})
	}
	w.Flush()
	if err = w.Error(); err != nil {
		return 1
	}
	if err = f.Close(); err != nil {
		return 1
	}
	fmt.Fprintln(stdout, *outputFilename)
	return 0
}
