// Copyright (C) The Adex Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package adex

import (
	"flag"
	"fmt"
	"io"
	"net/http"
	_ "net/http/pprof"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Preprocess loads the raw expression files the selector names and
// returns one sample-per-row table enriched with sample metadata and
// dataset descriptors:
//
//  1. load the per-sample gene tables (selector load strategy),
//  2. outer-join them on gene, coalescing shared columns,
//  3. transpose so samples become rows and genes become columns,
//  4. cast every gene column to float64,
//  5. inner-join with the de-duplicated metadata on Sample, then with
//     the datasets info on GSE=Dataset,
//  6. apply the selector's tissue/method/gene/sample filters,
//  7. drop columns whose null fraction exceeds allowedNullPercentage.
//
// A selector that matches no samples yields (nil, nil): no data is not
// a failure. With returnMetadata false the reserved metadata and
// dataset-info columns are stripped from the result.
func Preprocess(
	sel Selector,
	dataPath, metadataPath, datasetsInfoPath string,
	allowedNullPercentage float64,
	returnMetadata bool,
) (*Table, error) {
	tables, err := loadTables(sel, dataPath)
	if err != nil {
		return nil, err
	}
	joined := joinAll(tables, func(left, right *Table) *Table {
		return outerJoinCoalesce(left, right, geneColumn)
	})
	log.Printf("joined %d tables: %d genes, %d columns", len(tables), joined.Len(), len(joined.Columns()))

	transposed, err := joined.TransposeWithHeader(geneColumn, sampleColumn)
	if err != nil {
		return nil, err
	}
	transposed, err = castNumeric(transposed, sampleColumn)
	if err != nil {
		return nil, err
	}

	metadata, err := LoadMetadata(metadataPath)
	if err != nil {
		return nil, err
	}
	datasetsInfo, err := LoadDatasetsInfo(datasetsInfoPath)
	if err != nil {
		return nil, err
	}
	enriched := innerJoin(transposed, metadata, sampleColumn, sampleColumn)
	enriched = innerJoin(enriched, datasetsInfo, "GSE", "Dataset")
	log.Printf("metadata joined: %d samples", enriched.Len())

	filtered, err := applySelectorFilter(sel, enriched)
	if err != nil {
		return nil, err
	}
	if filtered.Len() == 0 {
		return nil, nil
	}

	filtered = filtered.DropSparse(ColumnAxis, allowedNullPercentage, map[string]bool{sampleColumn: true})
	if returnMetadata {
		return filtered, nil
	}
	return filtered.Drop(MetadataColumns...).Drop(DatasetInfoColumns...), nil
}

// castNumeric casts every column except keyColumn to float64. A cell
// that cannot be read as a number is a data error: expression values
// are never silently replaced with a sentinel.
func castNumeric(t *Table, keyColumn string) (*Table, error) {
	out := NewTable(t.Columns()...)
	for _, col := range t.Columns() {
		cells := t.Column(col)
		if col == keyColumn {
			out.cells[col] = append([]any(nil), cells...)
			continue
		}
		cast := make([]any, len(cells))
		for i, cell := range cells {
			switch v := cell.(type) {
			case nil:
				// stays null
			case float64:
				cast[i] = v
			case float32:
				cast[i] = float64(v)
			case int64:
				cast[i] = float64(v)
			case int:
				cast[i] = float64(v)
			case string:
				f, err := strconv.ParseFloat(v, 64)
				if err != nil {
					return nil, &DataError{Message: fmt.Sprintf("column %q row %d", col, i), Err: err}
				}
				cast[i] = f
			default:
				return nil, dataErrorf("column %q row %d: cannot cast %T to float64", col, i, cell)
			}
		}
		out.cells[col] = cast
	}
	return out, nil
}

// applySelectorFilter applies the selector's post-join filters to the
// metadata-enriched table.
func applySelectorFilter(sel Selector, t *Table) (*Table, error) {
	switch sel := sel.(type) {
	case ConditionSelector:
		return t, nil
	case ConditionTissueSelector:
		return filterEquals(t, "Tissue", sel.Tissue), nil
	case ConditionMethodSelector:
		return filterEquals(t, "Method", sel.Method), nil
	case ConditionMethodTissueSelector:
		out := filterEquals(filterEquals(t, "Tissue", sel.Tissue), "Method", sel.Method)
		if sel.Genes != nil {
			return selectGenes(out, sel.Genes)
		}
		return out, nil
	case FileSelector:
		out := t
		if sel.Genes != nil {
			var err error
			out, err = selectGenes(out, sel.Genes)
			if err != nil {
				return nil, err
			}
		}
		if sel.Samples != nil {
			out = selectSamples(out, sel.Samples)
		}
		return out, nil
	default:
		return nil, configErrorf("selector %T not handled in filtering", sel)
	}
}

func filterEquals(t *Table, column string, value string) *Table {
	return t.Filter(func(row int) bool {
		return t.At(row, column) == value
	})
}

// selectGenes keeps Sample, the reserved columns that exist, and the
// requested genes that exist, in that order. Requested genes the table
// does not have are silently skipped.
func selectGenes(t *Table, genes []string) (*Table, error) {
	columns := []string{sampleColumn}
	for _, col := range append(append([]string(nil), MetadataColumns...), DatasetInfoColumns...) {
		if t.HasColumn(col) {
			columns = append(columns, col)
		}
	}
	fixed := fixedColumns()
	for _, gene := range genes {
		if t.HasColumn(gene) && !fixed[gene] {
			columns = append(columns, gene)
		}
	}
	return t.Select(columns...)
}

// selectSamples keeps only the rows whose Sample is in the allow-list.
// Requested samples that do not exist are silently dropped.
func selectSamples(t *Table, samples []string) *Table {
	wanted := map[string]bool{}
	for _, sample := range samples {
		wanted[sample] = true
	}
	return t.Filter(func(row int) bool {
		sample, _ := t.At(row, sampleColumn).(string)
		return wanted[sample]
	})
}

type preprocesscmd struct{}

// selectorFlags builds a Selector from the shared command-line flags.
type selectorFlags struct {
	condition string
	tissue    string
	method    string
	file      string
	genes     string
	samples   string
}

func (f *selectorFlags) Flags(flags *flag.FlagSet) {
	flags.StringVar(&f.condition, "condition", "", "condition `name` (data subdirectory)")
	flags.StringVar(&f.tissue, "tissue", "", "keep only samples of `tissue`")
	flags.StringVar(&f.method, "method", "", "keep only samples sequenced with `method`")
	flags.StringVar(&f.file, "file", "", "load a single `file` instead of the whole condition directory")
	flags.StringVar(&f.genes, "genes", "", "comma-separated gene allow-`list`")
	flags.StringVar(&f.samples, "samples", "", "comma-separated sample allow-`list` (single-file mode only)")
}

func (f *selectorFlags) Selector() (Selector, error) {
	if f.condition == "" {
		return nil, configErrorf("-condition is required")
	}
	condition := Condition(f.condition)
	genes := splitList(f.genes)
	samples := splitList(f.samples)
	switch {
	case f.file != "":
		return FileSelector{Condition: condition, FileName: f.file, Genes: genes, Samples: samples}, nil
	case f.method != "" && f.tissue != "":
		return ConditionMethodTissueSelector{Condition: condition, Method: f.method, Tissue: f.tissue, Genes: genes}, nil
	case f.method != "":
		return ConditionMethodSelector{Condition: condition, Method: f.method}, nil
	case f.tissue != "":
		return ConditionTissueSelector{Condition: condition, Tissue: f.tissue}, nil
	default:
		return ConditionSelector{Condition: condition}, nil
	}
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

func (cmd *preprocesscmd) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var err error
	defer func() {
		if err != nil {
			fmt.Fprintf(stderr, "%s\n", err)
		}
	}()
	flags := flag.NewFlagSet("", flag.ContinueOnError)
	flags.SetOutput(stderr)
	pprof := flags.String("pprof", "", "serve Go profile data at http://`[addr]:port`")
	dataPath := flags.String("data", "data", "`directory` containing per-condition sample files")
	metadataPath := flags.String("metadata", "metadata.csv", "sample metadata `file`")
	datasetsInfoPath := flags.String("datasets-info", "datasets_info.csv", "datasets info `file`")
	allowedNullPercentage := flags.Float64("allowed-null-percentage", 0.2, "drop genes with a null fraction above `P` (between 0 and 1)")
	returnMetadata := flags.Bool("return-metadata", true, "keep metadata columns in the output")
	outputFilename := flags.String("o", "preprocessed.parquet", "output `file`")
	var selflags selectorFlags
	selflags.Flags(flags)
	err = flags.Parse(args)
	if err == flag.ErrHelp {
		err = nil
		return 0
	} else if err != nil {
		return 2
	}

	if *pprof != "" {
		go func() {
			log.Println(http.ListenAndServe(*pprof, nil))
		}()
	}

	sel, err := selflags.Selector()
	if err != nil {
		return 2
	}
	table, err := Preprocess(sel, *dataPath, *metadataPath, *datasetsInfoPath, *allowedNullPercentage, *returnMetadata)
	if err != nil {
		return 1
	}
	if table == nil {
		log.Warn("no samples matched the selector, nothing to write")
		return 0
	}
	log.Printf("writing %d samples, %d columns", table.Len(), len(table.Columns()))
	err = WriteParquetTable(*outputFilename, table)
	if err != nil {
		return 1
	}
	fmt.Fprintln(stdout, *outputFilename)
	return 0
}
