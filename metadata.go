// Copyright (C) The Adex Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package adex

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/klauspost/pgzip"
)

// sampleColumn is the key of the transposed expression table and of the
// sample metadata file.
const sampleColumn = "Sample"

// MetadataColumns are the descriptive columns the sample metadata file
// contributes to a preprocessed table, Sample excluded. They are
// reserved: gene selection skips them and Preprocess can strip them.
var MetadataColumns = []string{"GSE", "Condition", "Tissue", "Method"}

// DatasetInfoColumns are the descriptive columns the datasets-info file
// contributes, keyed by its Dataset column (joined against GSE).
var DatasetInfoColumns = []string{"Platform", "Technology"}

// fixedColumns returns the reserved column set: Sample plus every
// metadata and dataset-info column.
func fixedColumns() map[string]bool {
	fixed := map[string]bool{sampleColumn: true}
	for _, col := range MetadataColumns {
		fixed[col] = true
	}
	for _, col := range DatasetInfoColumns {
		fixed[col] = true
	}
	return fixed
}

type sampleMetadata struct {
	Sample    string `csv:"Sample"`
	GSE       string `csv:"GSE"`
	Condition string `csv:"Condition"`
	Tissue    string `csv:"Tissue"`
	Method    string `csv:"Method"`
}

type datasetInfo struct {
	Dataset    string `csv:"Dataset"`
	Platform   string `csv:"Platform"`
	Technology string `csv:"Technology"`
}

// openMaybeGzip opens a file, transparently decompressing it when the
// name ends in .gz.
func openMaybeGzip(filename string) (io.ReadCloser, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(filename, ".gz") {
		return f, nil
	}
	zr, err := pgzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("gzip %q: %w", filename, err)
	}
	return struct {
		io.Reader
		io.Closer
	}{zr, f}, nil
}

// LoadMetadata reads the sample metadata CSV into a Table keyed by
// Sample. Duplicate Sample rows are collapsed, keeping the first; a
// later metadata join must see at most one row per sample or it would
// multiply sample rows.
func LoadMetadata(metadataPath string) (*Table, error) {
	r, err := openMaybeGzip(metadataPath)
	if err != nil {
		return nil, fmt.Errorf("open metadata: %w", err)
	}
	defer r.Close()
	var records []sampleMetadata
	if err := gocsv.Unmarshal(r, &records); err != nil {
		return nil, fmt.Errorf("parse metadata %q: %w", metadataPath, err)
	}
	out := NewTable(append([]string{sampleColumn}, MetadataColumns...)...)
	seen := map[string]bool{}
	for _, rec := range records {
		if seen[rec.Sample] {
			continue
		}
		seen[rec.Sample] = true
		out.AppendRow(rec.Sample, rec.GSE, rec.Condition, rec.Tissue, rec.Method)
	}
	return out, nil
}

// LoadDatasetsInfo reads the per-dataset descriptor CSV into a Table
// keyed by Dataset.
func LoadDatasetsInfo(datasetsInfoPath string) (*Table, error) {
	r, err := openMaybeGzip(datasetsInfoPath)
	if err != nil {
		return nil, fmt.Errorf("open datasets info: %w", err)
	}
	defer r.Close()
	var records []datasetInfo
	if err := gocsv.Unmarshal(r, &records); err != nil {
		return nil, fmt.Errorf("parse datasets info %q: %w", datasetsInfoPath, err)
	}
	out := NewTable(append([]string{"Dataset"}, DatasetInfoColumns...)...)
	for _, rec := range records {
		out.AppendRow(rec.Dataset, rec.Platform, rec.Technology)
	}
	return out, nil
}
