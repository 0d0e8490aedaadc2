// Copyright (C) The Adex Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package adex

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/check.v1"
)

type preprocessSuite struct{}

var _ = check.Suite(&preprocessSuite{})

// writeFixtures builds a small two-dataset layout for condition SLE:
// GSE1 carries samples S1 (SLE, Blood) and S2 (Healthy, Blood) with
// genes A,B,C; GSE2 carries S3 (SLE, Synovium) with genes B,C,D.
func writeFixtures(c *check.C) (dataPath, metadataPath, datasetsInfoPath string) {
	dir := c.MkDir()
	dataPath = filepath.Join(dir, "data")
	c.Assert(os.MkdirAll(filepath.Join(dataPath, "SLE"), 0777), check.IsNil)

	gse1 := NewTable("gene", "S1", "S2")
	gse1.AppendRow("A", 1.0, 2.0)
	gse1.AppendRow("B", 3.0, 4.0)
	gse1.AppendRow("C", 5.0, 6.0)
	c.Assert(WriteParquetTable(filepath.Join(dataPath, "SLE", "GSE1.parquet"), gse1), check.IsNil)

	gse2 := NewTable("gene", "S3")
	gse2.AppendRow("B", 7.0)
	gse2.AppendRow("C", 8.0)
	gse2.AppendRow("D", 9.0)
	c.Assert(WriteParquetTable(filepath.Join(dataPath, "SLE", "GSE2.parquet"), gse2), check.IsNil)

	metadataPath = filepath.Join(dir, "metadata.csv")
	c.Assert(os.WriteFile(metadataPath, []byte(`Sample,GSE,Condition,Tissue,Method
S1,GSE1,SLE,Blood,RNA-seq
S1,GSE1,SLE,Synovium,RNA-seq
S2,GSE1,Healthy,Blood,RNA-seq
S3,GSE2,SLE,Synovium,Microarray
S9,GSE9,SLE,Blood,RNA-seq
`), 0644), check.IsNil)

	datasetsInfoPath = filepath.Join(dir, "datasets_info.csv")
	c.Assert(os.WriteFile(datasetsInfoPath, []byte(`Dataset,Platform,Technology
GSE1,GPL570,Expression profiling by array
GSE2,GPL96,Expression profiling by high throughput sequencing
`), 0644), check.IsNil)
	return
}

func (s *preprocessSuite) TestPreprocessCondition(c *check.C) {
	dataPath, metadataPath, datasetsInfoPath := writeFixtures(c)

	out, err := Preprocess(ConditionSelector{Condition: Lupus}, dataPath, metadataPath, datasetsInfoPath, 1.0, true)
	c.Assert(err, check.IsNil)
	c.Assert(out, check.NotNil)
	c.Assert(out.Len(), check.Equals, 3)
	c.Check(out.Column(sampleColumn), check.DeepEquals, []any{"S1", "S2", "S3"})
	for _, col := range []string{"A", "B", "C", "D", "GSE", "Condition", "Tissue", "Method", "Platform", "Technology"} {
		c.Check(out.HasColumn(col), check.Equals, true, check.Commentf("column %s", col))
	}
	// expression values survived join+transpose+cast
	c.Check(out.At(0, "A"), check.Equals, 1.0)
	c.Check(out.At(2, "D"), check.Equals, 9.0)
	c.Check(out.At(0, "D"), check.IsNil)
	// first metadata row won the de-duplication
	c.Check(out.At(0, "Tissue"), check.Equals, "Blood")
	c.Check(out.At(0, "Platform"), check.Equals, "GPL570")
}

func (s *preprocessSuite) TestPreprocessNullPruning(c *check.C) {
	dataPath, metadataPath, datasetsInfoPath := writeFixtures(c)

	// A is null for S3, D for S1 and S2
	out, err := Preprocess(ConditionSelector{Condition: Lupus}, dataPath, metadataPath, datasetsInfoPath, 0.3, true)
	c.Assert(err, check.IsNil)
	c.Assert(out, check.NotNil)
	c.Check(out.HasColumn("B"), check.Equals, true)
	c.Check(out.HasColumn("C"), check.Equals, true)
	c.Check(out.HasColumn("A"), check.Equals, false)
	c.Check(out.HasColumn("D"), check.Equals, false)
}

func (s *preprocessSuite) TestPreprocessStripMetadata(c *check.C) {
	dataPath, metadataPath, datasetsInfoPath := writeFixtures(c)

	out, err := Preprocess(ConditionSelector{Condition: Lupus}, dataPath, metadataPath, datasetsInfoPath, 1.0, false)
	c.Assert(err, check.IsNil)
	c.Assert(out, check.NotNil)
	for _, col := range append(append([]string(nil), MetadataColumns...), DatasetInfoColumns...) {
		c.Check(out.HasColumn(col), check.Equals, false, check.Commentf("column %s", col))
	}
	c.Check(out.HasColumn(sampleColumn), check.Equals, true)
	c.Check(out.HasColumn("B"), check.Equals, true)
}

func (s *preprocessSuite) TestPreprocessTissueFilter(c *check.C) {
	dataPath, metadataPath, datasetsInfoPath := writeFixtures(c)

	out, err := Preprocess(ConditionTissueSelector{Condition: Lupus, Tissue: "Blood"}, dataPath, metadataPath, datasetsInfoPath, 1.0, true)
	c.Assert(err, check.IsNil)
	c.Assert(out, check.NotNil)
	c.Check(out.Column(sampleColumn), check.DeepEquals, []any{"S1", "S2"})

	out, err = Preprocess(ConditionMethodSelector{Condition: Lupus, Method: "Microarray"}, dataPath, metadataPath, datasetsInfoPath, 1.0, true)
	c.Assert(err, check.IsNil)
	c.Assert(out, check.NotNil)
	c.Check(out.Column(sampleColumn), check.DeepEquals, []any{"S3"})

	out, err = Preprocess(ConditionMethodTissueSelector{Condition: Lupus, Method: "RNA-seq", Tissue: "Blood", Genes: []string{"B", "X"}}, dataPath, metadataPath, datasetsInfoPath, 1.0, true)
	c.Assert(err, check.IsNil)
	c.Assert(out, check.NotNil)
	c.Check(out.Column(sampleColumn), check.DeepEquals, []any{"S1", "S2"})
	c.Check(out.Columns()[0], check.Equals, sampleColumn)
	c.Check(out.HasColumn("B"), check.Equals, true)
	c.Check(out.HasColumn("X"), check.Equals, false)
	c.Check(out.HasColumn("A"), check.Equals, false)
}

func (s *preprocessSuite) TestPreprocessNoMatchIsNotAnError(c *check.C) {
	dataPath, metadataPath, datasetsInfoPath := writeFixtures(c)

	out, err := Preprocess(ConditionTissueSelector{Condition: Lupus, Tissue: "Kidney"}, dataPath, metadataPath, datasetsInfoPath, 1.0, true)
	c.Check(err, check.IsNil)
	c.Check(out, check.IsNil)
}

func (s *preprocessSuite) TestPreprocessFileSelector(c *check.C) {
	dataPath, metadataPath, datasetsInfoPath := writeFixtures(c)

	sel := FileSelector{Condition: Lupus, FileName: "GSE1.parquet", Genes: []string{"C", "A"}, Samples: []string{"S1", "S8"}}
	out, err := Preprocess(sel, dataPath, metadataPath, datasetsInfoPath, 1.0, true)
	c.Assert(err, check.IsNil)
	c.Assert(out, check.NotNil)
	c.Check(out.Column(sampleColumn), check.DeepEquals, []any{"S1"})
	c.Check(out.Columns()[0], check.Equals, sampleColumn)
	c.Check(out.HasColumn("A"), check.Equals, true)
	c.Check(out.HasColumn("C"), check.Equals, true)
	c.Check(out.HasColumn("B"), check.Equals, false)
}

func (s *preprocessSuite) TestPreprocessWrongPath(c *check.C) {
	_, metadataPath, datasetsInfoPath := writeFixtures(c)
	_, err := Preprocess(ConditionSelector{Condition: Lupus}, c.MkDir(), metadataPath, datasetsInfoPath, 1.0, true)
	var derr *DataError
	c.Check(errors.As(err, &derr), check.Equals, true)
}

func (s *preprocessSuite) TestPreprocessBadExpressionValue(c *check.C) {
	dataPath, metadataPath, datasetsInfoPath := writeFixtures(c)
	c.Assert(os.MkdirAll(filepath.Join(dataPath, "RA"), 0777), check.IsNil)
	bad := NewTable("gene", "S1")
	bad.AppendRow("A", "not a number")
	c.Assert(WriteParquetTable(filepath.Join(dataPath, "RA", "GSE3.parquet"), bad), check.IsNil)

	_, err := Preprocess(ConditionSelector{Condition: RheumatoidArthritis}, dataPath, metadataPath, datasetsInfoPath, 1.0, true)
	c.Assert(err, check.NotNil)
	var derr *DataError
	c.Check(errors.As(err, &derr), check.Equals, true)
}

func (s *preprocessSuite) TestUnknownSelectorVariant(c *check.C) {
	_, err := applySelectorFilter(bogusSelector{}, NewTable(sampleColumn))
	var cerr *ConfigError
	c.Check(errors.As(err, &cerr), check.Equals, true)
}

func (s *preprocessSuite) TestPreprocessCommand(c *check.C) {
	dataPath, metadataPath, datasetsInfoPath := writeFixtures(c)
	outputFilename := filepath.Join(c.MkDir(), "out.parquet")

	var stdout bytes.Buffer
	exited := (&preprocesscmd{}).RunCommand("adex preprocess", []string{
		"-condition", "SLE",
		"-data", dataPath,
		"-metadata", metadataPath,
		"-datasets-info", datasetsInfoPath,
		"-allowed-null-percentage", "1.0",
		"-o", outputFilename,
	}, &bytes.Buffer{}, &stdout, os.Stderr)
	c.Assert(exited, check.Equals, 0)
	c.Check(stdout.String(), check.Equals, outputFilename+"\n")

	out, err := ReadParquetTable(outputFilename)
	c.Assert(err, check.IsNil)
	c.Check(out.Len(), check.Equals, 3)
}
