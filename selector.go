// Copyright (C) The Adex Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package adex

import (
	"fmt"
	"path/filepath"
	"sort"

	log "github.com/sirupsen/logrus"
)

// Condition is a disease/experimental category. Raw expression files
// are laid out one directory per condition.
type Condition string

const (
	RheumatoidArthritis Condition = "RA"
	Lupus               Condition = "SLE"
	Sjogren             Condition = "SjS"
	SystemicSclerosis   Condition = "SSc"
	Type1Diabetes       Condition = "T1D"
)

// A Selector describes which subset of the data to load and which
// post-join filters to apply. Exactly one concrete variant is used per
// call; every dispatch site type-switches over the variants and fails
// with a ConfigError on anything it does not recognize.
type Selector interface {
	selector()
	// ConditionName returns the condition directory the selector
	// loads from.
	ConditionName() Condition
}

// ConditionSelector loads every sample file of one condition.
type ConditionSelector struct {
	Condition Condition
}

// ConditionTissueSelector loads one condition and keeps only samples of
// one tissue.
type ConditionTissueSelector struct {
	Condition Condition
	Tissue    string
}

// ConditionMethodSelector loads one condition and keeps only samples
// produced by one sequencing method.
type ConditionMethodSelector struct {
	Condition Condition
	Method    string
}

// ConditionMethodTissueSelector combines the method and tissue filters,
// optionally restricted to a gene allow-list.
type ConditionMethodTissueSelector struct {
	Condition Condition
	Method    string
	Tissue    string
	Genes     []string
}

// FileSelector loads a single named file of a condition, optionally
// restricted to gene and/or sample allow-lists.
type FileSelector struct {
	Condition Condition
	FileName  string
	Genes     []string
	Samples   []string
}

func (s ConditionSelector) selector()             {}
func (s ConditionTissueSelector) selector()       {}
func (s ConditionMethodSelector) selector()       {}
func (s ConditionMethodTissueSelector) selector() {}
func (s FileSelector) selector()                  {}

func (s ConditionSelector) ConditionName() Condition             { return s.Condition }
func (s ConditionTissueSelector) ConditionName() Condition       { return s.Condition }
func (s ConditionMethodSelector) ConditionName() Condition       { return s.Condition }
func (s ConditionMethodTissueSelector) ConditionName() Condition { return s.Condition }
func (s FileSelector) ConditionName() Condition                  { return s.Condition }

// LoadDataPerCondition reads every per-sample parquet file of one
// condition. An empty glob is a data error: it almost always means a
// wrong path rather than an intentionally empty dataset.
func LoadDataPerCondition(condition Condition, dataPath string) ([]*Table, error) {
	pattern := filepath.Join(dataPath, string(condition), "*.parquet")
	files, err := filepath.Glob(pattern)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, dataErrorf("no data files match %q, possibly wrong path %q provided for files", pattern, dataPath)
	}
	sort.Strings(files)
	tables := make([]*Table, 0, len(files))
	for _, file := range files {
		t, err := ReadParquetTable(file)
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	log.Printf("%s: loaded %d files", condition, len(tables))
	return tables, nil
}

// loadTables applies the selector's load strategy: a FileSelector reads
// exactly its named file, every other variant reads the whole condition
// directory.
func loadTables(sel Selector, dataPath string) ([]*Table, error) {
	switch sel := sel.(type) {
	case FileSelector:
		t, err := ReadParquetTable(filepath.Join(dataPath, string(sel.Condition), sel.FileName))
		if err != nil {
			return nil, err
		}
		return []*Table{t}, nil
	case ConditionSelector, ConditionTissueSelector, ConditionMethodSelector, ConditionMethodTissueSelector:
		return LoadDataPerCondition(sel.ConditionName(), dataPath)
	default:
		return nil, configErrorf("selector %T not handled in loading", sel)
	}
}

// selectorTitle builds the plot title for data produced by sel.
func selectorTitle(sel Selector, method string) (string, error) {
	switch sel := sel.(type) {
	case ConditionSelector:
		return fmt.Sprintf("%s of '%s' Dataset", method, sel.Condition), nil
	case ConditionTissueSelector:
		return fmt.Sprintf("%s of '%s|%s' Dataset", method, sel.Condition, sel.Tissue), nil
	case ConditionMethodSelector:
		return fmt.Sprintf("%s of '%s|%s' Dataset", method, sel.Condition, sel.Method), nil
	case ConditionMethodTissueSelector:
		return fmt.Sprintf("%s of '%s|%s|%s' Dataset", method, sel.Condition, sel.Method, sel.Tissue), nil
	case FileSelector:
		return fmt.Sprintf("%s of '%s|%s' Dataset", method, sel.Condition, sel.FileName), nil
	default:
		return "", configErrorf("selector %T not handled in plotting", sel)
	}
}
