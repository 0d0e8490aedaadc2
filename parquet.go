// Copyright (C) The Adex Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package adex

import (
	"fmt"
	"io"
	"os"

	pq "github.com/parquet-go/parquet-go"
)

// ReadParquetTable reads a parquet file into a Table. Column order
// follows the file schema; null cells become nil, UTF8 byte arrays
// become strings, integer kinds become int64, and floating kinds become
// float64.
func ReadParquetTable(filename string) (*Table, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open parquet file: %w", err)
	}
	defer f.Close()
	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat parquet file %q: %w", filename, err)
	}
	pf, err := pq.OpenFile(f, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("open parquet file %q: %w", filename, err)
	}
	fields := pf.Schema().Fields()
	columns := make([]string, len(fields))
	for i, field := range fields {
		columns[i] = field.Name()
	}
	out := NewTable(columns...)

	reader := pq.NewReader(f)
	defer reader.Close()
	rows := make([]pq.Row, 64)
	for {
		n, err := reader.ReadRows(rows)
		for i := 0; i < n; i++ {
			cells := make([]any, len(columns))
			for j, value := range rows[i] {
				if j < len(columns) {
					cells[j] = parquetValueToGo(value)
				}
			}
			out.AppendRow(cells...)
		}
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, fmt.Errorf("read rows from %q: %w", filename, err)
		}
	}
	return out, nil
}

func parquetValueToGo(value pq.Value) any {
	if value.IsNull() {
		return nil
	}
	switch value.Kind() {
	case pq.Boolean:
		return value.Boolean()
	case pq.Int32:
		return int64(value.Int32())
	case pq.Int64:
		return value.Int64()
	case pq.Float:
		return float64(value.Float())
	case pq.Double:
		return value.Double()
	default:
		return value.String()
	}
}

// WriteParquetTable writes a Table to a parquet file. Every column is
// optional; the physical type is inferred from the first non-null cell
// (string when a column is entirely null).
func WriteParquetTable(filename string, t *Table) error {
	group := make(pq.Group, len(t.Columns()))
	for _, col := range t.Columns() {
		group[col] = pq.Optional(columnNode(t.Column(col)))
	}
	schema := pq.NewSchema("table", group)

	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("create parquet file: %w", err)
	}
	defer f.Close()
	writer := pq.NewGenericWriter[map[string]any](f, schema)
	batch := make([]map[string]any, 0, 64)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if _, err := writer.Write(batch); err != nil {
			return fmt.Errorf("write rows to %q: %w", filename, err)
		}
		batch = batch[:0]
		return nil
	}
	for row := 0; row < t.Len(); row++ {
		cells := make(map[string]any, len(t.Columns()))
		for _, col := range t.Columns() {
			if cell := t.At(row, col); cell != nil {
				cells[col] = cell
			}
		}
		batch = append(batch, cells)
		if len(batch) == cap(batch) {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := flush(); err != nil {
		return err
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close parquet writer for %q: %w", filename, err)
	}
	return f.Close()
}

func columnNode(cells []any) pq.Node {
	for _, cell := range cells {
		switch cell.(type) {
		case nil:
			continue
		case bool:
			return pq.Leaf(pq.BooleanType)
		case int, int32, int64:
			return pq.Leaf(pq.Int64Type)
		case float32, float64:
			return pq.Leaf(pq.DoubleType)
		default:
			return pq.String()
		}
	}
	return pq.String()
}
