package core

import (
	"fmt"
	"strings"
)

// ColumnType is the inferred semantic type of a dataset column.
type ColumnType string

// Column types, in the order they are tried during inference.
const (
	ColumnBoolean     ColumnType = "boolean"
	ColumnDatetime    ColumnType = "datetime"
	ColumnNumeric     ColumnType = "numeric"
	ColumnCategorical ColumnType = "categorical"
)

// ColumnTypes lists every column type in reporting order.
var ColumnTypes = []ColumnType{ColumnNumeric, ColumnCategorical, ColumnBoolean, ColumnDatetime}

// ColumnData is the raw, column-major input used to build a Dataset.
// Values holds the textual cell values; Nulls optionally marks cells that were
// NULL in the source format. A nil Nulls slice means no source nulls.
type ColumnData struct {
	Name   string
	Values []string
	Nulls  []bool
}

// Column describes a single dataset column.
type Column struct {
	Name string     `json:"name"`
	Type ColumnType `json:"type"`
}

// Per-cell overhead used by the memory estimate: a string header plus the missing flag.
const cellOverheadBytes = 17

// Dataset is an immutable, validated, in-memory tabular dataset.
// All accessors return copies; nothing handed out aliases internal storage.
type Dataset struct {
	name     string
	columns  []Column
	cells    [][]string
	missing  [][]bool
	index    map[string]int
	rows     int
	memBytes int64
}

// NewDataset validates the column data and builds an immutable Dataset.
// Cells that are NULL or blank after trimming are recorded as missing.
// Column types are inferred once, at construction.
func NewDataset(name string, data []ColumnData) (*Dataset, error) {
	ds := &Dataset{
		name:    name,
		columns: make([]Column, len(data)),
		cells:   make([][]string, len(data)),
		missing: make([][]bool, len(data)),
		index:   make(map[string]int, len(data)),
	}

	for i, col := range data {
		if strings.TrimSpace(col.Name) == "" {
			return nil, fmt.Errorf("column %d has an empty name", i)
		}
		if _, dup := ds.index[col.Name]; dup {
			return nil, fmt.Errorf("duplicate column name %q", col.Name)
		}
		if i == 0 {
			ds.rows = len(col.Values)
		} else if len(col.Values) != ds.rows {
			return nil, fmt.Errorf("column %q has %d values, expected %d", col.Name, len(col.Values), ds.rows)
		}
		if col.Nulls != nil && len(col.Nulls) != len(col.Values) {
			return nil, fmt.Errorf("column %q has %d null flags for %d values", col.Name, len(col.Nulls), len(col.Values))
		}

		values := make([]string, len(col.Values))
		copy(values, col.Values)
		missing := make([]bool, len(col.Values))
		for r, v := range values {
			if (col.Nulls != nil && col.Nulls[r]) || strings.TrimSpace(v) == "" {
				missing[r] = true
				values[r] = ""
			}
			ds.memBytes += int64(len(values[r])) + cellOverheadBytes
		}

		ds.index[col.Name] = i
		ds.cells[i] = values
		ds.missing[i] = missing
		ds.columns[i] = Column{Name: col.Name, Type: InferColumnType(values, missing)}
		ds.memBytes += int64(len(col.Name))
	}

	return ds, nil
}

// Name returns the dataset's display name (usually the source file name).
func (d *Dataset) Name() string { return d.name }

// RowCount returns the number of rows.
func (d *Dataset) RowCount() int { return d.rows }

// ColumnCount returns the number of columns.
func (d *Dataset) ColumnCount() int { return len(d.columns) }

// Columns returns the column schema in source order.
func (d *Dataset) Columns() []Column {
	out := make([]Column, len(d.columns))
	copy(out, d.columns)
	return out
}

// ColumnNames returns the column names in source order.
func (d *Dataset) ColumnNames() []string {
	names := make([]string, len(d.columns))
	for i, c := range d.columns {
		names[i] = c.Name
	}
	return names
}

// Column returns the schema of the column at index i.
func (d *Dataset) Column(i int) Column { return d.columns[i] }

// ColumnIndex returns the index of the named column.
func (d *Dataset) ColumnIndex(name string) (int, bool) {
	i, ok := d.index[name]
	return i, ok
}

// HasColumn reports whether the dataset has a column with the given name.
func (d *Dataset) HasColumn(name string) bool {
	_, ok := d.index[name]
	return ok
}

// Value returns the textual value at (col, row). Missing cells return "".
func (d *Dataset) Value(col, row int) string { return d.cells[col][row] }

// IsMissing reports whether the cell at (col, row) is NULL or blank.
func (d *Dataset) IsMissing(col, row int) bool { return d.missing[col][row] }

// MemoryBytes returns the estimated in-memory footprint in bytes.
func (d *Dataset) MemoryBytes() int64 { return d.memBytes }

// MemoryMB returns the estimated in-memory footprint in megabytes.
func (d *Dataset) MemoryMB() float64 { return float64(d.memBytes) / (1024 * 1024) }
