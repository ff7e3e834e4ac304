package testutil

import (
	"testing"

	"github.com/leapstack-labs/leapgate/pkg/core"
)

// MustDataset builds a dataset from a header and row-major records.
// Empty strings become missing cells. The test fails on invalid input.
func MustDataset(t testing.TB, name string, header []string, rows ...[]string) *core.Dataset {
	t.Helper()
	cols := make([]core.ColumnData, len(header))
	for c, h := range header {
		cols[c] = core.ColumnData{Name: h, Values: make([]string, len(rows))}
	}
	for r, row := range rows {
		if len(row) != len(header) {
			t.Fatalf("row %d has %d cells, header has %d", r, len(row), len(header))
		}
		for c, v := range row {
			cols[c].Values[r] = v
		}
	}
	ds, err := core.NewDataset(name, cols)
	if err != nil {
		t.Fatalf("failed to build dataset: %v", err)
	}
	return ds
}

// CleanDataset returns a small dataset with no missing values, no duplicate
// rows and no constant columns. "label" is a natural target.
func CleanDataset(t testing.TB) *core.Dataset {
	t.Helper()
	return MustDataset(t, "clean.csv",
		[]string{"id", "age", "city", "label"},
		[]string{"1", "34", "paris", "yes"},
		[]string{"2", "27", "lyon", "no"},
		[]string{"3", "45", "nice", "yes"},
		[]string{"4", "52", "paris", "no"},
		[]string{"5", "38", "lyon", "yes"},
	)
}
