package loader

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapgate/internal/adapter"
	"github.com/leapstack-labs/leapgate/internal/testutil"
	"github.com/leapstack-labs/leapgate/pkg/core"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		path    string
		want    adapter.Format
		wantErr bool
	}{
		{"train.csv", adapter.FormatCSV, false},
		{"TRAIN.CSV", adapter.FormatCSV, false},
		{"adult.data", adapter.FormatCSV, false},
		{"x.tsv", adapter.FormatTSV, false},
		{"x.parquet", adapter.FormatParquet, false},
		{"x.jsonl", adapter.FormatNDJSON, false},
		{"x.json", adapter.FormatJSON, false},
		{"book.xlsx", adapter.FormatXLSX, false},
		{"model.pkl", "", true},
		{"README", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := Detect(tt.path)
			if tt.wantErr {
				assert.ErrorIs(t, err, core.ErrUnsupportedFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatsAreCopies(t *testing.T) {
	f := Formats()
	f[0].Extensions[0] = ".changed"
	assert.Equal(t, ".csv", Formats()[0].Extensions[0])
	assert.Contains(t, Extensions(), ".parquet")
}

func TestLoad_CSV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "people.csv")
	require.NoError(t, os.WriteFile(path, []byte("name,age,member\nann,31,true\nbob,,false\n"), 0o600))

	l, err := New(Config{Logger: testutil.NewTestLogger(t)})
	require.NoError(t, err)

	ds, err := l.Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "people.csv", ds.Name())
	assert.Equal(t, 2, ds.RowCount())
	assert.Equal(t, []core.Column{
		{Name: "name", Type: core.ColumnCategorical},
		{Name: "age", Type: core.ColumnNumeric},
		{Name: "member", Type: core.ColumnBoolean},
	}, ds.Columns())
}

func TestLoadAs_UsesDisplayNameForFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "upload-123")
	require.NoError(t, os.WriteFile(path, []byte("a\tb\n1\t2\n"), 0o600))

	l, err := New(Config{})
	require.NoError(t, err)
	ds, err := l.LoadAs(context.Background(), path, "original.tsv")
	require.NoError(t, err)
	assert.Equal(t, "original.tsv", ds.Name())
	assert.Equal(t, []string{"a", "b"}, ds.ColumnNames())
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()
	l, err := New(Config{MaxFileMB: 1})
	require.NoError(t, err)
	ctx := context.Background()

	_, err = l.Load(ctx, filepath.Join(dir, "missing.csv"))
	assert.Error(t, err)

	_, err = l.Load(ctx, filepath.Join(dir, "model.pkl"))
	assert.ErrorIs(t, err, core.ErrUnsupportedFormat)

	big := filepath.Join(dir, "big.csv")
	require.NoError(t, os.WriteFile(big, make([]byte, 2<<20), 0o600))
	_, err = l.Load(ctx, big)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "limit")
}

func TestNew_RejectsBadParams(t *testing.T) {
	_, err := New(Config{Params: map[string]any{"nope": 1}})
	assert.Error(t, err)
}
