package adapter

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapgate/internal/testutil"
	"github.com/leapstack-labs/leapgate/pkg/core"
)

func connect(t *testing.T, cfg Config) *DuckDB {
	t.Helper()
	adp := New(testutil.NewTestLogger(t))
	require.NoError(t, adp.Connect(context.Background(), cfg))
	t.Cleanup(func() { _ = adp.Close() })
	return adp
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDuckDB_Connect(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
	}{
		{"in-memory", func(*testing.T) string { return ":memory:" }},
		{"file-based", func(t *testing.T) string { return filepath.Join(t.TempDir(), "test.duckdb") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			connect(t, Config{Path: tt.path(t)})
		})
	}
}

func TestDuckDB_ConnectAppliesSettings(t *testing.T) {
	adp := connect(t, Config{Params: map[string]any{
		"settings": map[string]any{"threads": "2"},
	}})

	var threads string
	require.NoError(t, adp.db.QueryRow("SELECT current_setting('threads')").Scan(&threads))
	assert.Equal(t, "2", threads)
}

func TestDuckDB_ConnectRejectsBadParams(t *testing.T) {
	ctx := context.Background()

	err := New(nil).Connect(ctx, Config{Params: map[string]any{"bogus": true}})
	assert.Error(t, err)

	err = New(nil).Connect(ctx, Config{Params: map[string]any{
		"settings": map[string]any{"threads; DROP TABLE x": "1"},
	}})
	assert.Error(t, err)
}

func TestDuckDB_NotConnected(t *testing.T) {
	ctx := context.Background()
	adp := New(nil)

	assert.Error(t, adp.Exec(ctx, "SELECT 1"))
	assert.Error(t, adp.LoadFile(ctx, "t", "x.csv", FormatCSV))
	_, err := adp.GetTableMetadata(ctx, "t")
	assert.Error(t, err)
	assert.NoError(t, adp.Close())
}

func TestDuckDB_LoadCSVKeepsRawText(t *testing.T) {
	path := writeFile(t, "data.csv", "id,score,city,flag\n1,0.5,paris,true\n2,NA,,false\n3,007,lyon,\n")
	adp := connect(t, Config{})
	ctx := context.Background()

	require.NoError(t, adp.LoadFile(ctx, "dataset", path, FormatCSV))

	meta, err := adp.GetTableMetadata(ctx, "dataset")
	require.NoError(t, err)
	assert.Equal(t, int64(3), meta.RowCount)
	require.Len(t, meta.Columns, 4)
	assert.Equal(t, "VARCHAR", meta.Columns[1].Type)

	ds, err := adp.ReadDataset(ctx, "dataset", "data.csv")
	require.NoError(t, err)
	assert.Equal(t, 3, ds.RowCount())
	assert.Equal(t, []string{"id", "score", "city", "flag"}, ds.ColumnNames())

	score, _ := ds.ColumnIndex("score")
	assert.Equal(t, "NA", ds.Value(score, 1))
	assert.Equal(t, "007", ds.Value(score, 2))

	city, _ := ds.ColumnIndex("city")
	assert.True(t, ds.IsMissing(city, 1))

	flag, _ := ds.ColumnIndex("flag")
	assert.Equal(t, core.ColumnBoolean, ds.Column(flag).Type)
	assert.True(t, ds.IsMissing(flag, 2))
}

func TestDuckDB_LoadTSV(t *testing.T) {
	path := writeFile(t, "data.tsv", "a\tb\n1\tx\n2\ty\n")
	adp := connect(t, Config{})
	ctx := context.Background()

	require.NoError(t, adp.LoadFile(ctx, "dataset", path, FormatTSV))
	ds, err := adp.ReadDataset(ctx, "dataset", "data.tsv")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ds.ColumnNames())
	assert.Equal(t, core.ColumnNumeric, ds.Column(0).Type)
}

func TestDuckDB_LoadNDJSON(t *testing.T) {
	path := writeFile(t, "data.ndjson", `{"x": 1, "y": "a"}`+"\n"+`{"x": 2, "y": null}`+"\n")
	adp := connect(t, Config{})
	ctx := context.Background()

	require.NoError(t, adp.LoadFile(ctx, "dataset", path, FormatNDJSON))
	ds, err := adp.ReadDataset(ctx, "dataset", "data.ndjson")
	require.NoError(t, err)
	assert.Equal(t, 2, ds.RowCount())
	y, _ := ds.ColumnIndex("y")
	assert.True(t, ds.IsMissing(y, 1))
}

func TestDuckDB_LoadParquet(t *testing.T) {
	adp := connect(t, Config{})
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data.parquet")

	require.NoError(t, adp.Exec(ctx, "CREATE TABLE src AS SELECT range AS n, range % 2 = 0 AS even FROM range(4)"))
	require.NoError(t, adp.Exec(ctx, "COPY src TO "+quoteLiteral(path)+" (FORMAT PARQUET)"))

	require.NoError(t, adp.LoadFile(ctx, "dataset", path, FormatParquet))
	ds, err := adp.ReadDataset(ctx, "dataset", "data.parquet")
	require.NoError(t, err)
	assert.Equal(t, 4, ds.RowCount())
	assert.Equal(t, core.ColumnNumeric, ds.Column(0).Type)
	assert.Equal(t, core.ColumnBoolean, ds.Column(1).Type)
}

func TestDuckDB_UnsupportedFormat(t *testing.T) {
	adp := connect(t, Config{})
	err := adp.LoadFile(context.Background(), "t", "x.sav", Format("sav"))
	assert.ErrorIs(t, err, core.ErrUnsupportedFormat)
}

func TestDuckDB_MissingTable(t *testing.T) {
	adp := connect(t, Config{})
	_, err := adp.ReadDataset(context.Background(), "nope", "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestQuote(t *testing.T) {
	assert.Equal(t, `"a""b"`, quoteIdent(`a"b`))
	assert.Equal(t, `'it''s'`, quoteLiteral(`it's`))
}
