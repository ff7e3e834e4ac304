// Package loader turns dataset files into validated, immutable datasets.
package loader

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/leapstack-labs/leapgate/internal/adapter"
	"github.com/leapstack-labs/leapgate/pkg/core"
)

// DefaultMaxFileMB caps the size of a dataset file.
const DefaultMaxFileMB = 512

// table is the DuckDB table each file is materialized into.
const table = "dataset"

// FormatInfo describes an accepted dataset encoding.
type FormatInfo struct {
	Format      adapter.Format `json:"format" yaml:"format"`
	Kind        string         `json:"kind" yaml:"kind"`
	Extensions  []string       `json:"extensions" yaml:"extensions"`
	Description string         `json:"description" yaml:"description"`
}

var formats = []FormatInfo{
	{adapter.FormatCSV, "delimited text", []string{".csv", ".txt", ".data"}, "Comma-separated values with a header row"},
	{adapter.FormatTSV, "delimited text", []string{".tsv", ".tab"}, "Tab-separated values with a header row"},
	{adapter.FormatXLSX, "spreadsheet", []string{".xlsx"}, "Excel workbook, first sheet"},
	{adapter.FormatParquet, "columnar", []string{".parquet", ".pq"}, "Apache Parquet"},
	{adapter.FormatJSON, "structured records", []string{".json"}, "JSON array of records"},
	{adapter.FormatNDJSON, "structured records", []string{".ndjson", ".jsonl"}, "Newline-delimited JSON records"},
}

// Formats returns the supported formats.
func Formats() []FormatInfo {
	out := make([]FormatInfo, len(formats))
	for i, f := range formats {
		f.Extensions = append([]string(nil), f.Extensions...)
		out[i] = f
	}
	return out
}

// Extensions returns every accepted file extension, sorted.
func Extensions() []string {
	var exts []string
	for _, f := range formats {
		exts = append(exts, f.Extensions...)
	}
	sort.Strings(exts)
	return exts
}

// Detect returns the format for path based on its extension.
func Detect(path string) (adapter.Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	for _, f := range formats {
		for _, e := range f.Extensions {
			if e == ext {
				return f.Format, nil
			}
		}
	}
	if ext == "" {
		return "", fmt.Errorf("%w: %s has no extension", core.ErrUnsupportedFormat, filepath.Base(path))
	}
	return "", fmt.Errorf("%w: %s", core.ErrUnsupportedFormat, ext)
}

// Config holds loader configuration.
type Config struct {
	// MaxFileMB rejects larger files. Zero means DefaultMaxFileMB.
	MaxFileMB int
	// Params are passed to the DuckDB adapter (extensions, settings).
	Params map[string]any
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// Loader reads dataset files.
type Loader struct {
	maxBytes int64
	params   map[string]any
	logger   *slog.Logger
}

// New creates a loader. Adapter params are validated up front.
func New(cfg Config) (*Loader, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if _, err := adapter.ParseParams(cfg.Params); err != nil {
		return nil, err
	}
	maxMB := cfg.MaxFileMB
	if maxMB <= 0 {
		maxMB = DefaultMaxFileMB
	}
	return &Loader{
		maxBytes: int64(maxMB) << 20,
		params:   cfg.Params,
		logger:   logger,
	}, nil
}

// Load reads path into a dataset named after the file.
func (l *Loader) Load(ctx context.Context, path string) (*core.Dataset, error) {
	return l.LoadAs(ctx, path, filepath.Base(path))
}

// LoadAs reads path into a dataset with the given display name. The format is
// detected from name, which lets uploads stored under temporary names keep
// their original extension.
func (l *Loader) LoadAs(ctx context.Context, path, name string) (*core.Dataset, error) {
	format, err := Detect(name)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat dataset file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	if info.Size() > l.maxBytes {
		return nil, fmt.Errorf("dataset file %s is %d MB, limit is %d MB", name, info.Size()>>20, l.maxBytes>>20)
	}

	db := adapter.New(l.logger)
	if err := db.Connect(ctx, adapter.Config{Path: ":memory:", Params: l.params}); err != nil {
		return nil, fmt.Errorf("failed to start reader: %w", err)
	}
	defer func() { _ = db.Close() }()

	if err := db.LoadFile(ctx, table, path, format); err != nil {
		return nil, err
	}
	ds, err := db.ReadDataset(ctx, table, name)
	if err != nil {
		return nil, err
	}

	l.logger.Info("dataset read",
		slog.String("name", name),
		slog.String("format", string(format)),
		slog.Int("rows", ds.RowCount()),
		slog.Int("columns", ds.ColumnCount()))
	return ds, nil
}
