// Package adapter reads tabular files into datasets through an embedded DuckDB.
//
// DuckDB does the format-specific parsing (delimited text, Parquet, JSON and
// spreadsheets). Every column is read back as text so type inference stays
// with the dataset, not with the file reader.
package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver

	"github.com/leapstack-labs/leapgate/pkg/core"
)

// Format is a file encoding DuckDB can scan.
type Format string

// Supported formats.
const (
	FormatCSV     Format = "csv"
	FormatTSV     Format = "tsv"
	FormatParquet Format = "parquet"
	FormatJSON    Format = "json"
	FormatNDJSON  Format = "ndjson"
	FormatXLSX    Format = "xlsx"
)

// optionName matches extension and setting names, which are spliced into SQL unquoted.
var optionName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Config holds the configuration for a DuckDB connection.
type Config struct {
	// Path is the database file; empty or ":memory:" for an in-memory database.
	Path string
	// Params are decoded with ParseParams.
	Params map[string]any
}

// Column describes a column of a loaded table.
type Column struct {
	Name     string
	Type     string
	Nullable bool
	Position int
}

// Metadata holds metadata about a loaded table.
type Metadata struct {
	Schema   string
	Name     string
	Columns  []Column
	RowCount int64
}

// DuckDB is a connection to an embedded DuckDB database.
type DuckDB struct {
	db     *sql.DB
	params *Params
	logger *slog.Logger
}

// New creates a DuckDB adapter. Call Connect before use.
func New(logger *slog.Logger) *DuckDB {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &DuckDB{logger: logger, params: &Params{}}
}

// Connect opens the database, then installs extensions and applies settings.
func (a *DuckDB) Connect(ctx context.Context, cfg Config) error {
	params, err := ParseParams(cfg.Params)
	if err != nil {
		return err
	}

	path := cfg.Path
	if path == ":memory:" {
		path = ""
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return fmt.Errorf("failed to open duckdb connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping duckdb: %w", err)
	}
	// Settings are per connection.
	db.SetMaxOpenConns(1)

	a.db = db
	a.params = params

	for _, ext := range params.Extensions {
		if err := a.loadExtension(ctx, ext); err != nil {
			_ = a.Close()
			return err
		}
	}

	// Sorted for a stable statement order.
	keys := make([]string, 0, len(params.Settings))
	for k := range params.Settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !optionName.MatchString(k) {
			_ = a.Close()
			return fmt.Errorf("invalid setting name %q", k)
		}
		stmt := fmt.Sprintf("SET %s = %s", k, quoteLiteral(params.Settings[k]))
		if err := a.Exec(ctx, stmt); err != nil {
			_ = a.Close()
			return fmt.Errorf("failed to apply setting %s: %w", k, err)
		}
	}

	a.logger.Debug("duckdb connected",
		slog.String("path", cfg.Path),
		slog.Int("extensions", len(params.Extensions)),
		slog.Int("settings", len(params.Settings)))
	return nil
}

// Close closes the DuckDB connection.
func (a *DuckDB) Close() error {
	if a.db != nil {
		err := a.db.Close()
		a.db = nil
		return err
	}
	return nil
}

// Exec executes a SQL statement that doesn't return rows.
func (a *DuckDB) Exec(ctx context.Context, sqlStr string) error {
	if a.db == nil {
		return fmt.Errorf("database connection not established")
	}
	if _, err := a.db.ExecContext(ctx, sqlStr); err != nil {
		return fmt.Errorf("failed to execute SQL: %w", err)
	}
	return nil
}

func (a *DuckDB) loadExtension(ctx context.Context, name string) error {
	if !optionName.MatchString(name) {
		return fmt.Errorf("invalid extension name %q", name)
	}
	if err := a.Exec(ctx, "INSTALL "+name); err != nil {
		return fmt.Errorf("failed to install extension %s: %w", name, err)
	}
	if err := a.Exec(ctx, "LOAD "+name); err != nil {
		return fmt.Errorf("failed to load extension %s: %w", name, err)
	}
	return nil
}

func (a *DuckDB) hasExtension(name string) bool {
	for _, e := range a.params.Extensions {
		if strings.EqualFold(e, name) {
			return true
		}
	}
	return false
}

// LoadFile materializes filePath as table using the reader for format.
func (a *DuckDB) LoadFile(ctx context.Context, table, filePath string, format Format) error {
	if a.db == nil {
		return fmt.Errorf("database connection not established")
	}

	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}

	if format == FormatXLSX && !a.hasExtension("excel") {
		if err := a.loadExtension(ctx, "excel"); err != nil {
			return err
		}
	}

	scan, err := scanExpr(format, absPath)
	if err != nil {
		return err
	}

	query := fmt.Sprintf("CREATE OR REPLACE TABLE %s AS SELECT * FROM %s", quoteIdent(table), scan)
	if err := a.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to load %s file: %w", format, err)
	}

	a.logger.Debug("file loaded", slog.String("path", absPath), slog.String("format", string(format)), slog.String("table", table))
	return nil
}

// scanExpr returns the DuckDB table function that reads path as format.
// Delimited and spreadsheet readers keep every cell as text.
func scanExpr(format Format, path string) (string, error) {
	lit := quoteLiteral(path)
	switch format {
	case FormatCSV:
		return fmt.Sprintf("read_csv(%s, header=true, all_varchar=true)", lit), nil
	case FormatTSV:
		return fmt.Sprintf("read_csv(%s, header=true, delim='\\t', all_varchar=true)", lit), nil
	case FormatParquet:
		return fmt.Sprintf("read_parquet(%s)", lit), nil
	case FormatJSON:
		return fmt.Sprintf("read_json_auto(%s)", lit), nil
	case FormatNDJSON:
		return fmt.Sprintf("read_json_auto(%s, format='newline_delimited')", lit), nil
	case FormatXLSX:
		return fmt.Sprintf("read_xlsx(%s, header=true, all_varchar=true)", lit), nil
	default:
		return "", fmt.Errorf("%w: %s", core.ErrUnsupportedFormat, format)
	}
}

// GetTableMetadata retrieves column and row-count metadata for a table.
func (a *DuckDB) GetTableMetadata(ctx context.Context, table string) (*Metadata, error) {
	if a.db == nil {
		return nil, fmt.Errorf("database connection not established")
	}

	schema := "main"
	tableName := table
	if parts := strings.Split(table, "."); len(parts) == 2 {
		schema = parts[0]
		tableName = parts[1]
	}

	query := `
		SELECT
			column_name,
			data_type,
			is_nullable,
			ordinal_position
		FROM information_schema.columns
		WHERE table_schema = ? AND table_name = ?
		ORDER BY ordinal_position
	`

	rows, err := a.db.QueryContext(ctx, query, schema, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to query column metadata: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var columns []Column
	for rows.Next() {
		var col Column
		var nullable string
		if err := rows.Scan(&col.Name, &col.Type, &nullable, &col.Position); err != nil {
			return nil, fmt.Errorf("failed to scan column metadata: %w", err)
		}
		col.Nullable = nullable == "YES"
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating column metadata: %w", err)
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("table %s not found", table)
	}
	_ = rows.Close()

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s.%s", quoteIdent(schema), quoteIdent(tableName))
	var rowCount int64
	if err := a.db.QueryRowContext(ctx, countQuery).Scan(&rowCount); err != nil {
		return nil, fmt.Errorf("failed to count rows of %s: %w", table, err)
	}

	return &Metadata{
		Schema:   schema,
		Name:     tableName,
		Columns:  columns,
		RowCount: rowCount,
	}, nil
}

// ReadDataset reads every row of table as text and builds a dataset named name.
// SQL NULLs become missing cells.
func (a *DuckDB) ReadDataset(ctx context.Context, table, name string) (*core.Dataset, error) {
	meta, err := a.GetTableMetadata(ctx, table)
	if err != nil {
		return nil, err
	}

	selects := make([]string, len(meta.Columns))
	for i, c := range meta.Columns {
		selects[i] = fmt.Sprintf("CAST(%s AS VARCHAR)", quoteIdent(c.Name))
	}
	query := fmt.Sprintf("SELECT %s FROM %s.%s", strings.Join(selects, ", "), quoteIdent(meta.Schema), quoteIdent(meta.Name))

	rows, err := a.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to read table %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	data := make([]core.ColumnData, len(meta.Columns))
	for i, c := range meta.Columns {
		data[i] = core.ColumnData{
			Name:   c.Name,
			Values: make([]string, 0, meta.RowCount),
			Nulls:  make([]bool, 0, meta.RowCount),
		}
	}

	cells := make([]sql.NullString, len(meta.Columns))
	dest := make([]any, len(meta.Columns))
	for i := range cells {
		dest[i] = &cells[i]
	}
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		for i, c := range cells {
			data[i].Values = append(data[i].Values, c.String)
			data[i].Nulls = append(data[i].Nulls, !c.Valid)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	ds, err := core.NewDataset(name, data)
	if err != nil {
		return nil, fmt.Errorf("failed to build dataset: %w", err)
	}
	return ds, nil
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
