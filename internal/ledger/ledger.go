// Package ledger keeps an append-only audit trail of diagnostic decisions.
//
// Every completed diagnostic run and every authorization decision is written
// as one row. The ledger is never read back into a session; sessions do not
// survive a process restart.
package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/leapstack-labs/leapgate/pkg/core"
)

// Record kinds.
const (
	KindDiagnostics   = "diagnostics"
	KindAuthorization = "authorization"
)

// DefaultListLimit is used when ListRecords is called with a non-positive limit.
const DefaultListLimit = 20

// timeLayout is fixed-width so created_at sorts chronologically as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store is a SQLite-backed decision ledger.
type Store struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// NewStore creates a ledger store. Call Open before use.
func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{logger: logger}
}

// NewWithDB wraps an existing connection. Migrations are not run.
func NewWithDB(db *sql.DB, logger *slog.Logger) *Store {
	s := NewStore(logger)
	s.db = db
	return s
}

// Open opens the ledger database and applies pending migrations.
// Use ":memory:" for an in-memory ledger.
func (s *Store) Open(path string) error {
	dsn := "file::memory:?_pragma=foreign_keys(1)"
	if path != ":memory:" {
		dsn = fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open ledger database: %w", err)
	}
	if path == ":memory:" {
		// Every new connection would otherwise see its own empty database.
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping ledger database: %w", err)
	}

	if err := migrateDB(db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	s.path = path
	s.logger.Debug("ledger opened", slog.String("path", path))
	return nil
}

// Close closes the ledger database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Path returns the path the ledger was opened with.
func (s *Store) Path() string {
	return s.path
}

// Record appends rec to the ledger, assigning an ID when rec has none.
func (s *Store) Record(ctx context.Context, rec core.DiagnosticRecord) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	if rec.ID == "" {
		rec.ID = generateID()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	kind := KindDiagnostics
	var authorized sql.NullBool
	if rec.Authorized != nil {
		kind = KindAuthorization
		authorized = sql.NullBool{Bool: *rec.Authorized, Valid: true}
	}

	var findings sql.NullString
	if len(rec.Findings) > 0 {
		b, err := json.Marshal(rec.Findings)
		if err != nil {
			return fmt.Errorf("failed to encode findings: %w", err)
		}
		findings = sql.NullString{String: string(b), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO decisions (
			id, kind, session_id, dataset, target, row_count, column_count, verdict,
			total, critical, warning, safe, findings, duration_ms, authorized, trace_id, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, kind, rec.SessionID, rec.Dataset, rec.Target, rec.Rows, rec.Columns, rec.Verdict.String(),
		rec.Summary.Total, rec.Summary.Critical, rec.Summary.Warning, rec.Summary.Safe,
		findings, rec.DurationMS, authorized, rec.TraceID, rec.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to record decision: %w", err)
	}

	s.logger.Debug("decision recorded",
		slog.String("id", rec.ID),
		slog.String("kind", kind),
		slog.String("session", rec.SessionID),
		slog.String("verdict", rec.Verdict.String()))
	return nil
}

const selectColumns = `
	id, session_id, dataset, target, row_count, column_count, verdict,
	total, critical, warning, safe, findings, duration_ms, authorized, trace_id, created_at`

// ListRecords returns the most recent records, newest first.
func (s *Store) ListRecords(ctx context.Context, limit int) ([]core.DiagnosticRecord, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM decisions ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list decisions: %w", err)
	}
	defer rows.Close()

	var records []core.DiagnosticRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate decisions: %w", err)
	}
	return records, nil
}

// GetRecord retrieves a record by ID.
func (s *Store) GetRecord(ctx context.Context, id string) (*core.DiagnosticRecord, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM decisions WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("decision not found: %s", id)
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (core.DiagnosticRecord, error) {
	var (
		rec        core.DiagnosticRecord
		verdict    string
		findings   sql.NullString
		authorized sql.NullBool
		createdAt  string
	)
	err := sc.Scan(
		&rec.ID, &rec.SessionID, &rec.Dataset, &rec.Target, &rec.Rows, &rec.Columns, &verdict,
		&rec.Summary.Total, &rec.Summary.Critical, &rec.Summary.Warning, &rec.Summary.Safe,
		&findings, &rec.DurationMS, &authorized, &rec.TraceID, &createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return rec, err
	}
	if err != nil {
		return rec, fmt.Errorf("failed to scan decision: %w", err)
	}

	if v, ok := core.ParseVerdict(verdict); ok {
		rec.Verdict = v
	}
	if findings.Valid {
		if err := json.Unmarshal([]byte(findings.String), &rec.Findings); err != nil {
			return rec, fmt.Errorf("failed to decode findings of %s: %w", rec.ID, err)
		}
	}
	if authorized.Valid {
		b := authorized.Bool
		rec.Authorized = &b
	}
	if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return rec, fmt.Errorf("failed to parse created_at of %s: %w", rec.ID, err)
	}
	return rec, nil
}

// generateID creates a new UUID.
func generateID() string {
	return uuid.New().String()
}
