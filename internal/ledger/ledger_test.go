package ledger

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapgate/internal/testutil"
	"github.com/leapstack-labs/leapgate/pkg/core"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	store := NewStore(testutil.NewTestLogger(t))
	require.NoError(t, store.Open(":memory:"))
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleRun(at time.Time) core.DiagnosticRecord {
	return core.DiagnosticRecord{
		SessionID: "session-1",
		Dataset:   "train.csv",
		Target:    "label",
		Rows:      100,
		Columns:   4,
		Verdict:   core.VerdictConstrained,
		Summary:   core.Summary{Total: 2, Warning: 1, Safe: 1},
		Findings: []core.Finding{
			{CheckName: "dataset_missing_ratio", Category: core.CategoryMissingness, Severity: core.SeverityWarning, Metric: 0.12, AffectedColumns: []string{"age"}},
			{CheckName: "dataset_duplicates_ratio", Category: core.CategoryDuplication, Severity: core.SeveritySafe},
		},
		DurationMS: 42,
		TraceID:    "4bf92f3577b34da6a3ce929d0e0e4736",
		CreatedAt:  at,
	}
}

func TestStore_OpenClose(t *testing.T) {
	store := NewStore(nil)
	require.NoError(t, store.Open(":memory:"))

	version, err := store.MigrationVersion()
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	require.NoError(t, store.Close())
}

func TestStore_NotOpened(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()

	assert.Error(t, store.Record(ctx, core.DiagnosticRecord{}))
	_, err := store.ListRecords(ctx, 10)
	assert.Error(t, err)
	_, err = store.GetRecord(ctx, "x")
	assert.Error(t, err)
	assert.Error(t, store.Migrate())
	assert.NoError(t, store.Close())
}

func TestStore_RecordAndGet(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	rec := sampleRun(at)
	rec.ID = "run-1"
	require.NoError(t, store.Record(ctx, rec))

	got, err := store.GetRecord(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, rec, *got)
}

func TestStore_RecordAuthorization(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	denied := false
	rec := core.DiagnosticRecord{
		ID:         "auth-1",
		SessionID:  "session-1",
		Dataset:    "train.csv",
		Verdict:    core.VerdictBlocked,
		Authorized: &denied,
		CreatedAt:  time.Now(),
	}
	require.NoError(t, store.Record(ctx, rec))

	got, err := store.GetRecord(ctx, "auth-1")
	require.NoError(t, err)
	require.NotNil(t, got.Authorized)
	assert.False(t, *got.Authorized)
	assert.Empty(t, got.Findings)
	assert.Equal(t, core.VerdictBlocked, got.Verdict)
}

func TestStore_ListRecordsNewestFirst(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		rec := sampleRun(base.Add(time.Duration(i) * time.Minute))
		rec.Dataset = []string{"a", "b", "c", "d", "e"}[i]
		require.NoError(t, store.Record(ctx, rec))
	}

	records, err := store.ListRecords(ctx, 3)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "e", records[0].Dataset)
	assert.Equal(t, "d", records[1].Dataset)
	assert.Equal(t, "c", records[2].Dataset)
	for _, r := range records {
		assert.NotEmpty(t, r.ID)
	}
}

func TestStore_GetRecordNotFound(t *testing.T) {
	store := setupTestStore(t)
	_, err := store.GetRecord(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	ctx := context.Background()

	store := NewStore(nil)
	require.NoError(t, store.Open(path))
	require.NoError(t, store.Record(ctx, sampleRun(time.Now())))
	require.NoError(t, store.Close())

	reopened := NewStore(nil)
	require.NoError(t, reopened.Open(path))
	defer reopened.Close()

	records, err := reopened.ListRecords(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, path, reopened.Path())
}

func TestStore_RecordInsertFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO decisions").WillReturnError(errors.New("disk I/O error"))

	store := NewWithDB(db, nil)
	err = store.Record(context.Background(), sampleRun(time.Now()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to record decision")
	assert.Contains(t, err.Error(), "disk I/O error")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_ListQueryFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM decisions").WillReturnError(errors.New("database is locked"))

	store := NewWithDB(db, nil)
	_, err = store.ListRecords(context.Background(), 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database is locked")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_CorruptFindings(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	cols := []string{"id", "session_id", "dataset", "target", "row_count", "column_count", "verdict",
		"total", "critical", "warning", "safe", "findings", "duration_ms", "authorized", "trace_id", "created_at"}
	mock.ExpectQuery("SELECT (.+) FROM decisions WHERE id").
		WithArgs("bad").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(
			"bad", "s", "d.csv", "y", 1, 1, "ALLOWED", 1, 0, 0, 1, "{not json", 3, nil, "", "2026-03-01T12:00:00Z"))

	store := NewWithDB(db, nil)
	_, err = store.GetRecord(context.Background(), "bad")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode findings")
}
