// Package session owns the diagnostic lifecycle of a single dataset.
//
// A Session moves forward through NO_SESSION, DATA_LOADED, TARGET_SELECTED,
// DIAGNOSTICS_RUNNING, MODEL_DECIDED and MODEL_EXECUTION. Reset is the only
// backward move. Every failed operation leaves the session exactly as it was.
//
// A Session is an explicit object owned by whichever boundary drives it (a CLI
// command, the HTTP server, the interactive shell). It is safe for concurrent
// use: transitions are serialized by a mutex that is released while the
// diagnostic pipeline runs.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/leapstack-labs/leapgate/internal/classifier"
	"github.com/leapstack-labs/leapgate/internal/profiler"
	"github.com/leapstack-labs/leapgate/internal/report"
	"github.com/leapstack-labs/leapgate/internal/verdict"
	"github.com/leapstack-labs/leapgate/pkg/core"
)

// DefaultBudget bounds a single diagnostic run.
const DefaultBudget = 60 * time.Second

const tracerName = "github.com/leapstack-labs/leapgate/internal/session"

// Profiler computes metrics for a dataset and its target column.
type Profiler interface {
	Profile(ctx context.Context, ds *core.Dataset, target string) (*profiler.Metrics, error)
}

// Classifier maps metrics onto findings.
type Classifier interface {
	Classify(m *profiler.Metrics) ([]core.Finding, error)
}

// Recorder persists decision records. Recording happens after a transition
// has committed; a failing recorder never rolls the session back.
type Recorder interface {
	Record(ctx context.Context, rec core.DiagnosticRecord) error
}

// Config holds session configuration.
type Config struct {
	// Profiler defaults to a profiler with default settings.
	Profiler Profiler
	// Classifier defaults to a classifier with the default thresholds.
	Classifier Classifier
	// Budget bounds a diagnostic run. Zero means DefaultBudget.
	Budget time.Duration
	// Recorder receives completed runs and authorization decisions (optional).
	Recorder Recorder
	// Tracer defaults to the global OpenTelemetry tracer.
	Tracer trace.Tracer
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// Session is the single mutable root of a diagnostic lifecycle.
type Session struct {
	mu sync.Mutex

	id       string
	state    core.State
	dataset  *core.Dataset
	target   string
	metrics  *profiler.Metrics
	findings []core.Finding
	verdict  core.Verdict
	decided  time.Time
	// generation is bumped by Reset so an in-flight run can detect it.
	generation uint64
	// cancelRun aborts the in-flight run, if any.
	cancelRun context.CancelFunc

	profiler   Profiler
	classifier Classifier
	budget     time.Duration
	recorder   Recorder
	tracer     trace.Tracer
	logger     *slog.Logger
	now        func() time.Time
}

// New creates a session in NO_SESSION.
func New(cfg Config) (*Session, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	prof := cfg.Profiler
	if prof == nil {
		prof = profiler.New(profiler.Config{Logger: logger})
	}

	cls := cfg.Classifier
	if cls == nil {
		c, err := classifier.New(classifier.Config{Logger: logger})
		if err != nil {
			return nil, fmt.Errorf("failed to create classifier: %w", err)
		}
		cls = c
	}

	budget := cfg.Budget
	if budget <= 0 {
		budget = DefaultBudget
	}

	tracer := cfg.Tracer
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Session{
		state:      core.StateNoSession,
		profiler:   prof,
		classifier: cls,
		budget:     budget,
		recorder:   cfg.Recorder,
		tracer:     tracer,
		logger:     logger,
		now:        now,
	}, nil
}

// Snapshot is a read-only view of the session.
type Snapshot struct {
	ID       string       `json:"id,omitempty"`
	State    core.State   `json:"state"`
	Dataset  string       `json:"dataset,omitempty"`
	Rows     int          `json:"rows"`
	Columns  int          `json:"columns"`
	Target   string       `json:"target,omitempty"`
	Verdict  core.Verdict `json:"verdict"`
	Findings int          `json:"findings"`
}

// Snapshot returns the current view of the session. DIAGNOSTICS_RUNNING is
// observable here while a run is in flight.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ID:       s.id,
		State:    s.state,
		Target:   s.target,
		Verdict:  s.verdict,
		Findings: len(s.findings),
	}
	if s.dataset != nil {
		snap.Dataset = s.dataset.Name()
		snap.Rows = s.dataset.RowCount()
		snap.Columns = s.dataset.ColumnCount()
	}
	return snap
}

// State returns the current lifecycle state.
func (s *Session) State() core.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LoadDataset attaches ds to a fresh session. It is only allowed from
// NO_SESSION; replacing a dataset requires Reset first.
func (s *Session) LoadDataset(ds *core.Dataset) error {
	if ds == nil {
		return fmt.Errorf("cannot load a nil dataset")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := check(core.OpLoadDataset, s.state)
	if err != nil {
		return err
	}

	s.id = uuid.New().String()
	s.dataset = ds
	s.state = next

	s.logger.Info("dataset loaded",
		slog.String("session", s.id),
		slog.String("dataset", ds.Name()),
		slog.Int("rows", ds.RowCount()),
		slog.Int("columns", ds.ColumnCount()))
	return nil
}

// ListColumns returns the dataset schema so a caller can choose a target.
func (s *Session) ListColumns() ([]core.Column, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := check(core.OpListColumns, s.state); err != nil {
		return nil, err
	}
	return s.dataset.Columns(), nil
}

// SelectTarget names the target column. It may be repeated until diagnostics run.
func (s *Session) SelectTarget(column string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := check(core.OpSelectTarget, s.state)
	if err != nil {
		return err
	}
	if !s.dataset.HasColumn(column) {
		return &core.UnknownColumnError{Column: column, Available: s.dataset.ColumnNames()}
	}

	s.target = column
	s.state = next

	s.logger.Debug("target selected", slog.String("session", s.id), slog.String("target", column))
	return nil
}

// RunDiagnostics profiles the dataset, classifies the metrics and synthesizes
// a verdict. The session enters DIAGNOSTICS_RUNNING before any work starts, so
// concurrent calls fail fast with an InvalidStateError.
//
// On failure the session returns to TARGET_SELECTED and a ProfilingError is
// returned. If the session is reset while the run is in flight, the result is
// discarded and core.ErrSessionReset is returned.
func (s *Session) RunDiagnostics(ctx context.Context) (core.Verdict, error) {
	ctx, span := s.tracer.Start(ctx, "session.RunDiagnostics")
	defer span.End()

	s.mu.Lock()
	next, err := check(core.OpRunDiagnostics, s.state)
	if err != nil {
		s.mu.Unlock()
		span.SetStatus(codes.Error, err.Error())
		return core.VerdictNone, err
	}
	s.state = next
	gen := s.generation
	id, ds, target := s.id, s.dataset, s.target
	runCtx, cancel := context.WithCancel(ctx)
	s.cancelRun = cancel
	s.mu.Unlock()
	defer cancel()

	span.SetAttributes(
		attribute.String("session.id", id),
		attribute.String("dataset.name", ds.Name()),
		attribute.String("dataset.target", target),
		attribute.Int("dataset.rows", ds.RowCount()),
		attribute.Int("dataset.columns", ds.ColumnCount()),
	)

	s.logger.Info("diagnostics started", slog.String("session", id), slog.Duration("budget", s.budget))
	start := s.now()
	out, runErr := s.runPipeline(runCtx, ds, target)
	elapsed := s.now().Sub(start)

	s.mu.Lock()
	if s.generation != gen {
		s.mu.Unlock()
		s.logger.Warn("diagnostics discarded after reset", slog.String("session", id))
		span.SetStatus(codes.Error, core.ErrSessionReset.Error())
		return core.VerdictNone, core.ErrSessionReset
	}
	s.cancelRun = nil
	if runErr != nil {
		s.state = core.StateTargetSelected
		s.mu.Unlock()
		s.logger.Error("diagnostics failed", slog.String("session", id), slog.Any("error", runErr))
		span.RecordError(runErr)
		span.SetStatus(codes.Error, runErr.Error())
		return core.VerdictNone, runErr
	}

	s.metrics = out.metrics
	s.findings = out.findings
	s.verdict = out.verdict
	s.decided = s.now()
	s.state = core.StateModelDecided
	rec := s.recordLocked(elapsed, nil)
	s.mu.Unlock()

	span.SetAttributes(attribute.String("diagnostics.verdict", out.verdict.String()))
	s.logger.Info("diagnostics completed",
		slog.String("session", id),
		slog.String("verdict", out.verdict.String()),
		slog.Int("findings", len(out.findings)),
		slog.Duration("elapsed", elapsed))

	s.record(ctx, rec)
	return out.verdict, nil
}

// Report returns the diagnostic report. It is available from MODEL_DECIDED onward.
func (s *Session) Report() (core.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := check(core.OpFetchReport, s.state); err != nil {
		return core.Report{}, err
	}
	return report.Build(report.Input{
		SessionID:   s.id,
		Dataset:     s.dataset.Name(),
		Target:      s.target,
		Metrics:     s.metrics,
		Findings:    s.findings,
		Verdict:     s.verdict,
		GeneratedAt: s.decided,
	}), nil
}

// AuthorizeModeling moves a decided session into MODEL_EXECUTION and returns
// the verdict, ALLOWED or CONSTRAINED. A BLOCKED verdict yields a
// PermissionDeniedError and the session stays in MODEL_DECIDED.
func (s *Session) AuthorizeModeling(ctx context.Context) (core.Verdict, error) {
	ctx, span := s.tracer.Start(ctx, "session.AuthorizeModeling")
	defer span.End()

	s.mu.Lock()
	next, err := check(core.OpAuthorizeModeling, s.state)
	if err != nil {
		s.mu.Unlock()
		span.SetStatus(codes.Error, err.Error())
		return core.VerdictNone, err
	}

	v := s.verdict
	granted := v != core.VerdictBlocked
	var denied error
	if granted {
		s.state = next
	} else {
		denied = &core.PermissionDeniedError{
			Verdict: v,
			Reasons: verdict.Reasons(s.findings, core.SeverityCritical),
		}
	}
	rec := s.recordLocked(0, &granted)
	id := s.id
	s.mu.Unlock()

	span.SetAttributes(
		attribute.String("session.id", id),
		attribute.String("diagnostics.verdict", v.String()),
		attribute.Bool("modeling.authorized", granted),
	)
	s.record(ctx, rec)

	if denied != nil {
		s.logger.Warn("modeling denied", slog.String("session", id), slog.String("verdict", v.String()))
		span.SetStatus(codes.Error, denied.Error())
		return core.VerdictNone, denied
	}
	s.logger.Info("modeling authorized", slog.String("session", id), slog.String("verdict", v.String()))
	return v, nil
}

// Reset discards the dataset, target, findings and verdict and returns the
// session to NO_SESSION. It always succeeds.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.state
	if s.cancelRun != nil {
		s.cancelRun()
		s.cancelRun = nil
	}
	s.id = ""
	s.dataset = nil
	s.target = ""
	s.metrics = nil
	s.findings = nil
	s.verdict = core.VerdictNone
	s.decided = time.Time{}
	s.state = core.StateNoSession
	s.generation++

	s.logger.Debug("session reset", slog.String("from", prev.String()))
}

// recordLocked builds the ledger record for the current state. Callers hold s.mu.
func (s *Session) recordLocked(elapsed time.Duration, authorized *bool) core.DiagnosticRecord {
	summary := core.Summary{Total: len(s.findings)}
	for _, f := range s.findings {
		switch f.Severity {
		case core.SeverityCritical:
			summary.Critical++
		case core.SeverityWarning:
			summary.Warning++
		default:
			summary.Safe++
		}
	}
	rec := core.DiagnosticRecord{
		SessionID:  s.id,
		Dataset:    s.dataset.Name(),
		Target:     s.target,
		Rows:       s.dataset.RowCount(),
		Columns:    s.dataset.ColumnCount(),
		Verdict:    s.verdict,
		Summary:    summary,
		DurationMS: elapsed.Milliseconds(),
		Authorized: authorized,
		CreatedAt:  s.now(),
	}
	if authorized == nil {
		rec.Findings = core.CloneFindings(s.findings)
	}
	return rec
}

// record hands rec to the recorder. The transition has already committed, so
// failures are logged and not returned.
func (s *Session) record(ctx context.Context, rec core.DiagnosticRecord) {
	if s.recorder == nil {
		return
	}
	if sc := trace.SpanFromContext(ctx).SpanContext(); sc.IsValid() {
		rec.TraceID = sc.TraceID().String()
	}
	if err := s.recorder.Record(ctx, rec); err != nil {
		s.logger.Error("failed to record decision",
			slog.String("session", rec.SessionID),
			slog.Any("error", err))
	}
}
