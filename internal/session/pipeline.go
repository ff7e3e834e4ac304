package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/leapgate/internal/profiler"
	"github.com/leapstack-labs/leapgate/internal/verdict"
	"github.com/leapstack-labs/leapgate/pkg/core"
)

// Pipeline stages, reported in ProfilingError.Stage.
const (
	StageProfile    = "profile"
	StageClassify   = "classify"
	StageSynthesize = "synthesize"
)

// outcome is the complete result of one diagnostic run.
type outcome struct {
	metrics  *profiler.Metrics
	findings []core.Finding
	verdict  core.Verdict
}

type pipelineResult struct {
	out *outcome
	err error
}

// runPipeline runs profile, classify and synthesize under the session budget.
// Panics and budget overruns are reported as ProfilingErrors.
func (s *Session) runPipeline(ctx context.Context, ds *core.Dataset, target string) (*outcome, error) {
	ctx, cancel := context.WithTimeout(ctx, s.budget)
	defer cancel()

	done := make(chan pipelineResult, 1)
	go func() {
		stage := StageProfile
		var res pipelineResult
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("diagnostic pipeline panicked", slog.String("stage", stage), slog.Any("panic", r))
				res = pipelineResult{err: &core.ProfilingError{Stage: stage, Err: fmt.Errorf("panic: %v", r)}}
			}
			done <- res
		}()

		m, err := s.profiler.Profile(ctx, ds, target)
		if err != nil {
			res.err = &core.ProfilingError{Stage: stage, Err: err}
			return
		}
		if m == nil {
			res.err = &core.ProfilingError{Stage: stage, Err: errors.New("profiler returned no metrics")}
			return
		}

		stage = StageClassify
		findings, err := s.classifier.Classify(m)
		if err != nil {
			res.err = &core.ProfilingError{Stage: stage, Err: err}
			return
		}

		stage = StageSynthesize
		res.out = &outcome{
			metrics:  m,
			findings: findings,
			verdict:  verdict.Synthesize(findings),
		}
	}()

	select {
	case res := <-done:
		if res.err != nil && ctx.Err() != nil {
			return nil, s.budgetError(ctx)
		}
		return res.out, res.err
	case <-ctx.Done():
		return nil, s.budgetError(ctx)
	}
}

func (s *Session) budgetError(ctx context.Context) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &core.ProfilingError{
			Stage: StageProfile,
			Err:   fmt.Errorf("exceeded diagnostics budget of %s: %w", s.budget, ctx.Err()),
		}
	}
	return &core.ProfilingError{Stage: StageProfile, Err: fmt.Errorf("diagnostics cancelled: %w", ctx.Err())}
}
