package report

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapgate/internal/profiler"
	"github.com/leapstack-labs/leapgate/internal/testutil"
	"github.com/leapstack-labs/leapgate/pkg/core"
)

func TestBuild_GroupsBySeverity(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	findings := []core.Finding{
		{CheckName: "a", Severity: core.SeveritySafe},
		{CheckName: "b", Severity: core.SeverityCritical, AffectedColumns: []string{"x"}},
		{CheckName: "c", Severity: core.SeverityWarning},
		{CheckName: "d", Severity: core.SeveritySafe},
	}

	r := Build(Input{
		SessionID:   "s-1",
		Dataset:     "data.csv",
		Target:      "y",
		Findings:    findings,
		Verdict:     core.VerdictBlocked,
		GeneratedAt: now,
	})

	assert.Equal(t, core.Summary{Total: 4, Critical: 1, Warning: 1, Safe: 2}, r.Summary)
	assert.Equal(t, core.VerdictBlocked, r.Verdict)
	require.Len(t, r.Critical, 1)
	assert.Equal(t, "b", r.Critical[0].CheckName)
	require.Len(t, r.Warning, 1)
	assert.Equal(t, "c", r.Warning[0].CheckName)
	require.Len(t, r.Passed, 2)
	assert.Equal(t, "a", r.Passed[0].CheckName)
	assert.Equal(t, now, r.GeneratedAt)

	r.Critical[0].AffectedColumns[0] = "mutated"
	assert.Equal(t, "x", findings[1].AffectedColumns[0])
}

func TestBuild_EmptyListsAreNotNil(t *testing.T) {
	r := Build(Input{Verdict: core.VerdictAllowed})
	assert.NotNil(t, r.Critical)
	assert.NotNil(t, r.Warning)
	assert.NotNil(t, r.Passed)
	assert.Zero(t, r.Summary.Total)
}

func TestBuild_KeyFacts(t *testing.T) {
	ds := testutil.CleanDataset(t)
	m, err := profiler.New(profiler.Config{}).Profile(context.Background(), ds, "label")
	require.NoError(t, err)

	r := Build(Input{Metrics: m})
	kf := r.KeyFacts
	assert.Equal(t, 5, kf.Size.Rows)
	assert.Equal(t, 4, kf.Size.Columns)
	assert.Equal(t, "5 x 4", kf.Size.Shape)
	assert.Equal(t, "small", kf.Size.Scale)
	assert.Equal(t, "light", kf.Memory.Class)
	assert.Equal(t, 0.0, kf.Memory.UsageMB)
	assert.Equal(t, "Moderate Mix (Leaning Categorical)", kf.FeatureMix.Type)
	assert.Equal(t, 0.5, kf.FeatureMix.NumericRatio)
	assert.Equal(t, 2, kf.FeatureMix.Counts[core.ColumnNumeric])
}

func TestRound(t *testing.T) {
	assert.Equal(t, 1.23, round(1.2345, 2))
	assert.Equal(t, 0.667, round(2.0/3.0, 3))
}
