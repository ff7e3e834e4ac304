package commands

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapgate/internal/cli/testutil"
	"github.com/leapstack-labs/leapgate/internal/loader"
	"github.com/leapstack-labs/leapgate/pkg/core"
)

func newTestShell(t *testing.T) (*shell, *testutil.TestRenderer) {
	t.Helper()
	tr := testutil.NewTestRendererMarkdown()
	l, err := loader.New(loader.Config{})
	require.NoError(t, err)

	cmdCtx := &CommandContext{
		Cfg:      testConfig("markdown"),
		Renderer: tr.Renderer,
		Loader:   l,
	}
	sess, err := cmdCtx.NewSession(nil)
	require.NoError(t, err)
	return newShell(cmdCtx, sess), tr
}

func TestShell_Lifecycle(t *testing.T) {
	sh, tr := newTestShell(t)
	ctx := context.Background()
	path := testutil.WriteDataset(t, "clean.csv", testutil.CleanCSV)

	assert.Equal(t, "leapgate> ", sh.prompt())

	assert.False(t, sh.exec(ctx, "load "+path))
	assert.Contains(t, tr.Output(), "Loaded clean.csv: 5 rows x 4 columns")
	assert.Equal(t, "leapgate [data_loaded]> ", sh.prompt())
	assert.ElementsMatch(t, []string{"id", "age", "city", "label"}, sh.columnNames())

	sh.exec(ctx, "target label")
	assert.Equal(t, core.StateTargetSelected, sh.sess.State())

	sh.exec(ctx, "run")
	assert.Contains(t, tr.Output(), "Verdict: ALLOWED")

	tr.Reset()
	sh.exec(ctx, "report")
	assert.Contains(t, tr.Output(), "# Diagnostic Report")

	sh.exec(ctx, "authorize")
	assert.Contains(t, tr.Output(), "Modeling authorized")
	assert.Equal(t, core.StateModelExecution, sh.sess.State())

	tr.Reset()
	sh.exec(ctx, "status")
	assert.Contains(t, tr.Output(), "state MODEL_EXECUTION")
	assert.Contains(t, tr.Output(), "verdict ALLOWED")

	sh.exec(ctx, "reset")
	assert.Equal(t, core.StateNoSession, sh.sess.State())
	assert.Empty(t, tr.ErrorOutput())
}

func TestShell_ErrorsAndHints(t *testing.T) {
	sh, tr := newTestShell(t)
	ctx := context.Background()

	tests := []struct {
		line string
		want []string
	}{
		{"run", []string{"Error: cannot", "Hint: load a dataset first"}},
		{"load", []string{"usage: load <path>"}},
		{"frobnicate", []string{`unknown command "frobnicate"`}},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			tr.Reset()
			assert.False(t, sh.exec(ctx, tt.line))
			for _, want := range tt.want {
				assert.Contains(t, tr.ErrorOutput(), want)
			}
		})
	}

	path := testutil.WriteDataset(t, "clean.csv", testutil.CleanCSV)
	sh.exec(ctx, "load "+path)

	tr.Reset()
	sh.exec(ctx, "target nope")
	assert.Contains(t, tr.ErrorOutput(), "Hint: list the columns with columns")
	assert.Equal(t, core.StateDataLoaded, sh.sess.State())
}

func TestShell_BlockedAuthorization(t *testing.T) {
	sh, tr := newTestShell(t)
	ctx := context.Background()
	path := testutil.WriteDataset(t, "constant.csv", testutil.ConstantTargetCSV)

	for _, line := range []string{"load " + path, "target label", "run", "authorize"} {
		sh.exec(ctx, line)
	}
	assert.Contains(t, tr.Output(), "Verdict: BLOCKED")
	assert.Contains(t, tr.ErrorOutput(), "Hint: fix the critical findings")
	assert.Equal(t, core.StateModelDecided, sh.sess.State())
}

func TestShell_MiscCommands(t *testing.T) {
	sh, tr := newTestShell(t)
	ctx := context.Background()

	assert.False(t, sh.exec(ctx, ""))
	assert.False(t, sh.exec(ctx, "   "))

	sh.exec(ctx, "help")
	assert.Contains(t, tr.Output(), "target <column>")

	tr.Reset()
	sh.exec(ctx, "formats")
	assert.Contains(t, tr.Output(), "parquet")

	for _, line := range []string{"quit", "exit", "QUIT"} {
		assert.True(t, sh.exec(ctx, line), line)
	}
}

func TestHintFor(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&core.InvalidStateError{Current: core.StateDataLoaded}, "select a target"},
		{&core.InvalidStateError{Current: core.StateTargetSelected}, "run diagnostics"},
		{&core.InvalidStateError{Current: core.StateModelDecided}, "reset"},
		{&core.UnknownColumnError{Column: "x"}, "columns"},
		{&core.PermissionDeniedError{}, "fix the critical"},
		{assert.AnError, ""},
	}
	for _, tt := range tests {
		got := hintFor(tt.err)
		if tt.want == "" {
			assert.Empty(t, got)
			continue
		}
		assert.True(t, strings.Contains(got, tt.want), "hintFor(%v) = %q", tt.err, got)
	}
}
