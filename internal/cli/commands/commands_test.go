package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapgate/internal/cli/config"
	"github.com/leapstack-labs/leapgate/internal/cli/testutil"
	"github.com/leapstack-labs/leapgate/pkg/core"
)

// testConfig returns defaults with an in-memory ledger and the given output mode.
func testConfig(mode string) *config.Config {
	cfg := config.Default()
	cfg.LedgerPath = ":memory:"
	cfg.OutputFormat = mode
	return cfg
}

// execute runs cmd with cfg on its context and returns stdout and stderr.
func execute(t *testing.T, cmd *cobra.Command, cfg *config.Config, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	err := cmd.ExecuteContext(config.WithConfig(context.Background(), cfg))
	return out.String(), errOut.String(), err
}

func TestCommandMetadata(t *testing.T) {
	tests := []struct {
		cmd   *cobra.Command
		use   string
		flags []string
	}{
		{NewCheckCommand(), "check <dataset>", []string{"target", "authorize", "watch", "budget", "workers", "complexity", "disable", "max-file-mb"}},
		{NewColumnsCommand(), "columns <dataset>", []string{"max-file-mb"}},
		{NewShellCommand(), "shell", []string{"budget", "complexity"}},
		{NewServeCommand(), "serve", []string{"addr", "upload-dir", "budget"}},
		{NewHistoryCommand(), "history", []string{"limit"}},
		{NewThresholdsCommand(), "thresholds", nil},
		{NewFormatsCommand(), "formats", nil},
	}

	for _, tt := range tests {
		t.Run(tt.use, func(t *testing.T) {
			assert.Equal(t, tt.use, tt.cmd.Use)
			assert.NotEmpty(t, tt.cmd.Short)
			for _, name := range tt.flags {
				assert.NotNil(t, tt.cmd.Flags().Lookup(name), "missing flag --%s", name)
			}
		})
	}
}

func TestVersionCommand(t *testing.T) {
	tests := []struct {
		version string
		want    string
	}{
		{"0.1.0", "LeapGate v0.1.0"},
		{"1.2.3-rc1", "LeapGate v1.2.3-rc1"},
	}
	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			out, _, err := execute(t, NewVersionCommand(tt.version), testConfig("text"))
			require.NoError(t, err)
			assert.Contains(t, out, tt.want)
			assert.Contains(t, out, "DuckDB")
		})
	}
}

func TestCheck_CleanDatasetMarkdown(t *testing.T) {
	path := testutil.WriteDataset(t, "clean.csv", testutil.CleanCSV)

	out, _, err := execute(t, NewCheckCommand(), testConfig("markdown"), path, "--target", "label")
	require.NoError(t, err)

	assert.Contains(t, out, "# Diagnostic Report")
	assert.Contains(t, out, "- **Verdict:** ALLOWED")
	assert.Contains(t, out, "| Severity")
	testutil.AssertNoANSI(t, out)
	testutil.AssertValidMarkdown(t, out)
}

func TestCheck_MissingValuesJSON(t *testing.T) {
	path := testutil.WriteDataset(t, "missing.csv", testutil.MissingCSV)

	out, _, err := execute(t, NewCheckCommand(), testConfig("json"), path, "--target", "label")
	require.NoError(t, err)

	var rep core.Report
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Equal(t, core.VerdictConstrained, rep.Verdict)
	assert.Equal(t, "label", rep.Target)
	assert.NotEmpty(t, rep.Warning)
	assert.Empty(t, rep.Critical)
}

func TestCheck_AuthorizeAllowed(t *testing.T) {
	path := testutil.WriteDataset(t, "clean.csv", testutil.CleanCSV)

	out, errOut, err := execute(t, NewCheckCommand(), testConfig("json"), path, "--target", "label", "--authorize")
	require.NoError(t, err)
	assert.Contains(t, errOut, "Modeling authorized")
	assert.NotContains(t, out, "Modeling authorized")
}

func TestCheck_AuthorizeBlocked(t *testing.T) {
	path := testutil.WriteDataset(t, "constant.csv", testutil.ConstantTargetCSV)

	out, errOut, err := execute(t, NewCheckCommand(), testConfig("markdown"), path, "--target", "label", "--authorize")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrPermissionDenied)
	assert.Contains(t, out, "BLOCKED")
	assert.Contains(t, errOut, "Modeling blocked by")
}

func TestCheck_Errors(t *testing.T) {
	path := testutil.WriteDataset(t, "clean.csv", testutil.CleanCSV)

	t.Run("unknown target", func(t *testing.T) {
		_, _, err := execute(t, NewCheckCommand(), testConfig("markdown"), path, "--target", "nope")
		assert.ErrorIs(t, err, core.ErrUnknownColumn)
	})

	t.Run("target required", func(t *testing.T) {
		_, _, err := execute(t, NewCheckCommand(), testConfig("markdown"), path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "target")
	})

	t.Run("unsupported format", func(t *testing.T) {
		bad := testutil.WriteDataset(t, "model.pkl", "binary")
		_, _, err := execute(t, NewCheckCommand(), testConfig("markdown"), bad, "--target", "label")
		assert.ErrorIs(t, err, core.ErrUnsupportedFormat)
	})
}

func TestColumnsCommand(t *testing.T) {
	path := testutil.WriteDataset(t, "clean.csv", testutil.CleanCSV)

	t.Run("markdown", func(t *testing.T) {
		out, _, err := execute(t, NewColumnsCommand(), testConfig("markdown"), path)
		require.NoError(t, err)
		assert.Contains(t, out, "# Columns of clean.csv (4)")
		assert.Contains(t, out, "categorical")
		assert.Contains(t, out, "numeric")
	})

	t.Run("json", func(t *testing.T) {
		out, _, err := execute(t, NewColumnsCommand(), testConfig("json"), path)
		require.NoError(t, err)

		var got struct {
			Dataset string        `json:"dataset"`
			Columns []core.Column `json:"columns"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		assert.Equal(t, "clean.csv", got.Dataset)
		require.Len(t, got.Columns, 4)
		assert.Equal(t, "label", got.Columns[3].Name)
	})
}

func TestHistoryCommand_Empty(t *testing.T) {
	out, _, err := execute(t, NewHistoryCommand(), testConfig("json"))
	require.NoError(t, err)
	assert.JSONEq(t, "[]", out)

	out, _, err = execute(t, NewHistoryCommand(), testConfig("markdown"))
	require.NoError(t, err)
	assert.Contains(t, out, "Decision History (0)")
}

func TestHistoryCommand_AfterCheck(t *testing.T) {
	cfg := testConfig("json")
	cfg.LedgerPath = t.TempDir() + "/ledger.db"
	path := testutil.WriteDataset(t, "clean.csv", testutil.CleanCSV)

	_, _, err := execute(t, NewCheckCommand(), cfg, path, "--target", "label", "--authorize")
	require.NoError(t, err)

	out, _, err := execute(t, NewHistoryCommand(), cfg, "--limit", "10")
	require.NoError(t, err)

	var records []core.DiagnosticRecord
	require.NoError(t, json.Unmarshal([]byte(out), &records))
	require.Len(t, records, 2)
	// Newest first: the authorization follows the diagnostic run.
	require.NotNil(t, records[0].Authorized)
	assert.True(t, *records[0].Authorized)
	assert.Nil(t, records[1].Authorized)
	assert.Equal(t, core.VerdictAllowed, records[1].Verdict)
}

func TestThresholdsCommand(t *testing.T) {
	out, _, err := execute(t, NewThresholdsCommand(), testConfig("markdown"))
	require.NoError(t, err)
	assert.Contains(t, out, "# Classification Thresholds")
	assert.Contains(t, out, "missing")
	assert.Contains(t, out, "30%")
}

func TestFormatsCommand(t *testing.T) {
	out, _, err := execute(t, NewFormatsCommand(), testConfig("markdown"))
	require.NoError(t, err)
	for _, want := range []string{"csv", "tsv", "parquet", "ndjson", "xlsx", ".jsonl"} {
		assert.Contains(t, out, want)
	}
}
