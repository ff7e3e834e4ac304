package commands

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapgate/internal/cli/output"
	"github.com/leapstack-labs/leapgate/internal/session"
	"github.com/leapstack-labs/leapgate/pkg/core"
)

// watchDebounce coalesces the burst of events an editor save produces.
const watchDebounce = 200 * time.Millisecond

// CheckOptions holds options for the check command.
type CheckOptions struct {
	Target    string
	Authorize bool
	Watch     bool
}

// NewCheckCommand creates the check command.
func NewCheckCommand() *cobra.Command {
	opts := &CheckOptions{}

	cmd := &cobra.Command{
		Use:   "check <dataset>",
		Short: "Run diagnostics on a dataset and print the verdict",
		Long: `Load a dataset, select the target column, run the structural diagnostics
and print the report with its verdict.

With --authorize the command also asks for modeling permission and exits
with an error when the verdict is BLOCKED, which makes it usable as a gate
in scripts and CI pipelines.

With --watch the lifecycle is reset and re-run every time the file changes.`,
		Example: `  # Diagnose a CSV file
  leapgate check train.csv --target label

  # Gate a pipeline on the verdict
  leapgate check train.parquet --target churned --authorize

  # Re-run on every save, including the complexity checks
  leapgate check train.csv --target label --watch --complexity`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Target, "target", "t", "", "Target column (required)")
	cmd.Flags().BoolVar(&opts.Authorize, "authorize", false, "Request modeling permission after diagnostics")
	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "Re-run diagnostics when the file changes")
	addDiagnosticsFlags(cmd)
	_ = cmd.MarkFlagRequired("target")

	return cmd
}

// addDiagnosticsFlags registers the flags that override diagnostics configuration.
func addDiagnosticsFlags(cmd *cobra.Command) {
	cmd.Flags().Duration("budget", 0, "Time budget for a diagnostic run (default 60s)")
	cmd.Flags().Int("workers", 0, "Concurrent column scans (default GOMAXPROCS)")
	cmd.Flags().Bool("complexity", false, "Also run the cardinality, outlier and multicollinearity checks")
	cmd.Flags().StringSlice("disable", nil, "Optional checks to skip, by name (complexity checks, dataset_schema_anomalies)")
	cmd.Flags().Int("max-file-mb", 0, "Reject dataset files larger than this")
}

func runCheck(cmd *cobra.Command, path string, opts *CheckOptions) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	store, cleanup, err := cmdCtx.OpenLedger()
	if err != nil {
		return err
	}
	defer cleanup()

	sess, err := cmdCtx.NewSession(store)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	err = checkOnce(ctx, cmdCtx, sess, path, opts)
	if !opts.Watch {
		return err
	}
	if err != nil {
		cmdCtx.Renderer.Error("Error: " + err.Error())
	}
	return watchFile(ctx, cmdCtx, path, func() {
		sess.Reset()
		cmdCtx.Renderer.Muted(fmt.Sprintf("\n%s changed, re-running diagnostics", filepath.Base(path)))
		if err := checkOnce(ctx, cmdCtx, sess, path, opts); err != nil {
			cmdCtx.Renderer.Error("Error: " + err.Error())
		}
	})
}

// checkOnce drives one full lifecycle: load, select target, run, report and
// optionally authorize.
func checkOnce(ctx context.Context, cmdCtx *CommandContext, sess *session.Session, path string, opts *CheckOptions) error {
	if _, err := cmdCtx.LoadDataset(ctx, sess, path); err != nil {
		return err
	}
	if err := sess.SelectTarget(opts.Target); err != nil {
		return err
	}
	if _, err := sess.RunDiagnostics(ctx); err != nil {
		return err
	}

	rep, err := sess.Report()
	if err != nil {
		return err
	}
	if err := renderReport(cmdCtx.Renderer, rep); err != nil {
		return err
	}

	if !opts.Authorize {
		return nil
	}
	v, err := sess.AuthorizeModeling(ctx)
	var denied *core.PermissionDeniedError
	if errors.As(err, &denied) {
		cmdCtx.Renderer.Error(fmt.Sprintf("Modeling blocked by %d critical finding(s)", len(denied.Reasons)))
		return err
	}
	if err != nil {
		return err
	}
	msg := "Modeling authorized"
	if v == core.VerdictConstrained {
		msg += " with constraints: review the warnings before training"
	}
	switch cmdCtx.Renderer.EffectiveMode() {
	case output.ModeJSON, output.ModeYAML:
		// Keep structured stdout parseable.
		_, _ = fmt.Fprintln(cmdCtx.Renderer.ErrWriter(), msg)
	default:
		cmdCtx.Renderer.Success(msg)
	}
	return nil
}

// watchFile calls onChange after every debounced write to path until ctx is done.
func watchFile(ctx context.Context, cmdCtx *CommandContext, path string, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	// Editors often replace the file, so watch its directory.
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}
	cmdCtx.Renderer.Muted(fmt.Sprintf("Watching %s for changes (Ctrl+C to stop)", filepath.Base(path)))

	var debounce <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			debounce = time.After(watchDebounce)

		case <-debounce:
			debounce = nil
			onChange()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			cmdCtx.Logger.Error("watcher error", "error", err)
		}
	}
}
