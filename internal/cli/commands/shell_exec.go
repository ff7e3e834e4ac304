package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/leapstack-labs/leapgate/internal/loader"
	"github.com/leapstack-labs/leapgate/internal/session"
	"github.com/leapstack-labs/leapgate/pkg/core"
)

// shell owns the session of an interactive run.
type shell struct {
	cmdCtx *CommandContext
	sess   *session.Session
	out    io.Writer
	errOut io.Writer
}

func newShell(cmdCtx *CommandContext, sess *session.Session) *shell {
	return &shell{
		cmdCtx: cmdCtx,
		sess:   sess,
		out:    cmdCtx.Renderer.Writer(),
		errOut: cmdCtx.Renderer.ErrWriter(),
	}
}

// exec runs one shell line and reports whether the shell should exit.
func (s *shell) exec(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	command, args := strings.ToLower(fields[0]), fields[1:]

	var err error
	switch command {
	case "quit", "exit", ".quit", ".exit":
		return true
	case "help", "?":
		printShellHelp(s.out)
	case "load":
		err = s.load(ctx, args)
	case "columns":
		err = s.columns()
	case "target":
		err = s.target(args)
	case "run":
		err = s.run(ctx)
	case "report":
		err = s.report()
	case "authorize":
		err = s.authorize(ctx)
	case "status":
		err = renderSnapshot(s.cmdCtx.Renderer, s.sess.Snapshot())
	case "reset":
		s.sess.Reset()
		_, _ = fmt.Fprintln(s.out, "Session reset")
	case "formats":
		err = renderFormats(s.cmdCtx.Renderer, loader.Formats())
	default:
		err = fmt.Errorf("unknown command %q (type help for commands)", command)
	}

	if err != nil {
		_, _ = fmt.Fprintf(s.errOut, "Error: %v\n", err)
		if hint := hintFor(err); hint != "" {
			_, _ = fmt.Fprintf(s.errOut, "Hint: %s\n", hint)
		}
	}
	return false
}

func (s *shell) load(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: load <path>")
	}
	ds, err := s.cmdCtx.LoadDataset(ctx, s.sess, args[0])
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(s.out, "Loaded %s: %d rows x %d columns\n", ds.Name(), ds.RowCount(), ds.ColumnCount())
	return nil
}

func (s *shell) columns() error {
	cols, err := s.sess.ListColumns()
	if err != nil {
		return err
	}
	return renderColumns(s.cmdCtx.Renderer, s.sess.Snapshot().Dataset, cols)
}

func (s *shell) target(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: target <column>")
	}
	if err := s.sess.SelectTarget(args[0]); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(s.out, "Target set to %s\n", args[0])
	return nil
}

func (s *shell) run(ctx context.Context) error {
	v, err := s.sess.RunDiagnostics(ctx)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(s.out, "Verdict: %s (type report for details)\n", v)
	return nil
}

func (s *shell) report() error {
	rep, err := s.sess.Report()
	if err != nil {
		return err
	}
	return renderReport(s.cmdCtx.Renderer, rep)
}

func (s *shell) authorize(ctx context.Context) error {
	v, err := s.sess.AuthorizeModeling(ctx)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(s.out, "Modeling authorized (verdict %s)\n", v)
	return nil
}

// hintFor suggests the next step after a failed command.
func hintFor(err error) string {
	var stateErr *core.InvalidStateError
	switch {
	case errors.As(err, &stateErr):
		switch stateErr.Current {
		case core.StateNoSession:
			return "load a dataset first"
		case core.StateDataLoaded:
			return "select a target column with target <column>"
		case core.StateTargetSelected:
			return "run diagnostics with run"
		case core.StateModelDecided, core.StateModelExecution:
			return "reset to start over with another dataset"
		}
	case errors.Is(err, core.ErrUnknownColumn):
		return "list the columns with columns"
	case errors.Is(err, core.ErrPermissionDenied):
		return "fix the critical findings, then reset and load the corrected dataset"
	}
	return ""
}

func printShellHelp(w io.Writer) {
	help := `
Commands:
  load <path>       Load a dataset file
  columns           List columns and inferred types
  target <column>   Select the target column
  run               Run diagnostics
  report            Show the diagnostic report
  authorize         Request modeling permission
  status            Show the session state
  reset             Discard the dataset and start over
  formats           List supported dataset formats
  help              Show this help message
  quit / exit       Leave the shell
`
	_, _ = fmt.Fprintln(w, help)
}
