package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapgate/internal/loader"
	"github.com/leapstack-labs/leapgate/pkg/core"
)

// NewShellCommand creates the shell command.
func NewShellCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Drive a diagnostic session interactively",
		Long: `Start an interactive shell that owns one diagnostic session. Load a dataset,
inspect its columns, select a target, run diagnostics and request modeling
permission step by step. Type help for the list of commands.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runShell(cmd)
		},
	}
	addDiagnosticsFlags(cmd)
	return cmd
}

func runShell(cmd *cobra.Command) error {
	ctx := cmd.Context()

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
	sh := newShell(cmdCtx, sess)

	historyFile := ""
	if cmdCtx.Cfg.LedgerPath != ":memory:" {
		historyFile = filepath.Join(filepath.Dir(cmdCtx.Cfg.LedgerPath), "shell_history")
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          sh.prompt(),
		HistoryFile:     historyFile,
		AutoComplete:    sh.completer(),
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
		Stdout:          cmd.OutOrStdout(),
		Stderr:          cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize shell: %w", err)
	}
	defer func() { _ = rl.Close() }()

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "LeapGate interactive session")
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Type help for commands, quit to exit")
	_, _ = fmt.Fprintln(cmd.OutOrStdout())

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}
		if sh.exec(ctx, line) {
			break
		}
		rl.SetPrompt(sh.prompt())
	}
	return nil
}

// completer offers commands, dataset files for load and columns for target.
func (s *shell) completer() *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem("load", readline.PcItemDynamic(datasetFiles)),
		readline.PcItem("columns"),
		readline.PcItem("target", readline.PcItemDynamic(func(string) []string { return s.columnNames() })),
		readline.PcItem("run"),
		readline.PcItem("report"),
		readline.PcItem("authorize"),
		readline.PcItem("status"),
		readline.PcItem("reset"),
		readline.PcItem("formats"),
		readline.PcItem("help"),
		readline.PcItem("quit"),
	)
}

// datasetFiles lists files in the working directory with a supported extension.
func datasetFiles(string) []string {
	entries, err := os.ReadDir(".")
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, err := loader.Detect(e.Name()); err == nil {
			names = append(names, e.Name())
		}
	}
	return names
}

func (s *shell) columnNames() []string {
	cols, err := s.sess.ListColumns()
	if err != nil {
		return nil
	}
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return names
}

func (s *shell) prompt() string {
	state := s.sess.State()
	if state == core.StateNoSession {
		return "leapgate> "
	}
	return fmt.Sprintf("leapgate [%s]> ", strings.ToLower(state.String()))
}
