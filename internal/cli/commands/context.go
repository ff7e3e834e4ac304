package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapgate/internal/classifier"
	"github.com/leapstack-labs/leapgate/internal/cli/config"
	"github.com/leapstack-labs/leapgate/internal/cli/output"
	"github.com/leapstack-labs/leapgate/internal/ledger"
	"github.com/leapstack-labs/leapgate/internal/loader"
	"github.com/leapstack-labs/leapgate/internal/profiler"
	"github.com/leapstack-labs/leapgate/internal/session"
	"github.com/leapstack-labs/leapgate/pkg/core"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
	Loader   *loader.Loader
}

// NewCommandContext creates a CommandContext from the configuration stored
// on the command.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	cfg := config.GetConfig(cmd.Context())
	logger := config.GetLogger(cmd.Context())

	l, err := loader.New(loader.Config{
		MaxFileMB: cfg.Loader.MaxFileMB,
		Params:    cfg.Loader.AdapterParams(),
		Logger:    logger,
	})
	if err != nil {
		return nil, fmt.Errorf("invalid loader configuration: %w", err)
	}

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat)),
		Loader:   l,
	}, nil
}

// OpenLedger opens the decision ledger. The returned cleanup closes it.
func (c *CommandContext) OpenLedger() (*ledger.Store, func(), error) {
	if c.Cfg.LedgerPath != ":memory:" {
		if dir := filepath.Dir(c.Cfg.LedgerPath); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, nil, fmt.Errorf("failed to create ledger directory: %w", err)
			}
		}
	}
	store := ledger.NewStore(c.Logger)
	if err := store.Open(c.Cfg.LedgerPath); err != nil {
		return nil, nil, err
	}
	return store, func() { _ = store.Close() }, nil
}

// NewSession builds a session with the configured profiler, thresholds and
// budget. Decisions are recorded in store when it is not nil.
func (c *CommandContext) NewSession(store *ledger.Store) (*session.Session, error) {
	cls, err := classifier.New(classifier.Config{
		Thresholds:     c.Cfg.Diagnostics.Thresholds,
		DisabledChecks: c.Cfg.Diagnostics.DisabledChecks(),
		Logger:         c.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("invalid classifier configuration: %w", err)
	}

	cfg := session.Config{
		Profiler: profiler.New(profiler.Config{
			Workers:    c.Cfg.Diagnostics.Workers,
			Complexity: c.Cfg.Diagnostics.Complexity,
			Logger:     c.Logger,
		}),
		Classifier: cls,
		Budget:     c.Cfg.Diagnostics.Budget,
		Logger:     c.Logger,
	}
	if store != nil {
		cfg.Recorder = store
	}
	return session.New(cfg)
}

// LoadDataset reads path and loads it into sess.
func (c *CommandContext) LoadDataset(ctx context.Context, sess *session.Session, path string) (*core.Dataset, error) {
	ds, err := c.Loader.Load(ctx, path)
	if err != nil {
		return nil, err
	}
	if err := sess.LoadDataset(ds); err != nil {
		return nil, err
	}
	return ds, nil
}
