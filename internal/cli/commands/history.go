package commands

import (
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapgate/internal/ledger"
)

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded diagnostic runs and authorization decisions",
		Long: `List the decision ledger, newest first. Every completed diagnostic run and
every authorization decision is recorded with its verdict and finding counts.`,
		Example: `  leapgate history
  leapgate history --limit 50 --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			store, cleanup, err := cmdCtx.OpenLedger()
			if err != nil {
				return err
			}
			defer cleanup()

			records, err := store.ListRecords(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return renderRecords(cmdCtx.Renderer, records)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", ledger.DefaultListLimit, "Maximum number of entries")
	return cmd
}
