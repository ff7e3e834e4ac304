package commands

import (
	"github.com/spf13/cobra"
)

// NewColumnsCommand creates the columns command.
func NewColumnsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "columns <dataset>",
		Short: "List the columns of a dataset with their inferred types",
		Long: `Load a dataset and list its columns with the type inferred for each:
numeric, categorical, boolean or datetime. Use it to pick a target column.`,
		Example: `  leapgate columns train.csv
  leapgate columns events.ndjson --output json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			sess, err := cmdCtx.NewSession(nil)
			if err != nil {
				return err
			}
			ds, err := cmdCtx.LoadDataset(cmd.Context(), sess, args[0])
			if err != nil {
				return err
			}
			cols, err := sess.ListColumns()
			if err != nil {
				return err
			}
			return renderColumns(cmdCtx.Renderer, ds.Name(), cols)
		},
	}
	cmd.Flags().Int("max-file-mb", 0, "Reject dataset files larger than this")
	return cmd
}
