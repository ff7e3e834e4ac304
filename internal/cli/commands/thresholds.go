package commands

import (
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapgate/internal/cli/config"
	"github.com/leapstack-labs/leapgate/internal/cli/output"
)

// NewThresholdsCommand creates the thresholds command.
func NewThresholdsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "thresholds",
		Short: "Show the effective classification thresholds",
		Long: `Print the warning and critical cut-points used to classify each ratio
metric, after applying leapgate.yaml and LEAPGATE_ environment overrides.

A ratio below the warning cut-point is SAFE, a ratio below the critical
cut-point is WARNING and anything else is CRITICAL. A warning cut-point of 0
means any non-zero ratio is a warning.`,
		Example: `  leapgate thresholds
  leapgate thresholds -o yaml > thresholds.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.GetConfig(cmd.Context())
			r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat))
			return renderThresholds(r, cfg.Diagnostics.Thresholds)
		},
	}
}
