package main

import (
	"github.com/spf13/cobra"
)

func sweepCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Delete artifacts older than the configured TTL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			module, err := flags.module()
			if err != nil {
				return err
			}
			defer module.Close()

			report, err := module.Sweep(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"scanned":   report.Scanned,
				"evicted":   report.Evicted,
				"failed":    report.Failed,
				"forgotten": report.Forgotten,
				"duration":  report.Duration.String(),
			})
		},
	}
}
