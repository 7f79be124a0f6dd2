package main

import (
	"github.com/spf13/cobra"

	"github.com/goliatone/go-markmap/internal/validation"
)

func schemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the outline JSON Schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := cmd.OutOrStdout().Write(validation.OutlineSchema())
			return err
		},
	}
}
