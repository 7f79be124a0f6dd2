package main

import (
	"github.com/spf13/cobra"

	"github.com/goliatone/go-markmap/pkg/interfaces"
)

func outlineCmd(flags *globalFlags) *cobra.Command {
	var title string
	var tree bool

	cmd := &cobra.Command{
		Use:   "outline <file|->",
		Short: "Print the outline JSON of a Markdown file without storing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			module, err := flags.module()
			if err != nil {
				return err
			}
			defer module.Close()

			if tree {
				return printJSON(cmd.OutOrStdout(), module.ParseOutline(string(data)))
			}
			doc, err := module.Render(cmd.Context(), string(data), title, interfaces.ArtifactOutline)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(append(doc, '\n'))
			return err
		},
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "Document title")
	cmd.Flags().BoolVar(&tree, "tree", false, "Print the raw heading tree with depths")
	return cmd
}
