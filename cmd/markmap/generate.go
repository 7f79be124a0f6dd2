package main

import (
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-markmap/internal/domain"
	"github.com/goliatone/go-markmap/pkg/interfaces"
)

type generateOutput struct {
	ID        string            `json:"id"`
	Title     string            `json:"title"`
	Artifacts map[string]string `json:"artifacts"`
	Failures  map[string]string `json:"failures,omitempty"`
	Warnings  map[string]string `json:"warnings,omitempty"`
}

func generateCmd(flags *globalFlags) *cobra.Command {
	var title string

	cmd := &cobra.Command{
		Use:   "generate <file|->",
		Short: "Generate and store every artifact format for a Markdown file",
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

			if strings.TrimSpace(title) == "" && args[0] != "-" {
				title = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
			}
			result, err := module.Generate(cmd.Context(), string(data), title)
			if err != nil {
				return err
			}

			out := generateOutput{
				ID:        result.Set.ID,
				Title:     result.Set.Title,
				Artifacts: map[string]string{},
			}
			for _, kind := range result.Succeeded() {
				out.Artifacts[string(kind)] = result.Set.ID + "." + kind.Extension()
			}
			out.Failures = messages(result.Failures)
			out.Warnings = messages(result.Warnings)
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "Document title, defaults to the file name")
	return cmd
}

func messages(errs map[interfaces.ArtifactKind]error) map[string]string {
	if len(errs) == 0 {
		return nil
	}
	out := make(map[string]string, len(errs))
	for kind, err := range errs {
		out[string(kind)] = domain.Message(err)
	}
	return out
}
