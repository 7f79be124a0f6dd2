package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	markmap "github.com/goliatone/go-markmap"
)

type globalFlags struct {
	configFile string
	envFile    string
	logLevel   string
}

// moduleBuilder is swapped in tests.
var moduleBuilder = func(cfg markmap.Config) (*markmap.Module, error) {
	return markmap.New(cfg, markmap.WithVersion(version))
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:           "markmap",
		Short:         "Turn Markdown outlines into mind maps",
		Long:          "Generate interactive HTML mind maps, SVG previews and outline JSON from Markdown headings, or serve them over HTTP.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
	}
	root.PersistentFlags().StringVarP(&flags.configFile, "config", "c", "", "Config file (.yaml, .yml, .json, .jsonc)")
	root.PersistentFlags().StringVar(&flags.envFile, "env-file", "", "Dotenv file (defaults to .env when present)")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Override the configured log level")

	root.AddCommand(serveCmd(flags))
	root.AddCommand(generateCmd(flags))
	root.AddCommand(outlineCmd(flags))
	root.AddCommand(sweepCmd(flags))
	root.AddCommand(schemaCmd())
	return root
}

func (f *globalFlags) load() (markmap.Config, error) {
	cfg, err := markmap.LoadConfig(markmap.LoadOptions{File: f.configFile, EnvFile: f.envFile})
	if err != nil {
		return cfg, err
	}
	if level := strings.TrimSpace(f.logLevel); level != "" {
		cfg.Logging.Level = level
		if err := cfg.Validate(); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

func (f *globalFlags) module() (*markmap.Module, error) {
	cfg, err := f.load()
	if err != nil {
		return nil, err
	}
	return moduleBuilder(cfg)
}

// readInput reads path, or stdin when path is "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

func printJSON(w io.Writer, value any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}
