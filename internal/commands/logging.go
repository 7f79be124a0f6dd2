package commands

import (
	"strings"

	"github.com/goliatone/go-markmap/internal/logging"
	"github.com/goliatone/go-markmap/pkg/interfaces"
)

const commandModuleRoot = "markmap.commands"

// CommandLogger returns a logger scoped to markmap.commands.<module> carrying
// the command component fields.
func CommandLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	name := strings.TrimSpace(module)
	if name == "" {
		name = "core"
	}
	logger := logging.ModuleLogger(provider, commandModuleRoot+"."+name)
	return logging.WithFields(logger, map[string]any{
		"component":      "command",
		"command_module": name,
	})
}
