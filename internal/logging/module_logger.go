package logging

import (
	"context"
	"strings"

	"github.com/goliatone/go-markmap/pkg/interfaces"
)

const (
	rootModule      = "markmap"
	generatorModule = "markmap.generator"
	storageModule   = "markmap.storage"
	sweeperModule   = "markmap.sweeper"
	gateModule      = "markmap.gate"
	httpModule      = "markmap.http"
	indexModule     = "markmap.index"
	commandsModule  = "markmap.commands"
)

const (
	fieldArtifactID   = "artifact_id"
	fieldArtifactKind = "artifact_kind"
	fieldCredential   = "credential"
)

// ModuleLogger returns a module-scoped logger, defaulting to a no-op
// implementation when no provider is supplied. The module identifier is
// attached as a structured field so entries can be filtered.
func ModuleLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	if module == "" {
		module = rootModule
	}

	logger := NoOp()
	if provider != nil {
		if provided := provider.GetLogger(module); provided != nil {
			logger = provided
		}
	}

	return WithFields(logger, map[string]any{
		"module": module,
	})
}

// RootLogger returns the top-level runtime logger.
func RootLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, rootModule)
}

// GeneratorLogger returns the logger namespace reserved for artifact generation.
func GeneratorLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, generatorModule)
}

// StorageLogger returns the logger namespace reserved for artifact stores.
func StorageLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, storageModule)
}

// SweeperLogger returns the logger namespace reserved for the eviction sweeper.
func SweeperLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, sweeperModule)
}

// GateLogger returns the logger namespace reserved for the access gate.
func GateLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, gateModule)
}

// HTTPLogger returns the logger namespace reserved for HTTP adapters.
func HTTPLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, httpModule)
}

// IndexLogger returns the logger namespace reserved for the manifest index.
func IndexLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, indexModule)
}

// CommandsLogger returns the logger namespace reserved for command handlers.
func CommandsLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, commandsModule)
}

// WithArtifactContext enriches the logger with artifact id, kind and a
// credential fingerprint. Empty values are ignored.
func WithArtifactContext(logger interfaces.Logger, id, kind, credential string) interfaces.Logger {
	fields := map[string]any{}
	if trimmed := strings.TrimSpace(id); trimmed != "" {
		fields[fieldArtifactID] = trimmed
	}
	if trimmed := strings.TrimSpace(kind); trimmed != "" {
		fields[fieldArtifactKind] = trimmed
	}
	if trimmed := strings.TrimSpace(credential); trimmed != "" {
		fields[fieldCredential] = trimmed
	}
	return WithFields(logger, fields)
}

// NoOp returns a logger that drops every log entry.
func NoOp() interfaces.Logger {
	return noopLogger{}
}

type noopLogger struct{}

var (
	_ interfaces.Logger       = noopLogger{}
	_ interfaces.FieldsLogger = noopLogger{}
)

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}

func (n noopLogger) WithFields(map[string]any) interfaces.Logger {
	return n
}

func (n noopLogger) WithContext(context.Context) interfaces.Logger {
	return n
}
