// Package generatecmd exposes artifact generation as a go-command message.
package generatecmd

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-markmap/internal/commands"
	"github.com/goliatone/go-markmap/internal/domain"
	"github.com/goliatone/go-markmap/internal/generator"
	"github.com/goliatone/go-markmap/pkg/interfaces"
	command "github.com/goliatone/go-command"
)

const generateMessageType = "markmap.artifacts.generate"

// Sources a generation request can come from.
const (
	SourceAPI    = "api"
	SourceUpload = "upload"
	SourceCLI    = "cli"
)

// GenerateCommand asks for every artifact format of one Markdown document.
// Size, encoding and content rules are enforced by the generator so limits
// are checked before anything else.
type GenerateCommand struct {
	Markdown string `json:"markdown"`
	Title    string `json:"title,omitempty"`
	Source   string `json:"source,omitempty"`
}

// Type implements command.Message.
func (GenerateCommand) Type() string { return generateMessageType }

// Validate implements command.Message.
func (c GenerateCommand) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.Source, validation.In(SourceAPI, SourceUpload, SourceCLI)),
	)
	if err != nil {
		return domain.InvalidInputFrom(err)
	}
	return nil
}

// Request converts the message into the generator request.
func (c GenerateCommand) Request() domain.GenerationRequest {
	return domain.GenerationRequest{Markdown: c.Markdown, Title: c.Title}
}

// HandlerOption customises the generate handler.
type HandlerOption func(*GenerateHandler)

// WithTimeout overrides the execution timeout.
func WithTimeout(timeout time.Duration) HandlerOption {
	return func(h *GenerateHandler) {
		h.timeout = timeout
	}
}

// GenerateHandler runs GenerateCommand through the generator service.
type GenerateHandler struct {
	service generator.Service
	logger  interfaces.Logger
	timeout time.Duration
}

// NewGenerateHandler constructs a handler delegating to service.
func NewGenerateHandler(service generator.Service, logger interfaces.Logger, opts ...HandlerOption) *GenerateHandler {
	h := &GenerateHandler{
		service: service,
		logger:  commands.EnsureLogger(logger),
		timeout: commands.DefaultCommandTimeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Generate executes msg and returns the generation result. Errors from the
// generator keep their domain codes.
func (h *GenerateHandler) Generate(ctx context.Context, msg GenerateCommand) (*generator.Result, error) {
	var result *generator.Result
	exec := commands.NewHandler(func(ctx context.Context, msg GenerateCommand) error {
		out, err := h.service.Generate(ctx, msg.Request())
		if err != nil {
			return err
		}
		result = out
		return nil
	},
		commands.WithTimeout[GenerateCommand](h.timeout),
		commands.WithLogger[GenerateCommand](h.logger),
		commands.WithOperation[GenerateCommand]("artifacts.generate"),
		commands.WithTelemetry(commands.DefaultTelemetry[GenerateCommand](h.logger)),
	)
	if err := exec.Execute(ctx, msg); err != nil {
		return nil, err
	}
	return result, nil
}

// Execute satisfies command.Commander[GenerateCommand].
func (h *GenerateHandler) Execute(ctx context.Context, msg GenerateCommand) error {
	_, err := h.Generate(ctx, msg)
	return err
}

// CLIHandler exposes the handler to CLI integrations.
func (h *GenerateHandler) CLIHandler() any {
	return h
}

// CLIOptions describes the CLI metadata for generation.
func (h *GenerateHandler) CLIOptions() command.CLIConfig {
	return command.CLIConfig{
		Path:        []string{"artifacts", "generate"},
		Group:       "artifacts",
		Description: "Generate interactive, preview and outline artifacts from Markdown",
	}
}
