// Package sweepcmd exposes the eviction sweep as a go-command message with
// cron metadata.
package sweepcmd

import (
	"context"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-markmap/internal/commands"
	"github.com/goliatone/go-markmap/internal/logging"
	"github.com/goliatone/go-markmap/internal/sweeper"
	"github.com/goliatone/go-markmap/pkg/interfaces"
	command "github.com/goliatone/go-command"
)

const sweepMessageType = "markmap.artifacts.sweep"

// SweepCommand requests one eviction pass.
type SweepCommand struct{}

// Type implements command.Message.
func (SweepCommand) Type() string { return sweepMessageType }

// Validate implements command.Message.
func (SweepCommand) Validate() error {
	return validation.ValidateStruct(&SweepCommand{})
}

type handlerConfig struct {
	cronConfig command.HandlerConfig
	timeout    time.Duration
}

// HandlerOption customises the sweep handler.
type HandlerOption func(*handlerConfig)

// WithCronExpression overrides the cron expression.
func WithCronExpression(expression string) HandlerOption {
	return func(cfg *handlerConfig) {
		if trimmed := strings.TrimSpace(expression); trimmed != "" {
			cfg.cronConfig.Expression = trimmed
		}
	}
}

// WithTimeout overrides the execution timeout.
func WithTimeout(timeout time.Duration) HandlerOption {
	return func(cfg *handlerConfig) {
		cfg.timeout = timeout
	}
}

// SweepHandler runs SweepCommand against a sweeper.
type SweepHandler struct {
	sweeper    *sweeper.Sweeper
	logger     interfaces.Logger
	cronConfig command.HandlerConfig
	timeout    time.Duration
}

// NewSweepHandler constructs a handler. The cron expression defaults to
// "@every <sweep interval>".
func NewSweepHandler(s *sweeper.Sweeper, logger interfaces.Logger, opts ...HandlerOption) *SweepHandler {
	cfg := handlerConfig{
		cronConfig: command.HandlerConfig{
			Expression: "@every " + s.Interval().String(),
		},
		timeout: commands.DefaultCommandTimeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return &SweepHandler{
		sweeper:    s,
		logger:     commands.EnsureLogger(logger),
		cronConfig: cfg.cronConfig,
		timeout:    cfg.timeout,
	}
}

// Sweep executes msg and returns the pass report.
func (h *SweepHandler) Sweep(ctx context.Context, msg SweepCommand) (sweeper.Report, error) {
	if err := commands.WrapValidationError(command.ValidateMessage(msg)); err != nil {
		return sweeper.Report{}, err
	}
	ctx = commands.EnsureContext(ctx)
	ctx, cancel := commands.WithCommandTimeout(ctx, h.timeout)
	defer cancel()

	if err := ctx.Err(); err != nil {
		return sweeper.Report{}, commands.WrapContextError(err)
	}

	report, err := h.sweeper.Sweep(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return report, commands.WrapContextError(err)
		}
		return report, commands.WrapExecuteError(err)
	}

	logging.WithFields(h.logger, map[string]any{
		"operation": "artifacts.sweep",
		"evicted":   report.Evicted,
		"failed":    report.Failed,
	}).Debug("sweep.command.completed")
	return report, nil
}

// Execute satisfies command.Commander[SweepCommand].
func (h *SweepHandler) Execute(ctx context.Context, msg SweepCommand) error {
	_, err := h.Sweep(ctx, msg)
	return err
}

// CronHandler satisfies command.CronCommand.
func (h *SweepHandler) CronHandler() func() error {
	return func() error {
		return h.Execute(context.Background(), SweepCommand{})
	}
}

// CronOptions satisfies command.CronCommand.
func (h *SweepHandler) CronOptions() command.HandlerConfig {
	return h.cronConfig
}

// CLIHandler exposes the handler to CLI integrations.
func (h *SweepHandler) CLIHandler() any {
	return h
}

// CLIOptions describes the CLI metadata for the sweep.
func (h *SweepHandler) CLIOptions() command.CLIConfig {
	return command.CLIConfig{
		Path:        []string{"artifacts", "sweep"},
		Group:       "artifacts",
		Description: "Delete artifacts older than the configured TTL",
	}
}
