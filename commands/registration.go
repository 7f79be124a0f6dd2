package commands

import (
	"errors"
	"strings"

	command "github.com/goliatone/go-command"

	internalcommands "github.com/goliatone/go-markmap/internal/commands"
	generatecmd "github.com/goliatone/go-markmap/internal/commands/generate"
	sweepcmd "github.com/goliatone/go-markmap/internal/commands/sweep"
	"github.com/goliatone/go-markmap/internal/di"
	"github.com/goliatone/go-markmap/pkg/interfaces"
)

// CommandRegistry records command handlers so hosts can expose them via CLI or cron.
type CommandRegistry interface {
	RegisterCommand(handler any) error
}

// CommandDispatcher subscribes command handlers to a dispatcher implementation.
type CommandDispatcher interface {
	RegisterCommand(handler any) (CommandSubscription, error)
}

// CommandSubscription allows hosts to tear down dispatcher subscriptions.
type CommandSubscription interface {
	Unsubscribe()
}

// CronRegistrar registers command handlers with a cron scheduler.
type CronRegistrar func(command.HandlerConfig, any) error

// RegistrationOptions configures how handlers are registered.
type RegistrationOptions struct {
	Registry       CommandRegistry
	Dispatcher     CommandDispatcher
	CronRegistrar  CronRegistrar
	LoggerProvider interfaces.LoggerProvider
	// SweepCron overrides the schedule of the artifact sweep handler.
	SweepCron string
}

// RegistrationResult captures the registered handlers and any dispatcher subscriptions.
type RegistrationResult struct {
	Handlers      []any
	Subscriptions []CommandSubscription
}

// RegisterContainerCommands builds the generate and sweep handlers for
// container and registers them with the optional registry, dispatcher and
// cron integrations.
func RegisterContainerCommands(container *di.Container, opts RegistrationOptions) (*RegistrationResult, error) {
	if container == nil {
		return &RegistrationResult{}, nil
	}

	cfg := container.Config

	provider := opts.LoggerProvider
	if provider == nil {
		provider = container.LoggerProvider()
	}

	if opts.Registry != nil && opts.CronRegistrar != nil {
		if reg, ok := opts.Registry.(interface {
			SetCronRegister(func(command.HandlerConfig, any) error) *command.Registry
		}); ok && reg != nil {
			reg.SetCronRegister(opts.CronRegistrar)
		}
	}

	result := &RegistrationResult{
		Handlers:      make([]any, 0, 2),
		Subscriptions: make([]CommandSubscription, 0, 2),
	}

	var errs error

	register := func(handler any) {
		if handler == nil {
			return
		}
		result.Handlers = append(result.Handlers, handler)

		if opts.Registry != nil {
			if err := opts.Registry.RegisterCommand(handler); err != nil {
				errs = errors.Join(errs, err)
			}
		}

		if opts.Dispatcher != nil {
			subscription, err := opts.Dispatcher.RegisterCommand(handler)
			if err != nil {
				errs = errors.Join(errs, err)
			} else if subscription != nil {
				result.Subscriptions = append(result.Subscriptions, subscription)
			}
		}

		if opts.CronRegistrar != nil {
			if cronCmd, ok := handler.(command.CronCommand); ok {
				if err := opts.CronRegistrar(cronCmd.CronOptions(), cronCmd.CronHandler()); err != nil {
					errs = errors.Join(errs, err)
				}
			}
		}
	}

	loggerFor := func(module string) interfaces.Logger {
		return internalcommands.CommandLogger(provider, module)
	}

	var generateOpts []generatecmd.HandlerOption
	var sweepOpts []sweepcmd.HandlerOption
	if cfg.Commands.Timeout > 0 {
		generateOpts = append(generateOpts, generatecmd.WithTimeout(cfg.Commands.Timeout))
		sweepOpts = append(sweepOpts, sweepcmd.WithTimeout(cfg.Commands.Timeout))
	}

	if service := container.GeneratorService(); service != nil {
		register(generatecmd.NewGenerateHandler(service, loggerFor("generate"), generateOpts...))
	}

	if sw := container.Sweeper(); sw != nil {
		expr := strings.TrimSpace(opts.SweepCron)
		if expr == "" {
			expr = strings.TrimSpace(cfg.Commands.SweepCron)
		}
		if expr != "" {
			sweepOpts = append(sweepOpts, sweepcmd.WithCronExpression(expr))
		}
		register(sweepcmd.NewSweepHandler(sw, loggerFor("sweep"), sweepOpts...))
	}

	if len(result.Handlers) == 0 {
		return result, errors.Join(errs, errors.New("no command handlers registered; ensure the container is configured"))
	}
	return result, errs
}
