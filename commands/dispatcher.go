package commands

import (
	"fmt"

	"github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"

	generatecmd "github.com/goliatone/go-markmap/internal/commands/generate"
	sweepcmd "github.com/goliatone/go-markmap/internal/commands/sweep"
)

// Dispatcher subscribes markmap handlers to the go-command global dispatcher.
type Dispatcher struct {
	// MaxRetries is applied to every subscription when positive.
	MaxRetries int
}

var _ CommandDispatcher = Dispatcher{}

// RegisterCommand implements CommandDispatcher.
func (d Dispatcher) RegisterCommand(handler any) (CommandSubscription, error) {
	switch h := handler.(type) {
	case *generatecmd.GenerateHandler:
		if d.MaxRetries > 0 {
			return dispatcher.SubscribeCommand[generatecmd.GenerateCommand](h, runner.WithMaxRetries(d.MaxRetries)), nil
		}
		return dispatcher.SubscribeCommand[generatecmd.GenerateCommand](h), nil
	case *sweepcmd.SweepHandler:
		if d.MaxRetries > 0 {
			return dispatcher.SubscribeCommand[sweepcmd.SweepCommand](h, runner.WithMaxRetries(d.MaxRetries)), nil
		}
		return dispatcher.SubscribeCommand[sweepcmd.SweepCommand](h), nil
	default:
		return nil, fmt.Errorf("commands: no dispatcher binding for %T", handler)
	}
}
