package console

import (
	"context"
	"fmt"
	"log/slog"
)

// Dispatcher picks the single action path a run performs, by fixed
// precedence over the invocation options. Each branch is terminal except
// the documented one-off-command-plus-poll fall-through.
type Dispatcher struct {
	catalogue *Catalogue
	opts      *Options
	sink      OutputSink
	logger    *slog.Logger
	shell     func(ctx context.Context) error
}

// NewDispatcher creates a Dispatcher over a built catalogue.
func NewDispatcher(catalogue *Catalogue, opts *Options, sink OutputSink, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		catalogue: catalogue,
		opts:      opts,
		sink:      sink,
		logger:    logger,
	}
}

// SetShell installs the interactive shell the repl branch starts. Without
// one the repl branch is a no-op.
func (d *Dispatcher) SetShell(shell func(ctx context.Context) error) {
	d.shell = shell
}

// Execute evaluates the precedence order once and runs at most one action
// path. A returned error wrapping context.Canceled means the operator
// interrupted the run.
//
// Precedence: ibeacon, file, serial, one-off command, poll, repl. When a
// one-off command and the poll flag are both set, the command runs and then
// polling starts anyway; this run-once-then-keep-polling fall-through is
// intentional and differs from every other branch's exclusivity.
func (d *Dispatcher) Execute(ctx context.Context) error {
	switch {
	case d.opts.IBeacon:
		return d.run(ctx, "send_ibeacon_mfg")
	case d.opts.File != nil:
		return d.run(ctx, "transfer_file")
	case d.opts.Serial != nil:
		return d.run(ctx, "set_serial_number")
	}

	if name := d.opts.CommandName(); name != "" {
		action, ok := d.catalogue.Get(name)
		if ok {
			result, err := action(ctx)
			if err != nil {
				return fmt.Errorf("command %s: %w", name, err)
			}
			d.logger.Info("command result", "command", name, "result", result)
			d.sink.Print("Command '%s' result: %s", name, result)
		} else {
			d.sink.Print("Command '%s' not found.", name)
		}
		if !d.opts.Poll {
			return nil
		}
	}

	if d.opts.Poll {
		return d.run(ctx, "poll_forever")
	}

	if d.opts.Repl && d.shell != nil {
		return d.shell(ctx)
	}

	return nil
}

func (d *Dispatcher) run(ctx context.Context, name string) error {
	action, ok := d.catalogue.Get(name)
	if !ok {
		return fmt.Errorf("catalogue is missing %s", name)
	}
	if _, err := action(ctx); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}
