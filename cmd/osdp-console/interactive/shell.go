// Package interactive provides the interactive command shell for
// osdp-console: a closed command table over the operator action catalogue
// plus a few introspection verbs. There is no expression evaluation; the
// catalogue is the whole surface.
package interactive

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"

	"github.com/osdp-tools/osdp-console/pkg/console"
)

// Shell is the interactive session over one controller's action catalogue.
type Shell struct {
	catalogue *console.Catalogue
	sink      console.OutputSink
	rl        *readline.Instance
}

// New creates a shell over a built catalogue. Output other than the prompt
// goes through the sink, so inline-log mode silences it like everything else.
func New(catalogue *console.Catalogue, sink console.OutputSink) (*Shell, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "osdp> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return &Shell{
		catalogue: catalogue,
		sink:      sink,
		rl:        rl,
	}, nil
}

// Stdout returns a writer that coordinates with the readline prompt.
func (s *Shell) Stdout() io.Writer {
	return s.rl.Stdout()
}

// Run reads and executes commands until the operator exits the session.
func (s *Shell) Run(ctx context.Context) error {
	defer s.rl.Close()

	s.sink.Print("==== Starting REPL session")
	s.printHelp()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line, err := s.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			// EOF ends the session.
			fmt.Fprintln(s.rl.Stdout(), "Exiting...")
			return nil
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}
		if s.handleLine(ctx, input) {
			return nil
		}
	}
}

// handleLine executes one input line. It returns true when the operator
// asked to end the session.
func (s *Shell) handleLine(ctx context.Context, input string) bool {
	cmd := strings.Fields(input)[0]

	switch cmd {
	case "help", "?":
		s.printHelp()

	case "list", "commands":
		s.sink.Print("Supported commands:")
		for _, name := range s.catalogue.Names() {
			s.sink.Print(" - %s", name)
		}

	case "quit", "exit", "q":
		return true

	default:
		action, ok := s.catalogue.Get(cmd)
		if !ok {
			s.sink.Print("Unknown command: %s (type 'help' for commands)", cmd)
			return false
		}
		result, err := action(ctx)
		if err != nil {
			s.sink.Print("%s failed: %v", cmd, err)
			return false
		}
		if result != "" {
			s.sink.Print("%s", result)
		}
	}
	return false
}

func (s *Shell) printHelp() {
	s.sink.Print(`
OSDP Console Commands:
  Catalogue:
    %s

  General:
    list    - List catalogued commands
    help    - Show this help
    quit    - End the session`, strings.Join(s.catalogue.Names(), ", "))
}
