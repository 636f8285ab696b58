// Command osdp-console is the operator entry point for driving a single
// access-control reader over a serial link using OSDP.
//
// It resolves run configuration (flags merged with a named device profile),
// establishes the logging session, opens the controller session, and
// performs exactly one action per invocation: a flag-triggered one-shot,
// the continuous polling loop, or the interactive command shell.
//
// Usage:
//
//	osdp-console [flags]
//
// Flags:
//
//	-v, -verbose        increase output verbosity
//	-i, -ibeacon        configure iBeacon config
//	-c, -config NAME    use configuration for the specified device
//	-f, -file PATH      transfer file
//	-p, -poll           poll forever, check osdpcapture.log for events
//	-s, -serial VALUE   set serial number
//	-P, -port VALUE     set serial port
//	-b, -baud INT       set baud rate for serial communication
//	-S, -secure         initialize in secure OSDP mode
//	-F, -flush-log      flush the capture file before starting
//	    -inline-log     use terminal as the log file
//	-r, -repl           start an interactive session
//	-C, -command NAME   send a one-off command to the controller
//	-L, -list-commands  list all supported commands
//
// Examples:
//
//	# Poll a reader on a configured profile
//	osdp-console -c lobby-reader -p
//
//	# Transfer firmware over an explicit port
//	osdp-console -P /dev/ttyUSB0 -b 115200 -f firmware.bin
//
//	# Explore interactively with the terminal as log sink
//	osdp-console -P /dev/ttyUSB0 -r -inline-log
//
// Exit codes: 0 on normal completion, 1 when no serial port can be
// resolved (or a run fails), 2 on operator-initiated interruption.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/osdp-tools/osdp-console/cmd/osdp-console/interactive"
	"github.com/osdp-tools/osdp-console/pkg/capture"
	"github.com/osdp-tools/osdp-console/pkg/comms"
	"github.com/osdp-tools/osdp-console/pkg/config"
	"github.com/osdp-tools/osdp-console/pkg/console"
	"github.com/osdp-tools/osdp-console/pkg/osdp"
)

const (
	// configPath is the console's configuration file.
	configPath = "config.json"

	// capturePath receives one CBOR event per frame on the link.
	capturePath = "./osdpcapture.log"
)

var (
	verboseFlag      bool
	ibeaconFlag      bool
	configFlag       string
	fileFlag         string
	pollFlag         bool
	serialFlag       string
	portFlag         string
	baudFlag         int
	secureFlag       bool
	flushLogFlag     bool
	inlineLogFlag    bool
	replFlag         bool
	commandFlag      string
	listCommandsFlag bool
)

func init() {
	flag.BoolVar(&verboseFlag, "v", false, "increase output verbosity")
	flag.BoolVar(&verboseFlag, "verbose", false, "increase output verbosity")
	flag.BoolVar(&ibeaconFlag, "i", false, "configure iBeacon config")
	flag.BoolVar(&ibeaconFlag, "ibeacon", false, "configure iBeacon config")
	flag.StringVar(&configFlag, "c", "", "use configuration for the specified device")
	flag.StringVar(&configFlag, "config", "", "use configuration for the specified device")
	flag.StringVar(&fileFlag, "f", "", "transfer file")
	flag.StringVar(&fileFlag, "file", "", "transfer file")
	flag.BoolVar(&pollFlag, "p", false, "poll forever, check osdpcapture.log for events")
	flag.BoolVar(&pollFlag, "poll", false, "poll forever, check osdpcapture.log for events")
	flag.StringVar(&serialFlag, "s", "", "set serial number")
	flag.StringVar(&serialFlag, "serial", "", "set serial number")
	flag.StringVar(&portFlag, "P", "", "set serial port")
	flag.StringVar(&portFlag, "port", "", "set serial port")
	flag.IntVar(&baudFlag, "b", 0, "set baud rate for serial communication")
	flag.IntVar(&baudFlag, "baud", 0, "set baud rate for serial communication")
	flag.BoolVar(&secureFlag, "S", false, "initialize in secure OSDP mode")
	flag.BoolVar(&secureFlag, "secure", false, "initialize in secure OSDP mode")
	flag.BoolVar(&flushLogFlag, "F", false, "flush the capture file before starting")
	flag.BoolVar(&flushLogFlag, "flush-log", false, "flush the capture file before starting")
	flag.BoolVar(&inlineLogFlag, "inline-log", false, "use terminal as the log file")
	flag.BoolVar(&replFlag, "r", false, "start an interactive session")
	flag.BoolVar(&replFlag, "repl", false, "start an interactive session")
	flag.StringVar(&commandFlag, "C", "", "send a one-off command to the controller")
	flag.StringVar(&commandFlag, "command", "", "send a one-off command to the controller")
	flag.BoolVar(&listCommandsFlag, "L", false, "list all supported commands")
	flag.BoolVar(&listCommandsFlag, "list-commands", false, "list all supported commands")
}

func main() {
	os.Exit(run())
}

func run() int {
	flag.Parse()
	opts := parseOptions()

	if opts.ListCommands {
		fmt.Println("Supported commands:")
		for _, name := range console.ListNames() {
			fmt.Printf(" - %s\n", name)
		}
		return 0
	}

	if len(os.Args) == 1 {
		flag.Usage()
		return 0
	}

	session, err := console.Establish(console.SessionConfig{
		Verbose:   opts.Verbose,
		InlineLog: opts.InlineLog,
		FlushLog:  opts.FlushLog,
		FlushPath: capturePath,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer session.Close()

	logger := session.Logger()
	sink := session.Sink()

	sink.Print("======== WaveLynx OSDP Console ========")

	if name := opts.ProfileName(); name != "" {
		profile, err := config.Load(configPath, name)
		if err != nil {
			logger.Error("loading configuration failed", "error", err)
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		opts.ApplyProfile(profile)
	}

	port := opts.PortName()
	if port == "" {
		chosen, err := comms.PromptPort(os.Stdin, sink)
		if err != nil {
			logger.Error("port enumeration failed", "error", err)
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		port = chosen
	}
	baud := opts.BaudRate()

	if port == "" {
		sink.Print("No port selected, exiting.")
		return 1
	}

	transport, err := comms.OpenPort(port, baud)
	if err != nil {
		logger.Error("opening serial port failed", "error", err)
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	captureLog, err := openCapture(session)
	if err != nil {
		logger.Warn("capture disabled", "error", err)
		captureLog = capture.NoopLogger{}
	}

	ctrl, err := osdp.NewController(osdp.Config{
		Transport: transport,
		Port:      port,
		Secure:    opts.Secure,
		Capture:   captureLog,
		Logger:    logger,
	})
	if err != nil {
		transport.Close()
		logger.Error("controller session failed", "error", err)
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer ctrl.Close()

	sink.Print("==== Device connected at: %s with baud rate: %d", port, baud)
	logger.Info("==== ARGS", "args", os.Args[1:])

	catalogue := console.NewCatalogue(ctrl, &opts, sink)
	dispatcher := console.NewDispatcher(catalogue, &opts, sink, logger)
	dispatcher.SetShell(func(ctx context.Context) error {
		shell, err := interactive.New(catalogue, sink)
		if err != nil {
			return err
		}
		return shell.Run(ctx)
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := dispatcher.Execute(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			sink.Print("user initiated exit")
			return 2
		}
		logger.Error("run failed", "error", err)
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

// openCapture opens the frame capture sink: the capture file, teed into the
// log stream at debug level when the operator asked for verbosity.
func openCapture(session *console.LoggingSession) (capture.Logger, error) {
	file, err := capture.NewFileLogger(capturePath)
	if err != nil {
		return nil, fmt.Errorf("opening capture file: %w", err)
	}
	if session.Level() == slog.LevelDebug {
		return capture.NewMultiLogger(file, capture.NewSlogAdapter(session.Logger())), nil
	}
	return file, nil
}

// parseOptions converts parsed flags into invocation options. Pointer
// fields are only set for flags the operator actually supplied, so profile
// merging can tell "absent" from an explicit zero value.
func parseOptions() console.Options {
	opts := console.Options{
		Verbose:      verboseFlag,
		IBeacon:      ibeaconFlag,
		Poll:         pollFlag,
		Secure:       secureFlag,
		FlushLog:     flushLogFlag,
		InlineLog:    inlineLogFlag,
		Repl:         replFlag,
		ListCommands: listCommandsFlag,
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "c", "config":
			opts.Config = &configFlag
		case "f", "file":
			opts.File = &fileFlag
		case "s", "serial":
			opts.Serial = &serialFlag
		case "P", "port":
			opts.Port = &portFlag
		case "b", "baud":
			opts.Baud = &baudFlag
		case "C", "command":
			opts.Command = &commandFlag
		}
	})
	return opts
}
