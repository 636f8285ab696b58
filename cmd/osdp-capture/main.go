// Command osdp-capture is a tool for viewing and analyzing OSDP capture
// files written by osdp-console.
//
// Capture files hold one CBOR-encoded event per frame on the serial link,
// plus session state changes and link errors.
//
// Usage:
//
//	osdp-capture <command> [flags] <file>
//
// Commands:
//
//	view     View capture file in human-readable format
//	export   Export capture file to JSONL or CSV format
//	stats    Show statistics about the capture file
//
// Examples:
//
//	# View all events
//	osdp-capture view osdpcapture.log
//
//	# View only incoming frames
//	osdp-capture view -direction in osdpcapture.log
//
//	# Export to JSONL
//	osdp-capture export -format jsonl osdpcapture.log
//
//	# Show statistics
//	osdp-capture stats osdpcapture.log
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/osdp-tools/osdp-console/cmd/osdp-capture/commands"
	"github.com/osdp-tools/osdp-console/pkg/capture"
)

const usage = `osdp-capture - OSDP Capture File Analyzer

Usage:
  osdp-capture <command> [flags] <file>

Commands:
  view     View capture file in human-readable format
  export   Export capture file to JSONL or CSV format
  stats    Show statistics about the capture file

Use "osdp-capture <command> -help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "view":
		runView(args)
	case "export":
		runExport(args)
	case "stats":
		runStats(args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

func runView(args []string) {
	fs := flag.NewFlagSet("view", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `osdp-capture view - View capture file in human-readable format

Usage:
  osdp-capture view [flags] <file>

Flags:
`)
		fs.PrintDefaults()
	}

	direction := fs.String("direction", "", "Filter by direction (in, out)")
	category := fs.String("category", "", "Filter by category (frame, state, error)")
	session := fs.String("session", "", "Filter by session ID")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	path := requirePath(fs)

	var filter capture.Filter
	filter.SessionID = *session

	if *direction != "" {
		d, err := commands.ParseDirectionFlag(*direction)
		if err != nil {
			fatal(err)
		}
		filter.Direction = &d
	}
	if *category != "" {
		c, err := commands.ParseCategoryFlag(*category)
		if err != nil {
			fatal(err)
		}
		filter.Category = &c
	}

	if err := commands.RunView(path, filter, os.Stdout); err != nil {
		fatal(err)
	}
}

func runExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `osdp-capture export - Export capture file to JSONL or CSV format

Usage:
  osdp-capture export [flags] <file>

Flags:
`)
		fs.PrintDefaults()
	}

	format := fs.String("format", "jsonl", "Output format (jsonl, csv)")
	output := fs.String("o", "", "Output file (default stdout)")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	path := requirePath(fs)

	if err := commands.RunExport(path, *format, *output); err != nil {
		fatal(err)
	}
}

func runStats(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `osdp-capture stats - Show statistics about the capture file

Usage:
  osdp-capture stats <file>
`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	path := requirePath(fs)

	if err := commands.RunStats(path, os.Stdout); err != nil {
		fatal(err)
	}
}

func requirePath(fs *flag.FlagSet) string {
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: capture file path required")
		fs.Usage()
		os.Exit(1)
	}
	return fs.Arg(0)
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
