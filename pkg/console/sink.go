package console

import (
	"fmt"
	"io"
)

// OutputSink is the console's capability for ordinary terminal output.
// Components print through the sink instead of writing to stdout directly,
// so that inline-log mode can silence them all in one place.
type OutputSink interface {
	io.Writer

	// Print writes one formatted line to the sink.
	Print(format string, args ...any)
}

// NewTerminalSink returns a sink that writes to w.
func NewTerminalSink(w io.Writer) OutputSink {
	return &terminalSink{w: w}
}

type terminalSink struct {
	w io.Writer
}

func (s *terminalSink) Write(p []byte) (int, error) {
	return s.w.Write(p)
}

func (s *terminalSink) Print(format string, args ...any) {
	fmt.Fprintf(s.w, format+"\n", args...)
}

// NewSilentSink returns a sink that discards everything. Selected once when
// inline-log mode is active; the operator relies solely on the log stream.
func NewSilentSink() OutputSink {
	return silentSink{}
}

type silentSink struct{}

func (silentSink) Write(p []byte) (int, error) {
	return len(p), nil
}

func (silentSink) Print(string, ...any) {}
