// Package capture records OSDP traffic for later analysis.
//
// The controller emits one Event per transmitted or received frame, plus
// session state changes and link errors. Events are written to a capture
// file in CBOR format (compact, append-only, crash-tolerant) and can be
// read back with Reader or inspected with the osdp-capture tool.
//
// Basic usage:
//
//	logger, err := capture.NewFileLogger("./osdpcapture.log")
//	if err != nil { ... }
//	defer logger.Close()
//
//	logger.Log(capture.Event{...})
//
// Pass NoopLogger{} to disable capture entirely, or combine sinks with
// NewMultiLogger.
package capture
