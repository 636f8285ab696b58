// Package osdp implements the device side of the operator console: an OSDP
// (Open Supervised Device Protocol) controller speaking to a single reader
// or peripheral over a serial link.
//
// The package provides the packet codec (frame.go), the command/reply tag
// catalogue (constants.go), an optional secure-channel session (secure.go),
// and the Controller itself, which owns the serial transport and exposes the
// capability surface the console drives: tagged command send, continuous
// polling, file transfer, and the WaveLynx manufacturer extensions for
// extended configuration, serial-number provisioning, and iBeacon setup.
//
// The Controller is not safe for concurrent use; the console is
// single-threaded and exactly one logical actor drives the link.
package osdp
