package console

import (
	"github.com/osdp-tools/osdp-console/pkg/config"
)

// DefaultBaudRate is used when neither the operator nor the device profile
// supplies a baud rate.
const DefaultBaudRate = 9600

// Options is the full set of operator-supplied settings for one invocation.
// Pointer fields distinguish "absent" from an explicit zero value: a device
// profile may only fill fields that are nil, never overwrite ones the
// operator set. Boolean flags cannot make that distinction and are never
// filled from profiles.
type Options struct {
	Verbose      bool
	IBeacon      bool
	Config       *string
	File         *string
	Poll         bool
	Serial       *string
	Port         *string
	Baud         *int
	Secure       bool
	FlushLog     bool
	InlineLog    bool
	Repl         bool
	Command      *string
	ListCommands bool
}

// ApplyProfile fills absent options from a device profile. Explicitly
// supplied options are never overwritten, and no value validation happens
// here; an incompatible profile value simply leaves the option absent and
// fails at first use.
func (o *Options) ApplyProfile(profile config.Profile) {
	for key, value := range profile {
		switch key {
		case "config":
			fillString(&o.Config, value)
		case "file":
			fillString(&o.File, value)
		case "serial":
			fillString(&o.Serial, value)
		case "port":
			fillString(&o.Port, value)
		case "command":
			fillString(&o.Command, value)
		case "baud":
			fillInt(&o.Baud, value)
		}
	}
}

func fillString(dst **string, value any) {
	if *dst != nil {
		return
	}
	if s, ok := value.(string); ok {
		*dst = &s
	}
}

func fillInt(dst **int, value any) {
	if *dst != nil {
		return
	}
	// encoding/json decodes all numbers to float64.
	if f, ok := value.(float64); ok {
		n := int(f)
		*dst = &n
	}
}

// ProfileName returns the requested profile name, or "" if none.
func (o *Options) ProfileName() string {
	return strOr(o.Config)
}

// FilePath returns the resolved transfer file path, or "" if none.
func (o *Options) FilePath() string {
	return strOr(o.File)
}

// SerialNumber returns the resolved serial number, or "" if none.
func (o *Options) SerialNumber() string {
	return strOr(o.Serial)
}

// PortName returns the resolved serial port, or "" if none.
func (o *Options) PortName() string {
	return strOr(o.Port)
}

// CommandName returns the requested one-off command, or "" if none.
func (o *Options) CommandName() string {
	return strOr(o.Command)
}

// BaudRate returns the resolved baud rate, defaulting to DefaultBaudRate.
func (o *Options) BaudRate() int {
	if o.Baud == nil {
		return DefaultBaudRate
	}
	return *o.Baud
}

func strOr(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
