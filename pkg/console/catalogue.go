package console

import (
	"context"

	"github.com/osdp-tools/osdp-console/pkg/osdp"
)

// Controller is the capability surface of the device session the catalogue
// drives. The console never inspects the session's internals; failures come
// back as opaque errors from the collaborator.
type Controller interface {
	// Send issues one tagged command with an optional payload and returns
	// the decoded reply.
	Send(ctx context.Context, tag osdp.CommandTag, payload []byte) (*osdp.Reply, error)

	// RequestConf requests the extended reader configuration report.
	RequestConf(ctx context.Context) (string, error)

	// TransferFile streams the file at path to the device.
	TransferFile(ctx context.Context, path string) error

	// SetSerialNumber provisions the reader serial number.
	SetSerialNumber(ctx context.Context, serial string) error

	// SendIBeaconMfg writes the iBeacon advertisement configuration.
	SendIBeaconMfg(ctx context.Context) error

	// PollForever polls until ctx is cancelled. Does not return under
	// normal operation.
	PollForever(ctx context.Context) error
}

// Action is one catalogued operator action. Invoking it performs its side
// effects exactly once and returns a printable result.
type Action func(ctx context.Context) (string, error)

// catalogueNames is the operator-facing command list, in presentation
// order. The mfg probe is callable by name but unlisted, matching the
// historical command list.
var catalogueNames = []string{
	"send_ibeacon_mfg",
	"request_conf",
	"transfer_file",
	"set_serial_number",
	"poll",
	"poll_forever",
	"id",
	"cap",
	"lstat",
}

// mfgProbePayload is the fixed payload of the mfg probe command: the
// WaveLynx vendor code followed by the diagnostic sub-command block.
var mfgProbePayload = []byte{0x5C, 0x26, 0x23, 0x57, 0x49, 0x03, 0x00, 0x00}

// ListNames returns the catalogue's command names without constructing a
// catalogue; --list-commands must not touch configuration or the device.
func ListNames() []string {
	names := make([]string, len(catalogueNames))
	copy(names, catalogueNames)
	return names
}

// Catalogue is the fixed set of named operator actions, bound to one
// controller session and the run's resolved options.
type Catalogue struct {
	actions map[string]Action
}

// NewCatalogue builds the catalogue. Construction performs no I/O; all side
// effects happen when an action is invoked.
func NewCatalogue(ctrl Controller, opts *Options, sink OutputSink) *Catalogue {
	send := func(tag osdp.CommandTag, payload []byte) Action {
		return func(ctx context.Context) (string, error) {
			reply, err := ctrl.Send(ctx, tag, payload)
			if err != nil {
				return "", err
			}
			return reply.String(), nil
		}
	}

	actions := map[string]Action{
		"send_ibeacon_mfg": func(ctx context.Context) (string, error) {
			sink.Print("==== Configure iBeacon config")
			return "", ctrl.SendIBeaconMfg(ctx)
		},
		"request_conf": func(ctx context.Context) (string, error) {
			sink.Print("==== Request extended reader config")
			conf, err := ctrl.RequestConf(ctx)
			if err != nil {
				return "", err
			}
			sink.Print("%s", conf)
			return conf, nil
		},
		"transfer_file": func(ctx context.Context) (string, error) {
			sink.Print("==== Transferring file")
			sink.Print("filepath %s", opts.FilePath())
			return "", ctrl.TransferFile(ctx, opts.FilePath())
		},
		"set_serial_number": func(ctx context.Context) (string, error) {
			sink.Print("==== Setting serial number")
			return "", ctrl.SetSerialNumber(ctx, opts.SerialNumber())
		},
		"poll": func(ctx context.Context) (string, error) {
			reply, err := ctrl.Send(ctx, osdp.CmdPoll, nil)
			if err != nil {
				return "", err
			}
			sink.Print("%s", reply)
			return reply.String(), nil
		},
		"poll_forever": func(ctx context.Context) (string, error) {
			sink.Print("==== Polling forever, check osdpcapture.log for events")
			return "", ctrl.PollForever(ctx)
		},
		"id":    send(osdp.CmdID, nil),
		"cap":   send(osdp.CmdCap, nil),
		"lstat": send(osdp.CmdLStat, nil),
		"mfg":   send(osdp.CmdMfg, mfgProbePayload),
	}

	return &Catalogue{actions: actions}
}

// Get looks up an action by name.
func (c *Catalogue) Get(name string) (Action, bool) {
	action, ok := c.actions[name]
	return action, ok
}

// Names returns the listed command names in presentation order.
func (c *Catalogue) Names() []string {
	return ListNames()
}
