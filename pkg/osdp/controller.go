package osdp

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/osdp-tools/osdp-console/pkg/capture"
)

// ErrReplyTimeout is returned when the device does not answer a command
// within the reply timeout.
var ErrReplyTimeout = errors.New("timeout waiting for reply")

// maxCaptureData bounds the raw bytes stored per capture event.
const maxCaptureData = 256

// fileTransferFragSize is the initial file transfer fragment size, lowered
// when the device reports a smaller receive buffer via FTSTAT.
const fileTransferFragSize = 128

// Config configures a Controller.
type Config struct {
	// Transport is the open serial connection to the device. Required.
	Transport io.ReadWriteCloser

	// Port names the serial port for capture events and log records.
	Port string

	// Address is the device address on the RS-485 line (default 0).
	Address byte

	// Secure performs the secure channel handshake during construction and
	// seals all subsequent traffic.
	Secure bool

	// Capture receives one event per frame; nil disables capture.
	Capture capture.Logger

	// Logger receives operational log records; nil uses slog.Default.
	Logger *slog.Logger

	// ReplyTimeout bounds the wait for a device reply (default 1s).
	ReplyTimeout time.Duration

	// PollInterval is the delay between polls in PollForever (default 200ms).
	PollInterval time.Duration
}

// Reply is a decoded device reply.
type Reply struct {
	Tag     ReplyTag
	Payload []byte
}

// String renders the reply as its tag name followed by the payload in hex.
func (r *Reply) String() string {
	if len(r.Payload) == 0 {
		return r.Tag.String()
	}
	return fmt.Sprintf("%s %s", r.Tag, hex.EncodeToString(r.Payload))
}

// Controller owns the serial session to a single OSDP device and exposes
// the capability surface the console drives. Not safe for concurrent use.
type Controller struct {
	transport io.ReadWriteCloser
	port      string
	address   byte
	capture   capture.Logger
	logger    *slog.Logger

	replyTimeout time.Duration
	pollInterval time.Duration

	sessionID string
	seq       byte
	session   secureSession
}

// NewController opens a controller session over an already-open transport.
// When cfg.Secure is set, the secure channel handshake runs before
// NewController returns; a handshake failure closes nothing and is returned
// to the caller.
func NewController(cfg Config) (*Controller, error) {
	if cfg.Transport == nil {
		return nil, fmt.Errorf("controller requires an open transport")
	}
	if cfg.Capture == nil {
		cfg.Capture = capture.NoopLogger{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.ReplyTimeout <= 0 {
		cfg.ReplyTimeout = time.Second
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 200 * time.Millisecond
	}

	c := &Controller{
		transport:    cfg.Transport,
		port:         cfg.Port,
		address:      cfg.Address,
		capture:      cfg.Capture,
		logger:       cfg.Logger,
		replyTimeout: cfg.ReplyTimeout,
		pollInterval: cfg.PollInterval,
		sessionID:    uuid.NewString(),
	}
	c.captureState("", "connected", "session opened")

	if cfg.Secure {
		ctx, cancel := context.WithTimeout(context.Background(), 5*c.replyTimeout)
		defer cancel()
		if err := c.secureHandshake(ctx); err != nil {
			c.captureError(err, "secure handshake")
			return nil, fmt.Errorf("secure channel handshake: %w", err)
		}
		c.captureState("connected", "secure", "secure channel established")
		c.logger.Info("secure channel established", "port", c.port)
	}
	return c, nil
}

// SessionID returns the unique identifier stamped on this session's
// capture events.
func (c *Controller) SessionID() string {
	return c.sessionID
}

// Close closes the serial transport.
func (c *Controller) Close() error {
	c.captureState("", "closed", "session closed")
	return c.transport.Close()
}

// Send issues one tagged command with an optional payload and returns the
// decoded reply. A NAK from the device is returned as an error.
func (c *Controller) Send(ctx context.Context, tag CommandTag, payload []byte) (*Reply, error) {
	f := &Frame{
		Address:  c.address,
		Sequence: c.nextSeq(),
		UseCRC:   true,
		Tag:      byte(tag),
		Payload:  append([]byte(nil), payload...),
	}
	if c.session.active {
		c.session.seal(f)
	}

	reply, err := c.exchange(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("sending %s: %w", tag, err)
	}
	if c.session.active {
		if err := c.session.verify(reply); err != nil {
			c.captureError(err, "verifying reply")
			return nil, fmt.Errorf("sending %s: %w", tag, err)
		}
	}

	r := &Reply{Tag: ReplyTag(reply.Tag), Payload: reply.Payload}
	if r.Tag == ReplyNak {
		code := byte(0)
		if len(r.Payload) > 0 {
			code = r.Payload[0]
		}
		return nil, fmt.Errorf("device rejected %s: NAK code 0x%02x", tag, code)
	}
	return r, nil
}

// PollForever polls the device until ctx is cancelled, logging every reply
// that carries an event. Poll failures are logged and polling continues;
// the device owns its own recovery.
func (c *Controller) PollForever(ctx context.Context) error {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		reply, err := c.Send(ctx, CmdPoll, nil)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Warn("poll failed", "error", err)
			continue
		}
		if reply.Tag != ReplyAck {
			c.logger.Info("device event", "reply", reply.String())
		}
	}
}

// TransferFile streams the file at path to the device in FILETRANSFER
// fragments, honoring the fragment size and delay the device reports in
// each FTSTAT reply.
func (c *Controller) TransferFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading transfer file: %w", err)
	}

	fragSize := fileTransferFragSize
	offset := 0
	for offset < len(data) {
		n := len(data) - offset
		if n > fragSize {
			n = fragSize
		}

		payload := make([]byte, 0, 11+n)
		payload = append(payload, 0x01) // transfer type: opaque firmware/data blob
		payload = binary.LittleEndian.AppendUint32(payload, uint32(len(data)))
		payload = binary.LittleEndian.AppendUint32(payload, uint32(offset))
		payload = binary.LittleEndian.AppendUint16(payload, uint16(n))
		payload = append(payload, data[offset:offset+n]...)

		reply, err := c.Send(ctx, CmdFileTransfer, payload)
		if err != nil {
			return fmt.Errorf("transferring at offset %d: %w", offset, err)
		}
		if reply.Tag != ReplyFTStat {
			return fmt.Errorf("unexpected reply %s to file transfer", reply.Tag)
		}

		status, delay, updateMax, err := parseFTStat(reply.Payload)
		if err != nil {
			return fmt.Errorf("transferring at offset %d: %w", offset, err)
		}
		if status < 0 {
			return fmt.Errorf("device aborted file transfer: status %d", status)
		}
		if updateMax > 0 && int(updateMax) < fragSize {
			fragSize = int(updateMax)
			c.logger.Debug("device lowered fragment size", "frag_size", fragSize)
		}
		if delay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(delay) * time.Millisecond):
			}
		}

		offset += n
	}

	c.logger.Info("file transfer complete", "path", path, "bytes", len(data))
	return nil
}

// parseFTStat decodes an FTSTAT payload: action flags, requested delay in
// milliseconds, signed status, and the device's updated maximum message size.
func parseFTStat(payload []byte) (status int16, delay uint16, updateMax uint16, err error) {
	if len(payload) < 7 {
		return 0, 0, 0, fmt.Errorf("short FTSTAT payload: %d bytes", len(payload))
	}
	delay = binary.LittleEndian.Uint16(payload[1:3])
	status = int16(binary.LittleEndian.Uint16(payload[3:5]))
	updateMax = binary.LittleEndian.Uint16(payload[5:7])
	return status, delay, updateMax, nil
}

// RequestConf requests the extended reader configuration block (a WaveLynx
// manufacturer extension) and renders it for the operator.
func (c *Controller) RequestConf(ctx context.Context) (string, error) {
	reply, err := c.Send(ctx, CmdMfg, mfgPayload(MfgSubRequestConf, nil))
	if err != nil {
		return "", err
	}
	if reply.Tag != ReplyMfg {
		return "", fmt.Errorf("unexpected reply %s to config request", reply.Tag)
	}

	data := reply.Payload
	if len(data) >= 4 {
		// Strip the echoed vendor code and sub-command.
		data = data[4:]
	}
	return fmt.Sprintf("extended config (%d bytes): %s", len(data), hex.EncodeToString(data)), nil
}

// SetSerialNumber provisions the reader serial number.
func (c *Controller) SetSerialNumber(ctx context.Context, serial string) error {
	if serial == "" {
		return fmt.Errorf("serial number is empty")
	}
	if len(serial) > 32 {
		return fmt.Errorf("serial number %q exceeds 32 bytes", serial)
	}
	_, err := c.Send(ctx, CmdMfg, mfgPayload(MfgSubSetSerial, []byte(serial)))
	return err
}

// IBeaconConfig is the advertisement configuration written by SendIBeaconMfg.
type IBeaconConfig struct {
	UUID    uuid.UUID
	Major   uint16
	Minor   uint16
	TxPower int8
}

// defaultIBeacon is the advertisement written when the operator has not
// supplied a configuration of their own.
var defaultIBeacon = IBeaconConfig{
	UUID:    uuid.MustParse("f7826da6-4fa2-4e98-8024-bc5b71e0893e"),
	Major:   1,
	Minor:   1,
	TxPower: -59,
}

// SendIBeaconMfg writes the default iBeacon advertisement configuration to
// the reader.
func (c *Controller) SendIBeaconMfg(ctx context.Context) error {
	return c.SendIBeacon(ctx, defaultIBeacon)
}

// SendIBeacon writes an iBeacon advertisement configuration to the reader.
func (c *Controller) SendIBeacon(ctx context.Context, beacon IBeaconConfig) error {
	data := make([]byte, 0, 21)
	data = append(data, beacon.UUID[:]...)
	data = binary.BigEndian.AppendUint16(data, beacon.Major)
	data = binary.BigEndian.AppendUint16(data, beacon.Minor)
	data = append(data, byte(beacon.TxPower))

	_, err := c.Send(ctx, CmdMfg, mfgPayload(MfgSubIBeacon, data))
	return err
}

// mfgPayload prefixes a manufacturer-specific payload with the vendor code
// and sub-command.
func mfgPayload(sub byte, data []byte) []byte {
	payload := make([]byte, 0, 4+len(data))
	payload = append(payload, VendorCode[:]...)
	payload = append(payload, sub)
	return append(payload, data...)
}

// secureHandshake establishes the secure channel: CHLNG carries our random
// challenge, CCRYPT proves the device holds the base key, SCRYPT proves we
// do, and RMAC_I seeds the rolling MAC.
func (c *Controller) secureHandshake(ctx context.Context) error {
	rndA, err := newChallenge()
	if err != nil {
		return err
	}

	chlng := &Frame{
		Address:  c.address,
		Sequence: c.nextSeq(),
		UseCRC:   true,
		SCB:      []byte{3, scsChallenge, 0},
		Tag:      byte(CmdChlng),
		Payload:  rndA[:],
	}
	reply, err := c.exchange(ctx, chlng)
	if err != nil {
		return err
	}
	if ReplyTag(reply.Tag) != ReplyCCrypt {
		return fmt.Errorf("unexpected reply %s to challenge", ReplyTag(reply.Tag))
	}
	if len(reply.Payload) != 32 {
		return fmt.Errorf("short CCRYPT payload: %d bytes", len(reply.Payload))
	}

	// Payload layout: cUID(8) rndB(8) cryptogram(16).
	var rndB [8]byte
	copy(rndB[:], reply.Payload[8:16])
	c.session.deriveKeys(DefaultSCBK, rndA)

	clientCryptogram := c.session.cryptogram(rndA, rndB)
	if !bytesEqual16(clientCryptogram, reply.Payload[16:32]) {
		return fmt.Errorf("device cryptogram mismatch: wrong base key")
	}

	serverCryptogram := c.session.cryptogram(rndB, rndA)
	scrypt := &Frame{
		Address:  c.address,
		Sequence: c.nextSeq(),
		UseCRC:   true,
		SCB:      []byte{3, scsSCrypt, 0},
		Tag:      byte(CmdSCrypt),
		Payload:  serverCryptogram[:],
	}
	reply, err = c.exchange(ctx, scrypt)
	if err != nil {
		return err
	}
	if ReplyTag(reply.Tag) != ReplyRMacI {
		return fmt.Errorf("unexpected reply %s to scrypt", ReplyTag(reply.Tag))
	}
	if len(reply.Payload) != 16 {
		return fmt.Errorf("short RMAC_I payload: %d bytes", len(reply.Payload))
	}

	copy(c.session.rmac[:], reply.Payload)
	c.session.active = true
	return nil
}

func bytesEqual16(a [16]byte, b []byte) bool {
	if len(b) != 16 {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// exchange writes one frame and reads one reply frame.
func (c *Controller) exchange(ctx context.Context, f *Frame) (*Frame, error) {
	buf, err := f.Encode()
	if err != nil {
		return nil, err
	}
	c.captureFrame(capture.DirectionOut, f.Tag, CommandTag(f.Tag).String(), buf)

	if _, err := c.transport.Write(buf); err != nil {
		c.captureError(err, "writing frame")
		return nil, fmt.Errorf("writing frame: %w", err)
	}

	reply, raw, err := c.readFrame(ctx)
	if err != nil {
		c.captureError(err, "reading reply")
		return nil, err
	}
	c.captureFrame(capture.DirectionIn, reply.Tag, ReplyTag(reply.Tag).String(), raw)

	if !reply.Reply() {
		return nil, fmt.Errorf("frame from address 0x%02x is not a reply", reply.Address)
	}
	return reply, nil
}

// readFrame scans the link for the next complete packet addressed to us.
// Serial reads with a configured read timeout return (0, nil); the overall
// wait is bounded by the reply timeout.
func (c *Controller) readFrame(ctx context.Context) (*Frame, []byte, error) {
	deadline := time.Now().Add(c.replyTimeout)

	// Hunt for the start-of-message byte, discarding line noise.
	one := make([]byte, 1)
	for {
		if err := c.wait(ctx, deadline); err != nil {
			return nil, nil, err
		}
		n, err := c.transport.Read(one)
		if err != nil {
			return nil, nil, fmt.Errorf("reading frame: %w", err)
		}
		if n == 1 && one[0] == SOM {
			break
		}
	}

	header := make([]byte, headerSize)
	header[0] = SOM
	if err := c.readFull(ctx, header[1:], deadline); err != nil {
		return nil, nil, err
	}

	total := packetLength(header)
	if total < headerSize+2 || total > 0xFFFF {
		return nil, nil, fmt.Errorf("implausible packet length %d", total)
	}

	buf := make([]byte, total)
	copy(buf, header)
	if err := c.readFull(ctx, buf[headerSize:], deadline); err != nil {
		return nil, nil, err
	}

	f, err := Decode(buf)
	if err != nil {
		return nil, nil, fmt.Errorf("decoding reply: %w", err)
	}
	return f, buf, nil
}

// readFull fills buf from the transport, respecting ctx and the deadline.
func (c *Controller) readFull(ctx context.Context, buf []byte, deadline time.Time) error {
	off := 0
	for off < len(buf) {
		if err := c.wait(ctx, deadline); err != nil {
			return err
		}
		n, err := c.transport.Read(buf[off:])
		if err != nil {
			return fmt.Errorf("reading frame: %w", err)
		}
		off += n
	}
	return nil
}

// wait checks cancellation and the reply deadline.
func (c *Controller) wait(ctx context.Context, deadline time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if time.Now().After(deadline) {
		return ErrReplyTimeout
	}
	return nil
}

// nextSeq advances the 2-bit packet sequence number, cycling 1-2-3.
// Sequence 0 is reserved for link reset.
func (c *Controller) nextSeq() byte {
	c.seq = c.seq%3 + 1
	return c.seq
}

func (c *Controller) captureFrame(dir capture.Direction, tag byte, tagName string, raw []byte) {
	data := raw
	truncated := false
	if len(data) > maxCaptureData {
		data = data[:maxCaptureData]
		truncated = true
	}
	c.capture.Log(capture.Event{
		Timestamp: time.Now(),
		SessionID: c.sessionID,
		Direction: dir,
		Category:  capture.CategoryFrame,
		Port:      c.port,
		Address:   c.address,
		Frame: &capture.FrameEvent{
			Tag:       tag,
			TagName:   tagName,
			Size:      len(raw),
			Data:      append([]byte(nil), data...),
			Truncated: truncated,
		},
	})
}

func (c *Controller) captureState(oldState, newState, reason string) {
	c.capture.Log(capture.Event{
		Timestamp: time.Now(),
		SessionID: c.sessionID,
		Direction: capture.DirectionOut,
		Category:  capture.CategoryState,
		Port:      c.port,
		Address:   c.address,
		State: &capture.StateChangeEvent{
			OldState: oldState,
			NewState: newState,
			Reason:   reason,
		},
	})
}

func (c *Controller) captureError(err error, context string) {
	c.capture.Log(capture.Event{
		Timestamp: time.Now(),
		SessionID: c.sessionID,
		Direction: capture.DirectionIn,
		Category:  capture.CategoryError,
		Port:      c.port,
		Address:   c.address,
		Error: &capture.ErrorEventData{
			Message: err.Error(),
			Context: context,
		},
	})
}
