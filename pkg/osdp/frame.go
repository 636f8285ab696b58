package osdp

import (
	"encoding/binary"
	"fmt"
)

// SOM is the start-of-message marker that opens every OSDP packet.
const SOM byte = 0x53

// headerSize is the fixed packet prefix: SOM, address, length (2), control.
const headerSize = 5

// replyAddressBit is set in the address byte of device-to-controller packets.
const replyAddressBit byte = 0x80

// Control byte bits.
const (
	ctrlSequenceMask byte = 0x03
	ctrlCRC16        byte = 0x04
	ctrlSCBPresent   byte = 0x08
)

// MaxPayloadSize bounds the data section of a single packet. The OSDP length
// field is 16 bits; practical devices advertise much smaller receive buffers
// via CAP, which the file transfer path honors separately.
const MaxPayloadSize = 0xFFFF - headerSize - 3

// Frame is one OSDP packet: a command (controller to device) or a reply
// (device to controller).
//
// On the wire: [SOM][ADDR][LEN_LSB][LEN_MSB][CTRL][SCB?][TAG][DATA...][CKSUM|CRC].
// The length field covers the whole packet including SOM and the check bytes.
type Frame struct {
	// Address is the device address on the line (0-126). The high bit is
	// set on replies; use Reply() rather than testing it directly.
	Address byte

	// Sequence is the 2-bit packet sequence number (0-3). Sequence 0
	// requests a retransmission-state reset and is never ACKed with data.
	Sequence byte

	// UseCRC selects the 16-bit CRC trailer; otherwise a single additive
	// checksum byte is used.
	UseCRC bool

	// SCB is the security control block, present only on secure sessions.
	// The first byte of a non-nil SCB is its total length.
	SCB []byte

	// Tag is the command or reply code.
	Tag byte

	// Payload is the data section, possibly empty.
	Payload []byte
}

// Reply reports whether this frame came from the device.
func (f *Frame) Reply() bool {
	return f.Address&replyAddressBit != 0
}

// Encode serializes the frame to wire format.
func (f *Frame) Encode() ([]byte, error) {
	if len(f.Payload) > MaxPayloadSize {
		return nil, fmt.Errorf("payload %d bytes exceeds maximum %d", len(f.Payload), MaxPayloadSize)
	}

	checkLen := 1
	if f.UseCRC {
		checkLen = 2
	}
	total := headerSize + len(f.SCB) + 1 + len(f.Payload) + checkLen

	buf := make([]byte, 0, total)
	buf = append(buf, SOM, f.Address)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(total))

	ctrl := f.Sequence & ctrlSequenceMask
	if f.UseCRC {
		ctrl |= ctrlCRC16
	}
	if len(f.SCB) > 0 {
		ctrl |= ctrlSCBPresent
	}
	buf = append(buf, ctrl)
	buf = append(buf, f.SCB...)
	buf = append(buf, f.Tag)
	buf = append(buf, f.Payload...)

	if f.UseCRC {
		buf = binary.LittleEndian.AppendUint16(buf, crc16(buf))
	} else {
		buf = append(buf, checksum(buf))
	}
	return buf, nil
}

// Decode parses one complete packet from buf. The buffer must contain
// exactly the packet; length and check bytes are validated.
func Decode(buf []byte) (*Frame, error) {
	if len(buf) < headerSize+2 {
		return nil, fmt.Errorf("packet too short: %d bytes", len(buf))
	}
	if buf[0] != SOM {
		return nil, fmt.Errorf("bad start of message: 0x%02x", buf[0])
	}

	length := int(binary.LittleEndian.Uint16(buf[2:4]))
	if length != len(buf) {
		return nil, fmt.Errorf("length field %d does not match packet size %d", length, len(buf))
	}

	ctrl := buf[4]
	f := &Frame{
		Address:  buf[1],
		Sequence: ctrl & ctrlSequenceMask,
		UseCRC:   ctrl&ctrlCRC16 != 0,
	}

	checkLen := 1
	if f.UseCRC {
		checkLen = 2
		want := binary.LittleEndian.Uint16(buf[len(buf)-2:])
		if got := crc16(buf[:len(buf)-2]); got != want {
			return nil, fmt.Errorf("CRC mismatch: got 0x%04x, want 0x%04x", got, want)
		}
	} else {
		want := buf[len(buf)-1]
		if got := checksum(buf[:len(buf)-1]); got != want {
			return nil, fmt.Errorf("checksum mismatch: got 0x%02x, want 0x%02x", got, want)
		}
	}

	body := buf[headerSize : len(buf)-checkLen]
	if ctrl&ctrlSCBPresent != 0 {
		if len(body) < 1 || int(body[0]) > len(body) || body[0] < 2 {
			return nil, fmt.Errorf("malformed security control block")
		}
		f.SCB = body[:body[0]]
		body = body[body[0]:]
	}
	if len(body) < 1 {
		return nil, fmt.Errorf("packet has no command byte")
	}

	f.Tag = body[0]
	if len(body) > 1 {
		f.Payload = body[1:]
	}
	return f, nil
}

// packetLength extracts the declared total length from a packet header.
// header must hold at least headerSize bytes starting at SOM.
func packetLength(header []byte) int {
	return int(binary.LittleEndian.Uint16(header[2:4]))
}

// crc16 computes the OSDP packet CRC (poly 0x1021, init 0x1D0F, unreflected).
func crc16(data []byte) uint16 {
	crc := uint16(0x1D0F)
	for _, b := range data {
		crc ^= uint16(b) << 8
		for i := 0; i < 8; i++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}

// checksum computes the single-byte additive check: the two's complement of
// the low 8 bits of the byte sum.
func checksum(data []byte) byte {
	var sum byte
	for _, b := range data {
		sum += b
	}
	return -sum
}
