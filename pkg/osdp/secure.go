package osdp

import (
	"bytes"
	"crypto/aes"
	"crypto/rand"
	"fmt"
)

// DefaultSCBK is the default secure channel base key (SCBK-D), used until a
// device-specific key is provisioned with KEYSET.
var DefaultSCBK = [16]byte{
	0x30, 0x31, 0x32, 0x33, 0x34, 0x35, 0x36, 0x37,
	0x38, 0x39, 0x3A, 0x3B, 0x3C, 0x3D, 0x3E, 0x3F,
}

// Security control block types.
const (
	scsChallenge   byte = 0x11 // CHLNG
	scsSCrypt      byte = 0x13 // SCRYPT
	scsSealedCmd   byte = 0x15 // MAC-sealed command
	scsSealedReply byte = 0x16 // MAC-sealed reply
)

// macTrailerSize is the truncated MAC appended to sealed packets.
const macTrailerSize = 4

// secureSession holds the state of an established secure channel: the three
// session keys derived from the base key and the rolling MAC that chains
// every sealed packet to its predecessors.
type secureSession struct {
	senc  [16]byte
	smac1 [16]byte
	smac2 [16]byte
	rmac  [16]byte
	active bool
}

// deriveSessionKey derives one session key from the base key and the
// controller's challenge, per the OSDP key diversification scheme: the key
// is the AES encryption of a padded block holding the key tag and the first
// six challenge bytes.
func deriveSessionKey(base [16]byte, tag1, tag2 byte, rndA [8]byte) [16]byte {
	var in [16]byte
	in[0] = tag1
	in[1] = tag2
	copy(in[2:8], rndA[:6])

	block, err := aes.NewCipher(base[:])
	if err != nil {
		panic(fmt.Sprintf("aes cipher: %v", err)) // key size is fixed at 16
	}
	var out [16]byte
	block.Encrypt(out[:], in[:])
	return out
}

// deriveKeys populates the three session keys from the base key and challenge.
func (s *secureSession) deriveKeys(base [16]byte, rndA [8]byte) {
	s.smac1 = deriveSessionKey(base, 0x01, 0x01, rndA)
	s.smac2 = deriveSessionKey(base, 0x01, 0x02, rndA)
	s.senc = deriveSessionKey(base, 0x01, 0x82, rndA)
}

// cryptogram computes the AES encryption of a||b under the session
// encryption key. The device proves key possession with cryptogram(rndA,
// rndB); the controller responds with cryptogram(rndB, rndA).
func (s *secureSession) cryptogram(a, b [8]byte) [16]byte {
	var in [16]byte
	copy(in[:8], a[:])
	copy(in[8:], b[:])

	block, err := aes.NewCipher(s.senc[:])
	if err != nil {
		panic(fmt.Sprintf("aes cipher: %v", err))
	}
	var out [16]byte
	block.Encrypt(out[:], in[:])
	return out
}

// mac computes the chained packet MAC: CBC over the 0x80-padded data with
// smac1 for all blocks but the last, smac2 for the last, chained from the
// current rolling MAC. The result becomes the new rolling MAC.
func (s *secureSession) mac(data []byte) [16]byte {
	padded := pad80(data)

	b1, err := aes.NewCipher(s.smac1[:])
	if err != nil {
		panic(fmt.Sprintf("aes cipher: %v", err))
	}
	b2, err := aes.NewCipher(s.smac2[:])
	if err != nil {
		panic(fmt.Sprintf("aes cipher: %v", err))
	}

	iv := s.rmac
	for off := 0; off < len(padded); off += 16 {
		var in [16]byte
		for i := 0; i < 16; i++ {
			in[i] = padded[off+i] ^ iv[i]
		}
		if off+16 == len(padded) {
			b2.Encrypt(iv[:], in[:])
		} else {
			b1.Encrypt(iv[:], in[:])
		}
	}
	s.rmac = iv
	return iv
}

// seal attaches the security control block and truncated MAC to an outgoing
// command frame.
func (s *secureSession) seal(f *Frame) {
	f.SCB = []byte{2, scsSealedCmd}
	m := s.mac(macInput(f))
	f.Payload = append(f.Payload, m[:macTrailerSize]...)
}

// verify checks the trailing MAC of an incoming sealed reply and strips it.
func (s *secureSession) verify(f *Frame) error {
	if len(f.SCB) < 2 || f.SCB[1] != scsSealedReply {
		return fmt.Errorf("reply is not sealed (scb %x)", f.SCB)
	}
	if len(f.Payload) < macTrailerSize {
		return fmt.Errorf("sealed reply too short for MAC")
	}
	data := f.Payload[:len(f.Payload)-macTrailerSize]
	got := f.Payload[len(f.Payload)-macTrailerSize:]

	f.Payload = data
	want := s.mac(macInput(f))
	if !bytes.Equal(got, want[:macTrailerSize]) {
		return fmt.Errorf("reply MAC mismatch")
	}
	return nil
}

// macInput returns the canonical bytes a packet MAC covers: the addressed
// header fields, the tag, and the data section.
func macInput(f *Frame) []byte {
	buf := make([]byte, 0, 4+len(f.Payload))
	buf = append(buf, SOM, f.Address, f.Sequence, f.Tag)
	buf = append(buf, f.Payload...)
	return buf
}

// pad80 pads data to a whole number of AES blocks with a 0x80 marker byte
// followed by zeros. Empty input pads to one full block.
func pad80(data []byte) []byte {
	n := (len(data)/16 + 1) * 16
	padded := make([]byte, n)
	copy(padded, data)
	padded[len(data)] = 0x80
	return padded
}

// newChallenge returns 8 random challenge bytes.
func newChallenge() ([8]byte, error) {
	var rndA [8]byte
	if _, err := rand.Read(rndA[:]); err != nil {
		return rndA, fmt.Errorf("generating challenge: %w", err)
	}
	return rndA, nil
}
