package osdp

// CommandTag is an OSDP command code sent from the controller (CP) to the
// peripheral device (PD).
type CommandTag uint8

// Command tags (OSDP v2.2 §6).
const (
	// CmdPoll requests pending events from the device.
	CmdPoll CommandTag = 0x60

	// CmdID requests the device identification report.
	CmdID CommandTag = 0x61

	// CmdCap requests the device capabilities report.
	CmdCap CommandTag = 0x62

	// CmdLStat requests the local status report (tamper, power).
	CmdLStat CommandTag = 0x64

	// CmdComSet configures communication parameters (address, baud).
	CmdComSet CommandTag = 0x6E

	// CmdKeySet loads a secure channel base key.
	CmdKeySet CommandTag = 0x75

	// CmdChlng initiates the secure channel handshake.
	CmdChlng CommandTag = 0x76

	// CmdSCrypt completes the secure channel handshake.
	CmdSCrypt CommandTag = 0x77

	// CmdFileTransfer carries one fragment of a file transfer.
	CmdFileTransfer CommandTag = 0x7C

	// CmdMfg is a manufacturer-specific command.
	CmdMfg CommandTag = 0x80
)

// String returns the command tag name.
func (t CommandTag) String() string {
	switch t {
	case CmdPoll:
		return "POLL"
	case CmdID:
		return "ID"
	case CmdCap:
		return "CAP"
	case CmdLStat:
		return "LSTAT"
	case CmdComSet:
		return "COMSET"
	case CmdKeySet:
		return "KEYSET"
	case CmdChlng:
		return "CHLNG"
	case CmdSCrypt:
		return "SCRYPT"
	case CmdFileTransfer:
		return "FILETRANSFER"
	case CmdMfg:
		return "MFG"
	default:
		return "UNKNOWN"
	}
}

// ReplyTag is an OSDP reply code sent from the device back to the controller.
type ReplyTag uint8

// Reply tags (OSDP v2.2 §7).
const (
	// ReplyAck is the general acknowledge, nothing to report.
	ReplyAck ReplyTag = 0x40

	// ReplyNak is the negative acknowledge; payload carries an error code.
	ReplyNak ReplyTag = 0x41

	// ReplyPdID is the device identification report.
	ReplyPdID ReplyTag = 0x45

	// ReplyPdCap is the device capabilities report.
	ReplyPdCap ReplyTag = 0x46

	// ReplyLStat is the local status report.
	ReplyLStat ReplyTag = 0x48

	// ReplyRaw is card data in raw bit-array format.
	ReplyRaw ReplyTag = 0x50

	// ReplyKeypad is keypad data.
	ReplyKeypad ReplyTag = 0x53

	// ReplyCom is the communication parameters report.
	ReplyCom ReplyTag = 0x54

	// ReplyCCrypt is the device's secure channel challenge response.
	ReplyCCrypt ReplyTag = 0x76

	// ReplyRMacI is the initial running MAC for the secure session.
	ReplyRMacI ReplyTag = 0x78

	// ReplyFTStat is the file transfer status report.
	ReplyFTStat ReplyTag = 0x7A

	// ReplyMfg is a manufacturer-specific reply.
	ReplyMfg ReplyTag = 0x90
)

// String returns the reply tag name.
func (t ReplyTag) String() string {
	switch t {
	case ReplyAck:
		return "ACK"
	case ReplyNak:
		return "NAK"
	case ReplyPdID:
		return "PDID"
	case ReplyPdCap:
		return "PDCAP"
	case ReplyLStat:
		return "LSTATR"
	case ReplyRaw:
		return "RAW"
	case ReplyKeypad:
		return "KEYPAD"
	case ReplyCom:
		return "COM"
	case ReplyCCrypt:
		return "CCRYPT"
	case ReplyRMacI:
		return "RMAC_I"
	case ReplyFTStat:
		return "FTSTAT"
	case ReplyMfg:
		return "MFGREP"
	default:
		return "UNKNOWN"
	}
}

// VendorCode is the WaveLynx IEEE OUI carried in the first three bytes of
// every manufacturer-specific command payload.
var VendorCode = [3]byte{0x5C, 0x26, 0x23}

// Manufacturer-specific sub-commands under VendorCode.
const (
	// MfgSubRequestConf requests the extended reader configuration block.
	MfgSubRequestConf byte = 0x01

	// MfgSubSetSerial provisions the reader serial number.
	MfgSubSetSerial byte = 0x02

	// MfgSubIBeacon writes the iBeacon advertisement configuration.
	MfgSubIBeacon byte = 0x03
)
