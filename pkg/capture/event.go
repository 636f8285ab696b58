package capture

import (
	"time"
)

// Event represents one captured occurrence on the serial link.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// SessionID uniquely identifies the controller session (UUID).
	SessionID string `cbor:"2,keyasint"`

	// Direction indicates frame flow relative to the controller.
	Direction Direction `cbor:"3,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"4,keyasint"`

	// Port is the serial port the session is bound to.
	Port string `cbor:"5,keyasint,omitempty"`

	// Address is the peripheral device address on the RS-485 line.
	Address uint8 `cbor:"6,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Frame *FrameEvent       `cbor:"7,keyasint,omitempty"`
	State *StateChangeEvent `cbor:"8,keyasint,omitempty"`
	Error *ErrorEventData   `cbor:"9,keyasint,omitempty"`
}

// Direction indicates the direction of frame flow.
type Direction uint8

const (
	// DirectionIn indicates a frame received from the device.
	DirectionIn Direction = 0
	// DirectionOut indicates a frame sent to the device.
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryFrame indicates a protocol frame (command or reply).
	CategoryFrame Category = 0
	// CategoryState indicates a session state change.
	CategoryState Category = 1
	// CategoryError indicates a link or protocol error.
	CategoryError Category = 2
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryFrame:
		return "FRAME"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// FrameEvent captures one OSDP frame on the wire.
type FrameEvent struct {
	// Tag is the command or reply code of the frame.
	Tag uint8 `cbor:"1,keyasint"`

	// TagName is the decoded name of the tag, when known.
	TagName string `cbor:"2,keyasint,omitempty"`

	// Size is the full frame size in bytes.
	Size int `cbor:"3,keyasint"`

	// Data is the raw frame bytes (may be truncated for large frames).
	Data []byte `cbor:"4,keyasint,omitempty"`

	// Truncated indicates if Data was truncated.
	Truncated bool `cbor:"5,keyasint,omitempty"`
}

// StateChangeEvent captures session lifecycle transitions.
type StateChangeEvent struct {
	// OldState is the previous state (may be empty).
	OldState string `cbor:"1,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"2,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"3,keyasint,omitempty"`
}

// ErrorEventData captures link and protocol errors.
type ErrorEventData struct {
	// Message is the error message.
	Message string `cbor:"1,keyasint"`

	// Context describes what operation was being performed.
	Context string `cbor:"2,keyasint,omitempty"`
}
