package capture

import (
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
)

// captureEncMode is the CBOR encoder mode for capture events.
// Configured for nanosecond-precision timestamps and deterministic encoding.
var captureEncMode cbor.EncMode

// captureDecMode is the CBOR decoder mode for capture events.
var captureDecMode cbor.DecMode

func init() {
	var err error

	encOpts := cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeRFC3339Nano,
	}
	captureEncMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create capture CBOR encoder mode: %v", err))
	}

	decOpts := cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyQuiet,
		IndefLength:       cbor.IndefLengthAllowed,
		ExtraReturnErrors: cbor.ExtraDecErrorNone,
	}
	captureDecMode, err = decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create capture CBOR decoder mode: %v", err))
	}
}

// EncodeEvent encodes an Event to CBOR bytes using integer keys for compactness.
func EncodeEvent(event Event) ([]byte, error) {
	return captureEncMode.Marshal(event)
}

// DecodeEvent decodes CBOR bytes into an Event.
func DecodeEvent(data []byte) (Event, error) {
	var event Event
	if err := captureDecMode.Unmarshal(data, &event); err != nil {
		return Event{}, err
	}
	return event, nil
}

// NewEncoder creates a CBOR encoder for capture events that writes to w.
func NewEncoder(w io.Writer) *cbor.Encoder {
	return captureEncMode.NewEncoder(w)
}

// NewDecoder creates a CBOR decoder for capture events that reads from r.
func NewDecoder(r io.Reader) *cbor.Decoder {
	return captureDecMode.NewDecoder(r)
}
