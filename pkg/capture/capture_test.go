package capture

import (
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func frameEvent(session string, dir Direction, tag uint8, name string) Event {
	return Event{
		Timestamp: time.Now(),
		SessionID: session,
		Direction: dir,
		Category:  CategoryFrame,
		Port:      "/dev/ttyUSB0",
		Frame: &FrameEvent{
			Tag:     tag,
			TagName: name,
			Size:    8,
			Data:    []byte{0x53, 0x00, 0x08, 0x00, 0x04, tag, 0x00, 0x00},
		},
	}
}

func TestEncodeDecodeEvent(t *testing.T) {
	event := frameEvent("session-1", DirectionOut, 0x60, "POLL")
	event.Address = 0x01

	data, err := EncodeEvent(event)
	require.NoError(t, err)

	decoded, err := DecodeEvent(data)
	require.NoError(t, err)

	assert.True(t, decoded.Timestamp.Equal(event.Timestamp))
	assert.Equal(t, event.SessionID, decoded.SessionID)
	assert.Equal(t, event.Direction, decoded.Direction)
	assert.Equal(t, event.Category, decoded.Category)
	assert.Equal(t, event.Port, decoded.Port)
	assert.Equal(t, event.Address, decoded.Address)
	require.NotNil(t, decoded.Frame)
	assert.Equal(t, *event.Frame, *decoded.Frame)
	assert.Nil(t, decoded.State)
	assert.Nil(t, decoded.Error)
}

func TestEncodeDecodeStateEvent(t *testing.T) {
	event := Event{
		Timestamp: time.Now(),
		SessionID: "session-1",
		Direction: DirectionOut,
		Category:  CategoryState,
		State: &StateChangeEvent{
			OldState: "connected",
			NewState: "secure",
			Reason:   "secure channel established",
		},
	}

	data, err := EncodeEvent(event)
	require.NoError(t, err)

	decoded, err := DecodeEvent(data)
	require.NoError(t, err)
	require.NotNil(t, decoded.State)
	assert.Equal(t, *event.State, *decoded.State)
}

func TestEncodeDecodeErrorEvent(t *testing.T) {
	event := Event{
		Timestamp: time.Now(),
		SessionID: "session-1",
		Direction: DirectionIn,
		Category:  CategoryError,
		Error: &ErrorEventData{
			Message: "timeout waiting for reply",
			Context: "reading reply",
		},
	}

	data, err := EncodeEvent(event)
	require.NoError(t, err)

	decoded, err := DecodeEvent(data)
	require.NoError(t, err)
	require.NotNil(t, decoded.Error)
	assert.Equal(t, *event.Error, *decoded.Error)
}

func TestTimestampKeepsNanosecondPrecision(t *testing.T) {
	ts := time.Date(2026, 3, 14, 9, 26, 53, 589793238, time.UTC)
	event := Event{Timestamp: ts, SessionID: "s", Category: CategoryFrame}

	data, err := EncodeEvent(event)
	require.NoError(t, err)

	decoded, err := DecodeEvent(data)
	require.NoError(t, err)
	assert.Equal(t, ts.UnixNano(), decoded.Timestamp.UnixNano())
}

func TestFileLoggerWritesReadableEvents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.log")

	logger, err := NewFileLogger(path)
	require.NoError(t, err)

	logger.Log(frameEvent("session-1", DirectionOut, 0x60, "POLL"))
	logger.Log(frameEvent("session-1", DirectionIn, 0x40, "ACK"))
	require.NoError(t, logger.Close())

	reader, err := NewReader(path)
	require.NoError(t, err)
	defer reader.Close()

	first, err := reader.Next()
	require.NoError(t, err)
	assert.Equal(t, uint8(0x60), first.Frame.Tag)

	second, err := reader.Next()
	require.NoError(t, err)
	assert.Equal(t, uint8(0x40), second.Frame.Tag)

	_, err = reader.Next()
	assert.Equal(t, io.EOF, err)
}

func TestFileLoggerAppendsAcrossSessions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.log")

	first, err := NewFileLogger(path)
	require.NoError(t, err)
	first.Log(frameEvent("session-1", DirectionOut, 0x60, "POLL"))
	require.NoError(t, first.Close())

	second, err := NewFileLogger(path)
	require.NoError(t, err)
	second.Log(frameEvent("session-2", DirectionOut, 0x61, "ID"))
	require.NoError(t, second.Close())

	reader, err := NewReader(path)
	require.NoError(t, err)
	defer reader.Close()

	var sessions []string
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		sessions = append(sessions, event.SessionID)
	}
	assert.Equal(t, []string{"session-1", "session-2"}, sessions)
}

func TestFileLoggerCloseIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.log")

	logger, err := NewFileLogger(path)
	require.NoError(t, err)

	require.NoError(t, logger.Close())
	require.NoError(t, logger.Close())

	// Logging after close is silently ignored.
	logger.Log(frameEvent("session-1", DirectionOut, 0x60, "POLL"))

	reader, err := NewReader(path)
	require.NoError(t, err)
	defer reader.Close()

	_, err = reader.Next()
	assert.Equal(t, io.EOF, err)
}

func TestMultiLoggerFansOut(t *testing.T) {
	var a, b recordingLogger
	multi := NewMultiLogger(&a, &b)

	multi.Log(frameEvent("session-1", DirectionOut, 0x60, "POLL"))

	assert.Len(t, a.events, 1)
	assert.Len(t, b.events, 1)
}

type recordingLogger struct {
	events []Event
}

func (r *recordingLogger) Log(event Event) {
	r.events = append(r.events, event)
}

func TestFilterMatches(t *testing.T) {
	in := DirectionIn
	out := DirectionOut
	frame := CategoryFrame
	errCat := CategoryError
	poll := uint8(0x60)

	base := frameEvent("session-1", DirectionOut, 0x60, "POLL")

	tests := []struct {
		name   string
		filter Filter
		event  Event
		want   bool
	}{
		{"empty filter matches all", Filter{}, base, true},
		{"session match", Filter{SessionID: "session-1"}, base, true},
		{"session mismatch", Filter{SessionID: "other"}, base, false},
		{"direction match", Filter{Direction: &out}, base, true},
		{"direction mismatch", Filter{Direction: &in}, base, false},
		{"category match", Filter{Category: &frame}, base, true},
		{"category mismatch", Filter{Category: &errCat}, base, false},
		{"tag match", Filter{Tag: &poll}, base, true},
		{
			"tag requires a frame event",
			Filter{Tag: &poll},
			Event{Category: CategoryState, State: &StateChangeEvent{NewState: "closed"}},
			false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.matches(tt.event))
		})
	}
}

func TestFilterTimeWindow(t *testing.T) {
	ts := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	event := Event{Timestamp: ts, Category: CategoryFrame}

	before := ts.Add(-time.Minute)
	after := ts.Add(time.Minute)

	inWindow := Filter{TimeStart: &before, TimeEnd: &after}
	assert.True(t, inWindow.matches(event))

	// TimeEnd is exclusive.
	atEnd := Filter{TimeEnd: &ts}
	assert.False(t, atEnd.matches(event))

	atStart := Filter{TimeStart: &ts}
	assert.True(t, atStart.matches(event))
}

func TestFilteredReader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.log")

	logger, err := NewFileLogger(path)
	require.NoError(t, err)
	logger.Log(frameEvent("session-1", DirectionOut, 0x60, "POLL"))
	logger.Log(frameEvent("session-1", DirectionIn, 0x40, "ACK"))
	logger.Log(frameEvent("session-2", DirectionOut, 0x61, "ID"))
	require.NoError(t, logger.Close())

	in := DirectionIn
	reader, err := NewFilteredReader(path, Filter{Direction: &in})
	require.NoError(t, err)
	defer reader.Close()

	event, err := reader.Next()
	require.NoError(t, err)
	assert.Equal(t, "ACK", event.Frame.TagName)

	_, err = reader.Next()
	assert.Equal(t, io.EOF, err)
}

func TestNewReaderMissingFile(t *testing.T) {
	_, err := NewReader(filepath.Join(t.TempDir(), "missing.log"))
	require.Error(t, err)
}
