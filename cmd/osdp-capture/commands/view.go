// Package commands implements the osdp-capture CLI commands.
package commands

import (
	"encoding/hex"
	"fmt"
	"io"

	"github.com/osdp-tools/osdp-console/pkg/capture"
)

// RunView prints the capture file in human-readable format, one block per
// event, filtered by the given criteria.
func RunView(path string, filter capture.Filter, w io.Writer) error {
	reader, err := capture.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open capture file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		formatEvent(w, event)
	}
	return nil
}

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event capture.Event) {
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	session := shortenSessionID(event.SessionID)
	dir := event.Direction.String()

	var typeLabel string
	switch {
	case event.Frame != nil:
		typeLabel = event.Frame.TagName
	case event.State != nil:
		typeLabel = "State"
	case event.Error != nil:
		typeLabel = "Error"
	default:
		typeLabel = "Unknown"
	}

	fmt.Fprintf(w, "%s [session:%s] %-3s %s %s\n", ts, session, dir, event.Category, typeLabel)

	switch {
	case event.Frame != nil:
		formatFrameDetails(w, event.Frame)
	case event.State != nil:
		formatStateDetails(w, event.State)
	case event.Error != nil:
		formatErrorDetails(w, event.Error)
	}

	fmt.Fprintln(w) // Blank line between events
}

// shortenSessionID returns the first 8 characters of the session ID.
func shortenSessionID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

func formatFrameDetails(w io.Writer, frame *capture.FrameEvent) {
	fmt.Fprintf(w, "  Tag: %s (0x%02x)\n", frame.TagName, frame.Tag)
	fmt.Fprintf(w, "  Size: %d bytes\n", frame.Size)
	if len(frame.Data) > 0 {
		fmt.Fprintf(w, "  Data: %s", hex.EncodeToString(frame.Data))
		if frame.Truncated {
			fmt.Fprintf(w, " (truncated)")
		}
		fmt.Fprintln(w)
	}
}

func formatStateDetails(w io.Writer, state *capture.StateChangeEvent) {
	if state.OldState != "" {
		fmt.Fprintf(w, "  Transition: %s -> %s\n", state.OldState, state.NewState)
	} else {
		fmt.Fprintf(w, "  State: %s\n", state.NewState)
	}
	if state.Reason != "" {
		fmt.Fprintf(w, "  Reason: %s\n", state.Reason)
	}
}

func formatErrorDetails(w io.Writer, errData *capture.ErrorEventData) {
	fmt.Fprintf(w, "  Error: %s\n", errData.Message)
	if errData.Context != "" {
		fmt.Fprintf(w, "  Context: %s\n", errData.Context)
	}
}

// ParseDirectionFlag parses a -direction flag value.
func ParseDirectionFlag(s string) (capture.Direction, error) {
	switch s {
	case "in":
		return capture.DirectionIn, nil
	case "out":
		return capture.DirectionOut, nil
	default:
		return 0, fmt.Errorf("unknown direction: %s (use: in, out)", s)
	}
}

// ParseCategoryFlag parses a -category flag value.
func ParseCategoryFlag(s string) (capture.Category, error) {
	switch s {
	case "frame":
		return capture.CategoryFrame, nil
	case "state":
		return capture.CategoryState, nil
	case "error":
		return capture.CategoryError, nil
	default:
		return 0, fmt.Errorf("unknown category: %s (use: frame, state, error)", s)
	}
}
