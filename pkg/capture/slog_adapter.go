package capture

import (
	"encoding/hex"
	"log/slog"
)

// SlogAdapter writes capture events to an slog.Logger at debug level.
// Useful in inline-log mode when the terminal is the only sink.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a new SlogAdapter that writes to the given slog.Logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event to the slog logger at Debug level.
func (a *SlogAdapter) Log(event Event) {
	attrs := []any{
		slog.String("session", event.SessionID),
		slog.String("direction", event.Direction.String()),
		slog.String("category", event.Category.String()),
	}
	if event.Port != "" {
		attrs = append(attrs, slog.String("port", event.Port))
	}

	switch {
	case event.Frame != nil:
		attrs = append(attrs,
			slog.String("tag", event.Frame.TagName),
			slog.Int("size", event.Frame.Size),
		)
		if len(event.Frame.Data) > 0 {
			attrs = append(attrs, slog.String("data", hex.EncodeToString(event.Frame.Data)))
		}
	case event.State != nil:
		attrs = append(attrs,
			slog.String("old_state", event.State.OldState),
			slog.String("new_state", event.State.NewState),
		)
		if event.State.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.State.Reason))
		}
	case event.Error != nil:
		attrs = append(attrs,
			slog.String("error", event.Error.Message),
			slog.String("context", event.Error.Context),
		)
	}

	a.logger.Debug("osdp capture", attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
