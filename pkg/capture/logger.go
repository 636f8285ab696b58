package capture

// Logger is the interface the controller uses to record capture events.
// Pass nil or NoopLogger to disable capture.
type Logger interface {
	// Log records a capture event. Implementations must be thread-safe.
	Log(event Event)
}

// NoopLogger discards all events. Use when capture is disabled.
// NoopLogger is safe for concurrent use and usable as a zero value.
type NoopLogger struct{}

// Log discards the event.
func (NoopLogger) Log(Event) {}

// MultiLogger sends events to multiple loggers. Useful when you want both
// console output (via SlogAdapter) and file output (via FileLogger).
type MultiLogger struct {
	loggers []Logger
}

// NewMultiLogger creates a MultiLogger that sends events to all provided loggers.
func NewMultiLogger(loggers ...Logger) *MultiLogger {
	return &MultiLogger{loggers: loggers}
}

// Log sends the event to all configured loggers.
func (m *MultiLogger) Log(event Event) {
	for _, l := range m.loggers {
		l.Log(event)
	}
}

// Compile-time interface satisfaction checks.
var (
	_ Logger = NoopLogger{}
	_ Logger = (*MultiLogger)(nil)
)
