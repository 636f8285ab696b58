package console

import (
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"

	consoleslog "github.com/phsym/console-slog"
)

const (
	defaultLogsDir   = "./logs"
	defaultFlushPath = "./osdpcapture.log"

	// Log file suffixes are drawn uniformly from [0, 1,000,000] so
	// concurrent runs don't collide on a name.
	logSuffixRange = 1_000_001
)

// SessionConfig configures Establish.
type SessionConfig struct {
	// Verbose selects debug level; otherwise info.
	Verbose bool

	// InlineLog makes the terminal the log sink and silences all other
	// terminal output for the rest of the run.
	InlineLog bool

	// FlushLog truncates the capture file before the sink is established.
	// Ignored when InlineLog is set.
	FlushLog bool

	// Terminal is the operator's terminal stream (default os.Stdout).
	Terminal io.Writer

	// LogsDir holds the per-run log files (default ./logs). The directory
	// is assumed to exist.
	LogsDir string

	// FlushPath is the capture file truncated by FlushLog
	// (default ./osdpcapture.log).
	FlushPath string
}

// LoggingSession is the process-wide logging sink: established exactly once
// per run, before any controller interaction, and never re-initialized.
type LoggingSession struct {
	logger      *slog.Logger
	level       slog.Level
	destination string
	sink        OutputSink
	file        *os.File
}

// Establish selects the log destination, sets up the sink, and announces
// the choice both in the log and on the terminal. With InlineLog the sink
// is the terminal itself and the returned OutputSink is the silent variant;
// otherwise a fresh randomly-suffixed file under LogsDir receives the log.
func Establish(cfg SessionConfig) (*LoggingSession, error) {
	if cfg.Terminal == nil {
		cfg.Terminal = os.Stdout
	}
	if cfg.LogsDir == "" {
		cfg.LogsDir = defaultLogsDir
	}
	if cfg.FlushPath == "" {
		cfg.FlushPath = defaultFlushPath
	}

	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}

	// Maintenance action, independent of the sink chosen below.
	if cfg.FlushLog && !cfg.InlineLog {
		f, err := os.OpenFile(cfg.FlushPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("flushing %s: %w", cfg.FlushPath, err)
		}
		f.Close()
	}

	s := &LoggingSession{level: level}

	var handler slog.Handler
	if cfg.InlineLog {
		handler = consoleslog.NewHandler(cfg.Terminal, &consoleslog.HandlerOptions{Level: level})
		s.destination = "Terminal"
		s.sink = NewSilentSink()
	} else {
		name := filepath.Join(cfg.LogsDir, fmt.Sprintf("osdpcapture_%d.log", rand.IntN(logSuffixRange)))
		f, err := os.Create(name)
		if err != nil {
			return nil, fmt.Errorf("creating log file: %w", err)
		}
		handler = slog.NewTextHandler(f, &slog.HandlerOptions{Level: level})
		s.destination = name
		s.file = f
		s.sink = NewTerminalSink(cfg.Terminal)
	}

	s.logger = slog.New(handler)
	slog.SetDefault(s.logger)

	s.logger.Info("logging started", "level", level.String(), "destination", s.destination)
	fmt.Fprintf(cfg.Terminal, "Logging started with level %s to %s\n", level, s.destination)

	return s, nil
}

// Logger returns the session logger.
func (s *LoggingSession) Logger() *slog.Logger {
	return s.logger
}

// Sink returns the terminal output sink for the rest of the run: the real
// terminal normally, the silent variant in inline-log mode.
func (s *LoggingSession) Sink() OutputSink {
	return s.sink
}

// Destination returns the resolved log destination: "Terminal" or a file path.
func (s *LoggingSession) Destination() string {
	return s.destination
}

// Level returns the active log level.
func (s *LoggingSession) Level() slog.Level {
	return s.level
}

// Close flushes and closes the log file, if one was opened.
func (s *LoggingSession) Close() error {
	if s.file == nil {
		return nil
	}
	return s.file.Close()
}
