package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/osdp-tools/osdp-console/pkg/capture"
)

// Stats holds aggregate statistics about a capture file.
type Stats struct {
	TotalEvents       int
	EventsByCategory  map[capture.Category]int
	EventsByDirection map[capture.Direction]int
	FramesByTag       map[string]int
	Sessions          map[string]*SessionStats
	Errors            int
	TimeRange         struct {
		Start time.Time
		End   time.Time
	}
}

// SessionStats holds statistics for a single controller session.
type SessionStats struct {
	FirstSeen time.Time
	LastSeen  time.Time
	Events    int
	Port      string
}

// RunStats analyzes the capture file and prints statistics.
func RunStats(path string, w io.Writer) error {
	reader, err := capture.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open capture file: %w", err)
	}
	defer reader.Close()

	stats := &Stats{
		EventsByCategory:  make(map[capture.Category]int),
		EventsByDirection: make(map[capture.Direction]int),
		FramesByTag:       make(map[string]int),
		Sessions:          make(map[string]*SessionStats),
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}

		stats.TotalEvents++
		stats.EventsByCategory[event.Category]++
		stats.EventsByDirection[event.Direction]++
		if event.Frame != nil {
			stats.FramesByTag[event.Frame.TagName]++
		}
		if event.Category == capture.CategoryError {
			stats.Errors++
		}

		if stats.TimeRange.Start.IsZero() || event.Timestamp.Before(stats.TimeRange.Start) {
			stats.TimeRange.Start = event.Timestamp
		}
		if event.Timestamp.After(stats.TimeRange.End) {
			stats.TimeRange.End = event.Timestamp
		}

		session, ok := stats.Sessions[event.SessionID]
		if !ok {
			session = &SessionStats{
				FirstSeen: event.Timestamp,
				LastSeen:  event.Timestamp,
			}
			stats.Sessions[event.SessionID] = session
		}
		session.Events++
		if event.Timestamp.Before(session.FirstSeen) {
			session.FirstSeen = event.Timestamp
		}
		if event.Timestamp.After(session.LastSeen) {
			session.LastSeen = event.Timestamp
		}
		if event.Port != "" {
			session.Port = event.Port
		}
	}

	printStats(w, stats)
	return nil
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintf(w, "Total events: %d\n", stats.TotalEvents)
	if stats.TotalEvents == 0 {
		return
	}

	fmt.Fprintf(w, "Time range: %s to %s (%s)\n",
		stats.TimeRange.Start.UTC().Format(time.RFC3339),
		stats.TimeRange.End.UTC().Format(time.RFC3339),
		stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Millisecond))
	fmt.Fprintf(w, "Errors: %d\n", stats.Errors)

	fmt.Fprintln(w, "\nBy direction:")
	for _, dir := range []capture.Direction{capture.DirectionOut, capture.DirectionIn} {
		fmt.Fprintf(w, "  %-3s %d\n", dir, stats.EventsByDirection[dir])
	}

	fmt.Fprintln(w, "\nFrames by tag:")
	tags := make([]string, 0, len(stats.FramesByTag))
	for tag := range stats.FramesByTag {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	for _, tag := range tags {
		fmt.Fprintf(w, "  %-12s %d\n", tag, stats.FramesByTag[tag])
	}

	fmt.Fprintf(w, "\nSessions: %d\n", len(stats.Sessions))
	ids := make([]string, 0, len(stats.Sessions))
	for id := range stats.Sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		s := stats.Sessions[id]
		short := id
		if len(short) > 8 {
			short = short[:8]
		}
		fmt.Fprintf(w, "  %s  port=%s events=%d span=%s\n",
			short, s.Port, s.Events, s.LastSeen.Sub(s.FirstSeen).Round(time.Millisecond))
	}
}
