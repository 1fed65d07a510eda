package progress

import (
	"sort"
	"time"
)

// EventType represents the type of progress event
type EventType int

const (
	EventScanStart EventType = iota
	EventScanComplete
	EventEnterDirectory
	EventLeaveDirectory
	EventFileDiscovered
	EventFileAnalyzed
	EventFileFailed
	EventSkipped
	EventFileWriting
	EventFileWritten
	EventInfo
	EventGitIgnoreEnter
	EventGitIgnoreLeave
)

// Event represents something that happened during a scan
type Event struct {
	Type      EventType
	Path      string
	Info      string
	Reason    string
	FileCount int
	DirCount  int
	LineCount int
	Warnings  int
	Duration  time.Duration
}

// Reporter is the interface the scanner uses to report events
type Reporter interface {
	Report(event Event)
}

// Handler processes events and produces output
type Handler interface {
	Handle(event Event)
}

// TimingEntry is the analysis time of one file
type TimingEntry struct {
	Path     string
	Lines    int
	Duration time.Duration
}

// getTimingIcon returns the appropriate icon for a duration
func getTimingIcon(seconds float64) string {
	if seconds >= 1.0 {
		return "🔴"
	} else if seconds >= 0.1 {
		return "🟡"
	}
	return "🟢"
}

// slowest returns at most n timings ordered by duration descending
func slowest(timings []TimingEntry, n int) []TimingEntry {
	sorted := make([]TimingEntry, len(timings))
	copy(sorted, timings)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Duration > sorted[j].Duration
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
