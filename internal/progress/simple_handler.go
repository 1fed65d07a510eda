package progress

import (
	"fmt"
	"io"
)

// SimpleHandler outputs events as simple lines (no tree)
type SimpleHandler struct {
	writer   io.Writer
	timings  []TimingEntry
	failures int
	warnings int
}

func NewSimpleHandler(writer io.Writer) *SimpleHandler {
	return &SimpleHandler{
		writer:  writer,
		timings: make([]TimingEntry, 0),
	}
}

func (h *SimpleHandler) Handle(event Event) {
	switch event.Type {
	case EventScanStart:
		fmt.Fprintf(h.writer, "[SCAN] Starting: %s\n", event.Path)
		if event.Info != "" {
			fmt.Fprintf(h.writer, "[SCAN] Excluding: %s\n", event.Info)
		}

	case EventScanComplete:
		fmt.Fprintf(h.writer, "[SCAN] Completed: %d files, %d directories in %.1fs\n",
			event.FileCount, event.DirCount, event.Duration.Seconds())
		h.printSummary()

	case EventEnterDirectory:
		fmt.Fprintf(h.writer, "[DIR]  Entering: %s\n", event.Path)

	case EventLeaveDirectory:
		if event.Duration > 0 {
			seconds := event.Duration.Seconds()
			fmt.Fprintf(h.writer, "[TIME] %s: %s %.2fs\n", event.Path, getTimingIcon(seconds), seconds)
		}

	case EventFileDiscovered:
		fmt.Fprintf(h.writer, "[FIND] %s (%s)\n", event.Path, event.Reason)

	case EventFileAnalyzed:
		h.timings = append(h.timings, TimingEntry{
			Path:     event.Path,
			Lines:    event.LineCount,
			Duration: event.Duration,
		})
		h.warnings += event.Warnings
		if event.Warnings > 0 {
			fmt.Fprintf(h.writer, "[FILE] Analyzed: %s (%d lines, %d warnings)\n",
				event.Path, event.LineCount, event.Warnings)
		} else {
			fmt.Fprintf(h.writer, "[FILE] Analyzed: %s (%d lines)\n", event.Path, event.LineCount)
		}

	case EventFileFailed:
		h.failures++
		fmt.Fprintf(h.writer, "[FAIL] %s: %s\n", event.Path, event.Reason)

	case EventSkipped:
		fmt.Fprintf(h.writer, "[SKIP] Excluding: %s (%s)\n", event.Path, event.Reason)

	case EventFileWriting:
		fmt.Fprintf(h.writer, "[OUT]  Writing results to: %s\n", event.Path)

	case EventFileWritten:
		fmt.Fprintf(h.writer, "[OUT]  Results written: %s\n", event.Path)

	case EventInfo:
		fmt.Fprintf(h.writer, "[INFO] %s\n", event.Info)

	case EventGitIgnoreEnter, EventGitIgnoreLeave:
		fmt.Fprintf(h.writer, "[GIT]  %s\n", event.Info)
	}
}

// printSummary prints totals and the slowest files once a scan completes
func (h *SimpleHandler) printSummary() {
	if len(h.timings) == 0 && h.failures == 0 {
		return
	}

	var lines int
	for _, timing := range h.timings {
		lines += timing.Lines
	}

	fmt.Fprintf(h.writer, "\nANALYSIS SUMMARY\n")
	fmt.Fprintf(h.writer, "   • Files analyzed: %d (%d lines)\n", len(h.timings), lines)
	if h.warnings > 0 {
		fmt.Fprintf(h.writer, "   • Line warnings: %d\n", h.warnings)
	}
	if h.failures > 0 {
		fmt.Fprintf(h.writer, "   • Failed: %d\n", h.failures)
	}
	for _, timing := range slowest(h.timings, 3) {
		if timing.Duration <= 0 {
			continue
		}
		seconds := timing.Duration.Seconds()
		fmt.Fprintf(h.writer, "   • %s %s (%.3fs)\n", getTimingIcon(seconds), timing.Path, seconds)
	}
	fmt.Fprintln(h.writer)
}
