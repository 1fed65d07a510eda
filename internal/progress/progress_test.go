package progress

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestSimpleHandler(t *testing.T) {
	tests := []struct {
		name     string
		event    Event
		expected string
	}{
		{
			name: "scan start",
			event: Event{
				Type: EventScanStart,
				Path: "/path/to/programs",
				Info: "archive/**, *.bak",
			},
			expected: "[SCAN] Starting: /path/to/programs\n[SCAN] Excluding: archive/**, *.bak\n",
		},
		{
			name: "enter directory",
			event: Event{
				Type: EventEnterDirectory,
				Path: "etl",
			},
			expected: "[DIR]  Entering: etl\n",
		},
		{
			name: "file discovered",
			event: Event{
				Type:   EventFileDiscovered,
				Path:   "etl/load.sas",
				Reason: "extension",
			},
			expected: "[FIND] etl/load.sas (extension)\n",
		},
		{
			name: "file analyzed",
			event: Event{
				Type:      EventFileAnalyzed,
				Path:      "etl/load.sas",
				LineCount: 120,
			},
			expected: "[FILE] Analyzed: etl/load.sas (120 lines)\n",
		},
		{
			name: "file analyzed with warnings",
			event: Event{
				Type:      EventFileAnalyzed,
				Path:      "etl/load.sas",
				LineCount: 120,
				Warnings:  2,
			},
			expected: "[FILE] Analyzed: etl/load.sas (120 lines, 2 warnings)\n",
		},
		{
			name: "file failed",
			event: Event{
				Type:   EventFileFailed,
				Path:   "etl/gone.sas",
				Reason: "source unavailable",
			},
			expected: "[FAIL] etl/gone.sas: source unavailable\n",
		},
		{
			name: "skipped",
			event: Event{
				Type:   EventSkipped,
				Path:   "archive",
				Reason: "excluded by pattern: archive/**",
			},
			expected: "[SKIP] Excluding: archive (excluded by pattern: archive/**)\n",
		},
		{
			name: "scan complete without files",
			event: Event{
				Type:      EventScanComplete,
				FileCount: 0,
				DirCount:  4,
				Duration:  2345 * time.Millisecond,
			},
			expected: "[SCAN] Completed: 0 files, 4 directories in 2.3s\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			handler := NewSimpleHandler(buf)
			handler.Handle(tt.event)

			if buf.String() != tt.expected {
				t.Errorf("Expected:\n%s\nGot:\n%s", tt.expected, buf.String())
			}
		})
	}
}

func TestSimpleHandlerSummary(t *testing.T) {
	buf := &bytes.Buffer{}
	handler := NewSimpleHandler(buf)

	handler.Handle(Event{Type: EventFileAnalyzed, Path: "a.sas", LineCount: 10, Duration: 5 * time.Millisecond})
	handler.Handle(Event{Type: EventFileAnalyzed, Path: "b.sas", LineCount: 30, Warnings: 1, Duration: 2 * time.Second})
	handler.Handle(Event{Type: EventFileFailed, Path: "c.sas", Reason: "boom"})
	handler.Handle(Event{Type: EventScanComplete, FileCount: 3, DirCount: 1, Duration: time.Second})

	output := buf.String()
	expectedParts := []string{
		"ANALYSIS SUMMARY",
		"Files analyzed: 2 (40 lines)",
		"Line warnings: 1",
		"Failed: 1",
		"b.sas (2.000s)",
	}
	for _, part := range expectedParts {
		if !strings.Contains(output, part) {
			t.Errorf("Expected output to contain: %s\nGot:\n%s", part, output)
		}
	}
	if strings.Index(output, "b.sas (2.000s)") > strings.Index(output, "a.sas (0.005s)") {
		t.Errorf("Expected slowest file first\nGot:\n%s", output)
	}
}

func TestProgressReporter(t *testing.T) {
	t.Run("enabled reporter calls handler", func(t *testing.T) {
		buf := &bytes.Buffer{}
		progress := New(true, NewSimpleHandler(buf))

		progress.EnterDirectory("/test")

		if buf.Len() == 0 {
			t.Error("Expected handler to be called when enabled")
		}
	})

	t.Run("disabled reporter does not call handler", func(t *testing.T) {
		buf := &bytes.Buffer{}
		progress := New(false, NewSimpleHandler(buf))

		progress.EnterDirectory("/test")

		if buf.Len() > 0 {
			t.Error("Expected handler not to be called when disabled")
		}
	})

	t.Run("nil reporter is disabled", func(t *testing.T) {
		var progress *Progress
		if progress.Enabled() {
			t.Error("Expected nil reporter to be disabled")
		}
	})
}

func TestConvenienceMethods(t *testing.T) {
	buf := &bytes.Buffer{}
	progress := New(true, NewSimpleHandler(buf))

	progress.ScanStart("/programs", []string{"archive/**", "*.bak"})
	progress.EnterDirectory("etl")
	progress.FileDiscovered("etl/load.sas", "extension")
	progress.FileAnalyzed("etl/load.sas", 12, 0, 0)
	progress.FileFailed("etl/gone.sas", errors.New("source unavailable"))
	progress.Skipped("archive", "excluded")
	progress.Info("Stored run")

	output := buf.String()

	expectedLines := 8 // scan start (2 lines) + 6 other events
	actualLines := strings.Count(output, "\n")

	if actualLines != expectedLines {
		t.Errorf("Expected %d lines, got %d\nOutput:\n%s", expectedLines, actualLines, output)
	}
}

func TestConcurrentReports(t *testing.T) {
	buf := &bytes.Buffer{}
	progress := New(true, NewSimpleHandler(buf))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			progress.FileAnalyzed("job.sas", 1, 0, time.Millisecond)
		}()
	}
	wg.Wait()

	if got := strings.Count(buf.String(), "[FILE]"); got != 20 {
		t.Errorf("Expected 20 file events, got %d", got)
	}
}

func BenchmarkProgressReporterDisabled(b *testing.B) {
	progress := New(false, NewNullHandler())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		progress.FileAnalyzed("job.sas", 10, 0, 0)
	}
}
